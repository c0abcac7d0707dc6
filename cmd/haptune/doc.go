// Package main hosts the haptune CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into IPC calls
// against the daemon: playback, preloading, cache maintenance, history, and
// configuration scaffolding. It centralizes configuration resolution and
// socket discovery so subcommands can focus on user experience.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
