// Package daemon ties the player, history store, and hotplug monitor into a
// single long-running process guarded by a file lock. It exposes the verbs the
// IPC layer serves and owns the ordered shutdown of its collaborators.
package daemon
