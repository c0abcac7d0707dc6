// Package pool keys preloaded bundles and decoded clips by source
// identifier, refusing duplicate preloads and releasing owned handles on
// unload.
package pool
