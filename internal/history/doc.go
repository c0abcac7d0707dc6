// Package history persists playback records in a SQLite database so the CLI
// can show what the daemon played and when.
package history
