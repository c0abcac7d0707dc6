// Package hla models the versioned scene timeline document formats: the
// legacy single-signal schema and the v2 signal tree with one slot per
// capability tier. Resolution degrades a requested tier to the highest tier
// the document actually defines, and parse failures degrade to an empty
// document rather than surfacing to playback.
package hla
