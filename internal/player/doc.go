// Package player is the facade over scene resolution, effect compilation,
// scheduling, and the resource pool. One player instance owns one capability
// snapshot; every failure short of a malformed request degrades to an empty
// bundle that still delivers exactly one completion callback.
package player
