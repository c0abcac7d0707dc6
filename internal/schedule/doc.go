// Package schedule fires compiled bundle items against one shared epoch and
// guarantees exactly one completion callback per playback at epoch plus the
// bundle duration. A single dispatch goroutine serializes all state
// transitions and driver calls.
package schedule
