package schedule

import "sync/atomic"

// State is the lifecycle of one scheduled bundle. There is no paused state;
// a playback either runs to completion or the whole player shuts down.
type State int32

const (
	StateIdle State = iota
	StateScheduled
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScheduled:
		return "scheduled"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// playbackState is an atomically readable state cell. Transitions happen
// only on the dispatch goroutine; reads may come from anywhere.
type playbackState struct {
	value atomic.Int32
}

func (s *playbackState) load() State {
	return State(s.value.Load())
}

func (s *playbackState) store(next State) {
	s.value.Store(int32(next))
}
