package schedule

import (
	"log/slog"
	"sync"
	"time"

	"haptune/internal/compile"
	"haptune/internal/device"
	"haptune/internal/logging"
)

// Playback tracks one scheduled bundle from epoch to completion.
type Playback struct {
	duration time.Duration
	state    playbackState
}

// State returns the playback's current lifecycle state.
func (p *Playback) State() State {
	return p.state.load()
}

// Duration returns the bundle duration that determines completion.
func (p *Playback) Duration() time.Duration {
	return p.duration
}

// Scheduler fires bundle items against one shared epoch. All state
// transitions and driver calls run on a single dispatch goroutine; timers
// only post operations onto it, so items of one playback can never race each
// other or the drivers.
type Scheduler struct {
	vibrator device.Vibrator
	sink     device.AudioSink
	logger   *slog.Logger

	ops  chan func()
	quit chan struct{}
	once sync.Once
}

func New(vibrator device.Vibrator, sink device.AudioSink, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Scheduler{
		vibrator: vibrator,
		sink:     sink,
		logger:   logging.NewComponentLogger(logger, "schedule"),
		ops:      make(chan func(), 128),
		quit:     make(chan struct{}),
	}
	go s.dispatch()
	return s
}

// Schedule registers every bundle item to fire at epoch plus its start
// offset and arranges exactly one onComplete call at epoch plus the bundle
// duration. The duration is authoritative: an empty bundle still completes.
// The route is captured per call, so a later route change never affects this
// playback.
func (s *Scheduler) Schedule(bundle compile.Bundle, route device.AudioRoute, onComplete func()) *Playback {
	playback := &Playback{duration: bundle.Duration}
	epoch := time.Now()

	s.post(func() {
		playback.state.store(StateScheduled)

		for _, effect := range bundle.Effects {
			effect := effect
			s.timerAt(epoch, effect.StartOffset, func() {
				s.playEffect(effect.Effect)
			})
		}
		for _, audio := range bundle.Audios {
			audio := audio
			s.timerAt(epoch, audio.StartOffset, func() {
				s.playClip(audio.Clip, route)
			})
		}
		for _, file := range bundle.Files {
			file := file
			s.timerAt(epoch, file.StartOffset, func() {
				s.playFile(file.Path, route)
			})
		}

		s.timerAt(epoch, bundle.Duration, func() {
			if playback.state.load() != StateScheduled {
				return
			}
			playback.state.store(StateComplete)
			if onComplete != nil {
				onComplete()
			}
		})
	})
	return playback
}

// Close stops the dispatch goroutine. Pending timer callbacks become no-ops;
// completion callbacks for in-flight playbacks are not delivered after
// close.
func (s *Scheduler) Close() {
	s.once.Do(func() {
		close(s.quit)
	})
}

func (s *Scheduler) dispatch() {
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.quit:
			return
		}
	}
}

func (s *Scheduler) post(op func()) {
	select {
	case s.ops <- op:
	case <-s.quit:
	}
}

// timerAt fires op on the dispatch goroutine no earlier than epoch+offset.
// Registration happens after epoch, so the remaining delay is measured from
// the captured epoch rather than from now.
func (s *Scheduler) timerAt(epoch time.Time, offset time.Duration, op func()) {
	delay := time.Until(epoch.Add(offset))
	if delay < 0 {
		delay = 0
	}
	time.AfterFunc(delay, func() {
		s.post(op)
	})
}

func (s *Scheduler) playEffect(effect device.Effect) {
	if s.vibrator == nil || effect.IsZero() {
		return
	}
	if err := s.vibrator.Play(effect); err != nil {
		logging.WarnWithContext(s.logger, "vibration effect failed", "effect_failed",
			logging.Error(err))
	}
}

func (s *Scheduler) playClip(clip device.Clip, route device.AudioRoute) {
	if s.sink == nil || clip == nil {
		return
	}
	if err := s.sink.PlayClip(clip, route); err != nil {
		logging.WarnWithContext(s.logger, "audio clip playback failed", "audio_failed",
			logging.Error(err))
	}
}

func (s *Scheduler) playFile(path string, route device.AudioRoute) {
	if s.sink == nil {
		return
	}
	if err := s.sink.PlayFile(path, route); err != nil {
		logging.WarnWithContext(s.logger, "audio file playback failed", "audio_failed",
			logging.String(logging.FieldSource, path),
			logging.Error(err))
	}
}
