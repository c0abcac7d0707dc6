package device

import (
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"haptune/internal/capability"
	"haptune/internal/config"
	"haptune/internal/logging"
)

// DescriptorFromConfig builds the capability snapshot for probe mode
// "static" from the [device] config section.
func DescriptorFromConfig(dev config.Device) capability.Descriptor {
	desc := capability.Descriptor{
		SupportsOnOff:            dev.SupportsOnOff,
		SupportsAmplitudeControl: dev.SupportsAmplitudeControl,
		SupportsAudioCoupled:     dev.SupportsAudioCoupled,
		SupportsEnvelopeEffects:  dev.SupportsEnvelopeEffects,
		ResonantFrequency:        math.NaN(),
		QFactor:                  math.NaN(),
	}
	if dev.ResonantFrequencyHz > 0 {
		desc.ResonantFrequency = dev.ResonantFrequencyHz
	}
	if dev.QFactor > 0 {
		desc.QFactor = dev.QFactor
	}
	if dev.FrequencyMaxHz > dev.FrequencyMinHz && dev.FrequencyMaxHz > 0 {
		desc.FrequencyResponse = &capability.FrequencyRange{
			MinHz: dev.FrequencyMinHz,
			MaxHz: dev.FrequencyMaxHz,
		}
	}
	if dev.MaxControlPoints > 0 {
		desc.EnvelopeInfo = &capability.EnvelopeInfo{MaxControlPoints: dev.MaxControlPoints}
	}
	if len(dev.NativePrimitives) > 0 {
		desc.NativePrimitives = make(map[string]bool, len(dev.NativePrimitives))
		for _, name := range dev.NativePrimitives {
			desc.NativePrimitives[name] = true
		}
	}
	return desc
}

// StaticVibrator is a driver stand-in with a fixed capability snapshot. It
// logs effect dispatches instead of commanding hardware, which is how
// headless rigs and tests run.
type StaticVibrator struct {
	desc   capability.Descriptor
	logger *slog.Logger

	mu     sync.Mutex
	played []Effect
}

// NewStaticVibrator builds a static vibrator around the given descriptor.
func NewStaticVibrator(desc capability.Descriptor, logger *slog.Logger) *StaticVibrator {
	return &StaticVibrator{
		desc:   desc,
		logger: logging.NewComponentLogger(logger, "vibrator"),
	}
}

func (v *StaticVibrator) Probe() capability.Descriptor { return v.desc }

func (v *StaticVibrator) Play(effect Effect) error {
	v.mu.Lock()
	v.played = append(v.played, effect)
	v.mu.Unlock()
	v.logger.Debug("effect dispatched",
		logging.String("primitive", effect.Primitive),
		logging.Int("waveform_samples", len(effect.Timings)),
		logging.Bool("envelope", effect.Envelope != nil))
	return nil
}

func (v *StaticVibrator) Stop() error { return nil }

// Played returns a snapshot of every effect dispatched so far.
func (v *StaticVibrator) Played() []Effect {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]Effect, len(v.played))
	copy(out, v.played)
	return out
}

// fileClip is the decoded-clip handle used by the null sink: it retains only
// the source path and probed duration.
type fileClip struct {
	path     string
	duration time.Duration
}

func (c *fileClip) Duration() time.Duration { return c.duration }

func (c *fileClip) Close() error { return nil }

// NullSink satisfies AudioSink without producing sound. Probe derives a
// nominal ClipInfo from the file size so preload eligibility stays
// meaningful in tests and headless runs.
type NullSink struct {
	logger *slog.Logger
}

func NewNullSink(logger *slog.Logger) *NullSink {
	return &NullSink{logger: logging.NewComponentLogger(logger, "audiosink")}
}

// nominal decode parameters assumed by the null sink's Probe.
const (
	nullSinkSampleRate = 44100
	nullSinkBitDepth   = 16
	nullSinkChannels   = 2
)

func (s *NullSink) Probe(path string) (ClipInfo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ClipInfo{}, err
	}
	bytesPerSecond := nullSinkSampleRate * (nullSinkBitDepth / 8) * nullSinkChannels
	duration := time.Duration(float64(info.Size()) / float64(bytesPerSecond) * float64(time.Second))
	return ClipInfo{
		Duration:   duration,
		SampleRate: nullSinkSampleRate,
		BitDepth:   nullSinkBitDepth,
		Channels:   nullSinkChannels,
	}, nil
}

func (s *NullSink) Load(path string) (Clip, error) {
	info, err := s.Probe(path)
	if err != nil {
		return nil, err
	}
	return &fileClip{path: path, duration: info.Duration}, nil
}

func (s *NullSink) PlayClip(clip Clip, route AudioRoute) error {
	s.logger.Debug("clip playback dispatched",
		logging.Duration("duration", clip.Duration()),
		logging.String("route", route.String()))
	return nil
}

func (s *NullSink) PlayFile(path string, route AudioRoute) error {
	s.logger.Debug("file playback dispatched",
		logging.String("path", path),
		logging.String("route", route.String()))
	return nil
}
