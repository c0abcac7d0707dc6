package device

import (
	"time"

	"haptune/internal/capability"
)

// AudioRoute selects the output device for a single play request. Routing is
// an explicit input per request rather than ambient state, so a route change
// never affects an in-flight playback.
type AudioRoute int

const (
	RouteDefault AudioRoute = iota
	RouteSpeaker
	RouteHeadset
)

func (r AudioRoute) String() string {
	switch r {
	case RouteSpeaker:
		return "speaker"
	case RouteHeadset:
		return "headset"
	default:
		return "default"
	}
}

// ParseRoute maps a route name to its value; unknown names fall back to the
// default route.
func ParseRoute(name string) AudioRoute {
	switch name {
	case "speaker":
		return RouteSpeaker
	case "headset":
		return RouteHeadset
	default:
		return RouteDefault
	}
}

// Effect is the abstract effect descriptor a Vibrator consumes. Exactly one
// of the three shapes is populated: a native primitive name, a sampled
// amplitude waveform, or an envelope.
type Effect struct {
	// Primitive names a natively supported effect; Scale applies to it.
	Primitive string
	Scale     float64

	// Timings and Amplitudes describe a sampled waveform. Amplitudes are
	// encoded 0-255; Repeat is the sample index looped back to, -1 for no
	// repeat.
	Timings    []time.Duration
	Amplitudes []int
	Repeat     int

	Envelope *EnvelopeEffect
}

// EnvelopeEffect carries a native envelope in the relative-delta form the
// hardware APIs consume.
type EnvelopeEffect struct {
	InitialFrequency float64
	InitialSharpness float64
	DeltaTimes       []time.Duration
	Intensities      []float64
	Sharpnesses      []float64
}

// IsZero reports whether the effect carries no playable content.
func (e Effect) IsZero() bool {
	return e.Primitive == "" && len(e.Timings) == 0 && e.Envelope == nil
}

// ClipInfo describes a compressed audio file without decoding it.
type ClipInfo struct {
	Duration   time.Duration
	SampleRate int
	BitDepth   int
	Channels   int
}

// Clip is an opaque decoded audio handle owned by whoever loaded it.
type Clip interface {
	Duration() time.Duration
	Close() error
}

// Vibrator turns abstract effect descriptors into hardware commands. The
// concrete driver lives outside this repository; the daemon wires a static
// stand-in when none is injected.
type Vibrator interface {
	Probe() capability.Descriptor
	Play(effect Effect) error
	Stop() error
}

// AudioSink decodes and plays audio files. Probe must not decode the whole
// file; it reads only enough header to fill ClipInfo.
type AudioSink interface {
	Probe(path string) (ClipInfo, error)
	Load(path string) (Clip, error)
	PlayClip(clip Clip, route AudioRoute) error
	PlayFile(path string, route AudioRoute) error
}
