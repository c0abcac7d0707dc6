package capability

import (
	"math"
	"strconv"
)

// Tier is the ordinal capability level a device can execute natively.
// The ordering is a total order over capability richness.
type Tier int

const (
	TierNone Tier = iota
	TierOnOff
	TierAmplitude
	TierAudioCoupled
	TierEnvelope
)

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "none"
	case TierOnOff:
		return "on-off"
	case TierAmplitude:
		return "amplitude"
	case TierAudioCoupled:
		return "audio-coupled"
	case TierEnvelope:
		return "envelope"
	default:
		return "tier(" + strconv.Itoa(int(t)) + ")"
	}
}

// FrequencyRange describes the actuator's usable frequency response.
type FrequencyRange struct {
	MinHz float64
	MaxHz float64
}

// EnvelopeInfo describes the native envelope-effect API limits.
type EnvelopeInfo struct {
	MaxControlPoints int
}

// Descriptor is an immutable snapshot of the haptic hardware's abilities,
// computed once at session start. Capability cannot change at runtime; a
// hotplugged actuator takes effect on the next session.
type Descriptor struct {
	SupportsOnOff            bool
	SupportsAmplitudeControl bool
	SupportsAudioCoupled     bool
	SupportsEnvelopeEffects  bool

	// ResonantFrequency and QFactor are NaN when the actuator does not
	// report them.
	ResonantFrequency float64
	QFactor           float64

	FrequencyResponse *FrequencyRange
	EnvelopeInfo      *EnvelopeInfo

	// NativePrimitives holds the symbolic primitive names the actuator can
	// execute without waveform fallback.
	NativePrimitives map[string]bool
}

// Unknown builds a descriptor for a device that reported nothing.
func Unknown() Descriptor {
	return Descriptor{
		ResonantFrequency: math.NaN(),
		QFactor:           math.NaN(),
	}
}

// Tier derives the support tier from the capability booleans. On/off absent
// dominates every other flag.
func (d Descriptor) Tier() Tier {
	switch {
	case !d.SupportsOnOff:
		return TierNone
	case !d.SupportsAmplitudeControl:
		return TierOnOff
	case !d.SupportsAudioCoupled:
		return TierAmplitude
	case !d.SupportsEnvelopeEffects:
		return TierAudioCoupled
	default:
		return TierEnvelope
	}
}

// SupportsPrimitive reports whether the named primitive can run natively.
func (d Descriptor) SupportsPrimitive(name string) bool {
	return d.NativePrimitives[name]
}

// MaxControlPoints returns the native envelope point budget, zero when
// envelope effects are unavailable.
func (d Descriptor) MaxControlPoints() int {
	if !d.SupportsEnvelopeEffects || d.EnvelopeInfo == nil {
		return 0
	}
	return d.EnvelopeInfo.MaxControlPoints
}

// ClampFrequency pins hz into the reported frequency response range. Without
// a reported range the value passes through unchanged.
func (d Descriptor) ClampFrequency(hz float64) float64 {
	if d.FrequencyResponse == nil {
		return hz
	}
	if hz < d.FrequencyResponse.MinHz {
		return d.FrequencyResponse.MinHz
	}
	if hz > d.FrequencyResponse.MaxHz {
		return d.FrequencyResponse.MaxHz
	}
	return hz
}
