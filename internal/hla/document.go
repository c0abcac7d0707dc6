package hla

import (
	"time"

	"haptune/internal/capability"
)

// Primitive is a symbolic named effect with a scale and start offset.
type Primitive struct {
	Name        string
	Scale       float64
	StartOffset time.Duration
}

// Waveform is an ordered sequence of timing/amplitude sample pairs.
// Amplitudes are encoded 0-255. Repeat is the sample index playback loops
// back to, -1 for no repeat.
type Waveform struct {
	Timings     []time.Duration
	Amplitudes  []int
	Repeat      int
	StartOffset time.Duration
}

// AudioRef references an external audio file by name relative to the scene
// bundle root.
type AudioRef struct {
	Filename    string
	StartOffset time.Duration
}

// ControlPoint is one sample of an envelope. Points arrive pre-ordered by
// decreasing importance; Priority is the point's rank in that order.
type ControlPoint struct {
	Priority  int
	Intensity float64
	Sharpness float64
	Time      time.Duration // absolute from envelope start
}

// Envelope describes continuous frequency or sharpness variation. Exactly
// one of the initial values is set, matching which axis the envelope drives.
type Envelope struct {
	InitialFrequency *float64
	InitialSharpness *float64
	Points           []ControlPoint
}

// Signal is the tier-specific subtree of a scene document.
type Signal struct {
	Primitives         []Primitive
	Waveforms          []Waveform
	Audios             []AudioRef
	Oggs               []AudioRef
	Envelopes          []Envelope
	Duration           time.Duration
	RequiredAudioFiles []string
}

// Empty reports whether the signal carries no playable content.
func (s Signal) Empty() bool {
	return len(s.Primitives) == 0 &&
		len(s.Waveforms) == 0 &&
		len(s.Audios) == 0 &&
		len(s.Oggs) == 0 &&
		len(s.Envelopes) == 0
}

// legacyContent is the canonical single-waveform content of a legacy
// document. It is stored once and materialized into whichever tier slot a
// resolve asks for, so the four views can never diverge.
type legacyContent struct {
	wave     *Waveform
	audios   []AudioRef
	duration time.Duration
	required []string
}

// Document is a parsed scene timeline, either a v2 signal tree or a lifted
// legacy single-signal document.
type Document struct {
	ProjectName string
	TrackName   string

	// tiers holds the v2 signal slots; a nil slot means the document does
	// not define that tier. Index 0 is unused.
	tiers [capability.TierEnvelope + 1]*Signal

	legacy *legacyContent
}

// Empty returns a document that resolves to a no-op signal at every tier.
// Parse failures degrade to it so downstream scheduling is a silent no-op.
func Empty() *Document {
	return &Document{}
}

// Defines reports whether the document carries content for the given tier.
func (d *Document) Defines(tier capability.Tier) bool {
	if d == nil || tier < capability.TierOnOff || tier > capability.TierEnvelope {
		return false
	}
	if d.legacy != nil {
		return true
	}
	return d.tiers[tier] != nil
}

// Resolve selects the signal for the requested tier, degrading to the
// highest defined tier at or below it. A request the document cannot serve
// yields an empty signal that still carries the document duration, so the
// scheduler's completion contract holds for no-op playbacks.
func (d *Document) Resolve(tier capability.Tier) Signal {
	if d == nil {
		return Signal{}
	}
	if tier > capability.TierEnvelope {
		tier = capability.TierEnvelope
	}
	for t := tier; t >= capability.TierOnOff; t-- {
		if d.legacy != nil {
			return d.legacySignal()
		}
		if s := d.tiers[t]; s != nil {
			return *s
		}
	}
	return Signal{Duration: d.MaxDuration()}
}

// MaxDuration returns the longest duration over all defined tiers.
func (d *Document) MaxDuration() time.Duration {
	if d == nil {
		return 0
	}
	if d.legacy != nil {
		return d.legacy.duration
	}
	var max time.Duration
	for _, s := range d.tiers {
		if s != nil && s.Duration > max {
			max = s.Duration
		}
	}
	return max
}

// legacySignal materializes the canonical legacy content as a signal. Every
// tier sees the same value, which is the lift described by the legacy
// format: one amplitude waveform replicated across all tier slots.
func (d *Document) legacySignal() Signal {
	sig := Signal{
		Audios:             d.legacy.audios,
		Duration:           d.legacy.duration,
		RequiredAudioFiles: d.legacy.required,
	}
	if d.legacy.wave != nil {
		sig.Waveforms = []Waveform{*d.legacy.wave}
	}
	return sig
}
