package compile

import (
	"math"
	"time"
)

// fadeSegment is one linear amplitude ramp used to synthesize primitive
// fallbacks.
type fadeSegment struct {
	duration time.Duration
	from     float64 // 0..1
	to       float64 // 0..1
}

// Fade builds a linear amplitude-over-time sample sequence. The sample count
// is min(duration in ms, |amplitude delta| in encoded 0-255 levels) so
// sample density never exceeds one sample per encoded amplitude level; a
// nonzero duration always yields at least one sample. The delta is measured
// between the encoded endpoints, which keeps the count stable against
// float rounding. Timing deltas sum exactly to duration.
func Fade(duration time.Duration, from, to float64) ([]time.Duration, []int) {
	ms := int64(duration / time.Millisecond)
	if ms <= 0 {
		return nil, nil
	}

	n := int64(encodeAmplitude(to) - encodeAmplitude(from))
	if n < 0 {
		n = -n
	}
	if ms < n {
		n = ms
	}
	if n < 1 {
		n = 1
	}

	base := ms / n
	rem := ms % n

	timings := make([]time.Duration, n)
	amplitudes := make([]int, n)
	for i := int64(0); i < n; i++ {
		step := base
		if i < rem {
			step++
		}
		timings[i] = time.Duration(step) * time.Millisecond

		level := from + (to-from)*float64(i+1)/float64(n)
		amplitudes[i] = encodeAmplitude(level)
	}
	return timings, amplitudes
}

// concatFades appends multiple fade segments into one sample sequence.
func concatFades(segments ...fadeSegment) ([]time.Duration, []int) {
	var timings []time.Duration
	var amplitudes []int
	for _, seg := range segments {
		t, a := Fade(seg.duration, seg.from, seg.to)
		timings = append(timings, t...)
		amplitudes = append(amplitudes, a...)
	}
	return timings, amplitudes
}

func encodeAmplitude(level float64) int {
	encoded := int(math.Round(level * 255))
	if encoded < 0 {
		return 0
	}
	if encoded > 255 {
		return 255
	}
	return encoded
}

// fallbackSegments returns the deterministic amplitude curve standing in for
// a primitive the device cannot execute natively. The curves approximate
// each primitive's feel: pulses for the transient clicks and ticks, fades
// for the shaped ones, a rise/fall pair for spin.
func fallbackSegments(name string) []fadeSegment {
	switch name {
	case "click":
		return []fadeSegment{{30 * time.Millisecond, 1.0, 1.0}}
	case "tick":
		return []fadeSegment{{10 * time.Millisecond, 0.5, 0.5}}
	case "low_tick":
		return []fadeSegment{{20 * time.Millisecond, 0.3, 0.3}}
	case "thud":
		return []fadeSegment{{300 * time.Millisecond, 1.0, 0.0}}
	case "quick_fall":
		return []fadeSegment{{100 * time.Millisecond, 1.0, 0.0}}
	case "quick_rise":
		return []fadeSegment{{150 * time.Millisecond, 0.3, 1.0}}
	case "slow_rise":
		return []fadeSegment{{500 * time.Millisecond, 0.0, 1.0}}
	case "spin":
		return []fadeSegment{
			{100 * time.Millisecond, 0.2, 1.0},
			{100 * time.Millisecond, 1.0, 0.2},
		}
	default:
		return []fadeSegment{{25 * time.Millisecond, 1.0, 1.0}}
	}
}

// scaleSegments applies a primitive's scale to every segment amplitude.
func scaleSegments(segments []fadeSegment, scale float64) []fadeSegment {
	if scale <= 0 || scale == 1 {
		return segments
	}
	scaled := make([]fadeSegment, len(segments))
	for i, seg := range segments {
		scaled[i] = fadeSegment{
			duration: seg.duration,
			from:     clampUnit(seg.from * scale),
			to:       clampUnit(seg.to * scale),
		}
	}
	return scaled
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
