package compile

import (
	"testing"
	"time"
)

func TestFadeSampleCountLaw(t *testing.T) {
	cases := []struct {
		name     string
		duration time.Duration
		from, to float64
		want     int
	}{
		{"full swing long", 500 * time.Millisecond, 0.0, 1.0, 255},
		{"full swing short", 100 * time.Millisecond, 1.0, 0.0, 100},
		// 0.5 and 0.6 encode to levels 128 and 153, a 25-level swing.
		{"small swing", 300 * time.Millisecond, 0.5, 0.6, 25},
		{"flat pulse floors at one", 30 * time.Millisecond, 1.0, 1.0, 1},
		{"one millisecond", time.Millisecond, 0.0, 1.0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			timings, amplitudes := Fade(tc.duration, tc.from, tc.to)
			if len(timings) != tc.want {
				t.Fatalf("sample count = %d, want %d", len(timings), tc.want)
			}
			if len(amplitudes) != len(timings) {
				t.Fatalf("amplitude count %d does not match timing count %d", len(amplitudes), len(timings))
			}
			var total time.Duration
			for _, step := range timings {
				if step <= 0 {
					t.Fatalf("non-positive timing delta %v", step)
				}
				total += step
			}
			if total != tc.duration {
				t.Errorf("timing deltas sum to %v, want %v", total, tc.duration)
			}
			if got := amplitudes[len(amplitudes)-1]; got != encodeAmplitude(tc.to) {
				t.Errorf("final amplitude = %d, want %d", got, encodeAmplitude(tc.to))
			}
		})
	}
}

func TestFadeMonotonic(t *testing.T) {
	_, rising := Fade(200*time.Millisecond, 0.0, 1.0)
	for i := 1; i < len(rising); i++ {
		if rising[i] < rising[i-1] {
			t.Fatalf("rising fade decreased at sample %d: %d -> %d", i, rising[i-1], rising[i])
		}
	}

	_, falling := Fade(200*time.Millisecond, 1.0, 0.0)
	for i := 1; i < len(falling); i++ {
		if falling[i] > falling[i-1] {
			t.Fatalf("falling fade increased at sample %d: %d -> %d", i, falling[i-1], falling[i])
		}
	}
}

func TestFadeZeroDuration(t *testing.T) {
	timings, amplitudes := Fade(0, 0.0, 1.0)
	if timings != nil || amplitudes != nil {
		t.Fatalf("zero duration produced %d samples", len(timings))
	}
}

func TestFallbackSegmentDurations(t *testing.T) {
	cases := []struct {
		name string
		want time.Duration
	}{
		{"click", 30 * time.Millisecond},
		{"tick", 10 * time.Millisecond},
		{"low_tick", 20 * time.Millisecond},
		{"thud", 300 * time.Millisecond},
		{"quick_fall", 100 * time.Millisecond},
		{"quick_rise", 150 * time.Millisecond},
		{"slow_rise", 500 * time.Millisecond},
		{"spin", 200 * time.Millisecond},
		{"no_such_primitive", 25 * time.Millisecond},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var total time.Duration
			for _, seg := range fallbackSegments(tc.name) {
				total += seg.duration
			}
			if total != tc.want {
				t.Errorf("fallback duration = %v, want %v", total, tc.want)
			}
		})
	}
}
