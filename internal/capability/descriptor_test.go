package capability

import (
	"math"
	"testing"
)

func TestTierDerivation(t *testing.T) {
	cases := []struct {
		name string
		desc Descriptor
		want Tier
	}{
		{
			name: "nothing supported",
			desc: Descriptor{},
			want: TierNone,
		},
		{
			name: "on off only",
			desc: Descriptor{SupportsOnOff: true},
			want: TierOnOff,
		},
		{
			name: "amplitude without audio",
			desc: Descriptor{SupportsOnOff: true, SupportsAmplitudeControl: true},
			want: TierAmplitude,
		},
		{
			name: "audio coupled without envelope",
			desc: Descriptor{SupportsOnOff: true, SupportsAmplitudeControl: true, SupportsAudioCoupled: true},
			want: TierAudioCoupled,
		},
		{
			name: "everything",
			desc: Descriptor{
				SupportsOnOff:            true,
				SupportsAmplitudeControl: true,
				SupportsAudioCoupled:     true,
				SupportsEnvelopeEffects:  true,
			},
			want: TierEnvelope,
		},
		{
			name: "no on off dominates every other flag",
			desc: Descriptor{SupportsAmplitudeControl: true, SupportsAudioCoupled: true, SupportsEnvelopeEffects: true},
			want: TierNone,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.desc.Tier(); got != tc.want {
				t.Errorf("Tier() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClampFrequency(t *testing.T) {
	desc := Descriptor{FrequencyResponse: &FrequencyRange{MinHz: 60, MaxHz: 300}}

	if got := desc.ClampFrequency(30); got != 60 {
		t.Errorf("ClampFrequency(30) = %v, want 60", got)
	}
	if got := desc.ClampFrequency(500); got != 300 {
		t.Errorf("ClampFrequency(500) = %v, want 300", got)
	}
	if got := desc.ClampFrequency(150); got != 150 {
		t.Errorf("ClampFrequency(150) = %v, want 150", got)
	}

	unbounded := Descriptor{}
	if got := unbounded.ClampFrequency(500); got != 500 {
		t.Errorf("ClampFrequency without range = %v, want passthrough 500", got)
	}
}

func TestMaxControlPoints(t *testing.T) {
	withEnvelope := Descriptor{
		SupportsEnvelopeEffects: true,
		EnvelopeInfo:            &EnvelopeInfo{MaxControlPoints: 16},
	}
	if got := withEnvelope.MaxControlPoints(); got != 16 {
		t.Errorf("MaxControlPoints() = %d, want 16", got)
	}

	// Envelope info without the capability flag must not leak a budget.
	flagless := Descriptor{EnvelopeInfo: &EnvelopeInfo{MaxControlPoints: 16}}
	if got := flagless.MaxControlPoints(); got != 0 {
		t.Errorf("MaxControlPoints() without flag = %d, want 0", got)
	}
}

func TestUnknownReportsNaN(t *testing.T) {
	desc := Unknown()
	if !math.IsNaN(desc.ResonantFrequency) {
		t.Errorf("ResonantFrequency = %v, want NaN", desc.ResonantFrequency)
	}
	if !math.IsNaN(desc.QFactor) {
		t.Errorf("QFactor = %v, want NaN", desc.QFactor)
	}
	if desc.Tier() != TierNone {
		t.Errorf("Tier() = %v, want TierNone", desc.Tier())
	}
}
