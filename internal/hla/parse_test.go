package hla

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"haptune/internal/capability"
)

const legacyDoc = `{
	"ProjectName": "demo",
	"TrackName": "intro",
	"Duration": 500,
	"RequiredAudioFiles": ["hit.wav", "swirl.wav"],
	"Audios": [
		{"Time": 0, "Filename": "hit.wav"},
		{"Time": 250, "Filename": "swirl.wav"}
	],
	"Timings": [100, 200, 200],
	"Amplitudes": [255, 128, 0],
	"Repeat": -1
}`

const v2Doc = `{
	"version": 2,
	"projectName": "demo",
	"trackName": "intro",
	"onOffSignal": {
		"primitives": [{"name": "click", "scale": 1.0, "time": 0}],
		"amplitudes": [],
		"duration": 300,
		"requiredAudioFiles": [],
		"audios": []
	},
	"amplitudeSignal": {
		"primitives": [],
		"amplitudes": [{"timings": [100, 100], "amplitudes": [200, 50], "repeat": -1, "time": 20}],
		"duration": 400,
		"requiredAudioFiles": [],
		"audios": []
	},
	"oggSignal": {
		"primitives": [],
		"amplitudes": [],
		"duration": 600,
		"requiredAudioFiles": ["theme.ogg"],
		"audios": [],
		"oggs": [{"time": 50, "filename": "theme.ogg"}]
	},
	"pwleSignal": {
		"primitives": [],
		"amplitudes": [],
		"duration": 700,
		"requiredAudioFiles": [],
		"audios": [],
		"oggs": [],
		"envelopes": [{
			"frequency": 120,
			"controlPoints": [
				{"priority": 0, "intensity": 1.0, "sharpness": 0.5, "time": 0},
				{"priority": 1, "intensity": 0.4, "sharpness": 0.2, "time": 350}
			]
		}]
	}
}`

func TestParseLegacy(t *testing.T) {
	doc, err := Parse([]byte(legacyDoc))
	if err != nil {
		t.Fatalf("Parse legacy: %v", err)
	}
	if doc.ProjectName != "demo" || doc.TrackName != "intro" {
		t.Errorf("names = %q/%q, want demo/intro", doc.ProjectName, doc.TrackName)
	}

	sig := doc.Resolve(capability.TierAmplitude)
	if sig.Duration != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", sig.Duration)
	}
	if len(sig.Waveforms) != 1 {
		t.Fatalf("Waveforms = %d, want 1", len(sig.Waveforms))
	}
	wave := sig.Waveforms[0]
	if len(wave.Timings) != 3 || wave.Timings[0] != 100*time.Millisecond {
		t.Errorf("unexpected waveform timings %v", wave.Timings)
	}
	if wave.Repeat != -1 {
		t.Errorf("Repeat = %d, want -1", wave.Repeat)
	}
	if len(sig.Audios) != 2 || sig.Audios[1].StartOffset != 250*time.Millisecond {
		t.Errorf("unexpected audios %+v", sig.Audios)
	}
	if len(sig.RequiredAudioFiles) != 2 {
		t.Errorf("RequiredAudioFiles = %v", sig.RequiredAudioFiles)
	}
}

func TestLegacyReplicationLaw(t *testing.T) {
	doc, err := Parse([]byte(legacyDoc))
	if err != nil {
		t.Fatalf("Parse legacy: %v", err)
	}

	base := doc.Resolve(capability.TierOnOff)
	for _, tier := range []capability.Tier{capability.TierAmplitude, capability.TierAudioCoupled, capability.TierEnvelope} {
		sig := doc.Resolve(tier)
		if !reflect.DeepEqual(sig, base) {
			t.Errorf("tier %v signal differs from tier 1 signal", tier)
		}
	}
}

func TestParseV2TierExact(t *testing.T) {
	doc, err := Parse([]byte(v2Doc))
	if err != nil {
		t.Fatalf("Parse v2: %v", err)
	}

	onOff := doc.Resolve(capability.TierOnOff)
	if len(onOff.Primitives) != 1 || onOff.Primitives[0].Name != "click" {
		t.Errorf("tier 1 primitives = %+v", onOff.Primitives)
	}
	if onOff.Duration != 300*time.Millisecond {
		t.Errorf("tier 1 duration = %v, want 300ms", onOff.Duration)
	}

	amp := doc.Resolve(capability.TierAmplitude)
	if len(amp.Waveforms) != 1 || amp.Waveforms[0].StartOffset != 20*time.Millisecond {
		t.Errorf("tier 2 waveforms = %+v", amp.Waveforms)
	}

	ogg := doc.Resolve(capability.TierAudioCoupled)
	if len(ogg.Oggs) != 1 || ogg.Oggs[0].Filename != "theme.ogg" {
		t.Errorf("tier 3 oggs = %+v", ogg.Oggs)
	}

	pwle := doc.Resolve(capability.TierEnvelope)
	if len(pwle.Envelopes) != 1 {
		t.Fatalf("tier 4 envelopes = %d, want 1", len(pwle.Envelopes))
	}
	env := pwle.Envelopes[0]
	if env.InitialFrequency == nil || *env.InitialFrequency != 120 {
		t.Errorf("envelope initial frequency = %v", env.InitialFrequency)
	}
	if len(env.Points) != 2 || env.Points[1].Time != 350*time.Millisecond {
		t.Errorf("envelope points = %+v", env.Points)
	}
}

func TestResolveDegradesToHighestDefinedTier(t *testing.T) {
	// Document defining only the amplitude tier.
	partial := `{
		"version": 2,
		"projectName": "p",
		"trackName": "t",
		"amplitudeSignal": {
			"amplitudes": [{"timings": [50], "amplitudes": [255], "repeat": -1, "time": 0}],
			"duration": 200
		}
	}`
	doc, err := Parse([]byte(partial))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if doc.Defines(capability.TierEnvelope) {
		t.Error("Defines(TierEnvelope) = true for amplitude-only document")
	}

	sig := doc.Resolve(capability.TierEnvelope)
	if len(sig.Waveforms) != 1 {
		t.Errorf("tier 4 request should degrade to amplitude signal, got %+v", sig)
	}

	// Requests below the only defined tier find nothing and come back empty
	// but still carry the document duration for the completion contract.
	empty := doc.Resolve(capability.TierOnOff)
	if !empty.Empty() {
		t.Errorf("tier 1 request should be empty, got %+v", empty)
	}
	if empty.Duration != 200*time.Millisecond {
		t.Errorf("empty signal duration = %v, want 200ms", empty.Duration)
	}
}

func TestResolveTierZero(t *testing.T) {
	doc, err := Parse([]byte(v2Doc))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	sig := doc.Resolve(capability.TierNone)
	if !sig.Empty() {
		t.Errorf("tier 0 signal should be empty, got %+v", sig)
	}
	if sig.Duration != 700*time.Millisecond {
		t.Errorf("tier 0 duration = %v, want max duration 700ms", sig.Duration)
	}
}

func TestParseRejectsUnknownVersion(t *testing.T) {
	_, err := Parse([]byte(`{"version": 3, "projectName": "p"}`))
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("Parse version 3 error = %v, want ErrUnsupportedVersion", err)
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Error("Parse should fail on malformed input")
	}

	mismatched := `{"Duration": 100, "Timings": [10, 20], "Amplitudes": [255]}`
	if _, err := Parse([]byte(mismatched)); err == nil {
		t.Error("Parse should fail on mismatched timing/amplitude lengths")
	}
}

func TestEmptyDocumentResolvesToNoOp(t *testing.T) {
	doc := Empty()
	for tier := capability.TierNone; tier <= capability.TierEnvelope; tier++ {
		sig := doc.Resolve(tier)
		if !sig.Empty() || sig.Duration != 0 {
			t.Errorf("tier %v: empty document resolved to %+v", tier, sig)
		}
	}
}
