package hla

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"haptune/internal/capability"
)

// ErrUnsupportedVersion marks a document whose version field is not the one
// currently understood value.
var ErrUnsupportedVersion = errors.New("hla: unsupported document version")

// supportedVersion is the only v2 schema revision this parser understands.
const supportedVersion = 2

type legacyAudioJSON struct {
	Time     int64  `json:"Time"`
	Filename string `json:"Filename"`
}

type legacyJSON struct {
	ProjectName        string            `json:"ProjectName"`
	TrackName          string            `json:"TrackName"`
	Duration           int64             `json:"Duration"`
	RequiredAudioFiles []string          `json:"RequiredAudioFiles"`
	Audios             []legacyAudioJSON `json:"Audios"`
	Timings            []int64           `json:"Timings"`
	Amplitudes         []int             `json:"Amplitudes"`
	Repeat             int               `json:"Repeat"`
}

type primitiveJSON struct {
	Name  string  `json:"name"`
	Scale float64 `json:"scale"`
	Time  int64   `json:"time"`
}

type waveformJSON struct {
	Timings    []int64 `json:"timings"`
	Amplitudes []int   `json:"amplitudes"`
	Repeat     int     `json:"repeat"`
	Time       int64   `json:"time"`
}

type audioJSON struct {
	Time     int64  `json:"time"`
	Filename string `json:"filename"`
}

type pointJSON struct {
	Priority  int     `json:"priority"`
	Intensity float64 `json:"intensity"`
	Sharpness float64 `json:"sharpness"`
	Time      int64   `json:"time"`
}

type envelopeJSON struct {
	Frequency     *float64    `json:"frequency"`
	Sharpness     *float64    `json:"sharpness"`
	ControlPoints []pointJSON `json:"controlPoints"`
}

type signalJSON struct {
	Primitives         []primitiveJSON `json:"primitives"`
	Amplitudes         []waveformJSON  `json:"amplitudes"`
	Duration           int64           `json:"duration"`
	RequiredAudioFiles []string        `json:"requiredAudioFiles"`
	Audios             []audioJSON     `json:"audios"`
	Oggs               []audioJSON     `json:"oggs"`
	Envelopes          []envelopeJSON  `json:"envelopes"`
}

type v2JSON struct {
	Version         int         `json:"version"`
	ProjectName     string      `json:"projectName"`
	TrackName       string      `json:"trackName"`
	OnOffSignal     *signalJSON `json:"onOffSignal"`
	AmplitudeSignal *signalJSON `json:"amplitudeSignal"`
	OggSignal       *signalJSON `json:"oggSignal"`
	PwleSignal      *signalJSON `json:"pwleSignal"`
}

// Parse decodes a scene document of either schema. The schema is selected by
// the presence of a version field: absent means legacy, present means v2 and
// must equal the supported value.
func Parse(data []byte) (*Document, error) {
	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("hla: decode document: %w", err)
	}
	if probe.Version == nil {
		return parseLegacy(data)
	}
	if *probe.Version != supportedVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *probe.Version)
	}
	return parseV2(data)
}

// ParseFile reads and parses a document from disk.
func ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hla: read document: %w", err)
	}
	return Parse(data)
}

func parseLegacy(data []byte) (*Document, error) {
	var raw legacyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("hla: decode legacy document: %w", err)
	}
	if len(raw.Timings) != len(raw.Amplitudes) {
		return nil, fmt.Errorf("hla: legacy document has %d timings but %d amplitudes", len(raw.Timings), len(raw.Amplitudes))
	}

	content := &legacyContent{
		duration: msToDuration(raw.Duration),
		required: raw.RequiredAudioFiles,
	}
	if len(raw.Timings) > 0 {
		content.wave = &Waveform{
			Timings:    msSliceToDurations(raw.Timings),
			Amplitudes: raw.Amplitudes,
			Repeat:     raw.Repeat,
		}
	}
	for _, audio := range raw.Audios {
		content.audios = append(content.audios, AudioRef{
			Filename:    audio.Filename,
			StartOffset: msToDuration(audio.Time),
		})
	}

	return &Document{
		ProjectName: raw.ProjectName,
		TrackName:   raw.TrackName,
		legacy:      content,
	}, nil
}

func parseV2(data []byte) (*Document, error) {
	var raw v2JSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("hla: decode v2 document: %w", err)
	}

	doc := &Document{
		ProjectName: raw.ProjectName,
		TrackName:   raw.TrackName,
	}
	doc.tiers[capability.TierOnOff] = convertSignal(raw.OnOffSignal)
	doc.tiers[capability.TierAmplitude] = convertSignal(raw.AmplitudeSignal)
	doc.tiers[capability.TierAudioCoupled] = convertSignal(raw.OggSignal)
	doc.tiers[capability.TierEnvelope] = convertSignal(raw.PwleSignal)
	return doc, nil
}

func convertSignal(raw *signalJSON) *Signal {
	if raw == nil {
		return nil
	}
	sig := &Signal{
		Duration:           msToDuration(raw.Duration),
		RequiredAudioFiles: raw.RequiredAudioFiles,
	}
	for _, p := range raw.Primitives {
		sig.Primitives = append(sig.Primitives, Primitive{
			Name:        p.Name,
			Scale:       p.Scale,
			StartOffset: msToDuration(p.Time),
		})
	}
	for _, w := range raw.Amplitudes {
		sig.Waveforms = append(sig.Waveforms, Waveform{
			Timings:     msSliceToDurations(w.Timings),
			Amplitudes:  w.Amplitudes,
			Repeat:      w.Repeat,
			StartOffset: msToDuration(w.Time),
		})
	}
	for _, a := range raw.Audios {
		sig.Audios = append(sig.Audios, AudioRef{Filename: a.Filename, StartOffset: msToDuration(a.Time)})
	}
	for _, o := range raw.Oggs {
		sig.Oggs = append(sig.Oggs, AudioRef{Filename: o.Filename, StartOffset: msToDuration(o.Time)})
	}
	for _, e := range raw.Envelopes {
		env := Envelope{
			InitialFrequency: e.Frequency,
			InitialSharpness: e.Sharpness,
		}
		for _, p := range e.ControlPoints {
			env.Points = append(env.Points, ControlPoint{
				Priority:  p.Priority,
				Intensity: p.Intensity,
				Sharpness: p.Sharpness,
				Time:      msToDuration(p.Time),
			})
		}
		sig.Envelopes = append(sig.Envelopes, env)
	}
	return sig
}

func msToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func msSliceToDurations(ms []int64) []time.Duration {
	if len(ms) == 0 {
		return nil
	}
	out := make([]time.Duration, len(ms))
	for i, v := range ms {
		out[i] = msToDuration(v)
	}
	return out
}
