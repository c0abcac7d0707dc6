package compile

import (
	"log/slog"
	"sort"
	"time"

	"haptune/internal/capability"
	"haptune/internal/device"
	"haptune/internal/hla"
	"haptune/internal/logging"
)

// FileResolver maps audio filenames referenced by a signal to absolute paths
// inside the scene bundle. ok is false when the bundle has no such entry.
type FileResolver interface {
	Child(name string) (path string, ok bool)
}

// ClipLoader decodes an audio file into a playable clip handle.
type ClipLoader interface {
	Load(path string) (device.Clip, error)
}

// Compiler turns resolved signals into loaded bundles for one device. A
// compiler is bound to a capability snapshot; build a new one per session.
type Compiler struct {
	caps   capability.Descriptor
	logger *slog.Logger
}

func New(caps capability.Descriptor, logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Compiler{
		caps:   caps,
		logger: logging.NewComponentLogger(logger, "compile"),
	}
}

// Compile resolves every item of the signal against the device capabilities
// and the bundle's files. Items the device or bundle cannot serve are
// dropped individually with a warning; the rest of the signal still plays.
// The returned bundle always carries the signal duration, even when every
// item was dropped.
func (c *Compiler) Compile(sig hla.Signal, files FileResolver, clips ClipLoader) Bundle {
	bundle := Bundle{Duration: sig.Duration}

	for _, prim := range sig.Primitives {
		effect, ok := c.compilePrimitive(prim)
		if !ok {
			continue
		}
		bundle.Effects = append(bundle.Effects, LoadedEffect{
			Effect:      effect,
			StartOffset: prim.StartOffset,
		})
	}

	for _, wave := range sig.Waveforms {
		if !c.caps.SupportsAmplitudeControl {
			logging.WarnWithContext(c.logger, "dropping waveform, device has no amplitude control", "effect_dropped",
				logging.Int("samples", len(wave.Timings)))
			continue
		}
		bundle.Effects = append(bundle.Effects, LoadedEffect{
			Effect: device.Effect{
				Timings:    wave.Timings,
				Amplitudes: wave.Amplitudes,
				Repeat:     wave.Repeat,
			},
			StartOffset: wave.StartOffset,
		})
	}

	for _, env := range sig.Envelopes {
		effect, ok := c.compileEnvelope(env)
		if !ok {
			continue
		}
		bundle.Effects = append(bundle.Effects, LoadedEffect{Effect: effect})
	}

	for _, ref := range sig.Audios {
		path, ok := c.resolveAudio(ref, files)
		if !ok {
			continue
		}
		if clips == nil {
			logging.WarnWithContext(c.logger, "dropping audio, no clip loader available", "audio_dropped",
				logging.String(logging.FieldSource, ref.Filename))
			continue
		}
		clip, err := clips.Load(path)
		if err != nil {
			logging.WarnWithContext(c.logger, "dropping audio, decode failed", "audio_dropped",
				logging.String(logging.FieldSource, ref.Filename),
				logging.Error(err))
			continue
		}
		bundle.Audios = append(bundle.Audios, LoadedAudio{
			Clip:        clip,
			StartOffset: ref.StartOffset,
		})
	}

	for _, ref := range sig.Oggs {
		path, ok := c.resolveAudio(ref, files)
		if !ok {
			continue
		}
		bundle.Files = append(bundle.Files, LoadedFile{
			Path:        path,
			StartOffset: ref.StartOffset,
		})
	}

	return bundle
}

// compilePrimitive emits a native primitive effect when the device supports
// it, or synthesizes the fallback amplitude curve otherwise. Devices without
// amplitude control cannot run the fallback, so the primitive drops there.
func (c *Compiler) compilePrimitive(prim hla.Primitive) (device.Effect, bool) {
	if c.caps.SupportsPrimitive(prim.Name) {
		return device.Effect{
			Primitive: prim.Name,
			Scale:     prim.Scale,
			Repeat:    -1,
		}, true
	}
	if !c.caps.SupportsAmplitudeControl {
		logging.WarnWithContext(c.logger, "dropping primitive, no native support and no amplitude control", "effect_dropped",
			logging.String("primitive", prim.Name))
		return device.Effect{}, false
	}

	segments := scaleSegments(fallbackSegments(prim.Name), prim.Scale)
	timings, amplitudes := concatFades(segments...)
	return device.Effect{
		Timings:    timings,
		Amplitudes: amplitudes,
		Repeat:     -1,
	}, true
}

// compileEnvelope truncates the envelope to the device's control-point budget
// and rewrites absolute point times as relative deltas. Priority ranks points
// by importance, so truncation keeps the most important ones regardless of
// where they fall on the time axis.
func (c *Compiler) compileEnvelope(env hla.Envelope) (device.Effect, bool) {
	maxPts := c.caps.MaxControlPoints()
	if maxPts == 0 {
		logging.WarnWithContext(c.logger, "dropping envelope, device has no envelope support", "effect_dropped",
			logging.Int("points", len(env.Points)))
		return device.Effect{}, false
	}

	kept := make([]hla.ControlPoint, 0, maxPts)
	for _, pt := range env.Points {
		if pt.Priority < maxPts {
			kept = append(kept, pt)
		}
	}
	if len(kept) == 0 {
		logging.WarnWithContext(c.logger, "dropping envelope, no control points fit the device budget", "effect_dropped",
			logging.Int("points", len(env.Points)),
			logging.Int("max_control_points", maxPts))
		return device.Effect{}, false
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Time < kept[j].Time })

	native := &device.EnvelopeEffect{
		DeltaTimes:  make([]time.Duration, len(kept)),
		Intensities: make([]float64, len(kept)),
		Sharpnesses: make([]float64, len(kept)),
	}
	prev := time.Duration(0)
	for i, pt := range kept {
		native.DeltaTimes[i] = pt.Time - prev
		native.Intensities[i] = pt.Intensity
		native.Sharpnesses[i] = pt.Sharpness
		prev = pt.Time
	}
	if env.InitialFrequency != nil {
		native.InitialFrequency = c.caps.ClampFrequency(*env.InitialFrequency)
	}
	if env.InitialSharpness != nil {
		native.InitialSharpness = *env.InitialSharpness
	}

	return device.Effect{Envelope: native, Repeat: -1}, true
}

func (c *Compiler) resolveAudio(ref hla.AudioRef, files FileResolver) (string, bool) {
	if files == nil {
		logging.WarnWithContext(c.logger, "dropping audio, scene bundle has no files", "audio_missing",
			logging.String(logging.FieldSource, ref.Filename))
		return "", false
	}
	path, ok := files.Child(ref.Filename)
	if !ok {
		logging.WarnWithContext(c.logger, "dropping audio, file not in scene bundle", "audio_missing",
			logging.String(logging.FieldSource, ref.Filename))
		return "", false
	}
	return path, true
}
