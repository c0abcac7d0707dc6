package pool

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"haptune/internal/compile"
	"haptune/internal/device"
	"haptune/internal/logging"
)

// Pool keys preloaded bundles and decoded clips by source identifier. The
// mutex guards only the maps; parse, extract, and decode work happens before
// an entry is handed in, so preloads never block concurrent playback.
type Pool struct {
	sink    device.AudioSink
	maxBits int64
	logger  *slog.Logger

	mu      sync.Mutex
	bundles map[string]compile.Bundle
	clips   map[string]clipEntry
}

type clipEntry struct {
	clip     device.Clip
	duration time.Duration
}

func New(sink device.AudioSink, clipPreloadMaxBits int64, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pool{
		sink:    sink,
		maxBits: clipPreloadMaxBits,
		logger:  logging.NewComponentLogger(logger, "pool"),
		bundles: make(map[string]compile.Bundle),
		clips:   make(map[string]clipEntry),
	}
}

// PutBundle stores a compiled bundle under key. A key that is already
// present is a caller error: the existing entry stays untouched and false is
// returned, because silently replacing it would leak the previous entry's
// clip handles under an in-flight playback.
func (p *Pool) PutBundle(key string, bundle compile.Bundle) bool {
	p.mu.Lock()
	_, exists := p.bundles[key]
	if !exists {
		p.bundles[key] = bundle
	}
	p.mu.Unlock()

	if exists {
		logging.WarnWithContext(p.logger, "bundle already preloaded, unload it first", "preload_duplicate",
			logging.String(logging.FieldSource, key))
	}
	return !exists
}

// Bundle returns the preloaded bundle for key, if any.
func (p *Pool) Bundle(key string) (compile.Bundle, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	bundle, ok := p.bundles[key]
	return bundle, ok
}

// DropBundle removes the keyed bundle and releases its handles. In-flight
// playbacks scheduled from the bundle keep their own timers; only future
// replays are affected.
func (p *Pool) DropBundle(key string) bool {
	p.mu.Lock()
	bundle, ok := p.bundles[key]
	if ok {
		delete(p.bundles, key)
	}
	p.mu.Unlock()

	if ok {
		bundle.Release()
	}
	return ok
}

// PreloadClip decodes the audio file at path and retains the handle under
// key. Clips whose estimated encoded size exceeds the preload ceiling are
// refused without decoding; they play from file instead. A duplicate key is
// refused the same way duplicate bundles are.
func (p *Pool) PreloadClip(key, path string) (bool, error) {
	p.mu.Lock()
	_, exists := p.clips[key]
	p.mu.Unlock()
	if exists {
		logging.WarnWithContext(p.logger, "clip already preloaded, unload it first", "preload_duplicate",
			logging.String(logging.FieldSource, key))
		return false, nil
	}
	if p.sink == nil {
		return false, fmt.Errorf("pool: no audio sink for %q", key)
	}

	info, err := p.sink.Probe(path)
	if err != nil {
		return false, fmt.Errorf("pool: probe %q: %w", key, err)
	}
	if bits := EstimateEncodedBits(info); bits > p.maxBits {
		logging.WarnWithContext(p.logger, "clip exceeds preload ceiling, will play from file", "clip_too_large",
			logging.String(logging.FieldSource, key),
			logging.Int64("estimated_bits", bits),
			logging.Int64("max_bits", p.maxBits))
		return false, nil
	}

	clip, err := p.sink.Load(path)
	if err != nil {
		return false, fmt.Errorf("pool: decode %q: %w", key, err)
	}

	p.mu.Lock()
	if _, raced := p.clips[key]; raced {
		p.mu.Unlock()
		_ = clip.Close()
		logging.WarnWithContext(p.logger, "clip already preloaded, unload it first", "preload_duplicate",
			logging.String(logging.FieldSource, key))
		return false, nil
	}
	p.clips[key] = clipEntry{clip: clip, duration: info.Duration}
	p.mu.Unlock()
	return true, nil
}

// Clip returns the preloaded clip handle for key, if any.
func (p *Pool) Clip(key string) (device.Clip, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.clips[key]
	return entry.clip, ok
}

// DropClip removes the keyed clip and closes its handle.
func (p *Pool) DropClip(key string) bool {
	p.mu.Lock()
	entry, ok := p.clips[key]
	if ok {
		delete(p.clips, key)
	}
	p.mu.Unlock()

	if ok && entry.clip != nil {
		_ = entry.clip.Close()
	}
	return ok
}

// DropAll releases every bundle and clip and clears both maps. Equivalent to
// a serial drop over all keys.
func (p *Pool) DropAll() {
	p.mu.Lock()
	bundles := p.bundles
	clips := p.clips
	p.bundles = make(map[string]compile.Bundle)
	p.clips = make(map[string]clipEntry)
	p.mu.Unlock()

	for _, bundle := range bundles {
		bundle.Release()
	}
	for _, entry := range clips {
		if entry.clip != nil {
			_ = entry.clip.Close()
		}
	}
}

// BundleKeys returns the sorted keys of preloaded bundles.
func (p *Pool) BundleKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.bundles))
	for key := range p.bundles {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ClipKeys returns the sorted keys of preloaded clips.
func (p *Pool) ClipKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.clips))
	for key := range p.clips {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// EstimateEncodedBits computes the preload eligibility estimate from header
// info alone, without decoding the file.
func EstimateEncodedBits(info device.ClipInfo) int64 {
	perSecond := float64(info.SampleRate) * float64(info.BitDepth) * float64(info.Channels)
	return int64(info.Duration.Seconds() * perSecond)
}
