package player

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"haptune/internal/assets"
	"haptune/internal/capability"
	"haptune/internal/compile"
	"haptune/internal/config"
	"haptune/internal/device"
	"haptune/internal/history"
	"haptune/internal/hla"
	"haptune/internal/logging"
	"haptune/internal/pool"
	"haptune/internal/schedule"
	"haptune/internal/zipcache"
)

// Options wires the player's collaborators. Vibrator and Sink are required;
// Assets defaults to a local resolver over the configured scene directories;
// History is optional.
type Options struct {
	Config   *config.Config
	Vibrator device.Vibrator
	Sink     device.AudioSink
	Assets   assets.Resolver
	History  *history.Store
	Logger   *slog.Logger
}

// Player is the facade over resolution, compilation, scheduling, and the
// resource pool. One player owns one capability snapshot and one scheduler
// dispatch goroutine for its whole lifetime.
type Player struct {
	cfg       *config.Config
	caps      capability.Descriptor
	tier      capability.Tier
	sink      device.AudioSink
	compiler  *compile.Compiler
	scheduler *schedule.Scheduler
	pool      *pool.Pool
	cache     *zipcache.Manager
	assets    assets.Resolver
	history   *history.Store
	watcher   *sourceWatcher
	logger    *slog.Logger
}

func New(opts Options) (*Player, error) {
	if opts.Config == nil {
		return nil, errors.New("player: config is required")
	}
	if opts.Vibrator == nil || opts.Sink == nil {
		return nil, errors.New("player: vibrator and sink are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	resolver := opts.Assets
	if resolver == nil {
		resolver = assets.NewLocalResolver(opts.Config.Paths.SceneDirs)
	}

	caps := opts.Vibrator.Probe()
	tier := caps.Tier()
	if override := opts.Config.Playback.TierOverride; override >= 0 {
		tier = capability.Tier(override)
		if tier > capability.TierEnvelope {
			tier = capability.TierEnvelope
		}
	}

	p := &Player{
		cfg:       opts.Config,
		caps:      caps,
		tier:      tier,
		sink:      opts.Sink,
		compiler:  compile.New(caps, logger),
		scheduler: schedule.New(opts.Vibrator, opts.Sink, logger),
		pool:      pool.New(opts.Sink, opts.Config.Pool.ClipPreloadMaxBits, logger),
		cache:     zipcache.NewManager(opts.Config.Paths.CacheDir, resolver, logger),
		assets:    resolver,
		history:   opts.History,
		logger:    logging.NewComponentLogger(logger, "player"),
	}

	watcher, err := newSourceWatcher(p, logger)
	if err != nil {
		p.scheduler.Close()
		return nil, err
	}
	p.watcher = watcher

	if removed, err := p.cache.SweepInvalid(context.Background()); err != nil {
		logging.WarnWithContext(p.logger, "cache sweep failed", "cache_sweep_failed",
			logging.Error(err))
	} else if len(removed) > 0 {
		p.logger.Info("swept stale cache entries", logging.Int("removed", len(removed)))
	}

	p.logger.Info("player ready",
		logging.String(logging.FieldTier, tier.String()))
	return p, nil
}

// Capabilities returns the session's capability snapshot.
func (p *Player) Capabilities() capability.Descriptor { return p.caps }

// Tier returns the effective playback tier, after any configured override.
func (p *Player) Tier() capability.Tier { return p.tier }

// Play resolves, compiles, and schedules the identified scene. A preloaded
// bundle is replayed without re-parsing. Resolution and parse failures
// degrade to an empty bundle that still delivers exactly one completion, so
// Play only errors when the request itself is malformed.
func (p *Player) Play(ctx context.Context, identifier string, route device.AudioRoute, onComplete func()) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", errors.New("player: empty identifier")
	}
	session := uuid.NewString()

	bundle, pooled := p.pool.Bundle(identifier)
	if !pooled {
		bundle, _ = p.loadBundle(ctx, identifier)
	}

	var historyID int64
	if p.history != nil {
		id, err := p.history.RecordStart(ctx, history.Record{
			SessionID:   session,
			Source:      identifier,
			Tier:        int(p.tier),
			Duration:    bundle.Duration,
			EffectCount: len(bundle.Effects),
			AudioCount:  len(bundle.Audios),
			FileCount:   len(bundle.Files),
			Route:       route.String(),
			StartedAt:   time.Now(),
		})
		if err != nil {
			logging.WarnWithContext(p.logger, "history record failed", "history_failed",
				logging.Error(err))
		} else {
			historyID = id
		}
	}

	completion := func() {
		if p.history != nil && historyID > 0 {
			if err := p.history.MarkComplete(context.Background(), historyID, time.Now()); err != nil {
				logging.WarnWithContext(p.logger, "history completion failed", "history_failed",
					logging.Error(err))
			}
		}
		if !pooled {
			bundle.Release()
		}
		if onComplete != nil {
			onComplete()
		}
	}

	p.scheduler.Schedule(bundle, route, completion)
	p.logger.InfoContext(ctx, "playback scheduled",
		logging.String(logging.FieldSessionID, session),
		logging.String(logging.FieldSource, identifier),
		logging.String(logging.FieldTier, p.tier.String()),
		logging.Duration("duration", bundle.Duration),
		logging.Bool("preloaded", pooled),
		logging.Int("effects", len(bundle.Effects)),
		logging.Int("audios", len(bundle.Audios)),
		logging.Int("files", len(bundle.Files)))
	return session, nil
}

// Preload compiles the identified scene and retains the bundle for replay.
// Returns false when the key is already preloaded.
func (p *Player) Preload(ctx context.Context, identifier string) (bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return false, errors.New("player: empty identifier")
	}

	bundle, sourcePath := p.loadBundle(ctx, identifier)
	if !p.pool.PutBundle(identifier, bundle) {
		bundle.Release()
		return false, nil
	}
	if sourcePath != "" {
		p.watcher.watch(sourcePath, identifier, watchBundle)
	}
	return true, nil
}

// Unload drops a preloaded bundle and releases its handles.
func (p *Player) Unload(identifier string) bool {
	if !p.pool.DropBundle(identifier) {
		return false
	}
	p.watcher.unwatch(identifier, watchBundle)
	return true
}

// PreloadClip decodes a standalone compressed-audio file for low-latency
// replay. Oversized and duplicate clips are refused without error.
func (p *Player) PreloadClip(ctx context.Context, identifier string) (bool, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return false, errors.New("player: empty identifier")
	}
	path, err := p.assets.Resolve(ctx, identifier)
	if err != nil {
		return false, err
	}
	loaded, err := p.pool.PreloadClip(identifier, path)
	if err != nil || !loaded {
		return loaded, err
	}
	p.watcher.watch(path, identifier, watchClip)
	return true, nil
}

// UnloadClip drops a preloaded clip and closes its handle.
func (p *Player) UnloadClip(identifier string) bool {
	if !p.pool.DropClip(identifier) {
		return false
	}
	p.watcher.unwatch(identifier, watchClip)
	return true
}

// PlayClip schedules a single preloaded clip, or plays the file directly
// when it was never preloaded.
func (p *Player) PlayClip(ctx context.Context, identifier string, route device.AudioRoute, onComplete func()) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", errors.New("player: empty identifier")
	}
	session := uuid.NewString()

	bundle := compile.Bundle{}
	if clip, ok := p.pool.Clip(identifier); ok {
		bundle.Audios = []compile.LoadedAudio{{Clip: clip}}
		bundle.Duration = clip.Duration()
	} else {
		path, err := p.assets.Resolve(ctx, identifier)
		if err != nil {
			return "", err
		}
		info, err := p.sink.Probe(path)
		if err != nil {
			return "", err
		}
		bundle.Files = []compile.LoadedFile{{Path: path}}
		bundle.Duration = info.Duration
	}

	p.scheduler.Schedule(bundle, route, onComplete)
	p.logger.InfoContext(ctx, "clip playback scheduled",
		logging.String(logging.FieldSessionID, session),
		logging.String(logging.FieldSource, identifier),
		logging.Duration("duration", bundle.Duration))
	return session, nil
}

// UnloadAll releases every preloaded bundle and clip.
func (p *Player) UnloadAll() {
	p.pool.DropAll()
	p.watcher.unwatchAll()
}

// PreloadedBundles returns the sorted keys of preloaded bundles.
func (p *Player) PreloadedBundles() []string { return p.pool.BundleKeys() }

// PreloadedClips returns the sorted keys of preloaded clips.
func (p *Player) PreloadedClips() []string { return p.pool.ClipKeys() }

// Cache exposes the archive cache for the daemon's cache operations.
func (p *Player) Cache() *zipcache.Manager { return p.cache }

// Close stops the watcher and the scheduler and releases every pooled
// handle. In-flight completion callbacks are not delivered after close.
func (p *Player) Close() error {
	err := p.watcher.close()
	p.scheduler.Close()
	p.pool.DropAll()
	return err
}

// loadBundle resolves the scene to a document plus virtual directory and
// compiles it at the effective tier. Every failure short of a malformed
// request degrades to an empty bundle.
func (p *Player) loadBundle(ctx context.Context, identifier string) (compile.Bundle, string) {
	doc, vdir, sourcePath := p.openScene(ctx, identifier)
	signal := doc.Resolve(p.tier)
	return p.compiler.Compile(signal, vdir, p.sink), sourcePath
}

// openScene classifies the identifier (archive, directory, or bare document
// file) and returns the parsed document with the directory its audio
// references resolve against. The returned path is the local source file,
// empty when resolution failed.
func (p *Player) openScene(ctx context.Context, identifier string) (*hla.Document, zipcache.VirtualDirectory, string) {
	if isArchive(identifier) {
		vdir, err := p.cache.Resolve(ctx, identifier, identifier)
		if err != nil {
			logging.WarnWithContext(p.logger, "scene archive unavailable", "scene_unavailable",
				logging.String(logging.FieldSource, identifier),
				logging.Error(err))
			return hla.Empty(), zipcache.Empty(), ""
		}
		sourcePath := identifier
		if !filepath.IsAbs(sourcePath) {
			if resolved, err := p.assets.Resolve(ctx, identifier); err == nil {
				sourcePath = resolved
			}
		}
		return p.parseDocument(vdir, identifier), vdir, sourcePath
	}

	path, err := p.assets.Resolve(ctx, identifier)
	if err != nil {
		logging.WarnWithContext(p.logger, "scene not found", "scene_unavailable",
			logging.String(logging.FieldSource, identifier),
			logging.Error(err))
		return hla.Empty(), zipcache.Empty(), ""
	}

	if isDir(path) {
		vdir := zipcache.Dir(path)
		return p.parseDocument(vdir, identifier), vdir, path
	}

	doc, err := hla.ParseFile(path)
	if err != nil {
		logging.WarnWithContext(p.logger, "scene document rejected", "parse_failed",
			logging.String(logging.FieldSource, identifier),
			logging.Error(err))
		return hla.Empty(), zipcache.Empty(), path
	}
	return doc, zipcache.Dir(filepath.Dir(path)), path
}

func (p *Player) parseDocument(vdir zipcache.VirtualDirectory, identifier string) *hla.Document {
	docPath, ok := vdir.Child("main.hla")
	if !ok {
		logging.WarnWithContext(p.logger, "scene has no main.hla", "scene_unavailable",
			logging.String(logging.FieldSource, identifier))
		return hla.Empty()
	}
	doc, err := hla.ParseFile(docPath)
	if err != nil {
		logging.WarnWithContext(p.logger, "scene document rejected", "parse_failed",
			logging.String(logging.FieldSource, identifier),
			logging.Error(err))
		return hla.Empty()
	}
	return doc
}

func isArchive(identifier string) bool {
	switch strings.ToLower(filepath.Ext(identifier)) {
	case ".hac", ".zip":
		return true
	default:
		return false
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
