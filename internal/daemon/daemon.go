package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"sync/atomic"

	"github.com/gofrs/flock"

	"haptune/internal/capability"
	"haptune/internal/config"
	"haptune/internal/device"
	"haptune/internal/history"
	"haptune/internal/logging"
	"haptune/internal/player"
	"haptune/internal/zipcache"
)

// Daemon coordinates the player and enforces single-instance execution.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	player  *player.Player
	history *history.Store
	monitor *device.Monitor

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool
	PID              int
	Tier             capability.Tier
	SocketPath       string
	LockFilePath     string
	HistoryDBPath    string
	PreloadedBundles []string
	PreloadedClips   []string
}

// New constructs a daemon with initialized dependencies. The hotplug
// monitor is optional.
func New(cfg *config.Config, p *player.Player, hist *history.Store, monitor *device.Monitor, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || p == nil {
		return nil, errors.New("daemon requires config and player")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		player:   p,
		history:  hist,
		monitor:  monitor,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the single-instance lock and begins hotplug monitoring.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another haptune daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if d.monitor != nil {
		if err := d.monitor.Start(runCtx); err != nil {
			d.logger.Warn("hotplug monitor unavailable", logging.Error(err))
		}
	}

	d.running.Store(true)
	d.logger.Info("haptune daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldTier, d.player.Tier().String()))
	return nil
}

// Stop halts monitoring and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("haptune daemon stopped")
}

// Close stops the daemon and shuts the player down.
func (d *Daemon) Close() error {
	d.Stop()
	return d.player.Close()
}

// Play schedules the identified scene. The returned session id identifies
// the playback in logs and history; completion is recorded asynchronously.
func (d *Daemon) Play(ctx context.Context, identifier, route string) (string, error) {
	return d.player.Play(ctx, identifier, device.ParseRoute(route), nil)
}

// Preload compiles and retains the identified scene for replay.
func (d *Daemon) Preload(ctx context.Context, identifier string) (bool, error) {
	return d.player.Preload(ctx, identifier)
}

// Unload drops a preloaded scene bundle.
func (d *Daemon) Unload(identifier string) bool {
	return d.player.Unload(identifier)
}

// PreloadClip decodes and retains a standalone audio clip.
func (d *Daemon) PreloadClip(ctx context.Context, identifier string) (bool, error) {
	return d.player.PreloadClip(ctx, identifier)
}

// UnloadClip drops a preloaded audio clip.
func (d *Daemon) UnloadClip(identifier string) bool {
	return d.player.UnloadClip(identifier)
}

// PlayClip schedules a standalone audio clip.
func (d *Daemon) PlayClip(ctx context.Context, identifier, route string) (string, error) {
	return d.player.PlayClip(ctx, identifier, device.ParseRoute(route), nil)
}

// UnloadAll drops every preloaded bundle and clip.
func (d *Daemon) UnloadAll() {
	d.player.UnloadAll()
}

// Capability returns the session's capability snapshot and effective tier.
func (d *Daemon) Capability() (capability.Descriptor, capability.Tier) {
	return d.player.Capabilities(), d.player.Tier()
}

// CacheStats returns archive cache usage.
func (d *Daemon) CacheStats(ctx context.Context) (zipcache.Stats, error) {
	return d.player.Cache().Stats(ctx)
}

// CacheSweep removes invalid cache entries and returns their directories.
func (d *Daemon) CacheSweep(ctx context.Context) ([]string, error) {
	return d.player.Cache().SweepInvalid(ctx)
}

// HistoryList returns recent playback records, newest first.
func (d *Daemon) HistoryList(ctx context.Context, limit int) ([]history.Record, error) {
	if d.history == nil {
		return nil, errors.New("history store unavailable")
	}
	return d.history.Recent(ctx, limit)
}

// LogPath returns the daemon's rotated log file path.
func (d *Daemon) LogPath() string {
	return d.cfg.LogFilePath()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:          d.running.Load(),
		PID:              os.Getpid(),
		Tier:             d.player.Tier(),
		SocketPath:       d.cfg.SocketPath(),
		LockFilePath:     d.lockPath,
		HistoryDBPath:    d.cfg.HistoryDBPath(),
		PreloadedBundles: d.player.PreloadedBundles(),
		PreloadedClips:   d.player.PreloadedClips(),
	}
}

// DescribeCapability flattens the descriptor for transport. NaN values are
// omitted because JSON cannot carry them.
func DescribeCapability(desc capability.Descriptor, tier capability.Tier) CapabilitySummary {
	summary := CapabilitySummary{
		Tier:                     tier.String(),
		SupportsOnOff:            desc.SupportsOnOff,
		SupportsAmplitudeControl: desc.SupportsAmplitudeControl,
		SupportsAudioCoupled:     desc.SupportsAudioCoupled,
		SupportsEnvelopeEffects:  desc.SupportsEnvelopeEffects,
	}
	if !math.IsNaN(desc.ResonantFrequency) {
		v := desc.ResonantFrequency
		summary.ResonantFrequencyHz = &v
	}
	if !math.IsNaN(desc.QFactor) {
		v := desc.QFactor
		summary.QFactor = &v
	}
	if desc.FrequencyResponse != nil {
		summary.FrequencyMinHz = desc.FrequencyResponse.MinHz
		summary.FrequencyMaxHz = desc.FrequencyResponse.MaxHz
	}
	if desc.EnvelopeInfo != nil {
		summary.MaxControlPoints = desc.EnvelopeInfo.MaxControlPoints
	}
	for name := range desc.NativePrimitives {
		summary.NativePrimitives = append(summary.NativePrimitives, name)
	}
	sort.Strings(summary.NativePrimitives)
	return summary
}

// CapabilitySummary is the transport form of a capability descriptor.
type CapabilitySummary struct {
	Tier                     string   `json:"tier"`
	SupportsOnOff            bool     `json:"supports_on_off"`
	SupportsAmplitudeControl bool     `json:"supports_amplitude_control"`
	SupportsAudioCoupled     bool     `json:"supports_audio_coupled"`
	SupportsEnvelopeEffects  bool     `json:"supports_envelope_effects"`
	ResonantFrequencyHz      *float64 `json:"resonant_frequency_hz,omitempty"`
	QFactor                  *float64 `json:"q_factor,omitempty"`
	FrequencyMinHz           float64  `json:"frequency_min_hz,omitempty"`
	FrequencyMaxHz           float64  `json:"frequency_max_hz,omitempty"`
	MaxControlPoints         int      `json:"max_control_points,omitempty"`
	NativePrimitives         []string `json:"native_primitives,omitempty"`
}
