package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"haptune/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.SceneDirs = []string{filepath.Join(base, "scenes")}
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Assets.StagingDir = filepath.Join(base, "staging")
	cfgVal.Device.Probe = "static"
	cfgVal.Device.SupportsOnOff = true
	cfgVal.Device.SupportsAmplitudeControl = true
	cfgVal.Device.SupportsAudioCoupled = true
	cfgVal.Device.SupportsEnvelopeEffects = true
	cfgVal.Device.MaxControlPoints = 16

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	for _, dir := range builder.cfg.Paths.SceneDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir scene dir: %v", err)
		}
	}
	return builder.cfg
}

// WithTierOverride forces a capability tier on the test config.
func WithTierOverride(tier int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Playback.TierOverride = tier
	}
}

// WithDevice replaces the static device capability section.
func WithDevice(device config.Device) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Device = device
	}
}

// WithClipPreloadMaxBits overrides the clip preload eligibility ceiling.
func WithClipPreloadMaxBits(bits int64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pool.ClipPreloadMaxBits = bits
	}
}
