package daemon

import (
	"context"
	"math"
	"testing"

	"haptune/internal/capability"
	"haptune/internal/config"
	"haptune/internal/device"
	"haptune/internal/player"
	"haptune/internal/testsupport"
)

func newTestDaemon(t *testing.T) (*Daemon, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	vibrator := device.NewStaticVibrator(device.DescriptorFromConfig(cfg.Device), nil)
	p, err := player.New(player.Options{
		Config:   cfg,
		Vibrator: vibrator,
		Sink:     device.NewNullSink(nil),
	})
	if err != nil {
		t.Fatalf("new player: %v", err)
	}
	d, err := New(cfg, p, nil, nil, nil)
	if err != nil {
		t.Fatalf("new daemon: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d, cfg
}

func TestDaemonStartStop(t *testing.T) {
	d, cfg := newTestDaemon(t)
	ctx := context.Background()

	if d.Status().Running {
		t.Fatal("daemon reported running before Start")
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	status := d.Status()
	if !status.Running {
		t.Fatal("daemon not running after Start")
	}
	if status.LockFilePath != cfg.LockPath() {
		t.Fatalf("lock path = %q, want %q", status.LockFilePath, cfg.LockPath())
	}
	if status.SocketPath != cfg.SocketPath() {
		t.Fatalf("socket path = %q, want %q", status.SocketPath, cfg.SocketPath())
	}

	d.Stop()
	if d.Status().Running {
		t.Fatal("daemon still running after Stop")
	}
}

func TestDaemonSecondStartRefused(t *testing.T) {
	d, _ := newTestDaemon(t)
	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("second Start succeeded, want error")
	}
}

func TestDaemonPreloadUnload(t *testing.T) {
	d, cfg := newTestDaemon(t)
	ctx := context.Background()
	archive := testsupport.SceneArchive(t, cfg.Paths.SceneDirs[0], "scene.hac", testsupport.LegacyDocument(100), nil)

	ok, err := d.Preload(ctx, archive)
	if err != nil {
		t.Fatalf("preload: %v", err)
	}
	if !ok {
		t.Fatal("preload refused")
	}
	if got := d.Status().PreloadedBundles; len(got) != 1 {
		t.Fatalf("preloaded bundles = %v, want one entry", got)
	}
	if !d.Unload(archive) {
		t.Fatal("unload reported no bundle")
	}
	if got := d.Status().PreloadedBundles; len(got) != 0 {
		t.Fatalf("preloaded bundles after unload = %v", got)
	}
}

func TestDescribeCapabilityOmitsNaN(t *testing.T) {
	desc := capability.Unknown()
	desc.SupportsOnOff = true
	summary := DescribeCapability(desc, capability.TierOnOff)
	if summary.ResonantFrequencyHz != nil {
		t.Fatalf("resonant frequency = %v, want nil", *summary.ResonantFrequencyHz)
	}
	if summary.QFactor != nil {
		t.Fatalf("q factor = %v, want nil", *summary.QFactor)
	}
	if summary.Tier != capability.TierOnOff.String() {
		t.Fatalf("tier = %q", summary.Tier)
	}
}

func TestDescribeCapabilityCarriesValues(t *testing.T) {
	desc := capability.Unknown()
	desc.SupportsOnOff = true
	desc.SupportsAmplitudeControl = true
	desc.ResonantFrequency = 150
	desc.QFactor = 1.5
	desc.FrequencyResponse = &capability.FrequencyRange{MinHz: 50, MaxHz: 300}
	desc.NativePrimitives = map[string]bool{"tick": true, "click": true}

	summary := DescribeCapability(desc, capability.TierAmplitude)
	if summary.ResonantFrequencyHz == nil || *summary.ResonantFrequencyHz != 150 {
		t.Fatalf("resonant frequency = %v", summary.ResonantFrequencyHz)
	}
	if math.IsNaN(desc.QFactor) {
		t.Fatal("test descriptor lost q factor")
	}
	if len(summary.NativePrimitives) != 2 || summary.NativePrimitives[0] != "click" {
		t.Fatalf("native primitives = %v", summary.NativePrimitives)
	}
}
