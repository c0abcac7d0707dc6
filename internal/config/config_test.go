package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"haptune/internal/config"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")

	cfg, resolved, exists, err := config.Load(filepath.Join(tempHome, "absent.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent")
	}

	if cfg.Paths.CacheDir != filepath.Join(tempHome, ".cache", "haptune", "scenes") {
		t.Fatalf("unexpected cache dir: %q", cfg.Paths.CacheDir)
	}
	if cfg.Playback.TierOverride != -1 {
		t.Fatalf("expected tier override -1, got %d", cfg.Playback.TierOverride)
	}
	if cfg.Pool.ClipPreloadMaxBits != 8_000_000 {
		t.Fatalf("unexpected clip preload ceiling: %d", cfg.Pool.ClipPreloadMaxBits)
	}
	if cfg.Assets.Mode != "local" {
		t.Fatalf("unexpected assets mode: %q", cfg.Assets.Mode)
	}
	if cfg.Device.Probe != "auto" {
		t.Fatalf("unexpected probe mode: %q", cfg.Device.Probe)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("unexpected log format: %q", cfg.Logging.Format)
	}
	if cfg.Assets.StagingDir != filepath.Join(tempHome, ".cache", "haptune", "staging") {
		t.Fatalf("staging dir not a sibling of the cache dir: %q", cfg.Assets.StagingDir)
	}
	if strings.HasPrefix(cfg.Assets.StagingDir, cfg.Paths.CacheDir+string(filepath.Separator)) {
		t.Fatalf("staging dir %q nested inside cache dir %q", cfg.Assets.StagingDir, cfg.Paths.CacheDir)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	base := t.TempDir()
	path := filepath.Join(base, "config.toml")
	content := `[paths]
cache_dir = "` + filepath.Join(base, "cache") + `"
scene_dirs = ["` + filepath.Join(base, "scenes") + `"]
log_dir = "` + filepath.Join(base, "logs") + `"

[playback]
tier_override = 2

[device]
probe = "static"
supports_on_off = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Playback.TierOverride != 2 {
		t.Fatalf("tier override = %d", cfg.Playback.TierOverride)
	}
	if cfg.Device.Probe != "static" || !cfg.Device.SupportsOnOff {
		t.Fatalf("device section not applied: %+v", cfg.Device)
	}
	if cfg.Paths.LogDir != filepath.Join(base, "logs") {
		t.Fatalf("log dir = %q", cfg.Paths.LogDir)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	base := t.TempDir()
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad tier override",
			content: "[playback]\ntier_override = 9\n",
			wantErr: "tier_override",
		},
		{
			name:    "bad assets mode",
			content: "[assets]\nmode = \"ftp\"\n",
			wantErr: "assets.mode",
		},
		{
			name:    "s3 without endpoint",
			content: "[assets]\nmode = \"s3\"\n",
			wantErr: "assets.endpoint",
		},
		{
			name:    "bad probe",
			content: "[device]\nprobe = \"guess\"\n",
			wantErr: "device.probe",
		},
		{
			name:    "staging dir inside cache dir",
			content: "[paths]\ncache_dir = \"" + filepath.Join(base, "cache") + "\"\n\n[assets]\nstaging_dir = \"" + filepath.Join(base, "cache", "assets") + "\"\n",
			wantErr: "assets.staging_dir",
		},
		{
			name:    "bad log format",
			content: "[logging]\nformat = \"xml\"\n",
			wantErr: "logging.format",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(base, strings.ReplaceAll(tc.name, " ", "-")+".toml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			_, _, _, err := config.Load(path)
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestExpandPathHome(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	got, err := config.ExpandPath("~/scenes")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(tempHome, "scenes") {
		t.Fatalf("expanded = %q", got)
	}
}

func TestDerivedPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = base

	if cfg.SocketPath() != filepath.Join(base, "haptune.sock") {
		t.Fatalf("socket path = %q", cfg.SocketPath())
	}
	if cfg.LockPath() != filepath.Join(base, "haptuned.lock") {
		t.Fatalf("lock path = %q", cfg.LockPath())
	}
	if cfg.HistoryDBPath() != filepath.Join(base, "history.db") {
		t.Fatalf("history path = %q", cfg.HistoryDBPath())
	}
	if cfg.LogFilePath() != filepath.Join(base, "haptuned.log") {
		t.Fatalf("log file path = %q", cfg.LogFilePath())
	}
}

func TestCreateSampleParses(t *testing.T) {
	target := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(target); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, _, err := config.Load(target); err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
}
