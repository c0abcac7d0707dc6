package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"haptune/internal/daemon"
	"haptune/internal/device"
	"haptune/internal/history"
	"haptune/internal/ipc"
	"haptune/internal/logging"
	"haptune/internal/player"
	"haptune/internal/testsupport"
)

type cliTestEnv struct {
	socketPath string
	configPath string
	sceneDir   string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(t.TempDir(), "config.toml")
	writeTestConfig(t, configPath, cfg.Paths.CacheDir, cfg.Paths.SceneDirs[0], cfg.Paths.LogDir)

	logger := logging.NewNop()
	hist, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}

	vibrator := device.NewStaticVibrator(device.DescriptorFromConfig(cfg.Device), logger)
	p, err := player.New(player.Options{
		Config:   cfg,
		Vibrator: vibrator,
		Sink:     device.NewNullSink(logger),
		History:  hist,
		Logger:   logger,
	})
	if err != nil {
		t.Fatalf("player.New: %v", err)
	}

	d, err := daemon.New(cfg, p, hist, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}

	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
		hist.Close()
	})

	return &cliTestEnv{
		socketPath: socketPath,
		configPath: configPath,
		sceneDir:   cfg.Paths.SceneDirs[0],
	}
}

func writeTestConfig(t *testing.T, path, cacheDir, sceneDir, logDir string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
cache_dir = %q
scene_dirs = [%q]
log_dir = %q

[device]
probe = "static"
supports_on_off = true
supports_amplitude_control = true
`, cacheDir, sceneDir, logDir)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, want string) {
	t.Helper()
	if !strings.Contains(output, want) {
		t.Fatalf("output %q does not contain %q", output, want)
	}
}

func TestCLIStatusAndCapability(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running:   yes")

	out, _, err = runCLI(t, []string{"capability"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("capability: %v", err)
	}
	requireContains(t, out, "Amplitude control")
}

func TestCLIPreloadLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)
	archive := testsupport.SceneArchive(t, env.sceneDir, "scene.hac", testsupport.LegacyDocument(100), nil)

	out, _, err := runCLI(t, []string{"preload", archive}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("preload: %v", err)
	}
	requireContains(t, out, "Preloaded")

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "scene")

	out, _, err = runCLI(t, []string{"unload", archive}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("unload: %v", err)
	}
	requireContains(t, out, "Unloaded")

	out, _, err = runCLI(t, []string{"unload", archive}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("second unload: %v", err)
	}
	requireContains(t, out, "No preloaded scene")
}

func TestCLICacheList(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"cache", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("cache list: %v", err)
	}
	requireContains(t, out, "Cache is empty")

	archive := testsupport.SceneArchive(t, env.sceneDir, "scene.hac", testsupport.LegacyDocument(50), nil)
	if _, _, err = runCLI(t, []string{"play", archive}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("play: %v", err)
	}

	out, _, err = runCLI(t, []string{"cache", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("cache list after play: %v", err)
	}
	requireContains(t, out, "scene.hac")
}

func TestCLIHistoryEmpty(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"history", "list"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "No playbacks recorded")
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "unused.sock", "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, "unused.sock", ""); err == nil {
		t.Fatal("expected error for existing config without --overwrite")
	}
}
