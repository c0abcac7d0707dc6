package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// normalize expands and absolutizes all path fields and fills derived
// defaults that depend on other fields.
func (c *Config) normalize() error {
	var err error
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	for i, dir := range c.Paths.SceneDirs {
		if c.Paths.SceneDirs[i], err = expandPath(dir); err != nil {
			return err
		}
	}
	if strings.TrimSpace(c.Assets.StagingDir) == "" {
		// Staging must live beside the cache root, never inside it: the
		// cache sweep removes any directory under its root that lacks a
		// valid sidecar, and staged downloads carry none.
		c.Assets.StagingDir = filepath.Join(filepath.Dir(c.Paths.CacheDir), "staging")
	} else if c.Assets.StagingDir, err = expandPath(c.Assets.StagingDir); err != nil {
		return err
	}
	c.Assets.Mode = strings.ToLower(strings.TrimSpace(c.Assets.Mode))
	if c.Assets.Mode == "" {
		c.Assets.Mode = "local"
	}
	c.Device.Probe = strings.ToLower(strings.TrimSpace(c.Device.Probe))
	if c.Device.Probe == "" {
		c.Device.Probe = "auto"
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	return nil
}

// insideDir reports whether path sits at or below dir. Both arguments are
// already absolute after normalize.
func insideDir(path, dir string) bool {
	if path == "" || dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		return fmt.Errorf("paths.cache_dir is required")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir is required")
	}
	switch c.Assets.Mode {
	case "local":
	case "s3":
		if strings.TrimSpace(c.Assets.Endpoint) == "" {
			return fmt.Errorf("assets.endpoint is required when assets.mode is %q", c.Assets.Mode)
		}
		if strings.TrimSpace(c.Assets.Bucket) == "" {
			return fmt.Errorf("assets.bucket is required when assets.mode is %q", c.Assets.Mode)
		}
	default:
		return fmt.Errorf("assets.mode: unsupported value %q", c.Assets.Mode)
	}
	if insideDir(c.Assets.StagingDir, c.Paths.CacheDir) {
		return fmt.Errorf("assets.staging_dir %q must not be inside paths.cache_dir %q", c.Assets.StagingDir, c.Paths.CacheDir)
	}
	switch c.Device.Probe {
	case "auto", "static":
	default:
		return fmt.Errorf("device.probe: unsupported value %q", c.Device.Probe)
	}
	if c.Playback.TierOverride < -1 || c.Playback.TierOverride > 4 {
		return fmt.Errorf("playback.tier_override must be between -1 and 4, got %d", c.Playback.TierOverride)
	}
	if c.Pool.ClipPreloadMaxBits < 0 {
		return fmt.Errorf("pool.clip_preload_max_bits must not be negative")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
