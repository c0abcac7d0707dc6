package config

import (
	"os"
	"path/filepath"
)

// Default returns the configuration defaults applied before a config file is
// decoded over them.
func Default() Config {
	return Config{
		Paths: Paths{
			CacheDir:  defaultUserDir("XDG_CACHE_HOME", ".cache", "scenes"),
			SceneDirs: []string{defaultUserDir("XDG_DATA_HOME", ".local/share", "scenes")},
			LogDir:    defaultUserDir("XDG_STATE_HOME", ".local/state", "logs"),
			APIBind:   "127.0.0.1:7835",
		},
		Playback: Playback{
			TierOverride: -1,
		},
		Pool: Pool{
			ClipPreloadMaxBits: 8_000_000,
		},
		Assets: Assets{
			Mode:   "local",
			UseSSL: true,
		},
		Device: Device{
			Probe:               "auto",
			ResonantFrequencyHz: -1,
			QFactor:             -1,
		},
		Logging: Logging{
			Format:     "console",
			Level:      "info",
			MaxSizeMB:  20,
			MaxBackups: 5,
		},
	}
}

func defaultUserDir(envVar, homeFallback, sub string) string {
	if base, ok := os.LookupEnv(envVar); ok && base != "" {
		return filepath.Join(base, "haptune", sub)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("~", homeFallback, "haptune", sub)
	}
	return filepath.Join(home, homeFallback, "haptune", sub)
}
