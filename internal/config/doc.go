// Package config loads, validates, and normalizes the TOML configuration
// shared by the haptune CLI and daemon.
package config
