package zipcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	metadataVersion  = 1
	metadataFileName = "haptune.cache.json"
)

// EntryMetadata is the sidecar record proving an extraction completed. Its
// presence is the sole success marker: a crash mid-extraction leaves a
// directory without it, which the validity check treats as invalid.
type EntryMetadata struct {
	Version    int    `json:"version"`
	SourceHash string `json:"source_hash"`
	SourcePath string `json:"source_path"`
}

// writeMetadata stores the sidecar atomically via temp file and rename, so a
// partially written sidecar can never be mistaken for a completed one.
func writeMetadata(cacheDir string, meta EntryMetadata) error {
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("zipcache: encode metadata: %w", err)
	}
	tmp := filepath.Join(cacheDir, fmt.Sprintf(".haptune-cache-%d.tmp", time.Now().UnixNano()))
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("zipcache: write metadata temp: %w", err)
	}
	if err := os.Rename(tmp, metadataPath(cacheDir)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("zipcache: rename metadata: %w", err)
	}
	return nil
}

// loadMetadata reads the sidecar for a cache entry. The boolean reports
// whether a sidecar file was present at all.
func loadMetadata(cacheDir string) (EntryMetadata, bool, error) {
	payload, err := os.ReadFile(metadataPath(cacheDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return EntryMetadata{}, false, nil
		}
		return EntryMetadata{}, false, fmt.Errorf("zipcache: read metadata: %w", err)
	}
	var meta EntryMetadata
	if err := json.Unmarshal(payload, &meta); err != nil {
		return EntryMetadata{}, true, fmt.Errorf("zipcache: decode metadata: %w", err)
	}
	if meta.Version != metadataVersion {
		return EntryMetadata{}, true, fmt.Errorf("zipcache: unsupported metadata version %d", meta.Version)
	}
	return meta, true, nil
}

func metadataPath(cacheDir string) string {
	return filepath.Join(cacheDir, metadataFileName)
}
