package zipcache

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sys/unix"
	"golang.org/x/text/unicode/norm"

	"haptune/internal/assets"
	"haptune/internal/fileutil"
	"haptune/internal/logging"
)

// statfsFunc allows tests to stub filesystem stats.
type statfsFunc func(path string) (total uint64, free uint64, err error)

// Manager extracts scene archives into a content-validated cache. An entry
// is keyed by cache key and tagged with the SHA-256 of its source bytes; a
// changed source invalidates the entry transparently on the next resolve.
type Manager struct {
	root   string
	assets assets.Resolver
	logger *slog.Logger
	statfs statfsFunc
}

// Stats describes current cache usage.
type Stats struct {
	Entries        int            `json:"entries"`
	TotalBytes     int64          `json:"total_bytes"`
	FreeBytes      uint64         `json:"free_bytes"`
	TotalFSBytes   uint64         `json:"total_fs_bytes"`
	FreeRatio      float64        `json:"free_ratio"`
	EntrySummaries []EntrySummary `json:"entry_summaries"`
}

// EntrySummary surfaces human-friendly details about a cache entry so the
// CLI can show which scenes are currently extracted.
type EntrySummary struct {
	Directory  string    `json:"directory"`
	SourcePath string    `json:"source_path"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// NewManager builds a cache manager rooted at the given directory. The
// resolver is consulted for identifiers that are not absolute paths; it may
// be nil when only local absolute sources are in play.
func NewManager(root string, resolver assets.Resolver, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		root:   strings.TrimSpace(root),
		assets: resolver,
		logger: logging.NewComponentLogger(logger, "zipcache"),
		statfs: realStatfs,
	}
}

// Resolve returns a virtual directory over the extracted contents of the
// identified archive, extracting only when the cached entry's stored hash no
// longer matches the source bytes. The source is hashed exactly once per
// call, streamed.
func (m *Manager) Resolve(ctx context.Context, identifier, key string) (VirtualDirectory, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errors.New("zipcache: empty source identifier")
	}
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("zipcache: empty cache key")
	}

	sourcePath, err := m.sourcePath(ctx, identifier)
	if err != nil {
		return nil, err
	}
	hash, err := fileutil.HashFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("zipcache: hash source: %w", err)
	}

	entryDir := filepath.Join(m.root, sanitizeKey(key))
	meta, present, metaErr := loadMetadata(entryDir)
	if present && metaErr == nil && meta.SourcePath == identifier && meta.SourceHash == hash {
		return Dir(entryDir), nil
	}

	if err := os.RemoveAll(entryDir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("zipcache: remove stale entry: %w", err)
	}
	if err := extractZip(sourcePath, entryDir); err != nil {
		_ = os.RemoveAll(entryDir)
		return nil, fmt.Errorf("zipcache: extract %q: %w", identifier, err)
	}
	if err := writeMetadata(entryDir, EntryMetadata{
		Version:    metadataVersion,
		SourceHash: hash,
		SourcePath: identifier,
	}); err != nil {
		_ = os.RemoveAll(entryDir)
		return nil, err
	}

	m.logger.InfoContext(ctx, "extracted scene archive",
		logging.String(logging.FieldCacheKey, key),
		logging.String(logging.FieldSource, identifier),
		logging.String("cache_dir", entryDir),
	)
	return Dir(entryDir), nil
}

// SweepInvalid deletes cache entries whose sidecar is missing or no longer
// matches a re-hash of the still-present source. It touches nothing outside
// the cache root and returns the removed directories.
func (m *Manager) SweepInvalid(ctx context.Context) ([]string, error) {
	rootEntries, err := os.ReadDir(m.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("zipcache: list root: %w", err)
	}

	var removed []string
	for _, entry := range rootEntries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.root, entry.Name())
		if m.entryValid(dir) {
			continue
		}
		if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
			return removed, fmt.Errorf("zipcache: remove %q: %w", dir, err)
		}
		removed = append(removed, dir)
		m.logger.InfoContext(ctx, "swept invalid cache entry",
			logging.String("cache_dir", dir),
		)
	}
	return removed, nil
}

// entryValid applies the validity predicate used by Resolve. Entries backed
// by a non-local identifier keep their sidecar's word; re-hashing them would
// mean fetching the remote object, which the sweep must not do.
func (m *Manager) entryValid(dir string) bool {
	meta, present, err := loadMetadata(dir)
	if !present || err != nil {
		return false
	}
	if !filepath.IsAbs(meta.SourcePath) {
		return true
	}
	hash, err := fileutil.HashFile(meta.SourcePath)
	if err != nil {
		return false
	}
	return hash == meta.SourceHash
}

// Stats returns current cache usage and filesystem free-space info.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	rootEntries, err := os.ReadDir(m.root)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return s, fmt.Errorf("zipcache: list root: %w", err)
	}

	summaries := make([]EntrySummary, 0, len(rootEntries))
	var total int64
	for _, entry := range rootEntries {
		if !entry.IsDir() {
			continue
		}
		dir := filepath.Join(m.root, entry.Name())
		size, mtime, err := dirSizeAndTime(dir)
		if err != nil {
			m.logger.Warn("skipping unreadable cache entry",
				logging.String("cache_dir", dir),
				logging.Error(err),
				logging.String(logging.FieldEventType, "cache_entry_skipped"),
				logging.String(logging.FieldErrorHint, "inspect cache directory permissions or remove the entry"),
			)
			continue
		}
		meta, _, _ := loadMetadata(dir)
		total += size
		summaries = append(summaries, EntrySummary{
			Directory:  dir,
			SourcePath: meta.SourcePath,
			SizeBytes:  size,
			ModifiedAt: mtime,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ModifiedAt.After(summaries[j].ModifiedAt)
	})

	totalFS, freeFS, err := m.statfs(m.root)
	if err != nil {
		return s, fmt.Errorf("zipcache: statfs: %w", err)
	}
	ratio := 1.0
	if totalFS > 0 {
		ratio = float64(freeFS) / float64(totalFS)
	}
	s = Stats{
		Entries:        len(summaries),
		TotalBytes:     total,
		FreeBytes:      freeFS,
		TotalFSBytes:   totalFS,
		FreeRatio:      ratio,
		EntrySummaries: summaries,
	}
	if len(summaries) == 0 {
		m.logger.InfoContext(ctx, "scene cache empty")
	}
	return s, nil
}

func (m *Manager) sourcePath(ctx context.Context, identifier string) (string, error) {
	if filepath.IsAbs(identifier) {
		if _, err := os.Stat(identifier); err != nil {
			return "", fmt.Errorf("zipcache: source %q: %w", identifier, err)
		}
		return identifier, nil
	}
	if m.assets == nil {
		return "", fmt.Errorf("zipcache: no asset resolver for %q", identifier)
	}
	path, err := m.assets.Resolve(ctx, identifier)
	if err != nil {
		return "", fmt.Errorf("zipcache: resolve source: %w", err)
	}
	return path, nil
}

// extractZip streams every archive entry into dir, preserving relative
// structure. Entry names are NFC-normalized so archives authored on
// NFD-normalizing filesystems still match the document's filename
// references. Entries escaping the target directory are rejected.
func extractZip(sourcePath, dir string) error {
	reader, err := zip.OpenReader(sourcePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, file := range reader.File {
		name := norm.NFC.String(file.Name)
		target := filepath.Join(dir, filepath.FromSlash(name))
		rel, err := filepath.Rel(dir, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return fmt.Errorf("entry %q escapes archive root", file.Name)
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		if err := extractFile(file, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(file *zip.File, target string) error {
	in, err := file.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

func dirSizeAndTime(path string) (int64, time.Time, error) {
	var (
		size   int64
		latest time.Time
	)
	err := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return 0, time.Time{}, err
	}
	return size, latest, nil
}

func sanitizeKey(value string) string {
	value = strings.TrimSpace(value)
	replacer := strings.NewReplacer(
		"/", "-",
		"\\", "-",
		" ", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	)
	value = replacer.Replace(value)
	value = strings.Trim(value, "-_.")
	if value == "" {
		return "scene"
	}
	return value
}

func realStatfs(path string) (uint64, uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, 0, err
	}
	total := stat.Blocks * uint64(stat.Bsize)
	free := stat.Bavail * uint64(stat.Bsize)
	return total, free, nil
}
