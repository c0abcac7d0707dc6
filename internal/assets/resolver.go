package assets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound reports that no configured source carries the named asset.
var ErrNotFound = errors.New("assets: not found")

// Resolver maps a scene identifier to a local filesystem path. Remote
// backends materialize the asset into staging before returning, so callers
// always receive a readable local file or directory.
type Resolver interface {
	Resolve(ctx context.Context, identifier string) (string, error)
}

// LocalResolver resolves identifiers against a fixed list of scene
// directories. Absolute paths that exist resolve to themselves.
type LocalResolver struct {
	dirs []string
}

func NewLocalResolver(sceneDirs []string) *LocalResolver {
	dirs := make([]string, 0, len(sceneDirs))
	for _, dir := range sceneDirs {
		dir = strings.TrimSpace(dir)
		if dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return &LocalResolver{dirs: dirs}
}

func (r *LocalResolver) Resolve(_ context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", errors.New("assets: empty identifier")
	}
	if filepath.IsAbs(identifier) {
		if _, err := os.Stat(identifier); err != nil {
			return "", fmt.Errorf("assets: %q: %w", identifier, ErrNotFound)
		}
		return identifier, nil
	}
	for _, dir := range r.dirs {
		candidate := filepath.Join(dir, identifier)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("assets: %q: %w", identifier, ErrNotFound)
}
