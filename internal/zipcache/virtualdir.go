package zipcache

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// VirtualDirectory presents a uniform lookup over an extracted archive or a
// plain scene directory. Lookups never escape the backing root.
type VirtualDirectory interface {
	// Child resolves a relative filename to an absolute path. ok is false
	// when the entry does not exist or the name escapes the directory.
	Child(name string) (path string, ok bool)

	// Path returns the backing directory root, empty for the empty
	// directory.
	Path() string
}

type dirDirectory struct {
	root string
}

// Dir wraps an on-disk directory as a VirtualDirectory.
func Dir(root string) VirtualDirectory {
	return dirDirectory{root: root}
}

func (d dirDirectory) Child(name string) (string, bool) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}
	target := filepath.Join(d.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(d.root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if _, err := os.Stat(target); err != nil {
		return "", false
	}
	return target, true
}

func (d dirDirectory) Path() string { return d.root }

type emptyDirectory struct{}

// Empty returns a VirtualDirectory with no entries. Resolvers hand it out
// when a scene's resources are unavailable, so every audio reference drops
// individually instead of failing the playback.
func Empty() VirtualDirectory {
	return emptyDirectory{}
}

func (emptyDirectory) Child(string) (string, bool) { return "", false }

func (emptyDirectory) Path() string { return "" }
