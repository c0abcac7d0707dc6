package zipcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"haptune/internal/testsupport"
)

func newTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "cache")
	manager := NewManager(root, nil, nil)
	manager.statfs = func(string) (uint64, uint64, error) {
		return 1000, 500, nil
	}
	return manager, root
}

func entryModTime(t *testing.T, vdir VirtualDirectory) int64 {
	t.Helper()
	path, ok := vdir.Child("main.hla")
	if !ok {
		t.Fatal("main.hla missing from extracted entry")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return info.ModTime().UnixNano()
}

func TestResolveExtractsOnce(t *testing.T) {
	manager, _ := newTestManager(t)
	archive := testsupport.SceneArchive(t, t.TempDir(), "scene.hac",
		testsupport.LegacyDocument(500),
		map[string][]byte{"a.wav": []byte("wav bytes")})

	first, err := manager.Resolve(context.Background(), archive, "scene")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := first.Child("a.wav"); !ok {
		t.Fatal("a.wav missing after extraction")
	}
	stamp := entryModTime(t, first)

	second, err := manager.Resolve(context.Background(), archive, "scene")
	if err != nil {
		t.Fatal(err)
	}
	if entryModTime(t, second) != stamp {
		t.Fatal("unchanged source was re-extracted")
	}
}

func TestResolveReextractsOnSourceChange(t *testing.T) {
	manager, _ := newTestManager(t)
	sceneDir := t.TempDir()
	archive := testsupport.SceneArchive(t, sceneDir, "scene.hac",
		testsupport.LegacyDocument(500), nil)

	if _, err := manager.Resolve(context.Background(), archive, "scene"); err != nil {
		t.Fatal(err)
	}
	entryDir := filepath.Join(manager.root, "scene")
	before, _, err := loadMetadata(entryDir)
	if err != nil {
		t.Fatal(err)
	}

	// Rewrite the archive with different bytes under the same path.
	testsupport.SceneArchive(t, sceneDir, "scene.hac",
		testsupport.LegacyDocument(900), nil)

	if _, err := manager.Resolve(context.Background(), archive, "scene"); err != nil {
		t.Fatal(err)
	}
	after, _, err := loadMetadata(entryDir)
	if err != nil {
		t.Fatal(err)
	}
	if after.SourceHash == before.SourceHash {
		t.Fatal("sidecar hash unchanged after source rewrite")
	}
}

func TestResolveRejectsEscapingEntries(t *testing.T) {
	manager, root := newTestManager(t)
	archive := filepath.Join(t.TempDir(), "evil.hac")
	testsupport.WriteZip(t, archive, map[string][]byte{
		"../escape.txt": []byte("outside"),
	})

	if _, err := manager.Resolve(context.Background(), archive, "evil"); err == nil {
		t.Fatal("zip-slip archive resolved without error")
	}
	if _, err := os.Stat(filepath.Join(root, "evil")); !os.IsNotExist(err) {
		t.Fatal("failed extraction left a partial cache entry")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(root), "escape.txt")); !os.IsNotExist(err) {
		t.Fatal("entry escaped the cache root")
	}
}

func TestSweepInvalidKeepsValidEntries(t *testing.T) {
	manager, root := newTestManager(t)
	archive := testsupport.SceneArchive(t, t.TempDir(), "scene.hac",
		testsupport.LegacyDocument(500), nil)

	if _, err := manager.Resolve(context.Background(), archive, "valid"); err != nil {
		t.Fatal(err)
	}

	// An entry without a sidecar is a crashed extraction.
	orphan := filepath.Join(root, "orphan")
	if err := os.MkdirAll(orphan, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(orphan, "main.hla"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := manager.SweepInvalid(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 || removed[0] != orphan {
		t.Fatalf("removed %v, want only the orphan", removed)
	}
	if _, err := os.Stat(filepath.Join(root, "valid")); err != nil {
		t.Fatal("sweep deleted a valid entry")
	}
}

func TestSweepInvalidRemovesStaleHash(t *testing.T) {
	manager, root := newTestManager(t)
	sceneDir := t.TempDir()
	archive := testsupport.SceneArchive(t, sceneDir, "scene.hac",
		testsupport.LegacyDocument(500), nil)

	if _, err := manager.Resolve(context.Background(), archive, "scene"); err != nil {
		t.Fatal(err)
	}
	testsupport.SceneArchive(t, sceneDir, "scene.hac",
		testsupport.LegacyDocument(900), nil)

	removed, err := manager.SweepInvalid(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 {
		t.Fatalf("removed %v, want the stale entry", removed)
	}
	if _, err := os.Stat(filepath.Join(root, "scene")); !os.IsNotExist(err) {
		t.Fatal("stale entry survived sweep")
	}
}

func TestStatsCountsEntries(t *testing.T) {
	manager, _ := newTestManager(t)
	archive := testsupport.SceneArchive(t, t.TempDir(), "scene.hac",
		testsupport.LegacyDocument(500),
		map[string][]byte{"a.wav": make([]byte, 128)})

	if _, err := manager.Resolve(context.Background(), archive, "scene"); err != nil {
		t.Fatal(err)
	}

	stats, err := manager.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Fatalf("entries = %d, want 1", stats.Entries)
	}
	if stats.TotalBytes == 0 {
		t.Fatal("total bytes not counted")
	}
	if stats.FreeRatio != 0.5 {
		t.Fatalf("free ratio = %v, want 0.5", stats.FreeRatio)
	}
	if len(stats.EntrySummaries) != 1 || stats.EntrySummaries[0].SourcePath != archive {
		t.Fatalf("entry summaries = %+v", stats.EntrySummaries)
	}
}

func TestDirChildGuardsRoot(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a.wav"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	vdir := Dir(root)
	if _, ok := vdir.Child("a.wav"); !ok {
		t.Fatal("existing child not found")
	}
	if _, ok := vdir.Child("missing.wav"); ok {
		t.Fatal("missing child reported present")
	}
	if _, ok := vdir.Child("../outside"); ok {
		t.Fatal("child lookup escaped the root")
	}
}

func TestEmptyDirectoryHasNoChildren(t *testing.T) {
	if _, ok := Empty().Child("anything"); ok {
		t.Fatal("empty directory returned a child")
	}
}
