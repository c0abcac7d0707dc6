package testsupport

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

// WriteZip builds a zip archive at path from the given entry name to content
// mapping. Entry names may contain forward-slash separated subdirectories.
func WriteZip(t testing.TB, path string, entries map[string][]byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	writer := zip.NewWriter(f)
	for name, content := range entries {
		entry, err := writer.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := entry.Write(content); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close zip %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close %s: %v", path, err)
	}
}

// LegacyDocument returns a minimal legacy-format scene document with the
// given duration in milliseconds and one two-sample waveform.
func LegacyDocument(durationMS int64) []byte {
	half := durationMS / 2
	return fmt.Appendf(nil, `{
		"ProjectName": "fixture",
		"TrackName": "track",
		"Duration": %d,
		"RequiredAudioFiles": [],
		"Audios": [],
		"Timings": [%d, %d],
		"Amplitudes": [200, 100],
		"Repeat": -1
	}`, durationMS, half, durationMS-half)
}

// SceneArchive writes a scene archive containing main.hla plus the given
// audio files, and returns the archive path.
func SceneArchive(t testing.TB, dir, name string, document []byte, audioFiles map[string][]byte) string {
	t.Helper()

	entries := map[string][]byte{"main.hla": document}
	for file, content := range audioFiles {
		entries[file] = content
	}
	path := filepath.Join(dir, name)
	WriteZip(t, path, entries)
	return path
}
