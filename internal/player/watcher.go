package player

import (
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"

	"haptune/internal/logging"
)

type watchKind int

const (
	watchBundle watchKind = iota
	watchClip
)

type watchEntry struct {
	key  string
	kind watchKind
}

// sourceWatcher invalidates preloaded pool entries when their source files
// change on disk. A write or remove unloads the stale entry; the next play
// re-resolves from scratch.
type sourceWatcher struct {
	player *Player
	fs     *fsnotify.Watcher
	logger *slog.Logger

	mu      sync.Mutex
	byPath  map[string][]watchEntry
	keyPath map[watchEntry]string
	closed  bool
}

func newSourceWatcher(p *Player, logger *slog.Logger) (*sourceWatcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &sourceWatcher{
		player:  p,
		fs:      fs,
		logger:  logging.NewComponentLogger(logger, "watcher"),
		byPath:  make(map[string][]watchEntry),
		keyPath: make(map[watchEntry]string),
	}
	go w.run()
	return w, nil
}

func (w *sourceWatcher) watch(path, key string, kind watchKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	entry := watchEntry{key: key, kind: kind}
	if _, exists := w.keyPath[entry]; exists {
		return
	}
	if len(w.byPath[path]) == 0 {
		if err := w.fs.Add(path); err != nil {
			logging.WarnWithContext(w.logger, "cannot watch preloaded source", "watch_failed",
				logging.String(logging.FieldSource, path),
				logging.Error(err))
			return
		}
	}
	w.byPath[path] = append(w.byPath[path], entry)
	w.keyPath[entry] = path
}

func (w *sourceWatcher) unwatch(key string, kind watchKind) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.removeLocked(watchEntry{key: key, kind: kind})
}

func (w *sourceWatcher) unwatchAll() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for entry := range w.keyPath {
		w.removeLocked(entry)
	}
}

// removeLocked drops one entry and the filesystem watch once no entry
// references its path. Callers hold w.mu.
func (w *sourceWatcher) removeLocked(entry watchEntry) {
	path, ok := w.keyPath[entry]
	if !ok {
		return
	}
	delete(w.keyPath, entry)

	remaining := w.byPath[path][:0]
	for _, other := range w.byPath[path] {
		if other != entry {
			remaining = append(remaining, other)
		}
	}
	if len(remaining) == 0 {
		delete(w.byPath, path)
		if !w.closed {
			_ = w.fs.Remove(path)
		}
	} else {
		w.byPath[path] = remaining
	}
}

func (w *sourceWatcher) close() error {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	return w.fs.Close()
}

func (w *sourceWatcher) run() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.invalidate(event.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logging.WarnWithContext(w.logger, "watch error", "watch_failed",
				logging.Error(err))
		}
	}
}

func (w *sourceWatcher) invalidate(path string) {
	w.mu.Lock()
	entries := append([]watchEntry(nil), w.byPath[path]...)
	for _, entry := range entries {
		w.removeLocked(entry)
	}
	w.mu.Unlock()

	for _, entry := range entries {
		switch entry.kind {
		case watchBundle:
			w.player.pool.DropBundle(entry.key)
		case watchClip:
			w.player.pool.DropClip(entry.key)
		}
		w.logger.Info("preloaded source changed, unloaded",
			logging.String(logging.FieldSource, entry.key))
	}
}
