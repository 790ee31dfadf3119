// Package refresh provides the filesystem-refresh capability. Build
// stages call SyncRefresh before reading the source tree so they do not
// observe a half-written state; the refresh is best-effort and failures
// are logged, never fatal, because staleness beats blocking forever.
package refresh

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Refresher synchronizes the caller's view of the source tree with the
// filesystem.
type Refresher interface {
	// SyncRefresh blocks until recent filesystem activity has settled
	// or the context expires.
	SyncRefresh(ctx context.Context) error
	// Refresh marks a single path as up to date.
	Refresh(path string)
}

// Noop performs no synchronization. Used when watching is disabled and
// in tests.
type Noop struct{}

// SyncRefresh returns immediately.
func (Noop) SyncRefresh(context.Context) error { return nil }

// Refresh does nothing.
func (Noop) Refresh(string) {}

// DefaultQuiescence is how long the tree must be quiet before a sync
// refresh considers it settled.
const DefaultQuiescence = 200 * time.Millisecond

// Watcher tracks filesystem events under the configured roots and
// implements the settle-wait. A build stage that runs while files are
// still being written would silently scan a torn tree; waiting for
// quiescence is the reentrant "not ready" wait.
type Watcher struct {
	watcher    *fsnotify.Watcher
	quiescence time.Duration
	logger     *zap.Logger

	mu        sync.Mutex
	dirty     map[string]struct{}
	lastEvent time.Time

	done chan struct{}
}

// NewWatcher starts watching every directory under the given roots.
// Roots that do not exist are skipped with a log line.
func NewWatcher(roots []string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		watcher:    fsw,
		quiescence: DefaultQuiescence,
		logger:     logger,
		dirty:      make(map[string]struct{}),
		done:       make(chan struct{}),
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			logger.Warn("failed to watch source root", zap.String("root", root), zap.Error(err))
		}
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return err
	}
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.watcher.Add(path); err != nil {
				w.logger.Debug("watch add failed", zap.String("path", path), zap.Error(err))
			}
		}
		return nil
	})
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.mu.Lock()
			w.dirty[event.Name] = struct{}{}
			w.lastEvent = time.Now()
			w.mu.Unlock()
			// New directories need their own watch.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.addTree(event.Name)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("filesystem watcher error", zap.Error(err))
		}
	}
}

// SyncRefresh waits until no event has arrived for the quiescence
// window, clearing the dirty set. Bounded by the context; a deadline
// hit is returned to the caller, which logs and proceeds with the
// possibly-stale view.
func (w *Watcher) SyncRefresh(ctx context.Context) error {
	ticker := time.NewTicker(w.quiescence / 4)
	defer ticker.Stop()
	for {
		w.mu.Lock()
		settled := w.lastEvent.IsZero() || time.Since(w.lastEvent) >= w.quiescence
		if settled {
			w.dirty = make(map[string]struct{})
		}
		w.mu.Unlock()
		if settled {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Refresh drops a single path from the dirty set.
func (w *Watcher) Refresh(path string) {
	w.mu.Lock()
	delete(w.dirty, path)
	w.mu.Unlock()
}

// DirtyCount returns the number of paths with unsettled events.
func (w *Watcher) DirtyCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.dirty)
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}
