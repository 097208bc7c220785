// Package filewatcher provides file system monitoring adapters.
// Clean Architecture: Adapter implementing ports.FileWatcher.
package filewatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/0xcro3dile/ragroute/internal/domain/ports"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
// It watches the file's directory so atomic rename-on-save is seen.
type FSNotifyWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *zap.Logger
	stopOnce sync.Once
}

// NewFSNotifyWatcher creates a new file watcher.
func NewFSNotifyWatcher(debounce time.Duration, logger *zap.Logger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &FSNotifyWatcher{
		watcher:  w,
		debounce: debounce,
		logger:   logger,
	}, nil
}

// Watch starts monitoring the file and emits one event per burst of changes.
func (w *FSNotifyWatcher) Watch(ctx context.Context, path string) (<-chan ports.FileEvent, error) {
	target, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if err := w.watcher.Add(filepath.Dir(target)); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 1)

	go func() {
		defer close(events)

		// Stop and Reset discard stale fires (Go 1.23 timer semantics).
		timer := time.NewTimer(w.debounce)
		timer.Stop()
		defer timer.Stop()

		var (
			pending ports.FileOperation
			armed   bool
		)

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}

				switch {
				case event.Op&fsnotify.Create == fsnotify.Create:
					pending = ports.FileCreated
				case event.Op&fsnotify.Write == fsnotify.Write:
					if !armed || pending != ports.FileCreated {
						pending = ports.FileModified
					}
				case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					pending = ports.FileDeleted
				default:
					continue
				}

				timer.Reset(w.debounce)
				armed = true
			case <-timer.C:
				armed = false
				select {
				case events <- ports.FileEvent{Path: target, Operation: pending}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("file watcher error", zap.String("path", target), zap.Error(err))
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *FSNotifyWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() { err = w.watcher.Close() })
	return err
}
