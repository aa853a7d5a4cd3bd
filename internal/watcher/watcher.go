// Package watcher re-applies the catalog seed file whenever it changes on
// disk.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces editor write bursts into one reload.
const debounceDelay = 500 * time.Millisecond

// SeedWatcher watches one seed file and invokes apply after each change.
type SeedWatcher struct {
	path   string
	apply  func(ctx context.Context, path string) error
	logger *slog.Logger
	fsw    *fsnotify.Watcher
}

// New creates a watcher for the seed file at path. Watching starts with Run.
func New(path string, apply func(ctx context.Context, path string) error, logger *slog.Logger) (*SeedWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	// Watch the directory, not the file. Editors replace files on save,
	// which drops a watch held on the file itself.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}

	return &SeedWatcher{
		path:   path,
		apply:  apply,
		logger: logger,
		fsw:    fsw,
	}, nil
}

// Run blocks until ctx is cancelled, applying the seed file after each
// debounced change. Apply failures are logged; the watcher keeps running.
func (w *SeedWatcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("seed watcher error", "error", err)

		case <-pending:
			w.logger.Info("seed file changed, reapplying", "path", w.path)
			if err := w.apply(ctx, w.path); err != nil {
				w.logger.Error("failed to apply seed file", "path", w.path, "error", err)
			}
		}
	}
}
