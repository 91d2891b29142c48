package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatchDataset refreshes the dictionary in the background whenever the file
// at path is written or replaced. Events are debounced by delay because
// editors and copy tools emit several events per save. It returns once the
// watcher is installed and keeps running until ctx is done.
func (i *Instance) WatchDataset(ctx context.Context, path string, delay time.Duration) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve dataset path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory: atomic saves replace the file and would drop a file watch.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	debouncer := NewDebouncer(delay)
	go func() {
		defer func() {
			debouncer.Stop()
			_ = watcher.Close()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				debouncer.Trigger(func() {
					jobID, err := i.RefreshAsync()
					if err != nil {
						i.logger.Warn("dataset changed but refresh could not start", "err", err)
						return
					}
					i.logger.Info("dataset changed, refreshing", "path", abs, "job", jobID)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				i.logger.Warn("dataset watcher error", "err", err)
			}
		}
	}()

	i.logger.Info("watching dataset", "path", abs)
	return nil
}
