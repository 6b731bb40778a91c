package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const watchDebounce = 100 * time.Millisecond

// Watch emits the current Settings once, then again every time the settings
// file changes on disk. The channel is closed when ctx is done.
//
// The parent directory is watched rather than the file because saves replace
// the file by rename.
func (f *FileSettings) Watch(ctx context.Context, logger *zap.Logger) (<-chan Settings, error) {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch '%s': %w", dir, err)
	}

	out := make(chan Settings, 1)
	target := filepath.Clean(f.path)

	emit := func() {
		s, err := f.Current(ctx)
		if err != nil {
			logger.Warn("Failed to reload settings", zap.String("path", f.path), zap.Error(err))
			return
		}
		select {
		case out <- s:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(out)
		defer w.Close()

		emit()

		debounce := time.NewTimer(watchDebounce)
		if !debounce.Stop() {
			<-debounce.C
		}

		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				logger.Debug("Settings file changed", zap.String("op", ev.Op.String()))
				debounce.Reset(watchDebounce)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("Settings watcher error", zap.Error(err))

			case <-debounce.C:
				emit()

			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}
