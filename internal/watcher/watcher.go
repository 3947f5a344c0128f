// Package watcher re-runs a cleaning job whenever an input bookmark file
// changes on disk.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/tabtidy/internal/checksum"
)

// DefaultDebounce is how long the file must stay quiet before a run starts.
const DefaultDebounce = 500 * time.Millisecond

// RunFunc processes the file at path. Errors are logged and do not stop the
// watch.
type RunFunc func(ctx context.Context, path string) error

// Watch runs fn once for path, then again each time the file's content
// changes, until ctx is cancelled. Bursts of writes are coalesced by debounce
// and content that hashes the same as the last run is skipped.
//
// The parent directory is watched rather than the file so that editors and
// browsers that replace the file by rename are still followed.
func Watch(ctx context.Context, path string, debounce time.Duration, logger *slog.Logger, fn RunFunc) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("path", abs))

	var last string
	runIfChanged := func() {
		data, readErr := os.ReadFile(abs)
		if readErr != nil {
			logger.Warn("watcher: read failed", slog.String("path", abs), slog.String("error", readErr.Error()))
			return
		}
		sum := checksum.Sum(data)
		if sum == last {
			logger.Debug("watcher: content unchanged", slog.String("path", abs))
			return
		}
		last = sum
		if runErr := fn(ctx, abs); runErr != nil {
			logger.Error("watcher: run failed", slog.String("path", abs), slog.String("error", runErr.Error()))
		}
	}

	runIfChanged()

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			if ctx.Err() != nil {
				continue
			}
			runIfChanged()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				logger.Debug("watcher: change", slog.String("op", ev.Op.String()))
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
