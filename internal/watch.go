package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/starford/tabtidy/internal/apperr"
	"github.com/starford/tabtidy/internal/storage"
	"github.com/starford/tabtidy/internal/watcher"
)

// Watch cleans input into output now and again every time input changes,
// until ctx is cancelled or the process is signalled.
func Watch(ctx context.Context, input, output string, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewFS("")
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	same, err := store.SamePath(input, output)
	if err != nil {
		return err
	}
	if same {
		return fmt.Errorf("%s: %w", output, apperr.ErrSamePath)
	}
	abs, err := store.Resolve(input)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("%s: %w", input, apperr.ErrNotFound)
	}

	eng := app.newEngine(store)

	app.logger.Info("Watching bookmarks",
		slog.String("input", abs),
		slog.String("output", output),
		slog.Duration("debounce", app.config.Watch.Debounce))

	err = watcher.Watch(ctx, abs, app.config.Watch.Debounce, app.logger, func(ctx context.Context, path string) error {
		err := app.cleanOnce(ctx, eng, path, output)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", input, err)
	}
	return nil
}
