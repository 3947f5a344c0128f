// Package internal provides the application wiring for every tabtidy mode:
// one-shot cleaning, watch mode, the HTTP server, the MCP server, and ad-hoc
// link checks.
package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/starford/tabtidy/internal/bookmarkservice"
	"github.com/starford/tabtidy/internal/cleaner"
	"github.com/starford/tabtidy/internal/httpclient"
	"github.com/starford/tabtidy/internal/limiter"
	"github.com/starford/tabtidy/internal/metrics"
	"github.com/starford/tabtidy/internal/probe"
	"github.com/starford/tabtidy/internal/safety"
	"github.com/starford/tabtidy/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := app.config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if app.logger == nil {
		app.logger = slog.Default()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	return app, nil
}

// engine is the wired probing and cleaning stack for one process.
type engine struct {
	metrics *metrics.Metrics
	prober  *probe.Prober
	svc     *bookmarkservice.Service
}

func (a *application) newEngine(store *storage.FS, events ...cleaner.Events) *engine {
	cfg := a.config
	m := metrics.New()

	classifier := safety.New(
		append(append([]string{}, safety.DefaultHostDenylist...), cfg.Safety.BlockedHosts...),
		append(append([]string{}, safety.DefaultContentDenylist...), cfg.Safety.BlockedWords...),
	)

	client := a.client
	if client == nil {
		client = httpclient.New(httpclient.Config{
			MaxRedirects:    cfg.Probe.MaxRedirects,
			MaxConnsPerHost: cfg.Probe.Workers,
			DenyAddr:        classifier.IsUnsafeDomain,
		})
	}

	p := probe.New(client, classifier,
		probe.WithTimeout(cfg.Probe.Timeout),
		probe.WithUserAgent(cfg.Probe.UserAgent),
		probe.WithMaxBody(cfg.Probe.MaxBodyBytes),
		probe.WithLimiter(limiter.New(cfg.Probe.PerHostRate, cfg.Probe.PerHostBurst)),
		probe.WithObserver(m),
		probe.WithLogger(a.logger),
	)

	c := cleaner.New(p,
		cleaner.WithWorkers(cfg.Probe.Workers),
		cleaner.WithCompactPasses(cfg.Compact.Passes),
		cleaner.WithLogger(a.logger),
		cleaner.WithEvents(cleaner.MultiEvents(append([]cleaner.Events{m}, events...)...)),
	)

	return &engine{
		metrics: m,
		prober:  p,
		svc:     bookmarkservice.New(store, c, p, a.logger),
	}
}

// Run cleans input once and writes the result to output. It prints a summary,
// and writes the report and metrics textfile when configured.
func Run(ctx context.Context, input, output string, opts ...Option) error {
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
	eng := app.newEngine(store)

	app.logger.Info("Cleaning bookmarks",
		slog.String("input", input),
		slog.String("output", output),
		slog.Duration("timeout", app.config.Probe.Timeout),
		slog.Int("workers", app.config.Probe.Workers))

	return app.cleanOnce(ctx, eng, input, output)
}

// cleanOnce runs one file clean and emits every configured artifact.
func (a *application) cleanOnce(ctx context.Context, eng *engine, input, output string) error {
	rep, err := eng.svc.CleanFile(ctx, input, output)
	if err != nil {
		return err
	}

	if err := rep.WriteSummary(a.stdout, a.config.Report.Limit); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	if path := a.config.Report.Path; path != "" {
		if err := rep.Export(eng.svc.Store(), path); err != nil {
			return fmt.Errorf("export report: %w", err)
		}
		a.logger.Info("Report written", slog.String("path", path))
	}

	if path := a.config.Report.MetricsFile; path != "" {
		if err := eng.metrics.WriteTextfile(path); err != nil {
			return err
		}
		a.logger.Debug("Metrics textfile written", slog.String("path", path))
	}
	return nil
}

// Check probes each URL, prints one verdict per line, and fails when any URL
// is invalid.
func Check(ctx context.Context, urls []string, opts ...Option) error {
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
	eng := app.newEngine(store)

	failed := 0
	for _, u := range urls {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		v := eng.svc.Check(ctx, u)
		status := "ok"
		if !v.Valid {
			failed++
			status = "FAIL " + v.ReasonText()
		}
		fmt.Fprintf(app.stdout, "%s\t%s\n", u, status)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d links failed", failed, len(urls))
	}
	return nil
}
