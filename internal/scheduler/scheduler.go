// Package scheduler fans link probes out over a bounded worker pool and
// collects the verdicts in request order.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/starford/tabtidy/internal/bookmark"
	"github.com/starford/tabtidy/internal/probe"
)

// DefaultWorkers is the pool size used when none is given.
const DefaultWorkers = 10

// Request is one link to validate.
type Request struct {
	URL   string
	Title string
}

// Prober validates a single URL. Implementations must be safe for
// concurrent use.
type Prober interface {
	Probe(ctx context.Context, rawURL, title string) probe.Verdict
}

// ProgressFunc is called after every completed probe. Calls are serialized.
type ProgressFunc func(done, total int, v probe.Verdict)

// Scheduler runs probes with at most Workers in flight.
type Scheduler struct {
	prober   Prober
	workers  int
	progress ProgressFunc
	log      *slog.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Scheduler) { s.progress = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.log = l
		}
	}
}

// New returns a Scheduler. workers < 1 means DefaultWorkers.
func New(p Prober, workers int, opts ...Option) *Scheduler {
	if workers < 1 {
		workers = DefaultWorkers
	}
	s := &Scheduler{prober: p, workers: workers, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateAll probes every request and returns verdicts where out[i] belongs
// to requests[i], whatever order the probes finish in. A failing probe never
// stops the others. When ctx is cancelled no further probes start, in-flight
// ones run to completion, unstarted slots keep the zero Verdict, and ctx.Err()
// is returned.
func (s *Scheduler) ValidateAll(ctx context.Context, requests []Request) ([]probe.Verdict, error) {
	out := make([]probe.Verdict, len(requests))
	total := len(requests)

	var (
		g    errgroup.Group
		mu   sync.Mutex
		done int
	)
	g.SetLimit(s.workers)

	for i, req := range requests {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			v := s.run(ctx, req)
			out[i] = v

			mu.Lock()
			done++
			if s.progress != nil {
				s.progress(done, total, v)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		s.log.Warn("validation cancelled", "completed", done, "total", total)
		return out, err
	}
	return out, nil
}

func (s *Scheduler) run(ctx context.Context, req Request) (v probe.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("probe panicked", "url", req.URL, "panic", r)
			v = probe.Invalid(bookmark.NormalizeURL(req.URL), probe.Reason{
				Kind:    probe.Unexpected,
				Message: fmt.Sprintf("panic: %v", r),
			})
		}
	}()
	return s.prober.Probe(ctx, req.URL, req.Title)
}
