// Package cleaner runs one full validation pass over a bookmark tree: probe
// every link, drop the failures, compact emptied folders, and report.
package cleaner

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/starford/tabtidy/internal/apperr"
	"github.com/starford/tabtidy/internal/bookmark"
	"github.com/starford/tabtidy/internal/httpclient"
	"github.com/starford/tabtidy/internal/probe"
	"github.com/starford/tabtidy/internal/report"
	"github.com/starford/tabtidy/internal/safety"
	"github.com/starford/tabtidy/internal/scheduler"
)

// Events observes a run. Methods are called from the goroutine running Clean
// except Progress, which is called from workers one at a time.
type Events interface {
	RunStarted(runID string, totalLinks int)
	Progress(runID string, done, total int)
	LinkRemoved(runID string, rec report.DeletionRecord)
	RunFinished(runID string, stats report.RunStats)
}

// Result is the outcome of Clean. Tree is the same tree that was passed in,
// pruned in place.
type Result struct {
	Tree      *bookmark.Tree
	Stats     report.RunStats
	Deletions []report.DeletionRecord
	Report    *report.Report
}

// Cleaner validates and prunes bookmark trees. One Cleaner may serve many
// runs; runs share nothing but the prober.
type Cleaner struct {
	prober  scheduler.Prober
	workers int
	passes  int
	log     *slog.Logger
	events  Events
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithWorkers sets the probe pool size.
func WithWorkers(n int) Option {
	return func(c *Cleaner) { c.workers = n }
}

// WithCompactPasses sets the folder compaction pass budget.
func WithCompactPasses(n int) Option {
	return func(c *Cleaner) { c.passes = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cleaner) {
		if l != nil {
			c.log = l
		}
	}
}

// WithEvents subscribes e to run events.
func WithEvents(e Events) Option {
	return func(c *Cleaner) {
		if e != nil {
			c.events = e
		}
	}
}

// New returns a Cleaner probing through p.
func New(p scheduler.Prober, opts ...Option) *Cleaner {
	c := &Cleaner{
		prober:  p,
		workers: scheduler.DefaultWorkers,
		passes:  bookmark.DefaultCompactPasses,
		log:     slog.Default(),
		events:  nopEvents{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean validates every link in tree and prunes it in place. Duplicate URLs
// are probed once and share a verdict. If ctx is cancelled during probing the
// tree is left untouched and the context error is returned.
func (c *Cleaner) Clean(ctx context.Context, tree *bookmark.Tree) (*Result, error) {
	if tree == nil || tree.Root == nil {
		return nil, fmt.Errorf("clean: empty tree: %w", apperr.ErrMalformedDocument)
	}

	runID := uuid.NewString()
	log := c.log.With("run_id", runID)

	refs := bookmark.CollectLinks(tree.Root)
	rep := report.New(runID, len(refs))

	requests, index := dedupe(refs)
	log.Info("validating links", "links", len(refs), "unique", len(requests), "workers", c.workers)
	c.events.RunStarted(runID, len(refs))

	sched := scheduler.New(c.prober, c.workers,
		scheduler.WithLogger(log),
		scheduler.WithProgress(func(done, total int, _ probe.Verdict) {
			c.events.Progress(runID, done, total)
		}),
	)
	verdicts, err := sched.ValidateAll(ctx, requests)
	if err != nil {
		return nil, fmt.Errorf("validate links: %w", err)
	}

	valid := bookmark.ValidSet{}
	for _, v := range verdicts {
		if v.Valid {
			valid.Add(v.URL)
		}
	}

	bookmark.ApplyVerdicts(tree.Root, valid, func(n *bookmark.Node) {
		reason := probe.Reason{Kind: probe.Unexpected, Message: "no verdict"}
		if i, ok := index[bookmark.NormalizeURL(n.URL)]; ok && verdicts[i].Reason != nil {
			reason = *verdicts[i].Reason
		}
		rep.RecordRemoval(n.Title, n.URL, reason)
		rec := rep.Deletions[len(rep.Deletions)-1]
		log.Info("link removed", "title", rec.Title, "url", rec.URL, "reason", rec.Reason)
		c.events.LinkRemoved(runID, rec)
	})

	folders := bookmark.Compact(tree.Root, c.passes)
	rep.RecordFoldersRemoved(folders)
	rep.Finish()

	stats := rep.Summary()
	log.Info("run finished",
		"total", stats.TotalLinks,
		"valid", stats.ValidLinks,
		"removed", stats.RemovedLinks,
		"folders_removed", stats.FoldersRemoved,
		"duration", rep.Duration())
	c.events.RunFinished(runID, stats)

	return &Result{
		Tree:      tree,
		Stats:     stats,
		Deletions: rep.Deletions,
		Report:    rep,
	}, nil
}

// dedupe returns one request per normalized URL, in first-seen order, and the
// request index for each normalized URL.
func dedupe(refs []bookmark.LinkRef) ([]scheduler.Request, map[string]int) {
	index := make(map[string]int, len(refs))
	requests := make([]scheduler.Request, 0, len(refs))
	for _, ref := range refs {
		key := bookmark.NormalizeURL(ref.URL)
		if _, ok := index[key]; ok {
			continue
		}
		index[key] = len(requests)
		requests = append(requests, scheduler.Request{URL: ref.URL, Title: ref.Title})
	}
	return requests, index
}

// Clean validates tree with the default safety rules and a fresh pooled HTTP
// client that refuses to connect to unsafe addresses.
func Clean(ctx context.Context, tree *bookmark.Tree, timeout time.Duration, workers int) (*Result, error) {
	client := httpclient.New(httpclient.Config{DenyAddr: safety.Default().IsUnsafeDomain})
	return NewDefault(client, timeout, workers).Clean(ctx, tree)
}

// NewDefault builds a Cleaner over client with the default safety rules.
func NewDefault(client *http.Client, timeout time.Duration, workers int, opts ...Option) *Cleaner {
	p := probe.New(client, safety.Default(), probe.WithTimeout(timeout))
	return New(p, append([]Option{WithWorkers(workers)}, opts...)...)
}
