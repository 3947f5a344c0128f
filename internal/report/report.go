// Package report accumulates the outcome of a cleaning run: counters and one
// deletion record per removed link.
package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/starford/tabtidy/internal/probe"
)

// DefaultSummaryLimit is how many deletions WriteSummary lists.
const DefaultSummaryLimit = 10

// DeletionRecord explains one removed link.
type DeletionRecord struct {
	Title  string           `json:"title" yaml:"title"`
	URL    string           `json:"url" yaml:"url"`
	Reason string           `json:"reason" yaml:"reason"`
	Kind   probe.ReasonKind `json:"kind" yaml:"kind"`
}

// RunStats are the run counters.
type RunStats struct {
	TotalLinks     int `json:"total_links" yaml:"total_links"`
	ValidLinks     int `json:"valid_links" yaml:"valid_links"`
	RemovedLinks   int `json:"removed_links" yaml:"removed_links"`
	FoldersRemoved int `json:"folders_removed" yaml:"folders_removed"`
}

// Report is filled by a single goroutine during the apply phase and needs no
// locking.
type Report struct {
	RunID          string           `json:"run_id" yaml:"run_id"`
	Source         string           `json:"source,omitempty" yaml:"source,omitempty"`
	Destination    string           `json:"destination,omitempty" yaml:"destination,omitempty"`
	InputChecksum  string           `json:"input_checksum,omitempty" yaml:"input_checksum,omitempty"`
	OutputChecksum string           `json:"output_checksum,omitempty" yaml:"output_checksum,omitempty"`
	StartedAt      time.Time        `json:"started_at" yaml:"started_at"`
	FinishedAt     time.Time        `json:"finished_at" yaml:"finished_at"`
	Stats          RunStats         `json:"stats" yaml:"stats"`
	Deletions      []DeletionRecord `json:"deletions" yaml:"deletions"`
}

// New starts a report for a run over totalLinks links.
func New(runID string, totalLinks int) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: time.Now().UTC(),
		Stats:     RunStats{TotalLinks: totalLinks, ValidLinks: totalLinks},
		Deletions: []DeletionRecord{},
	}
}

// RecordRemoval appends a deletion record and moves one link from valid to
// removed.
func (r *Report) RecordRemoval(title, url string, reason probe.Reason) {
	r.Deletions = append(r.Deletions, DeletionRecord{
		Title:  title,
		URL:    url,
		Reason: reason.String(),
		Kind:   reason.Kind,
	})
	r.Stats.RemovedLinks++
	r.Stats.ValidLinks--
}

// RecordFoldersRemoved adds n compacted folders to the counters.
func (r *Report) RecordFoldersRemoved(n int) {
	r.Stats.FoldersRemoved += n
}

// Finish stamps the end time.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
}

// Duration returns how long the run took, or zero before Finish.
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary returns the counters.
func (r *Report) Summary() RunStats {
	return r.Stats
}

// CountByKind groups removals by reason kind.
func (r *Report) CountByKind() map[probe.ReasonKind]int {
	out := make(map[probe.ReasonKind]int)
	for _, d := range r.Deletions {
		out[d.Kind]++
	}
	return out
}

// KindCount is the number of removals for one reason kind.
type KindCount struct {
	Kind  probe.ReasonKind
	Count int
}

// Breakdown returns CountByKind in taxonomy order, skipping kinds with no
// removals.
func (r *Report) Breakdown() []KindCount {
	counts := r.CountByKind()
	out := make([]KindCount, 0, len(counts))
	for _, k := range probe.Kinds() {
		if n, ok := counts[k]; ok {
			out = append(out, KindCount{Kind: k, Count: n})
			delete(counts, k)
		}
	}
	for _, k := range slices.Sorted(maps.Keys(counts)) {
		out = append(out, KindCount{Kind: k, Count: counts[k]})
	}
	return out
}

// WriteSummary prints the counters and the per-reason breakdown, then at most
// limit deletions followed by
// "... and N more" when some were left out. limit <= 0 means
// DefaultSummaryLimit.
func (r *Report) WriteSummary(w io.Writer, limit int) error {
	if limit <= 0 {
		limit = DefaultSummaryLimit
	}
	s := r.Stats
	if _, err := fmt.Fprintf(w, "Total links: %d\nValid links: %d\nRemoved links: %d\nFolders removed: %d\n",
		s.TotalLinks, s.ValidLinks, s.RemovedLinks, s.FoldersRemoved); err != nil {
		return err
	}
	if len(r.Deletions) == 0 {
		return nil
	}

	if _, err := fmt.Fprintln(w, "\nBy reason:"); err != nil {
		return err
	}
	for _, kc := range r.Breakdown() {
		if _, err := fmt.Fprintf(w, "  %s: %d\n", kc.Kind, kc.Count); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "\nRemoved:"); err != nil {
		return err
	}
	for i, d := range r.Deletions {
		if i == limit {
			_, err := fmt.Fprintf(w, "... and %d more\n", len(r.Deletions)-limit)
			return err
		}
		title := d.Title
		if title == "" {
			title = "(untitled)"
		}
		if _, err := fmt.Fprintf(w, "- %s <%s>: %s\n", title, d.URL, d.Reason); err != nil {
			return err
		}
	}
	return nil
}
