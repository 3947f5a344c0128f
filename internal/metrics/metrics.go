// Package metrics exposes Prometheus metrics for probes and cleaning runs.
package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/tabtidy/internal/probe"
	"github.com/starford/tabtidy/internal/report"
)

const namespace = "tabtidy"

// Metrics owns a private registry so several instances can coexist.
type Metrics struct {
	registry *prometheus.Registry

	probes        *prometheus.CounterVec
	probeDuration *prometheus.HistogramVec
	linksRemoved  *prometheus.CounterVec
	runs          prometheus.Counter
	runDuration   prometheus.Histogram
	runsActive    prometheus.Gauge
	lastRunLinks  *prometheus.GaugeVec

	mu      sync.Mutex
	started map[string]time.Time
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probes_total",
				Help:      "Link probes by result (ok or failure reason kind).",
			},
			[]string{"result"},
		),
		probeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "probe_duration_seconds",
				Help:      "Time spent producing a verdict for one link.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		linksRemoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "links_removed_total",
				Help:      "Links removed from bookmark trees, by reason kind.",
			},
			[]string{"reason"},
		),
		runs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed cleaning runs.",
			},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of completed cleaning runs.",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
		runsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "runs_in_progress",
				Help:      "Cleaning runs currently probing links.",
			},
		),
		lastRunLinks: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_run_links",
				Help:      "Link counts of the most recent completed run.",
			},
			[]string{"state"},
		),
		started: make(map[string]time.Time),
	}

	m.registry.MustRegister(
		m.probes,
		m.probeDuration,
		m.linksRemoved,
		m.runs,
		m.runDuration,
		m.runsActive,
		m.lastRunLinks,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// WriteTextfile writes the current metrics to path for the node_exporter
// textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// ObserveProbe records one verdict.
func (m *Metrics) ObserveProbe(v probe.Verdict, elapsed time.Duration) {
	result := "ok"
	if v.Reason != nil {
		result = string(v.Reason.Kind)
	}
	m.probes.WithLabelValues(result).Inc()
	m.probeDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// RunStarted marks a run as in progress.
func (m *Metrics) RunStarted(runID string, _ int) {
	m.mu.Lock()
	m.started[runID] = time.Now()
	m.mu.Unlock()
	m.runsActive.Inc()
}

// Progress is a no-op; probe counters already track progress.
func (m *Metrics) Progress(string, int, int) {}

// LinkRemoved counts a removal by reason.
func (m *Metrics) LinkRemoved(_ string, rec report.DeletionRecord) {
	m.linksRemoved.WithLabelValues(string(rec.Kind)).Inc()
}

// RunFinished records the run's duration and counters.
func (m *Metrics) RunFinished(runID string, stats report.RunStats) {
	m.mu.Lock()
	start, ok := m.started[runID]
	delete(m.started, runID)
	m.mu.Unlock()

	if ok {
		m.runsActive.Dec()
		m.runDuration.Observe(time.Since(start).Seconds())
	}
	m.runs.Inc()
	m.lastRunLinks.WithLabelValues("total").Set(float64(stats.TotalLinks))
	m.lastRunLinks.WithLabelValues("valid").Set(float64(stats.ValidLinks))
	m.lastRunLinks.WithLabelValues("removed").Set(float64(stats.RemovedLinks))
	m.lastRunLinks.WithLabelValues("folders_removed").Set(float64(stats.FoldersRemoved))
}
