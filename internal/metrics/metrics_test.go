package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/starford/tabtidy/internal/probe"
	"github.com/starford/tabtidy/internal/report"
)

func TestObserveProbe(t *testing.T) {
	m := New()
	m.ObserveProbe(probe.Valid("https://a.example"), 10*time.Millisecond)
	m.ObserveProbe(probe.Valid("https://b.example"), 10*time.Millisecond)
	m.ObserveProbe(probe.Invalid("https://c.example", probe.Reason{Kind: probe.Timeout}), time.Second)

	if got := testutil.ToFloat64(m.probes.WithLabelValues("ok")); got != 2 {
		t.Errorf("ok probes = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.probes.WithLabelValues("timeout")); got != 1 {
		t.Errorf("timeout probes = %v, want 1", got)
	}
}

func TestRunLifecycle(t *testing.T) {
	m := New()
	m.RunStarted("r1", 3)
	if got := testutil.ToFloat64(m.runsActive); got != 1 {
		t.Errorf("active = %v, want 1", got)
	}
	m.LinkRemoved("r1", report.DeletionRecord{Kind: probe.BadStatus})
	m.RunFinished("r1", report.RunStats{TotalLinks: 3, ValidLinks: 2, RemovedLinks: 1})

	if got := testutil.ToFloat64(m.runsActive); got != 0 {
		t.Errorf("active = %v, want 0", got)
	}
	if got := testutil.ToFloat64(m.runs); got != 1 {
		t.Errorf("runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.linksRemoved.WithLabelValues("bad_status")); got != 1 {
		t.Errorf("removed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.lastRunLinks.WithLabelValues("valid")); got != 2 {
		t.Errorf("last valid = %v, want 2", got)
	}
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveProbe(probe.Valid("https://a.example"), time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `tabtidy_probes_total{result="ok"} 1`) {
		t.Errorf("exposition missing probe counter:\n%s", body)
	}
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.RunStarted("r", 1)
	m.RunFinished("r", report.RunStats{TotalLinks: 1, ValidLinks: 1})

	path := filepath.Join(t.TempDir(), "tabtidy.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "tabtidy_runs_total 1") {
		t.Errorf("textfile missing runs counter:\n%s", data)
	}
}
