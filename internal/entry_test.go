package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/tabtidy/internal/apperr"
	"github.com/starford/tabtidy/internal/sse"
	"github.com/starford/tabtidy/internal/storage"
	"github.com/starford/tabtidy/internal/testutil"
)

const exportHTML = `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><H3>Bar</H3>
    <DL><p>
        <DT><A HREF="http://good.example/">Good</A>
        <DT><H3>Sub</H3>
        <DL><p>
            <DT><A HREF="http://dead.example/">Dead</A>
        </DL><p>
    </DL><p>
</DL><p>
`

func testOptions(t *testing.T, cfg *Config, out io.Writer) []Option {
	t.Helper()
	sites := testutil.NewSites(t, map[string]http.Handler{
		"good.example": testutil.Status(http.StatusOK),
		"dead.example": testutil.Status(http.StatusNotFound),
	})
	return []Option{
		WithConfig(cfg),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithOutput(out),
		WithHTTPClient(sites.Client(cfg.Probe.MaxRedirects)),
	}
}

func TestRun_CleansAndReports(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bookmarks.html")
	output := filepath.Join(dir, "clean.html")
	if err := os.WriteFile(input, []byte(exportHTML), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	cfg.Report.Path = filepath.Join(dir, "report.json")
	cfg.Report.MetricsFile = filepath.Join(dir, "tabtidy.prom")

	var out bytes.Buffer
	if err := Run(context.Background(), input, output, testOptions(t, cfg, &out)...); err != nil {
		t.Fatalf("Run: %v", err)
	}

	cleaned, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(cleaned), "dead.example") || strings.Contains(string(cleaned), ">Sub<") {
		t.Errorf("output still has dead link or empty folder:\n%s", cleaned)
	}
	if !strings.Contains(string(cleaned), ">Bar<") {
		t.Errorf("anchor folder missing:\n%s", cleaned)
	}

	summary := out.String()
	for _, want := range []string{"Total links: 2", "Removed links: 1", "Folders removed: 1", "- Dead <http://dead.example/>: HTTP 404"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}

	var rep struct {
		Source string `json:"source"`
		Stats  struct {
			RemovedLinks int `json:"removed_links"`
		} `json:"stats"`
	}
	data, err := os.ReadFile(cfg.Report.Path)
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatal(err)
	}
	if rep.Source != input || rep.Stats.RemovedLinks != 1 {
		t.Errorf("report = %+v", rep)
	}

	prom, err := os.ReadFile(cfg.Report.MetricsFile)
	if err != nil {
		t.Fatalf("metrics textfile missing: %v", err)
	}
	if !strings.Contains(string(prom), `tabtidy_links_removed_total{reason="bad_status"} 1`) {
		t.Errorf("metrics textfile:\n%s", prom)
	}
}

func TestRun_SamePathRejected(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "bookmarks.html")
	_ = os.WriteFile(input, []byte(exportHTML), 0o644)

	err := Run(context.Background(), input, input, testOptions(t, NewDefaultConfig(), io.Discard)...)
	if !errors.Is(err, apperr.ErrSamePath) {
		t.Errorf("err = %v, want ErrSamePath", err)
	}
	data, _ := os.ReadFile(input)
	if string(data) != exportHTML {
		t.Error("input was modified")
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := Run(context.Background(), "a.html", "b.html"); err == nil {
		t.Error("expected error without config")
	}
}

func TestCheck_PrintsVerdicts(t *testing.T) {
	var out bytes.Buffer
	err := Check(context.Background(), []string{"http://good.example", "http://dead.example"},
		testOptions(t, NewDefaultConfig(), &out)...)
	if err == nil || !strings.Contains(err.Error(), "1 of 2") {
		t.Errorf("err = %v, want 1 of 2 failed", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	if lines[0] != "http://good.example\tok" {
		t.Errorf("line 0 = %q", lines[0])
	}
	if lines[1] != "http://dead.example\tFAIL HTTP 404" {
		t.Errorf("line 1 = %q", lines[1])
	}
}

func TestHandler_HealthAndMetrics(t *testing.T) {
	cfg := NewDefaultConfig()
	app, err := newApplication(testOptions(t, cfg, io.Discard))
	if err != nil {
		t.Fatal(err)
	}
	store, err := storage.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	broker := sse.NewBroker(0)
	defer broker.Close()
	srv := httptest.NewServer(app.newHandler(app.newEngine(store, broker), broker))
	defer srv.Close()

	for _, path := range []string{"/health/live", "/health/ready"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s = %d", path, resp.StatusCode)
		}
	}

	resp, err := http.Post(srv.URL+"/api/clean", "text/html", strings.NewReader(exportHTML))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("clean = %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "tabtidy_runs_total 1") {
		t.Errorf("metrics missing run counter:\n%s", body)
	}
}
