package bookmarkservice

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/tabtidy/internal/apperr"
	"github.com/starford/tabtidy/internal/checksum"
	"github.com/starford/tabtidy/internal/cleaner"
	"github.com/starford/tabtidy/internal/probe"
	"github.com/starford/tabtidy/internal/safety"
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
        <DT><A HREF="http://dead.example/">Dead</A>
    </DL><p>
</DL><p>
`

func newService(t *testing.T, store *storage.FS) *Service {
	t.Helper()
	sites := testutil.NewSites(t, map[string]http.Handler{
		"good.example": testutil.Status(http.StatusOK),
		"dead.example": testutil.Status(http.StatusNotFound),
	})
	p := probe.New(sites.Client(5), safety.Default(), probe.WithTimeout(2*time.Second))
	return New(store, cleaner.New(p, cleaner.WithWorkers(2)), p, nil)
}

func TestCleanDocument_SniffsAndPrunes(t *testing.T) {
	_, store := testutil.TestStore(t)
	svc := newService(t, store)

	out, err := svc.CleanDocument(context.Background(), []byte(exportHTML), "")
	if err != nil {
		t.Fatalf("CleanDocument: %v", err)
	}
	if out.Format != "html" {
		t.Errorf("format = %q, want html", out.Format)
	}
	if out.RunID == "" {
		t.Error("run id is empty")
	}
	if out.Stats.TotalLinks != 2 || out.Stats.RemovedLinks != 1 {
		t.Errorf("stats = %+v", out.Stats)
	}
	if !strings.Contains(out.Document, "http://good.example/") || strings.Contains(out.Document, "dead.example") {
		t.Errorf("document = %s", out.Document)
	}
}

func TestCleanDocument_JSON(t *testing.T) {
	_, store := testutil.TestStore(t)
	svc := newService(t, store)

	doc := `{"children":[{"name":"Bar","children":[{"name":"Dead","url":"http://dead.example/"}]}]}`
	out, err := svc.CleanDocument(context.Background(), []byte(doc), "json")
	if err != nil {
		t.Fatalf("CleanDocument: %v", err)
	}
	if len(out.Deletions) != 1 || out.Deletions[0].Reason != "HTTP 404" {
		t.Errorf("deletions = %+v", out.Deletions)
	}
	if !strings.Contains(out.Document, `"Bar"`) {
		t.Errorf("anchor folder lost: %s", out.Document)
	}
}

func TestCleanDocument_Errors(t *testing.T) {
	_, store := testutil.TestStore(t)
	svc := newService(t, store)

	if _, err := svc.CleanDocument(context.Background(), []byte("plain text"), ""); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("sniff error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := svc.CleanDocument(context.Background(), []byte("{}"), "csv"); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("format error = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := svc.CleanDocument(context.Background(), []byte(`{"children":`), "json"); !errors.Is(err, apperr.ErrMalformedDocument) {
		t.Errorf("decode error = %v, want ErrMalformedDocument", err)
	}
}

func TestCleanFile_WritesOutputAndReport(t *testing.T) {
	dir, store := testutil.TestStore(t)
	if err := os.WriteFile(filepath.Join(dir, "in.html"), []byte(exportHTML), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := newService(t, store)

	rep, err := svc.CleanFile(context.Background(), "in.html", "out/clean.html")
	if err != nil {
		t.Fatalf("CleanFile: %v", err)
	}
	written, err := os.ReadFile(filepath.Join(dir, "out", "clean.html"))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if strings.Contains(string(written), "dead.example") {
		t.Error("dead link still in output")
	}
	if rep.InputChecksum != checksum.Sum([]byte(exportHTML)) {
		t.Error("input checksum mismatch")
	}
	if rep.OutputChecksum != checksum.Sum(written) {
		t.Error("output checksum mismatch")
	}
	if rep.Source != "in.html" || rep.Destination != "out/clean.html" {
		t.Errorf("paths = %q -> %q", rep.Source, rep.Destination)
	}

	src, _ := os.ReadFile(filepath.Join(dir, "in.html"))
	if string(src) != exportHTML {
		t.Error("input file was modified")
	}
}

func TestCleanFile_RejectsSamePath(t *testing.T) {
	dir, store := testutil.TestStore(t)
	_ = os.WriteFile(filepath.Join(dir, "in.html"), []byte(exportHTML), 0o644)
	svc := newService(t, store)

	_, err := svc.CleanFile(context.Background(), "in.html", "./sub/../in.html")
	if !errors.Is(err, apperr.ErrSamePath) {
		t.Errorf("err = %v, want ErrSamePath", err)
	}
}

func TestCleanFile_MissingInput(t *testing.T) {
	_, store := testutil.TestStore(t)
	svc := newService(t, store)

	_, err := svc.CleanFile(context.Background(), "nope.html", "out.html")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCheck(t *testing.T) {
	_, store := testutil.TestStore(t)
	svc := newService(t, store)

	if v := svc.Check(context.Background(), "http://good.example"); !v.Valid {
		t.Errorf("good = %+v", v)
	}
	v := svc.Check(context.Background(), "http://localhost:8080")
	if v.Valid || v.Reason.Kind != probe.UnsafeTarget {
		t.Errorf("localhost = %+v", v)
	}
}

func TestListDocuments(t *testing.T) {
	dir, store := testutil.TestStore(t)
	_ = os.WriteFile(filepath.Join(dir, "a.html"), []byte(exportHTML), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	svc := newService(t, store)

	docs, err := svc.ListDocuments("")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Path != "a.html" {
		t.Errorf("docs = %+v", docs)
	}
}
