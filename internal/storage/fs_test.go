package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/tabtidy/internal/checksum"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	if err := s.Write("bookmarks.html", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("bookmarks.html")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("a/b/c.json", []byte("{}")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "{}" {
		t.Errorf("content = %q", got)
	}
}

func TestList(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("a.html", []byte("a"))
	_ = s.Write("sub/b.json", []byte("b"))
	_ = s.Write("readme.txt", []byte("not a document"))
	_ = s.Write(".cache/c.json", []byte("hidden"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2 (%v)", len(items), items)
	}
	for _, d := range items {
		if d.Path == "sub/b.json" && d.Checksum != checksum.Sum([]byte("b")) {
			t.Errorf("checksum of %s = %s", d.Path, d.Checksum)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.html",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestUnrootedAcceptsAbsolutePaths(t *testing.T) {
	s, err := NewFS("")
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	p := filepath.Join(t.TempDir(), "out", "clean.html")
	if err := s.Write(p, []byte("ok")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read(p)
	if err != nil || string(got) != "ok" {
		t.Errorf("Read = %q, %v", got, err)
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("atomic.html", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.html", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.html")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), ".tabtidy-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestSamePath(t *testing.T) {
	s, _ := NewFS("")
	dir := t.TempDir()
	a := filepath.Join(dir, "a.html")
	if err := os.WriteFile(a, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	same, err := s.SamePath(a, filepath.Join(dir, ".", "a.html"))
	if err != nil || !same {
		t.Errorf("SamePath(a, ./a) = %v, %v; want true", same, err)
	}
	same, err = s.SamePath(a, filepath.Join(dir, "b.html"))
	if err != nil || same {
		t.Errorf("SamePath(a, b) = %v, %v; want false", same, err)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp(t.TempDir(), "tabtidy-test-*")
	_ = f.Close()
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
