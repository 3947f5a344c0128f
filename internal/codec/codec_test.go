package codec

import (
	"errors"
	"testing"

	"github.com/starford/tabtidy/internal/apperr"
)

func TestForPath(t *testing.T) {
	cases := []struct {
		path string
		data string
		want string
	}{
		{"bookmarks.html", "", "html"},
		{"Bookmarks.HTM", "", "html"},
		{"b.json", "", "json"},
		{"Bookmarks", `{"roots": {}}`, "json"},
		{"export.txt", "<!DOCTYPE NETSCAPE-Bookmark-file-1>", "html"},
		{"export", "\ufeff  <DL><p></DL>", "html"},
	}
	for _, c := range cases {
		got, err := ForPath(c.path, []byte(c.data))
		if err != nil {
			t.Errorf("ForPath(%q): %v", c.path, err)
			continue
		}
		if got.Name() != c.want {
			t.Errorf("ForPath(%q) = %s, want %s", c.path, got.Name(), c.want)
		}
	}

	if _, err := ForPath("notes.txt", []byte("hello")); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"html", "HTML", "netscape", "json"} {
		if _, err := ByName(name); err != nil {
			t.Errorf("ByName(%q): %v", name, err)
		}
	}
	if _, err := ByName("xml"); !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDecodeFile_WrapsMalformed(t *testing.T) {
	_, _, err := DecodeFile("broken.json", []byte("{not json"))
	if !errors.Is(err, apperr.ErrMalformedDocument) {
		t.Errorf("err = %v, want ErrMalformedDocument", err)
	}
}
