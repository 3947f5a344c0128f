// Package codec reads and writes bookmark documents: Netscape bookmark HTML
// (every browser's export format) and JSON trees (Chrome profiles, Firefox
// backups, plain children trees).
package codec

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/starford/tabtidy/internal/apperr"
	"github.com/starford/tabtidy/internal/bookmark"
)

// Codec converts between bytes and bookmark trees. Decode followed by Encode
// keeps every property the codec does not interpret.
type Codec interface {
	Name() string
	Decode(data []byte) (*bookmark.Tree, error)
	Encode(t *bookmark.Tree) ([]byte, error)
}

var codecs = []Codec{Netscape{}, JSON{}}

// ByName returns the codec called name ("html" or "json").
func ByName(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "html", "htm", "netscape":
		return Netscape{}, nil
	case "json":
		return JSON{}, nil
	}
	return nil, fmt.Errorf("codec %q: %w", name, apperr.ErrUnsupportedFormat)
}

// ForPath picks a codec by file extension, falling back to the content.
func ForPath(path string, data []byte) (Codec, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return Netscape{}, nil
	case ".json":
		return JSON{}, nil
	}
	c, err := Sniff(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Sniff guesses the codec from the leading bytes of data.
func Sniff(data []byte) (Codec, error) {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty document: %w", apperr.ErrUnsupportedFormat)
	}
	switch trimmed[0] {
	case '{', '[':
		return JSON{}, nil
	case '<':
		head := bytes.ToLower(trimmed[:min(len(trimmed), 512)])
		if bytes.Contains(head, []byte("netscape-bookmark-file")) || bytes.Contains(head, []byte("<dl")) ||
			bytes.Contains(head, []byte("<dt")) || bytes.Contains(head, []byte("<h1")) {
			return Netscape{}, nil
		}
	}
	return nil, apperr.ErrUnsupportedFormat
}

// Names lists the registered codec names.
func Names() []string {
	out := make([]string, len(codecs))
	for i, c := range codecs {
		out[i] = c.Name()
	}
	return out
}

// DecodeFile picks a codec for path and decodes data with it.
func DecodeFile(path string, data []byte) (*bookmark.Tree, Codec, error) {
	c, err := ForPath(path, data)
	if err != nil {
		return nil, nil, err
	}
	t, err := c.Decode(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return t, c, nil
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), apperr.ErrMalformedDocument)
}
