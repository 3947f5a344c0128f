// Package bookmarkservice ties decoding, cleaning, encoding, and storage
// together. The CLI, the HTTP API, and the MCP server all go through it.
package bookmarkservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/tabtidy/internal/apperr"
	"github.com/starford/tabtidy/internal/bookmark"
	"github.com/starford/tabtidy/internal/checksum"
	"github.com/starford/tabtidy/internal/cleaner"
	"github.com/starford/tabtidy/internal/codec"
	"github.com/starford/tabtidy/internal/probe"
	"github.com/starford/tabtidy/internal/report"
	"github.com/starford/tabtidy/internal/storage"
)

// Cleaner prunes a decoded tree.
type Cleaner interface {
	Clean(ctx context.Context, tree *bookmark.Tree) (*cleaner.Result, error)
}

// Checker probes a single URL.
type Checker interface {
	Probe(ctx context.Context, rawURL, title string) probe.Verdict
}

// CleanOutput is the result of cleaning an in-memory document.
type CleanOutput struct {
	RunID     string                  `json:"run_id"`
	Format    string                  `json:"format"`
	Stats     report.RunStats         `json:"stats"`
	Deletions []report.DeletionRecord `json:"deletions"`
	Document  string                  `json:"document"`
}

// Service coordinates codecs, the cleaner, and storage.
type Service struct {
	store   storage.Provider
	cleaner Cleaner
	checker Checker
	log     *slog.Logger
}

// New creates a service. store resolves every file path the service touches.
func New(store storage.Provider, c Cleaner, checker Checker, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, cleaner: c, checker: checker, log: logger}
}

// Store returns the storage backing the service.
func (s *Service) Store() storage.Provider { return s.store }

// CleanDocument decodes data, cleans it, and re-encodes it in the same
// format. An empty format sniffs the content.
func (s *Service) CleanDocument(ctx context.Context, data []byte, format string) (*CleanOutput, error) {
	var (
		c   codec.Codec
		err error
	)
	if format == "" {
		c, err = codec.Sniff(data)
	} else {
		c, err = codec.ByName(format)
	}
	if err != nil {
		return nil, err
	}

	tree, err := c.Decode(data)
	if err != nil {
		return nil, err
	}
	res, err := s.cleaner.Clean(ctx, tree)
	if err != nil {
		return nil, err
	}
	out, err := c.Encode(res.Tree)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Name(), err)
	}
	return &CleanOutput{
		RunID:     res.Report.RunID,
		Format:    c.Name(),
		Stats:     res.Stats,
		Deletions: res.Deletions,
		Document:  string(out),
	}, nil
}

// CleanFile cleans the document at input and atomically writes the result to
// output. Input and output must be different files. The returned report
// carries both paths and both checksums.
func (s *Service) CleanFile(ctx context.Context, input, output string) (*report.Report, error) {
	same, err := s.store.SamePath(input, output)
	if err != nil {
		return nil, err
	}
	if same {
		return nil, fmt.Errorf("%s: %w", output, apperr.ErrSamePath)
	}

	data, err := s.store.Read(input)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", input, apperr.ErrNotFound)
		}
		return nil, err
	}

	tree, c, err := codec.DecodeFile(input, data)
	if err != nil {
		return nil, err
	}
	s.log.Debug("decoded document", slog.String("path", input), slog.String("format", c.Name()),
		slog.Int("links", tree.CountLinks()))

	res, err := s.cleaner.Clean(ctx, tree)
	if err != nil {
		return nil, err
	}

	out, err := c.Encode(res.Tree)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", c.Name(), err)
	}
	if err := s.store.Write(output, out); err != nil {
		return nil, fmt.Errorf("write %s: %w", output, err)
	}

	rep := res.Report
	rep.Source = input
	rep.Destination = output
	rep.InputChecksum = checksum.Sum(data)
	rep.OutputChecksum = checksum.Sum(out)
	return rep, nil
}

// Check probes rawURL on its own.
func (s *Service) Check(ctx context.Context, rawURL string) probe.Verdict {
	return s.checker.Probe(ctx, rawURL, "")
}

// ListDocuments returns the bookmark documents under dir.
func (s *Service) ListDocuments(dir string) ([]storage.Document, error) {
	return s.store.List(dir)
}
