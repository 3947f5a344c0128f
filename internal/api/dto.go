package api

import (
	"github.com/starford/tabtidy/internal/bookmarkservice"
	"github.com/starford/tabtidy/internal/probe"
	"github.com/starford/tabtidy/internal/storage"
)

// CheckRequest is the request body for POST /api/check.
type CheckRequest struct {
	URL string `json:"url"`
}

// CleanResponse is returned by POST /api/clean.
type CleanResponse = bookmarkservice.CleanOutput

// CheckResponse is returned by POST /api/check.
type CheckResponse = probe.Verdict

// DocumentListResponse wraps GET /api/documents.
type DocumentListResponse struct {
	Documents []storage.Document `json:"documents"`
	Total     int                `json:"total"`
}

// ReasonInfo describes one failure kind.
type ReasonInfo struct {
	Kind        probe.ReasonKind `json:"kind"`
	Description string           `json:"description"`
}
