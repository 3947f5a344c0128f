package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starford/tabtidy/internal/apperr"
	"github.com/starford/tabtidy/internal/bookmarkservice"
	"github.com/starford/tabtidy/internal/codec"
	"github.com/starford/tabtidy/internal/probe"
)

// MaxDocumentBytes caps the request body of POST /api/clean.
const MaxDocumentBytes = 32 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *bookmarkservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *bookmarkservice.Service) *Handler {
	return &Handler{svc: svc}
}

// Clean handles POST /api/clean. The request body is the bookmark document
// itself; ?format= forces a codec, otherwise the content is sniffed.
func (h *Handler) Clean(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxDocumentBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("document too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	if len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("document is required"))
		return
	}

	out, err := h.svc.CleanDocument(r.Context(), data, r.URL.Query().Get("format"))
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrUnsupportedFormat):
			writeJSON(w, http.StatusUnsupportedMediaType, errorBody(err.Error()))
		case errors.Is(err, apperr.ErrMalformedDocument):
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		case r.Context().Err() != nil:
			slog.Warn("clean aborted", slog.String("error", err.Error()))
			writeJSON(w, http.StatusServiceUnavailable, errorBody("request cancelled"))
		default:
			slog.Error("clean failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Check handles POST /api/check.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("url is required"))
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Check(r.Context(), req.URL))
}

// ListDocuments handles GET /api/documents.
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.svc.ListDocuments(r.URL.Query().Get("dir"))
	if err != nil {
		slog.Error("list documents failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, errorBody("cannot list directory"))
		return
	}
	writeJSON(w, http.StatusOK, DocumentListResponse{Documents: docs, Total: len(docs)})
}

// Formats handles GET /api/formats.
func (h *Handler) Formats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"formats": codec.Names()})
}

// Reasons handles GET /api/reasons.
func (h *Handler) Reasons(w http.ResponseWriter, _ *http.Request) {
	kinds := probe.Kinds()
	out := make([]ReasonInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, ReasonInfo{Kind: k, Description: k.Describe()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"reasons": out})
}
