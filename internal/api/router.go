package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tabtidy/internal/bookmarkservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *bookmarkservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/clean", h.Clean)
	r.Post("/check", h.Check)

	r.Get("/documents", h.ListDocuments)
	r.Get("/formats", h.Formats)
	r.Get("/reasons", h.Reasons)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
