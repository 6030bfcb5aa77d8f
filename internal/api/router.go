// Package api exposes the question-answering core over HTTP. This is the
// surface the chat front end consumes; the front end itself lives
// elsewhere.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"thesis-rag/internal/bib"
	"thesis-rag/internal/rag"
)

// Asker answers a single question end-to-end.
type Asker interface {
	Ask(ctx context.Context, question string) (rag.Answer, error)
}

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine Asker
	Bib    *bib.Store
}

// NewRouter creates the HTTP router.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestID)
	r.Use(LoggerMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodPost, "/ask", NewAskHandler(deps.Engine))
		r.Method(http.MethodGet, "/references", NewReferencesHandler(deps.Bib))
	})

	return r
}
