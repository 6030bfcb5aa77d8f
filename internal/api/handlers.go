package api

import (
	"encoding/json"
	"net/http"

	"thesis-rag/internal/bib"
	"thesis-rag/internal/contextutil"
)

// AskRequest is the request body for POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse is the response body for POST /api/ask. ContextChunks
// carries the individual retrieved chunk texts for the external
// evaluation harness.
type AskResponse struct {
	Answer        string   `json:"answer"`
	References    []string `json:"references"`
	ContextChunks []string `json:"context_chunks,omitempty"`
}

// AskHandler answers questions over HTTP.
type AskHandler struct {
	engine Asker
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(engine Asker) *AskHandler {
	return &AskHandler{engine: engine}
}

func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.engine.Ask(ctx, req.Question)
	if err != nil {
		logger.ErrorContext(ctx, "failed to answer question", "error", err)
		respondError(w, http.StatusBadGateway, "failed to answer question")
		return
	}

	respondJSON(w, http.StatusOK, AskResponse{
		Answer:        answer.Text,
		References:    answer.References,
		ContextChunks: answer.ContextChunks,
	})
}

// ReferencesHandler lists every bibliography entry in formatted form.
type ReferencesHandler struct {
	store *bib.Store
}

// NewReferencesHandler creates a new ReferencesHandler.
func NewReferencesHandler(store *bib.Store) *ReferencesHandler {
	return &ReferencesHandler{store: store}
}

func (h *ReferencesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string][]string{
		"references": h.store.FormatAll(),
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
