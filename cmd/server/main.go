// Command server exposes the question-answering engine over HTTP.
package main

import (
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"path/filepath"

	"thesis-rag/internal/api"
	"thesis-rag/internal/bib"
	"thesis-rag/internal/citation"
	"thesis-rag/internal/config"
	"thesis-rag/internal/index"
	"thesis-rag/internal/llm"
	"thesis-rag/internal/rag"
	"thesis-rag/internal/storage"
	"thesis-rag/internal/vectorstore"
)

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Configure structured logging with configurable level and format
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	slog.Debug("Logging configured", "level", cfg.LogLevel.String(), "format", cfg.LogFormat)

	// A bibliography that fails to parse is a startup error, not a
	// per-request one.
	store, err := bib.Load(cfg.BibPath)
	if err != nil {
		log.Fatalf("Failed to load bibliography: %v", err)
	}
	slog.Info("Bibliography loaded", "path", cfg.BibPath, "entries", len(store.Entries()))

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, cfg.VectorSize)

	var searcher *index.Searcher
	switch cfg.VectorBackend {
	case config.BackendQdrant:
		vectorStore, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		db, err := storage.New(filepath.Join(cfg.IndexDir, index.ChunkDBFile))
		if err != nil {
			log.Fatalf("Failed to open chunk database: %v", err)
		}
		defer func() {
			_ = db.Close()
		}()
		searcher = index.NewSearcher(embedder, vectorStore, cfg.QdrantCollection, storage.NewChunkRepo(db))
		slog.Info("Vector backend ready", "backend", cfg.VectorBackend, "collection", cfg.QdrantCollection)
	default:
		db, vectors, err := index.Open(cfg.IndexDir)
		if err != nil {
			log.Fatalf("Failed to open index: %v", err)
		}
		defer func() {
			_ = db.Close()
		}()
		searcher = index.NewSearcher(embedder, vectors, "", storage.NewChunkRepo(db))
		slog.Info("Vector backend ready", "backend", cfg.VectorBackend, "vectors", vectors.Len())
	}

	// Create LLM client (external service layer)
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)

	resolver := citation.NewResolver(store)
	engine := rag.NewEngine(searcher, llmClient, resolver, cfg.TopK, cfg.RelevanceGate)
	slog.Info("RAG engine initialized", "top_k", cfg.TopK, "relevance_gate", cfg.RelevanceGate)

	router := api.NewRouter(&api.Deps{
		Engine: engine,
		Bib:    store,
	})

	// Start API server
	addr := ":" + cfg.APIPort
	slog.Info("Starting API server", "addr", addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModel)
	if err := nethttp.ListenAndServe(addr, router); err != nil {
		log.Fatalf("API server failed to start: %v", err)
	}
}
