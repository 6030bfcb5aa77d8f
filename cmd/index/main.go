// Command index rebuilds the embedding index from the thesis corpus in an
// offline batch step: chunk, embed, persist, atomic swap.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"thesis-rag/internal/bib"
	"thesis-rag/internal/chunker"
	"thesis-rag/internal/config"
	"thesis-rag/internal/index"
	"thesis-rag/internal/llm"
	"thesis-rag/internal/vectorstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg)

	// Parse failure of the bibliography is fatal here too: an index built
	// against a corpus whose references cannot be resolved is useless.
	if _, err := bib.Load(cfg.BibPath); err != nil {
		log.Fatalf("Failed to load bibliography: %v", err)
	}

	corpus, err := os.ReadFile(cfg.CorpusPath)
	if err != nil {
		log.Fatalf("Failed to read corpus: %v", err)
	}

	chk := chunker.New(cfg.ChunkSize, cfg.ChunkOverlap)
	sections := chk.SplitSections(string(corpus))
	if front, ok := chunker.ExtractFrontMatter(string(corpus)); ok {
		sections = append([]chunker.Section{front}, sections...)
	}

	var chunks []chunker.Chunk
	for _, sec := range sections {
		chunks = append(chunks, chk.SplitSection(sec)...)
	}
	slog.Info("corpus chunked", "sections", len(sections), "chunks", len(chunks))

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, cfg.VectorSize)

	var builder *index.Builder
	if cfg.VectorBackend == config.BackendQdrant {
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		builder = index.NewRemoteBuilder(embedder, store, cfg.QdrantCollection, cfg.VectorSize)
	} else {
		builder = index.NewBuilder(embedder, cfg.VectorSize)
	}

	if err := builder.Build(context.Background(), cfg.IndexDir, chunks); err != nil {
		log.Fatalf("Failed to build index: %v", err)
	}
	slog.Info("index build complete", "dir", cfg.IndexDir, "chunks", len(chunks))
}

func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
