// Command ask answers a single question against the indexed thesis and
// prints the answer with its resolved references.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

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
	listRefs := flag.Bool("list-references", false, "print every bibliography entry and exit")
	mention := flag.Bool("author-mention", false, "resolve citations by author mention instead of (Author, Year) pairs")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg)

	store, err := bib.Load(cfg.BibPath)
	if err != nil {
		log.Fatalf("Failed to load bibliography: %v", err)
	}

	if *listRefs {
		for _, ref := range store.FormatAll() {
			fmt.Println(ref)
			fmt.Println()
		}
		return
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: ask [flags] <question>")
		os.Exit(2)
	}
	question := flag.Arg(0)

	searcher, err := openSearcher(cfg)
	if err != nil {
		log.Fatalf("Failed to open index: %v", err)
	}

	strategy := citation.StrategyAuthorYear
	if *mention {
		strategy = citation.StrategyAuthorMention
	}
	resolver := citation.NewResolverWithStrategy(store, strategy)
	generator := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	engine := rag.NewEngine(searcher, generator, resolver, cfg.TopK, cfg.RelevanceGate)

	answer, err := engine.Ask(context.Background(), question)
	if err != nil {
		log.Fatalf("Failed to answer question: %v", err)
	}

	fmt.Println("Response:")
	fmt.Println()
	fmt.Println(answer.Text)
	fmt.Println()
	fmt.Println("References:")
	fmt.Println()
	for _, ref := range answer.References {
		fmt.Println(ref)
		fmt.Println()
	}
}

// openSearcher wires the configured vector backend to the chunk database.
// Both backends share the sqlite chunk store written at build time.
func openSearcher(cfg *config.Config) (*index.Searcher, error) {
	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.LLMAPIKey, cfg.EmbeddingModel, cfg.VectorSize)

	if cfg.VectorBackend == config.BackendQdrant {
		store, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			return nil, err
		}
		db, err := storage.New(filepath.Join(cfg.IndexDir, index.ChunkDBFile))
		if err != nil {
			return nil, err
		}
		return index.NewSearcher(embedder, store, cfg.QdrantCollection, storage.NewChunkRepo(db)), nil
	}

	db, vectors, err := index.Open(cfg.IndexDir)
	if err != nil {
		return nil, err
	}
	return index.NewSearcher(embedder, vectors, "", storage.NewChunkRepo(db)), nil
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
