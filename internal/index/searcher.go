package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"thesis-rag/internal/storage"
	"thesis-rag/internal/vectorstore"
)

// Result pairs one retrieved chunk with its normalized relevance score.
type Result struct {
	Chunk storage.ChunkRecord
	// Relevance is cosine similarity mapped to [0,1]; higher is more
	// relevant. It is similarity-derived, not a probability.
	Relevance float64
}

// Searcher answers nearest-neighbor queries against a built index.
type Searcher struct {
	embedder   Embedder
	store      vectorstore.VectorStore
	collection string
	chunks     storage.ChunkStore
	logger     *slog.Logger
}

// NewSearcher creates a searcher over the given vector store and chunk
// repository.
func NewSearcher(embedder Embedder, store vectorstore.VectorStore, collection string, chunks storage.ChunkStore) *Searcher {
	return &Searcher{
		embedder:   embedder,
		store:      store,
		collection: collection,
		chunks:     chunks,
		logger:     slog.Default(),
	}
}

// Search embeds the query and returns the k nearest chunks, descending by
// relevance.
func (s *Searcher) Search(ctx context.Context, query string, k int) ([]Result, error) {
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.store.Search(ctx, s.collection, vector, k)
	if err != nil {
		return nil, fmt.Errorf("failed to search index: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		chunk, err := s.chunks.GetByID(ctx, hit.PointID)
		if errors.Is(err, storage.ErrNotFound) {
			// Vector store and chunk database are rebuilt together, so a
			// dangling point means a corrupted index; skip the hit.
			s.logger.WarnContext(ctx, "search hit has no chunk row", "point_id", hit.PointID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load chunk %s: %w", hit.PointID, err)
		}
		results = append(results, Result{
			Chunk:     *chunk,
			Relevance: normalizeRelevance(hit.Score),
		})
	}
	return results, nil
}

// normalizeRelevance maps cosine similarity from [-1,1] to [0,1].
func normalizeRelevance(score float32) float64 {
	rel := (float64(score) + 1) / 2
	if rel < 0 {
		return 0
	}
	if rel > 1 {
		return 1
	}
	return rel
}
