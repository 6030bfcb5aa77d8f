package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks thesis-rag/internal/vectorstore VectorStore

import "context"

// Point is a vector point with optional metadata.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult is one hit from a similarity search. Score is the raw
// cosine similarity in [-1, 1]; normalization to a relevance score is the
// index layer's concern.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore is the storage backend for embedding vectors. The index is
// only ever rebuilt wholesale, so the interface exposes a Reset rather
// than per-point deletion.
type VectorStore interface {
	// Reset drops all points in the collection and prepares it for
	// vectors of the given size.
	Reset(ctx context.Context, collection string, vectorSize int) error

	// Upsert inserts or replaces points in the collection.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search returns the k nearest points by cosine similarity,
	// descending by score.
	Search(ctx context.Context, collection string, query []float32, k int) ([]SearchResult, error)
}
