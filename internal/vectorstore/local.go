package vectorstore

import (
	"context"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
)

// LocalStore is a brute-force cosine-similarity store persisted as a
// single file inside the index directory. It holds vectors for one
// collection; the collection argument exists to satisfy VectorStore and
// is not interpreted. Chunk metadata lives in the sqlite chunk
// repository, so only IDs and vectors are kept here.
type LocalStore struct {
	mu     sync.RWMutex
	dim    int
	points []localPoint
}

type localPoint struct {
	ID  string
	Vec []float32
}

// localSnapshot is the on-disk representation.
type localSnapshot struct {
	Dim    int
	Points []localPoint
}

// NewLocalStore creates an empty local store.
func NewLocalStore() *LocalStore {
	return &LocalStore{}
}

// OpenLocalStore loads a previously saved store from path.
func OpenLocalStore(path string) (*LocalStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local vector store %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var snap localSnapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode local vector store %s: %w", path, err)
	}
	return &LocalStore{dim: snap.Dim, points: snap.Points}, nil
}

// Save writes the store to path via a temporary file and rename, so a
// crash mid-write never leaves a truncated file at the final location.
func (s *LocalStore) Save(path string) error {
	s.mu.RLock()
	snap := localSnapshot{Dim: s.dim, Points: s.points}
	s.mu.RUnlock()

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}
	if err := gob.NewEncoder(f).Encode(snap); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to encode local vector store: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to move local vector store into place: %w", err)
	}
	return nil
}

// Reset drops all points and fixes the vector dimension.
func (s *LocalStore) Reset(_ context.Context, _ string, vectorSize int) error {
	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be greater than 0")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dim = vectorSize
	s.points = nil
	return nil
}

// Upsert inserts or replaces points by ID.
func (s *LocalStore) Upsert(_ context.Context, _ string, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range points {
		if len(p.Vec) != s.dim {
			return fmt.Errorf("vector dimension mismatch: expected %d, got %d", s.dim, len(p.Vec))
		}
	}

	existing := make(map[string]int, len(s.points))
	for i, p := range s.points {
		existing[p.ID] = i
	}
	for _, p := range points {
		lp := localPoint{ID: p.ID, Vec: p.Vec}
		if i, ok := existing[p.ID]; ok {
			s.points[i] = lp
			continue
		}
		existing[p.ID] = len(s.points)
		s.points = append(s.points, lp)
	}
	return nil
}

// Search returns the k nearest points by cosine similarity.
func (s *LocalStore) Search(_ context.Context, _ string, query []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(query) != s.dim {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dim, len(query))
	}

	results := make([]SearchResult, 0, len(s.points))
	for _, p := range s.points {
		results = append(results, SearchResult{
			PointID: p.ID,
			Score:   cosine(query, p.Vec),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Len reports the number of stored points.
func (s *LocalStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// cosine computes the cosine similarity of two vectors.
func cosine(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
