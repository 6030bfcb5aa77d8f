// Package index owns the persisted embedding index: it is rebuilt
// wholesale from chunks in an offline batch step and opened read-only at
// query time.
package index

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"thesis-rag/internal/storage"
	"thesis-rag/internal/vectorstore"
)

// Files inside the index directory.
const (
	ChunkDBFile = "chunks.db"
	VectorsFile = "vectors.gob"
)

// Embedder is the external embedding provider as seen by this package.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
	EmbedText(ctx context.Context, text string) ([]float32, error)
}

// Open opens the persisted local index at dir read-only and returns the
// chunk database and vector store. The caller owns closing the database.
func Open(dir string) (*sql.DB, *vectorstore.LocalStore, error) {
	db, err := storage.New(filepath.Join(dir, ChunkDBFile))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open chunk database: %w", err)
	}

	vectors, err := vectorstore.OpenLocalStore(filepath.Join(dir, VectorsFile))
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to open vector store: %w", err)
	}
	return db, vectors, nil
}

// swapDirs moves the freshly staged index into place. The previous index
// stays intact until the staged one is complete, so a failed build never
// destroys a working index.
func swapDirs(staged, final string) error {
	old := final + ".old"
	_ = os.RemoveAll(old)

	hadPrevious := false
	if _, err := os.Stat(final); err == nil {
		hadPrevious = true
		if err := os.Rename(final, old); err != nil {
			return fmt.Errorf("failed to set aside previous index: %w", err)
		}
	}

	if err := os.Rename(staged, final); err != nil {
		if hadPrevious {
			_ = os.Rename(old, final)
		}
		return fmt.Errorf("failed to move index into place: %w", err)
	}

	if hadPrevious {
		_ = os.RemoveAll(old)
	}
	return nil
}
