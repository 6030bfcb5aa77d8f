package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ChunkRecord is one indexed chunk as stored in SQLite. ID is the vector
// store point ID. Text is the embeddable form of the chunk (header
// lead-in plus body).
type ChunkRecord struct {
	ID            string
	HeaderPath    string
	SectionOffset int
	ChunkIndex    int
	Text          string
}

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// InsertBatch inserts chunks in a single transaction.
	InsertBatch(ctx context.Context, chunks []ChunkRecord) error
	// GetByID gets a chunk by its ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*ChunkRecord, error)
	// Count reports the number of stored chunks.
	Count(ctx context.Context) (int, error)
}

// ChunkRepo implements ChunkStore over a SQLite database.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// InsertBatch inserts chunks in a single transaction. Chunk IDs must be
// set before calling.
func (r *ChunkRepo) InsertBatch(ctx context.Context, chunks []ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO chunks (id, header_path, section_offset, chunk_index, text) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.HeaderPath, c.SectionOffset, c.ChunkIndex, c.Text); err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunk batch: %w", err)
	}
	return nil
}

// GetByID gets a chunk by its ID. Returns ErrNotFound if absent.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*ChunkRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, header_path, section_offset, chunk_index, text FROM chunks WHERE id = ?", id)

	var c ChunkRecord
	err := row.Scan(&c.ID, &c.HeaderPath, &c.SectionOffset, &c.ChunkIndex, &c.Text)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chunk %s: %w", id, err)
	}
	return &c, nil
}

// Count reports the number of stored chunks.
func (r *ChunkRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}
