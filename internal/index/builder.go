package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"thesis-rag/internal/chunker"
	"thesis-rag/internal/storage"
	"thesis-rag/internal/vectorstore"
)

const defaultEmbedBatchSize = 64

// chunkNamespace is the UUIDv5 namespace for chunk point IDs. IDs are
// derived from corpus coordinates so a rebuild of the same corpus yields
// the same IDs.
var chunkNamespace = uuid.MustParse("8c5f1f2e-5c6a-4d0a-9f1e-3b7a2d4c6e80")

// Builder computes embeddings for all chunks and writes a fresh index.
// The chunk database is staged in a temporary directory and moved into
// place only after the whole build succeeds.
type Builder struct {
	embedder   Embedder
	remote     vectorstore.VectorStore // nil for the local backend
	collection string
	vectorSize int
	batchSize  int
	logger     *slog.Logger
}

// NewBuilder creates a builder for the local persisted backend.
func NewBuilder(embedder Embedder, vectorSize int) *Builder {
	return &Builder{
		embedder:   embedder,
		vectorSize: vectorSize,
		batchSize:  defaultEmbedBatchSize,
		logger:     slog.Default(),
	}
}

// NewRemoteBuilder creates a builder that keeps vectors in a remote
// vector store under the given collection. The chunk database is still
// staged and swapped locally; the remote collection is reset in place
// and must be externally serialized against readers.
func NewRemoteBuilder(embedder Embedder, store vectorstore.VectorStore, collection string, vectorSize int) *Builder {
	b := NewBuilder(embedder, vectorSize)
	b.remote = store
	b.collection = collection
	return b
}

// PointID derives the stable identifier for a chunk from its corpus
// coordinates.
func PointID(seq int, headerPath string, offset int) string {
	data := fmt.Sprintf("%d|%s|%d", seq, headerPath, offset)
	return uuid.NewSHA1(chunkNamespace, []byte(data)).String()
}

// Build rebuilds the index at dir from the given chunks. On any failure
// the previous index at dir is left untouched.
func (b *Builder) Build(ctx context.Context, dir string, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks to index")
	}

	records := make([]storage.ChunkRecord, len(chunks))
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		records[i] = storage.ChunkRecord{
			ID:            PointID(i, c.HeaderPath, c.Offset),
			HeaderPath:    c.HeaderPath,
			SectionOffset: c.Offset,
			ChunkIndex:    c.Index,
			Text:          c.Text,
		}
		texts[i] = c.Text
	}

	staged := dir + ".staging"
	if err := os.RemoveAll(staged); err != nil {
		return fmt.Errorf("failed to clear staging directory: %w", err)
	}
	if err := os.MkdirAll(staged, 0o755); err != nil {
		return fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer func() {
		_ = os.RemoveAll(staged)
	}()

	if err := b.writeChunkDB(ctx, staged, records); err != nil {
		return err
	}

	vectors, err := b.embedAll(ctx, texts)
	if err != nil {
		return err
	}

	points := make([]vectorstore.Point, len(records))
	for i, r := range records {
		points[i] = vectorstore.Point{
			ID:  r.ID,
			Vec: vectors[i],
			Meta: map[string]any{
				"header_path":    r.HeaderPath,
				"section_offset": r.SectionOffset,
				"chunk_index":    r.ChunkIndex,
			},
		}
	}

	if b.remote != nil {
		if err := b.remote.Reset(ctx, b.collection, b.vectorSize); err != nil {
			return fmt.Errorf("failed to reset collection: %w", err)
		}
		if err := b.remote.Upsert(ctx, b.collection, points); err != nil {
			return fmt.Errorf("failed to upsert vectors: %w", err)
		}
	} else {
		local := vectorstore.NewLocalStore()
		if err := local.Reset(ctx, b.collection, b.vectorSize); err != nil {
			return err
		}
		if err := local.Upsert(ctx, b.collection, points); err != nil {
			return fmt.Errorf("failed to store vectors: %w", err)
		}
		if err := local.Save(filepath.Join(staged, VectorsFile)); err != nil {
			return err
		}
	}

	if err := swapDirs(staged, dir); err != nil {
		return err
	}

	b.logger.InfoContext(ctx, "index rebuilt", "dir", dir, "chunks", len(records))
	return nil
}

// writeChunkDB creates and fills the staged chunk database.
func (b *Builder) writeChunkDB(ctx context.Context, staged string, records []storage.ChunkRecord) error {
	db, err := storage.New(filepath.Join(staged, ChunkDBFile))
	if err != nil {
		return fmt.Errorf("failed to create chunk database: %w", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate chunk database: %w", err)
	}
	if err := storage.NewChunkRepo(db).InsertBatch(ctx, records); err != nil {
		return fmt.Errorf("failed to store chunks: %w", err)
	}
	return nil
}

// embedAll embeds texts in batches, preserving input order.
func (b *Builder) embedAll(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += b.batchSize {
		end := start + b.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := b.embedder.EmbedTexts(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to embed chunk batch: %w", err)
		}
		vectors = append(vectors, batch...)
		b.logger.DebugContext(ctx, "embedded batch", "from", start, "to", end)
	}
	return vectors, nil
}
