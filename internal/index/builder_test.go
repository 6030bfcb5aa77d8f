package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"thesis-rag/internal/chunker"
	"thesis-rag/internal/storage"
)

// fakeEmbedder produces deterministic 3-dimensional vectors keyed on
// topic words, so queries land near the chunks that mention them.
type fakeEmbedder struct {
	failAfter int // fail on call number failAfter (1-based); 0 disables
	calls     int
}

func (f *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	f.calls++
	if f.failAfter > 0 && f.calls >= f.failAfter {
		return nil, fmt.Errorf("embedding backend unavailable")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = topicVector(t)
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func topicVector(text string) []float32 {
	t := strings.ToLower(text)
	v := []float32{0, 0, 0.1}
	if strings.Contains(t, "phonology") {
		v[0] = 1
	}
	if strings.Contains(t, "syntax") {
		v[1] = 1
	}
	return v
}

func testChunks() []chunker.Chunk {
	return []chunker.Chunk{
		{Text: "Headers: A\nHeaders: A\n\nA passage about phonology.", HeaderPath: "Headers: A", Offset: 0, Index: 0},
		{Text: "Headers: B\nHeaders: B\n\nA passage about syntax.", HeaderPath: "Headers: B", Offset: 0, Index: 0},
		{Text: "Headers: C\nHeaders: C\n\nAn unrelated passage.", HeaderPath: "Headers: C", Offset: 0, Index: 0},
	}
}

func TestBuilder_BuildAndSearch(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "index")
	embedder := &fakeEmbedder{}

	builder := NewBuilder(embedder, 3)
	if err := builder.Build(ctx, dir, testChunks()); err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	db, vectors, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() unexpected error: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := storage.NewChunkRepo(db)
	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("chunk count = %d, want 3", n)
	}

	searcher := NewSearcher(embedder, vectors, "", repo)
	results, err := searcher.Search(ctx, "Tell me about phonology", 2)
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Search() = %d results, want 2", len(results))
	}
	if !strings.Contains(results[0].Chunk.Text, "phonology") {
		t.Errorf("top result = %q, want the phonology chunk", results[0].Chunk.Text)
	}
	if results[0].Relevance < results[1].Relevance {
		t.Errorf("relevance not descending: %v then %v", results[0].Relevance, results[1].Relevance)
	}
	for i, r := range results {
		if r.Relevance < 0 || r.Relevance > 1 {
			t.Errorf("result %d relevance %v outside [0,1]", i, r.Relevance)
		}
	}

	// The staging directory must not survive a successful build.
	if _, err := os.Stat(dir + ".staging"); !os.IsNotExist(err) {
		t.Errorf("staging directory left behind: %v", err)
	}
}

func TestBuilder_FailedRebuildKeepsPreviousIndex(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "index")

	good := &fakeEmbedder{}
	if err := NewBuilder(good, 3).Build(ctx, dir, testChunks()); err != nil {
		t.Fatalf("initial Build() unexpected error: %v", err)
	}

	bad := &fakeEmbedder{failAfter: 1}
	if err := NewBuilder(bad, 3).Build(ctx, dir, testChunks()); err == nil {
		t.Fatal("rebuild with failing embedder expected error, got nil")
	}

	// The previous index must still open and answer queries.
	db, vectors, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() after failed rebuild: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	searcher := NewSearcher(&fakeEmbedder{}, vectors, "", storage.NewChunkRepo(db))
	results, err := searcher.Search(ctx, "syntax", 1)
	if err != nil {
		t.Fatalf("Search() after failed rebuild: %v", err)
	}
	if len(results) != 1 || !strings.Contains(results[0].Chunk.Text, "syntax") {
		t.Errorf("previous index damaged by failed rebuild: %+v", results)
	}
}

func TestBuilder_EmptyChunks(t *testing.T) {
	builder := NewBuilder(&fakeEmbedder{}, 3)
	if err := builder.Build(context.Background(), filepath.Join(t.TempDir(), "index"), nil); err == nil {
		t.Error("Build() with no chunks expected error, got nil")
	}
}

func TestPointID_StableAcrossRebuilds(t *testing.T) {
	a := PointID(7, "Headers: A > B", 1800)
	b := PointID(7, "Headers: A > B", 1800)
	if a != b {
		t.Errorf("PointID not stable: %q vs %q", a, b)
	}
	if a == PointID(8, "Headers: A > B", 1800) {
		t.Error("PointID ignores sequence number")
	}
	if a == PointID(7, "Headers: A > B", 0) {
		t.Error("PointID ignores offset")
	}
}
