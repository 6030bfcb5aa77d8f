package vectorstore

import (
	"context"
	"math"
	"path/filepath"
	"testing"
)

func TestLocalStore_SearchOrdersByScore(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore()
	if err := store.Reset(ctx, "thesis", 3); err != nil {
		t.Fatalf("Reset() unexpected error: %v", err)
	}

	points := []Point{
		{ID: "exact", Vec: []float32{1, 0, 0}},
		{ID: "close", Vec: []float32{0.9, 0.1, 0}},
		{ID: "orthogonal", Vec: []float32{0, 1, 0}},
		{ID: "opposite", Vec: []float32{-1, 0, 0}},
	}
	if err := store.Upsert(ctx, "thesis", points); err != nil {
		t.Fatalf("Upsert() unexpected error: %v", err)
	}

	results, err := store.Search(ctx, "thesis", []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search() unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Search() = %d results, want 3", len(results))
	}

	wantOrder := []string{"exact", "close", "orthogonal"}
	for i, want := range wantOrder {
		if results[i].PointID != want {
			t.Errorf("results[%d] = %q, want %q", i, results[i].PointID, want)
		}
	}
	if math.Abs(float64(results[0].Score)-1) > 1e-6 {
		t.Errorf("exact match score = %v, want 1", results[0].Score)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Errorf("scores not descending at %d: %v > %v", i, results[i].Score, results[i-1].Score)
		}
	}
}

func TestLocalStore_UpsertReplacesByID(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore()
	if err := store.Reset(ctx, "thesis", 2); err != nil {
		t.Fatal(err)
	}

	if err := store.Upsert(ctx, "thesis", []Point{{ID: "a", Vec: []float32{1, 0}}}); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, "thesis", []Point{{ID: "a", Vec: []float32{0, 1}}}); err != nil {
		t.Fatal(err)
	}

	if store.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", store.Len())
	}
	results, err := store.Search(ctx, "thesis", []float32{0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(float64(results[0].Score)-1) > 1e-6 {
		t.Errorf("replaced vector score = %v, want 1", results[0].Score)
	}
}

func TestLocalStore_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewLocalStore()
	if err := store.Reset(ctx, "thesis", 3); err != nil {
		t.Fatal(err)
	}

	if err := store.Upsert(ctx, "thesis", []Point{{ID: "a", Vec: []float32{1, 0}}}); err == nil {
		t.Error("Upsert() with wrong dimension expected error, got nil")
	}
	if _, err := store.Search(ctx, "thesis", []float32{1, 0}, 1); err == nil {
		t.Error("Search() with wrong dimension expected error, got nil")
	}
}

func TestLocalStore_SaveAndOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "vectors.gob")

	store := NewLocalStore()
	if err := store.Reset(ctx, "thesis", 2); err != nil {
		t.Fatal(err)
	}
	points := []Point{
		{ID: "a", Vec: []float32{1, 0}},
		{ID: "b", Vec: []float32{0, 1}},
	}
	if err := store.Upsert(ctx, "thesis", points); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(path); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}

	loaded, err := OpenLocalStore(path)
	if err != nil {
		t.Fatalf("OpenLocalStore() unexpected error: %v", err)
	}
	if loaded.Len() != 2 {
		t.Fatalf("loaded Len() = %d, want 2", loaded.Len())
	}

	results, err := loaded.Search(ctx, "thesis", []float32{0, 1}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].PointID != "b" {
		t.Errorf("top result = %q, want %q", results[0].PointID, "b")
	}
}

func TestOpenLocalStore_Missing(t *testing.T) {
	if _, err := OpenLocalStore(filepath.Join(t.TempDir(), "nope.gob")); err == nil {
		t.Error("OpenLocalStore() on missing file expected error, got nil")
	}
}
