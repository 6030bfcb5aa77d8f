package config

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("INDEX_DIR", filepath.Join(t.TempDir(), "index"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.ChunkSize != 2000 {
		t.Errorf("ChunkSize = %d, want 2000", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 200 {
		t.Errorf("ChunkOverlap = %d, want 200", cfg.ChunkOverlap)
	}
	if cfg.TopK != 4 {
		t.Errorf("TopK = %d, want 4", cfg.TopK)
	}
	if cfg.RelevanceGate != 0.5 {
		t.Errorf("RelevanceGate = %v, want 0.5", cfg.RelevanceGate)
	}
	if cfg.VectorBackend != BackendLocal {
		t.Errorf("VectorBackend = %q, want %q", cfg.VectorBackend, BackendLocal)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("INDEX_DIR", filepath.Join(t.TempDir(), "index"))
	t.Setenv("CHUNK_SIZE", "500")
	t.Setenv("CHUNK_OVERLAP", "50")
	t.Setenv("TOP_K", "3")
	t.Setenv("RELEVANCE_GATE", "0.7")
	t.Setenv("VECTOR_BACKEND", "qdrant")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.ChunkSize != 500 || cfg.ChunkOverlap != 50 {
		t.Errorf("chunking = (%d, %d), want (500, 50)", cfg.ChunkSize, cfg.ChunkOverlap)
	}
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d, want 3", cfg.TopK)
	}
	if cfg.RelevanceGate != 0.7 {
		t.Errorf("RelevanceGate = %v, want 0.7", cfg.RelevanceGate)
	}
	if cfg.VectorBackend != BackendQdrant {
		t.Errorf("VectorBackend = %q, want qdrant", cfg.VectorBackend)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad chunk size", "CHUNK_SIZE", "zero"},
		{"overlap exceeds size", "CHUNK_OVERLAP", "5000"},
		{"gate above one", "RELEVANCE_GATE", "1.5"},
		{"unknown backend", "VECTOR_BACKEND", "weaviate"},
		{"unknown log level", "LOG_LEVEL", "loud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("INDEX_DIR", filepath.Join(t.TempDir(), "index"))
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s expected error, got nil", tt.key, tt.value)
			}
		})
	}
}
