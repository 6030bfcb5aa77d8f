package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Vector store backends.
const (
	BackendLocal  = "local"
	BackendQdrant = "qdrant"
)

// Config holds all configuration for the application.
// It is constructed once at startup and passed by reference to each
// component; components never read environment variables themselves.
type Config struct {
	// Corpus and bibliography sources.
	CorpusPath string
	BibPath    string

	// IndexDir is the directory wholly owned by the embedding index.
	IndexDir string

	// Chunking parameters.
	ChunkSize    int
	ChunkOverlap int

	// Retrieval parameters.
	TopK int
	// RelevanceGate is the minimum normalized relevance score (cosine
	// similarity mapped to [0,1]) the top search result must reach
	// before a generation call is attempted.
	RelevanceGate float64

	// Generation provider (OpenAI-compatible chat completions API).
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Embedding provider (OpenAI-compatible embeddings API).
	EmbeddingBaseURL string
	EmbeddingModel   string
	VectorSize       int

	// Vector store backend: "local" (persisted in IndexDir) or "qdrant".
	VectorBackend    string
	QdrantURL        string
	QdrantCollection string

	// HTTP surface.
	APIPort string

	// Logging.
	LogLevel  slog.Level
	LogFormat string
}

// Load reads configuration from environment variables and returns a Config
// struct. It applies defaults for optional fields and validates required
// fields. If a .env file exists in the current directory it is loaded
// first; variables already set in the environment take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		CorpusPath:       getEnv("CORPUS_PATH", "./data/final/main.md"),
		BibPath:          getEnv("BIB_PATH", "./data/final/biblio.bib"),
		IndexDir:         getEnv("INDEX_DIR", "./data/index"),
		LLMBaseURL:       getEnv("LLM_BASE_URL", "https://api.openai.com"),
		LLMModel:         getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		EmbeddingBaseURL: getEnv("EMBEDDING_BASE_URL", "https://api.openai.com"),
		EmbeddingModel:   getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		VectorBackend:    getEnv("VECTOR_BACKEND", BackendLocal),
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "thesis"),
		APIPort:          getEnv("API_PORT", "9000"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.ChunkSize, err = getEnvInt("CHUNK_SIZE", 2000); err != nil {
		return nil, err
	}
	if cfg.ChunkOverlap, err = getEnvInt("CHUNK_OVERLAP", 200); err != nil {
		return nil, err
	}
	if cfg.TopK, err = getEnvInt("TOP_K", 4); err != nil {
		return nil, err
	}
	if cfg.VectorSize, err = getEnvInt("VECTOR_SIZE", 1536); err != nil {
		return nil, err
	}

	gateStr := getEnv("RELEVANCE_GATE", "0.5")
	cfg.RelevanceGate, err = strconv.ParseFloat(gateStr, 64)
	if err != nil {
		return nil, fmt.Errorf("RELEVANCE_GATE must be a valid float: %w", err)
	}
	if cfg.RelevanceGate < 0 || cfg.RelevanceGate > 1 {
		return nil, fmt.Errorf("RELEVANCE_GATE must be in [0,1], got %v", cfg.RelevanceGate)
	}

	cfg.LogLevel, err = parseLogLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}

	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("CHUNK_SIZE must be greater than 0")
	}
	if cfg.ChunkOverlap < 0 || cfg.ChunkOverlap >= cfg.ChunkSize {
		return nil, fmt.Errorf("CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	if cfg.TopK <= 0 {
		return nil, fmt.Errorf("TOP_K must be greater than 0")
	}
	if cfg.VectorSize <= 0 {
		return nil, fmt.Errorf("VECTOR_SIZE must be greater than 0")
	}
	switch cfg.VectorBackend {
	case BackendLocal, BackendQdrant:
	default:
		return nil, fmt.Errorf("VECTOR_BACKEND must be %q or %q, got %q", BackendLocal, BackendQdrant, cfg.VectorBackend)
	}

	// Create the parent of the index directory so a first build can stage
	// its temporary directory next to the final location.
	if err := os.MkdirAll(filepath.Dir(cfg.IndexDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create index parent directory: %w", err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value.
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	return n, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch s {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", s)
	}
}
