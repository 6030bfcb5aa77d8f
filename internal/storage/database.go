// Package storage persists chunk text and metadata in a SQLite database
// living inside the index directory. Vectors live in the vector store;
// search results are joined back to chunk rows by point ID.
package storage

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// New opens a SQLite database at the given path.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the required tables. It is idempotent.
func Migrate(db *sql.DB) error {
	schema := `CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		header_path TEXT NOT NULL,
		section_offset INTEGER NOT NULL,
		chunk_index INTEGER NOT NULL,
		text TEXT NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	return nil
}
