// Package store implements the Event Journal (C7) and Artifact Store (C5):
// an append-only events table that is the engine's sole source of truth,
// and an artifacts table the Store exclusively writes to, both backed by
// a single sqlite file per iteration (journal.db in the iteration workdir).
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// nowUTC returns the current UTC time as an ISO 8601 string, matching the
// journal/artifact timestamp format used throughout this package.
func nowUTC() string { return time.Now().UTC().Format(time.RFC3339) }

// Store is a single iteration's journal.db: the Event Journal and
// Artifact Store share one file. Each write (an event append, an artifact
// persist) commits in its own transaction; the two are not committed
// together.
type Store struct {
	db *sql.DB
}

// Open opens or creates the sqlite file at path and applies the schema,
// creating the parent directory if needed.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = FULL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set synchronous pragma: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	var tableCount int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableCount > 0 {
		return nil
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
