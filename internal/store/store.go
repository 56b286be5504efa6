// ABOUTME: SQLite-backed persistence for snippets and encrypted user data using modernc.org/sqlite.
// ABOUTME: Creates the schema automatically and exposes typed errors for callers.

package store

import (
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStore persists snippets and per-session user data. The master key is
// only used by the user-data methods; snippet content is stored in the clear.
type SQLiteStore struct {
	db     *sql.DB
	key    [32]byte
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the database at path. masterKey derives
// the encryption key for user-data values; the config layer falls back to
// "default" when no key is set.
func NewSQLiteStore(path, masterKey string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		key:    sha256.Sum256([]byte(masterKey)),
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snippets (
			id       TEXT PRIMARY KEY,
			html     TEXT NOT NULL,
			plain    TEXT NOT NULL,
			markdown TEXT NOT NULL,
			created  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_snippets_created ON snippets(created DESC);

		CREATE TABLE IF NOT EXISTS userdata (
			user_id TEXT PRIMARY KEY,
			value   BLOB NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
