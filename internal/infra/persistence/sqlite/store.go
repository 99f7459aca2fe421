// Package sqlite keeps the workspace in a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"helixcanvas/internal/infra/persistence/sqlstate"
	"helixcanvas/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "helixcanvas.db"

var dialect = sqlstate.Dialect{
	CreateTable: `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`,
	Upsert: `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
}

// Store is a file-backed workspace store.
type Store struct {
	*sqlstate.Store
	path string
}

var _ domain.PersistentStore = (*Store)(nil)

// NewStore opens (creating parent directories as needed) the database at path
// and loads any state a previous run left behind.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	inner, err := sqlstate.Open(context.Background(), db, dialect, engine)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner, path: path}, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }
