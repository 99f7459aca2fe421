// Package postgres keeps the workspace in a Postgres state table with one
// JSONB document per bucket.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"helixcanvas/internal/infra/persistence/sqlstate"
	"helixcanvas/pkg/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

const driverName = "pgx"

// DefaultDSN is used when no DSN is configured.
const DefaultDSN = "postgres://localhost/helixcanvas?sslmode=disable"

var dialect = sqlstate.Dialect{
	CreateTable: `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`,
	Upsert: `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`,
}

var (
	openMu  sync.Mutex
	sqlOpen = sql.Open
)

// Store is a Postgres-backed workspace store.
type Store struct {
	*sqlstate.Store
}

var _ domain.PersistentStore = (*Store)(nil)

// NewStore connects to dsn, verifies the server answers and hydrates the
// workspace from the state table.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	open := sqlOpen
	openMu.Unlock()
	db, err := open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	inner, err := sqlstate.Open(ctx, db, dialect, engine)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: inner}, nil
}

// OverrideSQLOpen replaces the connection opener until the returned restore
// function runs.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) (restore func()) {
	openMu.Lock()
	prev := sqlOpen
	sqlOpen = fn
	openMu.Unlock()
	return func() {
		openMu.Lock()
		sqlOpen = prev
		openMu.Unlock()
	}
}
