// Package sqlstate mirrors a memory store into a SQL table holding one JSON
// payload per bucket. The sqlite and postgres stores differ only in dialect.
package sqlstate

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"helixcanvas/internal/infra/persistence/memory"
	"helixcanvas/pkg/domain"
)

// Dialect carries the two statements whose syntax depends on the database.
// Upsert takes the bucket name and payload as its two arguments.
type Dialect struct {
	CreateTable string
	Upsert      string
}

// Store runs transactions in memory and rewrites every bucket after each commit.
type Store struct {
	*memory.Store
	db      *sql.DB
	dialect Dialect
	mu      sync.Mutex
}

var _ domain.PersistentStore = (*Store)(nil)

// Open creates the state table if needed and hydrates a memory store from it.
// The caller keeps ownership of db when Open fails.
func Open(ctx context.Context, db *sql.DB, dialect Dialect, engine *domain.RulesEngine) (*Store, error) {
	if _, err := db.ExecContext(ctx, dialect.CreateTable); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: memory.NewStore(engine), db: db, dialect: dialect}
	snapshot, found, err := readSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	if found {
		s.ImportState(snapshot)
	}
	return s, nil
}

func readSnapshot(ctx context.Context, db *sql.DB) (memory.Snapshot, bool, error) {
	var snapshot memory.Snapshot
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return snapshot, false, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	found := false
	for rows.Next() {
		var (
			bucket  string
			payload []byte
		)
		if err := rows.Scan(&bucket, &payload); err != nil {
			return snapshot, false, fmt.Errorf("scan state: %w", err)
		}
		if err := snapshot.DecodeBucket(bucket, payload); err != nil {
			return snapshot, false, err
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return snapshot, false, fmt.Errorf("iterate state: %w", err)
	}
	return snapshot, found, nil
}

// RunInTransaction commits in memory first; the table is only written when
// the in-memory commit succeeded.
func (s *Store) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	res, err := s.Store.RunInTransaction(ctx, fn)
	if err != nil {
		return res, err
	}
	return res, s.flush(ctx)
}

func (s *Store) flush(ctx context.Context) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin state tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range memory.Buckets {
		payload, encErr := snapshot.EncodeBucket(bucket)
		if encErr != nil {
			return encErr
		}
		if _, execErr := tx.ExecContext(ctx, s.dialect.Upsert, bucket, payload); execErr != nil {
			return fmt.Errorf("upsert %s: %w", bucket, execErr)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	return nil
}

// DB exposes the underlying handle for tests and maintenance queries.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }
