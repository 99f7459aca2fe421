package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"helixcanvas/internal/infra/persistence/postgres/testutil"
	"helixcanvas/pkg/domain"
)

func openStub(t *testing.T) (*testutil.StubConn, func()) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(driver, dsn string) (*sql.DB, error) {
		if driver != driverName {
			t.Fatalf("unexpected driver %s", driver)
		}
		return db, nil
	})
	return conn, restore
}

func TestPostgresStorePersistsEveryBucket(t *testing.T) {
	conn, restore := openStub(t)
	defer restore()

	store, err := NewStore("", domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if !strings.Contains(conn.Execs[0], "CREATE TABLE IF NOT EXISTS state") {
		t.Fatalf("expected state table ddl first, got %q", conn.Execs[0])
	}
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		seq, err := tx.PutSequence(domain.SequenceRecord{Name: "pUC19", Type: domain.SequenceDNA, Residues: "ACGT"})
		if err != nil {
			return err
		}
		_, err = tx.CreateBookmark(domain.Bookmark{SequenceID: seq.ID, Name: "ori", Position: 2})
		return err
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, bucket := range []string{"sequences", "alignments", "bookmarks"} {
		if _, ok := conn.Rows[bucket]; !ok {
			t.Fatalf("bucket %s not persisted", bucket)
		}
	}
	if !strings.Contains(string(conn.Rows["sequences"]), `"residues":"ACGT"`) {
		t.Fatalf("unexpected sequences payload %s", conn.Rows["sequences"])
	}
}

func TestPostgresStoreHydratesFromSnapshot(t *testing.T) {
	conn, restore := openStub(t)
	defer restore()
	conn.Seed("sequences", []byte(`[{"id":"s1","name":"one","type":"DNA","residues":"ACGTAC"}]`))
	conn.Seed("bookmarks", []byte(`[{"id":"b1","sequence_id":"s1","position":3},{"id":"b2","sequence_id":"gone"}]`))
	conn.Seed("legacy", []byte(`{"ignored":true}`))

	store, err := NewStore("postgres://example", nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	seq, ok := store.GetSequence("s1")
	if !ok || seq.Length != 6 {
		t.Fatalf("expected hydrated sequence with derived length, got %+v", seq)
	}
	if marks := store.ListBookmarks(); len(marks) != 1 || marks[0].ID != "b1" {
		t.Fatalf("expected dangling bookmark dropped, got %+v", marks)
	}
}

func TestPostgresStoreLoadErrors(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		conn, restore := openStub(t)
		defer restore()
		conn.Seed("alignments", []byte("{"))
		if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "decode alignments") {
			t.Fatalf("expected decode error, got %v", err)
		}
	})
	t.Run("ping", func(t *testing.T) {
		conn, restore := openStub(t)
		defer restore()
		conn.FailPing = true
		if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "ping postgres") {
			t.Fatalf("expected ping error, got %v", err)
		}
	})
	t.Run("rows", func(t *testing.T) {
		conn, restore := openStub(t)
		defer restore()
		conn.RowsErr = errors.New("boom")
		if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "iterate state") {
			t.Fatalf("expected iterate error, got %v", err)
		}
	})
	t.Run("open", func(t *testing.T) {
		restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) {
			return nil, errors.New("no driver")
		})
		defer restore()
		if _, err := NewStore("", nil); err == nil || !strings.Contains(err.Error(), "open postgres") {
			t.Fatalf("expected open error, got %v", err)
		}
	})
}

func TestPostgresStorePersistFailures(t *testing.T) {
	cases := map[string]func(*testutil.StubConn){
		"begin":  func(c *testutil.StubConn) { c.FailBegin = true },
		"upsert": func(c *testutil.StubConn) { c.FailUpsert = map[string]bool{"alignments": true} },
		"commit": func(c *testutil.StubConn) { c.FailCommit = true },
	}
	for name, breakConn := range cases {
		t.Run(name, func(t *testing.T) {
			conn, restore := openStub(t)
			defer restore()
			store, err := NewStore("", nil)
			if err != nil {
				t.Fatalf("new store: %v", err)
			}
			breakConn(conn)
			_, err = store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
				_, err := tx.PutSequence(domain.SequenceRecord{Name: "x"})
				return err
			})
			if err == nil || !strings.Contains(err.Error(), name) {
				t.Fatalf("expected %s failure, got %v", name, err)
			}
		})
	}
}

func TestPostgresStoreSkipsPersistOnFnError(t *testing.T) {
	conn, restore := openStub(t)
	defer restore()
	store, err := NewStore("", nil)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	want := errors.New("abort")
	if _, err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return want }); !errors.Is(err, want) {
		t.Fatalf("expected fn error, got %v", err)
	}
	if len(conn.Rows) != 0 {
		t.Fatalf("expected no rows persisted, got %d", len(conn.Rows))
	}
}
