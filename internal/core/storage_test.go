package core

import (
	"context"
	"path/filepath"
	"testing"

	"helixcanvas/internal/infra/persistence/memory"
	"helixcanvas/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreDrivers(t *testing.T) {
	engine := NewDefaultRulesEngine()

	mem, err := OpenPersistentStore(StorageConfig{Driver: string(StorageMemory)}, engine)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := mem.(*memory.Store); !ok {
		t.Fatalf("expected memory store, got %T", mem)
	}
	if err := CloseStore(mem); err != nil {
		t.Fatalf("closing a memory store is a no-op: %v", err)
	}

	path := filepath.Join(t.TempDir(), "ws.db")
	store, err := OpenPersistentStore(StorageConfig{SQLitePath: path}, engine)
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	if s, ok := store.(*sqlite.Store); !ok || s.Path() != path {
		t.Fatalf("expected sqlite store at %s, got %T", path, store)
	}
	if err := CloseStore(store); err != nil {
		t.Fatalf("close sqlite: %v", err)
	}

	if _, err := OpenPersistentStore(StorageConfig{Driver: "bogus"}, engine); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}

func TestServiceStatePersistsThroughSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ws.db")
	cfg := StorageConfig{Driver: string(StorageSQLite), SQLitePath: path}
	store, err := OpenPersistentStore(cfg, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	svc := NewService(store, WithClock(fixedClock()))
	seq := mustAddSequence(t, svc, "persisted", "ACGT")
	if _, err := svc.AddAnnotations(context.Background(), seq.ID, nil); err != nil {
		t.Fatalf("noop add: %v", err)
	}
	if err := CloseStore(store); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenPersistentStore(cfg, NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = CloseStore(reopened) }()
	got, ok := NewService(reopened).GetSequence(seq.ID)
	if !ok || got.Residues != "ACGT" || got.Name != "persisted" {
		t.Fatalf("expected persisted sequence, got %+v ok=%v", got, ok)
	}
}
