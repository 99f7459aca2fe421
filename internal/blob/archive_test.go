package blob

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestArchiveSaveListLoad(t *testing.T) {
	ctx := context.Background()
	archive := NewArchive(NewMemory())
	archive.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

	info, err := archive.Save(ctx, `C:\data\plasmid.gb`, "genbank", "LOCUS p 4 bp\nORIGIN\n1 acgt\n//")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(info.Key, "imports/2024/03/09/") || !strings.HasSuffix(info.Key, "-plasmid.gb") {
		t.Fatalf("unexpected key %s", info.Key)
	}
	if _, err := archive.Save(ctx, "", "fasta", ">a\nA"); err != nil {
		t.Fatalf("save unnamed: %v", err)
	}
	list, err := archive.List(ctx)
	if err != nil || len(list) != 2 {
		t.Fatalf("unexpected list %+v err=%v", list, err)
	}
	text, name, err := archive.Load(ctx, info.Key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if name != `C:\data\plasmid.gb` || !strings.HasPrefix(text, "LOCUS") {
		t.Fatalf("unexpected load %q %q", name, text)
	}
	if _, _, err := archive.Load(ctx, "imports/missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNewArchiveNilStore(t *testing.T) {
	if NewArchive(nil) != nil {
		t.Fatalf("expected nil archive for nil store")
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	if s, err := Open(ctx, Config{}); s != nil || err != nil {
		t.Fatalf("expected disabled store, got %v %v", s, err)
	}
	s, err := Open(ctx, Config{Driver: "memory"})
	if err != nil || s.Driver() != DriverMemory {
		t.Fatalf("expected memory store, got %v %v", s, err)
	}
	fsStore, err := Open(ctx, Config{Driver: "fs", FSRoot: t.TempDir()})
	if err != nil || fsStore.Driver() != DriverFilesystem {
		t.Fatalf("expected fs store, got %v %v", fsStore, err)
	}
	if _, err := Open(ctx, Config{Driver: "s3"}); err == nil {
		t.Fatalf("expected s3 without bucket to fail")
	}
	if _, err := Open(ctx, Config{Driver: "tape"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
