package fs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"helixcanvas/internal/blob/core"
)

func TestFilesystemStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := filepath.Join(t.TempDir(), "blobs")
	s, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Driver() != core.DriverFilesystem || s.Root() != root {
		t.Fatalf("unexpected store %s %s", s.Driver(), s.Root())
	}
	info, err := s.Put(ctx, "imports/2024/x.gb", strings.NewReader("LOCUS x"), core.PutOptions{ContentType: "text/plain", Metadata: map[string]string{"name": "x.gb"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Size != 7 || len(info.ETag) != 64 {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := s.Put(ctx, "imports/2024/x.gb", strings.NewReader("again"), core.PutOptions{}); !errors.Is(err, core.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	head, err := s.Head(ctx, "imports/2024/x.gb")
	if err != nil || head.Metadata["name"] != "x.gb" || head.ETag != info.ETag {
		t.Fatalf("unexpected head %+v err=%v", head, err)
	}
	_, rc, err := s.Get(ctx, "imports/2024/x.gb")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(body) != "LOCUS x" {
		t.Fatalf("unexpected body %q", body)
	}
	if _, err := s.Put(ctx, "notes.txt", strings.NewReader("n"), core.PutOptions{}); err != nil {
		t.Fatalf("put notes: %v", err)
	}
	list, err := s.List(ctx, "imports/")
	if err != nil || len(list) != 1 || list[0].Key != "imports/2024/x.gb" {
		t.Fatalf("unexpected list %+v err=%v", list, err)
	}
	if ok, err := s.Delete(ctx, "imports/2024/x.gb"); !ok || err != nil {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Delete(ctx, "imports/2024/x.gb"); ok {
		t.Fatalf("expected missing blob on second delete")
	}
	if _, _, err := s.Get(ctx, "imports/2024/x.gb"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFilesystemStoreRejectsBadKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	for _, key := range []string{"", "/abs", "../escape", "a/../../b", "x.meta"} {
		if _, err := s.Put(context.Background(), key, strings.NewReader("x"), core.PutOptions{}); err == nil {
			t.Fatalf("expected key %q to be rejected", key)
		}
	}
}

func TestFilesystemStoreCorruptSidecar(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := s.Put(context.Background(), "k", strings.NewReader("x"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "k.meta"), []byte("{"), 0o600); err != nil {
		t.Fatalf("corrupt: %v", err)
	}
	if _, err := s.Head(context.Background(), "k"); err == nil || !strings.Contains(err.Error(), "decode sidecar") {
		t.Fatalf("expected decode error, got %v", err)
	}
	if _, err := s.List(context.Background(), ""); err == nil {
		t.Fatalf("expected list to surface corrupt sidecar")
	}
}
