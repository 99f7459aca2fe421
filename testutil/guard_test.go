package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type recordingFatal struct {
	msg string
}

func (r *recordingFatal) Fatalf(format string, args ...any) {
	r.msg = fmt.Sprintf(format, args...)
}

func writeGo(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package x\n\nimport (\n\t\"fmt\"\n\t\"helixcanvas/internal/core\"\n)\n\nvar _ = fmt.Sprint\nvar _ core.Service\n")
	writeGo(t, dir, "b.go", "package x\n\nimport \"helixcanvas/internal/infra/blob/fs\"\n")
	writeGo(t, dir, "a_test.go", "package x\n\nimport \"helixcanvas/internal/worker\"\n")
	writeGo(t, dir, "notes.txt", "import \"helixcanvas/internal/worker\"")

	viols, err := directImportViolations(dir, InternalImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 2 {
		t.Fatalf("expected 2 violations, got %v", viols)
	}
	if !strings.HasPrefix(viols[0], "helixcanvas/internal/core (in a.go)") {
		t.Fatalf("unexpected ordering %v", viols)
	}

	viols, err = directImportViolations(dir, ImportsUnder("internal/infra"))
	if err != nil || len(viols) != 1 {
		t.Fatalf("expected one infra violation, got %v (%v)", viols, err)
	}
}

func TestDirectImportViolationsErrors(t *testing.T) {
	if _, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), InternalImportForbidden); err == nil {
		t.Fatalf("expected error for missing dir")
	}
	dir := t.TempDir()
	writeGo(t, dir, "bad.go", "package x\nimport (\n")
	if _, err := directImportViolations(dir, InternalImportForbidden); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestImportsUnder(t *testing.T) {
	match := ImportsUnder("internal/core", "/pkg/domain/")
	cases := map[string]bool{
		"helixcanvas/internal/core":       true,
		"helixcanvas/internal/core/sub":   true,
		"helixcanvas/internal/coredump":   false,
		"helixcanvas/pkg/domain":          true,
		"example.com/helixcanvas/pkg/dom": false,
	}
	for path, want := range cases {
		if got := match(path); got != want {
			t.Fatalf("%s: expected %v, got %v", path, want, got)
		}
	}
}

func TestFailIfViolations(t *testing.T) {
	rec := &recordingFatal{}
	failIfViolations(rec, "reason", nil)
	if rec.msg != "" {
		t.Fatalf("no violations must not fail")
	}
	failIfViolations(rec, "layering", []string{"a", "b"})
	if !strings.Contains(rec.msg, "layering") || !strings.Contains(rec.msg, "a\nb") {
		t.Fatalf("unexpected message %q", rec.msg)
	}
}
