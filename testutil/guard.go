// Package testutil provides helpers for tests that enforce the layering of
// the helixcanvas packages.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
)

// Module is the import path prefix of every helixcanvas package.
const Module = "helixcanvas"

// AssertNoDirectImports parses every non-test .go file in dir and fails when
// an import path satisfies forbidden. Build tags are not evaluated.
func AssertNoDirectImports(t testing.TB, dir string, forbidden func(importPath string) bool, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failIfViolations(t, reason, viols)
}

// InternalImportForbidden matches imports of any helixcanvas internal package.
func InternalImportForbidden(path string) bool {
	return strings.HasPrefix(path, Module+"/internal/")
}

// ImportsUnder returns a predicate matching imports of the given module
// relative package trees, e.g. "internal/core" matches internal/core and its
// subpackages.
func ImportsUnder(trees ...string) func(string) bool {
	return func(path string) bool {
		for _, tree := range trees {
			full := Module + "/" + strings.Trim(tree, "/")
			if path == full || strings.HasPrefix(path, full+"/") {
				return true
			}
		}
		return false
	}
}

func directImportViolations(dir string, forbidden func(importPath string) bool) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			ip := strings.Trim(imp.Path.Value, "\"")
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	sort.Strings(viols)
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden direct imports detected (%s):\n%s", reason, strings.Join(viols, "\n"))
	}
}
