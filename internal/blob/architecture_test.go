package blob

import (
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// TestOnlyBlobPackageImportsInfra ensures that only the top-level blob
// package wraps the infra-backed implementations. Other packages must depend
// on the blob.Store interface instead of importing infra packages directly.
func TestOnlyBlobPackageImportsInfra(t *testing.T) {
	const (
		infraPrefix   = "helixcanvas/internal/infra/blob"
		allowedPrefix = "helixcanvas/internal/blob"
	)
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports, Tests: true}
	pkgs, err := packages.Load(cfg, "helixcanvas/...")
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	seen := make(map[string]struct{})
	for _, pkg := range pkgs {
		if strings.HasPrefix(pkg.PkgPath, allowedPrefix) || strings.HasPrefix(pkg.PkgPath, infraPrefix) {
			continue
		}
		for importPath := range pkg.Imports {
			if importPath == infraPrefix || strings.HasPrefix(importPath, infraPrefix+"/") {
				seen[pkg.PkgPath+": "+importPath] = struct{}{}
			}
		}
	}
	if len(seen) == 0 {
		return
	}
	violations := make([]string, 0, len(seen))
	for v := range seen {
		violations = append(violations, v)
	}
	sort.Strings(violations)
	t.Fatalf("forbidden imports of infra blob packages:\n%s", strings.Join(violations, "\n"))
}
