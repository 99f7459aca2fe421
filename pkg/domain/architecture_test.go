package domain_test

import (
	"testing"

	"helixcanvas/testutil"
)

func TestDomainDoesNotImportInternal(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden, "domain must stay free of internal packages")
}
