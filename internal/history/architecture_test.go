package history_test

import (
	"testing"

	"helixcanvas/testutil"
)

func TestEngineLayering(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.ImportsUnder("internal/core", "internal/worker", "internal/infra", "internal/blob", "internal/adapters", "internal/config"),
		"history is a pure engine package")
}
