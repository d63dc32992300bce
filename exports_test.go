package vcppbridge

import (
	"strings"
	"testing"
)

func TestExportsUnique(t *testing.T) {
	if len(Exports) != 4 {
		t.Fatalf("expected 4 entry point exports, got %d", len(Exports))
	}
	seen := make(map[string]bool)
	for _, name := range Exports {
		if seen[name] {
			t.Fatalf("duplicate export %q", name)
		}
		seen[name] = true
		if !strings.HasPrefix(name, "vcpp_") {
			t.Fatalf("export %q does not carry the vcpp_ prefix", name)
		}
	}
}
