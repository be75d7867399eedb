package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	out := String()
	if !strings.HasPrefix(out, "nmeadrift dev\n") || !strings.Contains(out, "commit: unknown") {
		t.Fatalf("unexpected version output %q", out)
	}
}
