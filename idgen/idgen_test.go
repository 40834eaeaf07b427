package idgen

import (
	"strings"
	"testing"
)

func TestUUIDv7Unique(t *testing.T) {
	gen := UUIDv7()
	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		id := gen()
		if len(id) != 36 {
			t.Fatalf("id %q has length %d, want 36", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}
}

func TestPrefixed(t *testing.T) {
	gen := Prefixed("rev_", UUIDv7())
	id := gen()
	if !strings.HasPrefix(id, "rev_") {
		t.Errorf("id = %q, want rev_ prefix", id)
	}
	if len(id) != 4+36 {
		t.Errorf("id length = %d", len(id))
	}
}

func TestNew(t *testing.T) {
	if New() == New() {
		t.Error("New returned the same id twice")
	}
}
