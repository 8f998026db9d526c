package idgen

import (
	"regexp"
	"testing"
)

func TestRequestID_Shape(t *testing.T) {
	pattern := regexp.MustCompile(`^req-[a-zA-Z0-9]{12}$`)
	for i := 0; i < 100; i++ {
		if id := RequestID(); !pattern.MatchString(id) {
			t.Fatalf("RequestID() = %q, does not match %s", id, pattern)
		}
	}
}

func TestSnapshotID_Prefix(t *testing.T) {
	id := SnapshotID()
	if id[:len(SnapshotPrefix)] != SnapshotPrefix {
		t.Errorf("SnapshotID() = %q, want prefix %q", id, SnapshotPrefix)
	}
}

func TestGenerate_Uniqueness(t *testing.T) {
	const count = 10_000
	seen := make(map[string]struct{}, count)
	for i := 0; i < count; i++ {
		id, err := Generate("x-")
		if err != nil {
			t.Fatalf("Generate() error on iteration %d: %v", i, err)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID after %d generations: %q", i, id)
		}
		seen[id] = struct{}{}
	}
}
