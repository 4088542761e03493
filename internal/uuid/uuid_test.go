package uuid

import (
	"testing"

	googleuuid "github.com/google/uuid"
)

func TestNewIsVersion7(t *testing.T) {
	id := New()
	parsed, err := googleuuid.Parse(id)
	if err != nil {
		t.Fatalf("expected valid uuid, got %q: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Errorf("expected version 7, got %d", parsed.Version())
	}
}

func TestNewIsOrdered(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		if next == prev {
			t.Fatal("expected unique ids")
		}
		prev = next
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(New()) {
		t.Error("expected generated id to be valid")
	}
	if IsValid("not-a-uuid") {
		t.Error("expected garbage to be invalid")
	}
}
