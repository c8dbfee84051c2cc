package network

import "testing"

func TestParseOptionalID(t *testing.T) {
	t.Run("empty string returns nil", func(t *testing.T) {
		id, err := ParseOptionalID("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != nil {
			t.Errorf("expected nil, got %v", id)
		}
	})

	t.Run("valid uuid parses", func(t *testing.T) {
		id, err := ParseOptionalID("5b1e8c64-3e3f-4a8a-9f2a-6c2b9e9a9d0b")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id == nil || id.String() != "5b1e8c64-3e3f-4a8a-9f2a-6c2b9e9a9d0b" {
			t.Errorf("got %v, want parsed uuid", id)
		}
	})

	t.Run("invalid uuid errors", func(t *testing.T) {
		if _, err := ParseOptionalID("not-a-uuid"); err == nil {
			t.Fatal("expected error for invalid uuid")
		}
	})
}
