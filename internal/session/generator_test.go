package session

import (
	"strings"
	"testing"
)

func TestSessionIDGenerator_Generate(t *testing.T) {
	generator := NewSessionIDGenerator()

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := generator.Generate()
		if err != nil {
			t.Fatalf("Failed to generate session ID %d: %v", i, err)
		}
		if ids[id] {
			t.Fatalf("Duplicate session ID generated: %s", id)
		}
		ids[id] = true

		if !strings.HasPrefix(id, SessionIDPrefix+".") {
			t.Fatalf("Expected prefix %s, got %s", SessionIDPrefix, id)
		}
		if err := generator.Validate(id); err != nil {
			t.Fatalf("Generated ID failed validation: %v", err)
		}
	}
}

func TestSessionIDGenerator_Validate(t *testing.T) {
	generator := NewSessionIDGenerator()
	valid, err := generator.Generate()
	if err != nil {
		t.Fatalf("Failed to generate session ID: %v", err)
	}
	parts := strings.Split(valid, ".")

	tests := []struct {
		name      string
		sessionID string
	}{
		{"empty", ""},
		{"too few parts", "sess.123"},
		{"wrong prefix", "nope." + parts[1] + "." + parts[2]},
		{"non-numeric timestamp", "sess.abc." + parts[2]},
		{"bad characters", "sess." + parts[1] + "." + strings.Repeat("!", len(parts[2]))},
		{"too short", "sess." + parts[1] + ".abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := generator.Validate(tt.sessionID)
			if err == nil {
				t.Fatalf("Expected error for %q", tt.sessionID)
			}
			if Code(err) != ErrSessionInvalid {
				t.Errorf("Expected code %s, got %s", ErrSessionInvalid, Code(err))
			}
		})
	}
}
