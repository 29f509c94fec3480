package ident

import (
	"strings"
	"testing"
)

func TestNew_Length(t *testing.T) {
	for _, length := range []int{1, 6, 16} {
		id := New(length)
		if len(id) != length {
			t.Errorf("Expected id of length %d, got %q (len %d)", length, id, len(id))
		}
	}
}

func TestNew_Alphabet(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := NewRoomID()
		for _, r := range id {
			if !strings.ContainsRune(alphabet, r) {
				t.Fatalf("Id %q contains %q, not in the base-36 alphabet", id, r)
			}
		}
	}
}

func TestNew_NoImmediateRepeats(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewMessageID()
		if seen[id] {
			// One collision in a thousand 6-char ids would be suspicious
			// but not impossible; two distinct draws colliding repeatedly
			// would indicate a broken source. Fail loudly either way.
			t.Fatalf("Duplicate id %q generated within 1000 draws", id)
		}
		seen[id] = true
	}
}
