package store

import "testing"

func TestNewIDIsCreationOrdered(t *testing.T) {
	prev := NewID()
	for i := 0; i < 1000; i++ {
		next := NewID()
		if len(next) != 26 {
			t.Fatalf("unexpected id length %d: %s", len(next), next)
		}
		if next <= prev {
			t.Fatalf("id %s not after %s", next, prev)
		}
		prev = next
	}
}
