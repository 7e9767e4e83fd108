package core

import (
	"errors"
	"slices"
	"testing"
)

func TestVocabularyDefaults(t *testing.T) {
	v := NewVocabulary(nil, []string{" A ", "B", "A", ""})
	if !slices.Equal(v.Categories, DefaultCategories) {
		t.Fatalf("expected default categories, got %v", v.Categories)
	}
	if !slices.Equal(v.Users, []string{"A", "B"}) {
		t.Fatalf("unexpected users: %v", v.Users)
	}
}

func TestVocabularyAppend(t *testing.T) {
	v := DefaultVocabulary()

	next, changed, err := v.WithCategory("  Rent ")
	if err != nil || !changed {
		t.Fatalf("expected append, changed=%v err=%v", changed, err)
	}
	if got := next.Categories[len(next.Categories)-1]; got != "Rent" {
		t.Fatalf("expected trimmed name appended last, got %q", got)
	}
	if len(v.Categories) != len(DefaultCategories) {
		t.Fatalf("original snapshot was mutated: %v", v.Categories)
	}

	same, changed, err := next.WithCategory("Rent")
	if err != nil || changed {
		t.Fatalf("duplicate must be a silent no-op, changed=%v err=%v", changed, err)
	}
	if !slices.Equal(same.Categories, next.Categories) {
		t.Fatalf("duplicate changed the list: %v", same.Categories)
	}

	// Matching is case-sensitive.
	if _, changed, _ := next.WithCategory("rent"); !changed {
		t.Fatalf("expected case-different name to be appended")
	}

	if _, _, err := v.WithUser("   "); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	users, changed, err := v.WithUser("Asha")
	if err != nil || !changed || !users.HasUser("Asha") || v.HasUser("Asha") {
		t.Fatalf("unexpected user append: %v changed=%v err=%v", users.Users, changed, err)
	}
}
