package core

import (
	"slices"
	"strings"
)

var (
	DefaultCategories = []string{"Grocery", "Fuel", "Misc", "Food"}
	DefaultUsers      = []string{"Gaurav", "Dolly"}
)

// Vocabulary is the append-only list of known category and payer names.
// It is a value: the With* methods return a new snapshot.
type Vocabulary struct {
	Categories []string `json:"categories"`
	Users      []string `json:"users"`
}

// DefaultVocabulary returns the built-in seed lists.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Categories: slices.Clone(DefaultCategories),
		Users:      slices.Clone(DefaultUsers),
	}
}

// NewVocabulary dedupes the given lists preserving first occurrence; an empty
// list falls back to its default seed.
func NewVocabulary(categories, users []string) Vocabulary {
	v := Vocabulary{Categories: Dedupe(categories), Users: Dedupe(users)}
	if len(v.Categories) == 0 {
		v.Categories = slices.Clone(DefaultCategories)
	}
	if len(v.Users) == 0 {
		v.Users = slices.Clone(DefaultUsers)
	}
	return v
}

// WithCategory appends name unless already present. changed is false for a
// duplicate, which is not an error.
func (v Vocabulary) WithCategory(name string) (Vocabulary, bool, error) {
	cats, changed, err := appendName(v.Categories, name, "category")
	if err != nil || !changed {
		return v, false, err
	}
	return Vocabulary{Categories: cats, Users: slices.Clone(v.Users)}, true, nil
}

// WithUser appends name unless already present.
func (v Vocabulary) WithUser(name string) (Vocabulary, bool, error) {
	users, changed, err := appendName(v.Users, name, "user")
	if err != nil || !changed {
		return v, false, err
	}
	return Vocabulary{Categories: slices.Clone(v.Categories), Users: users}, true, nil
}

// HasCategory uses case-sensitive exact match.
func (v Vocabulary) HasCategory(name string) bool {
	return slices.Contains(v.Categories, name)
}

// HasUser uses case-sensitive exact match.
func (v Vocabulary) HasUser(name string) bool {
	return slices.Contains(v.Users, name)
}

func appendName(list []string, name, field string) ([]string, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return list, false, &ValidationError{Field: field, Err: ErrEmptyName}
	}
	if slices.Contains(list, name) {
		return list, false, nil
	}
	out := make([]string, 0, len(list)+1)
	out = append(out, list...)
	return append(out, name), true, nil
}

// Dedupe trims names, drops blanks and repeats, and keeps input order.
func Dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
