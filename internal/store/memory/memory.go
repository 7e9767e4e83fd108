// Package memory is an in-process store, seeded from text files.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"kharcha/internal/core"
	"kharcha/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu    sync.Mutex
	vocab core.Vocabulary
	items []core.Expense
	hub   store.Hub
}

func New(vocab core.Vocabulary) *Store {
	return &Store{vocab: vocab}
}

// NewFromFiles seeds the vocabulary from the files under base.
func NewFromFiles(base string) *Store {
	return New(SeedVocabulary(base))
}

// SeedVocabulary reads seed_categories.txt and seed_users.txt under base,
// one name per line, "#" for comments. Missing or empty files fall back to
// the built-in defaults.
func SeedVocabulary(base string) core.Vocabulary {
	cats := readLines(filepath.Join(base, "seed_categories.txt"))
	users := readLines(filepath.Join(base, "seed_users.txt"))
	return core.NewVocabulary(cats, users)
}

// AppendExpense stores the expense under a fresh ID and pushes the new
// snapshot to subscribers.
func (s *Store) AppendExpense(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		return core.Expense{}, err
	}
	e := n.WithID(store.NewID())

	s.mu.Lock()
	s.items = append(s.items, e)
	s.mu.Unlock()

	if err := s.hub.Notify(ctx, s.ListExpenses); err != nil {
		return e, err
	}
	return e, nil
}

// ListExpenses returns a copy of all expenses in insertion order.
func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items), nil
}

func (s *Store) Settings(_ context.Context) (core.Vocabulary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vocab, nil
}

func (s *Store) AppendCategory(_ context.Context, name string) (core.Vocabulary, error) {
	return s.update(func(v core.Vocabulary) (core.Vocabulary, bool, error) { return v.WithCategory(name) })
}

func (s *Store) AppendUser(_ context.Context, name string) (core.Vocabulary, error) {
	return s.update(func(v core.Vocabulary) (core.Vocabulary, bool, error) { return v.WithUser(name) })
}

func (s *Store) update(fn func(core.Vocabulary) (core.Vocabulary, bool, error)) (core.Vocabulary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, changed, err := fn(s.vocab)
	if err != nil {
		return s.vocab, err
	}
	if changed {
		s.vocab = next
	}
	return s.vocab, nil
}

// Subscribe pushes the current snapshot immediately, then one after every
// append, until ctx is done.
func (s *Store) Subscribe(ctx context.Context, fn func([]core.Expense)) error {
	return s.hub.Subscribe(ctx, s.ListExpenses, fn)
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
