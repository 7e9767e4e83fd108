// Package sqlite persists expenses and the vocabulary in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"kharcha/internal/core"
	"kharcha/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db  *sql.DB
	hub store.Hub
}

// Open creates the database if needed, migrates it and seeds an empty
// vocabulary with seed.
func Open(ctx context.Context, dbPath string, seed core.Vocabulary) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer connection avoids SQLITE_BUSY under concurrent appends.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.seed(ctx, seed); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping backs the readiness probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) seed(ctx context.Context, v core.Vocabulary) error {
	for _, t := range []struct {
		table string
		names []string
	}{{"categories", v.Categories}, {"users", v.Users}} {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+t.table).Scan(&n); err != nil {
			return core.NewStorageError("seed "+t.table, err)
		}
		if n > 0 {
			continue
		}
		for _, name := range t.names {
			if err := s.insertName(ctx, t.table, name); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) AppendExpense(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		return core.Expense{}, err
	}
	e := n.WithID(store.NewID())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (id, date, description, category, expense_by, amount_minor)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Date, e.Description, e.Category, e.ExpenseBy, e.Amount.Minor)
	if err != nil {
		return core.Expense{}, core.NewStorageError("append expense", err)
	}
	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"date", e.Date,
		"amount_minor", e.Amount.Minor)

	if err := s.hub.Notify(ctx, s.ListExpenses); err != nil {
		slog.WarnContext(ctx, "Snapshot notify failed", "error", err)
	}
	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, description, category, expense_by, amount_minor
		 FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, core.NewStorageError("list expenses", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Date, &e.Description, &e.Category, &e.ExpenseBy, &e.Amount.Minor); err != nil {
			return nil, core.NewStorageError("scan expense", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("list expenses", err)
	}
	return out, nil
}

func (s *Store) Settings(ctx context.Context) (core.Vocabulary, error) {
	cats, err := s.names(ctx, "categories")
	if err != nil {
		return core.Vocabulary{}, err
	}
	users, err := s.names(ctx, "users")
	if err != nil {
		return core.Vocabulary{}, err
	}
	return core.NewVocabulary(cats, users), nil
}

func (s *Store) AppendCategory(ctx context.Context, name string) (core.Vocabulary, error) {
	return s.appendName(ctx, "categories", name, core.Vocabulary.WithCategory)
}

func (s *Store) AppendUser(ctx context.Context, name string) (core.Vocabulary, error) {
	return s.appendName(ctx, "users", name, core.Vocabulary.WithUser)
}

func (s *Store) appendName(ctx context.Context, table, name string, with func(core.Vocabulary, string) (core.Vocabulary, bool, error)) (core.Vocabulary, error) {
	cur, err := s.Settings(ctx)
	if err != nil {
		return cur, err
	}
	next, changed, err := with(cur, name)
	if err != nil || !changed {
		return cur, err
	}
	// with() trimmed the name; the new entry is last.
	var added string
	if table == "categories" {
		added = next.Categories[len(next.Categories)-1]
	} else {
		added = next.Users[len(next.Users)-1]
	}
	if err := s.insertName(ctx, table, added); err != nil {
		return cur, err
	}
	return s.Settings(ctx)
}

func (s *Store) insertName(ctx context.Context, table, name string) error {
	_, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO "+table+" (name) VALUES (?)", name)
	if err != nil {
		return core.NewStorageError("insert into "+table, err)
	}
	return nil
}

func (s *Store) names(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM "+table+" ORDER BY position")
	if err != nil {
		return nil, core.NewStorageError("read "+table, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, core.NewStorageError("scan "+table, err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, core.NewStorageError("read "+table, err)
	}
	return out, nil
}

// Subscribe delivers a snapshot now and after every append made through this
// Store. Writes by other processes are not observed.
func (s *Store) Subscribe(ctx context.Context, fn func([]core.Expense)) error {
	err := s.hub.Subscribe(ctx, s.ListExpenses, fn)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if err != nil {
		return core.NewStorageError("subscribe", err)
	}
	return nil
}
