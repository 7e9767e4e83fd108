// Package store declares the storage collaborator ports. Adapters live in
// the memory, sqlite and google subpackages.
package store

import (
	"context"

	"kharcha/internal/core"
)

// Ports for outbound adapters.
type (
	ExpenseReader interface {
		// ListExpenses returns the full collection, newest first where the
		// adapter can; callers must not rely on the order.
		ListExpenses(ctx context.Context) ([]core.Expense, error)
	}

	ExpenseWriter interface {
		// AppendExpense assigns an ID and stores the expense.
		AppendExpense(ctx context.Context, e core.NewExpense) (core.Expense, error)
	}

	// SettingsStore holds the shared vocabulary document.
	SettingsStore interface {
		Settings(ctx context.Context) (core.Vocabulary, error)
		// AppendCategory and AppendUser are no-ops for names already present.
		AppendCategory(ctx context.Context, name string) (core.Vocabulary, error)
		AppendUser(ctx context.Context, name string) (core.Vocabulary, error)
	}

	// Subscriber pushes full snapshots until ctx is done.
	Subscriber interface {
		Subscribe(ctx context.Context, fn func([]core.Expense)) error
	}

	// Store is everything a backend provides.
	Store interface {
		ExpenseReader
		ExpenseWriter
		SettingsStore
		Subscriber
	}
)
