package services

import (
	"context"
	"log/slog"
	"slices"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/metrics"
	"kharcha/internal/store"
)

// Publisher sends change events. *amqp.Client satisfies it, including a nil
// client, which drops events.
type Publisher interface {
	Publish(ctx context.Context, ev *amqp.Event) error
}

// ExpenseService orchestrates writes: the store first, then a best-effort
// event for the sheets mirror.
type ExpenseService struct {
	store     store.Store
	publisher Publisher
	metrics   *metrics.Metrics
}

func NewExpenseService(st store.Store, pub Publisher, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{store: st, publisher: pub, metrics: m}
}

// CreateExpense validates and stores the expense. A failed publish is logged
// and does not fail the request: the expense is already saved.
func (s *ExpenseService) CreateExpense(ctx context.Context, n core.NewExpense) (core.Expense, error) {
	n = n.Normalize()
	if err := n.Validate(); err != nil {
		return core.Expense{}, err
	}
	e, err := s.store.AppendExpense(ctx, n)
	if err != nil {
		return core.Expense{}, err
	}
	log.FromContext(ctx).InfoContext(ctx, "Expense created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithExpense(e.ID, e.Amount.Minor, e.Category, e.ExpenseBy).
			ToSlice()...)
	s.publish(ctx, amqp.NewExpenseAppended(e))
	return e, nil
}

func (s *ExpenseService) Settings(ctx context.Context) (core.Vocabulary, error) {
	return s.store.Settings(ctx)
}

// AddCategory appends a category name; an existing name is a no-op.
func (s *ExpenseService) AddCategory(ctx context.Context, name string) (core.Vocabulary, error) {
	return s.appendSetting(ctx, s.store.AppendCategory, name)
}

// AddUser appends a payer name; an existing name is a no-op.
func (s *ExpenseService) AddUser(ctx context.Context, name string) (core.Vocabulary, error) {
	return s.appendSetting(ctx, s.store.AppendUser, name)
}

func (s *ExpenseService) appendSetting(ctx context.Context, add func(context.Context, string) (core.Vocabulary, error), name string) (core.Vocabulary, error) {
	before, err := s.store.Settings(ctx)
	if err != nil {
		return core.Vocabulary{}, err
	}
	after, err := add(ctx, name)
	if err != nil {
		return core.Vocabulary{}, err
	}
	if !slices.Equal(before.Categories, after.Categories) || !slices.Equal(before.Users, after.Users) {
		s.publish(ctx, amqp.NewSettingsChanged(after))
	}
	return after, nil
}

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish event", "type", ev.Type, "error", err)
		s.metrics.Event(ev.Type, "failed")
		return
	}
	s.metrics.Event(ev.Type, "published")
}
