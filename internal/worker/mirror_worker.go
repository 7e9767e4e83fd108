// Package worker mirrors changes announced on the event queue into the
// Google Sheets spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/metrics"
	"kharcha/internal/store"
)

// Sheet is the mirror target.
type Sheet interface {
	store.ExpenseReader
	store.SettingsStore
	AppendRow(ctx context.Context, e core.Expense) error
}

// MirrorWorker appends every announced expense to the sheet once. Rows are
// keyed by expense ID, so redelivered events do not duplicate rows.
type MirrorWorker struct {
	sheet   Sheet
	metrics *metrics.Metrics

	mu     sync.Mutex
	known  map[string]struct{}
	loaded bool
}

func NewMirrorWorker(sheet Sheet, m *metrics.Metrics) *MirrorWorker {
	return &MirrorWorker{sheet: sheet, metrics: m, known: map[string]struct{}{}}
}

// HandleEvent is an amqp.Handler.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.Event) error {
	switch ev.Type {
	case amqp.ExpenseAppended:
		return w.mirrorExpense(ctx, *ev.Expense)
	case amqp.SettingsChanged:
		return w.mirrorSettings(ctx, *ev.Vocabulary)
	default:
		slog.WarnContext(ctx, "Ignoring unknown event", "type", ev.Type)
		return nil
	}
}

func (w *MirrorWorker) mirrorExpense(ctx context.Context, e core.Expense) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.loadKnownLocked(ctx); err != nil {
		return err
	}
	if _, ok := w.known[e.ID]; ok {
		slog.InfoContext(ctx, "Expense already mirrored", "id", e.ID)
		return nil
	}
	if err := w.sheet.AppendRow(ctx, e); err != nil {
		w.metrics.Event(amqp.ExpenseAppended, "mirror_failed")
		return fmt.Errorf("mirror expense %s: %w", e.ID, err)
	}
	w.known[e.ID] = struct{}{}
	w.metrics.Event(amqp.ExpenseAppended, "mirrored")
	slog.InfoContext(ctx, "Expense mirrored to sheet", "id", e.ID)
	return nil
}

// mirrorSettings writes only the names the sheet lacks; each append
// rewrites a settings column.
func (w *MirrorWorker) mirrorSettings(ctx context.Context, v core.Vocabulary) error {
	current, err := w.sheet.Settings(ctx)
	if err != nil {
		return fmt.Errorf("read sheet settings: %w", err)
	}
	for _, c := range v.Categories {
		if current.HasCategory(c) {
			continue
		}
		if _, err := w.sheet.AppendCategory(ctx, c); err != nil {
			return fmt.Errorf("mirror category %q: %w", c, err)
		}
	}
	for _, u := range v.Users {
		if current.HasUser(u) {
			continue
		}
		if _, err := w.sheet.AppendUser(ctx, u); err != nil {
			return fmt.Errorf("mirror user %q: %w", u, err)
		}
	}
	w.metrics.Event(amqp.SettingsChanged, "mirrored")
	return nil
}

// Reconcile appends every expense from source the sheet does not have yet.
// It covers events lost while the worker was down.
func (w *MirrorWorker) Reconcile(ctx context.Context, source store.ExpenseReader) (int, error) {
	records, err := source.ListExpenses(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.loadKnownLocked(ctx); err != nil {
		return 0, err
	}
	added := 0
	for _, e := range records {
		if _, ok := w.known[e.ID]; ok {
			continue
		}
		if err := w.sheet.AppendRow(ctx, e); err != nil {
			return added, fmt.Errorf("mirror expense %s: %w", e.ID, err)
		}
		w.known[e.ID] = struct{}{}
		added++
	}
	if added > 0 {
		slog.InfoContext(ctx, "Reconciled missing expenses", "count", added)
	}
	return added, nil
}

func (w *MirrorWorker) loadKnownLocked(ctx context.Context) error {
	if w.loaded {
		return nil
	}
	rows, err := w.sheet.ListExpenses(ctx)
	if err != nil {
		return fmt.Errorf("read sheet: %w", err)
	}
	for _, e := range rows {
		w.known[e.ID] = struct{}{}
	}
	w.loaded = true
	return nil
}
