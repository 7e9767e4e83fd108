package worker

import (
	"context"
	"errors"
	"testing"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/store/memory"
)

type fakeSheet struct {
	*memory.Store
	rows       []core.Expense
	appendErr  error
	nameWrites int
}

func newFakeSheet(existing ...core.Expense) *fakeSheet {
	return &fakeSheet{Store: memory.New(core.NewVocabulary([]string{"Food"}, []string{"Gaurav"})), rows: existing}
}

func (f *fakeSheet) ListExpenses(context.Context) ([]core.Expense, error) { return f.rows, nil }

func (f *fakeSheet) AppendRow(_ context.Context, e core.Expense) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.rows = append(f.rows, e)
	return nil
}

func (f *fakeSheet) AppendCategory(ctx context.Context, name string) (core.Vocabulary, error) {
	f.nameWrites++
	return f.Store.AppendCategory(ctx, name)
}

func (f *fakeSheet) AppendUser(ctx context.Context, name string) (core.Vocabulary, error) {
	f.nameWrites++
	return f.Store.AppendUser(ctx, name)
}

func expense(id string) core.Expense {
	return core.Expense{ID: id, Date: "2024-01-05", Description: "x", Category: "Food", ExpenseBy: "Gaurav", Amount: core.Money{Minor: 100}}
}

func TestMirrorWorker_ExpenseIsIdempotent(t *testing.T) {
	sheet := newFakeSheet(expense("A"))
	w := NewMirrorWorker(sheet, nil)
	ctx := context.Background()

	for _, id := range []string{"A", "B", "B"} {
		if err := w.HandleEvent(ctx, amqp.NewExpenseAppended(expense(id))); err != nil {
			t.Fatalf("HandleEvent(%s) error = %v", id, err)
		}
	}
	if len(sheet.rows) != 2 || sheet.rows[1].ID != "B" {
		t.Fatalf("unexpected rows: %+v", sheet.rows)
	}
}

func TestMirrorWorker_AppendFailureRequeues(t *testing.T) {
	sheet := newFakeSheet()
	sheet.appendErr = errors.New("quota")
	w := NewMirrorWorker(sheet, nil)

	if err := w.HandleEvent(context.Background(), amqp.NewExpenseAppended(expense("A"))); err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}
	sheet.appendErr = nil
	if err := w.HandleEvent(context.Background(), amqp.NewExpenseAppended(expense("A"))); err != nil {
		t.Fatalf("retry error = %v", err)
	}
	if len(sheet.rows) != 1 {
		t.Fatalf("expected one row after retry, got %d", len(sheet.rows))
	}
}

func TestMirrorWorker_Settings(t *testing.T) {
	sheet := newFakeSheet()
	w := NewMirrorWorker(sheet, nil)
	v := core.NewVocabulary([]string{"Food", "Rent"}, []string{"Gaurav", "Asha"})

	if err := w.HandleEvent(context.Background(), amqp.NewSettingsChanged(v)); err != nil {
		t.Fatalf("HandleEvent() error = %v", err)
	}
	got, _ := sheet.Settings(context.Background())
	if !got.HasCategory("Rent") || !got.HasUser("Asha") || len(got.Categories) != 2 {
		t.Fatalf("unexpected sheet settings: %+v", got)
	}
	// Food and Gaurav were already on the sheet.
	if sheet.nameWrites != 2 {
		t.Fatalf("name writes = %d, want 2", sheet.nameWrites)
	}

	if err := w.HandleEvent(context.Background(), amqp.NewSettingsChanged(v)); err != nil {
		t.Fatalf("HandleEvent() replay error = %v", err)
	}
	if sheet.nameWrites != 2 {
		t.Fatalf("replayed event wrote names again: %d writes", sheet.nameWrites)
	}
}

func TestMirrorWorker_Reconcile(t *testing.T) {
	ctx := context.Background()
	source := memory.New(core.DefaultVocabulary())
	for i := 0; i < 3; i++ {
		if _, err := source.AppendExpense(ctx, core.NewExpense{Date: "2024-01-05", Description: "x"}); err != nil {
			t.Fatal(err)
		}
	}
	all, _ := source.ListExpenses(ctx)

	sheet := newFakeSheet(all[0])
	w := NewMirrorWorker(sheet, nil)
	n, err := w.Reconcile(ctx, source)
	if err != nil || n != 2 {
		t.Fatalf("Reconcile() = %d, %v; want 2", n, err)
	}
	if n, _ := w.Reconcile(ctx, source); n != 0 {
		t.Fatalf("second Reconcile() = %d, want 0", n)
	}
	if len(sheet.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(sheet.rows))
	}
}
