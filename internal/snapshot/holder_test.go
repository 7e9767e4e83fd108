package snapshot

import (
	"context"
	"errors"
	"sync"
	"testing"

	"kharcha/internal/core"
)

func TestHolderReplacesWholeSet(t *testing.T) {
	h := NewHolder()
	if s := h.Current(); s.Version != 0 || s.Records == nil || len(s.Records) != 0 {
		t.Fatalf("unexpected initial snapshot: %+v", s)
	}

	var got []uint64
	h.Listen(func(s Snapshot) { got = append(got, s.Version) })

	in := []core.Expense{{ID: "1"}, {ID: "2"}}
	h.OnSnapshotChanged(in)
	in[0].ID = "mutated"
	if h.Current().Records[0].ID != "1" {
		t.Fatalf("holder must copy the input")
	}

	h.OnSnapshotChanged([]core.Expense{{ID: "3"}})
	s := h.Current()
	if s.Version != 2 || len(s.Records) != 1 || s.Records[0].ID != "3" {
		t.Fatalf("expected full replacement, got %+v", s)
	}
	if len(got) != 2 || got[1] != 2 {
		t.Fatalf("unexpected listener calls: %v", got)
	}
}

func TestHolderKeepsLastGoodSnapshotOnError(t *testing.T) {
	h := NewHolder()
	h.OnSnapshotChanged([]core.Expense{{ID: "1"}})
	h.OnError(context.Background(), errors.New("feed down"))
	if h.Err() == nil || h.Current().Records[0].ID != "1" {
		t.Fatalf("expected last good snapshot with error recorded")
	}
	h.OnSnapshotChanged(nil)
	if h.Err() != nil || h.Current().Records == nil {
		t.Fatalf("fresh snapshot must clear the error and never be nil")
	}
}

func TestHolderConcurrentAccess(t *testing.T) {
	h := NewHolder()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.OnSnapshotChanged([]core.Expense{{ID: "x"}})
		}()
		go func() {
			defer wg.Done()
			_ = h.Current()
		}()
	}
	wg.Wait()
	if h.Version() != 8 {
		t.Fatalf("expected 8 replacements, got %d", h.Version())
	}
}
