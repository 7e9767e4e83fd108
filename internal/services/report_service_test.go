package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"kharcha/internal/core"
	"kharcha/internal/report"
	"kharcha/internal/snapshot"
	"kharcha/internal/store/memory"
)

func rupees(n int64) core.Money { return core.Money{Minor: n * 100} }

func sampleRecords() []core.Expense {
	return []core.Expense{
		{ID: "01", Date: "2024-01-05", Description: "Lunch", Category: "Food", ExpenseBy: "Gaurav", Amount: rupees(100)},
		{ID: "02", Date: "2024-01-20", Description: "Petrol", Category: "Fuel", ExpenseBy: "Dolly", Amount: rupees(50)},
		{ID: "03", Date: "2024-02-02", Description: "Dinner", Category: "Food", ExpenseBy: "Gaurav", Amount: rupees(30)},
	}
}

func newReportService(t *testing.T) (*ReportService, *snapshot.Holder, *memory.Store) {
	t.Helper()
	h := snapshot.NewHolder()
	st := memory.New(core.DefaultVocabulary())
	return NewReportService(h, st, 32, time.Minute, nil), h, st
}

func TestReportService_MonthlyFollowsSnapshot(t *testing.T) {
	svc, h, _ := newReportService(t)
	if svc.Ready() {
		t.Fatal("service should not be ready before the first snapshot")
	}
	if got, _ := svc.Monthly(context.Background()); len(got) != 0 {
		t.Fatalf("expected no periods on empty snapshot, got %d", len(got))
	}

	h.OnSnapshotChanged(sampleRecords())
	got, version := svc.Monthly(context.Background())
	if version != 1 || len(got) != 2 || got[0].Period != "2024-01" || got[0].Subtotal != rupees(150) {
		t.Fatalf("unexpected monthly report: %+v", got)
	}

	h.OnSnapshotChanged(sampleRecords()[:1])
	got, version = svc.Monthly(context.Background())
	if version != 2 || len(got) != 1 || got[0].Subtotal != rupees(100) {
		t.Fatalf("report not rebuilt after snapshot change: %+v", got)
	}
}

func TestReportService_CachesPerVersion(t *testing.T) {
	svc, h, _ := newReportService(t)
	h.OnSnapshotChanged(sampleRecords())

	var builds atomic.Int32
	build := func(r []core.Expense) int {
		builds.Add(1)
		return len(r)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if n, _ := cached(ctx, svc, "count", "", build); n != 3 {
			t.Fatalf("cached() = %d, want 3", n)
		}
	}
	if builds.Load() != 1 {
		t.Fatalf("builds = %d, want 1", builds.Load())
	}
	if n, _ := cached(ctx, svc, "count", "other", build); n != 3 || builds.Load() != 2 {
		t.Fatalf("different params must build separately")
	}

	h.OnSnapshotChanged(sampleRecords()[:2])
	if n, _ := cached(ctx, svc, "count", "", build); n != 2 || builds.Load() != 3 {
		t.Fatalf("new version must rebuild: n=%d builds=%d", n, builds.Load())
	}
}

func TestReportService_VersionIsTheBuiltSnapshot(t *testing.T) {
	svc, h, _ := newReportService(t)
	h.OnSnapshotChanged(sampleRecords())

	// The snapshot moves on while the report is being built.
	n, version := cached(context.Background(), svc, "count", "", func(r []core.Expense) int {
		h.OnSnapshotChanged(sampleRecords()[:1])
		return len(r)
	})
	if n != 3 || version != 1 {
		t.Fatalf("cached() = %d at version %d, want 3 at version 1", n, version)
	}
	if svc.Version() != 2 {
		t.Fatalf("Version() = %d, want 2", svc.Version())
	}
}

func TestReportService_ConcurrentMissesBuildOnce(t *testing.T) {
	svc, h, _ := newReportService(t)
	h.OnSnapshotChanged(sampleRecords())

	var builds atomic.Int32
	release := make(chan struct{})
	build := func(r []core.Expense) int {
		builds.Add(1)
		<-release
		return len(r)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = cached(context.Background(), svc, "slow", "", build)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	if builds.Load() != 1 {
		t.Fatalf("builds = %d, want 1", builds.Load())
	}
}

func TestReportService_ValidatesParams(t *testing.T) {
	svc, h, _ := newReportService(t)
	h.OnSnapshotChanged(sampleRecords())
	ctx := context.Background()

	if _, _, err := svc.Range(ctx, "2024-01-01", "2024-31-01"); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("Range() error = %v", err)
	}
	if _, _, err := svc.Categories(ctx, "January"); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("Categories() error = %v", err)
	}
	if _, _, err := svc.List(ctx, report.Query{Date: "yesterday"}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("List() error = %v", err)
	}
}

func TestReportService_Builders(t *testing.T) {
	svc, h, st := newReportService(t)
	h.OnSnapshotChanged(sampleRecords())
	ctx := context.Background()

	list, _, err := svc.List(ctx, report.Query{Categories: []string{"Food"}})
	if err != nil || list.Count != 2 || list.Total != rupees(130) || list.Records[0].ID != "03" {
		t.Fatalf("List() = %+v, %v", list, err)
	}

	shares, _, err := svc.Categories(ctx, "2024-01")
	if err != nil || len(shares) != 2 || shares[0].Name != "Food" || shares[0].Pct != "66.7" {
		t.Fatalf("Categories() = %+v, %v", shares, err)
	}

	rng, _, err := svc.Range(ctx, "2024-01-10", "")
	if err != nil || rng.Count != 2 || rng.Total != rupees(80) {
		t.Fatalf("Range() = %+v, %v", rng, err)
	}

	persons, _, err := svc.Persons(ctx)
	if err != nil || persons.Totals[0].Person != "Gaurav" || persons.Totals[0].Total != rupees(130) {
		t.Fatalf("Persons() = %+v, %v", persons, err)
	}

	// A new user changes the columns without a snapshot change.
	if _, err := st.AppendUser(ctx, "Asha"); err != nil {
		t.Fatal(err)
	}
	matrix, _, err := svc.CategoryMonthPerson(ctx)
	if err != nil || len(matrix) != 2 || len(matrix[0].Users) != 3 {
		t.Fatalf("CategoryMonthPerson() = %+v, %v", matrix, err)
	}

	weekly, _ := svc.Weekly(ctx)
	if len(weekly) != 3 {
		t.Fatalf("Weekly() periods = %d, want 3", len(weekly))
	}
}

type failingSubscriber struct {
	calls atomic.Int32
}

func (f *failingSubscriber) Subscribe(ctx context.Context, fn func([]core.Expense)) error {
	if f.calls.Add(1) == 1 {
		fn(sampleRecords())
		return errors.New("stream reset")
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestRunFeedKeepsLastSnapshotAndResubscribes(t *testing.T) {
	h := snapshot.NewHolder()
	sub := &failingSubscriber{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- RunFeed(ctx, sub, h) }()

	deadline := time.After(3 * time.Second)
	for sub.calls.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("feed did not resubscribe")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if h.Version() != 1 || len(h.Current().Records) != 3 {
		t.Fatalf("last snapshot lost: version=%d", h.Version())
	}
	if h.Err() == nil {
		t.Fatal("feed error should be recorded")
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("RunFeed() = %v", err)
	}
}

// scriptedSubscriber fails every call after advancing the clock by the next
// entry of uptimes, and cancels the feed once the script runs out.
type scriptedSubscriber struct {
	clock   *time.Time
	uptimes []time.Duration
	cancel  context.CancelFunc
}

func (s *scriptedSubscriber) Subscribe(ctx context.Context, _ func([]core.Expense)) error {
	if len(s.uptimes) == 0 {
		s.cancel()
		return ctx.Err()
	}
	*s.clock = s.clock.Add(s.uptimes[0])
	s.uptimes = s.uptimes[1:]
	return errors.New("stream reset")
}

func TestRunFeedResetsBackoffAfterHealthySubscription(t *testing.T) {
	clock := time.Unix(0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := &scriptedSubscriber{
		clock:   &clock,
		uptimes: []time.Duration{0, 0, 0, time.Minute, 0, 0, 0, 0, 0, 0},
		cancel:  cancel,
	}

	var waits []time.Duration
	r := feedRetry{
		initial: time.Second,
		max:     8 * time.Second,
		now:     func() time.Time { return clock },
		wait: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}
	if err := r.run(ctx, sub, snapshot.NewHolder()); !errors.Is(err, context.Canceled) {
		t.Fatalf("run() = %v", err)
	}

	want := []time.Duration{1, 2, 4, 1, 2, 4, 8, 8, 8, 8}
	if len(waits) != len(want) {
		t.Fatalf("waits = %v, want %d entries", waits, len(want))
	}
	for i, w := range want {
		if waits[i] != w*time.Second {
			t.Errorf("wait %d = %v, want %v", i, waits[i], w*time.Second)
		}
	}
}
