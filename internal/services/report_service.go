package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"kharcha/internal/cache"
	"kharcha/internal/core"
	"kharcha/internal/log"
	"kharcha/internal/metrics"
	"kharcha/internal/report"
	"kharcha/internal/snapshot"
	"kharcha/internal/store"
)

// Report names, used in cache keys, metrics and logs.
const (
	ReportList                = "list"
	ReportMonthly             = "monthly"
	ReportWeekly              = "weekly"
	ReportCategoryMonthPerson = "category-month-person"
	ReportPersons             = "persons"
	ReportCategories          = "categories"
	ReportRange               = "range"
)

type cacheKey struct {
	version uint64
	report  string
	params  string
}

// ReportService serves reports computed from the current snapshot. Results
// are cached per snapshot version; concurrent requests for the same missing
// entry are computed once. Returned values are shared and must be treated as
// read-only. Each report comes with the version of the snapshot it was built
// from, which may already be older than Version() when the caller reads it.
type ReportService struct {
	holder   *snapshot.Holder
	settings store.SettingsStore
	cache    *cache.LRU[cacheKey, any]
	group    singleflight.Group
	metrics  *metrics.Metrics
}

func NewReportService(h *snapshot.Holder, settings store.SettingsStore, cacheSize int, cacheTTL time.Duration, m *metrics.Metrics) *ReportService {
	s := &ReportService{
		holder:   h,
		settings: settings,
		cache:    cache.NewLRU[cacheKey, any](cacheSize, cacheTTL),
		metrics:  m,
	}
	h.Listen(func(snap snapshot.Snapshot) {
		s.cache.Purge()
		m.SnapshotChanged(snap.Version, len(snap.Records))
	})
	return s
}

// Cache is exposed so the caller can schedule expiry cleanup.
func (s *ReportService) Cache() cache.Cleaner { return s.cache }

// Version is the snapshot version reports are currently built from.
func (s *ReportService) Version() uint64 { return s.holder.Version() }

// Ready reports whether at least one snapshot has been received.
func (s *ReportService) Ready() bool { return s.holder.Version() > 0 }

// FeedErr is the last snapshot feed failure, nil once a fresh snapshot
// arrived after it.
func (s *ReportService) FeedErr() error { return s.holder.Err() }

func (s *ReportService) List(ctx context.Context, q report.Query) (report.ListResult, uint64, error) {
	if err := q.Validate(); err != nil {
		return report.ListResult{}, 0, err
	}
	params := fmt.Sprintf("%q|%s|%s|%s|%s|%s|%s",
		q.Categories, q.Date, q.Month, q.Payer, strings.ToLower(strings.TrimSpace(q.Search)), q.From, q.To)
	res, version := cached(ctx, s, ReportList, params, func(r []core.Expense) report.ListResult {
		return report.ListView(r, q)
	})
	return res, version, nil
}

func (s *ReportService) Monthly(ctx context.Context) ([]report.PeriodReport, uint64) {
	return cached(ctx, s, ReportMonthly, "", report.MonthlyByCategory)
}

func (s *ReportService) Weekly(ctx context.Context) ([]report.PeriodReport, uint64) {
	return cached(ctx, s, ReportWeekly, "", report.WeeklyByCategory)
}

func (s *ReportService) CategoryMonthPerson(ctx context.Context) ([]report.CategoryMatrix, uint64, error) {
	vocab, err := s.settings.Settings(ctx)
	if err != nil {
		return nil, 0, err
	}
	res, version := cached(ctx, s, ReportCategoryMonthPerson, vocabParams(vocab), func(r []core.Expense) []report.CategoryMatrix {
		return report.CategoryMonthPerson(r, vocab)
	})
	return res, version, nil
}

func (s *ReportService) Persons(ctx context.Context) (report.PersonReport, uint64, error) {
	vocab, err := s.settings.Settings(ctx)
	if err != nil {
		return report.PersonReport{}, 0, err
	}
	res, version := cached(ctx, s, ReportPersons, vocabParams(vocab), func(r []core.Expense) report.PersonReport {
		return report.PersonSummary(r, vocab)
	})
	return res, version, nil
}

// Categories ranks categories, optionally within one YYYY-MM month.
func (s *ReportService) Categories(ctx context.Context, month string) ([]report.CategoryShare, uint64, error) {
	month = strings.TrimSpace(month)
	if err := (report.Query{Month: month}).Validate(); err != nil {
		return nil, 0, err
	}
	res, version := cached(ctx, s, ReportCategories, month, func(r []core.Expense) []report.CategoryShare {
		return report.CategoryBreakdown(r, month)
	})
	return res, version, nil
}

// Range summarises [from, to]; either bound may be empty.
func (s *ReportService) Range(ctx context.Context, from, to string) (report.RangeSummary, uint64, error) {
	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if err := (report.Query{From: from, To: to}).Validate(); err != nil {
		return report.RangeSummary{}, 0, err
	}
	res, version := cached(ctx, s, ReportRange, from+"|"+to, func(r []core.Expense) report.RangeSummary {
		return report.DateRangeSummary(r, from, to)
	})
	return res, version, nil
}

func vocabParams(v core.Vocabulary) string {
	return strings.Join(v.Users, "\x1f")
}

// cached returns the report for the current snapshot together with that
// snapshot's version.
func cached[T any](ctx context.Context, s *ReportService, name, params string, build func([]core.Expense) T) (T, uint64) {
	snap := s.holder.Current()
	key := cacheKey{version: snap.Version, report: name, params: params}
	if v, ok := s.cache.Get(key); ok {
		s.metrics.CacheLookup(true)
		return v.(T), snap.Version
	}
	s.metrics.CacheLookup(false)

	flight := fmt.Sprintf("%d\x00%s\x00%s", key.version, key.report, key.params)
	v, _, _ := s.group.Do(flight, func() (any, error) {
		out := build(snap.Records)
		s.cache.Set(key, out)
		s.metrics.ReportBuilt(name)
		log.FromContext(ctx).DebugContext(ctx, "Report built",
			log.NewFields().WithReport(name, snap.Version, false).ToSlice()...)
		return out, nil
	})
	return v.(T), snap.Version
}
