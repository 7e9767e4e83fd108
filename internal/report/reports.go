package report

import (
	"cmp"
	"slices"
	"strings"

	"kharcha/internal/core"
)

// PeriodReport is one period of a monthly or weekly report.
type PeriodReport struct {
	Period       string        `json:"period"`
	Label        string        `json:"label"`
	CategorySums []CategorySum `json:"categorySums"`
	Subtotal     core.Money    `json:"subtotal"`
}

// MonthlyByCategory groups by month, then category. Periods keep first-seen
// order; callers that want chronological order re-sort.
func MonthlyByCategory(records []core.Expense) []PeriodReport {
	return periodReports(GroupAndSum(records, MonthKey), MonthLabel)
}

// WeeklyByCategory groups by the Sunday starting each week, then category.
func WeeklyByCategory(records []core.Expense) []PeriodReport {
	return periodReports(GroupAndSum(records, WeekStartKey), WeekLabel)
}

func periodReports(periods []PeriodSums, label func(string) string) []PeriodReport {
	out := make([]PeriodReport, 0, len(periods))
	for _, p := range periods {
		var subtotal core.Money
		for _, cs := range p.CategorySums {
			subtotal = subtotal.Add(cs.Total)
		}
		out = append(out, PeriodReport{
			Period:       p.Period,
			Label:        label(p.Period),
			CategorySums: p.CategorySums,
			Subtotal:     subtotal,
		})
	}
	return out
}

// PersonRow holds one column per configured user plus the row total.
// Amounts paid by names outside the vocabulary count in Total only.
type PersonRow struct {
	Month    string       `json:"month"`
	Label    string       `json:"label"`
	ByPerson []core.Money `json:"byPerson"`
	Total    core.Money   `json:"total"`
}

// CategoryMatrix is the month by person table of one category.
type CategoryMatrix struct {
	Category string      `json:"category"`
	Users    []string    `json:"users"`
	Rows     []PersonRow `json:"rows"`
	Total    core.Money  `json:"total"`
}

// CategoryMonthPerson builds, for each category in first-seen order, one row
// per month (ascending) with a column per vocabulary user. Records without a
// date are left out.
func CategoryMonthPerson(records []core.Expense, vocab core.Vocabulary) []CategoryMatrix {
	dated := Select(records, hasPeriod)
	categories := GroupBy(dated, byCategory)
	out := make([]CategoryMatrix, 0, categories.Len())
	for cat, items := range categories.All() {
		rows := monthPersonRows(items, vocab.Users, false)
		var total core.Money
		for _, r := range rows {
			total = total.Add(r.Total)
		}
		out = append(out, CategoryMatrix{
			Category: cat,
			Users:    slices.Clone(vocab.Users),
			Rows:     rows,
			Total:    total,
		})
	}
	return out
}

// PersonTotal is one user's overall spend.
type PersonTotal struct {
	Person string     `json:"person"`
	Total  core.Money `json:"total"`
}

// PersonReport is the person-wise summary.
type PersonReport struct {
	Users  []string      `json:"users"`
	Totals []PersonTotal `json:"totals"`
	Rows   []PersonRow   `json:"rows"`
	Total  core.Money    `json:"total"`
}

// PersonSummary totals each vocabulary user over the whole collection and
// builds a month by user matrix with months newest first.
func PersonSummary(records []core.Expense, vocab core.Vocabulary) PersonReport {
	byPerson := GroupBy(records, byPayer).Sum(amountOf)
	totals := make([]PersonTotal, 0, len(vocab.Users))
	for _, u := range vocab.Users {
		totals = append(totals, PersonTotal{Person: u, Total: byPerson.Get(u)})
	}
	return PersonReport{
		Users:  slices.Clone(vocab.Users),
		Totals: totals,
		Rows:   monthPersonRows(Select(records, hasPeriod), vocab.Users, true),
		Total:  Total(records),
	}
}

func monthPersonRows(records []core.Expense, users []string, desc bool) []PersonRow {
	months := GroupBy(records, byMonth)
	keys := sortPeriodKeys(months.Keys(), desc)
	rows := make([]PersonRow, 0, len(keys))
	for _, month := range keys {
		items := months.Get(month)
		perPerson := GroupBy(items, byPayer).Sum(amountOf)
		cols := make([]core.Money, len(users))
		for i, u := range users {
			cols[i] = perPerson.Get(u)
		}
		rows = append(rows, PersonRow{
			Month:    month,
			Label:    MonthLabel(month),
			ByPerson: cols,
			Total:    perPerson.Grand(),
		})
	}
	return rows
}

// CategoryShare is a category's total and its share of the whole.
type CategoryShare struct {
	Name  string     `json:"name"`
	Value core.Money `json:"value"`
	Pct   string     `json:"pct"`
}

// CategoryBreakdown totals categories, optionally limited to one YYYY-MM
// month, sorted by total descending. Ties keep first-seen order.
func CategoryBreakdown(records []core.Expense, month string) []CategoryShare {
	if m := strings.TrimSpace(month); m != "" {
		records = Filter(records, Query{Month: m})
	}
	totals := GroupBy(records, byCategory).Sum(amountOf)
	grand := totals.Grand()
	out := make([]CategoryShare, 0, len(totals.keys))
	for _, cat := range totals.keys {
		v := totals.Get(cat)
		out = append(out, CategoryShare{Name: cat, Value: v, Pct: Pct(v, grand)})
	}
	slices.SortStableFunc(out, func(a, b CategoryShare) int {
		return cmp.Compare(b.Value.Minor, a.Value.Minor)
	})
	return out
}

// RangeSummary describes the records inside an inclusive date range.
type RangeSummary struct {
	From       string                `json:"from,omitempty"`
	To         string                `json:"to,omitempty"`
	Total      core.Money            `json:"total"`
	Count      int                   `json:"count"`
	ByCategory map[string]core.Money `json:"byCategory"`
	ByPerson   map[string]core.Money `json:"byPerson"`
	Records    []core.Expense        `json:"records"`
}

// DateRangeSummary filters by [from, to] (either bound may be empty) and
// summarises the matches. Records are returned in canonical order.
func DateRangeSummary(records []core.Expense, from, to string) RangeSummary {
	matched := Select(records, InRange(from, to))
	return RangeSummary{
		From:       from,
		To:         to,
		Total:      Total(matched),
		Count:      len(matched),
		ByCategory: GroupBy(matched, byCategory).Sum(amountOf).Map(),
		ByPerson:   GroupBy(matched, byPayer).Sum(amountOf).Map(),
		Records:    SortCanonical(matched),
	}
}

// ListResult is the expense list page: filtered, sorted, totalled.
type ListResult struct {
	Records []core.Expense `json:"records"`
	Total   core.Money     `json:"total"`
	Count   int            `json:"count"`
}

// ListView applies q and returns the matches in canonical order.
func ListView(records []core.Expense, q Query) ListResult {
	matched := Filter(records, q)
	return ListResult{
		Records: SortCanonical(matched),
		Total:   Total(matched),
		Count:   len(matched),
	}
}

func hasPeriod(e core.Expense) bool { return MonthKey(e.Date) != "" }
