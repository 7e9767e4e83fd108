package report

import (
	"slices"
	"testing"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

var vocabAB = core.Vocabulary{Categories: []string{"Food", "Fuel"}, Users: []string{"A", "B"}}

func TestMonthlyByCategory(t *testing.T) {
	got := MonthlyByCategory(sample())
	if len(got) != 2 {
		t.Fatalf("expected 2 periods, got %+v", got)
	}
	if got[0].Period != "2024-01" || got[0].Label != "Jan 2024" || got[0].Subtotal != rupees(150) {
		t.Fatalf("unexpected January: %+v", got[0])
	}
	if got[1].Period != "2024-02" || got[1].Subtotal != rupees(30) {
		t.Fatalf("unexpected February: %+v", got[1])
	}
}

func TestWeeklyByCategory(t *testing.T) {
	got := WeeklyByCategory(sample())
	var periods []string
	for _, p := range got {
		periods = append(periods, p.Period)
	}
	if !slices.Equal(periods, []string{"2023-12-31", "2024-01-14", "2024-01-28"}) {
		t.Fatalf("unexpected weeks: %v", periods)
	}
	if got[0].Label != "Week starting 2023-12-31" {
		t.Fatalf("unexpected label %q", got[0].Label)
	}
}

func TestCategoryMonthPerson(t *testing.T) {
	records := append(sample(),
		core.Expense{ID: "04", Date: "2023-11-11", Category: "Food", ExpenseBy: "Z", Amount: rupees(20)},
		core.Expense{ID: "05", Date: "", Category: "Food", ExpenseBy: "A", Amount: rupees(999)},
	)
	got := CategoryMonthPerson(records, vocabAB)
	if len(got) != 2 || got[0].Category != "Food" || got[1].Category != "Fuel" {
		t.Fatalf("unexpected categories: %+v", got)
	}
	food := got[0]
	if len(food.Rows) != 2 || food.Rows[0].Month != "2023-11" || food.Rows[1].Month != "2024-01" {
		t.Fatalf("months must be ascending: %+v", food.Rows)
	}
	// Unknown payer Z: zero in every column, still in the row total.
	if food.Rows[0].ByPerson[0] != (core.Money{}) || food.Rows[0].ByPerson[1] != (core.Money{}) || food.Rows[0].Total != rupees(20) {
		t.Fatalf("unexpected November row: %+v", food.Rows[0])
	}
	jan := food.Rows[1]
	if jan.ByPerson[0] != rupees(100) || jan.ByPerson[1] != rupees(50) || jan.Total != rupees(150) {
		t.Fatalf("unexpected January row: %+v", jan)
	}
	if food.Total != rupees(170) {
		t.Fatalf("undated record must be excluded, total=%d", food.Total.Minor)
	}
}

func TestPersonSummary(t *testing.T) {
	records := append(sample(), core.Expense{ID: "04", Date: "", Category: "Misc", ExpenseBy: "B", Amount: rupees(5)})
	got := PersonSummary(records, vocabAB)
	if got.Totals[0] != (PersonTotal{Person: "A", Total: rupees(130)}) {
		t.Fatalf("unexpected A total: %+v", got.Totals[0])
	}
	if got.Totals[1] != (PersonTotal{Person: "B", Total: rupees(55)}) {
		t.Fatalf("undated spend counts in the overall per-person total: %+v", got.Totals[1])
	}
	if len(got.Rows) != 2 || got.Rows[0].Month != "2024-02" || got.Rows[1].Month != "2024-01" {
		t.Fatalf("months must be newest first: %+v", got.Rows)
	}
	if got.Rows[1].Total != rupees(150) || got.Total != rupees(185) {
		t.Fatalf("unexpected totals: row=%d all=%d", got.Rows[1].Total.Minor, got.Total.Minor)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	got := CategoryBreakdown(sample(), "2024-01")
	if len(got) != 1 || got[0] != (CategoryShare{Name: "Food", Value: rupees(150), Pct: "100.0"}) {
		t.Fatalf("unexpected January breakdown: %+v", got)
	}

	all := CategoryBreakdown(append(sample(),
		core.Expense{Date: "2024-03-01", Category: "Misc", Amount: rupees(30)},
		core.Expense{Date: "2024-03-02", Category: "Grocery", Amount: rupees(70)},
	), "")
	var names []string
	for _, s := range all {
		names = append(names, s.Name)
	}
	if !slices.Equal(names, []string{"Food", "Grocery", "Fuel", "Misc"}) {
		t.Fatalf("expected descending totals with stable ties, got %v", names)
	}
}

func TestCategoryBreakdownPctSumsToHundred(t *testing.T) {
	records := []core.Expense{
		{Date: "2024-01-01", Category: "A", Amount: core.Money{Minor: 1}},
		{Date: "2024-01-01", Category: "B", Amount: core.Money{Minor: 1}},
		{Date: "2024-01-01", Category: "C", Amount: core.Money{Minor: 1}},
		{Date: "2024-01-01", Category: "D", Amount: core.Money{Minor: 7}},
	}
	sum := decimal.Zero
	for _, s := range CategoryBreakdown(records, "") {
		sum = sum.Add(decimal.RequireFromString(s.Pct))
	}
	tolerance := decimal.RequireFromString("0.2")
	if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(tolerance) {
		t.Fatalf("percentages sum to %s", sum)
	}
}

func TestDateRangeSummary(t *testing.T) {
	got := DateRangeSummary(sample(), "2024-01-10", "2024-01-31")
	if got.Count != 1 || got.Total != rupees(50) || got.Records[0].ID != "02" {
		t.Fatalf("unexpected summary: %+v", got)
	}
	if got.ByCategory["Food"] != rupees(50) || got.ByPerson["B"] != rupees(50) || len(got.ByPerson) != 1 {
		t.Fatalf("unexpected subtotals: %+v %+v", got.ByCategory, got.ByPerson)
	}

	open := DateRangeSummary(sample(), "", "")
	if !slices.Equal(ids(open.Records), []string{"03", "02", "01"}) {
		t.Fatalf("expected canonical order, got %v", ids(open.Records))
	}
}

func TestListView(t *testing.T) {
	got := ListView(sample(), Query{Categories: []string{"Food"}})
	if got.Count != 2 || got.Total != rupees(150) || !slices.Equal(ids(got.Records), []string{"02", "01"}) {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestReportsOnEmptyInput(t *testing.T) {
	if got := MonthlyByCategory(nil); got == nil || len(got) != 0 {
		t.Fatalf("monthly: %+v", got)
	}
	if got := WeeklyByCategory(nil); len(got) != 0 {
		t.Fatalf("weekly: %+v", got)
	}
	if got := CategoryMonthPerson(nil, vocabAB); len(got) != 0 {
		t.Fatalf("category matrix: %+v", got)
	}
	ps := PersonSummary(nil, vocabAB)
	if len(ps.Totals) != 2 || !ps.Totals[0].Total.IsZero() || len(ps.Rows) != 0 || !ps.Total.IsZero() {
		t.Fatalf("person summary: %+v", ps)
	}
	if got := CategoryBreakdown(nil, "2024-01"); len(got) != 0 {
		t.Fatalf("breakdown: %+v", got)
	}
	rs := DateRangeSummary(nil, "2024-01-01", "")
	if rs.Count != 0 || !rs.Total.IsZero() || rs.ByCategory == nil || rs.Records == nil {
		t.Fatalf("range summary: %+v", rs)
	}
	if lv := ListView(nil, Query{}); lv.Count != 0 || lv.Records == nil {
		t.Fatalf("list view: %+v", lv)
	}
}

func TestMalformedDateLandsInOnePeriod(t *testing.T) {
	records := []core.Expense{
		{ID: "01", Date: "2024-01-05", Category: "Food", Amount: rupees(100)},
		{ID: "02", Date: "2024-01-40", Category: "Fuel", Amount: rupees(50)},
	}

	monthly := MonthlyByCategory(records)
	if len(monthly) != 2 || monthly[0].Period != "2024-01" || monthly[1].Period != InvalidDate {
		t.Fatalf("unexpected periods: %+v", monthly)
	}
	if got := monthly[0].Subtotal; got != rupees(100) {
		t.Fatalf("January subtotal = %v, want 100", got)
	}

	shares := CategoryBreakdown(records, "2024-01")
	if len(shares) != 1 || shares[0].Name != "Food" || shares[0].Pct != "100.0" {
		t.Fatalf("January breakdown includes the malformed record: %+v", shares)
	}

	list := ListView(records, Query{Month: "2024-01"})
	if list.Count != 1 || list.Total != rupees(100) {
		t.Fatalf("January list includes the malformed record: %+v", list)
	}
}
