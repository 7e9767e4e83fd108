package report

import (
	"slices"
	"strings"
	"time"

	"kharcha/internal/core"
)

// AllPayers disables the payer clause, like an empty payer.
const AllPayers = "All"

// Query is a conjunction of optional list filters. The zero Query matches
// every record.
type Query struct {
	Categories []string `json:"categories,omitempty"`
	Date       string   `json:"date,omitempty"`
	Month      string   `json:"month,omitempty"`
	Payer      string   `json:"payer,omitempty"`
	Search     string   `json:"search,omitempty"`
	From       string   `json:"from,omitempty"`
	To         string   `json:"to,omitempty"`
}

// Predicate reports whether a record passes a clause.
type Predicate func(core.Expense) bool

// And combines predicates; no predicates match everything.
func And(preds ...Predicate) Predicate {
	return func(e core.Expense) bool {
		for _, p := range preds {
			if !p(e) {
				return false
			}
		}
		return true
	}
}

// Validate rejects malformed date bounds and month prefixes.
func (q Query) Validate() error {
	bounds := []struct{ field, value string }{{"date", q.Date}, {"from", q.From}, {"to", q.To}}
	for _, b := range bounds {
		v := strings.TrimSpace(b.value)
		if v == "" {
			continue
		}
		if _, err := core.ParseDate(v); err != nil {
			return &core.ParseError{Field: b.field, Value: v, Err: core.ErrInvalidDate}
		}
	}
	if m := strings.TrimSpace(q.Month); m != "" {
		if _, err := time.Parse("2006-01", m); err != nil {
			return &core.ParseError{Field: "month", Value: m, Err: core.ErrInvalidDate}
		}
	}
	return nil
}

// Predicate compiles the query. Omitted clauses are skipped entirely.
func (q Query) Predicate() Predicate {
	var preds []Predicate
	if len(q.Categories) > 0 {
		cats := slices.Clone(q.Categories)
		preds = append(preds, func(e core.Expense) bool { return slices.Contains(cats, e.Category) })
	}
	if d := strings.TrimSpace(q.Date); d != "" {
		preds = append(preds, func(e core.Expense) bool { return e.Date == d })
	}
	if m := strings.TrimSpace(q.Month); m != "" {
		preds = append(preds, func(e core.Expense) bool { return MonthKey(e.Date) == m })
	}
	if p := strings.TrimSpace(q.Payer); p != "" && p != AllPayers {
		preds = append(preds, func(e core.Expense) bool { return e.ExpenseBy == p })
	}
	if s := strings.ToLower(strings.TrimSpace(q.Search)); s != "" {
		preds = append(preds, func(e core.Expense) bool {
			return strings.Contains(strings.ToLower(e.Description), s)
		})
	}
	if strings.TrimSpace(q.From) != "" || strings.TrimSpace(q.To) != "" {
		preds = append(preds, InRange(q.From, q.To))
	}
	return And(preds...)
}

// InRange matches records dated within [from, to]. An empty bound is open.
// Records without a parsable date never match, and neither does anything
// when a bound itself is malformed.
func InRange(from, to string) Predicate {
	lo, loErr := optionalDate(from)
	hi, hiErr := optionalDate(to)
	if loErr != nil || hiErr != nil {
		return func(core.Expense) bool { return false }
	}
	return func(e core.Expense) bool {
		d, err := core.ParseDate(e.Date)
		if err != nil {
			return false
		}
		if !lo.IsZero() && d.Before(lo) {
			return false
		}
		if !hi.IsZero() && d.After(hi) {
			return false
		}
		return true
	}
}

func optionalDate(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	return core.ParseDate(s)
}

// Filter returns the records matching q in their original relative order.
func Filter(records []core.Expense, q Query) []core.Expense {
	return Select(records, q.Predicate())
}

// Select keeps the records matching pred, preserving order.
func Select(records []core.Expense, pred Predicate) []core.Expense {
	out := make([]core.Expense, 0, len(records))
	for _, e := range records {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}
