package report

import (
	"cmp"
	"iter"
	"maps"
	"slices"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

// Groups is an insertion-ordered partition of items by key.
type Groups[K comparable, T any] struct {
	keys  []K
	items map[K][]T
}

// GroupBy partitions items by key, remembering the order in which keys were
// first seen. Relative order of items inside a group is preserved.
func GroupBy[T any, K comparable](items []T, key func(T) K) *Groups[K, T] {
	g := &Groups[K, T]{items: make(map[K][]T)}
	for _, it := range items {
		k := key(it)
		if _, ok := g.items[k]; !ok {
			g.keys = append(g.keys, k)
		}
		g.items[k] = append(g.items[k], it)
	}
	return g
}

// Keys returns the keys in first-seen order.
func (g *Groups[K, T]) Keys() []K { return slices.Clone(g.keys) }

// Get returns the items for k, nil if absent.
func (g *Groups[K, T]) Get(k K) []T { return g.items[k] }

// Len is the number of distinct keys.
func (g *Groups[K, T]) Len() int { return len(g.keys) }

// All yields key/items pairs in first-seen order.
func (g *Groups[K, T]) All() iter.Seq2[K, []T] {
	return func(yield func(K, []T) bool) {
		for _, k := range g.keys {
			if !yield(k, g.items[k]) {
				return
			}
		}
	}
}

// Sum reduces every group to a Money total, keeping key order.
func (g *Groups[K, T]) Sum(amount func(T) core.Money) *Totals[K] {
	t := &Totals[K]{sums: make(map[K]core.Money, len(g.keys))}
	for k, items := range g.All() {
		var total core.Money
		for _, it := range items {
			total = total.Add(amount(it))
		}
		t.keys = append(t.keys, k)
		t.sums[k] = total
	}
	return t
}

// Totals is an insertion-ordered key to Money mapping.
type Totals[K comparable] struct {
	keys []K
	sums map[K]core.Money
}

// Keys returns the keys in order.
func (t *Totals[K]) Keys() []K { return slices.Clone(t.keys) }

// Get returns the total for k, zero if absent.
func (t *Totals[K]) Get(k K) core.Money { return t.sums[k] }

// Map copies the totals into a plain map.
func (t *Totals[K]) Map() map[K]core.Money {
	out := make(map[K]core.Money, len(t.sums))
	for k, v := range t.sums {
		out[k] = v
	}
	return out
}

// Grand is the sum of all totals.
func (t *Totals[K]) Grand() core.Money {
	return core.Sum(slices.Collect(maps.Values(t.sums))...)
}

// CategorySum is one category's total inside a period.
type CategorySum struct {
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
}

// PeriodSums is the per-category breakdown of one period.
type PeriodSums struct {
	Period       string        `json:"period"`
	CategorySums []CategorySum `json:"categorySums"`
}

// GroupAndSum partitions records by keyFn(date), then by category, and sums
// amounts. Periods and categories keep first-seen order. Records whose key
// is empty (no date) are left out.
func GroupAndSum(records []core.Expense, keyFn KeyFunc) []PeriodSums {
	periods := GroupBy(records, func(e core.Expense) string { return keyFn(e.Date) })
	out := make([]PeriodSums, 0, periods.Len())
	for period, items := range periods.All() {
		if period == "" {
			continue
		}
		out = append(out, PeriodSums{Period: period, CategorySums: sumByCategory(items)})
	}
	return out
}

func sumByCategory(items []core.Expense) []CategorySum {
	totals := GroupBy(items, byCategory).Sum(amountOf)
	sums := make([]CategorySum, 0, len(totals.keys))
	for _, cat := range totals.keys {
		sums = append(sums, CategorySum{Category: cat, Total: totals.Get(cat)})
	}
	return sums
}

// Total sums every record regardless of date.
func Total(records []core.Expense) core.Money {
	var total core.Money
	for _, e := range records {
		total = total.Add(e.Amount)
	}
	return total
}

var hundred = decimal.NewFromInt(100)

// Pct is value as a percentage of total rounded to one decimal place, e.g.
// "42.9". A zero total yields "0.0".
func Pct(value, total core.Money) string {
	if total.IsZero() {
		return decimal.Zero.StringFixed(1)
	}
	p := decimal.NewFromInt(value.Minor).Div(decimal.NewFromInt(total.Minor)).Mul(hundred)
	return p.Round(1).StringFixed(1)
}

func byCategory(e core.Expense) string { return e.Category }

func byPayer(e core.Expense) string { return e.ExpenseBy }

func byMonth(e core.Expense) string { return MonthKey(e.Date) }

func amountOf(e core.Expense) core.Money { return e.Amount }

// sortPeriodKeys orders period keys chronologically. The InvalidDate bucket
// always goes last and empty keys are dropped.
func sortPeriodKeys(keys []string, desc bool) []string {
	out := make([]string, 0, len(keys))
	hasInvalid := false
	for _, k := range keys {
		switch k {
		case "":
		case InvalidDate:
			hasInvalid = true
		default:
			out = append(out, k)
		}
	}
	slices.SortFunc(out, func(a, b string) int {
		if desc {
			return cmp.Compare(b, a)
		}
		return cmp.Compare(a, b)
	})
	if hasInvalid {
		out = append(out, InvalidDate)
	}
	return out
}
