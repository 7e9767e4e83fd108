package report

import (
	"cmp"
	"slices"

	"kharcha/internal/core"
)

// SortCanonical returns a copy of records ordered newest first: by calendar
// date descending, then by ID descending. IDs are creation ordered, so a
// later record wins a tie. Records whose date does not parse sort after all
// dated ones. The input is not modified.
func SortCanonical(records []core.Expense) []core.Expense {
	type keyed struct {
		e     core.Expense
		ok    bool
		epoch int64
	}
	ks := make([]keyed, len(records))
	for i, e := range records {
		d, err := core.ParseDate(e.Date)
		ks[i] = keyed{e: e, ok: err == nil}
		if err == nil {
			ks[i].epoch = d.Unix()
		}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		if a.ok != b.ok {
			if a.ok {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(b.epoch, a.epoch); c != 0 {
			return c
		}
		return compareIDs(b.e.ID, a.e.ID)
	})
	out := make([]core.Expense, len(ks))
	for i, k := range ks {
		out[i] = k.e
	}
	return out
}

// compareIDs orders IDs by length first so numeric IDs of different widths
// compare by value; equal-length IDs (ULIDs, timestamps) compare bytewise.
func compareIDs(a, b string) int {
	if c := cmp.Compare(len(a), len(b)); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}
