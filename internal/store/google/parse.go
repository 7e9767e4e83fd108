package google

import (
	"fmt"
	"strings"

	"kharcha/internal/core"
)

// Expense sheet columns, A to F.
const (
	colID = iota
	colDate
	colDescription
	colCategory
	colExpenseBy
	colAmount
)

func expenseRow(e core.Expense) []any {
	return []any{e.ID, e.Date, e.Description, e.Category, e.ExpenseBy, e.Amount.Decimal().InexactFloat64()}
}

// parseExpenseRows converts sheet values into expenses. A header row whose
// first cell is "ID" is skipped, as are blank rows. Rows without an ID or
// with an unreadable amount are counted in skipped.
func parseExpenseRows(values [][]any) (out []core.Expense, skipped int) {
	for i, row := range values {
		cols := toStrings(row)
		if i == 0 && len(cols) > 0 && strings.EqualFold(cols[0], "id") {
			continue
		}
		if isBlank(cols) {
			continue
		}
		id := safeGet(cols, colID)
		amount, err := parseAmountCell(safeGetAny(row, colAmount))
		if id == "" || err != nil {
			skipped++
			continue
		}
		out = append(out, core.Expense{
			ID:          id,
			Date:        safeGet(cols, colDate),
			Description: safeGet(cols, colDescription),
			Category:    safeGet(cols, colCategory),
			ExpenseBy:   safeGet(cols, colExpenseBy),
			Amount:      amount,
		})
	}
	return out, skipped
}

// parseSettingsRows reads column A as categories and column B as users,
// skipping gaps and dropping repeats.
func parseSettingsRows(values [][]any) (categories, users []string) {
	for _, row := range values {
		cols := toStrings(row)
		if c := safeGet(cols, 0); c != "" {
			categories = append(categories, c)
		}
		if u := safeGet(cols, 1); u != "" {
			users = append(users, u)
		}
	}
	return core.Dedupe(categories), core.Dedupe(users)
}

func parseAmountCell(v any) (core.Money, error) {
	switch x := v.(type) {
	case float64:
		return core.MoneyFromFloat(x)
	case nil:
		return core.Money{}, fmt.Errorf("missing amount: %w", core.ErrInvalidAmount)
	default:
		s := strings.TrimSpace(fmt.Sprint(x))
		s = strings.TrimSpace(strings.TrimPrefix(s, core.CurrencySymbol))
		return core.ParseAmount(normalizeSeparators(s))
	}
}

// normalizeSeparators drops grouping commas. A comma is kept as the decimal
// separator only when it is the sole separator and one or two digits follow
// it, as in "12,5" or "12,50".
func normalizeSeparators(s string) string {
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		if frac := len(s) - strings.Index(s, ",") - 1; frac == 1 || frac == 2 {
			return s
		}
	}
	return strings.ReplaceAll(s, ",", "")
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cols []string) bool {
	for _, c := range cols {
		if c != "" {
			return false
		}
	}
	return true
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}

func safeGetAny(arr []any, idx int) any {
	if idx < 0 || idx >= len(arr) {
		return nil
	}
	return arr[idx]
}
