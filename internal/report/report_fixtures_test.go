package report

import "kharcha/internal/core"

func rupees(n int64) core.Money { return core.Money{Minor: n * 100} }

// sample is the three-record collection used throughout the report tests.
func sample() []core.Expense {
	return []core.Expense{
		{ID: "01", Date: "2024-01-05", Description: "Veg market", Category: "Food", ExpenseBy: "A", Amount: rupees(100)},
		{ID: "02", Date: "2024-01-20", Description: "Dinner out", Category: "Food", ExpenseBy: "B", Amount: rupees(50)},
		{ID: "03", Date: "2024-02-01", Description: "Petrol", Category: "Fuel", ExpenseBy: "A", Amount: rupees(30)},
	}
}

func ids(records []core.Expense) []string {
	out := make([]string, len(records))
	for i, e := range records {
		out[i] = e.ID
	}
	return out
}
