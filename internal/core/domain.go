package core

import (
	"strings"
	"time"
)

// DateLayout is the only accepted calendar date format.
const DateLayout = "2006-01-02"

type (
	// Expense is one recorded expense. Date is kept exactly as entered so that
	// malformed values stay visible to the reporting layer.
	Expense struct {
		ID          string `json:"id"`
		Date        string `json:"date"`
		Description string `json:"description"`
		Category    string `json:"category"`
		ExpenseBy   string `json:"expenseBy"`
		Amount      Money  `json:"amount"`
	}

	// NewExpense is an expense before the store assigned it an ID.
	NewExpense struct {
		Date        string `json:"date"`
		Description string `json:"description"`
		Category    string `json:"category"`
		ExpenseBy   string `json:"expenseBy"`
		Amount      Money  `json:"amount"`
	}
)

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &ParseError{Field: "date", Value: s, Err: ErrInvalidDate}
	}
	return t, nil
}

// Normalize trims the free-text fields.
func (n NewExpense) Normalize() NewExpense {
	n.Date = strings.TrimSpace(n.Date)
	n.Description = strings.TrimSpace(n.Description)
	n.Category = strings.TrimSpace(n.Category)
	n.ExpenseBy = strings.TrimSpace(n.ExpenseBy)
	return n
}

// Validate checks the fields a store requires before assigning an ID.
// Category and payer are not checked against the vocabulary.
func (n NewExpense) Validate() error {
	if _, err := ParseDate(n.Date); err != nil {
		return err
	}
	if strings.TrimSpace(n.Description) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if len(n.Description) > 200 {
		return &ValidationError{Field: "description", Err: ErrDescriptionTooLong}
	}
	if err := n.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	return nil
}

// WithID turns the input into a stored expense.
func (n NewExpense) WithID(id string) Expense {
	return Expense{
		ID:          id,
		Date:        n.Date,
		Description: n.Description,
		Category:    n.Category,
		ExpenseBy:   n.ExpenseBy,
		Amount:      n.Amount,
	}
}
