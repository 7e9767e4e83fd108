// Package core provides money parsing and handling utilities.
//
// Amounts are held as integer minor units (paise) so sums never drift;
// conversion to and from decimal text goes through shopspring/decimal.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencySymbol is prefixed to formatted amounts.
const CurrencySymbol = "₹"

// Money is a fixed-point amount in minor units of the base currency.
type Money struct {
	Minor int64
}

var displayPrinter = message.NewPrinter(language.English)

// ParseAmount converts decimal text to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// half-up on the third decimal place. Negative values are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 1234
//	ParseAmount("12,345") -> 1235
func ParseAmount(s string) (Money, error) {
	raw := s
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" || strings.HasPrefix(s, "+") {
		return Money{}, &ParseError{Field: "amount", Value: raw, Err: ErrInvalidAmount}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, &ParseError{Field: "amount", Value: raw, Err: ErrInvalidAmount}
	}
	m, err := fromDecimal(d)
	if err != nil {
		return Money{}, &ParseError{Field: "amount", Value: raw, Err: err}
	}
	return m, nil
}

// MoneyFromFloat converts a base-unit float, as sent by JSON clients.
func MoneyFromFloat(f float64) (Money, error) {
	return fromDecimal(decimal.NewFromFloat(f))
}

func fromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrInvalidAmount
	}
	minor := d.Round(2).Shift(2)
	bi := minor.BigInt()
	if !bi.IsInt64() {
		return Money{}, ErrInvalidAmount
	}
	return Money{Minor: bi.Int64()}, nil
}

func (m Money) Validate() error {
	if m.Minor < 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Minor: m.Minor + o.Minor}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Minor == 0 }

// Decimal returns the amount in base units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Minor, -2)
}

// String returns the plain base-unit value with two decimals, e.g. "150.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Format renders the amount for display, e.g. "₹1,234.50".
// Use Minor for calculations; this is presentation only.
func (m Money) Format() string {
	minor := m.Minor
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	units := float64(minor) / 100.0
	return sign + CurrencySymbol + displayPrinter.Sprint(number.Decimal(units, number.Scale(2)))
}

// MarshalJSON writes the amount as a JSON number in base units.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal().String()), nil
}

// UnmarshalJSON accepts a JSON number or a decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	parsed, err := ParseAmount(string(bytes.Trim(b, `"`)))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Sum adds up amounts. Integer addition keeps it order-independent.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
