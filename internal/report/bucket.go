// Package report turns a flat expense snapshot into grouped, summed and
// ranked views. Everything here is a pure function of its input.
package report

import (
	"strings"
	"time"

	"kharcha/internal/core"
)

// InvalidDate is the period key for records whose date is present but does
// not parse. Such records are surfaced in every period table under this key;
// records with no date at all get the empty key and are left out.
const InvalidDate = "Invalid Date"

// KeyFunc derives a period key from a record date.
type KeyFunc func(date string) string

// MonthKey returns the YYYY-MM prefix of date.
func MonthKey(date string) string {
	t, ok := parseBucketDate(date)
	if !ok {
		return invalidOrEmpty(date)
	}
	return t.Format("2006-01")
}

// WeekStartKey returns the Sunday on or before date as YYYY-MM-DD.
func WeekStartKey(date string) string {
	t, ok := parseBucketDate(date)
	if !ok {
		return invalidOrEmpty(date)
	}
	start := t.AddDate(0, 0, -int(t.Weekday()))
	return start.Format(core.DateLayout)
}

// MonthLabel renders a month key as "Jan 2024".
func MonthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}

// WeekLabel renders a week key as "Week starting 2024-01-07".
func WeekLabel(key string) string {
	if key == InvalidDate || key == "" {
		return key
	}
	return "Week starting " + key
}

func parseBucketDate(date string) (time.Time, bool) {
	t, err := core.ParseDate(date)
	return t, err == nil
}

func invalidOrEmpty(date string) string {
	if strings.TrimSpace(date) == "" {
		return ""
	}
	return InvalidDate
}
