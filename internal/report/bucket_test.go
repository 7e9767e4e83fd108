package report

import "testing"

func TestMonthKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"2024-01-05", "2024-01"},
		{"2024-12-31", "2024-12"},
		{"", ""},
		{"   ", ""},
		{"2024-13-01", InvalidDate},
		{"not a date", InvalidDate},
	}
	for _, tc := range cases {
		if got := MonthKey(tc.in); got != tc.want {
			t.Errorf("MonthKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestWeekStartKey(t *testing.T) {
	cases := []struct{ in, want string }{
		{"2024-01-05", "2023-12-31"}, // Friday, crosses the year
		{"2024-01-07", "2024-01-07"}, // Sunday maps to itself
		{"2024-01-20", "2024-01-14"}, // Saturday
		{"2024-03-01", "2024-02-25"}, // crosses a leap February
		{"", ""},
		{"2024-02-30", InvalidDate},
	}
	for _, tc := range cases {
		if got := WeekStartKey(tc.in); got != tc.want {
			t.Errorf("WeekStartKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLabels(t *testing.T) {
	if got := MonthLabel("2024-01"); got != "Jan 2024" {
		t.Errorf("MonthLabel = %q", got)
	}
	if got := MonthLabel(InvalidDate); got != InvalidDate {
		t.Errorf("MonthLabel(invalid) = %q", got)
	}
	if got := WeekLabel("2024-01-14"); got != "Week starting 2024-01-14" {
		t.Errorf("WeekLabel = %q", got)
	}
}
