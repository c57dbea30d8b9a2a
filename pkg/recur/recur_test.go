package recur

import (
	"errors"
	"testing"
	"time"

	"pwkm/pkg/clock"
)

func date(t *testing.T, s string) clock.Date {
	t.Helper()
	d, err := clock.ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%s): %v", s, err)
	}
	return d
}

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Rule
	}{
		{"", Rule{Kind: None}},
		{"daily", Rule{Kind: Daily}},
		{"Weekly", Rule{Kind: Weekly}},
		{"biweekly", Rule{Kind: Biweekly}},
		{"monthly", Rule{Kind: MonthlySameDay}},
		{"quarterly", Rule{Kind: Quarterly}},
		{"yearly", Rule{Kind: Yearly}},
		{"annually", Rule{Kind: Yearly}},
		{"monthly (first saturday)", Rule{Kind: MonthlyNthWeekday, Weekday: time.Saturday, Ordinal: clock.First}},
		{"Monthly (Last Fri)", Rule{Kind: MonthlyNthWeekday, Weekday: time.Friday, Ordinal: clock.Last}},
		{"Monthly (2nd Tuesday)", Rule{Kind: MonthlyNthWeekday, Weekday: time.Tuesday, Ordinal: clock.Second}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Errorf("Parse(%q): expected %+v, got %+v", tc.in, tc.want, got)
		}
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	for _, in := range []string{"fortnightly", "every other day", "weekly (first saturday)", "(2nd tuesday)"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q): expected error", in)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, in := range []string{"daily", "weekly", "biweekly", "monthly", "quarterly", "yearly", "monthly (first saturday)"} {
		r, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		back, err := Parse(r.String())
		if err != nil {
			t.Fatalf("Parse(String()) for %q: %v", in, err)
		}
		if back != r {
			t.Errorf("round trip of %q: %+v != %+v", in, back, r)
		}
	}
}

func TestNextSimpleKinds(t *testing.T) {
	cases := []struct {
		rule Rule
		in   string
		want string
	}{
		{Rule{Kind: Daily}, "2026-02-28", "2026-03-01"},
		{Rule{Kind: Weekly}, "2026-02-02", "2026-02-09"},
		{Rule{Kind: Biweekly}, "2026-02-02", "2026-02-16"},
		{Rule{Kind: MonthlySameDay}, "2026-01-31", "2026-02-28"},
		{Rule{Kind: Quarterly}, "2026-11-30", "2027-02-28"},
		{Rule{Kind: Yearly}, "2024-02-29", "2025-02-28"},
	}
	for _, tc := range cases {
		got, err := tc.rule.Next(date(t, tc.in))
		if err != nil {
			t.Fatalf("Next(%s, %v): %v", tc.in, tc.rule, err)
		}
		if got.String() != tc.want {
			t.Errorf("Next(%s, %v): expected %s, got %s", tc.in, tc.rule, tc.want, got)
		}
	}
}

func TestNextNthWeekdayAdvancesToNextMonth(t *testing.T) {
	// 2026-01-03 is the first Saturday of January; the next due date is the
	// first Saturday of February (2026-02-07).
	r := Rule{Kind: MonthlyNthWeekday, Weekday: time.Saturday, Ordinal: clock.First}
	got, err := r.Next(date(t, "2026-01-03"))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.String() != "2026-02-07" {
		t.Errorf("expected 2026-02-07, got %s", got)
	}

	// Even when completed before the current month's occurrence, the rule
	// moves to the next month, never re-selecting the same period.
	got, err = r.Next(date(t, "2026-01-01"))
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if got.String() != "2026-02-07" {
		t.Errorf("expected 2026-02-07, got %s", got)
	}
}

func TestNextAlwaysMovesForward(t *testing.T) {
	rules := []Rule{
		{Kind: Daily},
		{Kind: Weekly},
		{Kind: Biweekly},
		{Kind: MonthlySameDay},
		{Kind: MonthlyNthWeekday, Weekday: time.Monday, Ordinal: clock.Last},
		{Kind: Quarterly},
		{Kind: Yearly},
	}
	starts := []string{"2026-01-01", "2026-01-31", "2024-02-29", "2026-12-31"}
	for _, r := range rules {
		for _, s := range starts {
			d := date(t, s)
			next, err := r.Next(d)
			if err != nil {
				t.Fatalf("Next(%s, %v): %v", s, r, err)
			}
			if !next.After(d) {
				t.Errorf("Next(%s, %v) = %s, not strictly after", s, r, next)
			}
		}
	}
}

func TestNextOnNoneIsContractViolation(t *testing.T) {
	_, err := Rule{Kind: None}.Next(date(t, "2026-02-02"))
	if !errors.Is(err, ErrNone) {
		t.Errorf("expected ErrNone, got %v", err)
	}
}

func TestFromName(t *testing.T) {
	monthly := Rule{Kind: MonthlySameDay}

	got, err := FromName("Sweep Garage (First Saturday)", monthly)
	if err != nil {
		t.Fatalf("FromName: %v", err)
	}
	want := Rule{Kind: MonthlyNthWeekday, Weekday: time.Saturday, Ordinal: clock.First}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}

	// Non-recurrence parenthetical stays plain monthly.
	got, err = FromName("Pay Rent (home)", monthly)
	if err != nil {
		t.Fatalf("FromName: %v", err)
	}
	if got != monthly {
		t.Errorf("expected plain monthly, got %+v", got)
	}

	// Weekly tasks are never upgraded from the name.
	got, err = FromName("Water Plants (First Saturday)", Rule{Kind: Weekly})
	if err != nil {
		t.Fatalf("FromName: %v", err)
	}
	if got.Kind != Weekly {
		t.Errorf("expected weekly untouched, got %+v", got)
	}
}

func TestFromNameAmbiguous(t *testing.T) {
	_, err := FromName("Review (First Saturday) (Last Friday)", Rule{Kind: MonthlySameDay})
	if !errors.Is(err, ErrAmbiguousPattern) {
		t.Errorf("expected ErrAmbiguousPattern, got %v", err)
	}

	// Two identical phrases agree; not ambiguous.
	got, err := FromName("Review (First Saturday) (first sat)", Rule{Kind: MonthlySameDay})
	if err != nil {
		t.Fatalf("FromName: %v", err)
	}
	if got.Kind != MonthlyNthWeekday {
		t.Errorf("expected nth-weekday rule, got %+v", got)
	}
}
