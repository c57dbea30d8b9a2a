// Package recur computes the next due date for a recurring task. The next
// date is always derived from the current due date, never from the
// completion instant, so a late completion does not compress the cadence.
package recur

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"pwkm/pkg/clock"
)

// Kind is the recurrence cadence of a task.
type Kind int

const (
	None Kind = iota
	Daily
	Weekly
	Biweekly
	MonthlySameDay
	MonthlyNthWeekday
	Quarterly
	Yearly
)

// ErrNone is returned when Next is called on a non-recurring rule; the
// caller must not ask for a next occurrence of a one-time task.
var ErrNone = errors.New("task does not recur")

// ErrAmbiguousPattern means a task name embeds more than one conflicting
// ordinal-weekday phrase, so the intended schedule cannot be resolved.
var ErrAmbiguousPattern = errors.New("ambiguous recurrence pattern")

// Rule is a pure recurrence value. Weekday and Ordinal are meaningful
// only for MonthlyNthWeekday.
type Rule struct {
	Kind    Kind
	Weekday time.Weekday
	Ordinal clock.Ordinal
}

func (r Rule) IsNone() bool { return r.Kind == None }

// String renders the canonical text form used in the task file, e.g.
// "weekly" or "monthly (first saturday)".
func (r Rule) String() string {
	switch r.Kind {
	case None:
		return ""
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Biweekly:
		return "biweekly"
	case MonthlySameDay:
		return "monthly"
	case MonthlyNthWeekday:
		return fmt.Sprintf("monthly (%s %s)", r.Ordinal, strings.ToLower(r.Weekday.String()))
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	}
	return ""
}

// phraseRe matches an "(ordinal weekday)" phrase such as "(First Saturday)".
var phraseRe = regexp.MustCompile(`\(\s*([A-Za-z0-9]+)\s+([A-Za-z]+)\s*\)`)

// Parse reads the recurrence column of the task file. Recognized forms
// (case-insensitive): empty, daily, weekly, biweekly, monthly, quarterly,
// yearly, annually, and "monthly (ORDINAL WEEKDAY)" with ORDINAL one of
// first..fourth / 1st..4th / last and WEEKDAY a full English name or
// three-letter prefix.
func Parse(s string) (Rule, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Rule{Kind: None}, nil
	}
	lower := strings.ToLower(raw)

	if m := phraseRe.FindStringSubmatch(raw); m != nil {
		head := strings.ToLower(strings.TrimSpace(raw[:strings.Index(raw, "(")]))
		if head != "monthly" {
			return Rule{}, fmt.Errorf("unknown recurrence %q", s)
		}
		ord, err := clock.ParseOrdinal(m[1])
		if err != nil {
			return Rule{}, fmt.Errorf("recurrence %q: %v", s, err)
		}
		wd, err := clock.ParseWeekday(m[2])
		if err != nil {
			return Rule{}, fmt.Errorf("recurrence %q: %v", s, err)
		}
		return Rule{Kind: MonthlyNthWeekday, Weekday: wd, Ordinal: ord}, nil
	}

	switch lower {
	case "daily":
		return Rule{Kind: Daily}, nil
	case "weekly":
		return Rule{Kind: Weekly}, nil
	case "biweekly", "bi-weekly":
		return Rule{Kind: Biweekly}, nil
	case "monthly":
		return Rule{Kind: MonthlySameDay}, nil
	case "quarterly":
		return Rule{Kind: Quarterly}, nil
	case "yearly", "annually":
		return Rule{Kind: Yearly}, nil
	}
	return Rule{}, fmt.Errorf("unknown recurrence %q", s)
}

// FromName upgrades a plain monthly rule using an "(ordinal weekday)"
// phrase embedded in the task's display name. This is an import-time
// convenience only; the stored rule stays authoritative. Multiple phrases
// that disagree make the schedule unresolvable.
func FromName(name string, base Rule) (Rule, error) {
	if base.Kind != MonthlySameDay {
		return base, nil
	}
	matches := phraseRe.FindAllStringSubmatch(name, -1)
	var found *Rule
	for _, m := range matches {
		ord, err := clock.ParseOrdinal(m[1])
		if err != nil {
			continue // not a recurrence phrase, e.g. "(home)"
		}
		wd, err := clock.ParseWeekday(m[2])
		if err != nil {
			continue
		}
		r := Rule{Kind: MonthlyNthWeekday, Weekday: wd, Ordinal: ord}
		if found != nil && *found != r {
			return Rule{}, fmt.Errorf("%w: %q", ErrAmbiguousPattern, name)
		}
		found = &r
	}
	if found != nil {
		return *found, nil
	}
	return base, nil
}

// Next computes the due date following current for this rule. The result
// is strictly later than current for every recurring kind.
func (r Rule) Next(current clock.Date) (clock.Date, error) {
	switch r.Kind {
	case None:
		return clock.Date{}, ErrNone
	case Daily:
		return current.AddDays(1), nil
	case Weekly:
		return current.AddDays(7), nil
	case Biweekly:
		return current.AddDays(14), nil
	case MonthlySameDay:
		return current.AddMonths(1), nil
	case MonthlyNthWeekday:
		// Always the following month's occurrence; recurrence never
		// re-selects the current period.
		anchor := clock.Date{Year: current.Year, Month: current.Month, Day: 1}.AddMonths(1)
		return clock.NthWeekdayOfMonth(anchor.Year, anchor.Month, r.Weekday, r.Ordinal)
	case Quarterly:
		return current.AddMonths(3), nil
	case Yearly:
		return current.AddYears(1), nil
	}
	return clock.Date{}, fmt.Errorf("unknown recurrence kind %d", r.Kind)
}
