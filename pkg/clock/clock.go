// Package clock provides timezone-aware "now" and calendar-date arithmetic
// for the rest of the toolkit. All date math operates on civil dates
// (year/month/day, no time component) so month and DST boundaries cannot
// shift a due date.
package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultTimezone is used when LOCAL_TIMEZONE and the config file are both silent.
const DefaultTimezone = "America/New_York"

// ErrInvalidTimezone means the configured IANA zone name could not be
// resolved. Everything downstream depends on the zone, so callers treat
// this as fatal.
var ErrInvalidTimezone = errors.New("invalid timezone")

// Clock resolves the configured timezone once and answers all "what time
// is it" questions in that zone.
type Clock struct {
	loc *time.Location
}

// New resolves tzName (IANA identifier, e.g. "America/New_York"). An empty
// name falls back to DefaultTimezone.
func New(tzName string) (*Clock, error) {
	if tzName == "" {
		tzName = DefaultTimezone
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, tzName, err)
	}
	return &Clock{loc: loc}, nil
}

// NewFixed wraps an already-resolved location. Used by tests.
func NewFixed(loc *time.Location) *Clock {
	return &Clock{loc: loc}
}

func (c *Clock) Location() *time.Location { return c.loc }

// Now returns the current instant in the configured zone.
func (c *Clock) Now() time.Time { return time.Now().In(c.loc) }

// Today returns the current civil date in the configured zone.
func (c *Clock) Today() Date { return DateOf(c.Now()) }

// Date is a civil calendar date with no time component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses an ISO-8601 date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return DateOf(t), nil
}

// DateOf truncates an instant to its civil date in the instant's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (d Date) IsZero() bool { return d == Date{} }

// MarshalJSON renders the date as an ISO-8601 string; the zero date
// marshals as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Time returns midnight of the date in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) After(o Date) bool { return o.Before(d) }

func (d Date) Equal(o Date) bool { return d == o }

// AddDays returns the date n calendar days later (earlier for negative n).
func (d Date) AddDays(n int) Date {
	// time.Date normalizes out-of-range days.
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC))
}

// AddMonths returns the date n calendar months later, clamping the
// day-of-month to the last valid day of the target month (Jan 31 + 1
// month is Feb 28 or 29, never Mar 3).
func (d Date) AddMonths(n int) Date {
	months := d.Year*12 + int(d.Month) - 1 + n
	year := months / 12
	month := time.Month(months%12 + 1)
	day := d.Day
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return Date{Year: year, Month: month, Day: day}
}

// AddYears returns the date n calendar years later, clamping Feb 29 to
// Feb 28 in non-leap targets.
func (d Date) AddYears(n int) Date {
	year := d.Year + n
	day := d.Day
	if last := DaysInMonth(year, d.Month); day > last {
		day = last
	}
	return Date{Year: year, Month: d.Month, Day: day}
}

// DaysUntil returns o minus d in whole days (negative if o is earlier).
func (d Date) DaysUntil(o Date) int {
	return int(o.Time(time.UTC).Sub(d.Time(time.UTC)).Hours() / 24)
}

// ISOWeek returns the ISO 8601 year and week number of the date.
func (d Date) ISOWeek() (int, int) {
	return d.Time(time.UTC).ISOWeek()
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// Ordinal selects which occurrence of a weekday within a month.
type Ordinal int

const (
	First  Ordinal = 1
	Second Ordinal = 2
	Third  Ordinal = 3
	Fourth Ordinal = 4
	Last   Ordinal = -1
)

func (o Ordinal) String() string {
	switch o {
	case First:
		return "first"
	case Second:
		return "second"
	case Third:
		return "third"
	case Fourth:
		return "fourth"
	case Last:
		return "last"
	}
	return fmt.Sprintf("ordinal(%d)", int(o))
}

// NthWeekdayOfMonth resolves e.g. "first Saturday of February 2026".
// Last scans backward from month-end.
func NthWeekdayOfMonth(year int, month time.Month, wd time.Weekday, ord Ordinal) (Date, error) {
	if ord == Last {
		for day := DaysInMonth(year, month); day >= 1; day-- {
			d := Date{Year: year, Month: month, Day: day}
			if d.Weekday() == wd {
				return d, nil
			}
		}
		// Unreachable: every month contains every weekday.
		return Date{}, fmt.Errorf("no %s in %04d-%02d", wd, year, month)
	}
	if ord < First || ord > Fourth {
		return Date{}, fmt.Errorf("invalid ordinal %d: want 1..4 or last", ord)
	}
	first := Date{Year: year, Month: month, Day: 1}
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	day := 1 + offset + 7*(int(ord)-1)
	if day > DaysInMonth(year, month) {
		return Date{}, fmt.Errorf("no %s %s in %04d-%02d", ord, wd, year, month)
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// NextWeekday returns the next occurrence of wd strictly after from. If
// from itself falls on wd, the result is one week later.
func NextWeekday(from Date, wd time.Weekday) Date {
	ahead := (int(wd) - int(from.Weekday()) + 7) % 7
	if ahead == 0 {
		ahead = 7
	}
	return from.AddDays(ahead)
}

// ParseWeekday accepts full English weekday names or unambiguous
// three-letter prefixes, case-insensitively.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if len(n) > 3 {
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			if n == strings.ToLower(wd.String()) {
				return wd, nil
			}
		}
		return 0, fmt.Errorf("invalid weekday %q", name)
	}
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		if n == strings.ToLower(wd.String()[:3]) {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", name)
}

// ParseOrdinal accepts "first".."fourth", "1st".."4th" and "last".
func ParseOrdinal(s string) (Ordinal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "first", "1st":
		return First, nil
	case "second", "2nd":
		return Second, nil
	case "third", "3rd":
		return Third, nil
	case "fourth", "4th":
		return Fourth, nil
	case "last":
		return Last, nil
	}
	return 0, fmt.Errorf("invalid ordinal %q", s)
}
