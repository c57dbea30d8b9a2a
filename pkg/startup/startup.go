// Package startup composes the time service, task store, event
// classifier, and session timer into one consolidated report. Sections
// are independently fallible: the calendar collaborator being down
// degrades the report, while a corrupt task store fails it outright,
// since missing task data cannot be represented as "no tasks".
package startup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pwkm/pkg/clock"
	"pwkm/pkg/events"
	applog "pwkm/pkg/log"
	"pwkm/pkg/session"
	"pwkm/pkg/tasks"
)

// EventSource is the boundary to the external calendar collaborator.
type EventSource interface {
	Events(ctx context.Context, start, end time.Time) ([]events.Event, error)
}

// DefaultCalendarTimeout bounds the calendar round trip.
const DefaultCalendarTimeout = 15 * time.Second

// Scope selects the calendar query window.
type Scope string

const (
	ScopeToday         Scope = "today"
	ScopeTodayTomorrow Scope = "today+tomorrow"
	ScopeWeek          Scope = "week"
)

// ParseScope validates a scope flag value.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeToday, ScopeTodayTomorrow, ScopeWeek:
		return Scope(s), nil
	}
	return "", fmt.Errorf("invalid calendar scope %q: want today, today+tomorrow or week", s)
}

// Days returns the window length in days.
func (s Scope) Days() int {
	switch s {
	case ScopeTodayTomorrow:
		return 2
	case ScopeWeek:
		return 7
	default:
		return 1
	}
}

// Range resolves the scope to a half-open [start, end) window anchored
// at midnight of the given day.
func (s Scope) Range(today clock.Date, loc *time.Location) (time.Time, time.Time) {
	start := today.Time(loc)
	return start, today.AddDays(s.Days()).Time(loc)
}

// Options configures one orchestrator run.
type Options struct {
	Clock           *clock.Clock
	TasksPath       string
	StateDir        string
	Source          EventSource // may be nil when SkipCalendar is set
	SourceErr       error       // calendar backend construction failure; degrades the section
	SkipCalendar    bool
	Scope           Scope
	CalendarTimeout time.Duration

	// now overrides the wall clock in tests.
	now func() time.Time
}

// CalendarSection holds classified events, or the reason the step was
// skipped or failed.
type CalendarSection struct {
	OK      bool                `json:"ok"`
	Skipped bool                `json:"skipped"`
	Reason  string              `json:"reason,omitempty"`
	Scope   Scope               `json:"scope"`
	Events  []events.Classified `json:"events,omitempty"`
}

// AuditSection wraps the audit check, which may fail independently.
type AuditSection struct {
	OK     bool                `json:"ok"`
	Reason string              `json:"reason,omitempty"`
	Status session.AuditStatus `json:"status"`
}

// TimerSection reports the session timer state after the run.
type TimerSection struct {
	OK           bool      `json:"ok"`
	Reason       string    `json:"reason,omitempty"`
	Started      bool      `json:"started"` // true when this run created the session
	SessionStart time.Time `json:"session_start,omitempty"`
}

// Report is the aggregate startup report. Partial is set whenever any
// section degraded, so a partial report is never presented as complete.
type Report struct {
	Timestamp time.Time          `json:"timestamp"`
	Weekday   string             `json:"weekday"`
	Today     clock.Date         `json:"today"`
	Calendar  CalendarSection    `json:"calendar"`
	Tasks     tasks.StatusReport `json:"tasks"`
	Audit     AuditSection       `json:"audit"`
	Timer     TimerSection       `json:"timer"`
	Partial   bool               `json:"partial"`
}

// Run executes the startup sequence. The returned error is non-nil only
// for fatal conditions (task store failure); every other problem is
// recorded in the report itself.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Scope == "" {
		opts.Scope = ScopeToday
	}
	if opts.CalendarTimeout <= 0 {
		opts.CalendarTimeout = DefaultCalendarTimeout
	}
	nowFn := opts.now
	if nowFn == nil {
		nowFn = opts.Clock.Now
	}

	now := nowFn()
	today := clock.DateOf(now)
	rep := &Report{
		Timestamp: now,
		Weekday:   today.Weekday().String(),
		Today:     today,
	}

	// Task store failure is fatal: partial task data must never be
	// silently treated as complete.
	store, err := tasks.Load(opts.TasksPath)
	if err != nil {
		return nil, fmt.Errorf("task status step: %w", err)
	}
	rep.Tasks = store.Status(today)

	rep.Calendar = calendarSection(ctx, opts, today, now)
	if !rep.Calendar.OK {
		rep.Partial = true
	}

	audit := session.NewAudit(opts.StateDir, opts.Clock)
	status, err := audit.Check()
	if err != nil {
		applog.Error("audit check failed", err)
		rep.Audit = AuditSection{Reason: err.Error()}
		rep.Partial = true
	} else {
		rep.Audit = AuditSection{OK: true, Status: status}
	}

	timer := session.NewTimer(opts.StateDir, opts.Clock)
	startedAt, created, err := timer.StartIfNeeded()
	if err != nil {
		applog.Error("session timer start failed", err)
		rep.Timer = TimerSection{Reason: err.Error()}
		rep.Partial = true
	} else {
		rep.Timer = TimerSection{OK: true, Started: created, SessionStart: startedAt}
	}

	return rep, nil
}

func calendarSection(ctx context.Context, opts Options, today clock.Date, now time.Time) CalendarSection {
	sec := CalendarSection{Scope: opts.Scope}

	if opts.SkipCalendar {
		sec.Skipped = true
		sec.OK = true // an explicit skip is not a failure
		sec.Reason = "calendar step skipped"
		return sec
	}
	// A backend that could not even be constructed is a failure, not a
	// skip: the report must not look like the user asked for this.
	if opts.SourceErr != nil {
		sec.Reason = fmt.Sprintf("calendar source unavailable: %v", opts.SourceErr)
		applog.Error("calendar step degraded", opts.SourceErr, "scope", string(opts.Scope))
		return sec
	}
	if opts.Source == nil {
		sec.Reason = "no calendar source configured"
		return sec
	}

	start, end := opts.Scope.Range(today, now.Location())
	fetchCtx, cancel := context.WithTimeout(ctx, opts.CalendarTimeout)
	defer cancel()

	evs, err := opts.Source.Events(fetchCtx, start, end)
	if err != nil {
		// A timed-out collaborator is "skipped", never "zero events".
		if errors.Is(err, context.DeadlineExceeded) {
			sec.Skipped = true
			sec.Reason = "calendar request timed out"
		} else {
			sec.Reason = err.Error()
		}
		applog.Error("calendar step degraded", err, "scope", string(opts.Scope))
		return sec
	}

	sec.OK = true
	sec.Events = events.ClassifyAll(evs, now)
	return sec
}
