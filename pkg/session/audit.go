package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pwkm/pkg/clock"
)

const auditFileName = "audit_state.json"

// Audit tracks when the weekly audit and monthly idea review were last
// performed. Timestamps are written only by an explicit Done
// acknowledgment, never inferred.
type Audit struct {
	path string
	now  func() time.Time
}

// NewAudit stores state under dir (a sibling file of the timer state).
func NewAudit(dir string, clk *clock.Clock) *Audit {
	return &Audit{path: filepath.Join(dir, auditFileName), now: clk.Now}
}

type auditState struct {
	LastWeeklyAudit   clock.Date `json:"last_weekly_audit,omitempty"`
	LastMonthlyReview clock.Date `json:"last_monthly_review,omitempty"`
}

// AuditStatus reports whether the periodic reviews are due.
type AuditStatus struct {
	Today            clock.Date `json:"today"`
	Weekday          string     `json:"weekday"`
	WeeklyDue        bool       `json:"weekly_audit_needed"`
	DaysSinceWeekly  int        `json:"days_since_weekly_audit"`
	WeeklyEverDone   bool       `json:"weekly_ever_done"`
	MonthlyDue       bool       `json:"monthly_review_needed"`
	IsFirstWeek      bool       `json:"is_first_week"`
	MonthlyEverDone  bool       `json:"monthly_ever_done"`
	LastWeeklyAudit  clock.Date `json:"last_weekly_audit,omitempty"`
	LastMonthly      clock.Date `json:"last_monthly_review,omitempty"`
}

// Check is a pure read. The weekly audit is due when none is recorded for
// the current ISO week; the monthly review is due when none is recorded
// for the current calendar month and today is within the first 7 days.
func (a *Audit) Check() (AuditStatus, error) {
	today := clock.DateOf(a.now())
	status := AuditStatus{
		Today:       today,
		Weekday:     today.Weekday().String(),
		IsFirstWeek: today.Day <= 7,
	}

	st, ok, err := a.load()
	if err != nil {
		return AuditStatus{}, err
	}

	if ok && !st.LastWeeklyAudit.IsZero() {
		status.WeeklyEverDone = true
		status.LastWeeklyAudit = st.LastWeeklyAudit
		status.DaysSinceWeekly = st.LastWeeklyAudit.DaysUntil(today)
		ly, lw := st.LastWeeklyAudit.ISOWeek()
		ty, tw := today.ISOWeek()
		status.WeeklyDue = ly != ty || lw != tw
	} else {
		status.WeeklyDue = true
	}

	if ok && !st.LastMonthlyReview.IsZero() {
		status.MonthlyEverDone = true
		status.LastMonthly = st.LastMonthlyReview
		sameMonth := st.LastMonthlyReview.Year == today.Year && st.LastMonthlyReview.Month == today.Month
		status.MonthlyDue = status.IsFirstWeek && !sameMonth
	} else {
		status.MonthlyDue = status.IsFirstWeek
	}

	return status, nil
}

// Done records completion of the weekly audit as of today; with monthly
// set, the monthly idea review is recorded too.
func (a *Audit) Done(monthly bool) (AuditStatus, error) {
	today := clock.DateOf(a.now())
	st, _, err := a.load()
	if err != nil {
		return AuditStatus{}, err
	}
	st.LastWeeklyAudit = today
	if monthly {
		st.LastMonthlyReview = today
	}
	if err := writeJSON(a.path, st); err != nil {
		return AuditStatus{}, err
	}
	return a.Check()
}

func (a *Audit) load() (auditState, bool, error) {
	var st auditState
	data, err := os.ReadFile(a.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, false, nil
		}
		return st, false, fmt.Errorf("read audit state: %w", err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, false, fmt.Errorf("parse audit state %s: %w", a.path, err)
	}
	return st, true, nil
}
