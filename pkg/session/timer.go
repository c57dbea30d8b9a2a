// Package session tracks process-external session state: minutes elapsed
// since the last context-preserving note was written, and whether a
// weekly or monthly audit is due. State lives in JSON files in a state
// directory so it survives across invocations; a missing file is the
// valid "no session yet" state, never an error.
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

// ThresholdMinutes is how long the running summary may go without an
// update before the timer reports overdue.
const ThresholdMinutes = 30

const timerFileName = "session_timer_state.json"

// Timer enforces the elapsed-time clock. State is loaded at the start of
// each operation and saved at the end; nothing is held across calls.
type Timer struct {
	path string
	now  func() time.Time
}

// NewTimer stores state under dir and reads the wall clock through clk.
func NewTimer(dir string, clk *clock.Clock) *Timer {
	return &Timer{path: filepath.Join(dir, timerFileName), now: clk.Now}
}

type timerState struct {
	SessionStart time.Time `json:"session_start"`
	LastUpdate   time.Time `json:"last_update"`
	UpdateCount  int       `json:"update_count"`
}

// CheckStatus is the result of a pure timer read.
type CheckStatus struct {
	Initialized        bool      `json:"initialized"`
	Now                time.Time `json:"now"`
	SessionStart       time.Time `json:"session_start,omitempty"`
	LastUpdate         time.Time `json:"last_update,omitempty"`
	MinutesSinceStart  int       `json:"minutes_since_start"`
	MinutesSinceUpdate int       `json:"minutes_since_update"`
	Overdue            bool      `json:"overdue"`
	UpdateCount        int       `json:"update_count"`
	ThresholdMinutes   int       `json:"threshold_minutes"`
}

// Start begins a new session: session_start and last_update both become
// now and the update counter resets.
func (t *Timer) Start() (time.Time, error) {
	now := t.now()
	st := timerState{SessionStart: now, LastUpdate: now}
	if err := writeJSON(t.path, st); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// StartIfNeeded starts a session only when none exists. Returns the
// session start time and whether a new session was created.
func (t *Timer) StartIfNeeded() (time.Time, bool, error) {
	st, ok, err := t.load()
	if err != nil {
		return time.Time{}, false, err
	}
	if ok {
		return st.SessionStart, false, nil
	}
	started, err := t.Start()
	return started, true, err
}

// Update records a running-summary update. last_update advances
// monotonically; it never rolls backward even under clock skew. Missing
// state starts a session implicitly.
type UpdateResult struct {
	Now              time.Time `json:"now"`
	MinutesSinceLast int       `json:"minutes_since_last"`
	UpdateCount      int       `json:"update_count"`
	SessionStarted   bool      `json:"session_started"`
}

func (t *Timer) Update() (UpdateResult, error) {
	now := t.now()
	st, ok, err := t.load()
	if err != nil {
		return UpdateResult{}, err
	}
	res := UpdateResult{Now: now}
	if !ok {
		st = timerState{SessionStart: now, LastUpdate: now}
		res.SessionStarted = true
	}
	res.MinutesSinceLast = minutesBetween(st.LastUpdate, now)
	if now.After(st.LastUpdate) {
		st.LastUpdate = now
	}
	st.UpdateCount++
	res.UpdateCount = st.UpdateCount
	if err := writeJSON(t.path, st); err != nil {
		return UpdateResult{}, err
	}
	return res, nil
}

// Check reads the timer without mutating anything; safe to call
// arbitrarily often.
func (t *Timer) Check() (CheckStatus, error) {
	now := t.now()
	status := CheckStatus{Now: now, ThresholdMinutes: ThresholdMinutes}
	st, ok, err := t.load()
	if err != nil {
		return CheckStatus{}, err
	}
	if !ok {
		return status, nil
	}
	status.Initialized = true
	status.SessionStart = st.SessionStart
	status.LastUpdate = st.LastUpdate
	status.MinutesSinceStart = minutesBetween(st.SessionStart, now)
	status.MinutesSinceUpdate = minutesBetween(st.LastUpdate, now)
	status.Overdue = status.MinutesSinceUpdate >= ThresholdMinutes
	status.UpdateCount = st.UpdateCount
	return status, nil
}

func (t *Timer) load() (timerState, bool, error) {
	var st timerState
	data, err := os.ReadFile(t.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, false, nil
		}
		return st, false, fmt.Errorf("read timer state: %w", err)
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, false, fmt.Errorf("parse timer state %s: %w", t.path, err)
	}
	if st.SessionStart.IsZero() {
		return st, false, nil
	}
	return st, true, nil
}

func minutesBetween(from, to time.Time) int {
	d := to.Sub(from)
	if d < 0 {
		return 0
	}
	return int(d.Minutes())
}

// writeJSON writes state atomically: temp file in the same directory,
// then rename over the target.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
