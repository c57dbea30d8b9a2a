package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func fixedTimer(dir string, at time.Time) *Timer {
	return &Timer{path: filepath.Join(dir, timerFileName), now: func() time.Time { return at }}
}

func (t *Timer) setNow(at time.Time) {
	t.now = func() time.Time { return at }
}

var base = time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

func TestCheckUninitialized(t *testing.T) {
	tm := fixedTimer(t.TempDir(), base)
	status, err := tm.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status.Initialized {
		t.Error("expected uninitialized status with no state file")
	}
	if status.Overdue {
		t.Error("a fresh session has no timer to violate")
	}
}

func TestOverdueThreshold(t *testing.T) {
	tm := fixedTimer(t.TempDir(), base)
	if _, err := tm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// 09:25, not overdue yet.
	tm.setNow(base.Add(25 * time.Minute))
	status, err := tm.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status.Overdue {
		t.Error("25 minutes must not be overdue")
	}
	if status.MinutesSinceUpdate != 25 {
		t.Errorf("expected 25 minutes, got %d", status.MinutesSinceUpdate)
	}

	// 09:31, past the threshold.
	tm.setNow(base.Add(31 * time.Minute))
	status, err = tm.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !status.Overdue {
		t.Error("31 minutes must be overdue")
	}

	// Exactly 30 minutes is already overdue (>= threshold).
	tm.setNow(base.Add(30 * time.Minute))
	status, err = tm.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !status.Overdue {
		t.Error("30 minutes must be overdue")
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	tm := fixedTimer(dir, base)
	if _, err := tm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	before, err := os.ReadFile(filepath.Join(dir, timerFileName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	tm.setNow(base.Add(10 * time.Minute))
	for i := 0; i < 5; i++ {
		if _, err := tm.Check(); err != nil {
			t.Fatalf("Check: %v", err)
		}
	}

	after, err := os.ReadFile(filepath.Join(dir, timerFileName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(before) != string(after) {
		t.Error("Check mutated the state file")
	}
}

func TestUpdateAdvancesAndCounts(t *testing.T) {
	tm := fixedTimer(t.TempDir(), base)
	if _, err := tm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tm.setNow(base.Add(12 * time.Minute))
	res, err := tm.Update()
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.MinutesSinceLast != 12 || res.UpdateCount != 1 {
		t.Errorf("unexpected update result: %+v", res)
	}

	tm.setNow(base.Add(20 * time.Minute))
	status, err := tm.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if status.MinutesSinceUpdate != 8 {
		t.Errorf("expected 8 minutes since update, got %d", status.MinutesSinceUpdate)
	}
	if status.MinutesSinceStart != 20 {
		t.Errorf("expected 20 minutes since start, got %d", status.MinutesSinceStart)
	}
}

func TestUpdateWithoutSessionStartsOne(t *testing.T) {
	tm := fixedTimer(t.TempDir(), base)
	res, err := tm.Update()
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !res.SessionStarted {
		t.Error("expected an implicit session start")
	}
	status, err := tm.Check()
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if !status.Initialized {
		t.Error("expected session to exist after Update")
	}
}

func TestUpdateNeverRollsBackward(t *testing.T) {
	tm := fixedTimer(t.TempDir(), base)
	if _, err := tm.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Clock skew: an update with an earlier wall clock keeps last_update.
	tm.setNow(base.Add(-5 * time.Minute))
	if _, err := tm.Update(); err != nil {
		t.Fatalf("Update: %v", err)
	}
	st, ok, err := tm.load()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if st.LastUpdate.Before(base) {
		t.Errorf("last_update rolled backward to %s", st.LastUpdate)
	}
}

func TestStartIfNeeded(t *testing.T) {
	tm := fixedTimer(t.TempDir(), base)

	_, created, err := tm.StartIfNeeded()
	if err != nil {
		t.Fatalf("StartIfNeeded: %v", err)
	}
	if !created {
		t.Error("expected a new session")
	}

	tm.setNow(base.Add(time.Hour))
	started, created, err := tm.StartIfNeeded()
	if err != nil {
		t.Fatalf("StartIfNeeded: %v", err)
	}
	if created {
		t.Error("existing session must be left untouched")
	}
	if !started.Equal(base) {
		t.Errorf("expected original session start %s, got %s", base, started)
	}
}
