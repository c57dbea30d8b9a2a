package events

import (
	"encoding/json"
	"testing"
	"time"
)

var now = time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)

func ev(title string, start, end time.Time) Event {
	return Event{Title: title, Start: start, End: end}
}

func TestClassifyBoundaries(t *testing.T) {
	hour := time.Hour
	cases := []struct {
		name string
		ev   Event
		want Class
	}{
		{"ended an hour ago", ev("a", now.Add(-2*hour), now.Add(-hour)), ClassDone},
		{"ends exactly now", ev("b", now.Add(-hour), now), ClassDone},
		{"in progress", ev("c", now.Add(-10*time.Minute), now.Add(hour)), ClassNow},
		{"starts exactly now", ev("d", now, now.Add(hour)), ClassNow},
		{"starts in 10 minutes", ev("e", now.Add(10*time.Minute), now.Add(hour)), ClassSoon},
		{"starts in exactly 30 minutes", ev("f", now.Add(30*time.Minute), now.Add(hour)), ClassSoon},
		{"starts one second past the soon window", ev("g", now.Add(30*time.Minute+time.Second), now.Add(hour)), ClassLater},
		{"starts tomorrow", ev("h", now.Add(24*hour), now.Add(25*hour)), ClassLater},
	}
	for _, tc := range cases {
		got := Classify(tc.ev, now)
		if got.Class != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got.Class)
		}
	}
}

func TestClassifyDeltas(t *testing.T) {
	inProgress := Classify(ev("standup", now.Add(-25*time.Minute), now.Add(time.Hour)), now)
	if inProgress.Delta != 25*time.Minute {
		t.Errorf("NOW delta should be elapsed time, got %s", inProgress.Delta)
	}

	soon := Classify(ev("review", now.Add(12*time.Minute), now.Add(time.Hour)), now)
	if soon.Delta != 12*time.Minute {
		t.Errorf("SOON delta should be the countdown, got %s", soon.Delta)
	}
}

func TestClassifyAllSorted(t *testing.T) {
	evs := []Event{
		ev("late", now.Add(3*time.Hour), now.Add(4*time.Hour)),
		ev("early", now.Add(-2*time.Hour), now.Add(-time.Hour)),
		ev("b-tie", now.Add(time.Hour), now.Add(2*time.Hour)),
		ev("a-tie", now.Add(time.Hour), now.Add(2*time.Hour)),
	}
	got := ClassifyAll(evs, now)
	order := []string{"early", "a-tie", "b-tie", "late"}
	for i, title := range order {
		if got[i].Title != title {
			t.Fatalf("expected order %v, got %v", order, got)
		}
	}
	if got[0].Class != ClassDone || got[3].Class != ClassLater {
		t.Errorf("unexpected classes: first=%s last=%s", got[0].Class, got[3].Class)
	}
}

func TestClassifiedJSONDeltaInSeconds(t *testing.T) {
	c := Classify(ev("standup", now.Add(10*time.Minute), now.Add(40*time.Minute)), now)
	if c.Class != ClassSoon {
		t.Fatalf("class = %s, want SOON", c.Class)
	}

	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := fields["delta_seconds"]; got != float64(600) {
		t.Errorf("delta_seconds = %v, want 600", got)
	}
	if fields["class"] != "SOON" {
		t.Errorf("class field = %v, want SOON", fields["class"])
	}
}

func TestClassifiedJSONOmitsZeroDelta(t *testing.T) {
	c := Classify(ev("retro", now.Add(-2*time.Hour), now.Add(-time.Hour)), now)
	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["delta_seconds"]; ok {
		t.Error("delta_seconds present for a DONE event")
	}
}
