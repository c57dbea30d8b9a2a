// Package events labels calendar events by their temporal relation to a
// reference instant. Interval semantics are half-open: an event starting
// exactly now is already NOW, an event ending exactly now is DONE.
package events

import (
	"encoding/json"
	"sort"
	"time"
)

// SoonWindow is how far ahead an upcoming event counts as imminent.
const SoonWindow = 30 * time.Minute

// Event is a read-only calendar event from the external collaborator.
type Event struct {
	Title  string    `json:"title"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"all_day,omitempty"`
}

// Class is the temporal relation of an event to now.
type Class string

const (
	ClassDone  Class = "DONE"  // end <= now
	ClassNow   Class = "NOW"   // start <= now < end
	ClassSoon  Class = "SOON"  // starts within SoonWindow
	ClassLater Class = "LATER" // starts after SoonWindow
)

// Classified pairs an event with its class and the relevant delta:
// elapsed time for NOW, countdown for SOON and LATER, zero for DONE.
type Classified struct {
	Event
	Class Class         `json:"class"`
	Delta time.Duration `json:"-"`
}

// MarshalJSON reports the delta in whole seconds; a raw time.Duration
// would serialize as nanoseconds.
func (c Classified) MarshalJSON() ([]byte, error) {
	type alias Classified
	return json.Marshal(struct {
		alias
		DeltaSeconds int64 `json:"delta_seconds,omitempty"`
	}{alias(c), int64(c.Delta.Seconds())})
}

// Classify labels one event against now.
func Classify(ev Event, now time.Time) Classified {
	c := Classified{Event: ev}
	switch {
	case !ev.End.After(now):
		c.Class = ClassDone
	case !ev.Start.After(now):
		c.Class = ClassNow
		c.Delta = now.Sub(ev.Start)
	case ev.Start.Sub(now) <= SoonWindow:
		c.Class = ClassSoon
		c.Delta = ev.Start.Sub(now)
	default:
		c.Class = ClassLater
		c.Delta = ev.Start.Sub(now)
	}
	return c
}

// ClassifyAll labels every event independently and returns them in
// chronological order of start, ties broken by title.
func ClassifyAll(evs []Event, now time.Time) []Classified {
	out := make([]Classified, 0, len(evs))
	for _, ev := range evs {
		out = append(out, Classify(ev, now))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].Title < out[j].Title
	})
	return out
}
