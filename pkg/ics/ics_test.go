package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pwkm/pkg/events"
)

func feed(lines ...string) string {
	all := append([]string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//pwkm//EN"}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return strings.Join(all, "\r\n")
}

func serveICS(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, time.UTC)
}

func TestEventsSingleAndRecurring(t *testing.T) {
	c := serveICS(t, feed(
		"BEGIN:VEVENT",
		"UID:one@test",
		"DTSTART:20260202T140000Z",
		"DTEND:20260202T150000Z",
		"SUMMARY:Dentist",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:weekly@test",
		"DTSTART:20260105T090000Z",
		"DTEND:20260105T093000Z",
		"RRULE:FREQ=WEEKLY;BYDAY=MO",
		"EXDATE:20260209T090000Z",
		"SUMMARY:Weekly sync",
		"END:VEVENT",
	))

	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 14)
	got, err := c.Events(context.Background(), start, end)
	if err != nil {
		t.Fatalf("Events: %v", err)
	}

	byTitle := map[string][]events.Event{}
	for _, ev := range got {
		byTitle[ev.Title] = append(byTitle[ev.Title], ev)
	}

	dentist := byTitle["Dentist"]
	if len(dentist) != 1 {
		t.Fatalf("Dentist instances = %d, want 1", len(dentist))
	}
	if want := time.Date(2026, 2, 2, 14, 0, 0, 0, time.UTC); !dentist[0].Start.Equal(want) {
		t.Errorf("Dentist start = %v, want %v", dentist[0].Start, want)
	}
	if got := dentist[0].End.Sub(dentist[0].Start); got != time.Hour {
		t.Errorf("Dentist duration = %v, want 1h", got)
	}

	// Mondays in window are Feb 2 and Feb 9; Feb 9 is excluded by EXDATE.
	sync := byTitle["Weekly sync"]
	if len(sync) != 1 {
		t.Fatalf("Weekly sync instances = %d, want 1 (EXDATE not honored?)", len(sync))
	}
	if want := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC); !sync[0].Start.Equal(want) {
		t.Errorf("Weekly sync start = %v, want %v", sync[0].Start, want)
	}
}

func TestEventsAllDay(t *testing.T) {
	c := serveICS(t, feed(
		"BEGIN:VEVENT",
		"UID:allday@test",
		"DTSTART;VALUE=DATE:20260203",
		"DTEND;VALUE=DATE:20260204",
		"SUMMARY:Conference",
		"END:VEVENT",
	))

	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	got, err := c.Events(context.Background(), start, start.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("instances = %d, want 1", len(got))
	}
	ev := got[0]
	if !ev.AllDay {
		t.Error("event not marked all-day")
	}
	if want := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC); !ev.Start.Equal(want) {
		t.Errorf("start = %v, want %v", ev.Start, want)
	}
	if got := ev.End.Sub(ev.Start); got != 24*time.Hour {
		t.Errorf("span = %v, want 24h", got)
	}
}

func TestEventsOutsideWindowExcluded(t *testing.T) {
	c := serveICS(t, feed(
		"BEGIN:VEVENT",
		"UID:past@test",
		"DTSTART:20260101T100000Z",
		"DTEND:20260101T110000Z",
		"SUMMARY:Old",
		"END:VEVENT",
	))

	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	got, err := c.Events(context.Background(), start, start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("instances = %d, want 0", len(got))
	}
}

func TestEventsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.UTC)
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	if _, err := c.Events(context.Background(), start, start.AddDate(0, 0, 1)); err == nil {
		t.Fatal("expected an error on HTTP 403")
	}
}
