// Package ics reads events from an ICS subscription URL, as an
// alternative to the Google Calendar API for setups without OAuth
// credentials. Recurring VEVENTs are expanded into concrete instances
// within the queried window.
package ics

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"pwkm/pkg/events"
	applog "pwkm/pkg/log"
)

// maxOccurrences caps recurrence expansion per event as a safety net
// against pathological rules.
const maxOccurrences = 1000

// Client fetches and expands a single ICS feed.
type Client struct {
	url    string
	client *http.Client
	loc    *time.Location
}

// NewClient builds a client for the given subscription URL.
func NewClient(url string, loc *time.Location) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: 15 * time.Second},
		loc:    loc,
	}
}

// Events fetches the feed and returns all event instances whose start
// falls in [start, end), converted into the configured timezone.
func (c *Client) Events(ctx context.Context, start, end time.Time) ([]events.Event, error) {
	body, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing ICS feed: %w", err)
	}

	var out []events.Event
	for _, ve := range cal.Events() {
		evs, err := c.expand(ve, start, end)
		if err != nil {
			// One malformed VEVENT must not sink the whole feed.
			applog.Error("skipping unparseable VEVENT", err, "url", c.url)
			continue
		}
		out = append(out, evs...)
	}
	return out, nil
}

func (c *Client) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching ICS feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching ICS feed: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// expand converts one VEVENT into zero or more concrete instances inside
// the window.
func (c *Client) expand(ve *ical.VEvent, rangeStart, rangeEnd time.Time) ([]events.Event, error) {
	title := "(no title)"
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil && p.Value != "" {
		title = p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return nil, fmt.Errorf("VEVENT has no usable DTSTART: %w", err)
	}
	end, err := ve.GetEndAt()
	if err != nil || !end.After(start) {
		// Missing or degenerate DTEND: events without known duration are
		// treated as instantaneous.
		end = start
	}
	allDay := isAllDay(ve)
	duration := end.Sub(start)

	var raw string
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		raw = p.Value
	}

	if raw == "" {
		if start.Before(rangeStart) || !start.Before(rangeEnd) {
			return nil, nil
		}
		return []events.Event{c.instance(title, start, duration, allDay)}, nil
	}

	r, err := rrule.StrToRRule(raw)
	if err != nil {
		return nil, fmt.Errorf("bad RRULE %q: %w", raw, err)
	}
	r.DTStart(start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range exDates(ve, start.Location()) {
		set.ExDate(ex)
	}

	times := set.Between(rangeStart.In(start.Location()), rangeEnd.In(start.Location()), true)
	if len(times) > maxOccurrences {
		applog.Info("truncating recurrence expansion", "url", c.url, "title", title, "cap", maxOccurrences)
		times = times[:maxOccurrences]
	}

	out := make([]events.Event, 0, len(times))
	for _, t := range times {
		if !t.Before(rangeEnd) {
			continue
		}
		out = append(out, c.instance(title, t, duration, allDay))
	}
	return out, nil
}

func (c *Client) instance(title string, start time.Time, duration time.Duration, allDay bool) events.Event {
	start = start.In(c.loc)
	if allDay {
		day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, c.loc)
		return events.Event{Title: title, Start: day, End: day.AddDate(0, 0, 1), AllDay: true}
	}
	return events.Event{Title: title, Start: start, End: start.Add(duration)}
}

// isAllDay checks whether DTSTART carries VALUE=DATE or a bare date form.
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

// exDates collects EXDATE values; the property may repeat and each value
// may carry a comma-separated list.
func exDates(ve *ical.VEvent, loc *time.Location) []time.Time {
	var out []time.Time
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part, loc); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

// parseICSTime parses the basic ICS date / date-time / UTC forms.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
