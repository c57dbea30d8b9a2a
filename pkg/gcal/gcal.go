// Package gcal reads events from the Google Calendar API. This subsystem
// never writes events; the calendar stays an external, read-only
// collaborator.
package gcal

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/calendar/v3"

	"pwkm/pkg/auth"
	"pwkm/pkg/events"
	applog "pwkm/pkg/log"
)

// Client queries one calendar for events in a time range.
type Client struct {
	srv        *calendar.Service
	calendarID string
	loc        *time.Location
}

// NewClient builds an authenticated client for the given calendar ID
// ("primary" is the account's default calendar).
func NewClient(ctx context.Context, calendarID string, loc *time.Location) (*Client, error) {
	srv, err := auth.CalendarService(ctx)
	if err != nil {
		return nil, err
	}
	return &Client{srv: srv, calendarID: calendarID, loc: loc}, nil
}

// Events returns the calendar's events with start in [start, end),
// recurring events expanded to single instances, ordered by start time.
func (c *Client) Events(ctx context.Context, start, end time.Time) ([]events.Event, error) {
	res, err := c.srv.Events.List(c.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("listing events from %s: %w", c.calendarID, err)
	}

	out := make([]events.Event, 0, len(res.Items))
	for _, item := range res.Items {
		ev, err := c.convert(item)
		if err != nil {
			applog.Error("skipping unparseable event", err, "id", item.Id)
			continue
		}
		out = append(out, ev)
	}
	return out, nil
}

func (c *Client) convert(item *calendar.Event) (events.Event, error) {
	title := item.Summary
	if title == "" {
		title = "(no title)"
	}
	ev := events.Event{Title: title}

	start, allDay, err := parseEventTime(item.Start, c.loc)
	if err != nil {
		return events.Event{}, fmt.Errorf("start: %w", err)
	}
	end, _, err := parseEventTime(item.End, c.loc)
	if err != nil {
		return events.Event{}, fmt.Errorf("end: %w", err)
	}
	ev.Start = start
	ev.End = end
	ev.AllDay = allDay
	return ev, nil
}

// parseEventTime handles both timed (dateTime) and all-day (date) fields.
func parseEventTime(edt *calendar.EventDateTime, loc *time.Location) (time.Time, bool, error) {
	if edt == nil {
		return time.Time{}, false, fmt.Errorf("missing event time")
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, false, err
		}
		return t.In(loc), false, nil
	}
	if edt.Date != "" {
		t, err := time.ParseInLocation("2006-01-02", edt.Date, loc)
		if err != nil {
			return time.Time{}, false, err
		}
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("event time has neither dateTime nor date")
}
