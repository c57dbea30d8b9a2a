package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pwkm/pkg/clock"
	"pwkm/pkg/config"
	"pwkm/pkg/events"
	"pwkm/pkg/gcal"
	"pwkm/pkg/ics"
	"pwkm/pkg/startup"
)

// eventSource picks the calendar backend: an ICS subscription when one
// is configured (or forced), the Google Calendar API otherwise.
func eventSource(ctx context.Context, cfg *config.Config, clk *clock.Clock, source string) (startup.EventSource, error) {
	switch source {
	case "ics":
		if cfg.ICSURL == "" {
			return nil, fmt.Errorf("no ICS URL configured (set %s or ics_url)", config.EnvICSURL)
		}
		return ics.NewClient(cfg.ICSURL, clk.Location()), nil
	case "gcal":
		return gcal.NewClient(ctx, cfg.Calendar, clk.Location())
	case "", "auto":
		if cfg.ICSURL != "" {
			return ics.NewClient(cfg.ICSURL, clk.Location()), nil
		}
		return gcal.NewClient(ctx, cfg.Calendar, clk.Location())
	}
	return nil, fmt.Errorf("unknown event source %q: want auto, gcal or ics", source)
}

// resolveWindow maps scope arguments to a half-open [start, end) window.
// Accepted forms: today (default), tomorrow, today+tomorrow, week, an
// explicit date, or an inclusive date range.
func resolveWindow(args []string, today clock.Date, loc *time.Location) (time.Time, time.Time, string, error) {
	if len(args) == 0 {
		args = []string{"today"}
	}
	if len(args) == 2 {
		from, err := clock.ParseDate(args[0])
		if err != nil {
			return time.Time{}, time.Time{}, "", err
		}
		to, err := clock.ParseDate(args[1])
		if err != nil {
			return time.Time{}, time.Time{}, "", err
		}
		if to.Before(from) {
			return time.Time{}, time.Time{}, "", fmt.Errorf("range end %s precedes start %s", to, from)
		}
		label := fmt.Sprintf("%s to %s", from, to)
		return from.Time(loc), to.AddDays(1).Time(loc), label, nil
	}
	switch args[0] {
	case "today":
		return today.Time(loc), today.AddDays(1).Time(loc), "today", nil
	case "tomorrow":
		d := today.AddDays(1)
		return d.Time(loc), d.AddDays(1).Time(loc), "tomorrow", nil
	case "today+tomorrow":
		return today.Time(loc), today.AddDays(2).Time(loc), "today and tomorrow", nil
	case "week":
		return today.Time(loc), today.AddDays(7).Time(loc), "the next 7 days", nil
	}
	d, err := clock.ParseDate(args[0])
	if err != nil {
		return time.Time{}, time.Time{}, "", fmt.Errorf("unknown scope %q: want today, tomorrow, today+tomorrow, week, or a date", args[0])
	}
	return d.Time(loc), d.AddDays(1).Time(loc), d.String(), nil
}

func eventsCmd() *cobra.Command {
	var classify bool
	var source string

	cmd := &cobra.Command{
		Use:   "events [SCOPE | DATE | FROM TO]",
		Short: "List calendar events for a scope (default today)",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, clk, err := loadEnv()
			if err != nil {
				return err
			}
			now := clk.Now()
			start, end, label, err := resolveWindow(args, clock.DateOf(now), clk.Location())
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), startup.DefaultCalendarTimeout)
			defer cancel()
			src, err := eventSource(ctx, cfg, clk, source)
			if err != nil {
				return err
			}
			evs, err := src.Events(ctx, start, end)
			if err != nil {
				return fmt.Errorf("fetch events: %w", err)
			}
			classified := events.ClassifyAll(evs, now)

			if jsonOutput {
				return printJSON(map[string]any{
					"scope":  label,
					"start":  start,
					"end":    end,
					"now":    now,
					"events": classified,
				})
			}
			if len(classified) == 0 {
				fmt.Printf("No events for %s.\n", label)
				return nil
			}
			printEvents(classified, classify, clk.Location())
			return nil
		},
	}
	cmd.Flags().BoolVar(&classify, "classify", false, "label each event DONE/NOW/SOON/LATER against the current instant")
	cmd.Flags().StringVar(&source, "source", "auto", "calendar backend: auto, gcal or ics")
	return cmd
}

// printEvents writes events grouped by day, one compact line each.
func printEvents(evs []events.Classified, classify bool, loc *time.Location) {
	var day clock.Date
	for _, ev := range evs {
		d := clock.DateOf(ev.Start.In(loc))
		if d != day {
			day = d
			fmt.Printf("%s (%s)\n", d, d.Weekday())
		}
		when := fmt.Sprintf("%s-%s",
			ev.Start.In(loc).Format("15:04"), ev.End.In(loc).Format("15:04"))
		if ev.AllDay {
			when = "all day    "
		}
		line := fmt.Sprintf("  %s  %s", when, ev.Title)
		if classify {
			line += "  [" + string(ev.Class) + eventDelta(ev) + "]"
		}
		fmt.Println(line)
	}
}

func eventDelta(ev events.Classified) string {
	mins := int(ev.Delta.Minutes())
	switch ev.Class {
	case events.ClassNow:
		return fmt.Sprintf(", %d min in", mins)
	case events.ClassSoon:
		return fmt.Sprintf(", in %d min", mins)
	case events.ClassLater:
		if mins >= 120 {
			return fmt.Sprintf(", in %.1f h", ev.Delta.Hours())
		}
		return fmt.Sprintf(", in %d min", mins)
	}
	return ""
}
