package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pwkm/pkg/startup"
)

func startupCmd() *cobra.Command {
	var skipCalendar bool
	var scopeFlag string
	var source string

	cmd := &cobra.Command{
		Use:   "startup",
		Short: "Run the session startup sequence and print one consolidated report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, clk, err := loadEnv()
			if err != nil {
				return err
			}
			scope, err := startup.ParseScope(scopeFlag)
			if err != nil {
				return err
			}

			opts := startup.Options{
				Clock:        clk,
				TasksPath:    cfg.TasksCSV,
				StateDir:     cfg.StateDir,
				SkipCalendar: skipCalendar,
				Scope:        scope,
			}
			if !skipCalendar {
				// Startup still produces a report when the calendar
				// backend cannot be constructed; the section degrades
				// and the report is marked partial.
				src, err := eventSource(cmd.Context(), cfg, clk, source)
				if err != nil {
					opts.SourceErr = err
				} else {
					opts.Source = src
				}
			}

			rep, err := startup.Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(rep)
			}
			printReport(rep, clk.Location())
			return nil
		},
	}
	cmd.Flags().BoolVar(&skipCalendar, "skip-calendar", false, "skip the calendar step entirely")
	cmd.Flags().StringVar(&scopeFlag, "calendar-scope", string(startup.ScopeToday), "calendar window: today, today+tomorrow or week")
	cmd.Flags().StringVar(&source, "source", "auto", "calendar backend: auto, gcal or ics")
	return cmd
}

func printReport(rep *startup.Report, loc *time.Location) {
	fmt.Printf("=== Startup %s (%s) %s ===\n",
		rep.Today, rep.Weekday, rep.Timestamp.Format("15:04"))
	if rep.Partial {
		fmt.Println("NOTE: this report is PARTIAL; one or more sections degraded.")
	}

	fmt.Println("\n-- Calendar --")
	switch {
	case rep.Calendar.Skipped:
		fmt.Printf("Skipped: %s\n", rep.Calendar.Reason)
	case !rep.Calendar.OK:
		fmt.Printf("FAILED: %s\n", rep.Calendar.Reason)
	case len(rep.Calendar.Events) == 0:
		fmt.Printf("No events for scope %s.\n", rep.Calendar.Scope)
	default:
		printEvents(rep.Calendar.Events, true, loc)
	}

	fmt.Println("\n-- Tasks --")
	printStatusReport(rep.Tasks)

	fmt.Println("\n-- Audit --")
	if rep.Audit.OK {
		printAuditStatus(rep.Audit.Status)
	} else {
		fmt.Printf("FAILED: %s\n", rep.Audit.Reason)
	}

	fmt.Println("\n-- Session timer --")
	switch {
	case !rep.Timer.OK:
		fmt.Printf("FAILED: %s\n", rep.Timer.Reason)
	case rep.Timer.Started:
		fmt.Printf("New session started at %s\n", rep.Timer.SessionStart.Format("15:04:05"))
	default:
		fmt.Printf("Session already running since %s\n", rep.Timer.SessionStart.Format("15:04:05"))
	}
}
