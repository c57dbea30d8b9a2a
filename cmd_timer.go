package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pwkm/pkg/session"
)

func newTimer() (*session.Timer, error) {
	cfg, clk, err := loadEnv()
	if err != nil {
		return nil, err
	}
	return session.NewTimer(cfg.StateDir, clk), nil
}

func newAudit() (*session.Audit, error) {
	cfg, clk, err := loadEnv()
	if err != nil {
		return nil, err
	}
	return session.NewAudit(cfg.StateDir, clk), nil
}

func timerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "timer",
		Short: "Track minutes since the last context note",
	}
	cmd.AddCommand(
		timerStartCmd(),
		timerUpdateCmd(),
		timerCheckCmd("check"),
		timerCheckCmd("status"),
	)
	return cmd
}

func timerStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Begin a new session, resetting the timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timer, err := newTimer()
			if err != nil {
				return err
			}
			start, err := timer.Start()
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]any{"session_start": start})
			}
			fmt.Printf("Session started at %s\n", start.Format("15:04:05"))
			return nil
		},
	}
}

func timerUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Record that a context note was just written",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timer, err := newTimer()
			if err != nil {
				return err
			}
			res, err := timer.Update()
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(res)
			}
			if res.SessionStarted {
				fmt.Println("No session was running; started one.")
			}
			fmt.Printf("Timer updated (%d min since last update, update #%d)\n",
				res.MinutesSinceLast, res.UpdateCount)
			return nil
		},
	}
}

func timerCheckCmd(name string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: "Report minutes elapsed since the last update",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			timer, err := newTimer()
			if err != nil {
				return err
			}
			st, err := timer.Check()
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(st)
			}
			if !st.Initialized {
				fmt.Println("No session running. Use 'pwkm timer start'.")
				return nil
			}
			fmt.Printf("Session started %s (%d min ago), %d updates\n",
				st.SessionStart.Format("15:04:05"), st.MinutesSinceStart, st.UpdateCount)
			if st.Overdue {
				fmt.Printf("OVERDUE: %d min since last update (threshold %d)\n",
					st.MinutesSinceUpdate, st.ThresholdMinutes)
			} else {
				fmt.Printf("%d min since last update; %d min remaining\n",
					st.MinutesSinceUpdate, st.ThresholdMinutes-st.MinutesSinceUpdate)
			}
			return nil
		},
	}
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Weekly audit and monthly review bookkeeping",
	}
	cmd.AddCommand(auditCheckCmd(), auditDoneCmd())
	return cmd
}

func printAuditStatus(st session.AuditStatus) {
	if st.WeeklyDue {
		fmt.Println("Weekly audit: DUE")
	} else {
		fmt.Printf("Weekly audit: done %s (%s ago)\n",
			st.LastWeeklyAudit, pluralDays(st.DaysSinceWeekly))
	}
	switch {
	case st.MonthlyDue:
		fmt.Println("Monthly review: DUE (first week of the month)")
	case !st.MonthlyEverDone:
		fmt.Println("Monthly review: never done; due in the first week of a month")
	default:
		fmt.Printf("Monthly review: done %s\n", st.LastMonthly)
	}
}

func auditCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether the weekly audit or monthly review is due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			audit, err := newAudit()
			if err != nil {
				return err
			}
			st, err := audit.Check()
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(st)
			}
			printAuditStatus(st)
			return nil
		},
	}
}

func auditDoneCmd() *cobra.Command {
	var monthly bool

	cmd := &cobra.Command{
		Use:   "done",
		Short: "Record that the weekly audit (and optionally the monthly review) happened",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			audit, err := newAudit()
			if err != nil {
				return err
			}
			st, err := audit.Done(monthly)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(st)
			}
			fmt.Println("Audit recorded.")
			printAuditStatus(st)
			return nil
		},
	}
	cmd.Flags().BoolVar(&monthly, "monthly", false, "also record the monthly review")
	return cmd
}
