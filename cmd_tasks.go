package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pwkm/pkg/clock"
	"pwkm/pkg/tasks"
)

func tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Query and update the task store",
	}
	cmd.AddCommand(
		tasksStatusCmd(),
		tasksUpcomingCmd(),
		tasksListCmd(),
		tasksCompleteCmd(),
		tasksRescheduleCmd(),
	)
	return cmd
}

func openStore() (*tasks.Store, clock.Date, error) {
	cfg, clk, err := loadEnv()
	if err != nil {
		return nil, clock.Date{}, err
	}
	store, err := tasks.Load(cfg.TasksCSV)
	if err != nil {
		return nil, clock.Date{}, err
	}
	return store, clk.Today(), nil
}

func tasksStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show overdue, due-today, and next-7-days tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, today, err := openStore()
			if err != nil {
				return err
			}
			rep := store.Status(today)
			if jsonOutput {
				return printJSON(rep)
			}
			printStatusReport(rep)
			return nil
		},
	}
}

func printStatusReport(rep tasks.StatusReport) {
	fmt.Printf("Task status for %s (%s)\n", rep.Today, rep.Today.Weekday())
	if len(rep.Overdue) == 0 && len(rep.DueToday) == 0 && len(rep.Upcoming) == 0 {
		fmt.Println("Nothing due. All clear.")
		return
	}
	if len(rep.Overdue) > 0 {
		fmt.Println("\nOVERDUE:")
		for _, o := range rep.Overdue {
			fmt.Printf("  %s (due %s, %s overdue)%s\n",
				o.Name, o.Due, pluralDays(o.DaysOverdue), taskTag(o.Task))
		}
	}
	if len(rep.DueToday) > 0 {
		fmt.Println("\nDUE TODAY:")
		for _, t := range rep.DueToday {
			fmt.Printf("  %s%s\n", t.Name, taskTag(t))
		}
	}
	if len(rep.Upcoming) > 0 {
		fmt.Println("\nNEXT 7 DAYS:")
		for _, t := range rep.Upcoming {
			fmt.Printf("  %s (due %s, %s)%s\n", t.Name, t.Due, t.Due.Weekday(), taskTag(t))
		}
	}
}

func taskTag(t tasks.Task) string {
	tag := ""
	if t.Category != "" {
		tag += " [" + t.Category + "]"
	}
	if t.Priority != "" {
		tag += " (" + string(t.Priority) + ")"
	}
	return tag
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func tasksUpcomingCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Show active tasks due within a horizon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, today, err := openStore()
			if err != nil {
				return err
			}
			up := store.Upcoming(today, days)
			if jsonOutput {
				return printJSON(map[string]any{
					"today":        today,
					"horizon_days": days,
					"tasks":        up,
				})
			}
			if len(up) == 0 {
				fmt.Printf("Nothing due in the next %s.\n", pluralDays(days))
				return nil
			}
			fmt.Printf("Due within %s:\n", pluralDays(days))
			for _, t := range up {
				fmt.Printf("  %s  %s (%s)%s\n", t.Due, t.Name, t.Due.Weekday(), taskTag(t))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "horizon in days")
	return cmd
}

func tasksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every task in the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore()
			if err != nil {
				return err
			}
			all := store.List()
			if jsonOutput {
				return printJSON(all)
			}
			for _, t := range all {
				mark := " "
				if t.IsDone() {
					mark = "x"
				}
				rec := ""
				if !t.Recurrence.IsNone() {
					rec = " <" + t.Recurrence.String() + ">"
				}
				fmt.Printf("[%s] %s  %s%s%s\n", mark, t.Due, t.Name, rec, taskTag(t))
			}
			return nil
		},
	}
}

func tasksCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete NAME",
		Short: "Complete a task, advancing its due date if it recurs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openStore()
			if err != nil {
				return err
			}
			res, err := store.Complete(args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(res)
			}
			if res.Rescheduled {
				fmt.Printf("Completed %q; next due %s (%s, %s)\n",
					res.Name, res.NextDue, res.NextDue.Weekday(), res.Rule)
			} else {
				fmt.Printf("Completed %q; marked done\n", res.Name)
			}
			if res.Ref != "" {
				fmt.Printf("Reference: %s\n", res.Ref)
			}
			return nil
		},
	}
}

func tasksRescheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reschedule NAME DATE",
		Short: "Move a task to an explicit date, ignoring recurrence",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			newDue, err := clock.ParseDate(args[1])
			if err != nil {
				return err
			}
			store, _, err := openStore()
			if err != nil {
				return err
			}
			t, err := store.Reschedule(args[0], newDue)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(t)
			}
			fmt.Printf("Rescheduled %q to %s (%s)\n", t.Name, t.Due, t.Due.Weekday())
			return nil
		},
	}
}
