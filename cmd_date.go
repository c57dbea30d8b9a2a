package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pwkm/pkg/clock"
)

func todayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Print today's date and weekday",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, clk, err := loadEnv()
			if err != nil {
				return err
			}
			today := clk.Today()
			if jsonOutput {
				return printJSON(map[string]any{
					"date":     today,
					"weekday":  today.Weekday().String(),
					"timezone": clk.Location().String(),
				})
			}
			fmt.Printf("%s (%s)\n", today, today.Weekday())
			return nil
		},
	}
}

func verifyDateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify-date",
		Short: "Print the full current date context for verification",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, clk, err := loadEnv()
			if err != nil {
				return err
			}
			now := clk.Now()
			today := clock.DateOf(now)
			year, week := today.ISOWeek()
			if jsonOutput {
				return printJSON(map[string]any{
					"date":      today,
					"weekday":   today.Weekday().String(),
					"time":      now.Format("15:04:05"),
					"timezone":  clk.Location().String(),
					"utc":       now.UTC().Format(time.RFC3339),
					"unix":      now.Unix(),
					"iso_year":  year,
					"iso_week":  week,
					"month":     now.Month().String(),
					"day":       today.Day,
					"year":      today.Year,
				})
			}
			fmt.Printf("Date:     %s (%s)\n", today, today.Weekday())
			fmt.Printf("Time:     %s %s\n", now.Format("15:04:05"), clk.Location())
			fmt.Printf("ISO week: %d-W%02d\n", year, week)
			fmt.Printf("UTC:      %s\n", now.UTC().Format(time.RFC3339))
			return nil
		},
	}
}

func weekdayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weekday [DATE]",
		Short: "Print the weekday of a date (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, clk, err := loadEnv()
			if err != nil {
				return err
			}
			d := clk.Today()
			if len(args) == 1 {
				if d, err = clock.ParseDate(args[0]); err != nil {
					return err
				}
			}
			if jsonOutput {
				return printJSON(map[string]any{"date": d, "weekday": d.Weekday().String()})
			}
			fmt.Printf("%s is a %s\n", d, d.Weekday())
			return nil
		},
	}
}

func addDaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-days N [DATE]",
		Short: "Add N calendar days to a date (default today)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, clk, err := loadEnv()
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid day count %q", args[0])
			}
			from := clk.Today()
			if len(args) == 2 {
				if from, err = clock.ParseDate(args[1]); err != nil {
					return err
				}
			}
			result := from.AddDays(n)
			if jsonOutput {
				return printJSON(map[string]any{
					"from":    from,
					"days":    n,
					"date":    result,
					"weekday": result.Weekday().String(),
				})
			}
			fmt.Printf("%s + %d days = %s (%s)\n", from, n, result, result.Weekday())
			return nil
		},
	}
}

func nextWeekdayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next-weekday WEEKDAY [DATE]",
		Short: "Print the next occurrence of a weekday strictly after a date",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, clk, err := loadEnv()
			if err != nil {
				return err
			}
			wd, err := clock.ParseWeekday(args[0])
			if err != nil {
				return err
			}
			from := clk.Today()
			if len(args) == 2 {
				if from, err = clock.ParseDate(args[1]); err != nil {
					return err
				}
			}
			result := clock.NextWeekday(from, wd)
			if jsonOutput {
				return printJSON(map[string]any{
					"from":    from,
					"weekday": wd.String(),
					"date":    result,
				})
			}
			fmt.Printf("Next %s after %s is %s\n", wd, from, result)
			return nil
		},
	}
}

func nthWeekdayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nth-weekday YEAR MONTH WEEKDAY ORDINAL",
		Short: "Resolve the nth weekday of a month, e.g. first Saturday of 2026-02",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			monthNum, err := strconv.Atoi(args[1])
			if err != nil || monthNum < 1 || monthNum > 12 {
				return fmt.Errorf("invalid month %q: want 1-12", args[1])
			}
			wd, err := clock.ParseWeekday(args[2])
			if err != nil {
				return err
			}
			ord, err := clock.ParseOrdinal(args[3])
			if err != nil {
				return err
			}
			d, err := clock.NthWeekdayOfMonth(year, time.Month(monthNum), wd, ord)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(map[string]any{
					"year":    year,
					"month":   time.Month(monthNum).String(),
					"weekday": wd.String(),
					"ordinal": ord.String(),
					"date":    d,
				})
			}
			fmt.Printf("%s %s of %s %d is %s\n", ord, wd, time.Month(monthNum), year, d)
			return nil
		},
	}
}
