// pwkm tracks tasks, recurring chores, session timing, and calendar
// context for a single user, one short-lived invocation at a time.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pwkm/pkg/clock"
	"pwkm/pkg/config"
	applog "pwkm/pkg/log"
)

var (
	jsonOutput bool
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "pwkm",
		Short:         "Local scheduling and state tracking",
		Long:          "pwkm keeps a task file, a recurring-chore schedule, a session timer,\nand a view of the calendar in sync from the command line.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				applog.SetLevel(applog.LevelDebug)
			}
		},
	}
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit structured JSON on stdout")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		todayCmd(),
		verifyDateCmd(),
		weekdayCmd(),
		addDaysCmd(),
		nextWeekdayCmd(),
		nthWeekdayCmd(),
		tasksCmd(),
		timerCmd(),
		auditCmd(),
		eventsCmd(),
		startupCmd(),
		authCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadEnv resolves configuration and the process clock together; a
// timezone that does not resolve is fatal because every downstream
// decision depends on it.
func loadEnv() (*config.Config, *clock.Clock, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	clk, err := clock.New(cfg.Timezone)
	if err != nil {
		return nil, nil, err
	}
	return cfg, clk, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
