package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Exported run commands",
	Long:  "Inspect runs exported with 'lifesim run --store'.",
}

var runsCfg struct {
	Store string
	Limit int
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List exported runs, newest first",
	Long: `List runs saved to a result store.

Examples:
  lifesim runs list
  lifesim runs list --store postgres --limit 5
`,
	Args: cobra.NoArgs,
	RunE: runRunsList,
}

func init() {
	runsCmd.AddCommand(runsListCmd)

	runsListCmd.Flags().StringVar(&runsCfg.Store, "store", storeSQLite, "result store: 'sqlite' or 'postgres'")
	runsListCmd.Flags().IntVar(&runsCfg.Limit, "limit", 20, "maximum runs to list (0 = all)")
}

func runRunsList(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rs, err := openStore(ctx, cfg, runsCfg.Store)
	if err != nil {
		return err
	}
	defer rs.Close()

	runs, err := rs.ListRuns(ctx, runsCfg.Limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs stored.")
		return nil
	}

	fmt.Fprintf(out, "%-36s %-20s %-9s %-12s %-10s %-8s %s\n",
		"RUN ID", "STARTED", "MODE", "REASON", "FINAL", "SAMPLES", "SCENARIO")
	fmt.Fprintln(out, strings.Repeat("-", 110))
	for _, r := range runs {
		final := fmt.Sprintf("d%d %05.2f", r.FinalDay, r.FinalHour)
		fmt.Fprintf(out, "%-36s %-20s %-9s %-12s %-10s %-8d %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Mode, r.Reason,
			final, r.SampleCount, r.Scenario)
	}
	return nil
}
