package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/myorg/lifesim/internal/runner"
)

var runCfg simFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a headless simulation",
	Long: `Run the simulation without a display, stepping the clock in fixed frames as
fast as possible. The run ends on game over, after --max-days, when the
scenario's last step has fired, or on Ctrl-C.

Scenarios are preset names (see 'lifesim scenario list') or YAML files.

Examples:
  # Do nothing and see how long the player lasts
  lifesim run

  # Follow the routine preset for 30 days and export to SQLite
  lifesim run --scenario routine --store sqlite

  # Korean output, report and timeline files
  lifesim run --scenario student --locale ko -o report.json --timeline timeline.csv
`,
	RunE: runHeadless,
}

func init() {
	addSimFlags(runCmd, &runCfg)
	runCmd.Flags().Int64Var(&runMaxFrames, "max-frames", 0, "stop after this many frames (0 = no limit)")
}

var runMaxFrames int64

func addSimFlags(cmd *cobra.Command, f *simFlags) {
	cmd.Flags().StringVarP(&f.Scenario, "scenario", "s", "", "scenario preset name or YAML file")
	cmd.Flags().Float64Var(&f.Speed, "speed", 1, "clock speed multiplier")
	cmd.Flags().StringVar(&f.Locale, "locale", "en", "display language (en, ko)")
	cmd.Flags().IntVar(&f.FPS, "fps", 60, "frames per real second")
	cmd.Flags().IntVar(&f.MaxDays, "max-days", 30, "stop after this many game days")
	cmd.Flags().StringVarP(&f.Output, "output", "o", "", "write the JSON report to this file")
	cmd.Flags().StringVar(&f.Timeline, "timeline", "", "stream timeline samples to this CSV file")
	cmd.Flags().StringVar(&f.Store, "store", "", "export the run: 'sqlite' or 'postgres'")
	cmd.Flags().BoolVar(&f.NoColor, "no-color", false, "disable ANSI colors")
}

func runHeadless(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := runCfg.applyFlags(cfg, cmd.Flags().Changed); err != nil {
		return err
	}

	script, err := loadScenario(runCfg.Scenario)
	if err != nil {
		return err
	}

	sess, tr, err := newSession(cfg)
	if err != nil {
		return err
	}

	rc := runner.ConfigFrom(cfg)
	rc.MaxFrames = runMaxFrames
	r, err := runner.New(sess, rc,
		runner.WithLogger(slog.Default()),
		runner.WithScript(script))
	if err != nil {
		return fmt.Errorf("creating runner: %w", err)
	}

	res, err := r.RunHeadless(ctx)
	if err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	rpt := buildReport(res, cfg, tr, script)
	return finishRun(ctx, res, rpt, cfg, &runCfg, tr)
}
