package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Global flags shared by every command.
var globalCfg struct {
	ConfigFile string
	Quiet      bool
	Verbose    bool
}

var rootCmd = &cobra.Command{
	Use:   "lifesim",
	Short: "Life simulation with needs decay and a game clock",
	Long: `lifesim runs a life simulation: a game clock drives hunger and sleep decay,
starvation and exhaustion drain happiness, and an empty happiness drains
willpower until the game ends.

Commands:
  Simulation:
    run      Run a headless simulation, optionally driven by a scenario
    play     Play in real time, typing commands on stdin

  Scenarios:
    scenario list      List preset scenarios
    scenario show      Show a scenario's steps
    scenario validate  Validate a scenario YAML file

  Results:
    report show   Show a saved JSON report
    runs list     List runs exported to a database

  Configuration:
    config init      Generate an example configuration file
    config validate  Validate a configuration file
    config show      Show the effective configuration

Examples:
  # A month of the daily routine preset, saved as JSON and CSV
  lifesim run --scenario routine --output report.json --timeline timeline.csv

  # Interactive play at 4x speed with a websocket feed
  lifesim play --speed 4 --feed :8080`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalCfg.ConfigFile, "config", "", "configuration file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&globalCfg.Quiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().BoolVarP(&globalCfg.Verbose, "verbose", "v", false, "log debug output")

	// Simulation commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(playCmd)

	// Management commands
	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(configCmd)

	// Info commands
	rootCmd.AddCommand(versionCmd)
}

func setupLogging() {
	level := slog.LevelInfo
	switch {
	case globalCfg.Quiet:
		level = slog.LevelWarn
	case globalCfg.Verbose:
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
