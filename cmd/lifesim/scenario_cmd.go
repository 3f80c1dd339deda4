package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/myorg/lifesim/internal/actions"
	"github.com/myorg/lifesim/internal/clock"
	"github.com/myorg/lifesim/internal/scenario"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Scenario commands",
	Long:  "List, inspect and validate scripted scenarios.",
}

var scenarioCfg struct {
	Format string // text, json, yaml
}

var scenarioListCmd = &cobra.Command{
	Use:   "list",
	Short: "List preset scenarios",
	Args:  cobra.NoArgs,
	RunE:  runScenarioList,
}

var scenarioShowCmd = &cobra.Command{
	Use:   "show <name|file>",
	Short: "Show a scenario's steps",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioShow,
}

var scenarioValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a scenario YAML file against the action catalog",
	Args:  cobra.ExactArgs(1),
	RunE:  runScenarioValidate,
}

func init() {
	scenarioCmd.AddCommand(scenarioListCmd)
	scenarioCmd.AddCommand(scenarioShowCmd)
	scenarioCmd.AddCommand(scenarioValidateCmd)

	scenarioCmd.PersistentFlags().StringVar(&scenarioCfg.Format, "format", "text", "output format: text, json, yaml")
}

type scenarioInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Steps       int    `json:"steps"`
	MaxDays     int    `json:"max_days"`
}

func runScenarioList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var infos []scenarioInfo
	for _, name := range scenario.ListPresetScripts() {
		script, err := scenario.GetPresetScript(name)
		if err != nil {
			return err
		}
		infos = append(infos, scenarioInfo{
			Name:        script.Name,
			Description: script.Description,
			Steps:       len(script.Steps),
			MaxDays:     script.MaxDays,
		})
	}

	if scenarioCfg.Format == "json" {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, "Preset Scenarios")
	fmt.Fprintln(out, "================")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%-12s %-6s %-8s %s\n", "NAME", "STEPS", "MAX DAYS", "DESCRIPTION")
	fmt.Fprintln(out, strings.Repeat("-", 70))
	for _, info := range infos {
		fmt.Fprintf(out, "%-12s %-6d %-8d %s\n", info.Name, info.Steps, info.MaxDays, info.Description)
	}
	fmt.Fprintln(out)
	return nil
}

func runScenarioShow(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	script, err := scenario.LoadScript(args[0])
	if err != nil {
		return err
	}

	if scenarioCfg.Format == "yaml" {
		data, err := scenario.ScriptToYAML(script)
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	fmt.Fprintf(out, "Scenario: %s\n", script.Name)
	if script.Description != "" {
		fmt.Fprintf(out, "  %s\n", script.Description)
	}
	if script.MaxDays > 0 {
		fmt.Fprintf(out, "  Max days: %d\n", script.MaxDays)
	}
	sched := scenario.NewScheduler(script)
	if next, ok := sched.NextAt(); ok {
		day := int(next/clock.HoursPerDay) + 1
		fmt.Fprintf(out, "  First step: day %d %05.2f\n", day, next-float64(day-1)*clock.HoursPerDay)
	}
	fmt.Fprintln(out)

	// Steps are listed in firing order; disabled steps never fire.
	pending := sched.Pending()
	fmt.Fprintf(out, "%-4s %-6s %-6s %-8s %s\n", "DAY", "HOUR", "DAILY", "KIND", "WHAT")
	fmt.Fprintln(out, strings.Repeat("-", 50))
	for _, st := range pending {
		daily := ""
		if st.Daily {
			daily = "yes"
		}
		fmt.Fprintf(out, "%-4d %05.2f  %-6s %-8s %s\n", st.Day, st.Hour, daily, st.Kind, st.Label())
	}
	if disabled := len(script.Steps) - len(pending); disabled > 0 {
		fmt.Fprintf(out, "(%d disabled step(s) not shown)\n", disabled)
	}
	return nil
}

func runScenarioValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	filename := args[0]

	fmt.Fprintf(out, "Validating: %s\n\n", filename)

	script, err := scenario.ParseScriptFromFile(filename)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	catalog, err := actions.NewCatalog(cfg.Actions)
	if err != nil {
		return err
	}
	known := func(name string) bool {
		_, err := catalog.Get(name)
		return err == nil
	}
	if err := script.CheckActions(known); err != nil {
		return err
	}

	fmt.Fprintf(out, "Scenario '%s' is valid (%d steps)\n", script.Name, len(script.Steps))
	return nil
}
