package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/myorg/lifesim/internal/locale"
	"github.com/myorg/lifesim/internal/report"
	"github.com/myorg/lifesim/internal/timeline"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report commands",
	Long:  "Display JSON reports written by 'lifesim run -o'.",
}

var reportCfg struct {
	Locale   string
	NoColor  bool
	JSON     bool
	Compact  bool
	Timeline string
	Days     string
	Tail     int
}

var reportShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show a saved report",
	Long: `Display a JSON report in the same format printed at the end of a run.

Examples:
  lifesim report show report.json
  lifesim report show report.json --locale ko
  lifesim report show report.json --timeline timeline.csv --days 2-3
  lifesim report show report.json --timeline timeline.csv --tail 12
`,
	Args: cobra.ExactArgs(1),
	RunE: runReportShow,
}

func init() {
	reportCmd.AddCommand(reportShowCmd)

	reportShowCmd.Flags().StringVar(&reportCfg.Locale, "locale", "", "display language (defaults to the run's)")
	reportShowCmd.Flags().BoolVar(&reportCfg.NoColor, "no-color", false, "disable ANSI colors")
	reportShowCmd.Flags().BoolVar(&reportCfg.JSON, "json", false, "print the normalized JSON instead")
	reportShowCmd.Flags().BoolVar(&reportCfg.Compact, "compact", false, "with --json, print it on one line")
	reportShowCmd.Flags().StringVar(&reportCfg.Timeline, "timeline", "", "timeline CSV of the run; its summary replaces the report's")
	reportShowCmd.Flags().StringVar(&reportCfg.Days, "days", "", "with --timeline, list samples for a day or range (3, 2-4)")
	reportShowCmd.Flags().IntVar(&reportCfg.Tail, "tail", 0, "with --timeline, list the last N samples")
}

func runReportShow(cmd *cobra.Command, args []string) error {
	filename := args[0]

	rpt, err := report.ReadFromFile(filename)
	if err != nil {
		return err
	}

	if reportCfg.Timeline == "" && (reportCfg.Days != "" || reportCfg.Tail != 0) {
		return fmt.Errorf("--days and --tail need --timeline")
	}
	if reportCfg.Tail < 0 {
		return fmt.Errorf("--tail cannot be negative")
	}
	var fromDay, toDay int
	if reportCfg.Days != "" {
		if fromDay, toDay, err = parseDayRange(reportCfg.Days); err != nil {
			return err
		}
	}

	var tl *timeline.Timeline
	if reportCfg.Timeline != "" {
		interval := 1.0
		if rpt.Timeline != nil && rpt.Timeline.Interval > 0 {
			interval = rpt.Timeline.Interval
		}
		if tl, err = timeline.LoadCSV(reportCfg.Timeline, interval); err != nil {
			return fmt.Errorf("loading timeline: %w", err)
		}
		rpt.Timeline = tl.GetSummary()
	}

	if reportCfg.JSON {
		marshal := rpt.ToJSON
		if reportCfg.Compact {
			marshal = rpt.ToJSONCompact
		}
		data, err := marshal()
		if err != nil {
			return fmt.Errorf("encoding report: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	lang := reportCfg.Locale
	if lang == "" {
		lang = rpt.RunInfo.Locale
	}
	tr, err := locale.New(lang)
	if err != nil {
		return fmt.Errorf("loading locale: %w", err)
	}

	formatter := report.NewConsoleFormatter().
		WithWriter(cmd.OutOrStdout()).
		WithReportPath(filename).
		WithTranslator(tr)
	if reportCfg.NoColor {
		formatter = formatter.WithNoColor(true)
	}
	formatter.PrintSummary(rpt)

	if tl != nil && (reportCfg.Days != "" || reportCfg.Tail > 0) {
		var entries []timeline.TimelineEntry
		switch {
		case reportCfg.Days != "":
			entries = tl.GetEntriesForDays(fromDay, toDay)
			if reportCfg.Tail > 0 && len(entries) > reportCfg.Tail {
				entries = entries[len(entries)-reportCfg.Tail:]
			}
		default:
			entries = tl.GetLastN(reportCfg.Tail)
		}
		printSamples(cmd.OutOrStdout(), entries)
	}
	return nil
}

// parseDayRange parses "N" or "FROM-TO".
func parseDayRange(s string) (int, int, error) {
	from, to, isRange := strings.Cut(s, "-")
	first, err := strconv.Atoi(strings.TrimSpace(from))
	if err != nil || first < 1 {
		return 0, 0, fmt.Errorf("invalid --days %q", s)
	}
	if !isRange {
		return first, first, nil
	}
	last, err := strconv.Atoi(strings.TrimSpace(to))
	if err != nil || last < first {
		return 0, 0, fmt.Errorf("invalid --days %q", s)
	}
	return first, last, nil
}

func printSamples(out io.Writer, entries []timeline.TimelineEntry) {
	fmt.Fprintln(out)
	if len(entries) == 0 {
		fmt.Fprintln(out, "No samples in range.")
		return
	}
	fmt.Fprintf(out, "%-4s %-6s %7s %7s %6s %6s %7s %6s\n",
		"DAY", "HOUR", "HUNGER", "SLEEP", "HAPPY", "WILL", "MONEY", "JOB%")
	fmt.Fprintln(out, strings.Repeat("-", 58))
	for _, e := range entries {
		flag := ""
		if e.GameOver {
			flag = "  game over"
		}
		fmt.Fprintf(out, "%-4d %05.2f  %7.1f %7.1f %6d %6d %7d %6.1f%s\n",
			e.Day, e.Hour, e.Hunger, e.Sleep, e.Happiness, e.Willpower, e.Money, e.EmploymentChance, flag)
	}
}
