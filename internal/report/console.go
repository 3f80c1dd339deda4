package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/width"

	"github.com/myorg/lifesim/internal/locale"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

// Box-drawing Unicode characters
const (
	boxHorizontal    = "─"
	boxVertical      = "│"
	boxTopLeft       = "┌"
	boxTopRight      = "┐"
	boxBottomLeft    = "└"
	boxBottomRight   = "┘"
	boxVerticalRight = "├"
	boxVerticalLeft  = "┤"
)

const boxWidth = 70

// Stats at or below this value are highlighted.
const lowStatThreshold = 25

// ConsoleFormatter formats reports for console output.
type ConsoleFormatter struct {
	writer     io.Writer
	noColor    bool
	reportPath string
	tr         *locale.Translator
	now        func() time.Time
}

// NewConsoleFormatter creates a new console formatter with English labels.
func NewConsoleFormatter() *ConsoleFormatter {
	// The English bundle is embedded; a nil translator falls back to keys.
	tr, _ := locale.New(locale.DefaultLanguage)
	return &ConsoleFormatter{
		writer:  os.Stdout,
		noColor: os.Getenv("NO_COLOR") != "",
		tr:      tr,
		now:     time.Now,
	}
}

// WithWriter sets a custom writer (useful for testing).
func (cf *ConsoleFormatter) WithWriter(w io.Writer) *ConsoleFormatter {
	cf.writer = w
	return cf
}

// WithReportPath sets the path to the JSON report file.
func (cf *ConsoleFormatter) WithReportPath(path string) *ConsoleFormatter {
	cf.reportPath = path
	return cf
}

// WithNoColor disables color output.
func (cf *ConsoleFormatter) WithNoColor(noColor bool) *ConsoleFormatter {
	cf.noColor = noColor
	return cf
}

// WithTranslator sets the translator used for stat and outcome labels.
func (cf *ConsoleFormatter) WithTranslator(tr *locale.Translator) *ConsoleFormatter {
	if tr != nil {
		cf.tr = tr
	}
	return cf
}

// PrintSummary prints a formatted summary of the report.
func (cf *ConsoleFormatter) PrintSummary(report *Report) {
	if report == nil {
		return
	}

	cf.printHeader(report)
	cf.printOutcome(report)
	cf.printStats(report)
	if report.Timeline != nil && report.Timeline.Samples > 0 {
		cf.printTimeline(report)
	}
	cf.printOperations(report)
	cf.printLatencyTable(report.Latencies)
	cf.printFooter()
}

func (cf *ConsoleFormatter) printHeader(report *Report) {
	cf.println(cf.boxLine(boxTopLeft, boxHorizontal, boxTopRight, boxWidth))

	title := " lifesim - Run Results "
	cf.println(cf.boxRow(cf.bold(cf.cyan(title)), boxWidth))

	cf.println(cf.boxLine(boxVerticalRight, boxHorizontal, boxVerticalLeft, boxWidth))

	cf.println(cf.boxRow(fmt.Sprintf("  Mode: %s    Run: %s",
		cf.bold(report.RunInfo.Mode),
		cf.dim(report.RunInfo.RunID)), boxWidth))

	cf.println(cf.boxRow(fmt.Sprintf("  Duration: %s    Frames: %s",
		cf.bold(formatDuration(report.RunInfo.Duration)),
		formatNumber(report.RunInfo.Frames)), boxWidth))

	cf.println(cf.boxRow(fmt.Sprintf("  Speed: %gx    FPS: %d    Locale: %s",
		report.RunInfo.Speed,
		report.RunInfo.FPS,
		report.RunInfo.Locale), boxWidth))

	if report.RunInfo.Scenario != "" {
		cf.println(cf.boxRow(fmt.Sprintf("  Scenario: %s",
			truncateString(report.RunInfo.Scenario, 54)), boxWidth))
	}
}

func (cf *ConsoleFormatter) printOutcome(report *Report) {
	cf.println(cf.boxLine(boxVerticalRight, boxHorizontal, boxVerticalLeft, boxWidth))

	if report.Outcome != nil {
		cf.println(cf.boxRow("  "+cf.bold(cf.red(cf.tr.T(locale.KeyGameOverTitle))), boxWidth))
		cf.println(cf.boxRow("  "+cf.clockLabel(report.Outcome.Day, report.Outcome.Hour), boxWidth))
		for _, line := range cf.wrapText(report.Outcome.Reason, boxWidth-6) {
			cf.println(cf.boxRow("  "+cf.dim(line), boxWidth))
		}
		return
	}

	cf.println(cf.boxRow("  "+cf.bold(cf.green(cf.tr.T(locale.KeySurvivedTitle))), boxWidth))
	cf.println(cf.boxRow("  "+cf.clockLabel(report.FinalClock.Day, report.FinalClock.Hour), boxWidth))
}

func (cf *ConsoleFormatter) printStats(report *Report) {
	s := report.FinalStats

	cf.println(cf.boxLine(boxVerticalRight, boxHorizontal, boxVerticalLeft, boxWidth))
	cf.println(cf.boxRow("", boxWidth))

	cf.printStatRow(locale.KeyStatHunger, s.Hunger)
	cf.printStatRow(locale.KeyStatSleep, s.Sleep)
	cf.printStatRow(locale.KeyStatHappiness, float64(s.Happiness))
	cf.printStatRow(locale.KeyStatWillpower, float64(s.Willpower))

	cf.println(cf.boxRow(fmt.Sprintf("  %s %s",
		cf.pad(cf.tr.T(locale.KeyStatMoney), 20),
		cf.bold(formatNumber(s.Money))), boxWidth))
	cf.println(cf.boxRow(fmt.Sprintf("  %s %.1f%%",
		cf.pad(cf.tr.T(locale.KeyStatEmploymentChance), 20),
		s.EmploymentChance), boxWidth))
}

func (cf *ConsoleFormatter) printStatRow(key string, value float64) {
	text := fmt.Sprintf("%6.1f", value)
	cf.println(cf.boxRow(fmt.Sprintf("  %s %s",
		cf.pad(cf.tr.T(key), 20),
		cf.colorizeStat(text, value)), boxWidth))
}

func (cf *ConsoleFormatter) printTimeline(report *Report) {
	ts := report.Timeline

	cf.println(cf.boxLine(boxVerticalRight, boxHorizontal, boxVerticalLeft, boxWidth))
	cf.println(cf.boxRow(cf.bold("  Timeline"), boxWidth))
	cf.println(cf.boxRow("", boxWidth))

	cf.println(cf.boxRow(fmt.Sprintf("  Days:           %d (day %d to %d)",
		ts.Days, ts.FirstDay, ts.LastDay), boxWidth))
	cf.println(cf.boxRow(fmt.Sprintf("  Game Hours:     %.1f    Samples: %s",
		ts.GameHours, formatNumber(ts.Samples)), boxWidth))
	cf.println(cf.boxRow(fmt.Sprintf("  Money:          %d -> %d (min %d)",
		ts.StartMoney, ts.EndMoney, ts.MinMoney), boxWidth))

	header := fmt.Sprintf("  %-20s %8s %8s %8s %8s", "", "Min", "Mean", "Max", "0h")
	cf.println(cf.boxRow(cf.dim(header), boxWidth))

	rows := []struct {
		key string
		min float64
		avg float64
		max float64
		zh  float64
	}{
		{locale.KeyStatHunger, ts.Hunger.Min, ts.Hunger.Mean, ts.Hunger.Max, ts.Hunger.HoursAtZero},
		{locale.KeyStatSleep, ts.Sleep.Min, ts.Sleep.Mean, ts.Sleep.Max, ts.Sleep.HoursAtZero},
		{locale.KeyStatHappiness, ts.Happiness.Min, ts.Happiness.Mean, ts.Happiness.Max, ts.Happiness.HoursAtZero},
		{locale.KeyStatWillpower, ts.Willpower.Min, ts.Willpower.Mean, ts.Willpower.Max, ts.Willpower.HoursAtZero},
	}
	for _, r := range rows {
		cf.println(cf.boxRow(fmt.Sprintf("  %s %8.1f %8.1f %8.1f %8.1f",
			cf.pad(cf.tr.T(r.key), 20), r.min, r.avg, r.max, r.zh), boxWidth))
	}
}

func (cf *ConsoleFormatter) printOperations(report *Report) {
	cf.println(cf.boxLine(boxVerticalRight, boxHorizontal, boxVerticalLeft, boxWidth))
	cf.println(cf.boxRow(cf.bold("  Operations"), boxWidth))
	cf.println(cf.boxRow("", boxWidth))

	cf.println(cf.boxRow(fmt.Sprintf("  Total Ops:      %s",
		cf.bold(formatNumber(report.Summary.TotalOps))), boxWidth))

	errorPct := report.Summary.ErrorRate
	errorStr := fmt.Sprintf("%.3f%%", errorPct)
	cf.println(cf.boxRow(fmt.Sprintf("  Total Errors:   %s (%s)",
		formatNumber(report.Summary.TotalErrors),
		cf.colorizeErrorRate(errorStr, errorPct)), boxWidth))

	cf.println(cf.boxRow(fmt.Sprintf("  Throughput:     %s ops/s",
		cf.bold(fmt.Sprintf("%.1f", report.Summary.Rate))), boxWidth))

	if len(report.Errors) > 0 {
		ops := make([]string, 0, len(report.Errors))
		for op := range report.Errors {
			ops = append(ops, op)
		}
		sort.Strings(ops)
		for _, op := range ops {
			e := report.Errors[op]
			types := make([]string, 0, len(e.ByType))
			for t, n := range e.ByType {
				types = append(types, fmt.Sprintf("%s=%d", t, n))
			}
			sort.Strings(types)
			cf.println(cf.boxRow(fmt.Sprintf("    %-12s %s",
				op, cf.yellow(truncateString(strings.Join(types, " "), 50))), boxWidth))
		}
	}
}

func (cf *ConsoleFormatter) printLatencyTable(latencies map[string]*LatencyReport) {
	cf.println(cf.boxLine(boxVerticalRight, boxHorizontal, boxVerticalLeft, boxWidth))
	cf.println(cf.boxRow(cf.bold("  Latency (µs)"), boxWidth))
	cf.println(cf.boxRow("", boxWidth))

	if len(latencies) == 0 {
		cf.println(cf.boxRow("  No latency data available", boxWidth))
		return
	}

	header := fmt.Sprintf("  %-10s %9s %9s %9s %9s %9s",
		"Operation", "Avg", "p50", "p95", "p99", "Max")
	cf.println(cf.boxRow(cf.dim(header), boxWidth))
	cf.println(cf.boxRow("  "+strings.Repeat("─", 60), boxWidth))

	ops := make([]string, 0, len(latencies))
	for op := range latencies {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	for _, op := range ops {
		lat := latencies[op]
		if lat == nil {
			continue
		}
		row := fmt.Sprintf("  %-10s %9s %9s %9s %9s %9s",
			truncateString(op, 10),
			formatMicros(lat.Mean),
			formatMicros(lat.P50),
			formatMicros(lat.P95),
			formatMicros(lat.P99),
			formatMicros(lat.Max))
		cf.println(cf.boxRow(row, boxWidth))
	}
}

func (cf *ConsoleFormatter) printFooter() {
	cf.println(cf.boxLine(boxVerticalRight, boxHorizontal, boxVerticalLeft, boxWidth))

	if cf.reportPath != "" {
		cf.println(cf.boxRow(fmt.Sprintf("  Full report: %s", cf.dim(cf.reportPath)), boxWidth))
	}

	cf.println(cf.boxRow(fmt.Sprintf("  Generated: %s",
		cf.dim(cf.now().Format("2006-01-02 15:04:05"))), boxWidth))

	cf.println(cf.boxLine(boxBottomLeft, boxHorizontal, boxBottomRight, boxWidth))
}

func (cf *ConsoleFormatter) clockLabel(day int, hour float64) string {
	return cf.tr.Tf(locale.KeyClockLabel, map[string]any{
		"Day":  day,
		"Hour": fmt.Sprintf("%02d", int(hour)),
	})
}

// Helper methods for box drawing

func (cf *ConsoleFormatter) boxLine(left, fill, right string, width int) string {
	return left + strings.Repeat(fill, width-2) + right
}

func (cf *ConsoleFormatter) boxRow(content string, width int) string {
	padding := width - 2 - cf.visibleLength(content)
	if padding < 0 {
		padding = 0
	}
	return boxVertical + content + strings.Repeat(" ", padding) + boxVertical
}

// pad right-pads s to n terminal columns.
func (cf *ConsoleFormatter) pad(s string, n int) string {
	w := cf.visibleLength(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}

// visibleLength returns the terminal column width of s, skipping ANSI escape
// sequences and counting East Asian wide runes as two columns.
func (cf *ConsoleFormatter) visibleLength(s string) int {
	inEscape := false
	length := 0
	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			length += 2
		default:
			length++
		}
	}
	return length
}

// Color helper methods

func (cf *ConsoleFormatter) colorize(s string, color string) string {
	if cf.noColor {
		return s
	}
	return color + s + colorReset
}

func (cf *ConsoleFormatter) bold(s string) string {
	return cf.colorize(s, colorBold)
}

func (cf *ConsoleFormatter) dim(s string) string {
	return cf.colorize(s, colorDim)
}

func (cf *ConsoleFormatter) green(s string) string {
	return cf.colorize(s, colorGreen)
}

func (cf *ConsoleFormatter) yellow(s string) string {
	return cf.colorize(s, colorYellow)
}

func (cf *ConsoleFormatter) red(s string) string {
	return cf.colorize(s, colorRed)
}

func (cf *ConsoleFormatter) cyan(s string) string {
	return cf.colorize(s, colorCyan)
}

func (cf *ConsoleFormatter) colorizeErrorRate(s string, rate float64) string {
	if rate < 0.1 {
		return cf.green(s)
	} else if rate < 1.0 {
		return cf.yellow(s)
	}
	return cf.red(s)
}

func (cf *ConsoleFormatter) colorizeStat(s string, value float64) string {
	if value <= 0 {
		return cf.red(s)
	} else if value <= lowStatThreshold {
		return cf.yellow(s)
	}
	return cf.green(s)
}

func (cf *ConsoleFormatter) println(s string) {
	fmt.Fprintln(cf.writer, s)
}

// Formatting helper functions

// formatNumber formats an integer with thousands separators.
// Example: 45230 -> "45,230"
func formatNumber[T int | int64](n T) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}

	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	remainder := len(str) % 3
	if remainder > 0 {
		result.WriteString(str[:remainder])
	}

	for i := remainder; i < len(str); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(str[i : i+3])
	}

	return result.String()
}

// formatMicros formats a duration in microseconds with one decimal.
// Example: 1300ns -> "1.3"
func formatMicros(d time.Duration) string {
	return fmt.Sprintf("%.1f", float64(d.Nanoseconds())/1000.0)
}

// formatDuration formats a duration in a human-readable way.
// Example: 5m0s, 1h30m, 2h0m0s -> "2h"
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Round(time.Millisecond).String()
	}

	d = d.Round(time.Second)

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 0 {
		if minutes == 0 && seconds == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		if seconds == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	}

	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm%ds", minutes, seconds)
}

// truncateString truncates a string to maxLen, adding ellipsis if needed.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// wrapText splits s into lines of at most n columns on word boundaries.
func (cf *ConsoleFormatter) wrapText(s string, n int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if cf.visibleLength(line)+1+cf.visibleLength(w) > n {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
