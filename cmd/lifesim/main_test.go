package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/myorg/lifesim/internal/config"
	"github.com/myorg/lifesim/internal/report"
	"github.com/myorg/lifesim/internal/timeline"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(""))
	rootCmd.SetArgs(append([]string{"--quiet"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lifesim version "+Version)
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifesim.yaml")

	out, err := execute(t, "config", "init", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote "+path)

	_, err = execute(t, "config", "init", path)
	assert.Error(t, err, "existing file must not be overwritten")

	out, err = execute(t, "config", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Config is valid (4 actions")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 8.0, cfg.Clock.StartHour)
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clock:\n  base_rate: -1\n"), 0644))

	_, err := execute(t, "config", "validate", path)
	assert.Error(t, err)
}

func TestScenarioCommands(t *testing.T) {
	out, err := execute(t, "scenario", "list")
	require.NoError(t, err)
	for _, name := range []string{"idle", "routine", "student", "workaholic"} {
		assert.Contains(t, out, name)
	}

	out, err = execute(t, "scenario", "show", "routine", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: routine")
	assert.Contains(t, out, "First step: day 1 07.00")
	assert.Less(t, strings.Index(out, "breakfast"), strings.Index(out, "night"))

	orderPath := filepath.Join(t.TempDir(), "order.yaml")
	ordered := "name: order\nsteps:\n" +
		"  - {name: late, day: 2, hour: 6, skip: 1}\n" +
		"  - {name: early, day: 1, hour: 9, skip: 1}\n" +
		"  - {name: off, day: 1, hour: 1, skip: 1, enabled: false}\n"
	require.NoError(t, os.WriteFile(orderPath, []byte(ordered), 0644))
	out, err = execute(t, "scenario", "show", orderPath, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "First step: day 1 09.00")
	assert.Less(t, strings.Index(out, "early"), strings.Index(out, "late"))
	assert.NotContains(t, out, " off")
	assert.Contains(t, out, "(1 disabled step(s) not shown)")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	script := "name: bad\nsteps:\n  - day: 1\n    hour: 9\n    action: juggle\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0644))
	_, err = execute(t, "scenario", "validate", path)
	assert.ErrorContains(t, err, "juggle")
}

func TestRunAndReportShow(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	timelinePath := filepath.Join(dir, "timeline.csv")

	_, err := execute(t, "run",
		"--scenario", "routine",
		"--fps", "2",
		"--max-days", "2",
		"--no-color",
		"-o", reportPath,
		"--timeline", timelinePath)
	require.NoError(t, err)

	rpt, err := report.ReadFromFile(reportPath)
	require.NoError(t, err)
	assert.Equal(t, "headless", rpt.RunInfo.Mode)
	assert.Equal(t, "routine", rpt.RunInfo.Scenario)
	assert.NotEmpty(t, rpt.RunInfo.RunID)
	assert.Positive(t, rpt.RunInfo.Frames)
	require.NotNil(t, rpt.Timeline)

	entries, err := timeline.ReadCSV(timelinePath)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	out, err := execute(t, "report", "show", reportPath, "--no-color")
	require.NoError(t, err)
	assert.Contains(t, out, "lifesim")
	assert.Contains(t, out, "headless")
}

func TestReportShow_Timeline(t *testing.T) {
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	timelinePath := filepath.Join(dir, "timeline.csv")

	_, err := execute(t, "run",
		"--scenario", "idle",
		"--fps", "2",
		"--max-days", "3",
		"--no-color",
		"-o", reportPath,
		"--timeline", timelinePath)
	require.NoError(t, err)

	out, err := execute(t, "report", "show", reportPath, "--no-color",
		"--timeline", timelinePath, "--days", "2")
	require.NoError(t, err)
	rows := sampleRows(out)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		assert.True(t, strings.HasPrefix(row, "2 "), "sample outside day 2: %q", row)
	}

	out, err = execute(t, "report", "show", reportPath, "--no-color",
		"--timeline", timelinePath, "--days", "", "--tail", "2")
	require.NoError(t, err)
	assert.Len(t, sampleRows(out), 2)

	out, err = execute(t, "report", "show", reportPath,
		"--timeline", "", "--tail", "0", "--json", "--compact")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(strings.TrimSpace(out), "\n")+1)
	assert.Contains(t, out, `"run_id"`)

	_, err = execute(t, "report", "show", reportPath, "--json=false", "--compact=false", "--tail", "3")
	assert.ErrorContains(t, err, "--timeline")
	reportCfg.Tail = 0
}

// sampleRows returns the sample table rows printed after the dashed rule.
func sampleRows(out string) []string {
	_, table, ok := strings.Cut(out, strings.Repeat("-", 58)+"\n")
	if !ok {
		return nil
	}
	var rows []string
	for _, line := range strings.Split(table, "\n") {
		if strings.TrimSpace(line) != "" {
			rows = append(rows, line)
		}
	}
	return rows
}

func TestParseDayRange(t *testing.T) {
	from, to, err := parseDayRange("3")
	require.NoError(t, err)
	assert.Equal(t, [2]int{3, 3}, [2]int{from, to})

	from, to, err = parseDayRange("2-4")
	require.NoError(t, err)
	assert.Equal(t, [2]int{2, 4}, [2]int{from, to})

	for _, bad := range []string{"", "0", "x", "4-2", "2-", "-3"} {
		_, _, err := parseDayRange(bad)
		assert.Error(t, err, bad)
	}
}

func TestRun_InvalidStore(t *testing.T) {
	_, err := execute(t, "run", "--store", "redis", "--max-frames", "1")
	assert.ErrorContains(t, err, "--store")
}
