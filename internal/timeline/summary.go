package timeline

import (
	"fmt"
	"strings"
	"time"
)

// StatSummary aggregates one stat across the timeline.
type StatSummary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	// HoursAtZero is the game time spent with the stat at 0, measured between
	// consecutive samples.
	HoursAtZero float64 `json:"hours_at_zero"`
}

// TimelineSummary contains aggregated statistics for a timeline.
type TimelineSummary struct {
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Samples   int       `json:"samples"`
	Interval  float64   `json:"interval_hours"`

	FirstDay   int     `json:"first_day"`
	LastDay    int     `json:"last_day"`
	Days       int     `json:"days"`
	GameHours  float64 `json:"game_hours"`
	PausedSpan float64 `json:"paused_hours"`

	Hunger    StatSummary `json:"hunger"`
	Sleep     StatSummary `json:"sleep"`
	Happiness StatSummary `json:"happiness"`
	Willpower StatSummary `json:"willpower"`

	StartMoney int `json:"start_money"`
	EndMoney   int `json:"end_money"`
	MinMoney   int `json:"min_money"`

	FinalEmploymentChance float64 `json:"final_employment_chance"`
	GameOver              bool    `json:"game_over"`
}

type statAcc struct {
	min, max, sum, zero float64
}

func newStatAcc(v float64) statAcc {
	return statAcc{min: v, max: v}
}

func (a *statAcc) add(v, span float64) {
	if v < a.min {
		a.min = v
	}
	if v > a.max {
		a.max = v
	}
	a.sum += v
	if v == 0 {
		a.zero += span
	}
}

func (a statAcc) summary(n int) StatSummary {
	return StatSummary{Min: a.min, Max: a.max, Mean: a.sum / float64(n), HoursAtZero: a.zero}
}

// CalculateSummary calculates summary statistics for the timeline.
func (t *Timeline) CalculateSummary() *TimelineSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.Entries) == 0 {
		return &TimelineSummary{
			Interval: t.Interval,
		}
	}

	first := t.Entries[0]
	last := t.Entries[len(t.Entries)-1]

	summary := &TimelineSummary{
		StartTime:             t.StartTime,
		EndTime:               t.EndTime,
		Samples:               len(t.Entries),
		Interval:              t.Interval,
		FirstDay:              first.Day,
		LastDay:               last.Day,
		Days:                  last.Day - first.Day + 1,
		GameHours:             last.GameHours() - first.GameHours(),
		StartMoney:            first.Money,
		EndMoney:              last.Money,
		MinMoney:              first.Money,
		FinalEmploymentChance: last.EmploymentChance,
	}

	hunger := newStatAcc(first.Hunger)
	sleep := newStatAcc(first.Sleep)
	happiness := newStatAcc(float64(first.Happiness))
	willpower := newStatAcc(float64(first.Willpower))

	for i, e := range t.Entries {
		// Time until the next sample is attributed to this sample's state.
		var span float64
		if i+1 < len(t.Entries) {
			span = t.Entries[i+1].GameHours() - e.GameHours()
		}

		hunger.add(e.Hunger, span)
		sleep.add(e.Sleep, span)
		happiness.add(float64(e.Happiness), span)
		willpower.add(float64(e.Willpower), span)

		if e.Paused {
			summary.PausedSpan += span
		}
		if e.Money < summary.MinMoney {
			summary.MinMoney = e.Money
		}
		if e.GameOver {
			summary.GameOver = true
		}
	}

	n := len(t.Entries)
	summary.Hunger = hunger.summary(n)
	summary.Sleep = sleep.summary(n)
	summary.Happiness = happiness.summary(n)
	summary.Willpower = willpower.summary(n)

	return summary
}

// Format returns a formatted string representation of the summary.
func (s *TimelineSummary) Format() string {
	if s.Samples == 0 {
		return "No data collected"
	}

	lines := []string{
		formatLine("Days", fmt.Sprintf("%d (day %d to %d)", s.Days, s.FirstDay, s.LastDay)),
		formatLine("Game Hours", fmt.Sprintf("%.1f", s.GameHours)),
		formatLine("Samples", fmt.Sprintf("%d", s.Samples)),
		"",
		formatStat("Hunger", s.Hunger),
		formatStat("Sleep", s.Sleep),
		formatStat("Happiness", s.Happiness),
		formatStat("Willpower", s.Willpower),
		"",
		formatLine("Money (start/end/min)", fmt.Sprintf("%d / %d / %d", s.StartMoney, s.EndMoney, s.MinMoney)),
		formatLine("Employment Chance", fmt.Sprintf("%.1f%%", s.FinalEmploymentChance)),
	}
	if s.GameOver {
		lines = append(lines, formatLine("Outcome", "game over"))
	}
	return strings.Join(lines, "\n")
}

func formatLine(label, value string) string {
	return label + ": " + value
}

func formatStat(label string, st StatSummary) string {
	return formatLine(label+" (min/mean/max)",
		fmt.Sprintf("%.1f / %.1f / %.1f, %.1fh at zero", st.Min, st.Mean, st.Max, st.HoursAtZero))
}
