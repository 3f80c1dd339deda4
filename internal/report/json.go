package report

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/myorg/lifesim/internal/clock"
	"github.com/myorg/lifesim/internal/needs"
	"github.com/myorg/lifesim/internal/session"
	"github.com/myorg/lifesim/internal/timeline"
)

// jsonReport is the JSON-serializable version of Report.
type jsonReport struct {
	Version    string                    `json:"version"`
	RunInfo    jsonRunInfo               `json:"run_info"`
	Outcome    *session.Outcome          `json:"outcome,omitempty"`
	FinalClock clock.State               `json:"final_clock"`
	FinalStats needs.Stats               `json:"final_stats"`
	Summary    Summary                   `json:"summary"`
	Latencies  map[string]*jsonLatency   `json:"latencies"`
	Errors     map[string]*ErrorReport   `json:"errors,omitempty"`
	Timeline   *timeline.TimelineSummary `json:"timeline,omitempty"`
}

type jsonRunInfo struct {
	RunID       string  `json:"run_id"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	Duration    string  `json:"duration"`
	DurationSec float64 `json:"duration_sec"`
	Mode        string  `json:"mode"`
	ConfigPath  string  `json:"config_path,omitempty"`
	Scenario    string  `json:"scenario,omitempty"`
	Locale      string  `json:"locale"`
	Speed       float64 `json:"speed"`
	FPS         int     `json:"fps"`
	MaxDays     int     `json:"max_days"`
	Frames      int64   `json:"frames"`
}

type jsonLatency struct {
	Operation string  `json:"operation"`
	Count     int64   `json:"count"`
	Rate      float64 `json:"ops_per_sec"`
	// Session operations are sub-millisecond, so values are in microseconds.
	MinUs    float64 `json:"min_us"`
	MaxUs    float64 `json:"max_us"`
	MeanUs   float64 `json:"mean_us"`
	StdDevUs float64 `json:"std_dev_us"`
	P50Us    float64 `json:"p50_us"`
	P90Us    float64 `json:"p90_us"`
	P95Us    float64 `json:"p95_us"`
	P99Us    float64 `json:"p99_us"`
	P999Us   float64 `json:"p999_us"`
}

// ToJSON serializes the report to JSON.
func (r *Report) ToJSON() ([]byte, error) {
	jr := r.toJSONReport()
	return json.MarshalIndent(jr, "", "  ")
}

// ToJSONCompact serializes the report to compact JSON.
func (r *Report) ToJSONCompact() ([]byte, error) {
	jr := r.toJSONReport()
	return json.Marshal(jr)
}

// WriteToFile writes the report to a file.
func (r *Report) WriteToFile(path string) error {
	data, err := r.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing report: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

// FromJSON parses a report produced by ToJSON. Times are restored to second
// precision and latencies to the nanosecond.
func FromJSON(data []byte) (*Report, error) {
	var jr jsonReport
	if err := json.Unmarshal(data, &jr); err != nil {
		return nil, fmt.Errorf("parsing report: %w", err)
	}
	return jr.toReport()
}

// ReadFromFile loads a report written by WriteToFile.
func ReadFromFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading report file: %w", err)
	}
	return FromJSON(data)
}

func (r *Report) toJSONReport() jsonReport {
	jr := jsonReport{
		Version: r.Version,
		RunInfo: jsonRunInfo{
			RunID:       r.RunInfo.RunID,
			StartTime:   r.RunInfo.StartTime.Format(time.RFC3339),
			EndTime:     r.RunInfo.EndTime.Format(time.RFC3339),
			Duration:    r.RunInfo.Duration.String(),
			DurationSec: r.RunInfo.Duration.Seconds(),
			Mode:        r.RunInfo.Mode,
			ConfigPath:  r.RunInfo.ConfigPath,
			Scenario:    r.RunInfo.Scenario,
			Locale:      r.RunInfo.Locale,
			Speed:       r.RunInfo.Speed,
			FPS:         r.RunInfo.FPS,
			MaxDays:     r.RunInfo.MaxDays,
			Frames:      r.RunInfo.Frames,
		},
		Outcome:    r.Outcome,
		FinalClock: r.FinalClock,
		FinalStats: r.FinalStats,
		Summary:    r.Summary,
		Latencies:  make(map[string]*jsonLatency),
		Errors:     r.Errors,
		Timeline:   r.Timeline,
	}

	for name, lat := range r.Latencies {
		jr.Latencies[name] = &jsonLatency{
			Operation: lat.Operation,
			Count:     lat.Count,
			Rate:      lat.Rate,
			MinUs:     toMicros(lat.Min),
			MaxUs:     toMicros(lat.Max),
			MeanUs:    toMicros(lat.Mean),
			StdDevUs:  toMicros(lat.StdDev),
			P50Us:     toMicros(lat.P50),
			P90Us:     toMicros(lat.P90),
			P95Us:     toMicros(lat.P95),
			P99Us:     toMicros(lat.P99),
			P999Us:    toMicros(lat.P999),
		}
	}

	return jr
}

func (jr jsonReport) toReport() (*Report, error) {
	start, err := parseTime(jr.RunInfo.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	end, err := parseTime(jr.RunInfo.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parsing end_time: %w", err)
	}

	r := &Report{
		Version: jr.Version,
		RunInfo: RunInfo{
			RunID:      jr.RunInfo.RunID,
			StartTime:  start,
			EndTime:    end,
			Duration:   time.Duration(math.Round(jr.RunInfo.DurationSec * float64(time.Second))),
			Mode:       jr.RunInfo.Mode,
			ConfigPath: jr.RunInfo.ConfigPath,
			Scenario:   jr.RunInfo.Scenario,
			Locale:     jr.RunInfo.Locale,
			Speed:      jr.RunInfo.Speed,
			FPS:        jr.RunInfo.FPS,
			MaxDays:    jr.RunInfo.MaxDays,
			Frames:     jr.RunInfo.Frames,
		},
		Outcome:    jr.Outcome,
		FinalClock: jr.FinalClock,
		FinalStats: jr.FinalStats,
		Summary:    jr.Summary,
		Latencies:  make(map[string]*LatencyReport, len(jr.Latencies)),
		Errors:     jr.Errors,
		Timeline:   jr.Timeline,
	}

	for name, lat := range jr.Latencies {
		if lat == nil {
			continue
		}
		r.Latencies[name] = &LatencyReport{
			Operation: lat.Operation,
			Count:     lat.Count,
			Rate:      lat.Rate,
			Min:       fromMicros(lat.MinUs),
			Max:       fromMicros(lat.MaxUs),
			Mean:      fromMicros(lat.MeanUs),
			StdDev:    fromMicros(lat.StdDevUs),
			P50:       fromMicros(lat.P50Us),
			P90:       fromMicros(lat.P90Us),
			P95:       fromMicros(lat.P95Us),
			P99:       fromMicros(lat.P99Us),
			P999:      fromMicros(lat.P999Us),
		}
	}

	return r, nil
}

func toMicros(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1000.0
}

func fromMicros(us float64) time.Duration {
	return time.Duration(math.Round(us * 1000))
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

// String returns a human-readable summary of the report.
func (r *Report) String() string {
	outcome := "survived"
	if r.Outcome != nil {
		outcome = fmt.Sprintf("game over on day %d", r.Outcome.Day)
	}
	return fmt.Sprintf(
		"Report: %s, %s, %d ops (%.2f/s), %d errors (%.2f%%), duration: %s",
		r.FinalClock,
		outcome,
		r.Summary.TotalOps,
		r.Summary.Rate,
		r.Summary.TotalErrors,
		r.Summary.ErrorRate,
		r.RunInfo.Duration,
	)
}
