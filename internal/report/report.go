package report

import (
	"time"

	"github.com/myorg/lifesim/internal/clock"
	"github.com/myorg/lifesim/internal/metrics"
	"github.com/myorg/lifesim/internal/needs"
	"github.com/myorg/lifesim/internal/session"
	"github.com/myorg/lifesim/internal/timeline"
)

// Version is the report format version.
const Version = "1.0"

// Report contains the complete results of a simulation run.
type Report struct {
	Version    string                    `json:"version"`
	RunInfo    RunInfo                   `json:"run_info"`
	Outcome    *session.Outcome          `json:"outcome,omitempty"`
	FinalClock clock.State               `json:"final_clock"`
	FinalStats needs.Stats               `json:"final_stats"`
	Summary    Summary                   `json:"summary"`
	Latencies  map[string]*LatencyReport `json:"latencies"`
	Errors     map[string]*ErrorReport   `json:"errors,omitempty"`
	Timeline   *timeline.TimelineSummary `json:"timeline,omitempty"`
}

// RunInfo contains metadata about the run.
type RunInfo struct {
	RunID      string        `json:"run_id"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
	Mode       string        `json:"mode"`
	ConfigPath string        `json:"config_path,omitempty"`
	Scenario   string        `json:"scenario,omitempty"`
	Locale     string        `json:"locale"`
	Speed      float64       `json:"speed"`
	FPS        int           `json:"fps"`
	MaxDays    int           `json:"max_days"`
	Frames     int64         `json:"frames"`
}

// Summary contains aggregate operation counts.
type Summary struct {
	TotalOps    int64   `json:"total_ops"`
	TotalErrors int64   `json:"total_errors"`
	Rate        float64 `json:"ops_per_sec"`
	ErrorRate   float64 `json:"error_rate_pct"`
	GameHours   float64 `json:"game_hours"`
	Days        int     `json:"days"`
}

// LatencyReport contains latency statistics for an operation.
type LatencyReport struct {
	Operation string        `json:"operation"`
	Count     int64         `json:"count"`
	Rate      float64       `json:"ops_per_sec"`
	Min       time.Duration `json:"min"`
	Max       time.Duration `json:"max"`
	Mean      time.Duration `json:"mean"`
	StdDev    time.Duration `json:"std_dev"`
	P50       time.Duration `json:"p50"`
	P90       time.Duration `json:"p90"`
	P95       time.Duration `json:"p95"`
	P99       time.Duration `json:"p99"`
	P999      time.Duration `json:"p999"`
}

// ErrorReport contains error statistics for an operation.
type ErrorReport struct {
	Operation  string           `json:"operation"`
	TotalCount int64            `json:"total_count"`
	ByType     map[string]int64 `json:"by_type"`
}

// Input holds everything needed to build a Report.
type Input struct {
	RunInfo  RunInfo
	Final    session.Snapshot
	Metrics  *metrics.Snapshot
	Timeline *timeline.TimelineSummary
}

// GenerateReport creates a Report from the final session state, the metrics
// snapshot and the timeline summary. Metrics and timeline may be nil.
func GenerateReport(in Input) *Report {
	report := &Report{
		Version:    Version,
		RunInfo:    in.RunInfo,
		FinalClock: in.Final.Clock,
		FinalStats: in.Final.Stats,
		Latencies:  make(map[string]*LatencyReport),
		Errors:     make(map[string]*ErrorReport),
		Timeline:   in.Timeline,
	}
	if in.Final.Outcome != nil {
		o := *in.Final.Outcome
		report.Outcome = &o
	}

	if in.Metrics != nil {
		report.Summary = Summary{
			TotalOps:    in.Metrics.TotalOps,
			TotalErrors: in.Metrics.TotalErrors,
			Rate:        in.Metrics.Rate,
			ErrorRate:   in.Metrics.ErrorRate(),
		}

		for opName, opStats := range in.Metrics.Operations {
			report.Latencies[opName] = &LatencyReport{
				Operation: opName,
				Count:     opStats.Count,
				Rate:      opStats.Rate,
				Min:       opStats.Latency.Min,
				Max:       opStats.Latency.Max,
				Mean:      opStats.Latency.Mean,
				StdDev:    opStats.Latency.StdDev,
				P50:       opStats.Latency.P50,
				P90:       opStats.Latency.P90,
				P95:       opStats.Latency.P95,
				P99:       opStats.Latency.P99,
				P999:      opStats.Latency.P999,
			}

			if opStats.Errors > 0 && len(opStats.ErrorTypes) > 0 {
				byType := make(map[string]int64, len(opStats.ErrorTypes))
				for errType, count := range opStats.ErrorTypes {
					byType[errType] = count
				}
				report.Errors[opName] = &ErrorReport{
					Operation:  opName,
					TotalCount: opStats.Errors,
					ByType:     byType,
				}
			}
		}
	}

	if in.Timeline != nil {
		report.Summary.GameHours = in.Timeline.GameHours
		report.Summary.Days = in.Timeline.Days
	}

	if len(report.Errors) == 0 {
		report.Errors = nil
	}

	return report
}

// GameOver reports whether the run ended with the exhausted signal.
func (r *Report) GameOver() bool {
	return r.Outcome != nil
}
