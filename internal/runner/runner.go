// Package runner drives a session over time: a headless fixed-step loop for
// batch runs and a realtime loop for interactive play. Both feed the timeline,
// metrics and any snapshot observers.
package runner

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/myorg/lifesim/internal/clock"
	"github.com/myorg/lifesim/internal/config"
	"github.com/myorg/lifesim/internal/metrics"
	"github.com/myorg/lifesim/internal/scenario"
	"github.com/myorg/lifesim/internal/session"
	"github.com/myorg/lifesim/internal/timeline"
)

// Mode identifies which loop produced a result.
type Mode string

const (
	ModeHeadless Mode = "headless"
	ModeRealtime Mode = "realtime"
)

// StopReason says why a run ended.
type StopReason string

const (
	StopGameOver   StopReason = "game_over"
	StopMaxDays    StopReason = "max_days"
	StopScriptDone StopReason = "script_done"
	StopMaxFrames  StopReason = "max_frames"
	StopStalled    StopReason = "stalled"
	StopQuit       StopReason = "quit"
	StopCancelled  StopReason = "cancelled"
)

// Config contains driver settings.
type Config struct {
	FPS              int
	MaxDays          int
	SampleEveryHours float64
	// TimelinePath streams samples to a CSV file when set.
	TimelinePath string
	FlushEvery   int
	// MaxFrames caps the number of frames; 0 means no cap.
	MaxFrames int64
}

// ConfigFrom builds a runner Config from the application configuration.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		FPS:              cfg.Simulation.FPS,
		MaxDays:          cfg.Simulation.MaxDays,
		SampleEveryHours: cfg.Simulation.SampleEveryHours,
		TimelinePath:     cfg.Output.Timeline,
	}
}

// Result is the outcome of a run.
type Result struct {
	RunID     string
	Mode      Mode
	Reason    StopReason
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
	Frames    int64

	Final    session.Snapshot
	Samples  []timeline.TimelineEntry
	Timeline *timeline.TimelineSummary
	Metrics  *metrics.Snapshot

	StepsFired  int
	StepsFailed int
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithScript schedules a scenario script against the session.
func WithScript(s *scenario.Script) Option {
	return func(r *Runner) { r.script = s }
}

// WithCollector sets the metrics collector. Defaults to a new one.
func WithCollector(c *metrics.Collector) Option {
	return func(r *Runner) {
		if c != nil {
			r.metrics = c
		}
	}
}

// WithSource sets the wall-time source for the realtime loop.
func WithSource(src clock.Source) Option {
	return func(r *Runner) { r.source = src }
}

// WithObserver registers fn to receive every published session snapshot.
func WithObserver(fn func(session.Snapshot)) Option {
	return func(r *Runner) { r.observers = append(r.observers, fn) }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// recorder is the timeline sink: in memory or streamed to CSV.
type recorder interface {
	Record(entry timeline.TimelineEntry) error
	GetEntries() []timeline.TimelineEntry
	GetSummary() *timeline.TimelineSummary
}

type memoryTimeline struct {
	*timeline.Timeline
}

func (m memoryTimeline) Record(entry timeline.TimelineEntry) error {
	m.AddEntry(entry)
	return nil
}

// Runner drives one session. A Runner is used for a single run.
type Runner struct {
	sess      *session.Session
	cfg       Config
	script    *scenario.Script
	scheduler *scenario.Scheduler
	metrics   *metrics.Collector
	source    clock.Source
	logger    *slog.Logger
	observers []func(session.Snapshot)

	runID     string
	sampler   *timeline.Sampler
	timeline  recorder
	streaming *timeline.StreamingTimeline
	lastEntry *timeline.TimelineEntry
	recordErr error
	frames    int64
	used      bool
}

// New creates a runner for sess.
func New(sess *session.Session, cfg Config, opts ...Option) (*Runner, error) {
	if sess == nil {
		return nil, errors.New("session is required")
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.SampleEveryHours <= 0 {
		cfg.SampleEveryHours = 1
	}
	if cfg.MaxDays < 0 {
		return nil, fmt.Errorf("max days cannot be negative: %d", cfg.MaxDays)
	}

	r := &Runner{
		sess:    sess,
		cfg:     cfg,
		metrics: metrics.NewCollector(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.script != nil {
		if err := r.script.Validate(); err != nil {
			return nil, fmt.Errorf("script %s: %w", r.script.Name, err)
		}
		catalog := sess.Catalog()
		known := func(name string) bool {
			_, err := catalog.Get(name)
			return err == nil
		}
		if err := r.script.CheckActions(known); err != nil {
			return nil, fmt.Errorf("script %s: %w", r.script.Name, err)
		}
		if r.script.MaxDays > 0 {
			r.cfg.MaxDays = r.script.MaxDays
		}
	}
	r.scheduler = scenario.NewScheduler(r.script)
	r.scheduler.AddListener(scenario.StepListenerFunc(r.onStep))

	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	r.sampler = timeline.NewSampler(r.cfg.SampleEveryHours)

	if r.cfg.TimelinePath != "" {
		st, err := timeline.NewStreamingTimeline(r.cfg.TimelinePath, r.cfg.SampleEveryHours, r.cfg.FlushEvery)
		if err != nil {
			return nil, fmt.Errorf("creating timeline: %w", err)
		}
		r.streaming = st
		r.timeline = st
	} else {
		r.timeline = memoryTimeline{timeline.NewTimeline(r.cfg.SampleEveryHours)}
	}

	sess.Subscribe(r.onSnapshot)
	sess.OnDayChanged(func(day int) {
		r.logger.Info("new day", "run_id", r.runID, "day", day)
	})

	return r, nil
}

// RunID returns the run identifier.
func (r *Runner) RunID() string { return r.runID }

// Collector returns the metrics collector.
func (r *Runner) Collector() *metrics.Collector { return r.metrics }

// Config returns the effective configuration.
func (r *Runner) Config() Config { return r.cfg }

func (r *Runner) begin(mode Mode) (time.Time, error) {
	if r.used {
		return time.Time{}, errors.New("runner already used")
	}
	r.used = true

	start := time.Now()
	r.logger.Info("run started",
		"run_id", r.runID,
		"mode", mode,
		"fps", r.cfg.FPS,
		"max_days", r.cfg.MaxDays,
		"script", r.scriptName())

	now := r.gameHours()
	r.scheduler.Skip(now)
	r.onSnapshot(r.sess.Snapshot())
	return start, nil
}

func (r *Runner) finish(mode Mode, reason StopReason, start time.Time) (*Result, error) {
	final := r.sess.Snapshot()
	last := timeline.EntryFromSnapshot(final, time.Now())
	if r.lastEntry == nil || r.lastEntry.GameHours() != last.GameHours() || r.lastEntry.GameOver != last.GameOver {
		r.record(last)
	}

	var closeErr error
	if r.streaming != nil {
		written, err := r.streaming.Close()
		if err != nil {
			closeErr = fmt.Errorf("closing timeline: %w", err)
		}
		r.logger.Debug("timeline written", "path", r.cfg.TimelinePath, "entries", written)
	}

	end := time.Now()
	fired, failed := r.scheduler.Stats()
	res := &Result{
		RunID:       r.runID,
		Mode:        mode,
		Reason:      reason,
		StartTime:   start,
		EndTime:     end,
		Duration:    end.Sub(start),
		Frames:      r.frames,
		Final:       final,
		Samples:     r.timeline.GetEntries(),
		Timeline:    r.timeline.GetSummary(),
		Metrics:     r.metrics.GetSnapshot(),
		StepsFired:  fired,
		StepsFailed: failed,
	}

	r.logger.Info("run finished",
		"run_id", r.runID,
		"reason", reason,
		"day", final.Clock.Day,
		"hour", final.Clock.Hour,
		"frames", r.frames,
		"samples", len(res.Samples),
		"duration", res.Duration.Round(time.Millisecond))

	if r.recordErr != nil {
		return res, r.recordErr
	}
	return res, closeErr
}

// stopReason returns why the run should stop now, if it should.
func (r *Runner) stopReason() (StopReason, bool) {
	switch {
	case r.sess.GameOver():
		return StopGameOver, true
	case r.cfg.MaxDays > 0 && r.sess.Day() > r.cfg.MaxDays:
		return StopMaxDays, true
	case r.script != nil && len(r.script.Steps) > 0 && r.scheduler.Done():
		return StopScriptDone, true
	case r.cfg.MaxFrames > 0 && r.frames >= r.cfg.MaxFrames:
		return StopMaxFrames, true
	}
	return "", false
}

func (r *Runner) tick(deltaRealSeconds float64) error {
	r.frames++
	return r.metrics.Time(metrics.OpTick, func() error {
		_, err := r.sess.Tick(deltaRealSeconds)
		return err
	})
}

func (r *Runner) runSteps() {
	r.scheduler.Run(timedTarget{r}, r.gameHours)
}

func (r *Runner) gameHours() float64 {
	st := r.sess.Snapshot().Clock
	return float64(st.Day-1)*clock.HoursPerDay + st.Hour
}

func (r *Runner) onSnapshot(snap session.Snapshot) {
	for _, fn := range r.observers {
		fn(snap)
	}
	if entry, ok := r.sampler.Observe(snap, time.Now()); ok {
		r.record(entry)
	}
}

func (r *Runner) record(entry timeline.TimelineEntry) {
	err := r.metrics.Time(metrics.OpSample, func() error {
		return r.timeline.Record(entry)
	})
	if err != nil {
		if r.recordErr == nil {
			r.recordErr = fmt.Errorf("recording sample: %w", err)
		}
		r.logger.Warn("failed to record sample", "error", err)
		return
	}
	r.lastEntry = &entry
}

func (r *Runner) onStep(f scenario.Firing) {
	if f.Err != nil {
		r.logger.Warn("step failed", "step", f.Step.Label(), "at", f.At, "error", f.Err)
		return
	}
	r.logger.Debug("step fired", "step", f.Step.Label(), "at", f.At, "hours", f.Hours)
}

func (r *Runner) scriptName() string {
	if r.script == nil {
		return ""
	}
	return r.script.Name
}

// timedTarget records latency for every session operation a step runs.
type timedTarget struct{ r *Runner }

func (t timedTarget) Perform(name string, requestedHours float64) (float64, error) {
	var hours float64
	err := t.r.metrics.Time(metrics.OpAction, func() error {
		var err error
		hours, err = t.r.sess.Perform(name, requestedHours)
		return err
	})
	return hours, err
}

func (t timedTarget) Skip(hours float64) error {
	return t.r.metrics.Time(metrics.OpSkip, func() error {
		return t.r.sess.Skip(hours)
	})
}

func (t timedTarget) SetSpeed(multiplier float64) error {
	return t.r.sess.SetSpeed(multiplier)
}
