// Package store exports finished runs and their timeline samples to a
// database. Nothing stored here is ever loaded back into a session.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/myorg/lifesim/internal/needs"
	"github.com/myorg/lifesim/internal/runner"
	"github.com/myorg/lifesim/internal/timeline"
)

var (
	// ErrDuplicateRun is returned when a run with the same ID was already saved.
	ErrDuplicateRun = errors.New("run already stored")
	// ErrInvalidRun is returned for runs that cannot be stored.
	ErrInvalidRun = errors.New("invalid run")
)

// Run is the stored summary of one run.
type Run struct {
	ID            string
	Mode          string
	Reason        string
	Scenario      string
	Locale        string
	StartedAt     time.Time
	EndedAt       time.Time
	Frames        int64
	FinalDay      int
	FinalHour     float64
	Stats         needs.Stats
	GameOver      bool
	OutcomeReason string
	StepsFired    int
	StepsFailed   int

	// SampleCount is filled in by ListRuns.
	SampleCount int64
}

// Validate checks the fields every backend relies on.
func (r *Run) Validate() error {
	if _, err := uuid.Parse(r.ID); err != nil {
		return fmt.Errorf("%w: run id %q: %v", ErrInvalidRun, r.ID, err)
	}
	if r.Mode == "" {
		return fmt.Errorf("%w: mode is required", ErrInvalidRun)
	}
	if r.FinalDay < 1 {
		return fmt.Errorf("%w: final day must be >= 1", ErrInvalidRun)
	}
	return nil
}

// ResultStore persists runs.
type ResultStore interface {
	// Init creates the tables if needed.
	Init(ctx context.Context) error
	// SaveRun stores the run and its samples atomically.
	SaveRun(ctx context.Context, run Run, samples []timeline.TimelineEntry) error
	// ListRuns returns the most recent runs first. limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	Close() error
}

// RunFromResult builds a Run from a runner result.
func RunFromResult(res *runner.Result, scenario, locale string) Run {
	run := Run{
		ID:          res.RunID,
		Mode:        string(res.Mode),
		Reason:      string(res.Reason),
		Scenario:    scenario,
		Locale:      locale,
		StartedAt:   res.StartTime,
		EndedAt:     res.EndTime,
		Frames:      res.Frames,
		FinalDay:    res.Final.Clock.Day,
		FinalHour:   res.Final.Clock.Hour,
		Stats:       res.Final.Stats,
		GameOver:    res.Final.GameOver,
		StepsFired:  res.StepsFired,
		StepsFailed: res.StepsFailed,
	}
	if res.Final.Outcome != nil {
		run.OutcomeReason = res.Final.Outcome.Reason
	}
	return run
}

// Save validates run and stores it with its samples.
func Save(ctx context.Context, s ResultStore, run Run, samples []timeline.TimelineEntry) error {
	if err := run.Validate(); err != nil {
		return err
	}
	if err := s.SaveRun(ctx, run, samples); err != nil {
		return fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return nil
}
