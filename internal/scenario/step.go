// Package scenario runs deterministic scripts of player actions and clock
// changes against a session.
package scenario

import (
	"errors"
	"fmt"
	"math"

	"github.com/myorg/lifesim/internal/clock"
)

// ErrInvalidStep is wrapped by every step validation error.
var ErrInvalidStep = errors.New("invalid step")

// Kind identifies what a step does.
type Kind string

const (
	KindAction Kind = "action"
	KindSkip   Kind = "skip"
	KindSpeed  Kind = "speed"
)

// Step is one scheduled entry in a script.
type Step struct {
	Name  string  `yaml:"name" json:"name"`
	Day   int     `yaml:"day" json:"day"`
	Hour  float64 `yaml:"hour" json:"hour"`
	Kind  Kind    `yaml:"kind" json:"kind"`
	Daily bool    `yaml:"daily" json:"daily"` // repeat every day at Hour, starting on Day

	Action string  `yaml:"action" json:"action,omitempty"`
	Hours  float64 `yaml:"hours" json:"hours,omitempty"` // requested action length, or skip length
	Speed  float64 `yaml:"speed" json:"speed,omitempty"`

	Enabled bool `yaml:"enabled" json:"enabled"`
}

// At returns the first time the step is due, in absolute game hours from
// midnight of day 1.
func (s *Step) At() float64 {
	return float64(s.Day-1)*clock.HoursPerDay + s.Hour
}

// Validate checks that the step is well formed.
func (s *Step) Validate() error {
	if s.Day < 1 {
		return fmt.Errorf("%w: day must be >= 1, got %d", ErrInvalidStep, s.Day)
	}
	if math.IsNaN(s.Hour) || s.Hour < 0 || s.Hour >= clock.HoursPerDay {
		return fmt.Errorf("%w: hour must be in [0, 24), got %v", ErrInvalidStep, s.Hour)
	}
	if !clock.ValidElapsed(s.Hours) {
		return fmt.Errorf("%w: hours must be in [0, %g], got %v", ErrInvalidStep, clock.MaxElapsedHours, s.Hours)
	}

	switch s.Kind {
	case KindAction:
		if s.Action == "" {
			return fmt.Errorf("%w: action step needs an action name", ErrInvalidStep)
		}
	case KindSkip:
		if s.Hours <= 0 {
			return fmt.Errorf("%w: skip step needs positive hours", ErrInvalidStep)
		}
	case KindSpeed:
		// Speed 0 would stall a script, since steps are keyed on game time.
		if math.IsNaN(s.Speed) || math.IsInf(s.Speed, 0) || s.Speed <= 0 {
			return fmt.Errorf("%w: speed must be positive", ErrInvalidStep)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidStep, s.Kind)
	}
	return nil
}

// Copy creates a copy of the step.
func (s *Step) Copy() *Step {
	cp := *s
	return &cp
}

// Label returns the step name, or a description when it has none.
func (s *Step) Label() string {
	if s.Name != "" {
		return s.Name
	}
	switch s.Kind {
	case KindSkip:
		return fmt.Sprintf("skip %gh", s.Hours)
	case KindSpeed:
		return fmt.Sprintf("speed x%g", s.Speed)
	default:
		return s.Action
	}
}

// String returns a string representation of the step.
func (s *Step) String() string {
	status := "disabled"
	if s.Enabled {
		status = "enabled"
	}
	when := fmt.Sprintf("day %d %05.2f", s.Day, s.Hour)
	if s.Daily {
		when += " daily"
	}
	return fmt.Sprintf("Step{%s, %s, %s, %s}", s.Label(), s.Kind, when, status)
}

// Script is a named, ordered list of steps.
type Script struct {
	Name        string
	Description string
	// MaxDays overrides the simulation day limit when positive.
	MaxDays int
	Steps   []*Step
}

// Validate checks every step.
func (sc *Script) Validate() error {
	for i, st := range sc.Steps {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, st.Label(), err)
		}
	}
	if sc.MaxDays < 0 {
		return fmt.Errorf("max_days cannot be negative")
	}
	return nil
}

// CheckActions verifies that every action step names a known action.
func (sc *Script) CheckActions(known func(name string) bool) error {
	for i, st := range sc.Steps {
		if st.Kind == KindAction && !known(st.Action) {
			return fmt.Errorf("step %d: %w: unknown action %q", i, ErrInvalidStep, st.Action)
		}
	}
	return nil
}
