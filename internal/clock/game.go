package clock

import (
	"errors"
	"fmt"
	"math"

	"github.com/myorg/lifesim/internal/config"
)

const (
	// BaseRate is the default conversion: 0.1 game hours per real second at 1x,
	// so one real minute is six game hours.
	BaseRate = 0.1

	// HoursPerDay is the length of a game day.
	HoursPerDay = 24.0

	// MaxElapsedHours caps a single Advance or Skip at 100 years of game time.
	MaxElapsedHours = 100 * 365 * HoursPerDay
)

var (
	// ErrInvalidSpeed is returned for negative or non-finite speed multipliers.
	ErrInvalidSpeed = errors.New("speed multiplier must be a non-negative finite number")

	// ErrInvalidDuration is returned for negative, non-finite or oversized time
	// amounts.
	ErrInvalidDuration = errors.New("duration must be a non-negative finite number within the limit")
)

// DecaySink consumes elapsed game hours. The needs engine implements it.
type DecaySink interface {
	ApplyDecay(elapsedHours float64) error
}

// DayListener is notified once per day rollover with the new day number.
type DayListener interface {
	DayChanged(day int)
}

// DayListenerFunc adapts a function to DayListener.
type DayListenerFunc func(day int)

// DayChanged calls f(day).
func (f DayListenerFunc) DayChanged(day int) { f(day) }

// State is a read-only view of the clock.
type State struct {
	Day    int     `json:"day"`
	Hour   float64 `json:"hour"`
	Speed  float64 `json:"speed"`
	Paused bool    `json:"paused"`
}

// Clock tracks the game day and hour and converts real elapsed time into game
// hours. It is not safe for concurrent use; a single driver owns it.
//
// Invariant: 0 <= hour < 24 after every Advance and Skip.
type Clock struct {
	baseRate  float64
	day       int
	hour      float64
	speed     float64
	paused    bool
	sink      DecaySink
	listeners []DayListener
}

// New creates a Clock from configuration. Elapsed hours are forwarded to sink,
// which may be nil when only time keeping is needed.
func New(cfg config.ClockConfig, sink DecaySink) (*Clock, error) {
	if cfg.BaseRate <= 0 || !finite(cfg.BaseRate) {
		return nil, fmt.Errorf("clock base rate %v: must be positive", cfg.BaseRate)
	}
	if cfg.StartDay < 1 {
		return nil, fmt.Errorf("clock start day %d: must be >= 1", cfg.StartDay)
	}
	if cfg.StartHour < 0 || cfg.StartHour >= HoursPerDay {
		return nil, fmt.Errorf("clock start hour %v: must be in [0, 24)", cfg.StartHour)
	}
	if cfg.Speed < 0 || !finite(cfg.Speed) {
		return nil, fmt.Errorf("clock speed %v: %w", cfg.Speed, ErrInvalidSpeed)
	}

	return &Clock{
		baseRate: cfg.BaseRate,
		day:      cfg.StartDay,
		hour:     cfg.StartHour,
		speed:    cfg.Speed,
		sink:     sink,
	}, nil
}

// AddDayListener registers a listener for day rollovers.
func (c *Clock) AddDayListener(l DayListener) {
	c.listeners = append(c.listeners, l)
}

// Advance converts deltaRealSeconds into game hours at the current speed,
// forwards them to the sink and rolls the day over as needed. It returns the
// elapsed game hours, or 0 when paused or stopped (speed 0).
func (c *Clock) Advance(deltaRealSeconds float64) (float64, error) {
	if deltaRealSeconds < 0 || !finite(deltaRealSeconds) {
		return 0, fmt.Errorf("advance by %v real seconds: %w", deltaRealSeconds, ErrInvalidDuration)
	}
	if c.paused || c.speed == 0 {
		return 0, nil
	}

	elapsed := deltaRealSeconds * c.baseRate * c.speed
	if !ValidElapsed(elapsed) {
		return 0, fmt.Errorf("advance by %v game hours: %w", elapsed, ErrInvalidDuration)
	}
	return elapsed, c.move(elapsed)
}

// Skip moves time forward by hours regardless of speed and pause state. The
// whole amount reaches the sink in a single call no matter how many midnights
// it crosses.
func (c *Clock) Skip(hours float64) error {
	if !ValidElapsed(hours) {
		return fmt.Errorf("skip %v hours: %w", hours, ErrInvalidDuration)
	}
	return c.move(hours)
}

// ValidElapsed reports whether hours is an acceptable amount of game time for
// one Advance or Skip.
func ValidElapsed(hours float64) bool {
	return finite(hours) && hours >= 0 && hours <= MaxElapsedHours
}

func (c *Clock) move(hours float64) error {
	c.hour += hours

	var err error
	if c.sink != nil {
		if err = c.sink.ApplyDecay(hours); err != nil {
			err = fmt.Errorf("applying decay: %w", err)
		}
	}

	// Normalize even when the sink failed so the hour invariant holds.
	if c.hour < HoursPerDay {
		return err
	}
	wraps := int(math.Floor(c.hour / HoursPerDay))
	c.hour -= float64(wraps) * HoursPerDay
	if c.hour >= HoursPerDay {
		c.hour -= HoursPerDay
		wraps++
	}
	if c.hour < 0 {
		c.hour = 0
	}
	for i := 0; i < wraps; i++ {
		c.day++
		for _, l := range c.listeners {
			l.DayChanged(c.day)
		}
	}
	return err
}

// SetSpeed sets the speed multiplier. The UI offers 0, 1, 2 and 4 but any
// non-negative finite value is accepted.
func (c *Clock) SetSpeed(multiplier float64) error {
	if multiplier < 0 || !finite(multiplier) {
		return fmt.Errorf("set speed %v: %w", multiplier, ErrInvalidSpeed)
	}
	c.speed = multiplier
	return nil
}

// Pause suppresses future Advance calls. State already applied is kept.
func (c *Clock) Pause() { c.paused = true }

// Resume re-enables Advance.
func (c *Clock) Resume() { c.paused = false }

// Paused reports whether the clock is paused.
func (c *Clock) Paused() bool { return c.paused }

// Day returns the current day, starting at 1.
func (c *Clock) Day() int { return c.day }

// Hour returns the current hour in [0, 24).
func (c *Clock) Hour() float64 { return c.hour }

// Speed returns the current speed multiplier.
func (c *Clock) Speed() float64 { return c.speed }

// State returns a snapshot of the clock.
func (c *Clock) State() State {
	return State{
		Day:    c.day,
		Hour:   c.hour,
		Speed:  c.speed,
		Paused: c.paused,
	}
}

// String formats the time as "Day N HH:00".
func (s State) String() string {
	return fmt.Sprintf("Day %d %02d:00", s.Day, int(s.Hour))
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
