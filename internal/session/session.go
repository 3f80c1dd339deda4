// Package session owns one playthrough: the game clock, the needs engine and
// the action catalog, wired together without globals.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/myorg/lifesim/internal/actions"
	"github.com/myorg/lifesim/internal/clock"
	"github.com/myorg/lifesim/internal/config"
	"github.com/myorg/lifesim/internal/locale"
	"github.com/myorg/lifesim/internal/needs"
)

// ErrGameOver is returned by operations that would advance a finished session.
var ErrGameOver = errors.New("game over")

// Outcome records how a session ended.
type Outcome struct {
	Reason string  `json:"reason"`
	Day    int     `json:"day"`
	Hour   float64 `json:"hour"`
}

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	Clock    clock.State `json:"clock"`
	Stats    needs.Stats `json:"stats"`
	GameOver bool        `json:"game_over"`
	Outcome  *Outcome    `json:"outcome,omitempty"`
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithTranslator sets the translator used for the exhausted reason.
func WithTranslator(t *locale.Translator) Option {
	return func(s *Session) { s.tr = t }
}

// Session drives one game. Like the clock and engine it is single-threaded;
// other goroutines should only consume snapshots.
type Session struct {
	clock   *clock.Clock
	engine  *needs.Engine
	catalog *actions.Catalog
	logger  *slog.Logger
	tr      *locale.Translator

	subscribers []func(Snapshot)
	dayHooks    []func(day int)

	dirty   bool
	reason  string
	outcome *Outcome
}

// New builds a session from configuration and initializes the engine.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("creating session: %w", needs.ErrMissingConfig)
	}

	s := &Session{logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	reason := needs.DefaultExhaustedReason
	if s.tr != nil {
		reason = s.tr.ExhaustedReason()
	}

	s.engine = needs.NewEngine(
		needs.WithPenalties(cfg.Penalties),
		needs.WithExhaustedReason(reason),
		needs.WithListener(s),
	)
	stats := cfg.Stats
	if err := s.engine.Initialize(&stats); err != nil {
		return nil, fmt.Errorf("initializing needs: %w", err)
	}

	c, err := clock.New(cfg.Clock, s.engine)
	if err != nil {
		return nil, fmt.Errorf("creating clock: %w", err)
	}
	c.AddDayListener(clock.DayListenerFunc(s.dayChanged))
	s.clock = c

	catalog, err := actions.NewCatalog(cfg.Actions)
	if err != nil {
		return nil, fmt.Errorf("loading actions: %w", err)
	}
	s.catalog = catalog

	return s, nil
}

// StatsChanged implements needs.Listener.
func (s *Session) StatsChanged() {
	s.dirty = true
}

// Exhausted implements needs.Listener. It stops the clock the way a game over
// screen would: paused and at speed 0.
func (s *Session) Exhausted(reason string) {
	s.reason = reason
	s.clock.Pause()
	_ = s.clock.SetSpeed(0)
	s.dirty = true
}

func (s *Session) dayChanged(day int) {
	s.logger.Debug("day changed", "day", day)
	for _, fn := range s.dayHooks {
		fn(day)
	}
	s.dirty = true
}

// Subscribe registers fn to receive a snapshot after every operation that
// changed stats or the day.
func (s *Session) Subscribe(fn func(Snapshot)) {
	s.subscribers = append(s.subscribers, fn)
}

// OnDayChanged registers fn for day rollovers.
func (s *Session) OnDayChanged(fn func(day int)) {
	s.dayHooks = append(s.dayHooks, fn)
}

// Tick advances the clock by deltaRealSeconds of real time and returns the
// elapsed game hours. It is a no-op once the game is over.
func (s *Session) Tick(deltaRealSeconds float64) (float64, error) {
	if s.outcome != nil {
		return 0, nil
	}
	elapsed, err := s.clock.Advance(deltaRealSeconds)
	s.settle()
	return elapsed, err
}

// Skip moves time forward by hours, ignoring pause and speed.
func (s *Session) Skip(hours float64) error {
	if s.outcome != nil {
		return ErrGameOver
	}
	err := s.clock.Skip(hours)
	s.settle()
	return err
}

// Perform runs the named action and returns the hours it took. A requested
// duration only matters for variable-length actions; pass 0 for the default.
func (s *Session) Perform(name string, requestedHours float64) (float64, error) {
	if s.outcome != nil {
		return 0, ErrGameOver
	}
	a, err := s.catalog.Get(name)
	if err != nil {
		return 0, err
	}

	hours, err := a.Perform(target{s}, requestedHours)
	s.settle()
	if err != nil {
		return hours, err
	}
	s.logger.Debug("action performed", "action", name, "hours", hours, "day", s.clock.Day())
	return hours, nil
}

// SetSpeed changes the clock speed.
func (s *Session) SetSpeed(multiplier float64) error {
	if s.outcome != nil {
		return ErrGameOver
	}
	if err := s.clock.SetSpeed(multiplier); err != nil {
		return err
	}
	s.publish()
	return nil
}

// Pause stops Tick from advancing time.
func (s *Session) Pause() {
	if s.clock.Paused() {
		return
	}
	s.clock.Pause()
	s.publish()
}

// Resume re-enables Tick. It fails once the game is over.
func (s *Session) Resume() error {
	if s.outcome != nil {
		return ErrGameOver
	}
	if s.clock.Paused() {
		s.clock.Resume()
		s.publish()
	}
	return nil
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Clock:    s.clock.State(),
		Stats:    s.engine.Stats(),
		GameOver: s.outcome != nil,
	}
	if s.outcome != nil {
		o := *s.outcome
		snap.Outcome = &o
	}
	return snap
}

// Outcome returns how the session ended, if it has.
func (s *Session) Outcome() (Outcome, bool) {
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

// GameOver reports whether the exhausted signal has ended the session.
func (s *Session) GameOver() bool { return s.outcome != nil }

// Day returns the current game day.
func (s *Session) Day() int { return s.clock.Day() }

// Catalog returns the action catalog.
func (s *Session) Catalog() *actions.Catalog { return s.catalog }

// settle runs after every operation once the clock has normalized, so the
// outcome and snapshots always carry an hour in [0, 24).
func (s *Session) settle() {
	if s.engine.Exhausted() && s.outcome == nil {
		s.outcome = &Outcome{
			Reason: s.reason,
			Day:    s.clock.Day(),
			Hour:   s.clock.Hour(),
		}
		s.logger.Info("game over", "day", s.outcome.Day, "hour", s.outcome.Hour, "reason", s.reason)
	}
	if s.dirty {
		s.publish()
	}
}

func (s *Session) publish() {
	s.dirty = false
	if len(s.subscribers) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, fn := range s.subscribers {
		fn(snap)
	}
}

// target routes action steps to the clock and engine without publishing
// between steps.
type target struct{ s *Session }

func (t target) Skip(hours float64) error { return t.s.clock.Skip(hours) }

func (t target) Restore(stat needs.Stat, amount int) error {
	return t.s.engine.Restore(stat, amount)
}

func (t target) ConsumeActionStats(happinessCost, willpowerCost int) error {
	return t.s.engine.ConsumeActionStats(happinessCost, willpowerCost)
}

func (t target) ModifyMoney(amount int) error { return t.s.engine.ModifyMoney(amount) }

func (t target) IncreaseEmploymentChance(amount float64) error {
	return t.s.engine.IncreaseEmploymentChance(amount)
}
