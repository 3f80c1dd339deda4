// Package needs implements the player's vital stats: decay over game time,
// the penalty cascade from depleted needs into happiness and willpower, and
// the one-shot exhausted signal.
package needs

import (
	"errors"
	"fmt"
	"math"

	"github.com/myorg/lifesim/internal/config"
)

// BaselineEmploymentChance is the employment chance after Initialize.
const BaselineEmploymentChance = 5.0

// DefaultExhaustedReason is used when no localized reason is supplied.
const DefaultExhaustedReason = "Willpower and happiness have both run out. You can't bring yourself to do anything..."

var (
	ErrNotInitialized     = errors.New("needs engine not initialized")
	ErrAlreadyInitialized = errors.New("needs engine already initialized")
	ErrMissingConfig      = errors.New("stats config is required")
	ErrUnknownStat        = errors.New("unknown stat")
	ErrNegativeElapsed    = errors.New("elapsed hours must be a non-negative finite number")
)

// Listener receives engine notifications. StatsChanged carries no payload;
// observers re-read Stats.
type Listener interface {
	StatsChanged()
	Exhausted(reason string)
}

// ListenerFuncs adapts optional functions to Listener.
type ListenerFuncs struct {
	OnStatsChanged func()
	OnExhausted    func(reason string)
}

func (l ListenerFuncs) StatsChanged() {
	if l.OnStatsChanged != nil {
		l.OnStatsChanged()
	}
}

func (l ListenerFuncs) Exhausted(reason string) {
	if l.OnExhausted != nil {
		l.OnExhausted(reason)
	}
}

// Stats is a read-only view of the engine state.
type Stats struct {
	Hunger           float64 `json:"hunger"`
	Sleep            float64 `json:"sleep"`
	Happiness        int     `json:"happiness"`
	Willpower        int     `json:"willpower"`
	Money            int     `json:"money"`
	EmploymentChance float64 `json:"employment_chance"`
	Exhausted        bool    `json:"exhausted"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithPenalties sets the cascade rates.
func WithPenalties(p config.PenaltyConfig) Option {
	return func(e *Engine) { e.penalties = p }
}

// WithExhaustedReason sets the message delivered with the exhausted signal.
func WithExhaustedReason(reason string) Option {
	return func(e *Engine) { e.reason = reason }
}

// WithListener registers a listener at construction.
func WithListener(l Listener) Option {
	return func(e *Engine) { e.listeners = append(e.listeners, l) }
}

// Engine owns the player's stats. It is not safe for concurrent use.
type Engine struct {
	cfg       *config.StatsConfig
	penalties config.PenaltyConfig
	reason    string
	listeners []Listener

	hunger           float64
	sleep            float64
	happiness        int
	willpower        int
	money            int
	employmentChance float64

	exhausted bool
}

// NewEngine creates an uninitialized engine with the default penalty rates.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		penalties: config.PenaltyConfig{
			HappinessPenaltyRate: 10,
			WillpowerPenaltyRate: 15,
		},
		reason: DefaultExhaustedReason,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddListener registers l for future notifications.
func (e *Engine) AddListener(l Listener) {
	e.listeners = append(e.listeners, l)
}

// Initialize loads the starting values. It must be called exactly once
// before any other operation.
func (e *Engine) Initialize(cfg *config.StatsConfig) error {
	if cfg == nil {
		return ErrMissingConfig
	}
	if e.cfg != nil {
		return ErrAlreadyInitialized
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid stats config: %w", err)
	}
	if err := e.penalties.Validate(); err != nil {
		return fmt.Errorf("invalid penalty config: %w", err)
	}

	c := *cfg
	e.cfg = &c
	e.hunger = float64(c.InitialHunger)
	e.sleep = float64(c.InitialSleep)
	e.happiness = c.InitialHappiness
	e.willpower = c.InitialWillpower
	e.money = c.InitialMoney
	e.employmentChance = BaselineEmploymentChance
	return nil
}

// Initialized reports whether Initialize has succeeded.
func (e *Engine) Initialized() bool { return e.cfg != nil }

// Config returns a copy of the stats config. It is zero before Initialize.
func (e *Engine) Config() config.StatsConfig {
	if e.cfg == nil {
		return config.StatsConfig{}
	}
	return *e.cfg
}

// Stats returns the current values.
func (e *Engine) Stats() Stats {
	return Stats{
		Hunger:           e.hunger,
		Sleep:            e.sleep,
		Happiness:        e.happiness,
		Willpower:        e.willpower,
		Money:            e.money,
		EmploymentChance: e.employmentChance,
		Exhausted:        e.exhausted,
	}
}

// Exhausted reports whether the exhausted signal has been raised.
func (e *Engine) Exhausted() bool { return e.exhausted }

// ApplyDecay runs one decay step over elapsedHours of game time. The steps are
// strictly ordered and each reads the clamped result of the previous one.
// ApplyDecay(0) changes nothing and raises no notification.
func (e *Engine) ApplyDecay(elapsedHours float64) error {
	if e.cfg == nil {
		return ErrNotInitialized
	}
	if elapsedHours < 0 || math.IsNaN(elapsedHours) || math.IsInf(elapsedHours, 0) {
		return fmt.Errorf("apply decay %v: %w", elapsedHours, ErrNegativeElapsed)
	}
	if elapsedHours == 0 {
		return nil
	}

	e.hunger = clampFloat(e.hunger-e.cfg.BaseHungerDecayRate*elapsedHours, float64(e.cfg.MaxHunger))
	e.sleep = clampFloat(e.sleep-e.cfg.BaseSleepDecayRate*elapsedHours, float64(e.cfg.MaxSleep))

	var penalty float64
	if e.hunger == 0 {
		penalty += e.penalties.HappinessPenaltyRate
	}
	if e.sleep == 0 {
		penalty += e.penalties.HappinessPenaltyRate
	}

	touched := false
	if penalty > 0 {
		// Truncated per call; fractions are not carried over.
		e.happiness = clampInt(e.happiness-truncLoss(penalty*elapsedHours, e.happiness), e.cfg.MaxHappiness)
		touched = true
	}
	if e.happiness == 0 {
		e.willpower = clampInt(e.willpower-truncLoss(e.penalties.WillpowerPenaltyRate*elapsedHours, e.willpower), e.cfg.MaxWillpower)
		touched = true
	}
	if touched {
		e.checkExhausted()
	}

	e.notifyChanged()
	return nil
}

// Restore adds amount to stat and clamps it to [0, max].
func (e *Engine) Restore(stat Stat, amount int) error {
	if e.cfg == nil {
		return ErrNotInitialized
	}

	switch stat {
	case Hunger:
		e.hunger = clampFloat(e.hunger+float64(amount), float64(e.cfg.MaxHunger))
	case Sleep:
		e.sleep = clampFloat(e.sleep+float64(amount), float64(e.cfg.MaxSleep))
	case Happiness:
		e.happiness = clampInt(e.happiness+amount, e.cfg.MaxHappiness)
		e.checkExhausted()
	case Willpower:
		e.willpower = clampInt(e.willpower+amount, e.cfg.MaxWillpower)
		e.checkExhausted()
	default:
		return fmt.Errorf("restore %v: %w", stat, ErrUnknownStat)
	}

	e.notifyChanged()
	return nil
}

// ConsumeActionStats spends happiness and willpower on an activity. Each is
// floored at 0 independently.
func (e *Engine) ConsumeActionStats(happinessCost, willpowerCost int) error {
	if e.cfg == nil {
		return ErrNotInitialized
	}

	e.happiness = clampInt(e.happiness-happinessCost, e.cfg.MaxHappiness)
	e.willpower = clampInt(e.willpower-willpowerCost, e.cfg.MaxWillpower)
	e.checkExhausted()

	e.notifyChanged()
	return nil
}

// ModifyMoney adds amount, which may be negative. Money is never clamped.
func (e *Engine) ModifyMoney(amount int) error {
	if e.cfg == nil {
		return ErrNotInitialized
	}
	e.money += amount
	e.notifyChanged()
	return nil
}

// IncreaseEmploymentChance adds amount to the employment chance. It has no
// upper bound and raises no notification.
func (e *Engine) IncreaseEmploymentChance(amount float64) error {
	if e.cfg == nil {
		return ErrNotInitialized
	}
	e.employmentChance += amount
	return nil
}

// checkExhausted raises the exhausted signal the first time happiness and
// willpower are both at 0. It is never re-armed.
func (e *Engine) checkExhausted() {
	if e.exhausted || e.happiness != 0 || e.willpower != 0 {
		return
	}
	e.exhausted = true
	for _, l := range e.listeners {
		l.Exhausted(e.reason)
	}
}

func (e *Engine) notifyChanged() {
	for _, l := range e.listeners {
		l.StatsChanged()
	}
}

// truncLoss truncates loss toward zero, capped at current so the int
// conversion never sees a value outside the int range.
func truncLoss(loss float64, current int) int {
	if loss >= float64(current) {
		return current
	}
	return int(loss)
}

func clampFloat(v, hi float64) float64 {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
