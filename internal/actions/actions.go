// Package actions turns the configured action catalog into operations on a
// session: a time skip followed by restores, costs, money and employment
// chance.
package actions

import (
	"errors"
	"fmt"
	"sort"

	"github.com/myorg/lifesim/internal/config"
	"github.com/myorg/lifesim/internal/needs"
)

// ErrUnknownAction is returned when an action name is not in the catalog.
var ErrUnknownAction = errors.New("unknown action")

// Target is what an action operates on. The session implements it.
type Target interface {
	Skip(hours float64) error
	Restore(stat needs.Stat, amount int) error
	ConsumeActionStats(happinessCost, willpowerCost int) error
	ModifyMoney(amount int) error
	IncreaseEmploymentChance(amount float64) error
}

// Action is one validated catalog entry.
type Action struct {
	Name             string
	Hours            float64
	MinHours         int
	MaxHours         int
	Restore          map[needs.Stat]int
	RestorePerHour   map[needs.Stat]int
	HappinessCost    int
	WillpowerCost    int
	Money            int
	EmploymentChance float64
}

// FromConfig converts and validates an action definition.
func FromConfig(ac config.ActionConfig) (Action, error) {
	if err := ac.Validate(); err != nil {
		return Action{}, err
	}

	restore, err := parseStatMap(ac.Restore)
	if err != nil {
		return Action{}, fmt.Errorf("action %q restore: %w", ac.Name, err)
	}
	perHour, err := parseStatMap(ac.RestorePerHour)
	if err != nil {
		return Action{}, fmt.Errorf("action %q restore_per_hour: %w", ac.Name, err)
	}

	return Action{
		Name:             ac.Name,
		Hours:            ac.Hours,
		MinHours:         ac.MinHours,
		MaxHours:         ac.MaxHours,
		Restore:          restore,
		RestorePerHour:   perHour,
		HappinessCost:    ac.HappinessCost,
		WillpowerCost:    ac.WillpowerCost,
		Money:            ac.Money,
		EmploymentChance: ac.EmploymentChance,
	}, nil
}

func parseStatMap(m map[string]int) (map[needs.Stat]int, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[needs.Stat]int, len(m))
	for name, amount := range m {
		s, err := needs.ParseStat(name)
		if err != nil {
			return nil, err
		}
		out[s] += amount
	}
	return out, nil
}

// Variable reports whether the action accepts a requested duration.
func (a Action) Variable() bool {
	return a.MaxHours > 0
}

// Duration resolves the hours the action takes. Fixed actions ignore the
// request. Variable actions use the default for requested <= 0 and clamp
// anything else into [MinHours, MaxHours].
func (a Action) Duration(requested float64) float64 {
	if !a.Variable() || requested <= 0 {
		return a.Hours
	}
	if requested < float64(a.MinHours) {
		return float64(a.MinHours)
	}
	if requested > float64(a.MaxHours) {
		return float64(a.MaxHours)
	}
	return requested
}

// Perform runs the action against t and returns the hours spent. Effects are
// applied in a fixed order: skip, restores, costs, money, employment chance.
func (a Action) Perform(t Target, requestedHours float64) (float64, error) {
	hours := a.Duration(requestedHours)

	if hours > 0 {
		if err := t.Skip(hours); err != nil {
			return 0, fmt.Errorf("action %s: skipping %vh: %w", a.Name, hours, err)
		}
	}

	for _, s := range needs.AllStats {
		flat, hasFlat := a.Restore[s]
		perHour, hasPerHour := a.RestorePerHour[s]
		if !hasFlat && !hasPerHour {
			continue
		}
		amount := flat + int(float64(perHour)*hours)
		if err := t.Restore(s, amount); err != nil {
			return hours, fmt.Errorf("action %s: restoring %s: %w", a.Name, s, err)
		}
	}

	if a.HappinessCost != 0 || a.WillpowerCost != 0 {
		if err := t.ConsumeActionStats(a.HappinessCost, a.WillpowerCost); err != nil {
			return hours, fmt.Errorf("action %s: consuming stats: %w", a.Name, err)
		}
	}
	if a.Money != 0 {
		if err := t.ModifyMoney(a.Money); err != nil {
			return hours, fmt.Errorf("action %s: money: %w", a.Name, err)
		}
	}
	if a.EmploymentChance != 0 {
		if err := t.IncreaseEmploymentChance(a.EmploymentChance); err != nil {
			return hours, fmt.Errorf("action %s: employment chance: %w", a.Name, err)
		}
	}
	return hours, nil
}

// Catalog is a set of actions keyed by name.
type Catalog struct {
	actions map[string]Action
	order   []string
}

// NewCatalog builds a catalog from configuration.
func NewCatalog(defs []config.ActionConfig) (*Catalog, error) {
	c := &Catalog{actions: make(map[string]Action, len(defs))}
	for i, def := range defs {
		a, err := FromConfig(def)
		if err != nil {
			return nil, fmt.Errorf("actions[%d]: %w", i, err)
		}
		if _, dup := c.actions[a.Name]; dup {
			return nil, fmt.Errorf("actions[%d]: duplicate action name %q", i, a.Name)
		}
		c.actions[a.Name] = a
		c.order = append(c.order, a.Name)
	}
	return c, nil
}

// Get returns the named action.
func (c *Catalog) Get(name string) (Action, error) {
	a, ok := c.actions[name]
	if !ok {
		return Action{}, fmt.Errorf("%q: %w", name, ErrUnknownAction)
	}
	return a, nil
}

// Names returns action names in configuration order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// SortedNames returns action names alphabetically.
func (c *Catalog) SortedNames() []string {
	out := c.Names()
	sort.Strings(out)
	return out
}

// Len returns the number of actions.
func (c *Catalog) Len() int { return len(c.actions) }
