package needs

import (
	"fmt"
	"strings"
)

// Stat identifies one of the restorable stats.
type Stat int

const (
	Hunger Stat = iota
	Sleep
	Happiness
	Willpower
)

var statNames = [...]string{
	Hunger:    "hunger",
	Sleep:     "sleep",
	Happiness: "happiness",
	Willpower: "willpower",
}

// AllStats lists every Stat in declaration order.
var AllStats = []Stat{Hunger, Sleep, Happiness, Willpower}

// Valid reports whether s is one of the declared stats.
func (s Stat) Valid() bool {
	return s >= Hunger && s <= Willpower
}

func (s Stat) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Stat(%d)", int(s))
	}
	return statNames[s]
}

// ParseStat maps a case-insensitive stat name to a Stat.
func ParseStat(name string) (Stat, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, sn := range statNames {
		if sn == n {
			return Stat(i), nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownStat)
}

// MarshalText implements encoding.TextMarshaler.
func (s Stat) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("marshal %d: %w", int(s), ErrUnknownStat)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Stat) UnmarshalText(text []byte) error {
	v, err := ParseStat(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
