package scenario

import (
	"fmt"
	"sort"
)

// Preset scripts built on the default action catalog.

func daily(name string, hour float64, action string, hours float64) *Step {
	return &Step{Name: name, Day: 1, Hour: hour, Kind: KindAction, Action: action, Hours: hours, Daily: true, Enabled: true}
}

var presetScripts = map[string]func() *Script{
	// A balanced day: two meals, a shift and a full night.
	"routine": func() *Script {
		return &Script{
			Name:        "routine",
			Description: "eat, work, eat, sleep nine hours",
			Steps: []*Step{
				daily("breakfast", 7, "eat", 0),
				daily("shift", 8, "work", 0),
				daily("dinner", 17, "eat", 0),
				daily("night", 22, "sleep", 9),
			},
		}
	},
	// Double shifts and short nights.
	"workaholic": func() *Script {
		return &Script{
			Name:        "workaholic",
			Description: "two shifts a day with four hours of sleep",
			Steps: []*Step{
				daily("breakfast", 7, "eat", 0),
				daily("first shift", 8, "work", 0),
				daily("second shift", 16, "work", 0),
				{Name: "nap", Day: 2, Hour: 0, Kind: KindAction, Action: "sleep", Hours: 4, Daily: true, Enabled: true},
			},
		}
	},
	// Studies for the job market instead of working.
	"student": func() *Script {
		return &Script{
			Name:        "student",
			Description: "study twice a day, eat, sleep eight hours",
			Steps: []*Step{
				daily("breakfast", 8, "eat", 0),
				daily("morning class", 9, "study", 0),
				daily("lunch", 12, "eat", 0),
				daily("evening class", 14, "study", 0),
				daily("night", 23, "sleep", 8),
			},
		}
	},
	// No actions at all: the needs run down until exhaustion.
	"idle": func() *Script {
		return &Script{
			Name:        "idle",
			Description: "do nothing and watch the needs decay",
			MaxDays:     30,
		}
	},
}

// GetPresetScript returns a fresh copy of a preset script by name.
func GetPresetScript(name string) (*Script, error) {
	build, ok := presetScripts[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset script: %s (available: %v)", name, ListPresetScripts())
	}
	return build(), nil
}

// ListPresetScripts returns the names of all preset scripts, sorted.
func ListPresetScripts() []string {
	names := make([]string, 0, len(presetScripts))
	for name := range presetScripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadScript resolves ref as a preset name or a YAML file path.
func LoadScript(ref string) (*Script, error) {
	if _, ok := presetScripts[ref]; ok {
		return GetPresetScript(ref)
	}
	return ParseScriptFromFile(ref)
}
