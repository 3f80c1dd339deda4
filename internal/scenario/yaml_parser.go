package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScriptYAML represents the YAML structure of a script file.
type ScriptYAML struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	MaxDays     int        `yaml:"max_days,omitempty"`
	Steps       []StepYAML `yaml:"steps"`
}

// StepYAML represents a step in YAML format. Exactly one of Action, Skip or
// Speed must be set.
type StepYAML struct {
	Name    string   `yaml:"name,omitempty"`
	Day     int      `yaml:"day"`
	Hour    float64  `yaml:"hour"`
	Daily   bool     `yaml:"daily,omitempty"`
	Action  string   `yaml:"action,omitempty"`
	Hours   float64  `yaml:"hours,omitempty"`
	Skip    float64  `yaml:"skip,omitempty"`
	Speed   *float64 `yaml:"speed,omitempty"`
	Enabled *bool    `yaml:"enabled,omitempty"`
}

// ParseScriptFromYAML parses a script from YAML data.
func ParseScriptFromYAML(data []byte) (*Script, error) {
	var sy ScriptYAML

	if err := yaml.Unmarshal(data, &sy); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	script := &Script{
		Name:        sy.Name,
		Description: sy.Description,
		MaxDays:     sy.MaxDays,
		Steps:       make([]*Step, 0, len(sy.Steps)),
	}

	for i := range sy.Steps {
		st, err := stepYAMLToStep(&sy.Steps[i])
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, sy.Steps[i].Name, err)
		}
		script.Steps = append(script.Steps, st)
	}

	if err := script.Validate(); err != nil {
		return nil, err
	}

	return script, nil
}

// ParseScriptFromFile parses a script from a YAML file. A script without a
// name takes the file path.
func ParseScriptFromFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	script, err := ParseScriptFromYAML(data)
	if err != nil {
		return nil, err
	}
	if script.Name == "" {
		script.Name = path
	}
	return script, nil
}

// stepYAMLToStep converts a YAML step to a Step.
func stepYAMLToStep(sy *StepYAML) (*Step, error) {
	st := &Step{
		Name:    sy.Name,
		Day:     sy.Day,
		Hour:    sy.Hour,
		Daily:   sy.Daily,
		Enabled: true,
	}
	if st.Day == 0 {
		st.Day = 1
	}
	if sy.Enabled != nil {
		st.Enabled = *sy.Enabled
	}

	kinds := 0
	if sy.Action != "" {
		kinds++
		st.Kind = KindAction
		st.Action = sy.Action
		st.Hours = sy.Hours
	}
	if sy.Skip != 0 {
		kinds++
		st.Kind = KindSkip
		st.Hours = sy.Skip
	}
	if sy.Speed != nil {
		kinds++
		st.Kind = KindSpeed
		st.Speed = *sy.Speed
	}

	switch {
	case kinds == 0:
		return nil, fmt.Errorf("%w: one of action, skip or speed is required", ErrInvalidStep)
	case kinds > 1:
		return nil, fmt.Errorf("%w: only one of action, skip or speed may be set", ErrInvalidStep)
	}
	if sy.Hours != 0 && st.Kind != KindAction {
		return nil, fmt.Errorf("%w: hours only applies to action steps", ErrInvalidStep)
	}

	if err := st.Validate(); err != nil {
		return nil, err
	}
	return st, nil
}

// ScriptToYAML converts a script to YAML format.
func ScriptToYAML(script *Script) ([]byte, error) {
	sy := ScriptYAML{
		Name:        script.Name,
		Description: script.Description,
		MaxDays:     script.MaxDays,
		Steps:       make([]StepYAML, len(script.Steps)),
	}

	for i, st := range script.Steps {
		sy.Steps[i] = stepToYAML(st)
	}

	return yaml.Marshal(&sy)
}

// stepToYAML converts a Step to YAML format.
func stepToYAML(st *Step) StepYAML {
	out := StepYAML{
		Name:  st.Name,
		Day:   st.Day,
		Hour:  st.Hour,
		Daily: st.Daily,
	}

	switch st.Kind {
	case KindAction:
		out.Action = st.Action
		out.Hours = st.Hours
	case KindSkip:
		out.Skip = st.Hours
	case KindSpeed:
		speed := st.Speed
		out.Speed = &speed
	}

	// Only include enabled if explicitly false
	if !st.Enabled {
		enabled := false
		out.Enabled = &enabled
	}

	return out
}
