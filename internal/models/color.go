package models

import "fmt"

// ColorScenario is a named color rendering preset
type ColorScenario int

const (
	ScenarioAccurateColors ColorScenario = iota
)

// ColorScenarios lists every color preset in display order
var ColorScenarios = []ColorScenario{ScenarioAccurateColors}

// String returns the display name of the scenario
func (s ColorScenario) String() string {
	switch s {
	case ScenarioAccurateColors:
		return "Accurate Colors"
	}
	return fmt.Sprintf("ColorScenario(%d)", int(s))
}

// Key returns the wire name of the scenario
func (s ColorScenario) Key() string {
	if s == ScenarioAccurateColors {
		return "accurate"
	}
	return ""
}

// ParseColorScenario maps a wire name back to a scenario
func ParseColorScenario(key string) (ColorScenario, error) {
	for _, s := range ColorScenarios {
		if s.Key() == key {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown color scenario %q", ErrInvalidSetting, key)
}

// ColorSetting is the color override configuration. The zero value is None.
type ColorSetting struct {
	set      bool
	scenario ColorScenario
}

// NoColor returns the empty color setting
func NoColor() ColorSetting {
	return ColorSetting{}
}

// ColorFromScenario creates a setting from a named preset
func ColorFromScenario(s ColorScenario) (ColorSetting, error) {
	if s != ScenarioAccurateColors {
		return ColorSetting{}, fmt.Errorf("%w: unknown color scenario %d", ErrInvalidSetting, int(s))
	}
	return ColorSetting{set: true, scenario: s}, nil
}

// IsNone returns true if no color override is selected
func (c ColorSetting) IsNone() bool {
	return !c.set
}

// Scenario returns the preset of the setting
func (c ColorSetting) Scenario() (ColorScenario, bool) {
	return c.scenario, c.set
}

// Label renders the setting for display
func (c ColorSetting) Label() string {
	if !c.set {
		return "None"
	}
	return c.scenario.String()
}

func (c ColorSetting) String() string {
	return c.Label()
}
