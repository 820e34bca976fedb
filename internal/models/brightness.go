package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrInvalidSetting is returned when an override setting is out of range
var ErrInvalidSetting = errors.New("invalid override setting")

// BrightnessKind identifies which variant a BrightnessSetting holds
type BrightnessKind int

const (
	BrightnessNone BrightnessKind = iota
	BrightnessPercentage
	BrightnessNits
	BrightnessPreset
)

// BrightnessScenario is a named brightness preset
type BrightnessScenario int

const (
	ScenarioFullBrightness BrightnessScenario = iota
	ScenarioBarcodeReading
	ScenarioIdle
)

// BrightnessScenarios lists every brightness preset in display order
var BrightnessScenarios = []BrightnessScenario{
	ScenarioFullBrightness,
	ScenarioBarcodeReading,
	ScenarioIdle,
}

// String returns the display name of the scenario
func (s BrightnessScenario) String() string {
	switch s {
	case ScenarioFullBrightness:
		return "Full Brightness"
	case ScenarioBarcodeReading:
		return "Barcode Brightness"
	case ScenarioIdle:
		return "Idle Brightness"
	}
	return fmt.Sprintf("BrightnessScenario(%d)", int(s))
}

// Key returns the wire name of the scenario
func (s BrightnessScenario) Key() string {
	switch s {
	case ScenarioFullBrightness:
		return "full"
	case ScenarioBarcodeReading:
		return "barcode"
	case ScenarioIdle:
		return "idle"
	}
	return ""
}

func (s BrightnessScenario) valid() bool {
	return s >= ScenarioFullBrightness && s <= ScenarioIdle
}

// ParseBrightnessScenario maps a wire name back to a scenario
func ParseBrightnessScenario(key string) (BrightnessScenario, error) {
	for _, s := range BrightnessScenarios {
		if s.Key() == key {
			return s, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown brightness scenario %q", ErrInvalidSetting, key)
}

// BrightnessSetting is the brightness override configuration.
// Exactly one variant is active; the zero value is None.
type BrightnessSetting struct {
	kind     BrightnessKind
	value    float64
	scenario BrightnessScenario
}

// NoBrightness returns the empty brightness setting
func NoBrightness() BrightnessSetting {
	return BrightnessSetting{}
}

// BrightnessFromPercentage creates a setting from a 0-100 percentage
func BrightnessFromPercentage(pct float64) (BrightnessSetting, error) {
	if math.IsNaN(pct) || pct < 0 || pct > 100 {
		return BrightnessSetting{}, fmt.Errorf("%w: percentage %v outside 0-100", ErrInvalidSetting, pct)
	}
	return BrightnessSetting{kind: BrightnessPercentage, value: pct}, nil
}

// BrightnessFromNits creates a setting from an absolute luminance
func BrightnessFromNits(nits float64) (BrightnessSetting, error) {
	if math.IsNaN(nits) || math.IsInf(nits, 0) || nits <= 0 {
		return BrightnessSetting{}, fmt.Errorf("%w: nits must be positive, got %v", ErrInvalidSetting, nits)
	}
	return BrightnessSetting{kind: BrightnessNits, value: nits}, nil
}

// BrightnessFromScenario creates a setting from a named preset
func BrightnessFromScenario(s BrightnessScenario) (BrightnessSetting, error) {
	if !s.valid() {
		return BrightnessSetting{}, fmt.Errorf("%w: unknown brightness scenario %d", ErrInvalidSetting, int(s))
	}
	return BrightnessSetting{kind: BrightnessPreset, scenario: s}, nil
}

// Kind returns the active variant
func (b BrightnessSetting) Kind() BrightnessKind {
	return b.kind
}

// IsNone returns true if no brightness override is selected
func (b BrightnessSetting) IsNone() bool {
	return b.kind == BrightnessNone
}

// Percentage returns the 0-100 value of a percentage setting
func (b BrightnessSetting) Percentage() float64 {
	if b.kind != BrightnessPercentage {
		return 0
	}
	return b.value
}

// Level returns the platform level (0-1) of a percentage setting
func (b BrightnessSetting) Level() float64 {
	return b.Percentage() / 100
}

// Nits returns the luminance of a nits setting
func (b BrightnessSetting) Nits() float64 {
	if b.kind != BrightnessNits {
		return 0
	}
	return b.value
}

// Scenario returns the preset of a scenario setting
func (b BrightnessSetting) Scenario() (BrightnessScenario, bool) {
	if b.kind != BrightnessPreset {
		return 0, false
	}
	return b.scenario, true
}

// Label renders the setting for display
func (b BrightnessSetting) Label() string {
	switch b.kind {
	case BrightnessPercentage:
		return formatNumber(b.value) + "%"
	case BrightnessNits:
		return formatNumber(b.value) + " nits"
	case BrightnessPreset:
		return b.scenario.String()
	}
	return "None"
}

func (b BrightnessSetting) String() string {
	return b.Label()
}

// formatNumber renders a float in its shortest form (42, 42.5)
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
