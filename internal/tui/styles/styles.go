package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette - slate with an amber accent for lit states
var (
	ColorPrimary    = lipgloss.Color("#F5A524") // Amber
	ColorAccent     = lipgloss.Color("#FCD581") // Pale amber
	ColorSurface    = lipgloss.Color("#1F2630") // Slate
	ColorSurfaceAlt = lipgloss.Color("#2F3A48") // Raised slate

	// Text
	ColorText        = lipgloss.Color("#E8EDF3")
	ColorTextMuted   = lipgloss.Color("#9AA7B6")
	ColorTextDim     = lipgloss.Color("#5F6C7B")
	ColorTextInverse = lipgloss.Color("#14181F")

	// State
	ColorSuccess = lipgloss.Color("#6FCF97")
	ColorWarning = lipgloss.Color("#F2C94C")
	ColorError   = lipgloss.Color("#EB5757")

	// Override states
	ColorActive   = lipgloss.Color("#F5A524")
	ColorInactive = lipgloss.Color("#4B5663")
)

// brightnessRamp runs from a dark panel to full backlight
var brightnessRamp = []lipgloss.Color{
	"#34404E", "#46505B", "#5A6168", "#6F7376", "#858683",
	"#9C9A8F", "#B4AE97", "#CCC29A", "#E3D594", "#F5A524",
}

// Styles for the settings page
var (
	StyleHeaderTitle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorTextInverse).
				Background(ColorPrimary).
				Padding(0, 1)

	StyleHeaderBar = lipgloss.NewStyle().
			Background(ColorSurface)

	StyleHeaderStatus = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Padding(0, 1)

	StylePanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSurfaceAlt).
			Padding(0, 1)

	StylePanelTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	StyleValue = lipgloss.NewStyle().
			Foreground(ColorText)

	StyleStatusOn = lipgloss.NewStyle().
			Foreground(ColorActive).
			Bold(true)

	StyleStatusOff = lipgloss.NewStyle().
			Foreground(ColorInactive)

	StyleSliderTrack = lipgloss.NewStyle().
				Foreground(ColorSurfaceAlt)

	// Override toggle
	StyleToggle = lipgloss.NewStyle().
			Foreground(ColorText).
			Background(ColorSurfaceAlt).
			Padding(0, 2)

	StyleToggleOn = StyleToggle.
			Foreground(ColorTextInverse).
			Background(ColorPrimary).
			Bold(true)

	StyleToggleDisabled = StyleToggle.
				Foreground(ColorTextDim).
				Background(ColorSurface)

	// Scenario picker
	StyleModal = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)

	StyleModalTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	StyleGroupTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	StyleListItem = lipgloss.NewStyle().
			Foreground(ColorText).
			Padding(0, 1)

	StyleListItemSelected = StyleListItem.
				Foreground(ColorTextInverse).
				Background(ColorPrimary)

	StyleInputFocused = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder()).
				BorderForeground(ColorPrimary).
				Padding(0, 1)

	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorTextDim).
			MarginTop(1)

	StyleSpinner = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StyleSuccess = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	StyleTextMuted = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	StylePrimary = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)
)

// BrightnessColor returns the ramp color at position (0..1) along the slider
func BrightnessColor(position float64) lipgloss.Color {
	if position <= 0 {
		return brightnessRamp[0]
	}
	i := int(position * float64(len(brightnessRamp)))
	if i >= len(brightnessRamp) {
		i = len(brightnessRamp) - 1
	}
	return brightnessRamp[i]
}
