package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/deo-tui/internal/tui/styles"
)

// RenderBrightnessBar renders the brightness slider. An inactive slider
// (brightness not set as a percentage) is drawn as an empty track.
func RenderBrightnessBar(brightness int, active bool, width int) string {
	if width < 1 {
		width = 1
	}
	if !active {
		return styles.StyleSliderTrack.Render(strings.Repeat("─", width))
	}

	filled := brightness * width / 100
	if brightness > 0 && filled == 0 {
		filled = 1
	}

	var b strings.Builder
	for i := 0; i < width; i++ {
		if i >= filled {
			b.WriteString(styles.StyleSliderTrack.Render(strings.Repeat("─", width-i)))
			break
		}
		color := styles.BrightnessColor(float64(i) / float64(width))
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render("█"))
	}
	return b.String()
}
