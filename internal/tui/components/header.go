package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/deo-tui/internal/tui/styles"
)

// RenderHeader renders the title bar with the backend name on the right.
// An empty backend means the device has no override support.
func RenderHeader(width int, backend string, status string) string {
	statusStyle := styles.StyleHeaderStatus
	if backend == "" {
		backend = "Unsupported"
		statusStyle = statusStyle.Foreground(styles.ColorError)
	}

	right := backend
	if status != "" {
		right = status + " " + backend
	}

	left := styles.StyleHeaderTitle.Render("Display Override")
	rendered := statusStyle.Render(right)

	gap := width - lipgloss.Width(left) - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}
	return styles.StyleHeaderBar.Width(width).Render(left + strings.Repeat(" ", gap) + rendered)
}
