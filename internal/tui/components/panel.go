package components

import (
	"fmt"
	"strings"

	"github.com/angristan/deo-tui/internal/tui/styles"
)

// Field is a labelled value in a panel
type Field struct {
	Label string
	Value string
}

// RenderPanel renders a titled box of aligned fields
func RenderPanel(title string, fields []Field, width int) string {
	labelWidth := 0
	for _, f := range fields {
		if len(f.Label) > labelWidth {
			labelWidth = len(f.Label)
		}
	}

	var b strings.Builder
	b.WriteString(styles.StylePanelTitle.Render(title))
	for _, f := range fields {
		b.WriteString("\n")
		b.WriteString(styles.StyleLabel.Render(fmt.Sprintf("%-*s", labelWidth, f.Label)))
		b.WriteString("  ")
		b.WriteString(renderValue(f.Value))
	}

	panelWidth := width - 2
	if panelWidth < 30 {
		panelWidth = 30
	}
	return styles.StylePanel.Width(panelWidth).Render(b.String())
}

// renderValue colors Yes/No status values
func renderValue(value string) string {
	switch value {
	case "Yes":
		return styles.StyleStatusOn.Render("● " + value)
	case "No":
		return styles.StyleStatusOff.Render("○ " + value)
	case "Unsupported":
		return styles.StyleError.Render(value)
	}
	return styles.StyleValue.Render(value)
}

// RenderToggle renders the override request switch
func RenderToggle(on, enabled bool) string {
	icon := "○"
	label := "Override off"
	if on {
		icon = "●"
		label = "Override on"
	}

	switch {
	case !enabled:
		return styles.StyleToggleDisabled.Render(icon + " " + label)
	case on:
		return styles.StyleToggleOn.Render(icon + " " + label)
	}
	return styles.StyleToggle.Render(icon + " " + label)
}
