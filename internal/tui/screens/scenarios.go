package screens

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/deo-tui/internal/models"
	"github.com/angristan/deo-tui/internal/tui/messages"
	"github.com/angristan/deo-tui/internal/tui/styles"
)

// ScenariosModel is the scenario picker modal
type ScenariosModel struct {
	selected int

	// Flat list for navigation, headers included
	flatList []scenarioItem

	// Current settings, marked in the list
	brightness models.BrightnessSetting
	color      models.ColorSetting

	// Window size
	width  int
	height int
}

type scenarioItem struct {
	isHeader bool
	title    string
	msg      messages.ScenarioSelectedMsg
}

// NewScenariosModel creates the scenario picker
func NewScenariosModel() ScenariosModel {
	m := ScenariosModel{}
	m.rebuildFlatList()
	return m
}

// SetSize sets the terminal size
func (m *ScenariosModel) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetCurrent records the active settings so they can be marked
func (m *ScenariosModel) SetCurrent(brightness models.BrightnessSetting, color models.ColorSetting) {
	m.brightness = brightness
	m.color = color
}

// rebuildFlatList lists brightness presets then color presets, each group
// ending with None
func (m *ScenariosModel) rebuildFlatList() {
	m.flatList = []scenarioItem{{isHeader: true, title: "Brightness"}}
	for _, s := range models.BrightnessScenarios {
		setting, err := models.BrightnessFromScenario(s)
		if err != nil {
			continue
		}
		m.flatList = append(m.flatList, scenarioItem{
			title: setting.Label(),
			msg:   messages.ScenarioSelectedMsg{Axis: messages.AxisBrightness, Brightness: setting},
		})
	}
	m.flatList = append(m.flatList, scenarioItem{
		title: models.NoBrightness().Label(),
		msg:   messages.ScenarioSelectedMsg{Axis: messages.AxisBrightness, Brightness: models.NoBrightness()},
	})

	m.flatList = append(m.flatList, scenarioItem{isHeader: true, title: "Color"})
	for _, s := range models.ColorScenarios {
		setting, err := models.ColorFromScenario(s)
		if err != nil {
			continue
		}
		m.flatList = append(m.flatList, scenarioItem{
			title: setting.Label(),
			msg:   messages.ScenarioSelectedMsg{Axis: messages.AxisColor, Color: setting},
		})
	}
	m.flatList = append(m.flatList, scenarioItem{
		title: models.NoColor().Label(),
		msg:   messages.ScenarioSelectedMsg{Axis: messages.AxisColor, Color: models.NoColor()},
	})

	// Skip to first item (not header)
	m.selected = 0
	m.moveNext()
}

// Update handles messages
func (m ScenariosModel) Update(msg tea.Msg) (ScenariosModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "s", "q":
			return m, func() tea.Msg { return messages.HideScenariosMsg{} }

		case "up", "k":
			m.movePrev()

		case "down", "j":
			m.moveNext()

		case "enter":
			if m.selected >= 0 && m.selected < len(m.flatList) {
				item := m.flatList[m.selected]
				if !item.isHeader {
					return m, func() tea.Msg { return item.msg }
				}
			}
		}
	}

	return m, nil
}

func (m *ScenariosModel) moveNext() {
	for i := m.selected + 1; i < len(m.flatList); i++ {
		if !m.flatList[i].isHeader {
			m.selected = i
			return
		}
	}
}

func (m *ScenariosModel) movePrev() {
	for i := m.selected - 1; i >= 0; i-- {
		if !m.flatList[i].isHeader {
			m.selected = i
			return
		}
	}
}

// isCurrent reports whether item matches the active setting on its axis
func (m ScenariosModel) isCurrent(item scenarioItem) bool {
	if item.msg.Axis == messages.AxisColor {
		return item.msg.Color == m.color
	}
	return item.msg.Brightness == m.brightness
}

// View renders the scenario picker
func (m ScenariosModel) View() string {
	var b strings.Builder

	b.WriteString(styles.StyleModalTitle.Render("Scenarios"))
	b.WriteString("\n")

	for i, item := range m.flatList {
		if item.isHeader {
			b.WriteString("\n")
			b.WriteString(styles.StyleGroupTitle.Render(item.title))
			b.WriteString("\n")
			continue
		}

		style := styles.StyleListItem
		cursor := "  "
		if i == m.selected {
			style = styles.StyleListItemSelected
			cursor = "> "
		}
		mark := ""
		if m.isCurrent(item) {
			mark = styles.StyleSuccess.Render(" ✓")
		}

		b.WriteString(cursor + style.Render(item.title) + mark + "\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.StyleHelp.Render("↑/↓ navigate • enter apply • esc close"))

	// Wrap in modal style - responsive width (60-80% of screen, 40-60 chars)
	content := b.String()
	modalWidth := m.width * 70 / 100
	if modalWidth < 40 {
		modalWidth = 40
	}
	if modalWidth > 60 {
		modalWidth = 60
	}
	modal := styles.StyleModal.Width(modalWidth).Render(content)

	// Center in screen
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
}
