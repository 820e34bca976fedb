package screens

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/angristan/deo-tui/internal/controller"
	"github.com/angristan/deo-tui/internal/models"
	"github.com/angristan/deo-tui/internal/tui/components"
	"github.com/angristan/deo-tui/internal/tui/messages"
	"github.com/angristan/deo-tui/internal/tui/styles"
)

const initialSliderValue = 50

// OverrideModel is the display override settings page
type OverrideModel struct {
	ctrl    *controller.Controller
	backend string

	keys OverrideKeyMap
	help help.Model

	// Slider position in percent
	slider int
	step   int

	// Nits entry
	nitsMode  bool
	nitsInput textinput.Model

	// Local input problems, shown until the next key press
	notice string

	loading bool
	spinner spinner.Model

	width  int
	height int
}

// NewOverrideModel creates the settings page for ctrl
func NewOverrideModel(ctrl *controller.Controller, backend string, step int) OverrideModel {
	ti := textinput.New()
	ti.Placeholder = "nits"
	ti.CharLimit = 8

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StyleSpinner

	if step <= 0 {
		step = 5
	}

	return OverrideModel{
		ctrl:      ctrl,
		backend:   backend,
		keys:      DefaultOverrideKeyMap(),
		help:      help.New(),
		slider:    initialSliderValue,
		step:      step,
		nitsInput: ti,
		loading:   ctrl.Supported(),
		spinner:   sp,
	}
}

// Init starts the spinner and reads the platform state
func (m OverrideModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.ctrl.Refresh())
}

// SetSize sets the terminal size
func (m *OverrideModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
}

// Display returns the controller's current display text
func (m OverrideModel) Display() controller.Display {
	return m.ctrl.Display()
}

// OverrideHeld reports whether an override is requested or applied
func (m OverrideModel) OverrideHeld() bool {
	d := m.ctrl.Display()
	return d.ToggleOn || d.OverrideActive == controller.StatusYes
}

// CurrentSettings returns the selected brightness and color settings
func (m OverrideModel) CurrentSettings() (models.BrightnessSetting, models.ColorSetting) {
	return m.ctrl.Brightness(), m.ctrl.Color()
}

// Slider returns the slider position
func (m OverrideModel) Slider() int {
	return m.slider
}

// Update handles messages
func (m OverrideModel) Update(msg tea.Msg) (OverrideModel, tea.Cmd) {
	switch msg := msg.(type) {
	case controller.ResultMsg:
		return m, m.ctrl.HandleResult(msg)

	case controller.SnapshotMsg:
		m.loading = false
		m.ctrl.HandleSnapshot(msg)

	case messages.CapabilitiesChangedMsg:
		m.loading = false
		m.ctrl.OnCapabilitiesChanged(msg.Capabilities)

	case messages.CanOverrideChangedMsg:
		m.ctrl.OnCanOverrideChanged(msg.CanOverride)

	case messages.OverrideActiveChangedMsg:
		m.ctrl.OnOverrideActiveChanged(msg.Active)

	case messages.ScenarioSelectedMsg:
		if msg.Axis == messages.AxisColor {
			return m, m.ctrl.SetColor(msg.Color)
		}
		return m, m.setBrightness(msg.Brightness)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		m.notice = ""
		if m.nitsMode {
			return m.updateNitsEntry(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m OverrideModel) handleKey(msg tea.KeyMsg) (OverrideModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, func() tea.Msg { return messages.QuitRequestedMsg{} }

	case key.Matches(msg, m.keys.Dimmer):
		return m, m.setSlider(m.slider - m.step)

	case key.Matches(msg, m.keys.Brighter):
		return m, m.setSlider(m.slider + m.step)

	case key.Matches(msg, m.keys.Level):
		if level := brightnessFromKey(msg.String()); level >= 0 {
			return m, m.setSlider(level)
		}

	case key.Matches(msg, m.keys.Full):
		return m, m.setScenario(models.ScenarioFullBrightness)

	case key.Matches(msg, m.keys.Barcode):
		return m, m.setScenario(models.ScenarioBarcodeReading)

	case key.Matches(msg, m.keys.Idle):
		return m, m.setScenario(models.ScenarioIdle)

	case key.Matches(msg, m.keys.NoBright):
		return m, m.ctrl.ClearBrightness()

	case key.Matches(msg, m.keys.Nits):
		m.nitsMode = true
		m.nitsInput.SetValue("")
		m.nitsInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Accurate):
		accurate, err := models.ColorFromScenario(models.ScenarioAccurateColors)
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		return m, m.ctrl.SetColor(accurate)

	case key.Matches(msg, m.keys.NoColor):
		return m, m.ctrl.ClearColor()

	case key.Matches(msg, m.keys.Toggle):
		d := m.ctrl.Display()
		if !d.ToggleEnabled {
			return m, nil
		}
		return m, m.ctrl.ToggleChanged(!d.ToggleOn)

	case key.Matches(msg, m.keys.Scenarios):
		return m, func() tea.Msg { return messages.ShowScenariosMsg{} }

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.ctrl.Refresh()
		if cmd != nil {
			m.loading = true
		}
		return m, cmd

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m OverrideModel) updateNitsEntry(msg tea.KeyMsg) (OverrideModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.nitsMode = false
		m.nitsInput.Blur()
		return m, nil

	case tea.KeyEnter:
		m.nitsMode = false
		m.nitsInput.Blur()
		setting, err := m.parseNits(m.nitsInput.Value())
		if err != nil {
			m.notice = err.Error()
			return m, nil
		}
		return m, m.setBrightness(setting)
	}

	var cmd tea.Cmd
	m.nitsInput, cmd = m.nitsInput.Update(msg)
	return m, cmd
}

// parseNits validates the nits entry against the reported capabilities
func (m OverrideModel) parseNits(input string) (models.BrightnessSetting, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return models.BrightnessSetting{}, fmt.Errorf("%q is not a number", input)
	}
	setting, err := models.BrightnessFromNits(value)
	if err != nil {
		return models.BrightnessSetting{}, err
	}

	caps := m.ctrl.Capabilities()
	if caps.NitsSupported && !caps.SupportsNits(value) {
		return models.BrightnessSetting{}, fmt.Errorf("%s is outside the supported nits range", setting.Label())
	}
	return setting, nil
}

// setSlider moves the slider and sends the value as a percentage setting
func (m *OverrideModel) setSlider(value int) tea.Cmd {
	if value < 0 {
		value = 0
	}
	if value > 100 {
		value = 100
	}
	m.slider = value

	setting, err := models.BrightnessFromPercentage(float64(value))
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	return m.ctrl.SetBrightness(setting)
}

func (m *OverrideModel) setScenario(s models.BrightnessScenario) tea.Cmd {
	setting, err := models.BrightnessFromScenario(s)
	if err != nil {
		m.notice = err.Error()
		return nil
	}
	return m.setBrightness(setting)
}

func (m *OverrideModel) setBrightness(setting models.BrightnessSetting) tea.Cmd {
	if setting.Kind() == models.BrightnessPercentage {
		m.slider = int(setting.Percentage())
	}
	return m.ctrl.SetBrightness(setting)
}

// View renders the settings page
func (m OverrideModel) View() string {
	var b strings.Builder
	d := m.ctrl.Display()

	status := ""
	if m.loading || m.ctrl.Busy() {
		status = m.spinner.View()
	}
	backend := ""
	if m.ctrl.Supported() {
		backend = m.backend
	}
	b.WriteString(components.RenderHeader(m.width, backend, status))
	b.WriteString("\n\n")

	// Slider
	barWidth := m.width - 20
	if barWidth > 50 {
		barWidth = 50
	}
	if barWidth < 10 {
		barWidth = 10
	}
	sliderActive := m.ctrl.Brightness().Kind() == models.BrightnessPercentage
	b.WriteString(styles.StyleLabel.Render("Brightness "))
	b.WriteString(components.RenderBrightnessBar(m.slider, sliderActive, barWidth))
	b.WriteString(fmt.Sprintf(" %3d%%", m.slider))
	b.WriteString("\n\n")

	if m.nitsMode {
		b.WriteString("Brightness in nits:\n")
		b.WriteString(styles.StyleInputFocused.Render(m.nitsInput.View()))
		b.WriteString("\n\n")
	}

	settings := components.RenderPanel("Settings", []components.Field{
		{Label: "Brightness", Value: d.Brightness},
		{Label: "Color", Value: d.Color},
	}, m.panelWidth())
	platform := components.RenderPanel("Display", []components.Field{
		{Label: "Percentage supported", Value: d.PercentageSupported},
		{Label: "Nits supported", Value: d.NitsSupported},
		{Label: "Can override", Value: d.CanOverride},
		{Label: "Override active", Value: d.OverrideActive},
	}, m.panelWidth())
	b.WriteString(settings)
	b.WriteString("\n")
	b.WriteString(platform)
	b.WriteString("\n")

	b.WriteString(components.RenderToggle(d.ToggleOn, d.ToggleEnabled))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(styles.StyleError.Render(m.notice))
		b.WriteString("\n")
	} else if d.Advisory != "" {
		b.WriteString(styles.StyleWarning.Render(d.Advisory))
		b.WriteString("\n")
	}

	b.WriteString(styles.StyleHelp.Render(m.help.View(m.keys)))

	return b.String()
}

func (m OverrideModel) panelWidth() int {
	w := m.width
	if w > 60 {
		w = 60
	}
	return w
}
