package screens

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/angristan/deo-tui/internal/api"
	"github.com/angristan/deo-tui/internal/tui/messages"
	"github.com/angristan/deo-tui/internal/tui/styles"
)

const (
	discoveryTimeout = 5 * time.Second
	pairingTimeout   = 30 * time.Second
)

// SetupState is the step the agent setup is at
type SetupState int

const (
	StateDiscovering SetupState = iota
	StateAgentList
	StateManualEntry
	StatePairing
	StateSuccess
	StateError
)

type setupKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Select  key.Binding
	Manual  key.Binding
	Rescan  key.Binding
	Back    key.Binding
	Quit    key.Binding
	inEntry bool
}

func defaultSetupKeyMap() setupKeyMap {
	return setupKeyMap{
		Up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "pair")),
		Manual: key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "enter address")),
		Rescan: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
		Back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	}
}

func (k setupKeyMap) ShortHelp() []key.Binding {
	if k.inEntry {
		return []key.Binding{k.Select, k.Back}
	}
	return []key.Binding{k.Up, k.Down, k.Select, k.Manual, k.Rescan, k.Quit}
}

func (k setupKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// SetupModel finds and pairs a display agent
type SetupModel struct {
	state SetupState
	keys  setupKeyMap
	help  help.Model

	agents []api.DiscoveredAgent
	// Index into agents; len(agents) is the manual entry row
	cursor int

	input   textinput.Model
	spinner spinner.Model

	host string
	err  error

	width  int
	height int
}

// NewSetupModel creates the setup screen
func NewSetupModel() SetupModel {
	ti := textinput.New()
	ti.Placeholder = "192.168.1.20:8420"
	ti.CharLimit = 64

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.StyleSpinner

	return SetupModel{
		state:   StateDiscovering,
		keys:    defaultSetupKeyMap(),
		help:    help.New(),
		input:   ti,
		spinner: sp,
	}
}

// Init starts discovery
func (m SetupModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, discoverCmd())
}

// SetSize sets the terminal size
func (m *SetupModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width
}

// State returns the current setup step
func (m SetupModel) State() SetupState {
	return m.state
}

// Update handles messages
func (m SetupModel) Update(msg tea.Msg) (SetupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case AgentsDiscoveredMsg:
		m.agents = msg.Agents
		m.cursor = 0
		m.err = nil
		m.state = StateAgentList
		return m, nil

	case DiscoveryErrorMsg:
		m.agents = nil
		m.cursor = 0
		m.err = msg.Err
		m.state = StateAgentList
		return m, nil

	case PairingSuccessMsg:
		m.state = StateSuccess
		return m, func() tea.Msg {
			return messages.AgentConnectedMsg{Agent: msg.Agent, Key: msg.Key}
		}

	case PairingErrorMsg:
		m.state = StateError
		m.err = msg.Err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch m.state {
		case StateAgentList:
			return m.updateList(msg)
		case StateManualEntry:
			return m.updateEntry(msg)
		case StateError:
			return m.updateError(msg)
		}
	}

	return m, nil
}

func (m SetupModel) updateList(msg tea.KeyMsg) (SetupModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, func() tea.Msg { return messages.QuitRequestedMsg{} }
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.agents) {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Select):
		if m.cursor < len(m.agents) {
			return m.startPairing(m.agents[m.cursor].Host)
		}
		return m.openEntry()
	case key.Matches(msg, m.keys.Manual):
		return m.openEntry()
	case key.Matches(msg, m.keys.Rescan):
		m.state = StateDiscovering
		return m, discoverCmd()
	}
	return m, nil
}

func (m SetupModel) updateEntry(msg tea.KeyMsg) (SetupModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		host := strings.TrimSpace(m.input.Value())
		if host == "" {
			return m, nil
		}
		m.input.Blur()
		m.keys.inEntry = false
		return m.startPairing(host)
	case key.Matches(msg, m.keys.Back):
		m.input.Blur()
		m.keys.inEntry = false
		m.state = StateAgentList
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m SetupModel) updateError(msg tea.KeyMsg) (SetupModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, func() tea.Msg { return messages.QuitRequestedMsg{} }
	case key.Matches(msg, m.keys.Select), key.Matches(msg, m.keys.Back):
		m.err = nil
		m.state = StateAgentList
	}
	return m, nil
}

func (m SetupModel) openEntry() (SetupModel, tea.Cmd) {
	m.state = StateManualEntry
	m.keys.inEntry = true
	m.input.SetValue("")
	m.input.Focus()
	return m, textinput.Blink
}

func (m SetupModel) startPairing(host string) (SetupModel, tea.Cmd) {
	m.state = StatePairing
	m.host = host
	m.err = nil
	return m, tea.Batch(m.spinner.Tick, pairCmd(host))
}

// View renders the setup screen
func (m SetupModel) View() string {
	var body string
	switch m.state {
	case StateDiscovering:
		body = m.spinner.View() + " Looking for display agents on the network..."
	case StateAgentList:
		body = m.viewList()
	case StateManualEntry:
		body = "Agent address (host:port)\n\n" + styles.StyleInputFocused.Render(m.input.View())
	case StatePairing:
		body = fmt.Sprintf("%s Pairing with %s\n\n%s", m.spinner.View(), m.host,
			styles.StylePrimary.Render("Confirm the request on the display agent"))
	case StateSuccess:
		body = styles.StyleSuccess.Render("✓ Paired with " + m.host)
	case StateError:
		reason := "unknown error"
		if m.err != nil {
			reason = m.err.Error()
		}
		body = styles.StyleError.Render("✗ Pairing failed: " + reason)
	}

	if m.state == StateAgentList || m.state == StateManualEntry {
		body += "\n" + styles.StyleHelp.Render(m.help.View(m.keys))
	} else if m.state == StateError {
		body += "\n" + styles.StyleHelp.Render("enter back • q quit")
	}

	title := styles.StyleHeaderTitle.Render("Display Agent Setup")
	height := m.height - 2
	if height < 1 {
		height = 1
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.PlaceHorizontal(m.width, lipgloss.Center, title),
		"",
		lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, body),
	)
}

func (m SetupModel) viewList() string {
	var b strings.Builder

	if len(m.agents) == 0 {
		b.WriteString(styles.StyleTextMuted.Render("No display agents found"))
	} else {
		b.WriteString(styles.StyleGroupTitle.Render("Display agents"))
	}
	b.WriteString("\n\n")

	row := func(i int, text string) {
		style, cursor := styles.StyleListItem, "  "
		if i == m.cursor {
			style, cursor = styles.StyleListItemSelected, "> "
		}
		b.WriteString(cursor + style.Render(text) + "\n")
	}
	for i, a := range m.agents {
		text := a.Host
		if a.Name != "" {
			text = a.Name + "  " + styles.StyleTextMuted.Render(a.Host)
		}
		if a.Model != "" {
			text += styles.StyleTextMuted.Render(" [" + a.Model + "]")
		}
		row(i, text)
	}
	row(len(m.agents), "Enter address manually")

	if m.err != nil {
		b.WriteString("\n" + styles.StyleWarning.Render(m.err.Error()) + "\n")
	}
	return b.String()
}

func discoverCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout+time.Second)
		defer cancel()

		agents, err := api.DiscoverAgents(ctx, discoveryTimeout)
		if err != nil {
			return DiscoveryErrorMsg{Err: err}
		}
		return AgentsDiscoveredMsg{Agents: agents}
	}
}

func pairCmd(host string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pairingTimeout+5*time.Second)
		defer cancel()

		agentKey, err := api.CreateAgentKey(ctx, host, deviceType(), pairingTimeout)
		if err != nil {
			return PairingErrorMsg{Err: err}
		}
		agentID, err := api.GetAgentID(ctx, host)
		if err != nil {
			return PairingErrorMsg{Err: fmt.Errorf("read agent id: %w", err)}
		}
		return PairingSuccessMsg{Agent: api.NewAgentOverride(host, agentKey, agentID), Key: agentKey}
	}
}

// deviceType identifies this client to the agent
func deviceType() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "device"
	}
	return "deo-tui#" + hostname
}

// AgentsDiscoveredMsg carries the agents answering the mDNS query
type AgentsDiscoveredMsg struct {
	Agents []api.DiscoveredAgent
}

type DiscoveryErrorMsg struct {
	Err error
}

// PairingSuccessMsg carries a paired agent and its key
type PairingSuccessMsg struct {
	Agent *api.AgentOverride
	Key   string
}

type PairingErrorMsg struct {
	Err error
}
