package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/angristan/deo-tui/internal/api"
	"github.com/angristan/deo-tui/internal/config"
	"github.com/angristan/deo-tui/internal/controller"
	"github.com/angristan/deo-tui/internal/logging"
	"github.com/angristan/deo-tui/internal/tui/messages"
	"github.com/angristan/deo-tui/internal/tui/screens"
)

const (
	eventQueueSize = 64
	restoreTimeout = 3 * time.Second
)

// Screen represents the current screen state
type Screen int

const (
	ScreenSetup Screen = iota
	ScreenOverride
	ScreenScenarios
)

// Model is the main application model
type Model struct {
	// Configuration
	config *config.Config
	log    zerolog.Logger

	// Platform override object and its notification stream
	client api.DisplayOverride
	sub    api.Subscription
	events chan api.Event

	// Current screen
	screen Screen

	// Screen models
	setupScreen     screens.SetupModel
	overrideScreen  screens.OverrideModel
	scenariosScreen screens.ScenariosModel

	// Window size
	width  int
	height int

	// Error state
	err error

	// Context for cancellation
	ctx    context.Context
	cancel context.CancelFunc
}

// NewModel creates a new application model. A nil client shows the agent
// setup screen when the agent backend is selected, and the unsupported
// settings page otherwise.
func NewModel(cfg *config.Config, client api.DisplayOverride, log zerolog.Logger) Model {
	ctx, cancel := context.WithCancel(logging.WithContext(context.Background(), log))

	m := Model{
		config: cfg,
		log:    log,
		client: client,
		events: make(chan api.Event, eventQueueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	m.setupScreen = screens.NewSetupModel()
	m.overrideScreen = m.newOverrideScreen()
	m.scenariosScreen = screens.NewScenariosModel()

	if client == nil && cfg.EffectiveBackend() == config.BackendAgent {
		m.screen = ScreenSetup
	} else {
		m.screen = ScreenOverride
	}

	return m
}

func (m Model) newOverrideScreen() screens.OverrideModel {
	name := ""
	if m.client != nil {
		name = m.client.Name()
	}
	ctrl := controller.New(m.client, m.log)
	return screens.NewOverrideModel(ctrl, name, m.config.SliderStep)
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.SetWindowTitle("Display Override"),
	}

	switch m.screen {
	case ScreenSetup:
		cmds = append(cmds, m.setupScreen.Init())
	case ScreenOverride:
		cmds = append(cmds, m.overrideScreen.Init(), m.subscribeCmd(), m.waitForEvents())
	}

	return tea.Batch(cmds...)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.overrideScreen.SetSize(msg.Width, msg.Height)
		m.setupScreen.SetSize(msg.Width, msg.Height)
		m.scenariosScreen.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		// Global key handlers
		if msg.String() == "ctrl+c" {
			return m, m.shutdown()
		}

	case messages.QuitRequestedMsg:
		return m, m.shutdown()

	case messages.AgentConnectedMsg:
		m.client = msg.Agent
		m.config.AddAgent(config.AgentConfig{
			Host:    msg.Agent.Host(),
			Key:     msg.Key,
			AgentID: msg.Agent.AgentID(),
		})
		m.config.LastAgentID = msg.Agent.AgentID()
		if err := m.config.Save(); err != nil {
			m.log.Warn().Err(err).Msg("failed to save config")
			m.err = err
		}
		m.log.Info().Str("agent", msg.Agent.Name()).Msg("paired with display agent")

		m.screen = ScreenOverride
		m.overrideScreen = m.newOverrideScreen()
		m.overrideScreen.SetSize(m.width, m.height)
		return m, tea.Batch(m.overrideScreen.Init(), m.subscribeCmd(), m.waitForEvents())

	case messages.SubscribedMsg:
		if msg.Err != nil {
			m.log.Warn().Err(msg.Err).Msg("failed to subscribe to override notifications")
			m.err = msg.Err
			return m, nil
		}
		m.sub = msg.Sub
		return m, nil

	case messages.CapabilitiesChangedMsg, messages.CanOverrideChangedMsg, messages.OverrideActiveChangedMsg:
		// Notifications always reach the settings page, whichever screen is shown
		var cmd tea.Cmd
		m.overrideScreen, cmd = m.overrideScreen.Update(msg)
		return m, tea.Batch(cmd, m.waitForEvents())

	case controller.ResultMsg, controller.SnapshotMsg:
		var cmd tea.Cmd
		m.overrideScreen, cmd = m.overrideScreen.Update(msg)
		return m, cmd

	case messages.ErrorMsg:
		m.err = msg.Err

	case messages.ShowScenariosMsg:
		m.scenariosScreen.SetCurrent(m.overrideScreen.CurrentSettings())
		m.screen = ScreenScenarios
		return m, nil

	case messages.HideScenariosMsg:
		m.screen = ScreenOverride
		return m, nil

	case messages.ScenarioSelectedMsg:
		m.screen = ScreenOverride
		var cmd tea.Cmd
		m.overrideScreen, cmd = m.overrideScreen.Update(msg)
		return m, cmd
	}

	// Route to current screen
	switch m.screen {
	case ScreenSetup:
		var cmd tea.Cmd
		m.setupScreen, cmd = m.setupScreen.Update(msg)
		cmds = append(cmds, cmd)

	case ScreenOverride:
		var cmd tea.Cmd
		m.overrideScreen, cmd = m.overrideScreen.Update(msg)
		cmds = append(cmds, cmd)

	case ScreenScenarios:
		var cmd tea.Cmd
		m.scenariosScreen, cmd = m.scenariosScreen.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// View renders the current screen
func (m Model) View() string {
	switch m.screen {
	case ScreenSetup:
		return m.setupScreen.View()
	case ScreenOverride:
		return m.overrideScreen.View()
	case ScreenScenarios:
		return m.scenariosScreen.View()
	default:
		return "Unknown screen"
	}
}

// Close stops the notification subscription. Safe to call more than once.
func (m Model) Close() {
	if m.sub != nil {
		m.sub.Stop()
	}
	m.cancel()
}

// shutdown tears down the subscription, releases a held override when
// configured to, and quits
func (m Model) shutdown() tea.Cmd {
	m.Close()

	client := m.client
	restore := m.config.RestoreOnExit && client != nil && m.overrideScreen.OverrideHeld()
	log := m.log

	return func() tea.Msg {
		if restore {
			ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
			defer cancel()
			if err := client.StopOverride(ctx); err != nil {
				log.Warn().Err(err).Msg("failed to stop override on exit")
			}
		}
		return tea.Quit()
	}
}

// subscribeCmd registers for platform notifications. The handler runs on a
// backend goroutine and only enqueues; Update drains the queue.
func (m Model) subscribeCmd() tea.Cmd {
	if m.client == nil {
		return nil
	}
	client := m.client
	ctx := m.ctx
	events := m.events

	return func() tea.Msg {
		sub, err := client.Subscribe(ctx, func(batch []api.Event) {
			for _, e := range batch {
				select {
				case events <- e:
				case <-ctx.Done():
					return
				}
			}
		})
		return messages.SubscribedMsg{Sub: sub, Err: err}
	}
}

// waitForEvents delivers the next queued notification
func (m Model) waitForEvents() tea.Cmd {
	if m.client == nil {
		return nil
	}
	ctx := m.ctx
	events := m.events

	return func() tea.Msg {
		for {
			select {
			case e := <-events:
				if msg := messages.FromEvent(e); msg != nil {
					return msg
				}
			case <-ctx.Done():
				return nil
			}
		}
	}
}
