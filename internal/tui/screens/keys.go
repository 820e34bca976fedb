package screens

import (
	"github.com/charmbracelet/bubbles/key"
)

// OverrideKeyMap defines keybindings for the settings page
type OverrideKeyMap struct {
	Dimmer    key.Binding
	Brighter  key.Binding
	Level     key.Binding
	Full      key.Binding
	Barcode   key.Binding
	Idle      key.Binding
	NoBright  key.Binding
	Nits      key.Binding
	Accurate  key.Binding
	NoColor   key.Binding
	Toggle    key.Binding
	Scenarios key.Binding
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// ShortHelp returns keybindings to show in compact help
func (k OverrideKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Dimmer, k.Brighter, k.Toggle, k.Scenarios, k.Help, k.Quit}
}

// FullHelp returns keybindings for expanded help
func (k OverrideKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Dimmer, k.Brighter, k.Level, k.Nits},
		{k.Full, k.Barcode, k.Idle, k.NoBright},
		{k.Accurate, k.NoColor, k.Scenarios},
		{k.Toggle, k.Refresh, k.Help, k.Quit},
	}
}

// DefaultOverrideKeyMap returns the default settings page keybindings
func DefaultOverrideKeyMap() OverrideKeyMap {
	return OverrideKeyMap{
		Dimmer: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "dimmer"),
		),
		Brighter: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "brighter"),
		),
		Level: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"),
			key.WithHelp("1-0", "10-100%"),
		),
		Full: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "full brightness"),
		),
		Barcode: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "barcode"),
		),
		Idle: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "idle"),
		),
		NoBright: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "no brightness"),
		),
		Nits: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "nits"),
		),
		Accurate: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "accurate colors"),
		),
		NoColor: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "no color"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "o"),
			key.WithHelp("space", "override"),
		),
		Scenarios: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "scenarios"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// brightnessFromKey maps digit keys to slider levels, 0 meaning 100%
func brightnessFromKey(k string) int {
	if len(k) != 1 || k[0] < '0' || k[0] > '9' {
		return -1
	}
	if k == "0" {
		return 100
	}
	return int(k[0]-'0') * 10
}
