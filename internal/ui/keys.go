package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/benmeehan/carstatus-relay/internal/constants"
)

type panelKeyMap struct {
	Forward  key.Binding
	Backward key.Binding
	Left     key.Binding
	Right    key.Binding
	Stop     key.Binding
	Quit     key.Binding
}

func newPanelKeyMap() panelKeyMap {
	return panelKeyMap{
		Forward:  key.NewBinding(key.WithKeys("up", "w"), key.WithHelp("↑/w", constants.CommandForward)),
		Backward: key.NewBinding(key.WithKeys("down", "s"), key.WithHelp("↓/s", constants.CommandBackward)),
		Left:     key.NewBinding(key.WithKeys("left", "a"), key.WithHelp("←/a", constants.CommandLeft)),
		Right:    key.NewBinding(key.WithKeys("right", "d"), key.WithHelp("→/d", constants.CommandRight)),
		Stop:     key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space/x", constants.CommandStop)),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

// commandFor returns the command token bound to msg.
func (k panelKeyMap) commandFor(msg tea.KeyMsg) (string, bool) {
	bindings := []struct {
		binding key.Binding
		token   string
	}{
		{k.Forward, constants.CommandForward},
		{k.Backward, constants.CommandBackward},
		{k.Left, constants.CommandLeft},
		{k.Right, constants.CommandRight},
		{k.Stop, constants.CommandStop},
	}
	for _, b := range bindings {
		if key.Matches(msg, b.binding) {
			return b.token, true
		}
	}
	return "", false
}

func (k panelKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Forward, k.Backward, k.Left, k.Right, k.Stop, k.Quit}
}

type tableKeyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func newTableKeyMap() tableKeyMap {
	return tableKeyMap{
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh now")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	}
}

func (k tableKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}
