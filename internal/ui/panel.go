package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/benmeehan/carstatus-relay/internal/constants"
	"github.com/benmeehan/carstatus-relay/internal/models"
	"github.com/benmeehan/carstatus-relay/internal/services"
)

// Commander is the dispatcher as seen by the panel.
type Commander interface {
	Submit(token string) error
	LoadLastCommand(ctx context.Context)
}

// PanelModel is the control panel: a direction pad, the outcome of the last
// submission, the fields that were sent and the last command.
type PanelModel struct {
	commander   Commander
	loadTimeout time.Duration
	keys        panelKeyMap
	help        help.Model

	message      string
	messageLevel services.MessageLevel
	sent         *models.StatusRecord
	lastCommand  string
}

// NewPanelModel creates the control panel.
func NewPanelModel(commander Commander, loadTimeout time.Duration) PanelModel {
	return PanelModel{
		commander:   commander,
		loadTimeout: loadTimeout,
		keys:        newPanelKeyMap(),
		help:        help.New(),
		lastCommand: constants.LastCommandNone,
	}
}

// Init fetches the last command off the event loop.
func (m PanelModel) Init() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.loadTimeout)
		defer cancel()
		m.commander.LoadLastCommand(ctx)
		return nil
	}
}

func (m PanelModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		if token, ok := m.keys.commandFor(msg); ok {
			switch err := m.commander.Submit(token); {
			case err == nil:
				m.message = fmt.Sprintf("Sending %s...", token)
				m.messageLevel = services.LevelInfo
			case errors.Is(err, services.ErrDispatcherBusy):
				m.message = fmt.Sprintf("Busy: %s not sent", token)
				m.messageLevel = services.LevelError
			default:
				m.message = "Dispatcher is not running"
				m.messageLevel = services.LevelError
			}
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case MessageMsg:
		m.message = msg.Text
		m.messageLevel = msg.Level

	case SentMsg:
		record := msg.Record
		m.sent = &record

	case LastCommandMsg:
		m.lastCommand = msg.Token
	}

	return m, nil
}

func (m PanelModel) View() string {
	pad := lipgloss.JoinVertical(lipgloss.Center,
		buttonStyle.Render("Forward"),
		lipgloss.JoinHorizontal(lipgloss.Top,
			buttonStyle.Render("Left"),
			buttonStyle.Render("Stop"),
			buttonStyle.Render("Right"),
		),
		buttonStyle.Render("Backward"),
	)

	sections := []string{
		titleStyle.Render("Car control panel"),
		pad,
		messageStyle(m.messageLevel).Render(m.message),
	}
	if m.sent != nil {
		sections = append(sections, sentStyle.Render(renderSent(*m.sent)))
	}
	sections = append(sections,
		lastCommandStyle.Render("Last command sent: "+m.lastCommand),
		hintStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())),
	)

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// LastCommand returns the last command shown.
func (m PanelModel) LastCommand() string {
	return m.lastCommand
}

// Message returns the current status line.
func (m PanelModel) Message() string {
	return m.message
}

func renderSent(r models.StatusRecord) string {
	lines := []string{
		"status: " + r.Status,
		"date: " + r.Date.String(),
		"ipClient: " + r.IPClient,
		"name: " + r.Name,
	}
	return strings.Join(lines, "\n")
}
