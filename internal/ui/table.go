package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/benmeehan/carstatus-relay/internal/models"
)

// Refresher triggers an immediate fetch. It returns false if one is already running.
type Refresher interface {
	Refresh(ctx context.Context) bool
}

type refreshSkippedMsg struct{}

// TableModel is the read-only view of the most recent records.
type TableModel struct {
	refresher Refresher
	timeout   time.Duration
	pageSize  int
	now       func() time.Time
	keys      tableKeyMap
	help      help.Model
	table     table.Model

	status  string
	updated time.Time
}

// NewTableModel creates the record table.
func NewTableModel(refresher Refresher, pageSize int, timeout time.Duration) TableModel {
	columns := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Name", Width: 18},
		{Title: "Status", Width: 10},
		{Title: "Date", Width: 19},
		{Title: "Client IP", Width: 15},
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(colorPurple)).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color(colorForeground)).
		Background(lipgloss.Color(colorComment))

	return TableModel{
		refresher: refresher,
		timeout:   timeout,
		pageSize:  pageSize,
		now:       time.Now,
		keys:      newTableKeyMap(),
		help:      help.New(),
		table: table.New(
			table.WithColumns(columns),
			table.WithFocused(true),
			table.WithHeight(pageSize+1),
			table.WithStyles(styles),
		),
		status: "Waiting for first update...",
	}
}

func (m TableModel) Init() tea.Cmd {
	return nil
}

func (m TableModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.status = "Refreshing..."
			return m, m.refresh()
		}

	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case RecordsMsg:
		m.table.SetRows(toTableRows(msg.Records))
		m.updated = m.now()
		m.status = fmt.Sprintf("%d records", len(msg.Records))
		return m, nil

	case refreshSkippedMsg:
		m.status = "Refresh already in progress"
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// refresh runs the fetch off the event loop; the page itself arrives as a RecordsMsg.
func (m TableModel) refresh() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		if !m.refresher.Refresh(ctx) {
			return refreshSkippedMsg{}
		}
		return nil
	}
}

func (m TableModel) View() string {
	status := m.status
	if !m.updated.IsZero() {
		status = fmt.Sprintf("%s, updated %s", status, humanize.RelTime(m.updated, m.now(), "ago", "from now"))
	}

	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("Last %d records", m.pageSize)),
		m.table.View(),
		hintStyle.Render(status),
		hintStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())),
	))
}

// Rows returns the rows currently displayed.
func (m TableModel) Rows() []table.Row {
	return m.table.Rows()
}

// Status returns the status line.
func (m TableModel) Status() string {
	return m.status
}

func toTableRows(records []models.StatusRecord) []table.Row {
	rows := make([]table.Row, 0, len(records))
	for _, record := range records {
		r := models.ToRow(record)
		rows = append(rows, table.Row{r.ID, r.Name, r.Status, r.Date, r.IPClient})
	}
	return rows
}
