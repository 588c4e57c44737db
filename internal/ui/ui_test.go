package ui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benmeehan/carstatus-relay/internal/constants"
	"github.com/benmeehan/carstatus-relay/internal/models"
	"github.com/benmeehan/carstatus-relay/internal/services"
)

type fakeCommander struct {
	mu        sync.Mutex
	submitted []string
	err       error
	loaded    bool
}

func (c *fakeCommander) Submit(token string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted = append(c.submitted, token)
	return c.err
}

func (c *fakeCommander) LoadLastCommand(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
}

type fakeRefresher struct {
	result bool
	calls  int
}

func (r *fakeRefresher) Refresh(ctx context.Context) bool {
	r.calls++
	return r.result
}

type recordingSender struct {
	msgs []tea.Msg
}

func (s *recordingSender) Send(msg tea.Msg) {
	s.msgs = append(s.msgs, msg)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPanelModel_KeysSubmitCommands(t *testing.T) {
	commander := &fakeCommander{}
	var model tea.Model = NewPanelModel(commander, time.Second)

	keys := []tea.KeyMsg{
		{Type: tea.KeyUp},
		runes("a"),
		{Type: tea.KeySpace},
		runes("d"),
		{Type: tea.KeyDown},
		runes("z"),
	}
	for _, k := range keys {
		model, _ = model.Update(k)
	}

	assert.Equal(t, []string{
		constants.CommandForward,
		constants.CommandLeft,
		constants.CommandStop,
		constants.CommandRight,
		constants.CommandBackward,
	}, commander.submitted)
	assert.Equal(t, "Sending backward...", model.(PanelModel).Message())
}

func TestPanelModel_RejectedSubmit(t *testing.T) {
	commander := &fakeCommander{err: services.ErrDispatcherBusy}
	var model tea.Model = NewPanelModel(commander, time.Second)

	model, _ = model.Update(runes("x"))
	assert.Equal(t, "Busy: stop not sent", model.(PanelModel).Message())

	commander.err = services.ErrDispatcherStopped
	model, _ = model.Update(runes("w"))
	assert.Equal(t, "Dispatcher is not running", model.(PanelModel).Message())
}

func TestPanelModel_ShowsServiceUpdates(t *testing.T) {
	var model tea.Model = NewPanelModel(&fakeCommander{}, time.Second)
	assert.Equal(t, constants.LastCommandNone, model.(PanelModel).LastCommand())

	record := models.StatusRecord{Name: "op", Status: "left", Date: models.RawDate("1700000000"), IPClient: "10.0.0.2"}
	model, _ = model.Update(MessageMsg{Level: services.LevelSuccess, Text: "Success: left record sent"})
	model, _ = model.Update(SentMsg{Record: record})
	model, _ = model.Update(LastCommandMsg{Token: "left"})

	panel := model.(PanelModel)
	assert.Equal(t, "left", panel.LastCommand())
	view := panel.View()
	assert.Contains(t, view, "Success: left record sent")
	assert.Contains(t, view, "ipClient: 10.0.0.2")
	assert.Contains(t, view, "date: 1700000000")
	assert.Contains(t, view, "Last command sent: left")
}

func TestPanelModel_InitLoadsLastCommand(t *testing.T) {
	commander := &fakeCommander{}
	cmd := NewPanelModel(commander, time.Second).Init()
	require.NotNil(t, cmd)

	assert.Nil(t, cmd())
	assert.True(t, commander.loaded)
}

func TestPanelModel_Quit(t *testing.T) {
	_, cmd := NewPanelModel(&fakeCommander{}, time.Second).Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestTableModel_RecordsReplaceRows(t *testing.T) {
	var model tea.Model = NewTableModel(&fakeRefresher{result: true}, 10, time.Second)

	model, _ = model.Update(RecordsMsg{Records: []models.StatusRecord{
		{ID: "1", Name: "op", Status: "stop", Date: models.RawDate(`"garbage"`), IPClient: "10.0.0.2"},
		{ID: "2", Name: "op", Status: "left", Date: models.RawDate("1700000000"), IPClient: "unavailable"},
	}})

	tbl := model.(TableModel)
	rows := tbl.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, models.InvalidDate, rows[0][3])
	assert.Equal(t, "stop", rows[0][2])
	assert.Equal(t, time.Unix(1700000000, 0).Format(models.DateLayout), rows[1][3])
	assert.Equal(t, "2 records", tbl.Status())

	model, _ = model.Update(RecordsMsg{Records: []models.StatusRecord{}})
	assert.Empty(t, model.(TableModel).Rows())
	assert.Contains(t, model.(TableModel).View(), "0 records, updated")
}

func TestTableModel_ManualRefresh(t *testing.T) {
	refresher := &fakeRefresher{result: false}
	var model tea.Model = NewTableModel(refresher, 10, time.Second)

	model, cmd := model.Update(runes("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, "Refreshing...", model.(TableModel).Status())

	msg := cmd()
	assert.IsType(t, refreshSkippedMsg{}, msg)
	assert.Equal(t, 1, refresher.calls)

	model, _ = model.Update(msg)
	assert.Equal(t, "Refresh already in progress", model.(TableModel).Status())

	refresher.result = true
	_, cmd = model.Update(runes("r"))
	assert.Nil(t, cmd())
}

func TestProgramSurface_SendsMessages(t *testing.T) {
	sender := &recordingSender{}
	surface := NewProgramSurface(sender)

	record := models.StatusRecord{Status: "stop"}
	surface.ShowMessage(services.LevelError, "Network error")
	surface.ShowSent(record)
	surface.ShowLastCommand("stop")
	surface.ShowRecords([]models.StatusRecord{record})

	assert.Equal(t, []tea.Msg{
		MessageMsg{Level: services.LevelError, Text: "Network error"},
		SentMsg{Record: record},
		LastCommandMsg{Token: "stop"},
		RecordsMsg{Records: []models.StatusRecord{record}},
	}, sender.msgs)
}
