// Package ui holds the terminal front ends: the control panel and the read-only
// record table. Both run on the bubbletea event loop and never perform network
// calls inside Update; results arrive as messages.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/benmeehan/carstatus-relay/internal/models"
	"github.com/benmeehan/carstatus-relay/internal/services"
)

// MessageMsg carries an operator-facing status line.
type MessageMsg struct {
	Level services.MessageLevel
	Text  string
}

// SentMsg carries the record that was just accepted.
type SentMsg struct {
	Record models.StatusRecord
}

// LastCommandMsg carries the most recent command token.
type LastCommandMsg struct {
	Token string
}

// RecordsMsg carries a full replacement page of records.
type RecordsMsg struct {
	Records []models.StatusRecord
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// ProgramSurface forwards service output into the event loop. Send is safe to call
// from any goroutine, so services never touch model state directly.
type ProgramSurface struct {
	sender Sender
}

var (
	_ services.Surface    = (*ProgramSurface)(nil)
	_ services.RecordSink = (*ProgramSurface)(nil)
)

// NewProgramSurface creates a surface that delivers to sender.
func NewProgramSurface(sender Sender) *ProgramSurface {
	return &ProgramSurface{sender: sender}
}

func (s *ProgramSurface) ShowMessage(level services.MessageLevel, text string) {
	s.sender.Send(MessageMsg{Level: level, Text: text})
}

func (s *ProgramSurface) ShowSent(record models.StatusRecord) {
	s.sender.Send(SentMsg{Record: record})
}

func (s *ProgramSurface) ShowLastCommand(token string) {
	s.sender.Send(LastCommandMsg{Token: token})
}

func (s *ProgramSurface) ShowRecords(records []models.StatusRecord) {
	s.sender.Send(RecordsMsg{Records: records})
}
