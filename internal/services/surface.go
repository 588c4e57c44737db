package services

import "github.com/benmeehan/carstatus-relay/internal/models"

// MessageLevel classifies a message shown to the operator.
type MessageLevel int

const (
	LevelInfo MessageLevel = iota
	LevelSuccess
	LevelError
)

// Surface is what the control panel exposes to the dispatcher.
// Implementations must be safe to call from any goroutine.
type Surface interface {
	ShowMessage(level MessageLevel, text string)
	ShowSent(record models.StatusRecord)
	ShowLastCommand(token string)
}

// RecordSink receives each page the monitor fetches. Every call replaces the
// previous page entirely.
type RecordSink interface {
	ShowRecords(records []models.StatusRecord)
}
