package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/benmeehan/carstatus-relay/internal/services"
)

// Dracula theme colors.
const (
	colorForeground = "#F8F8F2"
	colorCyan       = "#8BE9FD"
	colorGreen      = "#50FA7B"
	colorPink       = "#FF79C6"
	colorPurple     = "#BD93F9"
	colorRed        = "#FF5555"
	colorComment    = "#6272A4"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorPink)).
			Bold(true)
	buttonStyle = lipgloss.NewStyle().
			Width(11).
			Align(lipgloss.Center).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorPurple)).
			Foreground(lipgloss.Color(colorForeground))
	sentStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color(colorCyan))
	lastCommandStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colorCyan))
	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorComment))
	appStyle = lipgloss.NewStyle().
			Padding(1, 2)
)

func messageStyle(level services.MessageLevel) lipgloss.Style {
	switch level {
	case services.LevelSuccess:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorGreen))
	case services.LevelError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color(colorForeground))
	}
}
