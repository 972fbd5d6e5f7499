package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/foldermon/foldermon/internal/domain"
)

// Styles used by the UI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	createdStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	modifiedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	deletedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	plainStyle    = lipgloss.NewStyle()
)

// kindStyle colors a listed file by its last event. Deleted files are
// normally gone from the listing, but a fast recreate can still show one.
func kindStyle(kind domain.FileEventKind) lipgloss.Style {
	switch kind {
	case domain.FileCreated:
		return createdStyle
	case domain.FileModified:
		return modifiedStyle
	case domain.FileDeleted:
		return deletedStyle
	default:
		return plainStyle
	}
}

// severityStyle colors a log entry.
func severityStyle(s domain.Severity) lipgloss.Style {
	switch s {
	case domain.SeverityWarning:
		return modifiedStyle
	case domain.SeverityError:
		return deletedStyle
	default:
		return createdStyle
	}
}
