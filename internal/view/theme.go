// Package view renders records for the terminal.
package view

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/maruel/pcrm/internal/crm"
)

var (
	// Green marks recent contacts and success messages.
	Green  = lipgloss.Color("2")
	// Yellow marks contacts not seen for a while.
	Yellow = lipgloss.Color("3")
	// Red marks stale contacts and errors.
	Red    = lipgloss.Color("1")
	// Blue marks cold contacts.
	Blue   = lipgloss.Color("4")
	// Gray is used for borders and hints.
	Gray   = lipgloss.Color("8")

	// Recency bucket colors.
	bucketColors = map[crm.Bucket]lipgloss.Color{
		crm.Recent:   Green,
		crm.Moderate: Yellow,
		crm.Stale:    Red,
		crm.Cold:     Blue,
	}

	// TitleStyle renders section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			MarginTop(1)

	// HeaderStyle renders table headers.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	// CellStyle renders table cells.
	CellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	// BorderStyle renders table borders.
	BorderStyle = lipgloss.NewStyle().
			Foreground(Gray)

	// ErrorStyle renders error messages.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red).
			Bold(true)

	// SuccessStyle renders confirmations.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	// HelpStyle renders hints and notices.
	HelpStyle = lipgloss.NewStyle().
			Foreground(Gray)
)

// BucketStyle returns the text style of a recency bucket.
func BucketStyle(b crm.Bucket) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(bucketColors[b])
}
