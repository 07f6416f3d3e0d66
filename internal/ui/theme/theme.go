package theme

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Color palette
var (
	Primary   = lipgloss.Color("#6366F1") // Indigo
	Secondary = lipgloss.Color("#14B8A6") // Teal
	Accent    = lipgloss.Color("#F59E0B") // Amber
	Success   = lipgloss.Color("#22C55E") // Green
	Warning   = lipgloss.Color("#F97316") // Orange
	Error     = lipgloss.Color("#F43F5E") // Rose
	Text      = lipgloss.Color("#F8FAFC") // White
	TextDim   = lipgloss.Color("#94A3B8") // Slate
	BgDark    = lipgloss.Color("#0F172A") // Deep Navy
	BgCard    = lipgloss.Color("#1E293B") // Dark Slate
	Border    = lipgloss.Color("#334155") // Slate
)

// subjectColors gives each known subject its accent colour.
var subjectColors = map[string]color.Color{
	"Environment":     lipgloss.Color("#10B981"), // emerald
	"Economy":         lipgloss.Color("#3B82F6"), // blue
	"Geography":       lipgloss.Color("#F59E0B"), // amber
	"Science & Tech":  lipgloss.Color("#8B5CF6"), // violet
	"Int'l Relations": lipgloss.Color("#F43F5E"), // rose
	"Art & Culture":   lipgloss.Color("#EC4899"), // pink
	"Modern History":  lipgloss.Color("#F97316"), // orange
	"Indian Polity":   lipgloss.Color("#06B6D4"), // cyan
	"CSAT":            lipgloss.Color("#6366F1"), // indigo
}

// SubjectColor returns the accent colour for a subject, or Secondary for
// subjects without one.
func SubjectColor(subject string) color.Color {
	if c, ok := subjectColors[subject]; ok {
		return c
	}
	return Secondary
}

// BandColor maps an accuracy percentage to a status colour.
func BandColor(accuracy int) color.Color {
	switch {
	case accuracy >= 80:
		return Success
	case accuracy >= 60:
		return Secondary
	case accuracy >= 40:
		return Accent
	case accuracy > 0:
		return Warning
	}
	return TextDim
}

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Align(lipgloss.Center)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextDim).
			Align(lipgloss.Center)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Layout
var (
	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border).
		Padding(1, 2)
)

// States
var (
	Selected = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	Unselected = lipgloss.NewStyle().
			Foreground(Text)

	Correct = lipgloss.NewStyle().
		Foreground(Success).
		Bold(true)

	Incorrect = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)
)
