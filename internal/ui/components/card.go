package components

import (
	"image/color"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/prelims/internal/ui/theme"
)

// ContentWidth returns the inner width shared by stacked cards so they line
// up.
func ContentWidth(frameWidth int) int {
	w := frameWidth - 6
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}

// Card wraps content in a rounded-border card at the given content width.
func Card(content string, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw-2).
		Padding(0, 2).
		Render(content)
}

// AccentCard is Card with a coloured border.
func AccentCard(content string, cw int, accent color.Color) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Width(cw-2).
		Padding(0, 2).
		Render(content)
}
