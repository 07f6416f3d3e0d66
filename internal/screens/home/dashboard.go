package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/prelims/internal/scoring"
	"github.com/abhisek/prelims/internal/screens/welcome"
	"github.com/abhisek/prelims/internal/ui/components"
	"github.com/abhisek/prelims/internal/ui/theme"
)

func renderTitle(cw int, compact bool) string {
	w := cw
	if compact {
		w = 0
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(welcome.RenderBanner(w))
}

// renderStatus shows the signed-in user's balance and overall accuracy, or
// a prompt to sign in.
func (h *HomeScreen) renderStatus(cw int, compact bool) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var body string
	switch {
	case h.profile == nil && h.signedIn():
		body = dim.Render("Loading profile...")
	case h.profile == nil:
		body = dim.Render("Sign in to take tests and track your progress.")
	default:
		p := h.profile
		acc := p.Accuracy()
		name := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(p.DisplayName)
		coins := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(fmt.Sprintf("◎ %d", p.Coins))
		accuracy := lipgloss.NewStyle().Foreground(theme.BandColor(acc)).Bold(true).Render(fmt.Sprintf("%d%%", acc))
		tests := dim.Render(fmt.Sprintf("%d tests", len(p.TestHistory)))
		body = fmt.Sprintf("%s   %s   %s   %s", name, coins, accuracy, tests)
		if !compact {
			body += "\n" + dim.Italic(true).Render(scoring.BandFor(acc).Message)
		}
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw).
		Align(lipgloss.Center).
		Render(body)
}

func renderMenu(m components.Menu, cw int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw).
		Padding(1, 2).
		Render(strings.TrimRight(m.View(), "\n"))
}

func renderError(msg string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Error).
		Width(cw).
		Align(lipgloss.Center).
		Render(msg)
}

// renderFrame centres content in the available area.
func renderFrame(content string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
