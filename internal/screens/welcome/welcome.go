package welcome

import (
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prelims/internal/router"
	"github.com/abhisek/prelims/internal/screen"
	"github.com/abhisek/prelims/internal/ui/theme"
)

const (
	tickInterval = 100 * time.Millisecond
	taglineAt    = 500 * time.Millisecond
	readyAt      = 1200 * time.Millisecond
)

type tickMsg time.Time

// WelcomeScreen shows the banner and subject strip, then hands over to the
// next screen on any key.
type WelcomeScreen struct {
	next         func() screen.Screen
	subjects     []string
	elapsed      time.Duration
	transitioned bool
}

var _ screen.Screen = (*WelcomeScreen)(nil)

// New creates a WelcomeScreen that replaces itself with next() once a key
// is pressed after the intro has played.
func New(subjects []string, next func() screen.Screen) *WelcomeScreen {
	return &WelcomeScreen{next: next, subjects: subjects}
}

func (w *WelcomeScreen) Title() string {
	return ""
}

func (w *WelcomeScreen) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (w *WelcomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg.(type) {
	case tickMsg:
		if w.elapsed >= readyAt {
			return w, nil
		}
		w.elapsed += tickInterval
		return w, tick()

	case tea.KeyPressMsg:
		if w.elapsed >= readyAt {
			return w, w.transition()
		}
		return w, nil
	}
	return w, nil
}

func (w *WelcomeScreen) transition() tea.Cmd {
	if w.transitioned {
		return nil
	}
	w.transitioned = true
	next := w.next()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

func (w *WelcomeScreen) View(width, height int) string {
	sections := []string{RenderBanner(width)}

	if w.elapsed >= taglineAt {
		sections = append(sections, "",
			lipgloss.NewStyle().Foreground(theme.Text).Bold(true).
				Render("Previous-year questions, against the clock."),
			"", w.subjectStrip(width))
	}

	if w.elapsed >= readyAt {
		sections = append(sections, "", theme.Hint.Render("press any key to continue"))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		strings.Join(sections, "\n"))
}

// subjectStrip lists the loaded subjects, each in its own colour.
func (w *WelcomeScreen) subjectStrip(width int) string {
	var parts []string
	used := 0
	for _, s := range w.subjects {
		if used+len(s)+3 > width-4 {
			parts = append(parts, lipgloss.NewStyle().Foreground(theme.TextDim).Render("…"))
			break
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.SubjectColor(s)).Render(s))
		used += len(s) + 3
	}
	return strings.Join(parts, lipgloss.NewStyle().Foreground(theme.Border).Render(" · "))
}
