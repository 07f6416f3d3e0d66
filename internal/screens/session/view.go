package session

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/ui/components"
	"github.com/abhisek/prelims/internal/ui/layout"
	"github.com/abhisek/prelims/internal/ui/theme"
)

// lowTime is when the clock turns red.
const lowTime = 60

func (s *SessionScreen) View(width, height int) string {
	if s.errMsg != "" {
		msg := lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)
		hint := theme.Hint.Render("press any key to go back")
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center, msg, "", hint))
	}

	q, ok := s.machine.Current()
	if !ok {
		return ""
	}
	cw := components.ContentWidth(width)
	inner := cw - 8

	var b strings.Builder
	b.WriteString(s.renderStatus(inner))
	b.WriteString("\n\n")

	meta := lipgloss.NewStyle().Foreground(theme.SubjectColor(q.Subject)).Bold(true).Render(q.Subject) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  ›  %s  ·  %d", q.Topic, q.Year))
	b.WriteString(meta)
	b.WriteString("\n\n")

	if q.HasPassage() {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.TextDim).
			Width(inner).
			BorderLeft(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(theme.Border).
			PaddingLeft(1).
			Render(q.Passage))
		b.WriteString("\n\n")
	}

	b.WriteString(theme.Body.Bold(true).Width(inner).Render(q.Prompt))
	b.WriteString("\n\n")

	if len(q.Options) > 0 {
		b.WriteString(s.options.View(inner))
	} else {
		b.WriteString(theme.Hint.Render("Options are printed with the question. Answer with A to D."))
		b.WriteString("\n")
		if a, ok := s.machine.Answer(s.machine.CurrentIndex()); ok {
			letter, _ := corpus.OptionLetter(a)
			b.WriteString(theme.Selected.Render("Your answer: " + letter))
			b.WriteString("\n")
		}
	}
	if q.HasImage {
		b.WriteString(theme.Hint.Render("This question refers to a figure that cannot be shown here."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(s.renderStrip(inner))

	if s.confirm != confirmNone {
		b.WriteString("\n\n")
		b.WriteString(s.renderConfirm())
	}

	card := components.AccentCard(b.String(), cw, theme.SubjectColor(q.Subject))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, card)
}

func (s *SessionScreen) renderStatus(width int) string {
	left := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).
		Render(fmt.Sprintf("Question %d of %d", s.machine.CurrentIndex()+1, s.machine.Len()))

	remaining := s.machine.Remaining()
	clockColor := theme.Accent
	if remaining <= lowTime {
		clockColor = theme.Error
	}
	right := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("answered %d/%d   ", s.machine.Attempted(), s.machine.Len())) +
		lipgloss.NewStyle().Foreground(clockColor).Bold(true).Render("⏱ "+layout.Clock(remaining))

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderStrip draws one marker per question: answered, unanswered, current.
func (s *SessionScreen) renderStrip(width int) string {
	n := s.machine.Len()
	cur := s.machine.CurrentIndex()

	// Keep the current question visible when the strip overflows.
	perRow := max(width/2, 1)
	start := 0
	if n > perRow {
		start = min(max(cur-perRow/2, 0), n-perRow)
	}
	end := min(start+perRow, n)

	var b strings.Builder
	for i := start; i < end; i++ {
		_, answered := s.machine.Answer(i)
		switch {
		case i == cur:
			b.WriteString(theme.Selected.Render("◉"))
		case answered:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render("●"))
		default:
			b.WriteString(lipgloss.NewStyle().Foreground(theme.Border).Render("○"))
		}
		b.WriteString(" ")
	}
	return b.String()
}

func (s *SessionScreen) renderConfirm() string {
	var text string
	switch s.confirm {
	case confirmSubmit:
		unanswered := s.machine.Len() - s.machine.Attempted()
		text = "Submit the test?"
		if unanswered > 0 {
			text += " " + strconv.Itoa(unanswered) + " unanswered."
		}
	case confirmLeave:
		text = "Leave the test? Your answers will not be saved."
	}
	return lipgloss.NewStyle().
		Foreground(theme.Warning).
		Bold(true).
		Render(text + "  (y/n)")
}
