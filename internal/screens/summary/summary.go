// Package summary shows the result of a finished test and saves it to the
// player's profile.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/profile"
	"github.com/abhisek/prelims/internal/router"
	"github.com/abhisek/prelims/internal/scoring"
	"github.com/abhisek/prelims/internal/screen"
	"github.com/abhisek/prelims/internal/session"
	"github.com/abhisek/prelims/internal/ui/components"
	"github.com/abhisek/prelims/internal/ui/layout"
	"github.com/abhisek/prelims/internal/ui/theme"
)

type recordedMsg struct {
	outcome *profile.Outcome
	err     error
}

type retriedMsg struct {
	err error
}

// SummaryScreen grades a submission through the profile service and shows
// the result. It can step through the questions with answers revealed.
type SummaryScreen struct {
	sub      session.Submission
	profiles *profile.Service
	logger   *slog.Logger

	outcome *profile.Outcome
	saving  bool
	saveErr error
	started bool

	reviewing bool
	review    int
}

var _ screen.Screen = (*SummaryScreen)(nil)
var _ screen.KeyHintProvider = (*SummaryScreen)(nil)
var _ screen.EscapeHandler = (*SummaryScreen)(nil)

// New creates a summary screen for a finished session.
func New(sub session.Submission, profiles *profile.Service, logger *slog.Logger) *SummaryScreen {
	return &SummaryScreen{sub: sub, profiles: profiles, logger: logger}
}

func (s *SummaryScreen) Init() tea.Cmd {
	if s.started {
		return nil
	}
	s.started = true
	if s.profiles == nil {
		s.saveErr = profile.ErrAuthRequired
		return nil
	}
	s.saving = true
	profiles, sub := s.profiles, s.sub
	return func() tea.Msg {
		out, err := profiles.RecordSession(context.Background(), sub)
		return recordedMsg{outcome: out, err: err}
	}
}

func (s *SummaryScreen) Title() string {
	return "Results"
}

// HandlesEscape is true while reviewing so Esc closes the review.
func (s *SummaryScreen) HandlesEscape() bool {
	return s.reviewing
}

func (s *SummaryScreen) KeyHints() []layout.KeyHint {
	if s.reviewing {
		return []layout.KeyHint{
			{Key: "←→", Description: "Question"},
			{Key: "Esc", Description: "Back to results"},
		}
	}
	hints := []layout.KeyHint{{Key: "Enter", Description: "Continue"}}
	if s.outcome != nil {
		hints = append(hints, layout.KeyHint{Key: "V", Description: "Review answers"})
	}
	if s.canRetry() {
		hints = append(hints, layout.KeyHint{Key: "R", Description: "Retry save"})
	}
	return hints
}

func (s *SummaryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case recordedMsg:
		s.saving = false
		s.outcome = msg.outcome
		s.saveErr = msg.err
		if msg.err != nil && s.logger != nil {
			s.logger.Warn("session not saved", "session", s.sub.SessionID, "error", msg.err)
		}
		return s, nil

	case retriedMsg:
		s.saving = false
		s.saveErr = msg.err
		if msg.err == nil && s.outcome != nil {
			s.outcome.Committed = true
		}
		return s, nil

	case tea.KeyPressMsg:
		if s.reviewing {
			return s.updateReview(msg)
		}
		switch msg.String() {
		case "enter", "esc", "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "v", "V":
			if s.outcome != nil && len(s.outcome.Questions) > 0 {
				s.reviewing = true
				s.review = 0
			}
		case "r", "R":
			if s.canRetry() {
				s.saving = true
				profiles := s.profiles
				return s, func() tea.Msg {
					return retriedMsg{err: profiles.Retry(context.Background())}
				}
			}
		}
	}
	return s, nil
}

func (s *SummaryScreen) updateReview(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc", "v", "V", "q":
		s.reviewing = false
	case "right", "l", "n":
		if s.review < len(s.outcome.Questions)-1 {
			s.review++
		}
	case "left", "h", "p":
		if s.review > 0 {
			s.review--
		}
	}
	return s, nil
}

// canRetry reports whether a failed save can be tried again.
func (s *SummaryScreen) canRetry() bool {
	if s.saving || s.saveErr == nil || s.outcome == nil {
		return false
	}
	var ce *profile.CommitError
	return errors.As(s.saveErr, &ce) && ce.Retryable
}

func (s *SummaryScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var body string
	switch {
	case s.outcome == nil && s.saving:
		body = theme.Hint.Render("Grading...")
	case s.outcome == nil:
		body = s.renderUnsaved(cw - 8)
	case s.reviewing:
		body = s.renderReview(cw - 8)
	default:
		body = s.renderResult(cw - 8)
	}

	card := components.Card(body, cw)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

func (s *SummaryScreen) renderUnsaved(width int) string {
	msg := "Could not grade this test."
	if errors.Is(s.saveErr, profile.ErrAuthRequired) {
		msg = "Sign in to have your tests graded and saved."
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.NewStyle().Foreground(theme.Error).Width(width).Align(lipgloss.Center).Render(msg),
		"",
		theme.Hint.Render("press enter to continue"),
	)
}

func (s *SummaryScreen) renderResult(width int) string {
	sum := s.outcome.Summary
	var b strings.Builder

	heading := "Test complete"
	if s.sub.Reason == session.ReasonTimeout {
		heading = "Time's up!"
	}
	b.WriteString(layout.Centered(width, theme.Title, heading))
	b.WriteString("\n\n")

	score := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).Render(fmt.Sprintf("%d", sum.Score)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(" points")
	b.WriteString(layout.Centered(width, lipgloss.NewStyle(), score))
	b.WriteString("\n")

	detail := fmt.Sprintf("%d of %d correct", sum.Correct, sum.Total)
	if sum.Unanswered > 0 {
		detail += fmt.Sprintf("  ·  %d unanswered", sum.Unanswered)
	}
	b.WriteString(layout.Centered(width, theme.Subtitle, detail))
	b.WriteString("\n\n")

	for _, sb := range sum.Subjects {
		bar := components.NewProgressBar(fmt.Sprintf("%-15s", sb.Name), fraction(sb.Correct, sb.Attempted), true, width)
		bar.Fill = theme.SubjectColor(sb.Name)
		b.WriteString(bar.View())
		b.WriteString("\n")
		topics := make([]string, 0, len(sb.Topics))
		for _, t := range sb.Topics {
			topics = append(topics, fmt.Sprintf("%s %d/%d", t.Name, t.Correct, t.Attempted))
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Width(width).
			Render("  " + strings.Join(topics, "  ·  ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(s.renderSaveStatus(width))
	return b.String()
}

func (s *SummaryScreen) renderSaveStatus(width int) string {
	switch {
	case s.saving:
		return theme.Hint.Render("Saving...")
	case s.saveErr != nil:
		msg := lipgloss.NewStyle().Foreground(theme.Error).Bold(true).Render("Not saved.") + "\n" +
			lipgloss.NewStyle().Foreground(theme.TextDim).Width(width).Render(s.saveErr.Error())
		if s.canRetry() {
			msg += "\n" + theme.Hint.Render("press r to retry")
		}
		return msg
	}

	coins := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true).
		Render(fmt.Sprintf("+%d ◎", s.outcome.CoinsEarned))
	line := coins + lipgloss.NewStyle().Foreground(theme.TextDim).Render("  saved to your profile")
	if p := s.profiles.Profile(); p != nil {
		band := scoring.BandFor(p.Accuracy())
		line += "\n\n" + lipgloss.NewStyle().Foreground(theme.BandColor(p.Accuracy())).Width(width).
			Render(fmt.Sprintf("Overall accuracy %d%%. %s", p.Accuracy(), band.Message))
	}
	return line
}

func (s *SummaryScreen) renderReview(width int) string {
	out := s.outcome
	q := out.Questions[s.review]

	var b strings.Builder
	verdict := theme.Incorrect.Render("✗ incorrect")
	chosen, answered := out.Answers[s.review]
	switch {
	case !answered:
		verdict = lipgloss.NewStyle().Foreground(theme.TextDim).Render("– not answered")
	case s.review < len(out.Result.PerQuestion) && out.Result.PerQuestion[s.review]:
		verdict = theme.Correct.Render("✓ correct")
	}
	header := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).
		Render(fmt.Sprintf("Question %d of %d", s.review+1, len(out.Questions)))
	b.WriteString(header + "   " + verdict)
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.SubjectColor(q.Subject)).
		Render(fmt.Sprintf("%s › %s · %d", q.Subject, q.Topic, q.Year)))
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Bold(true).Width(width).Render(q.Prompt))
	b.WriteString("\n\n")

	if !answered {
		chosen = -1
	}
	if len(q.Options) > 0 {
		ol := components.NewOptionList(q.Options, chosen)
		ol.Reveal, _ = q.CorrectIndex()
		b.WriteString(ol.View(width))
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Success).
			Render("Answer: " + q.CorrectOption))
		if answered {
			letter, _ := corpus.OptionLetter(chosen)
			b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render("   yours: " + letter))
		}
		b.WriteString("\n")
	}
	if q.Hint != "" {
		b.WriteString("\n")
		b.WriteString(theme.Hint.Width(width).Render(q.Hint))
	}
	return b.String()
}

func fraction(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
