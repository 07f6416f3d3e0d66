// Package stats shows a profile's cumulative performance by subject and
// topic.
package stats

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prelims/internal/profile"
	"github.com/abhisek/prelims/internal/router"
	"github.com/abhisek/prelims/internal/scoring"
	"github.com/abhisek/prelims/internal/screen"
	"github.com/abhisek/prelims/internal/ui/components"
	"github.com/abhisek/prelims/internal/ui/layout"
	"github.com/abhisek/prelims/internal/ui/theme"
)

type rowKind int

const (
	rowSubject rowKind = iota
	rowTopic
)

type row struct {
	kind    rowKind
	subject string
	topic   string
	stat    scoring.TopicStat
}

type loadedMsg struct {
	profile *profile.UserProfile
	err     error
}

// StatsScreen lists every subject the user has attempted with its topics
// underneath.
type StatsScreen struct {
	profiles *profile.Service
	profile  *profile.UserProfile

	rows         []row
	cursor       int
	scrollOffset int
	loaded       bool
	errMsg       string
}

var _ screen.Screen = (*StatsScreen)(nil)
var _ screen.KeyHintProvider = (*StatsScreen)(nil)

// New creates a new StatsScreen.
func New(profiles *profile.Service) *StatsScreen {
	return &StatsScreen{profiles: profiles}
}

func (s *StatsScreen) Init() tea.Cmd {
	profiles := s.profiles
	return func() tea.Msg {
		p, err := profiles.Load(context.Background())
		return loadedMsg{profile: p, err: err}
	}
}

func (s *StatsScreen) Title() string {
	return "Performance"
}

func (s *StatsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Tab", Description: "Subject"},
		{Key: "Enter", Description: "Details"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *StatsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		s.loaded = true
		if msg.err != nil {
			s.errMsg = msg.err.Error()
			return s, nil
		}
		s.errMsg = ""
		s.setProfile(msg.profile)
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			s.moveCursor(-1)
		case "down", "j":
			s.moveCursor(1)
		case "tab":
			s.jumpSubject(1)
		case "shift+tab":
			s.jumpSubject(-1)
		case "enter":
			return s, s.selectSubject()
		case "q":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		}
	}
	return s, nil
}

func (s *StatsScreen) setProfile(p *profile.UserProfile) {
	s.profile = p
	s.rows = s.rows[:0]
	for _, name := range p.Stats.SubjectNames() {
		subj := p.Stats[name]
		s.rows = append(s.rows, row{
			kind:    rowSubject,
			subject: name,
			stat:    scoring.TopicStat{Attempts: subj.Attempts, Correct: subj.Correct, Accuracy: subj.Accuracy},
		})
		for _, topic := range subj.TopicNames() {
			s.rows = append(s.rows, row{kind: rowTopic, subject: name, topic: topic, stat: subj.Topics[topic]})
		}
	}
	if s.cursor >= len(s.rows) {
		s.cursor = 0
	}
}

func (s *StatsScreen) moveCursor(delta int) {
	next := s.cursor + delta
	if next >= 0 && next < len(s.rows) {
		s.cursor = next
	}
}

// jumpSubject moves the cursor to the next or previous subject row.
func (s *StatsScreen) jumpSubject(dir int) {
	for i := s.cursor + dir; i >= 0 && i < len(s.rows); i += dir {
		if s.rows[i].kind == rowSubject {
			s.cursor = i
			return
		}
	}
}

func (s *StatsScreen) selectSubject() tea.Cmd {
	if s.cursor >= len(s.rows) || s.profile == nil {
		return nil
	}
	name := s.rows[s.cursor].subject
	detail := newSubjectDetail(name, s.profile.Stats[name])
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: detail}
	}
}

func (s *StatsScreen) View(width, height int) string {
	dim := lipgloss.NewStyle().Width(width).Align(lipgloss.Center).Foreground(theme.TextDim)
	switch {
	case s.errMsg != "":
		return dim.Foreground(theme.Error).Render("\n\nError: " + s.errMsg)
	case !s.loaded:
		return dim.Render("\n\nLoading performance...")
	case len(s.rows) == 0:
		return dim.Italic(true).Render("\n\nNo tests yet. Your accuracy by subject will show up here.")
	}

	header := s.renderOverview(width)
	listHeight := max(height-lipgloss.Height(header)-1, 1)
	s.adjustScroll(listHeight)

	var lines []string
	for i := s.scrollOffset; i < len(s.rows) && len(lines) < listHeight; i++ {
		lines = append(lines, s.renderRow(s.rows[i], i == s.cursor, width))
	}
	return header + "\n" + strings.Join(lines, "\n")
}

func (s *StatsScreen) renderOverview(width int) string {
	acc := s.profile.Accuracy()
	band := scoring.BandFor(acc)
	line := lipgloss.NewStyle().Foreground(theme.BandColor(acc)).Bold(true).
		Render(fmt.Sprintf("Overall %d%%", acc)) +
		lipgloss.NewStyle().Foreground(theme.TextDim).
			Render(fmt.Sprintf("   %d tests   %d questions   ", len(s.profile.TestHistory), s.profile.Attempts())) +
		lipgloss.NewStyle().Foreground(theme.Text).Render(band.Message)
	return "\n" + lipgloss.PlaceHorizontal(width, lipgloss.Center, line) + "\n"
}

// adjustScroll keeps the cursor inside the visible window.
func (s *StatsScreen) adjustScroll(height int) {
	headerRow := s.cursor
	for headerRow > 0 && s.rows[headerRow].kind != rowSubject {
		headerRow--
	}
	if s.cursor-headerRow >= height {
		headerRow = s.cursor
	}
	if headerRow < s.scrollOffset {
		s.scrollOffset = headerRow
	}
	if s.cursor >= s.scrollOffset+height {
		s.scrollOffset = s.cursor - height + 1
	}
}

func (s *StatsScreen) renderRow(r row, selected bool, width int) string {
	cursor := "  "
	if selected {
		cursor = "▸ "
	}
	barWidth := min(max(width-50, 10), 40)

	var name string
	var nameStyle lipgloss.Style
	if r.kind == rowSubject {
		name = r.subject
		nameStyle = lipgloss.NewStyle().Foreground(theme.SubjectColor(r.subject)).Bold(true)
	} else {
		name = "  " + r.topic
		nameStyle = lipgloss.NewStyle().Foreground(theme.Text)
	}
	if selected {
		nameStyle = nameStyle.Foreground(theme.Primary)
	}
	if len(name) > 24 {
		name = name[:23] + "…"
	}

	bar := components.ProgressBar{Percent: float64(r.stat.Accuracy) / 100, ShowPercent: true, Width: barWidth}
	if r.kind == rowSubject {
		bar.Fill = theme.SubjectColor(r.subject)
	} else {
		bar.Fill = theme.BandColor(r.stat.Accuracy)
	}
	counts := lipgloss.NewStyle().Foreground(theme.TextDim).
		Render(fmt.Sprintf("%4d/%-4d", r.stat.Correct, r.stat.Attempts))

	return fmt.Sprintf("  %s%s  %s  %s", cursor, nameStyle.Render(fmt.Sprintf("%-24s", name)), counts, bar.View())
}
