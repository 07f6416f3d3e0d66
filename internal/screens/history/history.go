package history

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
	"github.com/abhisek/prelims/internal/ui/layout"
	"github.com/abhisek/prelims/internal/ui/theme"
)

type historyLoadedMsg struct {
	Records []scoring.TestRecord
	Err     error
}

// HistoryScreen lists past tests, newest first.
type HistoryScreen struct {
	profiles *profile.Service
	records  []scoring.TestRecord
	selected int
	offset   int
	expanded map[int]bool
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a new HistoryScreen.
func New(profiles *profile.Service) *HistoryScreen {
	return &HistoryScreen{
		profiles: profiles,
		expanded: make(map[int]bool),
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	profiles := s.profiles
	return func() tea.Msg {
		p, err := profiles.Load(context.Background())
		if err != nil {
			return historyLoadedMsg{Err: err}
		}
		records := make([]scoring.TestRecord, 0, len(p.TestHistory))
		for i := len(p.TestHistory) - 1; i >= 0; i-- {
			records = append(records, p.TestHistory[i])
		}
		return historyLoadedMsg{Records: records}
	}
}

func (s *HistoryScreen) Title() string {
	return "Test History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case historyLoadedMsg:
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
		} else {
			s.errMsg = ""
			s.records = msg.Records
		}
		s.loaded = true
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
			return s, nil
		case "down", "j":
			if s.selected < len(s.records)-1 {
				s.selected++
			}
			return s, nil
		case "enter":
			s.expanded[s.selected] = !s.expanded[s.selected]
			return s, nil
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if s.errMsg != "" {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.Error).
			Render(fmt.Sprintf("\n\nError: %s", s.errMsg))
	}
	if !s.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading history...")
	}
	if len(s.records) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No tests yet. Take your first one from the menu!")
	}

	// Each row takes one line, two when expanded.
	visible := max(height-2, 1)
	if s.selected < s.offset {
		s.offset = s.selected
	}
	for s.rowsBetween(s.offset, s.selected) > visible && s.offset < s.selected {
		s.offset++
	}

	var b strings.Builder
	b.WriteString("\n")

	used := 0
	for i := s.offset; i < len(s.records) && used < visible; i++ {
		rec := s.records[i]
		acc := rec.Accuracy()

		prefix := "  "
		if i == s.selected {
			prefix = "> "
		}
		line := fmt.Sprintf("%s%s   %3d pts   %2d questions   %3d%%",
			prefix, rec.Date.Local().Format("Jan 02, 2006"), rec.Score, rec.TotalQuestions, acc)

		style := lipgloss.NewStyle().Foreground(theme.Text)
		if i == s.selected {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
			style.Render(line)+"  "+lipgloss.NewStyle().Foreground(theme.BandColor(acc)).Render("■")))
		b.WriteString("\n")
		used++

		if s.expanded[i] {
			detail := "    " + rec.Date.Local().Format("15:04") + "  ·  " + strings.Join(rec.Subjects, ", ")
			b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center,
				lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render(detail)))
			b.WriteString("\n")
			used++
		}
	}

	return b.String()
}

func (s *HistoryScreen) rowsBetween(from, to int) int {
	n := 0
	for i := from; i <= to && i < len(s.records); i++ {
		n++
		if s.expanded[i] {
			n++
		}
	}
	return n
}
