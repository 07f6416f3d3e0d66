package setup

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/profile"
	"github.com/abhisek/prelims/internal/router"
	"github.com/abhisek/prelims/internal/screen"
	sessionscreen "github.com/abhisek/prelims/internal/screens/session"
	"github.com/abhisek/prelims/internal/session"
	"github.com/abhisek/prelims/internal/ui/components"
	"github.com/abhisek/prelims/internal/ui/layout"
	"github.com/abhisek/prelims/internal/ui/theme"
)

const (
	panelSubjects = iota
	panelTopics
	panelYears
	panelCount
)

var panelTitles = [panelCount]string{"Subjects", "Topics", "Years"}

// SetupScreen lets the user pick subjects, topics and years for a test.
type SetupScreen struct {
	corpus   *corpus.Corpus
	profiles *profile.Service
	seconds  int
	logger   *slog.Logger

	panels [panelCount]components.Checklist
	focus  int

	matched int
	budget  int
	errMsg  string
}

var _ screen.Screen = (*SetupScreen)(nil)
var _ screen.KeyHintProvider = (*SetupScreen)(nil)

// New creates the setup screen. secondsPerQuestion <= 0 means the default
// allowance.
func New(c *corpus.Corpus, profiles *profile.Service, secondsPerQuestion int, logger *slog.Logger) *SetupScreen {
	s := &SetupScreen{
		corpus:   c,
		profiles: profiles,
		seconds:  secondsPerQuestion,
		logger:   logger,
	}

	var items []components.ChecklistItem
	for _, name := range c.Subjects() {
		items = append(items, components.ChecklistItem{
			Label:  name,
			Detail: fmt.Sprintf("(%d)", c.Count(name)),
			Color:  theme.SubjectColor(name),
		})
	}
	s.panels[panelSubjects] = components.NewChecklist(items)
	s.refresh()
	return s
}

func (s *SetupScreen) Init() tea.Cmd {
	return nil
}

func (s *SetupScreen) Title() string {
	return "New Test"
}

func (s *SetupScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Panel"},
		{Key: "Space", Description: "Toggle"},
		{Key: "A", Description: "All"},
		{Key: "Enter", Description: "Start"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SetupScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, nil
	}

	switch kmsg.String() {
	case "tab", "right", "l":
		s.focus = (s.focus + 1) % panelCount
		return s, nil
	case "shift+tab", "left", "h":
		s.focus = (s.focus + panelCount - 1) % panelCount
		return s, nil
	case "enter":
		return s, s.start()
	}

	before := len(s.panels[s.focus].Selected())
	var cmd tea.Cmd
	s.panels[s.focus], cmd = s.panels[s.focus].Update(msg)
	if len(s.panels[s.focus].Selected()) != before || kmsg.String() == "a" {
		s.errMsg = ""
		if s.focus == panelSubjects {
			s.refresh()
		} else {
			s.preview()
		}
	}
	return s, cmd
}

// refresh rebuilds the topic and year panels for the selected subjects,
// keeping whatever was already checked.
func (s *SetupScreen) refresh() {
	subjects := s.panels[panelSubjects].SelectedLabels()

	var topics []components.ChecklistItem
	for _, t := range s.corpus.Topics(subjects) {
		topics = append(topics, components.ChecklistItem{Label: t})
	}
	var years []components.ChecklistItem
	for _, y := range s.corpus.Years(subjects) {
		years = append(years, components.ChecklistItem{Label: strconv.Itoa(y)})
	}

	s.panels[panelTopics] = carryOver(s.panels[panelTopics], topics)
	s.panels[panelYears] = carryOver(s.panels[panelYears], years)
	s.preview()
}

func carryOver(old components.Checklist, items []components.ChecklistItem) components.Checklist {
	checked := make(map[string]bool)
	for _, l := range old.SelectedLabels() {
		checked[l] = true
	}
	cursorLabel := ""
	if old.Cursor < len(old.Items) {
		cursorLabel = old.Items[old.Cursor].Label
	}

	next := components.NewChecklist(items)
	for i, it := range items {
		if checked[it.Label] {
			next.Checked[i] = true
		}
		if it.Label == cursorLabel {
			next.Cursor = i
		}
	}
	return next
}

// Config returns the session configuration for the current selection.
func (s *SetupScreen) Config() session.Config {
	var years []int
	for _, l := range s.panels[panelYears].SelectedLabels() {
		if y, err := strconv.Atoi(l); err == nil {
			years = append(years, y)
		}
	}
	return session.Config{
		Subjects:           s.panels[panelSubjects].SelectedLabels(),
		Topics:             s.panels[panelTopics].SelectedLabels(),
		Years:              years,
		SecondsPerQuestion: s.seconds,
	}
}

func (s *SetupScreen) preview() {
	sel, err := session.Build(s.corpus.Questions(), s.Config())
	if err != nil {
		s.matched, s.budget = 0, 0
		return
	}
	s.matched = len(sel.Questions)
	s.budget = sel.BudgetSeconds()
}

func (s *SetupScreen) start() tea.Cmd {
	cfg := s.Config()
	sel, err := session.Build(s.corpus.Questions(), cfg)
	if err != nil {
		s.errMsg = startError(err)
		return nil
	}
	if s.logger != nil {
		s.logger.Info("session configured",
			"subjects", cfg.Subjects,
			"topics", len(cfg.Topics),
			"years", cfg.Years,
			"questions", len(sel.Questions),
		)
	}
	next := sessionscreen.New(sel, s.profiles, s.logger)
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

func startError(err error) string {
	switch {
	case errors.Is(err, session.ErrNoSubjects):
		return "Pick at least one subject."
	case errors.Is(err, session.ErrNoQuestions):
		return "No questions match these filters. Try fewer topics or years."
	}
	return err.Error()
}

func (s *SetupScreen) View(width, height int) string {
	colWidth := (width - 8) / panelCount
	listHeight := height - 8
	if listHeight < 3 {
		listHeight = 3
	}

	cols := make([]string, panelCount)
	for i := range s.panels {
		title := panelTitles[i]
		if n := len(s.panels[i].Selected()); n > 0 {
			title = fmt.Sprintf("%s · %d", title, n)
		} else if i != panelSubjects {
			title += " · any"
		}

		titleStyle := lipgloss.NewStyle().Foreground(theme.TextDim).Bold(true)
		border := theme.Border
		if i == s.focus {
			titleStyle = titleStyle.Foreground(theme.Primary)
			border = theme.Primary
		}

		body := titleStyle.Render(title) + "\n\n" + s.panels[i].View(listHeight, i == s.focus)
		cols[i] = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Width(colWidth).
			Height(listHeight+2).
			Padding(0, 1).
			Render(body)
	}

	var status string
	switch {
	case s.errMsg != "":
		status = lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg)
	case s.matched > 0:
		status = lipgloss.NewStyle().Foreground(theme.Text).Render(
			fmt.Sprintf("%d questions · %s on the clock", s.matched, layout.Clock(s.budget)))
	default:
		status = theme.Hint.Render("Choose subjects to see matching questions.")
	}

	return strings.Join([]string{
		lipgloss.JoinHorizontal(lipgloss.Top, cols...),
		"",
		lipgloss.PlaceHorizontal(width, lipgloss.Center, status),
	}, "\n")
}
