package session

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/profile"
	"github.com/abhisek/prelims/internal/router"
	"github.com/abhisek/prelims/internal/screen"
	"github.com/abhisek/prelims/internal/screens/summary"
	sess "github.com/abhisek/prelims/internal/session"
	"github.com/abhisek/prelims/internal/ui/components"
	"github.com/abhisek/prelims/internal/ui/layout"
)

// letterKeys select an option directly.
const letterKeys = "abcdef"

// SessionScreen runs a timed test over a prepared selection.
type SessionScreen struct {
	selection *sess.Selection
	machine   *sess.Machine
	profiles  *profile.Service
	logger    *slog.Logger

	options    components.OptionList
	confirm    confirmKind
	submission *sess.Submission
	started    bool
	errMsg     string
}

var _ screen.Screen = (*SessionScreen)(nil)
var _ screen.KeyHintProvider = (*SessionScreen)(nil)
var _ screen.EscapeHandler = (*SessionScreen)(nil)
var _ router.Leaver = (*SessionScreen)(nil)

// New creates a SessionScreen for sel. The session starts when the screen
// is first shown.
func New(sel *sess.Selection, profiles *profile.Service, logger *slog.Logger) *SessionScreen {
	s := &SessionScreen{
		selection: sel,
		profiles:  profiles,
		logger:    logger,
	}
	s.machine = sess.NewMachine(func(sub sess.Submission) {
		s.submission = &sub
	})
	return s
}

func (s *SessionScreen) Init() tea.Cmd {
	if s.started {
		return nil
	}
	s.started = true
	if err := s.machine.Start(s.selection); err != nil {
		s.errMsg = err.Error()
		return nil
	}
	if s.logger != nil {
		s.logger.Info("session started",
			"session", s.machine.ID(),
			"questions", s.machine.Len(),
			"budget_seconds", s.machine.Remaining(),
		)
	}
	s.syncOptions()
	return tickCmd()
}

func (s *SessionScreen) Title() string {
	return "Test"
}

func (s *SessionScreen) HandlesEscape() bool {
	return true
}

// Leave abandons a session that is still running.
func (s *SessionScreen) Leave() {
	if s.machine.IsRunning() {
		s.machine.Abandon()
		if s.logger != nil {
			s.logger.Info("session abandoned", "session", s.machine.ID())
		}
	}
}

func (s *SessionScreen) KeyHints() []layout.KeyHint {
	switch s.confirm {
	case confirmSubmit:
		return []layout.KeyHint{{Key: "Y", Description: "Submit"}, {Key: "N", Description: "Keep going"}}
	case confirmLeave:
		return []layout.KeyHint{{Key: "Y", Description: "Leave"}, {Key: "N", Description: "Keep going"}}
	}
	return []layout.KeyHint{
		{Key: "A-D", Description: "Answer"},
		{Key: "←→", Description: "Question"},
		{Key: "Bksp", Description: "Clear"},
		{Key: "S", Description: "Submit"},
		{Key: "Esc", Description: "Leave"},
	}
}

func (s *SessionScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case timerTickMsg:
		return s.handleTick()
	case tea.KeyPressMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *SessionScreen) handleTick() (screen.Screen, tea.Cmd) {
	if !s.machine.IsRunning() {
		return s, nil
	}
	if s.machine.Tick() {
		if s.logger != nil {
			s.logger.Info("session timed out", "session", s.machine.ID())
		}
		return s, s.finish()
	}
	return s, tickCmd()
}

func (s *SessionScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.errMsg != "" {
		return s, func() tea.Msg { return router.PopScreenMsg{} }
	}
	if !s.machine.IsRunning() {
		return s, nil
	}

	switch s.confirm {
	case confirmSubmit:
		switch key {
		case "y", "Y":
			s.confirm = confirmNone
			if _, ok := s.machine.Submit(); ok {
				return s, s.finish()
			}
		case "n", "N", "esc":
			s.confirm = confirmNone
		}
		return s, nil
	case confirmLeave:
		switch key {
		case "y", "Y":
			s.confirm = confirmNone
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "n", "N", "esc":
			s.confirm = confirmNone
		}
		return s, nil
	}

	switch key {
	case "esc":
		s.confirm = confirmLeave
		return s, nil
	case "s", "S":
		s.confirm = confirmSubmit
		return s, nil
	case "right", "l", "n", "]":
		s.machine.Navigate(1)
		s.syncOptions()
		return s, nil
	case "left", "h", "p", "[":
		s.machine.Navigate(-1)
		s.syncOptions()
		return s, nil
	case "enter", "space":
		s.choose(s.options.Cursor)
		return s, nil
	case "backspace", "delete", "x":
		_ = s.machine.ClearAnswer(s.machine.CurrentIndex())
		s.syncOptions()
		return s, nil
	}

	if i := optionKey(key, s.optionLimit()); i >= 0 {
		s.options.Cursor = i
		s.choose(i)
		return s, nil
	}

	s.options, _ = s.options.Update(msg)
	return s, nil
}

// optionKey maps a letter or digit key to an option index below limit, or
// -1.
func optionKey(key string, limit int) int {
	if len(key) != 1 {
		return -1
	}
	i := -1
	if n, err := strconv.Atoi(key); err == nil {
		i = n - 1
	} else if strings.Contains(letterKeys, key) {
		i, _ = corpus.OptionIndex(key)
	}
	if i < 0 || i >= limit {
		return -1
	}
	return i
}

// optionLimit is how many options the current question offers to the
// keyboard. Questions without listed options still accept A to D.
func (s *SessionScreen) optionLimit() int {
	q, ok := s.machine.Current()
	if !ok {
		return 0
	}
	if len(q.Options) == 0 {
		return 4
	}
	return min(len(q.Options), 9)
}

func (s *SessionScreen) choose(option int) {
	idx := s.machine.CurrentIndex()
	if err := s.machine.SelectOption(idx, option); err != nil {
		return
	}
	s.options.Chosen = option
}

func (s *SessionScreen) syncOptions() {
	q, ok := s.machine.Current()
	if !ok {
		return
	}
	chosen := -1
	if a, ok := s.machine.Answer(s.machine.CurrentIndex()); ok {
		chosen = a
	}
	s.options = components.NewOptionList(q.Options, chosen)
}

// finish hands the frozen submission to the summary screen.
func (s *SessionScreen) finish() tea.Cmd {
	if s.submission == nil {
		return nil
	}
	next := summary.New(*s.submission, s.profiles, s.logger)
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

// tickCmd returns a 1-second tick command.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return timerTickMsg(t)
	})
}
