package signin

import (
	"context"
	"errors"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/prelims/internal/identity"
	"github.com/abhisek/prelims/internal/router"
	"github.com/abhisek/prelims/internal/screen"
	"github.com/abhisek/prelims/internal/ui/components"
	"github.com/abhisek/prelims/internal/ui/layout"
	"github.com/abhisek/prelims/internal/ui/theme"
)

// Authenticator signs a user in. identity.Local implements it.
type Authenticator interface {
	SignIn(ctx context.Context, email, displayName string) (identity.User, error)
}

type signedInMsg struct {
	User identity.User
	Err  error
}

const (
	fieldEmail = iota
	fieldName
)

// SignInScreen collects an email and display name.
type SignInScreen struct {
	auth   Authenticator
	inputs []components.TextInput
	focus  int
	busy   bool
	errMsg string
}

var _ screen.Screen = (*SignInScreen)(nil)
var _ screen.KeyHintProvider = (*SignInScreen)(nil)

// New creates the sign-in screen.
func New(auth Authenticator) *SignInScreen {
	return &SignInScreen{
		auth: auth,
		inputs: []components.TextInput{
			components.NewTextInput("Email", "you@example.com", 254),
			components.NewTextInput("Name", identity.DefaultDisplayName, 40),
		},
	}
}

func (s *SignInScreen) Init() tea.Cmd {
	return s.setFocus(s.focus)
}

func (s *SignInScreen) Title() string {
	return "Sign In"
}

func (s *SignInScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Sign in"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *SignInScreen) setFocus(i int) tea.Cmd {
	s.focus = i
	var cmd tea.Cmd
	for j := range s.inputs {
		if j == i {
			cmd = s.inputs[j].Focus()
		} else {
			s.inputs[j].Blur()
		}
	}
	return cmd
}

func (s *SignInScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case signedInMsg:
		s.busy = false
		if msg.Err != nil {
			s.errMsg = describe(msg.Err)
			s.inputs[fieldEmail].Mark(false)
			return s, s.setFocus(fieldEmail)
		}
		return s, func() tea.Msg { return router.PopScreenMsg{} }

	case tea.KeyPressMsg:
		if s.busy {
			return s, nil
		}
		switch msg.String() {
		case "tab", "down":
			return s, s.setFocus((s.focus + 1) % len(s.inputs))
		case "shift+tab", "up":
			return s, s.setFocus((s.focus + len(s.inputs) - 1) % len(s.inputs))
		case "enter":
			if s.focus == fieldEmail && strings.TrimSpace(s.inputs[fieldName].Value()) == "" {
				return s, s.setFocus(fieldName)
			}
			return s, s.submit()
		}
	}

	var cmd tea.Cmd
	s.inputs[s.focus], cmd = s.inputs[s.focus].Update(msg)
	return s, cmd
}

func (s *SignInScreen) submit() tea.Cmd {
	email := strings.TrimSpace(s.inputs[fieldEmail].Value())
	if email == "" {
		s.errMsg = "Enter your email address."
		s.inputs[fieldEmail].Mark(false)
		return s.setFocus(fieldEmail)
	}
	if s.auth == nil {
		s.errMsg = "Sign-in is not available in this mode."
		return nil
	}

	s.busy = true
	s.errMsg = ""
	name := strings.TrimSpace(s.inputs[fieldName].Value())
	auth := s.auth
	return func() tea.Msg {
		u, err := auth.SignIn(context.Background(), email, name)
		return signedInMsg{User: u, Err: err}
	}
}

func describe(err error) string {
	if errors.Is(err, identity.ErrInvalidCredentials) {
		return "That doesn't look like an email address."
	}
	return "Sign-in failed: " + err.Error()
}

func (s *SignInScreen) View(width, height int) string {
	cw := components.ContentWidth(width)

	var b strings.Builder
	b.WriteString(theme.Title.Width(cw - 6).Render("Sign in to track your progress"))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Width(cw - 6).Render("Your profile is kept on this device's profile store."))
	b.WriteString("\n\n")
	for _, in := range s.inputs {
		b.WriteString(in.View())
		b.WriteString("\n\n")
	}

	switch {
	case s.busy:
		b.WriteString(theme.Hint.Render("Signing in..."))
	case s.errMsg != "":
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Error).Render(s.errMsg))
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
		components.Card(b.String(), cw))
}
