package home

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/identity"
	"github.com/abhisek/prelims/internal/profile"
	"github.com/abhisek/prelims/internal/router"
	"github.com/abhisek/prelims/internal/screen"
	"github.com/abhisek/prelims/internal/screens/history"
	"github.com/abhisek/prelims/internal/screens/setup"
	"github.com/abhisek/prelims/internal/screens/signin"
	"github.com/abhisek/prelims/internal/screens/stats"
	"github.com/abhisek/prelims/internal/ui/components"
	"github.com/abhisek/prelims/internal/ui/layout"
)

// Deps are the services the home screen hands to the screens it opens.
type Deps struct {
	Corpus             *corpus.Corpus
	Profiles           *profile.Service
	Identity           identity.Provider
	Auth               signin.Authenticator
	SecondsPerQuestion int
	Logger             *slog.Logger
}

type profileLoadedMsg struct {
	profile *profile.UserProfile
	err     error
}

type signedOutMsg struct {
	err error
}

const (
	itemStart = iota
	itemStats
	itemHistory
	itemAccount
	itemExit
)

// HomeScreen is the main menu.
type HomeScreen struct {
	deps    Deps
	menu    components.Menu
	profile *profile.UserProfile
	errMsg  string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}
	h.buildMenu()
	return h
}

// Init reloads the profile. It runs again whenever a screen above is
// popped, so the dashboard reflects the latest test.
func (h *HomeScreen) Init() tea.Cmd {
	h.buildMenu()
	if h.deps.Profiles == nil || !h.signedIn() {
		h.profile = nil
		return nil
	}
	profiles := h.deps.Profiles
	return func() tea.Msg {
		p, err := profiles.Load(context.Background())
		return profileLoadedMsg{profile: p, err: err}
	}
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		h.errMsg = ""
		h.profile = msg.profile
		if msg.err != nil && !errors.Is(msg.err, profile.ErrAuthRequired) {
			h.errMsg = msg.err.Error()
		}
		h.buildMenu()
		return h, nil
	case signedOutMsg:
		h.profile = nil
		h.errMsg = ""
		if msg.err != nil {
			h.errMsg = msg.err.Error()
		}
		h.buildMenu()
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) signedIn() bool {
	if h.deps.Identity == nil {
		return false
	}
	_, ok := h.deps.Identity.CurrentUser()
	return ok
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

// buildMenu rebuilds the menu for the current sign-in state, keeping the
// selection where it was.
func (h *HomeScreen) buildMenu() {
	signedIn := h.signedIn()
	d := h.deps

	account := components.MenuItem{Label: "SIGN IN", Action: func() tea.Cmd {
		return push(signin.New(d.Auth))
	}}
	if signedIn {
		account = components.MenuItem{Label: "SIGN OUT", Action: func() tea.Cmd {
			ident := d.Identity
			return func() tea.Msg {
				return signedOutMsg{err: ident.SignOut(context.Background())}
			}
		}}
	}

	items := make([]components.MenuItem, itemExit+1)
	items[itemStart] = components.MenuItem{
		Label:    "START TEST",
		Disabled: !signedIn || d.Corpus == nil,
		Action: func() tea.Cmd {
			return push(setup.New(d.Corpus, d.Profiles, d.SecondsPerQuestion, d.Logger))
		},
	}
	items[itemStats] = components.MenuItem{
		Label:    "PERFORMANCE",
		Disabled: !signedIn,
		Action: func() tea.Cmd {
			return push(stats.New(d.Profiles))
		},
	}
	items[itemHistory] = components.MenuItem{
		Label:    "TEST HISTORY",
		Disabled: !signedIn,
		Action: func() tea.Cmd {
			return push(history.New(d.Profiles))
		},
	}
	items[itemAccount] = account
	items[itemExit] = components.MenuItem{Label: "EXIT", Action: func() tea.Cmd {
		return tea.Quit
	}}

	selected := h.menu.Selected
	h.menu = components.NewMenu(items)
	if selected < len(items) && !items[selected].Disabled {
		h.menu.Selected = selected
	}
}

func (h *HomeScreen) View(width, height int) string {
	compact := height < 22 || width < 90
	cw := min(components.ContentWidth(width), 60)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))
	sections = append(sections, h.renderStatus(cw, compact))
	sections = append(sections, renderMenu(h.menu, cw))
	if h.errMsg != "" {
		sections = append(sections, renderError(h.errMsg, cw))
	}

	content := strings.Join(sections, "\n\n")
	return renderFrame(content, width, height)
}
