package home

import (
	"context"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/docstore"
	"github.com/abhisek/prelims/internal/identity"
	"github.com/abhisek/prelims/internal/profile"
	"github.com/abhisek/prelims/internal/router"
	"github.com/abhisek/prelims/internal/screens/setup"
	"github.com/abhisek/prelims/internal/screens/signin"
)

func testDeps(t *testing.T, u identity.User) (Deps, *identity.Static) {
	t.Helper()
	ident := identity.NewStatic(u)
	svc := profile.NewService(
		profile.NewAdapter(docstore.NewMemory(), profile.DefaultSignupBonus),
		ident,
		profile.Config{CoinsPerTest: profile.DefaultCoinsPerTest},
	)
	t.Cleanup(svc.Close)
	c := corpus.FromQuestions([]corpus.Question{
		{ID: "1", Subject: "Economy", Topic: "Banking", Year: 2020, Prompt: "?", Options: []string{"a", "b"}, CorrectOption: "A"},
	})
	return Deps{Corpus: c, Profiles: svc, Identity: ident}, ident
}

func enter(h *HomeScreen) tea.Cmd {
	_, cmd := h.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	return cmd
}

func TestHomeScreen_SignedOutMenu(t *testing.T) {
	deps, _ := testDeps(t, identity.User{})
	h := New(deps)
	assert.Nil(t, h.Init())

	assert.True(t, h.menu.Items[itemStart].Disabled)
	assert.True(t, h.menu.Items[itemStats].Disabled)
	assert.True(t, h.menu.Items[itemHistory].Disabled)
	assert.Equal(t, "SIGN IN", h.menu.Items[itemAccount].Label)
	assert.Equal(t, itemAccount, h.menu.Selected)
	assert.Contains(t, h.View(100, 30), "Sign in to take tests")

	cmd := enter(h)
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.IsType(t, &signin.SignInScreen{}, msg.Screen)
}

func TestHomeScreen_LoadsProfile(t *testing.T) {
	deps, _ := testDeps(t, identity.User{ID: "u-1", DisplayName: "Asha"})
	h := New(deps)
	cmd := h.Init()
	require.NotNil(t, cmd)
	h.Update(cmd())

	require.NotNil(t, h.profile)
	assert.Equal(t, 100, h.profile.Coins)
	assert.Equal(t, "SIGN OUT", h.menu.Items[itemAccount].Label)
	assert.False(t, h.menu.Items[itemStart].Disabled)
	assert.Equal(t, itemStart, h.menu.Selected)

	view := h.View(100, 30)
	assert.Contains(t, view, "Asha")
	assert.Contains(t, view, "◎ 100")
}

func TestHomeScreen_StartOpensSetup(t *testing.T) {
	deps, _ := testDeps(t, identity.User{ID: "u-1"})
	h := New(deps)
	h.Update(h.Init()())

	cmd := enter(h)
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	assert.IsType(t, &setup.SetupScreen{}, msg.Screen)
}

func TestHomeScreen_SignOut(t *testing.T) {
	deps, ident := testDeps(t, identity.User{ID: "u-1"})
	h := New(deps)
	h.Update(h.Init()())

	for range itemAccount {
		h.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	}
	require.Equal(t, itemAccount, h.menu.Selected)

	cmd := enter(h)
	require.NotNil(t, cmd)
	h.Update(cmd())

	_, ok := ident.CurrentUser()
	assert.False(t, ok)
	assert.Nil(t, h.profile)
	assert.Equal(t, "SIGN IN", h.menu.Items[itemAccount].Label)
	assert.Equal(t, itemAccount, h.menu.Selected)
}

func TestHomeScreen_ReinitAfterSignIn(t *testing.T) {
	deps, ident := testDeps(t, identity.User{})
	h := New(deps)
	h.Init()

	ident.SignIn(identity.User{ID: "u-2", DisplayName: "Ravi"})
	cmd := h.Init()
	require.NotNil(t, cmd)
	h.Update(cmd())
	assert.Equal(t, "Ravi", h.profile.DisplayName)

	p, err := deps.Profiles.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u-2", p.ID)
}
