package setup

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/router"
	sessionscreen "github.com/abhisek/prelims/internal/screens/session"
)

func testCorpus() *corpus.Corpus {
	return corpus.FromQuestions([]corpus.Question{
		{ID: "1", Subject: "Economy", Topic: "Banking", Year: 2020, Prompt: "q1", Options: []string{"a", "b"}, CorrectOption: "A"},
		{ID: "2", Subject: "Economy", Topic: "Budget", Year: 2021, Prompt: "q2", Options: []string{"a", "b"}, CorrectOption: "B"},
		{ID: "3", Subject: "Indian Polity", Topic: "Parliament", Year: 2022, Prompt: "q3", Options: []string{"a", "b"}, CorrectOption: "A"},
	})
}

var (
	space = tea.KeyPressMsg{Code: tea.KeySpace, Text: " "}
	down  = tea.KeyPressMsg{Code: tea.KeyDown}
	tab   = tea.KeyPressMsg{Code: tea.KeyTab}
	enter = tea.KeyPressMsg{Code: tea.KeyEnter}
)

func TestSetupScreen_StartsEmpty(t *testing.T) {
	s := New(testCorpus(), nil, 0, nil)
	assert.Equal(t, "New Test", s.Title())
	assert.Len(t, s.panels[panelSubjects].Items, 2)
	assert.Empty(t, s.panels[panelTopics].Items)
	assert.Empty(t, s.panels[panelYears].Items)
	assert.Zero(t, s.matched)
}

func TestSetupScreen_SubjectsDriveTopicsAndYears(t *testing.T) {
	s := New(testCorpus(), nil, 0, nil)

	s.Update(space)
	assert.Equal(t, []string{"Economy"}, s.Config().Subjects)
	assert.Len(t, s.panels[panelTopics].Items, 2)
	assert.Len(t, s.panels[panelYears].Items, 2)
	assert.Equal(t, 2, s.matched)

	s.Update(down)
	s.Update(space)
	assert.Len(t, s.panels[panelTopics].Items, 3)
	assert.Equal(t, 3, s.matched)
}

func TestSetupScreen_FiltersNarrowPreview(t *testing.T) {
	s := New(testCorpus(), nil, 60, nil)
	s.Update(space)

	// Years panel: tick 2021 only.
	s.Update(tab)
	s.Update(tab)
	s.Update(down)
	s.Update(space)

	cfg := s.Config()
	assert.Equal(t, []int{2021}, cfg.Years)
	assert.Equal(t, 1, s.matched)
	assert.Equal(t, 60, s.budget)
}

func TestSetupScreen_CheckedTopicsSurviveRefresh(t *testing.T) {
	s := New(testCorpus(), nil, 0, nil)
	s.Update(space)

	s.Update(tab)
	s.Update(down)
	s.Update(space)
	require.Equal(t, []string{"Budget"}, s.Config().Topics)

	s.Update(tea.KeyPressMsg{Code: tea.KeyTab, Mod: tea.ModShift})
	s.Update(down)
	s.Update(space)
	assert.Equal(t, []string{"Budget"}, s.Config().Topics)
}

func TestSetupScreen_StartWithoutSubjects(t *testing.T) {
	s := New(testCorpus(), nil, 0, nil)
	_, cmd := s.Update(enter)
	assert.Nil(t, cmd)
	assert.Equal(t, "Pick at least one subject.", s.errMsg)
	assert.Contains(t, s.View(100, 30), "Pick at least one subject.")

	s.Update(space)
	assert.Empty(t, s.errMsg)
}

func TestSetupScreen_StartReplacesWithSession(t *testing.T) {
	s := New(testCorpus(), nil, 0, nil)
	s.Update(tea.KeyPressMsg{Code: 'a', Text: "a"})
	require.Len(t, s.Config().Subjects, 2)

	_, cmd := s.Update(enter)
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.ReplaceScreenMsg)
	require.True(t, ok)
	assert.IsType(t, &sessionscreen.SessionScreen{}, msg.Screen)
}

func TestSetupScreen_ViewShowsMatchCount(t *testing.T) {
	s := New(testCorpus(), nil, 0, nil)
	s.Update(space)
	assert.Contains(t, s.View(100, 30), "2 questions")
}
