package summary

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/docstore"
	"github.com/abhisek/prelims/internal/identity"
	"github.com/abhisek/prelims/internal/profile"
	"github.com/abhisek/prelims/internal/router"
	"github.com/abhisek/prelims/internal/session"
)

func testSubmission() session.Submission {
	q := func(id, topic, correct string) corpus.Question {
		return corpus.Question{
			ID:            id,
			Subject:       "Indian Polity",
			Topic:         topic,
			Year:          2021,
			Prompt:        "Question " + id,
			Options:       []string{"one", "two", "three", "four"},
			CorrectOption: correct,
			Hint:          "Article 368",
		}
	}
	return session.Submission{
		SessionID:  "s-1",
		Questions:  []corpus.Question{q("1", "Parliament", "A"), q("2", "Judiciary", "B"), q("3", "Judiciary", "C")},
		Answers:    map[int]int{0: 0, 1: 3},
		Reason:     session.ReasonSubmitted,
		FinishedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func testService(t *testing.T) (*profile.Service, *docstore.Memory) {
	t.Helper()
	store := docstore.NewMemory()
	svc := profile.NewService(
		profile.NewAdapter(store, profile.DefaultSignupBonus),
		identity.NewStatic(identity.User{ID: "u-1", Email: "asha@example.com", DisplayName: "Asha"}),
		profile.Config{CoinsPerTest: profile.DefaultCoinsPerTest},
	)
	t.Cleanup(svc.Close)
	return svc, store
}

// record runs the screen's Init command and feeds its result back.
func record(t *testing.T, s *SummaryScreen) {
	t.Helper()
	cmd := s.Init()
	require.NotNil(t, cmd)
	s.Update(cmd())
}

func TestSummaryScreen_Title(t *testing.T) {
	s := New(testSubmission(), nil, nil)
	assert.Equal(t, "Results", s.Title())
}

func TestSummaryScreen_RecordsSession(t *testing.T) {
	svc, _ := testService(t)
	s := New(testSubmission(), svc, nil)
	record(t, s)

	require.NotNil(t, s.outcome)
	require.NoError(t, s.saveErr)
	assert.Equal(t, 1, s.outcome.Summary.Correct)
	assert.Equal(t, 1, s.outcome.Summary.Unanswered)
	assert.True(t, s.outcome.Committed)

	view := s.View(100, 40)
	assert.Contains(t, view, "1 of 3 correct")
	assert.Contains(t, view, "+50")

	p := svc.Profile()
	require.NotNil(t, p)
	assert.Equal(t, 150, p.Coins)
}

func TestSummaryScreen_InitOnce(t *testing.T) {
	svc, _ := testService(t)
	s := New(testSubmission(), svc, nil)
	record(t, s)
	assert.Nil(t, s.Init())
	assert.Len(t, svc.Profile().TestHistory, 1)
}

func TestSummaryScreen_SignedOut(t *testing.T) {
	s := New(testSubmission(), nil, nil)
	assert.Nil(t, s.Init())
	assert.Contains(t, s.View(100, 40), "Sign in")
}

func TestSummaryScreen_RetryFailedSave(t *testing.T) {
	svc, store := testService(t)
	_, err := svc.Load(context.Background())
	require.NoError(t, err)
	store.FailNextWrite(errors.New("network down"))

	s := New(testSubmission(), svc, nil)
	record(t, s)
	require.Error(t, s.saveErr)
	require.NotNil(t, s.outcome)
	assert.True(t, s.canRetry())
	assert.Contains(t, s.View(100, 40), "press r to retry")

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	require.NotNil(t, cmd)
	s.Update(cmd())

	assert.NoError(t, s.saveErr)
	assert.True(t, s.outcome.Committed)
	assert.Equal(t, 150, svc.Profile().Coins)
}

// unreachableStore fails the first read, as when the profile cannot be
// fetched before the test is saved.
type unreachableStore struct {
	*docstore.Memory
	failed bool
}

func (u *unreachableStore) Get(ctx context.Context, collection, id string) (docstore.Document, error) {
	if !u.failed {
		u.failed = true
		return docstore.Document{}, errors.New("network down")
	}
	return u.Memory.Get(ctx, collection, id)
}

func TestSummaryScreen_RetryAfterProfileLoadFails(t *testing.T) {
	svc := profile.NewService(
		profile.NewAdapter(&unreachableStore{Memory: docstore.NewMemory()}, profile.DefaultSignupBonus),
		identity.NewStatic(identity.User{ID: "u-1", Email: "asha@example.com", DisplayName: "Asha"}),
		profile.Config{CoinsPerTest: profile.DefaultCoinsPerTest},
	)
	t.Cleanup(svc.Close)

	s := New(testSubmission(), svc, nil)
	record(t, s)
	require.NotNil(t, s.outcome)
	assert.True(t, s.canRetry())
	view := s.View(100, 40)
	assert.Contains(t, view, "1 of 3 correct")
	assert.Contains(t, view, "press r to retry")

	_, cmd := s.Update(tea.KeyPressMsg{Code: 'r', Text: "r"})
	require.NotNil(t, cmd)
	s.Update(cmd())

	assert.NoError(t, s.saveErr)
	assert.True(t, s.outcome.Committed)
	assert.Equal(t, 150, svc.Profile().Coins)
}

func TestSummaryScreen_Review(t *testing.T) {
	svc, _ := testService(t)
	s := New(testSubmission(), svc, nil)
	record(t, s)

	s.Update(tea.KeyPressMsg{Code: 'v', Text: "v"})
	assert.True(t, s.reviewing)
	assert.True(t, s.HandlesEscape())
	assert.Contains(t, s.View(100, 40), "✓ correct")

	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	assert.Equal(t, 1, s.review)
	assert.Contains(t, s.View(100, 40), "✗ incorrect")

	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	s.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	assert.Equal(t, 2, s.review)
	assert.Contains(t, s.View(100, 40), "not answered")

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEscape})
	assert.Nil(t, cmd)
	assert.False(t, s.reviewing)
}

func TestSummaryScreen_EnterPops(t *testing.T) {
	s := New(testSubmission(), nil, nil)
	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, router.PopScreenMsg{}, cmd())
}

func TestSummaryScreen_KeyHints(t *testing.T) {
	s := New(testSubmission(), nil, nil)
	assert.Len(t, s.KeyHints(), 1)
}
