package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/prelims/internal/corpus"
)

func threeQuestions() []corpus.Question {
	return []corpus.Question{
		q("1", "S", "T", 2019),
		q("2", "S", "T", 2020),
		q("3", "S", "U", 2021),
	}
}

type recorder struct {
	mu    sync.Mutex
	calls []Submission
}

func (r *recorder) submit(s Submission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, s)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestMachine_StartResetsState(t *testing.T) {
	m := NewMachine(nil)
	if m.Phase() != PhaseConfiguring {
		t.Fatalf("Phase = %v, want configuring", m.Phase())
	}

	if err := m.StartWith(threeQuestions(), 360); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	if !m.IsRunning() {
		t.Error("expected running")
	}
	if m.CurrentIndex() != 0 || m.Attempted() != 0 || m.Remaining() != 360 || m.Len() != 3 {
		t.Errorf("index=%d attempted=%d remaining=%d len=%d", m.CurrentIndex(), m.Attempted(), m.Remaining(), m.Len())
	}
	if m.ID() == "" {
		t.Error("expected a session id")
	}
}

func TestMachine_StartTwice(t *testing.T) {
	m := NewMachine(nil)
	if err := m.StartWith(threeQuestions(), 10); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	if err := m.StartWith(threeQuestions(), 10); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("err = %v, want ErrAlreadyStarted", err)
	}
}

func TestMachine_StartEmpty(t *testing.T) {
	m := NewMachine(nil)
	if err := m.StartWith(nil, 10); !errors.Is(err, ErrCannotStart) {
		t.Errorf("err = %v, want ErrCannotStart", err)
	}
	if err := m.Start(nil); !errors.Is(err, ErrCannotStart) {
		t.Errorf("err = %v, want ErrCannotStart", err)
	}
	if m.Phase() != PhaseConfiguring {
		t.Errorf("Phase = %v, want configuring", m.Phase())
	}
}

func TestMachine_SelectOption(t *testing.T) {
	m := NewMachine(nil)
	if err := m.StartWith(threeQuestions(), 10); err != nil {
		t.Fatalf("StartWith: %v", err)
	}

	if err := m.SelectOption(0, 1); err != nil {
		t.Fatalf("SelectOption: %v", err)
	}
	if err := m.SelectOption(0, 3); err != nil {
		t.Fatalf("SelectOption: %v", err)
	}
	if got, ok := m.Answer(0); !ok || got != 3 {
		t.Errorf("Answer(0) = %d, %v, want 3 (last write wins)", got, ok)
	}

	for _, tc := range []struct{ index, option int }{{-1, 0}, {3, 0}, {1, 4}, {1, -1}} {
		if err := m.SelectOption(tc.index, tc.option); !errors.Is(err, ErrInvalidAnswer) {
			t.Errorf("SelectOption(%d, %d) err = %v, want ErrInvalidAnswer", tc.index, tc.option, err)
		}
	}
	if m.Attempted() != 1 {
		t.Errorf("Attempted = %d, want 1", m.Attempted())
	}

	if err := m.ClearAnswer(0); err != nil {
		t.Fatalf("ClearAnswer: %v", err)
	}
	if _, ok := m.Answer(0); ok {
		t.Error("answer should be cleared")
	}
}

func TestMachine_SelectOptionWithoutOptions(t *testing.T) {
	qs := []corpus.Question{{ID: "1", Subject: "S", CorrectOption: "B"}}
	m := NewMachine(nil)
	if err := m.StartWith(qs, 10); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	if err := m.SelectOption(0, 1); err != nil {
		t.Errorf("SelectOption: %v", err)
	}
}

func TestMachine_SelectBeforeStart(t *testing.T) {
	m := NewMachine(nil)
	if err := m.SelectOption(0, 0); !errors.Is(err, ErrNotRunning) {
		t.Errorf("err = %v, want ErrNotRunning", err)
	}
}

func TestMachine_Navigate(t *testing.T) {
	m := NewMachine(nil)
	if err := m.StartWith(threeQuestions(), 100); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	_ = m.SelectOption(0, 2)

	steps := []struct{ delta, want int }{{1, 1}, {1, 2}, {1, 2}, {-5, 0}, {2, 2}}
	for _, s := range steps {
		if got := m.Navigate(s.delta); got != s.want {
			t.Errorf("Navigate(%d) = %d, want %d", s.delta, got, s.want)
		}
	}
	if m.Remaining() != 100 {
		t.Errorf("Remaining = %d, navigation must not change time", m.Remaining())
	}
	if got, _ := m.Answer(0); got != 2 || m.Attempted() != 1 {
		t.Error("navigation must not change answers")
	}

	cur, ok := m.Current()
	if !ok || cur.ID != "3" {
		t.Errorf("Current = %v, %v, want question 3", cur.ID, ok)
	}
}

func TestMachine_TimeoutForcesSubmitOnce(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec.submit)
	if err := m.StartWith(threeQuestions(), 2); err != nil {
		t.Fatalf("StartWith: %v", err)
	}

	if m.Tick() {
		t.Fatal("first tick should not submit")
	}
	if m.Remaining() != 1 {
		t.Errorf("Remaining = %d, want 1", m.Remaining())
	}
	if !m.Tick() {
		t.Fatal("second tick should force submit")
	}
	if m.Phase() != PhaseCompleted {
		t.Errorf("Phase = %v, want completed", m.Phase())
	}
	if m.Tick() {
		t.Error("tick after completion should be a no-op")
	}
	if _, ok := m.Submit(); ok {
		t.Error("Submit after timeout should report false")
	}

	if rec.count() != 1 {
		t.Fatalf("onSubmit called %d times, want 1", rec.count())
	}
	if rec.calls[0].Reason != ReasonTimeout {
		t.Errorf("Reason = %q, want timeout", rec.calls[0].Reason)
	}
}

func TestMachine_SubmitIsIdempotent(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec.submit)
	if err := m.StartWith(threeQuestions(), 100); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	_ = m.SelectOption(1, 2)

	sub, ok := m.Submit()
	if !ok {
		t.Fatal("first Submit should succeed")
	}
	if _, ok := m.Submit(); ok {
		t.Error("second Submit should report false")
	}
	if rec.count() != 1 {
		t.Errorf("onSubmit called %d times, want 1", rec.count())
	}

	if sub.Reason != ReasonSubmitted || sub.SessionID != m.ID() || len(sub.Questions) != 3 {
		t.Errorf("unexpected submission %+v", sub)
	}
	if got := sub.Answers[1]; got != 2 || len(sub.Answers) != 1 {
		t.Errorf("Answers = %v, want {1:2}", sub.Answers)
	}
}

func TestMachine_AnswersFrozenAfterCompletion(t *testing.T) {
	m := NewMachine(nil)
	if err := m.StartWith(threeQuestions(), 100); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	_ = m.SelectOption(0, 1)
	sub, _ := m.Submit()

	if err := m.SelectOption(0, 2); !errors.Is(err, ErrNotRunning) {
		t.Errorf("SelectOption after submit err = %v, want ErrNotRunning", err)
	}
	sub.Answers[0] = 3
	if got, _ := m.Answer(0); got != 1 {
		t.Errorf("Answer(0) = %d, submission must not alias machine state", got)
	}
	if m.Navigate(1) != 1 {
		t.Error("navigation should work in review")
	}
}

func TestMachine_ElapsedUsesClock(t *testing.T) {
	base := time.Date(2025, 5, 25, 9, 30, 0, 0, time.UTC)
	now := base
	m := NewMachine(nil)
	m.now = func() time.Time { return now }

	if err := m.StartWith(threeQuestions(), 100); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	now = base.Add(95 * time.Second)
	sub, _ := m.Submit()

	if sub.Elapsed != 95*time.Second || !sub.StartedAt.Equal(base) {
		t.Errorf("Elapsed = %v, StartedAt = %v", sub.Elapsed, sub.StartedAt)
	}
}

func TestMachine_Abandon(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec.submit)
	if err := m.StartWith(threeQuestions(), 100); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	_ = m.SelectOption(0, 0)
	m.Abandon()

	if m.Phase() != PhaseAbandoned {
		t.Errorf("Phase = %v, want abandoned", m.Phase())
	}
	if _, ok := m.Submit(); ok {
		t.Error("Submit after Abandon should report false")
	}
	if m.Tick() {
		t.Error("Tick after Abandon should be a no-op")
	}
	m.Abandon()
	if rec.count() != 0 {
		t.Errorf("onSubmit called %d times, want 0", rec.count())
	}
}

func TestRunTimer_SubmitsOnBudget(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec.submit)
	if err := m.StartWith(threeQuestions(), 3); err != nil {
		t.Fatalf("StartWith: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := RunTimer(ctx, m, time.Millisecond); err != nil {
		t.Fatalf("RunTimer: %v", err)
	}
	if rec.count() != 1 || rec.calls[0].Reason != ReasonTimeout {
		t.Errorf("expected one timeout submission, got %d", rec.count())
	}
}

func TestRunTimer_StopsOnCancel(t *testing.T) {
	m := NewMachine(nil)
	if err := m.StartWith(threeQuestions(), 1000); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := RunTimer(ctx, m, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if !m.IsRunning() {
		t.Error("cancelling the timer must not end the session")
	}
}

func TestRunTimer_StopsOnManualSubmit(t *testing.T) {
	m := NewMachine(nil)
	if err := m.StartWith(threeQuestions(), 1000); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	m.Submit()

	if err := RunTimer(context.Background(), m, time.Hour); err != nil {
		t.Errorf("RunTimer: %v", err)
	}
}
