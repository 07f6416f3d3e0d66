package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/prelims/internal/corpus"
)

var (
	// ErrAlreadyStarted is returned when Start is called on a machine that
	// has left the configuring phase.
	ErrAlreadyStarted = errors.New("session already started")

	// ErrNotRunning is returned by answer operations outside the running phase.
	ErrNotRunning = errors.New("session is not running")

	// ErrInvalidAnswer is returned for an out-of-range question or option.
	ErrInvalidAnswer = errors.New("invalid answer")
)

// Phase is the lifecycle phase of a session.
type Phase int

const (
	PhaseConfiguring Phase = iota // Not started yet
	PhaseRunning                  // Accepting answers, timer counting down
	PhaseCompleted                // Submitted, answers frozen
	PhaseAbandoned                // Left before submission, nothing recorded
)

func (p Phase) String() string {
	switch p {
	case PhaseConfiguring:
		return "configuring"
	case PhaseRunning:
		return "running"
	case PhaseCompleted:
		return "completed"
	case PhaseAbandoned:
		return "abandoned"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Reason says why a session was submitted.
type Reason string

const (
	ReasonSubmitted Reason = "submitted"
	ReasonTimeout   Reason = "timeout"
)

// Submission is the frozen result of a completed session.
type Submission struct {
	SessionID string
	Questions []corpus.Question

	// Answers maps question index to the selected option index. Unanswered
	// questions are absent.
	Answers map[int]int

	Reason     Reason
	StartedAt  time.Time
	FinishedAt time.Time
	Elapsed    time.Duration
}

// SubmitFunc receives the submission exactly once per session.
type SubmitFunc func(Submission)

// Machine is the session state machine. It is safe to drive from a timer
// goroutine and a UI goroutine at once.
type Machine struct {
	mu sync.Mutex

	onSubmit SubmitFunc
	now      func() time.Time

	id        string
	phase     Phase
	questions []corpus.Question
	index     int
	answers   map[int]int
	remaining int
	startedAt time.Time

	done chan struct{}
}

// NewMachine creates a machine in the configuring phase. onSubmit may be nil.
func NewMachine(onSubmit SubmitFunc) *Machine {
	return &Machine{
		onSubmit: onSubmit,
		now:      time.Now,
		answers:  make(map[int]int),
		done:     make(chan struct{}),
	}
}

// Start runs the selection with its budget.
func (m *Machine) Start(sel *Selection) error {
	if sel == nil {
		return ErrNoQuestions
	}
	return m.StartWith(sel.Questions, sel.BudgetSeconds())
}

// StartWith moves the machine to running with the given questions and a
// budget in seconds.
func (m *Machine) StartWith(questions []corpus.Question, budgetSeconds int) error {
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseConfiguring {
		return ErrAlreadyStarted
	}

	m.id = uuid.New().String()
	m.questions = append([]corpus.Question(nil), questions...)
	m.index = 0
	m.answers = make(map[int]int)
	m.remaining = budgetSeconds
	m.startedAt = m.now()
	m.phase = PhaseRunning
	return nil
}

// SelectOption records option as the answer to question index. The last
// selection wins.
func (m *Machine) SelectOption(index, option int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseRunning {
		return ErrNotRunning
	}
	if index < 0 || index >= len(m.questions) {
		return fmt.Errorf("%w: question %d of %d", ErrInvalidAnswer, index, len(m.questions))
	}
	limit := len(m.questions[index].Options)
	if limit == 0 {
		// Questions without listed options still take a letter.
		limit = 26
	}
	if option < 0 || option >= limit {
		return fmt.Errorf("%w: option %d of %d", ErrInvalidAnswer, option, limit)
	}
	m.answers[index] = option
	return nil
}

// ClearAnswer withdraws the answer to question index, if any.
func (m *Machine) ClearAnswer(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseRunning {
		return ErrNotRunning
	}
	delete(m.answers, index)
	return nil
}

// Navigate moves the current index by delta, clamped to the question list,
// and returns the new index. It works after completion for review.
func (m *Machine) Navigate(delta int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.questions) == 0 {
		return 0
	}
	i := m.index + delta
	if i < 0 {
		i = 0
	}
	if i > len(m.questions)-1 {
		i = len(m.questions) - 1
	}
	m.index = i
	return i
}

// Tick consumes one second of the budget. It returns true when this tick
// ran the budget out and forced the submission.
func (m *Machine) Tick() bool {
	m.mu.Lock()
	if m.phase != PhaseRunning {
		m.mu.Unlock()
		return false
	}
	m.remaining--
	if m.remaining > 0 {
		m.mu.Unlock()
		return false
	}
	m.remaining = 0
	sub := m.completeLocked(ReasonTimeout)
	m.mu.Unlock()

	m.deliver(sub)
	return true
}

// Submit completes the session. Only the first call has any effect; later
// calls return false.
func (m *Machine) Submit() (Submission, bool) {
	m.mu.Lock()
	if m.phase != PhaseRunning {
		m.mu.Unlock()
		return Submission{}, false
	}
	sub := m.completeLocked(ReasonSubmitted)
	m.mu.Unlock()

	m.deliver(sub)
	return sub, true
}

// Abandon discards a running session without submitting it.
func (m *Machine) Abandon() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.phase != PhaseRunning && m.phase != PhaseConfiguring {
		return
	}
	m.phase = PhaseAbandoned
	close(m.done)
}

func (m *Machine) completeLocked(reason Reason) Submission {
	finished := m.now()
	frozen := make(map[int]int, len(m.answers))
	for k, v := range m.answers {
		frozen[k] = v
	}
	m.answers = frozen
	m.phase = PhaseCompleted
	close(m.done)

	return Submission{
		SessionID:  m.id,
		Questions:  append([]corpus.Question(nil), m.questions...),
		Answers:    copyAnswers(frozen),
		Reason:     reason,
		StartedAt:  m.startedAt,
		FinishedAt: finished,
		Elapsed:    finished.Sub(m.startedAt),
	}
}

func (m *Machine) deliver(sub Submission) {
	if m.onSubmit != nil {
		m.onSubmit(sub)
	}
}

// Done is closed when the session completes or is abandoned.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// ID returns the session id, empty before Start.
func (m *Machine) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phase
}

// IsRunning reports whether the session accepts answers.
func (m *Machine) IsRunning() bool {
	return m.Phase() == PhaseRunning
}

// Len returns the number of questions.
func (m *Machine) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.questions)
}

// CurrentIndex returns the index of the question on display.
func (m *Machine) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// Current returns the question on display.
func (m *Machine) Current() (corpus.Question, bool) {
	return m.Question(m.CurrentIndex())
}

// Question returns question i.
func (m *Machine) Question(i int) (corpus.Question, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.questions) {
		return corpus.Question{}, false
	}
	return m.questions[i], true
}

// Remaining returns the seconds left on the timer.
func (m *Machine) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remaining
}

// Answer returns the option selected for question i.
func (m *Machine) Answer(i int) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	opt, ok := m.answers[i]
	return opt, ok
}

// Attempted returns the number of answered questions.
func (m *Machine) Attempted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.answers)
}

func copyAnswers(in map[int]int) map[int]int {
	out := make(map[int]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
