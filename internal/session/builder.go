package session

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/prelims/internal/corpus"
)

// SecondsPerQuestion is the default time allowance per question.
const SecondsPerQuestion = 120

var (
	// ErrCannotStart is the umbrella error for a configuration that does not
	// yield a startable session.
	ErrCannotStart = errors.New("cannot start session")

	// ErrNoSubjects is returned when no subject is selected.
	ErrNoSubjects = fmt.Errorf("%w: no subjects selected", ErrCannotStart)

	// ErrNoQuestions is returned when the filters match nothing.
	ErrNoQuestions = fmt.Errorf("%w: no questions match the selected filters", ErrCannotStart)
)

// Config is the user's session configuration. Each list is treated as a
// set. Empty Topics or Years mean no filter on that field.
type Config struct {
	Subjects []string
	Topics   []string
	Years    []int

	// SecondsPerQuestion overrides the default allowance when positive.
	SecondsPerQuestion int
}

// Selection is the ordered question list of a session and its time budget.
type Selection struct {
	Questions []corpus.Question
	Budget    time.Duration
}

// BudgetSeconds returns the budget in whole seconds.
func (s *Selection) BudgetSeconds() int {
	return int(s.Budget / time.Second)
}

// Build filters questions by cfg and orders them by year, then by the
// numeric value of their id.
func Build(questions []corpus.Question, cfg Config) (*Selection, error) {
	subjects := setOf(cfg.Subjects)
	if len(subjects) == 0 {
		return nil, ErrNoSubjects
	}
	topics := setOf(cfg.Topics)
	years := setOf(cfg.Years)

	var picked []corpus.Question
	for _, q := range questions {
		if !subjects[q.Subject] {
			continue
		}
		if len(topics) > 0 && !topics[q.Topic] {
			continue
		}
		if len(years) > 0 && !years[q.Year] {
			continue
		}
		if q.Options != nil {
			q.Options = append([]string(nil), q.Options...)
		}
		picked = append(picked, q)
	}
	if len(picked) == 0 {
		return nil, ErrNoQuestions
	}

	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].Year != picked[j].Year {
			return picked[i].Year < picked[j].Year
		}
		return numericID(picked[i].ID) < numericID(picked[j].ID)
	})

	per := cfg.SecondsPerQuestion
	if per <= 0 {
		per = SecondsPerQuestion
	}
	return &Selection{
		Questions: picked,
		Budget:    time.Duration(per*len(picked)) * time.Second,
	}, nil
}

// numericID reads an id as a number. Decimal, exponent and 0x/0o/0b
// forms are accepted; anything else, NaN included, sorts as 0.
func numericID(id string) float64 {
	s := strings.TrimSpace(id)
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0
			}
			return float64(n)
		}
	}
	if strings.ContainsAny(s, "_xXpP") {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0
	}
	if math.IsInf(f, 0) && strings.TrimLeft(s, "+-") != "Infinity" {
		return 0
	}
	return f
}

func setOf[T comparable](items []T) map[T]bool {
	m := make(map[T]bool, len(items))
	for _, it := range items {
		m[it] = true
	}
	return m
}
