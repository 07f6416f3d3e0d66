// Package scoring grades submitted sessions and folds the results into a
// user's cumulative subject and topic statistics.
package scoring

import (
	"github.com/abhisek/prelims/internal/corpus"
)

// Result is the grading of one session.
type Result struct {
	// Correct is the number of correctly answered questions.
	Correct int

	// PerQuestion holds the verdict for each question, in session order.
	PerQuestion []bool
}

// Attempted returns the number of graded questions.
func (r Result) Attempted() int { return len(r.PerQuestion) }

// Grade compares answers (question index -> option index) with each
// question's answer key. Unanswered or unreadable entries count as wrong.
func Grade(questions []corpus.Question, answers map[int]int) Result {
	res := Result{PerQuestion: make([]bool, len(questions))}
	for i, q := range questions {
		chosen, ok := answers[i]
		if !ok {
			continue
		}
		if isCorrect(q, chosen) {
			res.PerQuestion[i] = true
			res.Correct++
		}
	}
	return res
}

func isCorrect(q corpus.Question, chosen int) bool {
	key, ok := corpus.OptionIndex(q.CorrectOption)
	if !ok || chosen < 0 {
		return false
	}
	if len(q.Options) > 0 && chosen >= len(q.Options) {
		return false
	}
	return key == chosen
}
