package corpus

import "strings"

// Defaults applied when a raw record is missing a field.
const (
	DefaultTopic  = "General"
	DefaultYear   = 2023
	DefaultPrompt = "Question Text Missing"
	DefaultAnswer = "A"
)

// answerTable maps a zero-based numeric answer to its letter.
var answerTable = [...]string{"A", "B", "C", "D"}

// Question is the canonical, immutable form of a previous-year question.
type Question struct {
	// ID is unique within the corpus. It is the source id when present,
	// otherwise "<subject>_<index>".
	ID string

	Subject string
	Topic   string
	Year    int

	Prompt  string
	Passage string

	// Options holds the answer choices in display order. May be empty.
	Options []string

	// CorrectOption is the answer key as an uppercase letter (A, B, ...).
	// Convert it with OptionIndex before comparing to a selected option.
	CorrectOption string

	// Hint is empty when the dataset has none.
	Hint string

	HasImage bool
}

// HasPassage reports whether the question comes with a reading passage.
func (q Question) HasPassage() bool {
	return q.Passage != ""
}

// CorrectIndex returns the zero-based option index of the answer key.
func (q Question) CorrectIndex() (int, bool) {
	return OptionIndex(q.CorrectOption)
}

// clone returns a copy that shares no mutable state with q.
func (q Question) clone() Question {
	if q.Options != nil {
		q.Options = append([]string(nil), q.Options...)
	}
	return q
}

// OptionLetter converts a zero-based option index to its answer letter
// (0 -> "A", 1 -> "B", ...). It is the only place positions become letters.
func OptionLetter(i int) (string, bool) {
	if i < 0 || i >= 26 {
		return "", false
	}
	return string(rune('A' + i)), true
}

// OptionIndex converts an answer letter back to its zero-based index.
// Surrounding whitespace and case are ignored.
func OptionIndex(letter string) (int, bool) {
	l := strings.ToUpper(strings.TrimSpace(letter))
	if len(l) != 1 || l[0] < 'A' || l[0] > 'Z' {
		return 0, false
	}
	return int(l[0] - 'A'), true
}
