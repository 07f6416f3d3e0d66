package scoring

import (
	"sort"
	"time"

	"github.com/abhisek/prelims/internal/corpus"
)

// PointsPerCorrect is the score awarded for each correct answer.
const PointsPerCorrect = 2

// TestRecord is one entry of a user's test history.
type TestRecord struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQ"`
	Subjects       []string  `json:"subjects"`
}

// NewRecord builds the history entry for a graded session.
func NewRecord(id string, date time.Time, questions []corpus.Question, res Result) TestRecord {
	seen := make(map[string]bool)
	var subjects []string
	for _, q := range questions {
		if !seen[q.Subject] {
			seen[q.Subject] = true
			subjects = append(subjects, q.Subject)
		}
	}
	return TestRecord{
		ID:             id,
		Date:           date.UTC(),
		Score:          res.Correct * PointsPerCorrect,
		TotalQuestions: len(questions),
		Subjects:       subjects,
	}
}

// Accuracy returns the test's percentage of correct answers, recovered
// from its score.
func (r TestRecord) Accuracy() int {
	return percent(r.Score/PointsPerCorrect, r.TotalQuestions)
}

// Band is a coarse performance label for an accuracy percentage.
type Band struct {
	Min     int
	Message string
}

var bands = []Band{
	{Min: 80, Message: "Outstanding! Expert Level."},
	{Min: 60, Message: "Impressive! You are getting strong."},
	{Min: 40, Message: "Good start! Push a little harder."},
	{Min: 1, Message: "Needs Revision. Keep going!"},
	{Min: 0, Message: "Start your journey!"},
}

// BandFor returns the band an accuracy falls into.
func BandFor(accuracy int) Band {
	for _, b := range bands {
		if accuracy >= b.Min {
			return b
		}
	}
	return bands[len(bands)-1]
}

// Breakdown is the per-session result for one subject or topic.
type Breakdown struct {
	Name      string
	Attempted int
	Correct   int
}

// Accuracy returns the rounded percentage of correct answers.
func (b Breakdown) Accuracy() int { return percent(b.Correct, b.Attempted) }

// SubjectBreakdown groups a subject's session result with its topics.
type SubjectBreakdown struct {
	Breakdown
	Topics []Breakdown
}

// Summary is the result of a single session, for display. It does not
// include any earlier sessions.
type Summary struct {
	Correct    int
	Total      int
	Score      int
	Unanswered int
	Subjects   []SubjectBreakdown
}

// Summarize breaks a graded session down by subject and topic. Subjects
// and topics are sorted by name.
func Summarize(questions []corpus.Question, answers map[int]int, res Result) Summary {
	type counts struct{ attempted, correct int }
	subj := make(map[string]*counts)
	topics := make(map[string]map[string]*counts)

	s := Summary{
		Correct: res.Correct,
		Total:   len(questions),
		Score:   res.Correct * PointsPerCorrect,
	}
	for i, q := range questions {
		if _, ok := answers[i]; !ok {
			s.Unanswered++
		}
		correct := i < len(res.PerQuestion) && res.PerQuestion[i]
		topic := q.Topic
		if topic == "" {
			topic = corpus.DefaultTopic
		}

		if subj[q.Subject] == nil {
			subj[q.Subject] = &counts{}
			topics[q.Subject] = make(map[string]*counts)
		}
		if topics[q.Subject][topic] == nil {
			topics[q.Subject][topic] = &counts{}
		}
		for _, c := range []*counts{subj[q.Subject], topics[q.Subject][topic]} {
			c.attempted++
			if correct {
				c.correct++
			}
		}
	}

	names := make([]string, 0, len(subj))
	for name := range subj {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sb := SubjectBreakdown{Breakdown: Breakdown{Name: name, Attempted: subj[name].attempted, Correct: subj[name].correct}}
		tnames := make([]string, 0, len(topics[name]))
		for t := range topics[name] {
			tnames = append(tnames, t)
		}
		sort.Strings(tnames)
		for _, t := range tnames {
			c := topics[name][t]
			sb.Topics = append(sb.Topics, Breakdown{Name: t, Attempted: c.attempted, Correct: c.correct})
		}
		s.Subjects = append(s.Subjects, sb)
	}
	return s
}
