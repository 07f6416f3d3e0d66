package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/prelims/internal/corpus"
)

func capitalQuestion() corpus.Question {
	return corpus.Question{
		ID:            "1",
		Subject:       "Geography",
		Topic:         "Capitals",
		Year:          2020,
		Prompt:        "Capital of France?",
		Options:       []string{"Rome", "Paris", "Berlin", "Madrid"},
		CorrectOption: "B",
	}
}

func TestGrade_IndexMatchesLetter(t *testing.T) {
	qs := []corpus.Question{capitalQuestion()}

	assert.Equal(t, 1, Grade(qs, map[int]int{0: 1}).Correct)
	assert.Equal(t, 0, Grade(qs, map[int]int{0: 2}).Correct)
	assert.Equal(t, 0, Grade(qs, map[int]int{}).Correct)
}

func TestGrade_UnresolvableIsIncorrect(t *testing.T) {
	q := capitalQuestion()
	q.CorrectOption = "??"
	outOfRange := capitalQuestion()
	outOfRange.CorrectOption = "F"

	res := Grade([]corpus.Question{q, outOfRange, capitalQuestion()}, map[int]int{0: 1, 1: 5, 2: -1})
	assert.Equal(t, 0, res.Correct)
	assert.Equal(t, []bool{false, false, false}, res.PerQuestion)
}

func TestGrade_NoOptionsComparesLetterDirectly(t *testing.T) {
	q := corpus.Question{ID: "1", Subject: "CSAT", CorrectOption: "C"}
	assert.Equal(t, 1, Grade([]corpus.Question{q}, map[int]int{0: 2}).Correct)
	assert.Equal(t, 0, Grade([]corpus.Question{q}, map[int]int{0: 0}).Correct)
}

func TestGrade_Deterministic(t *testing.T) {
	qs := []corpus.Question{capitalQuestion(), capitalQuestion(), capitalQuestion()}
	answers := map[int]int{0: 1, 2: 3}

	first := Grade(qs, answers)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Grade(qs, answers))
	}
	assert.Equal(t, []bool{true, false, false}, first.PerQuestion)
	assert.Equal(t, 3, first.Attempted())
}

func TestAggregate_FirstSession(t *testing.T) {
	qs := []corpus.Question{capitalQuestion()}
	res := Grade(qs, map[int]int{0: 1})

	got := Aggregate(nil, qs, res.PerQuestion)
	want := Stats{
		"Geography": {
			Attempts: 1, Correct: 1, Accuracy: 100,
			Topics: map[string]TopicStat{"Capitals": {Attempts: 1, Correct: 1, Accuracy: 100}},
		},
	}
	assert.Equal(t, want, got)
}

func TestAggregate_SubjectAccuracyIsUnweightedTopicMean(t *testing.T) {
	stats := Stats{
		"Polity": {
			Attempts: 10, Correct: 10, Accuracy: 100,
			Topics: map[string]TopicStat{"Parliament": {Attempts: 10, Correct: 10, Accuracy: 100}},
		},
	}
	qs := []corpus.Question{{ID: "9", Subject: "Polity", Topic: "Judiciary", CorrectOption: "A"}}

	got := Aggregate(stats, qs, []bool{false})
	sub := got["Polity"]
	assert.Equal(t, 0, sub.Topics["Judiciary"].Accuracy)
	assert.Equal(t, 50, sub.Accuracy, "11 attempts must not weigh the mean")
	assert.Equal(t, 11, sub.Attempts)
	assert.Equal(t, 10, sub.Correct)
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	stats := Stats{
		"Geography": {Topics: map[string]TopicStat{"Capitals": {Attempts: 1, Correct: 0, Accuracy: 0}}},
	}
	before := stats.Clone()

	qs := []corpus.Question{capitalQuestion()}
	_ = Aggregate(stats, qs, []bool{true})
	assert.Equal(t, before, stats)
}

func TestAggregate_UntouchedSubjectsKept(t *testing.T) {
	stats := Stats{
		"Economy": {
			Attempts: 3, Correct: 1, Accuracy: 33,
			Topics: map[string]TopicStat{"Banking": {Attempts: 3, Correct: 1, Accuracy: 33}},
		},
	}
	got := Aggregate(stats, []corpus.Question{capitalQuestion()}, []bool{true})
	assert.Equal(t, stats["Economy"], got["Economy"])
}

func TestAggregate_Rounding(t *testing.T) {
	qs := []corpus.Question{capitalQuestion(), capitalQuestion(), capitalQuestion()}
	got := Aggregate(nil, qs, []bool{true, true, false})
	assert.Equal(t, 67, got["Geography"].Topics["Capitals"].Accuracy)

	qs = make([]corpus.Question, 8)
	for i := range qs {
		qs[i] = capitalQuestion()
	}
	got = Aggregate(nil, qs, []bool{true})
	assert.Equal(t, 13, got["Geography"].Topics["Capitals"].Accuracy, "12.5 rounds up")
}

func TestAggregate_EmptyTopicFallsBackToGeneral(t *testing.T) {
	q := capitalQuestion()
	q.Topic = ""
	got := Aggregate(nil, []corpus.Question{q}, []bool{true})
	_, ok := got["Geography"].Topics[corpus.DefaultTopic]
	assert.True(t, ok)
}

func TestAggregate_DisjointSessionsCommute(t *testing.T) {
	a := []corpus.Question{capitalQuestion(), capitalQuestion()}
	aRes := []bool{true, false}
	b := []corpus.Question{
		{ID: "2", Subject: "Polity", Topic: "Judiciary", CorrectOption: "A"},
		{ID: "3", Subject: "Polity", Topic: "Parliament", CorrectOption: "A"},
	}
	bRes := []bool{true, true}

	ab := Aggregate(Aggregate(nil, a, aRes), b, bRes)
	ba := Aggregate(Aggregate(nil, b, bRes), a, aRes)
	assert.Equal(t, ab, ba)
}

func TestStats_Accuracy(t *testing.T) {
	s := Stats{
		"A": {Topics: map[string]TopicStat{"x": {Attempts: 3, Correct: 1}}},
		"B": {Topics: map[string]TopicStat{"y": {Attempts: 1, Correct: 1}}},
	}
	assert.Equal(t, 50, s.Accuracy())
	assert.Equal(t, 0, Stats{}.Accuracy())
	assert.Equal(t, []string{"A", "B"}, s.SubjectNames())
}

func TestNewRecord(t *testing.T) {
	qs := []corpus.Question{
		capitalQuestion(),
		{ID: "2", Subject: "Polity", Topic: "Judiciary"},
		capitalQuestion(),
	}
	res := Result{Correct: 2, PerQuestion: []bool{true, false, true}}
	date := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("IST", 19800))

	rec := NewRecord("rec-1", date, qs, res)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, 4, rec.Score)
	assert.Equal(t, 3, rec.TotalQuestions)
	assert.Equal(t, []string{"Geography", "Polity"}, rec.Subjects)
	assert.Equal(t, time.UTC, rec.Date.Location())
	assert.True(t, rec.Date.Equal(date))
}

func TestTestRecord_Accuracy(t *testing.T) {
	assert.Equal(t, 0, TestRecord{}.Accuracy())
	assert.Equal(t, 100, TestRecord{Score: 4, TotalQuestions: 2}.Accuracy())
	assert.Equal(t, 67, TestRecord{Score: 4, TotalQuestions: 3}.Accuracy())
	assert.Equal(t, 33, TestRecord{Score: 2, TotalQuestions: 3}.Accuracy())
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		accuracy int
		want     string
	}{
		{0, "Start your journey!"},
		{1, "Needs Revision. Keep going!"},
		{39, "Needs Revision. Keep going!"},
		{40, "Good start! Push a little harder."},
		{59, "Good start! Push a little harder."},
		{60, "Impressive! You are getting strong."},
		{79, "Impressive! You are getting strong."},
		{80, "Outstanding! Expert Level."},
		{100, "Outstanding! Expert Level."},
	}
	for _, tt := range tests {
		if got := BandFor(tt.accuracy).Message; got != tt.want {
			t.Errorf("BandFor(%d) = %q, want %q", tt.accuracy, got, tt.want)
		}
	}
}

func TestSummarize(t *testing.T) {
	qs := []corpus.Question{
		capitalQuestion(),
		{ID: "2", Subject: "Polity", Topic: "Judiciary", CorrectOption: "A"},
		{ID: "3", Subject: "Polity", Topic: "Parliament", CorrectOption: "A"},
		{ID: "4", Subject: "Polity", Topic: "Judiciary", CorrectOption: "A"},
	}
	answers := map[int]int{0: 1, 1: 0, 3: 2}
	res := Grade(qs, answers)

	s := Summarize(qs, answers, res)
	assert.Equal(t, 2, s.Correct)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 4, s.Score)
	assert.Equal(t, 1, s.Unanswered)

	require.Len(t, s.Subjects, 2)
	assert.Equal(t, "Geography", s.Subjects[0].Name)
	polity := s.Subjects[1]
	assert.Equal(t, 3, polity.Attempted)
	assert.Equal(t, 1, polity.Correct)
	assert.Equal(t, 33, polity.Accuracy())
	require.Len(t, polity.Topics, 2)
	assert.Equal(t, Breakdown{Name: "Judiciary", Attempted: 2, Correct: 1}, polity.Topics[0])
}
