package scoring

import (
	"math"
	"sort"

	"github.com/abhisek/prelims/internal/corpus"
)

// TopicStat is the cumulative record for one topic.
type TopicStat struct {
	Attempts int `json:"attempts"`
	Correct  int `json:"correct"`
	Accuracy int `json:"accuracy"`
}

// SubjectStat is the cumulative record for one subject. Accuracy is the
// unweighted mean of its topics' accuracies.
type SubjectStat struct {
	Attempts int                  `json:"attempts"`
	Correct  int                  `json:"correct"`
	Accuracy int                  `json:"accuracy"`
	Topics   map[string]TopicStat `json:"topics"`
}

// Stats maps subject name to its statistics.
type Stats map[string]SubjectStat

// Clone returns a deep copy of s.
func (s Stats) Clone() Stats {
	out := make(Stats, len(s))
	for name, sub := range s {
		topics := make(map[string]TopicStat, len(sub.Topics))
		for t, ts := range sub.Topics {
			topics[t] = ts
		}
		sub.Topics = topics
		out[name] = sub
	}
	return out
}

// SubjectNames returns the subject names in s, sorted.
func (s Stats) SubjectNames() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TopicNames returns the topic names of a subject, sorted.
func (s SubjectStat) TopicNames() []string {
	names := make([]string, 0, len(s.Topics))
	for name := range s.Topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Aggregate folds one graded session into stats and returns the new
// statistics. stats is not modified. perQuestion[i] is the verdict for
// questions[i].
func Aggregate(stats Stats, questions []corpus.Question, perQuestion []bool) Stats {
	next := stats.Clone()
	touched := make(map[string]bool)

	for i, q := range questions {
		correct := i < len(perQuestion) && perQuestion[i]
		topic := q.Topic
		if topic == "" {
			topic = corpus.DefaultTopic
		}

		sub := next[q.Subject]
		if sub.Topics == nil {
			sub.Topics = make(map[string]TopicStat)
		}
		ts := sub.Topics[topic]
		ts.Attempts++
		sub.Attempts++
		if correct {
			ts.Correct++
			sub.Correct++
		}
		ts.Accuracy = percent(ts.Correct, ts.Attempts)
		sub.Topics[topic] = ts
		next[q.Subject] = sub
		touched[q.Subject] = true
	}

	for name := range touched {
		sub := next[name]
		sub.Accuracy = meanAccuracy(sub.Topics)
		next[name] = sub
	}
	return next
}

// Accuracy returns the overall accuracy across every topic in stats.
func (s Stats) Accuracy() int {
	var attempts, correct int
	for _, sub := range s {
		for _, ts := range sub.Topics {
			attempts += ts.Attempts
			correct += ts.Correct
		}
	}
	return percent(correct, attempts)
}

func meanAccuracy(topics map[string]TopicStat) int {
	if len(topics) == 0 {
		return 0
	}
	sum := 0
	for _, ts := range topics {
		sum += ts.Accuracy
	}
	return roundHalfUp(float64(sum) / float64(len(topics)))
}

// percent returns round(100*correct/attempts), 0 when nothing was attempted.
func percent(correct, attempts int) int {
	if attempts <= 0 {
		return 0
	}
	return roundHalfUp(100 * float64(correct) / float64(attempts))
}

// roundHalfUp rounds x.5 toward positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
