package corpus

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// RawRecord is one loosely-typed question record as decoded from JSON.
type RawRecord map[string]any

// Dataset is the ordered record list of a single subject.
type Dataset struct {
	Subject string
	Records []RawRecord
}

// Alias lists per canonical field. The first present alias wins.
var (
	idAliases      = []string{"id"}
	answerAliases  = []string{"answer", "correct_answer", "correct"}
	topicAliases   = []string{"topic", "sub_topic"}
	yearAliases    = []string{"year", "Year"}
	promptAliases  = []string{"question", "q"}
	passageAliases = []string{"passage"}
	optionAliases  = []string{"options", "Options"}
	hintAliases    = []string{"learning_engine", "learning"}
)

// DataQualityIssue describes a field that had to be defaulted while
// normalizing a record. Issues are reported, never raised.
type DataQualityIssue struct {
	Subject string
	Index   int
	ID      string
	Field   string
	Message string
}

func (i DataQualityIssue) String() string {
	return fmt.Sprintf("%s[%d] (%s) %s: %s", i.Subject, i.Index, i.ID, i.Field, i.Message)
}

// Normalize flattens the datasets into canonical questions, preserving
// dataset order and then record order.
func Normalize(datasets []Dataset) []Question {
	qs, _ := normalize(datasets)
	return qs
}

func normalize(datasets []Dataset) ([]Question, []DataQualityIssue) {
	var (
		out    []Question
		issues []DataQualityIssue
	)
	for _, ds := range datasets {
		for idx, rec := range ds.Records {
			q, recIssues := normalizeRecord(ds.Subject, idx, rec)
			out = append(out, q)
			issues = append(issues, recIssues...)
		}
	}
	return out, issues
}

func normalizeRecord(subject string, idx int, rec RawRecord) (Question, []DataQualityIssue) {
	var issues []DataQualityIssue
	q := Question{Subject: subject}

	if v, ok := rec.first(idAliases); ok {
		q.ID = stringify(v)
	} else {
		q.ID = fmt.Sprintf("%s_%d", subject, idx)
	}

	note := func(field, format string, args ...any) {
		issues = append(issues, DataQualityIssue{
			Subject: subject,
			Index:   idx,
			ID:      q.ID,
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		})
	}

	q.CorrectOption = resolveAnswer(rec, note)

	if v, ok := rec.first(topicAliases); ok {
		q.Topic = strings.TrimSpace(stringify(v))
	}
	if q.Topic == "" {
		q.Topic = DefaultTopic
	}

	q.Year = DefaultYear
	if v, ok := rec.first(yearAliases); ok {
		if y, ok := parseYear(v); ok {
			q.Year = y
		} else {
			note("year", "unparseable year %q, using %d", stringify(v), DefaultYear)
		}
	} else {
		note("year", "missing, using %d", DefaultYear)
	}

	if v, ok := rec.first(promptAliases); ok {
		q.Prompt = stringify(v)
	} else {
		q.Prompt = DefaultPrompt
		note("question", "missing question text")
	}

	if v, ok := rec.first(passageAliases); ok {
		q.Passage = stringify(v)
	}

	if v, ok := rec.first(optionAliases); ok {
		opts, ok := resolveOptions(v)
		if !ok {
			note("options", "unsupported options value of type %T", v)
		}
		q.Options = opts
	}

	if v, ok := rec.first(hintAliases); ok {
		if m, ok := v.(map[string]any); ok {
			if h, ok := m["hint"]; ok && present(h) {
				q.Hint = stringify(h)
			}
		}
	}

	q.HasImage = resolveHasImage(rec["has_image"])

	if len(q.Options) > 0 {
		if i, ok := OptionIndex(q.CorrectOption); !ok || i >= len(q.Options) {
			note("answer", "answer %q does not name one of %d options", q.CorrectOption, len(q.Options))
		}
	}

	return q, issues
}

// resolveAnswer maps the raw answer to an uppercase letter. Numbers go
// through the fixed A-D table; out-of-range numbers fall back to A.
func resolveAnswer(rec RawRecord, note func(field, format string, args ...any)) string {
	v, ok := rec.first(answerAliases)
	if !ok {
		note("answer", "missing, using %s", DefaultAnswer)
		return DefaultAnswer
	}
	if n, ok := asNumber(v); ok {
		if n != math.Trunc(n) || n < 0 || int(n) >= len(answerTable) {
			note("answer", "numeric answer %v out of range, using %s", n, DefaultAnswer)
			return DefaultAnswer
		}
		return answerTable[int(n)]
	}
	letter := strings.ToUpper(strings.TrimSpace(stringify(v)))
	if _, ok := OptionIndex(letter); !ok {
		note("answer", "answer %q is not a letter", letter)
	}
	return letter
}

// resolveOptions accepts an array (kept in order) or an object (flattened
// by sorted key). Anything else yields no options.
func resolveOptions(v any) ([]string, bool) {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, o := range t {
			out = append(out, stringify(o))
		}
		return out, true
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			out = append(out, stringify(t[k]))
		}
		return out, true
	}
	return nil, false
}

func resolveHasImage(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return strings.EqualFold(strings.TrimSpace(t), "yes")
	}
	return false
}

// parseYear reads the leading integer of v. Zero and negative years are
// treated as unparseable.
func parseYear(v any) (int, bool) {
	if n, ok := asNumber(v); ok {
		if n >= 1 && n == math.Trunc(n) {
			return int(n), true
		}
		return 0, false
	}
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		end := 0
		for end < len(s) && unicode.IsDigit(rune(s[end])) {
			end++
		}
		if end == 0 {
			return 0, false
		}
		y, err := strconv.Atoi(s[:end])
		if err != nil || y < 1 {
			return 0, false
		}
		return y, true
	}
	return 0, false
}

// first returns the value of the first alias that is present.
func (r RawRecord) first(aliases []string) (any, bool) {
	for _, a := range aliases {
		if v, ok := r[a]; ok && present(v) {
			return v, true
		}
	}
	return nil, false
}

// present reports whether a decoded JSON value carries data. Null, false
// and blank strings count as absent.
func present(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return strings.TrimSpace(t) != ""
	}
	return true
}

// asNumber accepts decoded JSON numbers as well as Go integers, so records
// built in code behave like records read from disk.
func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}

func stringify(v any) string {
	if n, ok := asNumber(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	return fmt.Sprint(v)
}
