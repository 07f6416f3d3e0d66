package corpus

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"manifest.json": {Data: []byte(`{
			"format": "v1.0.3",
			"subjects": [
				{"name": "Polity", "file": "polity.json"},
				{"name": "Economy", "file": "economy.json"}
			]
		}`)},
		"polity.json": {Data: []byte(`[
			{"id": 1, "year": 2020, "topic": "Parliament", "question": "q1", "options": ["a","b"], "answer": "B"},
			{"id": 2, "year": 2018, "topic": "Judiciary", "question": "q2", "options": ["a","b"], "answer": 0}
		]`)},
		"economy.json": {Data: []byte(`[
			{"year": 2021, "sub_topic": "Banking", "q": "q3"},
			{"year": 2020, "topic": "Banking", "question": "q4"}
		]`)},
	}
}

func TestLoad(t *testing.T) {
	c, err := Load(testFS())
	require.NoError(t, err)

	assert.Equal(t, "v1.0.3", c.Format())
	assert.Equal(t, []string{"Polity", "Economy"}, c.Subjects())
	assert.Equal(t, 2, c.Count("Polity"))
	assert.Equal(t, 0, c.Count("Geography"))

	qs := c.Questions()
	require.Len(t, qs, 4)
	assert.Equal(t, "1", qs[0].ID)
	assert.Equal(t, "A", qs[1].CorrectOption)
	assert.Equal(t, "Economy_0", qs[2].ID)
	assert.Equal(t, "Banking", qs[2].Topic)
}

func TestCorpus_TopicsAndYears(t *testing.T) {
	c, err := Load(testFS())
	require.NoError(t, err)

	assert.Equal(t, []string{"Judiciary", "Parliament"}, c.Topics([]string{"Polity"}))
	assert.Equal(t, []string{"Banking", "Judiciary", "Parliament"}, c.Topics([]string{"Economy", "Polity", "Polity"}))
	assert.Equal(t, []int{2021, 2020, 2018}, c.Years([]string{"Polity", "Economy"}))
	assert.Empty(t, c.Topics(nil))
}

func TestCorpus_QuestionsAreCopies(t *testing.T) {
	c, err := Load(testFS())
	require.NoError(t, err)

	qs := c.Questions()
	qs[0].Options[0] = "mutated"
	qs[0].Prompt = "mutated"

	again := c.Questions()
	assert.Equal(t, "a", again[0].Options[0])
	assert.Equal(t, "q1", again[0].Prompt)
}

func TestLoad_RejectsIncompatibleFormat(t *testing.T) {
	fsys := testFS()
	fsys["manifest.json"] = &fstest.MapFile{Data: []byte(`{"format": "v2.0.0", "subjects": [{"name": "Polity", "file": "polity.json"}]}`)}

	_, err := Load(fsys)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIncompatible))
}

func TestLoad_RejectsInvalidFormatString(t *testing.T) {
	fsys := testFS()
	fsys["manifest.json"] = &fstest.MapFile{Data: []byte(`{"format": "one", "subjects": [{"name": "Polity", "file": "polity.json"}]}`)}

	_, err := Load(fsys)
	assert.ErrorIs(t, err, ErrIncompatible)
}

func TestLoad_SchemaErrorNamesFile(t *testing.T) {
	fsys := testFS()
	fsys["economy.json"] = &fstest.MapFile{Data: []byte(`{"not": "an array"}`)}

	_, err := Load(fsys)
	require.Error(t, err)

	var se *SchemaError
	require.True(t, errors.As(err, &se), "got %T: %v", err, err)
	assert.Equal(t, "economy.json", se.File)
	assert.Equal(t, "dataset", se.Schema)
}

func TestLoad_ManifestMissingSubjects(t *testing.T) {
	fsys := testFS()
	fsys["manifest.json"] = &fstest.MapFile{Data: []byte(`{"format": "v1.0.0"}`)}

	_, err := Load(fsys)
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, ManifestFile, se.File)
}

func TestLoad_DuplicateSubject(t *testing.T) {
	fsys := testFS()
	fsys["manifest.json"] = &fstest.MapFile{Data: []byte(`{"format": "v1.0.0", "subjects": [
		{"name": "Polity", "file": "polity.json"},
		{"name": "Polity", "file": "economy.json"}
	]}`)}

	_, err := Load(fsys)
	assert.Error(t, err)
}

func TestLoad_MissingDataset(t *testing.T) {
	fsys := testFS()
	delete(fsys, "economy.json")

	_, err := Load(fsys)
	assert.Error(t, err)
}

func TestLoadDir_NotADirectory(t *testing.T) {
	_, err := LoadDir("corpus.go")
	assert.Error(t, err)
}

func TestLoadDir_Data(t *testing.T) {
	c, err := LoadDir("data")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Questions())
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, c, again)

	subjects := c.Subjects()
	require.NotEmpty(t, subjects)
	for _, s := range subjects {
		assert.Positive(t, c.Count(s), "subject %s has no questions", s)
	}

	seen := make(map[string]bool)
	for _, q := range c.Questions() {
		key := q.Subject + "/" + q.ID
		assert.False(t, seen[key], "duplicate question id %s", key)
		seen[key] = true
		_, ok := q.CorrectIndex()
		assert.True(t, ok, "question %s has unreadable answer %q", key, q.CorrectOption)
	}
}

func TestFromQuestions(t *testing.T) {
	c := FromQuestions([]Question{
		{ID: "1", Subject: "B", Topic: "t2", Year: 2019},
		{ID: "2", Subject: "A", Topic: "t1", Year: 2020},
		{ID: "3", Subject: "B", Topic: "t1", Year: 2020},
	})
	assert.Equal(t, []string{"B", "A"}, c.Subjects())
	assert.Equal(t, 2, c.Count("B"))
	assert.Equal(t, []string{"t1", "t2"}, c.Topics([]string{"B"}))
	assert.Equal(t, []int{2020, 2019}, c.Years([]string{"A", "B"}))
}
