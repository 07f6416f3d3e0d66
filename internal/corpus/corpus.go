package corpus

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"sync"
)

//go:embed data/*.json
var embedded embed.FS

var (
	// ErrIncompatible is returned when the manifest format is not readable
	// by this build.
	ErrIncompatible = errors.New("incompatible corpus format")
)

// SchemaError reports a document that failed JSON Schema validation.
type SchemaError struct {
	Schema string
	File   string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: does not match %s schema: %v", e.File, e.Schema, e.Err)
	}
	return fmt.Sprintf("does not match %s schema: %v", e.Schema, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Corpus is the immutable, normalized question set.
type Corpus struct {
	manifest  Manifest
	questions []Question
	bySubject map[string][]int
	issues    []DataQualityIssue
}

var (
	defaultOnce   sync.Once
	defaultCorpus *Corpus
	defaultErr    error
)

// Default returns the corpus bundled with the binary. It is loaded once
// per process.
func Default() (*Corpus, error) {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embedded, "data")
		if err != nil {
			defaultErr = fmt.Errorf("open embedded corpus: %w", err)
			return
		}
		defaultCorpus, defaultErr = Load(sub)
	})
	return defaultCorpus, defaultErr
}

// LoadDir loads a corpus from a directory on disk.
func LoadDir(dir string) (*Corpus, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open corpus dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open corpus dir: %s is not a directory", dir)
	}
	return Load(os.DirFS(dir))
}

// Load reads the manifest and every dataset it names from fsys.
func Load(fsys fs.FS) (*Corpus, error) {
	raw, err := fs.ReadFile(fsys, ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := parseManifest(raw)
	if err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.File = ManifestFile
		}
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	datasets := make([]Dataset, 0, len(m.Subjects))
	for _, s := range m.Subjects {
		ds, err := readDataset(fsys, s)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}

	return newCorpus(*m, datasets), nil
}

func readDataset(fsys fs.FS, entry SubjectEntry) (Dataset, error) {
	name := path.Clean(entry.File)
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return Dataset{}, fmt.Errorf("read dataset %s: %w", name, err)
	}
	if err := validateDocument(datasetSchema, raw); err != nil {
		var se *SchemaError
		if errors.As(err, &se) {
			se.File = name
		}
		return Dataset{}, fmt.Errorf("load dataset %s: %w", entry.Name, err)
	}

	var records []RawRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset %s: %w", name, err)
	}
	return Dataset{Subject: entry.Name, Records: records}, nil
}

func newCorpus(m Manifest, datasets []Dataset) *Corpus {
	qs, issues := normalize(datasets)
	c := &Corpus{
		manifest:  m,
		questions: qs,
		bySubject: make(map[string][]int),
		issues:    issues,
	}
	for i, q := range qs {
		c.bySubject[q.Subject] = append(c.bySubject[q.Subject], i)
	}
	return c
}

// FromQuestions builds a corpus around already-normalized questions.
// Subjects keep their first-seen order.
func FromQuestions(questions []Question) *Corpus {
	c := &Corpus{
		manifest:  Manifest{Format: SupportedMajor + ".0.0"},
		bySubject: make(map[string][]int),
	}
	for i, q := range questions {
		if _, ok := c.bySubject[q.Subject]; !ok {
			c.manifest.Subjects = append(c.manifest.Subjects, SubjectEntry{Name: q.Subject})
		}
		c.bySubject[q.Subject] = append(c.bySubject[q.Subject], i)
		c.questions = append(c.questions, q.clone())
	}
	return c
}

// Format returns the manifest format version.
func (c *Corpus) Format() string { return c.manifest.Format }

// Questions returns a copy of every question in load order.
func (c *Corpus) Questions() []Question {
	out := make([]Question, len(c.questions))
	for i, q := range c.questions {
		out[i] = q.clone()
	}
	return out
}

// Subjects returns subject names in manifest order.
func (c *Corpus) Subjects() []string {
	out := make([]string, 0, len(c.manifest.Subjects))
	for _, s := range c.manifest.Subjects {
		out = append(out, s.Name)
	}
	return out
}

// Count returns the number of questions in a subject.
func (c *Corpus) Count(subject string) int {
	return len(c.bySubject[subject])
}

// Topics returns the distinct topics of the given subjects, ascending.
func (c *Corpus) Topics(subjects []string) []string {
	seen := make(map[string]bool)
	var out []string
	c.each(subjects, func(q Question) {
		if !seen[q.Topic] {
			seen[q.Topic] = true
			out = append(out, q.Topic)
		}
	})
	sort.Strings(out)
	return out
}

// Years returns the distinct years of the given subjects, newest first.
func (c *Corpus) Years(subjects []string) []int {
	seen := make(map[int]bool)
	var out []int
	c.each(subjects, func(q Question) {
		if !seen[q.Year] {
			seen[q.Year] = true
			out = append(out, q.Year)
		}
	})
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Report returns the data quality issues found while normalizing.
func (c *Corpus) Report() []DataQualityIssue {
	return append([]DataQualityIssue(nil), c.issues...)
}

func (c *Corpus) each(subjects []string, fn func(Question)) {
	seen := make(map[string]bool, len(subjects))
	for _, s := range subjects {
		if seen[s] {
			continue
		}
		seen[s] = true
		for _, i := range c.bySubject[s] {
			fn(c.questions[i])
		}
	}
}
