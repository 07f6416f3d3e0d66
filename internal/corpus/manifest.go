package corpus

import (
	"encoding/json"
	"fmt"

	"golang.org/x/mod/semver"
)

// ManifestFile is the name of the manifest at the root of a corpus directory.
const ManifestFile = "manifest.json"

// SupportedMajor is the manifest format major version this build reads.
const SupportedMajor = "v1"

// Manifest lists the subject datasets of a corpus in display order.
type Manifest struct {
	Format   string         `json:"format"`
	Subjects []SubjectEntry `json:"subjects"`
}

// SubjectEntry names a subject and the dataset file holding its records.
type SubjectEntry struct {
	Name string `json:"name"`
	File string `json:"file"`
}

func parseManifest(raw []byte) (*Manifest, error) {
	if err := validateDocument(manifestSchema, raw); err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := checkFormat(m.Format); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(m.Subjects))
	for _, s := range m.Subjects {
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate subject %q in manifest", s.Name)
		}
		seen[s.Name] = true
	}
	return &m, nil
}

// checkFormat accepts any valid semantic version with the supported major.
func checkFormat(format string) error {
	if !semver.IsValid(format) {
		return fmt.Errorf("%w: invalid manifest format %q", ErrIncompatible, format)
	}
	if semver.Major(format) != SupportedMajor {
		return fmt.Errorf("%w: manifest format %s, want %s.x.y", ErrIncompatible, format, SupportedMajor)
	}
	return nil
}
