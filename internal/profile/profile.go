// Package profile owns the signed-in user's profile: loading it from the
// document store, folding graded sessions into it and committing the
// result.
package profile

import (
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/prelims/internal/scoring"
)

var (
	// ErrAuthRequired is returned when an operation needs a signed-in user.
	ErrAuthRequired = errors.New("sign in required")

	// ErrNotFound is returned when the user has no stored profile.
	ErrNotFound = errors.New("profile not found")
)

// UserProfile is the persisted per-user document.
type UserProfile struct {
	ID          string               `json:"-"`
	Email       string               `json:"email"`
	DisplayName string               `json:"displayName"`
	Coins       int                  `json:"coins"`
	Stats       scoring.Stats        `json:"stats"`
	TestHistory []scoring.TestRecord `json:"testHistory"`
	CreatedAt   time.Time            `json:"createdAt"`

	// Version is the store's document version, used to detect concurrent
	// writers.
	Version int64 `json:"-"`
}

// Clone returns a deep copy of p.
func (p *UserProfile) Clone() *UserProfile {
	if p == nil {
		return nil
	}
	out := *p
	out.Stats = p.Stats.Clone()
	out.TestHistory = make([]scoring.TestRecord, len(p.TestHistory))
	for i, r := range p.TestHistory {
		r.Subjects = append([]string(nil), r.Subjects...)
		out.TestHistory[i] = r
	}
	return &out
}

// Accuracy is the user's overall accuracy across all topics.
func (p *UserProfile) Accuracy() int {
	return p.Stats.Accuracy()
}

// Attempts is the total number of questions the user has answered.
func (p *UserProfile) Attempts() int {
	n := 0
	for _, s := range p.Stats {
		n += s.Attempts
	}
	return n
}

// CommitError reports a failed profile write. The cached profile is left
// as it was; Retryable errors can be replayed with Service.Retry.
type CommitError struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("%s profile: %v", e.Op, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }
