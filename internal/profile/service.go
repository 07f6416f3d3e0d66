package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/abhisek/prelims/internal/corpus"
	"github.com/abhisek/prelims/internal/docstore"
	"github.com/abhisek/prelims/internal/identity"
	"github.com/abhisek/prelims/internal/logging"
	"github.com/abhisek/prelims/internal/scoring"
	"github.com/abhisek/prelims/internal/session"
)

// maxCommitAttempts bounds the refetch-and-reaggregate loop when another
// writer updates the profile first.
const maxCommitAttempts = 3

// DefaultCoinsPerTest is the reward for each submitted session.
const DefaultCoinsPerTest = 50

// Config configures a Service.
type Config struct {
	CoinsPerTest int
	Logger       *slog.Logger
}

// Outcome is a graded session and the change it makes to the profile.
type Outcome struct {
	SessionID   string
	Questions   []corpus.Question
	Answers     map[int]int
	Result      scoring.Result
	Summary     scoring.Summary
	Record      scoring.TestRecord
	CoinsEarned int

	// Committed is set once the change is in the store.
	Committed bool
}

// Service caches the signed-in user's profile and commits graded sessions
// to it. The cache only changes after a confirmed write.
type Service struct {
	adapter *Adapter
	ident   identity.Provider
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time

	mu      sync.Mutex
	profile *UserProfile
	pending []*Outcome

	unsubscribe func()
	done        chan struct{}
}

// NewService creates a service and starts following identity changes.
// Call Close to stop.
func NewService(adapter *Adapter, ident identity.Provider, cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	s := &Service{
		adapter: adapter,
		ident:   ident,
		cfg:     cfg,
		logger:  cfg.Logger,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	events, cancel := ident.Subscribe()
	s.unsubscribe = cancel
	go s.watch(events)
	return s
}

// Close stops following identity changes.
func (s *Service) Close() {
	s.unsubscribe()
	<-s.done
}

func (s *Service) watch(events <-chan identity.Event) {
	defer close(s.done)
	for ev := range events {
		s.mu.Lock()
		switch ev.Kind {
		case identity.EventSignedOut:
			s.profile = nil
			s.pending = nil
		case identity.EventSignedIn:
			if s.profile != nil && s.profile.ID != ev.User.ID {
				s.profile = nil
				s.pending = nil
			}
		}
		s.mu.Unlock()
		s.logger.Debug("identity changed", "event", ev.Kind.String(), "user", ev.User.ID)
	}
}

// Load returns the current user's profile, creating it on first sign-in.
func (s *Service) Load(ctx context.Context) (*UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadLocked(ctx)
	if err != nil {
		return nil, err
	}
	return p.Clone(), nil
}

func (s *Service) loadLocked(ctx context.Context) (*UserProfile, error) {
	user, ok := s.ident.CurrentUser()
	if !ok {
		s.profile = nil
		return nil, ErrAuthRequired
	}
	if s.profile != nil && s.profile.ID == user.ID {
		return s.profile, nil
	}

	p, err := s.adapter.Fetch(ctx, user.ID)
	if errors.Is(err, ErrNotFound) {
		p, err = s.adapter.Create(ctx, user)
		if err == nil {
			s.logger.Info("profile created", "user", user.ID, "coins", p.Coins)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if s.profile != nil && s.profile.ID != user.ID {
		s.pending = nil
	}
	s.profile = p
	return p, nil
}

// Profile returns a copy of the cached profile, or nil if none is loaded
// for the current user.
func (s *Service) Profile() *UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.ident.CurrentUser()
	if !ok || s.profile == nil || s.profile.ID != user.ID {
		return nil
	}
	return s.profile.Clone()
}

// RecordSession grades sub and commits it to the profile. Grading happens
// once; a conflicting write is resolved by refetching the profile and
// folding the same graded result into it. On any other failure, including
// a failed profile load, the outcome is kept for Retry and a *CommitError
// is returned along with it. The returned Outcome is the caller's copy.
func (s *Service) RecordSession(ctx context.Context, sub session.Submission) (*Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.ident.CurrentUser()
	if !ok {
		s.profile = nil
		return nil, ErrAuthRequired
	}
	if s.profile != nil && s.profile.ID != user.ID {
		s.profile = nil
		s.pending = nil
	}

	res := scoring.Grade(sub.Questions, sub.Answers)
	date := sub.FinishedAt
	if date.IsZero() {
		date = s.now()
	}
	out := &Outcome{
		SessionID:   sub.SessionID,
		Questions:   sub.Questions,
		Answers:     sub.Answers,
		Result:      res,
		Summary:     scoring.Summarize(sub.Questions, sub.Answers, res),
		Record:      scoring.NewRecord(sub.SessionID, date, sub.Questions, res),
		CoinsEarned: s.cfg.CoinsPerTest,
	}
	s.logger.Info("session graded",
		"session", sub.SessionID,
		"reason", string(sub.Reason),
		"correct", res.Correct,
		"total", len(sub.Questions),
	)
	s.pending = append(s.pending, out)

	err := s.loadForCommit(ctx)
	if err == nil {
		err = s.flushLocked(ctx)
	}
	cp := *out
	return &cp, err
}

// loadForCommit makes sure the profile is cached before pending outcomes
// are flushed. Load failures are retryable.
func (s *Service) loadForCommit(ctx context.Context) error {
	if _, err := s.loadLocked(ctx); err != nil {
		if errors.Is(err, ErrAuthRequired) {
			return err
		}
		s.logger.Warn("profile load failed", "pending", len(s.pending), "error", err)
		return &CommitError{Op: "load", Retryable: true, Err: err}
	}
	return nil
}

// Pending returns the outcomes still waiting to be committed, oldest first.
func (s *Service) Pending() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Outcome, len(s.pending))
	for i, o := range s.pending {
		out[i] = *o
	}
	return out
}

// Retry commits any pending outcomes.
func (s *Service) Retry(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.loadForCommit(ctx); err != nil {
		return err
	}
	return s.flushLocked(ctx)
}

func (s *Service) flushLocked(ctx context.Context) error {
	for len(s.pending) > 0 {
		out := s.pending[0]
		if err := s.commitLocked(ctx, out); err != nil {
			s.logger.Warn("profile commit failed",
				"session", out.SessionID,
				"pending", len(s.pending),
				"error", err,
			)
			var ce *CommitError
			if errors.As(err, &ce) && !ce.Retryable {
				// The stored profile is gone. Drop this outcome so later
				// sessions are not stuck behind it, and reload next time.
				s.pending = s.pending[1:]
				s.profile = nil
			}
			return err
		}
		out.Committed = true
		s.pending = s.pending[1:]
	}
	return nil
}

func (s *Service) commitLocked(ctx context.Context, out *Outcome) error {
	for attempt := 1; ; attempt++ {
		base := s.profile.Clone()
		stats := scoring.Aggregate(base.Stats, out.Questions, out.Result.PerQuestion)
		err := s.adapter.Commit(ctx, base.ID, Commit{
			Stats:     stats,
			Coins:     out.CoinsEarned,
			Record:    out.Record,
			IfVersion: base.Version,
		})
		if err == nil {
			base.Stats = stats
			base.Coins += out.CoinsEarned
			base.TestHistory = append(base.TestHistory, out.Record)
			base.Version++
			s.profile = base
			s.logger.Info("profile committed",
				"session", out.SessionID,
				"coins", base.Coins,
				"attempt", attempt,
			)
			return nil
		}
		if !errors.Is(err, docstore.ErrConflict) {
			return &CommitError{Op: "commit", Retryable: !errors.Is(err, ErrNotFound), Err: err}
		}
		if attempt == maxCommitAttempts {
			return &CommitError{Op: "commit", Retryable: true, Err: err}
		}

		s.logger.Debug("profile changed underneath, refetching", "session", out.SessionID, "attempt", attempt)
		fresh, ferr := s.adapter.Fetch(ctx, base.ID)
		if ferr != nil {
			return &CommitError{Op: "refetch", Retryable: true, Err: ferr}
		}
		s.profile = fresh
	}
}

// Reset replaces the current user's profile with a fresh one. Pending
// outcomes are dropped.
func (s *Service) Reset(ctx context.Context) (*UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.ident.CurrentUser()
	if !ok {
		return nil, ErrAuthRequired
	}
	p, err := s.adapter.Create(ctx, user)
	if err != nil {
		return nil, &CommitError{Op: "reset", Retryable: true, Err: err}
	}
	s.profile = p
	s.pending = nil
	s.logger.Info("profile reset", "user", user.ID)
	return p.Clone(), nil
}
