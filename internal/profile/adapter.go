package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/prelims/internal/docstore"
	"github.com/abhisek/prelims/internal/identity"
	"github.com/abhisek/prelims/internal/scoring"
)

// Collection is the document collection holding user profiles.
const Collection = "users"

// DefaultSignupBonus is the coin balance of a new profile.
const DefaultSignupBonus = 100

// Adapter maps profiles onto documents in a docstore.Store.
type Adapter struct {
	store       docstore.Store
	signupBonus int
	now         func() time.Time
}

// NewAdapter creates an adapter. New profiles start with signupBonus coins.
func NewAdapter(store docstore.Store, signupBonus int) *Adapter {
	return &Adapter{store: store, signupBonus: signupBonus, now: time.Now}
}

// Fetch loads a profile. Returns ErrNotFound if the user has none.
func (a *Adapter) Fetch(ctx context.Context, userID string) (*UserProfile, error) {
	doc, err := a.store.Get(ctx, Collection, userID)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}

	var p UserProfile
	if err := docstore.Decode(doc.Fields, &p); err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	p.ID = userID
	p.Version = doc.Version
	if p.Stats == nil {
		p.Stats = scoring.Stats{}
	}
	for name, s := range p.Stats {
		if s.Topics == nil {
			s.Topics = map[string]scoring.TopicStat{}
			p.Stats[name] = s
		}
	}
	if p.TestHistory == nil {
		p.TestHistory = []scoring.TestRecord{}
	}
	return &p, nil
}

// Create stores the default profile for u and returns it.
func (a *Adapter) Create(ctx context.Context, u identity.User) (*UserProfile, error) {
	p := a.defaultProfile(u)
	if err := a.write(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	// A fresh document is at version 1 in every backend, but an overwrite
	// of a stale one is not; read it back to be sure.
	return a.Fetch(ctx, u.ID)
}

func (a *Adapter) write(ctx context.Context, p *UserProfile) error {
	fields, err := docstore.Encode(p)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, Collection, p.ID, docstore.Document{Fields: fields})
}

func (a *Adapter) defaultProfile(u identity.User) *UserProfile {
	name := strings.TrimSpace(u.DisplayName)
	if name == "" {
		name = identity.DefaultDisplayName
	}
	return &UserProfile{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: name,
		Coins:       a.signupBonus,
		Stats:       scoring.Stats{},
		TestHistory: []scoring.TestRecord{},
		CreatedAt:   a.now().UTC(),
	}
}

// Commit is one session's change to a profile.
type Commit struct {
	// Stats replaces the stored statistics wholesale.
	Stats scoring.Stats

	// Coins is added to the stored balance.
	Coins int

	// Record is appended to the test history.
	Record scoring.TestRecord

	// IfVersion guards against concurrent writers; 0 disables the guard.
	IfVersion int64
}

// Commit applies c atomically. Returns docstore.ErrConflict when the
// stored profile moved past c.IfVersion.
func (a *Adapter) Commit(ctx context.Context, userID string, c Commit) error {
	stats, err := docstore.Encode(c.Stats)
	if err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}
	record, err := docstore.Encode(c.Record)
	if err != nil {
		return fmt.Errorf("commit profile: %w", err)
	}

	upd := docstore.Update{
		Fields: []docstore.FieldUpdate{
			docstore.Replace("stats", stats),
			docstore.Increment("coins", int64(c.Coins)),
			docstore.Append("testHistory", record),
		},
		IfVersion: c.IfVersion,
	}
	if err := a.store.Update(ctx, Collection, userID, upd); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("commit profile: %w", err)
	}
	return nil
}
