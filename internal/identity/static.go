package identity

import (
	"context"
	"sync"
)

// Static is an in-memory Provider for tests and headless runs.
type Static struct {
	mu   sync.Mutex
	user *User
	hub  hub
}

var _ Provider = (*Static)(nil)

// NewStatic returns a provider signed in as u. A zero User starts signed out.
func NewStatic(u User) *Static {
	s := &Static{}
	if u.ID != "" {
		s.user = &u
	}
	return s
}

// SignIn switches to u and notifies subscribers.
func (s *Static) SignIn(u User) {
	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	s.hub.publish(Event{Kind: EventSignedIn, User: u})
}

func (s *Static) CurrentUser() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s *Static) Subscribe() (<-chan Event, func()) {
	return s.hub.subscribe()
}

func (s *Static) SignOut(ctx context.Context) error {
	s.mu.Lock()
	prev := s.user
	s.user = nil
	s.mu.Unlock()
	if prev != nil {
		s.hub.publish(Event{Kind: EventSignedOut, User: *prev})
	}
	return nil
}
