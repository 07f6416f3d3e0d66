// Package identity tells the rest of the app who is signed in.
package identity

import (
	"context"
	"errors"
	"sync"
)

// ErrInvalidCredentials is returned by SignIn for unusable input.
var ErrInvalidCredentials = errors.New("invalid credentials")

// User is the signed-in account.
type User struct {
	ID          string
	Email       string
	DisplayName string
}

// EventKind distinguishes identity changes.
type EventKind int

const (
	EventSignedIn EventKind = iota
	EventSignedOut
)

func (k EventKind) String() string {
	if k == EventSignedIn {
		return "signed_in"
	}
	return "signed_out"
}

// Event is delivered to subscribers when the identity changes.
type Event struct {
	Kind EventKind
	User User
}

// Provider exposes the current user and identity changes.
type Provider interface {
	// CurrentUser returns the signed-in user, false when nobody is.
	CurrentUser() (User, bool)

	// Subscribe returns a channel of identity events and a function that
	// cancels the subscription and closes the channel.
	Subscribe() (<-chan Event, func())

	// SignOut ends the current session.
	SignOut(ctx context.Context) error
}

// hub fans identity events out to subscribers. Slow subscribers miss
// events rather than blocking the publisher.
type hub struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func (h *hub) subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.subs == nil {
		h.subs = make(map[int]chan Event)
	}
	id := h.next
	h.next++
	ch := make(chan Event, 8)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subs, id)
			close(ch)
		})
	}
}

func (h *hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
