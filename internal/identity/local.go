package identity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer = "prelims-local"

	// TokenTTL is how long a sign-in stays valid.
	TokenTTL = 30 * 24 * time.Hour

	// DefaultDisplayName is used when a user signs in without a name.
	DefaultDisplayName = "Aspirant"
)

// Claims is the payload of the local identity token.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Local is a Provider backed by an HS256-signed token stored in a file.
// Signing in with the same email always yields the same user id.
type Local struct {
	path   string
	secret []byte
	now    func() time.Time

	mu   sync.Mutex
	user *User
	hub  hub
}

var _ Provider = (*Local)(nil)

// NewLocal creates a provider using the token file at path. An existing,
// valid token signs the user in immediately; an expired or tampered one
// is ignored.
func NewLocal(path string, secret []byte) (*Local, error) {
	if len(secret) == 0 {
		return nil, errors.New("identity: signing secret is required")
	}
	l := &Local{path: path, secret: secret, now: time.Now}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("read token: %w", err)
	}

	if u, err := l.parse(strings.TrimSpace(string(raw))); err == nil {
		l.user = &u
	}
	return l, nil
}

// SignIn issues a token for email and stores it.
func (l *Local) SignIn(ctx context.Context, email, displayName string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return User{}, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = DefaultDisplayName
	}

	u := User{
		ID:          UserID(addr.Address),
		Email:       strings.ToLower(addr.Address),
		DisplayName: name,
	}
	token, err := l.issue(u)
	if err != nil {
		return User{}, fmt.Errorf("issue token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return User{}, fmt.Errorf("create token dir: %w", err)
	}
	if err := os.WriteFile(l.path, []byte(token+"\n"), 0o600); err != nil {
		return User{}, fmt.Errorf("write token: %w", err)
	}

	l.mu.Lock()
	l.user = &u
	l.mu.Unlock()

	l.hub.publish(Event{Kind: EventSignedIn, User: u})
	return u, nil
}

func (l *Local) CurrentUser() (User, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.user == nil {
		return User{}, false
	}
	return *l.user, true
}

func (l *Local) Subscribe() (<-chan Event, func()) {
	return l.hub.subscribe()
}

// SignOut removes the stored token. Signing out twice is not an error.
func (l *Local) SignOut(ctx context.Context) error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove token: %w", err)
	}

	l.mu.Lock()
	prev := l.user
	l.user = nil
	l.mu.Unlock()

	if prev != nil {
		l.hub.publish(Event{Kind: EventSignedOut, User: *prev})
	}
	return nil
}

func (l *Local) issue(u User) (string, error) {
	now := l.now()
	claims := &Claims{
		Email: u.Email,
		Name:  u.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(l.secret)
}

func (l *Local) parse(tokenStr string) (User, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return l.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(l.now),
	)
	if err != nil {
		return User{}, err
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.Subject == "" {
		return User{}, errors.New("invalid token claims")
	}
	return User{ID: c.Subject, Email: c.Email, DisplayName: c.Name}, nil
}

// UserID derives a stable user id from an email address.
func UserID(email string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+strings.ToLower(strings.TrimSpace(email)))).String()
}
