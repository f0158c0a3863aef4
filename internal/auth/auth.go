// Package auth talks to the identity provider and keeps the per-browser
// session that the session gate observes.
package auth

import (
	"context"
	"strings"
	"time"
)

// User is the identity attached to a session.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// DisplayName returns the local part of the email address.
func (u User) DisplayName() string {
	name, _, _ := strings.Cut(u.Email, "@")
	return name
}

// Session is the token set issued by the provider. Callers treat it as
// read-only; a non-nil session means authenticated.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         User
}

// Expired reports whether the access token expires within leeway of now.
func (s *Session) Expired(now time.Time, leeway time.Duration) bool {
	return !s.ExpiresAt.IsZero() && now.Add(leeway).After(s.ExpiresAt)
}

// EventType names a session change.
type EventType string

const (
	SignedIn       EventType = "SIGNED_IN"
	SignedOut      EventType = "SIGNED_OUT"
	TokenRefreshed EventType = "TOKEN_REFRESHED"
)

// Event is delivered to subscribers whenever the session changes.
// Session is nil for SignedOut.
type Event struct {
	Type    EventType
	Session *Session
}

// Provider is the identity backend. Implementations hold no per-browser state.
type Provider interface {
	// SignUp registers a user. A nil session with a nil error means the
	// provider requires email verification before sign-in.
	SignUp(ctx context.Context, email, password string) (*Session, error)
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Refresh(ctx context.Context, refreshToken string) (*Session, error)
	SignOut(ctx context.Context, accessToken string) error

	// Verify checks that an access token is still valid.
	Verify(ctx context.Context, accessToken string) error
}
