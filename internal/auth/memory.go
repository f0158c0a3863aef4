package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	memoryTokenTTL    = time.Hour
	minPasswordLength = 6
)

type memoryUser struct {
	user User
	hash []byte
}

type memoryToken struct {
	userID  string
	expires time.Time
}

// Memory is an in-process Provider for local development and tests. Users
// are confirmed on sign-up, so SignUp always returns a session.
type Memory struct {
	now func() time.Time

	mu      sync.Mutex
	users   map[string]*memoryUser
	access  map[string]memoryToken
	refresh map[string]string
}

// NewMemory creates an empty Memory provider.
func NewMemory() *Memory {
	return &Memory{
		now:     time.Now,
		users:   make(map[string]*memoryUser),
		access:  make(map[string]memoryToken),
		refresh: make(map[string]string),
	}
}

// SetClock overrides the time source used for token expiry.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

func (m *Memory) SignUp(_ context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ProviderError{
			Status:  http.StatusBadRequest,
			Message: "Unable to validate email address: invalid format",
			Err:     ErrProvider,
		}
	}
	if len(password) < minPasswordLength {
		return nil, &ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Message: fmt.Sprintf("Password should be at least %d characters.", minPasswordLength),
			Err:     ErrWeakPassword,
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %w", ErrProvider, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[email]; exists {
		return nil, &ProviderError{
			Status:  http.StatusUnprocessableEntity,
			Message: "User already registered",
			Err:     ErrUserExists,
		}
	}

	u := &memoryUser{
		user: User{ID: uuid.NewString(), Email: email},
		hash: hash,
	}
	m.users[email] = u

	return m.issue(u.user), nil
}

func (m *Memory) SignIn(_ context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)

	m.mu.Lock()
	u, ok := m.users[email]
	m.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(u.hash, []byte(password)) != nil {
		return nil, &ProviderError{
			Status:  http.StatusBadRequest,
			Message: "Invalid login credentials",
			Err:     ErrInvalidCredentials,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issue(u.user), nil
}

// Refresh rotates the token pair. A refresh token is single use.
func (m *Memory) Refresh(_ context.Context, refreshToken string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	access, ok := m.refresh[refreshToken]
	if !ok {
		return nil, &ProviderError{
			Status:  http.StatusBadRequest,
			Message: "Invalid Refresh Token: Refresh Token Not Found",
			Err:     ErrInvalidToken,
		}
	}
	delete(m.refresh, refreshToken)

	tok := m.access[access]
	delete(m.access, access)

	for _, u := range m.users {
		if u.user.ID == tok.userID {
			return m.issue(u.user), nil
		}
	}
	return nil, &ProviderError{
		Status:  http.StatusBadRequest,
		Message: "User not found",
		Err:     ErrInvalidToken,
	}
}

func (m *Memory) SignOut(_ context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.access, accessToken)
	for r, a := range m.refresh {
		if a == accessToken {
			delete(m.refresh, r)
		}
	}
	return nil
}

func (m *Memory) Verify(_ context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tok, ok := m.access[accessToken]
	if !ok || !m.now().Before(tok.expires) {
		return ErrInvalidToken
	}
	return nil
}

// issue requires m.mu to be held.
func (m *Memory) issue(u User) *Session {
	s := &Session{
		AccessToken:  uuid.NewString(),
		RefreshToken: uuid.NewString(),
		ExpiresAt:    m.now().Add(memoryTokenTTL),
		User:         u,
	}
	m.access[s.AccessToken] = memoryToken{userID: u.ID, expires: s.ExpiresAt}
	m.refresh[s.RefreshToken] = s.AccessToken
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
