package auth

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshLeeway refreshes access tokens shortly before they expire.
const refreshLeeway = 30 * time.Second

// Listener receives session change events.
type Listener func(Event)

// Client holds one browser's session and notifies listeners when it changes.
// Listeners run synchronously, in registration order, on the goroutine that
// caused the change, so a caller observes every listener's reaction once the
// changing call returns.
type Client struct {
	provider Provider
	verify   bool
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	session *Session

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int

	refresh singleflight.Group
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithVerification makes Session verify the access token with the provider
// before reporting it.
func WithVerification(verify bool) ClientOption {
	return func(c *Client) { c.verify = verify }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient creates a Client with no session.
func NewClient(provider Provider, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		provider:  provider,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn for session changes and returns a function that
// removes it. The returned function is safe to call more than once.
func (c *Client) Subscribe(fn Listener) (unsubscribe func()) {
	c.listenersMu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.listenersMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.listenersMu.Lock()
			delete(c.listeners, id)
			c.listenersMu.Unlock()
		})
	}
}

// Listeners returns the number of registered listeners.
func (c *Client) Listeners() int {
	c.listenersMu.Lock()
	defer c.listenersMu.Unlock()
	return len(c.listeners)
}

// Session returns the current session, refreshing it when the access token is
// about to expire. A failed refresh or verification signs the browser out and
// returns a nil session. When ctx ends first the session is kept and ctx's
// error is returned.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	c.mu.RLock()
	s := c.session
	c.mu.RUnlock()

	if s == nil {
		return nil, nil
	}

	if s.Expired(c.now(), refreshLeeway) {
		refreshed, err := c.refreshSession(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("session refresh failed", "error", err)
			c.clear(s)
			return nil, nil
		}
		s = refreshed
	}

	if c.verify {
		if err := c.provider.Verify(ctx, s.AccessToken); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("session verification failed", "error", err)
			c.clear(s)
			return nil, nil
		}
	}

	return s, nil
}

// SignIn authenticates with email and password.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	s, err := c.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	c.set(s, SignedIn)
	return s, nil
}

// SignUp registers a new user. When the provider issues a session right away
// the browser is signed in; a nil session means verification is pending.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	s, err := c.provider.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if s != nil {
		c.set(s, SignedIn)
	}
	return s, nil
}

// SignOut ends the session locally and at the provider. The local session is
// cleared even when the provider call fails.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.RLock()
	s := c.session
	c.mu.RUnlock()

	if s == nil {
		return nil
	}

	err := c.provider.SignOut(ctx, s.AccessToken)
	c.clear(s)
	return err
}

func (c *Client) refreshSession(ctx context.Context, stale *Session) (*Session, error) {
	v, err, _ := c.refresh.Do(stale.RefreshToken, func() (any, error) {
		c.mu.RLock()
		current := c.session
		c.mu.RUnlock()
		if current != stale && current != nil {
			return current, nil
		}

		s, err := c.provider.Refresh(ctx, stale.RefreshToken)
		if err != nil {
			return nil, err
		}
		c.set(s, TokenRefreshed)
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (c *Client) set(s *Session, kind EventType) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
	c.publish(Event{Type: kind, Session: s})
}

// clear signs out only if s is still the current session.
func (c *Client) clear(s *Session) {
	c.mu.Lock()
	if c.session != s {
		c.mu.Unlock()
		return
	}
	c.session = nil
	c.mu.Unlock()
	c.publish(Event{Type: SignedOut})
}

func (c *Client) publish(e Event) {
	c.listenersMu.Lock()
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	c.listenersMu.Unlock()

	slices.Sort(ids)
	for _, id := range ids {
		c.listenersMu.Lock()
		fn, ok := c.listeners[id]
		c.listenersMu.Unlock()
		if ok {
			fn(e)
		}
	}
}
