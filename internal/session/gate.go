// Package session keeps one auth client and gate per browser and guards the
// protected pages with the gate's routing decision.
package session

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/agropulse/internal/auth"
)

// State is the gate's view of the browser's authentication.
type State int

const (
	Checking State = iota
	Anonymous
	Authenticated
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Outcome is what the HTTP layer should do with a request.
type Outcome int

const (
	Render Outcome = iota
	Redirect
	Pending
)

// Decision is the gate's routing verdict for one request.
type Decision struct {
	Outcome  Outcome
	Location string
}

// Paths identifies the login and logout endpoints and the protected
// application root.
type Paths struct {
	Login  string
	Logout string
	App    string
}

// Protected reports whether path lives under the application root.
func (p Paths) Protected(path string) bool {
	return path == p.App || strings.HasPrefix(path, p.App+"/")
}

// Gated reports whether a request to path needs the browser's gate.
func (p Paths) Gated(path string) bool {
	return p.Protected(path) || path == p.Login || path == p.Logout
}

// Gate tracks one browser's session state. It leaves Checking exactly once,
// either when the initial session fetch returns or when the first provider
// event arrives, and afterwards changes only in response to provider events.
type Gate struct {
	client *auth.Client
	paths  Paths
	logger *slog.Logger

	mu      sync.RWMutex
	state   State
	session *auth.Session

	ready     chan struct{}
	readyOnce sync.Once

	valuesMu sync.Mutex
	values   map[any]any

	unsubscribe func()
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// Mount creates a gate for client, subscribes it to session changes and starts
// the initial session fetch. Close releases both.
func Mount(ctx context.Context, client *auth.Client, paths Paths, logger *slog.Logger) *Gate {
	ctx, cancel := context.WithCancel(ctx)

	g := &Gate{
		client: client,
		paths:  paths,
		logger: logger,
		state:  Checking,
		ready:  make(chan struct{}),
		cancel: cancel,
	}

	g.unsubscribe = client.Subscribe(g.apply)

	g.wg.Go(func() {
		s, err := client.Session(ctx)
		if err != nil {
			g.logger.Warn("initial session fetch failed", "error", err)
		}
		if ctx.Err() != nil {
			return
		}
		g.settle(s)
	})

	return g
}

// Client returns the auth client the gate observes.
func (g *Gate) Client() *auth.Client {
	return g.client
}

// State returns the current gate state.
func (g *Gate) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Session returns the session last reported by the provider, or nil.
func (g *Gate) Session() *auth.Session {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.session
}

// Attach returns the per-browser value stored under key, creating it with
// create on first use. Values live as long as the gate.
func (g *Gate) Attach(key any, create func() any) any {
	g.valuesMu.Lock()
	defer g.valuesMu.Unlock()

	if v, ok := g.values[key]; ok {
		return v
	}
	if g.values == nil {
		g.values = make(map[any]any)
	}
	v := create()
	g.values[key] = v
	return v
}

// Refresh re-reads an authenticated session from the auth client, which
// renews an expiring token and verifies it when configured. Any change
// reaches the gate as a provider event.
func (g *Gate) Refresh(ctx context.Context) {
	if g.State() != Authenticated {
		return
	}
	if _, err := g.client.Session(ctx); err != nil {
		g.logger.Debug("session refresh interrupted", "error", err)
	}
}

// WaitReady blocks until the gate has left Checking or ctx is done.
func (g *Gate) WaitReady(ctx context.Context) error {
	select {
	case <-g.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Decide applies the routing rules to a request target. Protected paths
// redirect anonymous browsers to the login page carrying the original target;
// the login page sends authenticated browsers on to their redirect target.
func (g *Gate) Decide(target *url.URL) Decision {
	state := g.State()

	switch {
	case g.paths.Protected(target.Path):
		switch state {
		case Checking:
			return Decision{Outcome: Pending}
		case Anonymous:
			return Decision{Outcome: Redirect, Location: g.loginLocation(target)}
		}
	case target.Path == g.paths.Login:
		if state == Authenticated {
			return Decision{Outcome: Redirect, Location: g.RedirectTarget(target.Query().Get("redirect"))}
		}
	}

	return Decision{Outcome: Render}
}

// RedirectTarget returns redirect when it is a local path other than the
// login page, otherwise the application root.
func (g *Gate) RedirectTarget(redirect string) string {
	if !strings.HasPrefix(redirect, "/") || strings.HasPrefix(redirect, "//") || strings.HasPrefix(redirect, "/\\") {
		return g.paths.App
	}
	u, err := url.Parse(redirect)
	if err != nil || u.Host != "" || u.Path == g.paths.Login {
		return g.paths.App
	}
	return redirect
}

// Close unsubscribes from the auth client, cancels the initial fetch and waits
// for it to return. It is safe to call more than once.
func (g *Gate) Close() {
	g.closeOnce.Do(func() {
		g.unsubscribe()
		g.cancel()
		g.wg.Wait()
	})
}

func (g *Gate) loginLocation(target *url.URL) string {
	q := url.Values{}
	q.Set("redirect", target.RequestURI())
	return g.paths.Login + "?" + q.Encode()
}

// settle resolves the initial fetch. It has no effect once an event has
// already moved the gate out of Checking.
func (g *Gate) settle(s *auth.Session) {
	g.mu.Lock()
	if g.state != Checking {
		g.mu.Unlock()
		return
	}
	g.set(s)
	g.mu.Unlock()
	g.markReady()
}

func (g *Gate) apply(e auth.Event) {
	g.mu.Lock()
	switch e.Type {
	case auth.SignedOut:
		g.set(nil)
	case auth.SignedIn, auth.TokenRefreshed:
		g.set(e.Session)
	}
	state := g.state
	g.mu.Unlock()

	g.markReady()
	g.logger.Debug("session event", "event", string(e.Type), "state", state.String())
}

// set requires g.mu to be held.
func (g *Gate) set(s *auth.Session) {
	g.session = s
	if s == nil {
		g.state = Anonymous
	} else {
		g.state = Authenticated
	}
}

func (g *Gate) markReady() {
	g.readyOnce.Do(func() { close(g.ready) })
}
