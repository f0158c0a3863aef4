package session

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/agropulse/internal/auth"
	"github.com/JaimeStill/agropulse/pkg/lifecycle"
)

const (
	defaultReadyWait   = 2 * time.Second
	minSweepInterval   = time.Second
	pendingRefreshSecs = "1"
)

// Config shapes the per-browser gates.
type Config struct {
	CookieName   string
	CookieSecure bool
	IdleTimeout  time.Duration
	Paths        Paths

	// Verify makes each browser's client verify access tokens with the provider.
	Verify bool

	// ReadyWait bounds how long a request waits for a new gate to leave
	// Checking before the pending page is served.
	ReadyWait time.Duration
}

type entry struct {
	gate     *Gate
	lastSeen time.Time
}

// Manager owns one auth client and gate per browser, keyed by a random
// client id cookie. Gates idle longer than the configured timeout are closed.
type Manager struct {
	provider auth.Provider
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	gates  map[string]*entry
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager creates a Manager with no gates.
func NewManager(provider auth.Provider, cfg Config, logger *slog.Logger) *Manager {
	if cfg.ReadyWait <= 0 {
		cfg.ReadyWait = defaultReadyWait
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		provider: provider,
		cfg:      cfg,
		logger:   logger.With("system", "session"),
		now:      time.Now,
		gates:    make(map[string]*entry),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the idle sweep until the coordinator shuts down, then closes
// every gate.
func (m *Manager) Start(lc *lifecycle.Coordinator) {
	interval := max(m.cfg.IdleTimeout/2, minSweepInterval)

	m.wg.Go(func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-lc.Context().Done():
				return
			case <-ticker.C:
				if n := m.Sweep(m.now()); n > 0 {
					m.logger.Debug("evicted idle gates", "count", n)
				}
			}
		}
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		m.Close()
		m.logger.Info("session manager shutdown complete")
	})
}

// Len returns the number of live gates.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.gates)
}

// Gate returns the gate for id, mounting one when none exists.
func (m *Manager) Gate(id string) *Gate {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.gates[id]; ok {
		e.lastSeen = m.now()
		return e.gate
	}

	opts := []auth.ClientOption{auth.WithVerification(m.cfg.Verify)}
	client := auth.NewClient(m.provider, m.logger.With("client", id), opts...)
	g := Mount(m.ctx, client, m.cfg.Paths, m.logger.With("client", id))

	if m.closed {
		g.Close()
		return g
	}

	m.gates[id] = &entry{gate: g, lastSeen: m.now()}
	return g
}

// Sweep closes gates not seen since now minus the idle timeout and returns
// how many were evicted.
func (m *Manager) Sweep(now time.Time) int {
	cutoff := now.Add(-m.cfg.IdleTimeout)

	m.mu.Lock()
	var stale []*Gate
	for id, e := range m.gates {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e.gate)
			delete(m.gates, id)
		}
	}
	m.mu.Unlock()

	for _, g := range stale {
		g.Close()
	}
	return len(stale)
}

// Close stops the sweep and closes every gate. Gates requested afterwards are
// returned already closed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	gates := m.gates
	m.gates = make(map[string]*entry)
	m.mu.Unlock()

	m.cancel()
	for _, e := range gates {
		e.gate.Close()
	}
	m.wg.Wait()
}

// Lookup returns the live gate for id without mounting one.
func (m *Manager) Lookup(id string) (*Gate, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.gates[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = m.now()
	return e.gate, true
}

// Middleware resolves the browser's gate, stores it in the request context
// and enforces the gate's routing decision. Gates are mounted only for gated
// paths; other pages see an existing gate but never create one. Each gated
// request re-reads the session so expiring tokens are renewed and revoked
// ones sign the browser out.
func (m *Manager) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !m.cfg.Paths.Gated(r.URL.Path) {
				if g, ok := m.existing(r); ok {
					r = r.WithContext(WithGate(r.Context(), g))
				}
				next.ServeHTTP(w, r)
				return
			}

			g := m.Gate(m.clientID(w, r))

			ctx, cancel := context.WithTimeout(r.Context(), m.cfg.ReadyWait)
			_ = g.WaitReady(ctx)
			cancel()

			g.Refresh(r.Context())

			decision := g.Decide(r.URL)
			switch decision.Outcome {
			case Redirect:
				status := http.StatusSeeOther
				if r.Method == http.MethodGet || r.Method == http.MethodHead {
					status = http.StatusFound
				}
				http.Redirect(w, r, decision.Location, status)
			case Pending:
				writePending(w)
			default:
				next.ServeHTTP(w, r.WithContext(WithGate(r.Context(), g)))
			}
		})
	}
}

func (m *Manager) existing(r *http.Request) (*Gate, bool) {
	c, err := r.Cookie(m.cfg.CookieName)
	if err != nil {
		return nil, false
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return nil, false
	}
	return m.Lookup(id.String())
}

func (m *Manager) clientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(m.cfg.CookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// writePending serves the blank placeholder shown while a gate is checking.
func writePending(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Retry-After", pendingRefreshSecs)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html><html><head><meta http-equiv="refresh" content="` + pendingRefreshSecs + `"></head><body></body></html>`))
}
