package session

import (
	"context"

	"github.com/JaimeStill/agropulse/internal/auth"
)

type gateKey struct{}

// WithGate returns a copy of ctx carrying g.
func WithGate(ctx context.Context, g *Gate) context.Context {
	return context.WithValue(ctx, gateKey{}, g)
}

// FromContext returns the gate stored by the session middleware.
func FromContext(ctx context.Context) (*Gate, bool) {
	g, ok := ctx.Value(gateKey{}).(*Gate)
	return g, ok
}

// User returns the signed-in user for the request, if any.
func User(ctx context.Context) (*auth.User, bool) {
	g, ok := FromContext(ctx)
	if !ok {
		return nil, false
	}
	s := g.Session()
	if s == nil {
		return nil, false
	}
	u := s.User
	return &u, true
}
