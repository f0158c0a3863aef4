package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/JaimeStill/agropulse/internal/auth"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tracer() trace.Tracer {
	return noop.NewTracerProvider().Tracer("test")
}

func TestUserDisplayName(t *testing.T) {
	u := auth.User{Email: "asha@farm.in"}
	if got := u.DisplayName(); got != "asha" {
		t.Errorf("DisplayName() = %q, want %q", got, "asha")
	}
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		expires time.Time
		want    bool
	}{
		{"no expiry", time.Time{}, false},
		{"future", now.Add(time.Hour), false},
		{"within leeway", now.Add(10 * time.Second), true},
		{"past", now.Add(-time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &auth.Session{ExpiresAt: tt.expires}
			if got := s.Expired(now, 30*time.Second); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	pe := &auth.ProviderError{Status: 400, Message: "Invalid login credentials", Err: auth.ErrInvalidCredentials}

	if got := auth.Message(pe); got != "Invalid login credentials" {
		t.Errorf("Message() = %q", got)
	}
	if !errors.Is(pe, auth.ErrInvalidCredentials) {
		t.Error("ProviderError does not unwrap to its sentinel")
	}
	if got := auth.MapHTTPStatus(pe); got != http.StatusUnauthorized {
		t.Errorf("MapHTTPStatus() = %d, want 401", got)
	}
	if got := auth.MapHTTPStatus(auth.ErrUserExists); got != http.StatusConflict {
		t.Errorf("MapHTTPStatus(ErrUserExists) = %d, want 409", got)
	}
}

func TestMemorySignUpAndSignIn(t *testing.T) {
	ctx := context.Background()
	m := auth.NewMemory()

	s, err := m.SignUp(ctx, " Farmer@Example.com ", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if s == nil || s.User.Email != "farmer@example.com" {
		t.Fatalf("SignUp session = %+v", s)
	}
	if err := m.Verify(ctx, s.AccessToken); err != nil {
		t.Errorf("Verify fresh token: %v", err)
	}

	if _, err := m.SignUp(ctx, "farmer@example.com", "secret1"); auth.Message(err) != "User already registered" {
		t.Errorf("duplicate SignUp error = %v", err)
	}

	if _, err := m.SignIn(ctx, "farmer@example.com", "wrong"); auth.Message(err) != "Invalid login credentials" {
		t.Errorf("bad password error = %v", err)
	}

	signed, err := m.SignIn(ctx, "farmer@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if signed.User.ID != s.User.ID {
		t.Errorf("SignIn user id = %q, want %q", signed.User.ID, s.User.ID)
	}
}

func TestMemoryWeakPassword(t *testing.T) {
	_, err := auth.NewMemory().SignUp(context.Background(), "a@b.c", "123")
	if !errors.Is(err, auth.ErrWeakPassword) {
		t.Errorf("error = %v, want ErrWeakPassword", err)
	}
}

func TestMemoryRefreshRotates(t *testing.T) {
	ctx := context.Background()
	m := auth.NewMemory()

	s, err := m.SignUp(ctx, "a@b.c", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	next, err := m.Refresh(ctx, s.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.AccessToken == s.AccessToken {
		t.Error("Refresh reused the access token")
	}
	if err := m.Verify(ctx, s.AccessToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("old token still valid: %v", err)
	}
	if _, err := m.Refresh(ctx, s.RefreshToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("reused refresh token error = %v", err)
	}

	if err := m.SignOut(ctx, next.AccessToken); err != nil {
		t.Fatal(err)
	}
	if err := m.Verify(ctx, next.AccessToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("token valid after sign out: %v", err)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []auth.EventType
}

func (r *recorder) listen(e auth.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e.Type)
}

func (r *recorder) types() []auth.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]auth.EventType(nil), r.events...)
}

func TestClientPublishesChanges(t *testing.T) {
	ctx := context.Background()
	c := auth.NewClient(auth.NewMemory(), discardLogger())

	rec := &recorder{}
	unsubscribe := c.Subscribe(rec.listen)

	if s, _ := c.Session(ctx); s != nil {
		t.Fatalf("new client has session %+v", s)
	}

	if _, err := c.SignUp(ctx, "a@b.c", "secret1"); err != nil {
		t.Fatal(err)
	}
	if err := c.SignOut(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.SignIn(ctx, "a@b.c", "bad-password"); err == nil {
		t.Fatal("SignIn with bad password succeeded")
	}

	want := []auth.EventType{auth.SignedIn, auth.SignedOut}
	if diff := cmp.Diff(want, rec.types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	unsubscribe()
	unsubscribe()
	if n := c.Listeners(); n != 0 {
		t.Errorf("Listeners() = %d after unsubscribe", n)
	}
}

func TestClientRefreshesExpiredSession(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	clock := func() time.Time { return now }

	m := auth.NewMemory()
	m.SetClock(clock)
	c := auth.NewClient(m, discardLogger(), auth.WithClock(clock))

	rec := &recorder{}
	c.Subscribe(rec.listen)

	first, err := c.SignUp(ctx, "a@b.c", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Hour)

	s, err := c.Session(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s == nil || s.AccessToken == first.AccessToken {
		t.Fatalf("Session() = %+v, want refreshed session", s)
	}

	want := []auth.EventType{auth.SignedIn, auth.TokenRefreshed}
	if diff := cmp.Diff(want, rec.types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestClientVerificationFailureSignsOut(t *testing.T) {
	ctx := context.Background()
	m := auth.NewMemory()
	c := auth.NewClient(m, discardLogger(), auth.WithVerification(true))

	rec := &recorder{}
	c.Subscribe(rec.listen)

	s, err := c.SignUp(ctx, "a@b.c", "secret1")
	if err != nil {
		t.Fatal(err)
	}

	// revoke at the provider without going through the client
	if err := m.SignOut(ctx, s.AccessToken); err != nil {
		t.Fatal(err)
	}

	got, err := c.Session(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("Session() = %+v, want nil", got)
	}

	want := []auth.EventType{auth.SignedIn, auth.SignedOut}
	if diff := cmp.Diff(want, rec.types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

// cancelAware fails verification with the caller's error once ctx is done.
type cancelAware struct{ *auth.Memory }

func (p cancelAware) Verify(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.Memory.Verify(ctx, token)
}

func TestClientSessionKeptWhenCallerCancels(t *testing.T) {
	c := auth.NewClient(cancelAware{auth.NewMemory()}, discardLogger(), auth.WithVerification(true))

	rec := &recorder{}
	c.Subscribe(rec.listen)

	if _, err := c.SignUp(context.Background(), "a@b.c", "secret1"); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := c.Session(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Session(canceled) error = %v, want context.Canceled", err)
	}

	got, err := c.Session(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("Session() = nil after a canceled check, want the signed-in session")
	}

	want := []auth.EventType{auth.SignedIn}
	if diff := cmp.Diff(want, rec.types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

type goTrueServer struct {
	*httptest.Server
	signups   atomic.Int32
	confirm   bool
	key       *rsa.PrivateKey
	jwksCalls atomic.Int32
}

func newGoTrueServer(t *testing.T, confirm bool) *goTrueServer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	g := &goTrueServer{confirm: confirm, key: key}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("apikey") != "anon-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		g.signups.Add(1)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["email"] == "taken@farm.in" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			io.WriteString(w, `{"code":422,"error_code":"user_already_exists","msg":"User already registered"}`)
			return
		}
		if g.confirm {
			io.WriteString(w, `{"id":"u1","email":"`+body["email"]+`"}`)
			return
		}
		io.WriteString(w, `{"access_token":"at","refresh_token":"rt","expires_in":3600,"user":{"id":"u1","email":"`+body["email"]+`"}}`)
	})

	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		switch r.URL.Query().Get("grant_type") {
		case "password":
			if body["password"] != "secret1" {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"error":"invalid_grant","error_description":"Invalid login credentials"}`)
				return
			}
			io.WriteString(w, `{"access_token":"at","refresh_token":"rt","expires_at":4102444800,"user":{"id":"u1","email":"`+body["email"]+`"}}`)
		case "refresh_token":
			if body["refresh_token"] != "rt" {
				w.WriteHeader(http.StatusBadRequest)
				io.WriteString(w, `{"error_code":"refresh_token_not_found","msg":"Invalid Refresh Token: Refresh Token Not Found"}`)
				return
			}
			io.WriteString(w, `{"access_token":"at2","refresh_token":"rt2","expires_in":3600,"user":{"id":"u1","email":"a@b.c"}}`)
		}
	})

	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("GET /auth/v1/.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		g.jwksCalls.Add(1)
		set := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
			Key:       &key.PublicKey,
			KeyID:     "k1",
			Algorithm: string(jose.RS256),
			Use:       "sig",
		}}}
		json.NewEncoder(w).Encode(set)
	})

	g.Server = httptest.NewServer(mux)
	t.Cleanup(g.Close)
	return g
}

func (g *goTrueServer) sign(t *testing.T, key *rsa.PrivateKey, claims map[string]any) string {
	t.Helper()

	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: jose.JSONWebKey{Key: key, KeyID: "k1"}},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		t.Fatal(err)
	}

	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatal(err)
	}
	jws, err := signer.Sign(payload)
	if err != nil {
		t.Fatal(err)
	}
	token, err := jws.CompactSerialize()
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func newGoTrue(srv *goTrueServer, verify bool) *auth.GoTrue {
	return auth.NewGoTrue(auth.GoTrueConfig{
		URL:          srv.URL,
		APIKey:       "anon-key",
		VerifyTokens: verify,
	}, srv.Client(), tracer(), discardLogger())
}

func TestGoTrueSignInAndOut(t *testing.T) {
	ctx := context.Background()
	srv := newGoTrueServer(t, false)
	g := newGoTrue(srv, false)

	s, err := g.SignIn(ctx, "a@b.c", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	want := &auth.Session{
		AccessToken:  "at",
		RefreshToken: "rt",
		ExpiresAt:    time.Unix(4102444800, 0),
		User:         auth.User{ID: "u1", Email: "a@b.c"},
	}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("session mismatch (-want +got):\n%s", diff)
	}

	if err := g.SignOut(ctx, s.AccessToken); err != nil {
		t.Errorf("SignOut: %v", err)
	}
}

func TestGoTrueErrors(t *testing.T) {
	ctx := context.Background()
	srv := newGoTrueServer(t, false)
	g := newGoTrue(srv, false)

	_, err := g.SignIn(ctx, "a@b.c", "nope")
	if !errors.Is(err, auth.ErrInvalidCredentials) || auth.Message(err) != "Invalid login credentials" {
		t.Errorf("bad password error = %v", err)
	}

	_, err = g.SignUp(ctx, "taken@farm.in", "secret1")
	if !errors.Is(err, auth.ErrUserExists) || auth.Message(err) != "User already registered" {
		t.Errorf("duplicate sign up error = %v", err)
	}

	_, err = g.Refresh(ctx, "stale")
	if !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("stale refresh error = %v", err)
	}
}

func TestGoTrueSignUpPendingConfirmation(t *testing.T) {
	srv := newGoTrueServer(t, true)
	g := newGoTrue(srv, false)

	s, err := g.SignUp(context.Background(), "new@farm.in", "secret1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if s != nil {
		t.Errorf("SignUp session = %+v, want nil while confirmation is pending", s)
	}
	if n := srv.signups.Load(); n != 1 {
		t.Errorf("signup calls = %d, want 1", n)
	}
}

func TestGoTrueRefresh(t *testing.T) {
	srv := newGoTrueServer(t, false)
	g := newGoTrue(srv, false)

	s, err := g.Refresh(context.Background(), "rt")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if s.AccessToken != "at2" || s.RefreshToken != "rt2" {
		t.Errorf("Refresh() = %+v", s)
	}
	if time.Until(s.ExpiresAt) <= 0 {
		t.Errorf("ExpiresAt %v not derived from expires_in", s.ExpiresAt)
	}
}

func TestGoTrueVerifyJWKS(t *testing.T) {
	ctx := context.Background()
	srv := newGoTrueServer(t, false)
	g := newGoTrue(srv, true)

	issuer := srv.URL + "/auth/v1"
	now := time.Now()

	valid := srv.sign(t, srv.key, map[string]any{
		"iss": issuer,
		"sub": "u1",
		"aud": "authenticated",
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
	if err := g.Verify(ctx, valid); err != nil {
		t.Errorf("Verify valid token: %v", err)
	}

	expired := srv.sign(t, srv.key, map[string]any{
		"iss": issuer,
		"sub": "u1",
		"aud": "authenticated",
		"exp": now.Add(-time.Hour).Unix(),
	})
	if err := g.Verify(ctx, expired); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("Verify expired token error = %v", err)
	}

	other, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	forged := srv.sign(t, other, map[string]any{
		"iss": issuer,
		"sub": "u1",
		"exp": now.Add(time.Hour).Unix(),
	})
	if err := g.Verify(ctx, forged); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("Verify forged token error = %v", err)
	}

	if srv.jwksCalls.Load() == 0 {
		t.Error("JWKS endpoint was never fetched")
	}
}
