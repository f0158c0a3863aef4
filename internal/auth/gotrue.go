package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	goTruePrefix   = "/auth/v1"
	goTrueJWKSPath = "/.well-known/jwks.json"
)

// GoTrueConfig configures a GoTrue provider.
type GoTrueConfig struct {
	// URL is the project URL; the auth API lives under /auth/v1.
	URL    string
	APIKey string

	// VerifyTokens checks access token signatures against the provider JWKS.
	// When false Verify asks the provider's user endpoint instead.
	VerifyTokens bool
}

// GoTrue is a Provider backed by the GoTrue REST API (Supabase Auth).
type GoTrue struct {
	base     string
	apiKey   string
	http     *http.Client
	verifier *oidc.IDTokenVerifier
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewGoTrue creates a GoTrue provider. The JWKS key set is fetched lazily on
// the first verification and refreshed when an unknown key id appears.
func NewGoTrue(cfg GoTrueConfig, client *http.Client, tracer trace.Tracer, logger *slog.Logger) *GoTrue {
	base := strings.TrimRight(cfg.URL, "/") + goTruePrefix
	g := &GoTrue{
		base:   base,
		apiKey: cfg.APIKey,
		http:   client,
		tracer: tracer,
		logger: logger.With("provider", "gotrue"),
	}

	if cfg.VerifyTokens {
		keyCtx := oidc.ClientContext(context.Background(), client)
		keys := oidc.NewRemoteKeySet(keyCtx, base+goTrueJWKSPath)
		g.verifier = oidc.NewVerifier(base, keys, &oidc.Config{
			SkipClientIDCheck:    true,
			SupportedSigningAlgs: []string{oidc.RS256, oidc.ES256},
		})
	}

	return g
}

type goTrueCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type goTrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type goTrueSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	User         goTrueUser `json:"user"`

	// Present when signup returns a bare user awaiting confirmation.
	ID    string `json:"id"`
	Email string `json:"email"`
}

type goTrueError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (e goTrueError) text() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// SignUp registers a user. Projects that require email confirmation answer
// with a bare user and no tokens, which yields a nil session.
func (g *GoTrue) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var out goTrueSession
	if err := g.do(ctx, "auth.signup", http.MethodPost, "/signup", "", goTrueCredentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, nil
	}
	return g.session(out), nil
}

func (g *GoTrue) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var out goTrueSession
	if err := g.do(ctx, "auth.signin", http.MethodPost, "/token?grant_type=password", "", goTrueCredentials{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without access token", ErrProvider)
	}
	return g.session(out), nil
}

func (g *GoTrue) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	body := map[string]string{"refresh_token": refreshToken}

	var out goTrueSession
	if err := g.do(ctx, "auth.refresh", http.MethodPost, "/token?grant_type=refresh_token", "", body, &out); err != nil {
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response without access token", ErrProvider)
	}
	return g.session(out), nil
}

func (g *GoTrue) SignOut(ctx context.Context, accessToken string) error {
	return g.do(ctx, "auth.signout", http.MethodPost, "/logout", accessToken, nil, nil)
}

// Verify checks the token signature, issuer and expiry against the JWKS when
// verification is enabled, otherwise it asks the user endpoint.
func (g *GoTrue) Verify(ctx context.Context, accessToken string) error {
	if g.verifier != nil {
		if _, err := g.verifier.Verify(ctx, accessToken); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidToken, err)
		}
		return nil
	}

	var user goTrueUser
	if err := g.do(ctx, "auth.user", http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return err
	}
	if user.ID == "" {
		return ErrInvalidToken
	}
	return nil
}

func (g *GoTrue) session(s goTrueSession) *Session {
	out := &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		User:         User{ID: s.User.ID, Email: s.User.Email},
	}
	switch {
	case s.ExpiresAt > 0:
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0)
	case s.ExpiresIn > 0:
		out.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second)
	}
	return out
}

func (g *GoTrue) do(ctx context.Context, op, method, path, bearer string, in, out any) error {
	ctx, span := g.tracer.Start(ctx, op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.request.method", method)),
	)
	defer span.End()

	err := g.exchange(ctx, method, path, bearer, in, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, op+" failed")
		g.logger.Debug("provider call failed", "op", op, "error", err)
	}
	return err
}

func (g *GoTrue) exchange(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.base+path, body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrProvider, err)
	}
	req.Header.Set("apikey", g.apiKey)
	if bearer == "" {
		bearer = g.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := g.http.Do(req)
	if err != nil {
		return &ProviderError{
			Status:  http.StatusBadGateway,
			Message: "Could not reach the authentication service.",
			Err:     fmt.Errorf("%w: %w", ErrProvider, err),
		}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrProvider, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return providerError(res.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrProvider, err)
	}
	return nil
}

func providerError(status int, data []byte) error {
	var body goTrueError
	_ = json.Unmarshal(data, &body)

	message := body.text()
	if message == "" {
		message = http.StatusText(status)
	}

	return &ProviderError{
		Status:  status,
		Message: message,
		Err:     classify(status, body.ErrorCode, message),
	}
}

func classify(status int, code, message string) error {
	switch code {
	case "invalid_credentials":
		return ErrInvalidCredentials
	case "user_already_exists", "email_exists":
		return ErrUserExists
	case "weak_password":
		return ErrWeakPassword
	case "refresh_token_not_found", "refresh_token_already_used", "bad_jwt", "session_not_found":
		return ErrInvalidToken
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "already registered"):
		return ErrUserExists
	case strings.Contains(lower, "invalid login credentials"):
		return ErrInvalidCredentials
	case strings.Contains(lower, "password should"):
		return ErrWeakPassword
	case status == http.StatusUnauthorized || strings.Contains(lower, "refresh token"):
		return ErrInvalidToken
	}
	return ErrProvider
}
