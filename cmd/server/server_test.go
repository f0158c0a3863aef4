package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/agropulse/internal/config"
	"github.com/JaimeStill/agropulse/internal/infrastructure"
	"github.com/JaimeStill/agropulse/pkg/module"
)

func newTestRouter(t *testing.T) (*module.Router, *infrastructure.Infrastructure) {
	t.Helper()

	cfg, err := config.Parse([]byte(`
[upstreams]
advanced_url = "http://advanced.invalid"
simple_url = "http://simple.invalid"

[auth]
provider = "memory"
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("infrastructure: %v", err)
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		t.Fatalf("modules: %v", err)
	}
	t.Cleanup(modules.Sessions.Close)

	router := buildRouter(infra)
	modules.Mount(router)
	return router, infra
}

func get(router http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	router, infra := newTestRouter(t)

	if rec := get(router, "/healthz"); rec.Code != http.StatusOK {
		t.Errorf("healthz: got %d, want 200", rec.Code)
	}

	if rec := get(router, "/readyz"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("readyz before startup: got %d, want 503", rec.Code)
	}

	infra.Lifecycle.WaitForStartup()

	rec := get(router, "/readyz")
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz after startup: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ready"`) {
		t.Errorf("readyz body: got %s", rec.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	get(router, "/api/dashboard")

	rec := get(router, "/metrics")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `agropulse_http_requests_total{code="200",method="GET",module="api"}`) {
		t.Errorf("metrics missing api request counter:\n%s", rec.Body.String())
	}
}

func TestRouting(t *testing.T) {
	router, _ := newTestRouter(t)

	tests := []struct {
		name   string
		path   string
		status int
		header string
		want   string
	}{
		{"api module", "/api/v1/achievements", http.StatusOK, "Content-Type", "application/json"},
		{"static assets", "/static/app.css", http.StatusOK, "", ""},
		{"landing page", "/", http.StatusOK, "Content-Type", "text/html"},
		{"login page", "/login", http.StatusOK, "Content-Type", "text/html"},
		{"protected page redirects", "/app", http.StatusFound, "Location", "/login?redirect=%2Fapp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(router, tt.path)
			if rec.Code != tt.status {
				t.Fatalf("status: got %d, want %d", rec.Code, tt.status)
			}
			if tt.header != "" && !strings.HasPrefix(rec.Header().Get(tt.header), tt.want) {
				t.Errorf("%s: got %q, want prefix %q", tt.header, rec.Header().Get(tt.header), tt.want)
			}
		})
	}
}
