package middleware_test

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/agropulse/pkg/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	mw.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "first")
			next.ServeHTTP(w, r)
		})
	})

	mw.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "second")
			next.ServeHTTP(w, r)
		})
	})

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	want := []string{"first", "second", "handler"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestCORSDisabled(t *testing.T) {
	cfg := &middleware.CORSConfig{Enabled: false}
	handler := middleware.CORS(cfg)(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://example.com")
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("CORS headers should not be set when disabled")
	}
}

func TestCORSOrigins(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    string
	}{
		{"listed origin", []string{"http://example.com"}, "http://example.com", "http://example.com"},
		{"unlisted origin", []string{"http://example.com"}, "http://evil.com", ""},
		{"wildcard echoes origin", []string{"*"}, "http://localhost:5173", "http://localhost:5173"},
		{"no origin header", []string{"*"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &middleware.CORSConfig{
				Enabled:        true,
				Origins:        tt.origins,
				AllowedMethods: []string{"GET", "POST"},
				AllowedHeaders: []string{"Content-Type"},
				MaxAge:         3600,
			}
			handler := middleware.CORS(cfg)(okHandler())

			rec := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("allow-origin: got %q, want %q", got, tt.want)
			}
			if tt.want != "" {
				if got := rec.Header().Get("Access-Control-Max-Age"); got != "3600" {
					t.Errorf("max-age: got %q, want 3600", got)
				}
				if got := rec.Header().Get("Vary"); got != "Origin" {
					t.Errorf("vary: got %q, want Origin", got)
				}
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:        true,
		Origins:        []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}

	var reached bool
	handler := middleware.CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("OPTIONS", "/v1/get-advisory", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", rec.Code)
	}
	if reached {
		t.Error("preflight should not reach the handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
		t.Errorf("allow-methods: got %q", got)
	}
}

func TestCORSCredentials(t *testing.T) {
	cfg := &middleware.CORSConfig{
		Enabled:          true,
		Origins:          []string{"http://example.com"},
		AllowCredentials: true,
	}
	handler := middleware.CORS(cfg)(okHandler())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://example.com")
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("credentials header not set")
	}
}

func TestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/v1/weather", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "status=502", "uri=/v1/weather"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
}

func TestLoggerDiscard(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := middleware.Logger(logger)(okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
}

func TestRecordDefaultsToOK(t *testing.T) {
	rec := middleware.Record(httptest.NewRecorder())
	rec.Write([]byte("body"))

	if rec.Status() != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Status())
	}
	if again := middleware.Record(rec); again != rec {
		t.Error("Record should reuse an existing recorder")
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := middleware.NewHTTPMetrics(reg)

	handler := middleware.Metrics(m, "api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	for range 2 {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/v1/get-advisory", nil))
	}

	expected := `
# HELP agropulse_http_requests_total HTTP requests served, by module, method and status code.
# TYPE agropulse_http_requests_total counter
agropulse_http_requests_total{code="500",method="POST",module="api"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "agropulse_http_requests_total"); err != nil {
		t.Error(err)
	}
}

func TestCORSConfigFinalizeDefaults(t *testing.T) {
	cfg := &middleware.CORSConfig{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if diff := cmp.Diff([]string{"*"}, cfg.Origins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"GET", "POST", "OPTIONS"}, cfg.AllowedMethods); diff != "" {
		t.Errorf("methods mismatch (-want +got):\n%s", diff)
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("max age: got %d, want 3600", cfg.MaxAge)
	}
}

func TestCORSConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.com, http://b.com")
	t.Setenv("TEST_CORS_MAX_AGE", "60")

	cfg := &middleware.CORSConfig{}
	env := &middleware.CORSEnv{
		Enabled: "TEST_CORS_ENABLED",
		Origins: "TEST_CORS_ORIGINS",
		MaxAge:  "TEST_CORS_MAX_AGE",
	}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if !cfg.Enabled {
		t.Error("enabled should be true from env")
	}
	if diff := cmp.Diff([]string{"http://a.com", "http://b.com"}, cfg.Origins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	if cfg.MaxAge != 60 {
		t.Errorf("max age: got %d, want 60", cfg.MaxAge)
	}
}

func TestCORSConfigMerge(t *testing.T) {
	base := &middleware.CORSConfig{
		Enabled: false,
		Origins: []string{"http://base.com"},
		MaxAge:  100,
	}
	base.Merge(&middleware.CORSConfig{
		Enabled: true,
		Origins: []string{"http://overlay.com"},
	})

	if !base.Enabled {
		t.Error("enabled should be overwritten")
	}
	if diff := cmp.Diff([]string{"http://overlay.com"}, base.Origins); diff != "" {
		t.Errorf("origins mismatch (-want +got):\n%s", diff)
	}
	if base.MaxAge != 100 {
		t.Errorf("max age: got %d, want 100", base.MaxAge)
	}
}
