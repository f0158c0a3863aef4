package main

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/agropulse/internal/api"
	"github.com/JaimeStill/agropulse/internal/app"
	"github.com/JaimeStill/agropulse/internal/auth"
	"github.com/JaimeStill/agropulse/internal/client"
	"github.com/JaimeStill/agropulse/internal/config"
	"github.com/JaimeStill/agropulse/internal/infrastructure"
	"github.com/JaimeStill/agropulse/internal/session"
	"github.com/JaimeStill/agropulse/pkg/lifecycle"
	"github.com/JaimeStill/agropulse/pkg/middleware"
	"github.com/JaimeStill/agropulse/pkg/module"
)

// Modules holds the mounted API module and the session-gated pages that
// serve every path no module or native route claims.
type Modules struct {
	API      *module.Module
	App      http.Handler
	Sessions *session.Manager
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	paths := session.Paths{Login: cfg.Auth.LoginPath, Logout: "/logout", App: cfg.Auth.AppPath}
	logger := infra.Logger.With("module", "app")

	pages, err := app.New(
		client.New(cfg.Web.APIBaseURL, &http.Client{Timeout: cfg.Web.ClientTimeoutDuration()}),
		paths,
		logger,
	)
	if err != nil {
		return nil, err
	}

	sessions := session.NewManager(newProvider(cfg, infra), session.Config{
		CookieName:   cfg.Auth.CookieName,
		CookieSecure: cfg.Auth.CookieSecure,
		IdleTimeout:  cfg.Auth.IdleTimeoutDuration(),
		Paths:        paths,
		Verify:       cfg.Auth.VerifyTokens,
	}, logger)

	return &Modules{
		API: apiModule,
		App: middleware.Chain(
			pages.Handler(),
			middleware.Metrics(infra.HTTPMetrics, "app"),
			middleware.Logger(logger),
			sessions.Middleware(),
		),
		Sessions: sessions,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.HandleNative("GET /static/", app.Static())
	router.SetFallback(m.App)
}

// Start registers the session janitor with the lifecycle.
func (m *Modules) Start(lc *lifecycle.Coordinator) {
	m.Sessions.Start(lc)
}

func newProvider(cfg *config.Config, infra *infrastructure.Infrastructure) auth.Provider {
	if cfg.Auth.Provider == config.AuthProviderGoTrue {
		return auth.NewGoTrue(
			auth.GoTrueConfig{
				URL:          cfg.Auth.URL,
				APIKey:       cfg.Auth.APIKey,
				VerifyTokens: cfg.Auth.VerifyTokens,
			},
			&http.Client{Timeout: cfg.Web.ClientTimeoutDuration()},
			infra.Tracer.Tracer(api.TracerName),
			infra.Logger,
		)
	}
	infra.Logger.Warn("using in-memory auth provider; accounts are lost on restart")
	return auth.NewMemory()
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))

	router.HandleNative("GET /readyz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		// failing upstreams degrade the service but do not take it out of rotation
		if failures := infra.Lifecycle.Check(r.Context()); len(failures) > 0 {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]any{"status": "degraded", "checks": failures})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}))

	router.HandleNative("GET /metrics", promhttp.HandlerFor(infra.Registry, promhttp.HandlerOpts{}))

	return router
}
