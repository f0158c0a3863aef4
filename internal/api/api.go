// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/agropulse/internal/config"
	"github.com/JaimeStill/agropulse/internal/infrastructure"
	"github.com/JaimeStill/agropulse/pkg/middleware"
	"github.com/JaimeStill/agropulse/pkg/module"
	"github.com/JaimeStill/agropulse/pkg/openapi"
)

// NewModule creates the API module with all domain handlers and middleware.
// Each prediction upstream is registered as a readiness check.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain, err := NewDomain(runtime, cfg)
	if err != nil {
		return nil, err
	}

	for _, u := range domain.Prediction.Upstreams() {
		infra.Lifecycle.AddCheck("upstream."+u.Name(), u.Check)
	}

	spec, err := openapi.MarshalJSON(NewSpec(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}

	mux := http.NewServeMux()
	patterns := registerRoutes(mux, domain, cfg, spec)
	runtime.Logger.Debug("routes registered", "prefix", cfg.API.BasePath, "routes", patterns)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.Metrics(infra.HTTPMetrics, m.Name()))

	return m, nil
}
