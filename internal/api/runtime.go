package api

import (
	"go.opentelemetry.io/otel/trace"

	"github.com/JaimeStill/agropulse/internal/config"
	"github.com/JaimeStill/agropulse/internal/infrastructure"
	"github.com/JaimeStill/agropulse/internal/prediction"
)

// TracerName identifies spans created by the API's outbound clients.
const TracerName = "github.com/JaimeStill/agropulse/internal/api"

// Runtime extends Infrastructure with API-scoped telemetry.
type Runtime struct {
	*infrastructure.Infrastructure
	Tracer            trace.Tracer
	PredictionMetrics *prediction.Metrics
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle:   infra.Lifecycle,
			Logger:      infra.Logger.With("module", "api"),
			Registry:    infra.Registry,
			HTTPMetrics: infra.HTTPMetrics,
			Tracer:      infra.Tracer,
		},
		Tracer:            infra.Tracer.Tracer(TracerName, trace.WithInstrumentationVersion(cfg.Version)),
		PredictionMetrics: prediction.NewMetrics(infra.Registry),
	}
}
