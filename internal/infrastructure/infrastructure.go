// Package infrastructure provides core service initialization for application startup.
// It assembles the common dependencies (logging, metrics, tracing) that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/JaimeStill/agropulse/internal/config"
	"github.com/JaimeStill/agropulse/pkg/lifecycle"
	"github.com/JaimeStill/agropulse/pkg/middleware"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, Prometheus metrics and OpenTelemetry tracing.
type Infrastructure struct {
	Lifecycle   *lifecycle.Coordinator
	Logger      *slog.Logger
	Registry    *prometheus.Registry
	HTTPMetrics *middleware.HTTPMetrics
	Tracer      trace.TracerProvider

	shutdownTracer func(context.Context) error
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.Level(),
	}))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	infra := &Infrastructure{
		Lifecycle:   lifecycle.New(),
		Logger:      logger,
		Registry:    reg,
		HTTPMetrics: middleware.NewHTTPMetrics(reg),
		Tracer:      noop.NewTracerProvider(),
	}

	if cfg.Tracing.Enabled {
		tp, err := newTracerProvider(infra.Lifecycle.Context(), &cfg.Tracing)
		if err != nil {
			return nil, fmt.Errorf("tracing init failed: %w", err)
		}
		otel.SetTracerProvider(tp)
		infra.Tracer = tp
		infra.shutdownTracer = tp.Shutdown
	}

	return infra, nil
}

// Start registers infrastructure shutdown hooks with the lifecycle coordinator.
// The tracer provider is flushed after the root context is cancelled.
func (i *Infrastructure) Start() error {
	if i.shutdownTracer == nil {
		return nil
	}

	logger := i.Logger.With("system", "tracing")
	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		if err := i.shutdownTracer(context.Background()); err != nil {
			logger.Error("tracer shutdown error", "error", err)
			return
		}
		logger.Info("tracer flushed")
	})
	return nil
}

func newTracerProvider(ctx context.Context, cfg *config.TracingConfig) (*sdktrace.TracerProvider, error) {
	var opts []otlptracehttp.Option
	if cfg.Endpoint != "" {
		opts = append(opts, otlptracehttp.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			"",
			attribute.String("service.name", cfg.ServiceName),
			attribute.String("service.version", cfg.ServiceVersion),
		)),
	), nil
}
