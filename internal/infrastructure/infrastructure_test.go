package infrastructure_test

import (
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/JaimeStill/agropulse/internal/config"
	"github.com/JaimeStill/agropulse/internal/infrastructure"
)

func validConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	if err := cfg.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	return cfg
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.HTTPMetrics == nil {
		t.Error("HTTPMetrics is nil")
	}
	if _, ok := infra.Tracer.(*sdktrace.TracerProvider); ok {
		t.Error("tracing disabled but an SDK provider was installed")
	}

	families, err := infra.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if len(families) == 0 {
		t.Error("registry has no runtime collectors")
	}
}

func TestNewWithTracing(t *testing.T) {
	cfg := validConfig(t)
	cfg.Tracing.Enabled = true
	cfg.Tracing.Endpoint = "127.0.0.1:4318"
	cfg.Tracing.Insecure = true

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := infra.Tracer.(*sdktrace.TracerProvider); !ok {
		t.Fatalf("tracer: got %T, want *sdktrace.TracerProvider", infra.Tracer)
	}

	if err := infra.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := infra.Lifecycle.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
