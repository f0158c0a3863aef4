package config

import (
	"os"
	"strconv"
)

// TracingConfig controls OpenTelemetry span export. When disabled the global
// no-op tracer provider stays in place.
type TracingConfig struct {
	Enabled     bool   `toml:"enabled"`
	Endpoint    string `toml:"endpoint"`
	Insecure    bool   `toml:"insecure"`
	ServiceName string `toml:"service_name"`

	// ServiceVersion is copied from the root config during Finalize.
	ServiceVersion string `toml:"-"`
}

// Finalize applies defaults and environment variable overrides.
func (c *TracingConfig) Finalize(version string) error {
	c.loadDefaults()
	c.loadEnv()
	c.ServiceVersion = version
	return nil
}

// Merge overwrites fields from overlay. Boolean fields always apply.
func (c *TracingConfig) Merge(overlay *TracingConfig) {
	c.Enabled = overlay.Enabled
	c.Insecure = overlay.Insecure
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.ServiceName != "" {
		c.ServiceName = overlay.ServiceName
	}
}

func (c *TracingConfig) loadDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "agropulse"
	}
}

func (c *TracingConfig) loadEnv() {
	if v := os.Getenv("AGROPULSE_TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Enabled = b
		}
	}
	if v := os.Getenv("AGROPULSE_TRACING_INSECURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Insecure = b
		}
	}
	// an empty endpoint leaves the exporter on its OTEL_EXPORTER_OTLP_* defaults
	if v := os.Getenv("AGROPULSE_TRACING_ENDPOINT"); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv("AGROPULSE_TRACING_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
}
