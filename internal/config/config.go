package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"
	DotEnvFile           = ".env"

	EnvAgroPulseEnv             = "AGROPULSE_ENV"
	EnvAgroPulseShutdownTimeout = "AGROPULSE_SHUTDOWN_TIMEOUT"
	EnvAgroPulseVersion         = "AGROPULSE_VERSION"
	EnvAgroPulseLogLevel        = "AGROPULSE_LOG_LEVEL"
)

// Config is the root configuration for the AgroPulse service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	API             APIConfig       `toml:"api"`
	Upstreams       UpstreamsConfig `toml:"upstreams"`
	Auth            AuthConfig      `toml:"auth"`
	Weather         WeatherConfig   `toml:"weather"`
	Tracing         TracingConfig   `toml:"tracing"`
	Web             WebConfig       `toml:"web"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
	LogLevel        string          `toml:"log_level"`
}

// Env returns the AGROPULSE_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvAgroPulseEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Load reads an optional .env file, the base config (if present), applies any
// environment overlay, and finalizes all values. Without a config.toml, defaults
// and environment variables provide all configuration.
func Load() (*Config, error) {
	if _, err := os.Stat(DotEnvFile); err == nil {
		if err := godotenv.Load(DotEnvFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", DotEnvFile, err)
		}
	}

	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Parse decodes TOML bytes into a Config without finalizing it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	c.Server.Merge(&overlay.Server)
	c.API.Merge(&overlay.API)
	c.Upstreams.Merge(&overlay.Upstreams)
	c.Auth.Merge(&overlay.Auth)
	c.Weather.Merge(&overlay.Weather)
	c.Tracing.Merge(&overlay.Tracing)
	c.Web.Merge(&overlay.Web)
}

// Finalize applies defaults, environment overrides and validation to the
// root config and every sub-config.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Upstreams.Finalize(); err != nil {
		return fmt.Errorf("upstreams: %w", err)
	}
	if err := c.Auth.Finalize(); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Weather.Finalize(); err != nil {
		return fmt.Errorf("weather: %w", err)
	}
	if err := c.Tracing.Finalize(c.Version); err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	if err := c.Web.Finalize(&c.Server, &c.API); err != nil {
		return fmt.Errorf("web: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvAgroPulseShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvAgroPulseVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvAgroPulseLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func overlayPath() string {
	if env := os.Getenv(EnvAgroPulseEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
