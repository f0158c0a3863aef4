package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

const (
	EnvUpstreamAdvancedURL    = "AGROPULSE_UPSTREAM_ADVANCED_URL"
	EnvUpstreamSimpleURL      = "AGROPULSE_UPSTREAM_SIMPLE_URL"
	EnvUpstreamTimeout        = "AGROPULSE_UPSTREAM_TIMEOUT"
	EnvUpstreamMaxRetries     = "AGROPULSE_UPSTREAM_MAX_RETRIES"
	EnvUpstreamBreakerFails   = "AGROPULSE_UPSTREAM_BREAKER_FAILURES"
	EnvUpstreamBreakerOpenFor = "AGROPULSE_UPSTREAM_BREAKER_OPEN_FOR"

	DefaultAdvancedURL = "https://agropals-suggester-2-231842036638.asia-south1.run.app"
	DefaultSimpleURL   = "https://crop-recommender-231842036638.asia-south1.run.app"
)

// UpstreamsConfig describes the two external prediction services and the
// resilience policy shared by both.
type UpstreamsConfig struct {
	AdvancedURL     string `toml:"advanced_url"`
	AdvancedPath    string `toml:"advanced_path"`
	SimpleURL       string `toml:"simple_url"`
	SimplePath      string `toml:"simple_path"`
	Timeout         string `toml:"timeout"`
	MaxRetries      int    `toml:"max_retries"`
	BreakerFailures int    `toml:"breaker_failures"`
	BreakerOpenFor  string `toml:"breaker_open_for"`
}

// Retries returns the number of transport retries. A configured value of -1
// disables retries, since zero is indistinguishable from unset.
func (c *UpstreamsConfig) Retries() int {
	return max(c.MaxRetries, 0)
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *UpstreamsConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// BreakerOpenForDuration returns BreakerOpenFor as a time.Duration.
func (c *UpstreamsConfig) BreakerOpenForDuration() time.Duration {
	d, _ := time.ParseDuration(c.BreakerOpenFor)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *UpstreamsConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *UpstreamsConfig) Merge(overlay *UpstreamsConfig) {
	if overlay.AdvancedURL != "" {
		c.AdvancedURL = overlay.AdvancedURL
	}
	if overlay.AdvancedPath != "" {
		c.AdvancedPath = overlay.AdvancedPath
	}
	if overlay.SimpleURL != "" {
		c.SimpleURL = overlay.SimpleURL
	}
	if overlay.SimplePath != "" {
		c.SimplePath = overlay.SimplePath
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.BreakerFailures != 0 {
		c.BreakerFailures = overlay.BreakerFailures
	}
	if overlay.BreakerOpenFor != "" {
		c.BreakerOpenFor = overlay.BreakerOpenFor
	}
}

func (c *UpstreamsConfig) loadDefaults() {
	if c.AdvancedURL == "" {
		c.AdvancedURL = DefaultAdvancedURL
	}
	if c.AdvancedPath == "" {
		c.AdvancedPath = "/api/v1/predict/all"
	}
	if c.SimpleURL == "" {
		c.SimpleURL = DefaultSimpleURL
	}
	if c.SimplePath == "" {
		c.SimplePath = "/predict"
	}
	if c.Timeout == "" {
		c.Timeout = "10s"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerOpenFor == "" {
		c.BreakerOpenFor = "30s"
	}
}

func (c *UpstreamsConfig) loadEnv() {
	if v := os.Getenv(EnvUpstreamAdvancedURL); v != "" {
		c.AdvancedURL = v
	}
	if v := os.Getenv(EnvUpstreamSimpleURL); v != "" {
		c.SimpleURL = v
	}
	if v := os.Getenv(EnvUpstreamTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvUpstreamMaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv(EnvUpstreamBreakerFails); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BreakerFailures = n
		}
	}
	if v := os.Getenv(EnvUpstreamBreakerOpenFor); v != "" {
		c.BreakerOpenFor = v
	}
}

func (c *UpstreamsConfig) validate() error {
	for name, raw := range map[string]string{"advanced_url": c.AdvancedURL, "simple_url": c.SimpleURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid %s: %q", name, raw)
		}
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < -1 {
		return fmt.Errorf("invalid max_retries: %d", c.MaxRetries)
	}
	if c.BreakerFailures < 1 {
		return fmt.Errorf("invalid breaker_failures: %d", c.BreakerFailures)
	}
	if _, err := time.ParseDuration(c.BreakerOpenFor); err != nil {
		return fmt.Errorf("invalid breaker_open_for: %w", err)
	}
	return nil
}
