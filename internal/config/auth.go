package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvAuthProvider     = "AGROPULSE_AUTH_PROVIDER"
	EnvAuthURL          = "AGROPULSE_AUTH_URL"
	EnvAuthAPIKey       = "AGROPULSE_AUTH_API_KEY"
	EnvAuthVerifyTokens = "AGROPULSE_AUTH_VERIFY_TOKENS"
	EnvAuthCookieName   = "AGROPULSE_AUTH_COOKIE_NAME"
	EnvAuthCookieSecure = "AGROPULSE_AUTH_COOKIE_SECURE"
	EnvAuthIdleTimeout  = "AGROPULSE_AUTH_IDLE_TIMEOUT"

	AuthProviderMemory = "memory"
	AuthProviderGoTrue = "gotrue"
)

// AuthConfig selects the identity provider and shapes the session gate.
type AuthConfig struct {
	Provider     string `toml:"provider"`
	URL          string `toml:"url"`
	APIKey       string `toml:"api_key"`
	VerifyTokens bool   `toml:"verify_tokens"`
	CookieName   string `toml:"cookie_name"`
	CookieSecure bool   `toml:"cookie_secure"`
	IdleTimeout  string `toml:"idle_timeout"`
	LoginPath    string `toml:"login_path"`
	AppPath      string `toml:"app_path"`
}

// IdleTimeoutDuration returns IdleTimeout as a time.Duration.
func (c *AuthConfig) IdleTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.IdleTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *AuthConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites fields from overlay. Boolean fields always apply.
func (c *AuthConfig) Merge(overlay *AuthConfig) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.URL != "" {
		c.URL = overlay.URL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	c.VerifyTokens = overlay.VerifyTokens
	c.CookieSecure = overlay.CookieSecure
	if overlay.CookieName != "" {
		c.CookieName = overlay.CookieName
	}
	if overlay.IdleTimeout != "" {
		c.IdleTimeout = overlay.IdleTimeout
	}
	if overlay.LoginPath != "" {
		c.LoginPath = overlay.LoginPath
	}
	if overlay.AppPath != "" {
		c.AppPath = overlay.AppPath
	}
}

func (c *AuthConfig) loadDefaults() {
	if c.Provider == "" {
		c.Provider = AuthProviderMemory
	}
	if c.CookieName == "" {
		c.CookieName = "agropulse_client"
	}
	if c.IdleTimeout == "" {
		c.IdleTimeout = "30m"
	}
	if c.LoginPath == "" {
		c.LoginPath = "/login"
	}
	if c.AppPath == "" {
		c.AppPath = "/app"
	}
}

func (c *AuthConfig) loadEnv() {
	if v := os.Getenv(EnvAuthProvider); v != "" {
		c.Provider = strings.ToLower(v)
	}
	if v := os.Getenv(EnvAuthURL); v != "" {
		c.URL = v
	}
	if v := os.Getenv(EnvAuthAPIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(EnvAuthVerifyTokens); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.VerifyTokens = b
		}
	}
	if v := os.Getenv(EnvAuthCookieName); v != "" {
		c.CookieName = v
	}
	if v := os.Getenv(EnvAuthCookieSecure); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.CookieSecure = b
		}
	}
	if v := os.Getenv(EnvAuthIdleTimeout); v != "" {
		c.IdleTimeout = v
	}
}

func (c *AuthConfig) validate() error {
	switch c.Provider {
	case AuthProviderMemory:
	case AuthProviderGoTrue:
		if c.URL == "" {
			return fmt.Errorf("url required for provider %s", c.Provider)
		}
		if c.APIKey == "" {
			return fmt.Errorf("api_key required for provider %s", c.Provider)
		}
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if _, err := time.ParseDuration(c.IdleTimeout); err != nil {
		return fmt.Errorf("invalid idle_timeout: %w", err)
	}
	if !strings.HasPrefix(c.LoginPath, "/") || !strings.HasPrefix(c.AppPath, "/") {
		return fmt.Errorf("login_path and app_path must start with /")
	}
	return nil
}
