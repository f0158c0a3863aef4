package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// WebConfig holds settings for the server-rendered views.
type WebConfig struct {
	// APIBaseURL is where the views reach the proxy API. It defaults to the
	// loopback address of this process.
	APIBaseURL    string `toml:"api_base_url"`
	ClientTimeout string `toml:"client_timeout"`
}

// ClientTimeoutDuration returns ClientTimeout as a time.Duration.
func (c *WebConfig) ClientTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ClientTimeout)
	return d
}

// Finalize derives defaults from the already finalized server and API configs.
func (c *WebConfig) Finalize(server *ServerConfig, api *APIConfig) error {
	if c.APIBaseURL == "" {
		c.APIBaseURL = fmt.Sprintf("http://127.0.0.1:%d%s", server.Port, api.BasePath)
	}
	if c.ClientTimeout == "" {
		c.ClientTimeout = "30s"
	}
	if v := os.Getenv("AGROPULSE_WEB_API_BASE_URL"); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv("AGROPULSE_WEB_CLIENT_TIMEOUT"); v != "" {
		c.ClientTimeout = v
	}

	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api_base_url: %q", c.APIBaseURL)
	}
	if _, err := time.ParseDuration(c.ClientTimeout); err != nil {
		return fmt.Errorf("invalid client_timeout: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *WebConfig) Merge(overlay *WebConfig) {
	if overlay.APIBaseURL != "" {
		c.APIBaseURL = overlay.APIBaseURL
	}
	if overlay.ClientTimeout != "" {
		c.ClientTimeout = overlay.ClientTimeout
	}
}
