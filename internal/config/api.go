package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/JaimeStill/agropulse/pkg/formatting"
	"github.com/JaimeStill/agropulse/pkg/middleware"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "AGROPULSE_CORS_ENABLED",
	Origins:          "AGROPULSE_CORS_ORIGINS",
	AllowedMethods:   "AGROPULSE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "AGROPULSE_CORS_ALLOWED_HEADERS",
	AllowCredentials: "AGROPULSE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "AGROPULSE_CORS_MAX_AGE",
}

// APIConfig holds API routing, CORS, request body and API document settings.
type APIConfig struct {
	BasePath    string                `toml:"base_path"`
	MaxBodySize string                `toml:"max_body_size"`
	CORS        middleware.CORSConfig `toml:"cors"`
	OpenAPI     OpenAPIConfig         `toml:"openapi"`
}

// OpenAPIConfig holds the metadata of the served API document.
type OpenAPIConfig struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
}

// MaxBodySizeBytes returns MaxBodySize as a byte count.
func (c *APIConfig) MaxBodySizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxBodySize)
	if err != nil {
		return 1024 * 1024 // 1MB fallback
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and its nested CORS config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxBodySize != "" {
		c.MaxBodySize = overlay.MaxBodySize
	}
	c.CORS.Merge(&overlay.CORS)
	if overlay.OpenAPI.Title != "" {
		c.OpenAPI.Title = overlay.OpenAPI.Title
	}
	if overlay.OpenAPI.Description != "" {
		c.OpenAPI.Description = overlay.OpenAPI.Description
	}
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxBodySize == "" {
		c.MaxBodySize = "1MB"
	}
	if c.OpenAPI.Title == "" {
		c.OpenAPI.Title = "AgroPulse API"
	}
	if c.OpenAPI.Description == "" {
		c.OpenAPI.Description = "Crop recommendation, farm advisory, dashboard and weather endpoints relayed to the AgroPulse prediction services."
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv("AGROPULSE_API_BASE_PATH"); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv("AGROPULSE_API_MAX_BODY_SIZE"); v != "" {
		c.MaxBodySize = v
	}
	if v := os.Getenv("AGROPULSE_OPENAPI_TITLE"); v != "" {
		c.OpenAPI.Title = v
	}
	if v := os.Getenv("AGROPULSE_OPENAPI_DESCRIPTION"); v != "" {
		c.OpenAPI.Description = v
	}
}

func (c *APIConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 || len(c.BasePath) < 2 {
		return fmt.Errorf("base_path must be a single segment such as /api: %q", c.BasePath)
	}
	if _, err := formatting.ParseBytes(c.MaxBodySize); err != nil {
		return fmt.Errorf("invalid max_body_size: %w", err)
	}
	return nil
}
