package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvWeatherAPIKey  = "AGROPULSE_WEATHER_API_KEY"
	EnvWeatherBaseURL = "AGROPULSE_WEATHER_BASE_URL"

	// EnvOpenWeatherAPIKey is the variable name the browser build used; it is
	// still honoured so existing .env files keep working.
	EnvOpenWeatherAPIKey = "VITE_OPENWEATHER_API_KEY"
)

// WeatherConfig holds the weather provider settings.
type WeatherConfig struct {
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	Timeout     string  `toml:"timeout"`
	FallbackLat float64 `toml:"fallback_lat"`
	FallbackLon float64 `toml:"fallback_lon"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *WeatherConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *WeatherConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *WeatherConfig) Merge(overlay *WeatherConfig) {
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.FallbackLat != 0 {
		c.FallbackLat = overlay.FallbackLat
	}
	if overlay.FallbackLon != 0 {
		c.FallbackLon = overlay.FallbackLon
	}
}

func (c *WeatherConfig) loadDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openweathermap.org/data/2.5"
	}
	if c.Timeout == "" {
		c.Timeout = "5s"
	}
	// Bhubaneswar
	if c.FallbackLat == 0 && c.FallbackLon == 0 {
		c.FallbackLat = 20.2961
		c.FallbackLon = 85.8245
	}
}

func (c *WeatherConfig) loadEnv() {
	for _, key := range []string{EnvOpenWeatherAPIKey, EnvWeatherAPIKey} {
		if v := os.Getenv(key); v != "" {
			c.APIKey = v
		}
	}
	if v := os.Getenv(EnvWeatherBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv("AGROPULSE_WEATHER_FALLBACK_LAT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.FallbackLat = f
		}
	}
	if v := os.Getenv("AGROPULSE_WEATHER_FALLBACK_LON"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.FallbackLon = f
		}
	}
}

func (c *WeatherConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.FallbackLat < -90 || c.FallbackLat > 90 {
		return fmt.Errorf("invalid fallback_lat: %v", c.FallbackLat)
	}
	if c.FallbackLon < -180 || c.FallbackLon > 180 {
		return fmt.Errorf("invalid fallback_lon: %v", c.FallbackLon)
	}
	return nil
}
