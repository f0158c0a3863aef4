package api

import (
	"net/http"

	"github.com/JaimeStill/agropulse/internal/config"
	"github.com/JaimeStill/agropulse/internal/dashboard"
	"github.com/JaimeStill/agropulse/internal/prediction"
	"github.com/JaimeStill/agropulse/internal/weather"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Prediction prediction.System
	Dashboard  dashboard.System
	Weather    weather.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime, cfg *config.Config) (*Domain, error) {
	upstream := func(name, url string) *prediction.Upstream {
		return prediction.NewUpstream(
			prediction.UpstreamConfig{
				Name:            name,
				URL:             url,
				Timeout:         cfg.Upstreams.TimeoutDuration(),
				MaxRetries:      cfg.Upstreams.Retries(),
				BreakerFailures: cfg.Upstreams.BreakerFailures,
				BreakerOpenFor:  cfg.Upstreams.BreakerOpenForDuration(),
			},
			&http.Client{},
			runtime.Tracer,
			runtime.PredictionMetrics,
			runtime.Logger,
		)
	}

	predictionSystem := prediction.New(
		upstream(prediction.AdvancedUpstream, cfg.Upstreams.AdvancedURL+cfg.Upstreams.AdvancedPath),
		upstream(prediction.SimpleUpstream, cfg.Upstreams.SimpleURL+cfg.Upstreams.SimplePath),
		runtime.Logger,
	)

	dashboardSystem, err := dashboard.New(runtime.Logger)
	if err != nil {
		return nil, err
	}

	weatherSystem := weather.New(
		weather.NewClient(
			cfg.Weather.APIKey,
			cfg.Weather.BaseURL,
			&http.Client{Timeout: cfg.Weather.TimeoutDuration()},
			runtime.Tracer,
			runtime.Logger,
		),
		weather.Coordinates{Lat: cfg.Weather.FallbackLat, Lon: cfg.Weather.FallbackLon},
		runtime.Logger,
	)

	return &Domain{
		Prediction: predictionSystem,
		Dashboard:  dashboardSystem,
		Weather:    weatherSystem,
	}, nil
}
