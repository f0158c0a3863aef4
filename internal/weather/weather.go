// Package weather fetches current conditions from OpenWeather on behalf of the
// dashboard so the API key never leaves the server.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Valid reports whether c is within the WGS84 range.
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Conditions is the current weather at a location.
type Conditions struct {
	City         string  `json:"city"`
	TemperatureC float64 `json:"temperature_c"`
	Description  string  `json:"description"`
	IconID       int     `json:"icon_id"`
	Fallback     bool    `json:"fallback"`
}

// Rounded returns the temperature rounded to whole degrees, as displayed.
func (c Conditions) Rounded() int {
	return int(math.Round(c.TemperatureC))
}

type owmCurrent struct {
	Name string `json:"name"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
}

// Client queries the OpenWeather current weather endpoint.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewClient creates a Client. An empty apiKey makes every call fail with ErrMissingAPIKey.
func NewClient(apiKey, baseURL string, client *http.Client, tracer trace.Tracer, logger *slog.Logger) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		http:    client,
		tracer:  tracer,
		logger:  logger,
	}
}

// Current returns the conditions at the given coordinates.
func (c *Client) Current(ctx context.Context, at Coordinates) (*Conditions, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	ctx, span := c.tracer.Start(ctx, "weather.current",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.Float64("geo.lat", at.Lat),
			attribute.Float64("geo.lon", at.Lon),
		),
	)
	defer span.End()

	conditions, err := c.fetch(ctx, at)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "weather fetch failed")
		return nil, err
	}
	return conditions, nil
}

func (c *Client) fetch(ctx context.Context, at Coordinates) (*Conditions, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
	q.Set("appid", c.apiKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/weather?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProvider, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		return nil, fmt.Errorf("%w: status %d: %s", ErrProvider, res.StatusCode, string(b))
	}

	var out owmCurrent
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", ErrProvider, err)
	}
	if len(out.Weather) == 0 {
		return nil, fmt.Errorf("%w: no weather entries", ErrProvider)
	}

	return &Conditions{
		City:         out.Name,
		TemperatureC: out.Main.Temp,
		Description:  out.Weather[0].Description,
		IconID:       out.Weather[0].ID,
	}, nil
}
