// Package client is the typed HTTP client for the AgroPulse proxy API, used
// by the server-rendered views and the command line tool.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/agropulse/internal/dashboard"
	"github.com/JaimeStill/agropulse/internal/prediction"
	"github.com/JaimeStill/agropulse/internal/weather"
)

// ErrBackendUnavailable means the proxy could not be reached at all.
var ErrBackendUnavailable = errors.New("backend unavailable")

// APIError is a non-2xx answer from the proxy. Message is the proxy's own
// message field when it sent one.
type APIError struct {
	Status   int
	Message  string
	Category string
}

func (e *APIError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Category, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client calls the proxy API rooted at a base URL such as
// http://localhost:5000/api.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpClient,
	}
}

// RecommendCrop asks the simple prediction service for the best crop.
func (c *Client) RecommendCrop(ctx context.Context, q prediction.CropQuery) (*prediction.CropRecommendation, error) {
	var out prediction.CropRecommendation
	if err := c.do(ctx, http.MethodPost, "/v1/recommend-crop", q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Advise asks the advanced prediction service for the full advisory.
func (c *Client) Advise(ctx context.Context, in prediction.AdvisoryInput) (*prediction.AdvisoryResult, error) {
	var out prediction.AdvisoryResult
	if err := c.do(ctx, http.MethodPost, "/v1/get-advisory", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Dashboard(ctx context.Context) (*dashboard.Snapshot, error) {
	var out dashboard.Snapshot
	if err := c.do(ctx, http.MethodGet, "/dashboard", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Achievements(ctx context.Context) (*dashboard.Achievements, error) {
	var out dashboard.Achievements
	if err := c.do(ctx, http.MethodGet, "/v1/achievements", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Weather returns the current conditions at at, or at the server's fallback
// location when at is nil.
func (c *Client) Weather(ctx context.Context, at *weather.Coordinates) (*weather.Conditions, error) {
	path := "/v1/weather"
	if at != nil {
		q := url.Values{}
		q.Set("lat", strconv.FormatFloat(at.Lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(at.Lon, 'f', -1, 64))
		path += "?" + q.Encode()
	}

	var out weather.Conditions
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %w", ErrBackendUnavailable, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrBackendUnavailable, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return apiError(res, data)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func apiError(res *http.Response, data []byte) error {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(data, &body)

	message := body.Message
	if message == "" {
		message = body.Error
	}
	if message == "" {
		message = http.StatusText(res.StatusCode)
	}

	return &APIError{
		Status:   res.StatusCode,
		Message:  message,
		Category: res.Header.Get(prediction.ErrorCategoryHeader),
	}
}
