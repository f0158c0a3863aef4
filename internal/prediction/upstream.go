package prediction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// maxResponseSize bounds how much of an upstream answer is buffered.
const maxResponseSize = 4 << 20

// UpstreamConfig describes one prediction service endpoint and its call policy.
type UpstreamConfig struct {
	Name            string
	URL             string
	Timeout         time.Duration
	MaxRetries      int
	BreakerFailures int
	BreakerOpenFor  time.Duration
}

// Upstream posts JSON to a single prediction service. Every call is bounded by
// the configured timeout, transport failures are retried with exponential
// backoff inside that bound, and consecutive failures trip a circuit breaker.
// Calls abandoned by the caller never count against the breaker.
type Upstream struct {
	name    string
	url     string
	timeout time.Duration
	retries int
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
	metrics *Metrics
	logger  *slog.Logger
}

// NewUpstream creates an Upstream. The http.Client carries no timeout of its
// own; the per-call context deadline bounds the whole exchange.
func NewUpstream(cfg UpstreamConfig, client *http.Client, tracer trace.Tracer, metrics *Metrics, logger *slog.Logger) *Upstream {
	u := &Upstream{
		name:    cfg.Name,
		url:     cfg.URL,
		timeout: cfg.Timeout,
		retries: cfg.MaxRetries,
		http:    client,
		tracer:  tracer,
		metrics: metrics,
		logger:  logger.With("upstream", cfg.Name),
	}

	failures := uint32(max(cfg.BreakerFailures, 1))
	u.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.BreakerOpenFor,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCanceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			u.logger.Warn("circuit breaker state change", "from", from.String(), "to", to.String())
			u.metrics.setBreaker(name, to)
		},
	})
	metrics.setBreaker(cfg.Name, gobreaker.StateClosed)

	return u
}

// Name returns the upstream label used in logs and metrics.
func (u *Upstream) Name() string {
	return u.name
}

// Check reports an error while the circuit breaker is open.
func (u *Upstream) Check(context.Context) error {
	if u.breaker.State() == gobreaker.StateOpen {
		return ErrCircuitOpen
	}
	return nil
}

// Post sends body to the upstream and returns its response body unchanged.
// Failures wrap one of the package sentinels; see Categorize.
func (u *Upstream) Post(ctx context.Context, body []byte) ([]byte, error) {
	ctx, span := u.tracer.Start(ctx, "prediction."+u.name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("url.full", u.url)),
	)
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	start := time.Now()
	result, err := u.breaker.Execute(func() (any, error) {
		return u.send(ctx, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %s", ErrCircuitOpen, u.name)
	}

	category := Categorize(err)
	if category == CategoryCanceled {
		span.SetAttributes(attribute.String("error.type", string(category)))
		return nil, err
	}
	u.metrics.observe(u.name, category, time.Since(start).Seconds())

	if err != nil {
		span.SetAttributes(attribute.String("error.type", string(category)))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(category))
		return nil, err
	}
	return result.([]byte), nil
}

func (u *Upstream) send(ctx context.Context, body []byte) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxInterval = time.Second
	bo.MaxElapsedTime = 0

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if u.retries > 0 {
		policy = backoff.WithMaxRetries(bo, uint64(u.retries))
	}

	var out []byte
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		data, err := u.attempt(ctx, body)
		if err != nil {
			if errors.Is(err, ErrUnavailable) {
				u.logger.Debug("transport failure", "attempt", attempt, "error", err)
				return err
			}
			return backoff.Permanent(err)
		}
		out = data
		return nil
	}, backoff.WithContext(policy, ctx))

	if err != nil {
		switch {
		case errors.Is(err, ErrTimeout), errors.Is(err, ErrCanceled):
		case errors.Is(err, context.DeadlineExceeded):
			err = fmt.Errorf("%w after %s: %w", ErrTimeout, u.timeout, err)
		case errors.Is(err, context.Canceled):
			err = fmt.Errorf("%w: %w", ErrCanceled, err)
		}
		return nil, err
	}
	return out, nil
}

func (u *Upstream) attempt(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := u.http.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, classifyTransport(ctx, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: POST %s -> %s", ErrUpstreamStatus, u.url, res.Status)
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: POST %s", ErrInvalidResponse, u.url)
	}
	return data, nil
}

// classifyTransport separates deadline expiry and caller cancellation from
// connection failures so only the latter are retried.
func classifyTransport(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		return fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}
