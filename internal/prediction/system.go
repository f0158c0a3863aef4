package prediction

import (
	"context"
	"log/slog"
)

const (
	AdvancedUpstream = "advanced"
	SimpleUpstream   = "simple"
)

// System defines the public contract for the prediction relay.
type System interface {
	Handler(maxBodySize int64) *Handler

	// Advise forwards an advisory observation to the advanced service.
	Advise(ctx context.Context, body []byte) ([]byte, error)

	// RecommendCrop forwards a crop query to the simple service.
	RecommendCrop(ctx context.Context, body []byte) ([]byte, error)

	// Upstreams returns both upstreams for readiness checks.
	Upstreams() []*Upstream
}

type relay struct {
	advanced *Upstream
	simple   *Upstream
	logger   *slog.Logger
}

// New creates the prediction relay over the advanced and simple upstreams.
func New(advanced, simple *Upstream, logger *slog.Logger) System {
	return &relay{
		advanced: advanced,
		simple:   simple,
		logger:   logger.With("system", "prediction"),
	}
}

func (r *relay) Handler(maxBodySize int64) *Handler {
	return NewHandler(r, r.logger, maxBodySize)
}

func (r *relay) Advise(ctx context.Context, body []byte) ([]byte, error) {
	return r.forward(ctx, r.advanced, body)
}

func (r *relay) RecommendCrop(ctx context.Context, body []byte) ([]byte, error) {
	return r.forward(ctx, r.simple, body)
}

func (r *relay) Upstreams() []*Upstream {
	return []*Upstream{r.advanced, r.simple}
}

func (r *relay) forward(ctx context.Context, u *Upstream, body []byte) ([]byte, error) {
	r.logger.Info("forwarding request", "upstream", u.Name(), "bytes", len(body))

	data, err := u.Post(ctx, body)
	if err != nil {
		return nil, err
	}

	r.logger.Info("upstream success", "upstream", u.Name(), "bytes", len(data))
	return data, nil
}
