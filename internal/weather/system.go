package weather

import (
	"context"
	"fmt"
	"log/slog"
)

// System defines the public contract for weather lookups.
type System interface {
	Handler() *Handler

	// Current returns the conditions at the given coordinates, or at the
	// fallback location when at is nil.
	Current(ctx context.Context, at *Coordinates) (*Conditions, error)
}

type service struct {
	client   *Client
	fallback Coordinates
	logger   *slog.Logger
}

// New creates the weather system. fallback is used when the caller supplies no coordinates.
func New(client *Client, fallback Coordinates, logger *slog.Logger) System {
	return &service{
		client:   client,
		fallback: fallback,
		logger:   logger.With("system", "weather"),
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *service) Current(ctx context.Context, at *Coordinates) (*Conditions, error) {
	target := s.fallback
	if at != nil {
		if !at.Valid() {
			return nil, fmt.Errorf("%w: %v,%v", ErrInvalidCoordinates, at.Lat, at.Lon)
		}
		target = *at
	}

	conditions, err := s.client.Current(ctx, target)
	if err != nil {
		return nil, err
	}
	conditions.Fallback = at == nil
	return conditions, nil
}
