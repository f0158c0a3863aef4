package dashboard

import (
	"encoding/json"
	"fmt"
	"log/slog"
)

// System defines the public contract for dashboard data.
type System interface {
	Handler() *Handler

	// Snapshot returns the encoded dashboard payload. The bytes are identical on every call.
	Snapshot() []byte

	// Achievements returns the encoded gamification payload.
	Achievements() []byte
}

type store struct {
	snapshot     []byte
	achievements []byte
	logger       *slog.Logger
}

// New encodes the static payloads once and returns the dashboard system.
func New(logger *slog.Logger) (System, error) {
	snapshot, err := json.Marshal(defaultSnapshot())
	if err != nil {
		return nil, fmt.Errorf("encode dashboard snapshot: %w", err)
	}
	achievements, err := json.Marshal(defaultAchievements())
	if err != nil {
		return nil, fmt.Errorf("encode achievements: %w", err)
	}

	return &store{
		snapshot:     snapshot,
		achievements: achievements,
		logger:       logger.With("system", "dashboard"),
	}, nil
}

func (s *store) Handler() *Handler {
	return NewHandler(s, s.logger)
}

func (s *store) Snapshot() []byte {
	return s.snapshot
}

func (s *store) Achievements() []byte {
	return s.achievements
}
