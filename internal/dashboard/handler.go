package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/agropulse/pkg/handlers"
	"github.com/JaimeStill/agropulse/pkg/routes"
)

// Handler provides HTTP endpoints for dashboard data.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "dashboard"),
	}
}

// Routes returns the dashboard snapshot route and the versioned achievements route.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/dashboard", Handler: h.Dashboard},
		},
		Children: []routes.Group{
			{
				Prefix: "/v1",
				Routes: []routes.Route{
					{Method: "GET", Pattern: "/achievements", Handler: h.Achievements},
				},
			},
		},
	}
}

// Dashboard returns the fixed leaderboard and advisories.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	handlers.RespondRaw(w, http.StatusOK, h.sys.Snapshot())
}

// Achievements returns the fixed gamification data.
func (h *Handler) Achievements(w http.ResponseWriter, r *http.Request) {
	handlers.RespondRaw(w, http.StatusOK, h.sys.Achievements())
}
