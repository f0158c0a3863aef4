package weather

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/JaimeStill/agropulse/pkg/handlers"
	"github.com/JaimeStill/agropulse/pkg/routes"
)

// Handler provides the HTTP endpoint for current weather.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "weather"),
	}
}

// Routes returns the route group definition for weather endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/v1",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/weather", Handler: h.Current},
		},
	}
}

// Current returns conditions for the lat/lon query parameters, falling back
// to the configured location when either is absent.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	at, err := CoordinatesFromQuery(r.URL.Query())
	if err != nil {
		handlers.RespondMessage(w, MapHTTPStatus(err), Message(err))
		return
	}

	conditions, err := h.sys.Current(r.Context(), at)
	if err != nil {
		h.logger.Error("weather lookup failed", "error", err)
		handlers.RespondMessage(w, MapHTTPStatus(err), Message(err))
		return
	}

	handlers.RespondJSON(w, http.StatusOK, conditions)
}

// CoordinatesFromQuery parses lat and lon. It returns nil when either is missing.
func CoordinatesFromQuery(q url.Values) (*Coordinates, error) {
	latRaw, lonRaw := q.Get("lat"), q.Get("lon")
	if latRaw == "" || lonRaw == "" {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, ErrInvalidCoordinates
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return nil, ErrInvalidCoordinates
	}
	return &Coordinates{Lat: lat, Lon: lon}, nil
}
