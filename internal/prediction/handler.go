package prediction

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/agropulse/pkg/formatting"
	"github.com/JaimeStill/agropulse/pkg/handlers"
	"github.com/JaimeStill/agropulse/pkg/routes"
)

// ErrorCategoryHeader carries the failure category on error responses.
const ErrorCategoryHeader = "X-Error-Category"

const (
	AdvancedFailureMessage = "Error from advanced prediction service."
	SimpleFailureMessage   = "Error from simple prediction service."
)

// Handler provides the HTTP endpoints of the prediction relay.
type Handler struct {
	sys         System
	logger      *slog.Logger
	maxBodySize int64
}

// NewHandler creates a Handler with the given system, logger and request body limit.
func NewHandler(sys System, logger *slog.Logger, maxBodySize int64) *Handler {
	return &Handler{
		sys:         sys,
		logger:      logger.With("handler", "prediction"),
		maxBodySize: maxBodySize,
	}
}

// Routes returns the route group definition for prediction endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/v1",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/get-advisory", Handler: h.GetAdvisory},
			{Method: "POST", Pattern: "/recommend-crop", Handler: h.RecommendCrop},
		},
	}
}

// GetAdvisory relays the request body to the advanced service.
func (h *Handler) GetAdvisory(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	data, err := h.sys.Advise(r.Context(), body)
	if err != nil {
		h.fail(w, AdvancedUpstream, AdvancedFailureMessage, err)
		return
	}

	handlers.RespondRaw(w, http.StatusOK, data)
}

// RecommendCrop relays the request body to the simple service.
func (h *Handler) RecommendCrop(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	data, err := h.sys.RecommendCrop(r.Context(), body)
	if err != nil {
		h.fail(w, SimpleUpstream, SimpleFailureMessage, err)
		return
	}

	handlers.RespondRaw(w, http.StatusOK, data)
}

// readBody reads and validates the JSON request body. An empty body is
// forwarded as an empty object.
func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("request body rejected", "error", ErrBodyTooLarge, "limit", formatting.FormatBytes(tooLarge.Limit, 0))
			handlers.RespondMessage(w, MapHTTPStatus(ErrBodyTooLarge), ErrBodyTooLarge.Error())
			return nil, false
		}
		h.logger.Warn("request body rejected", "error", err)
		handlers.RespondMessage(w, MapHTTPStatus(ErrInvalidBody), ErrInvalidBody.Error())
		return nil, false
	}

	if len(body) == 0 {
		return []byte("{}"), true
	}
	if !json.Valid(body) {
		h.logger.Warn("request body rejected", "error", ErrInvalidBody)
		handlers.RespondMessage(w, MapHTTPStatus(ErrInvalidBody), ErrInvalidBody.Error())
		return nil, false
	}
	return body, true
}

func (h *Handler) fail(w http.ResponseWriter, upstream, message string, err error) {
	category := Categorize(err)
	if category == CategoryCanceled {
		h.logger.Debug("request canceled by client", "upstream", upstream)
	} else {
		h.logger.Error("upstream failure", "upstream", upstream, "category", category, "error", err)
	}

	w.Header().Set(ErrorCategoryHeader, string(category))
	handlers.RespondMessage(w, MapHTTPStatus(err), message)
}
