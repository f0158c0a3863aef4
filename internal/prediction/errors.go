package prediction

import (
	"errors"
	"net/http"
)

var (
	ErrTimeout         = errors.New("upstream timed out")
	ErrUnavailable     = errors.New("upstream unreachable")
	ErrUpstreamStatus  = errors.New("upstream returned non-success status")
	ErrCircuitOpen     = errors.New("upstream circuit open")
	ErrInvalidResponse = errors.New("upstream response is not JSON")
	ErrCanceled        = errors.New("request canceled by caller")
	ErrInvalidBody     = errors.New("invalid request body")
	ErrBodyTooLarge    = errors.New("request body too large")
)

// Category classifies an upstream failure for logs, metrics and the
// X-Error-Category response header.
type Category string

const (
	CategoryNone            Category = ""
	CategoryTimeout         Category = "timeout"
	CategoryUnavailable     Category = "unavailable"
	CategoryUpstreamStatus  Category = "upstream_status"
	CategoryCircuitOpen     Category = "circuit_open"
	CategoryInvalidResponse Category = "invalid_response"
	CategoryCanceled        Category = "canceled"
)

// Categorize returns the failure category of err. Errors that did not come
// from an upstream call are classified as unavailable.
func Categorize(err error) Category {
	switch {
	case err == nil:
		return CategoryNone
	case errors.Is(err, ErrCanceled):
		return CategoryCanceled
	case errors.Is(err, ErrTimeout):
		return CategoryTimeout
	case errors.Is(err, ErrCircuitOpen):
		return CategoryCircuitOpen
	case errors.Is(err, ErrUpstreamStatus):
		return CategoryUpstreamStatus
	case errors.Is(err, ErrInvalidResponse):
		return CategoryInvalidResponse
	default:
		return CategoryUnavailable
	}
}

// MapHTTPStatus maps prediction errors to HTTP status codes. Every upstream
// failure is reported as 500.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
