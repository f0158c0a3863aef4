package weather

import (
	"errors"
	"net/http"
)

var (
	ErrMissingAPIKey      = errors.New("weather api key missing")
	ErrProvider           = errors.New("weather provider request failed")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

const (
	MissingKeyMessage = "Weather API key is missing."
	ProviderMessage   = "Could not fetch weather data."
)

// MapHTTPStatus maps weather errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrInvalidCoordinates):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// Message returns the user-facing text for err.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingAPIKey):
		return MissingKeyMessage
	case errors.Is(err, ErrInvalidCoordinates):
		return ErrInvalidCoordinates.Error()
	default:
		return ProviderMessage
	}
}
