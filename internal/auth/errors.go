package auth

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already registered")
	ErrInvalidToken       = errors.New("invalid token")
	ErrProvider           = errors.New("auth provider error")
	ErrWeakPassword       = errors.New("weak password")
)

// ProviderError carries the provider's own message, which is shown to the
// user verbatim.
type ProviderError struct {
	Status  int
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Message returns the user-facing text for err: the provider's message when
// there is one, otherwise the error text.
func Message(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Message != "" {
		return pe.Message
	}
	return err.Error()
}

// MapHTTPStatus maps auth errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, ErrWeakPassword):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
