package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoToken          = errors.New("no auth token bound")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrGameNotFound     = errors.New("game not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrNotWaiting       = errors.New("user is not waiting to take part in game")
	ErrInvalidStage     = errors.New("admission of participants is not allowed at this stage")
	ErrAlreadyJoined    = errors.New("user can play in game only by one player")
)

// ValidationError carries a field-keyed error body from an HTTP 4xx
// response. It is captured by the caller and rendered next to the
// originating form, never surfaced as a transport failure.
type ValidationError struct {
	Status int
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, messages := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(messages, "; ")))
	}
	return fmt.Sprintf("validation failed (%d): %s", e.Status, strings.Join(parts, ", "))
}

// APIError is any non-validation failure reported by the server.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Detail)
}

// AsValidation unwraps err into a ValidationError if it is one.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsUnauthorized reports whether err is an authentication or authorization
// failure; the route guard decides where to redirect.
func IsUnauthorized(err error) bool {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status == 401 || ae.Status == 403
	}
	return false
}
