package spotify

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a Spotify Web API error.
//
// The Error type carries the HTTP status and message from the API's
// regular error envelope. It implements error, and provides additional
// methods for retry logic.
type Error struct {
	Status  int    // HTTP status code reported by the API
	Message string // Error message from Spotify
}

// Error returns the error message.
func (e *Error) Error() string {
	return fmt.Sprintf("spotify: error %d: %s", e.Status, e.Message)
}

// Is checks if the target error is a Spotify error with the same status.
//
// This allows errors.Is() to work with *Error types.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Status == t.Status
}

// Temporary returns true if the error is temporary and the request
// should be retried.
//
// Rate limiting (429) and server-side failures (5xx) are considered
// temporary. Network errors and timeouts should also be considered
// temporary but are not represented by this type.
func (e *Error) Temporary() bool {
	if e.Status == http.StatusTooManyRequests {
		return true
	}
	return e.Status >= 500
}

// IsAuthExpired reports whether err is a Spotify API error indicating
// that the access token used for the request has expired or been
// revoked.
func IsAuthExpired(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized
	}
	return false
}

// Predefined errors for common cases.
var (
	// ErrNoRedirectURI is returned when an authorization-flow operation
	// is attempted without a configured redirect URI.
	ErrNoRedirectURI = fmt.Errorf("spotify: redirect URI required")
)
