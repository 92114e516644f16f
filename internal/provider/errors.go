package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNoToken means the login response carried neither token nor access_token.
	ErrNoToken = errors.New("no token received from server")
	// ErrNotAuthenticated means an authenticated call was attempted without a token.
	ErrNotAuthenticated = errors.New("session has no bearer token")
)

// rateLimitedMarker is what the price endpoint says when its upstream throttles.
const rateLimitedMarker = "Rate limited"

// APIError is a non-2xx answer from the COT backend.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

// RateLimited reports whether the backend refused the call because its
// price upstream is throttling.
func (e *APIError) RateLimited() bool {
	return e.Status == http.StatusBadRequest && strings.Contains(e.Message, rateLimitedMarker)
}

// Unauthorized reports a rejected bearer token.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
