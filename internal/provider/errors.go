package provider

import (
	"errors"
	"fmt"
)

// Common errors returned by the provider clients.
var (
	// ErrNoMatch indicates the provider has no published version of the entry.
	ErrNoMatch = errors.New("no match")

	// ErrAmbiguous indicates more than one distinct published version matched.
	ErrAmbiguous = errors.New("ambiguous match")

	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAuthError indicates an authentication error (missing/invalid API key).
	ErrAuthError = errors.New("authentication error")

	// ErrRateLimited indicates the rate limit has been exceeded or the provider
	// answered with a bot check.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error")

	// ErrInvalidResponse indicates an unexpected response body.
	ErrInvalidResponse = errors.New("invalid response")

	// ErrNotConfigured indicates a provider is missing required settings.
	ErrNotConfigured = errors.New("provider not configured")
)

// APIError represents an HTTP error from a provider.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsAuthError returns true if the error indicates an authentication problem.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrAuthError) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 401 || apiErr.StatusCode == 403
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

// IsNoMatch returns true if the provider answered but had nothing usable.
func IsNoMatch(err error) bool {
	return errors.Is(err, ErrNoMatch) || errors.Is(err, ErrAmbiguous) || IsNotFound(err)
}
