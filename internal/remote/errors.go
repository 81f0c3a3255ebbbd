package remote

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned when the API rejects the bearer token.
var ErrUnauthorized = errors.New("remote: unauthorized")

// StatusError reports a non-2xx response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("remote: %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// APIError reports a 2xx response whose envelope carries success=false.
type APIError struct {
	Path    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote: %s: request not successful", e.Path)
	}
	return e.Message
}
