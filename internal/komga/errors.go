package komga

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when Komga answers 404.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when Komga rejects the credentials.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is an unexpected HTTP status from Komga.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("komga %s %s: status %d", e.Method, e.Path, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is lets errors.Is match the sentinel that corresponds to the status code.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == 404
	case ErrUnauthorized:
		return e.StatusCode == 401 || e.StatusCode == 403
	}
	return false
}

func (e *StatusError) retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
