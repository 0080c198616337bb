package revenuecat

import (
	"errors"
	"fmt"
)

// ErrRequestFailed is matched by every *APIError via errors.Is.
var ErrRequestFailed = errors.New("revenuecat: request failed")

// APIError reports a remote call that did not succeed. StatusCode and
// StatusText are set only when the server answered with a non-2xx status.
type APIError struct {
	StatusCode int
	StatusText string
	Message    string

	cause error
}

func (e *APIError) Error() string {
	return e.Message
}

// HasStatus reports whether the failure came from an HTTP response.
func (e *APIError) HasStatus() bool {
	return e.StatusCode != 0
}

// Unwrap returns the transport or decode error behind the failure, if any.
func (e *APIError) Unwrap() error {
	return e.cause
}

// Is lets errors.Is(err, ErrRequestFailed) succeed.
func (e *APIError) Is(target error) bool {
	return target == ErrRequestFailed
}

func statusError(code int, text string) *APIError {
	return &APIError{
		StatusCode: code,
		StatusText: text,
		Message:    fmt.Sprintf("API request failed: %d %s", code, text),
	}
}

// wrapError tags err with the operation that failed. An *APIError passes
// through untouched.
func wrapError(op string, err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{
		Message: fmt.Sprintf("Failed to %s: %v", op, err),
		cause:   err,
	}
}
