package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// TransportError is a failure talking to an external service. StatusCode is
// zero when the request never produced an HTTP response.
type TransportError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s returned %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is rate-limit, auth or server class,
// or a network failure without a response.
func (e *TransportError) Transient() bool {
	switch {
	case e.StatusCode == 0:
		return !errors.Is(e.Err, context.Canceled)
	case e.StatusCode == http.StatusTooManyRequests,
		e.StatusCode == http.StatusUnauthorized,
		e.StatusCode == http.StatusForbidden:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// ValidationError means the service answered but the payload did not have
// the expected structure. Retrying the same request is not expected to help.
type ValidationError struct {
	Reason string
	Raw    string
}

func (e *ValidationError) Error() string {
	return "invalid structured output: " + e.Reason
}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Transient()
	}
	return false
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
