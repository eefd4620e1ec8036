package vision

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoCredentials is returned when no API key is configured.
var ErrNoCredentials = errors.New("vision: no API key configured")

// ErrNoImage is returned when an enhancement call completes without
// producing an image payload.
var ErrNoImage = errors.New("vision: no image produced")

// StatusError is a non-2xx response from the capability.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("vision: http %d: %s", e.StatusCode, e.Body)
}

// SchemaError is a response that decoded but violates the analysis contract
// (missing required field, unknown enum value, out-of-domain score). Schema
// violations are terminal, never retried.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("vision: schema violation on %q: %s", e.Field, e.Reason)
}

// IsTransient classifies an error as rate-limit or service-overload, the
// only failures the orchestrators retry.
func IsTransient(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable:
			return true
		}
	}
	return false
}
