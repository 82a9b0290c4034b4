// Package clients provides the instrumented HTTP client used to reach the
// remote quote feed.
package clients

import "errors"

// Transport-level failures. Callers translate them into domain errors.
var (
	// ErrCircuitOpen is returned without contacting the server while the
	// breaker is open.
	ErrCircuitOpen = errors.New("circuit breaker open")

	// ErrMaxRetriesExceeded wraps the last error once every attempt failed.
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
)
