// Package apierr provides the shared error taxonomy, error classification and
// retry scheduling used by every image-generation call.
//
// Provider adapters map SDK errors to these sentinels (or to *StatusError) at
// the adapter boundary using fmt.Errorf("%s: %w", msg, sentinel).
// Callers check with errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import (
	"errors"
	"fmt"
)

// Sentinel errors for API interaction failures.
var (
	// ErrMissingCredential indicates no API key is configured (fatal, not retryable).
	ErrMissingCredential = errors.New("missing API key")

	// ErrRateLimit indicates the provider is rate limiting or the quota is exhausted (retryable).
	ErrRateLimit = errors.New("quota exceeded")

	// ErrOverloaded indicates the provider is temporarily overloaded (retryable).
	ErrOverloaded = errors.New("model overloaded")

	// ErrGivenUp indicates retries were exhausted on a transient error.
	ErrGivenUp = errors.New("retries exhausted")

	// ErrNoCandidates indicates the provider returned a response without candidates.
	ErrNoCandidates = errors.New("no candidates returned from the model")

	// ErrNoImageData indicates the first candidate carried no inline image part.
	ErrNoImageData = errors.New("no image data found in the response")

	// ErrNoTextData indicates a structured (JSON) response carried no text.
	ErrNoTextData = errors.New("no text data found in the response")

	// ErrTimeout indicates a request exceeded its deadline.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) that is not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrUnsupported indicates a provider cannot serve the request shape.
	ErrUnsupported = errors.New("unsupported by provider")
)

// StatusError carries the HTTP status of a provider failure.
// Adapters wrap their SDK error types into it so that classification does
// not depend on any provider package.
type StatusError struct {
	Code    int
	Message string
	Err     error
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Code)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// GivenUpError is returned when a transient error persisted through every retry.
// It is distinct from the last provider error so callers can present a clear
// "try later or use your own key" message; the last error stays reachable
// through errors.Is / errors.As.
type GivenUpError struct {
	Attempts int
	Kind     Kind
	Last     error
}

func (e *GivenUpError) Error() string {
	return fmt.Sprintf("the provider is still %s after %d attempts: try again in a few minutes or use a paid/private API key",
		e.Kind.condition(), e.Attempts)
}

func (e *GivenUpError) Unwrap() []error {
	return []error{ErrGivenUp, e.Last}
}
