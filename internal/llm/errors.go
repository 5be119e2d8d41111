package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies generation failures
type ErrorKind string

const (
	// KindMissingCredential means no access key is configured. Not retried.
	KindMissingCredential ErrorKind = "missing_credential"

	// KindBackendFailure covers network errors, timeouts and non-2xx statuses
	KindBackendFailure ErrorKind = "backend_failure"

	// KindMalformedResponse means the backend succeeded but returned no usable text
	KindMalformedResponse ErrorKind = "malformed_response"
)

// GenerationError is returned by every provider failure
type GenerationError struct {
	Kind     ErrorKind
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ErrMissingCredential is the cause attached to KindMissingCredential errors
var ErrMissingCredential = errors.New("API key is not configured")

func missingCredential(provider string) error {
	return &GenerationError{Kind: KindMissingCredential, Provider: provider, Err: ErrMissingCredential}
}

func backendFailure(provider string, err error) error {
	return &GenerationError{Kind: KindBackendFailure, Provider: provider, Err: err}
}

func malformedResponse(provider string, err error) error {
	return &GenerationError{Kind: KindMalformedResponse, Provider: provider, Err: err}
}

// KindOf returns the kind of a generation error anywhere in the chain.
// ok is false for errors that did not come from a provider.
func KindOf(err error) (ErrorKind, bool) {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind, true
	}
	return "", false
}

// IsTimeout reports whether the failure was caused by a deadline
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
