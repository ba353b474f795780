package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Every failure of this client maps onto one
// of these; none of them is fatal to the process.
var (
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrValidationRejected     = errors.New("validation rejected")
	ErrNotFound               = errors.New("not found")
	ErrTransportUnavailable   = errors.New("transport unavailable")
	ErrMalformedEvent         = errors.New("malformed event")
)

var (
	ErrUnrecognizedEvent = errors.New("unrecognized event type")
	ErrNotAuction        = errors.New("listing is not an auction")
	ErrNoActiveListing   = errors.New("no active listing")
	ErrReconcilerStopped = errors.New("reconciler stopped")
)

// APIError is a failed call against the marketplace API. It unwraps to its
// Kind so callers can use errors.Is against the sentinels above.
type APIError struct {
	Op     string
	Status int
	Detail string
	Kind   error
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Kind, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

type validationError struct {
	reason string
}

func (e *validationError) Error() string { return e.reason }

func (e *validationError) Unwrap() error { return ErrValidationRejected }

// NewValidationError builds a client-side rejection carrying a readable reason.
func NewValidationError(reason string) error {
	return &validationError{reason: reason}
}

// Reason extracts the human-readable message to show for err.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	var vErr *validationError
	if errors.As(err, &vErr) {
		return vErr.reason
	}
	return err.Error()
}

// KindOf returns the sentinel kind of err, or nil if it has none.
func KindOf(err error) error {
	for _, kind := range []error{
		ErrAuthenticationRequired,
		ErrValidationRejected,
		ErrNotFound,
		ErrTransportUnavailable,
		ErrMalformedEvent,
	} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
