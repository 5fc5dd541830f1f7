package ai

import (
	"errors"
	"fmt"
)

// ErrProviderUnavailable is returned by adapters for vendors that are
// listed but not wired up yet.
var ErrProviderUnavailable = errors.New("provider integration is not available yet")

// ConfigurationError reports a request that cannot be sent as configured,
// such as a missing key or custom endpoint. No network call is made.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return e.Reason
}

// TransportError wraps a connection-level failure: DNS, refused, reset or
// aborted reads.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProviderHTTPError is a non-2xx response. Body holds the raw error payload
// and is never treated as content.
type ProviderHTTPError struct {
	Provider string
	Status   int
	Body     string
}

func (e *ProviderHTTPError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.Status, e.Body)
}
