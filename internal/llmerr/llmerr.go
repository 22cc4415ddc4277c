// Package llmerr defines the typed failures returned by the transport and
// provider clients. Every error that leaves a provider call is one of these
// types (or wraps one), so callers can classify failures with errors.As.
package llmerr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyConversation is returned when a query is issued without messages.
var ErrEmptyConversation = errors.New("conversation must contain at least one message")

// ConfigurationError reports a required static field that is not set.
// It is detected before any network call is made.
type ConfigurationError struct {
	Provider string
	Field    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %s is not set", e.Provider, e.Field)
}

// NetworkError means the endpoint could not be reached: DNS, connection,
// timeout, malformed URL or a broken response stream.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return fmt.Sprintf("network error calling %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError is a response with a non-2xx status. Body holds the raw response
// for diagnostics; Message is the provider's error message when the body
// carried one.
type HTTPError struct {
	Status  int
	Body    string
	Message string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, body)
}

// ResponseShapeError is a successful response whose body does not contain
// the expected completion.
type ResponseShapeError struct {
	Provider string
	Reason   string
}

func (e *ResponseShapeError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("unexpected response format: %s", e.Reason)
	}
	return fmt.Sprintf("unexpected %s response format: %s", e.Provider, e.Reason)
}

// UnknownProviderError names a provider outside the supported set.
type UnknownProviderError struct {
	Name string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown API provider %q", e.Name)
}

// IsNetwork reports whether err is or wraps a *NetworkError.
func IsNetwork(err error) bool {
	var target *NetworkError
	return errors.As(err, &target)
}

// IsHTTP reports whether err is or wraps an *HTTPError.
func IsHTTP(err error) bool {
	var target *HTTPError
	return errors.As(err, &target)
}

// IsResponseShape reports whether err is or wraps a *ResponseShapeError.
func IsResponseShape(err error) bool {
	var target *ResponseShapeError
	return errors.As(err, &target)
}

// IsConfiguration reports whether err is or wraps a *ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var target *HTTPError
	if errors.As(err, &target) {
		return target.Status
	}
	return 0
}
