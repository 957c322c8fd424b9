// Package apperr defines the error kinds shared by providers and the route
// analysis pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Provider adapters wrap one of these so callers can branch
// with errors.Is without knowing which provider failed.
var (
	ErrConfiguration       = errors.New("configuration error")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrUnresolvableInput   = errors.New("unresolvable input")
	ErrNoDataAvailable     = errors.New("no data available")
	ErrNotFound            = errors.New("not found")
)

// Error attaches the provider or input that failed to an error kind.
type Error struct {
	Kind     error
	Provider string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Provider != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
	case e.Provider != "":
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	default:
		return e.Kind.Error()
	}
}

// Is matches the error kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Configuration reports a missing or invalid credential for provider.
func Configuration(provider, format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Provider: provider, Err: fmt.Errorf(format, args...)}
}

// Unavailable wraps a transport or status failure from provider.
func Unavailable(provider string, err error) error {
	return &Error{Kind: ErrProviderUnavailable, Provider: provider, Err: err}
}

// Unresolvable wraps an input that could not be parsed or resolved.
func Unresolvable(what string, err error) error {
	return &Error{Kind: ErrUnresolvableInput, Provider: what, Err: err}
}

// NoData reports that provider had nothing for the request.
func NoData(provider string, err error) error {
	return &Error{Kind: ErrNoDataAvailable, Provider: provider, Err: err}
}

// StatusError is returned for non-success HTTP responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}
