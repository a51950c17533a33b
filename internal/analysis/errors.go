package analysis

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyTranscript = errors.New("transcript content is required")
	ErrEmptyContext    = errors.New("context is required")
)

// ConfigurationError means the provider has no credential. Callers treat it as
// "provider unavailable".
type ConfigurationError struct {
	Provider string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: api key not configured", e.Provider)
}

// ProviderError carries the HTTP status of a failed provider call. StatusCode is
// zero when the request never produced a response.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: api error (%d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: api error (%d)", e.Provider, e.StatusCode)
}

func (e *ProviderError) Unwrap() error { return e.Err }

type ParseError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *ParseError) Error() string {
	msg := e.Reason
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ErrorKind names the failure class of a provider attempt for logs and metrics.
func ErrorKind(err error) string {
	var cfgErr *ConfigurationError
	var provErr *ProviderError
	var parseErr *ParseError
	switch {
	case err == nil:
		return "none"
	case errors.As(err, &cfgErr):
		return "configuration"
	case errors.As(err, &provErr):
		return "provider"
	case errors.As(err, &parseErr):
		return "parse"
	default:
		return "unknown"
	}
}
