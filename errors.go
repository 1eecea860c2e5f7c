package userfetch

import (
	"errors"
	"fmt"
)

// Error definitions
var (
	// ErrBaseURLRequired is returned when no base URL could be resolved from any feeder
	ErrBaseURLRequired = errors.New("base URL is required")

	// ErrInvalidBaseURL is returned when the base URL cannot be parsed or is not absolute
	ErrInvalidBaseURL = errors.New("base URL must be an absolute URL")

	// ErrInvalidReference is returned when the relative path cannot be parsed
	ErrInvalidReference = errors.New("invalid relative URL reference")

	// ErrNilSettings is returned when a client is built without settings
	ErrNilSettings = errors.New("settings must not be nil")

	// ErrConfigFeederError wraps any failure reported by a feeder
	ErrConfigFeederError = errors.New("config feeder error")

	// ErrConfigTargetNotPointer is returned when a config target is not a pointer to a struct
	ErrConfigTargetNotPointer = errors.New("config target must be a non-nil pointer to a struct")

	// ErrRequiredFieldMissing is returned when a field tagged required is left empty
	ErrRequiredFieldMissing = errors.New("required field missing")

	// ErrInvalidDefault is returned when a default tag cannot be converted to the field type
	ErrInvalidDefault = errors.New("invalid default value")

	// ErrConfigValidationFailed wraps an error returned by a ConfigValidator
	ErrConfigValidationFailed = errors.New("config validation failed")

	// ErrConfigSetupError wraps an error returned by a ConfigSetup hook
	ErrConfigSetupError = errors.New("config setup error")

	// ErrNilResponse is returned when decoding the absent (nil) response
	ErrNilResponse = errors.New("no response: the user service answered with a non-success status")

	// ErrObserverNil is returned when registering a nil observer
	ErrObserverNil = errors.New("observer must not be nil")
)

// TransportError reports a request that could not be completed at the
// transport level: connection refused, DNS failure, a cancelled context and
// so on. It is never used for a response that arrived with a non-success status.
type TransportError struct {
	// Op is the operation that failed, e.g. "build request" or "send request".
	Op string

	// URL is the sanitized target URL.
	URL string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ConfigError represents configuration problems.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g. "BASE_URL")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// IsTransportError reports whether err is, or wraps, a *TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
