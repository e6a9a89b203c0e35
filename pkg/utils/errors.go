package utils

import (
	"errors"
	"fmt"
)

// RetryClass classifies how a provider failure should be handled.
type RetryClass int

const (
	// RetryNow means the call can be retried within the same run.
	RetryNow RetryClass = iota
	// RetryLater means the provider is throttling or out of quota; the ad is
	// left untouched and picked up again on the next scheduled run.
	RetryLater
	// Unrecoverable means retrying will never succeed for this URL.
	Unrecoverable
)

func (c RetryClass) String() string {
	switch c {
	case RetryNow:
		return "retry_now"
	case RetryLater:
		return "retry_later"
	case Unrecoverable:
		return "unrecoverable"
	default:
		return "unknown"
	}
}

// ProviderError represents a failed call to an external provider (scraping
// service, language model, embedding API or vector index). The retry class
// drives how the orchestrator treats the affected ad.
type ProviderError struct {
	Provider   string
	Op         string
	Class      RetryClass
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s failed (%s, status %d): %v", e.Provider, e.Op, e.Class, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed (%s): %v", e.Provider, e.Op, e.Class, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a ProviderError for the given provider operation.
func NewProviderError(provider, op string, class RetryClass, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Class: class, Err: err}
}

// NewProviderStatusError creates a ProviderError carrying an HTTP status code.
func NewProviderStatusError(provider, op string, class RetryClass, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Class: class, StatusCode: status, Err: err}
}

// IsProviderError reports whether err is (or wraps) a ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsUnrecoverable reports whether err is a provider failure that will never
// succeed for the same input.
func IsUnrecoverable(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Class == Unrecoverable
}

// MalformedExtractionError indicates that the language model returned output
// that does not parse into the expected structured shape. It is never coerced
// to defaults; the ad stays at its prior stage for retry.
type MalformedExtractionError struct {
	Detail string
	Err    error
}

func (e *MalformedExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed extraction output: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("malformed extraction output: %s", e.Detail)
}

func (e *MalformedExtractionError) Unwrap() error {
	return e.Err
}

// NewMalformedExtractionError creates a MalformedExtractionError.
func NewMalformedExtractionError(detail string, err error) *MalformedExtractionError {
	return &MalformedExtractionError{Detail: detail, Err: err}
}

// ConfigurationError indicates missing or invalid configuration. It is fatal
// at startup, before any ad is processed.
type ConfigurationError struct {
	Detail string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Detail)
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(detail string) *ConfigurationError {
	return &ConfigurationError{Detail: detail}
}
