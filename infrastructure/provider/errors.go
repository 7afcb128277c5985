package provider

import "fmt"

// ProviderError carries the operation and HTTP status of a failed
// provider call alongside the underlying error.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	wrapped    error
}

// NewProviderError creates a new ProviderError.
func NewProviderError(operation string, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{
		operation:  operation,
		statusCode: statusCode,
		message:    message,
		wrapped:    wrapped,
	}
}

// Operation returns the failed operation name.
func (e *ProviderError) Operation() string { return e.operation }

// StatusCode returns the HTTP status code, or 0 when not applicable.
func (e *ProviderError) StatusCode() int { return e.statusCode }

func (e *ProviderError) Error() string {
	if e.statusCode > 0 {
		return fmt.Sprintf("provider %s failed (status %d): %s", e.operation, e.statusCode, e.message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.operation, e.message)
}

func (e *ProviderError) Unwrap() error { return e.wrapped }
