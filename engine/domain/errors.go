package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog loading and request validation.
var (
	ErrCatalogMissing = errors.New("catalog source missing")
	ErrCatalogInvalid = errors.New("catalog format invalid")
	ErrEmptyMessage   = errors.New("message is empty")
)

// ValidationError wraps a sentinel with the offending field.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}
