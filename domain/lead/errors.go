package lead

import (
	"errors"
	"fmt"
)

// ErrSchema is the sentinel wrapped by every SchemaError.
var ErrSchema = errors.New("schema error")

// SchemaError reports a raw record that could not be mapped onto the
// canonical schema. It names the required field no column mapped to.
type SchemaError struct {
	field Field
}

// NewSchemaError creates a SchemaError for the given unmappable field.
func NewSchemaError(field Field) *SchemaError {
	return &SchemaError{field: field}
}

// Field returns the canonical field that could not be mapped.
func (e *SchemaError) Field() Field { return e.field }

// Error implements error.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("no column maps to required field %q", e.field)
}

// Unwrap lets errors.Is(err, ErrSchema) match.
func (e *SchemaError) Unwrap() error { return ErrSchema }
