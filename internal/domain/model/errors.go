package model

import (
	"errors"
	"fmt"
)

// ErrSchema is the sentinel kind for a column requested but absent from a table.
var ErrSchema = errors.New("schema error")

// SchemaError reports a missing column. It matches ErrSchema via errors.Is.
type SchemaError struct {
	Table string
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error: column %q not present in %s", e.Field, e.Table)
}

// Unwrap exposes the sentinel kind.
func (e *SchemaError) Unwrap() error { return ErrSchema }

// NewSchemaError builds a SchemaError for field in table.
func NewSchemaError(table string, field string) error {
	return &SchemaError{Table: table, Field: field}
}
