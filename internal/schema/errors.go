package schema

import (
	"errors"
)

// ErrValidation matches every ValidationError via errors.Is.
var ErrValidation = errors.New("schema validation failed")

// ValidationError reports a required field that is missing or has the wrong type.
// It renders as "<field>: <expected> expected", e.g. "messageTs: integer|Long expected".
type ValidationError struct {
	// Field is the schema path of the offending field, e.g. "elem.key".
	Field string
	// Expected describes the accepted type, e.g. "integer|Long".
	Expected string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Expected + " expected"
}

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// withPrefix returns a copy of the error nested under a parent field.
func (e *ValidationError) withPrefix(prefix string) *ValidationError {
	return &ValidationError{Field: prefix + "." + e.Field, Expected: e.Expected}
}
