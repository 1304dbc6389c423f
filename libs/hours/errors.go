package hours

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedRange      = errors.New("malformed range")
	ErrMalformedValue      = errors.New("malformed field value")
	ErrNonContiguousFields = errors.New("fields must be contiguous")
	ErrVariableRangeField  = errors.New("fields must have a fixed range")
	ErrUnsupportedField    = errors.New("unsupported field")
	ErrUnsupportedUnit     = errors.New("unsupported unit")
	ErrValueOutOfRange     = errors.New("value out of range")
	ErrFieldMismatch       = errors.New("period bounds carry different fields")
	ErrMissingSpec         = errors.New("business hours specification is missing")
)

// ParseError reports the token that could not be parsed and the field whose
// clause it came from.
type ParseError struct {
	Field Field
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s token %q: %v", e.Field, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
