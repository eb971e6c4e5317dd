package catalog

import (
	"errors"
	"fmt"
)

// ErrMalformedField marks a present-but-unparseable field.
var ErrMalformedField = errors.New("malformed field")

// ErrOutOfRange marks a numeric field outside its allowed range.
var ErrOutOfRange = errors.New("value out of range")

// DataLoadError reports a bad input record. Index is the record's position
// in the source, or -1 when the failure is not tied to a single record.
type DataLoadError struct {
	Index int
	Field string
	Err   error
}

func (e *DataLoadError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("load players: %v", e.Err)
	}
	if e.Field == "" {
		return fmt.Sprintf("player %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("player %d: field %s: %v", e.Index, e.Field, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}

func fieldError(index int, field string, err error) *DataLoadError {
	return &DataLoadError{Index: index, Field: field, Err: err}
}
