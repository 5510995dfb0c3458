package layout

import (
	"errors"
	"fmt"
)

// ErrLengthMismatch marks an account whose data length does not equal the
// expected layout span. The program namespace hosts several account kinds,
// so callers treat this as "not ours" and drop the update silently.
var ErrLengthMismatch = errors.New("account data length does not match layout span")

// DecodeError reports a structurally invalid account of the correct length.
type DecodeError struct {
	Layout string
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("decode %s: field %s: %v", e.Layout, e.Field, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Layout, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func newDecodeError(layout, field string, err error) *DecodeError {
	return &DecodeError{Layout: layout, Field: field, Err: err}
}

func lengthMismatch(layout string, got, want int) error {
	return fmt.Errorf("%s: got %d bytes, want %d: %w", layout, got, want, ErrLengthMismatch)
}
