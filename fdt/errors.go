package fdt

import (
	"errors"
	"fmt"
)

// ErrNotCompatible is the single failure signal of CompatibilityCheck.
// Every CompatibilityError unwraps to it.
var ErrNotCompatible = errors.New("not compatible")

// CompatibilityError describes why a blob was rejected.
type CompatibilityError struct {
	// Field is the header field or block that failed validation
	Field string

	// Reason is a human-readable description of the failure
	Reason string
}

func (e *CompatibilityError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %s", ErrNotCompatible, e.Field)
	}
	return fmt.Sprintf("%v: %s: %s", ErrNotCompatible, e.Field, e.Reason)
}

func (e *CompatibilityError) Unwrap() error {
	return ErrNotCompatible
}

// IsCompatibilityError returns true if err is or wraps a compatibility failure.
func IsCompatibilityError(err error) bool {
	return errors.Is(err, ErrNotCompatible)
}
