package devicetree

import (
	"errors"
	"fmt"
)

// ErrEncoding is wrapped by every EncodingError.
var ErrEncoding = errors.New("devicetree encoding failed")

// ErrInvalidReservation is returned by Reserve for ranges that cannot be
// represented in the reservation block.
var ErrInvalidReservation = errors.New("invalid memory reservation")

// EncodingError indicates the tree cannot be written as a blob. It signals a
// construction bug, not bad input from outside.
type EncodingError struct {
	// Block is the blob block being written: "struct", "strings" or "blob"
	Block string

	// Path is the node path involved, if any
	Path string

	// Size is the offending size in bytes, if the failure is about size
	Size uint64

	// Reason describes the failure
	Reason string
}

func (e *EncodingError) Error() string {
	msg := fmt.Sprintf("%v: %s block: %s", ErrEncoding, e.Block, e.Reason)
	if e.Path != "" {
		msg += fmt.Sprintf(" (node %q)", e.Path)
	}
	if e.Size != 0 {
		msg += fmt.Sprintf(" (%d bytes)", e.Size)
	}
	return msg
}

func (e *EncodingError) Unwrap() error {
	return ErrEncoding
}

// IsEncodingError returns true if err is or wraps an EncodingError.
func IsEncodingError(err error) bool {
	var e *EncodingError
	return errors.As(err, &e)
}
