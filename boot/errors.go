package boot

import (
	"fmt"
)

// MemoryMapError indicates the platform memory map cannot describe guest memory.
type MemoryMapError struct {
	// Index is the offending region, or -1 for the map as a whole
	Index int

	// Reason describes the failure
	Reason string
}

func (e *MemoryMapError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid memory map: %s", e.Reason)
	}
	return fmt.Sprintf("invalid memory map: region %d: %s", e.Index, e.Reason)
}

// NarrowingError indicates a memory region field does not fit in 32 bits
// under NarrowFail.
type NarrowingError struct {
	// Index is the memory region being narrowed
	Index int

	// Field is "base" or "length"
	Field string

	// Value is the 64-bit value that did not fit
	Value uint64
}

func (e *NarrowingError) Error() string {
	return fmt.Sprintf("memory region %d: %s 0x%X does not fit in 32 bits", e.Index, e.Field, e.Value)
}
