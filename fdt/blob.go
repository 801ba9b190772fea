package fdt

import (
	"encoding/binary"
	"fmt"
)

// Blob is an immutable devicetree blob together with its parsed header.
// A Blob is created from freshly encoded bytes or from an externally
// supplied buffer; either way it must pass CompatibilityCheck before use.
type Blob struct {
	data   []byte
	header Header
}

// NewBlob wraps data. The buffer is copied so later changes by the caller
// do not affect the blob.
//
// Returns a compatibility error only if data is too short to hold a header.
func NewBlob(data []byte) (*Blob, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	b := &Blob{
		data:   make([]byte, len(data)),
		header: h,
	}
	copy(b.data, data)

	return b, nil
}

// Header returns the header fields extracted from the blob.
func (b *Blob) Header() Header {
	return b.header
}

// Bytes returns the blob contents. The returned slice must not be modified.
func (b *Blob) Bytes() []byte {
	return b.data
}

// Len returns the length of the underlying buffer.
func (b *Blob) Len() int {
	return len(b.data)
}

// CompatibilityCheck performs header-only validation:
//   - magic matches
//   - LastCompVersion <= Version (the implemented one) and version >= LastCompVersion
//   - totalsize equals the buffer length
//   - block offsets lie in [0, totalsize), are 4-byte aligned and strictly
//     increasing in the order reservation map, structure, strings
//     (an empty strings block may start at totalsize)
//   - block sizes fit before the following block
//
// It does not walk the structure block. Every failure unwraps to ErrNotCompatible.
func (b *Blob) CompatibilityCheck() error {
	h := b.header

	if h.Magic != Magic {
		return &CompatibilityError{
			Field:  "magic",
			Reason: fmt.Sprintf("got 0x%08X, expected 0x%08X", h.Magic, uint32(Magic)),
		}
	}

	if h.LastCompVersion > Version {
		return &CompatibilityError{
			Field:  "last_comp_version",
			Reason: fmt.Sprintf("%d is newer than supported version %d", h.LastCompVersion, Version),
		}
	}

	if h.Version < h.LastCompVersion {
		return &CompatibilityError{
			Field:  "version",
			Reason: fmt.Sprintf("%d is older than last_comp_version %d", h.Version, h.LastCompVersion),
		}
	}

	if uint64(h.TotalSize) != uint64(len(b.data)) {
		return &CompatibilityError{
			Field:  "totalsize",
			Reason: fmt.Sprintf("header says %d bytes, buffer has %d", h.TotalSize, len(b.data)),
		}
	}

	// An empty strings block may sit exactly at the end of the blob.
	offsets := []struct {
		name    string
		off     uint32
		atEndOK bool
	}{
		{"off_mem_rsvmap", h.OffMemRsvmap, false},
		{"off_dt_struct", h.OffDtStruct, false},
		{"off_dt_strings", h.OffDtStrings, h.SizeDtStrings == 0},
	}
	for _, o := range offsets {
		if o.off > h.TotalSize || (o.off == h.TotalSize && !o.atEndOK) {
			return &CompatibilityError{
				Field:  o.name,
				Reason: fmt.Sprintf("offset %d is outside blob of %d bytes", o.off, h.TotalSize),
			}
		}
		if !IsAligned(o.off, StructAlign) {
			return &CompatibilityError{
				Field:  o.name,
				Reason: fmt.Sprintf("offset %d is not %d-byte aligned", o.off, StructAlign),
			}
		}
	}

	if h.OffMemRsvmap < HeaderSize {
		return &CompatibilityError{
			Field:  "off_mem_rsvmap",
			Reason: fmt.Sprintf("offset %d overlaps the %d-byte header", h.OffMemRsvmap, HeaderSize),
		}
	}

	if h.OffDtStruct <= h.OffMemRsvmap {
		return &CompatibilityError{
			Field:  "off_dt_struct",
			Reason: fmt.Sprintf("structure block at %d does not follow reservation map at %d", h.OffDtStruct, h.OffMemRsvmap),
		}
	}

	if h.OffDtStrings <= h.OffDtStruct {
		return &CompatibilityError{
			Field:  "off_dt_strings",
			Reason: fmt.Sprintf("strings block at %d does not follow structure block at %d", h.OffDtStrings, h.OffDtStruct),
		}
	}

	// 64-bit sums so a forged size cannot wrap around.
	if uint64(h.OffDtStruct)+uint64(h.SizeDtStruct) > uint64(h.OffDtStrings) {
		return &CompatibilityError{
			Field:  "size_dt_struct",
			Reason: fmt.Sprintf("structure block %d+%d overruns strings block at %d", h.OffDtStruct, h.SizeDtStruct, h.OffDtStrings),
		}
	}

	if uint64(h.OffDtStrings)+uint64(h.SizeDtStrings) > uint64(h.TotalSize) {
		return &CompatibilityError{
			Field:  "size_dt_strings",
			Reason: fmt.Sprintf("strings block %d+%d overruns blob of %d bytes", h.OffDtStrings, h.SizeDtStrings, h.TotalSize),
		}
	}

	return nil
}

// StructBlock returns the structure block. The blob must have passed
// CompatibilityCheck.
func (b *Blob) StructBlock() []byte {
	h := b.header
	return b.data[h.OffDtStruct : h.OffDtStruct+h.SizeDtStruct]
}

// StringsBlock returns the strings block. The blob must have passed
// CompatibilityCheck.
func (b *Blob) StringsBlock() []byte {
	h := b.header
	return b.data[h.OffDtStrings : h.OffDtStrings+h.SizeDtStrings]
}

// ReservedEntries decodes the memory reservation block up to, but not
// including, the (0,0) terminator. The blob must have passed CompatibilityCheck.
//
// Returns a compatibility error if the block runs into the structure
// block without a terminator.
func (b *Blob) ReservedEntries() ([]ReserveEntry, error) {
	h := b.header
	var entries []ReserveEntry

	for off := uint64(h.OffMemRsvmap); ; off += ReserveEntrySize {
		if off+ReserveEntrySize > uint64(h.OffDtStruct) {
			return nil, &CompatibilityError{
				Field:  "mem_rsvmap",
				Reason: "missing (0,0) terminator",
			}
		}

		e := ReserveEntry{
			Address: binary.BigEndian.Uint64(b.data[off:]),
			Size:    binary.BigEndian.Uint64(b.data[off+8:]),
		}
		if e.IsSentinel() {
			return entries, nil
		}
		entries = append(entries, e)
	}
}
