package fdt

import (
	"encoding/binary"
	"fmt"
)

// AppendHeader appends the big-endian encoding of h to b.
//
// Layout (HeaderSize bytes):
//
//	[MAGIC][TOTALSIZE][OFF_STRUCT][OFF_STRINGS][OFF_RSVMAP]
//	[VERSION][LAST_COMP][BOOT_CPUID][SIZE_STRINGS][SIZE_STRUCT]
func AppendHeader(b []byte, h Header) []byte {
	b = binary.BigEndian.AppendUint32(b, h.Magic)
	b = binary.BigEndian.AppendUint32(b, h.TotalSize)
	b = binary.BigEndian.AppendUint32(b, h.OffDtStruct)
	b = binary.BigEndian.AppendUint32(b, h.OffDtStrings)
	b = binary.BigEndian.AppendUint32(b, h.OffMemRsvmap)
	b = binary.BigEndian.AppendUint32(b, h.Version)
	b = binary.BigEndian.AppendUint32(b, h.LastCompVersion)
	b = binary.BigEndian.AppendUint32(b, h.BootCPUIDPhys)
	b = binary.BigEndian.AppendUint32(b, h.SizeDtStrings)
	b = binary.BigEndian.AppendUint32(b, h.SizeDtStruct)
	return b
}

// ParseHeader extracts the header fields from the start of data.
// It only checks that enough bytes are present; use CompatibilityCheck
// to validate the values.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, &CompatibilityError{
			Field:  "header",
			Reason: fmt.Sprintf("buffer too short: got %d bytes, minimum is %d", len(data), HeaderSize),
		}
	}

	return Header{
		Magic:           binary.BigEndian.Uint32(data[offMagic:]),
		TotalSize:       binary.BigEndian.Uint32(data[offTotalSize:]),
		OffDtStruct:     binary.BigEndian.Uint32(data[offOffDtStruct:]),
		OffDtStrings:    binary.BigEndian.Uint32(data[offOffDtStrings:]),
		OffMemRsvmap:    binary.BigEndian.Uint32(data[offOffMemRsvmap:]),
		Version:         binary.BigEndian.Uint32(data[offVersion:]),
		LastCompVersion: binary.BigEndian.Uint32(data[offLastCompVersion:]),
		BootCPUIDPhys:   binary.BigEndian.Uint32(data[offBootCPUIDPhys:]),
		SizeDtStrings:   binary.BigEndian.Uint32(data[offSizeDtStrings:]),
		SizeDtStruct:    binary.BigEndian.Uint32(data[offSizeDtStruct:]),
	}, nil
}

// AppendReserveMap appends the memory reservation block for entries,
// including the terminating (0,0) entry. Sentinel entries inside entries
// are not written, since a reader would stop at the first one.
func AppendReserveMap(b []byte, entries []ReserveEntry) []byte {
	for _, e := range entries {
		if e.IsSentinel() {
			continue
		}
		b = binary.BigEndian.AppendUint64(b, e.Address)
		b = binary.BigEndian.AppendUint64(b, e.Size)
	}
	b = binary.BigEndian.AppendUint64(b, 0)
	b = binary.BigEndian.AppendUint64(b, 0)
	return b
}

// AppendToken appends a structure block token.
func AppendToken(b []byte, token uint32) []byte {
	return binary.BigEndian.AppendUint32(b, token)
}

// AppendName appends s with a trailing NUL, padded to StructAlign.
func AppendName(b []byte, s string) []byte {
	b = append(b, s...)
	b = append(b, 0)
	return Pad(b, StructAlign)
}
