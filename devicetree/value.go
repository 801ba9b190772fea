package devicetree

import (
	"encoding/binary"
	"fmt"
)

// Kind identifies a Value variant.
type Kind int

// Value kinds.
const (
	KindEmpty Kind = iota
	KindUint32
	KindUint64
	KindString
	KindBytes
	KindAddressSizePairs
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindUint32:
		return "u32"
	case KindUint64:
		return "u64"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindAddressSizePairs:
		return "reg"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is a typed property payload. The set of implementations is closed:
// Empty, Uint32, Uint64, String, Bytes and AddressSizePairs.
type Value interface {
	// Kind returns the variant of the value
	Kind() Kind

	// EncodedLen returns the number of bytes Append writes
	EncodedLen() int

	// Append appends the big-endian encoding of the value to b
	Append(b []byte) []byte

	isValue()
}

// Empty is a property with no value, used for boolean flags.
type Empty struct{}

// Uint32 is a single big-endian 32-bit cell.
type Uint32 uint32

// Uint64 is a single big-endian 64-bit value (two cells).
type Uint64 uint64

// String is a NUL-terminated string.
type String string

// Bytes is an opaque byte sequence written unmodified.
type Bytes []byte

// AddressSize is one (address, size) pair of a "reg" property with
// #address-cells = #size-cells = 1.
type AddressSize struct {
	Address uint32
	Size    uint32
}

// AddressSizePairs is a "reg"-style list of one-cell address/size pairs.
type AddressSizePairs []AddressSize

func (Empty) Kind() Kind            { return KindEmpty }
func (Uint32) Kind() Kind           { return KindUint32 }
func (Uint64) Kind() Kind           { return KindUint64 }
func (String) Kind() Kind           { return KindString }
func (Bytes) Kind() Kind            { return KindBytes }
func (AddressSizePairs) Kind() Kind { return KindAddressSizePairs }

func (Empty) EncodedLen() int              { return 0 }
func (Uint32) EncodedLen() int             { return 4 }
func (Uint64) EncodedLen() int             { return 8 }
func (v String) EncodedLen() int           { return len(v) + 1 }
func (v Bytes) EncodedLen() int            { return len(v) }
func (v AddressSizePairs) EncodedLen() int { return 8 * len(v) }

func (Empty) Append(b []byte) []byte { return b }

func (v Uint32) Append(b []byte) []byte {
	return binary.BigEndian.AppendUint32(b, uint32(v))
}

func (v Uint64) Append(b []byte) []byte {
	return binary.BigEndian.AppendUint64(b, uint64(v))
}

func (v String) Append(b []byte) []byte {
	b = append(b, v...)
	return append(b, 0)
}

func (v Bytes) Append(b []byte) []byte {
	return append(b, v...)
}

func (v AddressSizePairs) Append(b []byte) []byte {
	for _, p := range v {
		b = binary.BigEndian.AppendUint32(b, p.Address)
		b = binary.BigEndian.AppendUint32(b, p.Size)
	}
	return b
}

func (Empty) isValue()            {}
func (Uint32) isValue()           {}
func (Uint64) isValue()           {}
func (String) isValue()           {}
func (Bytes) isValue()            {}
func (AddressSizePairs) isValue() {}

// Encode returns the encoding of v as a new slice.
func Encode(v Value) []byte {
	return v.Append(make([]byte, 0, v.EncodedLen()))
}
