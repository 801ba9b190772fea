package boot

import (
	"fmt"
	"math"

	"github.com/moffa90/go-fdt/devicetree"
)

// NarrowPolicy decides what happens when a 64-bit memory region field is
// written into a one-cell (32-bit) "reg" pair.
type NarrowPolicy int

const (
	// NarrowFail rejects regions with a base or length above 4 GiB
	NarrowFail NarrowPolicy = iota

	// NarrowSaturate clamps base and length to 0xFFFFFFFF
	NarrowSaturate

	// NarrowTruncate keeps the low 32 bits of base and length
	NarrowTruncate
)

func (p NarrowPolicy) String() string {
	switch p {
	case NarrowFail:
		return "fail"
	case NarrowSaturate:
		return "saturate"
	case NarrowTruncate:
		return "truncate"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseNarrowPolicy returns the policy named s ("fail", "saturate" or "truncate").
func ParseNarrowPolicy(s string) (NarrowPolicy, error) {
	switch s {
	case "fail":
		return NarrowFail, nil
	case "saturate":
		return NarrowSaturate, nil
	case "truncate":
		return NarrowTruncate, nil
	default:
		return 0, fmt.Errorf("unknown narrowing policy %q (must be fail, saturate or truncate)", s)
	}
}

// Narrow converts memory regions into one-cell address/size pairs, in order.
func Narrow(regions []MemoryRegion, policy NarrowPolicy) (devicetree.AddressSizePairs, error) {
	pairs := make(devicetree.AddressSizePairs, 0, len(regions))

	for i, r := range regions {
		base, ok := narrow(r.Base, policy)
		if !ok {
			return nil, &NarrowingError{Index: i, Field: "base", Value: r.Base}
		}
		length, ok := narrow(r.Length, policy)
		if !ok {
			return nil, &NarrowingError{Index: i, Field: "length", Value: r.Length}
		}
		pairs = append(pairs, devicetree.AddressSize{Address: base, Size: length})
	}

	return pairs, nil
}

func narrow(v uint64, policy NarrowPolicy) (uint32, bool) {
	if v <= math.MaxUint32 {
		return uint32(v), true
	}

	switch policy {
	case NarrowSaturate:
		return math.MaxUint32, true
	case NarrowTruncate:
		return uint32(v), true
	default:
		return 0, false
	}
}
