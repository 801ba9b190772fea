package fdt

// Align rounds n up to the next multiple of a. The alignment must be a
// power of two.
func Align(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}

// IsAligned reports whether n is a multiple of a.
func IsAligned(n, a uint32) bool {
	return n&(a-1) == 0
}

// Pad appends zero bytes to b until its length is a multiple of a.
func Pad(b []byte, a int) []byte {
	for len(b)%a != 0 {
		b = append(b, 0)
	}
	return b
}
