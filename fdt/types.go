package fdt

// Header holds the ten fixed fields at the start of every blob.
// All fields are stored big-endian.
type Header struct {
	// Magic must equal Magic
	Magic uint32

	// TotalSize is the size of the whole blob in bytes
	TotalSize uint32

	// OffDtStruct is the offset of the structure block
	OffDtStruct uint32

	// OffDtStrings is the offset of the strings block
	OffDtStrings uint32

	// OffMemRsvmap is the offset of the memory reservation block
	OffMemRsvmap uint32

	// Version is the revision the blob was written at
	Version uint32

	// LastCompVersion is the oldest revision the blob is compatible with
	LastCompVersion uint32

	// BootCPUIDPhys is the physical ID of the boot CPU
	BootCPUIDPhys uint32

	// SizeDtStrings is the length of the strings block
	SizeDtStrings uint32

	// SizeDtStruct is the length of the structure block
	SizeDtStruct uint32
}

// ReserveEntry is one range of physical memory the guest must not allocate from.
type ReserveEntry struct {
	// Address is the physical start of the range
	Address uint64

	// Size is the length of the range in bytes
	Size uint64
}

// IsSentinel reports whether e is the (0,0) entry that ends the reservation block.
func (e ReserveEntry) IsSentinel() bool {
	return e.Address == 0 && e.Size == 0
}
