package fdt

// Version is the devicetree format revision written by this library.
const Version = 17

// LastCompVersion is the oldest revision a reader must understand to consume
// blobs written at Version.
const LastCompVersion = 16

// Magic is the header magic value, stored big-endian as d0 0d fe ed.
const Magic = 0xd00dfeed

// Header layout.
const (
	// HeaderSize is the size of the ten 32-bit header fields in bytes
	HeaderSize = 40

	// ReserveEntrySize is the size of one memory reservation entry:
	// address(8) + size(8)
	ReserveEntrySize = 16

	// TokenSize is the size of a structure block token
	TokenSize = 4

	// PropHeaderSize is the size of a property record after its token:
	// len(4) + nameoff(4)
	PropHeaderSize = 8
)

// Structure block tokens.
const (
	// TokenBeginNode opens a node and is followed by its NUL-terminated name
	TokenBeginNode = 0x00000001

	// TokenEndNode closes the most recently opened node
	TokenEndNode = 0x00000002

	// TokenProp introduces a property record
	TokenProp = 0x00000003

	// TokenNop is ignored by readers. This library never writes it.
	TokenNop = 0x00000004

	// TokenEnd terminates the structure block
	TokenEnd = 0x00000009
)

// Block alignment in bytes.
const (
	// StructAlign is the alignment of the structure block and of every
	// name and value inside it
	StructAlign = 4

	// ReserveMapAlign is the alignment of the memory reservation block
	ReserveMapAlign = 8
)

// Header field byte offsets.
const (
	offMagic           = 0
	offTotalSize       = 4
	offOffDtStruct     = 8
	offOffDtStrings    = 12
	offOffMemRsvmap    = 16
	offVersion         = 20
	offLastCompVersion = 24
	offBootCPUIDPhys   = 28
	offSizeDtStrings   = 32
	offSizeDtStruct    = 36
)
