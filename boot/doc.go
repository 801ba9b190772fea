// Package boot turns platform boot information into a validated device tree
// blob for the guest kernel.
//
// # Overview
//
// The builder runs once, early in boot:
//   - Take the memory map from an explicit, validated Context
//   - Narrow each (base, length) region to one-cell reg pairs
//   - Install them as the "reg" property of the "memory" node
//   - Encode the tree and run the compatibility check on the result
//
// # Basic Usage
//
//	bc, err := boot.NewContext([]boot.MemoryRegion{
//	    {Base: 0x0, Length: 0x9fc00},
//	    {Base: 0x100000, Length: 0x7ee0000},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	blob, err := boot.New().Build(bc)
//	if err != nil {
//	    // errors.Is(err, fdt.ErrNotCompatible) for a failed check
//	    log.Fatal(err)
//	}
//
// # Memory Above 4 GiB
//
// Reg pairs use one 32-bit cell for address and size. Regions that do not
// fit are handled by the NarrowPolicy:
//
//	NarrowFail      return a NarrowingError (default)
//	NarrowSaturate  clamp to 0xFFFFFFFF
//	NarrowTruncate  keep the low 32 bits
//
// # Boot Information Files
//
// A Context can be loaded from YAML or CBOR:
//
//	bc, err := boot.LoadContext("bootinfo.yaml")
//
//	memory_map:
//	  - {base: 0x0, length: 0x9fc00}
//	  - {base: 0x100000, length: 0x7ee0000}
//	command_line: console=ttyS0
//
// # Errors
//
// There is no retry path. Any error from Build means the guest would have
// no hardware description, and the boot sequence should stop.
package boot
