// Package fdt implements the wire layer of the Flattened Device Tree (FDT)
// binary format: header codec, memory reservation entries, structure block
// tokens and header-level validation of blobs.
//
// # Blob Layout
//
// A blob is four blocks, all integers big-endian:
//
//	[HEADER(40)][MEM_RSVMAP][STRUCT][STRINGS]
//
// Where:
//   - HEADER = magic, totalsize, off_dt_struct, off_dt_strings, off_mem_rsvmap,
//     version, last_comp_version, boot_cpuid_phys, size_dt_strings, size_dt_struct
//   - MEM_RSVMAP = (address(8), size(8)) pairs ending with (0,0), 8-byte aligned
//   - STRUCT = BEGIN_NODE / PROP / END_NODE tokens, depth first, ending with END
//   - STRINGS = NUL-terminated property names
//
// # Validation
//
// Wrap a buffer and check it before handing it on:
//
//	blob, err := fdt.NewBlob(buf)
//	if err != nil {
//	    return err
//	}
//	if err := blob.CompatibilityCheck(); err != nil {
//	    // errors.Is(err, fdt.ErrNotCompatible) == true
//	    return err
//	}
//
// The check is header-only. Decoding the structure block into nodes is the
// job of a reader such as the one in package dtread.
//
// # Reference
//
// Devicetree Specification, chapter 5 "Flattened Devicetree (DTB) Format".
package fdt
