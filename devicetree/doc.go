// Package devicetree builds device trees in memory and encodes them as
// Flattened Device Tree blobs.
//
// # Tree Model
//
// A DeviceTree owns a root node (empty name) and a reserved-memory list.
// Each node has ordered, uniquely named properties and ordered children.
// Property values are one of a closed set of types:
//
//	Empty              0 bytes
//	Uint32             4 bytes, big-endian
//	Uint64             8 bytes, big-endian
//	String             UTF-8 bytes + NUL
//	Bytes              raw bytes
//	AddressSizePairs   8 bytes per (address, size) pair, one cell each
//
// # Usage
//
// Build a tree from a discovered memory map and encode it:
//
//	dt := devicetree.New()
//	dt.EditProperty("memory", "reg", devicetree.AddressSizePairs{
//	    {Address: 0x0, Size: 0x10000000},
//	})
//
//	blob, err := dt.ToBlob()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// EditProperty creates missing nodes and replaces existing properties in
// place, so it can be called repeatedly with the same path and name.
//
// Load a tree from a YAML description:
//
//	dt, err := devicetree.Load("board.yaml")
//
// # Error Handling
//
// ToBlob fails with an EncodingError (wrapping ErrEncoding) when a name
// cannot be written or a block outgrows the 32-bit header fields. These are
// construction bugs; there is no partial output.
package devicetree
