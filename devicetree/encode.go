package devicetree

import (
	"fmt"
	"math"
	"strings"

	"github.com/moffa90/go-fdt/fdt"
)

// stringTable is the deduplicated strings block in first-use order.
type stringTable struct {
	data    []byte
	offsets map[string]uint32
}

func newStringTable() *stringTable {
	return &stringTable{offsets: make(map[string]uint32)}
}

// offset returns the position of s in the table, appending it on first use.
func (st *stringTable) offset(s string) uint32 {
	if off, ok := st.offsets[s]; ok {
		return off
	}
	off := uint32(len(st.data))
	st.data = append(st.data, s...)
	st.data = append(st.data, 0)
	st.offsets[s] = off
	return off
}

// ToBlob encodes the tree and its reserved-memory list as a blob.
//
// Blob layout:
//
//	[HEADER(40)][MEM_RSVMAP(16*(n+1))][STRUCT][STRINGS]
//
// The structure block is a pre-order walk: BEGIN_NODE, name, properties,
// children, END_NODE, with a single END after the root. Every block offset
// and size is a multiple of 4; the strings block is zero-padded to keep
// that true.
//
// Returns an EncodingError if a name cannot be encoded or a block does not
// fit the 32-bit header fields.
func (t *DeviceTree) ToBlob() ([]byte, error) {
	st := newStringTable()

	structBlock, err := appendNode(nil, st, t.root, "")
	if err != nil {
		return nil, err
	}
	structBlock = fdt.AppendToken(structBlock, fdt.TokenEnd)

	stringsBlock := fdt.Pad(st.data, fdt.StructAlign)
	rsvmap := fdt.AppendReserveMap(nil, t.reserved)

	offRsvmap := fdt.Align(fdt.HeaderSize, fdt.ReserveMapAlign)
	offStruct := offRsvmap + len(rsvmap)
	offStrings := offStruct + len(structBlock)
	total := uint64(offStrings) + uint64(len(stringsBlock))

	if total > math.MaxUint32 {
		return nil, &EncodingError{
			Block:  "blob",
			Size:   total,
			Reason: "total size exceeds 32-bit totalsize field",
		}
	}

	h := fdt.Header{
		Magic:           fdt.Magic,
		TotalSize:       uint32(total),
		OffDtStruct:     uint32(offStruct),
		OffDtStrings:    uint32(offStrings),
		OffMemRsvmap:    uint32(offRsvmap),
		Version:         fdt.Version,
		LastCompVersion: fdt.LastCompVersion,
		BootCPUIDPhys:   t.BootCPUIDPhys,
		SizeDtStrings:   uint32(len(stringsBlock)),
		SizeDtStruct:    uint32(len(structBlock)),
	}

	out := make([]byte, 0, total)
	out = fdt.AppendHeader(out, h)
	out = fdt.Pad(out, fdt.ReserveMapAlign)
	out = append(out, rsvmap...)
	out = append(out, structBlock...)
	out = append(out, stringsBlock...)

	return out, nil
}

// appendNode writes n and its subtree to the structure block b.
func appendNode(b []byte, st *stringTable, n *Node, path string) ([]byte, error) {
	if strings.ContainsAny(n.name, "/\x00") || (n.name == "" && path != "") {
		return nil, &EncodingError{
			Block:  "struct",
			Path:   path,
			Reason: fmt.Sprintf("invalid node name %q", n.name),
		}
	}

	b = fdt.AppendToken(b, fdt.TokenBeginNode)
	b = fdt.AppendName(b, n.name)

	for _, p := range n.properties {
		if p.Name == "" || strings.IndexByte(p.Name, 0) >= 0 {
			return nil, &EncodingError{
				Block:  "struct",
				Path:   path,
				Reason: fmt.Sprintf("invalid property name %q", p.Name),
			}
		}

		size := uint64(p.Value.EncodedLen())
		if size > math.MaxUint32 {
			return nil, &EncodingError{
				Block:  "struct",
				Path:   path,
				Size:   size,
				Reason: fmt.Sprintf("property %q value exceeds 32-bit length field", p.Name),
			}
		}

		b = fdt.AppendToken(b, fdt.TokenProp)
		b = fdt.AppendToken(b, uint32(size))
		b = fdt.AppendToken(b, st.offset(p.Name))
		b = p.Value.Append(b)
		b = fdt.Pad(b, fdt.StructAlign)
	}

	for _, c := range n.children {
		var err error
		b, err = appendNode(b, st, c, path+"/"+c.name)
		if err != nil {
			return nil, err
		}
	}

	return fdt.AppendToken(b, fdt.TokenEndNode), nil
}
