// Package dtread provides a read-only view of a device tree, as reserved
// memory entries plus a depth-first sequence of structure items. The view
// can be backed by an in-memory tree or by a parsed blob, so consumers such
// as diagnostic printers do not depend on either.
package dtread

import (
	"bytes"
	"fmt"

	"github.com/u-root/u-root/pkg/dt"

	"github.com/moffa90/go-fdt/devicetree"
	"github.com/moffa90/go-fdt/fdt"
)

// ItemKind identifies a structure item.
type ItemKind int

// Structure item kinds, in the order they appear for a node.
const (
	BeginNode ItemKind = iota
	Property
	EndNode
)

func (k ItemKind) String() string {
	switch k {
	case BeginNode:
		return "begin-node"
	case Property:
		return "property"
	case EndNode:
		return "end-node"
	default:
		return fmt.Sprintf("item(%d)", int(k))
	}
}

// Item is one step of a depth-first walk.
type Item struct {
	Kind ItemKind

	// Name is the node name for BeginNode and the property name for
	// Property. It is empty for EndNode.
	Name string

	// Value is the encoded property value. Only set for Property.
	Value []byte
}

// Reader is the read capability consumed by diagnostics and other tools.
type Reader interface {
	// ReservedEntries returns the reserved memory ranges, without the
	// (0,0) terminator
	ReservedEntries() []fdt.ReserveEntry

	// Walk calls fn for each item depth first: BeginNode, the node's
	// properties, its children, EndNode. A non-nil error from fn stops
	// the walk and is returned.
	Walk(fn func(Item) error) error
}

// Items collects every item of r in walk order.
func Items(r Reader) ([]Item, error) {
	var items []Item
	err := r.Walk(func(it Item) error {
		items = append(items, it)
		return nil
	})
	return items, err
}

// FromTree returns a Reader over t. Values are encoded on demand, so later
// edits to t are visible.
func FromTree(t *devicetree.DeviceTree) Reader {
	return &treeReader{tree: t}
}

type treeReader struct {
	tree *devicetree.DeviceTree
}

func (r *treeReader) ReservedEntries() []fdt.ReserveEntry {
	return r.tree.ReservedMemory()
}

func (r *treeReader) Walk(fn func(Item) error) error {
	return walkTree(r.tree.Root(), fn)
}

func walkTree(n *devicetree.Node, fn func(Item) error) error {
	if err := fn(Item{Kind: BeginNode, Name: n.Name()}); err != nil {
		return err
	}
	for _, p := range n.Properties() {
		if err := fn(Item{Kind: Property, Name: p.Name, Value: devicetree.Encode(p.Value)}); err != nil {
			return err
		}
	}
	for _, c := range n.Children() {
		if err := walkTree(c, fn); err != nil {
			return err
		}
	}
	return fn(Item{Kind: EndNode})
}

// FromBlob parses data and returns a Reader over it. The blob must pass
// the compatibility check before it is parsed.
func FromBlob(data []byte) (Reader, error) {
	blob, err := fdt.NewBlob(data)
	if err != nil {
		return nil, err
	}
	if err := blob.CompatibilityCheck(); err != nil {
		return nil, err
	}

	parsed, err := dt.ReadFDT(emptyReadOK{bytes.NewReader(blob.Bytes())})
	if err != nil {
		return nil, fmt.Errorf("parse blob: %w", err)
	}

	return &blobReader{parsed: parsed}, nil
}

// emptyReadOK answers zero-length reads with (0, nil) even at end of input.
// ReadFDT reads the strings block with a buffer of size_dt_strings, which is
// empty for a tree without properties, and that block sits at the end.
type emptyReadOK struct {
	*bytes.Reader
}

func (r emptyReadOK) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return r.Reader.Read(p)
}

type blobReader struct {
	parsed *dt.FDT
}

func (r *blobReader) ReservedEntries() []fdt.ReserveEntry {
	var out []fdt.ReserveEntry
	for _, e := range r.parsed.ReserveEntries {
		entry := fdt.ReserveEntry{Address: e.Address, Size: e.Size}
		if entry.IsSentinel() {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func (r *blobReader) Walk(fn func(Item) error) error {
	if r.parsed.RootNode == nil {
		return fmt.Errorf("blob has no root node")
	}
	return walkBlob(r.parsed.RootNode, true, fn)
}

func walkBlob(n *dt.Node, root bool, fn func(Item) error) error {
	name := n.Name
	if root && name == "/" {
		name = ""
	}

	if err := fn(Item{Kind: BeginNode, Name: name}); err != nil {
		return err
	}
	for _, p := range n.Properties {
		if err := fn(Item{Kind: Property, Name: p.Name, Value: p.Value}); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := walkBlob(c, false, fn); err != nil {
			return err
		}
	}
	return fn(Item{Kind: EndNode})
}
