package devicetree

import (
	"fmt"
	"strings"

	"github.com/moffa90/go-fdt/fdt"
)

// Property is a named value attached to a node.
type Property struct {
	// Name is unique within the owning node
	Name string

	// Value is the typed payload
	Value Value
}

// Node is a named node holding ordered properties and ordered children.
// Nodes are owned by a DeviceTree and change only through its edit methods.
type Node struct {
	name       string
	properties []Property
	children   []*Node
}

// Name returns the node name. The root node has the empty name.
func (n *Node) Name() string {
	return n.name
}

// Properties returns the node's properties in order. The slice is a copy.
func (n *Node) Properties() []Property {
	out := make([]Property, len(n.properties))
	copy(out, n.properties)
	return out
}

// Children returns the node's children in order. The slice is a copy.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Property returns the value of the named property.
func (n *Node) Property(name string) (Value, bool) {
	if i := n.propertyIndex(name); i >= 0 {
		return n.properties[i].Value, true
	}
	return nil, false
}

// Child returns the named child node.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.children {
		if c.name == name {
			return c, true
		}
	}
	return nil, false
}

func (n *Node) propertyIndex(name string) int {
	for i, p := range n.properties {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// setProperty replaces an existing property in place or appends a new one.
func (n *Node) setProperty(name string, v Value) {
	if i := n.propertyIndex(name); i >= 0 {
		n.properties[i].Value = v
		return
	}
	n.properties = append(n.properties, Property{Name: name, Value: v})
}

// childOrCreate returns the named child, appending an empty one if missing.
func (n *Node) childOrCreate(name string) *Node {
	if c, ok := n.Child(name); ok {
		return c
	}
	c := &Node{name: name}
	n.children = append(n.children, c)
	return c
}

// DeviceTree owns a root node and the reserved-memory list carried beside it.
type DeviceTree struct {
	root     *Node
	reserved []fdt.ReserveEntry

	// BootCPUIDPhys is written to the boot_cpuid_phys header field
	BootCPUIDPhys uint32
}

// New returns an empty tree: a root node with no properties or children
// and no reserved memory.
func New() *DeviceTree {
	return &DeviceTree{root: &Node{}}
}

// Root returns the root node.
func (t *DeviceTree) Root() *Node {
	return t.root
}

// SplitPath splits a slash-separated node path into names. Empty components
// are dropped, so "", "/" and "//" all name the root and "/memory" equals
// "memory".
func SplitPath(path string) []string {
	var names []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			names = append(names, s)
		}
	}
	return names
}

// Lookup returns the node at path.
func (t *DeviceTree) Lookup(path string) (*Node, bool) {
	n := t.root
	for _, name := range SplitPath(path) {
		c, ok := n.Child(name)
		if !ok {
			return nil, false
		}
		n = c
	}
	return n, true
}

// EditProperty sets property name on the node at path to v.
//
// Missing nodes along path are created empty. An existing property keeps
// its position and only has its value replaced; a new property is appended
// after the existing ones. Bytes and AddressSizePairs values are copied.
//
// Example:
//
//	dt := devicetree.New()
//	dt.EditProperty("memory", "reg", devicetree.AddressSizePairs{{Address: 0, Size: 0x10000000}})
func (t *DeviceTree) EditProperty(path, name string, v Value) {
	t.EditPropertyAt(SplitPath(path), name, v)
}

// EditPropertyAt is EditProperty with the path given as a list of names.
func (t *DeviceTree) EditPropertyAt(path []string, name string, v Value) {
	if v == nil {
		v = Empty{}
	}

	n := t.root
	for _, p := range path {
		n = n.childOrCreate(p)
	}
	n.setProperty(name, cloneValue(v))
}

// Reserve appends a range to the reserved-memory list.
//
// Returns an error for a zero-size range: the (0,0) pair terminates the
// reservation block and zero-size ranges reserve nothing.
func (t *DeviceTree) Reserve(address, size uint64) error {
	if size == 0 {
		return fmt.Errorf("%w: zero-size range at 0x%X", ErrInvalidReservation, address)
	}
	t.reserved = append(t.reserved, fdt.ReserveEntry{Address: address, Size: size})
	return nil
}

// ReservedMemory returns the reserved-memory list without the terminator.
func (t *DeviceTree) ReservedMemory() []fdt.ReserveEntry {
	out := make([]fdt.ReserveEntry, len(t.reserved))
	copy(out, t.reserved)
	return out
}

// Walk visits every node depth first, parents before children. path holds
// the names from the root to n, excluding the root's empty name.
func (t *DeviceTree) Walk(fn func(path []string, n *Node) error) error {
	return walk(nil, t.root, fn)
}

func walk(path []string, n *Node, fn func([]string, *Node) error) error {
	if err := fn(path, n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := walk(append(path[:len(path):len(path)], c.name), c, fn); err != nil {
			return err
		}
	}
	return nil
}

func cloneValue(v Value) Value {
	switch x := v.(type) {
	case Bytes:
		return append(Bytes(nil), x...)
	case AddressSizePairs:
		return append(AddressSizePairs(nil), x...)
	default:
		return v
	}
}
