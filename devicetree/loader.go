package devicetree

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// description is the YAML form of a tree.
type description struct {
	BootCPUIDPhys uint32            `yaml:"boot_cpuid_phys"`
	Reserved      []reservationDesc `yaml:"reserved"`
	Nodes         []nodeDesc        `yaml:"nodes"`
}

type reservationDesc struct {
	Address uint64 `yaml:"address"`
	Size    uint64 `yaml:"size"`
}

type nodeDesc struct {
	Path       string         `yaml:"path"`
	Properties []propertyDesc `yaml:"properties"`
}

// propertyDesc sets exactly one of the value fields, or none for an empty
// property.
type propertyDesc struct {
	Name   string         `yaml:"name"`
	Empty  bool           `yaml:"empty"`
	U32    *uint32        `yaml:"u32"`
	U64    *uint64        `yaml:"u64"`
	String *string        `yaml:"string"`
	Bytes  *string        `yaml:"bytes"`
	Reg    []addrSizeDesc `yaml:"reg"`
}

type addrSizeDesc struct {
	Address uint32 `yaml:"address"`
	Size    uint32 `yaml:"size"`
}

// Load reads a YAML tree description from the given file path.
//
// Example file:
//
//	boot_cpuid_phys: 0
//	reserved:
//	  - {address: 0x0, size: 0x1000}
//	nodes:
//	  - path: /chosen
//	    properties:
//	      - {name: bootargs, string: "console=ttyS0"}
//	  - path: /memory
//	    properties:
//	      - {name: device_type, string: memory}
//	      - name: reg
//	        reg: [{address: 0x0, size: 0x10000000}]
func Load(path string) (*DeviceTree, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return LoadReader(f)
}

// LoadReader reads a YAML tree description from any io.Reader.
// Nodes are applied in file order through EditProperty, so a path listed
// twice merges into one node and a repeated property keeps its first
// position with the last value.
func LoadReader(r io.Reader) (*DeviceTree, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var desc description
	if err := dec.Decode(&desc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file")
		}
		return nil, fmt.Errorf("failed to parse description: %w", err)
	}

	t := New()
	t.BootCPUIDPhys = desc.BootCPUIDPhys

	for i, r := range desc.Reserved {
		if err := t.Reserve(r.Address, r.Size); err != nil {
			return nil, fmt.Errorf("reserved entry %d: %w", i, err)
		}
	}

	for i, nd := range desc.Nodes {
		names := SplitPath(nd.Path)

		// A node listed without properties still exists in the tree.
		if len(nd.Properties) == 0 {
			t.touch(names)
		}

		for j, pd := range nd.Properties {
			v, err := pd.value()
			if err != nil {
				return nil, fmt.Errorf("node %d (%s) property %d: %w", i, nd.Path, j, err)
			}
			t.EditPropertyAt(names, pd.Name, v)
		}
	}

	return t, nil
}

// value converts a property description into a Value.
func (pd propertyDesc) value() (Value, error) {
	if pd.Name == "" {
		return nil, fmt.Errorf("missing name")
	}

	var set []string
	var v Value = Empty{}

	if pd.U32 != nil {
		set = append(set, "u32")
		v = Uint32(*pd.U32)
	}
	if pd.U64 != nil {
		set = append(set, "u64")
		v = Uint64(*pd.U64)
	}
	if pd.String != nil {
		set = append(set, "string")
		v = String(*pd.String)
	}
	if pd.Bytes != nil {
		set = append(set, "bytes")
		raw, err := hex.DecodeString(strings.ReplaceAll(*pd.Bytes, " ", ""))
		if err != nil {
			return nil, fmt.Errorf("%s: invalid hex data: %w", pd.Name, err)
		}
		v = Bytes(raw)
	}
	if pd.Reg != nil {
		set = append(set, "reg")
		pairs := make(AddressSizePairs, len(pd.Reg))
		for i, r := range pd.Reg {
			pairs[i] = AddressSize{Address: r.Address, Size: r.Size}
		}
		v = pairs
	}

	if pd.Empty && len(set) > 0 {
		return nil, fmt.Errorf("%s: empty property cannot also set %s", pd.Name, strings.Join(set, ", "))
	}
	if len(set) > 1 {
		return nil, fmt.Errorf("%s: more than one value set: %s", pd.Name, strings.Join(set, ", "))
	}

	return v, nil
}

// touch creates the node at path without adding properties.
func (t *DeviceTree) touch(path []string) {
	n := t.root
	for _, p := range path {
		n = n.childOrCreate(p)
	}
}
