package boot

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// MemoryRegion is one usable range from the platform memory map.
type MemoryRegion struct {
	Base   uint64 `yaml:"base" cbor:"base"`
	Length uint64 `yaml:"length" cbor:"length"`
}

// Reservation is a range the guest must not allocate from.
type Reservation struct {
	Address uint64 `yaml:"address" cbor:"address"`
	Size    uint64 `yaml:"size" cbor:"size"`
}

// Context is the boot information handed to the device tree builder. It is
// built once at entry, validated, and passed explicitly; nothing reads the
// platform memory map through globals.
type Context struct {
	// MemoryMap is the ordered list of usable memory regions
	MemoryMap []MemoryRegion `yaml:"memory_map" cbor:"memory_map"`

	// Reserved lists ranges to carry in the reservation block
	Reserved []Reservation `yaml:"reserved,omitempty" cbor:"reserved,omitempty"`

	// CommandLine becomes /chosen/bootargs when non-empty
	CommandLine string `yaml:"command_line,omitempty" cbor:"command_line,omitempty"`

	// BootCPU is the physical ID of the boot CPU
	BootCPU uint32 `yaml:"boot_cpu,omitempty" cbor:"boot_cpu,omitempty"`
}

// Format selects the encoding of a boot information file.
type Format int

const (
	// FormatYAML is the human-edited form
	FormatYAML Format = iota

	// FormatCBOR is the compact handoff form
	FormatCBOR
)

// encMode writes CBOR with Core Deterministic Encoding, so the same context
// always produces the same bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("boot: CBOR encoder initialization failed: " + err.Error())
	}
}

// NewContext validates regions and returns a context describing them.
//
// Example:
//
//	bc, err := boot.NewContext([]boot.MemoryRegion{
//	    {Base: 0x0, Length: 0x9fc00},
//	    {Base: 0x100000, Length: 0x7ee0000},
//	})
func NewContext(regions []MemoryRegion) (*Context, error) {
	bc := &Context{
		MemoryMap: make([]MemoryRegion, len(regions)),
	}
	copy(bc.MemoryMap, regions)

	if err := bc.Validate(); err != nil {
		return nil, err
	}
	return bc, nil
}

// Validate checks that the memory map is usable:
//   - at least one region
//   - no zero-length region
//   - base + length does not overflow 64 bits
//
// Reservations must have a non-zero size.
func (bc *Context) Validate() error {
	if len(bc.MemoryMap) == 0 {
		return &MemoryMapError{Index: -1, Reason: "no memory regions"}
	}

	for i, r := range bc.MemoryMap {
		if r.Length == 0 {
			return &MemoryMapError{Index: i, Reason: "zero length"}
		}
		if r.Base > math.MaxUint64-r.Length {
			return &MemoryMapError{
				Index:  i,
				Reason: fmt.Sprintf("base 0x%X + length 0x%X overflows 64 bits", r.Base, r.Length),
			}
		}
	}

	for i, r := range bc.Reserved {
		if r.Size == 0 {
			return fmt.Errorf("reservation %d at 0x%X: zero size", i, r.Address)
		}
	}

	return nil
}

// LoadContext reads boot information from a file. Files ending in .cbor
// are decoded as CBOR, everything else as YAML.
func LoadContext(path string) (*Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".cbor") {
		format = FormatCBOR
	}

	return DecodeContext(f, format)
}

// DecodeContext reads and validates boot information from r.
func DecodeContext(r io.Reader, format Format) (*Context, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read boot info: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty boot info")
	}

	var bc Context
	switch format {
	case FormatCBOR:
		err = cbor.Unmarshal(data, &bc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &bc)
	default:
		return nil, fmt.Errorf("unknown boot info format %d", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode boot info: %w", err)
	}

	if err := bc.Validate(); err != nil {
		return nil, err
	}
	return &bc, nil
}

// EncodeContext writes bc to w in the given format.
func EncodeContext(w io.Writer, bc *Context, format Format) error {
	var data []byte
	var err error

	switch format {
	case FormatCBOR:
		data, err = encMode.Marshal(bc)
	case FormatYAML:
		data, err = yaml.Marshal(bc)
	default:
		return fmt.Errorf("unknown boot info format %d", format)
	}
	if err != nil {
		return fmt.Errorf("failed to encode boot info: %w", err)
	}

	_, err = w.Write(data)
	return err
}
