package boot

import (
	"fmt"
	"time"

	"github.com/moffa90/go-fdt/devicetree"
	"github.com/moffa90/go-fdt/fdt"
)

// Node and property names written by the builder.
const (
	MemoryNode   = "memory"
	ChosenNode   = "chosen"
	RegProperty  = "reg"
	BootArgs     = "bootargs"
	DeviceType   = "device_type"
	AddressCells = "#address-cells"
	SizeCells    = "#size-cells"
)

// Builder turns a boot context into a validated device tree blob.
// A Builder is not safe for concurrent use when configured WithBaseTree.
type Builder struct {
	config Config
}

// New creates a Builder with the given options.
//
// Example:
//
//	b := boot.New(
//	    boot.WithLogger(logger),
//	    boot.WithNarrowPolicy(boot.NarrowSaturate),
//	)
func New(opts ...Option) *Builder {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Builder{config: cfg}
}

// Build performs the complete sequence:
//  1. Build the tree from the boot context (memory/reg from the memory map)
//  2. Encode the tree as a blob
//  3. Run the compatibility check on the encoded blob
//
// The returned blob has passed the check. A failed check is returned
// wrapping fdt.ErrNotCompatible; the caller cannot recover from it and
// should abort the boot.
//
// Example:
//
//	bc, _ := boot.NewContext(regions)
//	blob, err := boot.New().Build(bc)
func (b *Builder) Build(bc *Context) ([]byte, error) {
	if bc == nil {
		return nil, fmt.Errorf("boot context cannot be nil")
	}

	startTime := time.Now()

	// Phase 1: build
	b.reportProgress(Progress{
		Phase:   PhaseBuilding,
		Regions: len(bc.MemoryMap),
	})

	tree, err := b.BuildTree(bc)
	if err != nil {
		b.logError("build tree failed", "error", err)
		return nil, fmt.Errorf("build tree: %w", err)
	}

	nodes := countNodes(tree)

	// Phase 2: encode
	b.reportProgress(Progress{
		Phase:       PhaseEncoding,
		Regions:     len(bc.MemoryMap),
		Nodes:       nodes,
		ElapsedTime: time.Since(startTime),
	})

	data, err := tree.ToBlob()
	if err != nil {
		b.logError("encode failed", "error", err)
		return nil, fmt.Errorf("encode: %w", err)
	}

	// Phase 3: validate
	b.reportProgress(Progress{
		Phase:       PhaseValidating,
		Regions:     len(bc.MemoryMap),
		Nodes:       nodes,
		BlobSize:    len(data),
		ElapsedTime: time.Since(startTime),
	})

	if err := Check(data); err != nil {
		b.logError("blob failed compatibility check", "error", err)
		return nil, err
	}

	b.reportProgress(Progress{
		Phase:       PhaseComplete,
		Regions:     len(bc.MemoryMap),
		Nodes:       nodes,
		BlobSize:    len(data),
		ElapsedTime: time.Since(startTime),
	})

	b.logInfo("device tree ready",
		"nodes", nodes,
		"bytes", len(data),
		"elapsed", time.Since(startTime).String(),
	)

	return data, nil
}

// BuildTree edits the base tree (or a new one) from the boot context
// without encoding it.
//
// Everything is validated before the tree is touched, so a failed call
// leaves a base tree unchanged. Reservations already present in the tree are
// not added again, which keeps repeated builds on one base tree stable.
func (b *Builder) BuildTree(bc *Context) (*devicetree.DeviceTree, error) {
	if err := bc.Validate(); err != nil {
		return nil, err
	}
	for i, r := range b.config.Reserved {
		if r.Size == 0 {
			return nil, fmt.Errorf("configured reservation %d at 0x%X: %w", i, r.Address, devicetree.ErrInvalidReservation)
		}
	}

	tree := b.config.BaseTree
	if tree == nil {
		tree = devicetree.New()
	}

	reg, err := Narrow(bc.MemoryMap, b.config.NarrowPolicy)
	if err != nil {
		return nil, err
	}

	b.logDebug("memory map narrowed",
		"regions", len(reg),
		"policy", b.config.NarrowPolicy.String(),
	)

	if b.config.CellProperties {
		tree.EditProperty("/", AddressCells, devicetree.Uint32(1))
		tree.EditProperty("/", SizeCells, devicetree.Uint32(1))
		tree.EditProperty(MemoryNode, DeviceType, devicetree.String("memory"))
	}

	tree.EditProperty(MemoryNode, RegProperty, reg)

	if bc.CommandLine != "" {
		tree.EditProperty(ChosenNode, BootArgs, devicetree.String(bc.CommandLine))
	}

	present := make(map[fdt.ReserveEntry]bool)
	for _, e := range tree.ReservedMemory() {
		present[e] = true
	}

	reserved := append(append([]Reservation(nil), bc.Reserved...), b.config.Reserved...)
	for _, r := range reserved {
		e := fdt.ReserveEntry{Address: r.Address, Size: r.Size}
		if present[e] {
			continue
		}
		if err := tree.Reserve(r.Address, r.Size); err != nil {
			return nil, err
		}
		present[e] = true
	}

	tree.BootCPUIDPhys = bc.BootCPU

	return tree, nil
}

// Check wraps data as a blob and runs the compatibility check on it.
// Every failure unwraps to fdt.ErrNotCompatible.
func Check(data []byte) error {
	blob, err := fdt.NewBlob(data)
	if err != nil {
		return err
	}
	return blob.CompatibilityCheck()
}

func countNodes(t *devicetree.DeviceTree) int {
	n := 0
	_ = t.Walk(func([]string, *devicetree.Node) error {
		n++
		return nil
	})
	return n
}

// reportProgress calls the progress callback if configured.
func (b *Builder) reportProgress(progress Progress) {
	if b.config.ProgressCallback != nil {
		b.config.ProgressCallback(progress)
	}
}

// logDebug logs a debug message if a logger is configured.
func (b *Builder) logDebug(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Debug(msg, keysAndValues...)
	}
}

// logInfo logs an info message if a logger is configured.
func (b *Builder) logInfo(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Info(msg, keysAndValues...)
	}
}

// logError logs an error message if a logger is configured.
func (b *Builder) logError(msg string, keysAndValues ...interface{}) {
	if b.config.Logger != nil {
		b.config.Logger.Error(msg, keysAndValues...)
	}
}
