package boot

import (
	"github.com/moffa90/go-fdt/devicetree"
)

// Config holds the builder configuration.
type Config struct {
	// ProgressCallback is called at each build phase (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// NarrowPolicy decides how 64-bit memory regions become 32-bit reg cells
	NarrowPolicy NarrowPolicy

	// BaseTree is edited instead of a fresh tree when set
	BaseTree *devicetree.DeviceTree

	// CellProperties adds #address-cells, #size-cells and the memory
	// device_type so a guest kernel can interpret the reg cells
	CellProperties bool

	// Reserved is appended to the boot context's reservations
	Reserved []Reservation
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		NarrowPolicy:   NarrowFail,
		CellProperties: true,
	}
}

// Option is a functional option for configuring the Builder.
type Option func(*Config)

// WithProgressCallback sets a callback invoked at each build phase.
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for builder operations.
//
// Example:
//
//	b := boot.New(boot.WithLogger(slog.Default()))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithNarrowPolicy sets how memory regions above 4 GiB are handled.
// Default is NarrowFail.
//
// Example:
//
//	b := boot.New(boot.WithNarrowPolicy(boot.NarrowSaturate))
func WithNarrowPolicy(policy NarrowPolicy) Option {
	return func(c *Config) {
		c.NarrowPolicy = policy
	}
}

// WithBaseTree makes the builder add its nodes to t instead of an empty
// tree. t is modified in place.
//
// Example:
//
//	board, _ := devicetree.Load("board.yaml")
//	b := boot.New(boot.WithBaseTree(board))
func WithBaseTree(t *devicetree.DeviceTree) Option {
	return func(c *Config) {
		c.BaseTree = t
	}
}

// WithCellProperties enables or disables the #address-cells, #size-cells
// and device_type properties. Default is true.
func WithCellProperties(enabled bool) Option {
	return func(c *Config) {
		c.CellProperties = enabled
	}
}

// WithReservedMemory adds reservation block entries on top of those in the
// boot context.
//
// Example:
//
//	b := boot.New(boot.WithReservedMemory(boot.Reservation{Address: 0x0, Size: 0x1000}))
func WithReservedMemory(entries ...Reservation) Option {
	return func(c *Config) {
		c.Reserved = append(c.Reserved, entries...)
	}
}
