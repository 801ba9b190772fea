package boot

import "time"

// Build phases reported through ProgressCallback.
const (
	PhaseBuilding   = "building"
	PhaseEncoding   = "encoding"
	PhaseValidating = "validating"
	PhaseComplete   = "complete"
)

// Progress describes where a Build call is.
type Progress struct {
	// Phase is one of PhaseBuilding, PhaseEncoding, PhaseValidating, PhaseComplete
	Phase string

	// Regions is the number of memory regions in the boot context
	Regions int

	// Nodes is the number of nodes in the tree, known from PhaseEncoding on
	Nodes int

	// BlobSize is the encoded size in bytes, known from PhaseValidating on
	BlobSize int

	// ElapsedTime is the time since Build started
	ElapsedTime time.Duration
}

// ProgressCallback is called at the start of every build phase.
//
// Example:
//
//	b := boot.New(boot.WithProgressCallback(func(p boot.Progress) {
//	    fmt.Printf("[%s] %d nodes, %d bytes\n", p.Phase, p.Nodes, p.BlobSize)
//	}))
type ProgressCallback func(Progress)

// Logger is an optional logging interface. A *slog.Logger satisfies it.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	b := boot.New(boot.WithLogger(logger))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
