package boot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moffa90/go-fdt/devicetree"
	"github.com/moffa90/go-fdt/fdt"
)

// MockLogger records messages for assertions.
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

func qemuRegions() []MemoryRegion {
	return []MemoryRegion{
		{Base: 0x0, Length: 0x9fc00},
		{Base: 0x100000, Length: 0x7ee0000},
	}
}

func TestBuild(t *testing.T) {
	bc, err := NewContext(qemuRegions())
	require.NoError(t, err)
	bc.CommandLine = "console=ttyS0"
	bc.BootCPU = 1

	logger := &MockLogger{}
	var phases []string

	data, err := New(
		WithLogger(logger),
		WithProgressCallback(func(p Progress) {
			phases = append(phases, p.Phase)
			assert.Equal(t, 2, p.Regions)
		}),
	).Build(bc)
	require.NoError(t, err)

	assert.Equal(t, []string{PhaseBuilding, PhaseEncoding, PhaseValidating, PhaseComplete}, phases)
	assert.Contains(t, logger.infoMsgs, "device tree ready")
	assert.Contains(t, logger.debugMsgs, "memory map narrowed")
	assert.Empty(t, logger.errorMsgs)

	blob, err := fdt.NewBlob(data)
	require.NoError(t, err)
	require.NoError(t, blob.CompatibilityCheck())
	assert.Equal(t, uint32(len(data)), blob.Header().TotalSize)
	assert.Equal(t, uint32(1), blob.Header().BootCPUIDPhys)
}

func TestBuildTree(t *testing.T) {
	bc, err := NewContext(qemuRegions())
	require.NoError(t, err)
	bc.CommandLine = "console=ttyS0"
	bc.Reserved = []Reservation{{Address: 0x0, Size: 0x1000}}

	tree, err := New(WithReservedMemory(Reservation{Address: 0x9fc00, Size: 0x400})).BuildTree(bc)
	require.NoError(t, err)

	mem, ok := tree.Lookup(MemoryNode)
	require.True(t, ok)

	reg, ok := mem.Property(RegProperty)
	require.True(t, ok)
	assert.Equal(t, devicetree.AddressSizePairs{
		{Address: 0x0, Size: 0x9fc00},
		{Address: 0x100000, Size: 0x7ee0000},
	}, reg)

	dt, _ := mem.Property(DeviceType)
	assert.Equal(t, devicetree.String("memory"), dt)

	ac, _ := tree.Root().Property(AddressCells)
	assert.Equal(t, devicetree.Uint32(1), ac)

	chosen, ok := tree.Lookup(ChosenNode)
	require.True(t, ok)
	args, _ := chosen.Property(BootArgs)
	assert.Equal(t, devicetree.String("console=ttyS0"), args)

	res := tree.ReservedMemory()
	require.Len(t, res, 2)
	assert.Equal(t, uint64(0x9fc00), res[1].Address)
}

func TestBuildTreeWithoutCellProperties(t *testing.T) {
	bc, err := NewContext([]MemoryRegion{{Base: 0, Length: 0x10000000}})
	require.NoError(t, err)

	tree, err := New(WithCellProperties(false)).BuildTree(bc)
	require.NoError(t, err)

	assert.Empty(t, tree.Root().Properties())
	_, ok := tree.Lookup(ChosenNode)
	assert.False(t, ok, "chosen created without a command line")

	mem, ok := tree.Lookup(MemoryNode)
	require.True(t, ok)
	require.Len(t, mem.Properties(), 1)

	data, err := tree.ToBlob()
	require.NoError(t, err)

	blob, err := fdt.NewBlob(data)
	require.NoError(t, err)
	require.NoError(t, blob.CompatibilityCheck())

	// memory/reg is the only property, so its value follows the root and
	// memory BEGIN_NODE records and the PROP header.
	assert.Equal(t, []byte{0, 0, 0, 0, 0x10, 0, 0, 0}, blob.StructBlock()[32:40])
}

func TestBuildTreeBaseTree(t *testing.T) {
	base := devicetree.New()
	base.EditProperty("/", "model", devicetree.String("board"))
	base.EditProperty(MemoryNode, RegProperty, devicetree.AddressSizePairs{{Address: 0, Size: 1}})

	bc, err := NewContext([]MemoryRegion{{Base: 0, Length: 0x2000}})
	require.NoError(t, err)

	tree, err := New(WithBaseTree(base)).BuildTree(bc)
	require.NoError(t, err)
	assert.Same(t, base, tree)

	names := []string{}
	for _, p := range tree.Root().Properties() {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"model", AddressCells, SizeCells}, names)

	mem, _ := tree.Lookup(MemoryNode)
	props := mem.Properties()
	require.Len(t, props, 2)
	// reg existed first, so it keeps its position.
	assert.Equal(t, RegProperty, props[0].Name)
	assert.Equal(t, devicetree.AddressSizePairs{{Address: 0, Size: 0x2000}}, props[0].Value)
}

func TestBuildTwiceOnBaseTree(t *testing.T) {
	base := devicetree.New()
	require.NoError(t, base.Reserve(0x0, 0x1000))

	bc, err := NewContext(qemuRegions())
	require.NoError(t, err)
	bc.Reserved = []Reservation{{Address: 0x0, Size: 0x1000}}

	b := New(
		WithBaseTree(base),
		WithReservedMemory(Reservation{Address: 0x1000, Size: 0x1000}),
	)

	first, err := b.Build(bc)
	require.NoError(t, err)
	assert.Equal(t, []fdt.ReserveEntry{
		{Address: 0x0, Size: 0x1000},
		{Address: 0x1000, Size: 0x1000},
	}, base.ReservedMemory())

	second, err := b.Build(bc)
	require.NoError(t, err)
	assert.Len(t, base.ReservedMemory(), 2)
	assert.Equal(t, first, second)
}

func TestBuildTreeInvalidReservationLeavesBaseTree(t *testing.T) {
	base := devicetree.New()
	base.EditProperty("/", "model", devicetree.String("board"))

	bc, err := NewContext(qemuRegions())
	require.NoError(t, err)

	_, err = New(
		WithBaseTree(base),
		WithReservedMemory(Reservation{Address: 0x2000, Size: 0}),
	).Build(bc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, devicetree.ErrInvalidReservation))

	_, ok := base.Lookup(MemoryNode)
	assert.False(t, ok, "memory node written before validation failed")
	require.Len(t, base.Root().Properties(), 1)
	assert.Empty(t, base.ReservedMemory())
}

func TestBuildNarrowing(t *testing.T) {
	regions := []MemoryRegion{
		{Base: 0x0, Length: 0x80000000},
		{Base: 0x1_0000_0000, Length: 0x1_8000_0000},
	}
	bc, err := NewContext(regions)
	require.NoError(t, err)

	t.Run("fail by default", func(t *testing.T) {
		logger := &MockLogger{}
		_, err := New(WithLogger(logger)).Build(bc)
		require.Error(t, err)

		var ne *NarrowingError
		require.True(t, errors.As(err, &ne))
		assert.Equal(t, 1, ne.Index)
		assert.Equal(t, "base", ne.Field)
		assert.NotEmpty(t, logger.errorMsgs)
	})

	t.Run("saturate", func(t *testing.T) {
		tree, err := New(WithNarrowPolicy(NarrowSaturate)).BuildTree(bc)
		require.NoError(t, err)
		mem, _ := tree.Lookup(MemoryNode)
		reg, _ := mem.Property(RegProperty)
		assert.Equal(t, devicetree.AddressSize{Address: 0xFFFFFFFF, Size: 0xFFFFFFFF}, reg.(devicetree.AddressSizePairs)[1])
	})

	t.Run("truncate", func(t *testing.T) {
		tree, err := New(WithNarrowPolicy(NarrowTruncate)).BuildTree(bc)
		require.NoError(t, err)
		mem, _ := tree.Lookup(MemoryNode)
		reg, _ := mem.Property(RegProperty)
		assert.Equal(t, devicetree.AddressSize{Address: 0x0, Size: 0x80000000}, reg.(devicetree.AddressSizePairs)[1])
	})
}

func TestBuildInvalidContext(t *testing.T) {
	_, err := New().Build(nil)
	require.Error(t, err)

	_, err = New().Build(&Context{})
	var me *MemoryMapError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, -1, me.Index)

	_, err = New().Build(&Context{
		MemoryMap: []MemoryRegion{{Base: 0, Length: 0x1000}},
		Reserved:  []Reservation{{Address: 0x1000, Size: 0}},
	})
	require.Error(t, err)
}

func TestCheck(t *testing.T) {
	data, err := devicetree.New().ToBlob()
	require.NoError(t, err)
	assert.NoError(t, Check(data))

	err = Check([]byte{0x00, 0x01, 0x02, 0x03})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fdt.ErrNotCompatible))

	foreign := append([]byte(nil), data...)
	foreign[0] = 0x7f
	err = Check(foreign)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not compatible")
}
