package spy

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkcapture/gapid2/internal/memtrack"
	"github.com/vkcapture/gapid2/internal/state"
	"github.com/vkcapture/gapid2/internal/transform"
	"github.com/vkcapture/gapid2/internal/vkhandle"
	"github.com/vkcapture/gapid2/internal/wire"
)

// fakeNext is a transform.Transform stand-in whose driver-facing
// methods are fully scripted by each test.
type fakeNext struct {
	transform.Base

	pds          []vk.PhysicalDevice
	props        map[vk.PhysicalDevice]vk.PhysicalDeviceProperties
	mapResult    uintptr
	mapErr       error
	fenceErr     map[vk.Fence]error
	waitErr      error
	waitIdleErr  error
	unmapCalls   int
	freeCalls    int
	flushCalls   int
	invalidCalls int
}

func newFakeNext() *fakeNext {
	n := &fakeNext{
		props:    make(map[vk.PhysicalDevice]vk.PhysicalDeviceProperties),
		fenceErr: make(map[vk.Fence]error),
	}
	n.Base = transform.NewBase("fake", nil)
	return n
}

func (n *fakeNext) EnumeratePhysicalDevices(ctx context.Context, instance vk.Instance) ([]vk.PhysicalDevice, error) {
	return n.pds, nil
}

func (n *fakeNext) GetPhysicalDeviceProperties(ctx context.Context, pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	return n.props[pd]
}

func (n *fakeNext) MapMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize) (uintptr, error) {
	return n.mapResult, n.mapErr
}

func (n *fakeNext) UnmapMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory) error {
	n.unmapCalls++
	return nil
}

func (n *fakeNext) FreeMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory) error {
	n.freeCalls++
	return nil
}

func (n *fakeNext) FlushMappedMemoryRanges(ctx context.Context, device vk.Device, ranges []vk.MappedMemoryRange) error {
	n.flushCalls++
	return nil
}

func (n *fakeNext) InvalidateMappedMemoryRanges(ctx context.Context, device vk.Device, ranges []vk.MappedMemoryRange) error {
	n.invalidCalls++
	return nil
}

func (n *fakeNext) DeviceWaitIdle(ctx context.Context, device vk.Device) error {
	return n.waitIdleErr
}

func (n *fakeNext) WaitForFences(ctx context.Context, device vk.Device, fences []vk.Fence, waitAll bool, timeout uint64) error {
	return n.waitErr
}

func (n *fakeNext) GetFenceStatus(ctx context.Context, device vk.Device, fence vk.Fence) error {
	return n.fenceErr[fence]
}

func TestEnumeratePhysicalDevicesEmitsTriplesWhenEnabled(t *testing.T) {
	block := state.New()
	next := newFakeNext()
	next.pds = []vk.PhysicalDevice{1, 2}
	next.props[1] = vk.PhysicalDeviceProperties{DeviceID: 10, VendorID: 20, DriverVersion: 30}
	next.props[2] = vk.PhysicalDeviceProperties{DeviceID: 11, VendorID: 21, DriverVersion: 31}

	var buf bytes.Buffer
	s := NewSpy(block, nil, &buf, next)
	s.Enable()

	pds, err := s.EnumeratePhysicalDevices(context.Background(), vk.Instance(1))
	require.NoError(t, err)
	assert.Equal(t, next.pds, pds)
	require.NotZero(t, buf.Len())

	dec := wire.NewDecoder(bytes.NewReader(buf.Bytes()), nil)
	ok, err := dec.NextCall()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(OpPhysicalDeviceTriples), dec.Opcode())

	var got [][3]uint32
	dec.Array(func(i int) {
		got = append(got, [3]uint32{dec.Uint32(), dec.Uint32(), dec.Uint32()})
	})
	require.NoError(t, dec.Err())
	assert.Equal(t, [][3]uint32{{10, 20, 30}, {11, 21, 31}}, got)
}

func TestEnumeratePhysicalDevicesNoEncodeWhenDisabled(t *testing.T) {
	block := state.New()
	next := newFakeNext()
	next.pds = []vk.PhysicalDevice{1}
	next.props[1] = vk.PhysicalDeviceProperties{DeviceID: 1}

	var buf bytes.Buffer
	s := NewSpy(block, nil, &buf, next)

	_, err := s.EnumeratePhysicalDevices(context.Background(), vk.Instance(1))
	require.NoError(t, err)
	assert.Zero(t, buf.Len())
}

func TestMapMemoryInstallsShadowAndUnmapUntracks(t *testing.T) {
	tr, err := memtrack.New()
	require.NoError(t, err)
	defer tr.Close()

	block := state.New()
	mem := vk.DeviceMemory(42)
	w := block.DeviceMemories.GetOrCreate(vkhandle.Handle(mem))
	w.Coherent = true
	w.Size = 4096
	w.MappedSize = 4096

	src := make([]byte, 4096)
	next := newFakeNext()
	// Use the real backing array's address as the "driver" pointer so
	// AddTrackedRange has something valid to copy from.
	next.mapResult = uintptr(unsafe.Pointer(&src[0]))

	var buf bytes.Buffer
	s := NewSpy(block, tr, &buf, next)

	ptr, err := s.MapMemory(context.Background(), vk.Device(1), mem, 0, 4096)
	require.NoError(t, err)
	assert.NotEqual(t, next.mapResult, ptr, "MapMemory must hand back the shadow, not the driver pointer")
	assert.NotZero(t, w.ShadowPtr)

	s.coherentMu.Lock()
	_, tracked := s.mappedCoherent[vkhandle.Handle(mem)]
	s.coherentMu.Unlock()
	assert.True(t, tracked)

	require.NoError(t, s.UnmapMemory(context.Background(), vk.Device(1), mem))
	assert.Equal(t, 1, next.unmapCalls)
	s.coherentMu.Lock()
	_, stillTracked := s.mappedCoherent[vkhandle.Handle(mem)]
	s.coherentMu.Unlock()
	assert.False(t, stillTracked)
}

func TestFreeMemorySkipsUntrackWhenNotMapped(t *testing.T) {
	block := state.New()
	mem := vk.DeviceMemory(7)
	w := block.DeviceMemories.GetOrCreate(vkhandle.Handle(mem))
	w.Mapped = false

	next := newFakeNext()
	var buf bytes.Buffer
	s := NewSpy(block, nil, &buf, next)

	require.NoError(t, s.FreeMemory(context.Background(), vk.Device(1), mem))
	assert.Equal(t, 1, next.freeCalls)
}

func TestWaitForFencesSingleFenceSkipsEncoding(t *testing.T) {
	block := state.New()
	next := newFakeNext()
	var buf bytes.Buffer
	s := NewSpy(block, nil, &buf, next)
	s.Enable()

	err := s.WaitForFences(context.Background(), vk.Device(1), []vk.Fence{1}, true, 1000)
	require.NoError(t, err)
	assert.Zero(t, buf.Len())
}

func TestWaitForFencesMultiFenceEncodesSignaledStatus(t *testing.T) {
	block := state.New()
	next := newFakeNext()
	next.fenceErr[1] = nil
	next.fenceErr[2] = errors.New("not ready")

	fw := block.Fences.GetOrCreate(vkhandle.Handle(vk.Fence(1)))
	fw.PendingWrites = []state.MemoryBinding{{Resource: vkhandle.Handle(99)}}
	mem := block.DeviceMemories.GetOrCreate(vkhandle.Handle(99))
	mem.Size = 256

	var buf bytes.Buffer
	s := NewSpy(block, nil, &buf, next)
	s.Enable()

	err := s.WaitForFences(context.Background(), vk.Device(1), []vk.Fence{1, 2}, true, 1000)
	require.NoError(t, err)
	require.NotZero(t, buf.Len())

	dec := wire.NewDecoder(bytes.NewReader(buf.Bytes()), nil)
	ok, err := dec.NextCall()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(OpFenceStatuses), dec.Opcode())

	var statuses []bool
	dec.Array(func(i int) {
		statuses = append(statuses, dec.Bool())
	})
	require.NoError(t, dec.Err())
	assert.Equal(t, []bool{true, false}, statuses)
	assert.Empty(t, fw.PendingWrites, "signaled fence's pending writes must be drained")
}

func TestDeviceWaitIdleDrainsPendingWritesOnSuccess(t *testing.T) {
	block := state.New()
	fw := block.Fences.GetOrCreate(vkhandle.Handle(vk.Fence(1)))
	fw.PendingWrites = []state.MemoryBinding{{Resource: vkhandle.Handle(5)}}

	next := newFakeNext()
	var buf bytes.Buffer
	s := NewSpy(block, nil, &buf, next)

	require.NoError(t, s.DeviceWaitIdle(context.Background(), vk.Device(1)))
	assert.Empty(t, fw.PendingWrites)
}

func TestDeviceWaitIdleKeepsPendingWritesOnFailure(t *testing.T) {
	block := state.New()
	fw := block.Fences.GetOrCreate(vkhandle.Handle(vk.Fence(1)))
	fw.PendingWrites = []state.MemoryBinding{{Resource: vkhandle.Handle(5)}}

	next := newFakeNext()
	next.waitIdleErr = errors.New("device lost")
	var buf bytes.Buffer
	s := NewSpy(block, nil, &buf, next)

	err := s.DeviceWaitIdle(context.Background(), vk.Device(1))
	assert.Error(t, err)
	assert.NotEmpty(t, fw.PendingWrites)
}
