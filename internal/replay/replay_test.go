package replay

import (
	"bytes"
	"context"
	"testing"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkcapture/gapid2/internal/cmdrecorder"
	"github.com/vkcapture/gapid2/internal/mec"
	"github.com/vkcapture/gapid2/internal/transform"
	"github.com/vkcapture/gapid2/internal/vkhandle"
	"github.com/vkcapture/gapid2/internal/wire"
)

// fakeDriver is a transform.Transform stand-in handing out
// incrementing fake handles, following the same pattern
// internal/cmdsplitter's tests use for their recordingNext.
type fakeDriver struct {
	transform.Base

	nextHandle uint64
	mappedBuf  []byte

	draws        int
	lastDrawArgs [4]uint32
	boundBuffer  vk.Buffer
	boundMemory  vk.DeviceMemory
}

func newFakeDriver() *fakeDriver {
	f := &fakeDriver{nextHandle: 100}
	f.Base = transform.NewBase("fake", nil)
	return f
}

func (f *fakeDriver) handle() uint64 {
	f.nextHandle++
	return f.nextHandle
}

func (f *fakeDriver) CreateInstance(ctx context.Context, info *vk.InstanceCreateInfo) (vk.Instance, error) {
	return vk.Instance(f.handle()), nil
}

func (f *fakeDriver) EnumeratePhysicalDevices(ctx context.Context, instance vk.Instance) ([]vk.PhysicalDevice, error) {
	return []vk.PhysicalDevice{vk.PhysicalDevice(f.handle())}, nil
}

func (f *fakeDriver) GetPhysicalDeviceProperties(ctx context.Context, pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	return vk.PhysicalDeviceProperties{VendorID: 0x10DE, DeviceID: 42, DriverVersion: 7}
}

func (f *fakeDriver) GetPhysicalDeviceQueueFamilyProperties(ctx context.Context, pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	return []vk.QueueFamilyProperties{{QueueCount: 1}}
}

func (f *fakeDriver) CreateDevice(ctx context.Context, pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	return vk.Device(f.handle()), nil
}

func (f *fakeDriver) GetDeviceQueue(ctx context.Context, device vk.Device, familyIndex, index uint32) vk.Queue {
	return vk.Queue(f.handle())
}

func (f *fakeDriver) AllocateMemory(ctx context.Context, device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, error) {
	f.mappedBuf = make([]byte, info.AllocationSize)
	return vk.DeviceMemory(f.handle()), nil
}

func (f *fakeDriver) MapMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize) (uintptr, error) {
	return uintptr(unsafe.Pointer(&f.mappedBuf[0])), nil
}

func (f *fakeDriver) CreateBuffer(ctx context.Context, device vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, error) {
	return vk.Buffer(f.handle()), nil
}

func (f *fakeDriver) CreateCommandPool(ctx context.Context, device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, error) {
	return vk.CommandPool(f.handle()), nil
}

func (f *fakeDriver) AllocateCommandBuffers(ctx context.Context, device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	return []vk.CommandBuffer{vk.CommandBuffer(f.handle())}, nil
}

func (f *fakeDriver) BeginCommandBuffer(ctx context.Context, cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	return nil
}

func (f *fakeDriver) EndCommandBuffer(ctx context.Context, cb vk.CommandBuffer) error { return nil }

func (f *fakeDriver) BindBufferMemory(ctx context.Context, device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset vk.DeviceSize) error {
	f.boundBuffer = buffer
	f.boundMemory = memory
	return nil
}

func (f *fakeDriver) CmdDraw(ctx context.Context, cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	f.draws++
	f.lastDrawArgs = [4]uint32{vertexCount, instanceCount, firstVertex, firstInstance}
}

func seedHandle(t *testing.T, enc *wire.Encoder, typ vkhandle.Type, h, parent vkhandle.Handle, fields func()) {
	t.Helper()
	enc.BeginCall(uint64(mec.OpSeedHandle))
	enc.Uint32(uint32(typ))
	enc.Handle(h)
	enc.Handle(parent)
	if fields != nil {
		fields()
	}
	require.NoError(t, enc.EndCall())
}

func TestRunBootstrapsInstanceDeviceQueueAndMemory(t *testing.T) {
	var out bytes.Buffer
	enc := wire.NewEncoder(&out, nil)

	traceInst := vkhandle.Handle(1)
	enc.BeginCall(uint64(mec.OpSeedHandle))
	enc.Uint32(uint32(vkhandle.Instance))
	enc.Handle(traceInst)
	enc.Handle(vkhandle.Null)
	enc.Array(0, func(i int) {})
	require.NoError(t, enc.EndCall())

	tracePD := vkhandle.Handle(2)
	enc.BeginCall(uint64(mec.OpSeedHandle))
	enc.Uint32(uint32(vkhandle.PhysicalDevice))
	enc.Handle(tracePD)
	enc.Handle(traceInst)
	enc.Uint32(42)
	enc.Uint32(0x10DE)
	enc.Uint32(7)
	require.NoError(t, enc.EndCall())

	traceDev := vkhandle.Handle(3)
	enc.BeginCall(uint64(mec.OpSeedHandle))
	enc.Uint32(uint32(vkhandle.Device))
	enc.Handle(traceDev)
	enc.Handle(tracePD)
	enc.Array(0, func(i int) {})
	require.NoError(t, enc.EndCall())

	traceQueue := vkhandle.Handle(4)
	enc.BeginCall(uint64(mec.OpSeedHandle))
	enc.Uint32(uint32(vkhandle.Queue))
	enc.Handle(traceQueue)
	enc.Handle(traceDev)
	enc.Uint32(0)
	enc.Uint32(0)
	require.NoError(t, enc.EndCall())

	traceMem := vkhandle.Handle(5)
	enc.BeginCall(uint64(mec.OpSeedHandle))
	enc.Uint32(uint32(vkhandle.DeviceMemory))
	enc.Handle(traceMem)
	enc.Handle(traceDev)
	enc.Uint64(16)
	enc.Uint32(0)
	enc.Bool(true)
	require.NoError(t, enc.EndCall())

	enc.EncodeMemoryUpdate(traceMem, 0, 4, []byte{1, 2, 3, 4})

	driver := newFakeDriver()
	r := New(context.Background(), driver)
	dec := wire.NewDecoder(bytes.NewReader(out.Bytes()), nil)
	require.NoError(t, r.Run(dec))

	realInst, ok := r.remap.Get(vkhandle.Instance, traceInst)
	require.True(t, ok)
	assert.NotEqual(t, vkhandle.Null, realInst)

	realDev, ok := r.remap.Get(vkhandle.Device, traceDev)
	require.True(t, ok)
	assert.NotEqual(t, vkhandle.Null, realDev)

	realQueue, ok := r.remap.Get(vkhandle.Queue, traceQueue)
	require.True(t, ok)
	assert.NotEqual(t, vkhandle.Null, realQueue)

	assert.Equal(t, []byte{1, 2, 3, 4}, driver.mappedBuf[0:4])
}

func TestRunBindsMemoryAndReplaysMirroredDraw(t *testing.T) {
	var out bytes.Buffer
	enc := wire.NewEncoder(&out, nil)

	traceInst := vkhandle.Handle(1)
	seedHandle(t, enc, vkhandle.Instance, traceInst, vkhandle.Null, func() { enc.Array(0, func(i int) {}) })

	tracePD := vkhandle.Handle(2)
	seedHandle(t, enc, vkhandle.PhysicalDevice, tracePD, traceInst, func() {
		enc.Uint32(42)
		enc.Uint32(0x10DE)
		enc.Uint32(7)
	})

	traceDev := vkhandle.Handle(3)
	seedHandle(t, enc, vkhandle.Device, traceDev, tracePD, func() { enc.Array(0, func(i int) {}) })

	traceMem := vkhandle.Handle(4)
	seedHandle(t, enc, vkhandle.DeviceMemory, traceMem, traceDev, func() {
		enc.Uint64(256)
		enc.Uint32(0)
		enc.Bool(false)
	})

	traceBuf := vkhandle.Handle(5)
	seedHandle(t, enc, vkhandle.Buffer, traceBuf, traceDev, func() { enc.Uint64(256) })

	enc.BeginCall(uint64(mec.OpBindMemory))
	enc.Uint32(uint32(vkhandle.Buffer))
	enc.Handle(traceBuf)
	enc.Handle(traceMem)
	enc.Uint64(0)
	require.NoError(t, enc.EndCall())

	tracePool := vkhandle.Handle(6)
	seedHandle(t, enc, vkhandle.CommandPool, tracePool, traceDev, nil)

	traceCB := vkhandle.Handle(7)
	enc.BeginCall(uint64(mec.OpSeedCommandBuffer))
	enc.Handle(traceCB)
	enc.Handle(tracePool)
	enc.Uint32(uint32(vk.CommandBufferLevelPrimary))
	require.NoError(t, enc.EndCall())

	enc.BeginCall(uint64(mec.ToCmdMirror(cmdrecorder.OpDraw)))
	enc.Handle(traceCB)
	enc.Uint32(3)
	enc.Uint32(1)
	enc.Uint32(0)
	enc.Uint32(0)
	require.NoError(t, enc.EndCall())

	driver := newFakeDriver()
	r := New(context.Background(), driver)
	dec := wire.NewDecoder(bytes.NewReader(out.Bytes()), nil)
	require.NoError(t, r.Run(dec))

	assert.NotEqual(t, vk.Buffer(0), driver.boundBuffer)
	assert.NotEqual(t, vk.DeviceMemory(0), driver.boundMemory)
	assert.Equal(t, 1, driver.draws)
	assert.Equal(t, [4]uint32{3, 1, 0, 0}, driver.lastDrawArgs)
}
