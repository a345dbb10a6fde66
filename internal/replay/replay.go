package replay

import (
	"context"

	vk "github.com/vulkan-go/vulkan"

	"github.com/vkcapture/gapid2/internal/cmdrecorder"
	"github.com/vkcapture/gapid2/internal/mec"
	"github.com/vkcapture/gapid2/internal/spy"
	"github.com/vkcapture/gapid2/internal/transform"
	"github.com/vkcapture/gapid2/internal/vkhandle"
	"github.com/vkcapture/gapid2/internal/wire"
	"github.com/vkcapture/gapid2/internal/xerr"
)

// Replayer drives a capture stream against a real Vulkan driver,
// resolving every trace handle through a Remap as it goes. Grounded on
// original_source/replayer.cpp's Replayer class; next plays the role
// its HandleRunner base plays there, the one place that actually calls
// into the driver (spec §4.A's basecaller.Caller is the intended next
// in production; tests substitute a stand-in).
//
// Not every handle type in this stream can be faithfully reconstructed:
// internal/mec (§4.L) only ever cached what later components needed,
// not a full VkXCreateInfo per object. Where that's enough to make a
// materially real object (instances, physical devices, devices,
// queues, memory, buffers, images, command pools/buffers), Replayer
// does so and registers the remap. Where it isn't (descriptor sets,
// pipelines, render passes, and the rest of the "helper" tail §4.L
// seeds), Replayer logs the gap once per type and leaves that handle
// unmapped. A mirrored command referencing such a handle is not
// skipped: it is still dispatched, with that handle resolved to the
// null handle (see remapDispatcher).
type Replayer struct {
	next transform.Transform
	ctx  context.Context

	remap *Remap

	// pdCandidates caches each real instance's unmatched physical
	// devices so repeated OpSeedHandle{PhysicalDevice} records for the
	// same instance consume candidates in turn instead of re-matching
	// from scratch and double-assigning one real device.
	pdCandidates map[vk.Instance][]candidate

	// mapped holds the writable CPU pointer for every DeviceMemory this
	// replay actually managed to map, keyed by the real handle;
	// get_memory_write_location's Go analogue.
	mapped map[vk.DeviceMemory]mappedRange

	devices map[vk.Device]deviceState

	openCB vk.CommandBuffer

	warnedUnsupported map[vkhandle.Type]bool
}

type mappedRange struct {
	device vk.Device
	ptr    uintptr
	size   vk.DeviceSize
}

type deviceState struct {
	physicalDevice vk.PhysicalDevice
	queueFamilies  []vk.QueueFamilyProperties
}

// New returns a Replayer that issues real driver calls through next.
func New(ctx context.Context, next transform.Transform) *Replayer {
	return &Replayer{
		next:              next,
		ctx:               ctx,
		remap:             NewRemap(),
		pdCandidates:      make(map[vk.Instance][]candidate),
		mapped:            make(map[vk.DeviceMemory]mappedRange),
		devices:           make(map[vk.Device]deviceState),
		warnedUnsupported: make(map[vkhandle.Type]bool),
	}
}

// Run decodes r to end of stream, applying every record it understands
// and logging/skipping the rest. Returns nil at a clean end of stream.
func (r *Replayer) Run(dec *wire.Decoder) error {
	for {
		ok, err := dec.NextCall()
		if err != nil {
			return xerr.Wrap(xerr.KindDecode, "replay: read record", err)
		}
		if !ok {
			r.closeOpenCommandBuffer()
			return nil
		}
		opcode := dec.Opcode()
		if err := r.dispatch(dec, opcode); err != nil {
			log.WithError(err).Warnf("replay: skipping record with opcode %d", opcode)
		}
	}
}

func (r *Replayer) dispatch(dec *wire.Decoder, opcode uint64) error {
	switch {
	case opcode == wire.OpcodeMemoryUpdate:
		return r.applyMemoryUpdate(dec)

	case opcode == uint64(spy.OpPhysicalDeviceTriples):
		return r.skipPhysicalDeviceTriples(dec)

	case opcode == uint64(spy.OpFenceStatuses):
		return r.skipFenceStatuses(dec)

	case opcode == uint64(mec.OpSeedHandle):
		return r.seedHandle(dec)

	case opcode == uint64(mec.OpBindMemory):
		return r.bindMemory(dec)

	case opcode == uint64(mec.OpSeedCommandBuffer):
		return r.seedCommandBuffer(dec)

	default:
		if cmdOp, ok := mec.FromCmdMirror(mec.Opcode(opcode)); ok {
			return r.dispatchMirroredCmd(dec, cmdOp)
		}
		return xerr.New(xerr.KindDecode, "replay: unknown top-level opcode")
	}
}

// applyMemoryUpdate writes a captured write-set entry directly into
// the matching real allocation's mapped range, per
// original_source/replayer.cpp's get_memory_write_location.
func (r *Replayer) applyMemoryUpdate(dec *wire.Decoder) error {
	traceMem, offset, size, data := dec.MemoryUpdate()
	if dec.Err() != nil {
		return dec.Err()
	}
	realMem, ok := r.remap.Get(vkhandle.DeviceMemory, traceMem)
	if !ok || realMem == vkhandle.Null {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: memory update for unmapped VkDeviceMemory")
	}
	mr, ok := r.mapped[vk.DeviceMemory(realMem)]
	if !ok {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: memory update for an allocation that was never mapped")
	}
	if offset+size > uint64(mr.size) {
		return xerr.New(xerr.KindInvariant, "replay: memory update overruns its allocation")
	}
	dst := unsafeSlice(mr.ptr+uintptr(offset), int(size))
	copy(dst, data)
	return nil
}

// skipPhysicalDeviceTriples/skipFenceStatuses decode spy's two records
// enough to stay framed, but don't act on them: by the time this
// stream reaches a replayer, OpSeedHandle{PhysicalDevice} has already
// carried the same triple per device (mec.go's captureInstancesAndDevices),
// and a fence-status array with no accompanying fence handles can't be
// correlated to anything without the generic top-level call dispatch
// this port deliberately doesn't have (see the package doc comment).
func (r *Replayer) skipPhysicalDeviceTriples(dec *wire.Decoder) error {
	dec.Array(func(i int) {
		dec.Uint32()
		dec.Uint32()
		dec.Uint32()
	})
	return dec.Err()
}

func (r *Replayer) skipFenceStatuses(dec *wire.Decoder) error {
	dec.Array(func(i int) { dec.Bool() })
	return dec.Err()
}

// seedHandle decodes an OpSeedHandle record's common {type, handle,
// parent} prefix, then only decodes and acts on the type-specific tail
// for the handle types Replayer can materialize for real; every other
// type's tail is left undecoded (safe: NextCall already framed the
// whole record, so unread trailing bytes are simply discarded when the
// next record is read) and gets an identity-less, logged-once skip.
func (r *Replayer) seedHandle(dec *wire.Decoder) error {
	typ := vkhandle.Type(dec.Uint32())
	handle := dec.Handle()
	parent := dec.Handle()
	if dec.Err() != nil {
		return dec.Err()
	}

	switch typ {
	case vkhandle.Instance:
		return r.seedInstance(dec, handle)
	case vkhandle.PhysicalDevice:
		return r.seedPhysicalDevice(dec, handle, parent)
	case vkhandle.Device:
		return r.seedDevice(dec, handle, parent)
	case vkhandle.Queue:
		return r.seedQueue(dec, handle, parent)
	case vkhandle.DeviceMemory:
		return r.seedDeviceMemory(dec, handle, parent)
	case vkhandle.Buffer:
		return r.seedBuffer(dec, handle, parent)
	case vkhandle.Image:
		return r.seedImage(dec, handle, parent)
	case vkhandle.CommandPool:
		return r.seedCommandPool(handle, parent)
	default:
		r.warnUnsupported(typ)
		return nil
	}
}

func (r *Replayer) warnUnsupported(typ vkhandle.Type) {
	if r.warnedUnsupported[typ] {
		return
	}
	r.warnedUnsupported[typ] = true
	log.Warnf("replay: %s has no real-creation path, handles of this type stay unmapped", typ)
}

func (r *Replayer) seedInstance(dec *wire.Decoder, handle vkhandle.Handle) error {
	var extensions []string
	dec.Array(func(i int) { extensions = append(extensions, dec.String()) })
	if dec.Err() != nil {
		return dec.Err()
	}
	info := &vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:      vk.StructureTypeApplicationInfo,
			ApiVersion: vk.MakeVersion(1, 1, 0),
		},
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}
	inst, err := r.next.CreateInstance(r.ctx, info)
	if err != nil {
		return xerr.Wrap(xerr.KindDriver, "replay: vkCreateInstance", err)
	}
	r.remap.Register(vkhandle.Instance, handle, vkhandle.Handle(inst))
	return nil
}

func (r *Replayer) seedPhysicalDevice(dec *wire.Decoder, handle, parent vkhandle.Handle) error {
	t := deviceTriple{
		deviceID:      dec.Uint32(),
		vendorID:      dec.Uint32(),
		driverVersion: dec.Uint32(),
	}
	if dec.Err() != nil {
		return dec.Err()
	}
	realInst, ok := r.remap.Get(vkhandle.Instance, parent)
	if !ok || realInst == vkhandle.Null {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: physical device seeded before its instance")
	}
	inst := vk.Instance(realInst)
	cands, ok := r.pdCandidates[inst]
	if !ok {
		pds, err := r.next.EnumeratePhysicalDevices(r.ctx, inst)
		if err != nil {
			return xerr.Wrap(xerr.KindDriver, "replay: vkEnumeratePhysicalDevices", err)
		}
		cands = make([]candidate, len(pds))
		for i, pd := range pds {
			cands[i] = candidate{pd: pd, props: r.next.GetPhysicalDeviceProperties(r.ctx, pd)}
		}
		r.pdCandidates[inst] = cands
	}
	idx := matchOne(cands, t)
	if idx < 0 {
		log.Warnf("replay: no physical device found matching deviceID %#x vendorID %#x", t.deviceID, t.vendorID)
		return nil
	}
	cands[idx].taken = true
	real := cands[idx].pd
	r.remap.Register(vkhandle.PhysicalDevice, handle, vkhandle.Handle(real))
	return nil
}

func (r *Replayer) seedDevice(dec *wire.Decoder, handle, parent vkhandle.Handle) error {
	var extensions []string
	dec.Array(func(i int) { extensions = append(extensions, dec.String()) })
	if dec.Err() != nil {
		return dec.Err()
	}
	realPD, ok := r.remap.Get(vkhandle.PhysicalDevice, parent)
	if !ok || realPD == vkhandle.Null {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: device seeded before its physical device")
	}
	pd := vk.PhysicalDevice(realPD)
	families := r.next.GetPhysicalDeviceQueueFamilyProperties(r.ctx, pd)

	// One queue per family: a trace's real create info records exactly
	// which families and counts it asked for, which this port's
	// DeviceWrapper never caches; requesting every family up front is
	// the closest real device this replayer can build without that
	// data, documented as a deliberate scope cut.
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i := range families {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(i),
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}
	info := &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
	}
	dev, err := r.next.CreateDevice(r.ctx, pd, info)
	if err != nil {
		return xerr.Wrap(xerr.KindDriver, "replay: vkCreateDevice", err)
	}
	r.remap.Register(vkhandle.Device, handle, vkhandle.Handle(dev))
	r.devices[dev] = deviceState{physicalDevice: pd, queueFamilies: families}
	return nil
}

func (r *Replayer) seedQueue(dec *wire.Decoder, handle, parent vkhandle.Handle) error {
	familyIndex := dec.Uint32()
	index := dec.Uint32()
	if dec.Err() != nil {
		return dec.Err()
	}
	realDev, ok := r.remap.Get(vkhandle.Device, parent)
	if !ok || realDev == vkhandle.Null {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: queue seeded before its device")
	}
	dev := vk.Device(realDev)
	if index != 0 {
		log.Warnf("replay: device was created with one queue per family, using index 0 instead of recorded index %d", index)
		index = 0
	}
	queue := r.next.GetDeviceQueue(r.ctx, dev, familyIndex, index)
	r.remap.Register(vkhandle.Queue, handle, vkhandle.Handle(queue))
	return nil
}

func (r *Replayer) seedDeviceMemory(dec *wire.Decoder, handle, parent vkhandle.Handle) error {
	size := dec.Uint64()
	typeIndex := dec.Uint32()
	coherent := dec.Bool()
	if dec.Err() != nil {
		return dec.Err()
	}
	realDev, ok := r.remap.Get(vkhandle.Device, parent)
	if !ok || realDev == vkhandle.Null {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: memory seeded before its device")
	}
	dev := vk.Device(realDev)
	mem, err := r.next.AllocateMemory(r.ctx, dev, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	})
	if err != nil {
		return xerr.Wrap(xerr.KindDriver, "replay: vkAllocateMemory", err)
	}
	r.remap.Register(vkhandle.DeviceMemory, handle, vkhandle.Handle(mem))
	if !coherent {
		return nil
	}
	ptr, err := r.next.MapMemory(r.ctx, dev, mem, 0, vk.DeviceSize(size))
	if err != nil {
		log.WithError(err).Warnf("replay: %#x is not actually host-visible, memory updates against it will be dropped", mem)
		return nil
	}
	r.mapped[mem] = mappedRange{device: dev, ptr: ptr, size: vk.DeviceSize(size)}
	return nil
}

func (r *Replayer) seedBuffer(dec *wire.Decoder, handle, parent vkhandle.Handle) error {
	size := dec.Uint64()
	if dec.Err() != nil {
		return dec.Err()
	}
	realDev, ok := r.remap.Get(vkhandle.Device, parent)
	if !ok || realDev == vkhandle.Null {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: buffer seeded before its device")
	}
	// Usage/sharing-mode flags aren't cached on BufferWrapper (§4.C
	// only keeps size and its binding); a broad default usage set lets
	// the buffer still accept the bind-memory and vkCmd* traffic a
	// capture actually exercises, at the cost of losing the
	// original's exact usage validation.
	usage := vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit) | vk.BufferUsageFlags(vk.BufferUsageTransferDstBit) |
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit) | vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit) |
		vk.BufferUsageFlags(vk.BufferUsageUniformBufferBit) | vk.BufferUsageFlags(vk.BufferUsageStorageBufferBit)
	buf, err := r.next.CreateBuffer(r.ctx, vk.Device(realDev), &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	})
	if err != nil {
		return xerr.Wrap(xerr.KindDriver, "replay: vkCreateBuffer", err)
	}
	r.remap.Register(vkhandle.Buffer, handle, vkhandle.Handle(buf))
	return nil
}

func (r *Replayer) seedImage(dec *wire.Decoder, handle, parent vkhandle.Handle) error {
	format := dec.Uint32()
	width := dec.Uint32()
	height := dec.Uint32()
	depth := dec.Uint32()
	if dec.Err() != nil {
		return dec.Err()
	}
	realDev, ok := r.remap.Get(vkhandle.Device, parent)
	if !ok || realDev == vkhandle.Null {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: image seeded before its device")
	}
	usage := vk.ImageUsageFlags(vk.ImageUsageTransferSrcBit) | vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) |
		vk.ImageUsageFlags(vk.ImageUsageSampledBit) | vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	img, err := r.next.CreateImage(r.ctx, vk.Device(realDev), &vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        vk.Format(format),
		Extent:        vk.Extent3D{Width: width, Height: height, Depth: depth},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	})
	if err != nil {
		return xerr.Wrap(xerr.KindDriver, "replay: vkCreateImage", err)
	}
	r.remap.Register(vkhandle.Image, handle, vkhandle.Handle(img))
	return nil
}

func (r *Replayer) seedCommandPool(handle, parent vkhandle.Handle) error {
	realDev, ok := r.remap.Get(vkhandle.Device, parent)
	if !ok || realDev == vkhandle.Null {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: command pool seeded before its device")
	}
	pool, err := r.next.CreateCommandPool(r.ctx, vk.Device(realDev), &vk.CommandPoolCreateInfo{
		SType: vk.StructureTypeCommandPoolCreateInfo,
		Flags: vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	})
	if err != nil {
		return xerr.Wrap(xerr.KindDriver, "replay: vkCreateCommandPool", err)
	}
	r.remap.Register(vkhandle.CommandPool, handle, vkhandle.Handle(pool))
	return nil
}

// bindMemory decodes an OpBindMemory record and, when both sides
// resolved to real handles, issues the matching real bind call.
func (r *Replayer) bindMemory(dec *wire.Decoder) error {
	resourceType := vkhandle.Type(dec.Uint32())
	resource := dec.Handle()
	memory := dec.Handle()
	offset := dec.Uint64()
	if dec.Err() != nil {
		return dec.Err()
	}
	realMem, ok := r.remap.Get(vkhandle.DeviceMemory, memory)
	if !ok || realMem == vkhandle.Null {
		return nil
	}
	realRes, ok := r.remap.Get(resourceType, resource)
	if !ok || realRes == vkhandle.Null {
		return nil
	}
	dev, ok := r.soleDevice()
	if !ok {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: bind-memory with no known device")
	}
	switch resourceType {
	case vkhandle.Buffer:
		err := r.next.BindBufferMemory(r.ctx, dev, vk.Buffer(realRes), vk.DeviceMemory(realMem), vk.DeviceSize(offset))
		return wrapDriverErr(err, "replay: vkBindBufferMemory")
	case vkhandle.Image:
		err := r.next.BindImageMemory(r.ctx, dev, vk.Image(realRes), vk.DeviceMemory(realMem), vk.DeviceSize(offset))
		return wrapDriverErr(err, "replay: vkBindImageMemory")
	default:
		return nil
	}
}

func wrapDriverErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	return xerr.Wrap(xerr.KindDriver, msg, err)
}

// soleDevice returns the one device this replay session has created;
// a single capture stream always bootstraps exactly one, since every
// OpSeedHandle{Device} in it shares one physical device by construction
// of internal/mec's own capture (one live application, one block).
func (r *Replayer) soleDevice() (vk.Device, bool) {
	for dev := range r.devices {
		return dev, true
	}
	return 0, false
}

func (r *Replayer) seedCommandBuffer(dec *wire.Decoder) error {
	handle := dec.Handle()
	pool := dec.Handle()
	level := vk.CommandBufferLevel(dec.Uint32())
	if dec.Err() != nil {
		return dec.Err()
	}
	r.closeOpenCommandBuffer()

	realPool, ok := r.remap.Get(vkhandle.CommandPool, pool)
	if !ok || realPool == vkhandle.Null {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: command buffer seeded before its pool")
	}
	dev, ok := r.soleDevice()
	if !ok {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: command buffer seeded before any device")
	}
	cbs, err := r.next.AllocateCommandBuffers(r.ctx, dev, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        vk.CommandPool(realPool),
		Level:              level,
		CommandBufferCount: 1,
	})
	if err != nil {
		return xerr.Wrap(xerr.KindDriver, "replay: vkAllocateCommandBuffers", err)
	}
	cb := cbs[0]
	r.remap.Register(vkhandle.CommandBuffer, handle, vkhandle.Handle(cb))
	if err := r.next.BeginCommandBuffer(r.ctx, cb, &vk.CommandBufferBeginInfo{SType: vk.StructureTypeCommandBufferBeginInfo}); err != nil {
		return xerr.Wrap(xerr.KindDriver, "replay: vkBeginCommandBuffer", err)
	}
	r.openCB = cb
	return nil
}

func (r *Replayer) closeOpenCommandBuffer() {
	if r.openCB == 0 {
		return
	}
	if err := r.next.EndCommandBuffer(r.ctx, r.openCB); err != nil {
		log.WithError(err).Warn("replay: vkEndCommandBuffer")
	}
	r.openCB = 0
}

// dispatchMirroredCmd replays one command mec spliced into its
// prologue. Per ToCmdMirror's framing, the first field is the trace
// command buffer handle the recording targeted; everything after it is
// the recorded call's own fields, decoded by cmdrecorder.Dispatch
// exactly as RerecordCommandBuffer would for a CommandBufferWrapper's
// own Stream.
func (r *Replayer) dispatchMirroredCmd(dec *wire.Decoder, op cmdrecorder.Opcode) error {
	traceCB := dec.Handle()
	if dec.Err() != nil {
		return dec.Err()
	}
	realCB, ok := r.remap.Get(vkhandle.CommandBuffer, traceCB)
	if !ok || realCB == vkhandle.Null {
		return xerr.New(xerr.KindUnsupportedReplay, "replay: mirrored command for an unseeded command buffer")
	}
	return cmdrecorder.Dispatch(r.ctx, dec, op, vk.CommandBuffer(realCB), &remapDispatcher{next: r.next, remap: r.remap, ctx: r.ctx})
}
