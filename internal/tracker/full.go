package tracker

import (
	"context"
	"sync"

	vk "github.com/vulkan-go/vulkan"

	"github.com/vkcapture/gapid2/internal/spirv"
	"github.com/vkcapture/gapid2/internal/state"
	"github.com/vkcapture/gapid2/internal/transform"
	"github.com/vkcapture/gapid2/internal/vkhandle"
)

// bindPoint keys the per-command-buffer-submission bound-descriptor
// scratch state Full keeps while replaying pre_run closures; it has no
// Vulkan wire representation of its own.
type bindPoint int

const (
	bindGraphics bindPoint = iota
	bindCompute
)

type boundState struct {
	descriptors map[uint32]vkhandle.Handle // set index -> descriptor set
	pipeline    vkhandle.Handle
}

// Full is the full state tracker (§4.F): SPIR-V descriptor reflection
// on shader-module creation, pipeline descriptor-use precomputation
// (with the widen-on-failure fallback recorded as an Open Question
// decision in DESIGN.md), descriptor-set writes including
// array-crossing writes, the buffer/image memory-binding mirror, and
// queue-submission bookkeeping (pre/post-run closures, the
// read/write-bound-memory sets a submit hands to memtrack, and the
// per-fence pending write-set transfer).
//
// Grounded on original_source/state_tracker.h, which layers on the
// creation_data_tracker via CRTP; Full's Next() is a *Minimal (which
// in turn wraps a *Create).
type Full struct {
	transform.Base
	state *state.Block

	mu       sync.Mutex
	graphics boundState
	compute  boundState

	readBound  map[vkhandle.Handle]struct{}
	writeBound map[vkhandle.Handle]struct{}

	// OnDirtyMemory is called with the union of read/write-bound
	// memories just before a submit reaches the driver, letting
	// internal/memtrack drain shadow pages ahead of GPU access (§4.K's
	// pre-submit dirty-page drain calls through here).
	OnDirtyMemory func(read, write []vkhandle.Handle)
}

// NewFull constructs a Full transform over block, forwarding to next.
func NewFull(block *state.Block, next transform.Transform) *Full {
	f := &Full{
		state:      block,
		readBound:  make(map[vkhandle.Handle]struct{}),
		writeBound: make(map[vkhandle.Handle]struct{}),
		graphics:   boundState{descriptors: make(map[uint32]vkhandle.Handle)},
		compute:    boundState{descriptors: make(map[uint32]vkhandle.Handle)},
	}
	f.Base = transform.NewBase("tracker.full", next)
	return f
}

func (f *Full) CreateShaderModule(ctx context.Context, device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	module, err := f.Next().CreateShaderModule(ctx, device, info)
	if err != nil {
		return module, err
	}
	w, ok := f.state.ShaderModules.Get(vkhandle.Handle(module))
	if !ok {
		w = f.state.ShaderModules.GetOrCreate(vkhandle.Handle(module))
	}
	w.SPIRV = append([]byte(nil), info.PCode...)

	mod, perr := spirv.Parse(w.SPIRV)
	if perr != nil {
		w.ReflectionOK = false
		log.WithError(perr).Debug("shader module reflection failed, pipelines using it will widen descriptor use")
		return module, nil
	}
	w.ReflectionOK = true
	// spirv.Parse attributes every resource variable to every entry
	// point it found (see package doc); a module with exactly one
	// entry point, the overwhelmingly common case, gets an exact set.
	var uses []state.DescriptorUse
	for _, vs := range mod.EntryPoints {
		for _, v := range vs {
			uses = append(uses, state.DescriptorUse{Set: v.Set, Binding: v.Binding, Count: v.Count})
		}
		break
	}
	w.Uses = uses
	return module, nil
}

func (f *Full) descriptorUsesForStage(module vkhandle.Handle) ([]state.DescriptorUse, bool) {
	w, ok := f.state.ShaderModules.Get(module)
	if !ok || !w.ReflectionOK {
		return nil, false
	}
	return w.Uses, true
}

func mergeUses(dst []state.DescriptorUse, src []state.DescriptorUse) []state.DescriptorUse {
	for _, su := range src {
		found := false
		for i := range dst {
			if dst[i].Set == su.Set && dst[i].Binding == su.Binding {
				if su.Count > dst[i].Count {
					dst[i].Count = su.Count
				}
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, su)
		}
	}
	return dst
}

func (f *Full) widenToLayout(layout vkhandle.Handle) []state.DescriptorUse {
	var uses []state.DescriptorUse
	lw, ok := f.state.PipelineLayouts.Get(layout)
	if !ok {
		return uses
	}
	for setIdx, sl := range lw.SetLayouts {
		dsl, ok := f.state.DescriptorSetLayouts.Get(sl)
		if !ok {
			continue
		}
		for _, b := range dsl.Bindings {
			uses = append(uses, state.DescriptorUse{Set: uint32(setIdx), Binding: b.Binding, Count: b.DescriptorCount})
		}
	}
	return uses
}

func (f *Full) CreateGraphicsPipelines(ctx context.Context, device vk.Device, cache vk.PipelineCache, infos []vk.GraphicsPipelineCreateInfo) ([]vk.Pipeline, error) {
	pipelines, err := f.Next().CreateGraphicsPipelines(ctx, device, cache, infos)
	if err != nil {
		return pipelines, err
	}
	for i, p := range pipelines {
		w, ok := f.state.Pipelines.Get(vkhandle.Handle(p))
		if !ok {
			w = f.state.Pipelines.GetOrCreate(vkhandle.Handle(p))
		}
		var uses []state.DescriptorUse
		widened := false
		for _, stage := range infos[i].PStages {
			su, ok := f.descriptorUsesForStage(vkhandle.Handle(stage.Module))
			if !ok {
				widened = true
				break
			}
			uses = mergeUses(uses, su)
		}
		if widened {
			uses = f.widenToLayout(vkhandle.Handle(infos[i].Layout))
		}
		w.DescriptorUses = uses
		w.DescriptorUseWidened = widened
	}
	return pipelines, nil
}

func (f *Full) CreateComputePipelines(ctx context.Context, device vk.Device, cache vk.PipelineCache, infos []vk.ComputePipelineCreateInfo) ([]vk.Pipeline, error) {
	pipelines, err := f.Next().CreateComputePipelines(ctx, device, cache, infos)
	if err != nil {
		return pipelines, err
	}
	for i, p := range pipelines {
		w, ok := f.state.Pipelines.Get(vkhandle.Handle(p))
		if !ok {
			w = f.state.Pipelines.GetOrCreate(vkhandle.Handle(p))
		}
		su, ok := f.descriptorUsesForStage(vkhandle.Handle(infos[i].Stage.Module))
		if !ok {
			w.DescriptorUses = f.widenToLayout(vkhandle.Handle(infos[i].Layout))
			w.DescriptorUseWidened = true
		} else {
			w.DescriptorUses = su
			w.DescriptorUseWidened = false
		}
	}
	return pipelines, nil
}

func (f *Full) AllocateDescriptorSets(ctx context.Context, device vk.Device, info *vk.DescriptorSetAllocateInfo) ([]vk.DescriptorSet, error) {
	sets, err := f.Next().AllocateDescriptorSets(ctx, device, info)
	if err != nil {
		return sets, err
	}
	for i, s := range sets {
		w, ok := f.state.DescriptorSets.Get(vkhandle.Handle(s))
		if !ok {
			w = f.state.DescriptorSets.GetOrCreate(vkhandle.Handle(s))
		}
		if i >= len(info.PSetLayouts) {
			continue
		}
		layout := vkhandle.Handle(info.PSetLayouts[i])
		w.Layout = layout
		w.Slots = w.Slots[:0]
		if dsl, ok := f.state.DescriptorSetLayouts.Get(layout); ok {
			for _, b := range dsl.Bindings {
				for j := uint32(0); j < b.DescriptorCount; j++ {
					w.Slots = append(w.Slots, state.DescriptorSlot{Binding: b.Binding, Type: b.DescriptorType})
				}
			}
		}
	}
	return sets, nil
}

// UpdateDescriptorSets mirrors each write into the set's flat Slots
// list, walking forward across binding boundaries the way
// vkUpdateDescriptorSets itself is specified to when descriptorCount
// exceeds the named binding's remaining capacity (§4.F.3).
func (f *Full) UpdateDescriptorSets(ctx context.Context, device vk.Device, writes []vk.WriteDescriptorSet, copies []vk.CopyDescriptorSet) error {
	for _, dw := range writes {
		w, ok := f.state.DescriptorSets.Get(vkhandle.Handle(dw.DstSet))
		if !ok {
			continue
		}
		slot := firstSlotIndex(w.Slots, dw.DstBinding, dw.DstArrayElement)
		for j := uint32(0); j < dw.DescriptorCount; j++ {
			for slot < len(w.Slots) && w.Slots[slot].Binding != dw.DstBinding && j > 0 {
				// crossed into a following binding; DstBinding no longer
				// gates progress once the walk has moved on.
				break
			}
			if slot >= len(w.Slots) {
				break
			}
			applyWrite(&w.Slots[slot], dw)
			slot++
		}
	}
	return f.Next().UpdateDescriptorSets(ctx, device, writes, copies)
}

func firstSlotIndex(slots []state.DescriptorSlot, binding, arrayElement uint32) int {
	count := 0
	for i, s := range slots {
		if s.Binding != binding {
			continue
		}
		if uint32(count) == arrayElement {
			return i
		}
		count++
	}
	return len(slots)
}

func applyWrite(slot *state.DescriptorSlot, dw vk.WriteDescriptorSet) {
	slot.Type = dw.DescriptorType
	switch dw.DescriptorType {
	case vk.DescriptorTypeSampler, vk.DescriptorTypeCombinedImageSampler,
		vk.DescriptorTypeSampledImage, vk.DescriptorTypeStorageImage,
		vk.DescriptorTypeInputAttachment:
		if len(dw.PImageInfo) > 0 {
			slot.Resource = vkhandle.Handle(dw.PImageInfo[0].ImageView)
		}
	case vk.DescriptorTypeUniformTexelBuffer, vk.DescriptorTypeStorageTexelBuffer:
		if len(dw.PTexelBufferView) > 0 {
			slot.Resource = vkhandle.Handle(dw.PTexelBufferView[0])
		}
	case vk.DescriptorTypeUniformBuffer, vk.DescriptorTypeStorageBuffer,
		vk.DescriptorTypeUniformBufferDynamic, vk.DescriptorTypeStorageBufferDynamic:
		if len(dw.PBufferInfo) > 0 {
			slot.Buffer = vkhandle.Handle(dw.PBufferInfo[0].Buffer)
			slot.Offset = dw.PBufferInfo[0].Offset
			slot.Range = dw.PBufferInfo[0].Range
		}
	}
}

func (f *Full) GetBufferMemoryRequirements(ctx context.Context, device vk.Device, buffer vk.Buffer) vk.MemoryRequirements {
	req := f.Next().GetBufferMemoryRequirements(ctx, device, buffer)
	if w, ok := f.state.Buffers.Get(vkhandle.Handle(buffer)); ok {
		w.RequiredSize = req.Size
	}
	return req
}

func (f *Full) GetImageMemoryRequirements(ctx context.Context, device vk.Device, image vk.Image) vk.MemoryRequirements {
	req := f.Next().GetImageMemoryRequirements(ctx, device, image)
	if w, ok := f.state.Images.Get(vkhandle.Handle(image)); ok {
		w.RequiredSize = req.Size
	}
	return req
}

func (f *Full) BindBufferMemory(ctx context.Context, device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset vk.DeviceSize) error {
	err := f.Next().BindBufferMemory(ctx, device, buffer, memory, offset)
	if err != nil {
		return err
	}
	if w, ok := f.state.Buffers.Get(vkhandle.Handle(buffer)); ok {
		w.BoundMemory = vkhandle.Handle(memory)
		w.BoundOffset = offset
		f.recordBinding(vkhandle.Handle(memory), vkhandle.Handle(buffer), offset, w.RequiredSize)
	}
	return nil
}

func (f *Full) BindImageMemory(ctx context.Context, device vk.Device, image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) error {
	err := f.Next().BindImageMemory(ctx, device, image, memory, offset)
	if err != nil {
		return err
	}
	if w, ok := f.state.Images.Get(vkhandle.Handle(image)); ok {
		w.BoundMemory = vkhandle.Handle(memory)
		w.BoundOffset = offset
		f.recordBinding(vkhandle.Handle(memory), vkhandle.Handle(image), offset, w.RequiredSize)
	}
	return nil
}

func (f *Full) recordBinding(memory, resource vkhandle.Handle, offset, size vk.DeviceSize) {
	mw, ok := f.state.DeviceMemories.Get(memory)
	if !ok {
		return
	}
	mw.Bindings = append(mw.Bindings, state.MemoryBinding{Resource: resource, Offset: offset, Size: size})
}

func (f *Full) CmdBindPipeline(ctx context.Context, cb vk.CommandBuffer, bp vk.PipelineBindPoint, pipeline vk.Pipeline) {
	f.Next().CmdBindPipeline(ctx, cb, bp, pipeline)
	w, ok := f.state.CommandBuffers.Get(vkhandle.Handle(cb))
	if !ok {
		return
	}
	handle := vkhandle.Handle(pipeline)
	w.BoundPipeline = handle
	w.PreRun = append(w.PreRun, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if bp == vk.PipelineBindPointCompute {
			f.compute.pipeline = handle
		} else {
			f.graphics.pipeline = handle
		}
	})
}

func (f *Full) CmdBindDescriptorSets(ctx context.Context, cb vk.CommandBuffer, bp vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet, dynamicOffsets []uint32) {
	f.Next().CmdBindDescriptorSets(ctx, cb, bp, layout, firstSet, sets, dynamicOffsets)
	w, ok := f.state.CommandBuffers.Get(vkhandle.Handle(cb))
	if !ok {
		return
	}
	ids := make([]vkhandle.Handle, len(sets))
	for i, s := range sets {
		ids[i] = vkhandle.Handle(s)
	}
	w.BoundSets = ids
	w.PreRun = append(w.PreRun, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		target := &f.graphics
		if bp == vk.PipelineBindPointCompute {
			target = &f.compute
		}
		for i, s := range ids {
			target.descriptors[firstSet+uint32(i)] = s
		}
	})
}

func (f *Full) handleDescriptorSets(point bindPoint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bs := &f.graphics
	if point == bindCompute {
		bs = &f.compute
	}
	pw, ok := f.state.Pipelines.Get(bs.pipeline)
	if !ok {
		return
	}
	for _, use := range pw.DescriptorUses {
		setHandle, ok := bs.descriptors[use.Set]
		if !ok {
			continue
		}
		sw, ok := f.state.DescriptorSets.Get(setHandle)
		if !ok {
			continue
		}
		for i, slot := range sw.Slots {
			if slot.Binding != use.Binding {
				continue
			}
			if i >= int(use.Count) {
				break
			}
			f.markBinding(slot)
		}
	}
}

func (f *Full) markBinding(slot state.DescriptorSlot) {
	resource := slot.Resource
	isWrite := slot.Type == vk.DescriptorTypeStorageImage ||
		slot.Type == vk.DescriptorTypeStorageTexelBuffer ||
		slot.Type == vk.DescriptorTypeStorageBuffer ||
		slot.Type == vk.DescriptorTypeStorageBufferDynamic

	var memory vkhandle.Handle
	switch {
	case slot.Buffer != vkhandle.Null:
		if buf, ok := f.state.Buffers.Get(slot.Buffer); ok {
			memory = buf.BoundMemory
		}
	case resource != vkhandle.Null:
		if iw, ok := f.state.ImageViews.Get(resource); ok {
			if img, ok := f.state.Images.Get(iw.Image); ok {
				memory = img.BoundMemory
			}
		} else if bv, ok := f.state.BufferViews.Get(resource); ok {
			if buf, ok := f.state.Buffers.Get(bv.Buffer); ok {
				memory = buf.BoundMemory
			}
		}
	}
	if memory == vkhandle.Null {
		return
	}
	mem, ok := f.state.DeviceMemories.Get(memory)
	if !ok {
		return
	}
	if mem.Coherent && mem.Mapped {
		f.readBound[memory] = struct{}{}
	}
	if isWrite {
		f.writeBound[memory] = struct{}{}
	}
}

func (f *Full) CmdDraw(ctx context.Context, cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	f.Next().CmdDraw(ctx, cb, vertexCount, instanceCount, firstVertex, firstInstance)
	f.appendPreRun(cb, bindGraphics)
}

func (f *Full) CmdDrawIndexed(ctx context.Context, cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	f.Next().CmdDrawIndexed(ctx, cb, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
	f.appendPreRun(cb, bindGraphics)
}

func (f *Full) CmdDispatch(ctx context.Context, cb vk.CommandBuffer, x, y, z uint32) {
	f.Next().CmdDispatch(ctx, cb, x, y, z)
	f.appendPreRun(cb, bindCompute)
}

func (f *Full) appendPreRun(cb vk.CommandBuffer, point bindPoint) {
	w, ok := f.state.CommandBuffers.Get(vkhandle.Handle(cb))
	if !ok {
		return
	}
	w.PreRun = append(w.PreRun, func() { f.handleDescriptorSets(point) })
}

func (f *Full) QueueSubmit(ctx context.Context, queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) error {
	f.mu.Lock()
	f.readBound = make(map[vkhandle.Handle]struct{})
	f.writeBound = make(map[vkhandle.Handle]struct{})
	f.mu.Unlock()

	for _, sub := range submits {
		for _, sem := range sub.PWaitSemaphores {
			if w, ok := f.state.Semaphores.Get(vkhandle.Handle(sem)); ok {
				w.Value = 0
			}
		}
		for _, cb := range sub.PCommandBuffers {
			w, ok := f.state.CommandBuffers.Get(vkhandle.Handle(cb))
			if !ok {
				continue
			}
			for _, pf := range w.PreRun {
				pf()
			}
		}
	}

	if f.OnDirtyMemory != nil {
		f.mu.Lock()
		read := keys(f.readBound)
		write := keys(f.writeBound)
		f.mu.Unlock()
		f.OnDirtyMemory(read, write)
	}

	err := f.Next().QueueSubmit(ctx, queue, submits, fence)
	if err != nil {
		return err
	}

	for _, sub := range submits {
		for _, sem := range sub.PSignalSemaphores {
			if w, ok := f.state.Semaphores.Get(vkhandle.Handle(sem)); ok {
				w.Value = 1
			}
		}
		for _, cb := range sub.PCommandBuffers {
			w, ok := f.state.CommandBuffers.Get(vkhandle.Handle(cb))
			if !ok {
				continue
			}
			for _, pf := range w.PostRun {
				pf()
			}
		}
	}

	if fence != vk.Fence(vk.NullHandle) {
		if fw, ok := f.state.Fences.Get(vkhandle.Handle(fence)); ok {
			f.mu.Lock()
			for mem := range f.writeBound {
				fw.PendingWrites = append(fw.PendingWrites, state.MemoryBinding{Resource: mem})
			}
			f.mu.Unlock()
		}
	}
	return nil
}

func keys(m map[vkhandle.Handle]struct{}) []vkhandle.Handle {
	out := make([]vkhandle.Handle, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func (f *Full) AcquireNextImageKHR(ctx context.Context, device vk.Device, swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, fence vk.Fence) (uint32, error) {
	index, err := f.Next().AcquireNextImageKHR(ctx, device, swapchain, timeout, semaphore, fence)
	if err != nil {
		return index, err
	}
	if semaphore != vk.Semaphore(vk.NullHandle) {
		if w, ok := f.state.Semaphores.Get(vkhandle.Handle(semaphore)); ok {
			w.Value = 1
		}
	}
	return index, nil
}

func (f *Full) QueuePresentKHR(ctx context.Context, queue vk.Queue, info *vk.PresentInfo) error {
	for _, sem := range info.PWaitSemaphores {
		if w, ok := f.state.Semaphores.Get(vkhandle.Handle(sem)); ok {
			w.Value = 0
		}
	}
	return f.Next().QueuePresentKHR(ctx, queue, info)
}
