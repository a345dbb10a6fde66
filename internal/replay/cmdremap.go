package replay

import (
	"context"

	vk "github.com/vulkan-go/vulkan"

	"github.com/vkcapture/gapid2/internal/transform"
	"github.com/vkcapture/gapid2/internal/vkhandle"
)

// remapDispatcher implements cmdrecorder.Dispatcher by resolving every
// trace-side handle a mirrored vkCmd* record names through a Remap
// before forwarding to a real transform.Transform. Handles that were
// never seeded (spec scope cuts logged once at seed time) resolve to
// the zero handle; next's real driver call then errors or no-ops on
// it, same as any other unmapped reference.
type remapDispatcher struct {
	next  transform.Transform
	remap *Remap
	ctx   context.Context
}

func (r *remapDispatcher) pipeline(h vk.Pipeline) vk.Pipeline {
	real, _ := r.remap.Get(vkhandle.Pipeline, vkhandle.Handle(h))
	return vk.Pipeline(real)
}

func (r *remapDispatcher) layout(h vk.PipelineLayout) vk.PipelineLayout {
	real, _ := r.remap.Get(vkhandle.PipelineLayout, vkhandle.Handle(h))
	return vk.PipelineLayout(real)
}

func (r *remapDispatcher) descriptorSets(in []vk.DescriptorSet) []vk.DescriptorSet {
	out := make([]vk.DescriptorSet, len(in))
	for i, s := range in {
		real, _ := r.remap.Get(vkhandle.DescriptorSet, vkhandle.Handle(s))
		out[i] = vk.DescriptorSet(real)
	}
	return out
}

func (r *remapDispatcher) buffer(h vk.Buffer) vk.Buffer {
	real, _ := r.remap.Get(vkhandle.Buffer, vkhandle.Handle(h))
	return vk.Buffer(real)
}

func (r *remapDispatcher) buffers(in []vk.Buffer) []vk.Buffer {
	out := make([]vk.Buffer, len(in))
	for i, b := range in {
		out[i] = r.buffer(b)
	}
	return out
}

func (r *remapDispatcher) image(h vk.Image) vk.Image {
	real, _ := r.remap.Get(vkhandle.Image, vkhandle.Handle(h))
	return vk.Image(real)
}

func (r *remapDispatcher) CmdBindPipeline(ctx context.Context, cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	r.next.CmdBindPipeline(ctx, cb, bindPoint, r.pipeline(pipeline))
}

func (r *remapDispatcher) CmdBindDescriptorSets(ctx context.Context, cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet, dynamicOffsets []uint32) {
	r.next.CmdBindDescriptorSets(ctx, cb, bindPoint, r.layout(layout), firstSet, r.descriptorSets(sets), dynamicOffsets)
}

func (r *remapDispatcher) CmdBindVertexBuffers(ctx context.Context, cb vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	r.next.CmdBindVertexBuffers(ctx, cb, firstBinding, r.buffers(buffers), offsets)
}

func (r *remapDispatcher) CmdBindIndexBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	r.next.CmdBindIndexBuffer(ctx, cb, r.buffer(buffer), offset, indexType)
}

func (r *remapDispatcher) CmdSetViewport(ctx context.Context, cb vk.CommandBuffer, first uint32, viewports []vk.Viewport) {
	r.next.CmdSetViewport(ctx, cb, first, viewports)
}

func (r *remapDispatcher) CmdSetScissor(ctx context.Context, cb vk.CommandBuffer, first uint32, scissors []vk.Rect2D) {
	r.next.CmdSetScissor(ctx, cb, first, scissors)
}

func (r *remapDispatcher) CmdDraw(ctx context.Context, cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.next.CmdDraw(ctx, cb, vertexCount, instanceCount, firstVertex, firstInstance)
}

func (r *remapDispatcher) CmdDrawIndexed(ctx context.Context, cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	r.next.CmdDrawIndexed(ctx, cb, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}

func (r *remapDispatcher) CmdDispatch(ctx context.Context, cb vk.CommandBuffer, x, y, z uint32) {
	r.next.CmdDispatch(ctx, cb, x, y, z)
}

func (r *remapDispatcher) CmdCopyBuffer(ctx context.Context, cb vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	r.next.CmdCopyBuffer(ctx, cb, r.buffer(src), r.buffer(dst), regions)
}

func (r *remapDispatcher) CmdCopyBufferToImage(ctx context.Context, cb vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy) {
	r.next.CmdCopyBufferToImage(ctx, cb, r.buffer(src), r.image(dst), layout, regions)
}

func (r *remapDispatcher) CmdPipelineBarrier(ctx context.Context, cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, memoryBarriers []vk.MemoryBarrier, bufferBarriers []vk.BufferMemoryBarrier, imageBarriers []vk.ImageMemoryBarrier) {
	for i := range bufferBarriers {
		bufferBarriers[i].Buffer = r.buffer(bufferBarriers[i].Buffer)
	}
	for i := range imageBarriers {
		imageBarriers[i].Image = r.image(imageBarriers[i].Image)
	}
	r.next.CmdPipelineBarrier(ctx, cb, src, dst, memoryBarriers, bufferBarriers, imageBarriers)
}

func (r *remapDispatcher) CmdPushConstants(ctx context.Context, cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, data []byte) {
	r.next.CmdPushConstants(ctx, cb, r.layout(layout), stages, offset, size, data)
}

func (r *remapDispatcher) CmdUpdateBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, data []byte) {
	r.next.CmdUpdateBuffer(ctx, cb, r.buffer(buffer), offset, data)
}

func (r *remapDispatcher) CmdBeginRenderPass(ctx context.Context, cb vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) {
	r.next.CmdBeginRenderPass(ctx, cb, info, contents)
}

func (r *remapDispatcher) CmdNextSubpass(ctx context.Context, cb vk.CommandBuffer, contents vk.SubpassContents) {
	r.next.CmdNextSubpass(ctx, cb, contents)
}

func (r *remapDispatcher) CmdEndRenderPass(ctx context.Context, cb vk.CommandBuffer) {
	r.next.CmdEndRenderPass(ctx, cb)
}
