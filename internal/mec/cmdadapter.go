package mec

import (
	"context"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/vkcapture/gapid2/internal/cmdrecorder"
	"github.com/vkcapture/gapid2/internal/logging"
	"github.com/vkcapture/gapid2/internal/vkhandle"
	"github.com/vkcapture/gapid2/internal/wire"
)

var log = logging.For("mec")

// cmdEncoder implements cmdrecorder.Dispatcher by re-encoding each
// vkCmd* call as a top-level record in the prologue's output stream,
// field-for-field identical to what internal/cmdrecorder.Recorder
// would have written into a per-buffer sub-stream, plus a leading
// target command-buffer handle since there is no implicit "current
// buffer" at the top level.
type cmdEncoder struct {
	enc *wire.Encoder
}

func (c *cmdEncoder) begin(cb vk.CommandBuffer, op cmdrecorder.Opcode) {
	c.enc.BeginCall(uint64(ToCmdMirror(op)))
	c.enc.Handle(vkhandle.Handle(cb))
}

func (c *cmdEncoder) end() {
	if err := c.enc.EndCall(); err != nil {
		log.WithError(err).Warn("failed to encode mirrored command, prologue will skip it")
	}
}

func (c *cmdEncoder) CmdBindPipeline(ctx context.Context, cb vk.CommandBuffer, bp vk.PipelineBindPoint, pipeline vk.Pipeline) {
	c.begin(cb, cmdrecorder.OpBindPipeline)
	c.enc.Uint32(uint32(bp))
	c.enc.Handle(vkhandle.Handle(pipeline))
	c.end()
}

func (c *cmdEncoder) CmdBindDescriptorSets(ctx context.Context, cb vk.CommandBuffer, bp vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet, dynamicOffsets []uint32) {
	c.begin(cb, cmdrecorder.OpBindDescriptorSets)
	c.enc.Uint32(uint32(bp))
	c.enc.Handle(vkhandle.Handle(layout))
	c.enc.Uint32(firstSet)
	c.enc.Array(len(sets), func(i int) { c.enc.Handle(vkhandle.Handle(sets[i])) })
	c.enc.Array(len(dynamicOffsets), func(i int) { c.enc.Uint32(dynamicOffsets[i]) })
	c.end()
}

func (c *cmdEncoder) CmdBindVertexBuffers(ctx context.Context, cb vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	c.begin(cb, cmdrecorder.OpBindVertexBuffers)
	c.enc.Uint32(firstBinding)
	c.enc.Array(len(buffers), func(i int) { c.enc.Handle(vkhandle.Handle(buffers[i])) })
	c.enc.Array(len(offsets), func(i int) { c.enc.Uint64(uint64(offsets[i])) })
	c.end()
}

func (c *cmdEncoder) CmdBindIndexBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	c.begin(cb, cmdrecorder.OpBindIndexBuffer)
	c.enc.Handle(vkhandle.Handle(buffer))
	c.enc.Uint64(uint64(offset))
	c.enc.Uint32(uint32(indexType))
	c.end()
}

func (c *cmdEncoder) CmdSetViewport(ctx context.Context, cb vk.CommandBuffer, first uint32, viewports []vk.Viewport) {
	c.begin(cb, cmdrecorder.OpSetViewport)
	c.enc.Uint32(first)
	c.enc.Array(len(viewports), func(i int) {
		v := viewports[i]
		c.enc.Float32(v.X)
		c.enc.Float32(v.Y)
		c.enc.Float32(v.Width)
		c.enc.Float32(v.Height)
		c.enc.Float32(v.MinDepth)
		c.enc.Float32(v.MaxDepth)
	})
	c.end()
}

func (c *cmdEncoder) CmdSetScissor(ctx context.Context, cb vk.CommandBuffer, first uint32, scissors []vk.Rect2D) {
	c.begin(cb, cmdrecorder.OpSetScissor)
	c.enc.Uint32(first)
	c.enc.Array(len(scissors), func(i int) {
		s := scissors[i]
		c.enc.Int32(s.Offset.X)
		c.enc.Int32(s.Offset.Y)
		c.enc.Uint32(s.Extent.Width)
		c.enc.Uint32(s.Extent.Height)
	})
	c.end()
}

func (c *cmdEncoder) CmdDraw(ctx context.Context, cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	c.begin(cb, cmdrecorder.OpDraw)
	c.enc.Uint32(vertexCount)
	c.enc.Uint32(instanceCount)
	c.enc.Uint32(firstVertex)
	c.enc.Uint32(firstInstance)
	c.end()
}

func (c *cmdEncoder) CmdDrawIndexed(ctx context.Context, cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	c.begin(cb, cmdrecorder.OpDrawIndexed)
	c.enc.Uint32(indexCount)
	c.enc.Uint32(instanceCount)
	c.enc.Uint32(firstIndex)
	c.enc.Int32(vertexOffset)
	c.enc.Uint32(firstInstance)
	c.end()
}

func (c *cmdEncoder) CmdDispatch(ctx context.Context, cb vk.CommandBuffer, x, y, z uint32) {
	c.begin(cb, cmdrecorder.OpDispatch)
	c.enc.Uint32(x)
	c.enc.Uint32(y)
	c.enc.Uint32(z)
	c.end()
}

func (c *cmdEncoder) CmdCopyBuffer(ctx context.Context, cb vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	c.begin(cb, cmdrecorder.OpCopyBuffer)
	c.enc.Handle(vkhandle.Handle(src))
	c.enc.Handle(vkhandle.Handle(dst))
	c.enc.Array(len(regions), func(i int) {
		r := regions[i]
		c.enc.Uint64(uint64(r.SrcOffset))
		c.enc.Uint64(uint64(r.DstOffset))
		c.enc.Uint64(uint64(r.Size))
	})
	c.end()
}

func (c *cmdEncoder) CmdCopyBufferToImage(ctx context.Context, cb vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy) {
	c.begin(cb, cmdrecorder.OpCopyBufferToImage)
	c.enc.Handle(vkhandle.Handle(src))
	c.enc.Handle(vkhandle.Handle(dst))
	c.enc.Uint32(uint32(layout))
	c.enc.Array(len(regions), func(i int) {
		r := regions[i]
		c.enc.Uint64(uint64(r.BufferOffset))
		c.enc.Uint32(r.BufferRowLength)
		c.enc.Uint32(r.BufferImageHeight)
		c.enc.Uint32(uint32(r.ImageSubresource.AspectMask))
		c.enc.Uint32(r.ImageSubresource.MipLevel)
		c.enc.Uint32(r.ImageSubresource.BaseArrayLayer)
		c.enc.Uint32(r.ImageSubresource.LayerCount)
		c.enc.Int32(r.ImageOffset.X)
		c.enc.Int32(r.ImageOffset.Y)
		c.enc.Int32(r.ImageOffset.Z)
		c.enc.Uint32(r.ImageExtent.Width)
		c.enc.Uint32(r.ImageExtent.Height)
		c.enc.Uint32(r.ImageExtent.Depth)
	})
	c.end()
}

func (c *cmdEncoder) CmdPipelineBarrier(ctx context.Context, cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, memBarriers []vk.MemoryBarrier, bufBarriers []vk.BufferMemoryBarrier, imgBarriers []vk.ImageMemoryBarrier) {
	c.begin(cb, cmdrecorder.OpPipelineBarrier)
	c.enc.Uint32(uint32(src))
	c.enc.Uint32(uint32(dst))
	c.enc.Array(len(imgBarriers), func(i int) {
		b := imgBarriers[i]
		c.enc.Uint32(uint32(b.SrcAccessMask))
		c.enc.Uint32(uint32(b.DstAccessMask))
		c.enc.Uint32(uint32(b.OldLayout))
		c.enc.Uint32(uint32(b.NewLayout))
		c.enc.Handle(vkhandle.Handle(b.Image))
		c.enc.Uint32(uint32(b.SubresourceRange.AspectMask))
		c.enc.Uint32(b.SubresourceRange.BaseMipLevel)
		c.enc.Uint32(b.SubresourceRange.LevelCount)
		c.enc.Uint32(b.SubresourceRange.BaseArrayLayer)
		c.enc.Uint32(b.SubresourceRange.LayerCount)
	})
	c.end()
}

func (c *cmdEncoder) CmdPushConstants(ctx context.Context, cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, data []byte) {
	c.begin(cb, cmdrecorder.OpPushConstants)
	c.enc.Handle(vkhandle.Handle(layout))
	c.enc.Uint32(uint32(stages))
	c.enc.Uint32(offset)
	c.enc.Data(data)
	c.end()
}

func (c *cmdEncoder) CmdUpdateBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, data []byte) {
	c.begin(cb, cmdrecorder.OpUpdateBuffer)
	c.enc.Handle(vkhandle.Handle(buffer))
	c.enc.Uint64(uint64(offset))
	c.enc.Data(data)
	c.end()
}

func (c *cmdEncoder) CmdBeginRenderPass(ctx context.Context, cb vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) {
	c.begin(cb, cmdrecorder.OpBeginRenderPass)
	c.enc.Handle(vkhandle.Handle(info.RenderPass))
	c.enc.Handle(vkhandle.Handle(info.Framebuffer))
	c.enc.Uint32(uint32(contents))
	c.enc.Array(len(info.PClearValues), func(i int) {
		c.enc.EncodeClearValue(*(*wire.ClearValue)(unsafe.Pointer(&info.PClearValues[i])))
	})
	c.end()
}

func (c *cmdEncoder) CmdNextSubpass(ctx context.Context, cb vk.CommandBuffer, contents vk.SubpassContents) {
	c.begin(cb, cmdrecorder.OpNextSubpass)
	c.enc.Uint32(uint32(contents))
	c.end()
}

func (c *cmdEncoder) CmdEndRenderPass(ctx context.Context, cb vk.CommandBuffer) {
	c.begin(cb, cmdrecorder.OpEndRenderPass)
	c.end()
}
