// Package cmdrecorder implements spec §4.H: it mirrors every vkCmd*
// call into the owning command buffer's state.CommandBufferWrapper.Stream
// as a self-contained wire-encoded state.RecordedCall, in addition to
// forwarding the call onward so it still executes for real. Later
// components (the splitter, MEC) call RerecordCommandBuffer to replay
// that stream into a different destination command buffer, optionally
// rewriting or skipping individual commands via a hook.
//
// Grounded on original_source/command_buffer_recorder.h: it layers a
// per-command-buffer encoder on top of the real call path
// (`CommandSerializer<true, FnCaller<T>>`), resets that encoder on
// vkBeginCommandBuffer, and exposes RerecordCommandBuffer by decoding
// the stored stream through a CommandDeserializer back onto a target.
// Recorder plays the same role; state.CommandBufferWrapper.Stream is
// the Go equivalent of command_buffer_recording's encoder, already
// defined in internal/state, and RerecordCommandBuffer is the
// equivalent of the original's method of the same name.
package cmdrecorder

import (
	"bytes"
	"context"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/vkcapture/gapid2/internal/logging"
	"github.com/vkcapture/gapid2/internal/state"
	"github.com/vkcapture/gapid2/internal/transform"
	"github.com/vkcapture/gapid2/internal/vkhandle"
	"github.com/vkcapture/gapid2/internal/wire"
)

var log = logging.For("cmdrecorder")

// Recorder is the command-buffer recording transform.
type Recorder struct {
	transform.Base
	state *state.Block
}

// NewRecorder constructs a Recorder over block, forwarding to next.
func NewRecorder(block *state.Block, next transform.Transform) *Recorder {
	r := &Recorder{state: block}
	r.Base = transform.NewBase("cmdrecorder", next)
	return r
}

func (r *Recorder) append(cb vk.CommandBuffer, opcode Opcode, encode func(*wire.Encoder)) {
	w, ok := r.state.CommandBuffers.Get(vkhandle.Handle(cb))
	if !ok {
		return
	}
	var buf bytes.Buffer
	enc := wire.NewEncoder(&buf, nil)
	enc.BeginCall(uint64(opcode))
	encode(enc)
	if err := enc.EndCall(); err != nil {
		log.WithError(err).Warn("failed to encode recorded command, re-record will skip it")
		return
	}
	w.Stream = append(w.Stream, state.RecordedCall{Opcode: uint64(opcode), Payload: buf.Bytes()})
}

func (r *Recorder) BeginCommandBuffer(ctx context.Context, cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	if w, ok := r.state.CommandBuffers.Get(vkhandle.Handle(cb)); ok {
		w.Reset()
	}
	return r.Next().BeginCommandBuffer(ctx, cb, info)
}

func (r *Recorder) CmdBindPipeline(ctx context.Context, cb vk.CommandBuffer, bp vk.PipelineBindPoint, pipeline vk.Pipeline) {
	r.Next().CmdBindPipeline(ctx, cb, bp, pipeline)
	r.append(cb, OpBindPipeline, func(e *wire.Encoder) {
		e.Uint32(uint32(bp))
		e.Handle(vkhandle.Handle(pipeline))
	})
}

func (r *Recorder) CmdBindDescriptorSets(ctx context.Context, cb vk.CommandBuffer, bp vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet, dynamicOffsets []uint32) {
	r.Next().CmdBindDescriptorSets(ctx, cb, bp, layout, firstSet, sets, dynamicOffsets)
	r.append(cb, OpBindDescriptorSets, func(e *wire.Encoder) {
		e.Uint32(uint32(bp))
		e.Handle(vkhandle.Handle(layout))
		e.Uint32(firstSet)
		e.Array(len(sets), func(i int) { e.Handle(vkhandle.Handle(sets[i])) })
		e.Array(len(dynamicOffsets), func(i int) { e.Uint32(dynamicOffsets[i]) })
	})
}

func (r *Recorder) CmdBindVertexBuffers(ctx context.Context, cb vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	r.Next().CmdBindVertexBuffers(ctx, cb, firstBinding, buffers, offsets)
	r.append(cb, OpBindVertexBuffers, func(e *wire.Encoder) {
		e.Uint32(firstBinding)
		e.Array(len(buffers), func(i int) { e.Handle(vkhandle.Handle(buffers[i])) })
		e.Array(len(offsets), func(i int) { e.Uint64(uint64(offsets[i])) })
	})
}

func (r *Recorder) CmdBindIndexBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	r.Next().CmdBindIndexBuffer(ctx, cb, buffer, offset, indexType)
	r.append(cb, OpBindIndexBuffer, func(e *wire.Encoder) {
		e.Handle(vkhandle.Handle(buffer))
		e.Uint64(uint64(offset))
		e.Uint32(uint32(indexType))
	})
}

func (r *Recorder) CmdSetViewport(ctx context.Context, cb vk.CommandBuffer, firstViewport uint32, viewports []vk.Viewport) {
	r.Next().CmdSetViewport(ctx, cb, firstViewport, viewports)
	r.append(cb, OpSetViewport, func(e *wire.Encoder) {
		e.Uint32(firstViewport)
		e.Array(len(viewports), func(i int) {
			v := viewports[i]
			e.Float32(v.X)
			e.Float32(v.Y)
			e.Float32(v.Width)
			e.Float32(v.Height)
			e.Float32(v.MinDepth)
			e.Float32(v.MaxDepth)
		})
	})
}

func (r *Recorder) CmdSetScissor(ctx context.Context, cb vk.CommandBuffer, firstScissor uint32, scissors []vk.Rect2D) {
	r.Next().CmdSetScissor(ctx, cb, firstScissor, scissors)
	r.append(cb, OpSetScissor, func(e *wire.Encoder) {
		e.Uint32(firstScissor)
		e.Array(len(scissors), func(i int) {
			s := scissors[i]
			e.Int32(s.Offset.X)
			e.Int32(s.Offset.Y)
			e.Uint32(s.Extent.Width)
			e.Uint32(s.Extent.Height)
		})
	})
}

func (r *Recorder) CmdDraw(ctx context.Context, cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	r.Next().CmdDraw(ctx, cb, vertexCount, instanceCount, firstVertex, firstInstance)
	r.append(cb, OpDraw, func(e *wire.Encoder) {
		e.Uint32(vertexCount)
		e.Uint32(instanceCount)
		e.Uint32(firstVertex)
		e.Uint32(firstInstance)
	})
}

func (r *Recorder) CmdDrawIndexed(ctx context.Context, cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	r.Next().CmdDrawIndexed(ctx, cb, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
	r.append(cb, OpDrawIndexed, func(e *wire.Encoder) {
		e.Uint32(indexCount)
		e.Uint32(instanceCount)
		e.Uint32(firstIndex)
		e.Int32(vertexOffset)
		e.Uint32(firstInstance)
	})
}

func (r *Recorder) CmdDispatch(ctx context.Context, cb vk.CommandBuffer, x, y, z uint32) {
	r.Next().CmdDispatch(ctx, cb, x, y, z)
	r.append(cb, OpDispatch, func(e *wire.Encoder) {
		e.Uint32(x)
		e.Uint32(y)
		e.Uint32(z)
	})
}

func (r *Recorder) CmdCopyBuffer(ctx context.Context, cb vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	r.Next().CmdCopyBuffer(ctx, cb, src, dst, regions)
	r.append(cb, OpCopyBuffer, func(e *wire.Encoder) {
		e.Handle(vkhandle.Handle(src))
		e.Handle(vkhandle.Handle(dst))
		e.Array(len(regions), func(i int) {
			reg := regions[i]
			e.Uint64(uint64(reg.SrcOffset))
			e.Uint64(uint64(reg.DstOffset))
			e.Uint64(uint64(reg.Size))
		})
	})
}

func (r *Recorder) CmdCopyBufferToImage(ctx context.Context, cb vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy) {
	r.Next().CmdCopyBufferToImage(ctx, cb, src, dst, layout, regions)
	r.append(cb, OpCopyBufferToImage, func(e *wire.Encoder) {
		e.Handle(vkhandle.Handle(src))
		e.Handle(vkhandle.Handle(dst))
		e.Uint32(uint32(layout))
		e.Array(len(regions), func(i int) {
			reg := regions[i]
			e.Uint64(uint64(reg.BufferOffset))
			e.Uint32(reg.BufferRowLength)
			e.Uint32(reg.BufferImageHeight)
			e.Uint32(uint32(reg.ImageSubresource.AspectMask))
			e.Uint32(reg.ImageSubresource.MipLevel)
			e.Uint32(reg.ImageSubresource.BaseArrayLayer)
			e.Uint32(reg.ImageSubresource.LayerCount)
			e.Int32(reg.ImageOffset.X)
			e.Int32(reg.ImageOffset.Y)
			e.Int32(reg.ImageOffset.Z)
			e.Uint32(reg.ImageExtent.Width)
			e.Uint32(reg.ImageExtent.Height)
			e.Uint32(reg.ImageExtent.Depth)
		})
	})
}

func (r *Recorder) CmdPipelineBarrier(ctx context.Context, cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, memoryBarriers []vk.MemoryBarrier, bufferBarriers []vk.BufferMemoryBarrier, imageBarriers []vk.ImageMemoryBarrier) {
	r.Next().CmdPipelineBarrier(ctx, cb, src, dst, memoryBarriers, bufferBarriers, imageBarriers)
	r.append(cb, OpPipelineBarrier, func(e *wire.Encoder) {
		e.Uint32(uint32(src))
		e.Uint32(uint32(dst))
		e.Array(len(imageBarriers), func(i int) {
			b := imageBarriers[i]
			e.Uint32(uint32(b.SrcAccessMask))
			e.Uint32(uint32(b.DstAccessMask))
			e.Uint32(uint32(b.OldLayout))
			e.Uint32(uint32(b.NewLayout))
			e.Handle(vkhandle.Handle(b.Image))
			e.Uint32(uint32(b.SubresourceRange.AspectMask))
			e.Uint32(b.SubresourceRange.BaseMipLevel)
			e.Uint32(b.SubresourceRange.LevelCount)
			e.Uint32(b.SubresourceRange.BaseArrayLayer)
			e.Uint32(b.SubresourceRange.LayerCount)
		})
	})
}

func (r *Recorder) CmdPushConstants(ctx context.Context, cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, values []byte) {
	r.Next().CmdPushConstants(ctx, cb, layout, stages, offset, size, values)
	r.append(cb, OpPushConstants, func(e *wire.Encoder) {
		e.Handle(vkhandle.Handle(layout))
		e.Uint32(uint32(stages))
		e.Uint32(offset)
		e.Data(values)
	})
}

func (r *Recorder) CmdUpdateBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, data []byte) {
	r.Next().CmdUpdateBuffer(ctx, cb, buffer, offset, data)
	r.append(cb, OpUpdateBuffer, func(e *wire.Encoder) {
		e.Handle(vkhandle.Handle(buffer))
		e.Uint64(uint64(offset))
		e.Data(data)
	})
}

func (r *Recorder) CmdBeginRenderPass(ctx context.Context, cb vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) {
	r.Next().CmdBeginRenderPass(ctx, cb, info, contents)
	r.append(cb, OpBeginRenderPass, func(e *wire.Encoder) {
		e.Handle(vkhandle.Handle(info.RenderPass))
		e.Handle(vkhandle.Handle(info.Framebuffer))
		e.Uint32(uint32(contents))
		e.Array(len(info.PClearValues), func(i int) {
			e.EncodeClearValue(*(*wire.ClearValue)(unsafe.Pointer(&info.PClearValues[i])))
		})
	})
}

func (r *Recorder) CmdNextSubpass(ctx context.Context, cb vk.CommandBuffer, contents vk.SubpassContents) {
	r.Next().CmdNextSubpass(ctx, cb, contents)
	r.append(cb, OpNextSubpass, func(e *wire.Encoder) {
		e.Uint32(uint32(contents))
	})
}

func (r *Recorder) CmdEndRenderPass(ctx context.Context, cb vk.CommandBuffer) {
	r.Next().CmdEndRenderPass(ctx, cb)
	r.append(cb, OpEndRenderPass, func(e *wire.Encoder) {})
}
