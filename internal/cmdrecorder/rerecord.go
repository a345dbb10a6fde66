package cmdrecorder

import (
	"bytes"
	"context"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/vkcapture/gapid2/internal/state"
	"github.com/vkcapture/gapid2/internal/vkhandle"
	"github.com/vkcapture/gapid2/internal/wire"
	"github.com/vkcapture/gapid2/internal/xerr"
)

// RerecordCommandBuffer replays w's recorded stream by dispatching
// each decoded call onto dst via next. hook, when non-nil, is invoked
// with the zero-based index of the call about to be dispatched, before
// it runs; callers use it to splice in extra commands (the splitter)
// or substitute resources (MEC). A decode error on one record is
// logged and that single record is skipped, per spec §7.3's
// KindDecode handling; everything else still replays.
//
// Grounded on original_source/command_buffer_recorder.h's
// RerecordCommandBuffer: there, a CommandDeserializer walks the
// recording's encoder buffer and re-invokes each call through a
// FnCaller chain. next here is that FnCaller chain's Go equivalent.
func RerecordCommandBuffer(ctx context.Context, w *state.CommandBufferWrapper, dst vk.CommandBuffer, next Dispatcher, hook func(index int)) error {
	for i, call := range w.Stream {
		if hook != nil {
			hook(i)
		}
		d := wire.NewDecoder(bytes.NewReader(call.Payload), nil)
		ok, err := d.NextCall()
		if err != nil {
			log.WithError(xerr.Wrap(xerr.KindDecode, "rerecord: read call", err)).Warnf("rerecord: skipping call %d", i)
			continue
		}
		if !ok {
			continue
		}
		opcode := Opcode(d.Opcode())
		if opcode != Opcode(call.Opcode) {
			log.Warnf("rerecord: stream opcode %d does not match stored opcode %d at index %d", opcode, call.Opcode, i)
		}
		if err := dispatch(ctx, d, opcode, dst, next); err != nil {
			log.WithError(err).Warnf("rerecord: skipping call %d (opcode %d)", i, opcode)
		}
	}
	return nil
}

// Dispatcher is the subset of transform.Transform that
// RerecordCommandBuffer needs; transform.Transform satisfies it
// directly, kept narrow here so callers can also replay onto a
// lighter-weight stand-in (e.g. in tests).
type Dispatcher interface {
	CmdBindPipeline(ctx context.Context, cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline)
	CmdBindDescriptorSets(ctx context.Context, cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet, dynamicOffsets []uint32)
	CmdBindVertexBuffers(ctx context.Context, cb vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize)
	CmdBindIndexBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType)
	CmdSetViewport(ctx context.Context, cb vk.CommandBuffer, first uint32, viewports []vk.Viewport)
	CmdSetScissor(ctx context.Context, cb vk.CommandBuffer, first uint32, scissors []vk.Rect2D)
	CmdDraw(ctx context.Context, cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdDrawIndexed(ctx context.Context, cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32)
	CmdDispatch(ctx context.Context, cb vk.CommandBuffer, x, y, z uint32)
	CmdCopyBuffer(ctx context.Context, cb vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy)
	CmdCopyBufferToImage(ctx context.Context, cb vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy)
	CmdPipelineBarrier(ctx context.Context, cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, memoryBarriers []vk.MemoryBarrier, bufferBarriers []vk.BufferMemoryBarrier, imageBarriers []vk.ImageMemoryBarrier)
	CmdPushConstants(ctx context.Context, cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, data []byte)
	CmdUpdateBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, data []byte)
	CmdBeginRenderPass(ctx context.Context, cb vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents)
	CmdNextSubpass(ctx context.Context, cb vk.CommandBuffer, contents vk.SubpassContents)
	CmdEndRenderPass(ctx context.Context, cb vk.CommandBuffer)
}

// Dispatch decodes one recorded vkCmd* call's fields from d and runs
// it against next. Exported for internal/replay, which walks a mirrored
// command stream spliced directly into the main capture (via
// internal/mec's ToCmdMirror opcodes) rather than a CommandBufferWrapper's
// own Stream, so it cannot go through RerecordCommandBuffer itself.
func Dispatch(ctx context.Context, d *wire.Decoder, opcode Opcode, cb vk.CommandBuffer, next Dispatcher) error {
	return dispatch(ctx, d, opcode, cb, next)
}

func dispatch(ctx context.Context, d *wire.Decoder, opcode Opcode, cb vk.CommandBuffer, next Dispatcher) error {
	switch opcode {
	case OpBindPipeline:
		bp := vk.PipelineBindPoint(d.Uint32())
		pipeline := vk.Pipeline(d.Handle())
		return finish(d, func() { next.CmdBindPipeline(ctx, cb, bp, pipeline) })

	case OpBindDescriptorSets:
		bp := vk.PipelineBindPoint(d.Uint32())
		layout := vk.PipelineLayout(d.Handle())
		firstSet := d.Uint32()
		var sets []vk.DescriptorSet
		d.Array(func(i int) { sets = append(sets, vk.DescriptorSet(d.Handle())) })
		var offsets []uint32
		d.Array(func(i int) { offsets = append(offsets, d.Uint32()) })
		return finish(d, func() { next.CmdBindDescriptorSets(ctx, cb, bp, layout, firstSet, sets, offsets) })

	case OpBindVertexBuffers:
		firstBinding := d.Uint32()
		var buffers []vk.Buffer
		d.Array(func(i int) { buffers = append(buffers, vk.Buffer(d.Handle())) })
		var offsets []vk.DeviceSize
		d.Array(func(i int) { offsets = append(offsets, vk.DeviceSize(d.Uint64())) })
		return finish(d, func() { next.CmdBindVertexBuffers(ctx, cb, firstBinding, buffers, offsets) })

	case OpBindIndexBuffer:
		buffer := vk.Buffer(d.Handle())
		offset := vk.DeviceSize(d.Uint64())
		indexType := vk.IndexType(d.Uint32())
		return finish(d, func() { next.CmdBindIndexBuffer(ctx, cb, buffer, offset, indexType) })

	case OpSetViewport:
		first := d.Uint32()
		var viewports []vk.Viewport
		d.Array(func(i int) {
			viewports = append(viewports, vk.Viewport{
				X: d.Float32(), Y: d.Float32(),
				Width: d.Float32(), Height: d.Float32(),
				MinDepth: d.Float32(), MaxDepth: d.Float32(),
			})
		})
		return finish(d, func() { next.CmdSetViewport(ctx, cb, first, viewports) })

	case OpSetScissor:
		first := d.Uint32()
		var scissors []vk.Rect2D
		d.Array(func(i int) {
			scissors = append(scissors, vk.Rect2D{
				Offset: vk.Offset2D{X: d.Int32(), Y: d.Int32()},
				Extent: vk.Extent2D{Width: d.Uint32(), Height: d.Uint32()},
			})
		})
		return finish(d, func() { next.CmdSetScissor(ctx, cb, first, scissors) })

	case OpDraw:
		vertexCount, instanceCount := d.Uint32(), d.Uint32()
		firstVertex, firstInstance := d.Uint32(), d.Uint32()
		return finish(d, func() { next.CmdDraw(ctx, cb, vertexCount, instanceCount, firstVertex, firstInstance) })

	case OpDrawIndexed:
		indexCount, instanceCount := d.Uint32(), d.Uint32()
		firstIndex := d.Uint32()
		vertexOffset := d.Int32()
		firstInstance := d.Uint32()
		return finish(d, func() {
			next.CmdDrawIndexed(ctx, cb, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
		})

	case OpDispatch:
		x, y, z := d.Uint32(), d.Uint32(), d.Uint32()
		return finish(d, func() { next.CmdDispatch(ctx, cb, x, y, z) })

	case OpCopyBuffer:
		src, dst := vk.Buffer(d.Handle()), vk.Buffer(d.Handle())
		var regions []vk.BufferCopy
		d.Array(func(i int) {
			regions = append(regions, vk.BufferCopy{
				SrcOffset: vk.DeviceSize(d.Uint64()),
				DstOffset: vk.DeviceSize(d.Uint64()),
				Size:      vk.DeviceSize(d.Uint64()),
			})
		})
		return finish(d, func() { next.CmdCopyBuffer(ctx, cb, src, dst, regions) })

	case OpCopyBufferToImage:
		src := vk.Buffer(d.Handle())
		dst := vk.Image(d.Handle())
		layout := vk.ImageLayout(d.Uint32())
		var regions []vk.BufferImageCopy
		d.Array(func(i int) {
			regions = append(regions, vk.BufferImageCopy{
				BufferOffset:      vk.DeviceSize(d.Uint64()),
				BufferRowLength:   d.Uint32(),
				BufferImageHeight: d.Uint32(),
				ImageSubresource: vk.ImageSubresourceLayers{
					AspectMask:     vk.ImageAspectFlags(d.Uint32()),
					MipLevel:       d.Uint32(),
					BaseArrayLayer: d.Uint32(),
					LayerCount:     d.Uint32(),
				},
				ImageOffset: vk.Offset3D{X: d.Int32(), Y: d.Int32(), Z: d.Int32()},
				ImageExtent: vk.Extent3D{Width: d.Uint32(), Height: d.Uint32(), Depth: d.Uint32()},
			})
		})
		return finish(d, func() { next.CmdCopyBufferToImage(ctx, cb, src, dst, layout, regions) })

	case OpPipelineBarrier:
		src := vk.PipelineStageFlags(d.Uint32())
		dst := vk.PipelineStageFlags(d.Uint32())
		var imageBarriers []vk.ImageMemoryBarrier
		d.Array(func(i int) {
			imageBarriers = append(imageBarriers, vk.ImageMemoryBarrier{
				SrcAccessMask: vk.AccessFlags(d.Uint32()),
				DstAccessMask: vk.AccessFlags(d.Uint32()),
				OldLayout:     vk.ImageLayout(d.Uint32()),
				NewLayout:     vk.ImageLayout(d.Uint32()),
				Image:         vk.Image(d.Handle()),
				SubresourceRange: vk.ImageSubresourceRange{
					AspectMask:     vk.ImageAspectFlags(d.Uint32()),
					BaseMipLevel:   d.Uint32(),
					LevelCount:     d.Uint32(),
					BaseArrayLayer: d.Uint32(),
					LayerCount:     d.Uint32(),
				},
			})
		})
		return finish(d, func() {
			next.CmdPipelineBarrier(ctx, cb, src, dst, nil, nil, imageBarriers)
		})

	case OpPushConstants:
		layout := vk.PipelineLayout(d.Handle())
		stages := vk.ShaderStageFlags(d.Uint32())
		offset := d.Uint32()
		data := d.Data()
		return finish(d, func() { next.CmdPushConstants(ctx, cb, layout, stages, offset, uint32(len(data)), data) })

	case OpUpdateBuffer:
		buffer := vk.Buffer(d.Handle())
		offset := vk.DeviceSize(d.Uint64())
		data := d.Data()
		return finish(d, func() { next.CmdUpdateBuffer(ctx, cb, buffer, offset, data) })

	case OpBeginRenderPass:
		rp := vk.RenderPass(d.Handle())
		fb := vk.Framebuffer(d.Handle())
		contents := vk.SubpassContents(d.Uint32())
		var clears []vk.ClearValue
		d.Array(func(i int) {
			cv := d.DecodeClearValue()
			clears = append(clears, *(*vk.ClearValue)(unsafe.Pointer(&cv)))
		})
		info := &vk.RenderPassBeginInfo{
			RenderPass:      rp,
			Framebuffer:     fb,
			ClearValueCount: uint32(len(clears)),
			PClearValues:    clears,
		}
		return finish(d, func() { next.CmdBeginRenderPass(ctx, cb, info, contents) })

	case OpNextSubpass:
		contents := vk.SubpassContents(d.Uint32())
		return finish(d, func() { next.CmdNextSubpass(ctx, cb, contents) })

	case OpEndRenderPass:
		return finish(d, func() { next.CmdEndRenderPass(ctx, cb) })

	default:
		return xerr.New(xerr.KindDecode, "unknown recorded opcode")
	}
}

func finish(d *wire.Decoder, run func()) error {
	if err := d.Err(); err != nil {
		return err
	}
	run()
	return nil
}
