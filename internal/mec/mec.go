// Package mec implements spec.md §4.L: the mid-execution capture
// generator. Given a live state.Block, it writes a synthetic prologue
// into a capture stream that seeds a fresh replay of a trace started
// after the application is already running, so replay doesn't need to
// begin at process start.
//
// Grounded on original_source/mec_capture/mid_execution_generator.h,
// whose Generate walks the state block in five dependency-ordered
// steps (instances/devices/queues, memory + bindings, the long tail
// of "helper" object types, command buffers, then synchronization
// primitives) and serializes a create call per live object. This port
// cannot literally replay that design: internal/state's wrappers are
// deliberately minimal (§4.C/§4.E/§4.F keep only the fields later
// components need, not full VkXCreateInfo snapshots), so there often
// isn't a cached create-info struct to reissue a vkCreateX call from.
// Generate instead emits one OpSeedHandle record per live object,
// carrying whatever fields the wrapper actually retains; a replayer
// consuming these records populates its handle-remap table directly
// (the real requirement spec §4.M states) rather than re-deriving it
// from replayed creates.
package mec

import (
	"context"

	vk "github.com/vulkan-go/vulkan"

	"github.com/vkcapture/gapid2/internal/cmdrecorder"
	"github.com/vkcapture/gapid2/internal/state"
	"github.com/vkcapture/gapid2/internal/vkhandle"
	"github.com/vkcapture/gapid2/internal/wire"
)

// Generator produces a mid-execution capture prologue from a live
// state block.
type Generator struct {
	block *state.Block
}

// New returns a Generator over block.
func New(block *state.Block) *Generator {
	return &Generator{block: block}
}

// Generate walks block in the original's five-step order and writes
// one OpSeedHandle/OpBindMemory/OpSeedCommandBuffer record per live
// object into enc. It never fails outright on one bad object; a
// record that can't be built is skipped and logged, since a partial
// prologue still lets replay seed everything else.
func (g *Generator) Generate(ctx context.Context, enc *wire.Encoder) error {
	g.captureInstancesAndDevices(enc)
	g.captureMemory(enc)
	g.captureHelpers(enc)
	if err := g.captureCommandBuffers(ctx, enc); err != nil {
		return err
	}
	g.captureSynchronization(enc)
	return nil
}

func seed(enc *wire.Encoder, t vkhandle.Type, h, parent vkhandle.Handle, fields func()) {
	enc.BeginCall(uint64(OpSeedHandle))
	enc.Uint32(uint32(t))
	enc.Handle(h)
	enc.Handle(parent)
	if fields != nil {
		fields()
	}
	if err := enc.EndCall(); err != nil {
		log.WithError(err).Warnf("mec: dropping %s seed record for %#x", t, h)
	}
}

// step 1: instances, physical devices, surfaces, devices, queues,
// swapchains. Surfaces are always empty in this port (no
// vkCreateSurfaceKHR exists in the tracked interface, only its
// destroy), walked anyway for symmetry with the original's step order.
func (g *Generator) captureInstancesAndDevices(enc *wire.Encoder) {
	g.block.Instances.Each(func(h vkhandle.Handle, w *state.InstanceWrapper) {
		seed(enc, vkhandle.Instance, h, vkhandle.Null, func() {
			enc.Array(len(w.EnabledExtensions), func(i int) { enc.String(w.EnabledExtensions[i]) })
		})
	})
	g.block.PhysicalDevices.Each(func(h vkhandle.Handle, w *state.PhysicalDeviceWrapper) {
		seed(enc, vkhandle.PhysicalDevice, h, w.Instance, func() {
			enc.Uint32(w.DeviceID)
			enc.Uint32(w.VendorID)
			enc.Uint32(w.DriverVersion)
		})
	})
	g.block.Surfaces.Each(func(h vkhandle.Handle, w *state.SurfaceWrapper) {
		seed(enc, vkhandle.Surface, h, w.Instance, nil)
	})
	g.block.Devices.Each(func(h vkhandle.Handle, w *state.DeviceWrapper) {
		seed(enc, vkhandle.Device, h, w.PhysicalDevice, func() {
			enc.Array(len(w.EnabledExtensions), func(i int) { enc.String(w.EnabledExtensions[i]) })
		})
	})
	g.block.Queues.Each(func(h vkhandle.Handle, w *state.QueueWrapper) {
		seed(enc, vkhandle.Queue, h, w.Device, func() {
			enc.Uint32(w.FamilyIndex)
			enc.Uint32(w.Index)
		})
	})
	g.block.Swapchains.Each(func(h vkhandle.Handle, w *state.SwapchainWrapper) {
		seed(enc, vkhandle.Swapchain, h, w.Device, func() {
			enc.Handle(w.Surface)
			enc.Array(len(w.Images), func(i int) { enc.Handle(w.Images[i]) })
		})
	})
}

// step 2: device memories, buffers, images, then the bind-memory
// calls tying resources to allocations. Grounded on
// original_source/mec_capture/buffer.cpp's capture_bind_buffers,
// which the original itself leaves uncalled from
// mid_execution_generator.h; SPEC_FULL.md asks for bind-memory calls
// explicitly, so this port wires both it and an image analogue (no
// equivalent original file; built the same way from ImageWrapper's
// already-cached BoundMemory/BoundOffset).
func (g *Generator) captureMemory(enc *wire.Encoder) {
	g.block.DeviceMemories.Each(func(h vkhandle.Handle, w *state.DeviceMemoryWrapper) {
		seed(enc, vkhandle.DeviceMemory, h, w.Device, func() {
			enc.Uint64(uint64(w.Size))
			enc.Uint32(w.MemoryTypeIndex)
			enc.Bool(w.Coherent)
		})
	})
	g.block.Buffers.Each(func(h vkhandle.Handle, w *state.BufferWrapper) {
		seed(enc, vkhandle.Buffer, h, w.Device, func() {
			enc.Uint64(uint64(w.Size))
		})
	})
	g.block.Images.Each(func(h vkhandle.Handle, w *state.ImageWrapper) {
		seed(enc, vkhandle.Image, h, w.Device, func() {
			enc.Uint32(uint32(w.Format))
			enc.Uint32(w.Extent.Width)
			enc.Uint32(w.Extent.Height)
			enc.Uint32(w.Extent.Depth)
		})
	})
	bindMemory := func(resourceType vkhandle.Type, resource, memory vkhandle.Handle, offset vk.DeviceSize) {
		if memory == vkhandle.Null {
			return
		}
		enc.BeginCall(uint64(OpBindMemory))
		enc.Uint32(uint32(resourceType))
		enc.Handle(resource)
		enc.Handle(memory)
		enc.Uint64(uint64(offset))
		if err := enc.EndCall(); err != nil {
			log.WithError(err).Warnf("mec: dropping bind-memory record for %#x", resource)
		}
	}
	g.block.Buffers.Each(func(h vkhandle.Handle, w *state.BufferWrapper) {
		bindMemory(vkhandle.Buffer, h, w.BoundMemory, w.BoundOffset)
	})
	g.block.Images.Each(func(h vkhandle.Handle, w *state.ImageWrapper) {
		bindMemory(vkhandle.Image, h, w.BoundMemory, w.BoundOffset)
	})
}

// step 3: the long tail of "helper" object types original_source
// groups together (samplers through query pools), including the
// pipeline shader-fallback logic from
// original_source/mec_capture/pipeline.cpp.
func (g *Generator) captureHelpers(enc *wire.Encoder) {
	g.block.Samplers.Each(func(h vkhandle.Handle, w *state.SamplerWrapper) {
		seed(enc, vkhandle.Sampler, h, vkhandle.Null, nil)
	})
	g.block.SamplerYcbcrConversions.Each(func(h vkhandle.Handle, w *state.SamplerYcbcrConversionWrapper) {
		seed(enc, vkhandle.SamplerYcbcrConversion, h, vkhandle.Null, nil)
	})
	g.block.CommandPools.Each(func(h vkhandle.Handle, w *state.CommandPoolWrapper) {
		seed(enc, vkhandle.CommandPool, h, w.Device, nil)
	})
	g.block.PipelineCaches.Each(func(h vkhandle.Handle, w *state.PipelineCacheWrapper) {
		seed(enc, vkhandle.PipelineCache, h, vkhandle.Null, nil)
	})
	g.block.DescriptorSetLayouts.Each(func(h vkhandle.Handle, w *state.DescriptorSetLayoutWrapper) {
		seed(enc, vkhandle.DescriptorSetLayout, h, vkhandle.Null, func() {
			enc.Array(len(w.Bindings), func(i int) {
				b := w.Bindings[i]
				enc.Uint32(b.Binding)
				enc.Uint32(uint32(b.DescriptorType))
				enc.Uint32(b.DescriptorCount)
				enc.Uint32(uint32(b.StageFlags))
			})
		})
	})
	g.block.DescriptorUpdateTemplates.Each(func(h vkhandle.Handle, w *state.DescriptorUpdateTemplateWrapper) {
		seed(enc, vkhandle.DescriptorUpdateTemplate, h, vkhandle.Null, func() {
			enc.Array(len(w.Entries), func(i int) {
				e := w.Entries[i]
				enc.Uint32(e.Binding)
				enc.Uint32(uint32(e.DescriptorType))
				enc.Uint32(e.Offset)
				enc.Uint32(e.Stride)
				enc.Uint32(e.DescriptorCount)
			})
		})
	})
	g.block.PipelineLayouts.Each(func(h vkhandle.Handle, w *state.PipelineLayoutWrapper) {
		seed(enc, vkhandle.PipelineLayout, h, vkhandle.Null, func() {
			enc.Array(len(w.SetLayouts), func(i int) { enc.Handle(w.SetLayouts[i]) })
			enc.Array(len(w.PushConstantRanges), func(i int) {
				r := w.PushConstantRanges[i]
				enc.Uint32(uint32(r.StageFlags))
				enc.Uint32(r.Offset)
				enc.Uint32(r.Size)
			})
		})
	})
	g.block.RenderPasses.Each(func(h vkhandle.Handle, w *state.RenderPassWrapper) {
		seed(enc, vkhandle.RenderPass, h, w.Device, func() {
			enc.Array(len(w.Attachments), func(i int) {
				a := w.Attachments[i]
				enc.Uint32(uint32(a.Format))
				enc.Uint32(uint32(a.Samples))
				enc.Uint32(uint32(a.LoadOp))
				enc.Uint32(uint32(a.StoreOp))
				enc.Uint32(uint32(a.StencilLoadOp))
				enc.Uint32(uint32(a.StencilStoreOp))
				enc.Uint32(uint32(a.InitialLayout))
				enc.Uint32(uint32(a.FinalLayout))
			})
			enc.Uint32(uint32(len(w.Subpasses)))
		})
	})
	g.block.ShaderModules.Each(func(h vkhandle.Handle, w *state.ShaderModuleWrapper) {
		seed(enc, vkhandle.ShaderModule, h, vkhandle.Null, func() {
			enc.Data(w.SPIRV)
		})
	})
	g.block.Pipelines.Each(func(h vkhandle.Handle, w *state.PipelineWrapper) {
		seed(enc, vkhandle.Pipeline, h, w.Device, func() {
			enc.Handle(w.Layout)
			enc.Uint32(w.Subpass)
			enc.Array(len(w.Modules), func(i int) {
				g.encodePipelineStageModule(enc, w, i)
			})
		})
	})
	g.block.ImageViews.Each(func(h vkhandle.Handle, w *state.ImageViewWrapper) {
		seed(enc, vkhandle.ImageView, h, w.Image, func() {
			enc.Uint32(uint32(w.Format))
		})
	})
	g.block.BufferViews.Each(func(h vkhandle.Handle, w *state.BufferViewWrapper) {
		seed(enc, vkhandle.BufferView, h, w.Buffer, func() {
			enc.Uint32(uint32(w.Format))
		})
	})
	g.block.DescriptorPools.Each(func(h vkhandle.Handle, w *state.DescriptorPoolWrapper) {
		seed(enc, vkhandle.DescriptorPool, h, vkhandle.Null, func() {
			enc.Array(len(w.AllocatedSets), func(i int) { enc.Handle(w.AllocatedSets[i]) })
		})
	})
	g.block.Framebuffers.Each(func(h vkhandle.Handle, w *state.FramebufferWrapper) {
		seed(enc, vkhandle.Framebuffer, h, w.RenderPass, func() {
			enc.Array(len(w.Attachments), func(i int) { enc.Handle(w.Attachments[i]) })
		})
	})
	g.block.DescriptorSets.Each(func(h vkhandle.Handle, w *state.DescriptorSetWrapper) {
		seed(enc, vkhandle.DescriptorSet, h, w.Pool, func() {
			enc.Handle(w.Layout)
			enc.Array(len(w.Slots), func(i int) {
				s := w.Slots[i]
				enc.Uint32(s.Binding)
				enc.Uint32(uint32(s.Type))
				enc.Handle(s.Resource)
				enc.Handle(s.Buffer)
				enc.Uint64(uint64(s.Offset))
				enc.Uint64(uint64(s.Range))
			})
		})
	})
	g.block.QueryPools.Each(func(h vkhandle.Handle, w *state.QueryPoolWrapper) {
		seed(enc, vkhandle.QueryPool, h, vkhandle.Null, func() {
			enc.Uint32(uint32(w.QueryType))
			enc.Uint32(w.Count)
		})
	})
}

// encodePipelineStageModule writes one pipeline stage's shader
// reference as {present bool; handle if present, else raw SPIR-V}.
// Grounded on original_source/mec_capture/pipeline.cpp, which falls
// back to pipe->shader_code when the real module has been destroyed;
// this port inlines the fallback directly into the pipeline's seed
// record rather than replicating the original's
// create-temporary-module/serialize/destroy dance, since nothing here
// makes a real driver call that would need a live handle to embed.
func (g *Generator) encodePipelineStageModule(enc *wire.Encoder, w *state.PipelineWrapper, i int) {
	module := w.Modules[i]
	if _, ok := g.block.ShaderModules.Get(module); ok {
		enc.Bool(true)
		enc.Handle(module)
		return
	}
	enc.Bool(false)
	var code []byte
	if i < len(w.ShaderCode) {
		code = w.ShaderCode[i]
	}
	enc.Data(code)
}

// step 4: command buffers, secondary before primary so a primary's
// recorded vkCmdExecuteCommands (once supported) always resolves
// against an already-seeded secondary. Each buffer's stream is
// spliced via cmdrecorder.RerecordCommandBuffer through cmdEncoder,
// the same re-dispatch path internal/cmdsplitter uses for its own
// rewrite pass.
func (g *Generator) captureCommandBuffers(ctx context.Context, enc *wire.Encoder) error {
	for _, level := range []vk.CommandBufferLevel{vk.CommandBufferLevelSecondary, vk.CommandBufferLevelPrimary} {
		g.block.CommandBuffers.Each(func(h vkhandle.Handle, w *state.CommandBufferWrapper) {
			if w.Level != level {
				return
			}
			enc.BeginCall(uint64(OpSeedCommandBuffer))
			enc.Handle(h)
			enc.Handle(w.Pool)
			enc.Uint32(uint32(w.Level))
			if encErr := enc.EndCall(); encErr != nil {
				log.WithError(encErr).Warnf("mec: dropping command buffer seed for %#x", h)
				return
			}
			ce := &cmdEncoder{enc: enc}
			if rerecErr := cmdrecorder.RerecordCommandBuffer(ctx, w, vk.CommandBuffer(h), ce, nil); rerecErr != nil {
				log.WithError(rerecErr).Warnf("mec: failed to splice command buffer %#x into prologue", h)
			}
		})
	}
	return nil
}

// step 5: fences, semaphores, events.
func (g *Generator) captureSynchronization(enc *wire.Encoder) {
	g.block.Fences.Each(func(h vkhandle.Handle, w *state.FenceWrapper) {
		seed(enc, vkhandle.Fence, h, vkhandle.Null, func() {
			enc.Bool(w.Signaled)
		})
	})
	g.block.Semaphores.Each(func(h vkhandle.Handle, w *state.SemaphoreWrapper) {
		seed(enc, vkhandle.Semaphore, h, vkhandle.Null, func() {
			enc.Bool(w.Signaled)
			enc.Uint64(w.Value)
		})
	})
	g.block.Events.Each(func(h vkhandle.Handle, w *state.EventWrapper) {
		seed(enc, vkhandle.Event, h, vkhandle.Null, func() {
			enc.Bool(w.Set)
		})
	})
}
