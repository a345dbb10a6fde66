// Package transform defines the Transform interface every layer of the
// pipeline implements (spec.md §2, §9 "Dynamic dispatch"): a flat trait
// covering the Vulkan entry points the core needs to intercept, plus a
// Base struct giving every transform a default "forward to next"
// implementation so a concrete transform only needs to override the
// handful of methods it actually cares about.
//
// The full Vulkan 1.x + KHR/EXT surface is several hundred entry points;
// spec.md §6 requires routing "every entry point the system overrides"
// but the core's hard parts (§1) only exercise a representative subset
// of it. Transform implements the dispatch architecture generically
// (the embed-and-override pattern below is exactly how a generated
// full-surface trait would be consumed) over that subset; extending it
// to more entry points is mechanical - add a method to the interface
// and a forwarding default to Base.
package transform

import (
	"context"

	vk "github.com/vulkan-go/vulkan"
)

// Transform is the unit of composition for interception logic (spec.md
// GLOSSARY). Each concrete transform holds a Next Transform and either
// forwards a call unchanged or observes/mutates around the forward.
type Transform interface {
	// Name identifies the transform for logging and layer diagnostics.
	Name() string
	// Next returns the next transform in the chain, or nil if this is
	// the base caller.
	Next() Transform

	// Instance / physical device
	CreateInstance(ctx context.Context, info *vk.InstanceCreateInfo) (vk.Instance, error)
	DestroyInstance(ctx context.Context, instance vk.Instance) error
	EnumeratePhysicalDevices(ctx context.Context, instance vk.Instance) ([]vk.PhysicalDevice, error)
	GetPhysicalDeviceProperties(ctx context.Context, pd vk.PhysicalDevice) vk.PhysicalDeviceProperties
	GetPhysicalDeviceMemoryProperties(ctx context.Context, pd vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties
	GetPhysicalDeviceQueueFamilyProperties(ctx context.Context, pd vk.PhysicalDevice) []vk.QueueFamilyProperties

	// Device / queue
	CreateDevice(ctx context.Context, pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error)
	DestroyDevice(ctx context.Context, device vk.Device) error
	GetDeviceQueue(ctx context.Context, device vk.Device, familyIndex, index uint32) vk.Queue
	QueueSubmit(ctx context.Context, queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) error
	QueueWaitIdle(ctx context.Context, queue vk.Queue) error
	QueuePresentKHR(ctx context.Context, queue vk.Queue, info *vk.PresentInfo) error
	DeviceWaitIdle(ctx context.Context, device vk.Device) error

	// Command pools / buffers
	CreateCommandPool(ctx context.Context, device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, error)
	DestroyCommandPool(ctx context.Context, device vk.Device, pool vk.CommandPool) error
	AllocateCommandBuffers(ctx context.Context, device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error)
	FreeCommandBuffers(ctx context.Context, device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer) error
	BeginCommandBuffer(ctx context.Context, cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error
	EndCommandBuffer(ctx context.Context, cb vk.CommandBuffer) error
	ResetCommandBuffer(ctx context.Context, cb vk.CommandBuffer, flags vk.CommandBufferResetFlags) error

	// Memory
	AllocateMemory(ctx context.Context, device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, error)
	FreeMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory) error
	MapMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize) (uintptr, error)
	UnmapMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory) error
	FlushMappedMemoryRanges(ctx context.Context, device vk.Device, ranges []vk.MappedMemoryRange) error
	InvalidateMappedMemoryRanges(ctx context.Context, device vk.Device, ranges []vk.MappedMemoryRange) error

	// Buffers / images
	CreateBuffer(ctx context.Context, device vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, error)
	DestroyBuffer(ctx context.Context, device vk.Device, buffer vk.Buffer) error
	GetBufferMemoryRequirements(ctx context.Context, device vk.Device, buffer vk.Buffer) vk.MemoryRequirements
	BindBufferMemory(ctx context.Context, device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset vk.DeviceSize) error
	CreateBufferView(ctx context.Context, device vk.Device, info *vk.BufferViewCreateInfo) (vk.BufferView, error)
	DestroyBufferView(ctx context.Context, device vk.Device, view vk.BufferView) error
	CreateImage(ctx context.Context, device vk.Device, info *vk.ImageCreateInfo) (vk.Image, error)
	DestroyImage(ctx context.Context, device vk.Device, image vk.Image) error
	GetImageMemoryRequirements(ctx context.Context, device vk.Device, image vk.Image) vk.MemoryRequirements
	BindImageMemory(ctx context.Context, device vk.Device, image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) error
	CreateImageView(ctx context.Context, device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error)
	DestroyImageView(ctx context.Context, device vk.Device, view vk.ImageView) error
	CreateSampler(ctx context.Context, device vk.Device, info *vk.SamplerCreateInfo) (vk.Sampler, error)
	DestroySampler(ctx context.Context, device vk.Device, sampler vk.Sampler) error

	// Shaders / pipelines
	CreateShaderModule(ctx context.Context, device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error)
	DestroyShaderModule(ctx context.Context, device vk.Device, module vk.ShaderModule) error
	CreatePipelineCache(ctx context.Context, device vk.Device, info *vk.PipelineCacheCreateInfo) (vk.PipelineCache, error)
	DestroyPipelineCache(ctx context.Context, device vk.Device, cache vk.PipelineCache) error
	CreatePipelineLayout(ctx context.Context, device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error)
	DestroyPipelineLayout(ctx context.Context, device vk.Device, layout vk.PipelineLayout) error
	CreateGraphicsPipelines(ctx context.Context, device vk.Device, cache vk.PipelineCache, infos []vk.GraphicsPipelineCreateInfo) ([]vk.Pipeline, error)
	CreateComputePipelines(ctx context.Context, device vk.Device, cache vk.PipelineCache, infos []vk.ComputePipelineCreateInfo) ([]vk.Pipeline, error)
	DestroyPipeline(ctx context.Context, device vk.Device, pipeline vk.Pipeline) error

	// Descriptors
	CreateDescriptorSetLayout(ctx context.Context, device vk.Device, info *vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error)
	DestroyDescriptorSetLayout(ctx context.Context, device vk.Device, layout vk.DescriptorSetLayout) error
	CreateDescriptorPool(ctx context.Context, device vk.Device, info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error)
	DestroyDescriptorPool(ctx context.Context, device vk.Device, pool vk.DescriptorPool) error
	AllocateDescriptorSets(ctx context.Context, device vk.Device, info *vk.DescriptorSetAllocateInfo) ([]vk.DescriptorSet, error)
	FreeDescriptorSets(ctx context.Context, device vk.Device, pool vk.DescriptorPool, sets []vk.DescriptorSet) error
	UpdateDescriptorSets(ctx context.Context, device vk.Device, writes []vk.WriteDescriptorSet, copies []vk.CopyDescriptorSet) error
	CreateDescriptorUpdateTemplate(ctx context.Context, device vk.Device, info *vk.DescriptorUpdateTemplateCreateInfo) (vk.DescriptorUpdateTemplate, error)
	DestroyDescriptorUpdateTemplate(ctx context.Context, device vk.Device, tmpl vk.DescriptorUpdateTemplate) error
	UpdateDescriptorSetWithTemplate(ctx context.Context, device vk.Device, set vk.DescriptorSet, tmpl vk.DescriptorUpdateTemplate, data []byte) error

	// Render passes / framebuffers
	CreateRenderPass(ctx context.Context, device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error)
	DestroyRenderPass(ctx context.Context, device vk.Device, rp vk.RenderPass) error
	CreateFramebuffer(ctx context.Context, device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error)
	DestroyFramebuffer(ctx context.Context, device vk.Device, fb vk.Framebuffer) error

	// Synchronization
	CreateFence(ctx context.Context, device vk.Device, info *vk.FenceCreateInfo) (vk.Fence, error)
	DestroyFence(ctx context.Context, device vk.Device, fence vk.Fence) error
	ResetFences(ctx context.Context, device vk.Device, fences []vk.Fence) error
	WaitForFences(ctx context.Context, device vk.Device, fences []vk.Fence, waitAll bool, timeout uint64) error
	GetFenceStatus(ctx context.Context, device vk.Device, fence vk.Fence) error
	CreateSemaphore(ctx context.Context, device vk.Device, info *vk.SemaphoreCreateInfo) (vk.Semaphore, error)
	DestroySemaphore(ctx context.Context, device vk.Device, sem vk.Semaphore) error
	CreateEvent(ctx context.Context, device vk.Device, info *vk.EventCreateInfo) (vk.Event, error)
	DestroyEvent(ctx context.Context, device vk.Device, event vk.Event) error
	CreateQueryPool(ctx context.Context, device vk.Device, info *vk.QueryPoolCreateInfo) (vk.QueryPool, error)
	DestroyQueryPool(ctx context.Context, device vk.Device, pool vk.QueryPool) error

	// Ycbcr conversion, surface, swapchain
	CreateSamplerYcbcrConversion(ctx context.Context, device vk.Device, info *vk.SamplerYcbcrConversionCreateInfo) (vk.SamplerYcbcrConversion, error)
	DestroySamplerYcbcrConversion(ctx context.Context, device vk.Device, conv vk.SamplerYcbcrConversion) error
	DestroySurfaceKHR(ctx context.Context, instance vk.Instance, surface vk.Surface) error
	CreateSwapchainKHR(ctx context.Context, device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error)
	DestroySwapchainKHR(ctx context.Context, device vk.Device, swapchain vk.Swapchain) error
	GetSwapchainImagesKHR(ctx context.Context, device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error)
	AcquireNextImageKHR(ctx context.Context, device vk.Device, swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, fence vk.Fence) (uint32, error)

	// Command recording (vkCmd*)
	CmdBeginRenderPass(ctx context.Context, cb vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents)
	CmdNextSubpass(ctx context.Context, cb vk.CommandBuffer, contents vk.SubpassContents)
	CmdEndRenderPass(ctx context.Context, cb vk.CommandBuffer)
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
	CmdPipelineBarrier(ctx context.Context, cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, memBarriers []vk.MemoryBarrier, bufBarriers []vk.BufferMemoryBarrier, imgBarriers []vk.ImageMemoryBarrier)
	CmdPushConstants(ctx context.Context, cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, data []byte)
	CmdUpdateBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, data []byte)
}
