package transform

import (
	"context"

	vk "github.com/vulkan-go/vulkan"
)

// Base gives a concrete transform a default "forward everything to Next"
// implementation of the Transform interface; embed it and override only
// the methods you need, matching spec.md §9's "generated trait whose
// default method forwards to the next transform" design note. This is
// the same shape as gviegas-neo3's procgen-generated dispatch tables,
// hand-expanded here for the subset of entry points Transform declares.
type Base struct {
	name string
	next Transform
}

// NewBase constructs a Base transform named name, forwarding to next.
func NewBase(name string, next Transform) Base {
	return Base{name: name, next: next}
}

func (b Base) Name() string         { return b.name }
func (b Base) Next() Transform      { return b.next }
func (b *Base) SetNext(t Transform) { b.next = t }

func (b Base) CreateInstance(ctx context.Context, info *vk.InstanceCreateInfo) (vk.Instance, error) {
	return b.next.CreateInstance(ctx, info)
}
func (b Base) DestroyInstance(ctx context.Context, instance vk.Instance) error {
	return b.next.DestroyInstance(ctx, instance)
}
func (b Base) EnumeratePhysicalDevices(ctx context.Context, instance vk.Instance) ([]vk.PhysicalDevice, error) {
	return b.next.EnumeratePhysicalDevices(ctx, instance)
}
func (b Base) GetPhysicalDeviceProperties(ctx context.Context, pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	return b.next.GetPhysicalDeviceProperties(ctx, pd)
}
func (b Base) GetPhysicalDeviceMemoryProperties(ctx context.Context, pd vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	return b.next.GetPhysicalDeviceMemoryProperties(ctx, pd)
}
func (b Base) GetPhysicalDeviceQueueFamilyProperties(ctx context.Context, pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	return b.next.GetPhysicalDeviceQueueFamilyProperties(ctx, pd)
}
func (b Base) CreateDevice(ctx context.Context, pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	return b.next.CreateDevice(ctx, pd, info)
}
func (b Base) DestroyDevice(ctx context.Context, device vk.Device) error {
	return b.next.DestroyDevice(ctx, device)
}
func (b Base) GetDeviceQueue(ctx context.Context, device vk.Device, familyIndex, index uint32) vk.Queue {
	return b.next.GetDeviceQueue(ctx, device, familyIndex, index)
}
func (b Base) QueueSubmit(ctx context.Context, queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) error {
	return b.next.QueueSubmit(ctx, queue, submits, fence)
}
func (b Base) QueueWaitIdle(ctx context.Context, queue vk.Queue) error {
	return b.next.QueueWaitIdle(ctx, queue)
}
func (b Base) QueuePresentKHR(ctx context.Context, queue vk.Queue, info *vk.PresentInfo) error {
	return b.next.QueuePresentKHR(ctx, queue, info)
}
func (b Base) DeviceWaitIdle(ctx context.Context, device vk.Device) error {
	return b.next.DeviceWaitIdle(ctx, device)
}
func (b Base) CreateCommandPool(ctx context.Context, device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, error) {
	return b.next.CreateCommandPool(ctx, device, info)
}
func (b Base) DestroyCommandPool(ctx context.Context, device vk.Device, pool vk.CommandPool) error {
	return b.next.DestroyCommandPool(ctx, device, pool)
}
func (b Base) AllocateCommandBuffers(ctx context.Context, device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	return b.next.AllocateCommandBuffers(ctx, device, info)
}
func (b Base) FreeCommandBuffers(ctx context.Context, device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer) error {
	return b.next.FreeCommandBuffers(ctx, device, pool, buffers)
}
func (b Base) BeginCommandBuffer(ctx context.Context, cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	return b.next.BeginCommandBuffer(ctx, cb, info)
}
func (b Base) EndCommandBuffer(ctx context.Context, cb vk.CommandBuffer) error {
	return b.next.EndCommandBuffer(ctx, cb)
}
func (b Base) ResetCommandBuffer(ctx context.Context, cb vk.CommandBuffer, flags vk.CommandBufferResetFlags) error {
	return b.next.ResetCommandBuffer(ctx, cb, flags)
}
func (b Base) AllocateMemory(ctx context.Context, device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, error) {
	return b.next.AllocateMemory(ctx, device, info)
}
func (b Base) FreeMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory) error {
	return b.next.FreeMemory(ctx, device, memory)
}
func (b Base) MapMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize) (uintptr, error) {
	return b.next.MapMemory(ctx, device, memory, offset, size)
}
func (b Base) UnmapMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory) error {
	return b.next.UnmapMemory(ctx, device, memory)
}
func (b Base) FlushMappedMemoryRanges(ctx context.Context, device vk.Device, ranges []vk.MappedMemoryRange) error {
	return b.next.FlushMappedMemoryRanges(ctx, device, ranges)
}
func (b Base) InvalidateMappedMemoryRanges(ctx context.Context, device vk.Device, ranges []vk.MappedMemoryRange) error {
	return b.next.InvalidateMappedMemoryRanges(ctx, device, ranges)
}
func (b Base) CreateBuffer(ctx context.Context, device vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, error) {
	return b.next.CreateBuffer(ctx, device, info)
}
func (b Base) DestroyBuffer(ctx context.Context, device vk.Device, buffer vk.Buffer) error {
	return b.next.DestroyBuffer(ctx, device, buffer)
}
func (b Base) GetBufferMemoryRequirements(ctx context.Context, device vk.Device, buffer vk.Buffer) vk.MemoryRequirements {
	return b.next.GetBufferMemoryRequirements(ctx, device, buffer)
}
func (b Base) BindBufferMemory(ctx context.Context, device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset vk.DeviceSize) error {
	return b.next.BindBufferMemory(ctx, device, buffer, memory, offset)
}
func (b Base) CreateBufferView(ctx context.Context, device vk.Device, info *vk.BufferViewCreateInfo) (vk.BufferView, error) {
	return b.next.CreateBufferView(ctx, device, info)
}
func (b Base) DestroyBufferView(ctx context.Context, device vk.Device, view vk.BufferView) error {
	return b.next.DestroyBufferView(ctx, device, view)
}
func (b Base) CreateImage(ctx context.Context, device vk.Device, info *vk.ImageCreateInfo) (vk.Image, error) {
	return b.next.CreateImage(ctx, device, info)
}
func (b Base) DestroyImage(ctx context.Context, device vk.Device, image vk.Image) error {
	return b.next.DestroyImage(ctx, device, image)
}
func (b Base) GetImageMemoryRequirements(ctx context.Context, device vk.Device, image vk.Image) vk.MemoryRequirements {
	return b.next.GetImageMemoryRequirements(ctx, device, image)
}
func (b Base) BindImageMemory(ctx context.Context, device vk.Device, image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) error {
	return b.next.BindImageMemory(ctx, device, image, memory, offset)
}
func (b Base) CreateImageView(ctx context.Context, device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	return b.next.CreateImageView(ctx, device, info)
}
func (b Base) DestroyImageView(ctx context.Context, device vk.Device, view vk.ImageView) error {
	return b.next.DestroyImageView(ctx, device, view)
}
func (b Base) CreateSampler(ctx context.Context, device vk.Device, info *vk.SamplerCreateInfo) (vk.Sampler, error) {
	return b.next.CreateSampler(ctx, device, info)
}
func (b Base) DestroySampler(ctx context.Context, device vk.Device, sampler vk.Sampler) error {
	return b.next.DestroySampler(ctx, device, sampler)
}
func (b Base) CreateShaderModule(ctx context.Context, device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	return b.next.CreateShaderModule(ctx, device, info)
}
func (b Base) DestroyShaderModule(ctx context.Context, device vk.Device, module vk.ShaderModule) error {
	return b.next.DestroyShaderModule(ctx, device, module)
}
func (b Base) CreatePipelineCache(ctx context.Context, device vk.Device, info *vk.PipelineCacheCreateInfo) (vk.PipelineCache, error) {
	return b.next.CreatePipelineCache(ctx, device, info)
}
func (b Base) DestroyPipelineCache(ctx context.Context, device vk.Device, cache vk.PipelineCache) error {
	return b.next.DestroyPipelineCache(ctx, device, cache)
}
func (b Base) CreatePipelineLayout(ctx context.Context, device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	return b.next.CreatePipelineLayout(ctx, device, info)
}
func (b Base) DestroyPipelineLayout(ctx context.Context, device vk.Device, layout vk.PipelineLayout) error {
	return b.next.DestroyPipelineLayout(ctx, device, layout)
}
func (b Base) CreateGraphicsPipelines(ctx context.Context, device vk.Device, cache vk.PipelineCache, infos []vk.GraphicsPipelineCreateInfo) ([]vk.Pipeline, error) {
	return b.next.CreateGraphicsPipelines(ctx, device, cache, infos)
}
func (b Base) CreateComputePipelines(ctx context.Context, device vk.Device, cache vk.PipelineCache, infos []vk.ComputePipelineCreateInfo) ([]vk.Pipeline, error) {
	return b.next.CreateComputePipelines(ctx, device, cache, infos)
}
func (b Base) DestroyPipeline(ctx context.Context, device vk.Device, pipeline vk.Pipeline) error {
	return b.next.DestroyPipeline(ctx, device, pipeline)
}
func (b Base) CreateDescriptorSetLayout(ctx context.Context, device vk.Device, info *vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error) {
	return b.next.CreateDescriptorSetLayout(ctx, device, info)
}
func (b Base) DestroyDescriptorSetLayout(ctx context.Context, device vk.Device, layout vk.DescriptorSetLayout) error {
	return b.next.DestroyDescriptorSetLayout(ctx, device, layout)
}
func (b Base) CreateDescriptorPool(ctx context.Context, device vk.Device, info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error) {
	return b.next.CreateDescriptorPool(ctx, device, info)
}
func (b Base) DestroyDescriptorPool(ctx context.Context, device vk.Device, pool vk.DescriptorPool) error {
	return b.next.DestroyDescriptorPool(ctx, device, pool)
}
func (b Base) AllocateDescriptorSets(ctx context.Context, device vk.Device, info *vk.DescriptorSetAllocateInfo) ([]vk.DescriptorSet, error) {
	return b.next.AllocateDescriptorSets(ctx, device, info)
}
func (b Base) FreeDescriptorSets(ctx context.Context, device vk.Device, pool vk.DescriptorPool, sets []vk.DescriptorSet) error {
	return b.next.FreeDescriptorSets(ctx, device, pool, sets)
}
func (b Base) UpdateDescriptorSets(ctx context.Context, device vk.Device, writes []vk.WriteDescriptorSet, copies []vk.CopyDescriptorSet) error {
	return b.next.UpdateDescriptorSets(ctx, device, writes, copies)
}
func (b Base) CreateDescriptorUpdateTemplate(ctx context.Context, device vk.Device, info *vk.DescriptorUpdateTemplateCreateInfo) (vk.DescriptorUpdateTemplate, error) {
	return b.next.CreateDescriptorUpdateTemplate(ctx, device, info)
}
func (b Base) DestroyDescriptorUpdateTemplate(ctx context.Context, device vk.Device, tmpl vk.DescriptorUpdateTemplate) error {
	return b.next.DestroyDescriptorUpdateTemplate(ctx, device, tmpl)
}
func (b Base) UpdateDescriptorSetWithTemplate(ctx context.Context, device vk.Device, set vk.DescriptorSet, tmpl vk.DescriptorUpdateTemplate, data []byte) error {
	return b.next.UpdateDescriptorSetWithTemplate(ctx, device, set, tmpl, data)
}
func (b Base) CreateRenderPass(ctx context.Context, device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	return b.next.CreateRenderPass(ctx, device, info)
}
func (b Base) DestroyRenderPass(ctx context.Context, device vk.Device, rp vk.RenderPass) error {
	return b.next.DestroyRenderPass(ctx, device, rp)
}
func (b Base) CreateFramebuffer(ctx context.Context, device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	return b.next.CreateFramebuffer(ctx, device, info)
}
func (b Base) DestroyFramebuffer(ctx context.Context, device vk.Device, fb vk.Framebuffer) error {
	return b.next.DestroyFramebuffer(ctx, device, fb)
}
func (b Base) CreateFence(ctx context.Context, device vk.Device, info *vk.FenceCreateInfo) (vk.Fence, error) {
	return b.next.CreateFence(ctx, device, info)
}
func (b Base) DestroyFence(ctx context.Context, device vk.Device, fence vk.Fence) error {
	return b.next.DestroyFence(ctx, device, fence)
}
func (b Base) ResetFences(ctx context.Context, device vk.Device, fences []vk.Fence) error {
	return b.next.ResetFences(ctx, device, fences)
}
func (b Base) WaitForFences(ctx context.Context, device vk.Device, fences []vk.Fence, waitAll bool, timeout uint64) error {
	return b.next.WaitForFences(ctx, device, fences, waitAll, timeout)
}
func (b Base) GetFenceStatus(ctx context.Context, device vk.Device, fence vk.Fence) error {
	return b.next.GetFenceStatus(ctx, device, fence)
}
func (b Base) CreateSemaphore(ctx context.Context, device vk.Device, info *vk.SemaphoreCreateInfo) (vk.Semaphore, error) {
	return b.next.CreateSemaphore(ctx, device, info)
}
func (b Base) DestroySemaphore(ctx context.Context, device vk.Device, sem vk.Semaphore) error {
	return b.next.DestroySemaphore(ctx, device, sem)
}
func (b Base) CreateEvent(ctx context.Context, device vk.Device, info *vk.EventCreateInfo) (vk.Event, error) {
	return b.next.CreateEvent(ctx, device, info)
}
func (b Base) DestroyEvent(ctx context.Context, device vk.Device, event vk.Event) error {
	return b.next.DestroyEvent(ctx, device, event)
}
func (b Base) CreateQueryPool(ctx context.Context, device vk.Device, info *vk.QueryPoolCreateInfo) (vk.QueryPool, error) {
	return b.next.CreateQueryPool(ctx, device, info)
}
func (b Base) DestroyQueryPool(ctx context.Context, device vk.Device, pool vk.QueryPool) error {
	return b.next.DestroyQueryPool(ctx, device, pool)
}
func (b Base) CreateSamplerYcbcrConversion(ctx context.Context, device vk.Device, info *vk.SamplerYcbcrConversionCreateInfo) (vk.SamplerYcbcrConversion, error) {
	return b.next.CreateSamplerYcbcrConversion(ctx, device, info)
}
func (b Base) DestroySamplerYcbcrConversion(ctx context.Context, device vk.Device, conv vk.SamplerYcbcrConversion) error {
	return b.next.DestroySamplerYcbcrConversion(ctx, device, conv)
}
func (b Base) DestroySurfaceKHR(ctx context.Context, instance vk.Instance, surface vk.Surface) error {
	return b.next.DestroySurfaceKHR(ctx, instance, surface)
}
func (b Base) CreateSwapchainKHR(ctx context.Context, device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	return b.next.CreateSwapchainKHR(ctx, device, info)
}
func (b Base) DestroySwapchainKHR(ctx context.Context, device vk.Device, swapchain vk.Swapchain) error {
	return b.next.DestroySwapchainKHR(ctx, device, swapchain)
}
func (b Base) GetSwapchainImagesKHR(ctx context.Context, device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error) {
	return b.next.GetSwapchainImagesKHR(ctx, device, swapchain)
}
func (b Base) AcquireNextImageKHR(ctx context.Context, device vk.Device, swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, fence vk.Fence) (uint32, error) {
	return b.next.AcquireNextImageKHR(ctx, device, swapchain, timeout, semaphore, fence)
}
func (b Base) CmdBeginRenderPass(ctx context.Context, cb vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) {
	b.next.CmdBeginRenderPass(ctx, cb, info, contents)
}
func (b Base) CmdNextSubpass(ctx context.Context, cb vk.CommandBuffer, contents vk.SubpassContents) {
	b.next.CmdNextSubpass(ctx, cb, contents)
}
func (b Base) CmdEndRenderPass(ctx context.Context, cb vk.CommandBuffer) {
	b.next.CmdEndRenderPass(ctx, cb)
}
func (b Base) CmdBindPipeline(ctx context.Context, cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	b.next.CmdBindPipeline(ctx, cb, bindPoint, pipeline)
}
func (b Base) CmdBindDescriptorSets(ctx context.Context, cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet, dynamicOffsets []uint32) {
	b.next.CmdBindDescriptorSets(ctx, cb, bindPoint, layout, firstSet, sets, dynamicOffsets)
}
func (b Base) CmdBindVertexBuffers(ctx context.Context, cb vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	b.next.CmdBindVertexBuffers(ctx, cb, firstBinding, buffers, offsets)
}
func (b Base) CmdBindIndexBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	b.next.CmdBindIndexBuffer(ctx, cb, buffer, offset, indexType)
}
func (b Base) CmdSetViewport(ctx context.Context, cb vk.CommandBuffer, first uint32, viewports []vk.Viewport) {
	b.next.CmdSetViewport(ctx, cb, first, viewports)
}
func (b Base) CmdSetScissor(ctx context.Context, cb vk.CommandBuffer, first uint32, scissors []vk.Rect2D) {
	b.next.CmdSetScissor(ctx, cb, first, scissors)
}
func (b Base) CmdDraw(ctx context.Context, cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	b.next.CmdDraw(ctx, cb, vertexCount, instanceCount, firstVertex, firstInstance)
}
func (b Base) CmdDrawIndexed(ctx context.Context, cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	b.next.CmdDrawIndexed(ctx, cb, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}
func (b Base) CmdDispatch(ctx context.Context, cb vk.CommandBuffer, x, y, z uint32) {
	b.next.CmdDispatch(ctx, cb, x, y, z)
}
func (b Base) CmdCopyBuffer(ctx context.Context, cb vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	b.next.CmdCopyBuffer(ctx, cb, src, dst, regions)
}
func (b Base) CmdCopyBufferToImage(ctx context.Context, cb vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy) {
	b.next.CmdCopyBufferToImage(ctx, cb, src, dst, layout, regions)
}
func (b Base) CmdPipelineBarrier(ctx context.Context, cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, memBarriers []vk.MemoryBarrier, bufBarriers []vk.BufferMemoryBarrier, imgBarriers []vk.ImageMemoryBarrier) {
	b.next.CmdPipelineBarrier(ctx, cb, src, dst, memBarriers, bufBarriers, imgBarriers)
}
func (b Base) CmdPushConstants(ctx context.Context, cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, data []byte) {
	b.next.CmdPushConstants(ctx, cb, layout, stages, offset, size, data)
}
func (b Base) CmdUpdateBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, data []byte) {
	b.next.CmdUpdateBuffer(ctx, cb, buffer, offset, data)
}
