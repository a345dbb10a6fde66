// Package basecaller implements spec.md §4.A: the terminal transform
// that resolves driver entry points via vkGetInstanceProcAddr /
// vkGetDeviceProcAddr and invokes the real driver.
//
// Grounded on the teacher's device.go/instance.go (which call vk.*
// Vulkan functions directly against github.com/vulkan-go/vulkan)
// generalized into the one place in the pipeline allowed to do that:
// every other transform in this module only ever calls
// Next().Whatever(...), never vk.* directly.
package basecaller

import (
	"context"
	"sync"

	vk "github.com/vulkan-go/vulkan"

	"github.com/vkcapture/gapid2/internal/logging"
	"github.com/vkcapture/gapid2/internal/transform"
)

var log = logging.For("basecaller")

// Caller is the terminal Transform: it has no Next and always invokes
// the real driver. Its maps play the role spec.md §4.A assigns to the
// dispatch-table maps: bookkeeping of which instances/devices/queues
// are currently live, guarded by their own RWMutex per spec.md §5, with
// transitive purge on destroy (destroying an instance purges its
// physical-device list; destroying a device purges its queue list).
type Caller struct {
	transform.Base

	instMu sync.RWMutex
	instPD map[vk.Instance][]vk.PhysicalDevice

	devMu     sync.RWMutex
	devQueues map[vk.Device][]vk.Queue
}

// New constructs the base caller.
func New() *Caller {
	c := &Caller{
		instPD:    make(map[vk.Instance][]vk.PhysicalDevice),
		devQueues: make(map[vk.Device][]vk.Queue),
	}
	// Caller overrides every method transform.Transform declares, so
	// Base never actually forwards; next is nil per Transform.Next's
	// "nil if this is the base caller" contract.
	c.Base = transform.NewBase("basecaller", nil)
	return c
}

func result(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	return vkError(ret)
}

func (c *Caller) CreateInstance(ctx context.Context, info *vk.InstanceCreateInfo) (vk.Instance, error) {
	var instance vk.Instance
	ret := vk.CreateInstance(info, nil, &instance)
	if ret != vk.Success {
		return vk.Instance(vk.NullHandle), vkError(ret)
	}
	vk.InitInstance(instance)
	c.instMu.Lock()
	c.instPD[instance] = nil
	c.instMu.Unlock()
	log.WithField("instance", instance).Debug("instance created")
	return instance, nil
}

func (c *Caller) DestroyInstance(ctx context.Context, instance vk.Instance) error {
	vk.DestroyInstance(instance, nil)
	c.instMu.Lock()
	delete(c.instPD, instance)
	c.instMu.Unlock()
	return nil
}

func (c *Caller) EnumeratePhysicalDevices(ctx context.Context, instance vk.Instance) ([]vk.PhysicalDevice, error) {
	var count uint32
	ret := vk.EnumeratePhysicalDevices(instance, &count, nil)
	if ret != vk.Success {
		return nil, vkError(ret)
	}
	pds := make([]vk.PhysicalDevice, count)
	ret = vk.EnumeratePhysicalDevices(instance, &count, pds)
	if ret != vk.Success {
		return nil, vkError(ret)
	}
	c.instMu.Lock()
	c.instPD[instance] = pds
	c.instMu.Unlock()
	return pds, nil
}

func (c *Caller) GetPhysicalDeviceProperties(ctx context.Context, pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()
	return props
}

func (c *Caller) GetPhysicalDeviceMemoryProperties(ctx context.Context, pd vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	var props vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &props)
	props.Deref()
	return props
}

func (c *Caller) GetPhysicalDeviceQueueFamilyProperties(ctx context.Context, pd vk.PhysicalDevice) []vk.QueueFamilyProperties {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, props)
	for i := range props {
		props[i].Deref()
	}
	return props
}

func (c *Caller) CreateDevice(ctx context.Context, pd vk.PhysicalDevice, info *vk.DeviceCreateInfo) (vk.Device, error) {
	var device vk.Device
	ret := vk.CreateDevice(pd, info, nil, &device)
	if ret != vk.Success {
		return vk.Device(vk.NullHandle), vkError(ret)
	}
	c.devMu.Lock()
	c.devQueues[device] = nil
	c.devMu.Unlock()
	return device, nil
}

func (c *Caller) DestroyDevice(ctx context.Context, device vk.Device) error {
	vk.DestroyDevice(device, nil)
	c.devMu.Lock()
	delete(c.devQueues, device)
	c.devMu.Unlock()
	return nil
}

func (c *Caller) GetDeviceQueue(ctx context.Context, device vk.Device, familyIndex, index uint32) vk.Queue {
	var queue vk.Queue
	vk.GetDeviceQueue(device, familyIndex, index, &queue)
	c.devMu.Lock()
	c.devQueues[device] = append(c.devQueues[device], queue)
	c.devMu.Unlock()
	return queue
}

func (c *Caller) QueueSubmit(ctx context.Context, queue vk.Queue, submits []vk.SubmitInfo, fence vk.Fence) error {
	return result(vk.QueueSubmit(queue, uint32(len(submits)), submits, fence))
}

func (c *Caller) QueueWaitIdle(ctx context.Context, queue vk.Queue) error {
	return result(vk.QueueWaitIdle(queue))
}

func (c *Caller) QueuePresentKHR(ctx context.Context, queue vk.Queue, info *vk.PresentInfo) error {
	return result(vk.QueuePresent(queue, info))
}

func (c *Caller) DeviceWaitIdle(ctx context.Context, device vk.Device) error {
	return result(vk.DeviceWaitIdle(device))
}

func (c *Caller) CreateCommandPool(ctx context.Context, device vk.Device, info *vk.CommandPoolCreateInfo) (vk.CommandPool, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, info, nil, &pool)
	return pool, result(ret)
}

func (c *Caller) DestroyCommandPool(ctx context.Context, device vk.Device, pool vk.CommandPool) error {
	vk.DestroyCommandPool(device, pool, nil)
	return nil
}

func (c *Caller) AllocateCommandBuffers(ctx context.Context, device vk.Device, info *vk.CommandBufferAllocateInfo) ([]vk.CommandBuffer, error) {
	bufs := make([]vk.CommandBuffer, info.CommandBufferCount)
	ret := vk.AllocateCommandBuffers(device, info, bufs)
	if ret != vk.Success {
		return nil, vkError(ret)
	}
	return bufs, nil
}

func (c *Caller) FreeCommandBuffers(ctx context.Context, device vk.Device, pool vk.CommandPool, buffers []vk.CommandBuffer) error {
	vk.FreeCommandBuffers(device, pool, uint32(len(buffers)), buffers)
	return nil
}

func (c *Caller) BeginCommandBuffer(ctx context.Context, cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	return result(vk.BeginCommandBuffer(cb, info))
}

func (c *Caller) EndCommandBuffer(ctx context.Context, cb vk.CommandBuffer) error {
	return result(vk.EndCommandBuffer(cb))
}

func (c *Caller) ResetCommandBuffer(ctx context.Context, cb vk.CommandBuffer, flags vk.CommandBufferResetFlags) error {
	return result(vk.ResetCommandBuffer(cb, flags))
}

func (c *Caller) AllocateMemory(ctx context.Context, device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, error) {
	var mem vk.DeviceMemory
	ret := vk.AllocateMemory(device, info, nil, &mem)
	return mem, result(ret)
}

func (c *Caller) FreeMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory) error {
	vk.FreeMemory(device, memory, nil)
	return nil
}

func (c *Caller) MapMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize) (uintptr, error) {
	var ptr unsafePointer
	ret := vk.MapMemory(device, memory, offset, size, 0, &ptr.p)
	if ret != vk.Success {
		return 0, vkError(ret)
	}
	return ptr.addr(), nil
}

func (c *Caller) UnmapMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory) error {
	vk.UnmapMemory(device, memory)
	return nil
}

func (c *Caller) FlushMappedMemoryRanges(ctx context.Context, device vk.Device, ranges []vk.MappedMemoryRange) error {
	return result(vk.FlushMappedMemoryRanges(device, uint32(len(ranges)), ranges))
}

func (c *Caller) InvalidateMappedMemoryRanges(ctx context.Context, device vk.Device, ranges []vk.MappedMemoryRange) error {
	return result(vk.InvalidateMappedMemoryRanges(device, uint32(len(ranges)), ranges))
}

func (c *Caller) CreateBuffer(ctx context.Context, device vk.Device, info *vk.BufferCreateInfo) (vk.Buffer, error) {
	var buf vk.Buffer
	ret := vk.CreateBuffer(device, info, nil, &buf)
	return buf, result(ret)
}

func (c *Caller) DestroyBuffer(ctx context.Context, device vk.Device, buffer vk.Buffer) error {
	vk.DestroyBuffer(device, buffer, nil)
	return nil
}

func (c *Caller) GetBufferMemoryRequirements(ctx context.Context, device vk.Device, buffer vk.Buffer) vk.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, buffer, &req)
	req.Deref()
	return req
}

func (c *Caller) BindBufferMemory(ctx context.Context, device vk.Device, buffer vk.Buffer, memory vk.DeviceMemory, offset vk.DeviceSize) error {
	return result(vk.BindBufferMemory(device, buffer, memory, offset))
}

func (c *Caller) CreateBufferView(ctx context.Context, device vk.Device, info *vk.BufferViewCreateInfo) (vk.BufferView, error) {
	var v vk.BufferView
	ret := vk.CreateBufferView(device, info, nil, &v)
	return v, result(ret)
}

func (c *Caller) DestroyBufferView(ctx context.Context, device vk.Device, view vk.BufferView) error {
	vk.DestroyBufferView(device, view, nil)
	return nil
}

func (c *Caller) CreateImage(ctx context.Context, device vk.Device, info *vk.ImageCreateInfo) (vk.Image, error) {
	var img vk.Image
	ret := vk.CreateImage(device, info, nil, &img)
	return img, result(ret)
}

func (c *Caller) DestroyImage(ctx context.Context, device vk.Device, image vk.Image) error {
	vk.DestroyImage(device, image, nil)
	return nil
}

func (c *Caller) GetImageMemoryRequirements(ctx context.Context, device vk.Device, image vk.Image) vk.MemoryRequirements {
	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, image, &req)
	req.Deref()
	return req
}

func (c *Caller) BindImageMemory(ctx context.Context, device vk.Device, image vk.Image, memory vk.DeviceMemory, offset vk.DeviceSize) error {
	return result(vk.BindImageMemory(device, image, memory, offset))
}

func (c *Caller) CreateImageView(ctx context.Context, device vk.Device, info *vk.ImageViewCreateInfo) (vk.ImageView, error) {
	var v vk.ImageView
	ret := vk.CreateImageView(device, info, nil, &v)
	return v, result(ret)
}

func (c *Caller) DestroyImageView(ctx context.Context, device vk.Device, view vk.ImageView) error {
	vk.DestroyImageView(device, view, nil)
	return nil
}

func (c *Caller) CreateSampler(ctx context.Context, device vk.Device, info *vk.SamplerCreateInfo) (vk.Sampler, error) {
	var s vk.Sampler
	ret := vk.CreateSampler(device, info, nil, &s)
	return s, result(ret)
}

func (c *Caller) DestroySampler(ctx context.Context, device vk.Device, sampler vk.Sampler) error {
	vk.DestroySampler(device, sampler, nil)
	return nil
}

func (c *Caller) CreateShaderModule(ctx context.Context, device vk.Device, info *vk.ShaderModuleCreateInfo) (vk.ShaderModule, error) {
	var m vk.ShaderModule
	ret := vk.CreateShaderModule(device, info, nil, &m)
	return m, result(ret)
}

func (c *Caller) DestroyShaderModule(ctx context.Context, device vk.Device, module vk.ShaderModule) error {
	vk.DestroyShaderModule(device, module, nil)
	return nil
}

func (c *Caller) CreatePipelineCache(ctx context.Context, device vk.Device, info *vk.PipelineCacheCreateInfo) (vk.PipelineCache, error) {
	var pc vk.PipelineCache
	ret := vk.CreatePipelineCache(device, info, nil, &pc)
	return pc, result(ret)
}

func (c *Caller) DestroyPipelineCache(ctx context.Context, device vk.Device, cache vk.PipelineCache) error {
	vk.DestroyPipelineCache(device, cache, nil)
	return nil
}

func (c *Caller) CreatePipelineLayout(ctx context.Context, device vk.Device, info *vk.PipelineLayoutCreateInfo) (vk.PipelineLayout, error) {
	var l vk.PipelineLayout
	ret := vk.CreatePipelineLayout(device, info, nil, &l)
	return l, result(ret)
}

func (c *Caller) DestroyPipelineLayout(ctx context.Context, device vk.Device, layout vk.PipelineLayout) error {
	vk.DestroyPipelineLayout(device, layout, nil)
	return nil
}

func (c *Caller) CreateGraphicsPipelines(ctx context.Context, device vk.Device, cache vk.PipelineCache, infos []vk.GraphicsPipelineCreateInfo) ([]vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, len(infos))
	ret := vk.CreateGraphicsPipelines(device, cache, uint32(len(infos)), infos, nil, pipelines)
	if ret != vk.Success {
		return nil, vkError(ret)
	}
	return pipelines, nil
}

func (c *Caller) CreateComputePipelines(ctx context.Context, device vk.Device, cache vk.PipelineCache, infos []vk.ComputePipelineCreateInfo) ([]vk.Pipeline, error) {
	pipelines := make([]vk.Pipeline, len(infos))
	ret := vk.CreateComputePipelines(device, cache, uint32(len(infos)), infos, nil, pipelines)
	if ret != vk.Success {
		return nil, vkError(ret)
	}
	return pipelines, nil
}

func (c *Caller) DestroyPipeline(ctx context.Context, device vk.Device, pipeline vk.Pipeline) error {
	vk.DestroyPipeline(device, pipeline, nil)
	return nil
}

func (c *Caller) CreateDescriptorSetLayout(ctx context.Context, device vk.Device, info *vk.DescriptorSetLayoutCreateInfo) (vk.DescriptorSetLayout, error) {
	var l vk.DescriptorSetLayout
	ret := vk.CreateDescriptorSetLayout(device, info, nil, &l)
	return l, result(ret)
}

func (c *Caller) DestroyDescriptorSetLayout(ctx context.Context, device vk.Device, layout vk.DescriptorSetLayout) error {
	vk.DestroyDescriptorSetLayout(device, layout, nil)
	return nil
}

func (c *Caller) CreateDescriptorPool(ctx context.Context, device vk.Device, info *vk.DescriptorPoolCreateInfo) (vk.DescriptorPool, error) {
	var p vk.DescriptorPool
	ret := vk.CreateDescriptorPool(device, info, nil, &p)
	return p, result(ret)
}

func (c *Caller) DestroyDescriptorPool(ctx context.Context, device vk.Device, pool vk.DescriptorPool) error {
	vk.DestroyDescriptorPool(device, pool, nil)
	return nil
}

func (c *Caller) AllocateDescriptorSets(ctx context.Context, device vk.Device, info *vk.DescriptorSetAllocateInfo) ([]vk.DescriptorSet, error) {
	sets := make([]vk.DescriptorSet, info.DescriptorSetCount)
	ret := vk.AllocateDescriptorSets(device, info, sets)
	if ret != vk.Success {
		return nil, vkError(ret)
	}
	return sets, nil
}

func (c *Caller) FreeDescriptorSets(ctx context.Context, device vk.Device, pool vk.DescriptorPool, sets []vk.DescriptorSet) error {
	return result(vk.FreeDescriptorSets(device, pool, uint32(len(sets)), sets))
}

func (c *Caller) UpdateDescriptorSets(ctx context.Context, device vk.Device, writes []vk.WriteDescriptorSet, copies []vk.CopyDescriptorSet) error {
	vk.UpdateDescriptorSets(device, uint32(len(writes)), writes, uint32(len(copies)), copies)
	return nil
}

func (c *Caller) CreateDescriptorUpdateTemplate(ctx context.Context, device vk.Device, info *vk.DescriptorUpdateTemplateCreateInfo) (vk.DescriptorUpdateTemplate, error) {
	var t vk.DescriptorUpdateTemplate
	ret := vk.CreateDescriptorUpdateTemplate(device, info, nil, &t)
	return t, result(ret)
}

func (c *Caller) DestroyDescriptorUpdateTemplate(ctx context.Context, device vk.Device, tmpl vk.DescriptorUpdateTemplate) error {
	vk.DestroyDescriptorUpdateTemplate(device, tmpl, nil)
	return nil
}

func (c *Caller) UpdateDescriptorSetWithTemplate(ctx context.Context, device vk.Device, set vk.DescriptorSet, tmpl vk.DescriptorUpdateTemplate, data []byte) error {
	vk.UpdateDescriptorSetWithTemplate(device, set, tmpl, unsafePointerOf(data))
	return nil
}

func (c *Caller) CreateRenderPass(ctx context.Context, device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	var rp vk.RenderPass
	ret := vk.CreateRenderPass(device, info, nil, &rp)
	return rp, result(ret)
}

func (c *Caller) DestroyRenderPass(ctx context.Context, device vk.Device, rp vk.RenderPass) error {
	vk.DestroyRenderPass(device, rp, nil)
	return nil
}

func (c *Caller) CreateFramebuffer(ctx context.Context, device vk.Device, info *vk.FramebufferCreateInfo) (vk.Framebuffer, error) {
	var fb vk.Framebuffer
	ret := vk.CreateFramebuffer(device, info, nil, &fb)
	return fb, result(ret)
}

func (c *Caller) DestroyFramebuffer(ctx context.Context, device vk.Device, fb vk.Framebuffer) error {
	vk.DestroyFramebuffer(device, fb, nil)
	return nil
}

func (c *Caller) CreateFence(ctx context.Context, device vk.Device, info *vk.FenceCreateInfo) (vk.Fence, error) {
	var f vk.Fence
	ret := vk.CreateFence(device, info, nil, &f)
	return f, result(ret)
}

func (c *Caller) DestroyFence(ctx context.Context, device vk.Device, fence vk.Fence) error {
	vk.DestroyFence(device, fence, nil)
	return nil
}

func (c *Caller) ResetFences(ctx context.Context, device vk.Device, fences []vk.Fence) error {
	return result(vk.ResetFences(device, uint32(len(fences)), fences))
}

func (c *Caller) WaitForFences(ctx context.Context, device vk.Device, fences []vk.Fence, waitAll bool, timeout uint64) error {
	all := vk.False
	if waitAll {
		all = vk.True
	}
	return result(vk.WaitForFences(device, uint32(len(fences)), fences, all, timeout))
}

func (c *Caller) GetFenceStatus(ctx context.Context, device vk.Device, fence vk.Fence) error {
	return result(vk.GetFenceStatus(device, fence))
}

func (c *Caller) CreateSemaphore(ctx context.Context, device vk.Device, info *vk.SemaphoreCreateInfo) (vk.Semaphore, error) {
	var s vk.Semaphore
	ret := vk.CreateSemaphore(device, info, nil, &s)
	return s, result(ret)
}

func (c *Caller) DestroySemaphore(ctx context.Context, device vk.Device, sem vk.Semaphore) error {
	vk.DestroySemaphore(device, sem, nil)
	return nil
}

func (c *Caller) CreateEvent(ctx context.Context, device vk.Device, info *vk.EventCreateInfo) (vk.Event, error) {
	var e vk.Event
	ret := vk.CreateEvent(device, info, nil, &e)
	return e, result(ret)
}

func (c *Caller) DestroyEvent(ctx context.Context, device vk.Device, event vk.Event) error {
	vk.DestroyEvent(device, event, nil)
	return nil
}

func (c *Caller) CreateQueryPool(ctx context.Context, device vk.Device, info *vk.QueryPoolCreateInfo) (vk.QueryPool, error) {
	var p vk.QueryPool
	ret := vk.CreateQueryPool(device, info, nil, &p)
	return p, result(ret)
}

func (c *Caller) DestroyQueryPool(ctx context.Context, device vk.Device, pool vk.QueryPool) error {
	vk.DestroyQueryPool(device, pool, nil)
	return nil
}

func (c *Caller) CreateSamplerYcbcrConversion(ctx context.Context, device vk.Device, info *vk.SamplerYcbcrConversionCreateInfo) (vk.SamplerYcbcrConversion, error) {
	var conv vk.SamplerYcbcrConversion
	ret := vk.CreateSamplerYcbcrConversion(device, info, nil, &conv)
	return conv, result(ret)
}

func (c *Caller) DestroySamplerYcbcrConversion(ctx context.Context, device vk.Device, conv vk.SamplerYcbcrConversion) error {
	vk.DestroySamplerYcbcrConversion(device, conv, nil)
	return nil
}

func (c *Caller) DestroySurfaceKHR(ctx context.Context, instance vk.Instance, surface vk.Surface) error {
	vk.DestroySurface(instance, surface, nil)
	return nil
}

func (c *Caller) CreateSwapchainKHR(ctx context.Context, device vk.Device, info *vk.SwapchainCreateInfo) (vk.Swapchain, error) {
	var sc vk.Swapchain
	ret := vk.CreateSwapchain(device, info, nil, &sc)
	return sc, result(ret)
}

func (c *Caller) DestroySwapchainKHR(ctx context.Context, device vk.Device, swapchain vk.Swapchain) error {
	vk.DestroySwapchain(device, swapchain, nil)
	return nil
}

func (c *Caller) GetSwapchainImagesKHR(ctx context.Context, device vk.Device, swapchain vk.Swapchain) ([]vk.Image, error) {
	var count uint32
	ret := vk.GetSwapchainImages(device, swapchain, &count, nil)
	if ret != vk.Success {
		return nil, vkError(ret)
	}
	images := make([]vk.Image, count)
	ret = vk.GetSwapchainImages(device, swapchain, &count, images)
	if ret != vk.Success {
		return nil, vkError(ret)
	}
	return images, nil
}

func (c *Caller) AcquireNextImageKHR(ctx context.Context, device vk.Device, swapchain vk.Swapchain, timeout uint64, semaphore vk.Semaphore, fence vk.Fence) (uint32, error) {
	var idx uint32
	ret := vk.AcquireNextImage(device, swapchain, timeout, semaphore, fence, &idx)
	if ret != vk.Success && ret != vk.Suboptimal {
		return 0, vkError(ret)
	}
	return idx, nil
}

func (c *Caller) CmdBeginRenderPass(ctx context.Context, cb vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) {
	vk.CmdBeginRenderPass(cb, info, contents)
}
func (c *Caller) CmdNextSubpass(ctx context.Context, cb vk.CommandBuffer, contents vk.SubpassContents) {
	vk.CmdNextSubpass(cb, contents)
}
func (c *Caller) CmdEndRenderPass(ctx context.Context, cb vk.CommandBuffer) {
	vk.CmdEndRenderPass(cb)
}
func (c *Caller) CmdBindPipeline(ctx context.Context, cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, pipeline vk.Pipeline) {
	vk.CmdBindPipeline(cb, bindPoint, pipeline)
}
func (c *Caller) CmdBindDescriptorSets(ctx context.Context, cb vk.CommandBuffer, bindPoint vk.PipelineBindPoint, layout vk.PipelineLayout, firstSet uint32, sets []vk.DescriptorSet, dynamicOffsets []uint32) {
	vk.CmdBindDescriptorSets(cb, bindPoint, layout, firstSet, uint32(len(sets)), sets, uint32(len(dynamicOffsets)), dynamicOffsets)
}
func (c *Caller) CmdBindVertexBuffers(ctx context.Context, cb vk.CommandBuffer, firstBinding uint32, buffers []vk.Buffer, offsets []vk.DeviceSize) {
	vk.CmdBindVertexBuffers(cb, firstBinding, uint32(len(buffers)), buffers, offsets)
}
func (c *Caller) CmdBindIndexBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, indexType vk.IndexType) {
	vk.CmdBindIndexBuffer(cb, buffer, offset, indexType)
}
func (c *Caller) CmdSetViewport(ctx context.Context, cb vk.CommandBuffer, first uint32, viewports []vk.Viewport) {
	vk.CmdSetViewport(cb, first, uint32(len(viewports)), viewports)
}
func (c *Caller) CmdSetScissor(ctx context.Context, cb vk.CommandBuffer, first uint32, scissors []vk.Rect2D) {
	vk.CmdSetScissor(cb, first, uint32(len(scissors)), scissors)
}
func (c *Caller) CmdDraw(ctx context.Context, cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(cb, vertexCount, instanceCount, firstVertex, firstInstance)
}
func (c *Caller) CmdDrawIndexed(ctx context.Context, cb vk.CommandBuffer, indexCount, instanceCount, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	vk.CmdDrawIndexed(cb, indexCount, instanceCount, firstIndex, vertexOffset, firstInstance)
}
func (c *Caller) CmdDispatch(ctx context.Context, cb vk.CommandBuffer, x, y, z uint32) {
	vk.CmdDispatch(cb, x, y, z)
}
func (c *Caller) CmdCopyBuffer(ctx context.Context, cb vk.CommandBuffer, src, dst vk.Buffer, regions []vk.BufferCopy) {
	vk.CmdCopyBuffer(cb, src, dst, uint32(len(regions)), regions)
}
func (c *Caller) CmdCopyBufferToImage(ctx context.Context, cb vk.CommandBuffer, src vk.Buffer, dst vk.Image, layout vk.ImageLayout, regions []vk.BufferImageCopy) {
	vk.CmdCopyBufferToImage(cb, src, dst, layout, uint32(len(regions)), regions)
}
func (c *Caller) CmdPipelineBarrier(ctx context.Context, cb vk.CommandBuffer, src, dst vk.PipelineStageFlags, memBarriers []vk.MemoryBarrier, bufBarriers []vk.BufferMemoryBarrier, imgBarriers []vk.ImageMemoryBarrier) {
	vk.CmdPipelineBarrier(cb, src, dst, 0,
		uint32(len(memBarriers)), memBarriers,
		uint32(len(bufBarriers)), bufBarriers,
		uint32(len(imgBarriers)), imgBarriers)
}
func (c *Caller) CmdPushConstants(ctx context.Context, cb vk.CommandBuffer, layout vk.PipelineLayout, stages vk.ShaderStageFlags, offset, size uint32, data []byte) {
	vk.CmdPushConstants(cb, layout, stages, offset, size, unsafePointerOf(data))
}
func (c *Caller) CmdUpdateBuffer(ctx context.Context, cb vk.CommandBuffer, buffer vk.Buffer, offset vk.DeviceSize, data []byte) {
	vk.CmdUpdateBuffer(cb, buffer, offset, vk.DeviceSize(len(data)), unsafePointerOf(data))
}
