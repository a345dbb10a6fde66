// Package vkhandle defines the handle vocabulary shared by the state
// block (internal/state), the wire codec (internal/wire) and the
// replayer (internal/replay): every Vulkan handle is just a 64-bit
// integer tagged with which handle Type it is, per spec.md §3.
package vkhandle

// Type enumerates every handle type the state block tracks, in the
// order spec.md §3 lists them.
type Type int

const (
	Instance Type = iota
	PhysicalDevice
	Device
	Queue
	CommandBuffer
	Buffer
	Image
	ImageView
	BufferView
	Sampler
	ShaderModule
	Pipeline
	PipelineCache
	PipelineLayout
	DescriptorSetLayout
	DescriptorPool
	DescriptorSet
	Framebuffer
	RenderPass
	CommandPool
	Fence
	Semaphore
	Event
	QueryPool
	DeviceMemory
	SamplerYcbcrConversion
	DescriptorUpdateTemplate
	Surface
	Swapchain

	numTypes
)

var names = [numTypes]string{
	Instance:                 "VkInstance",
	PhysicalDevice:           "VkPhysicalDevice",
	Device:                   "VkDevice",
	Queue:                    "VkQueue",
	CommandBuffer:            "VkCommandBuffer",
	Buffer:                   "VkBuffer",
	Image:                    "VkImage",
	ImageView:                "VkImageView",
	BufferView:               "VkBufferView",
	Sampler:                  "VkSampler",
	ShaderModule:             "VkShaderModule",
	Pipeline:                 "VkPipeline",
	PipelineCache:            "VkPipelineCache",
	PipelineLayout:           "VkPipelineLayout",
	DescriptorSetLayout:      "VkDescriptorSetLayout",
	DescriptorPool:           "VkDescriptorPool",
	DescriptorSet:            "VkDescriptorSet",
	Framebuffer:              "VkFramebuffer",
	RenderPass:               "VkRenderPass",
	CommandPool:              "VkCommandPool",
	Fence:                    "VkFence",
	Semaphore:                "VkSemaphore",
	Event:                    "VkEvent",
	QueryPool:                "VkQueryPool",
	DeviceMemory:             "VkDeviceMemory",
	SamplerYcbcrConversion:   "VkSamplerYcbcrConversion",
	DescriptorUpdateTemplate: "VkDescriptorUpdateTemplate",
	Surface:                  "VkSurfaceKHR",
	Swapchain:                "VkSwapchainKHR",
}

func (t Type) String() string {
	if t < 0 || int(t) >= int(numTypes) {
		return "VkUnknownHandle"
	}
	return names[t]
}

// NumTypes is the count of distinct handle types the state block maps
// over; used to size per-type arrays of locks/maps.
const NumTypes = int(numTypes)

// Handle is the raw 64-bit handle value as it crosses the wire. The
// owning Type is carried out of band (the state block keys a separate
// map per Type), matching spec.md §3's "keyed by the opaque handle
// value" wording.
type Handle uint64

// Null is the zero handle; Vulkan treats it as VK_NULL_HANDLE for every
// handle type.
const Null Handle = 0
