package state

// Block is the full state block: one Table per handle type listed in
// internal/vkhandle, matching spec §3's handle vocabulary exactly.
type Block struct {
	Instances                 *Table[InstanceWrapper]
	PhysicalDevices           *Table[PhysicalDeviceWrapper]
	Devices                   *Table[DeviceWrapper]
	Queues                    *Table[QueueWrapper]
	CommandBuffers            *Table[CommandBufferWrapper]
	Buffers                   *Table[BufferWrapper]
	Images                    *Table[ImageWrapper]
	ImageViews                *Table[ImageViewWrapper]
	BufferViews               *Table[BufferViewWrapper]
	Samplers                  *Table[SamplerWrapper]
	ShaderModules             *Table[ShaderModuleWrapper]
	Pipelines                 *Table[PipelineWrapper]
	PipelineCaches            *Table[PipelineCacheWrapper]
	PipelineLayouts           *Table[PipelineLayoutWrapper]
	DescriptorSetLayouts      *Table[DescriptorSetLayoutWrapper]
	DescriptorPools           *Table[DescriptorPoolWrapper]
	DescriptorSets            *Table[DescriptorSetWrapper]
	Framebuffers              *Table[FramebufferWrapper]
	RenderPasses              *Table[RenderPassWrapper]
	CommandPools              *Table[CommandPoolWrapper]
	Fences                    *Table[FenceWrapper]
	Semaphores                *Table[SemaphoreWrapper]
	Events                    *Table[EventWrapper]
	QueryPools                *Table[QueryPoolWrapper]
	DeviceMemories            *Table[DeviceMemoryWrapper]
	SamplerYcbcrConversions   *Table[SamplerYcbcrConversionWrapper]
	DescriptorUpdateTemplates *Table[DescriptorUpdateTemplateWrapper]
	Surfaces                  *Table[SurfaceWrapper]
	Swapchains                *Table[SwapchainWrapper]
}

// New constructs an empty state block with every table initialized.
func New() *Block {
	return &Block{
		Instances:                 newTable[InstanceWrapper](),
		PhysicalDevices:           newTable[PhysicalDeviceWrapper](),
		Devices:                   newTable[DeviceWrapper](),
		Queues:                    newTable[QueueWrapper](),
		CommandBuffers:            newTable[CommandBufferWrapper](),
		Buffers:                   newTable[BufferWrapper](),
		Images:                    newTable[ImageWrapper](),
		ImageViews:                newTable[ImageViewWrapper](),
		BufferViews:               newTable[BufferViewWrapper](),
		Samplers:                  newTable[SamplerWrapper](),
		ShaderModules:             newTable[ShaderModuleWrapper](),
		Pipelines:                 newTable[PipelineWrapper](),
		PipelineCaches:            newTable[PipelineCacheWrapper](),
		PipelineLayouts:           newTable[PipelineLayoutWrapper](),
		DescriptorSetLayouts:      newTable[DescriptorSetLayoutWrapper](),
		DescriptorPools:           newTable[DescriptorPoolWrapper](),
		DescriptorSets:            newTable[DescriptorSetWrapper](),
		Framebuffers:              newTable[FramebufferWrapper](),
		RenderPasses:              newTable[RenderPassWrapper](),
		CommandPools:              newTable[CommandPoolWrapper](),
		Fences:                    newTable[FenceWrapper](),
		Semaphores:                newTable[SemaphoreWrapper](),
		Events:                    newTable[EventWrapper](),
		QueryPools:                newTable[QueryPoolWrapper](),
		DeviceMemories:            newTable[DeviceMemoryWrapper](),
		SamplerYcbcrConversions:   newTable[SamplerYcbcrConversionWrapper](),
		DescriptorUpdateTemplates: newTable[DescriptorUpdateTemplateWrapper](),
		Surfaces:                  newTable[SurfaceWrapper](),
		Swapchains:                newTable[SwapchainWrapper](),
	}
}
