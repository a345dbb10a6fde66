package cmdrecorder

// Opcode identifies one recorded vkCmd* call within a
// state.CommandBufferWrapper.Stream entry. Opcode 0 is reserved by
// internal/wire for synthetic memory-update records and is never used
// here.
type Opcode uint64

const (
	OpBindPipeline Opcode = iota + 1
	OpBindDescriptorSets
	OpBindVertexBuffers
	OpBindIndexBuffer
	OpSetViewport
	OpSetScissor
	OpDraw
	OpDrawIndexed
	OpDispatch
	OpCopyBuffer
	OpCopyBufferToImage
	OpPipelineBarrier
	OpPushConstants
	OpUpdateBuffer
	OpBeginRenderPass
	OpNextSubpass
	OpEndRenderPass
)
