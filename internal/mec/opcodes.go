package mec

import "github.com/vkcapture/gapid2/internal/cmdrecorder"

// Opcode identifies one record the MEC prologue writes into the
// capture stream. internal/spy's Opcode already claims a handful of
// low values (1-15 reserved for it); MEC's own top-level records start
// at 16, and its mirrored vkCmd* records are offset further still so
// the two schemes never collide in the single stream a replayer reads.
type Opcode uint64

const (
	// OpSeedHandle pre-populates the replayer's handle-remap table for
	// one live object: {handleType uint32, handle uint64, parent
	// uint64, type-specific fields...}. Used for every handle table
	// the prologue walks except command buffers, which get their own
	// opcode below.
	OpSeedHandle Opcode = iota + 16
	// OpBindMemory records a buffer/image's memory binding:
	// {resourceType uint32, resource uint64, memory uint64, offset uint64}.
	OpBindMemory
	// OpSeedCommandBuffer allocates a command buffer ahead of its
	// mirrored stream: {handle uint64, pool uint64, level uint32}.
	OpSeedCommandBuffer
)

// cmdMirrorBase offsets cmdrecorder.Opcode values into MEC's own
// top-level numbering; a mirrored record additionally carries the
// target command buffer's handle as its first field, since at this
// point it's a top-level call rather than a nested per-buffer stream
// entry.
const cmdMirrorBase Opcode = 1000

// ToCmdMirror maps a cmdrecorder.Opcode to the corresponding top-level
// MEC opcode.
func ToCmdMirror(op cmdrecorder.Opcode) Opcode { return cmdMirrorBase + Opcode(op) }

// FromCmdMirror is ToCmdMirror's inverse, used by a replayer decoding
// the prologue's spliced command stream. ok is false if op is not in
// the mirrored range.
func FromCmdMirror(op Opcode) (cmdrecorder.Opcode, bool) {
	if op <= cmdMirrorBase {
		return 0, false
	}
	return cmdrecorder.Opcode(op - cmdMirrorBase), true
}
