package spy

// Opcode identifies one top-level (device/instance-scope, non-vkCmd*)
// call the spy serializes into the capture stream. Opcode 0 is reserved
// by internal/wire for synthetic memory-update records.
//
// This is a representative subset, not the full several-hundred-entry
// Vulkan surface: spec.md §4.K's distinguishing behaviors are the
// memory-tracking side effects and the device/fence bookkeeping below,
// not exhaustive call replay, and the full per-entry-point serialization
// a real capture tool needs is the kind of thing the original generates
// from a function-table macro (original_source/command_serializer.h)
// rather than hand-writes; porting that generator is out of scope here,
// recorded as a deliberate scope cut in DESIGN.md rather than silently
// dropped.
type Opcode uint64

const (
	OpPhysicalDeviceTriples Opcode = iota + 1
	OpFenceStatuses
)

// Opcodes 1-15 are reserved for this package; internal/mec's prologue
// records start at 16 and share the same capture stream, so the two
// ranges must stay disjoint.
