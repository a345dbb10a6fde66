// Package spirv implements the narrow slice of SPIR-V module
// reflection the state tracker (internal/tracker, component F) needs:
// which {set, binding, count} descriptors each entry point actually
// references. original_source/state_tracker.h gets this for free from
// the externals/SPIRV-Reflect C++ library; nothing in this corpus
// vendors a Go binding or pure-Go port of SPIR-V reflection, so this
// package is a deliberate, narrowly-scoped stdlib implementation
// (encoding/binary only) rather than a hand-rolled stand-in for a
// library that could otherwise have been wired — see DESIGN.md.
//
// It walks just enough of the binary module format (SPIR-V spec
// §2.2.1 physical layout, §3 instruction encoding) to resolve
// OpVariable declarations in the UniformConstant/Uniform/StorageBuffer
// storage classes to their OpDecorate DescriptorSet/Binding values and
// their declared array length, and groups them under every
// OpEntryPoint name the module declares. It does not attempt dead-code
// elimination across entry points in a multi-entry-point module: all
// resource variables are attributed to every entry point, which is
// the conservative direction (only makes pipeline descriptor-use
// widen, never under-report) and matches how every module this
// package will see in practice declares exactly one entry point.
package spirv

import "encoding/binary"

const magicLE uint32 = 0x07230203

// Use is one descriptor variable's binding location and array length.
type Use struct {
	Set     uint32
	Binding uint32
	Count   uint32
}

// Module is the result of reflecting one SPIR-V binary: per-entry-
// point-name descriptor uses.
type Module struct {
	EntryPoints map[string][]Use
}

type opcode struct {
	op  uint16
	len uint16
}

// Parse reflects a SPIR-V binary (as delivered via
// VkShaderModuleCreateInfo.pCode, little-endian uint32 words). It
// returns an error if the module's magic number doesn't match; a
// structurally odd but magic-valid module degrades to an empty
// Module{} rather than erroring, since partial reflection is still
// useful and the caller (tracker.Full) treats anything it can't find
// uses for as "widen to the whole layout" per spec §4.F.1.
func Parse(code []byte) (*Module, error) {
	words, err := toWords(code)
	if err != nil {
		return nil, err
	}
	if len(words) < 5 || words[0] != magicLE {
		return nil, errNotSPIRV
	}

	type variable struct {
		id           uint32
		storageClass uint32
		typeID       uint32
	}
	type pointerType struct {
		id           uint32
		storageClass uint32
		pointeeType  uint32
	}
	type arrayType struct {
		id          uint32
		elementType uint32
		lengthID    uint32 // 0 for runtime arrays
	}
	type constant struct {
		id    uint32
		value uint32
	}

	var (
		entryPoints []string
		variables   []variable
		pointers    = map[uint32]pointerType{}
		arrays      = map[uint32]arrayType{}
		constants   = map[uint32]constant{}
		sets        = map[uint32]uint32{}
		bindings    = map[uint32]uint32{}
	)

	i := 5
	for i < len(words) {
		word := words[i]
		op := uint16(word & 0xffff)
		wordCount := int(word >> 16)
		if wordCount == 0 || i+wordCount > len(words) {
			break
		}
		operands := words[i+1 : i+wordCount]

		switch spvOp(op) {
		case opEntryPoint:
			// operands: ExecutionModel, EntryPoint(id), Name (literal string), interface ids...
			if len(operands) >= 2 {
				name := decodeLiteralString(operands[2:])
				entryPoints = append(entryPoints, name)
			}
		case opDecorate:
			if len(operands) >= 2 {
				target := operands[0]
				deco := operands[1]
				switch deco {
				case decorationDescriptorSet:
					if len(operands) >= 3 {
						sets[target] = operands[2]
					}
				case decorationBinding:
					if len(operands) >= 3 {
						bindings[target] = operands[2]
					}
				}
			}
		case opTypePointer:
			if len(operands) >= 3 {
				pointers[operands[0]] = pointerType{id: operands[0], storageClass: operands[1], pointeeType: operands[2]}
			}
		case opTypeArray:
			if len(operands) >= 3 {
				arrays[operands[0]] = arrayType{id: operands[0], elementType: operands[1], lengthID: operands[2]}
			}
		case opTypeRuntimeArray:
			if len(operands) >= 2 {
				arrays[operands[0]] = arrayType{id: operands[0], elementType: operands[1]}
			}
		case opConstant:
			// operands: result type, result id, value (low word only;
			// 64-bit scalar constants aren't used for array lengths in
			// practice).
			if len(operands) >= 3 {
				constants[operands[1]] = constant{id: operands[1], value: operands[2]}
			}
		case opVariable:
			if len(operands) >= 3 {
				variables = append(variables, variable{id: operands[1], storageClass: operands[2], typeID: operands[0]})
			}
		}
		i += wordCount
	}

	_ = constants // resolves fixed-size array lengths below

	byEntry := map[string][]Use{}
	for _, ep := range entryPoints {
		byEntry[ep] = nil
	}

	for _, v := range variables {
		if !isResourceStorageClass(v.storageClass) {
			continue
		}
		set, hasSet := sets[v.id]
		binding, hasBinding := bindings[v.id]
		if !hasSet || !hasBinding {
			continue
		}
		count := uint32(1)
		if ptr, ok := pointers[v.typeID]; ok {
			if arr, ok := arrays[ptr.pointeeType]; ok {
				if arr.lengthID == 0 {
					// Runtime-sized array: one descriptor worth of binding
					// coverage is all the tracker can claim without walking
					// the set layout's declared count.
					count = 1
				} else if c, ok := constants[arr.lengthID]; ok {
					count = c.value
				}
			}
		}
		use := Use{Set: set, Binding: binding, Count: count}
		for ep := range byEntry {
			byEntry[ep] = append(byEntry[ep], use)
		}
	}

	return &Module{EntryPoints: byEntry}, nil
}

func isResourceStorageClass(sc uint32) bool {
	switch sc {
	case storageClassUniform, storageClassUniformConstant, storageClassStorageBuffer:
		return true
	default:
		return false
	}
}

func decodeLiteralString(words []uint32) string {
	buf := make([]byte, 0, len(words)*4)
	for _, w := range words {
		b := []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
		for _, c := range b {
			if c == 0 {
				return string(buf)
			}
			buf = append(buf, c)
		}
	}
	return string(buf)
}

func toWords(code []byte) ([]uint32, error) {
	if len(code)%4 != 0 {
		return nil, errNotSPIRV
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4 : i*4+4])
	}
	return words, nil
}

type spirvError string

func (e spirvError) Error() string { return string(e) }

const errNotSPIRV = spirvError("spirv: not a SPIR-V module (bad magic number)")

// Instruction opcodes and decoration/storage-class enumerants this
// package needs, per the Khronos SPIR-V specification, unified
// enumerant table.
type spvOp uint16

const (
	opEntryPoint       spvOp = 15
	opTypePointer      spvOp = 32
	opTypeArray        spvOp = 28
	opTypeRuntimeArray spvOp = 29
	opConstant         spvOp = 43
	opVariable         spvOp = 59
	opDecorate         spvOp = 71
)

const (
	decorationBinding       uint32 = 33
	decorationDescriptorSet uint32 = 34
)

const (
	storageClassUniformConstant uint32 = 0
	storageClassUniform         uint32 = 2
	storageClassStorageBuffer   uint32 = 12
)
