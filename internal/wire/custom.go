// Custom encode/decode rules for the entry points and structures
// spec.md §4.B calls out as needing hand-written handling, mirroring
// original_source/gapii/cc/custom.cpp and the paired custom.h
// declarations rather than the struct-walking generic path.
package wire

// EncodeMapMemoryResult stores vkMapMemory's output pointer as its
// integer value only; the replayer never dereferences it; it treats
// the value as an opaque key for mapping the same region back later.
func (e *Encoder) EncodeMapMemoryResult(ptr uintptr) {
	e.Uint64(uint64(ptr))
}

func (d *Decoder) DecodeMapMemoryResult() uintptr {
	return uintptr(d.Uint64())
}

// EncodeUpdateBufferData and EncodePushConstantsData encode the
// trailing blob vkCmdUpdateBuffer/vkCmdPushConstants carry, sized by
// the call's explicit size argument rather than a schema-derived
// length.
func (e *Encoder) EncodeUpdateBufferData(data []byte) { e.Data(data) }
func (d *Decoder) DecodeUpdateBufferData() []byte     { return d.Data() }

func (e *Encoder) EncodePushConstantsData(data []byte) { e.Data(data) }
func (d *Decoder) DecodePushConstantsData() []byte     { return d.Data() }

// TemplateEntry mirrors a VkDescriptorUpdateTemplateEntryCreateInfo's
// {offset, stride, descriptorCount, type} tuple, which
// vkUpdateDescriptorSetWithTemplate's opaque pData blob is sliced
// according to; handle-typed subfields inside each element are
// remapped at replay time (internal/replay), not here.
type TemplateEntry struct {
	Offset          uint32
	Stride          uint32
	DescriptorCount uint32
	DescriptorType  uint32
}

// EncodeTemplateUpdate encodes the raw update blob alongside the
// template layout needed to reinterpret it, since the generic array
// codec has no way to know the element stride/type ahead of time.
func (e *Encoder) EncodeTemplateUpdate(entries []TemplateEntry, data []byte) {
	e.Array(len(entries), func(i int) {
		en := entries[i]
		e.Uint32(en.Offset)
		e.Uint32(en.Stride)
		e.Uint32(en.DescriptorCount)
		e.Uint32(en.DescriptorType)
	})
	e.Data(data)
}

func (d *Decoder) DecodeTemplateUpdate() ([]TemplateEntry, []byte) {
	var entries []TemplateEntry
	d.Array(func(i int) {
		entries = append(entries, TemplateEntry{
			Offset:          d.Uint32(),
			Stride:          d.Uint32(),
			DescriptorCount: d.Uint32(),
			DescriptorType:  d.Uint32(),
		})
	})
	return entries, d.Data()
}

// ClearValue mirrors VkClearValue: a C union of VkClearColorValue
// (4x uint32/float/int32) and VkClearDepthStencilValue (float+uint32).
// Serialized as four raw 32-bit words regardless of which member is
// active, matching spec §4.B exactly, since the decoder has no way to
// know the discriminant without replaying the render pass's attachment
// formats.
type ClearValue [4]uint32

func (e *Encoder) EncodeClearValue(v ClearValue) {
	for _, w := range v {
		e.Uint32(w)
	}
}

func (d *Decoder) DecodeClearValue() ClearValue {
	var v ClearValue
	for i := range v {
		v[i] = d.Uint32()
	}
	return v
}

// ClearColorValue mirrors VkClearColorValue, the same four-word union
// without the depth/stencil member.
type ClearColorValue [4]uint32

func (e *Encoder) EncodeClearColorValue(v ClearColorValue) {
	for _, w := range v {
		e.Uint32(w)
	}
}

func (d *Decoder) DecodeClearColorValue() ClearColorValue {
	var v ClearColorValue
	for i := range v {
		v[i] = d.Uint32()
	}
	return v
}

// PhysicalDeviceGroup mirrors VkPhysicalDeviceGroupProperties: only
// the first PhysicalDeviceCount entries of the fixed-size
// physicalDevices array are meaningful at the point of capture. The
// remaining slots are synthesized as zero handles on decode to
// preserve the struct's fixed layout for any code that walks the full
// array length.
type PhysicalDeviceGroup struct {
	PhysicalDeviceCount uint32
	PhysicalDevices     [32]uint64 // VK_MAX_DEVICE_GROUP_SIZE
	SubsetAllocation    bool
}

func (e *Encoder) EncodePhysicalDeviceGroup(g PhysicalDeviceGroup) {
	e.Uint32(g.PhysicalDeviceCount)
	for i := uint32(0); i < g.PhysicalDeviceCount; i++ {
		e.Uint64(g.PhysicalDevices[i])
	}
	e.Bool(g.SubsetAllocation)
}

func (d *Decoder) DecodePhysicalDeviceGroup() PhysicalDeviceGroup {
	var g PhysicalDeviceGroup
	g.PhysicalDeviceCount = d.Uint32()
	for i := uint32(0); i < g.PhysicalDeviceCount && i < uint32(len(g.PhysicalDevices)); i++ {
		g.PhysicalDevices[i] = d.Uint64()
	}
	g.SubsetAllocation = d.Bool()
	return g
}
