package tracker

import (
	"context"

	vk "github.com/vulkan-go/vulkan"

	"github.com/vkcapture/gapid2/internal/state"
	"github.com/vkcapture/gapid2/internal/transform"
	"github.com/vkcapture/gapid2/internal/vkhandle"
)

// Minimal is the minimal state tracker (§4.E): memory-type properties
// per physical device, device-memory coherence and mapped region, and
// descriptor-update-template layout — just enough for the replayer to
// reproduce memory writes and template updates without the full
// SPIR-V-reflection machinery Full (full.go) adds on top.
//
// Grounded on original_source/minimal_state_tracker.h, which layers
// directly on the creation tracker via CRTP (`template <typename T>
// class MinimalStateTracker : public T`); here that's the ordinary Go
// transform chain — Minimal's Next() is a *Create.
type Minimal struct {
	transform.Base
	state *state.Block
}

// NewMinimal constructs a Minimal transform over block, forwarding to
// next.
func NewMinimal(block *state.Block, next transform.Transform) *Minimal {
	m := &Minimal{state: block}
	m.Base = transform.NewBase("tracker.minimal", next)
	return m
}

func (m *Minimal) GetPhysicalDeviceMemoryProperties(ctx context.Context, pd vk.PhysicalDevice) vk.PhysicalDeviceMemoryProperties {
	props := m.Next().GetPhysicalDeviceMemoryProperties(ctx, pd)
	w := m.state.PhysicalDevices.GetOrCreate(vkhandle.Handle(pd))
	w.MemoryProperties = props
	return props
}

func (m *Minimal) GetPhysicalDeviceProperties(ctx context.Context, pd vk.PhysicalDevice) vk.PhysicalDeviceProperties {
	props := m.Next().GetPhysicalDeviceProperties(ctx, pd)
	w := m.state.PhysicalDevices.GetOrCreate(vkhandle.Handle(pd))
	w.Properties = props
	w.DeviceID = props.DeviceID
	w.VendorID = props.VendorID
	w.DriverVersion = props.DriverVersion
	return props
}

func (m *Minimal) AllocateMemory(ctx context.Context, device vk.Device, info *vk.MemoryAllocateInfo) (vk.DeviceMemory, error) {
	mem, err := m.Next().AllocateMemory(ctx, device, info)
	if err != nil {
		return mem, err
	}
	w, ok := m.state.DeviceMemories.Get(vkhandle.Handle(mem))
	if !ok {
		// Create should have already inserted this; GetOrCreate is
		// defensive against tracker ordering changes.
		w = m.state.DeviceMemories.GetOrCreate(vkhandle.Handle(mem))
	}
	dw, ok := m.devicePhysicalDevice(device)
	if ok {
		if int(info.MemoryTypeIndex) < int(dw.MemoryProperties.MemoryTypeCount) {
			flags := dw.MemoryProperties.MemoryTypes[info.MemoryTypeIndex].PropertyFlags
			w.Coherent = flags&vk.MemoryPropertyFlags(vk.MemoryPropertyHostCoherentBit) != 0
		}
	}
	w.Size = info.AllocationSize
	w.MemoryTypeIndex = info.MemoryTypeIndex
	return mem, nil
}

func (m *Minimal) devicePhysicalDevice(device vk.Device) (*state.PhysicalDeviceWrapper, bool) {
	dev, ok := m.state.Devices.Get(vkhandle.Handle(device))
	if !ok {
		return nil, false
	}
	return m.state.PhysicalDevices.Get(dev.PhysicalDevice)
}

func (m *Minimal) MapMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory, offset, size vk.DeviceSize) (uintptr, error) {
	ptr, err := m.Next().MapMemory(ctx, device, memory, offset, size)
	if err != nil {
		return ptr, err
	}
	w, ok := m.state.DeviceMemories.Get(vkhandle.Handle(memory))
	if !ok {
		return ptr, nil
	}
	if size == vk.DeviceSize(vk.WholeSize) {
		size = w.Size - offset
	}
	if size > w.Size-offset {
		size = w.Size - offset
	}
	w.Mapped = true
	w.MappedOffset = offset
	w.MappedSize = size
	w.MappedPtr = ptr
	return ptr, nil
}

func (m *Minimal) UnmapMemory(ctx context.Context, device vk.Device, memory vk.DeviceMemory) error {
	if w, ok := m.state.DeviceMemories.Get(vkhandle.Handle(memory)); ok {
		w.Mapped = false
		w.MappedPtr = 0
		w.ShadowPtr = 0
	}
	return m.Next().UnmapMemory(ctx, device, memory)
}

func (m *Minimal) CreateDescriptorUpdateTemplate(ctx context.Context, device vk.Device, info *vk.DescriptorUpdateTemplateCreateInfo) (vk.DescriptorUpdateTemplate, error) {
	tmpl, err := m.Next().CreateDescriptorUpdateTemplate(ctx, device, info)
	if err != nil {
		return tmpl, err
	}
	w := m.state.DescriptorUpdateTemplates.GetOrCreate(vkhandle.Handle(tmpl))
	w.Entries = w.Entries[:0]
	for _, e := range info.PDescriptorUpdateEntries {
		w.Entries = append(w.Entries, state.DescriptorUpdateTemplateEntry{
			Binding:         e.DstBinding,
			DescriptorType:  e.DescriptorType,
			Offset:          uint32(e.Offset),
			Stride:          uint32(e.Stride),
			DescriptorCount: e.DescriptorCount,
		})
	}
	return tmpl, nil
}
