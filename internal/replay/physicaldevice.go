package replay

import vk "github.com/vulkan-go/vulkan"

// deviceTriple is one {deviceID, vendorID, driverVersion} tuple as
// internal/spy's OpPhysicalDeviceTriples record carries it, identifying
// one physical device as it existed at capture time.
type deviceTriple struct {
	deviceID      uint32
	vendorID      uint32
	driverVersion uint32
}

// candidate is a real physical device available at replay time.
type candidate struct {
	pd    vk.PhysicalDevice
	props vk.PhysicalDeviceProperties
	taken bool
}

// matchPhysicalDevices pairs each recorded trace-time device triple
// with a real device available for replay, in three widening tiers:
// exact {deviceID, vendorID, driverVersion} match, then deviceID+
// vendorID ignoring driver version (logged, replay may be subtly
// wrong), then vendorID alone (logged, "trying and hoping for the
// best"). Each real device is consumed at most once. Grounded on
// original_source/replayer.cpp's vkEnumeratePhysicalDevices override,
// which runs the identical three-tier fallback and the identical
// warnings.
//
// Returns one real vk.PhysicalDevice per trace triple, in the same
// order, or vk.NullHandle (wrapped as vk.PhysicalDevice(0)) where no
// real device could be matched at all.
func matchPhysicalDevices(trace []deviceTriple, real []vk.PhysicalDeviceProperties, realHandles []vk.PhysicalDevice) []vk.PhysicalDevice {
	cands := make([]candidate, len(real))
	for i := range real {
		cands[i] = candidate{pd: realHandles[i], props: real[i]}
	}

	out := make([]vk.PhysicalDevice, len(trace))
	for i, t := range trace {
		out[i] = vk.PhysicalDevice(vk.NullHandle)
		idx := matchOne(cands, t)
		if idx < 0 {
			log.Warnf("replay: no physical device found matching deviceID %#x vendorID %#x", t.deviceID, t.vendorID)
			continue
		}
		cands[idx].taken = true
		out[i] = cands[idx].pd
	}
	return out
}

// matchOne runs the same three-tier search as matchPhysicalDevices for
// a single trace triple against cands, without consuming it (the
// caller marks cands[idx].taken once it accepts the match). Split out
// so internal/replay's OpSeedHandle{PhysicalDevice} path, which sees
// one trace triple per call spread across many records rather than a
// batch, can reuse the exact same matching logic against a persistent
// candidate list.
func matchOne(cands []candidate, t deviceTriple) int {
	// tier 1: exact triple.
	if idx := findCandidate(cands, func(c candidate) bool {
		return c.props.VendorID == t.vendorID && c.props.DeviceID == t.deviceID && c.props.DriverVersion == t.driverVersion
	}); idx >= 0 {
		return idx
	}

	// tier 2: vendor+device match, driver version differs.
	if idx := findCandidate(cands, func(c candidate) bool {
		return c.props.VendorID == t.vendorID && c.props.DeviceID == t.deviceID
	}); idx >= 0 {
		log.Warnf("replay: driver version mismatch for device %q, replay may be incorrect", deviceName(cands[idx].props))
		return idx
	}

	// tier 3: vendor match only.
	if idx := findCandidate(cands, func(c candidate) bool {
		return c.props.VendorID == t.vendorID
	}); idx >= 0 {
		log.Warnf("replay: device ID mismatch for device %q, trying and hoping for the best", deviceName(cands[idx].props))
		return idx
	}

	return -1
}

// deviceName decodes a PhysicalDeviceProperties' fixed-size,
// NUL-terminated C string field.
func deviceName(props vk.PhysicalDeviceProperties) string {
	var name []byte
	for _, b := range props.DeviceName {
		if b == 0 {
			break
		}
		name = append(name, byte(b))
	}
	return string(name)
}

func findCandidate(cands []candidate, pred func(candidate) bool) int {
	for i, c := range cands {
		if c.taken {
			continue
		}
		if pred(c) {
			return i
		}
	}
	return -1
}
