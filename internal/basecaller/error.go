package basecaller

import (
	"fmt"
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/vkcapture/gapid2/internal/xerr"
)

// vkError wraps a non-success vk.Result as a KindDriver error: spec.md
// §7.1 requires driver errors to pass through unmodified, so callers
// above the base caller see exactly what the driver returned.
func vkError(ret vk.Result) error {
	return xerr.Wrap(xerr.KindDriver, "vulkan driver error", fmt.Errorf("vk result %d", ret))
}

// unsafePointer holds the void* vkMapMemory writes its mapped address
// into; vulkan-go/vulkan represents it as unsafe.Pointer, which cannot
// be converted to uintptr at the call site without an intermediate.
type unsafePointer struct {
	p unsafe.Pointer
}

func (u unsafePointer) addr() uintptr {
	return uintptr(u.p)
}

// unsafePointerOf exposes a []byte's backing array to the driver for
// calls like vkCmdPushConstants/vkCmdUpdateBuffer that take a raw
// pointer plus a separate length.
func unsafePointerOf(data []byte) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return unsafe.Pointer(&data[0])
}
