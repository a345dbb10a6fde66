package replay

import "unsafe"

// unsafeSlice views the n bytes at ptr (a real vkMapMemory result) as a
// Go byte slice, so applyMemoryUpdate can copy straight into it.
func unsafeSlice(ptr uintptr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n)
}
