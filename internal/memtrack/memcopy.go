package memtrack

import "unsafe"

// shadowAddr returns the address of a mmap'd byte slice's backing
// array. Safe for the lifetime of the mapping: unix.Mmap's slice is
// never reallocated or moved by the Go runtime (it isn't
// heap-allocated at all), so caching the address is sound.
func shadowAddr(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}

// copySrc copies n bytes from the driver's real mapped pointer into
// dst.
func copySrc(dst []byte, src uintptr, n uint64) {
	if n == 0 || len(dst) == 0 {
		return
	}
	srcSlice := unsafe.Slice((*byte)(unsafe.Pointer(src)), int(n))
	copy(dst, srcSlice)
}

// copySrcAt copies len(dst) bytes from src into dst.
func copySrcAt(dst []byte, src uintptr) {
	copySrc(dst, src, uint64(len(dst)))
}

// copyDst copies src into the driver's real mapped pointer dst.
func copyDst(dst uintptr, src []byte, n uint64) {
	if n == 0 || len(src) == 0 {
		return
	}
	dstSlice := unsafe.Slice((*byte)(unsafe.Pointer(dst)), int(n))
	copy(dstSlice, src[:n])
}
