// Package memtrack implements spec §4.G's memory tracker: a
// page-granularity dirty-tracking shadow in front of every
// host-coherent vkMapMemory region, so the spy (component K) only has
// to ship the dirty_read_pages a host write actually touched instead
// of re-serializing the whole mapped range on every submit.
//
// Grounded on original_source/memory_tracker.h. The original traps
// arbitrary CPU stores to the mapped region process-wide via a
// Windows vectored exception handler (AddVectoredExceptionHandler) —
// its own file already separates the OS trampoline (the free function
// `handler`) from the portable bookkeeping (the `handle_exception`
// method, `AddTrackedRange`, `for_dirty_in_mem`, ...). This package
// keeps that same split: Tracker.HandleFault is the portable core
// (handle_exception's equivalent); the OS-specific trampoline that
// feeds it a faulting address lives in signal_linux.go. mmap/mprotect
// replace VirtualAlloc/VirtualProtect via golang.org/x/sys/unix, the
// same mmap idiom other_examples/...go-ublk/internal/queue/runner.go
// uses for its shared ring buffers.
package memtrack

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/vkcapture/gapid2/internal/logging"
	"github.com/vkcapture/gapid2/internal/vkhandle"
)

var log = logging.For("memtrack")

const pageSize = 4096

func pageAlign(n uint64) uint64 {
	return (n + pageSize - 1) &^ (pageSize - 1)
}

func pageBase(addr uintptr) uintptr {
	return addr &^ (pageSize - 1)
}

// rangeData is one tracked mapping: srcPtr is the driver's real
// vkMapMemory pointer, shadow is the mmap'd, page-protected stand-in
// the application is handed instead.
type rangeData struct {
	srcPtr     uintptr
	shadow     []byte
	shadowBase uintptr
	size       uint64
	memory     vkhandle.Handle
}

// Tracker is the live memory tracker; only one may exist per process
// (spec §9's Open Question, recorded in DESIGN.md), enforced via the
// package-level atomic.Pointer installed by New.
type Tracker struct {
	mu           sync.Mutex
	byMemory     map[vkhandle.Handle]*rangeData
	byShadowBase map[uintptr]*rangeData
	dirtyPages   map[uintptr]struct{}
	totalPages   uint64
}

var current atomic.Pointer[Tracker]

// Current returns the process's installed tracker, or nil if none is
// installed.
func Current() *Tracker { return current.Load() }

// New installs this process's memory tracker. It fails if one is
// already installed.
func New() (*Tracker, error) {
	t := &Tracker{
		byMemory:     make(map[vkhandle.Handle]*rangeData),
		byShadowBase: make(map[uintptr]*rangeData),
		dirtyPages:   make(map[uintptr]struct{}),
	}
	if !current.CompareAndSwap(nil, t) {
		return nil, fmt.Errorf("memtrack: a tracker is already installed")
	}
	return t, nil
}

// Close uninstalls the tracker. Any still-tracked ranges are left
// mapped; callers should RemoveTrackedRange each one first.
func (t *Tracker) Close() {
	current.CompareAndSwap(t, nil)
}

// AddTrackedRange replaces the driver's mapped pointer with a
// page-protected shadow copy the application will actually read and
// write, returning the shadow's address. srcPtr/mappedSize describe
// the driver's real vkMapMemory region.
func (t *Tracker) AddTrackedRange(mem vkhandle.Handle, srcPtr uintptr, mappedSize uint64) (uintptr, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	size := pageAlign(mappedSize)
	shadow, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return 0, fmt.Errorf("memtrack: mmap shadow range: %w", err)
	}
	copySrc(shadow, srcPtr, mappedSize)

	if err := unix.Mprotect(shadow, unix.PROT_READ); err != nil {
		unix.Munmap(shadow)
		return 0, fmt.Errorf("memtrack: mprotect read-only: %w", err)
	}

	rd := &rangeData{
		srcPtr:     srcPtr,
		shadow:     shadow,
		shadowBase: shadowAddr(shadow),
		size:       size,
		memory:     mem,
	}
	t.byMemory[mem] = rd
	t.byShadowBase[rd.shadowBase] = rd
	t.totalPages += size / pageSize
	return rd.shadowBase, nil
}

// RemoveTrackedRange flushes the shadow region back to the driver's
// real mapping and releases it. Matches the original's comment: a
// VkDeviceMemory can only be mapped once at a time, so there is never
// more than one shadow per memory object live simultaneously.
func (t *Tracker) RemoveTrackedRange(mem vkhandle.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	rd, ok := t.byMemory[mem]
	if !ok {
		return nil
	}
	if err := unix.Mprotect(rd.shadow, unix.PROT_READ|unix.PROT_WRITE); err != nil {
		return fmt.Errorf("memtrack: mprotect read-write on teardown: %w", err)
	}
	copyDst(rd.srcPtr, rd.shadow, rd.size)
	for page := rd.shadowBase; page < rd.shadowBase+uintptr(rd.size); page += pageSize {
		delete(t.dirtyPages, page)
	}
	delete(t.byShadowBase, rd.shadowBase)
	delete(t.byMemory, mem)
	return unix.Munmap(rd.shadow)
}

// HandleFault is the portable fault-handling core (handle_exception's
// equivalent): given a faulting address and whether the access was a
// read, it refreshes the faulting page from the driver's real mapping
// and widens its protection so the access can retry, returning true
// if addr fell within a tracked range.
//
// On a read fault the page is restored to the driver's current
// contents (a GPU write may have landed since the shadow was last
// synced) and marked read-write so the application's own subsequent
// writes don't re-fault. On a write fault the page is likewise
// refreshed first — in case a GPU write raced the application's first
// touch — then marked dirty so a later ForDirtyInMem drains it back.
func (t *Tracker) HandleFault(addr uintptr, read bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	rd := t.rangeForLocked(addr)
	if rd == nil {
		return false
	}
	page := pageBase(addr)
	offset := page - rd.shadowBase

	if err := unix.Mprotect(rd.shadow[offset:offset+pageSize], unix.PROT_READ|unix.PROT_WRITE); err != nil {
		log.WithError(err).Warn("mprotect read-write during fault handling failed")
		return true
	}
	n := pageSize
	if offset+uintptr(n) > uintptr(rd.size) {
		n = int(uintptr(rd.size) - offset)
	}
	copySrcAt(rd.shadow[offset:offset+uintptr(n)], rd.srcPtr+offset)

	if !read {
		t.dirtyPages[page] = struct{}{}
	}
	return true
}

func (t *Tracker) rangeForLocked(addr uintptr) *rangeData {
	for base, rd := range t.byShadowBase {
		if addr >= base && addr < base+uintptr(rd.size) {
			return rd
		}
	}
	return nil
}

// ForDirtyInMem drains every dirty page belonging to mem's tracked
// range back to the driver's real mapping, invoking fn with each
// page's offset within the mapping and its freshly-copied bytes. This
// is the pre-submit drain spy (component K) calls so the driver (and
// thus the GPU) observes writes the application made to the shadow.
func (t *Tracker) ForDirtyInMem(mem vkhandle.Handle, fn func(offset uint64, data []byte)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rd, ok := t.byMemory[mem]
	if !ok {
		return
	}
	for page := range t.dirtyPages {
		if page < rd.shadowBase || page >= rd.shadowBase+uintptr(rd.size) {
			continue
		}
		offset := page - rd.shadowBase
		n := uint64(pageSize)
		if offset+pageSize > uintptr(rd.size) {
			n = rd.size - uint64(offset)
		}
		data := append([]byte(nil), rd.shadow[offset:uintptr(offset)+uintptr(n)]...)
		copyDst(rd.srcPtr+offset, data, n)
		if err := unix.Mprotect(rd.shadow[offset:uintptr(offset)+pageSize], unix.PROT_READ); err != nil {
			log.WithError(err).Warn("mprotect read-only after drain failed")
		}
		delete(t.dirtyPages, page)
		fn(uint64(offset), data)
	}
}

// AddGPUWrite marks the pages covering [offset, offset+size) within
// mem's tracked range as written by the GPU: they lose all access, so
// the application's next touch of them faults into HandleFault, which
// refreshes the page from the driver's real mapping.
func (t *Tracker) AddGPUWrite(mem vkhandle.Handle, offset, size uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rd, ok := t.byMemory[mem]
	if !ok {
		return
	}
	start := pageBase(rd.shadowBase + uintptr(offset))
	end := pageBase(rd.shadowBase+uintptr(offset+size)) + pageSize
	if end > rd.shadowBase+uintptr(rd.size) {
		end = rd.shadowBase + uintptr(rd.size)
	}
	n := int(end - start)
	if n <= 0 {
		return
	}
	lo := start - rd.shadowBase
	if err := unix.Mprotect(rd.shadow[lo:lo+uintptr(n)], unix.PROT_NONE); err != nil {
		log.WithError(err).Warn("mprotect for GPU write window failed")
	}
}

// InvalidateMappedRange refreshes [offset, offset+size) in mem's
// shadow from the driver's real mapping, mirroring
// vkInvalidateMappedMemoryRanges for a non-coherent allocation the
// application explicitly asked to re-sync.
func (t *Tracker) InvalidateMappedRange(mem vkhandle.Handle, offset, size uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rd, ok := t.byMemory[mem]
	if !ok {
		return
	}
	if offset+size > rd.size {
		size = rd.size - offset
	}
	copySrcAt(rd.shadow[offset:offset+size], rd.srcPtr+uintptr(offset))
}

// TotalPages reports how many shadow pages AddTrackedRange has
// allocated over the tracker's lifetime, for diagnostics/metrics;
// RemoveTrackedRange does not decrease it.
func (t *Tracker) TotalPages() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalPages
}
