// Package replay implements spec.md §4.M: consuming a capture stream
// and driving it against a real Vulkan driver. Grounded on
// original_source/replayer.cpp's Replayer class and the HandleRunner
// it's templated over (original_source/handle_runner.h): every handle
// a trace names is a stand-in for a real handle the replay driver
// returns, so a replayer's core job is the map between the two.
//
// This port's capture stream is narrower than the original's: spy
// (component K) deliberately only serializes the handful of call
// shapes spec §4.K calls out, not a full per-entry-point dump, and the
// command-buffer recorder/splitter (§4.H/§4.I) already cover vkCmd*
// replay fidelity. So Replayer's scope here is exactly what the wire
// stream actually contains: memory-update records, spy's two records
// (physical-device triples, fence statuses), mec's prologue records,
// and mirrored command-buffer streams — not a generic top-level call
// dispatcher.
package replay

import (
	"github.com/vkcapture/gapid2/internal/logging"
	"github.com/vkcapture/gapid2/internal/vkhandle"
)

var log = logging.For("replay")

// Remap is the handle-remap table: for every handle type, the map from
// a trace-side handle (as it appears in the capture stream) to the
// real handle the replay driver returned for it. Grounded on
// handle_runner.h's cast_in/cast_out/cast_from_vk; Go's lack of a
// per-type wrapper class collapses those three into one generic table
// keyed by vkhandle.Type.
type Remap struct {
	tables [vkhandle.NumTypes]map[vkhandle.Handle]vkhandle.Handle
}

// NewRemap returns an empty remap table.
func NewRemap() *Remap {
	r := &Remap{}
	for i := range r.tables {
		r.tables[i] = make(map[vkhandle.Handle]vkhandle.Handle)
	}
	return r
}

// Register records that traceHandle (as seen in the capture stream)
// corresponds to realHandle (as returned by the real driver during
// replay). Registering vkhandle.Null for either side is a no-op,
// mirroring cast_in's "a null handle always maps to null" shortcut.
func (r *Remap) Register(t vkhandle.Type, traceHandle, realHandle vkhandle.Handle) {
	if traceHandle == vkhandle.Null || realHandle == vkhandle.Null {
		return
	}
	r.tables[t][traceHandle] = realHandle
}

// Get returns the real handle traceHandle maps to, or Null, false if
// it was never registered (handle_runner.h's cast_in calls this an
// error; here the caller decides whether a miss is fatal).
func (r *Remap) Get(t vkhandle.Type, traceHandle vkhandle.Handle) (vkhandle.Handle, bool) {
	if traceHandle == vkhandle.Null {
		return vkhandle.Null, true
	}
	h, ok := r.tables[t][traceHandle]
	return h, ok
}

// MustGet is Get, logging and returning Null on a miss instead of
// forcing every call site to branch — a missing handle means one
// prologue/stream record was skipped earlier, already logged there.
func (r *Remap) MustGet(t vkhandle.Type, traceHandle vkhandle.Handle) vkhandle.Handle {
	h, ok := r.Get(t, traceHandle)
	if !ok {
		log.Warnf("replay: no %s remap for trace handle %#x", t, traceHandle)
		return vkhandle.Null
	}
	return h
}
