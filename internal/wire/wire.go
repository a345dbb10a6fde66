// Package wire implements spec.md §4.B: the length-prefixed binary
// stream the Spy writes a call to and the replayer reads one back
// from. Each call is one record: an 8-byte little-endian payload
// length followed by the payload itself; primitives inside the
// payload are fixed-width little-endian, arrays are a count followed
// by a raw run of elements, and pointer-typed fields are a presence
// byte followed by the pointee when present.
//
// Framing is grounded on nornicdb's bolt server (straga-Mimir_lite,
// pkg/bolt/server.go): length-prefixed chunks over a buffered
// io.Reader/io.Writer, read with io.ReadFull and a reusable scratch
// buffer rather than one allocation per field. The original_source
// core/cc/encoder.h enumerates the exact primitive/Struct/Variant
// vocabulary this package's method names follow.
package wire

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"github.com/vkcapture/gapid2/internal/vkhandle"
	"github.com/vkcapture/gapid2/internal/xerr"
)

// Encoder serializes one call at a time into an underlying stream.
// Not safe for concurrent use; internal/spy serializes access with its
// own lock per spec §4.K.
type Encoder struct {
	out     *bufio.Writer
	scratch []byte
	stats   *Stats
}

// NewEncoder wraps w, accumulating byte/record counts into stats (pass
// nil to skip counting).
func NewEncoder(w io.Writer, stats *Stats) *Encoder {
	if stats == nil {
		stats = &Stats{}
	}
	return &Encoder{out: bufio.NewWriter(w), stats: stats}
}

// OpcodeMemoryUpdate is the reserved opcode (§6) marking a synthetic
// memory-update record rather than a real call.
const OpcodeMemoryUpdate uint64 = 0

// BeginCall resets the scratch payload buffer for a new record and
// writes the opcode as the payload's first field, per §6's "uint64
// opcode (implicit via position in a generated dispatch table), then
// each parameter in declaration order".
func (e *Encoder) BeginCall(opcode uint64) {
	e.scratch = e.scratch[:0]
	e.Uint64(opcode)
}

// EncodeMemoryUpdate writes a complete opcode-0 record in one call:
// {memory_handle, offset, size, bytes}, the shape internal/memtrack's
// drain callback and internal/spy's pre-submit flush produce.
func (e *Encoder) EncodeMemoryUpdate(memory vkhandle.Handle, offset, size uint64, data []byte) error {
	e.BeginCall(OpcodeMemoryUpdate)
	e.Handle(memory)
	e.Uint64(offset)
	e.Uint64(size)
	e.scratch = append(e.scratch, data...)
	if err := e.EndCall(); err != nil {
		return err
	}
	e.stats.AddMemoryUpdate(uint64(len(data)))
	return nil
}

// EndCall writes the accumulated payload as one length-prefixed
// record and flushes the underlying writer.
func (e *Encoder) EndCall() error {
	var length [8]byte
	binary.LittleEndian.PutUint64(length[:], uint64(len(e.scratch)))
	if _, err := e.out.Write(length[:]); err != nil {
		return xerr.Wrap(xerr.KindDecode, "write record length", err)
	}
	if _, err := e.out.Write(e.scratch); err != nil {
		return xerr.Wrap(xerr.KindDecode, "write record payload", err)
	}
	e.stats.addRecord(uint64(8 + len(e.scratch)))
	return e.out.Flush()
}

func (e *Encoder) Bool(v bool) {
	if v {
		e.scratch = append(e.scratch, 1)
	} else {
		e.scratch = append(e.scratch, 0)
	}
}

func (e *Encoder) Int8(v int8)   { e.scratch = append(e.scratch, byte(v)) }
func (e *Encoder) Uint8(v uint8) { e.scratch = append(e.scratch, v) }

func (e *Encoder) Uint16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	e.scratch = append(e.scratch, b[:]...)
}
func (e *Encoder) Int16(v int16) { e.Uint16(uint16(v)) }

func (e *Encoder) Uint32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.scratch = append(e.scratch, b[:]...)
}
func (e *Encoder) Int32(v int32)     { e.Uint32(uint32(v)) }
func (e *Encoder) Float32(v float32) { e.Uint32(math.Float32bits(v)) }

func (e *Encoder) Uint64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.scratch = append(e.scratch, b[:]...)
}
func (e *Encoder) Int64(v int64)     { e.Uint64(uint64(v)) }
func (e *Encoder) Float64(v float64) { e.Uint64(math.Float64bits(v)) }

// Handle encodes a Vulkan handle as the raw 64-bit value; the replayer
// remaps it through internal/replay's handle tables.
func (e *Encoder) Handle(h vkhandle.Handle) { e.Uint64(uint64(h)) }

// Data encodes a byte blob as a uint32 length followed by the raw
// bytes, the shape vkCmdUpdateBuffer/vkCmdPushConstants need (custom.go
// calls this directly rather than going through the generic struct
// path).
func (e *Encoder) Data(b []byte) {
	e.Uint32(uint32(len(b)))
	e.scratch = append(e.scratch, b...)
}

func (e *Encoder) String(s string) { e.Data([]byte(s)) }

// Array writes count then invokes encode once per index; encode is
// responsible for emitting one element.
func (e *Encoder) Array(count int, encode func(i int)) {
	e.Uint32(uint32(count))
	for i := 0; i < count; i++ {
		encode(i)
	}
}

// Pointer writes a presence byte, then invokes encode if present is
// true. Mirrors spec §4.B's "presence byte followed by the pointee if
// present" for Vulkan's many optional pNext/pointer fields.
func (e *Encoder) Pointer(present bool, encode func()) {
	e.Bool(present)
	if present {
		encode()
	}
}

// Decoder reads calls back off a stream written by Encoder. Read
// errors are sticky: once set, subsequent primitive reads return the
// zero value without touching the underlying reader, so a struct
// decode function can run to completion and let the caller inspect
// Err() once rather than threading an error return through every
// field read.
type Decoder struct {
	in      *bufio.Reader
	payload []byte
	off     int
	err     error
	stats   *Stats
}

func NewDecoder(r io.Reader, stats *Stats) *Decoder {
	if stats == nil {
		stats = &Stats{}
	}
	return &Decoder{in: bufio.NewReader(r), stats: stats}
}

// NextCall reads the next record's length header and payload. false,
// nil at clean end of stream; false, err on a truncated stream.
func (d *Decoder) NextCall() (bool, error) {
	var length [8]byte
	if _, err := io.ReadFull(d.in, length[:]); err != nil {
		if err == io.EOF {
			return false, nil
		}
		return false, xerr.Wrap(xerr.KindDecode, "read record length", err)
	}
	n := binary.LittleEndian.Uint64(length[:])
	if cap(d.payload) < int(n) {
		d.payload = make([]byte, n)
	} else {
		d.payload = d.payload[:n]
	}
	if _, err := io.ReadFull(d.in, d.payload); err != nil {
		return false, xerr.Wrap(xerr.KindDecode, "read record payload", err)
	}
	d.off = 0
	d.err = nil
	d.stats.addRecord(8 + n)
	return true, nil
}

// Err returns the first decode error seen since the last NextCall,
// wrapped as a KindDecode error per spec §7.3: logged, call skipped.
func (d *Decoder) Err() error { return d.err }

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.payload) {
		d.err = xerr.New(xerr.KindDecode, "record underflow")
		return nil
	}
	b := d.payload[d.off : d.off+n]
	d.off += n
	return b
}

func (d *Decoder) Bool() bool {
	b := d.take(1)
	return len(b) == 1 && b[0] != 0
}

func (d *Decoder) Int8() int8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return int8(b[0])
}

func (d *Decoder) Uint8() uint8 {
	b := d.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (d *Decoder) Uint16() uint16 {
	b := d.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}
func (d *Decoder) Int16() int16 { return int16(d.Uint16()) }

func (d *Decoder) Uint32() uint32 {
	b := d.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}
func (d *Decoder) Int32() int32     { return int32(d.Uint32()) }
func (d *Decoder) Float32() float32 { return math.Float32frombits(d.Uint32()) }

func (d *Decoder) Uint64() uint64 {
	b := d.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}
func (d *Decoder) Int64() int64     { return int64(d.Uint64()) }
func (d *Decoder) Float64() float64 { return math.Float64frombits(d.Uint64()) }

func (d *Decoder) Handle() vkhandle.Handle { return vkhandle.Handle(d.Uint64()) }

func (d *Decoder) Data() []byte {
	n := d.Uint32()
	b := d.take(int(n))
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (d *Decoder) String() string { return string(d.Data()) }

func (d *Decoder) Array(decode func(i int)) int {
	n := int(d.Uint32())
	for i := 0; i < n && d.err == nil; i++ {
		decode(i)
	}
	return n
}

// Pointer reads the presence byte and, if set, invokes decode. Returns
// whether the pointee was present.
func (d *Decoder) Pointer(decode func()) bool {
	present := d.Bool()
	if present && d.err == nil {
		decode()
	}
	return present
}

// Opcode reads the payload's first field. Call once per record,
// before any other field reads; compare against OpcodeMemoryUpdate to
// distinguish a synthetic memory-update record from a real call
// before dispatching on the remaining fields.
func (d *Decoder) Opcode() uint64 { return d.Uint64() }

// MemoryUpdate decodes the remainder of an opcode-0 record: the
// {memory_handle, offset, size, bytes} tuple internal/replay applies
// directly to the live mapped location.
func (d *Decoder) MemoryUpdate() (memory vkhandle.Handle, offset, size uint64, data []byte) {
	memory = d.Handle()
	offset = d.Uint64()
	size = d.Uint64()
	if d.err != nil {
		return
	}
	data = make([]byte, size)
	copy(data, d.take(int(size)))
	return
}
