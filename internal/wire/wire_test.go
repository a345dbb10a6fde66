package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkcapture/gapid2/internal/vkhandle"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	stats := &Stats{}
	enc := NewEncoder(&buf, stats)

	enc.BeginCall(1)
	enc.Bool(true)
	enc.Uint32(42)
	enc.Int64(-7)
	enc.Float32(1.5)
	enc.Handle(vkhandle.Handle(0xdeadbeef))
	enc.String("hello")
	enc.Array(3, func(i int) { enc.Uint32(uint32(i)) })
	enc.Pointer(true, func() { enc.Uint8(9) })
	enc.Pointer(false, func() { t.Fatal("should not encode absent pointer") })
	require.NoError(t, enc.EndCall())

	dec := NewDecoder(&buf, stats)
	ok, err := dec.NextCall()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1), dec.Opcode())

	assert.True(t, dec.Bool())
	assert.Equal(t, uint32(42), dec.Uint32())
	assert.Equal(t, int64(-7), dec.Int64())
	assert.Equal(t, float32(1.5), dec.Float32())
	assert.Equal(t, vkhandle.Handle(0xdeadbeef), dec.Handle())
	assert.Equal(t, "hello", dec.String())

	var got []uint32
	n := dec.Array(func(i int) { got = append(got, dec.Uint32()) })
	assert.Equal(t, 3, n)
	assert.Equal(t, []uint32{0, 1, 2}, got)

	var ptrVal uint8
	present := dec.Pointer(func() { ptrVal = dec.Uint8() })
	assert.True(t, present)
	assert.Equal(t, uint8(9), ptrVal)

	absent := dec.Pointer(func() { t.Fatal("should not decode absent pointer") })
	assert.False(t, absent)

	require.NoError(t, dec.Err())

	more, err := dec.NextCall()
	require.NoError(t, err)
	assert.False(t, more)

	// The encoder and the decoder each count the one record into the
	// shared Stats.
	assert.Equal(t, uint64(2), stats.Records())
}

func TestDecoderUnderflowIsSticky(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, nil)
	enc.BeginCall(1)
	enc.Uint8(1)
	require.NoError(t, enc.EndCall())

	dec := NewDecoder(&buf, nil)
	ok, err := dec.NextCall()
	require.NoError(t, err)
	require.True(t, ok)

	dec.Opcode()
	dec.Uint8()
	// Record only had one byte; this read underflows.
	v := dec.Uint32()
	assert.Equal(t, uint32(0), v)
	assert.Error(t, dec.Err())

	// Further reads stay zero without panicking once err is sticky.
	assert.Equal(t, uint64(0), dec.Uint64())
}

func TestCustomClearValueRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, nil)
	enc.BeginCall(1)
	cv := ClearValue{1, 2, 3, 4}
	enc.EncodeClearValue(cv)
	require.NoError(t, enc.EndCall())

	dec := NewDecoder(&buf, nil)
	ok, err := dec.NextCall()
	require.NoError(t, err)
	require.True(t, ok)
	dec.Opcode()
	assert.Equal(t, cv, dec.DecodeClearValue())
}

func TestCustomPhysicalDeviceGroupPartialArray(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, nil)
	enc.BeginCall(1)
	g := PhysicalDeviceGroup{PhysicalDeviceCount: 2}
	g.PhysicalDevices[0] = 10
	g.PhysicalDevices[1] = 20
	g.SubsetAllocation = true
	enc.EncodePhysicalDeviceGroup(g)
	require.NoError(t, enc.EndCall())

	dec := NewDecoder(&buf, nil)
	ok, err := dec.NextCall()
	require.NoError(t, err)
	require.True(t, ok)
	dec.Opcode()

	got := dec.DecodePhysicalDeviceGroup()
	assert.Equal(t, uint32(2), got.PhysicalDeviceCount)
	assert.Equal(t, uint64(10), got.PhysicalDevices[0])
	assert.Equal(t, uint64(20), got.PhysicalDevices[1])
	assert.Equal(t, uint64(0), got.PhysicalDevices[2])
	assert.True(t, got.SubsetAllocation)
}

func TestTemplateUpdateRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf, nil)
	enc.BeginCall(1)
	entries := []TemplateEntry{
		{Offset: 0, Stride: 16, DescriptorCount: 1, DescriptorType: 6},
		{Offset: 16, Stride: 16, DescriptorCount: 2, DescriptorType: 6},
	}
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	enc.EncodeTemplateUpdate(entries, data)
	require.NoError(t, enc.EndCall())

	dec := NewDecoder(&buf, nil)
	ok, err := dec.NextCall()
	require.NoError(t, err)
	require.True(t, ok)
	dec.Opcode()

	gotEntries, gotData := dec.DecodeTemplateUpdate()
	assert.Equal(t, entries, gotEntries)
	assert.Equal(t, data, gotData)
}

func TestMemoryUpdateRecordUsesReservedOpcode(t *testing.T) {
	var buf bytes.Buffer
	stats := &Stats{}
	enc := NewEncoder(&buf, stats)
	data := []byte{9, 9, 9, 9}
	require.NoError(t, enc.EncodeMemoryUpdate(vkhandle.Handle(5), 100, 4, data))

	dec := NewDecoder(&buf, nil)
	ok, err := dec.NextCall()
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, OpcodeMemoryUpdate, dec.Opcode())
	mem, offset, size, got := dec.MemoryUpdate()
	assert.Equal(t, vkhandle.Handle(5), mem)
	assert.Equal(t, uint64(100), offset)
	assert.Equal(t, uint64(4), size)
	assert.Equal(t, data, got)
	assert.Equal(t, uint64(4), stats.MemoryUpdateBytes())
}
