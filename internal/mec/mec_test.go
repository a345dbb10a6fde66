package mec

import (
	"bytes"
	"context"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkcapture/gapid2/internal/cmdrecorder"
	"github.com/vkcapture/gapid2/internal/state"
	"github.com/vkcapture/gapid2/internal/vkhandle"
	"github.com/vkcapture/gapid2/internal/wire"
)

// record is one decoded prologue entry, enough for the assertions
// below without re-implementing a full per-opcode decoder.
type record struct {
	opcode Opcode
	d      *wire.Decoder
}

func readAll(t *testing.T, buf *bytes.Buffer) []record {
	t.Helper()
	var out []record
	for i := 0; ; i++ {
		// Each record gets its own decoder, advanced to record i, so its
		// fields can still be read after later records were decoded.
		dec := wire.NewDecoder(bytes.NewReader(buf.Bytes()), nil)
		ok := false
		for j := 0; j <= i; j++ {
			var err error
			ok, err = dec.NextCall()
			require.NoError(t, err)
			if !ok {
				break
			}
		}
		if !ok {
			return out
		}
		out = append(out, record{opcode: Opcode(dec.Opcode()), d: dec})
	}
}

func TestGenerateOrdersStepsByDependency(t *testing.T) {
	block := state.New()

	inst := vkhandle.Handle(1)
	block.Instances.GetOrCreate(inst)

	pd := vkhandle.Handle(2)
	pw := block.PhysicalDevices.GetOrCreate(pd)
	pw.Instance = inst
	pw.VendorID = 0x10DE

	buf := vkhandle.Handle(3)
	bw := block.Buffers.GetOrCreate(buf)
	bw.Size = 4096
	bw.BoundMemory = vkhandle.Handle(4)

	mem := vkhandle.Handle(4)
	block.DeviceMemories.GetOrCreate(mem)

	sampler := vkhandle.Handle(5)
	block.Samplers.GetOrCreate(sampler)

	fence := vkhandle.Handle(6)
	fw := block.Fences.GetOrCreate(fence)
	fw.Signaled = true

	var out bytes.Buffer
	enc := wire.NewEncoder(&out, nil)
	require.NoError(t, New(block).Generate(context.Background(), enc))

	records := readAll(t, &out)
	require.NotEmpty(t, records)

	seenMemBind := -1
	seenSampler := -1
	seenFence := -1
	for i, r := range records {
		switch r.opcode {
		case OpBindMemory:
			if seenMemBind == -1 {
				seenMemBind = i
			}
		case OpSeedHandle:
			typ := vkhandle.Type(r.d.Uint32())
			h := r.d.Handle()
			if typ == vkhandle.Sampler && h == sampler && seenSampler == -1 {
				seenSampler = i
			}
			if typ == vkhandle.Fence && h == fence && seenFence == -1 {
				seenFence = i
			}
		}
	}
	assert.NotEqual(t, -1, seenMemBind, "expected a bind-memory record")
	assert.NotEqual(t, -1, seenSampler, "expected a sampler seed record")
	assert.NotEqual(t, -1, seenFence, "expected a fence seed record")
	assert.Less(t, seenMemBind, seenSampler, "memory step must precede helper step")
	assert.Less(t, seenSampler, seenFence, "helper step must precede synchronization step")
}

func TestPhysicalDeviceSeedCarriesTriple(t *testing.T) {
	block := state.New()
	pd := vkhandle.Handle(42)
	w := block.PhysicalDevices.GetOrCreate(pd)
	w.DeviceID = 1
	w.VendorID = 0x10DE
	w.DriverVersion = 7

	var out bytes.Buffer
	enc := wire.NewEncoder(&out, nil)
	require.NoError(t, New(block).Generate(context.Background(), enc))

	records := readAll(t, &out)
	for _, r := range records {
		if r.opcode != OpSeedHandle {
			continue
		}
		typ := vkhandle.Type(r.d.Uint32())
		h := r.d.Handle()
		r.d.Handle() // parent
		if typ != vkhandle.PhysicalDevice || h != pd {
			continue
		}
		assert.Equal(t, uint32(1), r.d.Uint32())
		assert.Equal(t, uint32(0x10DE), r.d.Uint32())
		assert.Equal(t, uint32(7), r.d.Uint32())
		return
	}
	t.Fatal("no physical device seed record found")
}

func TestPipelineFallsBackToShaderCodeWhenModuleDestroyed(t *testing.T) {
	block := state.New()

	pipe := vkhandle.Handle(1)
	w := block.Pipelines.GetOrCreate(pipe)
	w.Device = vkhandle.Handle(99)
	w.Modules = []vkhandle.Handle{vkhandle.Handle(2)}
	w.ShaderCode = [][]byte{[]byte{0x03, 0x02, 0x23, 0x07}}
	// module 2 was destroyed: never created in block.ShaderModules.

	var out bytes.Buffer
	enc := wire.NewEncoder(&out, nil)
	require.NoError(t, New(block).Generate(context.Background(), enc))

	records := readAll(t, &out)
	for _, r := range records {
		if r.opcode != OpSeedHandle {
			continue
		}
		typ := vkhandle.Type(r.d.Uint32())
		h := r.d.Handle()
		r.d.Handle() // parent
		if typ != vkhandle.Pipeline || h != pipe {
			continue
		}
		r.d.Handle() // layout
		r.d.Uint32() // subpass
		count := r.d.Array(func(i int) {
			present := r.d.Bool()
			assert.False(t, present)
			assert.Equal(t, []byte{0x03, 0x02, 0x23, 0x07}, r.d.Data())
		})
		assert.Equal(t, 1, count)
		return
	}
	t.Fatal("no pipeline seed record found")
}

func TestPipelineReferencesLiveModuleDirectly(t *testing.T) {
	block := state.New()

	module := vkhandle.Handle(2)
	block.ShaderModules.GetOrCreate(module)

	pipe := vkhandle.Handle(1)
	w := block.Pipelines.GetOrCreate(pipe)
	w.Modules = []vkhandle.Handle{module}
	w.ShaderCode = [][]byte{nil}

	var out bytes.Buffer
	enc := wire.NewEncoder(&out, nil)
	require.NoError(t, New(block).Generate(context.Background(), enc))

	records := readAll(t, &out)
	for _, r := range records {
		if r.opcode != OpSeedHandle {
			continue
		}
		typ := vkhandle.Type(r.d.Uint32())
		h := r.d.Handle()
		r.d.Handle() // parent
		if typ != vkhandle.Pipeline || h != pipe {
			continue
		}
		r.d.Handle() // layout
		r.d.Uint32() // subpass
		r.d.Array(func(i int) {
			present := r.d.Bool()
			assert.True(t, present)
			assert.Equal(t, module, r.d.Handle())
		})
		return
	}
	t.Fatal("no pipeline seed record found")
}

func TestCommandBufferSpliceIncludesMirroredDraw(t *testing.T) {
	block := state.New()

	cb := vkhandle.Handle(7)
	w := block.CommandBuffers.GetOrCreate(cb)
	w.Pool = vkhandle.Handle(8)
	w.Level = vk.CommandBufferLevelPrimary

	scratch := &bytes.Buffer{}
	enc := wire.NewEncoder(scratch, nil)
	enc.BeginCall(uint64(cmdrecorder.OpDraw))
	enc.Uint32(3)
	enc.Uint32(1)
	enc.Uint32(0)
	enc.Uint32(0)
	require.NoError(t, enc.EndCall())
	w.Stream = []state.RecordedCall{{Opcode: uint64(cmdrecorder.OpDraw), Payload: scratch.Bytes()}}

	var out bytes.Buffer
	genEnc := wire.NewEncoder(&out, nil)
	require.NoError(t, New(block).Generate(context.Background(), genEnc))

	records := readAll(t, &out)
	var sawSeed, sawDraw bool
	for _, r := range records {
		if r.opcode == OpSeedCommandBuffer {
			h := r.d.Handle()
			assert.Equal(t, cb, h)
			sawSeed = true
		}
		if mirrored, ok := FromCmdMirror(r.opcode); ok && mirrored == cmdrecorder.OpDraw {
			target := r.d.Handle()
			assert.Equal(t, cb, target)
			assert.Equal(t, uint32(3), r.d.Uint32())
			sawDraw = true
		}
	}
	assert.True(t, sawSeed, "expected an OpSeedCommandBuffer record")
	assert.True(t, sawDraw, "expected a mirrored draw record")
}
