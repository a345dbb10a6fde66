package cmdrecorder

import (
	"context"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkcapture/gapid2/internal/state"
	"github.com/vkcapture/gapid2/internal/transform"
	"github.com/vkcapture/gapid2/internal/vkhandle"
)

// fakeNext is a transform.Transform stand-in that just counts calls,
// used both as the Recorder's Next() and as the replay destination.
type fakeNext struct {
	transform.Base
	draws   int
	binds   int
	lastPip vk.Pipeline
}

func newFakeNext() *fakeNext {
	f := &fakeNext{}
	f.Base = transform.NewBase("fake", nil)
	return f
}

func (f *fakeNext) BeginCommandBuffer(ctx context.Context, cb vk.CommandBuffer, info *vk.CommandBufferBeginInfo) error {
	return nil
}

func (f *fakeNext) CmdBindPipeline(ctx context.Context, cb vk.CommandBuffer, bp vk.PipelineBindPoint, pipeline vk.Pipeline) {
	f.binds++
	f.lastPip = pipeline
}

func (f *fakeNext) CmdDraw(ctx context.Context, cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	f.draws++
}

func TestRecorderAppendsStreamAndForwards(t *testing.T) {
	block := state.New()
	cb := vk.CommandBuffer(42)
	block.CommandBuffers.GetOrCreate(vkhandle.Handle(cb))

	next := newFakeNext()
	r := NewRecorder(block, next)

	require.NoError(t, r.BeginCommandBuffer(context.Background(), cb, &vk.CommandBufferBeginInfo{}))
	r.CmdBindPipeline(context.Background(), cb, vk.PipelineBindPointGraphics, vk.Pipeline(7))
	r.CmdDraw(context.Background(), cb, 3, 1, 0, 0)

	assert.Equal(t, 1, next.binds)
	assert.Equal(t, 1, next.draws)

	w, ok := block.CommandBuffers.Get(vkhandle.Handle(cb))
	require.True(t, ok)
	require.Len(t, w.Stream, 2)
	assert.Equal(t, uint64(OpBindPipeline), w.Stream[0].Opcode)
	assert.Equal(t, uint64(OpDraw), w.Stream[1].Opcode)
}

func TestBeginCommandBufferResetsStream(t *testing.T) {
	block := state.New()
	cb := vk.CommandBuffer(1)
	w := block.CommandBuffers.GetOrCreate(vkhandle.Handle(cb))
	w.Stream = append(w.Stream, state.RecordedCall{Opcode: uint64(OpDraw)})

	r := NewRecorder(block, newFakeNext())
	require.NoError(t, r.BeginCommandBuffer(context.Background(), cb, &vk.CommandBufferBeginInfo{}))

	assert.Empty(t, w.Stream)
}

func TestRerecordCommandBufferReplaysDecodedStream(t *testing.T) {
	block := state.New()
	src := vk.CommandBuffer(1)
	block.CommandBuffers.GetOrCreate(vkhandle.Handle(src))

	recordNext := newFakeNext()
	r := NewRecorder(block, recordNext)
	ctx := context.Background()
	r.CmdBindPipeline(ctx, src, vk.PipelineBindPointGraphics, vk.Pipeline(99))
	r.CmdDraw(ctx, src, 6, 1, 0, 0)
	r.CmdDraw(ctx, src, 3, 2, 0, 0)

	w, _ := block.CommandBuffers.Get(vkhandle.Handle(src))

	replayNext := newFakeNext()
	dst := vk.CommandBuffer(2)
	var hooked []int
	err := RerecordCommandBuffer(ctx, w, dst, replayNext, func(i int) { hooked = append(hooked, i) })
	require.NoError(t, err)

	assert.Equal(t, 1, replayNext.binds)
	assert.Equal(t, vk.Pipeline(99), replayNext.lastPip)
	assert.Equal(t, 2, replayNext.draws)
	assert.Equal(t, []int{0, 1, 2}, hooked)
}
