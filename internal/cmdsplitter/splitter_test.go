package cmdsplitter

import (
	"context"
	"testing"

	vk "github.com/vulkan-go/vulkan"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vkcapture/gapid2/internal/cmdrecorder"
	"github.com/vkcapture/gapid2/internal/state"
	"github.com/vkcapture/gapid2/internal/transform"
	"github.com/vkcapture/gapid2/internal/vkhandle"
)

// recordingNext is a transform.Transform stand-in that counts calls
// and hands out incrementing fake render pass handles.
type recordingNext struct {
	transform.Base
	begins, ends, nexts int
	created             int
	lastBeginInfo       *vk.RenderPassBeginInfo
	beginRenderPasses   []vk.RenderPass
}

func newRecordingNext() *recordingNext {
	n := &recordingNext{}
	n.Base = transform.NewBase("fake", nil)
	return n
}

func (n *recordingNext) CmdBeginRenderPass(ctx context.Context, cb vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) {
	n.begins++
	i := *info
	n.lastBeginInfo = &i
	n.beginRenderPasses = append(n.beginRenderPasses, info.RenderPass)
}

func (n *recordingNext) CmdEndRenderPass(ctx context.Context, cb vk.CommandBuffer) {
	n.ends++
}

func (n *recordingNext) CmdNextSubpass(ctx context.Context, cb vk.CommandBuffer, contents vk.SubpassContents) {
	n.nexts++
}

func (n *recordingNext) CmdDraw(ctx context.Context, cb vk.CommandBuffer, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
}

func (n *recordingNext) CreateRenderPass(ctx context.Context, device vk.Device, info *vk.RenderPassCreateInfo) (vk.RenderPass, error) {
	n.created++
	return vk.RenderPass(uint64(1000 + n.created)), nil
}

func setupRenderPass(t *testing.T, block *state.Block) vk.RenderPass {
	t.Helper()
	rp := vk.RenderPass(1)
	w := block.RenderPasses.GetOrCreate(vkhandle.Handle(rp))
	w.Device = vkhandle.Handle(vk.Device(1))
	w.Attachments = []vk.AttachmentDescription{
		{
			LoadOp:        vk.AttachmentLoadOpClear,
			StoreOp:       vk.AttachmentStoreOpStore,
			InitialLayout: vk.ImageLayoutUndefined,
			FinalLayout:   vk.ImageLayoutPresentSrc,
		},
	}
	colorRefs := []vk.AttachmentReference{{Attachment: 0, Layout: vk.ImageLayoutColorAttachmentOptimal}}
	w.Subpasses = []vk.SubpassDescription{
		{
			PipelineBindPoint: vk.PipelineBindPointGraphics,
			PColorAttachments: colorRefs,
		},
	}
	w.AttachmentCount = 1
	w.SubpassCount = 1
	return rp
}

func TestSplitRenderPassCreatesThreePerSubpassAndCaches(t *testing.T) {
	block := state.New()
	rp := setupRenderPass(t, block)

	s := NewSplitter(block, newRecordingNext())
	next := newRecordingNext()

	triples, err := s.SplitRenderPass(context.Background(), next, rp)
	require.NoError(t, err)
	require.Len(t, triples, 1)
	assert.Equal(t, 3, next.created, "pre/post/end render passes created once")

	_, err = s.SplitRenderPass(context.Background(), next, rp)
	require.NoError(t, err)
	assert.Equal(t, 3, next.created, "second call must hit the cache, not recreate")
}

func TestRewritePipelineForSubpass0SkipsAlreadyZero(t *testing.T) {
	block := state.New()
	p := vk.Pipeline(5)
	w := block.Pipelines.GetOrCreate(vkhandle.Handle(p))
	w.Subpass = 0
	w.GraphicsInfo = &vk.GraphicsPipelineCreateInfo{}

	s := NewSplitter(block, newRecordingNext())
	next := newRecordingNext()
	got, err := s.RewritePipelineForSubpass0(context.Background(), next, p, vk.RenderPass(1))
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestSplitCommandBufferInvokesHookAndReentersRenderPass(t *testing.T) {
	block := state.New()
	rp := setupRenderPass(t, block)
	cb := vk.CommandBuffer(1)
	block.CommandBuffers.GetOrCreate(vkhandle.Handle(cb))

	recorder := cmdrecorder.NewRecorder(block, newRecordingNext())
	ctx := context.Background()
	recorder.CmdBeginRenderPass(ctx, cb, &vk.RenderPassBeginInfo{RenderPass: rp}, vk.SubpassContentsInline)
	recorder.CmdDraw(ctx, cb, 3, 1, 0, 0)
	recorder.CmdDraw(ctx, cb, 3, 1, 0, 0)
	recorder.CmdEndRenderPass(ctx, cb)

	s := NewSplitter(block, newRecordingNext())
	buildNext := newRecordingNext()
	triples, err := s.SplitRenderPass(ctx, buildNext, rp)
	require.NoError(t, err)
	require.Len(t, triples, 1)
	cached := s.splitRenderPasses[vkhandle.Handle(rp)][0]

	dst := newRecordingNext()
	splitCalls := 0
	w, _ := block.CommandBuffers.Get(vkhandle.Handle(cb))
	err = s.SplitCommandBuffer(ctx, cb, dst, []uint64{2}, func(vk.CommandBuffer) { splitCalls++ })
	require.NoError(t, err)
	assert.Equal(t, 1, splitCalls)
	assert.NotEmpty(t, w.Stream)
	// Begin(pre0) from the rewritten CmdBeginRenderPass, Begin(post0)
	// from the hook's reentry around the split, Begin(end0) from
	// CmdEndRenderPass walking the remaining stage before its real end:
	// exactly the three sub-renderpasses the split built, in that
	// order and no others.
	assert.Equal(t, []vk.RenderPass{cached.preSplit, cached.postSplit, cached.end}, dst.beginRenderPasses)
	assert.Equal(t, 3, dst.ends)
}
