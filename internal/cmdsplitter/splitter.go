// Package cmdsplitter splits a recorded command buffer's render pass
// at an arbitrary point so other code (MEC, a layer) can inject extra
// commands between two draws without Vulkan's begin/end-renderpass
// discipline getting in the way.
//
// Grounded on original_source/command_buffer_splitter.h: for every
// subpass it builds three sub-renderpasses (pre-split, post-split,
// end) with load/store ops patched so attachment contents survive the
// extra begin/end pair, and rewrites any pipeline bound at a nonzero
// subpass into a subpass-0 clone against the split pass. Go has no
// direct equivalent of the original's VkRenderPassCreateInfo in-place
// patching through raw pointers, so splitRenderPass works against the
// attachment/subpass slices internal/state.RenderPassWrapper caches at
// creation time and builds fresh vk.AttachmentDescription values
// instead of mutating shared ones.
package cmdsplitter

import (
	"context"

	vk "github.com/vulkan-go/vulkan"

	"github.com/vkcapture/gapid2/internal/cmdrecorder"
	"github.com/vkcapture/gapid2/internal/logging"
	"github.com/vkcapture/gapid2/internal/state"
	"github.com/vkcapture/gapid2/internal/transform"
	"github.com/vkcapture/gapid2/internal/vkhandle"
	"github.com/vkcapture/gapid2/internal/xerr"
)

var log = logging.For("cmdsplitter")

type patchFlags uint32

const (
	patchLoad patchFlags = 1 << iota
	patchStore
	patchFinalLayout
)

// subpassRenderPasses is one subpass's pre-split/post-split/end triple.
type subpassRenderPasses struct {
	preSplit  vk.RenderPass
	postSplit vk.RenderPass
	end       vk.RenderPass
}

// Splitter is the command-buffer splitting transform. It does not sit
// in the normal per-call forwarding chain the way most transforms do;
// instead SplitCommandBuffer is called directly (by the MEC generator
// or a layer) with the indices of the stream records before which a
// callback should run.
type Splitter struct {
	transform.Base
	state *state.Block

	splitRenderPasses map[vkhandle.Handle][]subpassRenderPasses
	rewrittenPipeline map[vkhandle.Handle]map[vkhandle.Handle]vk.Pipeline
}

// NewSplitter constructs a Splitter over block, forwarding to next.
func NewSplitter(block *state.Block, next transform.Transform) *Splitter {
	s := &Splitter{
		state:             block,
		splitRenderPasses: map[vkhandle.Handle][]subpassRenderPasses{},
		rewrittenPipeline: map[vkhandle.Handle]map[vkhandle.Handle]vk.Pipeline{},
	}
	s.Base = transform.NewBase("cmdsplitter", next)
	return s
}

// splitState is the live bookkeeping SplitCommandBuffer's hook needs
// while it walks one recorded stream; kept separate from Splitter so
// concurrent splits of different command buffers don't collide.
type splitState struct {
	anySplit  bool
	current   vk.RenderPass
	subpass   uint32
	beginInfo vk.RenderPassBeginInfo
	stage     splitStage
}

// splitStage mirrors original_source/command_buffer_splitter.h's
// current_stage: which of the subpass's three sub-renderpasses is
// presently open on the downstream command buffer.
type splitStage int

const (
	stageFirst splitStage = iota
	stageSecond
	stageLast
)

// SplitCommandBuffer re-records cb's stream through dst, invoking
// onSplit just before any record whose index is in at, with the
// render pass (if one is open) temporarily ended around the callback
// and re-entered afterward via the subpass's post-split render pass —
// the Go analogue of the original's SplitCommandBuffer lambda.
func (s *Splitter) SplitCommandBuffer(ctx context.Context, cb vk.CommandBuffer, dst cmdrecorder.Dispatcher, at []uint64, onSplit func(vk.CommandBuffer)) error {
	w, ok := s.state.CommandBuffers.Get(vkhandle.Handle(cb))
	if !ok {
		return xerr.New(xerr.KindInvariant, "cmdsplitter: unknown command buffer")
	}
	splitAt := map[uint64]struct{}{}
	for _, i := range at {
		splitAt[i] = struct{}{}
	}
	ss := &splitState{anySplit: len(splitAt) > 0}
	bridge := &splitDispatch{Dispatcher: dst, splitter: s, state: ss}
	hook := func(i int) {
		if _, ok := splitAt[uint64(i)]; !ok {
			return
		}
		if ss.current != vk.NullRenderPass {
			log.Debugf("temporarily leaving render pass %v to split command buffer", ss.current)
			dst.CmdEndRenderPass(ctx, cb)
		}
		onSplit(cb)
		if ss.current != vk.NullRenderPass {
			triples := s.splitRenderPasses[vkhandle.Handle(ss.current)]
			begin := ss.beginInfo
			begin.RenderPass = triples[ss.subpass].postSplit
			dst.CmdBeginRenderPass(ctx, cb, &begin, vk.SubpassContentsInline)
			// The reentry above already put the post-split pass on the
			// command buffer; CmdEndRenderPass/CmdNextSubpass must pick
			// up the walk from there instead of reopening it.
			ss.stage = stageSecond
		}
	}
	err := cmdrecorder.RerecordCommandBuffer(ctx, w, cb, bridge, hook)
	return err
}

// splitDispatch intercepts the render-pass-shaped calls so it can
// track which render pass/subpass is currently open (for the hook
// above) and rewrite the downstream call stream through the
// pre-split/post-split/end triple SplitRenderPass built, mirroring
// original_source/command_buffer_splitter.h's vkCmdBeginRenderPass/
// vkCmdNextSubpass/vkCmdEndRenderPass. Every other call passes through
// untouched.
type splitDispatch struct {
	cmdrecorder.Dispatcher
	splitter *Splitter
	state    *splitState
}

// triples looks up the cached split for rp; SplitRenderPass must have
// been called for rp before SplitCommandBuffer runs.
func (d *splitDispatch) triples(rp vk.RenderPass) ([]subpassRenderPasses, bool) {
	t, ok := d.splitter.splitRenderPasses[vkhandle.Handle(rp)]
	return t, ok
}

func (d *splitDispatch) CmdBeginRenderPass(ctx context.Context, cb vk.CommandBuffer, info *vk.RenderPassBeginInfo, contents vk.SubpassContents) {
	if !d.state.anySplit {
		d.Dispatcher.CmdBeginRenderPass(ctx, cb, info, contents)
		return
	}
	d.state.stage = stageFirst
	d.state.current = info.RenderPass
	d.state.subpass = 0
	d.state.beginInfo = *info

	triples, ok := d.triples(info.RenderPass)
	if !ok {
		log.Warnf("cmdsplitter: render pass %v has no split built, entering unmodified", info.RenderPass)
		d.Dispatcher.CmdBeginRenderPass(ctx, cb, info, contents)
		return
	}
	begin := *info
	begin.RenderPass = triples[0].preSplit
	d.Dispatcher.CmdBeginRenderPass(ctx, cb, &begin, contents)
}

// walkToEnd advances the open subpass through whichever of
// post-split/end it hasn't reached yet, each step closing the
// currently open sub-renderpass and opening the next. Called from
// both CmdNextSubpass and CmdEndRenderPass before they do their own
// real transition.
func (d *splitDispatch) walkToEnd(ctx context.Context, cb vk.CommandBuffer, triples []subpassRenderPasses) {
	if d.state.stage == stageFirst {
		d.Dispatcher.CmdEndRenderPass(ctx, cb)
		begin := d.state.beginInfo
		begin.RenderPass = triples[d.state.subpass].postSplit
		d.Dispatcher.CmdBeginRenderPass(ctx, cb, &begin, vk.SubpassContentsInline)
		d.state.stage = stageSecond
	}
	if d.state.stage == stageSecond {
		d.Dispatcher.CmdEndRenderPass(ctx, cb)
		begin := d.state.beginInfo
		begin.RenderPass = triples[d.state.subpass].end
		d.Dispatcher.CmdBeginRenderPass(ctx, cb, &begin, vk.SubpassContentsInline)
		d.state.stage = stageLast
	}
}

func (d *splitDispatch) CmdNextSubpass(ctx context.Context, cb vk.CommandBuffer, contents vk.SubpassContents) {
	if !d.state.anySplit || d.state.current == vk.NullRenderPass {
		d.Dispatcher.CmdNextSubpass(ctx, cb, contents)
		return
	}
	triples, ok := d.triples(d.state.current)
	if !ok {
		d.Dispatcher.CmdNextSubpass(ctx, cb, contents)
		return
	}
	d.walkToEnd(ctx, cb, triples)
	// stage is now stageLast: the end variant for the finishing
	// subpass is open. Close it and begin the next subpass fresh.
	d.Dispatcher.CmdEndRenderPass(ctx, cb)
	d.state.subpass++
	d.state.stage = stageFirst
	begin := d.state.beginInfo
	begin.RenderPass = triples[d.state.subpass].preSplit
	d.Dispatcher.CmdBeginRenderPass(ctx, cb, &begin, vk.SubpassContentsInline)
}

func (d *splitDispatch) CmdEndRenderPass(ctx context.Context, cb vk.CommandBuffer) {
	if !d.state.anySplit || d.state.current == vk.NullRenderPass {
		d.Dispatcher.CmdEndRenderPass(ctx, cb)
		return
	}
	if triples, ok := d.triples(d.state.current); ok {
		d.walkToEnd(ctx, cb, triples)
	}
	d.state.current = vk.NullRenderPass
	d.state.subpass = 0
	d.Dispatcher.CmdEndRenderPass(ctx, cb)
}

// SplitRenderPass builds (or returns the cached) pre-split/post-split/
// end sub-renderpass triple for every subpass of rp, creating them
// through next so the driver sees real VkRenderPass objects.
func (s *Splitter) SplitRenderPass(ctx context.Context, next transform.Transform, rp vk.RenderPass) ([]vkhandle.Handle, error) {
	h := vkhandle.Handle(rp)
	if triples, ok := s.splitRenderPasses[h]; ok {
		return tripleHandles(triples), nil
	}

	w, ok := s.state.RenderPasses.Get(h)
	if !ok {
		return nil, xerr.New(xerr.KindInvariant, "cmdsplitter: unknown render pass")
	}

	layouts := make([]vk.ImageLayout, len(w.Attachments))
	for i, a := range w.Attachments {
		layouts[i] = a.InitialLayout
	}

	triples := make([]subpassRenderPasses, len(w.Subpasses))
	for i, sp := range w.Subpasses {
		isFirst := i == 0
		isLast := i == len(w.Subpasses)-1

		pre, err := s.buildSubpassRenderPass(ctx, next, w, sp, layouts, boolFlags(!isFirst, false, false))
		if err != nil {
			return nil, err
		}
		post, err := s.buildSubpassRenderPass(ctx, next, w, sp, layouts, boolFlags(true, true, true))
		if err != nil {
			return nil, err
		}
		end, err := s.buildSubpassRenderPass(ctx, next, w, sp, layouts, boolFlags(true, !isLast, !isLast))
		if err != nil {
			return nil, err
		}
		triples[i] = subpassRenderPasses{preSplit: pre, postSplit: post, end: end}
	}
	s.splitRenderPasses[h] = triples
	return tripleHandles(triples), nil
}

func boolFlags(load, store, finalLayout bool) patchFlags {
	var f patchFlags
	if load {
		f |= patchLoad
	}
	if store {
		f |= patchStore
	}
	if finalLayout {
		f |= patchFinalLayout
	}
	return f
}

// buildSubpassRenderPass creates a single-subpass render pass
// containing only sp, with every attachment description patched per
// patch and initial layouts taken from the running layouts tracker,
// mirroring original_source/command_buffer_splitter.h's three
// patch_all_descriptions call sites in split_renderpass.
func (s *Splitter) buildSubpassRenderPass(ctx context.Context, next transform.Transform, w *state.RenderPassWrapper, sp vk.SubpassDescription, layouts []vk.ImageLayout, patch patchFlags) (vk.RenderPass, error) {
	descs := make([]vk.AttachmentDescription, len(w.Attachments))
	copy(descs, w.Attachments)
	for i := range descs {
		descs[i].InitialLayout = layouts[i]
		if patch&patchFinalLayout != 0 {
			descs[i].FinalLayout = layouts[i]
		}
		if patch&patchLoad != 0 {
			descs[i].LoadOp = vk.AttachmentLoadOpLoad
			descs[i].StencilLoadOp = vk.AttachmentLoadOpLoad
		}
		if patch&patchStore != 0 {
			descs[i].StoreOp = vk.AttachmentStoreOpStore
			descs[i].StencilStoreOp = vk.AttachmentStoreOpStore
		}
	}
	applyRef := func(refs []vk.AttachmentReference) {
		for _, r := range refs {
			if r.Attachment != vk.AttachmentUnused {
				layouts[r.Attachment] = r.Layout
				descs[r.Attachment].FinalLayout = r.Layout
			}
		}
	}
	applyRef(sp.PInputAttachments)
	applyRef(sp.PColorAttachments)
	if sp.PDepthStencilAttachment != nil && sp.PDepthStencilAttachment.Attachment != vk.AttachmentUnused {
		r := *sp.PDepthStencilAttachment
		layouts[r.Attachment] = r.Layout
		descs[r.Attachment].FinalLayout = r.Layout
	}

	spd := sp
	spd.PResolveAttachments = nil
	spd.PPreserveAttachments = nil
	spd.PreserveAttachmentCount = 0

	info := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descs)),
		PAttachments:    descs,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{spd},
	}
	rp, err := next.CreateRenderPass(ctx, vk.Device(w.Device), &info)
	if err != nil {
		return vk.NullRenderPass, xerr.Wrap(xerr.KindInvariant, "cmdsplitter: recreate split render pass", err)
	}
	return rp, nil
}

func tripleHandles(triples []subpassRenderPasses) []vkhandle.Handle {
	out := make([]vkhandle.Handle, len(triples))
	for i, t := range triples {
		out[i] = vkhandle.Handle(t.preSplit)
	}
	return out
}

// RewritePipelineForSubpass0 returns pipeline unchanged if it already
// targets subpass 0; otherwise it recreates (and caches) a clone bound
// to subpass 0 of rp, mirroring rewrite_pipeline in
// original_source/command_buffer_splitter.h.
func (s *Splitter) RewritePipelineForSubpass0(ctx context.Context, next transform.Transform, pipeline vk.Pipeline, rp vk.RenderPass) (vk.Pipeline, error) {
	ph := vkhandle.Handle(pipeline)
	if byPass, ok := s.rewrittenPipeline[ph]; ok {
		if p, ok := byPass[vkhandle.Handle(rp)]; ok {
			return p, nil
		}
	}

	pw, ok := s.state.Pipelines.Get(ph)
	if !ok || pw.GraphicsInfo == nil || pw.Subpass == 0 {
		return pipeline, nil
	}

	newInfo := *pw.GraphicsInfo
	newInfo.Subpass = 0
	newInfo.RenderPass = rp

	pipelines, err := next.CreateGraphicsPipelines(ctx, vk.Device(pw.Device), vk.NullPipelineCache, []vk.GraphicsPipelineCreateInfo{newInfo})
	if err != nil {
		return vk.NullPipeline, xerr.Wrap(xerr.KindInvariant, "cmdsplitter: recreate pipeline at subpass 0", err)
	}
	clone := pipelines[0]

	if s.rewrittenPipeline[ph] == nil {
		s.rewrittenPipeline[ph] = map[vkhandle.Handle]vk.Pipeline{}
	}
	s.rewrittenPipeline[ph][vkhandle.Handle(rp)] = clone
	if pw.ClonedForSubpass0 == nil {
		pw.ClonedForSubpass0 = map[vkhandle.Handle]vkhandle.Handle{}
	}
	pw.ClonedForSubpass0[vkhandle.Handle(rp)] = vkhandle.Handle(clone)
	return clone, nil
}
