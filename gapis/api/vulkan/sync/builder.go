// Copyright (C) 2022 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sync

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/api/pass"
	"github.com/google/vksync/gapis/api/vulkan"
	"github.com/pkg/errors"
)

const (
	graphicsBindPoint = 0
	computeBindPoint  = 1

	graphicsShaders = vulkan.VkShaderStageFlags(vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_ALL_GRAPHICS)
)

// access is a memory access of an action command before it becomes a node.
type access struct {
	typ    NodeType
	stage  vulkan.VkPipelineStageFlagBits
	access vulkan.VkAccessFlagBits
	region MemRegion
}

type boundSet struct {
	set            *vulkan.DescriptorSetObject
	dynamicOffsets []uint32
}

type vertexBinding struct {
	buffer vulkan.VkBuffer
	offset uint64
}

// memAccess is a memory node and the record that produced it.
type memAccess struct {
	id     NodeID
	index  int
	origin vulkan.Origin
}

type transition struct {
	pre, post NodeID
	region    MemRegion
	command   CommandID
	index     int
	origin    vulkan.Origin
}

// barrierScope is one global, buffer or image barrier of a barrier command.
type barrierScope struct {
	src, dst   vulkan.VkAccessFlags
	region     MemRegion
	transition bool
}

// builder is the pass that turns the commands of one command buffer into a
// sync graph.
type builder struct {
	state  *vulkan.State
	sink   Sink
	config Config
	queue  uint64

	graph      *Graph
	next       CommandID
	subpasses  uint64
	pipelines  vulkan.PipelineBindings
	sets       [2]map[uint32]boundSet
	vertex     map[uint32]vertexBinding
	renderPass *vulkan.RenderPassObject
	subpass    uint32
	// subpassIDs maps subpass indices of the active render pass to the
	// Subpass of their command IDs.
	subpassIDs []uint64

	accesses    []memAccess
	seen        map[NodeID]struct{}
	transitions []transition
	hazards     []Hazard
	aborted     bool
}

func newBuilder(state *vulkan.State, sink Sink, config Config, queue uint64) *builder {
	return &builder{state: state, sink: sink, config: config, queue: queue}
}

func (b *builder) BeginBuffer(ctx context.Context, cb *vulkan.CommandBuffer) error {
	b.graph = NewGraph()
	b.next = CommandID{Queue: b.queue, Subpass: NoSubpass}
	b.subpasses = 0
	b.pipelines = vulkan.PipelineBindings{}
	b.sets = [2]map[uint32]boundSet{{}, {}}
	b.vertex = map[uint32]vertexBinding{}
	b.renderPass = nil
	b.subpassIDs = nil
	b.seen = map[NodeID]struct{}{}
	return nil
}

func (b *builder) EndBuffer(ctx context.Context) error {
	if b.renderPass != nil && !b.aborted {
		log.W(ctx, "Command buffer ends inside render pass %v", b.renderPass.Handle)
	}
	return nil
}

func (b *builder) ProcessCommand(ctx context.Context, index int, rec vulkan.Record) error {
	switch cmd := rec.Command.(type) {
	case *vulkan.VkCmdBindPipeline:
		if cmd.PipelineBindPoint != vulkan.VkPipelineBindPoint_VK_PIPELINE_BIND_POINT_GRAPHICS &&
			cmd.PipelineBindPoint != vulkan.VkPipelineBindPoint_VK_PIPELINE_BIND_POINT_COMPUTE {
			return b.fail(ctx, index, rec, Hazard{Kind: Unsupported,
				Message: fmt.Sprintf("pipeline bind point %v is not modelled", cmd.PipelineBindPoint)})
		}
		cmd.BindPipeline(&b.pipelines)
	case *vulkan.VkCmdSetViewport, *vulkan.VkCmdSetScissor:
		// Dynamic state does not touch memory.
	case *vulkan.VkCmdBindDescriptorSets:
		return b.bindDescriptorSets(ctx, index, rec, cmd)
	case *vulkan.VkCmdBindVertexBuffers:
		for i, buf := range cmd.Buffers {
			vb := vertexBinding{buffer: buf}
			if i < len(cmd.Offsets) {
				vb.offset = cmd.Offsets[i]
			}
			b.vertex[cmd.FirstBinding+uint32(i)] = vb
		}
	case *vulkan.VkCmdDraw, *vulkan.VkCmdDrawIndexed:
		return b.draw(ctx, index, rec)
	case *vulkan.VkCmdCopyImage:
		return b.copyImage(ctx, index, rec, cmd)
	case *vulkan.VkCmdPipelineBarrier:
		return b.pipelineBarrier(ctx, index, rec, cmd)
	case *vulkan.VkCmdBeginRenderPass:
		return b.beginRenderPass(ctx, index, rec, cmd)
	case *vulkan.VkCmdNextSubpass:
		return b.nextSubpass(ctx, index, rec)
	case *vulkan.VkCmdEndRenderPass:
		return b.endRenderPass(ctx, index, rec)
	case *vulkan.VkCmdExecuteCommands:
		return b.fail(ctx, index, rec, Hazard{Kind: Unsupported,
			Message: "execution of secondary command buffers is not modelled"})
	default:
		return b.fail(ctx, index, rec, Hazard{Kind: Unsupported,
			Message: fmt.Sprintf("%v is not modelled", rec.Command.CmdName())})
	}
	return nil
}

// fail reports h against the record and returns pass.ErrStop if traversal
// must end.
func (b *builder) fail(ctx context.Context, index int, rec vulkan.Record, h Hazard) error {
	h.FirstIndex, h.SecondIndex = index, NoCommand
	h.FirstOrigin = rec.Origin
	if b.report(ctx, h) {
		b.aborted = true
		return errors.Wrapf(pass.ErrStop, "%v at command %d", h.Kind, index)
	}
	return nil
}

// report records h and returns true if the sink or the config asks to stop.
func (b *builder) report(ctx context.Context, h Hazard) bool {
	b.hazards = append(b.hazards, h)
	abort := b.sink != nil && b.sink.Report(ctx, h)
	return abort || b.config.abortsOn(h.Kind)
}

func invalid(object string, handle uint64, format string, args ...interface{}) *Hazard {
	return &Hazard{Kind: InvalidReference, Object: object, Handle: handle, Message: fmt.Sprintf(format, args...)}
}

func unsatisfied(object string, handle uint64, format string, args ...interface{}) *Hazard {
	return &Hazard{Kind: UnsatisfiedBinding, Object: object, Handle: handle, Message: fmt.Sprintf(format, args...)}
}

func bindPointIndex(p vulkan.VkPipelineBindPoint) int {
	if p == vulkan.VkPipelineBindPoint_VK_PIPELINE_BIND_POINT_COMPUTE {
		return computeBindPoint
	}
	return graphicsBindPoint
}

func (b *builder) bindDescriptorSets(ctx context.Context, index int, rec vulkan.Record, cmd *vulkan.VkCmdBindDescriptorSets) error {
	table := b.sets[bindPointIndex(cmd.PipelineBindPoint)]
	dynamic := cmd.DynamicOffsets
	for i, h := range cmd.DescriptorSets {
		set, ok := b.state.DescriptorSet(h)
		if !ok {
			return b.fail(ctx, index, rec, *invalid("VkDescriptorSet", uint64(h),
				"set %d is not a known descriptor set", cmd.FirstSet+uint32(i)))
		}
		layout, ok := b.state.DescriptorSetLayout(set.Layout)
		if !ok {
			return b.fail(ctx, index, rec, *invalid("VkDescriptorSetLayout", uint64(set.Layout),
				"descriptor set %v has an unknown layout", h))
		}
		n := layout.DynamicCount()
		if n > len(dynamic) {
			log.W(ctx, "%v: set %d needs %d dynamic offsets, %d left", rec.Command.CmdName(), cmd.FirstSet+uint32(i), n, len(dynamic))
			n = len(dynamic)
		}
		table[cmd.FirstSet+uint32(i)] = boundSet{set: set, dynamicOffsets: dynamic[:n]}
		dynamic = dynamic[n:]
	}
	return nil
}

func (b *builder) draw(ctx context.Context, index int, rec vulkan.Record) error {
	id := b.next
	b.next.Sequence++

	if b.pipelines.Graphics == 0 {
		return b.fail(ctx, index, rec, *unsatisfied("", 0, "draw with no graphics pipeline bound"))
	}
	p, ok := b.state.GraphicsPipeline(b.pipelines.Graphics)
	if !ok {
		return b.fail(ctx, index, rec, *invalid("VkPipeline", uint64(b.pipelines.Graphics), "bound pipeline is unknown"))
	}
	layout, ok := b.state.PipelineLayout(p.Layout)
	if !ok {
		return b.fail(ctx, index, rec, *invalid("VkPipelineLayout", uint64(p.Layout), "pipeline %v has an unknown layout", p.Handle))
	}

	var accesses []access
	for i, lh := range layout.SetLayouts {
		setIndex := uint32(i)
		sl, ok := b.state.DescriptorSetLayout(lh)
		if !ok {
			return b.fail(ctx, index, rec, *invalid("VkDescriptorSetLayout", uint64(lh),
				"set %d of pipeline layout %v has an unknown layout", setIndex, layout.Handle))
		}
		if len(sl.Bindings) == 0 {
			continue
		}
		bound, ok := b.sets[graphicsBindPoint][setIndex]
		if !ok {
			return b.fail(ctx, index, rec, *unsatisfied("VkDescriptorSetLayout", uint64(lh),
				"no descriptor set bound at set %d", setIndex))
		}
		acc, h := b.descriptorAccesses(setIndex, sl, bound)
		if h != nil {
			return b.fail(ctx, index, rec, *h)
		}
		accesses = append(accesses, acc...)
	}

	vertex, h := b.vertexAccesses()
	if h != nil {
		return b.fail(ctx, index, rec, *h)
	}
	accesses = append(accesses, vertex...)

	stages := stageSet{}
	for _, s := range DrawStages {
		stages[s] = struct{}{}
	}
	for _, s := range ShaderStages(p.ShaderStages()) {
		stages[s] = struct{}{}
	}
	b.emitAction(id, index, rec, stages, accesses)
	return nil
}

func (b *builder) descriptorAccesses(setIndex uint32, sl *vulkan.DescriptorSetLayoutObject, bound boundSet) ([]access, *Hazard) {
	var out []access
	dynamic := 0
	for _, lb := range sl.SortedBindings() {
		db, ok := bound.set.Bindings[lb.Binding]
		if !ok {
			return nil, unsatisfied("VkDescriptorSet", uint64(bound.set.Handle),
				"set %d has no binding %d", setIndex, lb.Binding)
		}
		for e := uint32(0); e < lb.Count; e++ {
			offset := uint64(0)
			if lb.Type.IsDynamic() {
				if dynamic < len(bound.dynamicOffsets) {
					offset = uint64(bound.dynamicOffsets[dynamic])
				}
				dynamic++
			}
			if lb.Type == vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_SAMPLER {
				continue
			}
			if int(e) >= len(db.Descriptors) || !db.Descriptors[e].Written {
				return nil, unsatisfied("VkDescriptorSet", uint64(bound.set.Handle),
					"set %d binding %d element %d was never written", setIndex, lb.Binding, e)
			}
			region, h := b.descriptorRegion(lb.Type, db.Descriptors[e], offset)
			if h != nil {
				h.Message = fmt.Sprintf("set %d binding %d element %d: %s", setIndex, lb.Binding, e, h.Message)
				return nil, h
			}
			read := readAccess(lb.Type)
			// Draws only run the graphics stages of the binding.
			for _, stage := range ShaderStages(lb.StageFlags & graphicsShaders) {
				out = append(out, access{MemRead, stage, read, region})
				if lb.Type.IsStorage() {
					out = append(out, access{MemWrite, stage, vulkan.VkAccessFlagBits_VK_ACCESS_SHADER_WRITE_BIT, region})
				}
			}
		}
	}
	return out, nil
}

func readAccess(t vulkan.VkDescriptorType) vulkan.VkAccessFlagBits {
	switch t {
	case vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER,
		vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC:
		return vulkan.VkAccessFlagBits_VK_ACCESS_UNIFORM_READ_BIT
	case vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_INPUT_ATTACHMENT:
		return vulkan.VkAccessFlagBits_VK_ACCESS_INPUT_ATTACHMENT_READ_BIT
	}
	return vulkan.VkAccessFlagBits_VK_ACCESS_SHADER_READ_BIT
}

func (b *builder) descriptorRegion(t vulkan.VkDescriptorType, d vulkan.Descriptor, dynamicOffset uint64) (MemRegion, *Hazard) {
	switch t {
	case vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER,
		vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_SAMPLED_IMAGE,
		vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_IMAGE,
		vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_INPUT_ATTACHMENT:
		view, ok := b.state.ImageView(d.Image.ImageView)
		if !ok {
			return MemRegion{}, invalid("VkImageView", uint64(d.Image.ImageView), "unknown image view")
		}
		return b.imageRegion(view.Image, view.SubresourceRange)
	case vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_TEXEL_BUFFER,
		vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_TEXEL_BUFFER:
		view, ok := b.state.BufferView(d.BufferView)
		if !ok {
			return MemRegion{}, invalid("VkBufferView", uint64(d.BufferView), "unknown buffer view")
		}
		return b.bufferRegion(view.Buffer, view.Offset, view.Range)
	}
	return b.bufferRegion(d.Buffer.Buffer, d.Buffer.Offset+dynamicOffset, d.Buffer.Range)
}

func (b *builder) bufferRegion(h vulkan.VkBuffer, offset, rng uint64) (MemRegion, *Hazard) {
	buf, ok := b.state.Buffer(h)
	if !ok {
		return MemRegion{}, invalid("VkBuffer", uint64(h), "unknown buffer")
	}
	if _, ok := b.state.DeviceMemory(buf.Memory); !ok {
		return MemRegion{}, invalid("VkDeviceMemory", uint64(buf.Memory), "buffer %v is bound to unknown memory", h)
	}
	return BufferRegion(h, buf.Span(offset, rng)), nil
}

func (b *builder) imageRegion(h vulkan.VkImage, r vulkan.VkImageSubresourceRange) (MemRegion, *Hazard) {
	img, ok := b.state.Image(h)
	if !ok {
		return MemRegion{}, invalid("VkImage", uint64(h), "unknown image")
	}
	if img.Swapchain != 0 {
		return SwapchainImageRegion(img.Swapchain, img.SwapchainIndex), nil
	}
	if _, ok := b.state.DeviceMemory(img.Memory); !ok {
		return MemRegion{}, invalid("VkDeviceMemory", uint64(img.Memory), "image %v is bound to unknown memory", h)
	}
	return ImageRegion(h, img.Resolve(r)), nil
}

func (b *builder) vertexAccesses() ([]access, *Hazard) {
	bindings := make([]uint32, 0, len(b.vertex))
	for i := range b.vertex {
		bindings = append(bindings, i)
	}
	sort.Slice(bindings, func(i, j int) bool { return bindings[i] < bindings[j] })

	out := make([]access, 0, len(bindings))
	for _, i := range bindings {
		vb := b.vertex[i]
		region, h := b.bufferRegion(vb.buffer, vb.offset, vulkan.VK_WHOLE_SIZE)
		if h != nil {
			h.Message = fmt.Sprintf("vertex binding %d: %s", i, h.Message)
			return nil, h
		}
		out = append(out, access{MemRead, stageVertexInput, vulkan.VkAccessFlagBits_VK_ACCESS_VERTEX_ATTRIBUTE_READ_BIT, region})
	}
	return out, nil
}

// emitAction adds the nodes of an action command: the stages it executes
// bracketed by top and bottom of pipe, and its memory accesses.
func (b *builder) emitAction(id CommandID, index int, rec vulkan.Record, stages stageSet, accesses []access) {
	top := Node{Type: ActionStage, Command: id, Stage: stageTop}
	bottom := Node{Type: ActionStage, Command: id, Stage: stageBottom}
	b.graph.AddNode(top)
	for _, a := range accesses {
		stages[a.stage] = struct{}{}
	}
	for _, s := range stages.sorted() {
		n := Node{Type: ActionStage, Command: id, Stage: s}
		b.graph.AddEdge(top, n)
		b.graph.AddEdge(n, bottom)
	}
	for _, a := range accesses {
		n := Node{Type: a.typ, Command: id, Stage: a.stage, Access: vulkan.VkAccessFlags(a.access), Memory: a.region}
		nid := b.graph.AddNode(n)
		if a.typ == MemRead {
			b.graph.AddEdge(n, Node{Type: ActionStage, Command: id, Stage: a.stage})
		}
		if _, dup := b.seen[nid]; !dup {
			b.seen[nid] = struct{}{}
			b.accesses = append(b.accesses, memAccess{nid, index, rec.Origin})
		}
	}
}

func (b *builder) copyImage(ctx context.Context, index int, rec vulkan.Record, cmd *vulkan.VkCmdCopyImage) error {
	id := b.next
	b.next.Sequence++

	var accesses []access
	for _, r := range cmd.Regions {
		src, h := b.imageRegion(cmd.SrcImage, r.SrcSubresource.Range())
		if h != nil {
			return b.fail(ctx, index, rec, *h)
		}
		dst, h := b.imageRegion(cmd.DstImage, r.DstSubresource.Range())
		if h != nil {
			return b.fail(ctx, index, rec, *h)
		}
		accesses = append(accesses,
			access{MemRead, stageTransfer, vulkan.VkAccessFlagBits_VK_ACCESS_TRANSFER_READ_BIT, src},
			access{MemWrite, stageTransfer, vulkan.VkAccessFlagBits_VK_ACCESS_TRANSFER_WRITE_BIT, dst})
	}
	b.emitAction(id, index, rec, stageSet{stageTransfer: struct{}{}}, accesses)
	return nil
}

func (b *builder) pipelineBarrier(ctx context.Context, index int, rec vulkan.Record, cmd *vulkan.VkCmdPipelineBarrier) error {
	scopes := make([]barrierScope, 0, len(cmd.MemoryBarriers)+len(cmd.BufferMemoryBarriers)+len(cmd.ImageMemoryBarriers))
	for _, m := range cmd.MemoryBarriers {
		scopes = append(scopes, barrierScope{src: m.SrcAccessMask, dst: m.DstAccessMask})
	}
	for _, m := range cmd.BufferMemoryBarriers {
		region, h := b.bufferRegion(m.Buffer, m.Offset, m.Size)
		if h != nil {
			return b.fail(ctx, index, rec, *h)
		}
		scopes = append(scopes, barrierScope{src: m.SrcAccessMask, dst: m.DstAccessMask, region: region})
	}
	for _, m := range cmd.ImageMemoryBarriers {
		region, h := b.imageRegion(m.Image, m.SubresourceRange)
		if h != nil {
			return b.fail(ctx, index, rec, *h)
		}
		scopes = append(scopes, barrierScope{
			src:        m.SrcAccessMask,
			dst:        m.DstAccessMask,
			region:     region,
			transition: m.OldLayout != m.NewLayout,
		})
	}
	scope := b.next.Subpass
	if !b.next.InRenderPass() {
		scope = AnySubpass
	}
	b.emitBarrier(b.next, scope, scope, index, rec, cmd.SrcStageMask, cmd.DstStageMask, scopes)
	return nil
}

// emitBarrier adds the nodes and edges of a barrier with the given id. The
// first scope covers commands of subpass srcScope before id, the second those
// of subpass dstScope from id on.
func (b *builder) emitBarrier(id CommandID, srcScope, dstScope uint64, index int, rec vulkan.Record, srcMask, dstMask vulkan.VkPipelineStageFlags, scopes []barrierScope) {
	if len(scopes) == 0 {
		scopes = []barrierScope{{}}
	}
	srcStages, dstStages := ExpandSrc(srcMask), ExpandDst(dstMask)
	srcExplicit, dstExplicit := explicit(srcMask), explicit(dstMask)
	before := func(types NodeTypes, s vulkan.VkPipelineStageFlagBits) Bound {
		return Bound{Types: types, Stage: s, Queue: id.Queue, Subpass: srcScope, Lo: 0, Hi: id.Sequence}
	}
	after := func(types NodeTypes, s vulkan.VkPipelineStageFlagBits) Bound {
		return Bound{Types: types, Stage: s, Queue: id.Queue, Subpass: dstScope, Lo: id.Sequence, Hi: math.MaxUint64}
	}

	for _, s := range srcStages {
		b.graph.AddBoundedEdge(BoundedEdge{
			Dir:   BoundInto,
			Node:  Node{Type: BarrierSrcStage, Command: id, Stage: s},
			Bound: before(Types(ActionStage, MemRead), s),
		})
	}
	for _, t := range dstStages {
		b.graph.AddBoundedEdge(BoundedEdge{
			Dir:   BoundFrom,
			Node:  Node{Type: BarrierDstStage, Command: id, Stage: t},
			Bound: after(Types(ActionStage, MemWrite, BarrierSrcStage), t),
		})
	}

	for _, k := range scopes {
		srcPoints := make([]Node, 0, len(srcStages))
		for _, s := range srcStages {
			p := Node{Type: BarrierSrcPoint, Command: id, Stage: s, Memory: k.region}
			if srcExplicit.has(s) {
				p.Access = k.src
			}
			b.graph.AddEdge(Node{Type: BarrierSrcStage, Command: id, Stage: s}, p)
			if p.Access != 0 {
				bound := before(Types(MemWrite), s)
				bound.Access, bound.Memory = p.Access, k.region
				b.graph.AddBoundedEdge(BoundedEdge{Dir: BoundInto, Node: p, Bound: bound})
			}
			srcPoints = append(srcPoints, p)
		}
		dstPoints := make([]Node, 0, len(dstStages))
		for _, t := range dstStages {
			p := Node{Type: BarrierDstPoint, Command: id, Stage: t, Memory: k.region}
			if dstExplicit.has(t) {
				p.Access = k.dst
			}
			b.graph.AddEdge(p, Node{Type: BarrierDstStage, Command: id, Stage: t})
			if p.Access != 0 {
				bound := after(Types(MemRead, MemWrite), t)
				bound.Access, bound.Memory = p.Access, k.region
				b.graph.AddBoundedEdge(BoundedEdge{Dir: BoundFrom, Node: p, Bound: bound})
			}
			dstPoints = append(dstPoints, p)
		}

		if !k.transition {
			for _, sp := range srcPoints {
				for _, dp := range dstPoints {
					b.graph.AddEdge(sp, dp)
				}
			}
			continue
		}
		pre := Node{Type: PreTransition, Command: id, Memory: k.region}
		post := Node{Type: PostTransition, Command: id, Memory: k.region}
		for _, sp := range srcPoints {
			b.graph.AddEdge(sp, pre)
		}
		b.graph.AddEdge(pre, post)
		for _, dp := range dstPoints {
			b.graph.AddEdge(post, dp)
		}
		preID, _ := b.graph.Lookup(pre)
		postID, _ := b.graph.Lookup(post)
		b.transitions = append(b.transitions, transition{preID, postID, k.region, id, index, rec.Origin})
	}
}

// applyDependencies emits the subpass dependencies of the current render
// pass selected by match as barriers. Each scope is the subpass named by the
// dependency. An external scope covers the whole queue, as every command
// before BeginRenderPass or after EndRenderPass is outside the render pass.
func (b *builder) applyDependencies(ctx context.Context, index int, rec vulkan.Record, match func(d vulkan.VkSubpassDependency) bool) {
	for _, d := range b.renderPass.Dependencies {
		if !match(d) {
			continue
		}
		src, ok := b.dependencyScope(d.SrcSubpass)
		if !ok {
			log.W(ctx, "%v: dependency source subpass %d was not entered", rec.Command, d.SrcSubpass)
			continue
		}
		dst, ok := b.dependencyScope(d.DstSubpass)
		if !ok {
			log.W(ctx, "%v: dependency destination subpass %d was not entered", rec.Command, d.DstSubpass)
			continue
		}
		id := CommandID{Queue: b.next.Queue, Subpass: src, Sequence: b.next.Sequence}
		if src == AnySubpass {
			id.Subpass = NoSubpass
		}
		b.emitBarrier(id, src, dst, index, rec, d.SrcStageMask, d.DstStageMask,
			[]barrierScope{{src: d.SrcAccessMask, dst: d.DstAccessMask}})
	}
}

// dependencyScope returns the bound scope of subpass index i of the active
// render pass.
func (b *builder) dependencyScope(i uint32) (uint64, bool) {
	if i == vulkan.VK_SUBPASS_EXTERNAL {
		return AnySubpass, true
	}
	if int(i) >= len(b.subpassIDs) {
		return 0, false
	}
	return b.subpassIDs[i], true
}

func (b *builder) enterSubpass() {
	b.next.Subpass = b.subpasses
	b.subpassIDs = append(b.subpassIDs, b.subpasses)
	b.subpasses++
}

func (b *builder) beginRenderPass(ctx context.Context, index int, rec vulkan.Record, cmd *vulkan.VkCmdBeginRenderPass) error {
	rp, ok := b.state.RenderPass(cmd.RenderPass)
	if !ok {
		return b.fail(ctx, index, rec, *invalid("VkRenderPass", uint64(cmd.RenderPass), "unknown render pass"))
	}
	if b.renderPass != nil {
		log.W(ctx, "%v begins while render pass %v is active", rec.Command, b.renderPass.Handle)
	}
	b.renderPass, b.subpass, b.subpassIDs = rp, 0, nil
	b.enterSubpass()
	b.applyDependencies(ctx, index, rec, func(d vulkan.VkSubpassDependency) bool {
		return d.SrcSubpass == vulkan.VK_SUBPASS_EXTERNAL && d.DstSubpass == 0
	})
	return nil
}

func (b *builder) nextSubpass(ctx context.Context, index int, rec vulkan.Record) error {
	if b.renderPass == nil {
		return b.fail(ctx, index, rec, *invalid("VkRenderPass", 0, "no render pass is active"))
	}
	cur := b.subpass
	b.subpass++
	if b.subpass >= b.renderPass.SubpassCount {
		log.W(ctx, "%v moves past the last subpass of render pass %v", rec.Command, b.renderPass.Handle)
	}
	b.enterSubpass()
	b.applyDependencies(ctx, index, rec, func(d vulkan.VkSubpassDependency) bool {
		return d.SrcSubpass != vulkan.VK_SUBPASS_EXTERNAL && d.SrcSubpass <= cur && d.DstSubpass == cur+1
	})
	return nil
}

func (b *builder) endRenderPass(ctx context.Context, index int, rec vulkan.Record) error {
	if b.renderPass == nil {
		return b.fail(ctx, index, rec, *invalid("VkRenderPass", 0, "no render pass is active"))
	}
	b.applyDependencies(ctx, index, rec, func(d vulkan.VkSubpassDependency) bool {
		return d.SrcSubpass != vulkan.VK_SUBPASS_EXTERNAL && d.DstSubpass == vulkan.VK_SUBPASS_EXTERNAL
	})
	b.renderPass, b.subpassIDs = nil, nil
	b.next.Subpass = NoSubpass
	return nil
}
