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

package vulkan

import (
	"fmt"
	"strings"
)

// Command is a single recorded command buffer command. The set of
// implementations is closed: every consumer switches over the concrete
// types and treats anything else as unsupported.
type Command interface {
	fmt.Stringer
	// CmdName returns the API name of the command.
	CmdName() string
	// IsDraw returns true for draw-class action commands.
	IsDraw() bool
	// BindPipeline applies the command's effect on the bound pipelines and
	// returns true if it changed them.
	BindPipeline(b *PipelineBindings) bool

	isCommand()
}

// PipelineBindings holds the pipeline bound at each bind point.
type PipelineBindings struct {
	Graphics VkPipeline
	Compute  VkPipeline
}

// VkViewport mirrors the Vulkan struct of the same name.
type VkViewport struct {
	X, Y, Width, Height, MinDepth, MaxDepth float32
}

// VkOffset2D mirrors the Vulkan struct of the same name.
type VkOffset2D struct{ X, Y int32 }

// VkExtent2D mirrors the Vulkan struct of the same name.
type VkExtent2D struct{ Width, Height uint32 }

// VkRect2D mirrors the Vulkan struct of the same name.
type VkRect2D struct {
	Offset VkOffset2D
	Extent VkExtent2D
}

// VkOffset3D mirrors the Vulkan struct of the same name.
type VkOffset3D struct{ X, Y, Z int32 }

// VkImageSubresourceLayers mirrors the Vulkan struct of the same name.
type VkImageSubresourceLayers struct {
	AspectMask     VkImageAspectFlags
	MipLevel       uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// Range returns the subresource range covered by l.
func (l VkImageSubresourceLayers) Range() VkImageSubresourceRange {
	return VkImageSubresourceRange{
		AspectMask:     l.AspectMask,
		BaseMipLevel:   l.MipLevel,
		LevelCount:     1,
		BaseArrayLayer: l.BaseArrayLayer,
		LayerCount:     l.LayerCount,
	}
}

// VkImageCopy mirrors the Vulkan struct of the same name.
type VkImageCopy struct {
	SrcSubresource VkImageSubresourceLayers
	SrcOffset      VkOffset3D
	DstSubresource VkImageSubresourceLayers
	DstOffset      VkOffset3D
	Extent         VkExtent3D
}

// VkMemoryBarrier mirrors the Vulkan struct of the same name.
type VkMemoryBarrier struct {
	SrcAccessMask VkAccessFlags
	DstAccessMask VkAccessFlags
}

// VkBufferMemoryBarrier mirrors the Vulkan struct of the same name.
type VkBufferMemoryBarrier struct {
	SrcAccessMask       VkAccessFlags
	DstAccessMask       VkAccessFlags
	SrcQueueFamilyIndex uint32
	DstQueueFamilyIndex uint32
	Buffer              VkBuffer
	Offset              uint64
	Size                uint64
}

// VkImageMemoryBarrier mirrors the Vulkan struct of the same name.
type VkImageMemoryBarrier struct {
	SrcAccessMask       VkAccessFlags
	DstAccessMask       VkAccessFlags
	OldLayout           VkImageLayout
	NewLayout           VkImageLayout
	SrcQueueFamilyIndex uint32
	DstQueueFamilyIndex uint32
	Image               VkImage
	SubresourceRange    VkImageSubresourceRange
}

type VkCmdBindPipeline struct {
	PipelineBindPoint VkPipelineBindPoint
	Pipeline          VkPipeline
}

type VkCmdSetViewport struct {
	FirstViewport uint32
	Viewports     []VkViewport
}

type VkCmdSetScissor struct {
	FirstScissor uint32
	Scissors     []VkRect2D
}

type VkCmdBindDescriptorSets struct {
	PipelineBindPoint VkPipelineBindPoint
	Layout            VkPipelineLayout
	FirstSet          uint32
	DescriptorSets    []VkDescriptorSet
	DynamicOffsets    []uint32
}

type VkCmdBindVertexBuffers struct {
	FirstBinding uint32
	Buffers      []VkBuffer
	Offsets      []uint64
}

type VkCmdDraw struct {
	VertexCount   uint32
	InstanceCount uint32
	FirstVertex   uint32
	FirstInstance uint32
}

type VkCmdDrawIndexed struct {
	IndexCount    uint32
	InstanceCount uint32
	FirstIndex    uint32
	VertexOffset  int32
	FirstInstance uint32
}

type VkCmdCopyImage struct {
	SrcImage       VkImage
	SrcImageLayout VkImageLayout
	DstImage       VkImage
	DstImageLayout VkImageLayout
	Regions        []VkImageCopy
}

type VkCmdPipelineBarrier struct {
	SrcStageMask         VkPipelineStageFlags
	DstStageMask         VkPipelineStageFlags
	DependencyFlags      VkDependencyFlags
	MemoryBarriers       []VkMemoryBarrier
	BufferMemoryBarriers []VkBufferMemoryBarrier
	ImageMemoryBarriers  []VkImageMemoryBarrier
}

type VkCmdBeginRenderPass struct {
	RenderPass      VkRenderPass
	Framebuffer     VkFramebuffer
	RenderArea      VkRect2D
	ClearValueCount uint32
	Contents        VkSubpassContents
}

type VkCmdNextSubpass struct {
	Contents VkSubpassContents
}

type VkCmdEndRenderPass struct{}

type VkCmdExecuteCommands struct {
	CommandBuffers []VkCommandBuffer
}

func (*VkCmdBindPipeline) isCommand()       {}
func (*VkCmdSetViewport) isCommand()        {}
func (*VkCmdSetScissor) isCommand()         {}
func (*VkCmdBindDescriptorSets) isCommand() {}
func (*VkCmdBindVertexBuffers) isCommand()  {}
func (*VkCmdDraw) isCommand()               {}
func (*VkCmdDrawIndexed) isCommand()        {}
func (*VkCmdCopyImage) isCommand()          {}
func (*VkCmdPipelineBarrier) isCommand()    {}
func (*VkCmdBeginRenderPass) isCommand()    {}
func (*VkCmdNextSubpass) isCommand()        {}
func (*VkCmdEndRenderPass) isCommand()      {}
func (*VkCmdExecuteCommands) isCommand()    {}

func (*VkCmdBindPipeline) CmdName() string       { return "vkCmdBindPipeline" }
func (*VkCmdSetViewport) CmdName() string        { return "vkCmdSetViewport" }
func (*VkCmdSetScissor) CmdName() string         { return "vkCmdSetScissor" }
func (*VkCmdBindDescriptorSets) CmdName() string { return "vkCmdBindDescriptorSets" }
func (*VkCmdBindVertexBuffers) CmdName() string  { return "vkCmdBindVertexBuffers" }
func (*VkCmdDraw) CmdName() string               { return "vkCmdDraw" }
func (*VkCmdDrawIndexed) CmdName() string        { return "vkCmdDrawIndexed" }
func (*VkCmdCopyImage) CmdName() string          { return "vkCmdCopyImage" }
func (*VkCmdPipelineBarrier) CmdName() string    { return "vkCmdPipelineBarrier" }
func (*VkCmdBeginRenderPass) CmdName() string    { return "vkCmdBeginRenderPass" }
func (*VkCmdNextSubpass) CmdName() string        { return "vkCmdNextSubpass" }
func (*VkCmdEndRenderPass) CmdName() string      { return "vkCmdEndRenderPass" }
func (*VkCmdExecuteCommands) CmdName() string    { return "vkCmdExecuteCommands" }

func (*VkCmdBindPipeline) IsDraw() bool       { return false }
func (*VkCmdSetViewport) IsDraw() bool        { return false }
func (*VkCmdSetScissor) IsDraw() bool         { return false }
func (*VkCmdBindDescriptorSets) IsDraw() bool { return false }
func (*VkCmdBindVertexBuffers) IsDraw() bool  { return false }
func (*VkCmdDraw) IsDraw() bool               { return true }
func (*VkCmdDrawIndexed) IsDraw() bool        { return true }
func (*VkCmdCopyImage) IsDraw() bool          { return false }
func (*VkCmdPipelineBarrier) IsDraw() bool    { return false }
func (*VkCmdBeginRenderPass) IsDraw() bool    { return false }
func (*VkCmdNextSubpass) IsDraw() bool        { return false }
func (*VkCmdEndRenderPass) IsDraw() bool      { return false }
func (*VkCmdExecuteCommands) IsDraw() bool    { return false }

func (c *VkCmdBindPipeline) BindPipeline(b *PipelineBindings) bool {
	switch c.PipelineBindPoint {
	case VkPipelineBindPoint_VK_PIPELINE_BIND_POINT_GRAPHICS:
		b.Graphics = c.Pipeline
	case VkPipelineBindPoint_VK_PIPELINE_BIND_POINT_COMPUTE:
		b.Compute = c.Pipeline
	default:
		return false
	}
	return true
}

func (*VkCmdSetViewport) BindPipeline(*PipelineBindings) bool        { return false }
func (*VkCmdSetScissor) BindPipeline(*PipelineBindings) bool         { return false }
func (*VkCmdBindDescriptorSets) BindPipeline(*PipelineBindings) bool { return false }
func (*VkCmdBindVertexBuffers) BindPipeline(*PipelineBindings) bool  { return false }
func (*VkCmdDraw) BindPipeline(*PipelineBindings) bool               { return false }
func (*VkCmdDrawIndexed) BindPipeline(*PipelineBindings) bool        { return false }
func (*VkCmdCopyImage) BindPipeline(*PipelineBindings) bool          { return false }
func (*VkCmdPipelineBarrier) BindPipeline(*PipelineBindings) bool    { return false }
func (*VkCmdBeginRenderPass) BindPipeline(*PipelineBindings) bool    { return false }
func (*VkCmdNextSubpass) BindPipeline(*PipelineBindings) bool        { return false }
func (*VkCmdEndRenderPass) BindPipeline(*PipelineBindings) bool      { return false }
func (*VkCmdExecuteCommands) BindPipeline(*PipelineBindings) bool    { return false }

// args formats a call in the form name(a: 1, b: 2).
type args struct {
	sb    strings.Builder
	count int
}

func call(name string) *args {
	a := &args{}
	a.sb.WriteString(name)
	a.sb.WriteString("(")
	return a
}

func (a *args) add(name string, value interface{}) *args {
	if a.count > 0 {
		a.sb.WriteString(", ")
	}
	a.count++
	fmt.Fprintf(&a.sb, "%s: %v", name, value)
	return a
}

func (a *args) String() string { return a.sb.String() + ")" }

func hex(v uint32) string { return fmt.Sprintf("0x%x", v) }

func list(n int, item func(i int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = item(i)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (c *VkCmdBindPipeline) String() string {
	return call(c.CmdName()).
		add("pipelineBindPoint", c.PipelineBindPoint).
		add("pipeline", c.Pipeline).String()
}

func (c *VkCmdSetViewport) String() string {
	return call(c.CmdName()).
		add("firstViewport", c.FirstViewport).
		add("viewports", list(len(c.Viewports), func(i int) string {
			v := c.Viewports[i]
			return fmt.Sprintf("{x: %v, y: %v, width: %v, height: %v, minDepth: %v, maxDepth: %v}",
				v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
		})).String()
}

func (c *VkCmdSetScissor) String() string {
	return call(c.CmdName()).
		add("firstScissor", c.FirstScissor).
		add("scissors", list(len(c.Scissors), func(i int) string {
			r := c.Scissors[i]
			return fmt.Sprintf("{offset: {%v, %v}, extent: {%v, %v}}",
				r.Offset.X, r.Offset.Y, r.Extent.Width, r.Extent.Height)
		})).String()
}

func (c *VkCmdBindDescriptorSets) String() string {
	return call(c.CmdName()).
		add("pipelineBindPoint", c.PipelineBindPoint).
		add("layout", c.Layout).
		add("firstSet", c.FirstSet).
		add("descriptorSets", c.DescriptorSets).
		add("dynamicOffsets", c.DynamicOffsets).String()
}

func (c *VkCmdBindVertexBuffers) String() string {
	return call(c.CmdName()).
		add("firstBinding", c.FirstBinding).
		add("buffers", c.Buffers).
		add("offsets", c.Offsets).String()
}

func (c *VkCmdDraw) String() string {
	return call(c.CmdName()).
		add("vertexCount", c.VertexCount).
		add("instanceCount", c.InstanceCount).
		add("firstVertex", c.FirstVertex).
		add("firstInstance", c.FirstInstance).String()
}

func (c *VkCmdDrawIndexed) String() string {
	return call(c.CmdName()).
		add("indexCount", c.IndexCount).
		add("instanceCount", c.InstanceCount).
		add("firstIndex", c.FirstIndex).
		add("vertexOffset", c.VertexOffset).
		add("firstInstance", c.FirstInstance).String()
}

func (c *VkCmdCopyImage) String() string {
	return call(c.CmdName()).
		add("srcImage", c.SrcImage).
		add("srcImageLayout", c.SrcImageLayout).
		add("dstImage", c.DstImage).
		add("dstImageLayout", c.DstImageLayout).
		add("regions", list(len(c.Regions), func(i int) string {
			r := c.Regions[i]
			return fmt.Sprintf("{src: mip %v layers %v+%v, dst: mip %v layers %v+%v, extent: %vx%vx%v}",
				r.SrcSubresource.MipLevel, r.SrcSubresource.BaseArrayLayer, r.SrcSubresource.LayerCount,
				r.DstSubresource.MipLevel, r.DstSubresource.BaseArrayLayer, r.DstSubresource.LayerCount,
				r.Extent.Width, r.Extent.Height, r.Extent.Depth)
		})).String()
}

func (c *VkCmdPipelineBarrier) String() string {
	return call(c.CmdName()).
		add("srcStageMask", hex(uint32(c.SrcStageMask))).
		add("dstStageMask", hex(uint32(c.DstStageMask))).
		add("dependencyFlags", hex(uint32(c.DependencyFlags))).
		add("memoryBarriers", list(len(c.MemoryBarriers), func(i int) string {
			b := c.MemoryBarriers[i]
			return fmt.Sprintf("{srcAccessMask: %v, dstAccessMask: %v}",
				hex(uint32(b.SrcAccessMask)), hex(uint32(b.DstAccessMask)))
		})).
		add("bufferMemoryBarriers", list(len(c.BufferMemoryBarriers), func(i int) string {
			b := c.BufferMemoryBarriers[i]
			return fmt.Sprintf("{srcAccessMask: %v, dstAccessMask: %v, srcQueueFamilyIndex: %v, dstQueueFamilyIndex: %v, buffer: %v, offset: %v, size: %v}",
				hex(uint32(b.SrcAccessMask)), hex(uint32(b.DstAccessMask)),
				int32(b.SrcQueueFamilyIndex), int32(b.DstQueueFamilyIndex), b.Buffer, b.Offset, int64(b.Size))
		})).
		add("imageMemoryBarriers", list(len(c.ImageMemoryBarriers), func(i int) string {
			b := c.ImageMemoryBarriers[i]
			r := b.SubresourceRange
			return fmt.Sprintf("{srcAccessMask: %v, dstAccessMask: %v, oldLayout: %v, newLayout: %v, srcQueueFamilyIndex: %v, dstQueueFamilyIndex: %v, image: %v, subresourceRange: {aspectMask: %v, baseMipLevel: %v, levelCount: %v, baseArrayLayer: %v, layerCount: %v}}",
				hex(uint32(b.SrcAccessMask)), hex(uint32(b.DstAccessMask)), b.OldLayout, b.NewLayout,
				int32(b.SrcQueueFamilyIndex), int32(b.DstQueueFamilyIndex), b.Image,
				hex(uint32(r.AspectMask)), r.BaseMipLevel, int32(r.LevelCount), r.BaseArrayLayer, int32(r.LayerCount))
		})).String()
}

func (c *VkCmdBeginRenderPass) String() string {
	return call(c.CmdName()).
		add("renderPass", c.RenderPass).
		add("framebuffer", c.Framebuffer).
		add("renderArea", fmt.Sprintf("{offset: {%v, %v}, extent: {%v, %v}}",
			c.RenderArea.Offset.X, c.RenderArea.Offset.Y, c.RenderArea.Extent.Width, c.RenderArea.Extent.Height)).
		add("clearValueCount", c.ClearValueCount).
		add("contents", c.Contents).String()
}

func (c *VkCmdNextSubpass) String() string {
	return call(c.CmdName()).add("contents", c.Contents).String()
}

func (c *VkCmdEndRenderPass) String() string {
	return call(c.CmdName()).String()
}

func (c *VkCmdExecuteCommands) String() string {
	return call(c.CmdName()).add("commandBuffers", c.CommandBuffers).String()
}
