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

package scenario

import (
	"fmt"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/google/vksync/gapis/api/vulkan"
)

// Command is one recorded command, written as a mapping with a single key
// naming the command:
//
//   - draw: {vertices: 3}
type Command struct {
	Op   string
	Line int
	args yaml.Node
}

func (c *Command) UnmarshalYAML(n *yaml.Node) error {
	switch {
	case n.Kind == yaml.ScalarNode:
		// Commands without arguments, such as "- endRenderPass".
		c.Op, c.Line = n.Value, n.Line
		return nil
	case n.Kind != yaml.MappingNode || len(n.Content) != 2:
		return errors.Wrapf(ErrInvalid, "line %d: a command is a mapping with a single key", n.Line)
	}
	c.Op, c.Line, c.args = n.Content[0].Value, n.Content[0].Line, *n.Content[1]
	return nil
}

type bindPipeline struct {
	Pipeline  uint64 `yaml:"pipeline"`
	BindPoint string `yaml:"bindPoint"`
}

type bindDescriptorSets struct {
	BindPoint      string   `yaml:"bindPoint"`
	Layout         uint64   `yaml:"layout"`
	FirstSet       uint32   `yaml:"firstSet"`
	Sets           []uint64 `yaml:"sets"`
	DynamicOffsets []uint32 `yaml:"dynamicOffsets"`
}

type bindVertexBuffers struct {
	FirstBinding uint32   `yaml:"firstBinding"`
	Buffers      []uint64 `yaml:"buffers"`
	Offsets      []uint64 `yaml:"offsets"`
}

type draw struct {
	Vertices  uint32 `yaml:"vertices"`
	Instances uint32 `yaml:"instances"`
	First     uint32 `yaml:"first"`
}

type drawIndexed struct {
	Indices      uint32 `yaml:"indices"`
	Instances    uint32 `yaml:"instances"`
	First        uint32 `yaml:"first"`
	VertexOffset int32  `yaml:"vertexOffset"`
}

type layers struct {
	Aspect    []string `yaml:"aspect"`
	Mip       uint32   `yaml:"mip"`
	BaseLayer uint32   `yaml:"baseLayer"`
	Layers    uint32   `yaml:"layers"`
}

type copyRegion struct {
	Src layers `yaml:"src"`
	Dst layers `yaml:"dst"`
}

type copyImage struct {
	Src       uint64       `yaml:"src"`
	SrcLayout string       `yaml:"srcLayout"`
	Dst       uint64       `yaml:"dst"`
	DstLayout string       `yaml:"dstLayout"`
	Regions   []copyRegion `yaml:"regions"`
}

type access struct {
	Src []string `yaml:"src"`
	Dst []string `yaml:"dst"`
}

type bufferBarrier struct {
	access `yaml:",inline"`
	Buffer uint64 `yaml:"buffer"`
	Offset uint64 `yaml:"offset"`
	Size   uint64 `yaml:"size"`
}

type imageBarrier struct {
	access       `yaml:",inline"`
	Image        uint64       `yaml:"image"`
	OldLayout    string       `yaml:"oldLayout"`
	NewLayout    string       `yaml:"newLayout"`
	Subresources Subresources `yaml:"range"`
}

type pipelineBarrier struct {
	SrcStages []string        `yaml:"srcStages"`
	DstStages []string        `yaml:"dstStages"`
	Memory    []access        `yaml:"memory"`
	Buffers   []bufferBarrier `yaml:"buffers"`
	Images    []imageBarrier  `yaml:"images"`
}

type beginRenderPass struct {
	RenderPass uint64 `yaml:"renderPass"`
}

type executeCommands struct {
	Buffers []uint64 `yaml:"buffers"`
}

// Build returns the command described by c.
func (c *Command) Build() (vulkan.Command, error) {
	cmd, err := c.build()
	if err != nil {
		return nil, errors.Wrapf(err, "line %d: %v", c.Line, c.Op)
	}
	return cmd, nil
}

func (c *Command) decode(out interface{}) error {
	if c.args.Kind == 0 {
		return nil
	}
	return c.args.Decode(out)
}

func (c *Command) build() (vulkan.Command, error) {
	switch c.Op {
	case "bindPipeline":
		a := bindPipeline{}
		if err := c.decode(&a); err != nil {
			return nil, err
		}
		bp, err := vulkan.ParsePipelineBindPoint(a.BindPoint)
		if err != nil {
			return nil, err
		}
		return &vulkan.VkCmdBindPipeline{PipelineBindPoint: bp, Pipeline: vulkan.VkPipeline(a.Pipeline)}, nil

	case "bindDescriptorSets":
		a := bindDescriptorSets{}
		if err := c.decode(&a); err != nil {
			return nil, err
		}
		bp, err := vulkan.ParsePipelineBindPoint(a.BindPoint)
		if err != nil {
			return nil, err
		}
		out := &vulkan.VkCmdBindDescriptorSets{
			PipelineBindPoint: bp,
			Layout:            vulkan.VkPipelineLayout(a.Layout),
			FirstSet:          a.FirstSet,
			DynamicOffsets:    a.DynamicOffsets,
		}
		for _, s := range a.Sets {
			out.DescriptorSets = append(out.DescriptorSets, vulkan.VkDescriptorSet(s))
		}
		return out, nil

	case "bindVertexBuffers":
		a := bindVertexBuffers{}
		if err := c.decode(&a); err != nil {
			return nil, err
		}
		out := &vulkan.VkCmdBindVertexBuffers{FirstBinding: a.FirstBinding, Offsets: a.Offsets}
		for _, b := range a.Buffers {
			out.Buffers = append(out.Buffers, vulkan.VkBuffer(b))
		}
		for len(out.Offsets) < len(out.Buffers) {
			out.Offsets = append(out.Offsets, 0)
		}
		return out, nil

	case "setViewport":
		return &vulkan.VkCmdSetViewport{Viewports: []vulkan.VkViewport{{}}}, nil

	case "setScissor":
		return &vulkan.VkCmdSetScissor{Scissors: []vulkan.VkRect2D{{}}}, nil

	case "draw":
		a := draw{Vertices: 3, Instances: 1}
		if err := c.decode(&a); err != nil {
			return nil, err
		}
		return &vulkan.VkCmdDraw{VertexCount: a.Vertices, InstanceCount: a.Instances, FirstVertex: a.First}, nil

	case "drawIndexed":
		a := drawIndexed{Indices: 3, Instances: 1}
		if err := c.decode(&a); err != nil {
			return nil, err
		}
		return &vulkan.VkCmdDrawIndexed{
			IndexCount:    a.Indices,
			InstanceCount: a.Instances,
			FirstIndex:    a.First,
			VertexOffset:  a.VertexOffset,
		}, nil

	case "copyImage":
		a := copyImage{SrcLayout: "TRANSFER_SRC_OPTIMAL", DstLayout: "TRANSFER_DST_OPTIMAL"}
		if err := c.decode(&a); err != nil {
			return nil, err
		}
		out := &vulkan.VkCmdCopyImage{SrcImage: vulkan.VkImage(a.Src), DstImage: vulkan.VkImage(a.Dst)}
		var err error
		if out.SrcImageLayout, err = vulkan.ParseImageLayout(a.SrcLayout); err != nil {
			return nil, err
		}
		if out.DstImageLayout, err = vulkan.ParseImageLayout(a.DstLayout); err != nil {
			return nil, err
		}
		if len(a.Regions) == 0 {
			a.Regions = []copyRegion{{}}
		}
		for _, r := range a.Regions {
			src, err := r.Src.parse()
			if err != nil {
				return nil, err
			}
			dst, err := r.Dst.parse()
			if err != nil {
				return nil, err
			}
			out.Regions = append(out.Regions, vulkan.VkImageCopy{SrcSubresource: src, DstSubresource: dst})
		}
		return out, nil

	case "pipelineBarrier":
		a := pipelineBarrier{}
		if err := c.decode(&a); err != nil {
			return nil, err
		}
		return a.build()

	case "beginRenderPass":
		a := beginRenderPass{}
		if err := c.decode(&a); err != nil {
			return nil, err
		}
		return &vulkan.VkCmdBeginRenderPass{RenderPass: vulkan.VkRenderPass(a.RenderPass)}, nil

	case "nextSubpass":
		return &vulkan.VkCmdNextSubpass{}, nil

	case "endRenderPass":
		return &vulkan.VkCmdEndRenderPass{}, nil

	case "executeCommands":
		a := executeCommands{}
		if err := c.decode(&a); err != nil {
			return nil, err
		}
		out := &vulkan.VkCmdExecuteCommands{}
		for _, b := range a.Buffers {
			out.CommandBuffers = append(out.CommandBuffers, vulkan.VkCommandBuffer(b))
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrInvalid, "unknown command %q", c.Op)
}

func (l layers) parse() (vulkan.VkImageSubresourceLayers, error) {
	aspect := l.Aspect
	if len(aspect) == 0 {
		aspect = []string{"COLOR"}
	}
	mask, err := vulkan.ParseImageAspectFlags(aspect)
	if err != nil {
		return vulkan.VkImageSubresourceLayers{}, err
	}
	return vulkan.VkImageSubresourceLayers{
		AspectMask:     mask,
		MipLevel:       l.Mip,
		BaseArrayLayer: l.BaseLayer,
		LayerCount:     or1(l.Layers),
	}, nil
}

func (a access) parse() (src, dst vulkan.VkAccessFlags, err error) {
	if src, err = vulkan.ParseAccessFlags(a.Src); err != nil {
		return 0, 0, err
	}
	if dst, err = vulkan.ParseAccessFlags(a.Dst); err != nil {
		return 0, 0, err
	}
	return src, dst, nil
}

func (a pipelineBarrier) build() (*vulkan.VkCmdPipelineBarrier, error) {
	out := &vulkan.VkCmdPipelineBarrier{}
	var err error
	if out.SrcStageMask, err = vulkan.ParsePipelineStageFlags(a.SrcStages); err != nil {
		return nil, err
	}
	if out.DstStageMask, err = vulkan.ParsePipelineStageFlags(a.DstStages); err != nil {
		return nil, err
	}
	for _, m := range a.Memory {
		src, dst, err := m.parse()
		if err != nil {
			return nil, err
		}
		out.MemoryBarriers = append(out.MemoryBarriers, vulkan.VkMemoryBarrier{SrcAccessMask: src, DstAccessMask: dst})
	}
	for _, b := range a.Buffers {
		src, dst, err := b.parse()
		if err != nil {
			return nil, err
		}
		size := b.Size
		if size == 0 {
			size = vulkan.VK_WHOLE_SIZE
		}
		out.BufferMemoryBarriers = append(out.BufferMemoryBarriers, vulkan.VkBufferMemoryBarrier{
			SrcAccessMask: src,
			DstAccessMask: dst,
			Buffer:        vulkan.VkBuffer(b.Buffer),
			Offset:        b.Offset,
			Size:          size,
		})
	}
	for _, i := range a.Images {
		src, dst, err := i.parse()
		if err != nil {
			return nil, err
		}
		rng, err := i.Subresources.parse()
		if err != nil {
			return nil, err
		}
		ib := vulkan.VkImageMemoryBarrier{
			SrcAccessMask:    src,
			DstAccessMask:    dst,
			Image:            vulkan.VkImage(i.Image),
			SubresourceRange: rng,
		}
		if ib.OldLayout, err = parseLayout(i.OldLayout); err != nil {
			return nil, err
		}
		if ib.NewLayout, err = parseLayout(i.NewLayout); err != nil {
			return nil, err
		}
		out.ImageMemoryBarriers = append(out.ImageMemoryBarriers, ib)
	}
	return out, nil
}

func parseLayout(name string) (vulkan.VkImageLayout, error) {
	if name == "" {
		return vulkan.VkImageLayout_VK_IMAGE_LAYOUT_GENERAL, nil
	}
	return vulkan.ParseImageLayout(name)
}

func (c Command) String() string { return fmt.Sprintf("%v@%d", c.Op, c.Line) }
