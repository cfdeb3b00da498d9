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
	"strconv"

	"github.com/pkg/errors"

	"github.com/google/vksync/gapis/api/vulkan"
)

// Resources lists the objects created before any command buffer is recorded.
type Resources struct {
	Memories        []Memory         `yaml:"memories"`
	Buffers         []Buffer         `yaml:"buffers"`
	BufferViews     []BufferView     `yaml:"bufferViews"`
	Images          []Image          `yaml:"images"`
	ImageViews      []ImageView      `yaml:"imageViews"`
	Swapchains      []Swapchain      `yaml:"swapchains"`
	SetLayouts      []SetLayout      `yaml:"setLayouts"`
	Sets            []Set            `yaml:"sets"`
	PipelineLayouts []PipelineLayout `yaml:"pipelineLayouts"`
	Pipelines       []Pipeline       `yaml:"pipelines"`
	RenderPasses    []RenderPass     `yaml:"renderPasses"`
	Pools           []uint64         `yaml:"pools"`
}

type Memory struct {
	Handle uint64 `yaml:"handle"`
	Size   uint64 `yaml:"size"`
}

type Buffer struct {
	Handle uint64 `yaml:"handle"`
	Size   uint64 `yaml:"size"`
	Memory uint64 `yaml:"memory"`
	Offset uint64 `yaml:"offset"`
}

type BufferView struct {
	Handle uint64 `yaml:"handle"`
	Buffer uint64 `yaml:"buffer"`
	Offset uint64 `yaml:"offset"`
	Range  uint64 `yaml:"range"`
}

type Image struct {
	Handle uint64 `yaml:"handle"`
	Width  uint32 `yaml:"width"`
	Height uint32 `yaml:"height"`
	Mips   uint32 `yaml:"mips"`
	Layers uint32 `yaml:"layers"`
	Memory uint64 `yaml:"memory"`
}

// Subresources is an image subresource range. Zero counts mean all the
// remaining levels or layers.
type Subresources struct {
	Aspect    []string `yaml:"aspect"`
	BaseMip   uint32   `yaml:"baseMip"`
	Mips      uint32   `yaml:"mips"`
	BaseLayer uint32   `yaml:"baseLayer"`
	Layers    uint32   `yaml:"layers"`
}

type ImageView struct {
	Handle       uint64 `yaml:"handle"`
	Image        uint64 `yaml:"image"`
	Subresources `yaml:",inline"`
}

type Swapchain struct {
	Handle uint64   `yaml:"handle"`
	Images []uint64 `yaml:"images"`
}

type Binding struct {
	Binding uint32   `yaml:"binding"`
	Type    string   `yaml:"type"`
	Count   uint32   `yaml:"count"`
	Stages  []string `yaml:"stages"`
}

type SetLayout struct {
	Handle   uint64    `yaml:"handle"`
	Bindings []Binding `yaml:"bindings"`
}

// Write is a descriptor update. Range zero means the whole buffer.
type Write struct {
	Binding    uint32 `yaml:"binding"`
	Element    uint32 `yaml:"element"`
	Buffer     uint64 `yaml:"buffer"`
	Offset     uint64 `yaml:"offset"`
	Range      uint64 `yaml:"range"`
	ImageView  uint64 `yaml:"imageView"`
	Layout     string `yaml:"layout"`
	BufferView uint64 `yaml:"bufferView"`
}

type Set struct {
	Handle uint64  `yaml:"handle"`
	Layout uint64  `yaml:"layout"`
	Writes []Write `yaml:"writes"`
}

type PipelineLayout struct {
	Handle     uint64   `yaml:"handle"`
	SetLayouts []uint64 `yaml:"setLayouts"`
}

// Pipeline is a graphics pipeline, or a compute pipeline when Stages is
// [COMPUTE].
type Pipeline struct {
	Handle     uint64   `yaml:"handle"`
	Layout     uint64   `yaml:"layout"`
	Stages     []string `yaml:"stages"`
	RenderPass uint64   `yaml:"renderPass"`
	Subpass    uint32   `yaml:"subpass"`
}

// Dependency is a subpass dependency. "EXTERNAL" names VK_SUBPASS_EXTERNAL.
type Dependency struct {
	Src       string   `yaml:"src"`
	Dst       string   `yaml:"dst"`
	SrcStages []string `yaml:"srcStages"`
	DstStages []string `yaml:"dstStages"`
	SrcAccess []string `yaml:"srcAccess"`
	DstAccess []string `yaml:"dstAccess"`
}

type RenderPass struct {
	Handle       uint64       `yaml:"handle"`
	Subpasses    uint32       `yaml:"subpasses"`
	Dependencies []Dependency `yaml:"dependencies"`
}

func (s Subresources) parse() (vulkan.VkImageSubresourceRange, error) {
	aspect := s.Aspect
	if len(aspect) == 0 {
		aspect = []string{"COLOR"}
	}
	mask, err := vulkan.ParseImageAspectFlags(aspect)
	if err != nil {
		return vulkan.VkImageSubresourceRange{}, err
	}
	r := vulkan.VkImageSubresourceRange{
		AspectMask:     mask,
		BaseMipLevel:   s.BaseMip,
		LevelCount:     s.Mips,
		BaseArrayLayer: s.BaseLayer,
		LayerCount:     s.Layers,
	}
	if r.LevelCount == 0 {
		r.LevelCount = vulkan.VK_REMAINING_MIP_LEVELS
	}
	if r.LayerCount == 0 {
		r.LayerCount = vulkan.VK_REMAINING_ARRAY_LAYERS
	}
	return r, nil
}

func parseSubpass(s string) (uint32, error) {
	if s == "EXTERNAL" {
		return vulkan.VK_SUBPASS_EXTERNAL, nil
	}
	n, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalid, "subpass %q", s)
	}
	return uint32(n), nil
}

func or1(v uint32) uint32 {
	if v == 0 {
		return 1
	}
	return v
}

// apply adds the resources to st.
func (r *Resources) apply(st *vulkan.State) error {
	for _, m := range r.Memories {
		st.AddDeviceMemory(&vulkan.DeviceMemoryObject{Handle: vulkan.VkDeviceMemory(m.Handle), AllocationSize: m.Size})
	}
	for _, b := range r.Buffers {
		st.AddBuffer(&vulkan.BufferObject{
			Handle:       vulkan.VkBuffer(b.Handle),
			Size:         b.Size,
			Memory:       vulkan.VkDeviceMemory(b.Memory),
			MemoryOffset: b.Offset,
		})
	}
	for _, v := range r.BufferViews {
		st.AddBufferView(&vulkan.BufferViewObject{
			Handle: vulkan.VkBufferView(v.Handle),
			Buffer: vulkan.VkBuffer(v.Buffer),
			Offset: v.Offset,
			Range:  v.Range,
		})
	}
	for _, i := range r.Images {
		st.AddImage(&vulkan.ImageObject{
			Handle:      vulkan.VkImage(i.Handle),
			Extent:      vulkan.VkExtent3D{Width: or1(i.Width), Height: or1(i.Height), Depth: 1},
			MipLevels:   or1(i.Mips),
			ArrayLayers: or1(i.Layers),
			Memory:      vulkan.VkDeviceMemory(i.Memory),
		})
	}
	for _, v := range r.ImageViews {
		rng, err := v.Subresources.parse()
		if err != nil {
			return errors.Wrapf(err, "image view %#x", v.Handle)
		}
		st.AddImageView(&vulkan.ImageViewObject{
			Handle:           vulkan.VkImageView(v.Handle),
			Image:            vulkan.VkImage(v.Image),
			SubresourceRange: rng,
		})
	}
	for _, s := range r.Swapchains {
		images := make([]vulkan.VkImage, len(s.Images))
		for i, h := range s.Images {
			images[i] = vulkan.VkImage(h)
		}
		st.AddSwapchain(&vulkan.SwapchainObject{Handle: vulkan.VkSwapchainKHR(s.Handle), Images: images})
	}
	for _, l := range r.SetLayouts {
		obj := &vulkan.DescriptorSetLayoutObject{Handle: vulkan.VkDescriptorSetLayout(l.Handle)}
		for _, b := range l.Bindings {
			t, err := vulkan.ParseDescriptorType(b.Type)
			if err != nil {
				return errors.Wrapf(err, "set layout %#x", l.Handle)
			}
			stages, err := vulkan.ParseShaderStageFlags(b.Stages)
			if err != nil {
				return errors.Wrapf(err, "set layout %#x", l.Handle)
			}
			obj.Bindings = append(obj.Bindings, vulkan.DescriptorSetLayoutBinding{
				Binding:    b.Binding,
				Type:       t,
				Count:      or1(b.Count),
				StageFlags: stages,
			})
		}
		st.AddDescriptorSetLayout(obj)
	}
	for _, s := range r.Sets {
		h := vulkan.VkDescriptorSet(s.Handle)
		if err := st.AddDescriptorSet(&vulkan.DescriptorSetObject{Handle: h, Layout: vulkan.VkDescriptorSetLayout(s.Layout)}); err != nil {
			return err
		}
		for _, w := range s.Writes {
			d := vulkan.Descriptor{
				Buffer:     vulkan.VkDescriptorBufferInfo{Buffer: vulkan.VkBuffer(w.Buffer), Offset: w.Offset, Range: w.Range},
				Image:      vulkan.VkDescriptorImageInfo{ImageView: vulkan.VkImageView(w.ImageView)},
				BufferView: vulkan.VkBufferView(w.BufferView),
			}
			if d.Buffer.Range == 0 {
				d.Buffer.Range = vulkan.VK_WHOLE_SIZE
			}
			if w.Layout != "" {
				l, err := vulkan.ParseImageLayout(w.Layout)
				if err != nil {
					return errors.Wrapf(err, "descriptor set %#x", s.Handle)
				}
				d.Image.ImageLayout = l
			}
			if err := st.WriteDescriptor(h, w.Binding, w.Element, d); err != nil {
				return err
			}
		}
	}
	for _, l := range r.PipelineLayouts {
		obj := &vulkan.PipelineLayoutObject{Handle: vulkan.VkPipelineLayout(l.Handle)}
		for _, s := range l.SetLayouts {
			obj.SetLayouts = append(obj.SetLayouts, vulkan.VkDescriptorSetLayout(s))
		}
		st.AddPipelineLayout(obj)
	}
	for _, p := range r.Pipelines {
		flags, err := vulkan.ParseShaderStageFlags(p.Stages)
		if err != nil {
			return errors.Wrapf(err, "pipeline %#x", p.Handle)
		}
		compute := vulkan.VkShaderStageFlags(vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_COMPUTE_BIT)
		if flags == compute {
			st.AddComputePipeline(&vulkan.ComputePipelineObject{
				Handle: vulkan.VkPipeline(p.Handle),
				Layout: vulkan.VkPipelineLayout(p.Layout),
				Stage:  vulkan.ShaderStage{Stage: vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_COMPUTE_BIT, EntryPoint: "main"},
			})
			continue
		}
		obj := &vulkan.GraphicsPipelineObject{
			Handle:     vulkan.VkPipeline(p.Handle),
			Layout:     vulkan.VkPipelineLayout(p.Layout),
			RenderPass: vulkan.VkRenderPass(p.RenderPass),
			Subpass:    p.Subpass,
		}
		for bit := vulkan.VkShaderStageFlagBits(1); bit <= vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_FRAGMENT_BIT; bit <<= 1 {
			if flags&vulkan.VkShaderStageFlags(bit) != 0 {
				obj.Stages = append(obj.Stages, vulkan.ShaderStage{Stage: bit, EntryPoint: "main"})
			}
		}
		st.AddGraphicsPipeline(obj)
	}
	for _, rp := range r.RenderPasses {
		obj := &vulkan.RenderPassObject{Handle: vulkan.VkRenderPass(rp.Handle), SubpassCount: or1(rp.Subpasses)}
		for _, d := range rp.Dependencies {
			dep, err := d.parse()
			if err != nil {
				return errors.Wrapf(err, "render pass %#x", rp.Handle)
			}
			obj.Dependencies = append(obj.Dependencies, dep)
		}
		st.AddRenderPass(obj)
	}
	for _, p := range r.Pools {
		st.AddCommandPool(vulkan.VkCommandPool(p), 0, 0)
	}
	return nil
}

func (d Dependency) parse() (vulkan.VkSubpassDependency, error) {
	out := vulkan.VkSubpassDependency{}
	var err error
	if out.SrcSubpass, err = parseSubpass(d.Src); err != nil {
		return out, err
	}
	if out.DstSubpass, err = parseSubpass(d.Dst); err != nil {
		return out, err
	}
	if out.SrcStageMask, err = vulkan.ParsePipelineStageFlags(d.SrcStages); err != nil {
		return out, err
	}
	if out.DstStageMask, err = vulkan.ParsePipelineStageFlags(d.DstStages); err != nil {
		return out, err
	}
	if out.SrcAccessMask, err = vulkan.ParseAccessFlags(d.SrcAccess); err != nil {
		return out, err
	}
	if out.DstAccessMask, err = vulkan.ParseAccessFlags(d.DstAccess); err != nil {
		return out, err
	}
	return out, nil
}
