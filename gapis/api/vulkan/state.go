// Copyright (C) 2020 Google Inc.
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
	"sort"

	"github.com/google/vksync/core/math/interval"
)

// DeviceMemoryObject is a device memory allocation.
type DeviceMemoryObject struct {
	Handle          VkDeviceMemory
	UID             uint64 // unique for the lifetime of the process, handles may be reused
	AllocationSize  uint64
	MemoryTypeIndex uint32
	Mapped          MappedState
}

// MappedState describes the host mapping of a device memory allocation.
type MappedState struct {
	IsMapped bool
	Offset   uint64
	Size     uint64
}

// MemoryRequirements mirrors VkMemoryRequirements.
type MemoryRequirements struct {
	Size           uint64
	Alignment      uint64
	MemoryTypeBits uint32
}

// BufferObject is a buffer and its memory binding.
type BufferObject struct {
	Handle       VkBuffer
	Size         uint64
	Usage        VkBufferUsageFlags
	Memory       VkDeviceMemory
	MemoryOffset uint64
	Requirements MemoryRequirements
}

// Span returns the byte span [offset, offset+rng) of the buffer, resolving
// VK_WHOLE_SIZE and clamping to the buffer size.
func (b *BufferObject) Span(offset, rng uint64) interval.U64Span {
	if offset > b.Size {
		offset = b.Size
	}
	if rng == VK_WHOLE_SIZE || offset+rng > b.Size || offset+rng < offset {
		rng = b.Size - offset
	}
	return interval.U64Span{Start: offset, End: offset + rng}
}

// BufferViewObject is a texel view of a buffer.
type BufferViewObject struct {
	Handle VkBufferView
	Buffer VkBuffer
	Format VkFormat
	Offset uint64
	Range  uint64
}

// VkExtent3D mirrors the Vulkan struct of the same name.
type VkExtent3D struct {
	Width, Height, Depth uint32
}

// VkImageSubresource identifies a single subresource of an image.
type VkImageSubresource struct {
	AspectMask VkImageAspectFlags
	MipLevel   uint32
	ArrayLayer uint32
}

// VkSubresourceLayout mirrors the Vulkan struct of the same name.
type VkSubresourceLayout struct {
	Offset     uint64
	Size       uint64
	RowPitch   uint64
	ArrayPitch uint64
	DepthPitch uint64
}

// VkImageSubresourceRange mirrors the Vulkan struct of the same name.
type VkImageSubresourceRange struct {
	AspectMask     VkImageAspectFlags
	BaseMipLevel   uint32
	LevelCount     uint32
	BaseArrayLayer uint32
	LayerCount     uint32
}

// ImageObject is an image and its memory binding.
type ImageObject struct {
	Handle         VkImage
	Extent         VkExtent3D
	Format         VkFormat
	MipLevels      uint32
	ArrayLayers    uint32
	Tiling         VkImageTiling
	Usage          VkImageUsageFlags
	Memory         VkDeviceMemory
	MemoryOffset   uint64
	Requirements   MemoryRequirements
	Swapchain      VkSwapchainKHR // non-zero for presentable images
	SwapchainIndex uint32
	LinearLayouts  map[VkImageSubresource]VkSubresourceLayout
}

// Resolve returns r with the VK_REMAINING_* counts replaced by the actual
// number of levels and layers of the image.
func (i *ImageObject) Resolve(r VkImageSubresourceRange) VkImageSubresourceRange {
	if r.LevelCount == VK_REMAINING_MIP_LEVELS {
		r.LevelCount = 0
		if r.BaseMipLevel < i.MipLevels {
			r.LevelCount = i.MipLevels - r.BaseMipLevel
		}
	}
	if r.LayerCount == VK_REMAINING_ARRAY_LAYERS {
		r.LayerCount = 0
		if r.BaseArrayLayer < i.ArrayLayers {
			r.LayerCount = i.ArrayLayers - r.BaseArrayLayer
		}
	}
	return r
}

// ImageViewObject is a view of an image subresource range.
type ImageViewObject struct {
	Handle           VkImageView
	Image            VkImage
	Format           VkFormat
	SubresourceRange VkImageSubresourceRange
}

// DescriptorSetLayoutBinding is one binding of a descriptor set layout.
type DescriptorSetLayoutBinding struct {
	Binding           uint32
	Type              VkDescriptorType
	Count             uint32
	StageFlags        VkShaderStageFlags
	ImmutableSamplers []VkSampler
}

// DescriptorSetLayoutObject is an ordered list of bindings.
type DescriptorSetLayoutObject struct {
	Handle   VkDescriptorSetLayout
	Bindings []DescriptorSetLayoutBinding
}

// DynamicCount returns the number of dynamic buffer descriptors in the layout.
func (l *DescriptorSetLayoutObject) DynamicCount() int {
	n := 0
	for _, b := range l.Bindings {
		if b.Type.IsDynamic() {
			n += int(b.Count)
		}
	}
	return n
}

// SortedBindings returns the bindings in increasing binding number.
func (l *DescriptorSetLayoutObject) SortedBindings() []DescriptorSetLayoutBinding {
	out := append([]DescriptorSetLayoutBinding{}, l.Bindings...)
	sort.Slice(out, func(i, j int) bool { return out[i].Binding < out[j].Binding })
	return out
}

// VkDescriptorImageInfo mirrors the Vulkan struct of the same name.
type VkDescriptorImageInfo struct {
	Sampler     VkSampler
	ImageView   VkImageView
	ImageLayout VkImageLayout
}

// VkDescriptorBufferInfo mirrors the Vulkan struct of the same name.
type VkDescriptorBufferInfo struct {
	Buffer VkBuffer
	Offset uint64
	Range  uint64
}

// Descriptor is a single array element of a descriptor set binding.
type Descriptor struct {
	Written    bool
	Image      VkDescriptorImageInfo
	Buffer     VkDescriptorBufferInfo
	BufferView VkBufferView
}

// DescriptorBinding is the array of descriptors for one binding number.
type DescriptorBinding struct {
	Type        VkDescriptorType
	Descriptors []Descriptor
}

// DescriptorSetObject is an allocated descriptor set.
type DescriptorSetObject struct {
	Handle   VkDescriptorSet
	Layout   VkDescriptorSetLayout
	Bindings map[uint32]*DescriptorBinding
}

// VkPushConstantRange mirrors the Vulkan struct of the same name.
type VkPushConstantRange struct {
	StageFlags VkShaderStageFlags
	Offset     uint32
	Size       uint32
}

// PipelineLayoutObject is an ordered list of set layouts.
type PipelineLayoutObject struct {
	Handle             VkPipelineLayout
	SetLayouts         []VkDescriptorSetLayout
	PushConstantRanges []VkPushConstantRange
}

// ShaderStage is one shader of a pipeline.
type ShaderStage struct {
	Stage      VkShaderStageFlagBits
	EntryPoint string
}

// GraphicsPipelineObject is a graphics pipeline.
type GraphicsPipelineObject struct {
	Handle     VkPipeline
	Layout     VkPipelineLayout
	RenderPass VkRenderPass
	Subpass    uint32
	Stages     []ShaderStage
}

// ShaderStages returns the union of the pipeline's shader stage bits.
func (p *GraphicsPipelineObject) ShaderStages() VkShaderStageFlags {
	out := VkShaderStageFlags(0)
	for _, s := range p.Stages {
		out |= VkShaderStageFlags(s.Stage)
	}
	return out
}

// ComputePipelineObject is a compute pipeline.
type ComputePipelineObject struct {
	Handle VkPipeline
	Layout VkPipelineLayout
	Stage  ShaderStage
}

// VkSubpassDependency mirrors the Vulkan struct of the same name.
type VkSubpassDependency struct {
	SrcSubpass      uint32
	DstSubpass      uint32
	SrcStageMask    VkPipelineStageFlags
	DstStageMask    VkPipelineStageFlags
	SrcAccessMask   VkAccessFlags
	DstAccessMask   VkAccessFlags
	DependencyFlags VkDependencyFlags
}

// RenderPassObject is a render pass.
type RenderPassObject struct {
	Handle       VkRenderPass
	SubpassCount uint32
	Dependencies []VkSubpassDependency
}

// SwapchainObject is a swapchain and its presentable images.
type SwapchainObject struct {
	Handle VkSwapchainKHR
	Images []VkImage
}

// State is the table of live objects the validator reads. Callers serialize
// access to it.
type State struct {
	deviceMemories       map[VkDeviceMemory]*DeviceMemoryObject
	buffers              map[VkBuffer]*BufferObject
	bufferViews          map[VkBufferView]*BufferViewObject
	images               map[VkImage]*ImageObject
	imageViews           map[VkImageView]*ImageViewObject
	descriptorSetLayouts map[VkDescriptorSetLayout]*DescriptorSetLayoutObject
	descriptorSets       map[VkDescriptorSet]*DescriptorSetObject
	pipelineLayouts      map[VkPipelineLayout]*PipelineLayoutObject
	graphicsPipelines    map[VkPipeline]*GraphicsPipelineObject
	computePipelines     map[VkPipeline]*ComputePipelineObject
	renderPasses         map[VkRenderPass]*RenderPassObject
	swapchains           map[VkSwapchainKHR]*SwapchainObject
	commandPools         map[VkCommandPool]*CommandPoolObject
	commandBuffers       map[VkCommandBuffer]*CommandBuffer
	nextMemoryUID        uint64
}

// NewState returns an empty object table.
func NewState() *State {
	return &State{
		deviceMemories:       map[VkDeviceMemory]*DeviceMemoryObject{},
		buffers:              map[VkBuffer]*BufferObject{},
		bufferViews:          map[VkBufferView]*BufferViewObject{},
		images:               map[VkImage]*ImageObject{},
		imageViews:           map[VkImageView]*ImageViewObject{},
		descriptorSetLayouts: map[VkDescriptorSetLayout]*DescriptorSetLayoutObject{},
		descriptorSets:       map[VkDescriptorSet]*DescriptorSetObject{},
		pipelineLayouts:      map[VkPipelineLayout]*PipelineLayoutObject{},
		graphicsPipelines:    map[VkPipeline]*GraphicsPipelineObject{},
		computePipelines:     map[VkPipeline]*ComputePipelineObject{},
		renderPasses:         map[VkRenderPass]*RenderPassObject{},
		swapchains:           map[VkSwapchainKHR]*SwapchainObject{},
		commandPools:         map[VkCommandPool]*CommandPoolObject{},
		commandBuffers:       map[VkCommandBuffer]*CommandBuffer{},
		nextMemoryUID:        1,
	}
}

// Lookups.

func (st *State) DeviceMemory(h VkDeviceMemory) (*DeviceMemoryObject, bool) {
	o, ok := st.deviceMemories[h]
	return o, ok
}

func (st *State) Buffer(h VkBuffer) (*BufferObject, bool) {
	o, ok := st.buffers[h]
	return o, ok
}

func (st *State) BufferView(h VkBufferView) (*BufferViewObject, bool) {
	o, ok := st.bufferViews[h]
	return o, ok
}

func (st *State) Image(h VkImage) (*ImageObject, bool) {
	o, ok := st.images[h]
	return o, ok
}

func (st *State) ImageView(h VkImageView) (*ImageViewObject, bool) {
	o, ok := st.imageViews[h]
	return o, ok
}

func (st *State) DescriptorSetLayout(h VkDescriptorSetLayout) (*DescriptorSetLayoutObject, bool) {
	o, ok := st.descriptorSetLayouts[h]
	return o, ok
}

func (st *State) DescriptorSet(h VkDescriptorSet) (*DescriptorSetObject, bool) {
	o, ok := st.descriptorSets[h]
	return o, ok
}

func (st *State) PipelineLayout(h VkPipelineLayout) (*PipelineLayoutObject, bool) {
	o, ok := st.pipelineLayouts[h]
	return o, ok
}

func (st *State) GraphicsPipeline(h VkPipeline) (*GraphicsPipelineObject, bool) {
	o, ok := st.graphicsPipelines[h]
	return o, ok
}

func (st *State) ComputePipeline(h VkPipeline) (*ComputePipelineObject, bool) {
	o, ok := st.computePipelines[h]
	return o, ok
}

func (st *State) RenderPass(h VkRenderPass) (*RenderPassObject, bool) {
	o, ok := st.renderPasses[h]
	return o, ok
}

func (st *State) Swapchain(h VkSwapchainKHR) (*SwapchainObject, bool) {
	o, ok := st.swapchains[h]
	return o, ok
}

func (st *State) CommandPool(h VkCommandPool) (*CommandPoolObject, bool) {
	o, ok := st.commandPools[h]
	return o, ok
}

func (st *State) CommandBuffer(h VkCommandBuffer) (*CommandBuffer, bool) {
	o, ok := st.commandBuffers[h]
	return o, ok
}

// Mutators. These mirror the create and destroy calls of the application.

// AddDeviceMemory adds o, assigning it a fresh UID.
func (st *State) AddDeviceMemory(o *DeviceMemoryObject) {
	o.UID = st.nextMemoryUID
	st.nextMemoryUID++
	st.deviceMemories[o.Handle] = o
}

func (st *State) AddBuffer(o *BufferObject)                     { st.buffers[o.Handle] = o }
func (st *State) AddBufferView(o *BufferViewObject)             { st.bufferViews[o.Handle] = o }
func (st *State) AddImage(o *ImageObject)                       { st.images[o.Handle] = o }
func (st *State) AddImageView(o *ImageViewObject)               { st.imageViews[o.Handle] = o }
func (st *State) AddPipelineLayout(o *PipelineLayoutObject)     { st.pipelineLayouts[o.Handle] = o }
func (st *State) AddGraphicsPipeline(o *GraphicsPipelineObject) { st.graphicsPipelines[o.Handle] = o }
func (st *State) AddComputePipeline(o *ComputePipelineObject)   { st.computePipelines[o.Handle] = o }
func (st *State) AddRenderPass(o *RenderPassObject)             { st.renderPasses[o.Handle] = o }

func (st *State) AddDescriptorSetLayout(o *DescriptorSetLayoutObject) {
	st.descriptorSetLayouts[o.Handle] = o
}

// AddDescriptorSet adds o with one unwritten binding entry for every binding
// of its layout that o does not already describe.
func (st *State) AddDescriptorSet(o *DescriptorSetObject) error {
	layout, ok := st.descriptorSetLayouts[o.Layout]
	if !ok {
		return fmt.Errorf("Descriptor set %v allocated with unknown layout %v", o.Handle, o.Layout)
	}
	if o.Bindings == nil {
		o.Bindings = map[uint32]*DescriptorBinding{}
	}
	for _, b := range layout.Bindings {
		if _, ok := o.Bindings[b.Binding]; !ok {
			o.Bindings[b.Binding] = &DescriptorBinding{
				Type:        b.Type,
				Descriptors: make([]Descriptor, b.Count),
			}
		}
	}
	st.descriptorSets[o.Handle] = o
	return nil
}

// AddSwapchain adds o and marks each of its images as presentable.
func (st *State) AddSwapchain(o *SwapchainObject) {
	st.swapchains[o.Handle] = o
	for i, img := range o.Images {
		if obj, ok := st.images[img]; ok {
			obj.Swapchain = o.Handle
			obj.SwapchainIndex = uint32(i)
		}
	}
}

// WriteDescriptor stores d at the given binding and array element of the set,
// marking it written.
func (st *State) WriteDescriptor(set VkDescriptorSet, binding, element uint32, d Descriptor) error {
	s, ok := st.descriptorSets[set]
	if !ok {
		return fmt.Errorf("Unknown descriptor set %v", set)
	}
	b, ok := s.Bindings[binding]
	if !ok {
		return fmt.Errorf("Descriptor set %v has no binding %v", set, binding)
	}
	if int(element) >= len(b.Descriptors) {
		return fmt.Errorf("Descriptor set %v binding %v has %v elements, writing element %v",
			set, binding, len(b.Descriptors), element)
	}
	d.Written = true
	b.Descriptors[element] = d
	return nil
}

func (st *State) RemoveDeviceMemory(h VkDeviceMemory) { delete(st.deviceMemories, h) }
func (st *State) RemoveBuffer(h VkBuffer)             { delete(st.buffers, h) }
func (st *State) RemoveBufferView(h VkBufferView)     { delete(st.bufferViews, h) }
func (st *State) RemoveImage(h VkImage)               { delete(st.images, h) }
func (st *State) RemoveImageView(h VkImageView)       { delete(st.imageViews, h) }
func (st *State) RemoveDescriptorSet(h VkDescriptorSet) {
	delete(st.descriptorSets, h)
}
func (st *State) RemovePipeline(h VkPipeline) {
	delete(st.graphicsPipelines, h)
	delete(st.computePipelines, h)
}
