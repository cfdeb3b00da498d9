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

package sync_test

import (
	"context"
	"testing"

	"github.com/google/vksync/gapis/api/vulkan"
	"github.com/google/vksync/gapis/api/vulkan/sync"
	"github.com/stretchr/testify/require"
)

const (
	memory     vulkan.VkDeviceMemory        = 0x10
	buffer     vulkan.VkBuffer              = 0x20
	image      vulkan.VkImage               = 0x30
	imageView  vulkan.VkImageView           = 0x31
	otherImage vulkan.VkImage               = 0x32
	setLayout  vulkan.VkDescriptorSetLayout = 0x40
	set        vulkan.VkDescriptorSet       = 0x41
	unwritten  vulkan.VkDescriptorSet       = 0x42
	layout     vulkan.VkPipelineLayout      = 0x50
	pipeline   vulkan.VkPipeline            = 0x60
	renderPass vulkan.VkRenderPass          = 0x70
	pool       vulkan.VkCommandPool         = 0x80
	cbHandle   vulkan.VkCommandBuffer       = 0x81

	fragmentBit  = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_FRAGMENT_SHADER_BIT
	fragment     = vulkan.VkPipelineStageFlags(fragmentBit)
	vertexShader = vulkan.VkPipelineStageFlags(vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_VERTEX_SHADER_BIT)
	transfer     = vulkan.VkPipelineStageFlags(vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_TRANSFER_BIT)
	bottom       = vulkan.VkPipelineStageFlags(vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_BOTTOM_OF_PIPE_BIT)
	allCommands  = vulkan.VkPipelineStageFlags(vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_ALL_COMMANDS_BIT)

	shaderRead    = vulkan.VkAccessFlags(vulkan.VkAccessFlagBits_VK_ACCESS_SHADER_READ_BIT)
	shaderWrite   = vulkan.VkAccessFlags(vulkan.VkAccessFlagBits_VK_ACCESS_SHADER_WRITE_BIT)
	transferWrite = vulkan.VkAccessFlags(vulkan.VkAccessFlagBits_VK_ACCESS_TRANSFER_WRITE_BIT)
	memoryRead    = vulkan.VkAccessFlags(vulkan.VkAccessFlagBits_VK_ACCESS_MEMORY_READ_BIT)
	memoryWrite   = vulkan.VkAccessFlags(vulkan.VkAccessFlagBits_VK_ACCESS_MEMORY_WRITE_BIT)
)

var (
	storageBuffer = vulkan.DescriptorSetLayoutBinding{
		Binding:    0,
		Type:       vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_BUFFER,
		Count:      1,
		StageFlags: vulkan.VkShaderStageFlags(vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_FRAGMENT_BIT),
	}
	uniformBuffer = vulkan.DescriptorSetLayoutBinding{
		Binding:    0,
		Type:       vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER,
		Count:      1,
		StageFlags: vulkan.VkShaderStageFlags(vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_FRAGMENT_BIT),
	}
	storageImage = vulkan.DescriptorSetLayoutBinding{
		Binding:    0,
		Type:       vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_IMAGE,
		Count:      1,
		StageFlags: vulkan.VkShaderStageFlags(vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_FRAGMENT_BIT),
	}
	colorRange = vulkan.VkImageSubresourceRange{
		AspectMask: vulkan.VkImageAspectFlags(vulkan.VkImageAspectFlagBits_VK_IMAGE_ASPECT_COLOR_BIT),
		LevelCount: vulkan.VK_REMAINING_MIP_LEVELS,
		LayerCount: vulkan.VK_REMAINING_ARRAY_LAYERS,
	}
)

// fixture is a resource table with one pipeline whose single descriptor
// set uses the given bindings, and a command buffer being recorded.
type fixture struct {
	t  *testing.T
	st *vulkan.State
	cb *vulkan.CommandBuffer
}

func newFixture(t *testing.T, bindings ...vulkan.DescriptorSetLayoutBinding) *fixture {
	st := vulkan.NewState()
	st.AddDeviceMemory(&vulkan.DeviceMemoryObject{Handle: memory, AllocationSize: 1 << 20})
	st.AddBuffer(&vulkan.BufferObject{Handle: buffer, Size: 256, Memory: memory})
	for _, h := range []vulkan.VkImage{image, otherImage} {
		st.AddImage(&vulkan.ImageObject{
			Handle:      h,
			Extent:      vulkan.VkExtent3D{Width: 16, Height: 16, Depth: 1},
			MipLevels:   1,
			ArrayLayers: 1,
			Memory:      memory,
		})
	}
	st.AddImageView(&vulkan.ImageViewObject{Handle: imageView, Image: image, SubresourceRange: colorRange})
	st.AddDescriptorSetLayout(&vulkan.DescriptorSetLayoutObject{Handle: setLayout, Bindings: bindings})
	require.NoError(t, st.AddDescriptorSet(&vulkan.DescriptorSetObject{Handle: set, Layout: setLayout}))
	require.NoError(t, st.AddDescriptorSet(&vulkan.DescriptorSetObject{Handle: unwritten, Layout: setLayout}))
	for _, b := range bindings {
		for e := uint32(0); e < b.Count; e++ {
			d := vulkan.Descriptor{
				Image:  vulkan.VkDescriptorImageInfo{ImageView: imageView, ImageLayout: vulkan.VkImageLayout_VK_IMAGE_LAYOUT_GENERAL},
				Buffer: vulkan.VkDescriptorBufferInfo{Buffer: buffer, Offset: 0, Range: 64},
			}
			require.NoError(t, st.WriteDescriptor(set, b.Binding, e, d))
		}
	}
	st.AddPipelineLayout(&vulkan.PipelineLayoutObject{Handle: layout, SetLayouts: []vulkan.VkDescriptorSetLayout{setLayout}})
	st.AddGraphicsPipeline(&vulkan.GraphicsPipelineObject{
		Handle: pipeline,
		Layout: layout,
		Stages: []vulkan.ShaderStage{
			{Stage: vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_VERTEX_BIT, EntryPoint: "main"},
			{Stage: vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_FRAGMENT_BIT, EntryPoint: "main"},
		},
	})
	st.AddCommandPool(pool, 0, 0)
	cb, err := st.AllocateCommandBuffer(pool, cbHandle, vulkan.VkCommandBufferLevel_VK_COMMAND_BUFFER_LEVEL_PRIMARY)
	require.NoError(t, err)
	require.NoError(t, cb.Begin(vulkan.BeginInfo{}))
	return &fixture{t: t, st: st, cb: cb}
}

// record appends cmds, using one plus the record index as the origin.
func (f *fixture) record(cmds ...vulkan.Command) *fixture {
	for _, c := range cmds {
		require.NoError(f.t, f.cb.Append(c, vulkan.Origin(len(f.cb.Records)+1)))
	}
	return f
}

func (f *fixture) build(ctx context.Context, cfg sync.Config, sink sync.Sink) (*sync.Graph, sync.Result) {
	require.NoError(f.t, f.cb.End())
	return sync.NewValidator(f.st, sink, cfg).Build(ctx, 0, f.cb)
}

func (f *fixture) validate(ctx context.Context) sync.Result {
	_, res := f.build(ctx, sync.DefaultConfig(), nil)
	return res
}

func bind(s vulkan.VkDescriptorSet, dynamicOffsets ...uint32) []vulkan.Command {
	return []vulkan.Command{
		&vulkan.VkCmdBindPipeline{Pipeline: pipeline},
		&vulkan.VkCmdBindDescriptorSets{Layout: layout, DescriptorSets: []vulkan.VkDescriptorSet{s}, DynamicOffsets: dynamicOffsets},
	}
}

func draw() *vulkan.VkCmdDraw {
	return &vulkan.VkCmdDraw{VertexCount: 3, InstanceCount: 1}
}

func memoryBarrier(srcStage, dstStage vulkan.VkPipelineStageFlags, src, dst vulkan.VkAccessFlags) *vulkan.VkCmdPipelineBarrier {
	return &vulkan.VkCmdPipelineBarrier{
		SrcStageMask:   srcStage,
		DstStageMask:   dstStage,
		MemoryBarriers: []vulkan.VkMemoryBarrier{{SrcAccessMask: src, DstAccessMask: dst}},
	}
}

func kinds(r sync.Result) []sync.HazardKind {
	out := []sync.HazardKind{}
	for _, h := range r.Hazards {
		out = append(out, h.Kind)
	}
	return out
}
