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

package vulkan_test

import (
	"testing"

	"github.com/google/vksync/core/math/interval"
	"github.com/google/vksync/gapis/api/vulkan"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupsDistinguishMissing(t *testing.T) {
	st := vulkan.NewState()
	_, ok := st.Buffer(1)
	assert.False(t, ok)
	st.AddBuffer(&vulkan.BufferObject{Handle: 1, Size: 64})
	b, ok := st.Buffer(1)
	require.True(t, ok)
	assert.Equal(t, uint64(64), b.Size)
	st.RemoveBuffer(1)
	_, ok = st.Buffer(1)
	assert.False(t, ok)
}

func TestDeviceMemoryUIDs(t *testing.T) {
	st := vulkan.NewState()
	a := &vulkan.DeviceMemoryObject{Handle: 1}
	b := &vulkan.DeviceMemoryObject{Handle: 1}
	st.AddDeviceMemory(a)
	st.RemoveDeviceMemory(1)
	st.AddDeviceMemory(b)
	assert.NotEqual(t, a.UID, b.UID)
}

func TestBufferSpan(t *testing.T) {
	b := &vulkan.BufferObject{Size: 256}
	assert.Equal(t, interval.U64Span{Start: 0, End: 64}, b.Span(0, 64))
	assert.Equal(t, interval.U64Span{Start: 64, End: 256}, b.Span(64, vulkan.VK_WHOLE_SIZE))
	assert.Equal(t, interval.U64Span{Start: 200, End: 256}, b.Span(200, 100))
}

func TestImageResolve(t *testing.T) {
	img := &vulkan.ImageObject{MipLevels: 4, ArrayLayers: 6}
	r := img.Resolve(vulkan.VkImageSubresourceRange{
		BaseMipLevel:   1,
		LevelCount:     vulkan.VK_REMAINING_MIP_LEVELS,
		BaseArrayLayer: 2,
		LayerCount:     vulkan.VK_REMAINING_ARRAY_LAYERS,
	})
	assert.Equal(t, uint32(3), r.LevelCount)
	assert.Equal(t, uint32(4), r.LayerCount)
}

func TestDescriptorSets(t *testing.T) {
	st := vulkan.NewState()
	err := st.AddDescriptorSet(&vulkan.DescriptorSetObject{Handle: 1, Layout: 2})
	assert.Error(t, err)

	st.AddDescriptorSetLayout(&vulkan.DescriptorSetLayoutObject{
		Handle: 2,
		Bindings: []vulkan.DescriptorSetLayoutBinding{
			{Binding: 3, Type: vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_BUFFER_DYNAMIC, Count: 2},
			{Binding: 0, Type: vulkan.VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER, Count: 1},
		},
	})
	require.NoError(t, st.AddDescriptorSet(&vulkan.DescriptorSetObject{Handle: 1, Layout: 2}))
	set, ok := st.DescriptorSet(1)
	require.True(t, ok)
	require.Len(t, set.Bindings[3].Descriptors, 2)
	assert.False(t, set.Bindings[3].Descriptors[1].Written)

	require.NoError(t, st.WriteDescriptor(1, 3, 1, vulkan.Descriptor{
		Buffer: vulkan.VkDescriptorBufferInfo{Buffer: 9, Range: 16},
	}))
	assert.True(t, set.Bindings[3].Descriptors[1].Written)
	assert.Error(t, st.WriteDescriptor(1, 3, 2, vulkan.Descriptor{}))
	assert.Error(t, st.WriteDescriptor(1, 7, 0, vulkan.Descriptor{}))
	assert.Error(t, st.WriteDescriptor(5, 0, 0, vulkan.Descriptor{}))

	layout, _ := st.DescriptorSetLayout(2)
	assert.Equal(t, 2, layout.DynamicCount())
	assert.Equal(t, uint32(0), layout.SortedBindings()[0].Binding)
}

func TestSwapchainImages(t *testing.T) {
	st := vulkan.NewState()
	st.AddImage(&vulkan.ImageObject{Handle: 4})
	st.AddImage(&vulkan.ImageObject{Handle: 5})
	st.AddSwapchain(&vulkan.SwapchainObject{Handle: 1, Images: []vulkan.VkImage{4, 5}})
	img, _ := st.Image(5)
	assert.Equal(t, vulkan.VkSwapchainKHR(1), img.Swapchain)
	assert.Equal(t, uint32(1), img.SwapchainIndex)
}

func TestAccessCovers(t *testing.T) {
	shaderRead := vulkan.VkAccessFlags(vulkan.VkAccessFlagBits_VK_ACCESS_SHADER_READ_BIT)
	memWrite := vulkan.VkAccessFlags(vulkan.VkAccessFlagBits_VK_ACCESS_MEMORY_WRITE_BIT)
	assert.True(t, shaderRead.Covers(vulkan.VkAccessFlagBits_VK_ACCESS_UNIFORM_READ_BIT))
	assert.False(t, shaderRead.Covers(vulkan.VkAccessFlagBits_VK_ACCESS_SHADER_WRITE_BIT))
	assert.True(t, memWrite.Covers(vulkan.VkAccessFlagBits_VK_ACCESS_TRANSFER_WRITE_BIT))
	assert.False(t, memWrite.Covers(vulkan.VkAccessFlagBits_VK_ACCESS_TRANSFER_READ_BIT))
	assert.False(t, shaderRead.Covers(0))
}

func TestEnumNames(t *testing.T) {
	stages, err := vulkan.ParsePipelineStageFlags([]string{"fragment_shader", "TRANSFER"})
	require.NoError(t, err)
	assert.Equal(t, "FRAGMENT_SHADER|TRANSFER", stages.String())

	_, err = vulkan.ParsePipelineStageFlags([]string{"WARP"})
	assert.Equal(t, vulkan.ErrUnknownName, errors.Cause(err))

	shader, err := vulkan.ParseShaderStageFlags([]string{"ALL_GRAPHICS"})
	require.NoError(t, err)
	assert.Equal(t, "VERTEX|TESSELLATION_CONTROL|TESSELLATION_EVALUATION|GEOMETRY|FRAGMENT", shader.String())

	ty, err := vulkan.ParseDescriptorType("storage_buffer")
	require.NoError(t, err)
	assert.True(t, ty.IsStorage())
	assert.False(t, ty.IsDynamic())

	layout, err := vulkan.ParseImageLayout("GENERAL")
	require.NoError(t, err)
	assert.Equal(t, "GENERAL", layout.String())

	assert.Equal(t, "0", vulkan.VkAccessFlags(0).String())
	assert.Equal(t, "SHADER_WRITE|0x80000000", vulkan.VkAccessFlags(0x80000040).String())
}
