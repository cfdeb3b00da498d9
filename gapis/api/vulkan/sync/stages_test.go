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
	"testing"

	"github.com/google/vksync/gapis/api/vulkan"
	"github.com/google/vksync/gapis/api/vulkan/sync"
	"github.com/stretchr/testify/assert"
)

func stages(names ...string) []vulkan.VkPipelineStageFlagBits {
	out := []vulkan.VkPipelineStageFlagBits{}
	for _, n := range names {
		f, err := vulkan.ParsePipelineStageFlags([]string{n})
		if err != nil {
			panic(err)
		}
		out = append(out, vulkan.VkPipelineStageFlagBits(f))
	}
	return out
}

func mask(names ...string) vulkan.VkPipelineStageFlags {
	f, err := vulkan.ParsePipelineStageFlags(names)
	if err != nil {
		panic(err)
	}
	return f
}

func TestStageExpansion(t *testing.T) {
	everything := stages("TOP_OF_PIPE", "DRAW_INDIRECT", "VERTEX_INPUT", "VERTEX_SHADER",
		"TESSELLATION_CONTROL_SHADER", "TESSELLATION_EVALUATION_SHADER", "GEOMETRY_SHADER",
		"FRAGMENT_SHADER", "EARLY_FRAGMENT_TESTS", "LATE_FRAGMENT_TESTS", "COLOR_ATTACHMENT_OUTPUT",
		"COMPUTE_SHADER", "TRANSFER", "BOTTOM_OF_PIPE")

	assert.Equal(t, stages("TOP_OF_PIPE", "DRAW_INDIRECT", "VERTEX_INPUT", "VERTEX_SHADER",
		"TESSELLATION_CONTROL_SHADER", "TESSELLATION_EVALUATION_SHADER", "GEOMETRY_SHADER",
		"FRAGMENT_SHADER", "EARLY_FRAGMENT_TESTS"), sync.ExpandSrc(mask("FRAGMENT_SHADER")))
	assert.Equal(t, stages("FRAGMENT_SHADER", "LATE_FRAGMENT_TESTS", "COLOR_ATTACHMENT_OUTPUT", "BOTTOM_OF_PIPE"),
		sync.ExpandDst(mask("FRAGMENT_SHADER")))
	assert.Equal(t, stages("TOP_OF_PIPE", "TRANSFER"), sync.ExpandSrc(mask("TRANSFER")))
	assert.Equal(t, stages("TOP_OF_PIPE", "DRAW_INDIRECT", "COMPUTE_SHADER"), sync.ExpandSrc(mask("COMPUTE_SHADER")))

	assert.Empty(t, sync.ExpandSrc(mask("TOP_OF_PIPE")))
	assert.Empty(t, sync.ExpandDst(mask("BOTTOM_OF_PIPE")))
	assert.Equal(t, everything, sync.ExpandSrc(mask("BOTTOM_OF_PIPE")))
	assert.Equal(t, everything, sync.ExpandDst(mask("TOP_OF_PIPE")))
	assert.Equal(t, everything, sync.ExpandDst(mask("ALL_COMMANDS")))
	assert.Equal(t, stages("HOST"), sync.ExpandDst(mask("HOST")))

	assert.Equal(t, stages("FRAGMENT_SHADER", "TRANSFER"), sync.Explicit(mask("FRAGMENT_SHADER", "TRANSFER")))
	assert.Len(t, sync.Explicit(mask("ALL_GRAPHICS")), 12)
}

func TestShaderStages(t *testing.T) {
	s, ok := sync.ShaderStage(vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_COMPUTE_BIT)
	assert.True(t, ok)
	assert.Equal(t, vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_COMPUTE_SHADER_BIT, s)
	_, ok = sync.ShaderStage(vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_ALL_GRAPHICS)
	assert.False(t, ok)

	all := vulkan.VkShaderStageFlags(vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_ALL)
	assert.Equal(t, stages("VERTEX_SHADER", "TESSELLATION_CONTROL_SHADER", "TESSELLATION_EVALUATION_SHADER",
		"GEOMETRY_SHADER", "FRAGMENT_SHADER", "COMPUTE_SHADER"), sync.ShaderStages(all))
	graphics := vulkan.VkShaderStageFlags(vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_ALL_GRAPHICS)
	assert.NotContains(t, sync.ShaderStages(graphics), vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_COMPUTE_SHADER_BIT)
	compute := vulkan.VkShaderStageFlags(vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_COMPUTE_BIT)
	assert.Equal(t, stages("COMPUTE_SHADER"), sync.ShaderStages(compute))
}
