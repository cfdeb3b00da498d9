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
	"sort"

	"github.com/google/vksync/gapis/api/vulkan"
)

const (
	stageTop          = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_TOP_OF_PIPE_BIT
	stageDrawIndirect = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_DRAW_INDIRECT_BIT
	stageVertexInput  = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_VERTEX_INPUT_BIT
	stageVertex       = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_VERTEX_SHADER_BIT
	stageTessCtrl     = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_TESSELLATION_CONTROL_SHADER_BIT
	stageTessEval     = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_TESSELLATION_EVALUATION_SHADER_BIT
	stageGeometry     = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_GEOMETRY_SHADER_BIT
	stageFragment     = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_FRAGMENT_SHADER_BIT
	stageEarlyTests   = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_EARLY_FRAGMENT_TESTS_BIT
	stageLateTests    = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_LATE_FRAGMENT_TESTS_BIT
	stageColorOutput  = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT
	stageCompute      = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_COMPUTE_SHADER_BIT
	stageTransfer     = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_TRANSFER_BIT
	stageBottom       = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_BOTTOM_OF_PIPE_BIT
	stageHost         = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_HOST_BIT
	stageAllGraphics  = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_ALL_GRAPHICS_BIT
	stageAllCommands  = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_ALL_COMMANDS_BIT
)

// Logically ordered pipelines. A stage happens-before every stage after it
// in any pipeline that contains both.
var (
	graphicsOrder = []vulkan.VkPipelineStageFlagBits{
		stageTop, stageDrawIndirect, stageVertexInput, stageVertex, stageTessCtrl,
		stageTessEval, stageGeometry, stageEarlyTests, stageFragment, stageLateTests,
		stageColorOutput, stageBottom,
	}
	computeOrder  = []vulkan.VkPipelineStageFlagBits{stageTop, stageDrawIndirect, stageCompute, stageBottom}
	transferOrder = []vulkan.VkPipelineStageFlagBits{stageTop, stageTransfer, stageBottom}
	orders        = [][]vulkan.VkPipelineStageFlagBits{graphicsOrder, computeOrder, transferOrder}
)

// DrawStages are the fixed function stages every draw executes in addition
// to its shader stages.
var DrawStages = []vulkan.VkPipelineStageFlagBits{
	stageVertexInput, stageEarlyTests, stageLateTests, stageColorOutput,
}

type stageSet map[vulkan.VkPipelineStageFlagBits]struct{}

func (s stageSet) sorted() []vulkan.VkPipelineStageFlagBits {
	out := make([]vulkan.VkPipelineStageFlagBits, 0, len(s))
	for b := range s {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s stageSet) has(b vulkan.VkPipelineStageFlagBits) bool {
	_, ok := s[b]
	return ok
}

// Explicit returns the stages named by mask, with ALL_GRAPHICS and
// ALL_COMMANDS replaced by their members.
func Explicit(mask vulkan.VkPipelineStageFlags) []vulkan.VkPipelineStageFlagBits {
	return explicit(mask).sorted()
}

func explicit(mask vulkan.VkPipelineStageFlags) stageSet {
	out := stageSet{}
	for bit := vulkan.VkPipelineStageFlagBits(1); bit != 0 && vulkan.VkPipelineStageFlags(bit) <= mask; bit <<= 1 {
		if mask&vulkan.VkPipelineStageFlags(bit) == 0 {
			continue
		}
		switch bit {
		case stageAllGraphics:
			for _, s := range graphicsOrder {
				out[s] = struct{}{}
			}
		case stageAllCommands:
			for _, o := range orders {
				for _, s := range o {
					out[s] = struct{}{}
				}
			}
		default:
			out[bit] = struct{}{}
		}
	}
	return out
}

// ExpandSrc returns the stages in the source execution scope of mask: every
// named stage and every stage logically earlier than one. TOP_OF_PIPE in a
// source mask names no work.
func ExpandSrc(mask vulkan.VkPipelineStageFlags) []vulkan.VkPipelineStageFlagBits {
	return expand(mask, true).sorted()
}

// ExpandDst returns the stages in the destination execution scope of mask:
// every named stage and every stage logically later than one. BOTTOM_OF_PIPE
// in a destination mask names no work.
func ExpandDst(mask vulkan.VkPipelineStageFlags) []vulkan.VkPipelineStageFlagBits {
	return expand(mask, false).sorted()
}

func expand(mask vulkan.VkPipelineStageFlags, src bool) stageSet {
	out := stageSet{}
	for s := range explicit(mask) {
		if s == stageHost {
			out[s] = struct{}{}
			continue
		}
		if (src && s == stageTop) || (!src && s == stageBottom) {
			continue
		}
		for _, o := range orders {
			idx := -1
			for i, b := range o {
				if b == s {
					idx = i
				}
			}
			if idx < 0 {
				continue
			}
			if src {
				for _, b := range o[:idx+1] {
					out[b] = struct{}{}
				}
			} else {
				for _, b := range o[idx:] {
					out[b] = struct{}{}
				}
			}
		}
	}
	return out
}

// ShaderStage returns the pipeline stage a shader stage executes in.
func ShaderStage(s vulkan.VkShaderStageFlagBits) (vulkan.VkPipelineStageFlagBits, bool) {
	switch s {
	case vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_VERTEX_BIT:
		return stageVertex, true
	case vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_TESSELLATION_CONTROL_BIT:
		return stageTessCtrl, true
	case vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_TESSELLATION_EVALUATION_BIT:
		return stageTessEval, true
	case vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_GEOMETRY_BIT:
		return stageGeometry, true
	case vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_FRAGMENT_BIT:
		return stageFragment, true
	case vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_COMPUTE_BIT:
		return stageCompute, true
	}
	return 0, false
}

// ShaderStages returns the pipeline stages of the shader stages in flags, in
// logical order.
func ShaderStages(flags vulkan.VkShaderStageFlags) []vulkan.VkPipelineStageFlagBits {
	out := stageSet{}
	for bit := vulkan.VkShaderStageFlagBits(1); bit <= vulkan.VkShaderStageFlagBits_VK_SHADER_STAGE_COMPUTE_BIT; bit <<= 1 {
		if flags&vulkan.VkShaderStageFlags(bit) == 0 {
			continue
		}
		if s, ok := ShaderStage(bit); ok {
			out[s] = struct{}{}
		}
	}
	return out.sorted()
}
