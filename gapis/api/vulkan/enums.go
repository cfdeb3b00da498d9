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

	"github.com/pkg/errors"

	"github.com/google/vksync/core/fault"
)

// ErrUnknownName is returned when an enum or flag name cannot be parsed.
const ErrUnknownName = fault.Const("Unknown enum name")

// Handles.
type (
	VkBuffer              uint64
	VkBufferView          uint64
	VkImage               uint64
	VkImageView           uint64
	VkDeviceMemory        uint64
	VkDescriptorSet       uint64
	VkDescriptorSetLayout uint64
	VkPipelineLayout      uint64
	VkPipeline            uint64
	VkRenderPass          uint64
	VkFramebuffer         uint64
	VkSampler             uint64
	VkSwapchainKHR        uint64
	VkCommandPool         uint64
	VkCommandBuffer       uint64
	VkQueue               uint64
)

// Special values.
const (
	VK_WHOLE_SIZE             = ^uint64(0)
	VK_REMAINING_MIP_LEVELS   = ^uint32(0)
	VK_REMAINING_ARRAY_LAYERS = ^uint32(0)
	VK_SUBPASS_EXTERNAL       = ^uint32(0)
	VK_QUEUE_FAMILY_IGNORED   = ^uint32(0)
)

type VkPipelineStageFlagBits uint32
type VkPipelineStageFlags uint32

const (
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_TOP_OF_PIPE_BIT                    VkPipelineStageFlagBits = 0x00000001
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_DRAW_INDIRECT_BIT                  VkPipelineStageFlagBits = 0x00000002
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_VERTEX_INPUT_BIT                   VkPipelineStageFlagBits = 0x00000004
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_VERTEX_SHADER_BIT                  VkPipelineStageFlagBits = 0x00000008
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_TESSELLATION_CONTROL_SHADER_BIT    VkPipelineStageFlagBits = 0x00000010
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_TESSELLATION_EVALUATION_SHADER_BIT VkPipelineStageFlagBits = 0x00000020
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_GEOMETRY_SHADER_BIT                VkPipelineStageFlagBits = 0x00000040
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_FRAGMENT_SHADER_BIT                VkPipelineStageFlagBits = 0x00000080
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_EARLY_FRAGMENT_TESTS_BIT           VkPipelineStageFlagBits = 0x00000100
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_LATE_FRAGMENT_TESTS_BIT            VkPipelineStageFlagBits = 0x00000200
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_COLOR_ATTACHMENT_OUTPUT_BIT        VkPipelineStageFlagBits = 0x00000400
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_COMPUTE_SHADER_BIT                 VkPipelineStageFlagBits = 0x00000800
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_TRANSFER_BIT                       VkPipelineStageFlagBits = 0x00001000
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_BOTTOM_OF_PIPE_BIT                 VkPipelineStageFlagBits = 0x00002000
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_HOST_BIT                           VkPipelineStageFlagBits = 0x00004000
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_ALL_GRAPHICS_BIT                   VkPipelineStageFlagBits = 0x00008000
	VkPipelineStageFlagBits_VK_PIPELINE_STAGE_ALL_COMMANDS_BIT                   VkPipelineStageFlagBits = 0x00010000
)

type VkAccessFlagBits uint32
type VkAccessFlags uint32

const (
	VkAccessFlagBits_VK_ACCESS_INDIRECT_COMMAND_READ_BIT          VkAccessFlagBits = 0x00000001
	VkAccessFlagBits_VK_ACCESS_INDEX_READ_BIT                     VkAccessFlagBits = 0x00000002
	VkAccessFlagBits_VK_ACCESS_VERTEX_ATTRIBUTE_READ_BIT          VkAccessFlagBits = 0x00000004
	VkAccessFlagBits_VK_ACCESS_UNIFORM_READ_BIT                   VkAccessFlagBits = 0x00000008
	VkAccessFlagBits_VK_ACCESS_INPUT_ATTACHMENT_READ_BIT          VkAccessFlagBits = 0x00000010
	VkAccessFlagBits_VK_ACCESS_SHADER_READ_BIT                    VkAccessFlagBits = 0x00000020
	VkAccessFlagBits_VK_ACCESS_SHADER_WRITE_BIT                   VkAccessFlagBits = 0x00000040
	VkAccessFlagBits_VK_ACCESS_COLOR_ATTACHMENT_READ_BIT          VkAccessFlagBits = 0x00000080
	VkAccessFlagBits_VK_ACCESS_COLOR_ATTACHMENT_WRITE_BIT         VkAccessFlagBits = 0x00000100
	VkAccessFlagBits_VK_ACCESS_DEPTH_STENCIL_ATTACHMENT_READ_BIT  VkAccessFlagBits = 0x00000200
	VkAccessFlagBits_VK_ACCESS_DEPTH_STENCIL_ATTACHMENT_WRITE_BIT VkAccessFlagBits = 0x00000400
	VkAccessFlagBits_VK_ACCESS_TRANSFER_READ_BIT                  VkAccessFlagBits = 0x00000800
	VkAccessFlagBits_VK_ACCESS_TRANSFER_WRITE_BIT                 VkAccessFlagBits = 0x00001000
	VkAccessFlagBits_VK_ACCESS_HOST_READ_BIT                      VkAccessFlagBits = 0x00002000
	VkAccessFlagBits_VK_ACCESS_HOST_WRITE_BIT                     VkAccessFlagBits = 0x00004000
	VkAccessFlagBits_VK_ACCESS_MEMORY_READ_BIT                    VkAccessFlagBits = 0x00008000
	VkAccessFlagBits_VK_ACCESS_MEMORY_WRITE_BIT                   VkAccessFlagBits = 0x00010000
)

const (
	readAccessBits = VkAccessFlags(VkAccessFlagBits_VK_ACCESS_INDIRECT_COMMAND_READ_BIT |
		VkAccessFlagBits_VK_ACCESS_INDEX_READ_BIT |
		VkAccessFlagBits_VK_ACCESS_VERTEX_ATTRIBUTE_READ_BIT |
		VkAccessFlagBits_VK_ACCESS_UNIFORM_READ_BIT |
		VkAccessFlagBits_VK_ACCESS_INPUT_ATTACHMENT_READ_BIT |
		VkAccessFlagBits_VK_ACCESS_SHADER_READ_BIT |
		VkAccessFlagBits_VK_ACCESS_COLOR_ATTACHMENT_READ_BIT |
		VkAccessFlagBits_VK_ACCESS_DEPTH_STENCIL_ATTACHMENT_READ_BIT |
		VkAccessFlagBits_VK_ACCESS_TRANSFER_READ_BIT |
		VkAccessFlagBits_VK_ACCESS_HOST_READ_BIT |
		VkAccessFlagBits_VK_ACCESS_MEMORY_READ_BIT)
	writeAccessBits = VkAccessFlags(VkAccessFlagBits_VK_ACCESS_SHADER_WRITE_BIT |
		VkAccessFlagBits_VK_ACCESS_COLOR_ATTACHMENT_WRITE_BIT |
		VkAccessFlagBits_VK_ACCESS_DEPTH_STENCIL_ATTACHMENT_WRITE_BIT |
		VkAccessFlagBits_VK_ACCESS_TRANSFER_WRITE_BIT |
		VkAccessFlagBits_VK_ACCESS_HOST_WRITE_BIT |
		VkAccessFlagBits_VK_ACCESS_MEMORY_WRITE_BIT)
	shaderReadBits = VkAccessFlags(VkAccessFlagBits_VK_ACCESS_UNIFORM_READ_BIT |
		VkAccessFlagBits_VK_ACCESS_SHADER_READ_BIT)
)

// IsRead returns true if the bit describes a read access.
func (b VkAccessFlagBits) IsRead() bool { return VkAccessFlags(b)&readAccessBits != 0 }

// IsWrite returns true if the bit describes a write access.
func (b VkAccessFlagBits) IsWrite() bool { return VkAccessFlags(b)&writeAccessBits != 0 }

// Covers returns true if an access scope of f includes accesses of kind b.
// MEMORY_READ and MEMORY_WRITE cover every read and write respectively, and
// SHADER_READ covers uniform reads.
func (f VkAccessFlags) Covers(b VkAccessFlagBits) bool {
	if b == 0 {
		return false
	}
	if f&VkAccessFlags(b) != 0 {
		return true
	}
	if b.IsRead() && f&VkAccessFlags(VkAccessFlagBits_VK_ACCESS_MEMORY_READ_BIT) != 0 {
		return true
	}
	if b.IsWrite() && f&VkAccessFlags(VkAccessFlagBits_VK_ACCESS_MEMORY_WRITE_BIT) != 0 {
		return true
	}
	if VkAccessFlags(b)&shaderReadBits != 0 && f&VkAccessFlags(VkAccessFlagBits_VK_ACCESS_SHADER_READ_BIT) != 0 {
		return true
	}
	return false
}

type VkShaderStageFlagBits uint32
type VkShaderStageFlags uint32

const (
	VkShaderStageFlagBits_VK_SHADER_STAGE_VERTEX_BIT                  VkShaderStageFlagBits = 0x00000001
	VkShaderStageFlagBits_VK_SHADER_STAGE_TESSELLATION_CONTROL_BIT    VkShaderStageFlagBits = 0x00000002
	VkShaderStageFlagBits_VK_SHADER_STAGE_TESSELLATION_EVALUATION_BIT VkShaderStageFlagBits = 0x00000004
	VkShaderStageFlagBits_VK_SHADER_STAGE_GEOMETRY_BIT                VkShaderStageFlagBits = 0x00000008
	VkShaderStageFlagBits_VK_SHADER_STAGE_FRAGMENT_BIT                VkShaderStageFlagBits = 0x00000010
	VkShaderStageFlagBits_VK_SHADER_STAGE_COMPUTE_BIT                 VkShaderStageFlagBits = 0x00000020
	VkShaderStageFlagBits_VK_SHADER_STAGE_ALL_GRAPHICS                VkShaderStageFlagBits = 0x0000001F
	VkShaderStageFlagBits_VK_SHADER_STAGE_ALL                         VkShaderStageFlagBits = 0x7FFFFFFF
)

type VkDescriptorType uint32

const (
	VkDescriptorType_VK_DESCRIPTOR_TYPE_SAMPLER                VkDescriptorType = 0
	VkDescriptorType_VK_DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER VkDescriptorType = 1
	VkDescriptorType_VK_DESCRIPTOR_TYPE_SAMPLED_IMAGE          VkDescriptorType = 2
	VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_IMAGE          VkDescriptorType = 3
	VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_TEXEL_BUFFER   VkDescriptorType = 4
	VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_TEXEL_BUFFER   VkDescriptorType = 5
	VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER         VkDescriptorType = 6
	VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_BUFFER         VkDescriptorType = 7
	VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC VkDescriptorType = 8
	VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_BUFFER_DYNAMIC VkDescriptorType = 9
	VkDescriptorType_VK_DESCRIPTOR_TYPE_INPUT_ATTACHMENT       VkDescriptorType = 10
)

// IsStorage returns true for descriptor types that shaders may write through.
func (t VkDescriptorType) IsStorage() bool {
	switch t {
	case VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_IMAGE,
		VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_TEXEL_BUFFER,
		VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_BUFFER,
		VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_BUFFER_DYNAMIC:
		return true
	}
	return false
}

// IsDynamic returns true for the dynamic-offset buffer descriptor types.
func (t VkDescriptorType) IsDynamic() bool {
	return t == VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC ||
		t == VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_BUFFER_DYNAMIC
}

type VkImageLayout uint32

const (
	VkImageLayout_VK_IMAGE_LAYOUT_UNDEFINED                        VkImageLayout = 0
	VkImageLayout_VK_IMAGE_LAYOUT_GENERAL                          VkImageLayout = 1
	VkImageLayout_VK_IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL         VkImageLayout = 2
	VkImageLayout_VK_IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL VkImageLayout = 3
	VkImageLayout_VK_IMAGE_LAYOUT_DEPTH_STENCIL_READ_ONLY_OPTIMAL  VkImageLayout = 4
	VkImageLayout_VK_IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL         VkImageLayout = 5
	VkImageLayout_VK_IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL             VkImageLayout = 6
	VkImageLayout_VK_IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL             VkImageLayout = 7
	VkImageLayout_VK_IMAGE_LAYOUT_PREINITIALIZED                   VkImageLayout = 8
	VkImageLayout_VK_IMAGE_LAYOUT_PRESENT_SRC_KHR                  VkImageLayout = 1000001002
)

type VkPipelineBindPoint uint32

const (
	VkPipelineBindPoint_VK_PIPELINE_BIND_POINT_GRAPHICS VkPipelineBindPoint = 0
	VkPipelineBindPoint_VK_PIPELINE_BIND_POINT_COMPUTE  VkPipelineBindPoint = 1
)

type VkImageAspectFlagBits uint32
type VkImageAspectFlags uint32

const (
	VkImageAspectFlagBits_VK_IMAGE_ASPECT_COLOR_BIT    VkImageAspectFlagBits = 0x00000001
	VkImageAspectFlagBits_VK_IMAGE_ASPECT_DEPTH_BIT    VkImageAspectFlagBits = 0x00000002
	VkImageAspectFlagBits_VK_IMAGE_ASPECT_STENCIL_BIT  VkImageAspectFlagBits = 0x00000004
	VkImageAspectFlagBits_VK_IMAGE_ASPECT_METADATA_BIT VkImageAspectFlagBits = 0x00000008
)

type VkCommandBufferLevel uint32

const (
	VkCommandBufferLevel_VK_COMMAND_BUFFER_LEVEL_PRIMARY   VkCommandBufferLevel = 0
	VkCommandBufferLevel_VK_COMMAND_BUFFER_LEVEL_SECONDARY VkCommandBufferLevel = 1
)

type VkSubpassContents uint32

const (
	VkSubpassContents_VK_SUBPASS_CONTENTS_INLINE                    VkSubpassContents = 0
	VkSubpassContents_VK_SUBPASS_CONTENTS_SECONDARY_COMMAND_BUFFERS VkSubpassContents = 1
)

type VkDependencyFlags uint32

const VkDependencyFlagBits_VK_DEPENDENCY_BY_REGION_BIT VkDependencyFlags = 0x00000001

type VkImageTiling uint32

const (
	VkImageTiling_VK_IMAGE_TILING_OPTIMAL VkImageTiling = 0
	VkImageTiling_VK_IMAGE_TILING_LINEAR  VkImageTiling = 1
)

type VkBufferUsageFlags uint32
type VkImageUsageFlags uint32
type VkCommandBufferUsageFlags uint32
type VkCommandPoolCreateFlags uint32
type VkFormat uint32

const VkFormat_VK_FORMAT_UNDEFINED VkFormat = 0

type flagName struct {
	bit  uint32
	name string
}

var pipelineStageNames = []flagName{
	{0x00000001, "TOP_OF_PIPE"},
	{0x00000002, "DRAW_INDIRECT"},
	{0x00000004, "VERTEX_INPUT"},
	{0x00000008, "VERTEX_SHADER"},
	{0x00000010, "TESSELLATION_CONTROL_SHADER"},
	{0x00000020, "TESSELLATION_EVALUATION_SHADER"},
	{0x00000040, "GEOMETRY_SHADER"},
	{0x00000080, "FRAGMENT_SHADER"},
	{0x00000100, "EARLY_FRAGMENT_TESTS"},
	{0x00000200, "LATE_FRAGMENT_TESTS"},
	{0x00000400, "COLOR_ATTACHMENT_OUTPUT"},
	{0x00000800, "COMPUTE_SHADER"},
	{0x00001000, "TRANSFER"},
	{0x00002000, "BOTTOM_OF_PIPE"},
	{0x00004000, "HOST"},
	{0x00008000, "ALL_GRAPHICS"},
	{0x00010000, "ALL_COMMANDS"},
}

var accessNames = []flagName{
	{0x00000001, "INDIRECT_COMMAND_READ"},
	{0x00000002, "INDEX_READ"},
	{0x00000004, "VERTEX_ATTRIBUTE_READ"},
	{0x00000008, "UNIFORM_READ"},
	{0x00000010, "INPUT_ATTACHMENT_READ"},
	{0x00000020, "SHADER_READ"},
	{0x00000040, "SHADER_WRITE"},
	{0x00000080, "COLOR_ATTACHMENT_READ"},
	{0x00000100, "COLOR_ATTACHMENT_WRITE"},
	{0x00000200, "DEPTH_STENCIL_ATTACHMENT_READ"},
	{0x00000400, "DEPTH_STENCIL_ATTACHMENT_WRITE"},
	{0x00000800, "TRANSFER_READ"},
	{0x00001000, "TRANSFER_WRITE"},
	{0x00002000, "HOST_READ"},
	{0x00004000, "HOST_WRITE"},
	{0x00008000, "MEMORY_READ"},
	{0x00010000, "MEMORY_WRITE"},
}

var shaderStageNames = []flagName{
	{0x00000001, "VERTEX"},
	{0x00000002, "TESSELLATION_CONTROL"},
	{0x00000004, "TESSELLATION_EVALUATION"},
	{0x00000008, "GEOMETRY"},
	{0x00000010, "FRAGMENT"},
	{0x00000020, "COMPUTE"},
}

var aspectNames = []flagName{
	{0x00000001, "COLOR"},
	{0x00000002, "DEPTH"},
	{0x00000004, "STENCIL"},
	{0x00000008, "METADATA"},
}

var descriptorTypeNames = map[VkDescriptorType]string{
	VkDescriptorType_VK_DESCRIPTOR_TYPE_SAMPLER:                "SAMPLER",
	VkDescriptorType_VK_DESCRIPTOR_TYPE_COMBINED_IMAGE_SAMPLER: "COMBINED_IMAGE_SAMPLER",
	VkDescriptorType_VK_DESCRIPTOR_TYPE_SAMPLED_IMAGE:          "SAMPLED_IMAGE",
	VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_IMAGE:          "STORAGE_IMAGE",
	VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_TEXEL_BUFFER:   "UNIFORM_TEXEL_BUFFER",
	VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_TEXEL_BUFFER:   "STORAGE_TEXEL_BUFFER",
	VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER:         "UNIFORM_BUFFER",
	VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_BUFFER:         "STORAGE_BUFFER",
	VkDescriptorType_VK_DESCRIPTOR_TYPE_UNIFORM_BUFFER_DYNAMIC: "UNIFORM_BUFFER_DYNAMIC",
	VkDescriptorType_VK_DESCRIPTOR_TYPE_STORAGE_BUFFER_DYNAMIC: "STORAGE_BUFFER_DYNAMIC",
	VkDescriptorType_VK_DESCRIPTOR_TYPE_INPUT_ATTACHMENT:       "INPUT_ATTACHMENT",
}

var imageLayoutNames = map[VkImageLayout]string{
	VkImageLayout_VK_IMAGE_LAYOUT_UNDEFINED:                        "UNDEFINED",
	VkImageLayout_VK_IMAGE_LAYOUT_GENERAL:                          "GENERAL",
	VkImageLayout_VK_IMAGE_LAYOUT_COLOR_ATTACHMENT_OPTIMAL:         "COLOR_ATTACHMENT_OPTIMAL",
	VkImageLayout_VK_IMAGE_LAYOUT_DEPTH_STENCIL_ATTACHMENT_OPTIMAL: "DEPTH_STENCIL_ATTACHMENT_OPTIMAL",
	VkImageLayout_VK_IMAGE_LAYOUT_DEPTH_STENCIL_READ_ONLY_OPTIMAL:  "DEPTH_STENCIL_READ_ONLY_OPTIMAL",
	VkImageLayout_VK_IMAGE_LAYOUT_SHADER_READ_ONLY_OPTIMAL:         "SHADER_READ_ONLY_OPTIMAL",
	VkImageLayout_VK_IMAGE_LAYOUT_TRANSFER_SRC_OPTIMAL:             "TRANSFER_SRC_OPTIMAL",
	VkImageLayout_VK_IMAGE_LAYOUT_TRANSFER_DST_OPTIMAL:             "TRANSFER_DST_OPTIMAL",
	VkImageLayout_VK_IMAGE_LAYOUT_PREINITIALIZED:                   "PREINITIALIZED",
	VkImageLayout_VK_IMAGE_LAYOUT_PRESENT_SRC_KHR:                  "PRESENT_SRC_KHR",
}

func flagsString(v uint32, names []flagName) string {
	if v == 0 {
		return "0"
	}
	parts := []string{}
	for _, n := range names {
		if v&n.bit != 0 {
			parts = append(parts, n.name)
			v &^= n.bit
		}
	}
	if v != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", v))
	}
	return strings.Join(parts, "|")
}

func parseFlags(list []string, names []flagName, kind string) (uint32, error) {
	out := uint32(0)
	for _, s := range list {
		s = strings.TrimSpace(s)
		found := false
		for _, n := range names {
			if strings.EqualFold(n.name, s) {
				out |= n.bit
				found = true
				break
			}
		}
		if !found {
			return 0, errors.Wrapf(ErrUnknownName, "%s %q", kind, s)
		}
	}
	return out, nil
}

func (b VkPipelineStageFlagBits) String() string {
	return flagsString(uint32(b), pipelineStageNames)
}

func (f VkPipelineStageFlags) String() string {
	return flagsString(uint32(f), pipelineStageNames)
}

func (b VkAccessFlagBits) String() string { return flagsString(uint32(b), accessNames) }
func (f VkAccessFlags) String() string    { return flagsString(uint32(f), accessNames) }

func (f VkShaderStageFlags) String() string { return flagsString(uint32(f), shaderStageNames) }

func (f VkImageAspectFlags) String() string { return flagsString(uint32(f), aspectNames) }

func (t VkDescriptorType) String() string {
	if n, ok := descriptorTypeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("VkDescriptorType(%d)", uint32(t))
}

func (l VkImageLayout) String() string {
	if n, ok := imageLayoutNames[l]; ok {
		return n
	}
	return fmt.Sprintf("VkImageLayout(%d)", uint32(l))
}

func (p VkPipelineBindPoint) String() string {
	switch p {
	case VkPipelineBindPoint_VK_PIPELINE_BIND_POINT_GRAPHICS:
		return "GRAPHICS"
	case VkPipelineBindPoint_VK_PIPELINE_BIND_POINT_COMPUTE:
		return "COMPUTE"
	}
	return fmt.Sprintf("VkPipelineBindPoint(%d)", uint32(p))
}

// ParsePipelineStageFlags parses stage names such as "FRAGMENT_SHADER".
func ParsePipelineStageFlags(names []string) (VkPipelineStageFlags, error) {
	v, err := parseFlags(names, pipelineStageNames, "pipeline stage")
	return VkPipelineStageFlags(v), err
}

// ParseAccessFlags parses access names such as "SHADER_WRITE".
func ParseAccessFlags(names []string) (VkAccessFlags, error) {
	v, err := parseFlags(names, accessNames, "access")
	return VkAccessFlags(v), err
}

// ParseShaderStageFlags parses shader stage names such as "FRAGMENT". "ALL"
// and "ALL_GRAPHICS" are accepted.
func ParseShaderStageFlags(names []string) (VkShaderStageFlags, error) {
	out := VkShaderStageFlags(0)
	rest := []string{}
	for _, n := range names {
		switch strings.ToUpper(strings.TrimSpace(n)) {
		case "ALL":
			out |= VkShaderStageFlags(VkShaderStageFlagBits_VK_SHADER_STAGE_ALL)
		case "ALL_GRAPHICS":
			out |= VkShaderStageFlags(VkShaderStageFlagBits_VK_SHADER_STAGE_ALL_GRAPHICS)
		default:
			rest = append(rest, n)
		}
	}
	v, err := parseFlags(rest, shaderStageNames, "shader stage")
	return out | VkShaderStageFlags(v), err
}

// ParseImageAspectFlags parses aspect names such as "COLOR".
func ParseImageAspectFlags(names []string) (VkImageAspectFlags, error) {
	v, err := parseFlags(names, aspectNames, "image aspect")
	return VkImageAspectFlags(v), err
}

// ParseDescriptorType parses a descriptor type name such as "STORAGE_BUFFER".
func ParseDescriptorType(name string) (VkDescriptorType, error) {
	for t, n := range descriptorTypeNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return t, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownName, "descriptor type %q", name)
}

// ParseImageLayout parses an image layout name such as "GENERAL".
func ParseImageLayout(name string) (VkImageLayout, error) {
	for l, n := range imageLayoutNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return l, nil
		}
	}
	return 0, errors.Wrapf(ErrUnknownName, "image layout %q", name)
}

// ParsePipelineBindPoint parses "GRAPHICS" or "COMPUTE".
func ParsePipelineBindPoint(name string) (VkPipelineBindPoint, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "GRAPHICS":
		return VkPipelineBindPoint_VK_PIPELINE_BIND_POINT_GRAPHICS, nil
	case "COMPUTE":
		return VkPipelineBindPoint_VK_PIPELINE_BIND_POINT_COMPUTE, nil
	}
	return 0, errors.Wrapf(ErrUnknownName, "pipeline bind point %q", name)
}
