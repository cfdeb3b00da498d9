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

	"github.com/pkg/errors"

	"github.com/google/vksync/core/fault"
)

const (
	// ErrNotRecording is returned when appending to or ending a command
	// buffer that is not in the recording state.
	ErrNotRecording = fault.Const("Command buffer is not recording")
	// ErrUnknownHandle is returned when a handle is not in the state.
	ErrUnknownHandle = fault.Const("Unknown handle")
)

// CommandBufferState is the lifecycle state of a command buffer.
type CommandBufferState int

const (
	CommandBufferStateInitial CommandBufferState = iota
	CommandBufferStateRecording
	CommandBufferStateExecutable
)

func (s CommandBufferState) String() string {
	switch s {
	case CommandBufferStateInitial:
		return "INITIAL"
	case CommandBufferStateRecording:
		return "RECORDING"
	case CommandBufferStateExecutable:
		return "EXECUTABLE"
	}
	return fmt.Sprintf("CommandBufferState(%d)", int(s))
}

// Origin is an opaque token naming the place a command was recorded from.
// Zero means unknown.
type Origin uint64

// Symbolizer turns origins into readable locations.
type Symbolizer interface {
	Symbolize(o Origin) (string, bool)
}

// Record is a command and the origin it was recorded from.
type Record struct {
	Command Command
	Origin  Origin
}

// InheritanceInfo mirrors VkCommandBufferInheritanceInfo.
type InheritanceInfo struct {
	RenderPass           VkRenderPass
	Subpass              uint32
	Framebuffer          VkFramebuffer
	OcclusionQueryEnable bool
	QueryFlags           uint32
	PipelineStatistics   uint32
}

// BeginInfo mirrors VkCommandBufferBeginInfo.
type BeginInfo struct {
	Flags       VkCommandBufferUsageFlags
	Inheritance *InheritanceInfo
}

// CommandBuffer is a recorded sequence of commands.
type CommandBuffer struct {
	Handle      VkCommandBuffer
	Pool        VkCommandPool
	Level       VkCommandBufferLevel
	State       CommandBufferState
	UsageFlags  VkCommandBufferUsageFlags
	Inheritance InheritanceInfo
	Records     []Record
}

// Begin starts recording, dropping any previously recorded commands.
func (cb *CommandBuffer) Begin(info BeginInfo) error {
	if cb.State == CommandBufferStateRecording {
		return fmt.Errorf("Command buffer %v is already recording", cb.Handle)
	}
	cb.Reset()
	cb.State = CommandBufferStateRecording
	cb.UsageFlags = info.Flags
	if info.Inheritance != nil && cb.Level == VkCommandBufferLevel_VK_COMMAND_BUFFER_LEVEL_SECONDARY {
		cb.Inheritance = *info.Inheritance
	}
	return nil
}

// Append adds cmd to the end of the recorded sequence.
func (cb *CommandBuffer) Append(cmd Command, origin Origin) error {
	if cb.State != CommandBufferStateRecording {
		return errors.Wrapf(ErrNotRecording, "%v on %v (%v)", cmd.CmdName(), cb.Handle, cb.State)
	}
	cb.Records = append(cb.Records, Record{Command: cmd, Origin: origin})
	return nil
}

// End freezes the recorded sequence.
func (cb *CommandBuffer) End() error {
	if cb.State != CommandBufferStateRecording {
		return errors.Wrapf(ErrNotRecording, "vkEndCommandBuffer on %v (%v)", cb.Handle, cb.State)
	}
	cb.State = CommandBufferStateExecutable
	return nil
}

// Reset returns the command buffer to the initial state.
func (cb *CommandBuffer) Reset() {
	cb.State = CommandBufferStateInitial
	cb.UsageFlags = 0
	cb.Inheritance = InheritanceInfo{}
	cb.Records = nil
}

// Commands returns the recorded commands in order.
func (cb *CommandBuffer) Commands() []Command {
	out := make([]Command, len(cb.Records))
	for i, r := range cb.Records {
		out[i] = r.Command
	}
	return out
}

// CommandPoolObject owns a set of command buffers.
type CommandPoolObject struct {
	Handle           VkCommandPool
	QueueFamilyIndex uint32
	Flags            VkCommandPoolCreateFlags
	CommandBuffers   map[VkCommandBuffer]struct{}
}

// AddCommandPool adds an empty command pool.
func (st *State) AddCommandPool(h VkCommandPool, queueFamily uint32, flags VkCommandPoolCreateFlags) *CommandPoolObject {
	p := &CommandPoolObject{
		Handle:           h,
		QueueFamilyIndex: queueFamily,
		Flags:            flags,
		CommandBuffers:   map[VkCommandBuffer]struct{}{},
	}
	st.commandPools[h] = p
	return p
}

// AllocateCommandBuffer adds a command buffer in the initial state to pool.
func (st *State) AllocateCommandBuffer(pool VkCommandPool, h VkCommandBuffer, level VkCommandBufferLevel) (*CommandBuffer, error) {
	p, ok := st.commandPools[pool]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownHandle, "command pool %v", pool)
	}
	cb := &CommandBuffer{Handle: h, Pool: pool, Level: level}
	p.CommandBuffers[h] = struct{}{}
	st.commandBuffers[h] = cb
	return cb, nil
}

// FreeCommandBuffer removes a command buffer from the state and its pool.
func (st *State) FreeCommandBuffer(h VkCommandBuffer) {
	if cb, ok := st.commandBuffers[h]; ok {
		if p, ok := st.commandPools[cb.Pool]; ok {
			delete(p.CommandBuffers, h)
		}
		delete(st.commandBuffers, h)
	}
}

// ResetCommandPool resets every command buffer allocated from the pool.
func (st *State) ResetCommandPool(pool VkCommandPool) error {
	p, ok := st.commandPools[pool]
	if !ok {
		return errors.Wrapf(ErrUnknownHandle, "command pool %v", pool)
	}
	for h := range p.CommandBuffers {
		if cb, ok := st.commandBuffers[h]; ok {
			cb.Reset()
		}
	}
	return nil
}

// DestroyCommandPool frees the pool and all of its command buffers.
func (st *State) DestroyCommandPool(pool VkCommandPool) {
	if p, ok := st.commandPools[pool]; ok {
		for h := range p.CommandBuffers {
			delete(st.commandBuffers, h)
		}
		delete(st.commandPools, pool)
	}
}
