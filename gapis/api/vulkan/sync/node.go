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
	"fmt"

	"github.com/google/vksync/gapis/api/vulkan"
)

// NodeType is the kind of a synchronization graph node.
type NodeType uint8

const (
	// ActionStage is the execution of one pipeline stage of an action
	// command.
	ActionStage NodeType = iota
	// MemRead is a read performed by an action command at one stage.
	MemRead
	// MemWrite is a write performed by an action command at one stage.
	MemWrite
	// MemFlush makes host writes available. Reserved for host accesses.
	MemFlush
	// MemInvalidate makes device writes visible to the host. Reserved for
	// host accesses.
	MemInvalidate
	// BarrierSrcStage is the source execution scope of a barrier at one
	// stage.
	BarrierSrcStage
	// BarrierDstStage is the destination execution scope of a barrier at
	// one stage.
	BarrierDstStage
	// BarrierSrcPoint is the availability operation of one barrier
	// descriptor at one source stage.
	BarrierSrcPoint
	// BarrierDstPoint is the visibility operation of one barrier descriptor
	// at one destination stage.
	BarrierDstPoint
	// PreTransition is the start of an image layout transition.
	PreTransition
	// PostTransition is the end of an image layout transition.
	PostTransition

	nodeTypeCount
)

var nodeTypeNames = [...]string{
	ActionStage:     "ActionStage",
	MemRead:         "MemRead",
	MemWrite:        "MemWrite",
	MemFlush:        "MemFlush",
	MemInvalidate:   "MemInvalidate",
	BarrierSrcStage: "BarrierSrcStage",
	BarrierDstStage: "BarrierDstStage",
	BarrierSrcPoint: "BarrierSrcPoint",
	BarrierDstPoint: "BarrierDstPoint",
	PreTransition:   "PreTransition",
	PostTransition:  "PostTransition",
}

func (t NodeType) String() string {
	if t < nodeTypeCount {
		return nodeTypeNames[t]
	}
	return fmt.Sprintf("NodeType(%d)", uint8(t))
}

// IsMemory returns true for the node types that stand for memory accesses.
func (t NodeType) IsMemory() bool {
	switch t {
	case MemRead, MemWrite, MemFlush, MemInvalidate:
		return true
	}
	return false
}

// IsWrite returns true for memory node types that modify memory. Flushes
// and invalidates are treated as writes.
func (t NodeType) IsWrite() bool {
	switch t {
	case MemWrite, MemFlush, MemInvalidate:
		return true
	}
	return false
}

// NodeTypes is a set of node types.
type NodeTypes uint16

// Types returns the set holding ts.
func Types(ts ...NodeType) NodeTypes {
	s := NodeTypes(0)
	for _, t := range ts {
		s |= 1 << t
	}
	return s
}

// Has returns true if t is in the set.
func (s NodeTypes) Has(t NodeType) bool { return s&(1<<t) != 0 }

func (s NodeTypes) String() string {
	out := ""
	for t := NodeType(0); t < nodeTypeCount; t++ {
		if s.Has(t) {
			if out != "" {
				out += "|"
			}
			out += t.String()
		}
	}
	if out == "" {
		return "none"
	}
	return out
}

// Node is a synchronization graph node. Nodes are values: two nodes with
// equal fields are the same node.
type Node struct {
	Type    NodeType
	Command CommandID
	Stage   vulkan.VkPipelineStageFlagBits
	Access  vulkan.VkAccessFlags
	Memory  MemRegion
}

func (n Node) String() string {
	switch {
	case n.Type.IsMemory():
		return fmt.Sprintf("%v(%v, %v, %v, %v)", n.Type, n.Command, n.Stage, n.Access, n.Memory)
	case n.Type == BarrierSrcPoint || n.Type == BarrierDstPoint:
		return fmt.Sprintf("%v(%v, %v, %v, %v)", n.Type, n.Command, n.Stage, n.Access, n.Memory)
	case n.Type == PreTransition || n.Type == PostTransition:
		return fmt.Sprintf("%v(%v, %v)", n.Type, n.Command, n.Memory)
	}
	return fmt.Sprintf("%v(%v, %v)", n.Type, n.Command, n.Stage)
}
