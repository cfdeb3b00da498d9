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

package framegraph_test

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/google/vksync/core/math/interval"
	"github.com/google/vksync/gapis/api/vulkan"
	"github.com/google/vksync/gapis/api/vulkan/sync"
	"github.com/google/vksync/gapis/framegraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fragment = vulkan.VkPipelineStageFlagBits_VK_PIPELINE_STAGE_FRAGMENT_SHADER_BIT

func command(seq uint64) sync.CommandID {
	return sync.CommandID{Subpass: sync.NoSubpass, Sequence: seq}
}

// graph returns two draws writing the same buffer and a barrier node that
// orders every earlier fragment stage.
func graph() (*sync.Graph, sync.Hazard) {
	g := sync.NewGraph()
	region := sync.BufferRegion(1, interval.U64Span{Start: 0, End: 2048})
	var writes []sync.Node
	for seq := uint64(0); seq < 2; seq++ {
		stage := sync.Node{Type: sync.ActionStage, Command: command(seq), Stage: fragment}
		write := sync.Node{
			Type:    sync.MemWrite,
			Command: command(seq),
			Stage:   fragment,
			Access:  vulkan.VkAccessFlags(vulkan.VkAccessFlagBits_VK_ACCESS_SHADER_WRITE_BIT),
			Memory:  region,
		}
		g.AddEdge(write, stage)
		writes = append(writes, write)
	}
	g.AddBoundedEdge(sync.BoundedEdge{
		Dir:   sync.BoundInto,
		Node:  sync.Node{Type: sync.BarrierSrcStage, Command: command(2), Stage: fragment},
		Bound: sync.Bound{Types: sync.Types(sync.ActionStage), Stage: fragment, Subpass: sync.NoSubpass, Hi: 2},
	})
	return g, sync.Hazard{Kind: sync.WriteAfterWrite, First: writes[0], Second: writes[1]}
}

func TestBuild(t *testing.T) {
	g, hazard := graph()
	buf := &bytes.Buffer{}
	require.NoError(t, framegraph.Write(buf, g, framegraph.Config{Hazards: []sync.Hazard{hazard}}))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "digraph"), out)
	g.ForeachNode(func(id sync.NodeID, n sync.Node) {
		assert.Contains(t, out, n.String())
	})
	assert.Contains(t, out, "cluster")
	assert.Contains(t, out, "q0/-/1")
	assert.Contains(t, out, "write(2Kb)")
	assert.Contains(t, out, "WriteAfterWrite")
	assert.Contains(t, out, "dashed")
	assert.Contains(t, out, "[0, 2)")
}

func TestBuildExpanded(t *testing.T) {
	g, _ := graph()
	out := framegraph.Build(g, framegraph.Config{Expand: true}).String()
	assert.NotContains(t, out, "dashed")
	assert.NotContains(t, out, "end}")
	assert.Equal(t, g.NumEdges()+2, strings.Count(out, "->"))
}

func TestBoundLabels(t *testing.T) {
	g := sync.NewGraph()
	g.AddNode(sync.Node{Type: sync.ActionStage, Command: command(4), Stage: fragment})
	g.AddBoundedEdge(sync.BoundedEdge{
		Dir:   sync.BoundFrom,
		Node:  sync.Node{Type: sync.BarrierDstStage, Command: command(3), Stage: fragment},
		Bound: sync.Bound{Types: sync.Types(sync.ActionStage), Stage: fragment, Subpass: sync.NoSubpass, Lo: 3, Hi: math.MaxUint64},
	})
	out := framegraph.Build(g, framegraph.Config{}).String()
	assert.Contains(t, out, "[3, end)")
	assert.Equal(t, 1, strings.Count(out, "->"))
}
