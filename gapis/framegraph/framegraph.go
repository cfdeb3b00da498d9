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

// Package framegraph renders synchronization graphs as graphviz DOT.
package framegraph

import (
	"fmt"
	"io"
	"sort"

	"github.com/emicklei/dot"

	"github.com/google/vksync/gapis/api/vulkan/sync"
)

// Config controls what is drawn.
type Config struct {
	// Expand replaces every bounded edge by the exact edges it stands for.
	// Otherwise a bounded edge is drawn once, to a node labelled with its
	// bound.
	Expand bool
	// Hazards are drawn as red edges between the two conflicting nodes.
	Hazards []sync.Hazard
}

// commandInfo stores the totals of one command's memory accesses.
type commandInfo struct {
	id         sync.CommandID
	nodes      []sync.NodeID
	totalRead  uint64
	totalWrite uint64
}

func nodeName(id sync.NodeID) string { return fmt.Sprintf("n%d", id) }

func shape(t sync.NodeType) string {
	switch t {
	case sync.ActionStage:
		return "box"
	case sync.MemRead, sync.MemWrite, sync.MemFlush, sync.MemInvalidate:
		return "ellipse"
	case sync.PreTransition, sync.PostTransition:
		return "hexagon"
	}
	return "diamond"
}

// Build returns the DOT graph of g. Nodes are clustered by command.
func Build(g *sync.Graph, cfg Config) *dot.Graph {
	if cfg.Expand {
		g = g.Expand()
	}
	out := dot.NewGraph(dot.Directed)
	out.Attr("rankdir", "LR")
	out.Attr("fontname", "monospace")

	infos := map[sync.CommandID]*commandInfo{}
	g.ForeachNode(func(id sync.NodeID, n sync.Node) {
		info, ok := infos[n.Command]
		if !ok {
			info = &commandInfo{id: n.Command}
			infos[n.Command] = info
		}
		info.nodes = append(info.nodes, id)
		size := regionSize(n.Memory)
		switch n.Type {
		case sync.MemRead:
			info.totalRead += size
		case sync.MemWrite:
			info.totalWrite += size
		}
	})
	sorted := make([]*commandInfo, 0, len(infos))
	for _, info := range infos {
		sorted = append(sorted, info)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].id.Less(sorted[j].id) })

	nodes := make([]dot.Node, g.NumNodes())
	for _, info := range sorted {
		label := info.id.String()
		if info.totalRead+info.totalWrite > 0 {
			label += fmt.Sprintf("\nread(%v) write(%v)", memFmt(info.totalRead), memFmt(info.totalWrite))
		}
		sub := out.Subgraph(info.id.String(), dot.ClusterOption{})
		sub.Attr("label", label)
		for _, id := range info.nodes {
			n := g.Node(id)
			nodes[id] = sub.Node(nodeName(id)).
				Attr("label", n.String()).
				Attr("shape", shape(n.Type))
		}
	}

	g.ForeachEdge(func(a, b sync.NodeID) {
		out.Edge(nodes[a], nodes[b])
	})
	for i, e := range g.BoundedEdges() {
		id, _ := g.Lookup(e.Node)
		bound := out.Node(fmt.Sprintf("b%d", i)).
			Attr("label", e.Bound.String()).
			Attr("shape", "note")
		if e.Dir == sync.BoundFrom {
			out.Edge(nodes[id], bound).Attr("style", "dashed")
		} else {
			out.Edge(bound, nodes[id]).Attr("style", "dashed")
		}
	}
	for _, h := range cfg.Hazards {
		a, ok := g.Lookup(h.First)
		if !ok {
			continue
		}
		b, ok := g.Lookup(h.Second)
		if !ok {
			continue
		}
		out.Edge(nodes[a], nodes[b], h.Kind.String()).
			Attr("color", "red").
			Attr("fontcolor", "red").
			Attr("constraint", "false")
	}
	return out
}

// Write writes the DOT graph of g to w.
func Write(w io.Writer, g *sync.Graph, cfg Config) error {
	_, err := io.WriteString(w, Build(g, cfg).String())
	return err
}

func regionSize(r sync.MemRegion) uint64 {
	if r.Kind != sync.RegionBuffer {
		return 0
	}
	s := r.Span()
	return s.End - s.Start
}

func memFmt(bytes uint64) string {
	kb := bytes / 1000
	mb := kb / 1000
	if mb > 0 {
		return fmt.Sprintf("%vMb", mb)
	}
	if kb > 0 {
		return fmt.Sprintf("%vKb", kb)
	}
	return fmt.Sprintf("%vb", bytes)
}
