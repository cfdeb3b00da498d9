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
	"math"
	"sort"

	"github.com/google/btree"
	"github.com/google/vksync/gapis/api/vulkan"
)

// NodeID is the dense index of a node in a Graph.
type NodeID int

// Direction is the direction of a bounded edge relative to its fixed node.
type Direction uint8

const (
	// BoundInto edges run from every node matching the bound into the fixed
	// node.
	BoundInto Direction = iota
	// BoundFrom edges run from the fixed node to every node matching the
	// bound.
	BoundFrom
)

func (d Direction) String() string {
	if d == BoundInto {
		return "into"
	}
	return "from"
}

// Bound is a predicate over nodes of one queue and stage whose sequence lies
// in [Lo, Hi).
type Bound struct {
	Types NodeTypes
	Stage vulkan.VkPipelineStageFlagBits
	Queue uint64
	// Subpass restricts matches to one subpass, or to commands outside
	// render passes if NoSubpass. AnySubpass matches the whole queue.
	Subpass uint64
	Lo, Hi  uint64
	// Access, if non-zero, must cover the access of matching nodes.
	Access vulkan.VkAccessFlags
	// Memory must cover the region of matching nodes. The global region
	// covers everything.
	Memory MemRegion
}

// Contains returns true if n satisfies the bound.
func (b Bound) Contains(n Node) bool {
	c := n.Command
	if !b.Types.Has(n.Type) || n.Stage != b.Stage || c.Queue != b.Queue {
		return false
	}
	if b.Subpass != AnySubpass && c.Subpass != b.Subpass {
		return false
	}
	if c.Sequence < b.Lo || c.Sequence >= b.Hi {
		return false
	}
	if b.Access != 0 && !b.Access.Covers(vulkan.VkAccessFlagBits(n.Access)) {
		return false
	}
	return b.Memory.Covers(n.Memory)
}

func (b Bound) String() string {
	hi := fmt.Sprint(b.Hi)
	if b.Hi == math.MaxUint64 {
		hi = "end"
	}
	sp := fmt.Sprint(b.Subpass)
	switch b.Subpass {
	case AnySubpass:
		sp = "*"
	case NoSubpass:
		sp = "-"
	}
	return fmt.Sprintf("{%v @%v q%d/%s [%d, %s) access: %v, memory: %v}",
		b.Types, b.Stage, b.Queue, sp, b.Lo, hi, b.Access, b.Memory)
}

// BoundedEdge is a compact representation of the exact edges between one
// node and every node matching a bound.
type BoundedEdge struct {
	Dir   Direction
	Node  Node
	Bound Bound
}

type indexKey struct {
	queue uint64
	stage vulkan.VkPipelineStageFlagBits
}

// indexItem orders nodes by queue, stage, sequence and id.
type indexItem struct {
	key indexKey
	seq uint64
	id  NodeID
}

func (i indexItem) Less(than btree.Item) bool {
	o := than.(indexItem)
	switch {
	case i.key.queue != o.key.queue:
		return i.key.queue < o.key.queue
	case i.key.stage != o.key.stage:
		return i.key.stage < o.key.stage
	case i.seq != o.seq:
		return i.seq < o.seq
	}
	return i.id < o.id
}

type boundInto struct {
	to    NodeID
	bound Bound
}

// Graph is a synchronization graph. Nodes are interned: adding a node equal
// to an existing one returns the existing id. Edges are kept as sets.
type Graph struct {
	nodes []Node
	ids   map[Node]NodeID
	succ  [][]NodeID
	edges map[[2]NodeID]struct{}

	bounded map[BoundedEdge]struct{}
	// boundFrom holds the bounded edges leaving each node.
	boundFrom map[NodeID][]Bound
	// boundInto holds the bounded edges entering nodes, per queue and
	// stage of the bound, sorted by Hi.
	boundInto map[indexKey][]boundInto
	// index orders every node for range scans of BoundFrom edges.
	index *btree.BTree
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		ids:       map[Node]NodeID{},
		edges:     map[[2]NodeID]struct{}{},
		bounded:   map[BoundedEdge]struct{}{},
		boundFrom: map[NodeID][]Bound{},
		boundInto: map[indexKey][]boundInto{},
		index:     btree.New(32),
	}
}

// AddNode interns n and returns its id.
func (g *Graph) AddNode(n Node) NodeID {
	if id, ok := g.ids[n]; ok {
		return id
	}
	id := NodeID(len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.succ = append(g.succ, nil)
	g.ids[n] = id
	g.index.ReplaceOrInsert(indexItem{indexKey{n.Command.Queue, n.Stage}, n.Command.Sequence, id})
	return id
}

// Lookup returns the id of n if it is in the graph.
func (g *Graph) Lookup(n Node) (NodeID, bool) {
	id, ok := g.ids[n]
	return id, ok
}

// Node returns the node with the given id.
func (g *Graph) Node(id NodeID) Node { return g.nodes[id] }

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of exact edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// NumBoundedEdges returns the number of bounded edges.
func (g *Graph) NumBoundedEdges() int { return len(g.bounded) }

// AddEdge adds the exact edge from → to, adding both nodes if needed.
func (g *Graph) AddEdge(from, to Node) {
	g.addEdge(g.AddNode(from), g.AddNode(to))
}

func (g *Graph) addEdge(a, b NodeID) {
	if a == b {
		return
	}
	k := [2]NodeID{a, b}
	if _, ok := g.edges[k]; ok {
		return
	}
	g.edges[k] = struct{}{}
	g.succ[a] = append(g.succ[a], b)
}

// AddBoundedEdge adds e, adding its fixed node if needed.
func (g *Graph) AddBoundedEdge(e BoundedEdge) {
	if _, ok := g.bounded[e]; ok {
		return
	}
	g.bounded[e] = struct{}{}
	id := g.AddNode(e.Node)
	switch e.Dir {
	case BoundFrom:
		g.boundFrom[id] = append(g.boundFrom[id], e.Bound)
	case BoundInto:
		k := indexKey{e.Bound.Queue, e.Bound.Stage}
		list := g.boundInto[k]
		i := sort.Search(len(list), func(i int) bool { return list[i].bound.Hi > e.Bound.Hi })
		list = append(list, boundInto{})
		copy(list[i+1:], list[i:])
		list[i] = boundInto{id, e.Bound}
		g.boundInto[k] = list
	}
}

// matches calls cb with every node matching b until cb returns false.
func (g *Graph) matches(b Bound, cb func(NodeID) bool) {
	if b.Lo >= b.Hi {
		return
	}
	k := indexKey{b.Queue, b.Stage}
	lo := indexItem{k, b.Lo, 0}
	var it btree.ItemIterator = func(i btree.Item) bool {
		item := i.(indexItem)
		if item.key != k || item.seq >= b.Hi {
			return false
		}
		if b.Contains(g.nodes[item.id]) {
			return cb(item.id)
		}
		return true
	}
	if b.Hi == math.MaxUint64 {
		g.index.AscendGreaterOrEqual(lo, it)
		return
	}
	g.index.AscendRange(lo, indexItem{k, b.Hi, 0}, it)
}

// successors calls cb with every direct successor of id, exact or bounded,
// until cb returns false.
func (g *Graph) successors(id NodeID, cb func(NodeID) bool) {
	for _, s := range g.succ[id] {
		if !cb(s) {
			return
		}
	}
	stop := false
	for _, b := range g.boundFrom[id] {
		g.matches(b, func(s NodeID) bool {
			if s == id {
				return true
			}
			stop = !cb(s)
			return !stop
		})
		if stop {
			return
		}
	}
	n := g.nodes[id]
	list := g.boundInto[indexKey{n.Command.Queue, n.Stage}]
	seq := n.Command.Sequence
	for i := sort.Search(len(list), func(i int) bool { return list[i].bound.Hi > seq }); i < len(list); i++ {
		e := list[i]
		if e.to != id && e.bound.Contains(n) && !cb(e.to) {
			return
		}
	}
}

// ForeachNode calls cb with every node in id order.
func (g *Graph) ForeachNode(cb func(NodeID, Node)) {
	for i, n := range g.nodes {
		cb(NodeID(i), n)
	}
}

// ForeachEdge calls cb with every exact edge, ordered by source then
// insertion.
func (g *Graph) ForeachEdge(cb func(from, to NodeID)) {
	for a, list := range g.succ {
		for _, b := range list {
			cb(NodeID(a), b)
		}
	}
}

// BoundedEdges returns the bounded edges, ordered by fixed node and then
// bound.
func (g *Graph) BoundedEdges() []BoundedEdge {
	out := make([]BoundedEdge, 0, len(g.bounded))
	for e := range g.bounded {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ia, ib := g.ids[a.Node], g.ids[b.Node]; ia != ib {
			return ia < ib
		}
		if a.Dir != b.Dir {
			return a.Dir < b.Dir
		}
		return a.Bound.String() < b.Bound.String()
	})
	return out
}

// Expand returns a graph with the same nodes and ids where every bounded
// edge is replaced by the exact edges it stands for.
func (g *Graph) Expand() *Graph {
	out := NewGraph()
	for _, n := range g.nodes {
		out.AddNode(n)
	}
	g.ForeachEdge(func(a, b NodeID) { out.addEdge(a, b) })
	for _, e := range g.BoundedEdges() {
		id := g.ids[e.Node]
		g.matches(e.Bound, func(m NodeID) bool {
			if e.Dir == BoundFrom {
				out.addEdge(id, m)
			} else {
				out.addEdge(m, id)
			}
			return true
		})
	}
	return out
}
