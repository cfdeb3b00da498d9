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
	"golang.org/x/tools/container/intsets"
)

// Closure returns the set of nodes reachable from id by a non-empty path.
func (g *Graph) Closure(id NodeID) *intsets.Sparse {
	seen := &intsets.Sparse{}
	g.bfs(id, func(NodeID) bool { return true }, seen)
	return seen
}

// Reachable returns true if there is a path from a to b. Every node reaches
// itself.
func (g *Graph) Reachable(a, b NodeID) bool {
	if a == b {
		return true
	}
	found := false
	g.bfs(a, func(n NodeID) bool {
		found = n == b
		return !found
	}, &intsets.Sparse{})
	return found
}

// bfs visits the nodes reachable from start in breadth-first order, calling
// visit with each newly reached node until it returns false.
func (g *Graph) bfs(start NodeID, visit func(NodeID) bool, seen *intsets.Sparse) {
	queue := []NodeID{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		stop := false
		g.successors(n, func(s NodeID) bool {
			if !seen.Insert(int(s)) {
				return true
			}
			if !visit(s) {
				stop = true
				return false
			}
			queue = append(queue, s)
			return true
		})
		if stop {
			return
		}
	}
}

// Reachability answers reachability queries over a graph, optionally
// caching the closure of every queried origin. The graph must not change
// while in use.
type Reachability struct {
	g        *Graph
	closures map[NodeID]*intsets.Sparse
}

// NewReachability returns a Reachability for g. If cache is false every
// query runs its own search.
func NewReachability(g *Graph, cache bool) *Reachability {
	r := &Reachability{g: g}
	if cache {
		r.closures = map[NodeID]*intsets.Sparse{}
	}
	return r
}

// Reachable returns true if there is a path from a to b.
func (r *Reachability) Reachable(a, b NodeID) bool {
	if a == b {
		return true
	}
	if r.closures == nil {
		return r.g.Reachable(a, b)
	}
	c, ok := r.closures[a]
	if !ok {
		c = r.g.Closure(a)
		r.closures[a] = c
	}
	return c.Has(int(b))
}
