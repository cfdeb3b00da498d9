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
	"context"
	"fmt"
	"sort"

	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/api/pass"
	"github.com/google/vksync/gapis/api/vulkan"
)

// Validator checks command buffers against a resource table.
type Validator struct {
	state  *vulkan.State
	sink   Sink
	config Config
}

// NewValidator returns a validator reading st and reporting to sink, which
// may be nil. The caller must keep st unchanged while validating.
func NewValidator(st *vulkan.State, sink Sink, config Config) *Validator {
	return &Validator{state: st, sink: sink, config: config}
}

// Validate checks the commands of cb as if submitted to queue.
func (v *Validator) Validate(ctx context.Context, queue uint64, cb *vulkan.CommandBuffer) Result {
	_, res := v.Build(ctx, queue, cb)
	return res
}

// Build checks the commands of cb as if submitted to queue, returning the
// sync graph of the analysed commands along with the result.
func (v *Validator) Build(ctx context.Context, queue uint64, cb *vulkan.CommandBuffer) (*Graph, Result) {
	if cb.State != vulkan.CommandBufferStateExecutable {
		log.W(ctx, "Validating command buffer %v in state %v", cb.Handle, cb.State)
	}

	b := newBuilder(v.state, v.sink, v.config, queue)
	cf := pass.NewControlFlow(fmt.Sprintf("sync %v", cb.Handle))
	if v.config.CommandLogPath != "" {
		cf.LogCommandsTo(v.config.CommandLogPath)
	}
	cf.AddPass(b)
	processed, stopped := cf.Run(ctx, cb)

	g := b.graph
	log.D(ctx, "Sync graph of %v: %d of %d commands, %d nodes, %d edges, %d bounded edges",
		cb.Handle, processed, len(cb.Records), g.NumNodes(), g.NumEdges(), g.NumBoundedEdges())

	v.pair(ctx, b)
	return g, Result{Aborted: b.aborted || stopped, Hazards: b.hazards}
}

type pairKey struct {
	first, second CommandID
	resource      RegionKey
}

// pair checks every pair of conflicting accesses and every layout
// transition for an ordering path and reports those without one.
func (v *Validator) pair(ctx context.Context, b *builder) {
	g := b.graph
	reach := NewReachability(g, v.config.CacheReachability)

	keys := []RegionKey{}
	groups := map[RegionKey][]memAccess{}
	for _, a := range b.accesses {
		k := g.Node(a.id).Memory.Key()
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], a)
	}

	found := map[pairKey]int{}
	hazards := []Hazard{}
	for _, k := range keys {
		list := groups[k]
		for i := range list {
			for j := i + 1; j < len(list); j++ {
				x, y := list[i], list[j]
				nx, ny := g.Node(x.id), g.Node(y.id)
				if nx.Command == ny.Command || !(nx.Type.IsWrite() || ny.Type.IsWrite()) || !nx.Memory.Overlaps(ny.Memory) {
					continue
				}
				if ny.Command.Sequence < nx.Command.Sequence {
					x, y, nx, ny = y, x, ny, nx
				}
				if reach.Reachable(x.id, y.id) || reach.Reachable(y.id, x.id) {
					continue
				}
				h := Hazard{
					Kind:         accessHazard(nx.Type, ny.Type),
					First:        nx,
					Second:       ny,
					FirstIndex:   x.index,
					SecondIndex:  y.index,
					FirstOrigin:  x.origin,
					SecondOrigin: y.origin,
					Object:       objectName(k.Kind),
					Handle:       k.Handle,
				}
				h.Message = fmt.Sprintf("%v of %v at %v is not ordered with %v of %v at %v",
					nx.Access, nx.Memory, nx.Stage, ny.Access, ny.Memory, ny.Stage)
				pk := pairKey{nx.Command, ny.Command, k}
				if at, ok := found[pk]; ok {
					if h.Kind.severity() > hazards[at].Kind.severity() {
						hazards[at] = h
					}
					continue
				}
				found[pk] = len(hazards)
				hazards = append(hazards, h)
			}
		}
	}
	sort.SliceStable(hazards, func(i, j int) bool {
		x, y := hazards[i], hazards[j]
		if x.First.Command.Sequence != y.First.Command.Sequence {
			return x.First.Command.Sequence < y.First.Command.Sequence
		}
		return x.Second.Command.Sequence < y.Second.Command.Sequence
	})

	hazards = append(hazards, v.transitionHazards(b, groups, reach)...)

	for _, h := range hazards {
		if b.report(ctx, h) {
			b.aborted = true
		}
	}
}

func (v *Validator) transitionHazards(b *builder, groups map[RegionKey][]memAccess, reach *Reachability) []Hazard {
	g := b.graph
	type transitionKey struct {
		access  CommandID
		barrier int
	}
	seen := map[transitionKey]struct{}{}
	out := []Hazard{}
	for _, t := range b.transitions {
		key := t.region.Key()
		for _, a := range groups[key] {
			n := g.Node(a.id)
			if !n.Memory.Overlaps(t.region) {
				continue
			}
			tk := transitionKey{n.Command, t.index}
			if _, dup := seen[tk]; dup {
				continue
			}
			h := Hazard{Kind: LayoutTransition, Object: objectName(key.Kind), Handle: key.Handle}
			if n.Command.Sequence < t.command.Sequence {
				if reach.Reachable(a.id, t.pre) {
					continue
				}
				h.First, h.Second = n, g.Node(t.pre)
				h.FirstIndex, h.SecondIndex = a.index, t.index
				h.FirstOrigin, h.SecondOrigin = a.origin, t.origin
				h.Message = fmt.Sprintf("%v of %v at %v is not ordered before the layout transition",
					n.Access, n.Memory, n.Stage)
			} else {
				if reach.Reachable(t.post, a.id) {
					continue
				}
				h.First, h.Second = g.Node(t.post), n
				h.FirstIndex, h.SecondIndex = t.index, a.index
				h.FirstOrigin, h.SecondOrigin = t.origin, a.origin
				h.Message = fmt.Sprintf("%v of %v at %v is not ordered after the layout transition",
					n.Access, n.Memory, n.Stage)
			}
			seen[tk] = struct{}{}
			out = append(out, h)
		}
	}
	return out
}

func accessHazard(first, second NodeType) HazardKind {
	switch {
	case first.IsWrite() && second.IsWrite():
		return WriteAfterWrite
	case first.IsWrite():
		return ReadAfterWrite
	}
	return WriteAfterRead
}

func objectName(k RegionKind) string {
	switch k {
	case RegionBuffer:
		return "VkBuffer"
	case RegionImage:
		return "VkImage"
	case RegionSwapchainImage:
		return "VkSwapchainKHR"
	}
	return ""
}
