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

package main

import (
	"context"
	"flag"

	"github.com/google/vksync/core/app"
	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/api/vulkan"
	"github.com/google/vksync/gapis/framegraph"
	"github.com/google/vksync/gapis/layer"
	"github.com/google/vksync/gapis/scenario"
)

type graphVerb struct {
	SyncFlags
	CommandBuffer uint64
	Queue         uint64
	Expand        bool
	Out           string
}

func init() {
	root.Add(&app.Verb{
		Name:       "graph",
		ShortHelp:  "Write the synchronization graph of a command buffer in DOT format",
		ShortUsage: "<scenario.yaml>",
		Action:     &graphVerb{},
	})
}

func (verb *graphVerb) BindFlags(set *flag.FlagSet) {
	verb.SyncFlags.BindFlags(set)
	set.Uint64Var(&verb.CommandBuffer, "cb", 0, "command buffer handle, defaults to the first of the scenario")
	set.Uint64Var(&verb.Queue, "queue", 0, "queue the command buffer is validated for")
	set.BoolVar(&verb.Expand, "expand", false, "replace bounded edges by the exact edges they stand for")
	set.StringVar(&verb.Out, "out", "", "output file, defaults to stdout")
}

func (verb *graphVerb) Run(ctx context.Context, flags flag.FlagSet) error {
	if flags.NArg() != 1 {
		return app.Usage(ctx, stdout, root, "Exactly one scenario file expected, got %d", flags.NArg())
	}
	path := flags.Arg(0)
	cfg, err := verb.load(ctx)
	if err != nil {
		return err
	}
	s, err := scenario.Load(path)
	if err != nil {
		return log.Errf(ctx, err, "Loading scenario (%v)", path)
	}
	h := verb.CommandBuffer
	if h == 0 {
		if len(s.CommandBuffers) == 0 {
			return log.Errf(ctx, nil, "No command buffers in %v", path)
		}
		h = s.CommandBuffers[0].Handle
	}

	d := layer.NewDevice(nil, cfg, nil)
	if err := s.Record(ctx, d); err != nil {
		return log.Errf(ctx, err, "Recording scenario (%v)", path)
	}
	g, res, err := d.Graph(ctx, vulkan.VkQueue(verb.Queue), vulkan.VkCommandBuffer(h))
	if err != nil {
		return log.Errf(ctx, err, "Building graph of %#x", h)
	}
	log.I(ctx, "Graph of %#x: %d nodes, %d edges, %d bounded edges, %d hazards",
		h, g.NumNodes(), g.NumEdges(), g.NumBoundedEdges(), len(res.Hazards))

	out, err := output(ctx, verb.Out)
	if err != nil {
		return err
	}
	defer out.Close()
	if err := framegraph.Write(out, g, framegraph.Config{Expand: verb.Expand, Hazards: res.Hazards}); err != nil {
		return log.Errf(ctx, err, "Writing graph")
	}
	return nil
}
