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

package scenario

import (
	"context"

	"github.com/pkg/errors"

	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/api/vulkan"
	"github.com/google/vksync/gapis/layer"
)

// defaultPool is created for command buffers that do not name a pool.
const defaultPool = vulkan.VkCommandPool(^uint64(0))

// Record creates the scenario's resources on d and records its command
// buffers.
func (s *Scenario) Record(ctx context.Context, d *layer.Device) error {
	if err := d.Update(s.Resources.apply); err != nil {
		return err
	}
	d.CreateCommandPool(defaultPool, 0, 0)
	for _, cb := range s.CommandBuffers {
		if err := s.record(ctx, d, cb); err != nil {
			return errors.Wrapf(err, "command buffer %#x", cb.Handle)
		}
	}
	return nil
}

func (s *Scenario) record(ctx context.Context, d *layer.Device, cb CommandBuffer) error {
	h := vulkan.VkCommandBuffer(cb.Handle)
	pool := vulkan.VkCommandPool(cb.Pool)
	if cb.Pool == 0 {
		pool = defaultPool
	}
	level := vulkan.VkCommandBufferLevel_VK_COMMAND_BUFFER_LEVEL_PRIMARY
	if cb.Secondary {
		level = vulkan.VkCommandBufferLevel_VK_COMMAND_BUFFER_LEVEL_SECONDARY
	}
	if err := d.AllocateCommandBuffers(pool, level, h); err != nil {
		return err
	}
	if err := d.BeginCommandBuffer(h, vulkan.BeginInfo{}); err != nil {
		return err
	}
	for _, c := range cb.Commands {
		cmd, err := c.Build()
		if err != nil {
			return err
		}
		if err := d.Record(h, vulkan.Origin(c.Line), cmd); err != nil {
			return err
		}
	}
	log.D(ctx, "Recorded %d commands into %#x", len(cb.Commands), cb.Handle)
	if cb.Open {
		return nil
	}
	return d.EndCommandBuffer(h)
}

// Submit performs the scenario's submissions in order. Submissions that fail
// validation are returned with the others; any other failure stops.
func (s *Scenario) Submit(ctx context.Context, d *layer.Device) ([]layer.Submission, error) {
	out := []layer.Submission{}
	for i, sub := range s.Submits {
		batches := make([]layer.SubmitInfo, len(sub.Batches))
		for j, b := range sub.Batches {
			for _, h := range b {
				batches[j].CommandBuffers = append(batches[j].CommandBuffers, vulkan.VkCommandBuffer(h))
			}
		}
		res, err := d.QueueSubmit(ctx, vulkan.VkQueue(sub.Queue), batches)
		out = append(out, res...)
		switch {
		case errors.Cause(err) == layer.ErrValidationFailed:
			log.W(ctx, "Submit %d: %v", i, err)
		case err != nil:
			return out, errors.Wrapf(err, "submit %d", i)
		}
	}
	return out, nil
}

// Run records and submits the scenario on d.
func (s *Scenario) Run(ctx context.Context, d *layer.Device) ([]layer.Submission, error) {
	if err := s.Record(ctx, d); err != nil {
		return nil, err
	}
	return s.Submit(ctx, d)
}
