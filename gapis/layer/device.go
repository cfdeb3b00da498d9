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

// Package layer is the thin submission path in front of the synchronization
// validator. A Device owns the object table, records commands into command
// buffers and validates every command buffer handed to QueueSubmit.
package layer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/vksync/core/fault"
	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/api/vulkan"
	vksync "github.com/google/vksync/gapis/api/vulkan/sync"
	"github.com/pkg/errors"
)

// ErrValidationFailed is returned by QueueSubmit when a submission was not
// forwarded.
const ErrValidationFailed = fault.Const("Validation failed")

// Dispatcher receives submissions that passed validation.
type Dispatcher interface {
	QueueSubmit(ctx context.Context, queue vulkan.VkQueue, submits []SubmitInfo) error
}

// SubmitInfo is one batch of a queue submission.
type SubmitInfo struct {
	CommandBuffers []vulkan.VkCommandBuffer
}

// Submission is the validation outcome of one submitted command buffer.
type Submission struct {
	Queue         vulkan.VkQueue
	Batch         int
	Index         int
	CommandBuffer vulkan.VkCommandBuffer
	Result        vksync.Result
}

// Device is the per-device context. Every entry point takes the device lock
// for its whole duration.
type Device struct {
	mu     sync.Mutex
	state  *vulkan.State
	sink   vksync.Sink
	config vksync.Config
	next   Dispatcher
	queues map[vulkan.VkQueue]uint64
}

// NewDevice returns a device with an empty object table. next may be nil.
func NewDevice(sink vksync.Sink, config vksync.Config, next Dispatcher) *Device {
	return &Device{
		state:  vulkan.NewState(),
		sink:   sink,
		config: config,
		next:   next,
		queues: map[vulkan.VkQueue]uint64{},
	}
}

// Update calls f with the object table while holding the device lock.
func (d *Device) Update(f func(*vulkan.State) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return f(d.state)
}

// CreateCommandPool adds an empty command pool.
func (d *Device) CreateCommandPool(h vulkan.VkCommandPool, queueFamily uint32, flags vulkan.VkCommandPoolCreateFlags) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.AddCommandPool(h, queueFamily, flags)
}

// DestroyCommandPool frees the pool and its command buffers.
func (d *Device) DestroyCommandPool(h vulkan.VkCommandPool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.DestroyCommandPool(h)
}

// ResetCommandPool puts every command buffer of the pool back in the initial
// state.
func (d *Device) ResetCommandPool(h vulkan.VkCommandPool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.ResetCommandPool(h)
}

// AllocateCommandBuffers allocates one command buffer per handle from pool.
func (d *Device) AllocateCommandBuffers(pool vulkan.VkCommandPool, level vulkan.VkCommandBufferLevel, handles ...vulkan.VkCommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range handles {
		if _, err := d.state.AllocateCommandBuffer(pool, h, level); err != nil {
			return err
		}
	}
	return nil
}

// FreeCommandBuffers removes the command buffers from the device.
func (d *Device) FreeCommandBuffers(handles ...vulkan.VkCommandBuffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range handles {
		d.state.FreeCommandBuffer(h)
	}
}

func (d *Device) commandBuffer(h vulkan.VkCommandBuffer) (*vulkan.CommandBuffer, error) {
	cb, ok := d.state.CommandBuffer(h)
	if !ok {
		return nil, errors.Wrapf(vulkan.ErrUnknownHandle, "command buffer %v", h)
	}
	return cb, nil
}

// ResetCommandBuffer puts the command buffer back in the initial state.
func (d *Device) ResetCommandBuffer(h vulkan.VkCommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, err := d.commandBuffer(h)
	if err != nil {
		return err
	}
	cb.Reset()
	return nil
}

// BeginCommandBuffer starts recording into h.
func (d *Device) BeginCommandBuffer(h vulkan.VkCommandBuffer, info vulkan.BeginInfo) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, err := d.commandBuffer(h)
	if err != nil {
		return err
	}
	return cb.Begin(info)
}

// EndCommandBuffer finishes recording into h.
func (d *Device) EndCommandBuffer(h vulkan.VkCommandBuffer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, err := d.commandBuffer(h)
	if err != nil {
		return err
	}
	return cb.End()
}

// Record appends cmd to h. Every vkCmd* entry point of the layer records
// through it.
func (d *Device) Record(h vulkan.VkCommandBuffer, origin vulkan.Origin, cmd vulkan.Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, err := d.commandBuffer(h)
	if err != nil {
		return err
	}
	return cb.Append(cmd, origin)
}

// queueIndex returns the dense index of queue, assigning one on first use.
func (d *Device) queueIndex(q vulkan.VkQueue) uint64 {
	i, ok := d.queues[q]
	if !ok {
		i = uint64(len(d.queues))
		d.queues[q] = i
	}
	return i
}

// QueueSubmit validates every command buffer of submits in order and
// forwards the submission to the next dispatcher if none of them failed.
// Unknown or unfinished command buffers and fatal results fail the
// submission. Synchronization hazards are reported to the sink but do not.
func (d *Device) QueueSubmit(ctx context.Context, queue vulkan.VkQueue, submits []SubmitInfo) ([]Submission, error) {
	d.mu.Lock()
	out, failed := d.validate(ctx, queue, submits)
	d.mu.Unlock()

	if failed != nil {
		return out, failed
	}
	if d.next != nil {
		if err := d.next.QueueSubmit(ctx, queue, submits); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (d *Device) validate(ctx context.Context, queue vulkan.VkQueue, submits []SubmitInfo) ([]Submission, error) {
	ctx = log.PutTag(ctx, fmt.Sprintf("queue %v", queue))
	q := d.queueIndex(queue)
	v := vksync.NewValidator(d.state, d.sink, d.config)
	out := []Submission{}
	var failed error
	for i, s := range submits {
		for j, h := range s.CommandBuffers {
			cb, ok := d.state.CommandBuffer(h)
			if !ok {
				log.E(ctx, "vkQueueSubmit called with unknown pSubmits[%d].pCommandBuffers[%d] %v", i, j, h)
				failed = errors.Wrapf(ErrValidationFailed, "unknown command buffer %v", h)
				continue
			}
			if cb.State != vulkan.CommandBufferStateExecutable {
				log.E(ctx, "vkQueueSubmit called with %v in state %v", h, cb.State)
				failed = errors.Wrapf(ErrValidationFailed, "command buffer %v is %v", h, cb.State)
				continue
			}
			log.D(ctx, "Command buffer %v contents:\n%s", h, contents(cb))
			res := v.Validate(ctx, q, cb)
			out = append(out, Submission{Queue: queue, Batch: i, Index: j, CommandBuffer: h, Result: res})
			if res.Fatal() {
				failed = errors.Wrapf(ErrValidationFailed, "command buffer %v", h)
			}
		}
	}
	return out, failed
}

func contents(cb *vulkan.CommandBuffer) string {
	sb := strings.Builder{}
	for _, r := range cb.Records {
		fmt.Fprintf(&sb, "    %v\n", r.Command)
	}
	return sb.String()
}

// Graph builds the synchronization graph of the executable command buffer h
// as if it were submitted to queue, without reporting to the sink.
func (d *Device) Graph(ctx context.Context, queue vulkan.VkQueue, h vulkan.VkCommandBuffer) (*vksync.Graph, vksync.Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	cb, err := d.commandBuffer(h)
	if err != nil {
		return nil, vksync.Result{}, err
	}
	if cb.State != vulkan.CommandBufferStateExecutable {
		return nil, vksync.Result{}, errors.Wrapf(ErrValidationFailed, "command buffer %v is %v", h, cb.State)
	}
	v := vksync.NewValidator(d.state, nil, d.config)
	g, res := v.Build(ctx, d.queueIndex(queue), cb)
	return g, res, nil
}
