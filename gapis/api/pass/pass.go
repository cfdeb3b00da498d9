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

// Package pass runs the recorded commands of a command buffer through an
// ordered chain of observers.
package pass

import (
	"context"

	"github.com/google/vksync/core/fault"
	"github.com/google/vksync/gapis/api/vulkan"
)

// ErrStop is returned by a pass to end the traversal of a command buffer.
// It may be wrapped.
const ErrStop = fault.Const("Traversal stopped")

// Pass observes the commands of a command buffer in recording order.
type Pass interface {
	// BeginBuffer is called before the first command of cb.
	BeginBuffer(ctx context.Context, cb *vulkan.CommandBuffer) error

	// ProcessCommand is called with each record and its index in the
	// command buffer. Passes must not modify the record.
	ProcessCommand(ctx context.Context, index int, rec vulkan.Record) error

	// EndBuffer is called after the last processed command, including when
	// the traversal was stopped early.
	EndBuffer(ctx context.Context) error
}
