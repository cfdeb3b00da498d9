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

package pass

import (
	"context"

	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/api/vulkan"
)

// ControlFlow feeds the records of a command buffer through its passes.
type ControlFlow struct {
	passes  []Pass
	tag     string
	logPath string
}

// NewControlFlow returns a ControlFlow with no passes. tag prefixes its log
// messages.
func NewControlFlow(tag string) *ControlFlow {
	return &ControlFlow{
		passes: make([]Pass, 0),
		tag:    tag,
	}
}

// AddPass appends passes to the end of the chain.
func (cf *ControlFlow) AddPass(passes ...Pass) {
	cf.passes = append(cf.passes, passes...)
}

// LogCommandsTo makes Run write every traversed command to the file at path.
func (cf *ControlFlow) LogCommandsTo(path string) {
	cf.logPath = path
}

// Run traverses cb and returns the number of records processed and whether
// a pass stopped the traversal.
func (cf *ControlFlow) Run(ctx context.Context, cb *vulkan.CommandBuffer) (processed int, stopped bool) {
	passes := cf.passes
	if cf.logPath != "" {
		if l := NewFileLog(ctx, cf.logPath); l != nil {
			passes = append([]Pass{l}, passes...)
		}
	}

	chain := createPassChain(passes)
	defer chain.endChain(ctx)

	if err := chain.beginChain(ctx, cb); err != nil {
		log.D(ctx, "[%v] Stopped before the first command of %v: %v", cf.tag, cb.Handle, err)
		return 0, true
	}

	for i, rec := range cb.Records {
		log.D(ctx, "[%v] Processing... (%v:%v)", cf.tag, i, rec.Command)
		if err := chain.processCommand(ctx, i, rec); err != nil {
			log.D(ctx, "[%v] Stopped at (%v:%v): %v", cf.tag, i, rec.Command, err)
			return i + 1, true
		}
	}
	return len(cb.Records), false
}
