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

// Package sync builds happens-before graphs from recorded Vulkan command
// buffers and reports memory accesses that are not ordered by them.
package sync

import "fmt"

// NoSubpass is the subpass of commands recorded outside a render pass.
const NoSubpass = ^uint64(0)

// AnySubpass is a bound scope matching commands of every subpass, including
// those outside a render pass. It is never the subpass of a command.
const AnySubpass = NoSubpass - 1

// CommandID identifies a command within the traversal of a command buffer.
// IDs are ordered by queue, then subpass, then sequence.
type CommandID struct {
	Queue    uint64
	Subpass  uint64
	Sequence uint64
}

// Compare returns -1, 0 or 1 if c is less than, equal to or greater than o.
func (c CommandID) Compare(o CommandID) int {
	switch {
	case c.Queue != o.Queue:
		return cmp(c.Queue, o.Queue)
	case c.Subpass != o.Subpass:
		return cmp(c.Subpass, o.Subpass)
	default:
		return cmp(c.Sequence, o.Sequence)
	}
}

// Less returns true if c orders before o.
func (c CommandID) Less(o CommandID) bool { return c.Compare(o) < 0 }

// InRenderPass returns true if the command was recorded inside a render pass.
func (c CommandID) InRenderPass() bool { return c.Subpass != NoSubpass }

func (c CommandID) String() string {
	if c.Subpass == NoSubpass {
		return fmt.Sprintf("q%d/-/%d", c.Queue, c.Sequence)
	}
	return fmt.Sprintf("q%d/sp%d/%d", c.Queue, c.Subpass, c.Sequence)
}

func cmp(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
