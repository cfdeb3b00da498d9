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

package pass_test

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/api/pass"
	"github.com/google/vksync/gapis/api/vulkan"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	seen   []int
	stopAt int
	failAt int
	ended  bool
}

func (r *recorder) BeginBuffer(ctx context.Context, cb *vulkan.CommandBuffer) error { return nil }

func (r *recorder) ProcessCommand(ctx context.Context, index int, rec vulkan.Record) error {
	r.seen = append(r.seen, index)
	switch index {
	case r.stopAt:
		return errors.Wrap(pass.ErrStop, "enough")
	case r.failAt:
		return errors.New("ignored")
	}
	return nil
}

func (r *recorder) EndBuffer(ctx context.Context) error {
	r.ended = true
	return nil
}

func buffer(n int) *vulkan.CommandBuffer {
	cb := &vulkan.CommandBuffer{Handle: 7}
	cb.Begin(vulkan.BeginInfo{})
	for i := 0; i < n; i++ {
		cb.Append(&vulkan.VkCmdDraw{VertexCount: uint32(i)}, vulkan.Origin(i))
	}
	cb.End()
	return cb
}

func TestControlFlowRunsEveryPass(t *testing.T) {
	ctx := log.Testing(t)
	a, b := &recorder{stopAt: -1, failAt: 1}, &recorder{stopAt: -1, failAt: -1}
	cf := pass.NewControlFlow("test")
	cf.AddPass(a, b)

	n, stopped := cf.Run(ctx, buffer(3))
	assert.Equal(t, 3, n)
	assert.False(t, stopped)
	assert.Equal(t, []int{0, 1, 2}, a.seen)
	assert.Equal(t, []int{0, 1, 2}, b.seen, "errors other than ErrStop do not stop the chain")
	assert.True(t, a.ended)
	assert.True(t, b.ended)
}

func TestControlFlowStop(t *testing.T) {
	ctx := log.Testing(t)
	a, b := &recorder{stopAt: 1, failAt: -1}, &recorder{stopAt: -1, failAt: -1}
	cf := pass.NewControlFlow("test")
	cf.AddPass(a, b)

	n, stopped := cf.Run(ctx, buffer(4))
	assert.Equal(t, 2, n)
	assert.True(t, stopped)
	assert.Equal(t, []int{0, 1}, a.seen)
	assert.Equal(t, []int{0}, b.seen)
	assert.True(t, b.ended, "passes are ended after a stop")
}

func TestFileLog(t *testing.T) {
	ctx := log.Testing(t)
	path := filepath.Join(t.TempDir(), "cmds")
	cf := pass.NewControlFlow("test")
	cf.LogCommandsTo(path)

	cf.Run(ctx, buffer(2))
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "# 7 (2 commands)\n"+
		"0: vkCmdDraw(vertexCount: 0, instanceCount: 0, firstVertex: 0, firstInstance: 0)\n"+
		"1: vkCmdDraw(vertexCount: 1, instanceCount: 0, firstVertex: 0, firstInstance: 0) @0x1\n",
		string(data))
}
