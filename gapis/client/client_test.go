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

package client_test

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/google/vksync/core/log"
	vksync "github.com/google/vksync/gapis/api/vulkan/sync"
	"github.com/google/vksync/gapis/client"
	"github.com/google/vksync/gapis/server"
)

const orderedDraws = `
resources:
  memories: [{handle: 0x10, size: 4096}]
  buffers: [{handle: 0x20, size: 256, memory: 0x10}]
  setLayouts:
    - handle: 0x40
      bindings: [{type: STORAGE_BUFFER, stages: [FRAGMENT]}]
  sets: [{handle: 0x41, layout: 0x40, writes: [{buffer: 0x20, range: 64}]}]
  pipelineLayouts: [{handle: 0x50, setLayouts: [0x40]}]
  pipelines: [{handle: 0x60, layout: 0x50, stages: [VERTEX, FRAGMENT]}]
commandBuffers:
  - handle: 0x81
    commands:
      - bindPipeline: {pipeline: 0x60}
      - bindDescriptorSets: {layout: 0x50, sets: [0x41]}
      - draw
      - draw
  - handle: 0x82
    commands:
      - bindPipeline: {pipeline: 0x60}
      - bindDescriptorSets: {layout: 0x50, sets: [0x41]}
      - draw
      - pipelineBarrier:
          srcStages: [FRAGMENT_SHADER]
          dstStages: [FRAGMENT_SHADER]
          memory: [{src: [SHADER_WRITE], dst: [SHADER_WRITE]}]
      - draw
submits:
  - queue: 2
    batches: [[0x81, 0x82]]
`

// serve starts a server on an in-memory listener and returns a dialer for it.
func serve(t *testing.T, token string) grpc.DialOption {
	ctx := log.Testing(t)
	l := bufconn.Listen(1 << 20)
	srvChan := make(chan *grpc.Server, 1)
	done := make(chan error, 1)
	go func() {
		done <- server.NewWithListener(ctx, l, server.Config{
			AuthToken: token,
			Sync:      vksync.DefaultConfig(),
		}, srvChan)
	}()
	srv := <-srvChan
	t.Cleanup(func() {
		srv.Stop()
		assert.NoError(t, <-done)
	})
	return grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) {
		return l.Dial()
	})
}

func TestValidate(t *testing.T) {
	ctx := log.Testing(t)
	dialer := serve(t, "secret")

	c, err := client.Connect(ctx, "bufnet", "secret", dialer)
	require.NoError(t, err)
	defer c.Close()

	r, err := c.Validate(ctx, []byte(orderedDraws))
	require.NoError(t, err)
	subs := r.AsMap()["submissions"].([]interface{})
	require.Len(t, subs, 2)
	first, second := subs[0].(map[string]interface{}), subs[1].(map[string]interface{})
	assert.Equal(t, "0x2", first["queue"])
	assert.Len(t, first["hazards"], 1)
	assert.Equal(t, "0x82", second["commandBuffer"])
	assert.Empty(t, second["hazards"])

	_, err = c.Validate(ctx, []byte("commandBuffers: [{commands: [dispatch]}]"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	require.NoError(t, c.Close())
	_, err = c.Validate(ctx, []byte(orderedDraws))
	assert.Equal(t, client.ErrClosed, err)
	assert.NoError(t, c.Close())
}

func TestBadToken(t *testing.T) {
	ctx := log.Testing(t)
	dialer := serve(t, "secret")

	c, err := client.Connect(ctx, "bufnet", "guess", dialer)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Validate(ctx, []byte(orderedDraws))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}
