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

package server_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/google/vksync/core/log"
	vksync "github.com/google/vksync/gapis/api/vulkan/sync"
	"github.com/google/vksync/gapis/server"
)

const twoDraws = `
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
submits:
  - batches: [[0x81]]
`

func TestValidate(t *testing.T) {
	ctx := log.Testing(t)
	v := server.New(ctx, server.Config{Sync: vksync.DefaultConfig()})

	r, err := v.Validate(context.Background(), wrapperspb.String(twoDraws))
	require.NoError(t, err)
	summary := r.AsMap()["summary"].(map[string]interface{})
	assert.Equal(t, 1.0, summary["WriteAfterWrite"])

	_, err = v.Validate(ctx, wrapperspb.String("commandBuffers: [{commands: [dispatch]}]"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = v.Validate(ctx, wrapperspb.String("commandBuffers: 3"))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAuthInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: server.ValidateMethod}
	called := 0
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		called++
		return req, nil
	}
	withToken := func(tok string) context.Context {
		return metadata.NewIncomingContext(context.Background(),
			metadata.Pairs(server.AuthTokenMetaDataName, tok))
	}

	check := server.AuthInterceptor("secret")
	_, err := check(withToken("secret"), "req", info, handler)
	assert.NoError(t, err)
	_, err = check(withToken("guess"), "req", info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = check(context.Background(), "req", info, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Equal(t, 1, called)

	out, err := server.AuthInterceptor("")(context.Background(), "req", info, handler)
	assert.NoError(t, err)
	assert.Equal(t, "req", out)
}
