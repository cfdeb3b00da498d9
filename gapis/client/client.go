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

// Package client talks to a validation server.
package client

import (
	"context"
	"math"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/google/vksync/core/fault"
	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/server"
)

// ErrClosed is returned by calls made after Close.
const ErrClosed = fault.Const("Client has been closed")

// gRPCConnectTimeout is the time allowed to establish a gRPC connection.
const gRPCConnectTimeout = time.Second * 10

// Client is a connection to a validation server.
type Client struct {
	// mutex prevents data races between calls and Close.
	mutex     sync.Mutex
	conn      *grpc.ClientConn
	authToken string
}

// Connect dials the server at target. Extra options are applied after the
// defaults.
func Connect(ctx context.Context, target, authToken string, options ...grpc.DialOption) (*Client, error) {
	options = append([]grpc.DialOption{
		grpc.WithInsecure(),
		grpc.WithBlock(),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(math.MaxInt32)),
	}, options...)
	ctx, cancel := context.WithTimeout(ctx, gRPCConnectTimeout)
	defer cancel()
	conn, err := grpc.DialContext(ctx, target, options...)
	if err != nil {
		return nil, log.Errf(ctx, err, "Connecting to %v", target)
	}
	return &Client{conn: conn, authToken: authToken}, nil
}

// Validate sends a scenario document to the server and returns its report.
func (c *Client) Validate(ctx context.Context, doc []byte) (*structpb.Struct, error) {
	c.mutex.Lock()
	conn := c.conn
	c.mutex.Unlock()
	if conn == nil {
		return nil, ErrClosed
	}

	out := &structpb.Struct{}
	ctx = attachAuthToken(ctx, c.authToken)
	if err := conn.Invoke(ctx, server.ValidateMethod, wrapperspb.String(string(doc)), out); err != nil {
		return nil, err
	}
	return out, nil
}

// Close closes the connection. Calls made afterwards fail with ErrClosed.
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// attachAuthToken attaches authentication token to the context as metadata, if
// the authentication token is not empty, and returns the new context. If the
// authentication token is empty, returns the original context.
func attachAuthToken(ctx context.Context, authToken string) context.Context {
	if authToken != "" {
		return metadata.NewOutgoingContext(ctx,
			metadata.Pairs(server.AuthTokenMetaDataName, authToken))
	}
	return ctx
}
