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

// Package server exposes scenario validation as a gRPC service.
package server

import (
	"context"
	"math"
	"net"
	"sync/atomic"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/google/vksync/core/log"
	vksync "github.com/google/vksync/gapis/api/vulkan/sync"
	"github.com/google/vksync/gapis/layer"
	"github.com/google/vksync/gapis/report"
	"github.com/google/vksync/gapis/scenario"
)

const (
	// ServiceName is the full name of the validation service.
	ServiceName = "vksync.Validation"
	// ValidateMethod is the full name of the Validate RPC.
	ValidateMethod = "/vksync.Validation/Validate"
	// AuthTokenMetaDataName is the key of the request metadata pair that holds
	// the authentication token.
	AuthTokenMetaDataName = "vksync-auth-token"
)

// Config holds the server settings.
type Config struct {
	// AuthToken, if not empty, must be attached to every request.
	AuthToken string
	// Sync configures the validator of every request.
	Sync vksync.Config
}

// Validator is the server side of the validation service.
type Validator interface {
	// Validate runs the scenario document in req and returns its report.
	Validate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Validator)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Validate", Handler: validateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vksync/validation.proto",
}

func validateHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := &wrapperspb.StringValue{}
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Validator).Validate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ValidateMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Validator).Validate(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// Register adds v to server.
func Register(server *grpc.Server, v Validator) {
	server.RegisterService(&serviceDesc, v)
}

// New returns a Validator that logs to the handler of ctx.
func New(ctx context.Context, cfg Config) Validator {
	handler, filter := log.GetHandler(ctx), log.GetFilter(ctx)
	return &grpcServer{
		cfg: cfg,
		bindCtx: func(c context.Context) context.Context {
			return log.PutFilter(log.PutHandler(c, handler), filter)
		},
	}
}

// Listen starts a new gRPC server listening on addr.
// This is a blocking call.
func Listen(ctx context.Context, addr string, cfg Config) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return log.Errf(ctx, err, "Could not start grpc server at %v", addr)
	}
	return NewWithListener(ctx, listener, cfg, nil)
}

// NewWithListener starts a new gRPC server listening on l. If srvChan is not
// nil the server is sent on it once the service is registered.
// This is a blocking call.
func NewWithListener(ctx context.Context, l net.Listener, cfg Config, srvChan chan<- *grpc.Server) error {
	defer l.Close()
	server := grpc.NewServer(
		grpc.MaxRecvMsgSize(math.MaxInt32),
		grpc.UnaryInterceptor(AuthInterceptor(cfg.AuthToken)))
	Register(server, New(ctx, cfg))
	if srvChan != nil {
		srvChan <- server
	}
	log.I(ctx, "Starting grpc server on %v", l.Addr())
	if err := server.Serve(l); err != nil {
		return log.Errf(ctx, err, "Abort running grpc server: %v", l.Addr())
	}
	log.I(ctx, "Shutting down grpc server")
	return nil
}

// AuthInterceptor rejects requests that do not carry token. An empty token
// accepts everything.
func AuthInterceptor(token string) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if token != "" {
			md, _ := metadata.FromIncomingContext(ctx)
			got := md.Get(AuthTokenMetaDataName)
			if len(got) != 1 || got[0] != token {
				return nil, status.Errorf(codes.Unauthenticated, "Invalid auth token for %s", info.FullMethod)
			}
		}
		return handler(ctx, req)
	}
}

type grpcServer struct {
	cfg          Config
	bindCtx      func(context.Context) context.Context
	inFlightRPCs int32
}

func (s *grpcServer) Validate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	n := atomic.AddInt32(&s.inFlightRPCs, 1)
	defer atomic.AddInt32(&s.inFlightRPCs, -1)
	ctx = log.PutTag(s.bindCtx(ctx), "validate")
	log.D(ctx, "Validating %d bytes (%d requests in flight)", len(req.GetValue()), n)

	sc, err := scenario.Parse([]byte(req.GetValue()))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	subs, err := sc.Run(ctx, layer.NewDevice(nil, s.cfg.Sync, nil))
	switch {
	case errors.Cause(err) == scenario.ErrInvalid:
		return nil, status.Error(codes.InvalidArgument, err.Error())
	case err != nil:
		return nil, status.Error(codes.FailedPrecondition, err.Error())
	}
	return report.Build(subs, sc), nil
}
