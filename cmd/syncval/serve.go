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

package main

import (
	"context"
	"flag"

	"github.com/google/vksync/core/app"
	"github.com/google/vksync/gapis/server"
)

type serveVerb struct {
	SyncFlags
	Addr      string
	AuthToken string
}

func init() {
	root.Add(&app.Verb{
		Name:      "serve",
		ShortHelp: "Run a gRPC validation server",
		Action:    &serveVerb{},
	})
}

func (verb *serveVerb) BindFlags(set *flag.FlagSet) {
	verb.SyncFlags.BindFlags(set)
	set.StringVar(&verb.Addr, "addr", "localhost:7410", "address to listen on")
	set.StringVar(&verb.AuthToken, "auth-token", "", "token clients must send, empty to accept all")
}

func (verb *serveVerb) Run(ctx context.Context, flags flag.FlagSet) error {
	if flags.NArg() != 0 {
		return app.Usage(ctx, stdout, root, "Unexpected arguments %v", flags.Args())
	}
	cfg, err := verb.load(ctx)
	if err != nil {
		return err
	}
	return server.Listen(ctx, verb.Addr, server.Config{AuthToken: verb.AuthToken, Sync: cfg})
}
