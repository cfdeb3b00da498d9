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
	"os"

	"github.com/google/vksync/core/app"
	"github.com/google/vksync/core/fault"
	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/client"
	"github.com/google/vksync/gapis/layer"
	"github.com/google/vksync/gapis/report"
	"github.com/google/vksync/gapis/scenario"
)

// ErrHazards is returned by verbs that found hazards.
const ErrHazards = fault.Const("Hazards found")

type validateVerb struct {
	SyncFlags
	Server    string
	AuthToken string
	Lenient   bool
}

func init() {
	root.Add(&app.Verb{
		Name:       "validate",
		ShortHelp:  "Validate the command buffers of scenario files",
		ShortUsage: "<scenario.yaml>...",
		Action:     &validateVerb{},
	})
}

func (verb *validateVerb) BindFlags(set *flag.FlagSet) {
	verb.SyncFlags.BindFlags(set)
	set.StringVar(&verb.Server, "server", "", "address of a validation server to send the scenarios to")
	set.StringVar(&verb.AuthToken, "auth-token", "", "token sent to the validation server")
	set.BoolVar(&verb.Lenient, "lenient", false, "exit successfully even if hazards are found")
}

func (verb *validateVerb) Run(ctx context.Context, flags flag.FlagSet) error {
	if flags.NArg() == 0 {
		return app.Usage(ctx, stdout, root, "At least one scenario file expected")
	}
	if verb.Server != "" {
		return verb.remote(ctx, flags.Args())
	}
	cfg, err := verb.load(ctx)
	if err != nil {
		return err
	}

	found := 0
	for _, path := range flags.Args() {
		s, err := scenario.Load(path)
		if err != nil {
			return log.Errf(ctx, err, "Loading scenario (%v)", path)
		}
		subs, err := s.Run(log.PutTag(ctx, path), layer.NewDevice(nil, cfg, nil))
		if err != nil {
			return log.Errf(ctx, err, "Running scenario (%v)", path)
		}
		if err := report.WriteText(stdout, subs, s); err != nil {
			return err
		}
		for _, n := range report.Summary(subs) {
			found += n
		}
	}
	return verb.result(found)
}

func (verb *validateVerb) remote(ctx context.Context, paths []string) error {
	c, err := client.Connect(ctx, verb.Server, verb.AuthToken)
	if err != nil {
		return err
	}
	defer c.Close()

	found := 0
	for _, path := range paths {
		doc, err := os.ReadFile(path)
		if err != nil {
			return log.Errf(ctx, err, "Reading scenario (%v)", path)
		}
		r, err := c.Validate(ctx, doc)
		if err != nil {
			return log.Errf(ctx, err, "Validating (%v) on %v", path, verb.Server)
		}
		if err := report.WriteJSON(stdout, r); err != nil {
			return err
		}
		summary, _ := r.AsMap()["summary"].(map[string]interface{})
		for _, n := range summary {
			if f, ok := n.(float64); ok {
				found += int(f)
			}
		}
	}
	return verb.result(found)
}

func (verb *validateVerb) result(found int) error {
	if found > 0 && !verb.Lenient {
		return ErrHazards
	}
	return nil
}
