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
	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/layer"
	"github.com/google/vksync/gapis/report"
	"github.com/google/vksync/gapis/scenario"
)

type reportVerb struct {
	SyncFlags
	Format string
	Out    string
}

func init() {
	root.Add(&app.Verb{
		Name:       "report",
		ShortHelp:  "Write the hazards of a scenario as a structured report",
		ShortUsage: "<scenario.yaml>",
		Action:     &reportVerb{},
	})
}

func (verb *reportVerb) BindFlags(set *flag.FlagSet) {
	verb.SyncFlags.BindFlags(set)
	set.StringVar(&verb.Format, "format", "json", "one of json, binary or text")
	set.StringVar(&verb.Out, "out", "", "output file, defaults to stdout")
}

func (verb *reportVerb) Run(ctx context.Context, flags flag.FlagSet) error {
	if flags.NArg() != 1 {
		return app.Usage(ctx, stdout, root, "Exactly one scenario file expected, got %d", flags.NArg())
	}
	switch verb.Format {
	case "json", "binary", "text":
	default:
		return app.Usage(ctx, stdout, root, "Unknown report format %q", verb.Format)
	}
	path := flags.Arg(0)
	cfg, err := verb.load(ctx)
	if err != nil {
		return err
	}
	s, err := scenario.Load(path)
	if err != nil {
		return log.Errf(ctx, err, "Loading scenario (%v)", path)
	}
	subs, err := s.Run(ctx, layer.NewDevice(nil, cfg, nil))
	if err != nil {
		return log.Errf(ctx, err, "Running scenario (%v)", path)
	}

	out, err := output(ctx, verb.Out)
	if err != nil {
		return err
	}
	defer out.Close()

	switch verb.Format {
	case "text":
		return report.WriteText(out, subs, s)
	case "binary":
		b, err := report.Marshal(report.Build(subs, s))
		if err != nil {
			return err
		}
		_, err = out.Write(b)
		return err
	default:
		return report.WriteJSON(out, report.Build(subs, s))
	}
}
