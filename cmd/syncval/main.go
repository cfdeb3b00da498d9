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

// The syncval command validates the synchronization of Vulkan command
// buffers described by scenario files.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/google/vksync/core/app"
	"github.com/google/vksync/core/log"
)

// root holds every verb of the tool. Verbs register themselves in init.
var root = &app.Verb{
	Name:      "syncval",
	ShortHelp: "Vulkan synchronization validation",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// stdout is where verbs write their results when no output file is given.
var stdout io.Writer = os.Stdout

func run(args []string, out, stderr io.Writer) int {
	stdout = out
	set := flag.NewFlagSet(root.Name, flag.ContinueOnError)
	set.SetOutput(stderr)
	level := set.String("log-level", "Info", "lowest severity of the messages shown")
	detailed := set.Bool("log-detailed", false, "include timestamps in log messages")
	if err := set.Parse(args); err != nil {
		return 2
	}

	severity, ok := log.ParseSeverity(*level)
	if !ok {
		fmt.Fprintf(stderr, "Unknown log level %q\n", *level)
		return 2
	}
	style := log.Normal
	if *detailed {
		style = log.Detailed
	}
	ctx := context.Background()
	ctx = log.PutHandler(ctx, log.Writer(style, stderr))
	ctx = log.PutFilter(ctx, log.SeverityFilter(severity))

	err := root.Invoke(ctx, out, set.Args())
	switch {
	case err == nil:
		return 0
	case errors.Cause(err) == app.ErrUsage:
		return 2
	case errors.Cause(err) == ErrHazards:
		return 1
	default:
		log.E(ctx, "%v", err)
		return 1
	}
}

// output returns the file at path, or stdout when path is empty.
func output(ctx context.Context, path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, log.Errf(ctx, err, "Creating file (%v)", path)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
