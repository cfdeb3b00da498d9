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

// Package app holds the verb dispatching used by the command line tools.
package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/vksync/core/fault"
	"github.com/google/vksync/core/log"
)

// ErrUsage is returned when the command line could not be handled.
const ErrUsage = fault.Const("Invalid usage")

// Action is the interface for objects that perform the work of a verb.
type Action interface {
	// Run is the method to perform the action associated with a verb.
	// flags holds the arguments left after the verb's flags were parsed.
	Run(ctx context.Context, flags flag.FlagSet) error
}

// FlagBinder is implemented by actions that accept command line flags.
type FlagBinder interface {
	BindFlags(set *flag.FlagSet)
}

// Verb holds information about a runnable command.
type Verb struct {
	Name       string // The name of the command
	ShortHelp  string // Help for the purpose of the command
	ShortUsage string // Help for how to use the command
	Action     Action // The action to run for the command
	verbs      []*Verb
}

// Add adds a new verb to the supported set, it will panic if a
// duplicate name is encountered.
func (v *Verb) Add(child *Verb) {
	for _, c := range v.verbs {
		if c.Name == child.Name {
			panic(fmt.Errorf("Duplicate verb name %s", child.Name))
		}
	}
	v.verbs = append(v.verbs, child)
	sort.Slice(v.verbs, func(i, j int) bool { return v.verbs[i].Name < v.verbs[j].Name })
}

// Filter returns the filtered list of verbs who's names match the specified prefix.
func (v *Verb) Filter(prefix string) (result []*Verb) {
	for _, child := range v.verbs {
		if strings.HasPrefix(child.Name, prefix) {
			result = append(result, child)
		}
	}
	return result
}

// Invoke runs a verb, handing it the command line arguments it should process.
func (v *Verb) Invoke(ctx context.Context, out io.Writer, args []string) error {
	if len(args) < 1 {
		return Usage(ctx, out, v, "Must supply a verb to %s", v.Name)
	}
	name := args[0]
	if name == "help" {
		v.Help(out)
		return nil
	}
	matches := v.Filter(name)
	for _, m := range matches {
		if m.Name == name {
			matches = []*Verb{m}
			break
		}
	}
	switch len(matches) {
	case 1:
		selected := matches[0]
		set := flag.NewFlagSet(selected.Name, flag.ContinueOnError)
		set.SetOutput(out)
		if b, ok := selected.Action.(FlagBinder); ok {
			b.BindFlags(set)
		}
		if err := set.Parse(args[1:]); err != nil {
			return err
		}
		log.D(ctx, "Running verb %v with %v", selected.Name, set.Args())
		return selected.Action.Run(ctx, *set)
	case 0:
		return Usage(ctx, out, v, "Verb '%s' is unknown", name)
	default:
		return Usage(ctx, out, v, "Verb '%s' is ambiguous", name)
	}
}

// Help writes the list of verbs to out.
func (v *Verb) Help(out io.Writer) {
	fmt.Fprintf(out, "Usage: %s <verb> [flags] args...\n", v.Name)
	if v.ShortHelp != "" {
		fmt.Fprintf(out, "%s\n", v.ShortHelp)
	}
	fmt.Fprintln(out, "Verbs:")
	for _, c := range v.verbs {
		fmt.Fprintf(out, "  %-12s %s\n", c.Name, c.ShortHelp)
	}
}

// Usage prints message followed by the verb help and returns ErrUsage.
func Usage(ctx context.Context, out io.Writer, v *Verb, message string, args ...interface{}) error {
	msg := fmt.Sprintf(message, args...)
	log.W(ctx, "%s", msg)
	fmt.Fprintln(out, msg)
	v.Help(out)
	return ErrUsage
}
