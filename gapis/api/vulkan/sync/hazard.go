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

package sync

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/api/vulkan"
	"github.com/pkg/errors"
)

// HazardKind is the class of a reported hazard.
type HazardKind int

const (
	// InvalidReference is a handle that is not in the resource table. It
	// stops validation of the command buffer.
	InvalidReference HazardKind = iota
	// UnsatisfiedBinding is a draw whose pipeline layout requires a
	// descriptor set or descriptor that is not bound or not written. The
	// draw is skipped.
	UnsatisfiedBinding
	// Unsupported is a command the validator does not model. It stops
	// validation of the command buffer.
	Unsupported
	// WriteAfterRead is an unordered write following a read.
	WriteAfterRead
	// ReadAfterWrite is an unordered read following a write.
	ReadAfterWrite
	// WriteAfterWrite is an unordered write following a write.
	WriteAfterWrite
	// LayoutTransition is an access not ordered against an image layout
	// transition of the same subresources.
	LayoutTransition
)

var hazardKindNames = map[HazardKind]string{
	InvalidReference:   "InvalidReference",
	UnsatisfiedBinding: "UnsatisfiedBinding",
	Unsupported:        "Unsupported",
	WriteAfterRead:     "WriteAfterRead",
	ReadAfterWrite:     "ReadAfterWrite",
	WriteAfterWrite:    "WriteAfterWrite",
	LayoutTransition:   "LayoutTransition",
}

func (k HazardKind) String() string {
	if s, ok := hazardKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("HazardKind(%d)", int(k))
}

// ParseHazardKind returns the kind with the given name, ignoring case.
func ParseHazardKind(name string) (HazardKind, error) {
	for k, s := range hazardKindNames {
		if strings.EqualFold(s, name) {
			return k, nil
		}
	}
	return 0, errors.Wrapf(vulkan.ErrUnknownName, "hazard kind %q", name)
}

// IsSync returns true for the hazards found by reachability queries.
func (k HazardKind) IsSync() bool {
	switch k {
	case WriteAfterRead, ReadAfterWrite, WriteAfterWrite, LayoutTransition:
		return true
	}
	return false
}

// Fatal returns true for the hazards that prevent part of the command
// buffer from being analysed.
func (k HazardKind) Fatal() bool {
	switch k {
	case InvalidReference, UnsatisfiedBinding, Unsupported:
		return true
	}
	return false
}

// severity orders the access hazards for deduplication.
func (k HazardKind) severity() int {
	switch k {
	case WriteAfterWrite:
		return 3
	case ReadAfterWrite:
		return 2
	case WriteAfterRead:
		return 1
	}
	return 0
}

// NoCommand is the command index of a hazard side that has no command.
const NoCommand = -1

// Hazard is a problem found while validating a command buffer. Hazards
// about a single command leave the Second side empty.
type Hazard struct {
	Kind HazardKind
	// First and Second are the conflicting graph nodes of sync hazards.
	First, Second Node
	// FirstIndex and SecondIndex are indices into the command buffer's
	// records, or NoCommand.
	FirstIndex, SecondIndex   int
	FirstOrigin, SecondOrigin vulkan.Origin
	// Object and Handle name the offending object, if any.
	Object  string
	Handle  uint64
	Message string
}

func (h Hazard) String() string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%v", h.Kind)
	if h.FirstIndex != NoCommand {
		fmt.Fprintf(b, " at command %d", h.FirstIndex)
		if h.SecondIndex != NoCommand {
			fmt.Fprintf(b, " and command %d", h.SecondIndex)
		}
	}
	if h.Object != "" {
		fmt.Fprintf(b, " on %s %d", h.Object, h.Handle)
	}
	fmt.Fprintf(b, ": %s", h.Message)
	return b.String()
}

// Result is the outcome of validating one command buffer.
type Result struct {
	// Aborted is true if traversal stopped before the last command.
	Aborted bool
	// Hazards are all the hazards found in the analysed commands.
	Hazards []Hazard
}

// Fatal returns true if validation was aborted or found a hazard that kept
// part of the command buffer from being analysed.
func (r Result) Fatal() bool {
	if r.Aborted {
		return true
	}
	for _, h := range r.Hazards {
		if h.Kind.Fatal() {
			return true
		}
	}
	return false
}

// Count returns the number of hazards of kind k.
func (r Result) Count(k HazardKind) int {
	n := 0
	for _, h := range r.Hazards {
		if h.Kind == k {
			n++
		}
	}
	return n
}

// Sink receives hazards as they are found.
type Sink interface {
	// Report handles h and returns true if validation of the command buffer
	// should stop.
	Report(ctx context.Context, h Hazard) (abort bool)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, h Hazard) bool

// Report calls f.
func (f SinkFunc) Report(ctx context.Context, h Hazard) bool { return f(ctx, h) }

// LogSink logs every hazard and asks to abort on the kinds in AbortOn.
type LogSink struct {
	AbortOn    []HazardKind
	Symbolizer vulkan.Symbolizer
}

// Report logs h at error severity, or warning for sync hazards.
func (s *LogSink) Report(ctx context.Context, h Hazard) bool {
	msg := h.String()
	if where := s.where(h.FirstOrigin); where != "" {
		msg += "\n   First recorded at: " + where
	}
	if where := s.where(h.SecondOrigin); where != "" {
		msg += "\n   Second recorded at: " + where
	}
	if h.Kind.IsSync() {
		log.W(ctx, "%s", msg)
	} else {
		log.E(ctx, "%s", msg)
	}
	for _, k := range s.AbortOn {
		if k == h.Kind {
			return true
		}
	}
	return false
}

func (s *LogSink) where(o vulkan.Origin) string {
	if o == 0 || s.Symbolizer == nil {
		return ""
	}
	if str, ok := s.Symbolizer.Symbolize(o); ok {
		return str
	}
	return fmt.Sprintf("<origin %#x>", uint64(o))
}
