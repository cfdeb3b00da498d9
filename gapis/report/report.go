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

// Package report turns validated submissions into a protobuf Struct that can
// be written as JSON or in the binary wire format.
package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/vksync/gapis/api/vulkan"
	vksync "github.com/google/vksync/gapis/api/vulkan/sync"
	"github.com/google/vksync/gapis/layer"
)

// Build returns the report for subs. Handles and origins are written as hex
// strings. If sym is not nil, resolved origins are added as locations.
func Build(subs []layer.Submission, sym vulkan.Symbolizer) *structpb.Struct {
	list := make([]interface{}, len(subs))
	for i, s := range subs {
		list[i] = submission(s, sym)
	}
	summary := map[string]interface{}{}
	for k, n := range Summary(subs) {
		summary[k.String()] = n
	}
	out, err := structpb.NewStruct(map[string]interface{}{
		"submissions": list,
		"summary":     summary,
	})
	if err != nil {
		// Only strings, numbers, bools, lists and maps are used above.
		panic(err)
	}
	return out
}

func submission(s layer.Submission, sym vulkan.Symbolizer) map[string]interface{} {
	hazards := make([]interface{}, len(s.Result.Hazards))
	for i, h := range s.Result.Hazards {
		hazards[i] = hazard(h, sym)
	}
	return map[string]interface{}{
		"queue":         hex(uint64(s.Queue)),
		"batch":         s.Batch,
		"index":         s.Index,
		"commandBuffer": hex(uint64(s.CommandBuffer)),
		"aborted":       s.Result.Aborted,
		"hazards":       hazards,
	}
}

func hazard(h vksync.Hazard, sym vulkan.Symbolizer) map[string]interface{} {
	out := map[string]interface{}{
		"kind":    h.Kind.String(),
		"message": h.Message,
		"first":   command(h.FirstIndex, h.FirstOrigin, sym),
	}
	if h.SecondIndex != vksync.NoCommand {
		out["second"] = command(h.SecondIndex, h.SecondOrigin, sym)
	}
	if h.Object != "" {
		out["object"] = h.Object
		out["handle"] = hex(h.Handle)
	}
	return out
}

func command(index int, o vulkan.Origin, sym vulkan.Symbolizer) map[string]interface{} {
	out := map[string]interface{}{
		"index":  index,
		"origin": hex(uint64(o)),
	}
	if sym != nil {
		if loc, ok := sym.Symbolize(o); ok {
			out["location"] = loc
		}
	}
	return out
}

func hex(v uint64) string { return fmt.Sprintf("%#x", v) }

// Summary returns the number of hazards of each kind found in subs.
func Summary(subs []layer.Submission) map[vksync.HazardKind]int {
	out := map[vksync.HazardKind]int{}
	for _, s := range subs {
		for _, h := range s.Result.Hazards {
			out[h.Kind]++
		}
	}
	return out
}

// Kinds returns the kinds in a summary in ascending order.
func Kinds(summary map[vksync.HazardKind]int) []vksync.HazardKind {
	out := make([]vksync.HazardKind, 0, len(summary))
	for k := range summary {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WriteJSON writes r to w as indented JSON.
func WriteJSON(w io.Writer, r *structpb.Struct) error {
	m := jsonpb.Marshaler{Indent: "  "}
	return errors.Wrap(m.Marshal(w, r), "Writing JSON report")
}

// Marshal encodes r in the protobuf wire format.
func Marshal(r *structpb.Struct) ([]byte, error) {
	b, err := proto.Marshal(r)
	return b, errors.Wrap(err, "Encoding report")
}

// Decode is the inverse of Marshal.
func Decode(b []byte) (*structpb.Struct, error) {
	r := &structpb.Struct{}
	if err := proto.Unmarshal(b, r); err != nil {
		return nil, errors.Wrap(err, "Decoding report")
	}
	return r, nil
}

// DecodeJSON reads a report written by WriteJSON.
func DecodeJSON(r io.Reader) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	if err := jsonpb.Unmarshal(r, out); err != nil {
		return nil, errors.Wrap(err, "Decoding JSON report")
	}
	return out, nil
}

// WriteText writes a line per submission followed by a line per hazard.
func WriteText(w io.Writer, subs []layer.Submission, sym vulkan.Symbolizer) error {
	where := func(index int, o vulkan.Origin) string {
		if sym != nil {
			if loc, ok := sym.Symbolize(o); ok {
				return fmt.Sprintf("command %d (%s)", index, loc)
			}
		}
		return fmt.Sprintf("command %d", index)
	}
	for _, s := range subs {
		aborted := ""
		if s.Result.Aborted {
			aborted = ", aborted"
		}
		if _, err := fmt.Fprintf(w, "q%d cb %#x: %d hazard(s)%s\n", s.Queue, s.CommandBuffer, len(s.Result.Hazards), aborted); err != nil {
			return err
		}
		for _, h := range s.Result.Hazards {
			line := fmt.Sprintf("  %v: %s", h.Kind, where(h.FirstIndex, h.FirstOrigin))
			if h.SecondIndex != vksync.NoCommand {
				line += " -> " + where(h.SecondIndex, h.SecondOrigin)
			}
			if h.Object != "" {
				line += fmt.Sprintf(" on %s %#x", h.Object, h.Handle)
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
