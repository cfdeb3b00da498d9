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

// Package interval implements half-open interval helpers used for buffer
// ranges and subresource ranges.
package interval

// U64Span is a half open interval that includes the lower bound, but not the
// upper.
type U64Span struct {
	Start uint64 // the value at which the interval begins
	End   uint64 // the next value not included in the interval.
}

// U64Range is an interval specified by a beginning and size.
type U64Range struct {
	First uint64 // the first value in the interval
	Count uint64 // the count of values in the interval
}

// Range converts a U64Span to a U64Range
func (s U64Span) Range() U64Range { return U64Range{First: s.Start, Count: s.End - s.Start} }

// Span converts a U64Range to a U64Span. Counts that would run past the end
// of the value space are clamped.
func (r U64Range) Span() U64Span {
	end := r.First + r.Count
	if end < r.First {
		end = ^uint64(0)
	}
	return U64Span{Start: r.First, End: end}
}

// Empty returns true if the span holds no values.
func (s U64Span) Empty() bool { return s.End <= s.Start }

// Overlaps returns true if s and o share at least one value.
// Empty spans never overlap anything.
func (s U64Span) Overlaps(o U64Span) bool {
	if s.Empty() || o.Empty() {
		return false
	}
	return s.Start < o.End && o.Start < s.End
}

// Contains returns true if every value of o is also in s.
// An empty o is contained by every span.
func (s U64Span) Contains(o U64Span) bool {
	if o.Empty() {
		return true
	}
	return s.Start <= o.Start && o.End <= s.End
}

// Intersect returns the span of values in both s and o, and false if there
// are none.
func Intersect(s, o U64Span) (U64Span, bool) {
	if !s.Overlaps(o) {
		return U64Span{}, false
	}
	out := s
	if o.Start > out.Start {
		out.Start = o.Start
	}
	if o.End < out.End {
		out.End = o.End
	}
	return out, true
}

// Overlaps returns true if r and o share at least one value.
func (r U64Range) Overlaps(o U64Range) bool { return r.Span().Overlaps(o.Span()) }
