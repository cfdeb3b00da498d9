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

package interval_test

import (
	"testing"

	"github.com/google/vksync/core/math/interval"
	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	for _, test := range []struct {
		name     string
		a, b     interval.U64Span
		expected bool
	}{
		{"identical", interval.U64Span{0, 64}, interval.U64Span{0, 64}, true},
		{"adjacent", interval.U64Span{0, 64}, interval.U64Span{64, 128}, false},
		{"inside", interval.U64Span{0, 64}, interval.U64Span{16, 32}, true},
		{"partial", interval.U64Span{0, 64}, interval.U64Span{63, 100}, true},
		{"disjoint", interval.U64Span{0, 10}, interval.U64Span{20, 30}, false},
		{"empty", interval.U64Span{10, 10}, interval.U64Span{0, 64}, false},
	} {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, test.a.Overlaps(test.b))
			assert.Equal(t, test.expected, test.b.Overlaps(test.a))
		})
	}
}

func TestIntersect(t *testing.T) {
	got, ok := interval.Intersect(interval.U64Span{0, 64}, interval.U64Span{32, 96})
	assert.True(t, ok)
	assert.Equal(t, interval.U64Span{32, 64}, got)

	_, ok = interval.Intersect(interval.U64Span{0, 8}, interval.U64Span{8, 16})
	assert.False(t, ok)
}

func TestRangeSpanClamp(t *testing.T) {
	r := interval.U64Range{First: 10, Count: ^uint64(0)}
	assert.Equal(t, interval.U64Span{10, ^uint64(0)}, r.Span())
	assert.Equal(t, interval.U64Range{First: 4, Count: 4}, interval.U64Span{4, 8}.Range())
}

func TestContains(t *testing.T) {
	s := interval.U64Span{0, 64}
	assert.True(t, s.Contains(interval.U64Span{0, 64}))
	assert.True(t, s.Contains(interval.U64Span{5, 5}))
	assert.False(t, s.Contains(interval.U64Span{60, 70}))
}
