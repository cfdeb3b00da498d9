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

package log_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/vksync/core/log"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterHandler(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := log.PutHandler(context.Background(), log.Writer(log.Normal, buf))
	ctx = log.PutTag(ctx, "sync")
	log.W(ctx, "hazard on %v", "buffer")
	assert.Equal(t, "W: [sync] hazard on buffer\n", buf.String())
}

func TestSeverityFilter(t *testing.T) {
	h, get := log.Buffer()
	ctx := log.PutHandler(context.Background(), h)
	ctx = log.PutFilter(ctx, log.SeverityFilter(log.Warning))
	log.D(ctx, "dropped")
	log.I(ctx, "dropped")
	log.W(ctx, "kept")
	log.E(ctx, "kept")
	msgs := get()
	require.Len(t, msgs, 2)
	assert.Equal(t, log.Warning, msgs[0].Severity)
	assert.Equal(t, log.Error, msgs[1].Severity)
}

func TestNoHandler(t *testing.T) {
	// Must not panic.
	log.I(context.Background(), "nobody is listening")
}

func TestDetailedStyle(t *testing.T) {
	when := time.Date(2022, 3, 4, 10, 11, 12, 0, time.UTC)
	h, get := log.Buffer()
	ctx := log.PutHandler(context.Background(), h)
	ctx = log.PutClock(ctx, func() time.Time { return when })
	log.I(ctx, "hello")
	msgs := get()
	require.Len(t, msgs, 1)
	assert.Equal(t, "10:11:12.000 I: hello", log.Detailed.Print(msgs[0]))
}

func TestErrf(t *testing.T) {
	ctx := log.Testing(t)
	cause := errors.New("boom")
	err := log.Errf(ctx, cause, "writing %v", "graph.dot")
	assert.Equal(t, "writing graph.dot\n   Cause: boom", err.Error())
	assert.Equal(t, cause, errors.Cause(err))
}

func TestParseSeverity(t *testing.T) {
	s, ok := log.ParseSeverity("warning")
	assert.True(t, ok)
	assert.Equal(t, log.Warning, s)
	_, ok = log.ParseSeverity("loud")
	assert.False(t, ok)
}
