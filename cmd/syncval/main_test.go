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
	"bytes"
	"flag"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/google/vksync/core/log"
	vksync "github.com/google/vksync/gapis/api/vulkan/sync"
	"github.com/google/vksync/gapis/report"
	"github.com/google/vksync/gapis/server"
)

const draws = "../../gapis/scenario/testdata/draws.yaml"

func syncval(t *testing.T, args ...string) (int, string) {
	out, errs := &bytes.Buffer{}, &bytes.Buffer{}
	code := run(append([]string{"-log-level", "Warning"}, args...), out, errs)
	if errs.Len() > 0 {
		t.Log(errs.String())
	}
	return code, out.String()
}

func TestValidate(t *testing.T) {
	code, out := syncval(t, "validate", draws)
	assert.Equal(t, 1, code)
	assert.Equal(t, `q0 cb 0x81: 1 hazard(s)
  WriteAfterWrite: command 2 (../../gapis/scenario/testdata/draws.yaml:44) -> command 3 (../../gapis/scenario/testdata/draws.yaml:45) on VkBuffer 0x20
q0 cb 0x82: 0 hazard(s)
`, out)

	code, _ = syncval(t, "validate", "-lenient", draws)
	assert.Equal(t, 0, code)
	code, _ = syncval(t, "validate", "-abort-on", "Bogus", draws)
	assert.Equal(t, 1, code)
	code, _ = syncval(t, "validate", "missing.yaml")
	assert.Equal(t, 1, code)
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"json", "binary"} {
		path := filepath.Join(dir, "report."+format)
		code, _ := syncval(t, "report", "-format", format, "-out", path, draws)
		require.Equal(t, 0, code)
		data, err := os.ReadFile(path)
		require.NoError(t, err)

		decode := report.Decode
		if format == "json" {
			decode = func(b []byte) (*structpb.Struct, error) { return report.DecodeJSON(bytes.NewReader(b)) }
		}
		r, err := decode(data)
		require.NoError(t, err)
		summary := r.AsMap()["summary"].(map[string]interface{})
		assert.Equal(t, 1.0, summary["WriteAfterWrite"], format)
	}

	code, out := syncval(t, "report", "-format", "text", draws)
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(out, "q0 cb 0x81: 1 hazard(s)\n"), out)

	code, _ = syncval(t, "report", "-format", "xml", draws)
	assert.Equal(t, 2, code)
}

func TestGraph(t *testing.T) {
	code, out := syncval(t, "graph", "-cb", "0x82", draws)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "dashed")
	assert.NotContains(t, out, "WriteAfterWrite")

	code, out = syncval(t, "graph", "-expand", draws)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "WriteAfterWrite")

	code, _ = syncval(t, "graph", "-cb", "0x99", draws)
	assert.Equal(t, 1, code)
}

func TestUsage(t *testing.T) {
	for _, args := range [][]string{
		{"graph"},
		{"validate"},
		{"serve", "extra"},
		{"frobnicate"},
		{},
	} {
		code, _ := syncval(t, args...)
		assert.Equal(t, 2, code, "%v", args)
	}
	code, out := syncval(t, "help")
	assert.Equal(t, 0, code)
	for _, verb := range []string{"graph", "report", "serve", "validate"} {
		assert.Contains(t, out, verb)
	}
	assert.Equal(t, 2, run([]string{"-log-level", "Loud"}, &bytes.Buffer{}, &bytes.Buffer{}))
}

func TestSyncFlags(t *testing.T) {
	ctx := log.Testing(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
abortOn: [WriteAfterWrite, readafterwrite]
cacheReachability: false
commandLog: commands.txt
`), 0666))

	f := &SyncFlags{}
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	f.BindFlags(set)
	require.NoError(t, set.Parse([]string{"-config", path}))
	cfg, err := f.load(ctx)
	require.NoError(t, err)
	assert.Equal(t, vksync.Config{
		AbortOn:        []vksync.HazardKind{vksync.WriteAfterWrite, vksync.ReadAfterWrite},
		CommandLogPath: "commands.txt",
	}, cfg)

	require.NoError(t, set.Parse([]string{"-abort-on", "LayoutTransition", "-command-log", "other.txt"}))
	cfg, err = f.load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []vksync.HazardKind{vksync.LayoutTransition}, cfg.AbortOn)
	assert.Equal(t, "other.txt", cfg.CommandLogPath)

	cfg, err = (&SyncFlags{}).load(ctx)
	require.NoError(t, err)
	assert.Equal(t, vksync.DefaultConfig(), cfg)

	_, err = (&SyncFlags{Config: "missing.yaml"}).load(ctx)
	assert.Error(t, err)
}

func TestValidateRemote(t *testing.T) {
	ctx := log.Testing(t)
	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	srvChan := make(chan *grpc.Server, 1)
	done := make(chan error, 1)
	go func() {
		done <- server.NewWithListener(ctx, l, server.Config{AuthToken: "tok", Sync: vksync.DefaultConfig()}, srvChan)
	}()
	srv := <-srvChan
	defer func() {
		srv.Stop()
		assert.NoError(t, <-done)
	}()

	code, out := syncval(t, "validate", "-server", l.Addr().String(), "-auth-token", "tok", draws)
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "WriteAfterWrite")

	code, _ = syncval(t, "validate", "-server", l.Addr().String(), "-auth-token", "bad", draws)
	assert.Equal(t, 1, code)
}
