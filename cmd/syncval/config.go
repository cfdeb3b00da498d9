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
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/google/vksync/core/log"
	vksync "github.com/google/vksync/gapis/api/vulkan/sync"
)

// SyncFlags configure the validator.
type SyncFlags struct {
	Config     string
	AbortOn    string
	NoCache    bool
	CommandLog string
}

func (f *SyncFlags) BindFlags(set *flag.FlagSet) {
	set.StringVar(&f.Config, "config", "", "YAML file with validator settings")
	set.StringVar(&f.AbortOn, "abort-on", "", "comma separated hazard kinds that stop validation of a command buffer")
	set.BoolVar(&f.NoCache, "no-cache", false, "do not cache reachability queries")
	set.StringVar(&f.CommandLog, "command-log", "", "file every traversed command is appended to")
}

// configFile is the layout of the -config file. Flags override it.
type configFile struct {
	AbortOn           []string `yaml:"abortOn"`
	CacheReachability *bool    `yaml:"cacheReachability"`
	CommandLog        string   `yaml:"commandLog"`
}

// load returns the validator settings of the config file and the flags.
func (f *SyncFlags) load(ctx context.Context) (vksync.Config, error) {
	cfg := vksync.DefaultConfig()
	var kinds []string
	if f.Config != "" {
		data, err := os.ReadFile(f.Config)
		if err != nil {
			return cfg, log.Errf(ctx, err, "Reading config (%v)", f.Config)
		}
		file := configFile{}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return cfg, log.Errf(ctx, err, "Parsing config (%v)", f.Config)
		}
		kinds = file.AbortOn
		if file.CacheReachability != nil {
			cfg.CacheReachability = *file.CacheReachability
		}
		cfg.CommandLogPath = file.CommandLog
	}
	if f.AbortOn != "" {
		kinds = strings.Split(f.AbortOn, ",")
	}
	for _, name := range kinds {
		k, err := vksync.ParseHazardKind(strings.TrimSpace(name))
		if err != nil {
			return cfg, errors.Wrap(err, "Reading abort kinds")
		}
		cfg.AbortOn = append(cfg.AbortOn, k)
	}
	if f.NoCache {
		cfg.CacheReachability = false
	}
	if f.CommandLog != "" {
		cfg.CommandLogPath = f.CommandLog
	}
	return cfg, nil
}
