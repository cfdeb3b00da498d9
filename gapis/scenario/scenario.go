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

// Package scenario loads YAML descriptions of a device's objects, the
// command buffers recorded against them and the submissions that follow,
// and replays them through a layer.Device.
package scenario

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/google/vksync/core/fault"
	"github.com/google/vksync/gapis/api/vulkan"
)

// ErrInvalid is returned for scenarios that cannot be replayed.
const ErrInvalid = fault.Const("Invalid scenario")

// Scenario is a parsed scenario file.
type Scenario struct {
	// Path is the file the scenario was loaded from, if any.
	Path           string          `yaml:"-"`
	Resources      Resources       `yaml:"resources"`
	CommandBuffers []CommandBuffer `yaml:"commandBuffers"`
	Submits        []Submit        `yaml:"submits"`
}

// CommandBuffer is a command buffer and the commands recorded into it.
type CommandBuffer struct {
	Handle    uint64    `yaml:"handle"`
	Pool      uint64    `yaml:"pool"`
	Secondary bool      `yaml:"secondary"`
	Open      bool      `yaml:"open"` // left in the recording state
	Commands  []Command `yaml:"commands"`
}

// Submit is one vkQueueSubmit call. Each batch lists command buffer handles.
type Submit struct {
	Queue   uint64     `yaml:"queue"`
	Batches [][]uint64 `yaml:"batches"`
}

// Parse parses a scenario from YAML.
func Parse(data []byte) (*Scenario, error) {
	s := &Scenario{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrap(err, "Parsing scenario")
	}
	return s, nil
}

// Load reads and parses the scenario at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "%v", path)
	}
	s.Path = path
	return s, nil
}

// Symbolize implements vulkan.Symbolizer. Commands are recorded with their
// line in the scenario as origin.
func (s *Scenario) Symbolize(o vulkan.Origin) (string, bool) {
	if o == 0 {
		return "", false
	}
	path := s.Path
	if path == "" {
		path = "<scenario>"
	}
	return fmt.Sprintf("%s:%d", path, o), true
}
