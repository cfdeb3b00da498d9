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

// Config controls a Validator.
type Config struct {
	// AbortOn lists hazard kinds that stop traversal of the command buffer
	// in addition to InvalidReference and Unsupported.
	AbortOn []HazardKind
	// CacheReachability keeps the closure of every queried node while
	// pairing accesses.
	CacheReachability bool
	// CommandLogPath, if set, is a file every traversed command is
	// appended to.
	CommandLogPath string
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{CacheReachability: true}
}

func (c Config) abortsOn(k HazardKind) bool {
	if k == InvalidReference || k == Unsupported {
		return true
	}
	for _, a := range c.AbortOn {
		if a == k {
			return true
		}
	}
	return false
}
