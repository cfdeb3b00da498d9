// Copyright (C) 2020 Google Inc.
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

package pass

import (
	"context"
	"fmt"
	"os"

	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/api/vulkan"
)

// FileLog is a pass that appends every command it sees to a file.
type FileLog struct {
	file *os.File
}

// NewFileLog opens path for appending. It logs and returns nil on failure.
func NewFileLog(ctx context.Context, path string) *FileLog {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.E(ctx, "Failed to open command log file %v: %v", path, err)
		return nil
	}
	return &FileLog{file: f}
}

func (l *FileLog) BeginBuffer(ctx context.Context, cb *vulkan.CommandBuffer) error {
	_, err := fmt.Fprintf(l.file, "# %v (%d commands)\n", cb.Handle, len(cb.Records))
	return err
}

func (l *FileLog) ProcessCommand(ctx context.Context, index int, rec vulkan.Record) error {
	if rec.Origin != 0 {
		_, err := fmt.Fprintf(l.file, "%v: %v @%#x\n", index, rec.Command, uint64(rec.Origin))
		return err
	}
	_, err := fmt.Fprintf(l.file, "%v: %v\n", index, rec.Command)
	return err
}

func (l *FileLog) EndBuffer(ctx context.Context) error {
	return l.file.Close()
}
