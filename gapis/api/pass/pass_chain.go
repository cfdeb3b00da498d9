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

	"github.com/google/vksync/core/log"
	"github.com/google/vksync/gapis/api/vulkan"
	"github.com/pkg/errors"
)

type passChain struct {
	passes []Pass
}

func createPassChain(passes []Pass) *passChain {
	return &passChain{passes: passes}
}

func isStop(err error) bool { return errors.Cause(err) == ErrStop }

func (chain *passChain) beginChain(ctx context.Context, cb *vulkan.CommandBuffer) error {
	for _, p := range chain.passes {
		err := p.BeginBuffer(ctx, cb)
		if isStop(err) {
			return err
		}
		if err != nil {
			log.W(ctx, "Begin Pass Error [%T] : %v", p, err)
		}
	}
	return nil
}

func (chain *passChain) processCommand(ctx context.Context, index int, rec vulkan.Record) error {
	for _, p := range chain.passes {
		err := p.ProcessCommand(ctx, index, rec)
		if isStop(err) {
			return err
		}
		if err != nil {
			log.W(ctx, "Error on cmd [%v:%v] with pass [%T] : %v", index, rec.Command, p, err)
		}
	}
	return nil
}

func (chain *passChain) endChain(ctx context.Context) {
	for _, p := range chain.passes {
		if err := p.EndBuffer(ctx); err != nil {
			log.W(ctx, "End Pass Error [%T] : %v", p, err)
		}
	}
}
