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

package fault_test

import (
	"errors"
	"testing"

	"github.com/google/vksync/core/fault"
	"github.com/stretchr/testify/assert"
)

const errSample = fault.Const("sample")

func TestConst(t *testing.T) {
	assert.Equal(t, "sample", errSample.Error())
	var err error = errSample
	assert.True(t, errors.Is(err, errSample))
}

func TestFrom(t *testing.T) {
	assert.Nil(t, fault.From(nil))
	assert.Equal(t, errSample, fault.From(errSample))
	assert.Equal(t, fault.InvalidErrorType, fault.From(42))
}
