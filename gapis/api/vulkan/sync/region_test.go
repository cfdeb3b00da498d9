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

package sync_test

import (
	"math/rand"
	"testing"

	"github.com/google/vksync/core/math/interval"
	"github.com/google/vksync/gapis/api/vulkan"
	"github.com/google/vksync/gapis/api/vulkan/sync"
	"github.com/stretchr/testify/assert"
)

func randomID(r *rand.Rand) sync.CommandID {
	sp := uint64(r.Intn(3))
	if sp == 2 {
		sp = sync.NoSubpass
	}
	return sync.CommandID{Queue: uint64(r.Intn(2)), Subpass: sp, Sequence: uint64(r.Intn(4))}
}

func TestCommandIDOrder(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 2000; i++ {
		a, b, c := randomID(r), randomID(r), randomID(r)
		n := 0
		for _, holds := range []bool{a.Less(b), b.Less(a), a == b} {
			if holds {
				n++
			}
		}
		assert.Equal(t, 1, n, "%v %v", a, b)
		assert.Equal(t, -b.Compare(a), a.Compare(b))
		if a.Less(b) && b.Less(c) {
			assert.True(t, a.Less(c), "%v < %v < %v", a, b, c)
		}
	}
}

func TestCommandIDString(t *testing.T) {
	assert.Equal(t, "q1/-/4", sync.CommandID{Queue: 1, Subpass: sync.NoSubpass, Sequence: 4}.String())
	assert.Equal(t, "q0/sp2/7", sync.CommandID{Subpass: 2, Sequence: 7}.String())
	assert.False(t, sync.CommandID{Subpass: sync.NoSubpass}.InRenderPass())
}

func randomRegion(r *rand.Rand) sync.MemRegion {
	switch r.Intn(4) {
	case 0:
		return sync.GlobalRegion()
	case 1:
		start := uint64(r.Intn(8))
		return sync.BufferRegion(vulkan.VkBuffer(r.Intn(2)), interval.U64Span{Start: start, End: start + uint64(r.Intn(4))})
	case 2:
		return sync.ImageRegion(vulkan.VkImage(r.Intn(2)), vulkan.VkImageSubresourceRange{
			AspectMask:     vulkan.VkImageAspectFlags(1 + r.Intn(3)),
			BaseMipLevel:   uint32(r.Intn(3)),
			LevelCount:     uint32(r.Intn(3)),
			BaseArrayLayer: uint32(r.Intn(3)),
			LayerCount:     uint32(r.Intn(3)),
		})
	}
	return sync.SwapchainImageRegion(vulkan.VkSwapchainKHR(r.Intn(2)), uint32(r.Intn(2)))
}

func TestRegionOverlapIsSymmetric(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 5000; i++ {
		a, b := randomRegion(r), randomRegion(r)
		assert.Equal(t, a.Overlaps(b), b.Overlaps(a), "%v / %v", a, b)
		if a.Overlaps(b) {
			assert.Equal(t, a.Key(), b.Key(), "%v / %v", a, b)
		}
		assert.Equal(t, a.Compare(b) == 0, a == b, "%v / %v", a, b)
		assert.Equal(t, -b.Compare(a), a.Compare(b))
	}
}

func TestRegionCovers(t *testing.T) {
	whole := sync.BufferRegion(1, interval.U64Span{Start: 0, End: 64})
	half := sync.BufferRegion(1, interval.U64Span{Start: 0, End: 32})
	other := sync.BufferRegion(2, interval.U64Span{Start: 0, End: 32})
	assert.True(t, sync.GlobalRegion().Covers(whole))
	assert.True(t, whole.Covers(half))
	assert.False(t, half.Covers(whole))
	assert.False(t, whole.Covers(other))
	assert.False(t, whole.Covers(sync.GlobalRegion()))

	color := vulkan.VkImageAspectFlags(vulkan.VkImageAspectFlagBits_VK_IMAGE_ASPECT_COLOR_BIT)
	depth := vulkan.VkImageAspectFlags(vulkan.VkImageAspectFlagBits_VK_IMAGE_ASPECT_DEPTH_BIT)
	mips := sync.ImageRegion(1, vulkan.VkImageSubresourceRange{AspectMask: color, LevelCount: 4, LayerCount: 1})
	mip2 := sync.ImageRegion(1, vulkan.VkImageSubresourceRange{AspectMask: color, BaseMipLevel: 2, LevelCount: 1, LayerCount: 1})
	depth2 := sync.ImageRegion(1, vulkan.VkImageSubresourceRange{AspectMask: depth, BaseMipLevel: 2, LevelCount: 1, LayerCount: 1})
	assert.True(t, mips.Covers(mip2))
	assert.False(t, mip2.Covers(mips))
	assert.False(t, mips.Covers(depth2))
	assert.False(t, mips.Overlaps(depth2))
}

func TestRegionString(t *testing.T) {
	assert.Equal(t, "buffer 3 [16, 48)", sync.BufferRegion(3, interval.U64Span{Start: 16, End: 48}).String())
	assert.Equal(t, "swapchain 2 image 1", sync.SwapchainImageRegion(2, 1).String())
	assert.Equal(t, "global", sync.GlobalRegion().String())
}
