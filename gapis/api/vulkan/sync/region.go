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

import (
	"fmt"

	"github.com/google/vksync/core/math/interval"
	"github.com/google/vksync/gapis/api/vulkan"
)

// RegionKind is the tag of a MemRegion.
type RegionKind uint8

const (
	RegionGlobal RegionKind = iota
	RegionBuffer
	RegionImage
	RegionSwapchainImage
)

func (k RegionKind) String() string {
	switch k {
	case RegionGlobal:
		return "global"
	case RegionBuffer:
		return "buffer"
	case RegionImage:
		return "image"
	case RegionSwapchainImage:
		return "swapchain image"
	}
	return fmt.Sprintf("RegionKind(%d)", uint8(k))
}

// MemRegion is the memory touched by an access or covered by a barrier.
// Only the fields of its Kind are meaningful. The zero value is the global
// region.
type MemRegion struct {
	Kind RegionKind

	Buffer vulkan.VkBuffer
	Offset uint64
	Range  uint64

	Image       vulkan.VkImage
	Subresource vulkan.VkImageSubresourceRange

	Swapchain      vulkan.VkSwapchainKHR
	SwapchainIndex uint32
}

// RegionKey names the resource a region belongs to. Regions with different
// keys never overlap.
type RegionKey struct {
	Kind   RegionKind
	Handle uint64
	Index  uint32
}

// GlobalRegion returns the region standing for all memory.
func GlobalRegion() MemRegion { return MemRegion{} }

// BufferRegion returns the byte span s of buffer b.
func BufferRegion(b vulkan.VkBuffer, s interval.U64Span) MemRegion {
	return MemRegion{Kind: RegionBuffer, Buffer: b, Offset: s.Start, Range: s.End - s.Start}
}

// ImageRegion returns the subresource range r of image i.
func ImageRegion(i vulkan.VkImage, r vulkan.VkImageSubresourceRange) MemRegion {
	return MemRegion{Kind: RegionImage, Image: i, Subresource: r}
}

// SwapchainImageRegion returns the presentable image index of swapchain s.
func SwapchainImageRegion(s vulkan.VkSwapchainKHR, index uint32) MemRegion {
	return MemRegion{Kind: RegionSwapchainImage, Swapchain: s, SwapchainIndex: index}
}

// Key returns the resource the region belongs to.
func (r MemRegion) Key() RegionKey {
	switch r.Kind {
	case RegionBuffer:
		return RegionKey{Kind: r.Kind, Handle: uint64(r.Buffer)}
	case RegionImage:
		return RegionKey{Kind: r.Kind, Handle: uint64(r.Image)}
	case RegionSwapchainImage:
		return RegionKey{Kind: r.Kind, Handle: uint64(r.Swapchain), Index: r.SwapchainIndex}
	}
	return RegionKey{}
}

// Span returns the byte span of a buffer region.
func (r MemRegion) Span() interval.U64Span {
	return interval.U64Range{First: r.Offset, Count: r.Range}.Span()
}

func mipSpan(s vulkan.VkImageSubresourceRange) interval.U64Span {
	return interval.U64Range{First: uint64(s.BaseMipLevel), Count: uint64(s.LevelCount)}.Span()
}

func layerSpan(s vulkan.VkImageSubresourceRange) interval.U64Span {
	return interval.U64Range{First: uint64(s.BaseArrayLayer), Count: uint64(s.LayerCount)}.Span()
}

// Overlaps returns true if r and o share memory. It is symmetric.
func (r MemRegion) Overlaps(o MemRegion) bool {
	if r.Kind != o.Kind {
		return false
	}
	switch r.Kind {
	case RegionGlobal:
		return true
	case RegionBuffer:
		return r.Buffer == o.Buffer && r.Span().Overlaps(o.Span())
	case RegionImage:
		return r.Image == o.Image &&
			r.Subresource.AspectMask&o.Subresource.AspectMask != 0 &&
			mipSpan(r.Subresource).Overlaps(mipSpan(o.Subresource)) &&
			layerSpan(r.Subresource).Overlaps(layerSpan(o.Subresource))
	case RegionSwapchainImage:
		return r.Swapchain == o.Swapchain && r.SwapchainIndex == o.SwapchainIndex
	}
	return false
}

// Covers returns true if a barrier over r applies to every byte of o. The
// global region covers everything.
func (r MemRegion) Covers(o MemRegion) bool {
	if r.Kind == RegionGlobal {
		return true
	}
	if r.Kind != o.Kind {
		return false
	}
	switch r.Kind {
	case RegionBuffer:
		return r.Buffer == o.Buffer && r.Span().Contains(o.Span())
	case RegionImage:
		return r.Image == o.Image &&
			o.Subresource.AspectMask&^r.Subresource.AspectMask == 0 &&
			mipSpan(r.Subresource).Contains(mipSpan(o.Subresource)) &&
			layerSpan(r.Subresource).Contains(layerSpan(o.Subresource))
	case RegionSwapchainImage:
		return r.Swapchain == o.Swapchain && r.SwapchainIndex == o.SwapchainIndex
	}
	return false
}

// Compare orders regions by kind, then by their members.
func (r MemRegion) Compare(o MemRegion) int {
	if r.Kind != o.Kind {
		return cmp(uint64(r.Kind), uint64(o.Kind))
	}
	var a, b []uint64
	switch r.Kind {
	case RegionBuffer:
		a = []uint64{uint64(r.Buffer), r.Offset, r.Range}
		b = []uint64{uint64(o.Buffer), o.Offset, o.Range}
	case RegionImage:
		a = []uint64{uint64(r.Image), uint64(r.Subresource.AspectMask),
			uint64(r.Subresource.BaseMipLevel), uint64(r.Subresource.LevelCount),
			uint64(r.Subresource.BaseArrayLayer), uint64(r.Subresource.LayerCount)}
		b = []uint64{uint64(o.Image), uint64(o.Subresource.AspectMask),
			uint64(o.Subresource.BaseMipLevel), uint64(o.Subresource.LevelCount),
			uint64(o.Subresource.BaseArrayLayer), uint64(o.Subresource.LayerCount)}
	case RegionSwapchainImage:
		a = []uint64{uint64(r.Swapchain), uint64(r.SwapchainIndex)}
		b = []uint64{uint64(o.Swapchain), uint64(o.SwapchainIndex)}
	}
	for i := range a {
		if c := cmp(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func (r MemRegion) String() string {
	switch r.Kind {
	case RegionGlobal:
		return "global"
	case RegionBuffer:
		s := r.Span()
		return fmt.Sprintf("buffer %d [%d, %d)", r.Buffer, s.Start, s.End)
	case RegionImage:
		s := r.Subresource
		return fmt.Sprintf("image %d (aspect %v, mips %d+%d, layers %d+%d)",
			r.Image, s.AspectMask, s.BaseMipLevel, s.LevelCount, s.BaseArrayLayer, s.LayerCount)
	case RegionSwapchainImage:
		return fmt.Sprintf("swapchain %d image %d", r.Swapchain, r.SwapchainIndex)
	}
	return r.Kind.String()
}
