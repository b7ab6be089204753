// Copyright (C) 2017 Google Inc.
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

package sampler

import (
	"github.com/rjw57/firtree/internal/refcount"
	"github.com/rjw57/firtree/internal/signal"
	"github.com/rjw57/firtree/internal/value"
)

// Buffer is an in-memory RGBA32F pixel source, the only sampler
// subclass expressible without an external image library. Pixels are
// stored row-major, one [4]float32 RGBA tuple per pixel.
type Buffer struct {
	Width, Height int
	Pixels        [][4]float32
	extent        Extent

	Signals *signal.Set
	refs    *refcount.Counter
}

// NewBuffer creates a w*h buffer sampler at the given extent, owning a
// copy of pixels (row-major, length w*h).
func NewBuffer(w, h int, pixels [][4]float32, extent Extent) *Buffer {
	px := make([][4]float32, w*h)
	copy(px, pixels)
	return &Buffer{
		Width: w, Height: h, Pixels: px, extent: extent,
		Signals: &signal.Set{}, refs: refcount.New(),
	}
}

// At samples the buffer at floating point destination coordinate (x,
// y), mapping it to the nearest-neighbour pixel within bounds and
// returning transparent black outside the buffer's extent (GLOSSARY:
// "Extent").
func (b *Buffer) At(x, y float32) [4]float32 {
	if x < b.extent.X || y < b.extent.Y || x >= b.extent.X+b.extent.W || y >= b.extent.Y+b.extent.H {
		return [4]float32{}
	}
	px := int((x - b.extent.X) / b.extent.W * float32(b.Width))
	py := int((y - b.extent.Y) / b.extent.H * float32(b.Height))
	if px < 0 {
		px = 0
	}
	if px >= b.Width {
		px = b.Width - 1
	}
	if py < 0 {
		py = 0
	}
	if py >= b.Height {
		py = b.Height - 1
	}
	return b.Pixels[py*b.Width+px]
}

// Extent returns the buffer's bound rectangle.
func (b *Buffer) Extent() Extent { return b.extent }

// Retain/Release follow the same shared-ownership discipline as
// Provider.
func (b *Buffer) Retain()  { b.refs.Retain() }
func (b *Buffer) Release() { b.refs.Release() }

// AsProvider wraps b as a Provider so it can be bound into a sampler
// parameter with SetSampler like any kernel-backed child. A buffer
// provider owns no CompiledKernel and has no declared parameters of its
// own; the linker recognises it via Buffer != nil and short-circuits
// the usual clone-and-inline step with a direct buffer-sample call
// instead.
func AsProvider(b *Buffer) *Provider {
	return &Provider{
		Buffer:    b,
		Transform: Identity,
		values:    map[string]value.Value{},
		children:  map[string]*childBinding{},
		unset:     map[string]bool{},
		Signals:   b.Signals,
		refs:      refcount.New(),
	}
}
