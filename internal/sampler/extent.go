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

// Extent is the axis-aligned rectangle (x, y, w, h) outside of which a
// sampler is defined to return transparent black.
type Extent struct {
	X, Y, W, H float32
}

// Infinite reports whether e has no bound in either dimension. The
// linker's missing-extent failure fires when an infinite extent
// reaches a context requiring a bounded one.
func (e Extent) Infinite() bool {
	return e.W < 0 || e.H < 0
}

// InfiniteExtent is the sentinel Extent a sampler with no declared
// bound carries.
var InfiniteExtent = Extent{W: -1, H: -1}

// Union returns the smallest axis-aligned rectangle containing both e
// and o. An infinite operand makes the union infinite.
func (e Extent) Union(o Extent) Extent {
	if e.Infinite() || o.Infinite() {
		return InfiniteExtent
	}
	x0 := min32(e.X, o.X)
	y0 := min32(e.Y, o.Y)
	x1 := max32(e.X+e.W, o.X+o.W)
	y1 := max32(e.Y+e.H, o.Y+o.H)
	return Extent{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
