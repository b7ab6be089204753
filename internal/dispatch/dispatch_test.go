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

package dispatch

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rjw57/firtree/internal/appendset"
	"github.com/rjw57/firtree/internal/jit/interp"
	"github.com/rjw57/firtree/internal/runtime"
	"github.com/rjw57/firtree/internal/sampler"
	fval "github.com/rjw57/firtree/internal/value"
)

// Plan's strips must be pairwise disjoint along y and reconstruct the
// original extent exactly.
func TestPlanExactness(t *testing.T) {
	for _, n := range []int{1, 7, 8, 9, 16, 17, 100} {
		extent := sampler.Extent{X: 1, Y: -2, W: 3, H: 10}
		strips := Plan(n, extent)

		gotRows := 0
		var yMin, yMax float32
		for i, s := range strips {
			if i == 0 {
				yMin = s.Y
			}
			if i == len(strips)-1 {
				yMax = s.Y + s.H
			}
			if s.NumRows <= 0 {
				t.Fatalf("n=%d: strip %d has NumRows=%d", n, i, s.NumRows)
			}
			gotRows += s.NumRows
			if i > 0 {
				prev := strips[i-1]
				prevEnd := prev.Y + prev.H
				if !floatsClose(prevEnd, s.Y) {
					t.Fatalf("n=%d: strip %d starts at %v, previous ends at %v (gap/overlap)", n, i, s.Y, prevEnd)
				}
			}
		}
		if gotRows != n {
			t.Fatalf("n=%d: strips cover %d rows, want %d", n, gotRows, n)
		}
		if !floatsClose(yMin, extent.Y) {
			t.Fatalf("n=%d: first strip Y=%v, want %v", n, yMin, extent.Y)
		}
		if !floatsClose(yMax, extent.Y+extent.H) {
			t.Fatalf("n=%d: last strip end=%v, want %v", n, yMax, extent.Y+extent.H)
		}
	}
}

func TestPlanStripHeight(t *testing.T) {
	strips := Plan(20, sampler.Extent{W: 1, H: 20})
	want := []int{8, 8, 4}
	got := make([]int, len(strips))
	for i, s := range strips {
		got[i] = s.NumRows
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("strip row counts (-want +got):\n%s", diff)
	}
}

func floatsClose(a, b float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-4
}

// Render must invoke fn once per pixel with an x/y coordinate
// consistent with a simple linear interpolation over the extent, and
// must refuse a sample-source-only format.
func TestRenderCoversEveryPixel(t *testing.T) {
	const w, h, stride = 4, 4, 4 * 4
	buf := make([]byte, h*stride)
	extent := sampler.Extent{X: 0, Y: 0, W: float32(w), H: float32(h)}

	var mu sync.Mutex
	seen := map[[2]int]bool{}
	fn := func(x, y float32, dst []byte) error {
		mu.Lock()
		seen[[2]int{int(x), int(y)}] = true
		mu.Unlock()
		for i := range dst {
			dst[i] = 0xAB
		}
		return nil
	}

	if err := Render(context.Background(), fn, runtime.L8, buf, w, h, stride, extent); err == nil {
		t.Fatalf("Render with sample-source-only format L8 should fail")
	}

	buf2 := make([]byte, h*stride)
	if err := Render(context.Background(), fn, runtime.ARGB32, buf2, w, h, stride, extent); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(seen) != w*h {
		t.Fatalf("fn invoked for %d distinct coordinates, want %d", len(seen), w*h)
	}
	for _, b := range buf2 {
		if b != 0xAB {
			t.Fatalf("buffer byte %d left unwritten", b)
		}
	}
}

func TestRenderNilFuncLeavesBufferUntouched(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	orig := append([]byte(nil), buf...)
	if err := Render(context.Background(), nil, runtime.ARGB32, buf, 1, 1, 4, sampler.Extent{W: 1, H: 1}); err != nil {
		t.Fatalf("Render with nil fn: %v", err)
	}
	if diff := cmp.Diff(orig, buf); diff != "" {
		t.Fatalf("nil fn mutated buffer (-want +got):\n%s", diff)
	}
}

// Reduce must invoke fn once per grid cell; every appended value must
// be reachable from the set afterwards (append-set visibility,
// exercised here over the dispatcher rather than raw Append calls).
func TestReduceVisitsEveryCell(t *testing.T) {
	const w, h = 10, 10
	set := appendset.New[fval.Value]()

	fn := ReduceFunc(func(x, y float32, sink interp.Sink) {
		sink.Append(fval.Vec2(x, y))
	})

	if err := Reduce(context.Background(), fn, set, w, h, sampler.Extent{W: w, H: h}); err != nil {
		t.Fatalf("Reduce: %v", err)
	}
	if got := set.Len(); got != w*h {
		t.Fatalf("set has %d elements, want %d", got, w*h)
	}

	distinct := map[[2]float32]bool{}
	for _, v := range set.Snapshot() {
		xy := v.Floats()
		distinct[[2]float32{xy[0], xy[1]}] = true
	}
	if len(distinct) != w*h {
		t.Fatalf("%d distinct coordinates reachable from head, want %d", len(distinct), w*h)
	}
}
