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

// Package e2e drives whole-pipeline scenarios: kernel compile, sampler
// graph, linker, JIT and tile dispatcher (or append set for reduce)
// together. Kept as its own package rather than inside any one
// component's package because exercising every layer together is the
// point.
package e2e

import (
	"context"
	"testing"

	"github.com/rjw57/firtree/internal/appendset"
	"github.com/rjw57/firtree/internal/dispatch"
	"github.com/rjw57/firtree/internal/jit"
	"github.com/rjw57/firtree/internal/kernel"
	"github.com/rjw57/firtree/internal/runtime"
	"github.com/rjw57/firtree/internal/sampler"
	fval "github.com/rjw57/firtree/internal/value"
)

func mustCompile(t *testing.T, src string) *kernel.CompiledKernel {
	t.Helper()
	ck := kernel.Compile("t.kernel", src)
	if !ck.CompileStatus {
		t.Fatalf("compile failed: %v", ck.Log)
	}
	return ck
}

// Checker pattern: checker(float size, vec4 a, vec4 b) returning
// mix(a, b, step(size, mod(destCoord().x, 2*size))), rendered at
// extent (0,0,4,4) into ARGB32_PREMULTIPLIED 4x4 stride 16 with
// size=1, a=(1,0,0,1), b=(0,1,0,1). Expected top-left pixel
// (1,0,0,1), top-right (0,1,0,1).
func TestS1CheckerPattern(t *testing.T) {
	ck := mustCompile(t, `
kernel vec4 checker(float size, vec4 a, vec4 b) {
	vec2 p = destCoord();
	float m = mod(p.x, 2.0 * size);
	return mix(a, b, step(size, m));
}
`)
	defer ck.Release()

	root, err := sampler.New(ck, "checker")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for name, v := range map[string]fval.Value{
		"size": fval.Float(1),
		"a":    fval.Vec4(1, 0, 0, 1),
		"b":    fval.Vec4(0, 1, 0, 1),
	} {
		if err := root.SetValue(name, v); err != nil {
			t.Fatalf("SetValue(%s): %v", name, err)
		}
	}
	if !root.IsValid() {
		t.Fatalf("provider should be valid: every parameter bound and no sampler children")
	}

	fn := jit.Compile(root, runtime.ARGB32Premultiplied)
	if fn == nil {
		t.Fatalf("Compile returned nil function pointer")
	}

	const w, h, stride = 4, 4, 16
	buf := make([]byte, h*stride)
	extent := sampler.Extent{X: 0, Y: 0, W: 4, H: 4}
	if err := dispatch.Render(context.Background(), fn.RenderPixel, runtime.ARGB32Premultiplied, buf, w, h, stride, extent); err != nil {
		t.Fatalf("Render: %v", err)
	}

	topLeft := buf[0:4]
	topRight := buf[12:16]
	wantTopLeft := []byte{255, 255, 0, 0}  // premultiplied ARGB for (1,0,0,1)
	wantTopRight := []byte{255, 0, 255, 0} // premultiplied ARGB for (0,1,0,1)
	if string(topLeft) != string(wantTopLeft) {
		t.Fatalf("top-left pixel = %v, want %v", topLeft, wantTopLeft)
	}
	if string(topRight) != string(wantTopRight) {
		t.Fatalf("top-right pixel = %v, want %v", topRight, wantTopRight)
	}
}

// Bound sampler: tint(sampler s, vec4 c) returning
// sample(s, destCoord()) * c. Bind s to a 2x2 buffer sampler holding
// all-white pixels, bind c = (0.5, 0.5, 0.5, 1). Expected output
// buffer filled with (0.5, 0.5, 0.5, 1).
func TestS2BoundSampler(t *testing.T) {
	ck := mustCompile(t, `kernel vec4 tint(sampler s, vec4 c) { return sample(s, destCoord()) * c; }`)
	defer ck.Release()

	root, err := sampler.New(ck, "tint")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	pixels := make([][4]float32, 4)
	for i := range pixels {
		pixels[i] = [4]float32{1, 1, 1, 1}
	}
	buf := sampler.NewBuffer(2, 2, pixels, sampler.Extent{X: 0, Y: 0, W: 2, H: 2})
	if err := root.SetSampler("s", sampler.AsProvider(buf)); err != nil {
		t.Fatalf("SetSampler: %v", err)
	}
	if err := root.SetValue("c", fval.Vec4(0.5, 0.5, 0.5, 1)); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if !root.IsValid() {
		t.Fatalf("provider should be valid")
	}

	fn := jit.Compile(root, runtime.RGBA32)
	if fn == nil {
		t.Fatalf("Compile returned nil function pointer")
	}

	const w, h, stride = 2, 2, 8
	outBuf := make([]byte, h*stride)
	extent := sampler.Extent{X: 0, Y: 0, W: 2, H: 2}
	if err := dispatch.Render(context.Background(), fn.RenderPixel, runtime.RGBA32, outBuf, w, h, stride, extent); err != nil {
		t.Fatalf("Render: %v", err)
	}

	wantPixel := []byte{128, 128, 128, 255} // RGBA32: r,g,b=clampByte(0.5)=128, a=clampByte(1)=255
	for p := 0; p < w*h; p++ {
		got := outBuf[p*4 : p*4+4]
		if string(got) != string(wantPixel) {
			t.Fatalf("pixel %d = %v, want %v (buffer: %v)", p, got, wantPixel, outBuf)
		}
	}
}

// Reduce accumulation: a reduce kernel that calls emit(destCoord())
// for every pixel of a 10x10 grid must leave the lock-free set holding
// exactly 100 distinct vec2 entries covering the grid.
func TestS6ReduceAccumulation(t *testing.T) {
	ck := mustCompile(t, `reduce kernel void emitall() { emit(destCoord()); }`)
	defer ck.Release()

	root, err := sampler.New(ck, "emitall")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !root.IsValid() {
		t.Fatalf("provider should be valid: no parameters to bind")
	}

	fn := jit.CompileReduce(root)
	if fn == nil {
		t.Fatalf("CompileReduce returned nil function pointer")
	}

	set := appendset.New[fval.Value]()
	const w, h = 10, 10
	extent := sampler.Extent{X: 0, Y: 0, W: w, H: h}
	if err := dispatch.Reduce(context.Background(), fn.ReducePixel, set, w, h, extent); err != nil {
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
