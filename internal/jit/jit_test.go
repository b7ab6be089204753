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

package jit

import (
	"testing"

	"github.com/rjw57/firtree/internal/kernel"
	"github.com/rjw57/firtree/internal/runtime"
	"github.com/rjw57/firtree/internal/sampler"
	fval "github.com/rjw57/firtree/internal/value"
)

func newScaledProvider(t *testing.T) (*sampler.Provider, *kernel.CompiledKernel) {
	t.Helper()
	ck := kernel.Compile("t.kernel", `kernel vec4 scaled(static float k, vec4 c) { return c * k; }`)
	if !ck.CompileStatus {
		t.Fatalf("compile failed: %v", ck.Log)
	}
	p, err := sampler.New(ck, "scaled")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.SetValue("k", fval.Float(2)); err != nil {
		t.Fatalf("SetValue(k): %v", err)
	}
	if err := p.SetValue("c", fval.Vec4(0.25, 0.25, 0.25, 0.5)); err != nil {
		t.Fatalf("SetValue(c): %v", err)
	}
	return p, ck
}

func TestCacheReturnsSameFuncForUnchangedProvider(t *testing.T) {
	root, ck := newScaledProvider(t)
	defer ck.Release()
	var c Cache

	f1 := c.Get(root, runtime.RGBA32)
	f2 := c.Get(root, runtime.RGBA32)
	if f1 == nil || f1 != f2 {
		t.Fatalf("Get returned %p then %p, want the same non-nil function", f1, f2)
	}
	if c.Get(root, runtime.BGRA32) == f1 {
		t.Fatalf("a different format must not share a cache entry")
	}
}

// A static parameter change must invalidate the cached function: the
// stale entry is never handed out again.
func TestCacheInvalidatesOnStaticParameterChange(t *testing.T) {
	root, ck := newScaledProvider(t)
	defer ck.Release()
	var c Cache

	f1 := c.Get(root, runtime.RGBA32)
	if err := root.SetValue("k", fval.Float(3)); err != nil {
		t.Fatalf("SetValue(k): %v", err)
	}
	f2 := c.Get(root, runtime.RGBA32)
	if f1 == f2 {
		t.Fatalf("static parameter change did not invalidate the cached function")
	}

	dst := make([]byte, 4)
	if err := f2.RenderPixel(0, 0, dst); err != nil {
		t.Fatalf("RenderPixel: %v", err)
	}
	// c*k = (0.25,0.25,0.25,0.5)*3 = (0.75,0.75,0.75,1.5 clamped to 1).
	want := []byte{191, 191, 191, 255}
	if string(dst) != string(want) {
		t.Fatalf("pixel after re-link = %v, want %v", dst, want)
	}
}

// A non-static parameter change keeps the cached function but its next
// render must see the new value, through the parameter-global
// indirection rather than a re-link.
func TestCacheDynamicParameterChangeWithoutRelink(t *testing.T) {
	root, ck := newScaledProvider(t)
	defer ck.Release()
	var c Cache

	f1 := c.Get(root, runtime.RGBA32)
	dst := make([]byte, 4)
	if err := f1.RenderPixel(0, 0, dst); err != nil {
		t.Fatalf("RenderPixel: %v", err)
	}
	if want := []byte{128, 128, 128, 255}; string(dst) != string(want) {
		t.Fatalf("initial pixel = %v, want %v", dst, want)
	}

	if err := root.SetValue("c", fval.Vec4(1, 1, 1, 1)); err != nil {
		t.Fatalf("SetValue(c): %v", err)
	}
	f2 := c.Get(root, runtime.RGBA32)
	if f1 != f2 {
		t.Fatalf("dynamic parameter change forced a re-link")
	}
	if err := f2.RenderPixel(0, 0, dst); err != nil {
		t.Fatalf("RenderPixel: %v", err)
	}
	if want := []byte{255, 255, 255, 255}; string(dst) != string(want) {
		t.Fatalf("pixel after dynamic change = %v, want %v", dst, want)
	}
}

func TestCompileInvalidProviderReturnsNil(t *testing.T) {
	ck := kernel.Compile("t.kernel", `kernel vec4 tint(sampler s, vec4 c) { return sample(s, destCoord()) * c; }`)
	if !ck.CompileStatus {
		t.Fatalf("compile failed: %v", ck.Log)
	}
	defer ck.Release()
	root, err := sampler.New(ck, "tint")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// s and c both unbound: linking must fail and Compile must hand back
	// the null function pointer rather than a partial one.
	if fn := Compile(root, runtime.RGBA32); fn != nil {
		t.Fatalf("Compile on an invalid provider returned a non-nil function")
	}
}
