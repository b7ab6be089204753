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
	"testing"

	"github.com/rjw57/firtree/internal/kernel"
	"github.com/rjw57/firtree/internal/value"
)

func mustCompile(t *testing.T, src string) *kernel.CompiledKernel {
	t.Helper()
	ck := kernel.Compile("t.kernel", src)
	if !ck.CompileStatus {
		t.Fatalf("compile failed: %v", ck.Log)
	}
	return ck
}

const tintSrc = `kernel vec4 tint(sampler s, vec4 c) { return sample(s, destCoord()) * c; }`

// Cycle rejection: a.SetSampler(s, b) succeeds; b.SetSampler(s, a)
// must then fail with ErrCycle and leave b unchanged.
func TestS5CycleRejection(t *testing.T) {
	ck := mustCompile(t, tintSrc)
	defer ck.Release()

	a, err := New(ck, "tint")
	if err != nil {
		t.Fatalf("New(a): %v", err)
	}
	b, err := New(ck, "tint")
	if err != nil {
		t.Fatalf("New(b): %v", err)
	}

	if err := a.SetSampler("s", b); err != nil {
		t.Fatalf("a.SetSampler(s, b) = %v, want nil", err)
	}
	before, ok := b.Child("s")

	if err := b.SetSampler("s", a); err != ErrCycle {
		t.Fatalf("b.SetSampler(s, a) = %v, want ErrCycle", err)
	}

	after, ok2 := b.Child("s")
	if ok != ok2 || before != after {
		t.Fatalf("b's binding changed after a rejected SetSampler: before=%v(%v) after=%v(%v)", before, ok, after, ok2)
	}
}

func TestSetValueTypeMismatch(t *testing.T) {
	ck := mustCompile(t, tintSrc)
	defer ck.Release()
	p, err := New(ck, "tint")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.SetValue("c", value.Float(1)); err != ErrTypeMismatch {
		t.Fatalf("SetValue(c, float) = %v, want ErrTypeMismatch", err)
	}
	if err := p.SetValue("nosuch", value.Vec4(0, 0, 0, 0)); err != ErrUnknownParam {
		t.Fatalf("SetValue(nosuch, ...) = %v, want ErrUnknownParam", err)
	}
}

func TestIsValidRequiresEveryParameterBound(t *testing.T) {
	ck := mustCompile(t, tintSrc)
	defer ck.Release()
	p, err := New(ck, "tint")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if p.IsValid() {
		t.Fatalf("freshly-created provider should not be valid")
	}
	buf := AsProvider(NewBuffer(1, 1, [][4]float32{{1, 1, 1, 1}}, Extent{W: 1, H: 1}))
	if err := p.SetSampler("s", buf); err != nil {
		t.Fatalf("SetSampler: %v", err)
	}
	if p.IsValid() {
		t.Fatalf("provider should still be invalid: c is unbound")
	}
	if err := p.SetValue("c", value.Vec4(1, 1, 1, 1)); err != nil {
		t.Fatalf("SetValue: %v", err)
	}
	if !p.IsValid() {
		t.Fatalf("provider should be valid once every parameter is bound")
	}
	if err := p.Unset("c"); err != nil {
		t.Fatalf("Unset: %v", err)
	}
	if p.IsValid() {
		t.Fatalf("provider should be invalid again after Unset")
	}
}

func TestExtentUnionOfChildren(t *testing.T) {
	ck := mustCompile(t, `kernel vec4 pair(sampler a, sampler b) { return sample(a, destCoord()) + sample(b, destCoord()); }`)
	defer ck.Release()
	p, err := New(ck, "pair")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	bufA := AsProvider(NewBuffer(1, 1, [][4]float32{{1, 1, 1, 1}}, Extent{X: 0, Y: 0, W: 2, H: 2}))
	bufB := AsProvider(NewBuffer(1, 1, [][4]float32{{1, 1, 1, 1}}, Extent{X: 1, Y: 1, W: 3, H: 3}))
	if err := p.SetSampler("a", bufA); err != nil {
		t.Fatalf("SetSampler(a): %v", err)
	}
	if err := p.SetSampler("b", bufB); err != nil {
		t.Fatalf("SetSampler(b): %v", err)
	}
	got := p.Extent()
	want := Extent{X: 0, Y: 0, W: 4, H: 4}
	if got != want {
		t.Fatalf("Extent() = %+v, want %+v", got, want)
	}
}
