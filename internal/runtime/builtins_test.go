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

package runtime

import (
	"testing"

	"github.com/rjw57/firtree/internal/value"
)

func TestModBuiltinMatchesFmodConvention(t *testing.T) {
	got, ok := EvalBuiltin("mod", []value.Value{value.Float(5), value.Float(3)})
	if !ok {
		t.Fatalf("mod not found")
	}
	if got.AsFloat() != 2 {
		t.Fatalf("mod(5,3) = %v, want 2", got.AsFloat())
	}
}

func TestStepBuiltinEdgeSemantics(t *testing.T) {
	below, _ := EvalBuiltin("step", []value.Value{value.Float(1), value.Float(0.5)})
	atEdge, _ := EvalBuiltin("step", []value.Value{value.Float(1), value.Float(1)})
	above, _ := EvalBuiltin("step", []value.Value{value.Float(1), value.Float(2)})
	if below.AsFloat() != 0 {
		t.Fatalf("step(1,0.5) = %v, want 0", below.AsFloat())
	}
	if atEdge.AsFloat() != 1 {
		t.Fatalf("step(1,1) = %v, want 1", atEdge.AsFloat())
	}
	if above.AsFloat() != 1 {
		t.Fatalf("step(1,2) = %v, want 1", above.AsFloat())
	}
}

func TestMixBuiltinLinearInterpolation(t *testing.T) {
	got, _ := EvalBuiltin("mix", []value.Value{value.Vec4(0, 0, 0, 0), value.Vec4(1, 1, 1, 1), value.Float(0.25)})
	want := []float32{0.25, 0.25, 0.25, 0.25}
	for i, f := range got.Floats() {
		if f != want[i] {
			t.Fatalf("mix component %d = %v, want %v", i, f, want[i])
		}
	}
}

func TestClampBuiltinBounds(t *testing.T) {
	low, _ := EvalBuiltin("clamp", []value.Value{value.Float(-1), value.Float(0), value.Float(1)})
	high, _ := EvalBuiltin("clamp", []value.Value{value.Float(5), value.Float(0), value.Float(1)})
	mid, _ := EvalBuiltin("clamp", []value.Value{value.Float(0.5), value.Float(0), value.Float(1)})
	if low.AsFloat() != 0 || high.AsFloat() != 1 || mid.AsFloat() != 0.5 {
		t.Fatalf("clamp bounds wrong: low=%v high=%v mid=%v", low.AsFloat(), high.AsFloat(), mid.AsFloat())
	}
}

func TestDotAndLength(t *testing.T) {
	d, _ := EvalBuiltin("dot", []value.Value{value.Vec3(1, 2, 3), value.Vec3(4, 5, 6)})
	if d.AsFloat() != 32 {
		t.Fatalf("dot = %v, want 32", d.AsFloat())
	}
	l, _ := EvalBuiltin("length", []value.Value{value.Vec2(3, 4)})
	if l.AsFloat() != 5 {
		t.Fatalf("length = %v, want 5", l.AsFloat())
	}
}

func TestEvalBuiltinUnknownName(t *testing.T) {
	if _, ok := EvalBuiltin("notabuiltin", nil); ok {
		t.Fatalf("unknown builtin resolved, want ok=false")
	}
}
