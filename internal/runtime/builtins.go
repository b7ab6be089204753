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

// Package runtime is Firtree's prebuilt runtime: the always-linked
// implementations of the builtin table's non-intrinsic entries and the
// per-pixel-format packing behind the render entry points. Builtins are
// realised as Go functions keyed by name rather than as IR function
// bodies; the kernel front-end (internal/emitter) still declares them
// as ordinary external symbols, and the JIT interpreter resolves those
// symbols here.
package runtime

import (
	"math"

	"github.com/rjw57/firtree/internal/value"
)

// EvalBuiltin evaluates the non-intrinsic builtin named name against
// already-evaluated args, inferring vector width from the arguments
// rather than from a separate signature table: the emitter promotes
// each argument to the resolved overload's parameter type, so args
// already has the shape EvalBuiltin expects by the time a linked
// kernel reaches this call.
func EvalBuiltin(name string, args []value.Value) (value.Value, bool) {
	switch name {
	case "sin":
		return unary(args[0], func(f float32) float32 { return float32(math.Sin(float64(f))) }), true
	case "cos":
		return unary(args[0], func(f float32) float32 { return float32(math.Cos(float64(f))) }), true
	case "sqrt":
		return value.Float(float32(math.Sqrt(float64(args[0].AsFloat())))), true
	case "abs":
		return value.Float(float32(math.Abs(float64(args[0].AsFloat())))), true
	case "floor":
		return unary(args[0], func(f float32) float32 { return float32(math.Floor(float64(f))) }), true
	case "mod":
		return modBuiltin(args[0], args[1]), true
	case "mix":
		return mixBuiltin(args[0], args[1], args[2]), true
	case "step":
		return stepBuiltin(args[0], args[1]), true
	case "clamp":
		return clampBuiltin(args[0], args[1], args[2]), true
	case "dot":
		return value.Float(dot(args[0].Floats(), args[1].Floats())), true
	case "cross":
		a, b := args[0].Floats(), args[1].Floats()
		return value.Vec3(
			a[1]*b[2]-a[2]*b[1],
			a[2]*b[0]-a[0]*b[2],
			a[0]*b[1]-a[1]*b[0],
		), true
	case "length":
		return value.Float(float32(math.Sqrt(float64(dot(args[0].Floats(), args[0].Floats()))))), true
	case "normalize":
		return normalize(args[0]), true
	}
	return value.Value{}, false
}

func components(v value.Value) []float32 {
	if v.Tag() == value.TagFloat {
		return []float32{v.AsFloat()}
	}
	return v.Floats()
}

func vecOf(tag value.Tag, c []float32) value.Value {
	switch len(c) {
	case 1:
		return value.Float(c[0])
	case 2:
		return value.Vec2(c[0], c[1])
	case 3:
		return value.Vec3(c[0], c[1], c[2])
	case 4:
		return value.Vec4(c[0], c[1], c[2], c[3])
	}
	return value.Float(0)
}

func unary(a value.Value, f func(float32) float32) value.Value {
	c := components(a)
	out := make([]float32, len(c))
	for i, x := range c {
		out[i] = f(x)
	}
	return vecOf(a.Tag(), out)
}

// broadcastPair returns componentwise (a[i], b[i]) pairs, broadcasting
// whichever operand is a scalar float across the other's width.
func broadcastPair(a, b value.Value) (ac, bc []float32) {
	ac, bc = components(a), components(b)
	if len(ac) == 1 && len(bc) > 1 {
		v := ac[0]
		ac = make([]float32, len(bc))
		for i := range ac {
			ac[i] = v
		}
	} else if len(bc) == 1 && len(ac) > 1 {
		v := bc[0]
		bc = make([]float32, len(ac))
		for i := range bc {
			bc[i] = v
		}
	}
	return ac, bc
}

func modBuiltin(x, y value.Value) value.Value {
	ac, bc := broadcastPair(x, y)
	out := make([]float32, len(ac))
	for i := range ac {
		out[i] = ac[i] - bc[i]*float32(math.Floor(float64(ac[i]/bc[i])))
	}
	return vecOf(x.Tag(), out)
}

func stepBuiltin(edge, x value.Value) value.Value {
	ec, xc := broadcastPair(edge, x)
	out := make([]float32, len(xc))
	for i := range xc {
		if xc[i] < ec[i] {
			out[i] = 0
		} else {
			out[i] = 1
		}
	}
	return vecOf(x.Tag(), out)
}

func clampBuiltin(x, lo, hi value.Value) value.Value {
	xc := components(x)
	loc, _ := broadcastPair(lo, x)
	hic, _ := broadcastPair(hi, x)
	out := make([]float32, len(xc))
	for i := range xc {
		v := xc[i]
		if v < loc[i] {
			v = loc[i]
		}
		if v > hic[i] {
			v = hic[i]
		}
		out[i] = v
	}
	return vecOf(x.Tag(), out)
}

func mixBuiltin(a, b, t value.Value) value.Value {
	ac, bc := components(a), components(b)
	tc, _ := broadcastPair(t, a)
	out := make([]float32, len(ac))
	for i := range ac {
		out[i] = ac[i]*(1-tc[i]) + bc[i]*tc[i]
	}
	return vecOf(a.Tag(), out)
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func normalize(v value.Value) value.Value {
	c := v.Floats()
	l := float32(math.Sqrt(float64(dot(c, c))))
	out := make([]float32, len(c))
	if l != 0 {
		for i, x := range c {
			out[i] = x / l
		}
	}
	return vecOf(v.Tag(), out)
}
