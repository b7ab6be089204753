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

package types

// Intrinsic identifies one of the linker-specialised sampler
// intrinsics or the reduce-kernel emit() built-in. IntrinsicNone marks
// an ordinary builtin resolved against the always-linked builtins
// module.
type Intrinsic int

const (
	IntrinsicNone Intrinsic = iota
	IntrinsicSample
	IntrinsicSamplerTransform
	IntrinsicSamplerExtent
	IntrinsicEmit
	IntrinsicDestCoord
)

// Builtin is one (name, parameter-types, return-type, intrinsic) entry
// of the static built-in table.
type Builtin struct {
	Name      string
	Params    []Kind
	Return    Kind
	Intrinsic Intrinsic
}

// builtinTable is the closed set of built-in overloads. Overload
// resolution (ResolveOverload) is exact-match over this table, modulo
// the single implicit promotion rule implemented in promote().
// destCoord yields the current destination coordinate; emit appends one
// value of the declared reduce-output type to the reduce sink.
var builtinTable = []Builtin{
	{"sample", []Kind{Sampler, Vec2}, Vec4, IntrinsicSample},
	{"samplerTransform", []Kind{Sampler, Vec2}, Vec2, IntrinsicSamplerTransform},
	{"samplerExtent", []Kind{Sampler}, Vec4, IntrinsicSamplerExtent},
	{"destCoord", nil, Vec2, IntrinsicDestCoord},

	// sin/cos stop at vec3; resolution fails for the vec4 variants.
	{"sin", []Kind{Float}, Float, IntrinsicNone},
	{"sin", []Kind{Vec2}, Vec2, IntrinsicNone},
	{"sin", []Kind{Vec3}, Vec3, IntrinsicNone},
	{"cos", []Kind{Float}, Float, IntrinsicNone},
	{"cos", []Kind{Vec2}, Vec2, IntrinsicNone},
	{"cos", []Kind{Vec3}, Vec3, IntrinsicNone},
	{"sqrt", []Kind{Float}, Float, IntrinsicNone},
	{"abs", []Kind{Float}, Float, IntrinsicNone},
	{"floor", []Kind{Float}, Float, IntrinsicNone},
	{"floor", []Kind{Vec2}, Vec2, IntrinsicNone},
	{"floor", []Kind{Vec3}, Vec3, IntrinsicNone},
	{"floor", []Kind{Vec4}, Vec4, IntrinsicNone},

	{"mod", []Kind{Float, Float}, Float, IntrinsicNone},
	{"mod", []Kind{Vec2, Float}, Vec2, IntrinsicNone},
	{"mod", []Kind{Vec3, Float}, Vec3, IntrinsicNone},
	{"mod", []Kind{Vec4, Float}, Vec4, IntrinsicNone},
	{"mod", []Kind{Vec2, Vec2}, Vec2, IntrinsicNone},
	{"mod", []Kind{Vec3, Vec3}, Vec3, IntrinsicNone},
	{"mod", []Kind{Vec4, Vec4}, Vec4, IntrinsicNone},

	{"mix", []Kind{Float, Float, Float}, Float, IntrinsicNone},
	{"mix", []Kind{Vec2, Vec2, Float}, Vec2, IntrinsicNone},
	{"mix", []Kind{Vec3, Vec3, Float}, Vec3, IntrinsicNone},
	{"mix", []Kind{Vec4, Vec4, Float}, Vec4, IntrinsicNone},
	{"mix", []Kind{Vec2, Vec2, Vec2}, Vec2, IntrinsicNone},
	{"mix", []Kind{Vec3, Vec3, Vec3}, Vec3, IntrinsicNone},
	{"mix", []Kind{Vec4, Vec4, Vec4}, Vec4, IntrinsicNone},

	{"step", []Kind{Float, Float}, Float, IntrinsicNone},
	{"step", []Kind{Vec2, Vec2}, Vec2, IntrinsicNone},
	{"step", []Kind{Vec3, Vec3}, Vec3, IntrinsicNone},
	{"step", []Kind{Vec4, Vec4}, Vec4, IntrinsicNone},

	{"clamp", []Kind{Float, Float, Float}, Float, IntrinsicNone},
	{"clamp", []Kind{Vec2, Vec2, Vec2}, Vec2, IntrinsicNone},
	{"clamp", []Kind{Vec3, Vec3, Vec3}, Vec3, IntrinsicNone},
	{"clamp", []Kind{Vec4, Vec4, Vec4}, Vec4, IntrinsicNone},

	{"dot", []Kind{Vec2, Vec2}, Float, IntrinsicNone},
	{"dot", []Kind{Vec3, Vec3}, Float, IntrinsicNone},
	{"dot", []Kind{Vec4, Vec4}, Float, IntrinsicNone},
	{"cross", []Kind{Vec3, Vec3}, Vec3, IntrinsicNone},
	{"length", []Kind{Vec2}, Float, IntrinsicNone},
	{"length", []Kind{Vec3}, Float, IntrinsicNone},
	{"length", []Kind{Vec4}, Float, IntrinsicNone},
	{"normalize", []Kind{Vec2}, Vec2, IntrinsicNone},
	{"normalize", []Kind{Vec3}, Vec3, IntrinsicNone},
	{"normalize", []Kind{Vec4}, Vec4, IntrinsicNone},

	{"emit", []Kind{Float}, Void, IntrinsicEmit},
	{"emit", []Kind{Vec2}, Void, IntrinsicEmit},
	{"emit", []Kind{Vec3}, Void, IntrinsicEmit},
	{"emit", []Kind{Vec4}, Void, IntrinsicEmit},
}

// AllBuiltins returns the full static built-in table.
func AllBuiltins() []Builtin { return builtinTable }

// promote reports whether an argument of kind have can be used where
// kind want is required, under the single implicit promotion rule: Int
// may promote to Float; Float may widen to any VecN by scalar broadcast
// when a VecN variant exists.
func promote(have, want Kind) bool {
	if have == want {
		return true
	}
	if have == Int && want == Float {
		return true
	}
	if have == Float && IsVector(want) {
		return true
	}
	return false
}

// ResolveOverload finds the unique Builtin named name whose parameters
// accept args, after promotion. It returns (nil, false) if there is no
// match or if more than one distinct promoted match exists; an
// ambiguous call is rejected the same way as a missing one.
func ResolveOverload(name string, args []Kind) (*Builtin, bool) {
	var found *Builtin
	for i := range builtinTable {
		b := &builtinTable[i]
		if b.Name != name || len(b.Params) != len(args) {
			continue
		}
		ok := true
		exact := true
		for j, p := range b.Params {
			if !promote(args[j], p) {
				ok = false
				break
			}
			if args[j] != p {
				exact = false
			}
		}
		if !ok {
			continue
		}
		if exact {
			return b, true
		}
		if found == nil {
			found = b
		} else {
			// Ambiguous: two distinct promoted matches.
			return nil, false
		}
	}
	if found != nil {
		return found, true
	}
	return nil, false
}
