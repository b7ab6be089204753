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

import "testing"

// Overload resolution totality: every (builtin, argument-type-tuple)
// literally in the table must resolve, and the
// resolved builtin's own declared return type must come back.
func TestResolveOverloadTotality(t *testing.T) {
	for _, b := range AllBuiltins() {
		b := b
		t.Run(b.Name, func(t *testing.T) {
			got, ok := ResolveOverload(b.Name, b.Params)
			if !ok {
				t.Fatalf("ResolveOverload(%q, %v) = not found, want a match", b.Name, b.Params)
			}
			if got.Return != b.Return {
				t.Fatalf("ResolveOverload(%q, %v).Return = %v, want %v", b.Name, b.Params, got.Return, b.Return)
			}
		})
	}
}

// S4's exact scenario: sin(vec4) is not in the table (only float/vec2/
// vec3 variants are) so resolution must fail.
func TestResolveOverloadNotFoundForSinVec4(t *testing.T) {
	if _, ok := ResolveOverload("sin", []Kind{Vec4}); ok {
		t.Fatalf("ResolveOverload(\"sin\", [vec4]) unexpectedly found a match")
	}
}

// A tuple entirely outside the table (no builtin named this) must also
// fail cleanly, not panic.
func TestResolveOverloadUnknownName(t *testing.T) {
	if _, ok := ResolveOverload("frobnicate", []Kind{Float}); ok {
		t.Fatalf("ResolveOverload on unknown builtin name unexpectedly succeeded")
	}
}

// The Int-to-Float promotion rule must resolve a call whose argument
// kinds are not an exact match for any table entry, an exact match must
// resolve directly, and no rule may bridge different vector widths.
func TestPromotionRules(t *testing.T) {
	if _, ok := ResolveOverload("mix", []Kind{Vec3, Vec3, Int}); !ok {
		t.Fatalf("mix(vec3, vec3, int) should resolve via Int->Float promotion")
	}
	if _, ok := ResolveOverload("clamp", []Kind{Float, Float, Float}); !ok {
		t.Fatalf("clamp(float, float, float) should resolve directly")
	}
	if _, ok := ResolveOverload("dot", []Kind{Vec2, Vec3}); ok {
		t.Fatalf("dot(vec2, vec3) should not resolve: no promotion rule connects different vector widths")
	}
}
