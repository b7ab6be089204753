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

// Package value implements Value, the tagged, immutable carrier for
// every scalar, vector, matrix, sampler-handle or typed-null quantity
// that can flow through a Firtree kernel graph.
package value

import "fmt"

// Tag identifies the shape a Value carries.
type Tag int

const (
	TagFloat Tag = iota
	TagInt
	TagBool
	TagVec2
	TagVec3
	TagVec4
	TagMat2
	TagMat3
	TagMat4
	TagSampler
	TagTypedNull
)

func (t Tag) String() string {
	switch t {
	case TagFloat:
		return "float"
	case TagInt:
		return "int"
	case TagBool:
		return "bool"
	case TagVec2:
		return "vec2"
	case TagVec3:
		return "vec3"
	case TagVec4:
		return "vec4"
	case TagMat2:
		return "mat2"
	case TagMat3:
		return "mat3"
	case TagMat4:
		return "mat4"
	case TagSampler:
		return "sampler"
	case TagTypedNull:
		return "typednull"
	}
	return "?"
}

// samplerHandle is the opaque identity a Sampler-tagged Value carries.
// Firtree never dereferences it directly; the linker resolves it to a
// SamplerProvider via the owning side table.
type samplerHandle uint64

// Value is an immutable tagged union. Vectors and matrices carry their
// components as f32 in row-major order; component count (2..4) is
// implied by Tag. Two Values compare equal iff Tag, shape and component
// bytes all match.
type Value struct {
	tag      Tag
	f        float32
	i        int32
	b        bool
	vec      [16]float32 // up to a 4x4 matrix, row-major
	sampler  samplerHandle
	nullType Tag
}

// Float constructs a scalar Float Value.
func Float(f float32) Value { return Value{tag: TagFloat, f: f} }

// Int constructs a scalar Int Value.
func Int(i int32) Value { return Value{tag: TagInt, i: i} }

// Bool constructs a scalar Bool Value.
func Bool(b bool) Value { return Value{tag: TagBool, b: b} }

// Vec2 constructs a 2-component vector Value.
func Vec2(x, y float32) Value { return vecN(TagVec2, x, y) }

// Vec3 constructs a 3-component vector Value.
func Vec3(x, y, z float32) Value { return vecN(TagVec3, x, y, z) }

// Vec4 constructs a 4-component vector Value.
func Vec4(x, y, z, w float32) Value { return vecN(TagVec4, x, y, z, w) }

func vecN(tag Tag, c ...float32) Value {
	v := Value{tag: tag}
	copy(v.vec[:], c)
	return v
}

// Mat2 constructs a 2x2 matrix Value from row-major components.
func Mat2(m [4]float32) Value {
	v := Value{tag: TagMat2}
	copy(v.vec[:], m[:])
	return v
}

// Mat3 constructs a 3x3 matrix Value from row-major components.
func Mat3(m [9]float32) Value {
	v := Value{tag: TagMat3}
	copy(v.vec[:], m[:])
	return v
}

// Mat4 constructs a 4x4 matrix Value from row-major components.
func Mat4(m [16]float32) Value {
	v := Value{tag: TagMat4}
	copy(v.vec[:], m[:])
	return v
}

// Sampler constructs a Value referring to a sampler by opaque handle.
func Sampler(handle uint64) Value {
	return Value{tag: TagSampler, sampler: samplerHandle(handle)}
}

// TypedNull constructs a typed-null Value: a well-typed absence, used
// for unbound image-default sampler parameters.
func TypedNull(of Tag) Value {
	return Value{tag: TagTypedNull, nullType: of}
}

// Tag returns the Value's shape tag.
func (v Value) Tag() Tag { return v.tag }

// Components returns the number of scalar components for vector/matrix
// tags, or 1 for scalars, or 0 otherwise.
func (v Value) Components() int {
	switch v.tag {
	case TagFloat, TagInt, TagBool:
		return 1
	case TagVec2:
		return 2
	case TagVec3:
		return 3
	case TagVec4:
		return 4
	case TagMat2:
		return 4
	case TagMat3:
		return 9
	case TagMat4:
		return 16
	}
	return 0
}

// AsFloat returns the scalar float component, panicking if Tag is not
// TagFloat.
func (v Value) AsFloat() float32 {
	if v.tag != TagFloat {
		panic(fmt.Sprintf("value: AsFloat on %s", v.tag))
	}
	return v.f
}

// AsInt returns the scalar int component, panicking if Tag is not TagInt.
func (v Value) AsInt() int32 {
	if v.tag != TagInt {
		panic(fmt.Sprintf("value: AsInt on %s", v.tag))
	}
	return v.i
}

// AsBool returns the scalar bool component, panicking if Tag is not
// TagBool.
func (v Value) AsBool() bool {
	if v.tag != TagBool {
		panic(fmt.Sprintf("value: AsBool on %s", v.tag))
	}
	return v.b
}

// Floats returns the row-major float components of a vector or matrix
// Value.
func (v Value) Floats() []float32 {
	n := v.Components()
	if v.tag == TagFloat || v.tag == TagInt || v.tag == TagBool || n == 0 {
		return nil
	}
	return append([]float32(nil), v.vec[:n]...)
}

// SamplerHandle returns the opaque sampler handle, panicking if Tag is
// not TagSampler.
func (v Value) SamplerHandle() uint64 {
	if v.tag != TagSampler {
		panic(fmt.Sprintf("value: SamplerHandle on %s", v.tag))
	}
	return uint64(v.sampler)
}

// NullType returns the type a TagTypedNull Value stands in for.
func (v Value) NullType() Tag { return v.nullType }

// Equal reports whether two Values have identical tag, shape and
// component bytes.
func (v Value) Equal(o Value) bool {
	if v.tag != o.tag {
		return false
	}
	switch v.tag {
	case TagFloat:
		return v.f == o.f
	case TagInt:
		return v.i == o.i
	case TagBool:
		return v.b == o.b
	case TagSampler:
		return v.sampler == o.sampler
	case TagTypedNull:
		return v.nullType == o.nullType
	default:
		n := v.Components()
		for i := 0; i < n; i++ {
			if v.vec[i] != o.vec[i] {
				return false
			}
		}
		return true
	}
}

func (v Value) String() string {
	switch v.tag {
	case TagFloat:
		return fmt.Sprintf("%g", v.f)
	case TagInt:
		return fmt.Sprintf("%d", v.i)
	case TagBool:
		return fmt.Sprintf("%t", v.b)
	case TagSampler:
		return fmt.Sprintf("sampler#%d", v.sampler)
	case TagTypedNull:
		return fmt.Sprintf("null(%s)", v.nullType)
	default:
		return fmt.Sprintf("%s%v", v.tag, v.Floats())
	}
}
