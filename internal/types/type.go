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

// Package types implements Firtree's closed type lattice and built-in
// overload table: there is no user-defined type, no inheritance and no
// generics.
package types

import "fmt"

// Kind is the closed enum of base kinds.
type Kind int

const (
	Void Kind = iota
	Bool
	Int
	Float
	Vec2
	Vec3
	Vec4
	Mat2
	Mat3
	Mat4
	Sampler
)

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case Vec2:
		return "vec2"
	case Vec3:
		return "vec3"
	case Vec4:
		return "vec4"
	case Mat2:
		return "mat2"
	case Mat3:
		return "mat3"
	case Mat4:
		return "mat4"
	case Sampler:
		return "sampler"
	}
	return "?"
}

// Qualifiers is the qualifier set a Type may carry: const/static and a
// parameter direction.
type Qualifiers struct {
	Const  bool
	Static bool
	Dir    Direction
}

// Direction is a parameter passing direction.
type Direction int

const (
	DirIn Direction = iota
	DirOut
	DirInOut
)

// Type pairs a Kind with its Qualifiers. A Type is *static* when Static
// is set: static parameters are guaranteed link-time constants and are
// inlined as IR constants.
type Type struct {
	Kind Kind
	Qualifiers
}

func (t Type) String() string {
	s := t.Kind.String()
	if t.Static {
		s = "static " + s
	}
	if t.Const {
		s = "const " + s
	}
	return s
}

// VectorComponents returns the component count of a vector Kind, or 0 if
// k is not a vector kind.
func VectorComponents(k Kind) int {
	switch k {
	case Vec2:
		return 2
	case Vec3:
		return 3
	case Vec4:
		return 4
	}
	return 0
}

// MatrixComponents returns the row/column size of a square matrix Kind,
// or 0 if k is not a matrix kind.
func MatrixComponents(k Kind) int {
	switch k {
	case Mat2:
		return 2
	case Mat3:
		return 3
	case Mat4:
		return 4
	}
	return 0
}

var kindNames = map[string]Kind{
	"void": Void, "bool": Bool, "int": Int, "float": Float,
	"vec2": Vec2, "vec3": Vec3, "vec4": Vec4,
	"mat2": Mat2, "mat3": Mat3, "mat4": Mat4, "sampler": Sampler,
}

// KindFromName maps a source type-name token (as produced by the
// parser's ast.TypeRef.Name) to its Kind.
func KindFromName(name string) (Kind, bool) {
	k, ok := kindNames[name]
	return k, ok
}

// IsVector reports whether k is one of Vec2/Vec3/Vec4.
func IsVector(k Kind) bool { return VectorComponents(k) > 0 }

// IsMatrix reports whether k is one of Mat2/Mat3/Mat4.
func IsMatrix(k Kind) bool { return MatrixComponents(k) > 0 }

// VecOf returns the vector Kind with n components, or an error if n is
// out of range [2,4].
func VecOf(n int) (Kind, error) {
	switch n {
	case 2:
		return Vec2, nil
	case 3:
		return Vec3, nil
	case 4:
		return Vec4, nil
	}
	return Void, fmt.Errorf("types: no vector kind with %d components", n)
}

// ParamSpec describes one declared kernel parameter.
type ParamSpec struct {
	Name     string
	Type     Type
	IsStatic bool
}

// Target is a kernel function's declared target.
type Target int

const (
	TargetRender Target = iota
	TargetReduce
)

func (t Target) String() string {
	if t == TargetReduce {
		return "reduce"
	}
	return "render"
}
