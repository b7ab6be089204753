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

package ir

import (
	"fmt"

	llvm "github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/rjw57/firtree/internal/types"
)

// Target mirrors types.Target: which harness entry point a kernel
// function is destined for.
type Target int

const (
	TargetRender Target = iota
	TargetReduce
)

// LLVMType maps a Firtree types.Kind onto its llir/llvm representation.
// Vectors become LLVM vector types of float; matrices become flat
// float arrays in row-major order; Sampler is represented as an opaque
// i64 handle, resolved away entirely by the linker before any
// sampler-typed value reaches a render function.
func LLVMType(k types.Kind) lltypes.Type {
	switch k {
	case types.Void:
		return lltypes.Void
	case types.Bool:
		return lltypes.I1
	case types.Int:
		return lltypes.I32
	case types.Float:
		return lltypes.Float
	case types.Vec2:
		return lltypes.NewVector(2, lltypes.Float)
	case types.Vec3:
		return lltypes.NewVector(3, lltypes.Float)
	case types.Vec4:
		return lltypes.NewVector(4, lltypes.Float)
	case types.Mat2:
		return lltypes.NewArray(4, lltypes.Float)
	case types.Mat3:
		return lltypes.NewArray(9, lltypes.Float)
	case types.Mat4:
		return lltypes.NewArray(16, lltypes.Float)
	case types.Sampler:
		return lltypes.I64
	}
	panic(fmt.Sprintf("ir: no LLVM type for kind %v", k))
}

// Signature is a function's LLVM-visible shape together with the
// Firtree parameter metadata (name, static bit) the linker and JIT
// consult; plain llir/llvm has no parameter-metadata slot of its own.
type Signature struct {
	Return lltypes.Type
	Params []ParamInfo
}

// ParamInfo is one parameter's Firtree-level metadata, carried
// alongside the llir/llvm *ir.Param the emitter creates for it.
type ParamInfo struct {
	Name   string
	Kind   types.Kind
	Static bool
}

func (s *Signature) llvmParams() []*llvm.Param {
	ps := make([]*llvm.Param, len(s.Params))
	for i, p := range s.Params {
		ps[i] = llvm.NewParam(p.Name, LLVMType(p.Kind))
	}
	return ps
}
