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
	llvm "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
)

// IntrinsicKind identifies one of the linker-specialised sampler
// intrinsics (sample, samplerTransform, samplerExtent) or the
// emit()/destCoord() builtins that receive the same call-site tagging.
type IntrinsicKind int

const (
	IntrinsicNone IntrinsicKind = iota
	IntrinsicSample
	IntrinsicSamplerTransform
	IntrinsicSamplerExtent
	IntrinsicEmit
	IntrinsicDestCoord
)

// IntrinsicCall tags one intrinsic call site at emission time instead
// of leaving it to be found later by string-matching callee names on
// every instruction. SamplerParam is the name of the sampler-typed
// parameter the call's first argument refers to, resolved once at
// emission time; the linker uses it directly rather than re-deriving
// it from the cloned IR.
type IntrinsicCall struct {
	Kind         IntrinsicKind
	Inst         *llvm.InstCall
	SamplerParam string
}

// Function pairs a real llir/llvm *ir.Func with its Firtree-specific
// metadata: the declared kernel target, the Firtree parameter list
// (with static bits), and the tagged intrinsic call sites within its
// body.
type Function struct {
	LLVM       *llvm.Func
	Name       string
	Sig        *Signature
	Target     Target
	IsKernel   bool
	Intrinsics []*IntrinsicCall

	// NativeSampler, when non-nil, makes this Function a leaf native
	// colour source instead of an IR body to walk: the linker emits one
	// per buffer-provider leaf of a sampler DAG, since a raw pixel
	// buffer has no kernel IR of its own to clone. The JIT interpreter
	// (internal/jit/interp) calls this directly instead of evaluating
	// LLVM.Blocks.
	NativeSampler func(x, y float32) [4]float32
}

// SetExported sets the function's LLVM linkage to external (the single
// root function after linking) or internal (every other function in a
// linked module), so that dead-code elimination is free to drop
// anything unreachable from the external root.
func (f *Function) SetExported(exported bool) {
	if exported {
		f.LLVM.Linkage = enum.LinkageExternal
	} else {
		f.LLVM.Linkage = enum.LinkageInternal
	}
}

// Param returns the i'th llir/llvm parameter value.
func (f *Function) Param(i int) *llvm.Param { return f.LLVM.Params[i] }

// NewBlock creates and appends a new basic block.
func (f *Function) NewBlock(name string) *llvm.Block { return f.LLVM.NewBlock(name) }

// AddIntrinsic records a tagged intrinsic call site.
func (f *Function) AddIntrinsic(kind IntrinsicKind, inst *llvm.InstCall, samplerParam string) {
	f.Intrinsics = append(f.Intrinsics, &IntrinsicCall{Kind: kind, Inst: inst, SamplerParam: samplerParam})
}

// ParamByName returns the ParamInfo and llir/llvm value for a named
// parameter, or ok=false if there is none.
func (f *Function) ParamByName(name string) (ParamInfo, *llvm.Param, bool) {
	for i, p := range f.Sig.Params {
		if p.Name == name {
			return p, f.LLVM.Params[i], true
		}
	}
	return ParamInfo{}, nil, false
}
