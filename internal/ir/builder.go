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
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// Builder wraps one llir/llvm *ir.Block with the handful of
// construction helpers expression lowering needs. Firtree's kernel
// language needs only scalar/vector arithmetic, comparisons, calls and
// memory ops, so the surface stays deliberately small.
type Builder struct {
	Block *llvm.Block
}

// ConstFloat builds an f32 constant.
func (b *Builder) ConstFloat(f float32) value.Value {
	return constant.NewFloat(lltypes.Float, float64(f))
}

// ConstInt builds an i32 constant.
func (b *Builder) ConstInt(i int32) value.Value {
	return constant.NewInt(lltypes.I32, int64(i))
}

// ConstBool builds an i1 constant.
func (b *Builder) ConstBool(v bool) value.Value {
	return constant.NewBool(v)
}

// ConstVec builds a constant vector of len(c) floats.
func (b *Builder) ConstVec(c []float32) value.Value {
	elems := make([]constant.Constant, len(c))
	for i, f := range c {
		elems[i] = constant.NewFloat(lltypes.Float, float64(f))
	}
	return constant.NewVector(lltypes.NewVector(uint64(len(c)), lltypes.Float), elems...)
}

// ConstMat builds a constant row-major flat array of n*n floats.
func (b *Builder) ConstMat(c []float32) value.Value {
	n := len(c)
	elems := make([]constant.Constant, n)
	for i, f := range c {
		elems[i] = constant.NewFloat(lltypes.Float, float64(f))
	}
	return constant.NewArray(lltypes.NewArray(uint64(n), lltypes.Float), elems...)
}

// Alloca emits a stack slot for a local variable.
func (b *Builder) Alloca(t lltypes.Type) *llvm.InstAlloca { return b.Block.NewAlloca(t) }

// Load emits a load from ptr.
func (b *Builder) Load(t lltypes.Type, ptr value.Value) *llvm.InstLoad { return b.Block.NewLoad(t, ptr) }

// Store emits a store of src into dst.
func (b *Builder) Store(src, dst value.Value) *llvm.InstStore { return b.Block.NewStore(src, dst) }

// ExtractElement reads one lane of a vector value.
func (b *Builder) ExtractElement(vec value.Value, index uint32) *llvm.InstExtractElement {
	return b.Block.NewExtractElement(vec, constant.NewInt(lltypes.I32, int64(index)))
}

// InsertElement writes one lane of a vector value, returning the new
// vector value (vectors are immutable SSA values, so swizzle-write
// lowers to a chain of these).
func (b *Builder) InsertElement(vec, elem value.Value, index uint32) *llvm.InstInsertElement {
	return b.Block.NewInsertElement(vec, elem, constant.NewInt(lltypes.I32, int64(index)))
}

// ExtractValue reads one element of an aggregate (matrix array) value.
func (b *Builder) ExtractValue(agg value.Value, index uint64) *llvm.InstExtractValue {
	return b.Block.NewExtractValue(agg, index)
}

// Call emits a call to callee with args.
func (b *Builder) Call(callee value.Value, args ...value.Value) *llvm.InstCall {
	return b.Block.NewCall(callee, args...)
}

// Ret emits a return terminator (nil x means a void return).
func (b *Builder) Ret(x value.Value) *llvm.TermRet {
	if x == nil {
		return b.Block.NewRet(nil)
	}
	return b.Block.NewRet(x)
}

// Br emits an unconditional branch.
func (b *Builder) Br(target *llvm.Block) *llvm.TermBr { return b.Block.NewBr(target) }

// CondBr emits a conditional branch.
func (b *Builder) CondBr(cond value.Value, t, f *llvm.Block) *llvm.TermCondBr {
	return b.Block.NewCondBr(cond, t, f)
}

// Phi emits a phi node from the given (value, predecessor) incomings,
// used exclusively for short-circuit && and || lowering.
func (b *Builder) Phi(incs ...*llvm.Incoming) *llvm.InstPhi { return b.Block.NewPhi(incs...) }

// Incoming builds one phi incoming edge.
func Incoming(x value.Value, pred *llvm.Block) *llvm.Incoming { return llvm.NewIncoming(x, pred) }
