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
	"github.com/llir/llvm/ir/value"
)

// ReplaceAllUses substitutes every function-wide use of old with new
// (by llir/llvm value identity), across every block's instructions and
// terminator. The linker uses it to resolve destCoord() call results to
// the function's appended coordinate parameter and to specialise
// samplerExtent() results to a constant.
func (f *Function) ReplaceAllUses(old, new value.Value) {
	for _, b := range f.LLVM.Blocks {
		for _, inst := range b.Insts {
			substOperands(inst, old, new)
		}
		if b.Term != nil {
			substTermOperands(b.Term, old, new)
		}
	}
}

func substOperands(inst llvm.Instruction, old, new value.Value) {
	repl := func(v value.Value) value.Value {
		if v == old {
			return new
		}
		return v
	}
	switch v := inst.(type) {
	case *llvm.InstFAdd:
		v.X, v.Y = repl(v.X), repl(v.Y)
	case *llvm.InstFSub:
		v.X, v.Y = repl(v.X), repl(v.Y)
	case *llvm.InstFMul:
		v.X, v.Y = repl(v.X), repl(v.Y)
	case *llvm.InstFDiv:
		v.X, v.Y = repl(v.X), repl(v.Y)
	case *llvm.InstAdd:
		v.X, v.Y = repl(v.X), repl(v.Y)
	case *llvm.InstSub:
		v.X, v.Y = repl(v.X), repl(v.Y)
	case *llvm.InstMul:
		v.X, v.Y = repl(v.X), repl(v.Y)
	case *llvm.InstSDiv:
		v.X, v.Y = repl(v.X), repl(v.Y)
	case *llvm.InstFNeg:
		v.X = repl(v.X)
	case *llvm.InstXor:
		v.X, v.Y = repl(v.X), repl(v.Y)
	case *llvm.InstSIToFP:
		v.From = repl(v.From)
	case *llvm.InstFCmp:
		v.X, v.Y = repl(v.X), repl(v.Y)
	case *llvm.InstICmp:
		v.X, v.Y = repl(v.X), repl(v.Y)
	case *llvm.InstLoad:
		v.Src = repl(v.Src)
	case *llvm.InstStore:
		v.Src, v.Dst = repl(v.Src), repl(v.Dst)
	case *llvm.InstExtractElement:
		v.X, v.Index = repl(v.X), repl(v.Index)
	case *llvm.InstInsertElement:
		v.X, v.Elem, v.Index = repl(v.X), repl(v.Elem), repl(v.Index)
	case *llvm.InstExtractValue:
		v.X = repl(v.X)
	case *llvm.InstCall:
		v.Callee = repl(v.Callee)
		for i, a := range v.Args {
			v.Args[i] = repl(a)
		}
	case *llvm.InstPhi:
		for _, inc := range v.Incs {
			inc.X = repl(inc.X)
		}
	}
}

func substTermOperands(term llvm.Terminator, old, new value.Value) {
	switch v := term.(type) {
	case *llvm.TermRet:
		if v.X == old {
			v.X = new
		}
	case *llvm.TermCondBr:
		if v.Cond == old {
			v.Cond = new
		}
	}
}

// RemoveInst splices inst out of whichever block of f contains it. It
// is a no-op if inst is not found (already removed).
func (f *Function) RemoveInst(inst llvm.Instruction) {
	for _, b := range f.LLVM.Blocks {
		for i, c := range b.Insts {
			if c == inst {
				b.Insts = append(b.Insts[:i], b.Insts[i+1:]...)
				return
			}
		}
	}
}

// InsertBefore splices newInsts into whichever block of f contains
// target, immediately before it. The linker uses it to materialise the
// affine-transform arithmetic a sample()/samplerTransform() rewrite
// needs ahead of the retargeted call instruction.
func (f *Function) InsertBefore(target llvm.Instruction, newInsts ...llvm.Instruction) {
	for _, b := range f.LLVM.Blocks {
		for i, c := range b.Insts {
			if c == target {
				rest := append([]llvm.Instruction{}, b.Insts[i:]...)
				b.Insts = append(b.Insts[:i], newInsts...)
				b.Insts = append(b.Insts, rest...)
				return
			}
		}
	}
}
