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

// Clone deep-copies fn's blocks, instructions and intrinsic tags into a
// freshly declared function named newName within dst. Every llir/llvm
// value produced within the old function (block labels, instruction
// results, parameters) is consistently remapped to its clone so that
// intra-function references still resolve after the copy.
func (fn *Function) Clone(dst *Module, newName string) *Function {
	out := dst.NewFunction(newName, fn.Sig, fn.Target, fn.IsKernel)
	remap := map[value.Value]value.Value{}
	for i, p := range fn.LLVM.Params {
		remap[p] = out.LLVM.Params[i]
	}
	copyBody(fn, out, remap, nil)
	return out
}

// CloneWithSignature is the linker's variant of Clone: it declares the
// clone with an explicitly different signature instead of fn's own, and
// takes seedRemap (pre-resolved substitutions for values that no longer
// exist as parameters, the static/dynamic parameter bindings) and a
// preamble (instructions to prepend to the cloned entry block,
// typically the InstLoad that realises a dynamic binding's
// indirection). Parameters of fn that have no entry in seedRemap and
// are not referenced by the preamble are simply dropped: safe for
// sampler-typed parameters, whose only legitimate use is as the first
// argument of a sample/samplerTransform/samplerExtent call, all of
// which the linker rewrites wholesale after cloning.
func (fn *Function) CloneWithSignature(dst *Module, newName string, sig *Signature, seedRemap map[value.Value]value.Value, preamble []llvm.Instruction) *Function {
	out := dst.NewFunction(newName, sig, fn.Target, fn.IsKernel)
	remap := map[value.Value]value.Value{}
	for k, v := range seedRemap {
		remap[k] = v
	}
	copyBody(fn, out, remap, preamble)
	return out
}

// copyBody clones fn's blocks/instructions/terminators/intrinsic tags
// into out, consulting remap (already seeded by the caller for anything
// that should resolve to something other than a 1:1 clone) and
// prepending preamble to the cloned entry block.
func copyBody(fn *Function, out *Function, remap map[value.Value]value.Value, preamble []llvm.Instruction) {
	blockRemap := map[*llvm.Block]*llvm.Block{}
	for _, b := range fn.LLVM.Blocks {
		blockRemap[b] = out.NewBlock(b.LocalIdent.LocalName)
	}

	for bi, b := range fn.LLVM.Blocks {
		nb := blockRemap[b]
		if bi == 0 && len(preamble) > 0 {
			nb.Insts = append(nb.Insts, preamble...)
		}
		for _, inst := range b.Insts {
			var ni llvm.Instruction
			if phi, ok := inst.(*llvm.InstPhi); ok {
				ni = clonePhi(phi, remap, blockRemap)
			} else {
				ni = cloneInst(inst, remap)
			}
			nb.Insts = append(nb.Insts, ni)
			if v, ok := inst.(value.Value); ok {
				if nv, ok := ni.(value.Value); ok {
					remap[v] = nv
				}
			}
		}
		nb.Term = cloneTerm(b.Term, remap, blockRemap)
	}

	for _, ic := range fn.Intrinsics {
		if nv, ok := remap[value.Value(ic.Inst)]; ok {
			if nc, ok := nv.(*llvm.InstCall); ok {
				out.AddIntrinsic(ic.Kind, nc, ic.SamplerParam)
				continue
			}
		}
		// Defensive fallback: keep the original tag shape even if the
		// remap lookup above ever misses (it should not for call
		// instructions, which always produce a result value).
		out.AddIntrinsic(ic.Kind, ic.Inst, ic.SamplerParam)
	}
}

func remapValue(v value.Value, remap map[value.Value]value.Value) value.Value {
	if nv, ok := remap[v]; ok {
		return nv
	}
	return v // constants and globals need no remapping
}

func cloneInst(inst llvm.Instruction, remap map[value.Value]value.Value) llvm.Instruction {
	switch v := inst.(type) {
	case *llvm.InstFAdd:
		return &llvm.InstFAdd{X: remapValue(v.X, remap), Y: remapValue(v.Y, remap)}
	case *llvm.InstFSub:
		return &llvm.InstFSub{X: remapValue(v.X, remap), Y: remapValue(v.Y, remap)}
	case *llvm.InstFMul:
		return &llvm.InstFMul{X: remapValue(v.X, remap), Y: remapValue(v.Y, remap)}
	case *llvm.InstFDiv:
		return &llvm.InstFDiv{X: remapValue(v.X, remap), Y: remapValue(v.Y, remap)}
	case *llvm.InstAdd:
		return &llvm.InstAdd{X: remapValue(v.X, remap), Y: remapValue(v.Y, remap)}
	case *llvm.InstSub:
		return &llvm.InstSub{X: remapValue(v.X, remap), Y: remapValue(v.Y, remap)}
	case *llvm.InstMul:
		return &llvm.InstMul{X: remapValue(v.X, remap), Y: remapValue(v.Y, remap)}
	case *llvm.InstSDiv:
		return &llvm.InstSDiv{X: remapValue(v.X, remap), Y: remapValue(v.Y, remap)}
	case *llvm.InstFNeg:
		return &llvm.InstFNeg{X: remapValue(v.X, remap)}
	case *llvm.InstXor:
		return &llvm.InstXor{X: remapValue(v.X, remap), Y: remapValue(v.Y, remap)}
	case *llvm.InstSIToFP:
		return &llvm.InstSIToFP{From: remapValue(v.From, remap), To: v.To}
	case *llvm.InstFCmp:
		return &llvm.InstFCmp{Pred: v.Pred, X: remapValue(v.X, remap), Y: remapValue(v.Y, remap)}
	case *llvm.InstICmp:
		return &llvm.InstICmp{Pred: v.Pred, X: remapValue(v.X, remap), Y: remapValue(v.Y, remap)}
	case *llvm.InstAlloca:
		return &llvm.InstAlloca{ElemType: v.ElemType}
	case *llvm.InstLoad:
		return &llvm.InstLoad{ElemType: v.ElemType, Src: remapValue(v.Src, remap)}
	case *llvm.InstStore:
		return &llvm.InstStore{Src: remapValue(v.Src, remap), Dst: remapValue(v.Dst, remap)}
	case *llvm.InstExtractElement:
		return &llvm.InstExtractElement{X: remapValue(v.X, remap), Index: remapValue(v.Index, remap)}
	case *llvm.InstInsertElement:
		return &llvm.InstInsertElement{X: remapValue(v.X, remap), Elem: remapValue(v.Elem, remap), Index: remapValue(v.Index, remap)}
	case *llvm.InstExtractValue:
		return &llvm.InstExtractValue{X: remapValue(v.X, remap), Indices: v.Indices}
	case *llvm.InstCall:
		args := make([]value.Value, len(v.Args))
		for i, a := range v.Args {
			args[i] = remapValue(a, remap)
		}
		return &llvm.InstCall{Callee: remapValue(v.Callee, remap), Args: args}
	}
	return inst
}

// clonePhi is split out because it needs the block remap, unlike the
// value-only substitutions in cloneInst above.
func clonePhi(v *llvm.InstPhi, remap map[value.Value]value.Value, blocks map[*llvm.Block]*llvm.Block) *llvm.InstPhi {
	incs := make([]*llvm.Incoming, len(v.Incs))
	for i, in := range v.Incs {
		incs[i] = llvm.NewIncoming(remapValue(in.X, remap), remapBlock(in.Pred, blocks))
	}
	return &llvm.InstPhi{Incs: incs}
}

func cloneTerm(term llvm.Terminator, remap map[value.Value]value.Value, blocks map[*llvm.Block]*llvm.Block) llvm.Terminator {
	switch v := term.(type) {
	case *llvm.TermRet:
		if v.X == nil {
			return &llvm.TermRet{}
		}
		return &llvm.TermRet{X: remapValue(v.X, remap)}
	case *llvm.TermBr:
		return &llvm.TermBr{Target: remapBlock(v.Target, blocks)}
	case *llvm.TermCondBr:
		return &llvm.TermCondBr{
			Cond:        remapValue(v.Cond, remap),
			TargetTrue:  remapBlock(v.TargetTrue, blocks),
			TargetFalse: remapBlock(v.TargetFalse, blocks),
		}
	}
	return term
}

// remapBlock maps a terminator/phi block operand (typed value.Value by
// llir/llvm, but always an *ir.Block in well-formed IR) to its clone.
func remapBlock(v value.Value, blocks map[*llvm.Block]*llvm.Block) *llvm.Block {
	return blocks[v.(*llvm.Block)]
}
