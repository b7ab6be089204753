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

// Mem2Reg promotes locals materialised as alloca+load+store to direct
// SSA values wherever every use of the alloca is confined to a single
// basic block. It is a light pass, not the full dominance-frontier
// promotion a native backend would run. Allocas whose lifetime spans a
// branch (loop-carried locals, values assigned in one arm of an if and
// read after the join) are left as genuine alloca/load/store triples:
// still valid IR, just not promoted.
func Mem2Reg(f *Function) {
	for _, blk := range f.LLVM.Blocks {
		promoteBlock(blk)
	}
}

// promoteBlock rewrites straight-line alloca/store/load chains within a
// single block. An alloca only qualifies if every one of its loads and
// stores in the whole function lies in this block; cross-block allocas
// are left untouched.
func promoteBlock(blk *llvm.Block) {
	// Find allocas declared in this block.
	var allocas []*llvm.InstAlloca
	for _, inst := range blk.Insts {
		if a, ok := inst.(*llvm.InstAlloca); ok {
			allocas = append(allocas, a)
		}
	}
	for _, a := range allocas {
		if !localToBlock(blk, a) {
			continue
		}
		rewriteLocal(blk, a)
	}
}

// localToBlock reports whether every load/store targeting ptr anywhere
// in blk's function also lies within blk. We only have the block handle
// here, so conservatively scan blk.Parent's blocks.
func localToBlock(blk *llvm.Block, ptr value.Value) bool {
	parent := blk.Parent
	if parent == nil {
		return true
	}
	for _, b := range parent.Blocks {
		if b == blk {
			continue
		}
		for _, inst := range b.Insts {
			switch v := inst.(type) {
			case *llvm.InstLoad:
				if v.Src == ptr {
					return false
				}
			case *llvm.InstStore:
				if v.Dst == ptr {
					return false
				}
			}
		}
	}
	return true
}

// rewriteLocal replaces loads of ptr within blk with the most recent
// stored value and drops the now-redundant store/load/alloca
// instructions from the block's instruction list.
func rewriteLocal(blk *llvm.Block, ptr value.Value) {
	var current value.Value
	out := blk.Insts[:0]
	for _, inst := range blk.Insts {
		switch v := inst.(type) {
		case *llvm.InstAlloca:
			if value.Value(v) == ptr {
				continue
			}
		case *llvm.InstStore:
			if v.Dst == ptr {
				current = v.Src
				continue
			}
		case *llvm.InstLoad:
			if v.Src == ptr && current != nil {
				replaceUses(blk, v, current)
				continue
			}
		}
		out = append(out, inst)
	}
	blk.Insts = out
}

// replaceUses substitutes old for new in every instruction and
// terminator operand within blk that is a direct pointer-identity
// reference to old, reusing the full operand walk of rewrite.go. This
// is deliberately block-local (it does not walk the whole module) since
// Mem2Reg only promotes single-block locals, whose uses are by
// construction confined to the same block.
func replaceUses(blk *llvm.Block, old, new value.Value) {
	for _, inst := range blk.Insts {
		substOperands(inst, old, new)
	}
	if blk.Term != nil {
		substTermOperands(blk.Term, old, new)
	}
}
