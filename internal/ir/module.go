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

// Package ir is Firtree's SSA IR module/function/block wrapper, built
// on github.com/llir/llvm (ir, ir/types, ir/constant, ir/enum). One
// Module owns a set of Functions; each Function pairs a real llvm
// *ir.Func with the Firtree-specific metadata (kernel target, parameter
// static bits, tagged intrinsic call sites) that the emitter, linker
// and JIT need and that plain LLVM IR has no room for.
package ir

import (
	llvm "github.com/llir/llvm/ir"
)

// Module is a destination for emitted or linked IR functions.
type Module struct {
	LLVM    *llvm.Module
	Funcs   []*Function
	Globals []*Global
	byName  map[string]*Function
	byLLVM  map[*llvm.Func]*Function
}

// NewModule creates an empty module.
func NewModule() *Module {
	return &Module{LLVM: llvm.NewModule(), byName: map[string]*Function{}, byLLVM: map[*llvm.Func]*Function{}}
}

// NewFunction declares a new function in m and registers it for lookup
// by name. target/isKernel record whether this is a kernel entry point,
// as opposed to a helper function or a builtin declaration.
func (m *Module) NewFunction(name string, sig *Signature, target Target, isKernel bool) *Function {
	llf := m.LLVM.NewFunc(name, sig.Return, sig.llvmParams()...)
	fn := &Function{
		LLVM:     llf,
		Name:     name,
		Sig:      sig,
		Target:   target,
		IsKernel: isKernel,
	}
	m.Funcs = append(m.Funcs, fn)
	m.byName[name] = fn
	m.byLLVM[llf] = fn
	return fn
}

// Lookup finds a function previously registered with NewFunction (or
// AddFunction) by name.
func (m *Module) Lookup(name string) (*Function, bool) {
	fn, ok := m.byName[name]
	return fn, ok
}

// FuncByLLVM finds the Function wrapping a given *llvm.Func by pointer
// identity, used by the JIT interpreter (internal/jit/interp) to recover
// Firtree-level metadata (NativeSampler, Intrinsics) from a call
// instruction's bare callee value.
func (m *Module) FuncByLLVM(f *llvm.Func) (*Function, bool) {
	fn, ok := m.byLLVM[f]
	return fn, ok
}

// AddFunction registers an already-constructed Function, as the
// linker's clone step does.
func (m *Module) AddFunction(fn *Function) {
	m.Funcs = append(m.Funcs, fn)
	m.byName[fn.Name] = fn
	m.byLLVM[fn.LLVM] = fn
}

// RemoveUnreachable drops every function from m that is not root and
// not transitively called from root: the dead-code sweep over a linked
// module. Every per-provider clone the linker emitted but the final
// specialised call graph no longer reaches (an intrinsic rewrite that
// replaced a call with a constant, say) is pruned before the JIT hands
// back a function pointer.
func (m *Module) RemoveUnreachable(root *Function) {
	keep := map[*Function]bool{}
	var walk func(f *Function)
	walk = func(f *Function) {
		if f == nil || keep[f] {
			return
		}
		keep[f] = true
		for _, b := range f.LLVM.Blocks {
			for _, inst := range b.Insts {
				call, ok := inst.(*llvm.InstCall)
				if !ok {
					continue
				}
				if callee, ok := call.Callee.(*llvm.Func); ok {
					if cf, ok := m.byLLVM[callee]; ok {
						walk(cf)
					}
				}
			}
		}
	}
	walk(root)
	var kept []*Function
	for _, f := range m.Funcs {
		if keep[f] {
			kept = append(kept, f)
			continue
		}
		delete(m.byName, f.Name)
		delete(m.byLLVM, f.LLVM)
	}
	m.Funcs = kept
}

// String renders the module as textual LLVM IR (the CLI's -print=llvm
// mode).
func (m *Module) String() string { return m.LLVM.String() }
