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

// Package emitter walks an internal/ast tree, type-checks every
// expression, resolves overloads against internal/types' builtin
// table, and lowers each kernel/function declaration to one typed SSA
// internal/ir.Function. Diagnostics for a single failing function are
// accumulated and emission of that function alone is abandoned; the
// rest of the module still emits.
package emitter

import (
	llvm "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/rjw57/firtree/internal/ast"
	"github.com/rjw57/firtree/internal/ftlog"
	fir "github.com/rjw57/firtree/internal/ir"
	"github.com/rjw57/firtree/internal/types"
)

// FuncDesc describes one emitted kernel function: name, target,
// return type, parameter list and the IR function carrying its body.
// Helper (non-kernel) functions do not get a FuncDesc: only kernel
// declarations are render/reduce entry points.
type FuncDesc struct {
	Name       string
	Target     types.Target
	ReturnType types.Type
	Parameters []types.ParamSpec
	Func       *fir.Function
}

// Emit lowers file to one internal/ir.Module, returning a FuncDesc per
// kernel declaration. filename is used for diagnostic locations. The
// results are named so that hitting the diagnostic limit mid-emission
// still hands back the module and diagnostics accumulated so far.
func Emit(filename string, file *ast.File) (mod *fir.Module, descs []FuncDesc, diags ftlog.DiagList) {
	e := &emitState{filename: filename, mod: fir.NewModule(), funcs: map[string]*funcInfo{}}
	mod = e.mod
	defer func() { diags = e.diags }()
	defer ftlog.Recover()

	// Pass 1: declare every signature up front so forward references
	// (a helper function calling one declared later) resolve.
	for _, d := range file.Decls {
		e.declare(d)
	}
	// Pass 2: emit bodies.
	for _, d := range file.Decls {
		if desc := e.emitDecl(d); desc != nil {
			descs = append(descs, *desc)
		}
	}
	return mod, descs, e.diags
}

type funcInfo struct {
	name    string
	kernel  bool
	reduce  bool
	ret     types.Type
	params  []types.ParamSpec
	astBody *ast.Block
	fn      *fir.Function
}

type emitState struct {
	filename string
	diags    ftlog.DiagList
	mod      *fir.Module
	funcs    map[string]*funcInfo
}

func (e *emitState) errf(pos ast.Pos, kind, format string, args ...interface{}) {
	e.diags.Addf(e.filename, pos.Line, pos.Column, ftlog.Error, kind, format, args...)
}

func (e *emitState) resolveType(tr *ast.TypeRef, static bool, dir types.Direction) (types.Type, bool) {
	k, ok := types.KindFromName(tr.Name)
	if !ok {
		e.errf(tr.Position(), "TypeMismatch", "unknown type %q", tr.Name)
		return types.Type{}, false
	}
	return types.Type{Kind: k, Qualifiers: types.Qualifiers{Const: tr.Const, Static: static, Dir: dir}}, true
}

func dirOf(s string) types.Direction {
	switch s {
	case "out":
		return types.DirOut
	case "inout":
		return types.DirInOut
	default:
		return types.DirIn
	}
}

// declare registers d's signature (without emitting a body) so calls to
// it from earlier-declared functions resolve.
func (e *emitState) declare(d ast.Node) {
	switch n := d.(type) {
	case *ast.Kernel:
		if _, dup := e.funcs[n.Name]; dup {
			e.errf(n.Position(), "DuplicateDefinition", "kernel %q already declared", n.Name)
			return
		}
		ret, ok := e.resolveType(n.ReturnType, false, types.DirIn)
		if !ok {
			return
		}
		params, ok := e.resolveParams(n.Params)
		if !ok {
			return
		}
		e.funcs[n.Name] = &funcInfo{name: n.Name, kernel: true, reduce: n.Reduce, ret: ret, params: params, astBody: n.Body}
	case *ast.Function:
		if _, dup := e.funcs[n.Name]; dup {
			e.errf(n.Position(), "DuplicateDefinition", "function %q already declared", n.Name)
			return
		}
		ret, ok := e.resolveType(n.ReturnType, false, types.DirIn)
		if !ok {
			return
		}
		params, ok := e.resolveParams(n.Params)
		if !ok {
			return
		}
		e.funcs[n.Name] = &funcInfo{name: n.Name, ret: ret, params: params, astBody: n.Body}
	}
}

func (e *emitState) resolveParams(ps []*ast.Param) ([]types.ParamSpec, bool) {
	out := make([]types.ParamSpec, 0, len(ps))
	ok := true
	for _, p := range ps {
		t, to := e.resolveType(p.Type, p.Static, dirOf(p.Dir))
		if !to {
			ok = false
			continue
		}
		out = append(out, types.ParamSpec{Name: p.Name, Type: t, IsStatic: p.Static})
	}
	return out, ok
}

// emitDecl emits one declaration's body, returning a FuncDesc if d is
// a kernel. When emitBody reports failure this func returns nil and
// leaves e.diags populated; the function's IR declaration, with
// whatever body was built, stays in the module.
func (e *emitState) emitDecl(d ast.Node) *FuncDesc {
	switch n := d.(type) {
	case *ast.Kernel:
		fi := e.funcs[n.Name]
		if fi == nil || fi.fn != nil {
			return nil
		}
		fn := e.declareIRFunc(fi, true)
		fi.fn = fn
		if !e.emitBody(fi, fn, n.Body) {
			return nil
		}
		return &FuncDesc{Name: n.Name, Target: types.Target(fn.Target), ReturnType: fi.ret, Parameters: fi.params, Func: fn}
	case *ast.Function:
		fi := e.funcs[n.Name]
		if fi == nil || fi.fn != nil {
			return nil
		}
		fn := e.declareIRFunc(fi, false)
		fi.fn = fn
		e.emitBody(fi, fn, n.Body)
		return nil
	}
	return nil
}

func (e *emitState) declareIRFunc(fi *funcInfo, isKernel bool) *fir.Function {
	sig := &fir.Signature{Return: fir.LLVMType(fi.ret.Kind)}
	for _, p := range fi.params {
		sig.Params = append(sig.Params, fir.ParamInfo{Name: p.Name, Kind: p.Type.Kind, Static: p.IsStatic})
	}
	target := fir.TargetRender
	if fi.reduce {
		target = fir.TargetReduce
	}
	return e.mod.NewFunction(fi.name, sig, target, isKernel)
}

// fnCtx is per-function emission state: the current insertion block,
// the local/parameter symbol table and the enclosing loop stack for
// break/continue.
type fnCtx struct {
	e      *emitState
	fi     *funcInfo
	fn     *fir.Function
	b      *fir.Builder
	vars   map[string]*localVar
	loops  []loopCtx
	didRet bool // whether the current block has already been terminated
}

type localVar struct {
	typ      types.Type
	ptr      value.Value // alloca pointer if isAlloca, else the value itself
	isAlloca bool
}

type loopCtx struct {
	continueBlk *llvm.Block
	breakBlk    *llvm.Block
}

func (e *emitState) emitBody(fi *funcInfo, fn *fir.Function, body *ast.Block) bool {
	entry := fn.NewBlock("entry")
	fc := &fnCtx{e: e, fi: fi, fn: fn, b: &fir.Builder{Block: entry}, vars: map[string]*localVar{}}
	for i, p := range fi.params {
		fc.vars[p.Name] = &localVar{typ: p.Type, ptr: valueOf(fn.Param(i))}
	}
	fc.emitBlock(body)
	if !fc.didRet {
		if fi.ret.Kind == types.Void {
			fc.b.Ret(nil)
		} else {
			e.errf(body.Position(), "BadKernelSignature", "missing return in non-void function %q", fi.name)
			return false
		}
	}
	fir.Mem2Reg(fn)
	return true
}

// valueOf narrows a *llvm.Param (which satisfies value.Value) down to
// the value.Value interface for storage alongside other SSA values in
// localVar.
func valueOf(p *llvm.Param) value.Value { return p }
