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

package emitter

import (
	llvm "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/value"

	"github.com/rjw57/firtree/internal/ast"
	fir "github.com/rjw57/firtree/internal/ir"
	"github.com/rjw57/firtree/internal/types"
)

// call resolves a call site against either a user-declared function
// (an exact-arity, exact-or-promoted-type match against its single
// signature) or the builtin table (full overload resolution). Builtin
// calls resolved to one of the three sampler intrinsics (or
// emit/destCoord) are tagged into fn.Intrinsics rather than left for
// later string-matching.
func (fc *fnCtx) call(c *ast.Call) typed {
	if fi, ok := fc.e.funcs[c.Callee]; ok {
		return fc.callUser(c, fi)
	}
	return fc.callBuiltin(c)
}

func (fc *fnCtx) callUser(c *ast.Call, fi *funcInfo) typed {
	if len(c.Args) != len(fi.params) {
		fc.e.errf(c.Position(), "OverloadNotFound", "%s takes %d arguments, got %d", c.Callee, len(fi.params), len(c.Args))
		return invalid
	}
	args := make([]value.Value, len(c.Args))
	for i, a := range c.Args {
		v := fc.expr(a)
		if !v.ok() {
			return invalid
		}
		want := fi.params[i].Type.Kind
		if v.kind != want {
			pv, ok := fc.promoteTo(v.val, v.kind, want)
			if !ok {
				fc.e.errf(a.Position(), "TypeMismatch", "argument %d to %s: cannot use %s as %s", i, c.Callee, v.kind, want)
				return invalid
			}
			v.val = pv
		}
		args[i] = v.val
	}
	if fi.fn == nil {
		fc.e.errf(c.Position(), "UndeclaredIdentifier", "function %q used before its definition completed", c.Callee)
		return invalid
	}
	callee := value.Value(fi.fn.LLVM)
	return typed{fi.ret.Kind, fc.b.Call(callee, args...)}
}

func (fc *fnCtx) callBuiltin(c *ast.Call) typed {
	argKinds := make([]types.Kind, len(c.Args))
	argVals := make([]typed, len(c.Args))
	for i, a := range c.Args {
		v := fc.expr(a)
		if !v.ok() {
			return invalid
		}
		argVals[i] = v
		argKinds[i] = v.kind
	}
	b, ok := types.ResolveOverload(c.Callee, argKinds)
	if !ok {
		fc.e.errf(c.Position(), "OverloadNotFound", "no matching overload for %s(%s)", c.Callee, kindList(argKinds))
		return invalid
	}
	args := make([]value.Value, len(argVals))
	for i, v := range argVals {
		want := b.Params[i]
		if v.kind != want {
			pv, _ := fc.promoteTo(v.val, v.kind, want)
			args[i] = pv
		} else {
			args[i] = v.val
		}
	}
	if b.Intrinsic != types.IntrinsicNone {
		return fc.callIntrinsic(c, b, args)
	}
	fn := fc.externBuiltin(b)
	return typed{b.Return, fc.b.Call(value.Value(fn), args...)}
}

// externBuiltin declares (idempotently) an external reference to a
// builtin function resolved against the always-linked builtins
// module.
func (fc *fnCtx) externBuiltin(b *types.Builtin) *llvm.Func {
	name := "ft.builtin." + b.Name + "." + b.Return.String()
	if f, ok := fc.e.mod.Lookup(name); ok {
		return f.LLVM
	}
	sig := &fir.Signature{Return: fir.LLVMType(b.Return)}
	for i, p := range b.Params {
		sig.Params = append(sig.Params, fir.ParamInfo{Name: paramName(i), Kind: p})
	}
	fn := fc.e.mod.NewFunction(name, sig, fir.TargetRender, false)
	return fn.LLVM
}

func paramName(i int) string {
	names := []string{"a", "b", "c", "d"}
	if i < len(names) {
		return names[i]
	}
	return "arg"
}

// callIntrinsic tags a sampler/emit/destCoord call site instead of
// emitting an ordinary external call: the linker and the reduce
// harness rewrite these by scanning fn.Intrinsics, never by matching
// callee names across every instruction.
func (fc *fnCtx) callIntrinsic(c *ast.Call, b *types.Builtin, args []value.Value) typed {
	name := "ft.intrinsic." + b.Name
	if b.Intrinsic == types.IntrinsicEmit {
		// emit is the one overloaded intrinsic; give each overload its
		// own declaration so the shared name never carries a signature
		// from a different reduce-output type.
		name += "." + b.Params[0].String()
	}
	fn, ok := fc.e.mod.Lookup(name)
	if !ok {
		sig := &fir.Signature{Return: fir.LLVMType(b.Return)}
		for i, p := range b.Params {
			sig.Params = append(sig.Params, fir.ParamInfo{Name: paramName(i), Kind: p})
		}
		fn = fc.e.mod.NewFunction(name, sig, fir.TargetRender, false)
	}
	inst := fc.b.Call(value.Value(fn.LLVM), args...)

	samplerParam := ""
	if len(c.Args) > 0 {
		if id, ok := c.Args[0].(*ast.Ident); ok {
			samplerParam = id.Name
		}
	}
	fc.fn.AddIntrinsic(intrinsicKind(b.Intrinsic), inst, samplerParam)
	return typed{b.Return, inst}
}

func intrinsicKind(k types.Intrinsic) fir.IntrinsicKind {
	switch k {
	case types.IntrinsicSample:
		return fir.IntrinsicSample
	case types.IntrinsicSamplerTransform:
		return fir.IntrinsicSamplerTransform
	case types.IntrinsicSamplerExtent:
		return fir.IntrinsicSamplerExtent
	case types.IntrinsicEmit:
		return fir.IntrinsicEmit
	case types.IntrinsicDestCoord:
		return fir.IntrinsicDestCoord
	}
	return fir.IntrinsicNone
}

func kindList(ks []types.Kind) string {
	s := ""
	for i, k := range ks {
		if i > 0 {
			s += ", "
		}
		s += k.String()
	}
	return s
}
