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
	"github.com/llir/llvm/ir/value"

	"github.com/rjw57/firtree/internal/ast"
	fir "github.com/rjw57/firtree/internal/ir"
	"github.com/rjw57/firtree/internal/types"
)

func (fc *fnCtx) emitBlock(b *ast.Block) {
	for _, s := range b.Stmts {
		if fc.didRet {
			break // dead code after a terminator; nothing more to lower
		}
		fc.stmt(s)
	}
}

func (fc *fnCtx) stmt(n ast.Node) {
	switch s := n.(type) {
	case *ast.Block:
		fc.emitBlock(s)
	case *ast.VarDecl:
		fc.varDecl(s)
	case *ast.Assign:
		fc.assign(s)
	case *ast.ExprStmt:
		fc.expr(s.Expr)
	case *ast.Return:
		fc.ret(s)
	case *ast.If:
		fc.ifStmt(s)
	case *ast.For:
		fc.forStmt(s)
	case *ast.While:
		fc.whileStmt(s)
	case *ast.DoWhile:
		fc.doWhileStmt(s)
	case *ast.Break:
		fc.breakStmt(s)
	case *ast.Continue:
		fc.continueStmt(s)
	default:
		fc.e.errf(n.Position(), "SyntaxError", "unsupported statement")
	}
}

func (fc *fnCtx) varDecl(v *ast.VarDecl) {
	var typ types.Type
	var initVal typed
	haveInit := v.Init != nil
	if haveInit {
		initVal = fc.expr(v.Init)
		if !initVal.ok() {
			return
		}
	}
	if v.Type != nil {
		t, ok := fc.e.resolveType(v.Type, false, types.DirIn)
		if !ok {
			return
		}
		typ = t
	} else if haveInit {
		typ = types.Type{Kind: initVal.kind}
	} else {
		fc.e.errf(v.Position(), "TypeMismatch", "variable %q needs a type or initializer", v.Name)
		return
	}
	ptr := fc.b.Alloca(fir.LLVMType(typ.Kind))
	fc.vars[v.Name] = &localVar{typ: typ, ptr: ptr, isAlloca: true}
	if haveInit {
		val := initVal.val
		if initVal.kind != typ.Kind {
			pv, ok := fc.promoteTo(val, initVal.kind, typ.Kind)
			if !ok {
				fc.e.errf(v.Position(), "TypeMismatch", "cannot initialise %s from %s", typ.Kind, initVal.kind)
				return
			}
			val = pv
		}
		fc.b.Store(val, ptr)
	}
}

func (fc *fnCtx) assign(a *ast.Assign) {
	id, ok := a.Target.(*ast.Ident)
	if !ok {
		fc.e.errf(a.Position(), "TypeMismatch", "assignment target must be a variable")
		return
	}
	lv, ok := fc.vars[id.Name]
	if !ok {
		fc.e.errf(a.Position(), "UndeclaredIdentifier", "undeclared identifier %q", id.Name)
		return
	}
	if !lv.isAlloca {
		// A parameter assigned for the first time: promote it to a
		// genuine stack slot so subsequent reads see the mutation.
		ptr := fc.b.Alloca(fir.LLVMType(lv.typ.Kind))
		fc.b.Store(lv.ptr, ptr)
		lv.ptr = ptr
		lv.isAlloca = true
	}
	rhs := fc.expr(a.Value)
	if !rhs.ok() {
		return
	}
	val := rhs.val
	if a.Op != "=" {
		if rhs.kind != lv.typ.Kind {
			pv, ok := fc.promoteTo(val, rhs.kind, lv.typ.Kind)
			if !ok {
				fc.e.errf(a.Position(), "TypeMismatch", "cannot apply %q with %s to %s", a.Op, rhs.kind, lv.typ.Kind)
				return
			}
			val = pv
		}
		cur := fc.b.Load(fir.LLVMType(lv.typ.Kind), lv.ptr)
		op := map[string]string{"+=": "+", "-=": "-", "*=": "*", "/=": "/"}[a.Op]
		res := fc.arith(op, lv.typ.Kind, cur, val)
		if !res.ok() {
			fc.e.errf(a.Position(), "TypeMismatch", "cannot apply %q to %s", a.Op, lv.typ.Kind)
			return
		}
		val = res.val
	} else if rhs.kind != lv.typ.Kind {
		pv, ok := fc.promoteTo(val, rhs.kind, lv.typ.Kind)
		if !ok {
			fc.e.errf(a.Position(), "TypeMismatch", "cannot assign %s to %s", rhs.kind, lv.typ.Kind)
			return
		}
		val = pv
	}
	fc.b.Store(val, lv.ptr)
}

func (fc *fnCtx) ret(r *ast.Return) {
	if r.Value == nil {
		if fc.fi.ret.Kind != types.Void {
			fc.e.errf(r.Position(), "TypeMismatch", "bare return in non-void function %q", fc.fi.name)
			return
		}
		fc.b.Ret(nil)
		fc.didRet = true
		return
	}
	v := fc.expr(r.Value)
	if !v.ok() {
		return
	}
	val := v.val
	if v.kind != fc.fi.ret.Kind {
		pv, ok := fc.promoteTo(val, v.kind, fc.fi.ret.Kind)
		if !ok {
			fc.e.errf(r.Position(), "TypeMismatch", "cannot return %s from function declared %s", v.kind, fc.fi.ret.Kind)
			return
		}
		val = pv
	}
	fc.b.Ret(val)
	fc.didRet = true
}

func (fc *fnCtx) condValue(n ast.Node) (value.Value, bool) {
	v := fc.expr(n)
	if !v.ok() {
		return nil, false
	}
	if v.kind != types.Bool {
		fc.e.errf(n.Position(), "TypeMismatch", "condition must be bool, got %s", v.kind)
		return nil, false
	}
	return v.val, true
}

func (fc *fnCtx) ifStmt(s *ast.If) {
	cond, ok := fc.condValue(s.Cond)
	if !ok {
		return
	}
	thenBlk := fc.fn.NewBlock("if.then")
	joinBlk := fc.fn.NewBlock("if.end")
	elseBlk := joinBlk
	if s.Else != nil {
		elseBlk = fc.fn.NewBlock("if.else")
	}
	fc.b.CondBr(cond, thenBlk, elseBlk)

	fc.b = &fir.Builder{Block: thenBlk}
	fc.didRet = false
	fc.emitBlock(s.Then)
	if !fc.didRet {
		fc.b.Br(joinBlk)
	}
	thenTerminated := fc.didRet

	elseTerminated := false
	if s.Else != nil {
		fc.b = &fir.Builder{Block: elseBlk}
		fc.didRet = false
		fc.emitBlock(s.Else)
		if !fc.didRet {
			fc.b.Br(joinBlk)
		}
		elseTerminated = fc.didRet
	}

	fc.b = &fir.Builder{Block: joinBlk}
	fc.didRet = thenTerminated && elseTerminated && s.Else != nil
}

func (fc *fnCtx) forStmt(s *ast.For) {
	if s.Init != nil {
		fc.stmt(s.Init)
	}
	headBlk := fc.fn.NewBlock("for.cond")
	bodyBlk := fc.fn.NewBlock("for.body")
	postBlk := fc.fn.NewBlock("for.post")
	endBlk := fc.fn.NewBlock("for.end")

	fc.b.Br(headBlk)
	fc.b = &fir.Builder{Block: headBlk}
	if s.Cond != nil {
		cond, ok := fc.condValue(s.Cond)
		if !ok {
			return
		}
		fc.b.CondBr(cond, bodyBlk, endBlk)
	} else {
		fc.b.Br(bodyBlk)
	}

	fc.loops = append(fc.loops, loopCtx{continueBlk: postBlk, breakBlk: endBlk})
	fc.b = &fir.Builder{Block: bodyBlk}
	fc.didRet = false
	fc.emitBlock(s.Body)
	if !fc.didRet {
		fc.b.Br(postBlk)
	}
	fc.loops = fc.loops[:len(fc.loops)-1]

	fc.b = &fir.Builder{Block: postBlk}
	if s.Post != nil {
		fc.stmt(s.Post)
	}
	fc.b.Br(headBlk)

	fc.b = &fir.Builder{Block: endBlk}
	fc.didRet = false
}

func (fc *fnCtx) whileStmt(s *ast.While) {
	headBlk := fc.fn.NewBlock("while.cond")
	bodyBlk := fc.fn.NewBlock("while.body")
	endBlk := fc.fn.NewBlock("while.end")

	fc.b.Br(headBlk)
	fc.b = &fir.Builder{Block: headBlk}
	cond, ok := fc.condValue(s.Cond)
	if !ok {
		return
	}
	fc.b.CondBr(cond, bodyBlk, endBlk)

	fc.loops = append(fc.loops, loopCtx{continueBlk: headBlk, breakBlk: endBlk})
	fc.b = &fir.Builder{Block: bodyBlk}
	fc.didRet = false
	fc.emitBlock(s.Body)
	if !fc.didRet {
		fc.b.Br(headBlk)
	}
	fc.loops = fc.loops[:len(fc.loops)-1]

	fc.b = &fir.Builder{Block: endBlk}
	fc.didRet = false
}

func (fc *fnCtx) doWhileStmt(s *ast.DoWhile) {
	bodyBlk := fc.fn.NewBlock("do.body")
	condBlk := fc.fn.NewBlock("do.cond")
	endBlk := fc.fn.NewBlock("do.end")

	fc.b.Br(bodyBlk)
	fc.loops = append(fc.loops, loopCtx{continueBlk: condBlk, breakBlk: endBlk})
	fc.b = &fir.Builder{Block: bodyBlk}
	fc.didRet = false
	fc.emitBlock(s.Body)
	if !fc.didRet {
		fc.b.Br(condBlk)
	}
	fc.loops = fc.loops[:len(fc.loops)-1]

	fc.b = &fir.Builder{Block: condBlk}
	cond, ok := fc.condValue(s.Cond)
	if ok {
		fc.b.CondBr(cond, bodyBlk, endBlk)
	}

	fc.b = &fir.Builder{Block: endBlk}
	fc.didRet = false
}

func (fc *fnCtx) breakStmt(s *ast.Break) {
	if len(fc.loops) == 0 {
		fc.e.errf(s.Position(), "SyntaxError", "break outside loop")
		return
	}
	fc.b.Br(fc.loops[len(fc.loops)-1].breakBlk)
	fc.didRet = true
}

func (fc *fnCtx) continueStmt(s *ast.Continue) {
	if len(fc.loops) == 0 {
		fc.e.errf(s.Position(), "SyntaxError", "continue outside loop")
		return
	}
	fc.b.Br(fc.loops[len(fc.loops)-1].continueBlk)
	fc.didRet = true
}
