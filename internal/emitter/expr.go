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
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/rjw57/firtree/internal/ast"
	fir "github.com/rjw57/firtree/internal/ir"
	"github.com/rjw57/firtree/internal/types"
)

var fcmpTable = map[string]enum.FPred{
	"==": enum.FPredOEQ, "!=": enum.FPredONE,
	"<": enum.FPredOLT, ">": enum.FPredOGT,
	"<=": enum.FPredOLE, ">=": enum.FPredOGE,
}

var icmpTable = map[string]enum.IPred{
	"==": enum.IPredEQ, "!=": enum.IPredNE,
	"<": enum.IPredSLT, ">": enum.IPredSGT,
	"<=": enum.IPredSLE, ">=": enum.IPredSGE,
}

// typed pairs a lowered SSA value with its resolved Firtree type kind.
type typed struct {
	kind types.Kind
	val  value.Value
}

var invalid = typed{kind: types.Void, val: nil}

func (t typed) ok() bool { return t.val != nil || t.kind != types.Void }

// expr lowers an expression node, reporting diagnostics and returning
// invalid on failure (callers must check before using the result).
func (fc *fnCtx) expr(n ast.Node) typed {
	switch e := n.(type) {
	case *ast.Literal:
		return fc.literal(e)
	case *ast.Ident:
		return fc.identExpr(e)
	case *ast.Unary:
		return fc.unary(e)
	case *ast.Binary:
		return fc.binary(e)
	case *ast.Call:
		return fc.call(e)
	case *ast.Construct:
		return fc.construct(e)
	case *ast.Index:
		return fc.index(e)
	case *ast.Swizzle:
		return fc.swizzle(e)
	}
	fc.e.errf(n.Position(), "SyntaxError", "unsupported expression")
	return invalid
}

func (fc *fnCtx) literal(l *ast.Literal) typed {
	switch l.Kind {
	case "float":
		return typed{types.Float, fc.b.ConstFloat(float32(l.Float))}
	case "int":
		return typed{types.Int, fc.b.ConstInt(int32(l.Int))}
	case "bool":
		return typed{types.Bool, fc.b.ConstBool(l.Bool)}
	}
	return invalid
}

func (fc *fnCtx) identExpr(id *ast.Ident) typed {
	lv, ok := fc.vars[id.Name]
	if !ok {
		fc.e.errf(id.Position(), "UndeclaredIdentifier", "undeclared identifier %q", id.Name)
		return invalid
	}
	return typed{lv.typ.Kind, fc.readLocal(lv)}
}

func (fc *fnCtx) readLocal(lv *localVar) value.Value {
	if lv.isAlloca {
		return fc.b.Load(fir.LLVMType(lv.typ.Kind), lv.ptr)
	}
	return lv.ptr
}

// promoteTo converts v (of kind from) to kind to, under the single
// implicit promotion rule, or returns ok=false if no promotion
// applies.
func (fc *fnCtx) promoteTo(v value.Value, from, to types.Kind) (value.Value, bool) {
	if from == to {
		return v, true
	}
	if from == types.Int && to == types.Float {
		return fc.b.Block.NewSIToFP(v, lltypes.Float), true
	}
	if from == types.Float && types.IsVector(to) {
		n := types.VectorComponents(to)
		return fc.broadcast(v, n), true
	}
	return nil, false
}

// broadcast builds an n-lane vector with every lane equal to scalar.
func (fc *fnCtx) broadcast(scalar value.Value, n int) value.Value {
	vt := lltypes.NewVector(uint64(n), lltypes.Float)
	cur := value.Value(constant.NewUndef(vt))
	for i := 0; i < n; i++ {
		cur = fc.b.InsertElement(cur, scalar, uint32(i))
	}
	return cur
}

func (fc *fnCtx) unary(u *ast.Unary) typed {
	x := fc.expr(u.Expr)
	if !x.ok() {
		return invalid
	}
	switch u.Op {
	case "-":
		switch {
		case x.kind == types.Float || types.IsVector(x.kind):
			return typed{x.kind, fc.b.Block.NewFNeg(x.val)}
		case x.kind == types.Int:
			return typed{types.Int, fc.b.Block.NewSub(fc.b.ConstInt(0), x.val)}
		}
	case "!":
		if x.kind == types.Bool {
			return typed{types.Bool, fc.b.Block.NewXor(x.val, fc.b.ConstBool(true))}
		}
	}
	fc.e.errf(u.Position(), "OverloadNotFound", "no overload for unary %q on %s", u.Op, x.kind)
	return invalid
}

var cmpOps = map[string]bool{"==": true, "!=": true, "<": true, ">": true, "<=": true, ">=": true}

func (fc *fnCtx) binary(b *ast.Binary) typed {
	if b.Op == "&&" || b.Op == "||" {
		return fc.shortCircuit(b)
	}
	l := fc.expr(b.LHS)
	r := fc.expr(b.RHS)
	if !l.ok() || !r.ok() {
		return invalid
	}
	k, lv, rv, ok := fc.unify(l, r)
	if !ok {
		fc.e.errf(b.Position(), "OverloadNotFound", "no overload for %q on %s, %s", b.Op, l.kind, r.kind)
		return invalid
	}
	if cmpOps[b.Op] {
		return fc.compare(b.Op, k, lv, rv)
	}
	return fc.arith(b.Op, k, lv, rv)
}

// unify applies the implicit promotion rule to bring l and r to a
// common kind, preferring the wider of the two.
func (fc *fnCtx) unify(l, r typed) (types.Kind, value.Value, value.Value, bool) {
	if l.kind == r.kind {
		return l.kind, l.val, r.val, true
	}
	if v, ok := fc.promoteTo(l.val, l.kind, r.kind); ok {
		return r.kind, v, r.val, true
	}
	if v, ok := fc.promoteTo(r.val, r.kind, l.kind); ok {
		return l.kind, l.val, v, true
	}
	return types.Void, nil, nil, false
}

func (fc *fnCtx) arith(op string, k types.Kind, l, r value.Value) typed {
	isFloat := k == types.Float || types.IsVector(k)
	blk := fc.b.Block
	switch {
	case isFloat:
		switch op {
		case "+":
			return typed{k, blk.NewFAdd(l, r)}
		case "-":
			return typed{k, blk.NewFSub(l, r)}
		case "*":
			return typed{k, blk.NewFMul(l, r)}
		case "/":
			return typed{k, blk.NewFDiv(l, r)}
		}
	case k == types.Int:
		switch op {
		case "+":
			return typed{k, blk.NewAdd(l, r)}
		case "-":
			return typed{k, blk.NewSub(l, r)}
		case "*":
			return typed{k, blk.NewMul(l, r)}
		case "/":
			return typed{k, blk.NewSDiv(l, r)}
		}
	}
	return invalid
}

func (fc *fnCtx) compare(op string, k types.Kind, l, r value.Value) typed {
	blk := fc.b.Block
	if k == types.Float {
		pred := floatPred(op)
		return typed{types.Bool, blk.NewFCmp(pred, l, r)}
	}
	pred := intPred(op)
	return typed{types.Bool, blk.NewICmp(pred, l, r)}
}

// shortCircuit lowers && and || to branch-and-phi.
func (fc *fnCtx) shortCircuit(b *ast.Binary) typed {
	l := fc.expr(b.LHS)
	if !l.ok() || l.kind != types.Bool {
		fc.e.errf(b.Position(), "TypeMismatch", "left operand of %q must be bool", b.Op)
		return invalid
	}
	rhsBlk := fc.fn.NewBlock("sc.rhs")
	joinBlk := fc.fn.NewBlock("sc.join")
	shortBlk := fc.b.Block
	if b.Op == "&&" {
		fc.b.CondBr(l.val, rhsBlk, joinBlk)
	} else {
		fc.b.CondBr(l.val, joinBlk, rhsBlk)
	}
	fc.b = &fir.Builder{Block: rhsBlk}
	r := fc.expr(b.RHS)
	if !r.ok() || r.kind != types.Bool {
		fc.e.errf(b.Position(), "TypeMismatch", "right operand of %q must be bool", b.Op)
		return invalid
	}
	rhsEnd := fc.b.Block
	fc.b.Br(joinBlk)
	fc.b = &fir.Builder{Block: joinBlk}
	phi := fc.b.Phi(
		fir.Incoming(fc.b.ConstBool(b.Op == "||"), shortBlk),
		fir.Incoming(r.val, rhsEnd),
	)
	return typed{types.Bool, phi}
}

func (fc *fnCtx) index(ix *ast.Index) typed {
	base := fc.expr(ix.Base)
	if !base.ok() {
		return invalid
	}
	n := types.VectorComponents(base.kind)
	if n == 0 {
		fc.e.errf(ix.Position(), "TypeMismatch", "cannot index non-vector type %s", base.kind)
		return invalid
	}
	lit, ok := ix.Index.(*ast.Literal)
	if !ok || lit.Kind != "int" {
		fc.e.errf(ix.Position(), "TypeMismatch", "vector index must be a constant int")
		return invalid
	}
	if int(lit.Int) < 0 || int(lit.Int) >= n {
		fc.e.errf(ix.Position(), "InvalidSwizzle", "index %d out of bounds for %s", lit.Int, base.kind)
		return invalid
	}
	return typed{types.Float, fc.b.ExtractElement(base.val, uint32(lit.Int))}
}

var swizzleIndex = map[byte]int{
	'x': 0, 'y': 1, 'z': 2, 'w': 3,
	'r': 0, 'g': 1, 'b': 2, 'a': 3,
}

// swizzle expands «base.fields» to vector field extractions, bounds
// checked at compile time.
func (fc *fnCtx) swizzle(sw *ast.Swizzle) typed {
	base := fc.expr(sw.Base)
	if !base.ok() {
		return invalid
	}
	n := types.VectorComponents(base.kind)
	if n == 0 {
		fc.e.errf(sw.Position(), "InvalidSwizzle", "cannot swizzle non-vector type %s", base.kind)
		return invalid
	}
	idxs := make([]int, 0, len(sw.Fields))
	for i := 0; i < len(sw.Fields); i++ {
		c := sw.Fields[i]
		idx, known := swizzleIndex[c]
		if !known || idx >= n {
			fc.e.errf(sw.Position(), "InvalidSwizzle", "invalid swizzle field %q for %s", string(c), base.kind)
			return invalid
		}
		idxs = append(idxs, idx)
	}
	if len(idxs) == 1 {
		return typed{types.Float, fc.b.ExtractElement(base.val, uint32(idxs[0]))}
	}
	resKind, _ := types.VecOf(len(idxs))
	vt := lltypes.NewVector(uint64(len(idxs)), lltypes.Float)
	cur := value.Value(constant.NewUndef(vt))
	for i, src := range idxs {
		lane := fc.b.ExtractElement(base.val, uint32(src))
		cur = fc.b.InsertElement(cur, lane, uint32(i))
	}
	return typed{resKind, cur}
}

func (fc *fnCtx) construct(c *ast.Construct) typed {
	k, ok := types.KindFromName(c.Type.Name)
	if !ok {
		fc.e.errf(c.Position(), "TypeMismatch", "unknown constructor type %q", c.Type.Name)
		return invalid
	}
	switch {
	case types.IsVector(k):
		return fc.constructVec(c, k)
	case k == types.Float, k == types.Int, k == types.Bool:
		if len(c.Args) != 1 {
			fc.e.errf(c.Position(), "OverloadNotFound", "scalar constructor %s takes one argument", k)
			return invalid
		}
		a := fc.expr(c.Args[0])
		if !a.ok() {
			return invalid
		}
		v, ok := fc.promoteTo(a.val, a.kind, k)
		if !ok && a.kind != k {
			fc.e.errf(c.Position(), "OverloadNotFound", "cannot convert %s to %s", a.kind, k)
			return invalid
		}
		if a.kind == k {
			v = a.val
		}
		return typed{k, v}
	}
	fc.e.errf(c.Position(), "OverloadNotFound", "unsupported constructor %s", k)
	return invalid
}

// constructVec implements the two legal vecN constructor shapes: either
// one scalar broadcast to every lane, or exactly N scalar/smaller-vector
// arguments concatenated lane by lane.
func (fc *fnCtx) constructVec(c *ast.Construct, k types.Kind) typed {
	n := types.VectorComponents(k)
	if len(c.Args) == 1 {
		a := fc.expr(c.Args[0])
		if !a.ok() {
			return invalid
		}
		if a.kind == types.Float || a.kind == types.Int {
			v, _ := fc.promoteTo(a.val, a.kind, types.Float)
			return typed{k, fc.broadcast(v, n)}
		}
	}
	vt := lltypes.NewVector(uint64(n), lltypes.Float)
	cur := value.Value(constant.NewUndef(vt))
	lane := 0
	for _, argNode := range c.Args {
		a := fc.expr(argNode)
		if !a.ok() {
			return invalid
		}
		switch {
		case a.kind == types.Float || a.kind == types.Int:
			if lane >= n {
				break
			}
			v, _ := fc.promoteTo(a.val, a.kind, types.Float)
			cur = fc.b.InsertElement(cur, v, uint32(lane))
			lane++
		case types.IsVector(a.kind):
			cnt := types.VectorComponents(a.kind)
			for j := 0; j < cnt && lane < n; j++ {
				comp := fc.b.ExtractElement(a.val, uint32(j))
				cur = fc.b.InsertElement(cur, comp, uint32(lane))
				lane++
			}
		default:
			fc.e.errf(argNode.Position(), "OverloadNotFound", "cannot use %s in %s constructor", a.kind, k)
			return invalid
		}
	}
	if lane != n {
		fc.e.errf(c.Position(), "OverloadNotFound", "%s constructor needs %d components, got %d", k, n, lane)
		return invalid
	}
	return typed{k, cur}
}

func floatPred(op string) enum.FPred { return fcmpTable[op] }

func intPred(op string) enum.IPred { return icmpTable[op] }
