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

// Package interp is the stand-in for a materialised native function
// pointer: this module is built on the pure-Go github.com/llir/llvm IR
// library rather than an LLVM code generator, so the linked module's
// root function is evaluated by walking its basic blocks directly. The
// render/reduce entry-point signatures are satisfied as ordinary Go
// function values.
package interp

import (
	"fmt"
	"strings"

	llvm "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	fir "github.com/rjw57/firtree/internal/ir"
	"github.com/rjw57/firtree/internal/runtime"
	fval "github.com/rjw57/firtree/internal/value"
)

// Sink receives emit() calls from a reduce-targeted kernel; the
// lock-free append set (internal/appendset) implements it.
type Sink interface {
	Append(v fval.Value)
}

// Context threads the per-invocation state every recursive call
// needs: the destCoord() value in scope and, for reduce kernels, the
// emit() sink. Registry resolves a call instruction's callee to
// Firtree-level metadata regardless of which module originally
// declared it; helper-function calls are interpreted against their
// original, unspecialised IR directly, since the linker only clones
// each provider's top-level kernel function.
type Context struct {
	Coord    fval.Value
	Sink     Sink
	Registry map[*llvm.Func]*fir.Function
}

// Eval runs fn with args bound to its parameters and returns its return
// value. args[i] corresponds to fn.LLVM.Params[i] positionally.
func Eval(fn *fir.Function, args []fval.Value, ctx *Context) fval.Value {
	if fn.NativeSampler != nil {
		xy := args[0].Floats()
		return rgbaValue(fn.NativeSampler(xy[0], xy[1]))
	}
	env := map[llvm.Instruction]fval.Value{}
	params := map[value.Value]fval.Value{}
	for i, p := range fn.LLVM.Params {
		params[p] = args[i]
	}
	resolve := func(v value.Value) fval.Value {
		return resolveValue(v, env, params)
	}

	var prev *llvm.Block
	block := fn.LLVM.Blocks[0]
	for {
		for _, inst := range block.Insts {
			switch v := inst.(type) {
			case *llvm.InstPhi:
				for _, inc := range v.Incs {
					if inc.Pred == prev {
						env[v] = resolve(inc.X)
						break
					}
				}
			case *llvm.InstAlloca:
				// nothing to do: the cell is created lazily on first Store.
			case *llvm.InstLoad:
				env[v] = resolve(v.Src)
			case *llvm.InstStore:
				env[instKeyOf(v.Dst)] = resolve(v.Src)
			case *llvm.InstFAdd:
				env[v] = binop(resolve(v.X), resolve(v.Y), func(a, b float32) float32 { return a + b })
			case *llvm.InstFSub:
				env[v] = binop(resolve(v.X), resolve(v.Y), func(a, b float32) float32 { return a - b })
			case *llvm.InstFMul:
				env[v] = binop(resolve(v.X), resolve(v.Y), func(a, b float32) float32 { return a * b })
			case *llvm.InstFDiv:
				env[v] = binop(resolve(v.X), resolve(v.Y), func(a, b float32) float32 { return a / b })
			case *llvm.InstAdd:
				env[v] = fval.Int(resolve(v.X).AsInt() + resolve(v.Y).AsInt())
			case *llvm.InstSub:
				env[v] = fval.Int(resolve(v.X).AsInt() - resolve(v.Y).AsInt())
			case *llvm.InstMul:
				env[v] = fval.Int(resolve(v.X).AsInt() * resolve(v.Y).AsInt())
			case *llvm.InstSDiv:
				env[v] = fval.Int(resolve(v.X).AsInt() / resolve(v.Y).AsInt())
			case *llvm.InstFNeg:
				env[v] = negate(resolve(v.X))
			case *llvm.InstXor:
				// Only emitted for boolean not (x xor true).
				env[v] = fval.Bool(resolve(v.X).AsBool() != resolve(v.Y).AsBool())
			case *llvm.InstSIToFP:
				env[v] = fval.Float(float32(resolve(v.From).AsInt()))
			case *llvm.InstFCmp:
				env[v] = fval.Bool(fcmp(v.Pred, resolve(v.X), resolve(v.Y)))
			case *llvm.InstICmp:
				env[v] = fval.Bool(icmp(v.Pred, resolve(v.X), resolve(v.Y)))
			case *llvm.InstExtractElement:
				x := resolve(v.X).Floats()
				idx := int(resolve(v.Index).AsInt())
				env[v] = fval.Float(x[idx])
			case *llvm.InstInsertElement:
				x := append([]float32(nil), resolve(v.X).Floats()...)
				idx := int(resolve(v.Index).AsInt())
				for len(x) <= idx {
					x = append(x, 0)
				}
				x[idx] = resolve(v.Elem).AsFloat()
				env[v] = vecFromFloats(x)
			case *llvm.InstExtractValue:
				agg := resolve(v.X).Floats()
				env[v] = fval.Float(agg[v.Indices[0]])
			case *llvm.InstCall:
				env[v] = evalCall(v, resolve, ctx)
			}
		}
		switch t := block.Term.(type) {
		case *llvm.TermRet:
			if t.X == nil {
				return fval.Value{}
			}
			return resolve(t.X)
		case *llvm.TermBr:
			prev, block = block, t.Target.(*llvm.Block)
		case *llvm.TermCondBr:
			cond := resolve(t.Cond).AsBool()
			prev = block
			if cond {
				block = t.TargetTrue.(*llvm.Block)
			} else {
				block = t.TargetFalse.(*llvm.Block)
			}
		default:
			panic(fmt.Sprintf("interp: unsupported terminator %T", t))
		}
	}
}

// instKeyOf lets a Store's destination (an Alloca instruction value)
// key the same env map as every other SSA result, treating the alloca
// as a single-cell piece of storage rather than a real address. Valid
// because Firtree locals never escape their owning function; the
// kernel language has no address-of operator.
func instKeyOf(v value.Value) llvm.Instruction {
	if inst, ok := v.(llvm.Instruction); ok {
		return inst
	}
	panic(fmt.Sprintf("interp: store destination %T is not an instruction", v))
}

func resolveValue(v value.Value, env map[llvm.Instruction]fval.Value, params map[value.Value]fval.Value) fval.Value {
	if pv, ok := params[v]; ok {
		return pv
	}
	if inst, ok := v.(llvm.Instruction); ok {
		if iv, ok := env[inst]; ok {
			return iv
		}
	}
	if g, ok := v.(*llvm.Global); ok {
		// A load of a dynamic-parameter global (the linker's non-static
		// binding indirection): its current contents are its initializer,
		// rewritten in place when the bound value changes.
		return evalConstant(g.Init)
	}
	if c, ok := v.(constant.Constant); ok {
		return evalConstant(c)
	}
	panic(fmt.Sprintf("interp: unresolved SSA value %T", v))
}

func evalConstant(c constant.Constant) fval.Value {
	switch v := c.(type) {
	case *constant.Float:
		f, _ := v.X.Float64()
		return fval.Float(float32(f))
	case *constant.Int:
		if v.Typ == lltypes.I1 {
			return fval.Bool(v.X.Sign() != 0)
		}
		return fval.Int(int32(v.X.Int64()))
	case *constant.Vector:
		return vecFromFloats(floatsOf(v.Elems))
	case *constant.Array:
		return matFromFloats(floatsOf(v.Elems))
	case *constant.ZeroInitializer:
		return zeroOf(v.Typ)
	case *constant.Undef:
		return zeroOf(v.Typ)
	}
	panic(fmt.Sprintf("interp: unsupported constant %T", c))
}

// zeroOf builds the all-zero value of an LLVM type, preserving its
// shape: an undef vec4 must still have four lanes for the
// insertelement chains the emitter builds on top of it.
func zeroOf(t lltypes.Type) fval.Value {
	switch typ := t.(type) {
	case *lltypes.FloatType:
		return fval.Float(0)
	case *lltypes.IntType:
		if typ == lltypes.I1 {
			return fval.Bool(false)
		}
		return fval.Int(0)
	case *lltypes.VectorType:
		return vecFromFloats(make([]float32, typ.Len))
	case *lltypes.ArrayType:
		return matFromFloats(make([]float32, typ.Len))
	}
	panic(fmt.Sprintf("interp: no zero value for type %T", t))
}

func floatsOf(elems []constant.Constant) []float32 {
	out := make([]float32, len(elems))
	for i, e := range elems {
		out[i] = evalConstant(e).AsFloat()
	}
	return out
}

func vecFromFloats(fs []float32) fval.Value {
	switch len(fs) {
	case 1:
		return fval.Float(fs[0])
	case 2:
		return fval.Vec2(fs[0], fs[1])
	case 3:
		return fval.Vec3(fs[0], fs[1], fs[2])
	case 4:
		return fval.Vec4(fs[0], fs[1], fs[2], fs[3])
	}
	panic(fmt.Sprintf("interp: vector of %d components", len(fs)))
}

func matFromFloats(fs []float32) fval.Value {
	switch len(fs) {
	case 4:
		var m [4]float32
		copy(m[:], fs)
		return fval.Mat2(m)
	case 9:
		var m [9]float32
		copy(m[:], fs)
		return fval.Mat3(m)
	case 16:
		var m [16]float32
		copy(m[:], fs)
		return fval.Mat4(m)
	}
	panic(fmt.Sprintf("interp: matrix of %d components", len(fs)))
}

func binop(a, b fval.Value, f func(x, y float32) float32) fval.Value {
	ac, bc := a.Floats(), b.Floats()
	if a.Tag() == fval.TagFloat {
		ac = []float32{a.AsFloat()}
	}
	if b.Tag() == fval.TagFloat {
		bc = []float32{b.AsFloat()}
	}
	if len(ac) == 1 && len(bc) > 1 {
		ac = broadcast(ac[0], len(bc))
	} else if len(bc) == 1 && len(ac) > 1 {
		bc = broadcast(bc[0], len(ac))
	}
	out := make([]float32, len(ac))
	for i := range ac {
		out[i] = f(ac[i], bc[i])
	}
	return vecFromFloats(out)
}

// negate flips the sign of every component of a float or vector value.
func negate(v fval.Value) fval.Value {
	if v.Tag() == fval.TagFloat {
		return fval.Float(-v.AsFloat())
	}
	c := v.Floats()
	out := make([]float32, len(c))
	for i, f := range c {
		out[i] = -f
	}
	return vecFromFloats(out)
}

func broadcast(v float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func fcmp(pred enum.FPred, a, b fval.Value) bool {
	x, y := a.AsFloat(), b.AsFloat()
	switch pred {
	case enum.FPredOEQ, enum.FPredUEQ:
		return x == y
	case enum.FPredONE, enum.FPredUNE:
		return x != y
	case enum.FPredOGT, enum.FPredUGT:
		return x > y
	case enum.FPredOGE, enum.FPredUGE:
		return x >= y
	case enum.FPredOLT, enum.FPredULT:
		return x < y
	case enum.FPredOLE, enum.FPredULE:
		return x <= y
	}
	return false
}

func icmp(pred enum.IPred, a, b fval.Value) bool {
	toI := func(v fval.Value) int32 {
		if v.Tag() == fval.TagBool {
			if v.AsBool() {
				return 1
			}
			return 0
		}
		return v.AsInt()
	}
	x, y := toI(a), toI(b)
	switch pred {
	case enum.IPredEQ:
		return x == y
	case enum.IPredNE:
		return x != y
	case enum.IPredSGT, enum.IPredUGT:
		return x > y
	case enum.IPredSGE, enum.IPredUGE:
		return x >= y
	case enum.IPredSLT, enum.IPredULT:
		return x < y
	case enum.IPredSLE, enum.IPredULE:
		return x <= y
	}
	return false
}

func rgbaValue(c [4]float32) fval.Value { return fval.Vec4(c[0], c[1], c[2], c[3]) }

// evalCall dispatches an InstCall to whichever call shape it resolves
// to: a builtin (internal/runtime), a surviving emit()/destCoord()
// intrinsic, or a linked, buffer or helper function found in
// ctx.Registry.
func evalCall(c *llvm.InstCall, resolve func(value.Value) fval.Value, ctx *Context) fval.Value {
	callee, ok := c.Callee.(*llvm.Func)
	if !ok {
		panic(fmt.Sprintf("interp: indirect call not supported: %T", c.Callee))
	}
	name := callee.Name()
	args := make([]fval.Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = resolve(a)
	}

	switch {
	case name == "ft.intrinsic.destCoord":
		return ctx.Coord
	case strings.HasPrefix(name, "ft.intrinsic.emit."):
		if ctx.Sink != nil {
			ctx.Sink.Append(args[0])
		}
		return fval.Value{}
	case strings.HasPrefix(name, "ft.intrinsic."):
		// sample/samplerTransform/samplerExtent reaching here means a
		// helper (non-kernel) function used a sampler intrinsic
		// directly, which the linker never specialises; fail loudly
		// rather than silently return a wrong colour.
		panic(fmt.Sprintf("interp: unresolved sampler intrinsic %q (only usable directly in a kernel declaration)", name))
	case strings.HasPrefix(name, "ft.builtin."):
		builtin := strings.TrimPrefix(name, "ft.builtin.")
		if i := strings.LastIndex(builtin, "."); i >= 0 {
			builtin = builtin[:i]
		}
		v, ok := runtime.EvalBuiltin(builtin, args)
		if !ok {
			panic(fmt.Sprintf("interp: no builtin implementation for %q", builtin))
		}
		return v
	}

	fn, ok := ctx.Registry[callee]
	if !ok {
		panic(fmt.Sprintf("interp: call to unregistered function %q", name))
	}
	return Eval(fn, args, ctx)
}
