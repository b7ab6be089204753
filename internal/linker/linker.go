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

// Package linker turns a sampler-provider graph into a single leaf IR
// function: given a root SamplerProvider, it walks the provider DAG
// post-order, clones each visited provider's kernel function into one
// fresh destination module under a UUID-suffixed name, and rewrites
// every sample/samplerTransform/samplerExtent call site into a direct
// call (or constant) targeted at the chosen child.
package linker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	llvm "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	fir "github.com/rjw57/firtree/internal/ir"
	"github.com/rjw57/firtree/internal/sampler"
	"github.com/rjw57/firtree/internal/types"
	fval "github.com/rjw57/firtree/internal/value"
)

// Linking failure modes.
var (
	ErrUnboundParameter = errors.New("linker: unbound parameter")
	ErrCycle            = errors.New("linker: sampler graph contains a cycle")
	ErrMissingExtent    = errors.New("linker: samplerExtent() reached an unbounded sampler")
)

// Result is the linker's output: the destination module and its root
// function, plus the registry the JIT interpreter needs to resolve
// calls that were deliberately left unspecialised (ordinary
// helper-function calls within one kernel's own source, which the
// linker does not clone).
type Result struct {
	Module   *fir.Module
	Root     *fir.Function
	Registry map[*llvm.Func]*fir.Function

	// dyn records one entry per non-static non-sampler parameter bound
	// anywhere in the linked graph: the global the clone loads the value
	// through. RefreshDynamic re-reads the providers' current bindings
	// into those globals, which is what lets a dynamic parameter change
	// without forcing a re-link.
	dyn []dynBinding
}

type dynBinding struct {
	provider *sampler.Provider
	param    string
	kind     types.Kind
	global   *fir.Global
}

// RefreshDynamic re-synchronises every dynamic-parameter global with its
// provider's currently bound value. Callers must not run it concurrently
// with an in-flight render of the same Result (the same serialisation
// rule that governs the cached function pointer itself).
func (r *Result) RefreshDynamic() {
	for _, d := range r.dyn {
		v, ok := d.provider.Value(d.param)
		if !ok {
			continue
		}
		d.global.SetValue(constFromValue(v, d.kind))
	}
}

// Link builds a fresh module computing root's colour at a supplied
// vec2 destination coordinate.
func Link(root *sampler.Provider) (*Result, error) {
	c := &linkCtx{
		dst:      fir.NewModule(),
		emitted:  map[*sampler.Provider]string{},
		registry: map[*llvm.Func]*fir.Function{},
		visiting: map[*sampler.Provider]bool{},
	}
	rootName, err := c.link(root)
	if err != nil {
		return nil, err
	}
	rootFn, _ := c.dst.Lookup(rootName)
	rootFn.SetExported(true)
	for _, fn := range c.dst.Funcs {
		if fn != rootFn {
			fn.SetExported(false)
		}
	}
	c.dst.RemoveUnreachable(rootFn)
	return &Result{Module: c.dst, Root: rootFn, Registry: c.registry, dyn: c.dyn}, nil
}

type linkCtx struct {
	dst      *fir.Module
	emitted  map[*sampler.Provider]string // provider -> already-cloned function name
	registry map[*llvm.Func]*fir.Function // every function reachable for interp's helper-call fallback
	visiting map[*sampler.Provider]bool   // cycle safety net; SetSampler should have rejected cycles already
	dyn      []dynBinding
}

// link recursively links provider p (post-order: children before
// parent) and returns the name of its cloned entry-point function in
// c.dst. The entry point's calling convention is uniform: one vec2
// "coord" parameter; destCoord() inside p's body is rewired to this
// parameter.
func (c *linkCtx) link(p *sampler.Provider) (string, error) {
	if name, ok := c.emitted[p]; ok {
		return name, nil
	}
	if c.visiting[p] {
		return "", ErrCycle
	}
	c.visiting[p] = true
	defer delete(c.visiting, p)

	if p.Buffer != nil {
		name := c.linkBuffer(p.Buffer)
		c.emitted[p] = name
		return name, nil
	}

	for _, fn := range p.Kernel.Module.Funcs {
		c.registry[fn.LLVM] = fn
	}

	type childInfo struct {
		fnName    string
		extent    sampler.Extent
		transform sampler.Transform
	}
	children := map[string]childInfo{}
	for _, spec := range p.ListParameters() {
		if spec.Type.Kind != types.Sampler {
			continue
		}
		child, ok := p.Child(spec.Name)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnboundParameter, spec.Name)
		}
		childName, err := c.link(child)
		if err != nil {
			return "", err
		}
		children[spec.Name] = childInfo{fnName: childName, extent: child.Extent(), transform: child.Transform}
	}

	srcFn := p.Func.Func
	newSig := &fir.Signature{Return: srcFn.Sig.Return, Params: []fir.ParamInfo{{Name: "coord", Kind: types.Vec2}}}
	seedRemap := map[value.Value]value.Value{}
	var preamble []llvm.Instruction
	uniqueName := srcFn.Name + "." + uuid.NewString()
	for i, pi := range srcFn.Sig.Params {
		if pi.Kind == types.Sampler {
			continue // dropped: every use is the first argument of a rewritten intrinsic call
		}
		val, ok := p.Value(pi.Name)
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrUnboundParameter, pi.Name)
		}
		k := constFromValue(val, pi.Kind)
		if pi.Static {
			// Static parameter specialisation: substituted directly as
			// an IR constant, never materialised as a load.
			seedRemap[value.Value(srcFn.Param(i))] = k
			continue
		}
		// Non-static, non-sampler: materialised as a load from a
		// dedicated global so the value can change without a re-link.
		g := c.dst.NewGlobal(uniqueName+"."+pi.Name, k)
		c.dyn = append(c.dyn, dynBinding{provider: p, param: pi.Name, kind: pi.Kind, global: g})
		ld := &llvm.InstLoad{ElemType: fir.LLVMType(pi.Kind), Src: g.LLVM}
		preamble = append(preamble, ld)
		seedRemap[value.Value(srcFn.Param(i))] = value.Value(ld)
	}

	cloned := srcFn.CloneWithSignature(c.dst, uniqueName, newSig, seedRemap, preamble)
	coord := value.Value(cloned.Param(0))

	for _, ic := range append([]*fir.IntrinsicCall{}, cloned.Intrinsics...) {
		switch ic.Kind {
		case fir.IntrinsicDestCoord:
			cloned.ReplaceAllUses(value.Value(ic.Inst), coord)
			cloned.RemoveInst(ic.Inst)

		case fir.IntrinsicSamplerExtent:
			ch, ok := children[ic.SamplerParam]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrUnboundParameter, ic.SamplerParam)
			}
			if ch.extent.Infinite() {
				return "", fmt.Errorf("%w: %q", ErrMissingExtent, ic.SamplerParam)
			}
			ev := constant.NewVector(
				lltypes.NewVector(4, lltypes.Float),
				constant.NewFloat(lltypes.Float, float64(ch.extent.X)),
				constant.NewFloat(lltypes.Float, float64(ch.extent.Y)),
				constant.NewFloat(lltypes.Float, float64(ch.extent.W)),
				constant.NewFloat(lltypes.Float, float64(ch.extent.H)),
			)
			cloned.ReplaceAllUses(value.Value(ic.Inst), ev)
			cloned.RemoveInst(ic.Inst)

		case fir.IntrinsicSamplerTransform:
			ch, ok := children[ic.SamplerParam]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrUnboundParameter, ic.SamplerParam)
			}
			loc := ic.Inst.Args[1]
			insts, xformed := affineInsts(loc, ch.transform)
			cloned.InsertBefore(ic.Inst, insts...)
			cloned.ReplaceAllUses(value.Value(ic.Inst), xformed)
			cloned.RemoveInst(ic.Inst)

		case fir.IntrinsicSample:
			ch, ok := children[ic.SamplerParam]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrUnboundParameter, ic.SamplerParam)
			}
			childFn, ok := c.dst.Lookup(ch.fnName)
			if !ok {
				return "", fmt.Errorf("linker: internal error: child function %q not found", ch.fnName)
			}
			loc := ic.Inst.Args[1]
			insts, xformed := affineInsts(loc, ch.transform)
			call := &llvm.InstCall{Callee: value.Value(childFn.LLVM), Args: []value.Value{xformed}}
			insts = append(insts, call)
			cloned.InsertBefore(ic.Inst, insts...)
			cloned.ReplaceAllUses(value.Value(ic.Inst), call)
			cloned.RemoveInst(ic.Inst)
		}
	}
	cloned.Intrinsics = remainingIntrinsics(cloned.Intrinsics)

	c.registry[cloned.LLVM] = cloned
	c.emitted[p] = uniqueName
	return uniqueName, nil
}

// remainingIntrinsics drops the sample/samplerTransform/samplerExtent/
// destCoord tags this link pass has just specialised away, keeping only
// ones a later stage should still see (emit() survives into the reduce
// harness). After linking, the module contains no sample,
// samplerTransform or samplerExtent calls.
func remainingIntrinsics(in []*fir.IntrinsicCall) []*fir.IntrinsicCall {
	var out []*fir.IntrinsicCall
	for _, ic := range in {
		switch ic.Kind {
		case fir.IntrinsicSample, fir.IntrinsicSamplerTransform, fir.IntrinsicSamplerExtent, fir.IntrinsicDestCoord:
			continue
		}
		out = append(out, ic)
	}
	return out
}

// linkBuffer emits a zero-body entry point for a buffer-sampler leaf:
// its NativeSampler hook is consulted directly by the JIT interpreter
// instead of walking LLVM.Blocks, since a raw pixel buffer has no
// kernel IR to clone.
func (c *linkCtx) linkBuffer(buf *sampler.Buffer) string {
	name := "buffer." + uuid.NewString()
	sig := &fir.Signature{Return: fir.LLVMType(types.Vec4), Params: []fir.ParamInfo{{Name: "coord", Kind: types.Vec2}}}
	fn := c.dst.NewFunction(name, sig, fir.TargetRender, false)
	fn.LLVM.NewBlock("entry").NewRet(nil)
	fn.NativeSampler = func(x, y float32) [4]float32 { return buf.At(x, y) }
	c.registry[fn.LLVM] = fn
	return name
}

// affineInsts builds the IR instruction sequence computing
// t.Apply(loc), with the 2x3 matrix materialised as IR constants. The
// instructions come back detached (the caller splices them in with
// Function.InsertBefore) together with the final vec2 result value.
func affineInsts(loc value.Value, t sampler.Transform) ([]llvm.Instruction, value.Value) {
	idx0 := constant.NewInt(lltypes.I32, 0)
	idx1 := constant.NewInt(lltypes.I32, 1)
	exX := &llvm.InstExtractElement{X: loc, Index: idx0}
	exY := &llvm.InstExtractElement{X: loc, Index: idx1}

	fc := func(f float32) *constant.Float { return constant.NewFloat(lltypes.Float, float64(f)) }

	nx1 := &llvm.InstFMul{X: exX, Y: fc(t.M11)}
	nx2 := &llvm.InstFMul{X: exY, Y: fc(t.M21)}
	nx3 := &llvm.InstFAdd{X: nx1, Y: nx2}
	nx := &llvm.InstFAdd{X: nx3, Y: fc(t.TX)}

	ny1 := &llvm.InstFMul{X: exX, Y: fc(t.M12)}
	ny2 := &llvm.InstFMul{X: exY, Y: fc(t.M22)}
	ny3 := &llvm.InstFAdd{X: ny1, Y: ny2}
	ny := &llvm.InstFAdd{X: ny3, Y: fc(t.TY)}

	vecTy := lltypes.NewVector(2, lltypes.Float)
	insX := &llvm.InstInsertElement{X: constant.NewUndef(vecTy), Elem: nx, Index: idx0}
	insY := &llvm.InstInsertElement{X: insX, Elem: ny, Index: idx1}

	return []llvm.Instruction{exX, exY, nx1, nx2, nx3, nx, ny1, ny2, ny3, ny, insX, insY}, insY
}

// constFromValue lowers a bound Firtree value.Value into an IR
// constant of the matching LLVM shape.
func constFromValue(v fval.Value, k types.Kind) constant.Constant {
	switch k {
	case types.Float:
		return constant.NewFloat(lltypes.Float, float64(v.AsFloat()))
	case types.Int:
		return constant.NewInt(lltypes.I32, int64(v.AsInt()))
	case types.Bool:
		return constant.NewBool(v.AsBool())
	case types.Vec2, types.Vec3, types.Vec4:
		fs := v.Floats()
		elems := make([]constant.Constant, len(fs))
		for i, f := range fs {
			elems[i] = constant.NewFloat(lltypes.Float, float64(f))
		}
		return constant.NewVector(lltypes.NewVector(uint64(len(fs)), lltypes.Float), elems...)
	case types.Mat2, types.Mat3, types.Mat4:
		fs := v.Floats()
		elems := make([]constant.Constant, len(fs))
		for i, f := range fs {
			elems[i] = constant.NewFloat(lltypes.Float, float64(f))
		}
		return constant.NewArray(lltypes.NewArray(uint64(len(fs)), lltypes.Float), elems...)
	}
	panic(fmt.Sprintf("linker: no constant lowering for kind %v", k))
}
