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

// Package sampler implements SamplerProvider, the reference-counted
// node that pairs a compiled kernel function with bound argument
// values. Providers form a DAG: sampler-typed parameters are strong
// owning edges to child providers, cycle-checked at bind time by a
// pre-order DFS from the proposed child.
package sampler

import (
	"errors"
	"fmt"

	"github.com/rjw57/firtree/internal/kernel"
	"github.com/rjw57/firtree/internal/refcount"
	"github.com/rjw57/firtree/internal/signal"
	"github.com/rjw57/firtree/internal/types"
	"github.com/rjw57/firtree/internal/value"
)

// ErrCycle is returned by SetSampler when child transitively contains
// the receiver.
var ErrCycle = errors.New("sampler: binding would create a cycle")

// ErrTypeMismatch is returned by SetValue when value's shape does not
// match the declared parameter type.
var ErrTypeMismatch = errors.New("sampler: value type does not match parameter")

// ErrUnknownParam is returned when name does not name a declared
// parameter of the provider's kernel function.
var ErrUnknownParam = errors.New("sampler: no such parameter")

// childBinding is one bound sampler-typed parameter, including the
// disconnect func for the signal propagation wired in SetSampler.
type childBinding struct {
	provider   *Provider
	disconnect func()
}

// Provider is a SamplerProvider: exactly one kernel function
// descriptor (shared, via CompiledKernel's refcount, with every other
// provider built from the same compile), a name-indexed map of bound
// non-sampler values, and a name-indexed map of bound sampler children.
type Provider struct {
	Kernel    *kernel.CompiledKernel
	Func      kernel.FuncDesc
	Transform Transform

	// Buffer is non-nil for a buffer-sampler leaf (sampler/buffer.go):
	// a provider with no CompiledKernel of its own, recognised by the
	// linker and short-circuited past the usual clone-and-inline step.
	Buffer *Buffer

	values   map[string]value.Value
	children map[string]*childBinding
	unset    map[string]bool // image-default parameters left deliberately unbound

	Signals *signal.Set

	refs *refcount.Counter
}

// New creates a Provider bound to the named kernel function of ck, or
// to the first declared kernel function if name is empty. Every
// parameter starts image-default unset, which forces IsValid() to
// false until every parameter is bound.
func New(ck *kernel.CompiledKernel, name string) (*Provider, error) {
	fd, ok := ck.FuncByName(name)
	if !ok {
		return nil, fmt.Errorf("sampler: no kernel function %q", name)
	}
	ck.Retain()
	p := &Provider{
		Kernel:    ck,
		Func:      fd,
		Transform: Identity,
		values:    map[string]value.Value{},
		children:  map[string]*childBinding{},
		unset:     map[string]bool{},
		Signals:   &signal.Set{},
	}
	p.refs = refcount.New()
	for _, param := range fd.Parameters {
		p.unset[param.Name] = true
	}
	return p, nil
}

// ListParameters returns the kernel function's declared parameter
// specs.
func (p *Provider) ListParameters() []types.ParamSpec { return p.Func.Parameters }

func (p *Provider) paramSpec(name string) (types.ParamSpec, bool) {
	for _, s := range p.Func.Parameters {
		if s.Name == name {
			return s, true
		}
	}
	return types.ParamSpec{}, false
}

// SetValue type-checks val against name's declared parameter type and
// binds it, replacing any previous value. No partial state is left on
// failure.
func (p *Provider) SetValue(name string, val value.Value) error {
	spec, ok := p.paramSpec(name)
	if !ok {
		return ErrUnknownParam
	}
	if spec.Type.Kind == types.Sampler {
		return ErrTypeMismatch
	}
	if !valueMatchesKind(val, spec.Type.Kind) {
		return ErrTypeMismatch
	}
	p.values[name] = val
	delete(p.unset, name)
	p.Signals.ContentsChanged.Fire()
	if spec.IsStatic {
		p.Signals.ModuleChanged.Fire()
	}
	return nil
}

func valueMatchesKind(v value.Value, k types.Kind) bool {
	switch k {
	case types.Float:
		return v.Tag() == value.TagFloat
	case types.Int:
		return v.Tag() == value.TagInt
	case types.Bool:
		return v.Tag() == value.TagBool
	case types.Vec2:
		return v.Tag() == value.TagVec2
	case types.Vec3:
		return v.Tag() == value.TagVec3
	case types.Vec4:
		return v.Tag() == value.TagVec4
	case types.Mat2:
		return v.Tag() == value.TagMat2
	case types.Mat3:
		return v.Tag() == value.TagMat3
	case types.Mat4:
		return v.Tag() == value.TagMat4
	}
	return false
}

// SetSampler binds child to the sampler-typed parameter name,
// rejecting the bind with ErrCycle if child transitively contains the
// receiver. On success it retains child (children are shared, not
// exclusively owned), drops and releases any previous child, and wires
// signal propagation so child's contents/module changes reach this
// provider.
func (p *Provider) SetSampler(name string, child *Provider) error {
	spec, ok := p.paramSpec(name)
	if !ok {
		return ErrUnknownParam
	}
	if spec.Type.Kind != types.Sampler {
		return ErrTypeMismatch
	}
	if child == p || containsTransitively(child, p) {
		return ErrCycle
	}
	child.refs.Retain()
	if old, exists := p.children[name]; exists {
		old.disconnect()
		old.provider.Release()
	}
	disconnect := signal.ConnectChild(p.Signals, child.Signals)
	p.children[name] = &childBinding{provider: child, disconnect: disconnect}
	delete(p.unset, name)
	p.Signals.ContentsChanged.Fire()
	p.Signals.ModuleChanged.Fire()
	return nil
}

// containsTransitively reports whether target is reachable from root
// by following sampler-child edges.
func containsTransitively(root, target *Provider) bool {
	if root == nil {
		return false
	}
	seen := map[*Provider]bool{}
	var visit func(n *Provider) bool
	visit = func(n *Provider) bool {
		if n == target {
			return true
		}
		if seen[n] {
			return false
		}
		seen[n] = true
		for _, c := range n.children {
			if visit(c.provider) {
				return true
			}
		}
		return false
	}
	return visit(root)
}

// Unset marks name as an unbound image-default parameter.
func (p *Provider) Unset(name string) error {
	spec, ok := p.paramSpec(name)
	if !ok {
		return ErrUnknownParam
	}
	if spec.Type.Kind == types.Sampler {
		if old, exists := p.children[name]; exists {
			old.disconnect()
			old.provider.Release()
			delete(p.children, name)
		}
	} else {
		delete(p.values, name)
	}
	p.unset[name] = true
	p.Signals.ContentsChanged.Fire()
	return nil
}

// Child returns the provider bound to sampler-typed parameter name.
func (p *Provider) Child(name string) (*Provider, bool) {
	b, ok := p.children[name]
	if !ok {
		return nil, false
	}
	return b.provider, true
}

// Value returns the value bound to non-sampler parameter name.
func (p *Provider) Value(name string) (value.Value, bool) {
	v, ok := p.values[name]
	return v, ok
}

// IsValid reports whether every parameter is bound and every
// transitive child is itself valid.
func (p *Provider) IsValid() bool {
	if p.Buffer != nil {
		return true
	}
	if len(p.unset) != 0 {
		return false
	}
	for _, c := range p.children {
		if !c.provider.IsValid() {
			return false
		}
	}
	return true
}

// Extent returns the provider's extent: by default the union of every
// bound child's extent. A kernel sampler with no children is
// unbounded. A buffer sampler's extent is the buffer's own declared
// rectangle.
func (p *Provider) Extent() Extent {
	if p.Buffer != nil {
		return p.Buffer.Extent()
	}
	e := InfiniteExtent
	first := true
	for _, c := range p.children {
		ce := c.provider.Extent()
		if first {
			e = ce
			first = false
		} else {
			e = e.Union(ce)
		}
	}
	if first {
		return InfiniteExtent
	}
	return e
}

// Retain takes a new owning reference to p.
func (p *Provider) Retain() { p.refs.Retain() }

// Release drops a reference; at zero it drops every bound child and
// releases the shared CompiledKernel.
func (p *Provider) Release() {
	if !p.refs.Release() {
		return
	}
	for _, c := range p.children {
		c.disconnect()
		c.provider.Release()
	}
	p.children = nil
	if p.Kernel != nil {
		p.Kernel.Release()
	}
}
