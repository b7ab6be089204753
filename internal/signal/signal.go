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

// Package signal implements the four named signals CompiledKernel and
// SamplerProvider expose (contents-changed, module-changed,
// extents-changed, transform-changed) as a broadcaster of plain
// listener closures.
package signal

// Listener is called when a signal fires. It carries no payload: every
// Firtree signal is a pure notification.
type Listener func()

// entry pairs a listener with a live flag so Listen's returned cancel
// function can disconnect it without slice-index bookkeeping at the
// call site; sampler parameters get rebound often.
type entry struct {
	l    Listener
	live bool
}

// Broadcast is a list of listeners; Fire calls every
// currently-connected listener in registration order.
type Broadcast []*entry

// Listen registers a new listener and returns a function that
// disconnects it.
func (b *Broadcast) Listen(l Listener) (cancel func()) {
	e := &entry{l: l, live: true}
	*b = append(*b, e)
	return func() { e.live = false }
}

// Fire calls every connected listener.
func (b Broadcast) Fire() {
	for _, e := range b {
		if e.live {
			e.l()
		}
	}
}

// Set is the four named signals a mutable Firtree object exposes. A
// child's ModuleChanged propagates to every parent holding it as a
// sampler argument (the cached link goes stale); a child's
// ContentsChanged also propagates (the cached link stays valid, only
// pixels change). Propagation is recorded as plain listener closures,
// never a strong reference to the parent, so the ownership DAG's
// cycle-freedom is never threatened by the separate signal-propagation
// graph.
type Set struct {
	ContentsChanged  Broadcast
	ModuleChanged    Broadcast
	ExtentsChanged   Broadcast
	TransformChanged Broadcast
}

// ConnectChild wires parent's signals to fire whenever child's
// ModuleChanged or ContentsChanged fires. The returned disconnect func
// must be called when the child is unbound so a stale child never keeps
// invalidating a parent it is no longer bound to.
func ConnectChild(parent, child *Set) (disconnect func()) {
	c1 := child.ModuleChanged.Listen(func() { parent.ModuleChanged.Fire() })
	c2 := child.ContentsChanged.Listen(func() { parent.ContentsChanged.Fire() })
	return func() { c1(); c2() }
}
