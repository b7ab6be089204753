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

// Package jit runs the linker (internal/linker), wraps the result in
// a CompiledFunc that the dispatcher (internal/dispatch) drives per
// strip, and caches the result per (root provider, pixel format),
// invalidating the entry whenever the provider subgraph reports
// module-changed.
package jit

import (
	"fmt"
	"sync"

	llvm "github.com/llir/llvm/ir"

	"github.com/rjw57/firtree/internal/ftlog"
	fir "github.com/rjw57/firtree/internal/ir"
	"github.com/rjw57/firtree/internal/jit/interp"
	"github.com/rjw57/firtree/internal/linker"
	"github.com/rjw57/firtree/internal/runtime"
	"github.com/rjw57/firtree/internal/sampler"
	fval "github.com/rjw57/firtree/internal/value"
)

// CompiledFunc is the render-ready product of a link: a Go value
// wrapping the linked module and the interpreter that walks it, in
// place of a machine-code function pointer (the package doc of
// internal/jit/interp explains the substitution). A nil *CompiledFunc
// is the null function pointer: the dispatcher must check for it and
// leave the buffer untouched.
type CompiledFunc struct {
	root     *fir.Function
	registry map[*llvm.Func]*fir.Function
	format   runtime.Format
	refresh  func()
}

// Refresh re-reads every non-static parameter binding in the provider
// graph into the linked module's parameter globals, so a dynamic value
// change lands without a re-link. Must not run concurrently with an
// in-flight render; the per-provider lock discipline covers this.
func (f *CompiledFunc) Refresh() { f.refresh() }

// Format returns the pixel format this CompiledFunc was compiled for.
func (f *CompiledFunc) Format() runtime.Format { return f.format }

// RenderPixel evaluates the kernel graph at one destination
// coordinate and packs the result into dst (len(dst) >=
// f.Format().BytesPerPixel()): one iteration of a
// render_FIRTREE_FORMAT_* pixel loop. internal/dispatch supplies the
// loop itself.
func (f *CompiledFunc) RenderPixel(x, y float32, dst []byte) error {
	coord := fval.Vec2(x, y)
	ctx := &interp.Context{Coord: coord, Registry: f.registry}
	rgba := interp.Eval(f.root, []fval.Value{coord}, ctx).Floats()
	var c [4]float32
	copy(c[:], rgba)
	return runtime.Pack(f.format, c, dst)
}

// ReducePixel evaluates the kernel graph at one destination
// coordinate, appending anything emit() produces to sink.
func (f *CompiledFunc) ReducePixel(x, y float32, sink interp.Sink) {
	coord := fval.Vec2(x, y)
	ctx := &interp.Context{Coord: coord, Sink: sink, Registry: f.registry}
	interp.Eval(f.root, []fval.Value{coord}, ctx)
}

// reduceFormat is the sentinel CompiledFunc.format value for a reduce
// target: reduce kernels never pack pixels, so no real runtime.Format
// applies, but the cache key still needs a format slot to keep render
// and reduce compiles of the same provider from colliding.
const reduceFormat = runtime.Format(-1)

// CompileReduce is Compile's reduce-target counterpart.
func CompileReduce(root *sampler.Provider) *CompiledFunc { return Compile(root, reduceFormat) }

// GetReduce is Get's reduce-target counterpart.
func (c *Cache) GetReduce(root *sampler.Provider) *CompiledFunc { return c.Get(root, reduceFormat) }

// Compile runs the linker against root and wraps its output as a
// CompiledFunc for format. On linker failure it logs at critical
// severity and returns a nil *CompiledFunc; a valid provider graph is
// expected to always link, so a failure here is a programmer error.
func Compile(root *sampler.Provider, format runtime.Format) *CompiledFunc {
	res, err := linker.Link(root)
	if err != nil {
		ftlog.Default.Criticalf("jit: link failed: %v", err)
		return nil
	}
	return &CompiledFunc{root: res.Root, registry: res.Registry, format: format, refresh: res.RefreshDynamic}
}

// cacheKey identifies one cached compile: root provider identity plus
// pixel format. The static-parameter hash is checked separately so a
// stale entry is recompiled rather than missed.
type cacheKey struct {
	root   *sampler.Provider
	format runtime.Format
}

type cacheEntry struct {
	fn     *CompiledFunc
	hash   string
	cancel func()
}

// Cache is a provider-scoped compile cache. The zero value is ready to
// use.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
}

// Get returns the cached CompiledFunc for (root, format), compiling
// and caching it on first use, after an invalidating module-changed
// signal, or after any static parameter of root has changed value (the
// hash check backs up the ModuleChanged path rather than relying on it
// alone).
func (c *Cache) Get(root *sampler.Provider, format runtime.Format) *CompiledFunc {
	key := cacheKey{root: root, format: format}
	hash := staticHash(root)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[cacheKey]*cacheEntry{}
	}
	if e, ok := c.entries[key]; ok && e.hash == hash {
		return e.fn
	}
	if e, ok := c.entries[key]; ok {
		e.cancel()
		delete(c.entries, key)
	}

	fn := Compile(root, format)
	if fn == nil {
		// A failed link is never cached: the graph may become valid on
		// the next bind without any module-changed signal firing.
		return nil
	}
	e := &cacheEntry{fn: fn, hash: hash}
	cancelModule := root.Signals.ModuleChanged.Listen(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if cur, ok := c.entries[key]; ok && cur == e {
			delete(c.entries, key)
			e.cancel()
		}
	})
	// A non-static value change keeps the cached function valid but
	// must flow into the linked module's parameter globals.
	cancelContents := root.Signals.ContentsChanged.Listen(fn.refresh)
	e.cancel = func() {
		cancelModule()
		cancelContents()
	}
	c.entries[key] = e
	return fn
}

// staticHash is a cheap fingerprint of root's own bound static
// parameter values. A descendant's static parameter change already
// reaches root via ModuleChanged propagation (internal/signal's
// ConnectChild), so this only needs to cover root's direct parameters
// to make the cache key fully honest about what a re-link would bake
// in.
func staticHash(root *sampler.Provider) string {
	h := ""
	for _, spec := range root.ListParameters() {
		if !spec.Type.Static {
			continue
		}
		v, ok := root.Value(spec.Name)
		if !ok {
			continue
		}
		h += fmt.Sprintf("|%s=%s", spec.Name, v.String())
	}
	return h
}
