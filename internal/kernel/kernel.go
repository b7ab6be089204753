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

// Package kernel implements CompiledKernel, the immutable holder
// produced by a successful compile (parser + emitter): an IR module, a
// set of kernel function descriptors and the compile log.
package kernel

import (
	"strings"

	"github.com/rjw57/firtree/internal/emitter"
	fir "github.com/rjw57/firtree/internal/ir"
	"github.com/rjw57/firtree/internal/parser"
	"github.com/rjw57/firtree/internal/refcount"
)

// FuncDesc is the kernel function descriptor, re-exported from
// internal/emitter so callers outside the compiler need not import
// that package directly.
type FuncDesc = emitter.FuncDesc

// CompiledKernel is an immutable module plus its kernel function
// descriptors and compile log, shared by reference count between every
// SamplerProvider built from it. Once the count reaches zero the
// module is dropped and must not be used again.
type CompiledKernel struct {
	Module        *fir.Module
	Funcs         []FuncDesc
	CompileStatus bool
	Log           []string

	refs *refcount.Counter
}

// Compile lexes, parses and emits filename/src (fragments already
// concatenated by the caller, newlines between them). It always
// returns a non-nil *CompiledKernel; callers must check CompileStatus
// before using Module/Funcs.
func Compile(filename, src string) *CompiledKernel {
	file, diags := parser.Parse(filename, src)
	var mod *fir.Module
	var descs []FuncDesc
	if !diags.HasErrors() {
		m, d, ediags := emitter.Emit(filename, file)
		mod, descs = m, d
		diags = append(diags, ediags...)
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = d.String()
	}
	return &CompiledKernel{
		Module:        mod,
		Funcs:         descs,
		CompileStatus: !diags.HasErrors() && mod != nil,
		Log:           lines,
		refs:          refcount.New(),
	}
}

// FuncByName returns the kernel function descriptor named name, or the
// first declared kernel function if name is empty.
func (k *CompiledKernel) FuncByName(name string) (FuncDesc, bool) {
	if name == "" {
		for _, f := range k.Funcs {
			return f, true
		}
		return FuncDesc{}, false
	}
	for _, f := range k.Funcs {
		if f.Name == name {
			return f, true
		}
	}
	return FuncDesc{}, false
}

// Retain takes a new owning reference.
func (k *CompiledKernel) Retain() { k.refs.Retain() }

// Release drops a reference; once the count reaches zero the backing
// module is considered freed and Module/Funcs must not be used again.
func (k *CompiledKernel) Release() {
	if k.refs.Release() {
		k.Module = nil
		k.Funcs = nil
	}
}

// LogString renders the compile log as newline-joined
// "<file>:<line>:<column>: <severity>: <message>" lines.
func (k *CompiledKernel) LogString() string { return strings.Join(k.Log, "\n") }
