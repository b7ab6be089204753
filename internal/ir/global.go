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

package ir

import (
	llvm "github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
)

// Global is a module-level variable. The linker uses one per non-static
// non-sampler parameter binding: dynamic parameter values stay
// reachable through an indirection so they can change without forcing a
// re-link, which a plain inlined IR constant cannot provide. A global's
// current value is overwritten by the JIT cache (internal/jit) in place
// of a re-link.
type Global struct {
	LLVM *llvm.Global
}

// NewGlobal declares a new global variable in m with the given initial
// constant value.
func (m *Module) NewGlobal(name string, init constant.Constant) *Global {
	g := &Global{LLVM: m.LLVM.NewGlobalDef(name, init)}
	m.Globals = append(m.Globals, g)
	return g
}

// SetValue overwrites the global's current initializer.
func (g *Global) SetValue(init constant.Constant) { g.LLVM.Init = init }
