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

package kernel

import (
	"strings"
	"testing"

	"github.com/rjw57/firtree/internal/types"
)

// Compile error reporting: sin(vec4) has no matching overload in
// the builtin table, so compilation must fail with exactly one
// OverloadNotFound diagnostic mentioning "sin" and "vec4". Log lines
// carry no diagnostic kind, so the overload-resolution failure is
// recognised by its "no matching overload" message.
func TestS4CompileErrorReporting(t *testing.T) {
	ck := Compile("f.kernel", "kernel vec4 f() { return sin(vec4(1,1,1,1)); }")
	if ck.CompileStatus {
		t.Fatalf("compile unexpectedly succeeded: %v", ck.Log)
	}
	var overloadErrs []string
	for _, line := range ck.Log {
		if strings.Contains(line, "no matching overload") {
			overloadErrs = append(overloadErrs, line)
		}
	}
	if len(overloadErrs) != 1 {
		t.Fatalf("got %d OverloadNotFound diagnostics, want exactly 1: %v", len(overloadErrs), ck.Log)
	}
	if !strings.Contains(overloadErrs[0], "sin") || !strings.Contains(overloadErrs[0], "vec4") {
		t.Fatalf("diagnostic %q does not mention both sin and vec4", overloadErrs[0])
	}
}

func TestCompileSuccessChecker(t *testing.T) {
	ck := Compile("checker.kernel", `
kernel vec4 checker(float size, vec4 a, vec4 b) {
	vec2 c = destCoord();
	float m = mod(c.x, 2.0 * size);
	return mix(a, b, step(size, m));
}
`)
	if !ck.CompileStatus {
		t.Fatalf("compile failed: %v", ck.Log)
	}
	fd, ok := ck.FuncByName("checker")
	if !ok {
		t.Fatalf("checker function descriptor not found")
	}
	if fd.Target != types.TargetRender {
		t.Fatalf("checker target = %v, want Render", fd.Target)
	}
	if len(fd.Parameters) != 3 {
		t.Fatalf("got %d parameters, want 3", len(fd.Parameters))
	}
}

func TestCompileReduceTarget(t *testing.T) {
	ck := Compile("emitall.kernel", `
reduce kernel void emitall() {
	emit(destCoord());
}
`)
	if !ck.CompileStatus {
		t.Fatalf("compile failed: %v", ck.Log)
	}
	fd, ok := ck.FuncByName("")
	if !ok {
		t.Fatalf("no kernel function found")
	}
	if fd.Target != types.TargetReduce {
		t.Fatalf("target = %v, want Reduce", fd.Target)
	}
}

// Retain/Release follow the CompiledKernel lifecycle: the
// module is only dropped once the last reference releases.
func TestRefcountLifecycle(t *testing.T) {
	ck := Compile("f.kernel", "kernel vec4 f() { return vec4(0.0,0.0,0.0,0.0); }")
	if !ck.CompileStatus {
		t.Fatalf("compile failed: %v", ck.Log)
	}
	ck.Retain()
	ck.Release()
	if ck.Module == nil {
		t.Fatalf("module freed too early: one reference should still be outstanding")
	}
	ck.Release()
	if ck.Module != nil {
		t.Fatalf("module not freed after last reference released")
	}
}
