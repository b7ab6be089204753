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

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func capture(t *testing.T) (*os.File, func() string) {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	return f, func() string {
		f.Seek(0, 0)
		b, err := os.ReadFile(f.Name())
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		return string(b)
	}
}

func writeKernel(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "k.kernel")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const validKernel = `kernel vec4 f(vec4 c) { return c; }`

func TestRunMissingArgumentIsUsageError(t *testing.T) {
	out, _ := capture(t)
	errw, errRead := capture(t)
	defer out.Close()
	defer errw.Close()
	if code := run(nil, out, errw); code != exitUsageError {
		t.Fatalf("run() = %d, want %d (usage error): %s", code, exitUsageError, errRead())
	}
}

func TestRunUnknownPrintModeIsUsageError(t *testing.T) {
	path := writeKernel(t, validKernel)
	out, _ := capture(t)
	errw, _ := capture(t)
	defer out.Close()
	defer errw.Close()
	if code := run([]string{"-print=wat", path}, out, errw); code != exitUsageError {
		t.Fatalf("run() = %d, want %d", code, exitUsageError)
	}
}

func TestRunCompileErrorExitsTwo(t *testing.T) {
	path := writeKernel(t, `kernel vec4 f() { return sin(vec4(1,1,1,1)); }`)
	out, _ := capture(t)
	errw, errRead := capture(t)
	defer out.Close()
	defer errw.Close()
	if code := run([]string{path}, out, errw); code != exitCompileErr {
		t.Fatalf("run() = %d, want %d (compile error): %s", code, exitCompileErr, errRead())
	}
}

func TestRunPrintLLVMSucceeds(t *testing.T) {
	path := writeKernel(t, validKernel)
	out, outRead := capture(t)
	errw, _ := capture(t)
	defer out.Close()
	defer errw.Close()
	if code := run([]string{"-print=llvm", path}, out, errw); code != exitOK {
		t.Fatalf("run() = %d, want %d", code, exitOK)
	}
	if !strings.Contains(outRead(), "define") {
		t.Fatalf("expected LLVM IR text on stdout, got %q", outRead())
	}
}

func TestRunPrintGLSLReportsUnbuilt(t *testing.T) {
	path := writeKernel(t, validKernel)
	out, _ := capture(t)
	errw, errRead := capture(t)
	defer out.Close()
	defer errw.Close()
	if code := run([]string{"-print=glsl", path}, out, errw); code != exitCompileErr {
		t.Fatalf("run() = %d, want %d", code, exitCompileErr)
	}
	if !strings.Contains(errRead(), "GLSL") {
		t.Fatalf("expected a GLSL-not-built diagnostic, got %q", errRead())
	}
}
