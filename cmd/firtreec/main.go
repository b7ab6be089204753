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

// Command firtreec is the compiler front-end CLI:
// compile <opts> file.kernel. It drives the kernel-language compiler
// only; rendering is a library concern.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rjw57/firtree/internal/ftlog"
	"github.com/rjw57/firtree/internal/kernel"
)

// Exit codes.
const (
	exitOK         = 0
	exitUsageError = 1
	exitCompileErr = 2
)

type printMode int

const (
	printNone printMode = iota
	printGLSL
	printLLVM
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr *os.File) int {
	fs := flag.NewFlagSet("compile", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		optLLVM   = fs.Bool("opt-llvm", true, "Run the LLVM-level optimisation pipeline")
		noOptLLVM = fs.Bool("no-opt-llvm", false, "Disable the LLVM-level optimisation pipeline")
		optGLSL   = fs.Bool("opt-glsl", true, "Run the GLSL-level optimisation pipeline (unused: no GLSL backend)")
		noOptGLSL = fs.Bool("no-opt-glsl", false, "Disable the GLSL-level optimisation pipeline (unused: no GLSL backend)")
		print     = fs.String("print", "", "Print the compiled kernel as \"glsl\" or \"llvm\"")
	)
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: compile [opts] file.kernel")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return exitUsageError
		}
		return exitUsageError
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsageError
	}

	var mode printMode
	switch *print {
	case "":
		mode = printNone
	case "glsl":
		mode = printGLSL
	case "llvm":
		mode = printLLVM
	default:
		fmt.Fprintf(stderr, "compile: unknown -print mode %q (want glsl or llvm)\n", *print)
		return exitUsageError
	}
	if *noOptLLVM {
		*optLLVM = false
	}
	if *noOptGLSL {
		*optGLSL = false
	}
	_ = optGLSL // no GLSL optimisation pipeline exists; the flag is accepted and ignored.

	path := fs.Arg(0)
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "compile: %v\n", err)
		return exitUsageError
	}

	ck := kernel.Compile(path, string(src))
	if !ck.CompileStatus {
		fmt.Fprintln(stderr, ck.LogString())
		return exitCompileErr
	}
	if len(ck.Log) > 0 {
		// Warnings accumulated alongside a successful compile still
		// surface on stderr.
		fmt.Fprintln(stderr, ck.LogString())
	}

	switch mode {
	case printLLVM:
		if !*optLLVM {
			ftlog.Default.Logf("firtreec", ftlog.Info, "skipping LLVM optimisation pipeline (-no-opt-llvm)")
		}
		fmt.Fprintln(stdout, ck.Module.String())
	case printGLSL:
		// A real, distinct backend this module does not implement;
		// not silently aliased to -print=llvm.
		fmt.Fprintln(stderr, "compile: GLSL backend not built")
		return exitCompileErr
	}

	return exitOK
}
