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

package ftlog

import "fmt"

// DiagLimit is the maximum number of diagnostics accumulated before a
// compile aborts.
var DiagLimit = 64

// abortCompile is panicked when a DiagList hits DiagLimit. Front-ends
// recover it at their top level to return cleanly with whatever
// diagnostics were collected.
type abortCompile struct{}

// Diag is one compiler diagnostic: a file:line:col-located message at
// a given severity.
type Diag struct {
	File     string
	Line     int
	Column   int
	Severity Severity
	Kind     string // e.g. "OverloadNotFound", "TypeMismatch"
	Message  string
}

func (d Diag) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.Severity, d.Message)
}

// DiagList accumulates diagnostics during a single compile.
type DiagList []Diag

// Add appends a diagnostic, panicking abortCompile once DiagLimit is
// exceeded. Callers that want to keep accumulating diagnostics past
// individual function failures should recover abortCompile at the
// module-compile boundary.
func (l *DiagList) Add(d Diag) {
	*l = append(*l, d)
	if len(*l) > DiagLimit {
		panic(abortCompile{})
	}
}

// Addf appends a formatted diagnostic.
func (l *DiagList) Addf(file string, line, col int, sev Severity, kind, format string, args ...interface{}) {
	l.Add(Diag{File: file, Line: line, Column: col, Severity: sev, Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether the list contains a diagnostic at Error
// severity or above.
func (l DiagList) HasErrors() bool {
	for _, d := range l {
		if d.Severity >= Error {
			return true
		}
	}
	return false
}

// Lines renders every diagnostic as "<file>:<line>:<column>: <severity>: <message>".
func (l DiagList) Lines() []string {
	lines := make([]string, len(l))
	for i, d := range l {
		lines[i] = d.String()
	}
	return lines
}

// Recover should be deferred by any function that calls Add and wants to
// swallow an abortCompile panic rather than let it escape.
func Recover() {
	if r := recover(); r != nil {
		if _, ok := r.(abortCompile); !ok {
			panic(r)
		}
	}
}
