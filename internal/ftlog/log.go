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

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Record is a single emitted log message.
type Record struct {
	Time     time.Time
	Severity Severity
	Category string
	Message  string
}

// Logger is Firtree's selective logging facility. A Logger is bound to
// a Selector; callers log against a named category and the Selector
// decides whether the message reaches the sink.
type Logger struct {
	mu  sync.Mutex
	sel *Selector
	w   io.Writer
}

// New returns a Logger writing allowed records to w, filtered by sel. A
// nil sel suppresses every category.
func New(w io.Writer, sel *Selector) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{sel: sel, w: w}
}

// SetSelector replaces the active Selector.
func (l *Logger) SetSelector(sel *Selector) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sel = sel
}

// Log emits msg under category at severity sev if the Logger's Selector
// allows it.
func (l *Logger) Log(category string, sev Severity, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.sel.Allows(category, sev) {
		return
	}
	fmt.Fprintf(l.w, "%s [%s] %s: %s\n", time.Now().Format(time.RFC3339Nano), sev, category, msg)
}

// Logf is Log with fmt.Sprintf-style formatting.
func (l *Logger) Logf(category string, sev Severity, format string, args ...interface{}) {
	l.Log(category, sev, fmt.Sprintf(format, args...))
}

// Critical logs at Critical severity under category "firtree", the
// severity the JIT uses when linking fails and a null function pointer
// is about to be returned.
func (l *Logger) Critical(msg string) { l.Log("firtree", Critical, msg) }

// Criticalf is Critical with formatting.
func (l *Logger) Criticalf(format string, args ...interface{}) {
	l.Logf("firtree", Critical, format, args...)
}

// Default is the process-wide logger every package reaches for rather
// than threading a *Logger through every call. Its compiled-in selector
// shows firtree-category messages above error severity; FIRTREE_LOG
// overrides it.
var Default = newDefault()

func newDefault() *Logger {
	// ">error" admits critical and everything above it; the selector
	// grammar has no two-character comparison operators.
	sel, err := FromEnvironment("+firtree>error")
	if err != nil {
		sel = nil
	}
	return New(os.Stderr, sel)
}
