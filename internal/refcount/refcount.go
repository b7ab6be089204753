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

// Package refcount is the small atomic reference counter shared by
// CompiledKernel and SamplerProvider for their owned-object lifecycle
// bookkeeping.
package refcount

import "sync/atomic"

// Counter is a thread-safe reference count starting at one (the
// creator's own reference). Release returns true exactly once, the
// first time the count reaches zero, so callers can free the owned
// resource exactly once.
type Counter struct {
	n atomic.Int64
}

// New returns a Counter initialised to one reference.
func New() *Counter {
	c := &Counter{}
	c.n.Store(1)
	return c
}

// Retain increments the count, taking a new owning reference.
func (c *Counter) Retain() { c.n.Add(1) }

// Release drops one reference and reports whether this call dropped
// the count to zero.
func (c *Counter) Release() bool { return c.n.Add(-1) == 0 }

// Count returns the current reference count (for tests/diagnostics).
func (c *Counter) Count() int64 { return c.n.Load() }
