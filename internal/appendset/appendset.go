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

// Package appendset is the reduce sink. A Set is a singly-linked chain
// of nodes with one always-empty sentinel node held in hand at the
// tail; Append is the only operation safe to call from multiple
// goroutines at once, CAS-swapping the sentinel for a fresh one before
// filling in the node it displaced. The append path takes no lock.
package appendset

import "sync/atomic"

type node[T any] struct {
	next atomic.Pointer[node[T]]
	data T
}

// Set is a lock-free, append-only, unordered collection of T. The
// zero value is not ready to use; call New.
type Set[T any] struct {
	head  atomic.Pointer[node[T]]
	tail  atomic.Pointer[node[T]]
	count atomic.Int64
}

// New returns an empty Set.
func New[T any]() *Set[T] {
	s := &Set[T]{}
	sentinel := &node[T]{}
	s.head.Store(sentinel)
	s.tail.Store(sentinel)
	return s
}

// Append adds v to the set. Safe for concurrent use by any number of
// goroutines (the lock_free_set_add_element contract); it is the only
// method that is.
func (s *Set[T]) Append(v T) {
	fresh := &node[T]{}
	for {
		old := s.tail.Load()
		if s.tail.CompareAndSwap(old, fresh) {
			// old is now unreachable from tail but still reachable from
			// head's chain: link it in before filling its data. Nothing
			// walks the chain concurrently with an in-flight Append in
			// this module's own usage; internal/dispatch only snapshots
			// after its worker pool has joined.
			old.next.Store(fresh)
			old.data = v
			s.count.Add(1)
			return
		}
	}
}

// Len returns the number of elements appended so far. The count is
// monotonic.
func (s *Set[T]) Len() int64 { return s.count.Load() }

// Snapshot returns every appended element in an unspecified order. It
// is intended to be called after the producing workers have joined,
// not concurrently with Append.
func (s *Set[T]) Snapshot() []T {
	out := make([]T, 0, s.count.Load())
	n := s.head.Load()
	for {
		next := n.next.Load()
		if next == nil {
			break
		}
		out = append(out, n.data)
		n = next
	}
	return out
}
