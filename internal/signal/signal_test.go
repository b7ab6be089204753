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

package signal

import "testing"

func TestBroadcastFiresEveryListener(t *testing.T) {
	var b Broadcast
	var a, c int
	b.Listen(func() { a++ })
	b.Listen(func() { c++ })
	b.Fire()
	if a != 1 || c != 1 {
		t.Fatalf("a=%d c=%d, want 1,1", a, c)
	}
	b.Fire()
	if a != 2 || c != 2 {
		t.Fatalf("a=%d c=%d, want 2,2", a, c)
	}
}

func TestBroadcastCancelStopsFutureFires(t *testing.T) {
	var b Broadcast
	var count int
	cancel := b.Listen(func() { count++ })
	b.Fire()
	cancel()
	b.Fire()
	if count != 1 {
		t.Fatalf("count = %d after cancel, want 1", count)
	}
}

// ConnectChild propagation: a child's ModuleChanged and
// ContentsChanged signals must reach the parent, and disconnecting must
// stop that propagation without affecting the child's own listeners.
func TestConnectChildPropagatesAndDisconnects(t *testing.T) {
	parent, child := &Set{}, &Set{}
	var parentModuleFired, parentContentsFired, childModuleFired int
	child.ModuleChanged.Listen(func() { childModuleFired++ })
	parent.ModuleChanged.Listen(func() { parentModuleFired++ })
	parent.ContentsChanged.Listen(func() { parentContentsFired++ })

	disconnect := ConnectChild(parent, child)

	child.ModuleChanged.Fire()
	child.ContentsChanged.Fire()
	if parentModuleFired != 1 || parentContentsFired != 1 || childModuleFired != 1 {
		t.Fatalf("parentModule=%d parentContents=%d childModule=%d, want 1,1,1", parentModuleFired, parentContentsFired, childModuleFired)
	}

	disconnect()
	child.ModuleChanged.Fire()
	if parentModuleFired != 1 {
		t.Fatalf("parentModule fired again after disconnect: %d", parentModuleFired)
	}
	if childModuleFired != 2 {
		t.Fatalf("child's own listener should still fire after disconnect: %d", childModuleFired)
	}
}
