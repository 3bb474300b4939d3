// Copyright 2024 The mlfqstride Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package kernel

import "testing"

func TestAllocateAssignsIncreasingPIDs(t *testing.T) {
	tbl := NewTable(4)
	a := tbl.allocate("a")
	b := tbl.allocate("b")
	if a == nil || b == nil {
		t.Fatal("allocate returned nil on a fresh table")
	}
	if b.PID <= a.PID {
		t.Fatalf("pids not increasing: a=%d b=%d", a.PID, b.PID)
	}
	if a.State != Embryo || b.State != Embryo {
		t.Fatalf("allocated slots should start Embryo, got %v and %v", a.State, b.State)
	}
	if a.MLFQLevel != LevelHigh || a.Allotment != 20*TickSize {
		t.Fatalf("allocated slot not admitted at L2 full allotment: level=%v allotment=%d", a.MLFQLevel, a.Allotment)
	}
}

func TestAllocateReturnsNilWhenFull(t *testing.T) {
	tbl := NewTable(2)
	if tbl.allocate("a") == nil || tbl.allocate("b") == nil {
		t.Fatal("expected both slots to allocate")
	}
	if p := tbl.allocate("c"); p != nil {
		t.Fatalf("allocate on a full table returned %+v, want nil", p)
	}
}

func TestRevertFreesSlotForReuse(t *testing.T) {
	tbl := NewTable(1)
	p := tbl.allocate("a")
	if p == nil {
		t.Fatal("allocate failed")
	}
	tbl.revert(p)
	q := tbl.allocate("b")
	if q == nil {
		t.Fatal("allocate after revert failed: slot not reclaimed")
	}
}

func TestFreeResetsZombieToUnused(t *testing.T) {
	tbl := NewTable(1)
	p := tbl.allocate("a")
	p.State = Zombie
	tbl.lock()
	tbl.free(p)
	tbl.unlock()
	if p.State != Unused {
		t.Fatalf("state after free = %v, want Unused", p.State)
	}
	if p.PID != 0 || p.Name != "" {
		t.Fatalf("free left stale identity: pid=%d name=%q", p.PID, p.Name)
	}
}

func TestLockTracksHeldDepth(t *testing.T) {
	tbl := NewTable(1)
	if tbl.held() {
		t.Fatal("held() true before any lock")
	}
	tbl.lock()
	if !tbl.held() {
		t.Fatal("held() false while locked")
	}
	tbl.unlock()
	if tbl.held() {
		t.Fatal("held() true after unlock")
	}
}

func TestUnbalancedUnlockIsFatal(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("unlock without a matching lock should reach fatalf")
		}
	}()
	fatalf = func(format string, args ...any) { panic("fatal") }
	defer func() { fatalf = realFatalf }()

	tbl := NewTable(1)
	tbl.unlock()
}

func TestForEachSkipsUnused(t *testing.T) {
	tbl := NewTable(3)
	tbl.allocate("a")
	tbl.allocate("b")
	seen := 0
	tbl.forEach(func(p *PCB) { seen++ })
	if seen != 2 {
		t.Fatalf("forEach visited %d slots, want 2", seen)
	}
}
