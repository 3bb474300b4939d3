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

func TestMaxlevIgnoresThreadsAndUnused(t *testing.T) {
	tbl := NewTable(4)
	leader := tbl.allocate("leader")
	leader.State = Sleeping // no runnable thread yet: not eligible.
	leader.MLFQLevel = LevelMid

	thr := tbl.allocate("thr")
	thr.State = Runnable
	thr.IsThread = true
	thr.MLFQLevel = LevelHigh // would win if not excluded.

	if lvl := tbl.maxlev(); lvl != LevelNone {
		t.Fatalf("maxlev = %v, want LevelNone (thread excluded, leader not eligible)", lvl)
	}

	leader.NumThread = 1
	thr.TGID = 1
	leader.TGID = 1
	if lvl := tbl.maxlev(); lvl != LevelMid {
		t.Fatalf("maxlev = %v, want LevelMid (sleeping leader with runnable thread)", lvl)
	}
}

func TestSelectMLFQBreaksTiesByTableOrder(t *testing.T) {
	tbl := NewTable(4)
	a := tbl.allocate("a")
	a.State = Runnable
	a.MLFQLevel = LevelHigh
	b := tbl.allocate("b")
	b.State = Runnable
	b.MLFQLevel = LevelHigh

	got := tbl.selectMLFQ()
	if got != a {
		t.Fatalf("selectMLFQ = %v, want the earlier-allocated pid %d", got, a.PID)
	}
}

func TestBoostSkipsThreadsAndStride(t *testing.T) {
	tbl := NewTable(4)
	plain := tbl.allocate("plain")
	plain.State = Runnable
	plain.MLFQLevel = LevelLow
	plain.Allotment = 0

	stride := tbl.allocate("stride")
	stride.State = Runnable
	stride.MLFQLevel = LevelStride
	stride.IsStride = true

	thr := tbl.allocate("thr")
	thr.State = Runnable
	thr.IsThread = true
	thr.MLFQLevel = LevelLow

	tbl.boost()

	if plain.MLFQLevel != LevelHigh || plain.Allotment != allotmentFor(LevelHigh) {
		t.Fatalf("plain process not boosted: level=%v allotment=%d", plain.MLFQLevel, plain.Allotment)
	}
	if stride.MLFQLevel != LevelStride {
		t.Fatalf("stride process's level changed by boost: %v", stride.MLFQLevel)
	}
	if stride.Allotment != 20*TickSize {
		t.Fatalf("stride process's allotment changed by boost: %d", stride.Allotment)
	}
	if thr.MLFQLevel != LevelLow {
		t.Fatalf("thread's level changed by boost: %v", thr.MLFQLevel)
	}
}

func TestDemoteSequence(t *testing.T) {
	p := &PCB{MLFQLevel: LevelHigh, Allotment: allotmentFor(LevelHigh)}
	demote(p, allotmentFor(LevelHigh)+1)
	if p.MLFQLevel != LevelMid {
		t.Fatalf("after exhausting L2: level = %v, want LevelMid", p.MLFQLevel)
	}
	demote(p, allotmentFor(LevelMid)+1)
	if p.MLFQLevel != LevelLow {
		t.Fatalf("after exhausting L1: level = %v, want LevelLow", p.MLFQLevel)
	}
	before := p.Allotment
	demote(p, 1_000_000)
	if p.MLFQLevel != LevelLow || p.Allotment != before {
		t.Fatalf("L0 should be left alone by demote: level=%v allotment=%d (was %d)", p.MLFQLevel, p.Allotment, before)
	}
}
