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

func TestGCD(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{40, 20, 20},
		{40, 40, 40},
		{48, 18, 6},
		{7, 3, 1},
	}
	for _, c := range cases {
		if got := gcd(c.a, c.b); got != c.want {
			t.Errorf("gcd(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestRecomputeStrideNoStrideProcesses(t *testing.T) {
	tbl := NewTable(2)
	tbl.recomputeStride()
	if len(tbl.stride.entries) != 0 {
		t.Fatalf("entries = %d, want 0", len(tbl.stride.entries))
	}
	if tbl.stride.mlfq.stride != 100 {
		t.Fatalf("mlfq.stride = %d, want 100 (no stride processes admitted)", tbl.stride.mlfq.stride)
	}
}

func TestRecomputeStrideAssignsInverseShareStrides(t *testing.T) {
	tbl := NewTable(4)
	a := tbl.allocate("a")
	a.IsStride, a.Share = true, 40
	b := tbl.allocate("b")
	b.IsStride, b.Share = true, 20
	tbl.recomputeStride()

	if a.MLFQLevel != LevelStride || b.MLFQLevel != LevelStride {
		t.Fatalf("recomputeStride did not mark processes LevelStride: a=%v b=%v", a.MLFQLevel, b.MLFQLevel)
	}
	if len(tbl.stride.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(tbl.stride.entries))
	}
	// Higher share -> shorter stride -> more frequent dispatch.
	var strideA, strideB int64
	for _, e := range tbl.stride.entries {
		switch e.proc {
		case a:
			strideA = e.stride
		case b:
			strideB = e.stride
		}
	}
	if strideA == 0 || strideB == 0 {
		t.Fatalf("zero stride computed: a=%d b=%d", strideA, strideB)
	}
	if strideA >= strideB {
		t.Fatalf("stride(40%% share) = %d should be less than stride(20%% share) = %d", strideA, strideB)
	}
}

func TestAdmitStrideRejectsOutOfRangeAndOversubscription(t *testing.T) {
	tbl := NewTable(2)
	if tbl.admitStride(0, 20) {
		t.Error("admitStride(0) should be rejected")
	}
	if tbl.admitStride(100, 20) {
		t.Error("admitStride(100) should be rejected")
	}
	if !tbl.admitStride(80, 20) {
		t.Error("admitStride(80) with minMLFQShare=20 should be admitted")
	}
	if tbl.admitStride(81, 20) {
		t.Error("admitStride(81) with minMLFQShare=20 should be rejected")
	}
}

func TestSelectStridePicksSmallestPass(t *testing.T) {
	tbl := NewTable(2)
	a := tbl.allocate("a")
	tbl.stride = strideSet{
		entries: []strideEntry{{proc: a, pass: 5, stride: 2}},
		mlfq:    strideEntry{pass: 3, stride: 2},
	}
	proc, entry := tbl.selectStride()
	if proc != nil {
		t.Fatalf("selectStride = %v, want the synthetic MLFQ entry (pass 3 < 5)", proc)
	}
	if entry.pass != 3 {
		t.Fatalf("entry.pass = %d, want 3", entry.pass)
	}
}

func TestSelectStrideBreaksTiesTowardMLFQ(t *testing.T) {
	tbl := NewTable(2)
	a := tbl.allocate("a")
	tbl.stride = strideSet{
		entries: []strideEntry{{proc: a, pass: 4, stride: 2}},
		mlfq:    strideEntry{pass: 4, stride: 2},
	}
	proc, entry := tbl.selectStride()
	if proc != nil {
		t.Fatalf("selectStride on an exact tie = %v, want the synthetic MLFQ entry", proc)
	}
	if entry != &tbl.stride.mlfq {
		t.Fatal("selectStride on an exact tie did not return the mlfq entry")
	}
}

func TestAfterStrideDispatchNormalizesPasses(t *testing.T) {
	tbl := NewTable(1)
	tbl.stride = strideSet{
		entries: []strideEntry{{pass: 4, stride: 2}},
		mlfq:    strideEntry{pass: 2, stride: 2},
	}
	// The MLFQ entry is behind; dispatching it catches its pass up to
	// match entries[0] exactly, which should trigger normalization.
	tbl.afterStrideDispatch(&tbl.stride.mlfq)
	if tbl.stride.entries[0].pass != 0 || tbl.stride.mlfq.pass != 0 {
		t.Fatalf("passes not normalized once all caught up: entry=%d mlfq=%d",
			tbl.stride.entries[0].pass, tbl.stride.mlfq.pass)
	}
}

func TestAfterStrideDispatchLeavesPassesWhenNotCaughtUp(t *testing.T) {
	tbl := NewTable(1)
	tbl.stride = strideSet{
		entries: []strideEntry{{pass: 4, stride: 2}},
		mlfq:    strideEntry{pass: 0, stride: 2},
	}
	tbl.afterStrideDispatch(&tbl.stride.mlfq)
	if tbl.stride.mlfq.pass != 2 {
		t.Fatalf("mlfq.pass = %d, want 2 (winner's stride added, not yet caught up)", tbl.stride.mlfq.pass)
	}
	if tbl.stride.entries[0].pass != 4 {
		t.Fatalf("entries[0].pass changed to %d, want unchanged 4", tbl.stride.entries[0].pass)
	}
}
