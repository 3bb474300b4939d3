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

func TestLevelIndexRecordsInAscendingOrder(t *testing.T) {
	idx := newLevelIndex()
	idx.record(LevelHigh)
	idx.record(LevelLow)
	idx.record(LevelHigh)
	idx.record(LevelMid)

	snap := idx.snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot has %d entries, want 3 distinct levels", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if snap[i-1].level >= snap[i].level {
			t.Fatalf("snapshot not ascending at %d: %v then %v", i, snap[i-1].level, snap[i].level)
		}
	}
	for _, lc := range snap {
		if lc.level == LevelHigh && lc.count != 2 {
			t.Fatalf("LevelHigh count = %d, want 2", lc.count)
		}
	}
}

func TestKernelLevelCounts(t *testing.T) {
	k, _ := newTestKernel(t)
	counts := k.LevelCounts()
	if counts[LevelHigh] == 0 {
		t.Fatal("expected at least one LevelHigh dispatch recorded from boot + init's single dispatch")
	}
}
