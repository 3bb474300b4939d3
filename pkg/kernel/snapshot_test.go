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

func TestSnapshotReflectsLiveState(t *testing.T) {
	k, _ := newTestKernel(t)
	child, err := k.InitTask().Fork(WorkloadFunc(func(t *Task) { t.Sleep(t) }))
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}
	if err := k.SetCPUShare(child.PID(), 30); err != nil {
		t.Fatalf("SetCPUShare: %v", err)
	}

	snaps := k.Snapshot()
	var found *Snapshot
	for i := range snaps {
		if snaps[i].PID == child.PID() {
			found = &snaps[i]
		}
	}
	if found == nil {
		t.Fatalf("no snapshot entry for pid %d", child.PID())
	}
	if !found.IsStride || found.Share != 30 {
		t.Fatalf("snapshot = %+v, want IsStride=true Share=30", *found)
	}
	if found.State != Runnable {
		t.Fatalf("snapshot.State = %v, want Runnable", found.State)
	}
}

// TestForkExitWaitRoundTripsTable: forking a child, letting it exit,
// and reaping it leaves the live table exactly as it was before the
// fork (modulo the pid counter, which Snapshot does not capture).
func TestForkExitWaitRoundTripsTable(t *testing.T) {
	k, _ := newTestKernel(t)
	init := k.InitTask()
	before := k.Snapshot()

	if _, err := init.Fork(WorkloadFunc(func(t *Task) {})); err != nil {
		t.Fatalf("Fork: %v", err)
	}
	k.StepOnce(&CPU{}) // child runs, implicitly exits.
	if _, err := init.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	after := k.Snapshot()
	if len(after) != len(before) {
		t.Fatalf("live slot count changed: %d -> %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("slot %d changed across fork/exit/wait: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestSnapshotIsDetachedFromLiveTable(t *testing.T) {
	k, _ := newTestKernel(t)
	child, err := k.InitTask().Fork(WorkloadFunc(func(t *Task) { t.Sleep(t) }))
	if err != nil {
		t.Fatalf("Fork: %v", err)
	}

	snaps := k.Snapshot()
	var before Snapshot
	for _, s := range snaps {
		if s.PID == child.PID() {
			before = s
		}
	}

	cpu := &CPU{}
	k.StepOnce(cpu) // dispatches the child, which sleeps: live PCB.State changes.

	if before.State != Runnable {
		t.Fatalf("captured snapshot.State = %v, want Runnable (unaffected by the later dispatch)", before.State)
	}
	if child.pcb.State != Sleeping {
		t.Fatalf("live PCB.State = %v, want Sleeping", child.pcb.State)
	}
}
