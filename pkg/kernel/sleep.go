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

import "fmt"

// Sleep atomically records ch on the task's PCB, marks it Sleeping, and
// relinquishes control to the scheduler. The table lock is held from
// before the state change until the hand-off completes, which
// is what makes the pairing with Wakeup lose-free: a concurrent
// Wakeup(ch) cannot observe the PCB between "decided to sleep" and
// "marked Sleeping" because both only ever run while holding the same
// lock.
//
// Every condition a kernel task waits on here is guarded by the table
// lock itself, so there is no separate condition lock to swap for it.
// Callers that already hold the table lock (Wait, ThreadJoin) use
// sleepLocked directly.
func (t *Task) Sleep(ch WaitChannel) {
	if t == nil {
		fatalf("sleep: no current task")
	}
	t.tbl.lock()
	t.sleepLocked(ch)
	t.tbl.unlock()
}

// sleepLocked is Sleep's body for callers that already hold the table
// lock at depth 1. On return the task has been re-dispatched and still
// holds the lock.
func (t *Task) sleepLocked(ch WaitChannel) {
	if ch == nil {
		fatalf("sleep: nil wait channel")
	}
	t.pcb.Chan = ch
	t.pcb.State = Sleeping
	if t.pcb.IsThread && t.pcb.Parent != nil {
		t.pcb.Parent.NumSleepingThread++
	}
	t.lastWaitSite = fmt.Sprintf("%v", ch)
	t.relinquish()
	t.pcb.Chan = nil
}

// wakeupLocked promotes every Sleeping PCB waiting on ch to Runnable,
// clearing its wait channel; for each promoted thread the leader's
// sleeping-thread count is decremented. Caller must hold the table
// lock.
func (t *Table) wakeupLocked(ch WaitChannel) {
	t.forEach(func(p *PCB) {
		if p.State == Sleeping && p.Chan == ch {
			p.State = Runnable
			p.Chan = nil
			if p.IsThread && p.Parent != nil {
				p.Parent.NumSleepingThread--
			}
		}
	})
}

// Wakeup acquires the table lock and wakes every task sleeping on ch.
func (k *Kernel) Wakeup(ch WaitChannel) {
	k.table.lock()
	defer k.table.unlock()
	k.table.wakeupLocked(ch)
}
