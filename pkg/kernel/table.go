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

import "sync"

// DefaultNPROC is the default fixed process-table size.
const DefaultNPROC = 64

// Table is the fixed-size process table and the single mutex that
// serializes every policy decision and state transition. Everything in
// pkg/kernel that reads or writes a PCB's State, scheduling fields, or
// thread-group fields does so while mu is held.
type Table struct {
	mu sync.Mutex

	procs []*PCB

	nextPID int
	nextTID int // next thread-group id

	stride strideSet

	// ncli mirrors the nesting depth of whoever currently owns mu. It
	// is only ever written under mu, and ownership of mu itself moves
	// between a scheduler loop and the task it dispatched: the scheduler
	// acquires, the dispatched task releases on its way back into its
	// workload, re-acquires per kernel call, and leaves the lock held
	// for the scheduler when it hands control back. At most one party
	// is ever active in that chain, so one shared counter suffices.
	ncli int
}

// NewTable allocates an NPROC-slot table, all initially Unused.
func NewTable(nproc int) *Table {
	if nproc <= 0 {
		nproc = DefaultNPROC
	}
	t := &Table{procs: make([]*PCB, nproc), nextPID: 1, nextTID: 1}
	for i := range t.procs {
		t.procs[i] = &PCB{State: Unused, MLFQLevel: LevelNone}
	}
	return t
}

// lock/unlock are the table's acquire/release. The lock is not
// reentrant: a goroutine that already holds it and acquires again has
// deadlocked itself, which is a kernel bug, not a supported path.
// unlock may legally run on a different goroutine than the matching
// lock, which is how lock ownership transfers across the dispatch
// hand-off (see Task).
func (t *Table) lock() {
	t.mu.Lock()
	t.ncli++
}

func (t *Table) unlock() {
	if t.ncli <= 0 {
		fatalf("table: unbalanced unlock")
	}
	t.ncli--
	t.mu.Unlock()
}

// held reports whether the calling thread of control currently holds
// the table lock, for the hand-off assertions in assertSchedInvariants.
func (t *Table) held() bool { return t.ncli > 0 }

// allocate scans for the first Unused slot, transitions it to Embryo,
// and assigns it a pid. It returns nil if the table is full. Caller
// must not hold the lock.
func (t *Table) allocate(name string) *PCB {
	t.lock()
	defer t.unlock()

	for _, p := range t.procs {
		if p.State == Unused {
			p.State = Embryo
			p.PID = t.nextPID
			t.nextPID++
			p.Name = name
			p.MLFQLevel = LevelHigh
			p.Allotment = 20 * int64(TickSize)
			p.IsStride = false
			p.Share = 0
			p.IsThread = false
			p.TGID = 0
			p.NumThread = 0
			p.NumSleepingThread = 0
			p.Killed = false
			p.Parent = nil
			p.Chan = nil
			p.RetVal = nil
			p.PrevThread = nil
			return p
		}
	}
	return nil
}

// revert undoes a reservation made by allocate after a later step of
// construction fails, returning the slot to Unused.
func (t *Table) revert(p *PCB) {
	t.lock()
	defer t.unlock()
	*p = PCB{State: Unused, MLFQLevel: LevelNone}
}

// free reclaims a Zombie slot back to Unused on behalf of the parent's
// Wait or a sibling's ThreadJoin. Caller must hold the lock.
func (t *Table) free(p *PCB) {
	p.State = Unused
	p.PID = 0
	p.Parent = nil
	p.Name = ""
	p.Killed = false
	p.Chan = nil
	p.MLFQLevel = LevelNone
	p.Allotment = 0
	p.Addr = nil
	p.Stack = nil
	p.Files = nil
	p.IsThread = false
	p.TGID = 0
	p.IsStride = false
	p.Share = 0
	p.RetVal = nil
	p.task = nil
}

// hasRunnableThread reports whether any thread sharing leader's tgid is
// Runnable, used by PCB.eligible to keep a sleeping leader in
// contention for MLFQ selection.
func (t *Table) hasRunnableThread(leader *PCB) bool {
	for _, q := range t.procs {
		if q.IsThread && q.TGID == leader.TGID && q.State == Runnable {
			return true
		}
	}
	return false
}

// byPID returns the PCB with the given pid, or nil.
func (t *Table) byPID(pid int) *PCB {
	for _, p := range t.procs {
		if p.PID == pid && p.State != Unused {
			return p
		}
	}
	return nil
}

// forEach calls f for every non-Unused slot in table order, the tie
// break every policy scan relies on.
func (t *Table) forEach(f func(*PCB)) {
	for _, p := range t.procs {
		if p.State != Unused {
			f(p)
		}
	}
}
