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

// threadStackBytes is how much the leader's address space grows per
// thread: one stack page plus one guard page. The last join shrinks
// the space back to the leader's recorded pre-thread size, releasing
// all of these at once.
const threadStackBytes = 2 * 4096

// ThreadCreate spawns a new thread sharing t's address space and file
// table. The first thread created against a given leader establishes
// the thread group: its tgid, its round-robin cursor, and the saved
// pre-thread size for the last join to restore. The new thread is
// always governed by the round-robin sub-scheduler, never by the outer
// MLFQ directly.
func (t *Task) ThreadCreate(w Workload) (*Task, error) {
	k := t.k
	k.table.lock()

	leader := t.pcb
	if leader.NumThread == 0 {
		leader.TGID = k.table.nextTID
		k.table.nextTID++
		leader.OldSize = leader.Size
		leader.PrevThread = nil
	}
	k.table.unlock()

	np, err := k.spawn(leader.Name, leader, leader.Addr, leader.Files.Dup(), w)
	if err != nil {
		return nil, err
	}

	k.table.lock()
	defer k.table.unlock()
	newSize := leader.Size + threadStackBytes
	if !leader.Addr.Grow(newSize) {
		if np.Stack != nil {
			np.Stack.Release()
		}
		k.table.free(np)
		return nil, ErrAddressSpace
	}
	leader.Size = newSize
	np.Size = newSize
	np.IsThread = true
	np.IsStride = leader.IsStride
	np.MLFQLevel = LevelStride
	np.TGID = leader.TGID
	leader.NumThread++
	k.publish(np)

	return np.task, nil
}

// ThreadExit terminates the calling thread, recording retval for a
// later ThreadJoin and waking its leader (it may be joining). It is a
// contract violation to call ThreadExit from a task that is not a
// thread. Like Exit it never returns: the workload's stack unwinds
// back to the task goroutine's loop, which performs the final
// hand-off.
func (t *Task) ThreadExit(retval any) {
	t.k.table.lock()
	t.k.threadExitLocked(t, retval)
	panic(taskExited{})
}

// threadExitLocked is ThreadExit's bookkeeping half, also invoked by
// Task.loop when a thread's workload returns without calling
// ThreadExit. Caller must hold the table lock.
func (k *Kernel) threadExitLocked(t *Task, retval any) {
	p := t.pcb
	if !p.IsThread {
		fatalf("kernel: non-thread thread-exiting")
	}
	p.RetVal = retval
	p.State = Zombie
	if p.Parent != nil {
		p.Parent.NumThread--
		k.table.wakeupLocked(p.Parent)
	}
}

// ThreadJoin blocks until the thread named by tid exits, reaps its
// slot, and returns its retval. When tid names no thread in t's group
// at all it returns ErrNoSuchThread. When the joined thread was the
// last one in the group, the leader's address space is shrunk back to
// its pre-threading size and the group id cleared.
func (t *Task) ThreadJoin(tid int) (any, error) {
	k := t.k
	k.table.lock()
	defer k.table.unlock()

	leader := t.pcb
	for {
		target := k.table.byPID(tid)
		// Membership is checked via Parent, not TGID: Parent survives
		// until table.free wipes the slot, so it still matches a sibling
		// still sitting ZOMBIE after leader.TGID has already been
		// cleared below by an earlier join in the same group.
		if target == nil || !target.IsThread || target.Parent != leader {
			return nil, ErrNoSuchThread
		}
		if target.State == Zombie {
			retval := target.RetVal
			if target.Stack != nil {
				target.Stack.Release()
			}
			k.table.free(target)
			if leader.NumThread == 0 {
				if !leader.Addr.Shrink(leader.OldSize) {
					return nil, ErrLastShrinkFailed
				}
				leader.Size = leader.OldSize
				leader.TGID = 0
			}
			return retval, nil
		}
		t.sleepLocked(t.pcb)
	}
}
