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

// Fork creates a child of t's process: a fresh PCB with a forked
// AddressSpace, a duplicated FileTable, and a copy of t's name,
// admitted Runnable at the top MLFQ level and never stride. The child
// starts w running from the top.
func (t *Task) Fork(w Workload) (*Task, error) {
	addr := t.pcb.Addr.Fork()
	if addr == nil {
		return nil, ErrAddressSpace
	}
	files := t.pcb.Files.Dup()
	child, err := t.k.spawn(t.pcb.Name, t.pcb, addr, files, w)
	if err != nil {
		files.CloseAll()
		addr.Release()
		return nil, err
	}
	child.Size = t.pcb.Size
	t.k.table.lock()
	t.k.publish(child)
	t.k.table.unlock()
	return child.task, nil
}

// Exit terminates the calling task: closes its files, reparents any
// children to init, wakes its parent, and transitions to Zombie. Exit
// never returns to its caller: it unwinds the workload's stack back to
// the task goroutine's loop, which performs the final hand-off with
// the table lock still held for the scheduler to resume with.
func (t *Task) Exit(retval any) {
	t.k.table.lock()
	t.k.exitLocked(t, retval)
	panic(taskExited{})
}

// exitLocked performs the bookkeeping half of Exit (and the implicit
// exit a Workload triggers by returning, via Task.loop). Caller must
// hold the table lock; the caller is responsible for relinquishing the
// CPU afterward.
func (k *Kernel) exitLocked(t *Task, retval any) {
	p := t.pcb
	if p.PID == k.initPID {
		fatalf("kernel: init exiting")
	}
	if p.Files != nil {
		p.Files.CloseAll()
	}
	p.RetVal = retval

	k.table.wakeupLocked(p.Parent)

	init := k.table.byPID(k.initPID)
	k.table.forEach(func(q *PCB) {
		if q.Parent == p {
			q.Parent = init
			if q.State == Zombie {
				k.table.wakeupLocked(init)
			}
		}
	})

	p.State = Zombie
	k.log.WithField("pid", p.PID).Debug("exited")
}

// Wait blocks until a child of t's process exits, reaping it and
// returning its pid. It returns ErrNoChildren if t has no children,
// and ErrKilled if t was killed while waiting.
func (t *Task) Wait() (int, error) {
	k := t.k
	k.table.lock()
	defer k.table.unlock()
	for {
		haveKids := false
		var reaped *PCB
		k.table.forEach(func(p *PCB) {
			// Threads also carry Parent = leader, but they are reaped
			// by ThreadJoin, never by Wait: only the last joiner or the
			// leader's reaper may touch the shared address space.
			if reaped != nil || p.Parent != t.pcb || p.IsThread {
				return
			}
			haveKids = true
			if p.State == Zombie {
				reaped = p
			}
		})
		if reaped != nil {
			pid := reaped.PID
			wasStride := reaped.IsStride
			if reaped.Stack != nil {
				reaped.Stack.Release()
			}
			if reaped.Addr != nil {
				reaped.Addr.Release()
			}
			k.table.free(reaped)
			if wasStride {
				k.table.recomputeStride()
			}
			k.log.WithField("pid", pid).Debug("reaped")
			return pid, nil
		}
		if t.pcb.Killed {
			return -1, ErrKilled
		}
		if !haveKids {
			return -1, ErrNoChildren
		}
		t.sleepLocked(t.pcb)
	}
}

// Kill latches the kill flag on pid and, if it is sleeping, makes it
// runnable again so it observes the flag on its next dispatch. If pid
// names a stride process, its reserved share is returned to the MLFQ
// class immediately rather than waiting for Wait, and the victim is
// readmitted to the MLFQ at the top level so some policy still
// dispatches it long enough to die.
func (k *Kernel) Kill(pid int) error {
	k.table.lock()
	defer k.table.unlock()
	p := k.table.byPID(pid)
	if p == nil {
		return ErrNoSuchPID
	}
	p.Killed = true
	if p.State == Sleeping {
		p.State = Runnable
		p.Chan = nil
		if p.IsThread && p.Parent != nil {
			p.Parent.NumSleepingThread--
		}
	}
	if p.IsStride {
		p.IsStride = false
		p.Share = 0
		if !p.IsThread {
			p.MLFQLevel = LevelHigh
			p.Allotment = allotmentFor(LevelHigh)
		}
		k.table.recomputeStride()
	}
	k.log.WithField("pid", pid).Debug("kill latched")
	return nil
}

// GrowProc resizes t's address space by n bytes, positive to grow and
// negative to shrink.
func (t *Task) GrowProc(n int) error {
	t.k.table.lock()
	defer t.k.table.unlock()

	p := t.pcb
	sz := p.Size
	switch {
	case n > 0:
		if !p.Addr.Grow(sz + uintptr(n)) {
			return ErrAddressSpace
		}
	case n < 0:
		if !p.Addr.Shrink(sz - uintptr(-n)) {
			return ErrAddressSpace
		}
	default:
		return nil
	}
	p.Size = p.Addr.Size()
	return nil
}

// SetCPUShare enrolls the process named by pid in the stride scheduler
// with the given percent share, rejecting the request if it would
// leave less than MinMLFQShare percent for the MLFQ class. A thread's
// pid is rejected outright: threads are dispatched through their
// leader's group, never from the stride list, so a share granted to
// one would reserve CPU it can never be handed.
func (k *Kernel) SetCPUShare(pid int, share int) error {
	k.table.lock()
	defer k.table.unlock()
	if share < 1 || share > 99 {
		return ErrInvalidShare
	}
	p := k.table.byPID(pid)
	if p == nil || p.IsThread {
		return ErrNoSuchPID
	}
	if !k.table.admitStride(share, k.minMLFQShare) {
		k.log.WithField("pid", pid).WithField("share", share).Warn("stride admission rejected")
		return ErrOverSubscribed
	}
	p.IsStride = true
	p.Share = share
	k.table.recomputeStride()
	k.log.WithField("pid", pid).WithField("share", share).Info("stride admitted")
	return nil
}
