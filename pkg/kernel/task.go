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

// Workload is the simulated "user program" a Task runs. Its Run method
// executes on the task's own goroutine; it drives the task's lifetime
// by calling Yield, Sleep, or Exit (or simply returning, which Task
// treats as an implicit Exit(nil) — or ThreadExit(nil) for a thread).
type Workload interface {
	Run(t *Task)
}

// WorkloadFunc adapts a plain function to Workload.
type WorkloadFunc func(t *Task)

// Run implements Workload.
func (f WorkloadFunc) Run(t *Task) { f(t) }

// taskExited is the panic value Exit and ThreadExit unwind the
// workload's stack with. Task.loop recovers it and performs the final
// hand-off to the scheduler, so exit never returns to its caller and
// no parked goroutine is leaked per dead task.
type taskExited struct{}

// Task is the execution handle for one PCB. Each Task owns a goroutine
// that is parked on resume until the scheduler hands it control, and
// that signals yielded when it relinquishes control back. The handoff
// pair is unbuffered: a send only completes once the other side is
// ready to receive, so "the task is running" and "the scheduler is
// blocked waiting for it" are always true at the same time.
//
// Table-lock ownership crosses the handoff with control: the scheduler
// acquires the lock and dispatches; the task wakes up owning it,
// releases it before running workload code, and re-acquires it inside
// each kernel call; whichever call hands control back (Yield, Sleep,
// Exit, ThreadExit) leaves the lock held for the scheduler to resume
// with.
type Task struct {
	pcb *PCB
	tbl *Table
	k   *Kernel

	resume  chan struct{}
	yielded chan struct{}

	lastWaitSite string // best-effort site name for ProcDump
}

func newTask(k *Kernel, pcb *PCB, w Workload) *Task {
	t := &Task{
		pcb:     pcb,
		tbl:     k.table,
		k:       k,
		resume:  make(chan struct{}),
		yielded: make(chan struct{}),
	}
	pcb.task = t
	go t.loop(w)
	return t
}

// loop is the task's goroutine body. It waits for its first dispatch,
// releases the table lock the scheduler handed over, and runs the
// workload. A natural return from Run is an implicit exit; an
// Exit/ThreadExit call unwinds to here as a taskExited panic. Either
// way the deferred hand-off below gives the CPU back to the scheduler
// exactly once, with the lock held and the PCB already Zombie, and the
// goroutine ends.
//
// A nil workload parks itself sleeping on a channel nothing ever wakes
// after its first dispatch. Boot relies on that to keep init alive
// without it perpetually winning MLFQ ties against every process
// forked under it: init must never exit, and once it has spawned its
// children it has nothing left to run.
func (t *Task) loop(w Workload) {
	<-t.resume
	t.tbl.unlock()
	if w == nil {
		for {
			t.Sleep(t)
		}
	}
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(taskExited); !ok {
				panic(r)
			}
		}
		t.tbl.assertSchedInvariants(t.pcb)
		t.yielded <- struct{}{}
	}()
	w.Run(t)
	t.tbl.lock()
	if t.pcb.IsThread {
		t.k.threadExitLocked(t, nil)
	} else {
		t.k.exitLocked(t, nil)
	}
}

// PID returns the task's process id.
func (t *Task) PID() int { return t.pcb.PID }

// ParentPID returns the parent's pid, or 0 for the parentless init.
func (t *Task) ParentPID() int {
	if t.pcb.Parent == nil {
		return 0
	}
	return t.pcb.Parent.PID
}

// SetName replaces the debug label inherited from the parent.
func (t *Task) SetName(name string) {
	t.tbl.lock()
	t.pcb.Name = name
	t.tbl.unlock()
}

// Slice returns the tick budget the scheduler computed for the
// dispatch currently in progress.
func (t *Task) Slice() int64 { return t.pcb.LastSlice }

// Killed reports the lazily-observed kill flag.
func (t *Task) Killed() bool { return t.pcb.Killed }

// ConsumeTicks advances the kernel's tick counter by n, simulating a
// workload that used n ticks of CPU. Each tick goes through Kernel.Tick
// so the periodic priority boost fires on the same cadence it would
// from a real timer interrupt. ConsumeTicks never blocks and never
// yields by itself; a CPU-bound workload calls it once per dispatch up
// to Slice() and then calls Yield, the voluntary-return model a timer
// tick handler drives in a real kernel.
func (t *Task) ConsumeTicks(n int64) {
	for i := int64(0); i < n; i++ {
		t.k.Tick()
	}
}

// relinquish hands control (and table-lock ownership) back to the
// scheduler and blocks until the scheduler dispatches this task again.
// The entry contract is asserted first: table lock held at depth 1 and
// the caller's state already mutated out of Running. On return the
// task once again owns the lock at depth 1.
func (t *Task) relinquish() {
	t.tbl.assertSchedInvariants(t.pcb)
	t.yielded <- struct{}{}
	<-t.resume
}

// Yield gives up the CPU for one scheduling round.
func (t *Task) Yield() {
	t.tbl.lock()
	if t.pcb.State == Zombie {
		fatalf("yield: zombie task")
	}
	t.pcb.State = Runnable
	t.relinquish()
	t.tbl.unlock()
}
