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

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// CPU is one per-CPU scheduler loop's local state: which PCB it is
// currently running, if any. Lock-nesting depth lives on Table rather
// than here; see the doc comment on Table.ncli.
type CPU struct {
	ID   int
	Proc *PCB
}

// Kernel owns the process table and every piece of scheduler state
// that must be recomputed together with it: the stride set, the tick
// clock, and the per-level dispatch index. The process-facing calls
// (Fork, Exit, Wait, Kill, SetCPUShare, the thread operations) hang
// off Kernel and Task.
type Kernel struct {
	table *Table
	clock Clock

	minMLFQShare int

	initPID int
	bootOne sync.Once

	log     *logrus.Entry
	limiter *rate.Limiter
	levels  *levelIndex

	tickMu   sync.Mutex
	tickCond *sync.Cond
	stopping bool
}

// NewKernel constructs a Kernel with nproc process slots (DefaultNPROC
// if <= 0) and minMLFQShare percent permanently reserved for the MLFQ
// class (DefaultMinMLFQShare if <= 0).
func NewKernel(nproc int, clk Clock, minMLFQShare int) *Kernel {
	if clk == nil {
		clk = NewClock()
	}
	if minMLFQShare <= 0 {
		minMLFQShare = DefaultMinMLFQShare
	}
	k := &Kernel{
		table:        NewTable(nproc),
		clock:        clk,
		minMLFQShare: minMLFQShare,
		log:          logrus.WithField("component", "kernel"),
		limiter:      rate.NewLimiter(rate.Limit(20), 1),
		levels:       newLevelIndex(),
	}
	k.tickCond = sync.NewCond(&k.tickMu)
	return k
}

// Boot allocates the init process and returns its Task. Boot must be
// called exactly once, before any Fork.
func (k *Kernel) Boot(name string, w Workload) *Task {
	p, err := k.spawn(name, nil, newFakeAddressSpace(), newFakeFileTable(0), w)
	if err != nil {
		fatalf("kernel: boot: %v", err)
	}
	k.table.lock()
	k.publish(p)
	k.initPID = p.PID
	k.table.unlock()
	return p.task
}

// spawn allocates a PCB and starts its task goroutine. The slot is
// returned still Embryo: the caller finishes construction and
// publishes it Runnable under the table lock, so a half-built process
// is never dispatchable. On any failure after reservation the slot is
// reverted to Unused.
func (k *Kernel) spawn(name string, parent *PCB, addr AddressSpace, files FileTable, w Workload) (*PCB, error) {
	p := k.table.allocate(name)
	if p == nil {
		k.log.WithField("name", name).Warn("process table full")
		return nil, ErrNoFreeSlot
	}
	if addr == nil {
		k.table.revert(p)
		k.log.WithField("name", name).Warn("address space allocation failed")
		return nil, ErrAddressSpace
	}
	p.Parent = parent
	p.Addr = addr
	p.Files = files
	p.Stack = StackAllocator()
	newTask(k, p, w)
	k.log.WithField("pid", p.PID).WithField("name", name).Debug("allocated")
	return p, nil
}

// publish marks a fully constructed PCB Runnable. Caller must hold the
// table lock.
func (k *Kernel) publish(p *PCB) {
	p.State = Runnable
	k.levels.record(p.MLFQLevel)
}

// InitTask returns the Task handle for the init process booted by
// Boot, or nil if Boot has not been called yet.
func (k *Kernel) InitTask() *Task {
	k.table.lock()
	defer k.table.unlock()
	p := k.table.byPID(k.initPID)
	if p == nil {
		return nil
	}
	return p.task
}

// bootNormalize levels every Running/Runnable MLFQ-governed PCB to L2
// with a full allotment and rebuilds the stride set once, before the
// first dispatch. Shares admitted between Boot and Run are preserved,
// and sleepers keep their level rather than being marked non-existent:
// a sleeping thread-group leader marked LevelNone would starve its
// runnable threads.
func (k *Kernel) bootNormalize() {
	k.bootOne.Do(func() {
		k.table.lock()
		k.table.forEach(func(p *PCB) {
			if p.IsThread || p.IsStride {
				return
			}
			switch p.State {
			case Running, Runnable:
				p.MLFQLevel = LevelHigh
				p.Allotment = allotmentFor(LevelHigh)
			case Sleeping:
			default:
				p.MLFQLevel = LevelNone
				p.Allotment = 0
			}
		})
		k.table.recomputeStride()
		k.table.unlock()
	})
}

// Run launches numCPU per-CPU scheduler loops supervised by an
// errgroup.Group, plus a tick driver that advances the clock and
// invokes boost every BoostInterval ticks. It blocks until ctx is
// cancelled or a loop returns an error.
func (k *Kernel) Run(ctx context.Context, numCPU int) error {
	k.bootNormalize()
	k.tickMu.Lock()
	k.stopping = false
	k.tickMu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < numCPU; i++ {
		id := i
		g.Go(func() error { return k.runCPU(ctx, id) })
	}
	g.Go(func() error { return k.runTickDriver(ctx) })
	g.Go(func() error {
		// Unblock any CPU parked in waitOneTick once the tick driver is
		// about to stop producing ticks, or g.Wait would hang.
		<-ctx.Done()
		k.tickMu.Lock()
		k.stopping = true
		k.tickCond.Broadcast()
		k.tickMu.Unlock()
		return ctx.Err()
	})
	return g.Wait()
}

func (k *Kernel) runCPU(ctx context.Context, id int) error {
	cpu := &CPU{ID: id}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		k.StepOnce(cpu)
	}
}

// StepOnce runs exactly one scheduler-loop iteration on the given CPU:
// consult the stride accumulators, dispatch one task (or busy-wait a
// tick), and update the winner's pass. It is exported so tests can
// drive the scheduler deterministically without starting Run's
// goroutine fleet.
func (k *Kernel) StepOnce(cpu *CPU) {
	k.table.lock()
	defer k.table.unlock()
	k.stepLocked(cpu)
}

func (k *Kernel) stepLocked(cpu *CPU) {
	hasStride := len(k.table.stride.entries) > 0

	pcb, entry := k.table.selectStride()
	if pcb == nil {
		dispatched := k.dispatchMLFQOnce(cpu)
		if !dispatched && hasStride {
			// The MLFQ class won the pass race but has nothing
			// runnable right now. Busy-wait one tick rather than
			// immediately handing the turn to stride, so a
			// momentarily-idle MLFQ still gets its reserved slot
			// instead of stride processes opportunistically grabbing
			// it. The table lock is released for the wait so other
			// goroutines (a wakeup, a new stride admission) can make
			// progress; pass is not advanced for this idle round.
			k.table.unlock()
			k.waitOneTick()
			k.table.lock()
			return
		}
	} else if pcb.State == Runnable {
		k.dispatchDirect(cpu, pcb)
	}

	if hasStride {
		k.table.afterStrideDispatch(entry)
	}
}

// dispatchMLFQOnce performs one MLFQ dispatch: select the eligible PCB
// at maxlev, compute its slice, run it (directly, or via the thread
// sub-scheduler if it is a thread-group leader), and apply allotment
// decay. It returns false if the MLFQ class had nothing runnable.
func (k *Kernel) dispatchMLFQOnce(cpu *CPU) bool {
	p := k.table.selectMLFQ()
	if p == nil {
		return false
	}
	hasStride := len(k.table.stride.entries) > 0
	p.LastSlice = sliceFor(p.MLFQLevel, hasStride)

	cpu.Proc = p
	stampin := k.clock.Stamp()
	if p.NumThread > 0 {
		k.runThreadGroup(cpu, p)
	} else {
		k.dispatchOne(cpu, p)
	}
	stampout := k.clock.Stamp()
	cpu.Proc = nil

	elapsed := (stampout - stampin) / 2 // platform cycle-count scaling
	before := p.MLFQLevel
	demote(p, elapsed)
	if p.MLFQLevel != before {
		k.log.WithField("pid", p.PID).WithField("level", int(p.MLFQLevel)).Debug("demoted")
	}
	k.levels.record(p.MLFQLevel)
	return true
}

// dispatchDirect runs p (a stride-selected PCB) for one dispatch with
// no MLFQ accounting. Stride dispatches always get the short slice.
func (k *Kernel) dispatchDirect(cpu *CPU, p *PCB) {
	p.LastSlice = sliceFor(LevelStride, true)
	cpu.Proc = p
	k.dispatchOne(cpu, p)
	cpu.Proc = nil
}

// dispatchOne is the context-switch primitive: set p Running and hand
// control to its task goroutine, then block until it relinquishes
// control. Caller must hold the table lock; ownership of the lock
// crosses to the task with the resume send (it is the task's job to
// release it and re-acquire it before handing back) and returns with
// the yielded receive.
func (k *Kernel) dispatchOne(cpu *CPU, p *PCB) {
	if p.task == nil {
		fatalf("dispatch: pid %d has no task", p.PID)
	}
	p.State = Running
	p.task.resume <- struct{}{}
	<-p.task.yielded
}

// threadMembers returns every PCB carrying leader's thread-group id,
// in table order: the ring the round-robin cursor walks. Membership is
// by tgid alone, so the leader is a member of its own ring and gets a
// turn like any thread.
func (t *Table) threadMembers(leader *PCB) []*PCB {
	var members []*PCB
	for _, p := range t.procs {
		if p.State != Unused && p.TGID == leader.TGID {
			members = append(members, p)
		}
	}
	return members
}

// runThreadGroup is the thread sub-scheduler: starting immediately
// after the leader's round-robin cursor, it walks one full circuit of
// the group ring, dispatching each Runnable member once. A circuit in
// which every member is blocked dispatches nothing. Either way control
// returns to the outer scheduler after at most one circuit, with the
// cursor stored for the next selection to continue from.
func (k *Kernel) runThreadGroup(cpu *CPU, leader *PCB) {
	members := k.table.threadMembers(leader)
	if len(members) == 0 {
		leader.PrevThread = nil
		return
	}

	start := 0
	if leader.PrevThread != nil {
		for i, m := range members {
			if m == leader.PrevThread {
				start = (i + 1) % len(members)
				break
			}
		}
	}

	var cursor *PCB
	for i := 0; i < len(members); i++ {
		m := members[(start+i)%len(members)]
		cursor = m
		if m.State != Runnable {
			continue
		}
		cpu.Proc = m
		k.dispatchOne(cpu, m)
		cpu.Proc = nil
	}
	leader.PrevThread = cursor
}

// Boost forces an immediate priority boost outside the normal
// BoostInterval cadence, for tools and tests that want to observe its
// effect without waiting out a full interval.
func (k *Kernel) Boost() {
	k.table.lock()
	defer k.table.unlock()
	k.table.boost()
}

// waitOneTick blocks until the tick counter advances at least once, or
// until the kernel is shutting down. Must be called without the table
// lock held.
func (k *Kernel) waitOneTick() {
	k.tickMu.Lock()
	defer k.tickMu.Unlock()
	start := k.clock.Ticks()
	for k.clock.Ticks() == start && !k.stopping {
		k.tickCond.Wait()
	}
}

// Tick advances the tick counter by one, waking any StepOnce blocked
// in waitOneTick, and invokes a priority boost every BoostInterval
// ticks, the job a timer interrupt handler does on real hardware.
// Production code drives this from runTickDriver; tests may call it
// directly for deterministic boost timing.
func (k *Kernel) Tick() int64 {
	k.tickMu.Lock()
	v := k.clock.Tick()
	k.tickCond.Broadcast()
	k.tickMu.Unlock()

	if v%BoostInterval == 0 {
		k.table.lock()
		k.table.boost()
		k.table.unlock()
	}
	return v
}

func (k *Kernel) runTickDriver(ctx context.Context) error {
	tick := time.NewTicker(time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			k.Tick()
		}
	}
}

// assertSchedInvariants is the suspension-point entry contract: the
// table lock held at exactly one level of nesting, and the calling
// task already out of the Running state. Any violation is a kernel
// bug, not a recoverable error.
func (t *Table) assertSchedInvariants(p *PCB) {
	if !t.held() {
		fatalf("sched: table lock not held")
	}
	if t.ncli != 1 {
		fatalf("sched: ncli == %d, want 1", t.ncli)
	}
	if p.State == Running {
		fatalf("sched: pid %d still marked running", p.PID)
	}
}
