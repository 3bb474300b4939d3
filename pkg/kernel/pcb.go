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

// State is a PCB's position in the Unused/Embryo/Sleeping/Runnable/
// Running/Zombie lifecycle.
type State int

const (
	Unused State = iota
	Embryo
	Sleeping
	Runnable
	Running
	Zombie
)

func (s State) String() string {
	switch s {
	case Unused:
		return "unused"
	case Embryo:
		return "embryo"
	case Sleeping:
		return "sleep "
	case Runnable:
		return "runble"
	case Running:
		return "run   "
	case Zombie:
		return "zombie"
	default:
		return "???"
	}
}

// Level is an MLFQ priority level, or a sentinel for stride-governed
// and non-existent slots.
type Level int

const (
	// LevelNone marks a slot with no process in it.
	LevelNone Level = -2
	// LevelStride marks a process governed by the stride scheduler
	// rather than the MLFQ.
	LevelStride Level = -1
	LevelLow    Level = 0
	LevelMid    Level = 1
	LevelHigh   Level = 2
)

// WaitChannel is an opaque token identifying a condition sleepers block
// on. Any comparable value works; Sleep and Wakeup never interpret it,
// only compare it.
type WaitChannel any

// PCB is one process-control-block slot. A Table holds NPROC of these;
// fields are only ever mutated while the owning Table's lock is held.
type PCB struct {
	State State
	PID   int
	Name  string

	Parent *PCB

	// Addr is shared by every member of a thread group and reclaimed by
	// the last joiner or the group leader's reaper; Stack is exclusively
	// owned by this slot.
	Addr  AddressSpace
	Stack KernelStack
	Files FileTable

	Size    uintptr // sz
	OldSize uintptr // old_sz, restored on the thread group's last join

	// Chan is non-nil iff State == Sleeping.
	Chan WaitChannel

	// Killed latches a kill request, observed at the task's next return
	// from a dispatch.
	Killed bool

	// MLFQ fields.
	MLFQLevel Level
	Allotment int64 // signed remaining time budget at MLFQLevel, in cycles
	LastSlice int64 // local_ticks computed for the dispatch in progress

	// Stride fields.
	IsStride bool
	Share    int // percent, 1..99

	// Thread-group fields.
	IsThread          bool
	TGID              int
	NumThread         int
	NumSleepingThread int
	PrevThread        *PCB // round-robin cursor, valid on the leader only
	RetVal            any  // set by thread_exit, read by thread_join

	// task is the goroutine-backed execution handle for this slot; nil
	// for a never-allocated or freed slot.
	task *Task
}

// String renders "pid state name", the line procdump prints per PCB.
func (p *PCB) String() string {
	return fmt.Sprintf("%d %s %s", p.PID, p.State, p.Name)
}

// eligible reports whether p is a candidate for MLFQ selection: a
// non-thread PCB that is itself runnable, or a leader with at least one
// runnable thread (a leader may sleep in a join while its threads still
// need CPU).
func (p *PCB) eligible(tbl *Table) bool {
	if p.IsThread {
		return false
	}
	if p.State == Runnable {
		return true
	}
	if p.State == Sleeping && p.NumThread > 0 {
		return tbl.hasRunnableThread(p)
	}
	return false
}
