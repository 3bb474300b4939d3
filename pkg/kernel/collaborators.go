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

// This file defines the subsystems the scheduler consumes but does not
// implement (VM, kernel-stack allocation, the file layer) as
// interfaces, so pkg/kernel never depends on a concrete memory manager
// or filesystem. Production embedders supply real implementations; the
// fakes below exist for tests and for cmd/schedctl's demo workloads.

// AddressSpace is a process's user address space, grown or shrunk by
// GrowProc and the thread operations, duplicated by Fork, and shared
// by every thread of one thread group.
type AddressSpace interface {
	// Size returns the current user address-space size in bytes.
	Size() uintptr
	// Grow extends the address space to newSize, returning false on
	// out-of-memory.
	Grow(newSize uintptr) bool
	// Shrink reduces the address space to newSize, returning false on
	// failure.
	Shrink(newSize uintptr) bool
	// Fork returns a copy-on-write duplicate for a new process, or nil
	// on failure.
	Fork() AddressSpace
	// Release frees the address space. Only the last reference-holder
	// may call this; pkg/kernel enforces single-reclaimer ownership
	// itself rather than reference-counting inside AddressSpace.
	Release()
}

// KernelStack is a slot's exclusively owned kernel stack region,
// present from Embryo until the slot is reaped.
type KernelStack interface {
	Release()
}

// FileTable is a process's open-file handles and working-directory
// reference, duplicated on fork and thread creation and dropped on
// exit.
type FileTable interface {
	Dup() FileTable
	CloseAll()
}

// StackAllocator provisions the kernel stack for each newly allocated
// PCB. It is a package-level function value so an embedder or a test
// can substitute a real allocator; the default stack has no real
// memory behind it to manage.
var StackAllocator = func() KernelStack { return fakeKernelStack{} }

// fakeAddressSpace is a byte-counting AddressSpace for tests and demos:
// it has no real memory behind it, just a size, and never fails unless
// told to.
type fakeAddressSpace struct {
	size uintptr
	fail bool
}

func newFakeAddressSpace() *fakeAddressSpace { return &fakeAddressSpace{} }

func (a *fakeAddressSpace) Size() uintptr { return a.size }

func (a *fakeAddressSpace) Grow(newSize uintptr) bool {
	if a.fail {
		return false
	}
	a.size = newSize
	return true
}

func (a *fakeAddressSpace) Shrink(newSize uintptr) bool {
	if a.fail {
		return false
	}
	a.size = newSize
	return true
}

func (a *fakeAddressSpace) Fork() AddressSpace {
	if a.fail {
		return nil
	}
	return &fakeAddressSpace{size: a.size}
}

func (a *fakeAddressSpace) Release() {}

type fakeKernelStack struct{}

func (fakeKernelStack) Release() {}

// fakeFileTable is a reference-count-free FileTable: Dup returns a
// fresh value with the same descriptor count, matching the semantics
// tests need (distinct handles, no shared mutable state to race on).
type fakeFileTable struct {
	n int
}

func newFakeFileTable(n int) *fakeFileTable { return &fakeFileTable{n: n} }

func (f *fakeFileTable) Dup() FileTable { return &fakeFileTable{n: f.n} }

func (f *fakeFileTable) CloseAll() { f.n = 0 }
