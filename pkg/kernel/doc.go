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

// Package kernel implements a process/thread scheduler combining a
// 3-level Multi-Level Feedback Queue with a stride (proportional-share)
// scheduler, plus a user-level thread model whose threads are scheduled
// as a round-robin group behind their thread-group leader.
//
// The package has no notion of real address spaces, files, or
// interrupts: those are represented as collaborator interfaces
// (AddressSpace, FileTable) so that pkg/kernel can be exercised without
// a VM subsystem or file layer. A single Kernel owns one Table guarded
// by one mutex; every state transition happens while that mutex is
// held, mirroring the single global "table lock" the scheduler design
// is built around.
package kernel
