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
	"errors"

	"github.com/sirupsen/logrus"
)

// Resource-exhaustion and input-validation errors. Callers of the
// Kernel's process-facing methods get these back as ordinary Go
// errors; exhaustion is reported, never retried.
var (
	ErrNoFreeSlot       = errors.New("kernel: no free process slot")
	ErrAddressSpace     = errors.New("kernel: address space operation failed")
	ErrNoChildren       = errors.New("kernel: no children and caller not killed")
	ErrKilled           = errors.New("kernel: caller has been killed")
	ErrNoSuchPID        = errors.New("kernel: no such pid")
	ErrOverSubscribed   = errors.New("kernel: stride share request would exceed admission ceiling")
	ErrInvalidShare     = errors.New("kernel: share must be in [1,99]")
	ErrNoSuchThread     = errors.New("kernel: no such thread in caller's group")
	ErrLastShrinkFailed = errors.New("kernel: address space shrink on last join failed")
)

// fatalf reports a contract violation: a caller broke an internal
// invariant (sleeping with no current task, a thread exit from a
// non-thread, a wrong-lock-depth hand-off, init exiting). These are
// bugs in the kernel or its caller, not reportable runtime errors, so
// they log at Fatal, which terminates the process.
//
// fatalf is a variable, not a plain function, so tests can substitute a
// panic in place of the process-ending logrus.Fatalf and assert that a
// given call path reaches it.
var fatalf = realFatalf

func realFatalf(format string, args ...any) {
	logrus.Fatalf(format, args...)
}
