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
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// TickSize is the cycles-per-tick constant allotments are denominated
// in. It is exported so tests can reason about allotments in ticks.
var TickSize int64 = 1000

// BoostInterval is the number of ticks between priority boosts.
var BoostInterval int64 = 100

// Clock supplies the monotonic cycle timestamp and tick counter the
// scheduler accounts with. It only ever needs the difference between
// two Stamp() calls and a running tick count, never wall-clock time.
type Clock interface {
	// Stamp returns a monotonically increasing cycle count.
	Stamp() int64
	// Ticks returns the number of timer ticks observed so far.
	Ticks() int64
	// Tick advances the tick count by one and returns the new value;
	// called by whatever drives the simulated timer interrupt.
	Tick() int64
}

// monotonicClock backs Stamp with CLOCK_MONOTONIC via
// golang.org/x/sys/unix, so accounting is immune to wall-clock
// adjustment.
type monotonicClock struct {
	ticks int64
}

// NewClock returns the production Clock implementation.
func NewClock() Clock { return &monotonicClock{} }

func (c *monotonicClock) Stamp() int64 {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		// The collaborator contract offers no error return; a failure
		// here means the host clock is unusable, which is fatal to
		// accounting rather than something a caller can recover from.
		fatalf("kernel: clock_gettime(CLOCK_MONOTONIC): %v", err)
	}
	return ts.Sec*1e9 + int64(ts.Nsec)
}

func (c *monotonicClock) Ticks() int64 { return atomic.LoadInt64(&c.ticks) }

func (c *monotonicClock) Tick() int64 { return atomic.AddInt64(&c.ticks, 1) }

// fakeClock is a deterministic Clock for tests: Stamp is driven
// explicitly rather than sampling the host, so dispatch-duration
// accounting in tests is exact instead of timing-sensitive.
type fakeClock struct {
	stamp int64
	ticks int64
}

func newFakeClock() *fakeClock { return &fakeClock{} }

func (c *fakeClock) Stamp() int64 { return atomic.LoadInt64(&c.stamp) }

func (c *fakeClock) Ticks() int64 { return atomic.LoadInt64(&c.ticks) }

func (c *fakeClock) Tick() int64 { return atomic.AddInt64(&c.ticks, 1) }

// Advance moves the fake clock's cycle stamp forward by n, the unit
// dispatchMLFQOnce measures elapsed time in.
func (c *fakeClock) Advance(n int64) { atomic.AddInt64(&c.stamp, n) }
