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

package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/google/subcommands"

	"mlfqstride.dev/kernel/pkg/config"
	"mlfqstride.dev/kernel/pkg/kernel"
)

// runCmd implements subcommands.Command for "run": boots a kernel with
// a mix of CPU-bound and stride-governed synthetic workloads and lets
// it run for a fixed duration.
type runCmd struct {
	configPath  string
	duration    time.Duration
	cpuHogs     int
	strideProc  int
	strideShare int
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "run the scheduler against synthetic workloads" }
func (*runCmd) Usage() string {
	return "run [flags]\n"
}

func (r *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&r.configPath, "config", "", "path to a scheduler.toml config (defaults built in if unset)")
	f.DurationVar(&r.duration, "duration", 2*time.Second, "how long to run the scheduler for")
	f.IntVar(&r.cpuHogs, "cpu-hogs", 4, "number of CPU-bound MLFQ workloads to boot")
	f.IntVar(&r.strideProc, "stride-procs", 1, "number of stride-governed workloads to boot")
	f.IntVar(&r.strideShare, "stride-share", 30, "percent CPU share per stride workload")
}

func (r *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg := config.Default()
	if r.configPath != "" {
		loaded, err := config.Load(r.configPath)
		if err != nil {
			fmt.Println("schedctl: run:", err)
			return subcommands.ExitFailure
		}
		cfg = loaded
	}

	kernel.TickSize = cfg.TickSize
	kernel.BoostInterval = cfg.BoostInterval
	k := kernel.NewKernel(cfg.NPROC, nil, cfg.MinMLFQShare)

	k.Boot("init", nil)

	for i := 0; i < r.cpuHogs; i++ {
		name := fmt.Sprintf("hog-%d", i)
		task, err := bootWorkload(k, name, cpuBoundWorkload{burst: 3})
		if err != nil {
			fmt.Println("schedctl: run: boot", name, ":", err)
			return subcommands.ExitFailure
		}
		_ = task
	}

	for i := 0; i < r.strideProc; i++ {
		name := fmt.Sprintf("stride-%d", i)
		task, err := bootWorkload(k, name, cpuBoundWorkload{burst: 3})
		if err != nil {
			fmt.Println("schedctl: run: boot", name, ":", err)
			return subcommands.ExitFailure
		}
		if err := k.SetCPUShare(task.PID(), r.strideShare); err != nil {
			fmt.Println("schedctl: run: set-cpu-share", name, ":", err)
			return subcommands.ExitFailure
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, r.duration)
	defer cancel()
	if err := k.Run(runCtx, cfg.NumCPU); err != nil && runCtx.Err() == nil {
		fmt.Println("schedctl: run:", err)
		return subcommands.ExitFailure
	}

	k.ProcDump()
	return subcommands.ExitSuccess
}

// bootWorkload forks w off of init, the only PCB schedctl ever holds a
// direct handle to at startup.
func bootWorkload(k *kernel.Kernel, name string, w kernel.Workload) (*kernel.Task, error) {
	initTask := k.InitTask()
	child, err := initTask.Fork(w)
	if err != nil {
		return nil, err
	}
	child.SetName(name)
	return child, nil
}

// cpuBoundWorkload consumes burst ticks and yields, forever, until
// killed: a stand-in for a compute-bound user program exercising the
// allotment-decay and demotion machinery.
type cpuBoundWorkload struct {
	burst int64
}

func (w cpuBoundWorkload) Run(t *kernel.Task) {
	for !t.Killed() {
		t.ConsumeTicks(w.burst)
		t.Yield()
	}
}
