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

// dumpCmd implements subcommands.Command for "dump": boots a small
// fixed scenario, runs it briefly, and prints the resulting process
// listing and per-level dispatch counts.
type dumpCmd struct {
	duration time.Duration
}

func (*dumpCmd) Name() string     { return "dump" }
func (*dumpCmd) Synopsis() string { return "boot a short scenario and print a process dump" }
func (*dumpCmd) Usage() string    { return "dump [flags]\n" }

func (d *dumpCmd) SetFlags(f *flag.FlagSet) {
	f.DurationVar(&d.duration, "duration", 500*time.Millisecond, "how long to run before dumping")
}

func (d *dumpCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg := config.Default()
	kernel.TickSize = cfg.TickSize
	kernel.BoostInterval = cfg.BoostInterval
	k := kernel.NewKernel(cfg.NPROC, nil, cfg.MinMLFQShare)
	k.Boot("init", nil)

	for _, name := range []string{"a", "b", "c"} {
		if _, err := bootWorkload(k, name, cpuBoundWorkload{burst: 3}); err != nil {
			fmt.Println("schedctl: dump: boot", name, ":", err)
			return subcommands.ExitFailure
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, d.duration)
	defer cancel()
	k.Run(runCtx, 1)

	k.ProcDump()
	for lvl, count := range k.LevelCounts() {
		fmt.Printf("level %d: %d dispatches\n", lvl, count)
	}
	return subcommands.ExitSuccess
}
