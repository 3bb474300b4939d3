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

	"github.com/google/subcommands"

	"mlfqstride.dev/kernel/pkg/config"
	"mlfqstride.dev/kernel/pkg/kernel"
)

// boostCmd implements subcommands.Command for "boost": boots a few
// workloads and shows that a forced boost resets every one of them to
// the top MLFQ level.
type boostCmd struct{}

func (*boostCmd) Name() string     { return "boost" }
func (*boostCmd) Synopsis() string { return "force an immediate priority boost and print levels" }
func (*boostCmd) Usage() string    { return "boost\n" }

func (*boostCmd) SetFlags(*flag.FlagSet) {}

func (*boostCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	cfg := config.Default()
	k := kernel.NewKernel(cfg.NPROC, nil, cfg.MinMLFQShare)
	k.Boot("init", nil)

	for _, name := range []string{"a", "b"} {
		if _, err := bootWorkload(k, name, cpuBoundWorkload{burst: 3}); err != nil {
			fmt.Println("schedctl: boost: boot", name, ":", err)
			return subcommands.ExitFailure
		}
	}

	k.Boost()
	k.ProcDump()
	return subcommands.ExitSuccess
}
