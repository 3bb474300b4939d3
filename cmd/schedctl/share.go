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

// shareCmd implements subcommands.Command for "share": boots init plus
// one child, admits the child to the stride scheduler at the given
// percent, and reports whether admission succeeded.
type shareCmd struct {
	percent int
}

func (*shareCmd) Name() string     { return "share" }
func (*shareCmd) Synopsis() string { return "exercise stride admission control for a given share" }
func (*shareCmd) Usage() string    { return "share [-percent N]\n" }

func (s *shareCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&s.percent, "percent", 30, "requested CPU share percent")
}

func (s *shareCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg := config.Default()
	k := kernel.NewKernel(cfg.NPROC, nil, cfg.MinMLFQShare)
	k.Boot("init", nil)

	task, err := bootWorkload(k, "stride-candidate", cpuBoundWorkload{burst: 3})
	if err != nil {
		fmt.Println("schedctl: share: boot:", err)
		return subcommands.ExitFailure
	}

	if err := k.SetCPUShare(task.PID(), s.percent); err != nil {
		fmt.Println("schedctl: share: rejected:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("schedctl: share: pid %d admitted at %d%%\n", task.PID(), s.percent)
	return subcommands.ExitSuccess
}
