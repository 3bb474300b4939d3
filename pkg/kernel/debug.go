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

// ProcDump logs a one-line-per-process listing: "pid state name", plus
// the wait site for a sleeping process. It deliberately takes no lock:
// the dump has to stay usable when the table lock is stuck (a wedged
// dispatch is exactly what it exists to diagnose), so it walks the
// slots directly and accepts the occasional torn read.
//
// ProcDump is rate-limited to at most 20 dumps/second (k.limiter):
// it is meant for interactive or periodic inspection, not a hot-path
// instrumentation point, and a caller that invokes it in a tight loop
// should not be able to turn logging into the dominant cost of the
// scheduler.
func (k *Kernel) ProcDump() {
	if !k.limiter.Allow() {
		return
	}

	for _, p := range k.table.procs {
		if p.State == Unused {
			continue
		}
		entry := k.log.WithFields(map[string]any{
			"pid":   p.PID,
			"state": p.State.String(),
			"name":  p.Name,
			"level": int(p.MLFQLevel),
		})
		if p.State == Sleeping && p.task != nil && p.task.lastWaitSite != "" {
			entry = entry.WithField("wait_chan", p.task.lastWaitSite)
		}
		entry.Info("proc")
	}
}
