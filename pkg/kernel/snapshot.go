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

// Snapshot is a point-in-time, detached copy of every scheduling field
// on every live PCB: no Addr/Stack/Files/task pointers (those are
// collaborator handles, not scheduler state), just enough to compare a
// table before and after a sequence of dispatches.
type Snapshot struct {
	PID       int
	Name      string
	State     State
	MLFQLevel Level
	Allotment int64
	IsStride  bool
	Share     int
	IsThread  bool
	TGID      int
}

// Snapshot copies the table's current scheduling state out from under
// the lock. Every field above is a plain value (no pointers, slices, or
// maps), so a field-by-field copy into a freshly allocated slice is
// already fully detached from the live PCBs; no deep-copy library has
// anything left to do here.
func (k *Kernel) Snapshot() []Snapshot {
	k.table.lock()
	defer k.table.unlock()

	var out []Snapshot
	k.table.forEach(func(p *PCB) {
		out = append(out, Snapshot{
			PID:       p.PID,
			Name:      p.Name,
			State:     p.State,
			MLFQLevel: p.MLFQLevel,
			Allotment: p.Allotment,
			IsStride:  p.IsStride,
			Share:     p.Share,
			IsThread:  p.IsThread,
			TGID:      p.TGID,
		})
	})
	return out
}
