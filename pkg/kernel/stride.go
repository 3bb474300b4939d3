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

// DefaultMinMLFQShare is the minimum percentage reserved for the MLFQ
// class; admission rejects any request that would push total stride
// share past 100-MinMLFQShare.
var DefaultMinMLFQShare = 20

// strideEntry is one row of the stride list: either a real stride
// process, or (conceptually at index len(entries)) the synthetic entry
// representing the entire MLFQ class.
type strideEntry struct {
	proc   *PCB // nil for the synthetic MLFQ entry
	pass   int64
	stride int64
}

// strideSet holds the dense stride list plus the synthetic MLFQ entry.
// It is recomputed from scratch whenever the set of admitted stride
// processes changes.
type strideSet struct {
	entries []strideEntry // len == numStride; the real stride processes
	mlfq    strideEntry   // the synthetic "whole MLFQ class" entry
}

func gcd(a, b int) int {
	if a == 0 || b == 0 {
		fatalf("gcd: zero can't be GCDed")
	}
	if a == b {
		return a
	}
	if a > b {
		return gcd(a-b, b)
	}
	return gcd(a, b-a)
}

// recomputeStride rebuilds the stride set from every non-thread PCB
// with IsStride set: compute the total share, the gcd of the MLFQ
// share and every process share, the LCM, each process's stride as
// LCM/share and the synthetic MLFQ stride as LCM/(100-total), then
// reset every pass to 0. Threads are skipped even when they inherit
// IsStride: a thread is only ever dispatched through its leader by the
// round-robin sub-scheduler, never from the stride list, and its zero
// share would otherwise reach gcd.
func (t *Table) recomputeStride() {
	var strides []*PCB
	total := 0
	t.forEach(func(p *PCB) {
		if p.IsStride && !p.IsThread {
			p.MLFQLevel = LevelStride
			total += p.Share
			strides = append(strides, p)
		}
	})

	mlfqShare := 100 - total
	entries := make([]strideEntry, len(strides))

	if len(strides) > 0 {
		g := mlfqShare
		for _, p := range strides {
			g = gcd(g, p.Share)
		}
		lcm := 1
		for i, p := range strides {
			entries[i].proc = p
			lcm *= p.Share / g
		}
		lcm *= mlfqShare
		for i, p := range strides {
			entries[i].stride = int64(lcm) / int64(p.Share)
		}
		t.stride = strideSet{
			entries: entries,
			mlfq:    strideEntry{stride: int64(lcm) / int64(mlfqShare)},
		}
		return
	}

	t.stride = strideSet{
		entries: entries,
		mlfq:    strideEntry{stride: int64(mlfqShare)},
	}
}

// totalStrideShare sums Share over every live stride process, with the
// same thread filter recomputeStride applies: a share only counts
// against the admission ceiling if it also produces a stride entry.
func (t *Table) totalStrideShare() int {
	total := 0
	t.forEach(func(p *PCB) {
		if p.IsStride && !p.IsThread {
			total += p.Share
		}
	})
	return total
}

// admitStride reports whether a new request for share percent would
// keep total stride share within the admission ceiling.
func (t *Table) admitStride(share int, minMLFQShare int) bool {
	if share < 1 || share > 99 {
		return false
	}
	return t.totalStrideShare()+share <= 100-minMLFQShare
}

// selectStride picks the entry with the smallest pass. Real entries
// are compared first, in table order, then the synthetic MLFQ entry is
// compared last against whatever real entry won, all with <=, so an
// exact tie resolves toward the MLFQ class rather than a real stride
// process.
func (t *Table) selectStride() (*PCB, *strideEntry) {
	var winner *strideEntry
	for i := range t.stride.entries {
		if winner == nil || t.stride.entries[i].pass <= winner.pass {
			winner = &t.stride.entries[i]
		}
	}
	if winner == nil || t.stride.mlfq.pass <= winner.pass {
		winner = &t.stride.mlfq
	}
	return winner.proc, winner
}

// afterStrideDispatch adds the winning entry's stride to its pass, then
// normalizes every pass back to 0 once entry 0 (or the MLFQ entry, if
// there are no stride processes) has been matched exactly by every
// other entry (all passes equal), preventing unbounded growth without
// discarding any entry's lead. Cross-CPU visibility of the accumulators
// comes from the table mutex's release/acquire pairing.
func (t *Table) afterStrideDispatch(winner *strideEntry) {
	winner.pass += winner.stride

	ref := t.stride.mlfq.pass
	if len(t.stride.entries) > 0 {
		ref = t.stride.entries[0].pass
	}
	allCaughtUp := t.stride.mlfq.pass == ref
	for i := range t.stride.entries {
		if t.stride.entries[i].pass != ref {
			allCaughtUp = false
			break
		}
	}
	if allCaughtUp && ref > 0 {
		t.stride.mlfq.pass = 0
		for i := range t.stride.entries {
			t.stride.entries[i].pass = 0
		}
	}
}
