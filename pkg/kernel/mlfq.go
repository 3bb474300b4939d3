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

// allotmentFor returns the time budget a process gets when it is
// (re)admitted to lvl. L0 has no budget to track: a process there can
// only leave via a boost.
func allotmentFor(lvl Level) int64 {
	switch lvl {
	case LevelHigh:
		return 20 * TickSize
	case LevelMid:
		return 40 * TickSize
	default: // LevelLow: never consulted.
		return 0
	}
}

// sliceFor returns the planned dispatch length in ticks for lvl. When
// any stride process exists every MLFQ dispatch uses the short slice
// regardless of level, so stride entries get back to the accumulator
// race quickly.
func sliceFor(lvl Level, anyStride bool) int64 {
	if anyStride {
		return 5
	}
	switch lvl {
	case LevelHigh:
		return 5
	case LevelMid:
		return 10
	default:
		return 20
	}
}

// maxlev returns the highest MLFQ level holding an eligible non-thread
// PCB, or LevelNone if the MLFQ class is idle. Stride-governed and
// empty slots (negative levels) never count.
func (t *Table) maxlev() Level {
	max := LevelNone
	for _, p := range t.procs {
		if p.State == Unused || p.IsThread || p.MLFQLevel < LevelLow {
			continue
		}
		if !p.eligible(t) {
			continue
		}
		if p.MLFQLevel > max {
			max = p.MLFQLevel
		}
	}
	return max
}

// selectMLFQ returns the first eligible non-thread PCB at the table's
// current maxlev, in table order, or nil if the MLFQ class is idle.
func (t *Table) selectMLFQ() *PCB {
	lvl := t.maxlev()
	if lvl == LevelNone {
		return nil
	}
	for _, p := range t.procs {
		if p.State == Unused || p.IsThread {
			continue
		}
		if p.MLFQLevel == lvl && p.eligible(t) {
			return p
		}
	}
	return nil
}

// boost raises every non-thread, non-stride PCB in
// {Runnable,Running,Sleeping} to LevelHigh with a full allotment,
// undoing accumulated demotion so starved interactive tasks get
// another shot at the top level. Invoking it repeatedly on an
// otherwise idle table changes nothing.
func (t *Table) boost() {
	t.forEach(func(p *PCB) {
		if p.IsThread || p.MLFQLevel < LevelLow {
			return
		}
		switch p.State {
		case Runnable, Running, Sleeping:
			p.MLFQLevel = LevelHigh
			p.Allotment = allotmentFor(LevelHigh)
		}
	})
}

// demote applies the allotment decay for one dispatch of elapsed
// cycles, dropping the process one level each time its budget runs
// out.
func demote(p *PCB, elapsed int64) {
	if p.MLFQLevel == LevelLow {
		return // no budget tracked at L0.
	}
	p.Allotment -= elapsed
	if p.Allotment < 0 && p.MLFQLevel == LevelHigh {
		p.MLFQLevel = LevelMid
		p.Allotment = allotmentFor(LevelMid)
		return
	}
	if p.Allotment < 0 && p.MLFQLevel == LevelMid {
		p.MLFQLevel = LevelLow
		p.Allotment = allotmentFor(LevelLow)
	}
}
