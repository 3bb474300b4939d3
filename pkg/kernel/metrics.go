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

import "github.com/google/btree"

// levelIndex is a non-authoritative, read-only secondary index of how
// often a dispatch has landed a process at each MLFQ level. Nothing in
// pkg/kernel ever consults it to make a scheduling decision: the MLFQ
// fields on PCB are the only authority there. It exists purely to give
// cmd/schedctl's "dump" subcommand a cheap ordered summary ("how many
// dispatches has this level seen, ordered low to high") without
// re-scanning the whole table.
type levelIndex struct {
	tree *btree.BTree
}

// levelCount is one btree.Item: the dispatch tally observed at a given
// MLFQ level.
type levelCount struct {
	level Level
	count int64
}

// Less implements btree.Item, ordering by level.
func (a levelCount) Less(than btree.Item) bool {
	return a.level < than.(levelCount).level
}

func newLevelIndex() *levelIndex {
	return &levelIndex{tree: btree.New(8)}
}

// record increments the tally for lvl. It accepts any Level, but its
// callers are Kernel.publish (the level of each newly published PCB,
// LevelStride for a new thread) and dispatchMLFQOnce (the level after
// each MLFQ dispatch): stride-selected dispatches are not tallied, and
// LevelNone is never recorded.
func (idx *levelIndex) record(lvl Level) {
	cur := levelCount{level: lvl}
	if existing := idx.tree.Get(cur); existing != nil {
		cur = existing.(levelCount)
	}
	cur.count++
	idx.tree.ReplaceOrInsert(cur)
}

// snapshot returns every recorded (level, count) pair in ascending
// level order.
func (idx *levelIndex) snapshot() []levelCount {
	out := make([]levelCount, 0, idx.tree.Len())
	idx.tree.Ascend(func(it btree.Item) bool {
		out = append(out, it.(levelCount))
		return true
	})
	return out
}

// LevelCounts returns a read-only snapshot of dispatch counts per MLFQ
// level, for reporting tools. It takes the table lock because record is
// invoked from dispatch paths that already hold it.
func (k *Kernel) LevelCounts() map[Level]int64 {
	k.table.lock()
	defer k.table.unlock()
	out := make(map[Level]int64)
	for _, lc := range k.levels.snapshot() {
		out[lc.level] = lc.count
	}
	return out
}
