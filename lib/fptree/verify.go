/*
Copyright 2022 Huawei Cloud Computing Technologies Co., Ltd.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

 http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package fptree

import (
	"fmt"

	"github.com/openGemini/harm/lib/item"
)

// Verify walks the whole tree and checks that the hierarchy, the adjacency
// chains, the leaf registry and the frequency table agree.
func (t *Tree) Verify() error {
	live := 0
	freq := item.NewMap[uint32]()
	onChain := make(map[NodeID]bool)
	leaves := make(map[NodeID]bool)
	for _, id := range t.leaves.Values() {
		leaves[id] = true
	}

	for _, it := range t.header.Keys() {
		prev := NilNode
		for id := t.Head(it); id != NilNode; id = t.nodes[id].next {
			n := &t.nodes[id]
			if !n.used || n.item != it {
				return fmt.Errorf("adjacency chain of %d holds node %d with item %d", it, id, n.item)
			}
			if n.prev != prev {
				return fmt.Errorf("node %d has prev %d, expected %d", id, n.prev, prev)
			}
			onChain[id] = true
			prev = id
		}
	}

	var check func(id NodeID) error
	check = func(id NodeID) error {
		live++
		n := &t.nodes[id]
		var below uint32
		for i, c := range n.children {
			cn := &t.nodes[c]
			if cn.parent != id || cn.depth != n.depth+1 {
				return fmt.Errorf("node %d has parent %d depth %d under %d", c, cn.parent, cn.depth, id)
			}
			if i > 0 && t.nodes[n.children[i-1]].item >= cn.item {
				return fmt.Errorf("children of %d are not ordered", id)
			}
			if cn.count == 0 {
				return fmt.Errorf("node %d has zero count", c)
			}
			below += cn.count
			if err := check(c); err != nil {
				return err
			}
		}
		if id == RootID {
			if leaves[id] {
				return fmt.Errorf("root is in the leaf registry")
			}
			return nil
		}
		if below > n.count {
			return fmt.Errorf("node %d count %d below children total %d", id, n.count, below)
		}
		if leaves[id] != (len(n.children) == 0) {
			return fmt.Errorf("node %d leaf membership %v with %d children", id, leaves[id], len(n.children))
		}
		if !onChain[id] {
			return fmt.Errorf("node %d missing from its adjacency chain", id)
		}
		freq.Increment(n.item, n.count)
		return nil
	}
	if err := check(RootID); err != nil {
		return err
	}

	if live != t.numNodes {
		return fmt.Errorf("reachable nodes %d, counted %d", live, t.numNodes)
	}
	if len(onChain) != live-1 || len(leaves) != t.leaves.Len() {
		return fmt.Errorf("registries hold stale nodes")
	}
	var err error
	t.freq.Range(func(it item.Item, v uint32) bool {
		if freq.Get(it) != v {
			err = fmt.Errorf("frequency of %d is %d, tree holds %d", it, v, freq.Get(it))
		}
		return err == nil
	})
	return err
}
