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
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/list"
)

// PathIterator yields the root-to-leaf path and leaf count of every leaf.
// It follows the leaf registry, so leaves appended while iterating are
// visited and erased leaves are skipped. Close releases the registry hook.
type PathIterator struct {
	tree *Tree
	itr  *list.Iterator[NodeID]
	path []item.Item
}

func (t *Tree) Paths() *PathIterator {
	return &PathIterator{
		tree: t,
		itr:  t.leaves.Iterator(),
	}
}

// Next returns the next path and its count. The returned slice is reused
// by the following call.
func (p *PathIterator) Next() ([]item.Item, uint32, bool) {
	leaf, ok := p.itr.Next()
	if !ok {
		return nil, 0, false
	}

	n := &p.tree.nodes[leaf]
	depth := int(n.depth)
	if cap(p.path) < depth {
		p.path = make([]item.Item, depth)
	}
	p.path = p.path[:depth]
	for id, pos := leaf, depth-1; id != RootID; id, pos = p.tree.nodes[id].parent, pos-1 {
		p.path[pos] = p.tree.nodes[id].item
	}
	return p.path, n.count, true
}

func (p *PathIterator) Close() {
	p.itr.Close()
}

// Transactions reconstructs every distinct transaction and its
// multiplicity, including transactions that end on an interior node.
func (t *Tree) Transactions() ([][]item.Item, []uint32) {
	var paths [][]item.Item
	var counts []uint32
	var walk func(id NodeID, prefix []item.Item)
	walk = func(id NodeID, prefix []item.Item) {
		n := &t.nodes[id]
		var below uint32
		for _, c := range n.children {
			below += t.nodes[c].count
		}
		if id != RootID && n.count > below {
			paths = append(paths, append([]item.Item(nil), prefix...))
			counts = append(counts, n.count-below)
		}
		for _, c := range n.children {
			walk(c, append(prefix, t.nodes[c].item))
		}
	}
	walk(RootID, nil)
	return paths, counts
}
