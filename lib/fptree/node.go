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
	"sort"

	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/list"
)

// NodeID addresses a node in the tree arena. IDs are only stable while the
// tree is not mutated.
type NodeID int32

const (
	NilNode NodeID = -1
	RootID  NodeID = 0
)

type node struct {
	item   item.Item
	count  uint32
	depth  uint32
	parent NodeID

	// adjacency chain of nodes carrying the same item
	next NodeID
	prev NodeID

	// sorted by item handle
	children []NodeID
	leaf     list.Token
	used     bool
}

func (t *Tree) node(id NodeID) *node {
	return &t.nodes[id]
}

func (t *Tree) allocNode(it item.Item, parent NodeID, depth uint32) NodeID {
	var id NodeID
	if n := len(t.free); n > 0 {
		id = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		id = NodeID(len(t.nodes))
		t.nodes = append(t.nodes, node{})
	}

	n := &t.nodes[id]
	n.item = it
	n.count = 0
	n.depth = depth
	n.parent = parent
	n.next, n.prev = NilNode, NilNode
	n.children = n.children[:0]
	n.used = true
	if parent != NilNode {
		n.leaf = t.leaves.PushFront(id)
	}
	t.numNodes++
	return id
}

func (t *Tree) freeNode(id NodeID) {
	n := &t.nodes[id]
	children := n.children[:0]
	*n = node{children: children, parent: NilNode, next: NilNode, prev: NilNode}
	t.free = append(t.free, id)
	t.numNodes--
}

func (t *Tree) findChild(parent NodeID, it item.Item) (int, bool) {
	children := t.nodes[parent].children
	i := sort.Search(len(children), func(i int) bool {
		return t.nodes[children[i]].item >= it
	})
	return i, i < len(children) && t.nodes[children[i]].item == it
}

// child returns the child of parent carrying it, or NilNode.
func (t *Tree) child(parent NodeID, it item.Item) NodeID {
	i, ok := t.findChild(parent, it)
	if !ok {
		return NilNode
	}
	return t.nodes[parent].children[i]
}

func (t *Tree) getOrCreateChild(parent NodeID, it item.Item) NodeID {
	i, ok := t.findChild(parent, it)
	if ok {
		return t.nodes[parent].children[i]
	}

	id := t.allocNode(it, parent, t.nodes[parent].depth+1)

	p := &t.nodes[parent]
	if parent != RootID && len(p.children) == 0 {
		// about to gain a child, so p stops being a leaf
		t.leaves.Erase(p.leaf)
		p.leaf = list.Token{}
	}
	p.children = append(p.children, NilNode)
	copy(p.children[i+1:], p.children[i:])
	p.children[i] = id

	t.addToHeader(id)
	return id
}

// addToHeader makes id the head of its item's adjacency chain.
func (t *Tree) addToHeader(id NodeID) {
	n := &t.nodes[id]
	if head, ok := t.header.Lookup(n.item); ok {
		n.next = head
		t.nodes[head].prev = id
	}
	t.header.Set(n.item, id)
}

func (t *Tree) unlinkHeader(id NodeID) {
	n := &t.nodes[id]
	if n.prev == NilNode {
		if n.next != NilNode {
			t.header.Set(n.item, n.next)
			t.nodes[n.next].prev = NilNode
		} else {
			t.header.Erase(n.item)
		}
	} else {
		if n.next != NilNode {
			t.nodes[n.next].prev = n.prev
		}
		t.nodes[n.prev].next = n.next
	}
	n.next, n.prev = NilNode, NilNode
}

// deleteSubtree excises id and its descendants from every registry and
// returns their residual counts to the frequency table.
func (t *Tree) deleteSubtree(id NodeID) {
	t.unlinkHeader(id)

	n := &t.nodes[id]
	if len(n.children) == 0 {
		t.leaves.Erase(n.leaf)
	}
	if n.count > 0 {
		t.freq.Decrement(n.item, n.count)
	}
	for _, c := range n.children {
		t.deleteSubtree(c)
	}
	t.freeNode(id)
}

// orderedChildren returns the children of id in dictionary compare order.
func (t *Tree) orderedChildren(id NodeID) []NodeID {
	children := t.nodes[id].children
	if t.dict.CompareMode() == item.InsertionOrder || len(children) < 2 {
		return children
	}
	ordered := append([]NodeID(nil), children...)
	sort.Slice(ordered, func(i, j int) bool {
		return t.dict.Less(t.nodes[ordered[i]].item, t.nodes[ordered[j]].item)
	})
	return ordered
}
