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
	"strings"
	"time"

	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/list"
	"github.com/openGemini/harm/lib/logger"
	"go.uber.org/zap"
)

// Tree is a prefix tree of transactions. Besides the parent/child
// hierarchy every node is threaded on the adjacency chain of its item, and
// every childless node except the root is held in the leaf registry.
// A Tree is not safe for concurrent use.
type Tree struct {
	dict     *item.Dictionary
	nodes    []node
	free     []NodeID
	numNodes int

	header *item.Map[NodeID]
	leaves *list.List[NodeID]

	freq       *item.Map[uint32]
	freqAtSort *item.Map[uint32]
	lastCmp    item.Comparator
	sorts      int

	logger *logger.Logger
}

func New(dict *item.Dictionary) *Tree {
	t := &Tree{
		dict:       dict,
		header:     item.NewMap[NodeID](),
		leaves:     list.New[NodeID](),
		freq:       item.NewMap[uint32](),
		freqAtSort: item.NewMap[uint32](),
		logger:     logger.NewLogger(errno.ModuleTree),
	}
	t.allocNode(item.Null, NilNode, 0)
	return t
}

func (t *Tree) Dictionary() *item.Dictionary {
	return t.dict
}

// Insert adds path with the given multiplicity. Items in path must be unique.
func (t *Tree) Insert(path []item.Item, count uint32) {
	t.insert(RootID, path, count)
}

func (t *Tree) insert(from NodeID, path []item.Item, count uint32) {
	parent := from
	for _, it := range path {
		id := t.getOrCreateChild(parent, it)
		t.nodes[id].count += count
		t.freq.Increment(it, count)
		parent = id
	}
}

// Remove subtracts a previously inserted path. A node whose count drops to
// zero is deleted together with its subtree. Removing a path that is not in
// the tree panics.
func (t *Tree) Remove(path []item.Item, count uint32) {
	t.remove(RootID, path, count)
}

func (t *Tree) remove(from NodeID, path []item.Item, count uint32) {
	parent := from
	for _, it := range path {
		i, ok := t.findChild(parent, it)
		if !ok {
			panic(errno.NewError(errno.TreePathNotFound, t.dict.Name(it)))
		}
		id := t.nodes[parent].children[i]
		t.decrement(id, count)

		if t.nodes[id].count == 0 {
			p := &t.nodes[parent]
			p.children = append(p.children[:i], p.children[i+1:]...)
			if len(p.children) == 0 && parent != RootID {
				p.leaf = t.leaves.PushBack(parent)
			}
			t.deleteSubtree(id)
			return
		}
		parent = id
	}
}

func (t *Tree) decrement(id NodeID, count uint32) {
	n := &t.nodes[id]
	if n.count < count {
		panic(errno.NewError(errno.TreeCountUnderflow, t.dict.Name(n.item), n.count, count))
	}
	n.count -= count
	t.freq.Decrement(n.item, count)
}

// Sort snapshots the frequency table and resorts every path by descending
// frequency, ties by handle.
func (t *Tree) Sort() {
	t.freqAtSort = t.freq.Clone()
	t.SortBy(item.MapCmp(t.freqAtSort))
}

// SortBy re-canonicalizes every path under cmp. Only the differing tail of
// each path is moved. cmp becomes the order used by SortTransaction.
func (t *Tree) SortBy(cmp item.Comparator) {
	start := time.Now()
	before := t.numNodes

	itr := t.Paths()
	defer itr.Close()

	var sorted []item.Item
	for {
		path, count, ok := itr.Next()
		if !ok {
			break
		}
		sorted = append(sorted[:0], path...)
		item.Sort(sorted, cmp)
		if !item.Equal(path, sorted) {
			t.replace(path, sorted, count)
		}
	}
	t.lastCmp = cmp
	t.sorts++

	t.logger.Debug("tree sorted",
		zap.Int("nodes_before", before),
		zap.Int("nodes_after", t.numNodes),
		zap.Duration("duration", time.Since(start)))
}

func (t *Tree) replace(from, to []item.Item, count uint32) {
	prefix := RootID
	index := 0
	for index < len(from) && from[index] == to[index] {
		prefix = t.child(prefix, from[index])
		index++
	}

	t.remove(prefix, from[index:], count)
	t.insert(prefix, to[index:], count)
}

// SortTransaction orders txn in place the way the last resort ordered the
// tree, or by handle if the tree was never sorted.
func (t *Tree) SortTransaction(txn []item.Item) {
	if t.lastCmp == nil {
		item.Sort(txn, item.ByID)
		return
	}
	item.Sort(txn, t.lastCmp)
}

// LastComparator returns the order of the last resort, or nil.
func (t *Tree) LastComparator() item.Comparator {
	return t.lastCmp
}

// IsSorted reports whether every edge below the root is non-increasing in
// current frequency, with equal frequencies ordered by handle.
func (t *Tree) IsSorted() bool {
	for _, c := range t.nodes[RootID].children {
		if !t.isSortedFrom(c) {
			return false
		}
	}
	return true
}

func (t *Tree) isSortedFrom(id NodeID) bool {
	n := &t.nodes[id]
	f := t.freq.Get(n.item)
	for _, c := range n.children {
		ci := t.nodes[c].item
		cf := t.freq.Get(ci)
		if cf > f || (cf == f && n.item > ci) {
			return false
		}
		if !t.isSortedFrom(c) {
			return false
		}
	}
	return true
}

// IsSortedBy reports whether no child precedes its parent under cmp.
func (t *Tree) IsSortedBy(cmp item.Comparator) bool {
	for i := range t.nodes {
		n := &t.nodes[i]
		if !n.used || NodeID(i) == RootID {
			continue
		}
		for _, c := range n.children {
			if cmp.Less(t.nodes[c].item, n.item) {
				return false
			}
		}
	}
	return true
}

// HasSinglePath reports whether the tree is one non-empty chain.
func (t *Tree) HasSinglePath() bool {
	children := t.nodes[RootID].children
	if len(children) != 1 {
		return false
	}
	id := children[0]
	for {
		switch len(t.nodes[id].children) {
		case 0:
			return true
		case 1:
			id = t.nodes[id].children[0]
		default:
			return false
		}
	}
}

func (t *Tree) IsEmpty() bool {
	return len(t.nodes[RootID].children) == 0
}

// NumNodes counts live nodes including the root.
func (t *Tree) NumNodes() int {
	return t.numNodes
}

func (t *Tree) NumLeaves() int {
	return t.leaves.Len()
}

// NumSorts returns how many resorts the tree went through.
func (t *Tree) NumSorts() int {
	return t.sorts
}

func (t *Tree) Root() NodeID {
	return RootID
}

func (t *Tree) Item(id NodeID) item.Item {
	return t.nodes[id].item
}

func (t *Tree) Count(id NodeID) uint32 {
	return t.nodes[id].count
}

func (t *Tree) Depth(id NodeID) uint32 {
	return t.nodes[id].depth
}

func (t *Tree) Parent(id NodeID) NodeID {
	return t.nodes[id].parent
}

// Next returns the following node on the adjacency chain of id's item.
func (t *Tree) Next(id NodeID) NodeID {
	return t.nodes[id].next
}

// Head returns the first node on the adjacency chain of it, or NilNode.
func (t *Tree) Head(it item.Item) NodeID {
	if id, ok := t.header.Lookup(it); ok {
		return id
	}
	return NilNode
}

// HeaderItems returns the items present in the tree in ascending handle order.
func (t *Tree) HeaderItems() []item.Item {
	return t.header.Keys()
}

// Child returns the child of id carrying it, or NilNode.
func (t *Tree) Child(id NodeID, it item.Item) NodeID {
	return t.child(id, it)
}

// Children returns the children of id in dictionary compare order.
func (t *Tree) Children(id NodeID) []NodeID {
	return append([]NodeID(nil), t.orderedChildren(id)...)
}

// FirstChild returns the first child of id in dictionary compare order.
func (t *Tree) FirstChild(id NodeID) NodeID {
	children := t.orderedChildren(id)
	if len(children) == 0 {
		return NilNode
	}
	return children[0]
}

func (t *Tree) FrequencyTable() *item.Map[uint32] {
	return t.freq
}

func (t *Tree) FrequencyTableAtLastSort() *item.Map[uint32] {
	return t.freqAtSort
}

// Leaves returns the current leaf registry from front to back.
func (t *Tree) Leaves() []NodeID {
	return t.leaves.Values()
}

// GetPath renders id and its ancestors below the root as "item:count ...".
func (t *Tree) GetPath(id NodeID) string {
	var sb strings.Builder
	for n := id; n != RootID && n != NilNode; n = t.nodes[n].parent {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.name(n))
		sb.WriteByte(':')
		sb.WriteString(uitoa(t.nodes[n].count))
	}
	return sb.String()
}

// Ancestors appends the items above id, root side first, excluding the root.
func (t *Tree) Ancestors(id NodeID, dst []item.Item) []item.Item {
	start := len(dst)
	for n := t.nodes[id].parent; n != RootID && n != NilNode; n = t.nodes[n].parent {
		dst = append(dst, t.nodes[n].item)
	}
	for i, j := start, len(dst)-1; i < j; i, j = i+1, j-1 {
		dst[i], dst[j] = dst[j], dst[i]
	}
	return dst
}
