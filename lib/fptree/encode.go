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
	"io"
	"strconv"
	"strings"

	"github.com/xlab/treeprint"
)

// CmpNode is the pre-order signature of a node used to compare tree shapes.
// The root has ID -1.
type CmpNode struct {
	ID    int32
	Depth uint32
	Count uint32
}

func uitoa(v uint32) string {
	return strconv.FormatUint(uint64(v), 10)
}

func (t *Tree) name(id NodeID) string {
	if id == RootID {
		return "root"
	}
	return t.dict.Name(t.nodes[id].item)
}

// String renders the tree as "(root:0 (item:count child ...) ...)" with
// children in dictionary compare order.
func (t *Tree) String() string {
	return t.StringDepth(-1)
}

// StringDepth renders the nodes shallower than stopDepth; a negative
// stopDepth renders the whole tree.
func (t *Tree) StringDepth(stopDepth int) string {
	var sb strings.Builder
	t.writeNode(&sb, RootID, stopDepth)
	return sb.String()
}

func (t *Tree) writeNode(sb *strings.Builder, id NodeID, stopDepth int) {
	sb.WriteByte('(')
	sb.WriteString(t.name(id))
	sb.WriteByte(':')
	sb.WriteString(uitoa(t.nodes[id].count))
	for _, c := range t.orderedChildren(id) {
		if stopDepth >= 0 && int(t.nodes[c].depth) >= stopDepth {
			continue
		}
		sb.WriteByte(' ')
		t.writeNode(sb, c, stopDepth)
	}
	sb.WriteByte(')')
}

// ItemVector lists item handles in pre-order, the root as 0.
func (t *Tree) ItemVector() []int32 {
	return t.ItemVectorDepth(-1)
}

func (t *Tree) ItemVectorDepth(stopDepth int) []int32 {
	v := make([]int32, 0, t.numNodes)
	t.walk(RootID, stopDepth, func(id NodeID) {
		v = append(v, int32(t.nodes[id].item))
	})
	return v
}

// CmpVector lists the CmpNode of every node in pre-order.
func (t *Tree) CmpVector() []CmpNode {
	return t.CmpVectorDepth(-1)
}

func (t *Tree) CmpVectorDepth(stopDepth int) []CmpNode {
	v := make([]CmpNode, 0, t.numNodes)
	t.walk(RootID, stopDepth, func(id NodeID) {
		n := &t.nodes[id]
		cn := CmpNode{ID: int32(n.item), Depth: n.depth, Count: n.count}
		if id == RootID {
			cn.ID = -1
		}
		v = append(v, cn)
	})
	return v
}

func (t *Tree) walk(id NodeID, stopDepth int, visit func(NodeID)) {
	if stopDepth >= 0 && int(t.nodes[id].depth) >= stopDepth {
		return
	}
	visit(id)
	for _, c := range t.orderedChildren(id) {
		t.walk(c, stopDepth, visit)
	}
}

// Render draws the tree for terminals.
func (t *Tree) Render() string {
	root := treeprint.NewWithRoot(t.label(RootID))
	t.render(root, RootID)
	return root.String()
}

func (t *Tree) label(id NodeID) string {
	return t.name(id) + ":" + uitoa(t.nodes[id].count)
}

func (t *Tree) render(branch treeprint.Tree, id NodeID) {
	for _, c := range t.orderedChildren(id) {
		if len(t.nodes[c].children) == 0 {
			branch.AddNode(t.label(c))
			continue
		}
		t.render(branch.AddBranch(t.label(c)), c)
	}
}

// WriteGraphViz writes the tree as a dot digraph.
func (t *Tree) WriteGraphViz(w io.Writer) error {
	if _, err := fmt.Fprint(w, "digraph G {\n\troot;\n"); err != nil {
		return err
	}
	if err := t.writeGraphViz(w, RootID, "root"); err != nil {
		return err
	}
	_, err := fmt.Fprint(w, "}\n")
	return err
}

func (t *Tree) writeGraphViz(w io.Writer, id NodeID, parent string) error {
	for _, c := range t.orderedChildren(id) {
		name := t.name(c)
		nodeName := parent + "_" + name
		_, err := fmt.Fprintf(w, "\t%q [label=\"%s:%d\"];\n\t%q -> %q;\n",
			nodeName, name, t.nodes[c].count, parent, nodeName)
		if err != nil {
			return err
		}
		if err = t.writeGraphViz(w, c, nodeName); err != nil {
			return err
		}
	}
	return nil
}
