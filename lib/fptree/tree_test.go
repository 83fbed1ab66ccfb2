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

package fptree_test

import (
	"bytes"
	"math/rand"
	"sort"
	"strings"
	"testing"

	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fpTest = [][]string{
	{"i1", "i2", "i5"},
	{"i2", "i4"},
	{"i2", "i3"},
	{"i1", "i2", "i4"},
	{"i1", "i3"},
	{"i2", "i3"},
	{"i1", "i3"},
	{"i1", "i2", "i3", "i5"},
	{"i1", "i2", "i3"},
}

const fpTestTree = "(root:0 (i1:2 (i3:2)) (i2:7 (i1:4 (i3:2 (i5:1)) (i4:1) (i5:1)) (i3:2) (i4:1)))"

func intern(dict *item.Dictionary, rows [][]string) [][]item.Item {
	txns := make([][]item.Item, len(rows))
	for i, r := range rows {
		txns[i] = dict.Items(r...)
	}
	return txns
}

// buildBatchTree inserts every transaction sorted by its global frequency.
func buildBatchTree(rows [][]string) *fptree.Tree {
	dict := item.NewDictionary()
	dict.SetCompareMode(item.Lexicographic)
	txns := intern(dict, rows)

	freq := item.NewMap[uint32]()
	for _, txn := range txns {
		for _, it := range txn {
			freq.Increment(it, 1)
		}
	}

	tree := fptree.New(dict)
	for _, txn := range txns {
		item.Sort(txn, item.MapCmp(freq))
		tree.Insert(txn, 1)
	}
	return tree
}

func TestInitialConstruction(t *testing.T) {
	tree := buildBatchTree(fpTest)

	assert.Equal(t, fpTestTree, tree.String())
	assert.Equal(t, 11, tree.NumNodes())
	assert.False(t, tree.HasSinglePath())
	assert.False(t, tree.IsEmpty())
	assert.True(t, tree.IsSorted())
	require.NoError(t, tree.Verify())

	i5, ok := tree.Dictionary().Lookup("i5")
	require.True(t, ok)
	n := tree.Head(i5)
	require.NotEqual(t, fptree.NilNode, n)
	assert.Equal(t, "i5:1 i3:2 i1:4 i2:7", tree.GetPath(n))

	n = tree.Next(n)
	require.NotEqual(t, fptree.NilNode, n)
	assert.Equal(t, fptree.NilNode, tree.Next(n))
	assert.Equal(t, "i5:1 i1:4 i2:7", tree.GetPath(n))

	assert.Equal(t, []item.Item{1, 2, 3, 4, 5}, tree.HeaderItems())
	assert.Equal(t, uint32(7), tree.FrequencyTable().Get(2))
}

func TestHasSinglePath(t *testing.T) {
	tree := buildBatchTree([][]string{{"i1", "i2", "i3"}, {"i1", "i2", "i3"}})
	assert.Equal(t, "(root:0 (i1:2 (i2:2 (i3:2))))", tree.String())
	assert.Equal(t, 4, tree.NumNodes())
	assert.True(t, tree.HasSinglePath())

	empty := fptree.New(item.NewDictionary())
	assert.False(t, empty.HasSinglePath())
	assert.True(t, empty.IsEmpty())
	assert.Equal(t, "(root:0)", empty.String())
	assert.Equal(t, 1, empty.NumNodes())
}

func TestRoundTrip(t *testing.T) {
	tree := buildBatchTree(fpTest)
	paths, counts := tree.Transactions()
	require.Len(t, paths, len(counts))

	rng := rand.New(rand.NewSource(7))
	order := rng.Perm(len(paths))
	for _, i := range order {
		tree.Remove(paths[i], counts[i])
		require.NoError(t, tree.Verify())
	}

	assert.True(t, tree.IsEmpty())
	assert.Equal(t, 1, tree.NumNodes())
	assert.Equal(t, 0, tree.NumLeaves())
	assert.Empty(t, tree.HeaderItems())
	tree.FrequencyTable().Range(func(_ item.Item, v uint32) bool {
		assert.Equal(t, uint32(0), v)
		return true
	})
}

func TestRemoveCascade(t *testing.T) {
	dict := item.NewDictionary()
	abc := dict.Items("a", "b", "c")
	tree := fptree.New(dict)

	tree.Insert(abc, 1)
	tree.Insert(abc[:2], 1)
	assert.Equal(t, 1, tree.NumLeaves())

	tree.Remove(abc, 1)
	assert.Equal(t, "(root:0 (a:1 (b:1)))", tree.String())
	assert.Equal(t, 1, tree.NumLeaves())
	assert.Equal(t, fptree.NilNode, tree.Head(abc[2]))
	require.NoError(t, tree.Verify())

	// removing a prefix drops the residual counts below it
	tree.Remove(abc[:1], 1)
	assert.True(t, tree.IsEmpty())
	assert.Equal(t, uint32(0), tree.FrequencyTable().Get(abc[1]))
	require.NoError(t, tree.Verify())

	assert.Panics(t, func() { tree.Remove(abc, 1) })
}

func TestSortIdempotent(t *testing.T) {
	dict := item.NewDictionary()
	dict.SetCompareMode(item.Lexicographic)
	tree := fptree.New(dict)
	for _, txn := range intern(dict, fpTest) {
		tree.SortTransaction(txn)
		tree.Insert(txn, 1)
	}
	require.NoError(t, tree.Verify())

	tree.Sort()
	require.True(t, tree.IsSorted())
	require.NoError(t, tree.Verify())
	assert.Equal(t, fpTestTree, tree.String())
	assert.Equal(t, 1, tree.NumSorts())

	first := tree.String()
	tree.Sort()
	assert.Equal(t, first, tree.String())
	assert.True(t, tree.FrequencyTableAtLastSort().Equal(tree.FrequencyTable()))
}

func TestOrderInvariance(t *testing.T) {
	want := buildBatchTree(fpTest)
	cmp := item.MapCmp(want.FrequencyTable().Clone())

	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		rows := append([][]string(nil), fpTest...)
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		dict := item.NewDictionary()
		dict.SetCompareMode(item.Lexicographic)
		// keep handles stable across shuffles
		dict.Items("i1", "i2", "i5", "i4", "i3")
		tree := fptree.New(dict)
		for _, txn := range intern(dict, rows) {
			tree.Insert(txn, 1)
		}
		tree.SortBy(cmp)

		assert.Equal(t, want.String(), tree.String())
		assert.Equal(t, want.NumNodes(), tree.NumNodes())
		assert.True(t, tree.IsSortedBy(cmp))
		require.NoError(t, tree.Verify())
	}
}

func TestSortTransaction(t *testing.T) {
	dict := item.NewDictionary()
	tree := fptree.New(dict)
	txns := intern(dict, [][]string{{"a", "b"}, {"b"}, {"b", "c"}})
	for _, txn := range txns {
		tree.Insert(txn, 1)
	}

	txn := []item.Item{3, 2, 1}
	tree.SortTransaction(txn)
	assert.Equal(t, []item.Item{1, 2, 3}, txn)
	assert.Nil(t, tree.LastComparator())

	tree.Sort()
	tree.SortTransaction(txn)
	assert.Equal(t, []item.Item{2, 1, 3}, txn)
	assert.Equal(t, "(root:0 (b:3 (a:1) (c:1)))", tree.String())
	assert.NotNil(t, tree.LastComparator())
}

func TestVectors(t *testing.T) {
	tree := buildBatchTree([][]string{{"i1", "i2", "i3"}, {"i1", "i2", "i3"}})

	assert.Equal(t, []int32{0, 1, 2, 3}, tree.ItemVector())
	assert.Equal(t, []int32{0, 1}, tree.ItemVectorDepth(2))
	assert.Empty(t, tree.ItemVectorDepth(0))
	assert.Equal(t, "(root:0 (i1:2))", tree.StringDepth(2))

	cmp := tree.CmpVector()
	require.Len(t, cmp, 4)
	assert.Equal(t, fptree.CmpNode{ID: -1, Depth: 0, Count: 0}, cmp[0])
	assert.Equal(t, fptree.CmpNode{ID: 3, Depth: 3, Count: 2}, cmp[3])
	assert.Len(t, tree.CmpVectorDepth(3), 3)
}

func TestRender(t *testing.T) {
	tree := buildBatchTree(fpTest)

	out := tree.Render()
	assert.True(t, strings.HasPrefix(out, "root:0"))
	assert.Contains(t, out, "i2:7")
	assert.Contains(t, out, "i5:1")

	var buf bytes.Buffer
	require.NoError(t, tree.WriteGraphViz(&buf))
	assert.True(t, strings.HasPrefix(buf.String(), "digraph G {"))
	assert.Contains(t, buf.String(), `"root_i2" [label="i2:7"];`)
	assert.Equal(t, 10, strings.Count(buf.String(), "->"))
}

func TestTransactions(t *testing.T) {
	dict := item.NewDictionary()
	tree := fptree.New(dict)
	tree.Insert(dict.Items("a", "b"), 2)
	tree.Insert(dict.Items("a"), 1)
	tree.Insert(dict.Items("c"), 3)

	paths, counts := tree.Transactions()
	got := make([]string, len(paths))
	for i, p := range paths {
		got[i] = strings.Join(dict.Names(p), " ") + ":" + string(rune('0'+counts[i]))
	}
	sort.Strings(got)
	assert.Equal(t, []string{"a b:2", "a:1", "c:3"}, got)
}

func TestPathIterator(t *testing.T) {
	tree := buildBatchTree(fpTest)
	itr := tree.Paths()
	defer itr.Close()

	var total uint32
	n := 0
	for {
		path, count, ok := itr.Next()
		if !ok {
			break
		}
		assert.NotEmpty(t, path)
		total += count
		n++
	}
	assert.Equal(t, tree.NumLeaves(), n)
	// {i1,i2,i3} ends on an interior node
	assert.Equal(t, uint32(8), total)
}
