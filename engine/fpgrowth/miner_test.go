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

package fpgrowth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/openGemini/harm/engine/fpgrowth"
	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fpTest = `i1, i2, i5
i2, i4
i2, i3
i1, i2, i4
i1, i3
i2, i3
i1, i3
i1, i2, i3, i5
i1, i2, i3
`

const fpTest5 = `b=1, e=1, f=1
b=0, e=1, f=1
b=0
b=0
b=0
b=0
`

// loadTree indexes data and builds the frequency sorted tree of it.
func loadTree(t *testing.T, data string) (*fptree.Tree, *dataset.InvertedIndex) {
	dict := item.NewDictionary()
	dict.SetCompareMode(item.Lexicographic)
	r := dataset.NewReader(strings.NewReader(data), dict)
	index := dataset.NewInvertedIndex(r)
	require.NoError(t, index.Load(context.Background()))

	freq := item.NewMap[uint32]()
	for _, it := range index.Items() {
		freq.Set(it, uint32(index.CountItem(it)))
	}

	require.NoError(t, r.Rewind())
	tree := fptree.New(dict)
	for {
		txn, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		item.Sort(txn, item.MapCmp(freq))
		tree.Insert(txn, 1)
	}
	return tree, index
}

func lookup(t *testing.T, tree *fptree.Tree, name string) item.Item {
	it, ok := tree.Dictionary().Lookup(name)
	require.True(t, ok, name)
	return it
}

func format(dict *item.Dictionary, c *pattern.Collector) []string {
	out := make([]string, len(c.Sets))
	for i, s := range c.Sets {
		out[i] = s.Format(dict)
	}
	return out
}

type excludeFilter map[item.Item]bool

func (f excludeFilter) ShouldKeep(it item.Item) bool {
	return !f[it]
}

func TestMine(t *testing.T) {
	tree, index := loadTree(t, fpTest)
	require.Equal(t, "(root:0 (i1:2 (i3:2)) (i2:7 (i1:4 (i3:2 (i5:1)) (i4:1) (i5:1)) (i3:2) (i4:1)))", tree.String())
	require.Equal(t, 11, tree.NumNodes())

	c := &pattern.Collector{}
	res := fpgrowth.NewMiner(index, 0).Mine(tree, c)

	expected := []string{
		"i1", "i1 i2", "i2",
		"i5", "i2 i5", "i1 i5", "i3 i5", "i1 i3 i5", "i1 i2 i5", "i2 i3 i5", "i1 i2 i3 i5",
		"i4", "i2 i4", "i1 i4", "i1 i2 i4",
		"i3", "i1 i3", "i1 i2 i3", "i2 i3",
	}
	assert.Equal(t, expected, format(tree.Dictionary(), c))
	assert.Equal(t, int64(19), res.Patterns)

	// mining does not disturb the tree
	assert.Equal(t, 11, tree.NumNodes())
	assert.NoError(t, tree.Verify())
}

func TestMineMinCount(t *testing.T) {
	tree, index := loadTree(t, fpTest)
	c := &pattern.Collector{}
	res := fpgrowth.NewMiner(index, 2).Mine(tree, c)

	expected := []string{
		"i1", "i1 i2", "i2",
		"i5", "i2 i5", "i1 i5", "i1 i2 i5",
		"i4", "i2 i4",
		"i3", "i1 i3", "i1 i2 i3", "i2 i3",
	}
	assert.ElementsMatch(t, expected, format(tree.Dictionary(), c))
	assert.Equal(t, int64(13), res.Patterns)
	for _, s := range c.Sets {
		assert.GreaterOrEqual(t, index.Count(s), 2, s.Format(tree.Dictionary()))
	}
}

func TestMineFilter(t *testing.T) {
	tree, index := loadTree(t, fpTest)
	i5 := lookup(t, tree, "i5")

	m := fpgrowth.NewMiner(index, 0)
	m.Filter = excludeFilter{i5: true}
	c := &pattern.Collector{}
	res := m.Mine(tree, c)

	assert.Equal(t, int64(11), res.Patterns)
	for _, s := range c.Sets {
		assert.False(t, s.Contains(i5))
	}
}

func TestMineGlobalThreshold(t *testing.T) {
	tree, index := loadTree(t, fpTest)
	c := &pattern.Collector{}
	fpgrowth.NewMiner(index, 3).Mine(tree, c)

	i4 := lookup(t, tree, "i4")
	i5 := lookup(t, tree, "i5")
	for _, s := range c.Sets {
		assert.False(t, s.Contains(i4))
		assert.False(t, s.Contains(i5))
	}
	assert.Contains(t, format(tree.Dictionary(), c), "i1 i2")
}

func TestMineSinglePath(t *testing.T) {
	tree, index := loadTree(t, "i1, i2, i3\ni1, i2, i3\n")
	require.True(t, tree.HasSinglePath())

	c := &pattern.Collector{}
	res := fpgrowth.NewMiner(index, 2).Mine(tree, c)
	assert.Equal(t, []string{"i1", "i2", "i3", "i2 i3", "i1 i2", "i1 i3", "i1 i2 i3"}, format(tree.Dictionary(), c))
	assert.Equal(t, int64(7), res.Patterns)
}

func TestMineSingleItemBelowMinCount(t *testing.T) {
	tree, index := loadTree(t, "a\n")
	require.True(t, tree.HasSinglePath())

	c := &pattern.Collector{}
	assert.Zero(t, fpgrowth.NewMiner(index, 5).Mine(tree, c).Patterns)
	assert.Empty(t, c.Sets)

	c = &pattern.Collector{}
	assert.Equal(t, int64(1), fpgrowth.NewMiner(index, 1).Mine(tree, c).Patterns)
	assert.Equal(t, []string{"a"}, format(tree.Dictionary(), c))
}

func TestMineEmptyTree(t *testing.T) {
	tree, index := loadTree(t, "a\n")
	empty := fptree.New(tree.Dictionary())
	c := &pattern.Collector{}
	res := fpgrowth.NewMiner(index, 1).Mine(empty, c)
	assert.Zero(t, res.Patterns)
	assert.Empty(t, c.Sets)
}

func TestMinePanics(t *testing.T) {
	tree, index := loadTree(t, fpTest)
	assert.Panics(t, func() {
		fpgrowth.NewMiner(index, 2).Mine(nil, &pattern.Collector{})
	})
	assert.Panics(t, func() {
		fpgrowth.NewMiner(nil, 2).Mine(tree, &pattern.Collector{})
	})
}

func TestAddPatternsInPath(t *testing.T) {
	dict := item.NewDictionary()
	dict.SetCompareMode(item.Lexicographic)
	tree := fptree.New(dict)
	tree.Insert(dict.Items("i1", "i2", "i3", "i4"), 1)

	c := &pattern.Collector{}
	n := fpgrowth.NewMiner(nil, 0).AddPatternsInPath(tree, tree.FirstChild(tree.Root()), c)

	expected := []string{
		"i1", "i2", "i3", "i4", "i3 i4", "i2 i3", "i2 i4", "i2 i3 i4",
		"i1 i2", "i1 i3", "i1 i4", "i1 i3 i4", "i1 i2 i3", "i1 i2 i4", "i1 i2 i3 i4",
	}
	assert.Equal(t, expected, format(dict, c))
	assert.Equal(t, int64(15), n)
}

func TestConstructConditionalTree(t *testing.T) {
	tree, _ := loadTree(t, fpTest)

	cases := []struct {
		item     string
		minCount float64
		expected string
	}{
		{"i5", 0, "(root:0 (i2:2 (i1:2 (i3:1))))"},
		{"i5", 2, "(root:0 (i2:2 (i1:2)))"},
		{"i4", 0, "(root:0 (i2:2 (i1:1)))"},
		{"i4", 2, "(root:0 (i2:2))"},
		{"i3", 0, "(root:0 (i1:2) (i2:4 (i1:2)))"},
		{"i3", 2, "(root:0 (i1:2) (i2:4 (i1:2)))"},
		{"i3", 3, "(root:0 (i1:2) (i2:4 (i1:2)))"},
		{"i2", 0, "(root:0)"},
		{"i1", 0, "(root:0 (i2:4))"},
		{"i1", 5, "(root:0)"},
	}
	for _, tt := range cases {
		cond := fpgrowth.ConstructConditionalTree(tree, lookup(t, tree, tt.item), tt.minCount, fpgrowth.NoPruneDepth)
		assert.Equal(t, tt.expected, cond.String(), "%s at %v", tt.item, tt.minCount)
		assert.NoError(t, cond.Verify())
	}
}

func TestConstructConditionalTreeFPTest5(t *testing.T) {
	tree, _ := loadTree(t, fpTest5)
	f1 := lookup(t, tree, "f=1")

	cond := fpgrowth.ConstructConditionalTree(tree, f1, 0, fpgrowth.NoPruneDepth)
	assert.Equal(t, "(root:0 (e=1:2 (b=0:1)))", cond.String())
	cond = fpgrowth.ConstructConditionalTree(tree, f1, 2, fpgrowth.NoPruneDepth)
	assert.Equal(t, "(root:0 (e=1:2))", cond.String())
}

func TestConstructConditionalTreePruneDepth(t *testing.T) {
	tree, _ := loadTree(t, fpTest)
	i5 := lookup(t, tree, "i5")

	// the i5 under i3 sits one level deeper than its sibling
	cond := fpgrowth.ConstructConditionalTree(tree, i5, 0, 4)
	assert.Equal(t, "(root:0 (i2:1 (i1:1)))", cond.String())

	cond = fpgrowth.ConstructConditionalTree(tree, i5, 0, 1)
	assert.True(t, cond.IsEmpty())
}
