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

package apriori_test

import (
	"context"
	"strings"
	"testing"

	"github.com/openGemini/harm/engine/apriori"
	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/itemset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const agrawal = "1,3,4\n2,3,5\n1,2,3,5\n2,5\n"

func loadIndex(t *testing.T, data string) (*dataset.InvertedIndex, *item.Dictionary) {
	dict := item.NewDictionary()
	index := dataset.NewInvertedIndex(dataset.NewReader(strings.NewReader(data), dict))
	require.NoError(t, index.Load(context.Background()))
	return index, dict
}

func format(dict *item.Dictionary, sets []itemset.ItemSet) []string {
	out := make([]string, len(sets))
	for i, s := range sets {
		out[i] = s.Format(dict)
	}
	return out
}

func TestInitialCandidates(t *testing.T) {
	index, dict := loadIndex(t, agrawal)

	got := apriori.InitialCandidates(index.Items(), apriori.MinCount{MinCount: 2, Index: index})
	assert.ElementsMatch(t, []string{"1", "2", "3", "5"}, format(dict, got))

	got = apriori.InitialCandidates(index.Items(), apriori.MinSupport{MinSup: 0.6, Index: index})
	assert.ElementsMatch(t, []string{"2", "3", "5"}, format(dict, got))

	got = apriori.InitialCandidates(index.Items(), apriori.AlwaysAccept{})
	assert.Len(t, got, 5)
}

func TestGenerateCandidates(t *testing.T) {
	index, dict := loadIndex(t, agrawal)
	filter := apriori.MinCount{MinCount: 2, Index: index}

	a, err := apriori.New(filter, 2)
	require.NoError(t, err)
	defer a.Release()

	level1 := apriori.InitialCandidates(index.Items(), filter)
	level2, err := a.GenerateCandidates(context.Background(), level1, 2)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1 3", "2 3", "2 5", "3 5"}, format(dict, level2))

	level3, err := a.GenerateCandidates(context.Background(), level2, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2 3 5"}, format(dict, level3))
}

func TestGenerateCandidatesSubsets(t *testing.T) {
	dict := item.NewDictionary()
	dict.Items("1", "2", "3", "4", "5")
	set := func(names ...string) itemset.ItemSet {
		return itemset.FromNames(dict, names...)
	}
	prev := []itemset.ItemSet{
		set("1", "2", "3"),
		set("1", "2", "4"),
		set("1", "3", "4"),
		set("1", "3", "5"),
		set("2", "3", "4"),
	}

	for _, workers := range []int{1, 3} {
		a, err := apriori.New(apriori.AlwaysAccept{}, workers)
		require.NoError(t, err)
		got, err := a.GenerateCandidates(context.Background(), prev, 4)
		a.Release()
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].Equal(set("1", "2", "3", "4")))
	}

	container := []itemset.ItemSet{set("1", "2"), set("1", "3"), set("2", "3")}
	assert.True(t, apriori.ContainsAllSubsets(container, set("1", "2", "3")))
	assert.False(t, apriori.ContainsAllSubsets(container, set("1", "2", "4")))
}

func TestRun(t *testing.T) {
	index, dict := loadIndex(t, agrawal)
	a, err := apriori.New(apriori.MinCount{MinCount: 2, Index: index}, 3)
	require.NoError(t, err)
	defer a.Release()

	got, err := a.Run(context.Background(), index)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "3", "5", "1 3", "2 3", "2 5", "3 5", "2 3 5"}, format(dict, got))
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Len(), got[i].Len())
	}
}

func TestRunCanceled(t *testing.T) {
	index, _ := loadIndex(t, agrawal)
	a, err := apriori.New(apriori.AlwaysAccept{}, 2)
	require.NoError(t, err)
	defer a.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Run(ctx, index)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPoolClosed(t *testing.T) {
	index, _ := loadIndex(t, agrawal)
	a, err := apriori.New(apriori.AlwaysAccept{}, 1)
	require.NoError(t, err)
	a.Release()

	_, err = a.GenerateCandidates(context.Background(), apriori.InitialCandidates(index.Items(), apriori.AlwaysAccept{}), 2)
	assert.True(t, errno.Equal(err, errno.AprioriPoolClosed))
}

func TestMinAbsSupValue(t *testing.T) {
	cases := []struct {
		a, b, n int
		want    int
	}{
		{250, 250, 1000, 81},
		{250, 500, 1000, 146},
		{600, 500, 1000, 324},
		{500, 500, 1000, 274},
		{500, 1000, 1000, 500},
		{500, 1000, 10000, 71},
		{50, 1000, 10000, 12},
		{50, 5000, 10000, 36},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.want, apriori.MinAbsSupValue(tt.a, tt.b, tt.n, apriori.DefaultMinAbsSupE),
			"MinAbsSupValue(%d, %d, %d)", tt.a, tt.b, tt.n)
	}
}

func TestMinAbsSupFilter(t *testing.T) {
	index, dict := loadIndex(t, agrawal)
	f := apriori.MinAbsSup{Index: index}

	assert.True(t, f.Keep(itemset.FromNames(dict, "2")))
	// three occurrences each in four transactions force 2 and 5 together
	assert.False(t, f.Keep(itemset.FromNames(dict, "2", "5")))
	assert.False(t, f.Keep(itemset.New()))
}
