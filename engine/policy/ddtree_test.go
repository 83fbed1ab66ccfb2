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

package policy_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/openGemini/harm/engine/fpgrowth"
	"github.com/openGemini/harm/engine/policy"
	"github.com/openGemini/harm/lib/config"
	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/metrics"
	"github.com/openGemini/harm/lib/report"
	"github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeatRows(row []string, n int) [][]string {
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = row
	}
	return rows
}

func loadDDTree(t *testing.T, threshold float64, buf *bytes.Buffer, mine policy.MineFunc) *policy.DDTree {
	var dd *policy.DDTree
	loadStream(t, repeatRows([]string{"a", "b"}, 8), 8, func(tree *fptree.Tree, _ *dataset.WindowIndex) policy.Policy {
		var err error
		dd, err = policy.NewDDTree(tree, policy.DDTreeOptions{
			Interval:       2,
			DriftThreshold: threshold,
			Input:          "stable.csv",
			Reporter:       report.NewDriftReporter(buf),
		}, policy.Options{Streaming: true, BlockSize: 2, Mine: mine})
		require.NoError(t, err)
		return dd
	})
	return dd
}

func TestDDTree(t *testing.T) {
	convey.Convey("stable stream keeps its block size", t, func() {
		var buf bytes.Buffer
		var runs []int
		dd := loadDDTree(t, 50, &buf, func(run int, tree *fptree.Tree, _ fpgrowth.ItemFilter) error {
			runs = append(runs, run)
			return nil
		})

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		for _, field := range []string{`"detector":"ddtree"`, `"input":"stable.csv"`, `"block":2`, `"position":4`, `"similarity":100`, `"drift":false`, `"threshold":50`} {
			assert.Contains(t, lines[0], field)
		}
		assert.Contains(t, lines[2], `"block":4`)
		assert.Equal(t, []int{1, 2, 3, 4}, runs)
		assert.Equal(t, 4, dd.Runs())
		assert.Equal(t, 8, dd.TxnNum())
		assert.Equal(t, 2, dd.WindowSize())
		assert.Equal(t, 2, dd.CpTree().Interval())
		assert.Equal(t, 4, dd.ExtrapTree().Blocks())
		assert.Equal(t, "(root:0 (a:8 (b:8)))", dd.Tree().String())
		assert.Equal(t, "(root:0 (a:8 (b:8)))", dd.ExtrapTree().Tree().String())
		assert.NoError(t, dd.Err())
	})

	convey.Convey("trees are registered and sized under the ddtree name", t, func() {
		var buf bytes.Buffer
		dd := loadDDTree(t, 50, &buf, nil)
		assert.Equal(t, 8, dd.TreeMetrics().Count())

		shared, ok := metrics.Trees.Get("ddtree")
		require.True(t, ok)
		assert.Same(t, dd.Tree(), shared)
		extrap, ok := metrics.Trees.Get(policy.ExtrapTreeMetricsName)
		require.True(t, ok)
		assert.Same(t, dd.ExtrapTree().Tree(), extrap)
	})

	convey.Convey("zero threshold reports a drift on the third block", t, func() {
		var buf bytes.Buffer
		dd := loadDDTree(t, 0, &buf, nil)
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[0], `"drift":false`)
		assert.Contains(t, lines[1], `"drift":true`)
		assert.Contains(t, lines[1], `"position":6`)
		assert.Contains(t, lines[2], `"drift":false`)
		assert.Equal(t, 2, dd.WindowSize())
	})

	convey.Convey("invalid interval", t, func() {
		_, err := policy.NewDDTree(fptree.New(item.NewDictionary()), policy.DDTreeOptions{}, policy.Options{BlockSize: 2})
		assert.True(t, errno.Equal(err, errno.InvalidSortInterval))
	})
}

func TestNew(t *testing.T) {
	mining := func(mode config.Mode) config.Mining {
		c := config.NewMining()
		c.Mode = mode
		c.CpSortInterval = 100
		c.SpoEntropyThreshold = 0.5
		c.ExtrapThreshold = 100
		c.DiscSortInterval = 100
		return c
	}

	cases := []struct {
		mode config.Mode
		name string
	}{
		{config.ModeFPTree, "fptree"},
		{config.ModeCanTree, "cantree"},
		{config.ModeStream, "cantree"},
		{config.ModeCpTree, "cptree"},
		{config.ModeCpTreeStream, "cptree"},
		{config.ModeSpoTree, "spotree"},
		{config.ModeSpoTreeStream, "spotree"},
		{config.ModeExtrapStream, "extraptree"},
		{config.ModeDiscTree, "disctree"},
		{config.ModeDDTreeStream, "ddtree"},
	}
	for _, tt := range cases {
		t.Run(string(tt.mode), func(t *testing.T) {
			tree := fptree.New(item.NewDictionary())
			p, err := policy.New(mining(tt.mode), tree, nil, nil, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.name, p.Name())
			assert.Same(t, tree, p.Tree())
		})
	}

	_, err := policy.New(mining(config.ModeApriori), fptree.New(item.NewDictionary()), nil, nil, nil)
	assert.True(t, errno.Equal(err, errno.InvalidMiningMode))

	c := mining(config.ModeCpTree)
	c.CpSortInterval = 0
	p, err := policy.New(c, fptree.New(item.NewDictionary()), nil, nil, nil)
	assert.True(t, errno.Equal(err, errno.InvalidSortInterval))
	assert.Nil(t, p)
}
