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

package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openGemini/harm/lib/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTree struct{ nodes, leaves, sorts int }

func (f fakeTree) NumNodes() int  { return f.nodes }
func (f fakeTree) NumLeaves() int { return f.leaves }
func (f fakeTree) NumSorts() int  { return f.sorts }

func TestTreeCollector(t *testing.T) {
	c := metrics.NewTreeCollector()
	c.Register("main", fakeTree{nodes: 11, leaves: 6, sorts: 2})
	assert.Equal(t, 3, testutil.CollectAndCount(c))

	expected := `
# HELP harm_tree_nodes Number of nodes in the pattern tree.
# TYPE harm_tree_nodes gauge
harm_tree_nodes{tree="main"} 11
`
	assert.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "harm_tree_nodes"))
	got, ok := c.Get("main")
	assert.True(t, ok)
	assert.Equal(t, 11, got.NumNodes())

	c.Unregister("main")
	_, ok = c.Get("main")
	assert.False(t, ok)
	assert.Equal(t, 0, testutil.CollectAndCount(c))
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(metrics.MiningRuns.WithLabelValues("test"))
	metrics.MiningRuns.WithLabelValues("test").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MiningRuns.WithLabelValues("test")))
}

func TestWriteTextFile(t *testing.T) {
	metrics.Drifts.WithLabelValues("ssdd").Inc()
	file := filepath.Join(t.TempDir(), "harm.prom")
	require.NoError(t, metrics.WriteTextFile(file))
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `harm_stream_drifts_total{detector="ssdd"}`)
}
