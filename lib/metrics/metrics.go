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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "harm"

// Registry holds every harm collector. It is separate from the default
// registry so tests and runs start from a clean state.
var Registry = prometheus.NewRegistry()

var (
	MiningRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "miner",
		Name:      "runs_total",
		Help:      "Number of mining runs.",
	}, []string{"mode"})

	PatternsEmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "miner",
		Name:      "patterns_total",
		Help:      "Number of itemsets emitted by mining runs.",
	}, []string{"mode"})

	MiningDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "miner",
		Name:      "duration_seconds",
		Help:      "Duration of mining runs.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	}, []string{"mode"})

	TreeSorts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tree",
		Name:      "sorts_total",
		Help:      "Number of pattern tree restructures.",
	}, []string{"policy"})

	Drifts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "drifts_total",
		Help:      "Number of detected concept drifts.",
	}, []string{"detector"})

	Transactions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "dataset",
		Name:      "transactions_total",
		Help:      "Number of transactions loaded.",
	})
)

var Trees = NewTreeCollector()

func init() {
	Registry.MustRegister(MiningRuns, PatternsEmitted, MiningDuration, TreeSorts, Drifts, Transactions, Trees)
}

func NewDesc(subsystem, name, help string, labels []string) *prometheus.Desc {
	return prometheus.NewDesc(
		prometheus.BuildFQName(namespace, subsystem, name),
		help,
		labels,
		nil,
	)
}

// TreeStats is the view of a pattern tree exported by TreeCollector.
type TreeStats interface {
	NumNodes() int
	NumLeaves() int
	NumSorts() int
}

// TreeCollector reports the size of every registered tree at scrape time.
type TreeCollector struct {
	mu    sync.RWMutex
	trees map[string]TreeStats

	nodes  *prometheus.Desc
	leaves *prometheus.Desc
	sorts  *prometheus.Desc
}

func NewTreeCollector() *TreeCollector {
	labels := []string{"tree"}
	return &TreeCollector{
		trees:  make(map[string]TreeStats),
		nodes:  NewDesc("tree", "nodes", "Number of nodes in the pattern tree.", labels),
		leaves: NewDesc("tree", "leaves", "Number of leaves in the pattern tree.", labels),
		sorts:  NewDesc("tree", "sorts", "Number of sorts applied to the pattern tree.", labels),
	}
}

func (c *TreeCollector) Register(name string, t TreeStats) {
	c.mu.Lock()
	c.trees[name] = t
	c.mu.Unlock()
}

func (c *TreeCollector) Unregister(name string) {
	c.mu.Lock()
	delete(c.trees, name)
	c.mu.Unlock()
}

// Get returns the tree registered under name.
func (c *TreeCollector) Get(name string) (TreeStats, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.trees[name]
	return t, ok
}

func (c *TreeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.nodes
	ch <- c.leaves
	ch <- c.sorts
}

func (c *TreeCollector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for name, t := range c.trees {
		ch <- prometheus.MustNewConstMetric(c.nodes, prometheus.GaugeValue, float64(t.NumNodes()), name)
		ch <- prometheus.MustNewConstMetric(c.leaves, prometheus.GaugeValue, float64(t.NumLeaves()), name)
		ch <- prometheus.MustNewConstMetric(c.sorts, prometheus.CounterValue, float64(t.NumSorts()), name)
	}
}

// WriteTextFile dumps the registry in the text exposition format.
func WriteTextFile(filename string) error {
	return prometheus.WriteToTextfile(filename, Registry)
}
