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

package fpgrowth

import (
	"math"
	"time"

	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/logger"
	"github.com/openGemini/harm/lib/pattern"
	"go.uber.org/zap"
)

// NoPruneDepth disables depth pruning.
const NoPruneDepth = math.MaxUint32

// Oracle counts item occurrences in the data set being mined.
type Oracle interface {
	CountItem(it item.Item) int
}

// ItemFilter vetoes items from mining.
type ItemFilter interface {
	ShouldKeep(it item.Item) bool
}

// Miner enumerates the frequent itemsets of a pattern tree.
type Miner struct {
	Oracle   Oracle
	MinCount float64
	// PruneDepth ignores nodes at this depth or deeper.
	PruneDepth uint32
	Filter     ItemFilter

	pattern []item.Item
	emitted int64
	sink    pattern.Sink
	logger  *logger.Logger
}

type Result struct {
	Patterns int64
	Duration time.Duration
}

func NewMiner(oracle Oracle, minCount float64) *Miner {
	return &Miner{
		Oracle:     oracle,
		MinCount:   minCount,
		PruneDepth: NoPruneDepth,
		logger:     logger.NewLogger(errno.ModuleMiner),
	}
}

// Mine writes every itemset of tree whose items reach MinCount to sink.
func (m *Miner) Mine(tree *fptree.Tree, sink pattern.Sink) Result {
	if tree == nil {
		panic(errno.NewError(errno.MinerNilTree))
	}
	if m.Oracle == nil {
		panic(errno.NewError(errno.MinerNilOracle))
	}
	if m.logger == nil {
		m.logger = logger.NewLogger(errno.ModuleMiner)
	}

	start := time.Now()
	m.pattern = m.pattern[:0]
	m.emitted = 0
	m.sink = sink
	m.growth(tree)
	m.sink = nil

	res := Result{Patterns: m.emitted, Duration: time.Since(start)}
	m.logger.Info("fp-growth finished",
		zap.Int64("patterns", res.Patterns),
		zap.Float64("minCount", m.MinCount),
		zap.Duration("duration", res.Duration))
	return res
}

func (m *Miner) emit() {
	m.emitted++
	m.sink.Write(m.pattern)
}

func (m *Miner) keep(it item.Item) bool {
	return m.Filter == nil || m.Filter.ShouldKeep(it)
}

func (m *Miner) growth(tree *fptree.Tree) {
	// A lone item under the root goes through the header loop so that it
	// is checked against MinCount.
	if first := tree.FirstChild(tree.Root()); tree.HasSinglePath() && tree.FirstChild(first) != fptree.NilNode {
		m.addPatternsInPath(tree, first)
		return
	}

	for _, it := range tree.HeaderItems() {
		if !m.keep(it) {
			continue
		}
		// Items below the global threshold can still be in the header of
		// trees that are never pruned by support.
		if float64(m.Oracle.CountItem(it)) < m.MinCount {
			continue
		}

		cond := ConstructConditionalTree(tree, it, m.MinCount, m.PruneDepth)
		m.pattern = append(m.pattern, it)
		m.emit()
		if !cond.IsEmpty() {
			m.growth(cond)
		}
		m.pattern = m.pattern[:len(m.pattern)-1]
	}
}

// AddPatternsInPath writes the pattern extended by every non-empty
// subsequence of the chain starting at id.
func (m *Miner) AddPatternsInPath(tree *fptree.Tree, id fptree.NodeID, sink pattern.Sink) int64 {
	m.sink = sink
	m.emitted = 0
	m.addPatternsInPath(tree, id)
	m.sink = nil
	return m.emitted
}

func (m *Miner) addPatternsInPath(tree *fptree.Tree, id fptree.NodeID) {
	if id == fptree.NilNode || tree.Depth(id) >= m.PruneDepth {
		return
	}
	it := tree.Item(id)
	include := m.keep(it)
	if include {
		m.pattern = append(m.pattern, it)
		m.emit()
		m.pattern = m.pattern[:len(m.pattern)-1]
	}

	child := tree.FirstChild(id)
	if child == fptree.NilNode {
		return
	}
	m.addPatternsInPath(tree, child)

	if include {
		m.pattern = append(m.pattern, it)
		m.addPatternsInPath(tree, child)
		m.pattern = m.pattern[:len(m.pattern)-1]
	}
}

// ConstructConditionalTree builds the tree of the prefix paths of every
// occurrence of it above pruneDepth, keeping the items whose tally within
// those paths reaches minCount.
func ConstructConditionalTree(tree *fptree.Tree, it item.Item, minCount float64, pruneDepth uint32) *fptree.Tree {
	tally := item.NewMap[uint32]()
	for n := tree.Head(it); n != fptree.NilNode; n = tree.Next(n) {
		if tree.Depth(n) >= pruneDepth {
			continue
		}
		count := tree.Count(n)
		for p := tree.Parent(n); p != tree.Root() && p != fptree.NilNode; p = tree.Parent(p) {
			tally.Increment(tree.Item(p), count)
		}
	}

	cond := fptree.New(tree.Dictionary())
	byTally := item.ComparatorFunc(func(a, b item.Item) bool {
		return tally.Get(a) > tally.Get(b)
	})
	var path []item.Item
	for n := tree.Head(it); n != fptree.NilNode; n = tree.Next(n) {
		if tree.Depth(n) >= pruneDepth {
			continue
		}
		path = tree.Ancestors(n, path[:0])
		kept := path[:0]
		for _, p := range path {
			if float64(tally.Get(p)) >= minCount {
				kept = append(kept, p)
			}
		}
		item.Sort(kept, byTally)
		cond.Insert(kept, tree.Count(n))
	}
	return cond
}
