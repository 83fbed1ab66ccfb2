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

package policy

import (
	"github.com/openGemini/harm/engine/fpgrowth"
	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/logger"
	"github.com/openGemini/harm/lib/metrics"
	"go.uber.org/zap"
)

// MineFunc mines tree at the end of streaming block run. filter may be nil.
type MineFunc func(run int, tree *fptree.Tree, filter fpgrowth.ItemFilter) error

// Policy builds a pattern tree from the transactions of a data set and
// decides when the tree is restructured.
type Policy interface {
	dataset.LoadListener
	Name() string
	Tree() *fptree.Tree
	// ItemFilter returns the filter applied when mining, or nil.
	ItemFilter() fpgrowth.ItemFilter
	// Err returns the first error raised by a streaming mining run.
	Err() error
	// TxnNum is the number of transactions loaded so far.
	TxnNum() int
	// Runs is the number of mining runs started.
	Runs() int
}

// Options are shared by every policy.
type Options struct {
	// Streaming mines every BlockSize transactions during the load.
	Streaming bool
	BlockSize int
	// TxnNums lists the transaction numbers at which the tree size is logged.
	TxnNums []int
	Mine    MineFunc
	// Index answers support queries for policies that rank by support.
	Index dataset.DataSet
}

// Base carries the behavior common to all policies. Concrete policies call
// loaded once they have inserted a transaction.
type Base struct {
	name      string
	tree      *fptree.Tree
	opts      Options
	metrics   *TreeMetricsLogger
	filter    fpgrowth.ItemFilter
	txnNum    int
	run       int
	err       error
	scratch   []item.Item
	sortCount int

	logger *logger.Logger
}

func newBase(name string, tree *fptree.Tree, opts Options) Base {
	return Base{
		name:    name,
		tree:    tree,
		opts:    opts,
		metrics: NewTreeMetricsLogger(tree, opts.TxnNums),
		logger:  logger.NewLogger(errno.ModulePolicy).With(zap.String("policy", name)),
	}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Tree() *fptree.Tree {
	return b.tree
}

func (b *Base) ItemFilter() fpgrowth.ItemFilter {
	return b.filter
}

func (b *Base) Err() error {
	return b.err
}

// TxnNum returns the number of transactions loaded so far.
func (b *Base) TxnNum() int {
	return b.txnNum
}

// Runs returns the number of streaming mining runs.
func (b *Base) Runs() int {
	return b.run
}

// TreeMetrics returns the logger of the tree size.
func (b *Base) TreeMetrics() *TreeMetricsLogger {
	return b.metrics
}

// Sorts returns the number of restructures triggered by the policy.
func (b *Base) Sorts() int {
	return b.sortCount
}

func (b *Base) OnStartLoad(*dataset.Reader) error {
	metrics.Trees.Register(b.name, b.tree)
	return nil
}

func (b *Base) OnUnload([]item.Item) {}

func (b *Base) OnEndLoad() {}

// copyTxn returns a private copy of txn that may be reordered.
func (b *Base) copyTxn(txn []item.Item) []item.Item {
	b.scratch = append(b.scratch[:0], txn...)
	return b.scratch
}

// sortTree restructures the tree with cmp, or by current frequency when cmp
// is nil.
func (b *Base) sortTree(cmp item.Comparator, reason string, fields ...zap.Field) {
	before := b.tree.NumNodes()
	if cmp == nil {
		b.tree.Sort()
	} else {
		b.tree.SortBy(cmp)
	}
	b.sortCount++
	metrics.TreeSorts.WithLabelValues(b.name).Inc()

	fields = append(fields,
		zap.String("reason", reason),
		zap.Int("txn", b.txnNum),
		zap.Int("nodesBefore", before),
		zap.Int("nodesAfter", b.tree.NumNodes()))
	b.logger.Info("tree sorted", fields...)
}

// loaded finishes the bookkeeping of one transaction and mines at block
// boundaries in streaming mode.
func (b *Base) loaded() {
	b.metrics.OnTxn()
	b.txnNum++
	if !b.opts.Streaming || b.opts.BlockSize <= 0 || b.txnNum%b.opts.BlockSize != 0 {
		return
	}

	b.run++
	b.logger.Info("mining block", zap.Int("txn", b.txnNum), zap.Int("run", b.run))
	if b.opts.Mine == nil || b.err != nil {
		return
	}
	if err := b.opts.Mine(b.run, b.tree, b.filter); err != nil {
		b.err = err
		b.logger.Error("mining block failed", zap.Int("run", b.run), zap.Error(err))
	}
}

// TreeMetricsLogger logs the number of nodes in a tree at chosen
// transaction numbers.
type TreeMetricsLogger struct {
	tree    *fptree.Tree
	txnNums []int
	count   int
	index   int
	logger  *logger.Logger
}

func NewTreeMetricsLogger(tree *fptree.Tree, txnNums []int) *TreeMetricsLogger {
	return &TreeMetricsLogger{
		tree:    tree,
		txnNums: txnNums,
		logger:  logger.NewLogger(errno.ModulePolicy),
	}
}

// Count returns the number of transactions seen.
func (l *TreeMetricsLogger) Count() int {
	return l.count
}

// OnTxn counts one transaction. It reports whether the tree size was logged.
func (l *TreeMetricsLogger) OnTxn() bool {
	l.count++
	for l.index < len(l.txnNums) && l.txnNums[l.index] < l.count {
		l.index++
	}
	if l.index >= len(l.txnNums) || l.txnNums[l.index] != l.count {
		return false
	}
	l.logger.Info("tree metrics",
		zap.Int("txn", l.count),
		zap.Int("nodes", l.tree.NumNodes()),
		zap.Int("leaves", l.tree.NumLeaves()))
	l.index++
	return true
}
