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
	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"go.uber.org/zap"
)

// FPTree is the batch policy: a pre-pass over the reader counts every item
// and each transaction is inserted in descending order of that count.
type FPTree struct {
	Base
	freq *item.Map[uint32]
}

func NewFPTree(tree *fptree.Tree, opts Options) *FPTree {
	return &FPTree{
		Base: newBase("fptree", tree, opts),
		freq: item.NewMap[uint32](),
	}
}

func (p *FPTree) OnStartLoad(r *dataset.Reader) error {
	if err := p.Base.OnStartLoad(r); err != nil {
		return err
	}
	p.freq.Clear()
	if err := r.Rewind(); err != nil {
		return err
	}
	for {
		txn, ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		for _, it := range txn {
			p.freq.Increment(it, 1)
		}
	}
	p.logger.Info("frequency pre-pass finished", zap.Int("items", p.freq.Len()))
	return r.Rewind()
}

func (p *FPTree) OnLoad(txn []item.Item) {
	t := p.copyTxn(txn)
	item.Sort(t, item.MapCmp(p.freq))
	p.tree.Insert(t, 1)
	p.loaded()
}

// CanTree inserts transactions in order of first appearance of their items
// and never restructures.
type CanTree struct {
	Base
}

func NewCanTree(tree *fptree.Tree, opts Options) *CanTree {
	return &CanTree{Base: newBase("cantree", tree, opts)}
}

func (p *CanTree) OnLoad(txn []item.Item) {
	t := p.copyTxn(txn)
	item.Sort(t, item.ByID)
	p.tree.Insert(t, 1)
	p.loaded()
}

func (p *CanTree) OnUnload(txn []item.Item) {
	t := p.copyTxn(txn)
	item.Sort(t, item.ByID)
	p.tree.Remove(t, 1)
}

// CpTree resorts the tree by current frequency every Interval transactions.
type CpTree struct {
	Base
	interval int
	count    int
}

func NewCpTree(tree *fptree.Tree, interval int, opts Options) (*CpTree, error) {
	if interval <= 0 {
		return nil, errno.NewError(errno.InvalidSortInterval, interval)
	}
	return &CpTree{
		Base:     newBase("cptree", tree, opts),
		interval: interval,
	}, nil
}

func (p *CpTree) Interval() int {
	return p.interval
}

// SetInterval changes the sort interval. Values below one are clamped.
func (p *CpTree) SetInterval(interval int) {
	p.interval = max(interval, 1)
}

func (p *CpTree) OnLoad(txn []item.Item) {
	t := p.copyTxn(txn)
	p.tree.SortTransaction(t)
	p.tree.Insert(t, 1)

	p.count++
	if p.count >= p.interval {
		p.sortTree(nil, "interval")
		p.count = 0
	}
	p.loaded()
}

func (p *CpTree) OnUnload(txn []item.Item) {
	t := p.copyTxn(txn)
	p.tree.SortTransaction(t)
	p.tree.Remove(t, 1)
}
