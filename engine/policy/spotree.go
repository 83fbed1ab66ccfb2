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
	"math"

	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"go.uber.org/zap"
)

// SpoRanks tracks the frequency rank of every item and how far the ranking
// has moved since the last resort.
type SpoRanks struct {
	tree    *fptree.Tree
	ranking []item.Item
	// lookup maps an item to its index in ranking, which is its rank.
	lookup *item.Map[int]
	// stored is the rank an item had at the last resort.
	stored  *item.Map[int]
	diffSum int
}

func NewSpoRanks(tree *fptree.Tree) *SpoRanks {
	return &SpoRanks{
		tree:   tree,
		lookup: item.NewMap[int](),
		stored: item.NewMap[int](),
	}
}

func (r *SpoRanks) delta(it item.Item) int {
	d := r.lookup.Get(it) - r.stored.Get(it)
	if d < 0 {
		return -d
	}
	return d
}

// Adjust restores the ranking after the items of txn had their counts
// incremented.
func (r *SpoRanks) Adjust(txn []item.Item) {
	freq := r.tree.FrequencyTable()
	for _, it := range txn {
		if !r.lookup.Contains(it) {
			idx := len(r.ranking)
			r.ranking = append(r.ranking, it)
			r.lookup.Set(it, idx)
			r.stored.Set(it, idx)
		}

		for rank := r.lookup.Get(it); rank > 0; rank-- {
			prev := r.ranking[rank-1]
			count, prevCount := freq.Get(it), freq.Get(prev)
			if prevCount > count || (prevCount == count && prev < it) {
				break
			}
			r.diffSum -= r.delta(it) + r.delta(prev)
			r.ranking[rank-1], r.ranking[rank] = it, prev
			r.lookup.Set(prev, rank)
			r.lookup.Set(it, rank-1)
			r.diffSum += r.delta(it) + r.delta(prev)
		}
	}
}

// ResetEntropy makes the current ranking the stored one.
func (r *SpoRanks) ResetEntropy() {
	for i, it := range r.ranking {
		r.stored.Set(it, i)
	}
	r.diffSum = 0
}

// Entropy normalizes the total rank displacement by its maximum.
func (r *SpoRanks) Entropy() float64 {
	n := float64(len(r.ranking))
	norm := n*(n-1) + math.Floor(n*n/4)
	if norm == 0 {
		return 0
	}
	return float64(r.diffSum) / norm
}

// Ranking returns the items from most to least frequent.
func (r *SpoRanks) Ranking() []item.Item {
	return r.ranking
}

// SpoTree resorts the tree whenever the rank entropy exceeds a threshold.
type SpoTree struct {
	Base
	threshold float64
	ranks     *SpoRanks
}

func NewSpoTree(tree *fptree.Tree, threshold float64, opts Options) *SpoTree {
	return &SpoTree{
		Base:      newBase("spotree", tree, opts),
		threshold: threshold,
		ranks:     NewSpoRanks(tree),
	}
}

func (p *SpoTree) Ranks() *SpoRanks {
	return p.ranks
}

func (p *SpoTree) OnLoad(txn []item.Item) {
	t := p.copyTxn(txn)
	p.tree.SortTransaction(t)
	p.tree.Insert(t, 1)
	p.ranks.Adjust(t)

	if entropy := p.ranks.Entropy(); entropy > p.threshold {
		p.sortTree(nil, "entropy", zap.Float64("entropy", entropy))
		p.ranks.ResetEntropy()
	}
	p.loaded()
}

func (p *SpoTree) OnUnload(txn []item.Item) {
	t := p.copyTxn(txn)
	p.tree.SortTransaction(t)
	p.tree.Remove(t, 1)
}

// OnEndLoad sorts the tree once more before it is mined after a batch load.
func (p *SpoTree) OnEndLoad() {
	if !p.opts.Streaming {
		p.sortTree(nil, "end of load")
		p.ranks.ResetEntropy()
	}
}
