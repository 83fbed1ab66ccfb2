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
	"sort"

	mapset "github.com/deckarep/golang-set"
	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/itemset"
	"go.uber.org/zap"
)

const discEpsilon = 0.000001

// CooccurrenceGraph counts how often every pair of items appears together.
type CooccurrenceGraph struct {
	edges map[item.Item]map[item.Item]uint32
}

func NewCooccurrenceGraph() *CooccurrenceGraph {
	return &CooccurrenceGraph{edges: make(map[item.Item]map[item.Item]uint32)}
}

func (g *CooccurrenceGraph) partialIncrement(a, b item.Item) {
	n, ok := g.edges[a]
	if !ok {
		n = make(map[item.Item]uint32)
		g.edges[a] = n
	}
	n[b]++
}

func (g *CooccurrenceGraph) partialDecrement(a, b item.Item) {
	n, ok := g.edges[a]
	if !ok || n[b] == 0 {
		return
	}
	if n[b] == 1 {
		delete(n, b)
		if len(n) == 0 {
			delete(g.edges, a)
		}
		return
	}
	n[b]--
}

// Increment adds one to every pair of distinct items in txn.
func (g *CooccurrenceGraph) Increment(txn []item.Item) {
	for i, a := range txn {
		for _, b := range txn[i+1:] {
			g.partialIncrement(a, b)
			g.partialIncrement(b, a)
		}
	}
}

func (g *CooccurrenceGraph) Decrement(txn []item.Item) {
	for i, a := range txn {
		for _, b := range txn[i+1:] {
			g.partialDecrement(a, b)
			g.partialDecrement(b, a)
		}
	}
}

func (g *CooccurrenceGraph) Count(a, b item.Item) uint32 {
	return g.edges[a][b]
}

// Neighbourhood returns the items co-occurring with a, ascending.
func (g *CooccurrenceGraph) Neighbourhood(a item.Item) []item.Item {
	n := g.edges[a]
	out := make([]item.Item, 0, len(n))
	for b := range n {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// DiscTree orders items by their discriminativeness, an information gain
// over the co-occurrence graph, and resorts every Interval transactions.
// It filters items below MinDisc out of mining.
type DiscTree struct {
	Base
	interval int
	minDisc  float64
	count    int
	ready    bool

	graph *CooccurrenceGraph
	freq  *item.Map[uint32]
	// items holds every item present in the window.
	items mapset.Set
	disc  *item.Map[float64]
	cmp   item.Comparator
}

// NewDiscTree creates the policy. A NaN minDisc keeps every item.
func NewDiscTree(tree *fptree.Tree, interval int, minDisc float64, opts Options) (*DiscTree, error) {
	if interval <= 0 {
		return nil, errno.NewError(errno.InvalidSortInterval, interval)
	}
	p := &DiscTree{
		Base:     newBase("disctree", tree, opts),
		interval: interval,
		minDisc:  minDisc,
		graph:    NewCooccurrenceGraph(),
		freq:     item.NewMap[uint32](),
		items:    mapset.NewThreadUnsafeSet(),
		disc:     item.NewMap[float64](),
	}
	p.cmp = item.MapCmp(p.disc)
	p.filter = p
	return p, nil
}

// SetIndex sets the data set the supports are computed on.
func (p *DiscTree) SetIndex(ds dataset.DataSet) {
	p.opts.Index = ds
}

func (p *DiscTree) Discriminativeness() *item.Map[float64] {
	return p.disc
}

func (p *DiscTree) ensureSorted(t []item.Item) {
	if p.ready {
		item.Sort(t, p.cmp)
		return
	}
	item.Sort(t, item.ByID)
}

func (p *DiscTree) OnLoad(txn []item.Item) {
	t := p.copyTxn(txn)
	p.ensureSorted(t)
	p.graph.Increment(t)
	for _, it := range t {
		if p.freq.Increment(it, 1) == 1 {
			p.items.Add(it)
		}
	}
	p.tree.Insert(t, 1)

	p.count++
	if p.count >= p.interval {
		p.updateDiscriminativeness()
		p.ready = true
		p.sortTree(p.cmp, "interval")
		p.count = 0
	}
	p.loaded()
}

func (p *DiscTree) OnUnload(txn []item.Item) {
	t := p.copyTxn(txn)
	p.ensureSorted(t)
	p.graph.Decrement(t)
	for _, it := range t {
		if p.freq.Get(it) == 0 {
			continue
		}
		if p.freq.Decrement(it, 1) == 0 {
			p.items.Remove(it)
		}
	}
	p.tree.Remove(t, 1)
}

func (p *DiscTree) updateDiscriminativeness() {
	ds := p.opts.Index
	if ds == nil {
		p.logger.Warn("no data set to compute discriminativeness on")
		return
	}
	p.items.Each(func(v interface{}) bool {
		x := v.(item.Item)
		supX := dataset.ItemSupport(ds, x)
		var g float64
		for _, y := range p.graph.Neighbourhood(x) {
			supXY := dataset.Support(ds, itemset.New(x, y))
			supY := dataset.ItemSupport(ds, y)
			g += gain(supXY, supX) + gain(supXY, supY)
		}
		p.disc.Set(x, g/2)
		return false
	})
	p.logger.Debug("discriminativeness updated", zap.Int("items", p.items.Cardinality()))
}

func gain(supXY, supX float64) float64 {
	return -supXY*math.Log(supXY/supX) - (supX-supXY)*math.Log((supX-supXY+discEpsilon)/supX)
}

// ShouldKeep implements fpgrowth.ItemFilter.
func (p *DiscTree) ShouldKeep(it item.Item) bool {
	return !p.ready || math.IsNaN(p.minDisc) || p.disc.Get(it) > p.minDisc
}
