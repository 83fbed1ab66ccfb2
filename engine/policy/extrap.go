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
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/logger"
	"github.com/openGemini/harm/lib/util"
	"go.uber.org/zap"
)

const hoeffdingDelta = 0.001

// DefaultKernel is the kernel used to extrapolate item counts.
var DefaultKernel = util.PolynomialKernel{Gamma: 0.01, Coef: 0, Degree: 2}

// Interpolation predicts the frequency of every item in the next block from
// its counts in the current one.
type Interpolation struct {
	tree      *fptree.Tree
	useKernel bool
	items     []item.Item
	predicted *item.Map[float64]

	// linear mode
	init *item.Map[uint32]
	prev *item.Map[uint32]

	// kernel mode
	points  []float64
	samples []*item.Map[uint32]

	logger *logger.Logger
}

func NewInterpolation(tree *fptree.Tree, useKernel bool) *Interpolation {
	return &Interpolation{
		tree:      tree,
		useKernel: useKernel,
		predicted: item.NewMap[float64](),
		init:      item.NewMap[uint32](),
		prev:      item.NewMap[uint32](),
		logger:    logger.NewLogger(errno.ModulePolicy),
	}
}

// Adjust registers the items of an inserted transaction.
func (ip *Interpolation) Adjust(txn []item.Item) {
	for _, it := range txn {
		if ip.predicted.Contains(it) {
			continue
		}
		ip.items = append(ip.items, it)
		ip.predicted.Set(it, 0)
		if !ip.useKernel {
			ip.init.Set(it, 0)
			ip.prev.Set(it, 0)
		}
	}
}

// UpdatePrevCount closes the first half of a block in linear mode.
func (ip *Interpolation) UpdatePrevCount() {
	freq := ip.tree.FrequencyTable()
	for _, it := range ip.items {
		ip.init.Set(it, ip.prev.Get(it))
		ip.prev.Set(it, freq.Get(it))
	}
}

// StoreDataPoint samples every item count at transaction tid of the block.
func (ip *Interpolation) StoreDataPoint(tid int) {
	freq := ip.tree.FrequencyTable()
	sample := item.NewMap[uint32]()
	for _, it := range ip.items {
		sample.Set(it, freq.Get(it))
	}
	ip.points = append(ip.points, float64(tid))
	ip.samples = append(ip.samples, sample)
}

// Update computes the prediction of every item at the end of a block.
func (ip *Interpolation) Update(blockSize int) {
	if ip.useKernel {
		ip.updateKernel(blockSize)
		return
	}

	bs := float64(blockSize)
	bound := util.HoeffdingBound(blockSize, hoeffdingDelta)
	freq := ip.tree.FrequencyTable()
	for _, it := range ip.items {
		initCount := float64(ip.init.Get(it))
		prevCount := float64(ip.prev.Get(it))
		count := float64(freq.Get(it))

		first := prevCount - initCount
		second := count - prevCount
		delta := 2*second/bs - 2*first/bs

		var v float64
		if bound < delta {
			v = (2*count - initCount) / bs
		} else {
			v = (count + 2*second - first) / bs
		}
		ip.predicted.Set(it, v)
	}
}

func (ip *Interpolation) updateKernel(blockSize int) {
	target := float64(2 * blockSize)
	freq := ip.tree.FrequencyTable()
	ys := make([]float64, len(ip.points))
	r := util.NewKernelRegression(DefaultKernel)
	for _, it := range ip.items {
		for i, s := range ip.samples {
			ys[i] = float64(s.Get(it))
		}
		if err := r.Fit(ip.points, ys); err != nil {
			ip.logger.Warn("kernel regression failed, using current count", zap.Error(err))
			ip.predicted.Set(it, float64(freq.Get(it)))
			continue
		}
		ip.predicted.Set(it, r.Predict(target))
	}
}

// Reset clears the predictions and starts collecting the next block.
func (ip *Interpolation) Reset() {
	freq := ip.tree.FrequencyTable()
	for _, it := range ip.items {
		ip.predicted.Set(it, 0)
		if !ip.useKernel {
			c := freq.Get(it)
			ip.init.Set(it, c)
			ip.prev.Set(it, c)
		}
	}
	ip.points = ip.points[:0]
	ip.samples = ip.samples[:0]
}

func (ip *Interpolation) Predictions() *item.Map[float64] {
	return ip.predicted
}

// ExtrapTree resorts the tree at the end of every block by the predicted
// frequency of each item in the next block.
type ExtrapTree struct {
	Base
	interval   int
	windowSize int
	dataPoints int
	useKernel  bool
	interp     *Interpolation
	// cmp orders by the predictions of the last block, nil before the first.
	cmp    item.Comparator
	count  int
	blocks int
}

// NewExtrapTree creates the policy. interval drives the linear half-block
// update; dataPoints is the number of kernel samples per block.
func NewExtrapTree(tree *fptree.Tree, interval, dataPoints int, useKernel bool, opts Options) (*ExtrapTree, error) {
	if opts.BlockSize <= 0 {
		return nil, errno.NewError(errno.InvalidBlockSize, opts.BlockSize)
	}
	if useKernel && (dataPoints <= 0 || dataPoints > opts.BlockSize) {
		return nil, errno.NewError(errno.InvalidDataPoints, dataPoints)
	}
	return &ExtrapTree{
		Base:       newBase("extraptree", tree, opts),
		interval:   interval,
		windowSize: opts.BlockSize,
		dataPoints: dataPoints,
		useKernel:  useKernel,
		interp:     NewInterpolation(tree, useKernel),
	}, nil
}

func (p *ExtrapTree) WindowSize() int {
	return p.windowSize
}

// SetWindowSize changes the number of transactions between resorts.
func (p *ExtrapTree) SetWindowSize(size int) {
	p.windowSize = max(size, 1)
}

// Blocks returns the number of completed blocks.
func (p *ExtrapTree) Blocks() int {
	return p.blocks
}

func (p *ExtrapTree) sortTxn(t []item.Item) {
	if p.cmp == nil {
		item.Sort(t, item.ByID)
		return
	}
	item.Sort(t, p.cmp)
}

func (p *ExtrapTree) OnLoad(txn []item.Item) {
	t := p.copyTxn(txn)
	p.sortTxn(t)
	p.tree.Insert(t, 1)
	p.interp.Adjust(t)
	p.count++

	if p.useKernel && p.count%max(p.windowSize/p.dataPoints, 1) == 0 {
		p.interp.StoreDataPoint(p.count)
	}

	if p.count >= p.windowSize {
		p.interp.Update(p.windowSize)
		p.cmp = item.MapCmp(p.interp.Predictions().Clone())
		p.sortTree(p.cmp, "block", zap.Int("block", p.blocks+1))
		p.interp.Reset()
		p.count = 0
		p.blocks++
	}

	if !p.useKernel && p.interval/2 == p.count {
		p.interp.UpdatePrevCount()
	}
	p.loaded()
}

func (p *ExtrapTree) OnUnload(txn []item.Item) {
	t := p.copyTxn(txn)
	p.sortTxn(t)
	p.tree.Remove(t, 1)
}
