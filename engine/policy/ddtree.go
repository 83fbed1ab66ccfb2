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
	"time"

	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/metrics"
	"github.com/openGemini/harm/lib/report"
	"go.uber.org/zap"
)

// Similarity returns the percentage of nodes of ex whose item appears in cp
// at a depth within th of its own.
func Similarity(ex, cp []fptree.CmpNode, th int) float64 {
	if len(ex) == 0 {
		return 0
	}
	depths := make(map[int32][]int, len(cp))
	for _, c := range cp {
		depths[c.ID] = append(depths[c.ID], int(c.Depth))
	}

	matched := 0
	for _, e := range ex {
		d := int(e.Depth)
		for _, cd := range depths[e.ID] {
			if cd-th <= d && cd+th >= d {
				matched++
				break
			}
		}
	}
	return float64(matched) * 100 / float64(len(ex))
}

// DDTreeOptions configures the drift detection of a DDTree.
type DDTreeOptions struct {
	Interval          int
	DataPoints        int
	UseKernel         bool
	StopDepth         int
	CmpDepthThreshold int
	DriftThreshold    float64
	Input             string
	Reporter          *report.DriftReporter
}

// DDTree maintains an extrapolated tree next to a periodically sorted one
// and reports a drift when their similarity changes abruptly. Between
// drifts the block size follows the similarity trend.
type DDTree struct {
	Base
	ddOpts DDTreeOptions
	extrap *ExtrapTree
	cp     *CpTree

	windowSize int
	count      int
	blocks     int
	consumed   int
	prevSim    float64
	curSim     float64
	extrapVec  []fptree.CmpNode
	reporter   *report.DriftReporter
	started    time.Time
}

// NewDDTree mines and sorts tree as a CpTree; the extrapolated tree is
// private to the policy.
func NewDDTree(tree *fptree.Tree, dd DDTreeOptions, opts Options) (*DDTree, error) {
	// The DDTree logs the tree metrics of the shared tree itself.
	cpOpts := opts
	cpOpts.TxnNums = nil
	cp, err := NewCpTree(tree, dd.Interval, cpOpts)
	if err != nil {
		return nil, err
	}
	extrapOpts := Options{BlockSize: opts.BlockSize}
	extrap, err := NewExtrapTree(fptree.New(tree.Dictionary()), dd.Interval, dd.DataPoints, dd.UseKernel, extrapOpts)
	if err != nil {
		return nil, err
	}

	reporter := dd.Reporter
	if reporter == nil {
		reporter = report.NewDriftReporter(nil)
	}
	return &DDTree{
		Base:       newBase("ddtree", tree, opts),
		ddOpts:     dd,
		extrap:     extrap,
		cp:         cp,
		windowSize: opts.BlockSize,
		reporter:   reporter,
	}, nil
}

func (p *DDTree) ExtrapTree() *ExtrapTree {
	return p.extrap
}

func (p *DDTree) CpTree() *CpTree {
	return p.cp
}

func (p *DDTree) WindowSize() int {
	return p.windowSize
}

func (p *DDTree) Err() error {
	return p.cp.Err()
}

func (p *DDTree) TxnNum() int {
	return p.cp.TxnNum()
}

func (p *DDTree) Runs() int {
	return p.cp.Runs()
}

// ExtrapTreeMetricsName is the name under which the private extrapolated
// tree of a DDTree is registered in metrics.Trees.
const ExtrapTreeMetricsName = "ddtree-extrap"

func (p *DDTree) OnStartLoad(r *dataset.Reader) error {
	p.started = time.Now()
	metrics.Trees.Register(ExtrapTreeMetricsName, p.extrap.Tree())
	return p.Base.OnStartLoad(r)
}

func (p *DDTree) vector(tree *fptree.Tree) []fptree.CmpNode {
	if p.ddOpts.StopDepth > 0 {
		return tree.CmpVectorDepth(p.ddOpts.StopDepth)
	}
	return tree.CmpVector()
}

func (p *DDTree) OnLoad(txn []item.Item) {
	p.extrap.OnLoad(txn)
	p.cp.OnLoad(txn)
	p.metrics.OnTxn()
	p.count++
	if p.count < p.windowSize {
		return
	}

	p.blocks++
	rec := report.Record{
		Detector:          p.name,
		Input:             p.ddOpts.Input,
		Block:             p.blocks,
		Position:          p.consumed + p.count,
		Threshold:         p.ddOpts.DriftThreshold,
		StopDepth:         p.ddOpts.StopDepth,
		CmpDepthThreshold: p.ddOpts.CmpDepthThreshold,
	}
	if p.blocks == 1 {
		p.extrapVec = p.vector(p.extrap.Tree())
		p.logger.Info("similarity skipped for first block", zap.Int("extrapNodes", len(p.extrapVec)))
	} else {
		start := time.Now()
		cpVec := p.vector(p.cp.Tree())
		p.curSim = Similarity(p.extrapVec, cpVec, p.ddOpts.CmpDepthThreshold)
		p.extrapVec = p.vector(p.extrap.Tree())
		rec.Similarity = p.curSim
		rec.ElapsedSeconds = time.Since(start).Seconds()
		p.logger.Info("tree similarity",
			zap.Int("block", p.blocks),
			zap.Int("cpNodes", len(cpVec)),
			zap.Float64("similarity", p.curSim))
	}

	write := p.blocks > 1
	if p.blocks > 2 {
		diff := p.curSim - p.prevSim
		if math.Abs(diff) >= p.ddOpts.DriftThreshold {
			p.logger.Info("drift detected",
				zap.Int("position", rec.Position),
				zap.Float64("diff", diff),
				zap.Float64("threshold", p.ddOpts.DriftThreshold))
			rec.Drift = true
			p.blocks = 1
			p.setWindowSize(p.opts.BlockSize)
		} else {
			p.changeWindowSize(diff)
		}
	}
	if write {
		if err := p.reporter.Report(rec); err != nil {
			p.logger.Warn("write drift report failed", zap.Error(err))
		}
	}

	p.prevSim = p.curSim
	p.consumed += p.count
	p.count = 0
}

func (p *DDTree) changeWindowSize(diff float64) {
	delta := int(diff * float64(p.windowSize) / 100)
	p.windowSize = max(p.windowSize+delta, 1)
	p.extrap.SetWindowSize(p.extrap.WindowSize() + delta)
	p.cp.SetInterval(p.cp.Interval() + delta)
	p.logger.Info("block size changed", zap.Int("delta", delta), zap.Int("blockSize", p.windowSize))
}

func (p *DDTree) setWindowSize(size int) {
	p.windowSize = max(size, 1)
	p.extrap.SetWindowSize(p.windowSize)
	p.cp.SetInterval(p.windowSize)
}

func (p *DDTree) OnUnload(txn []item.Item) {
	p.extrap.OnUnload(txn)
	p.cp.OnUnload(txn)
}

func (p *DDTree) OnEndLoad() {
	p.logger.Info("drift detection finished",
		zap.Duration("duration", time.Since(p.started)),
		zap.Int("drifts", p.reporter.NumDrifts()))
}
