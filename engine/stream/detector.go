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

package stream

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/openGemini/harm/lib/config"
	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/logger"
	"github.com/openGemini/harm/lib/report"
	"github.com/openGemini/harm/lib/util"
	"go.uber.org/zap"
)

// AdaptiveCheckInterval is the check interval used with adaptive windows.
const AdaptiveCheckInterval = 1032

// Method selects how the last unstable check point is searched.
type Method int

const (
	// Progressive walks from the newest check point to the oldest and
	// compares each one with the current tree.
	Progressive Method = iota
	// Partition splits the window in two and compares both sides.
	Partition
	// Distribution cuts the window where item supports differ by more than
	// an ADWIN bound.
	Distribution
)

var methodNames = []string{"progressive", "partition", "distribution"}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return "unknown"
}

func ParseMethod(s string) (Method, error) {
	for i, name := range methodNames {
		if strings.EqualFold(s, name) {
			return Method(i), nil
		}
	}
	return 0, errno.NewError(errno.UnknownDriftMode, s)
}

// Options configures a Detector. Thresholds set to NaN are disabled.
type Options struct {
	CheckInterval          int
	Method                 Method
	TreeDriftThreshold     float64
	TreeMergeThreshold     float64
	ItemFreqDriftThreshold float64
	ItemFreqMergeThreshold float64
	AdaptiveWindows        bool
	PrintBlocks            bool
	DBDDDelta              float64
	Input                  string
}

func OptionsFromConfig(c config.Mining) Options {
	opts := Options{
		CheckInterval:          int(c.BlockSize),
		Method:                 Progressive,
		TreeDriftThreshold:     c.TreeDriftThreshold,
		TreeMergeThreshold:     c.TreeMergeThreshold,
		ItemFreqDriftThreshold: c.ItemFreqDriftThreshold,
		ItemFreqMergeThreshold: c.ItemFreqMergeThreshold,
		AdaptiveWindows:        c.AdaptiveWindows,
		PrintBlocks:            c.PrintBlocks,
		DBDDDelta:              c.DBDDDelta,
		Input:                  c.Input,
	}
	switch {
	case c.Mode == config.ModeDBDD:
		opts.Method = Distribution
	case c.WindowCmp:
		opts.Method = Partition
	}
	return opts
}

func (o Options) interval() int {
	if o.AdaptiveWindows {
		return AdaptiveCheckInterval
	}
	return o.CheckInterval
}

func (o Options) detector() string {
	if o.Method == Distribution {
		return "dbdd"
	}
	return "ssdd"
}

// MineFunc mines tree, whose transactions are those of window.
type MineFunc func(run int, tree *fptree.Tree, window dataset.DataSet) error

// CheckPoint records the frequency table of the tree once transaction End
// was added. Start is the first transaction of the check point.
type CheckPoint struct {
	Start     uint32
	End       uint32
	Frequency *item.Map[uint32]
}

// Size is the number of transactions between Start and End inclusive.
func (c CheckPoint) Size() int {
	return int(c.End-c.Start) + 1
}

// Detector keeps a pattern tree over a variable window of the stream. At
// every check point it looks for the last point where the stream drifted,
// mines the window and drops the transactions up to that point.
type Detector struct {
	opts        Options
	tree        *fptree.Tree
	window      *dataset.VariableWindow
	checkPoints []CheckPoint
	mine        MineFunc
	reporter    *report.DriftReporter

	nextID uint32
	runs   int

	logger *logger.Logger
}

func NewDetector(dict *item.Dictionary, opts Options, mine MineFunc, reporter *report.DriftReporter) (*Detector, error) {
	if opts.interval() <= 0 {
		return nil, errno.NewError(errno.InvalidBlockSize, opts.CheckInterval)
	}
	if reporter == nil {
		reporter = report.NewDriftReporter(nil)
	}
	return &Detector{
		opts:     opts,
		tree:     fptree.New(dict),
		window:   dataset.NewVariableWindow(),
		mine:     mine,
		reporter: reporter,
		logger:   logger.NewLogger(errno.ModuleStream).With(zap.String("detector", opts.detector())),
	}, nil
}

func (d *Detector) Tree() *fptree.Tree {
	return d.tree
}

func (d *Detector) Window() *dataset.VariableWindow {
	return d.window
}

func (d *Detector) CheckPoints() []CheckPoint {
	return d.checkPoints
}

// Transactions is the number of transactions added.
func (d *Detector) Transactions() int {
	return int(d.nextID)
}

// Runs returns the number of times the window was mined.
func (d *Detector) Runs() int {
	return d.runs
}

// Run adds every transaction of r.
func (d *Detector) Run(ctx context.Context, r *dataset.Reader) error {
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		txn, ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := d.Add(txn); err != nil {
			return err
		}
	}
	d.logger.Info("data stream finished",
		zap.Uint32("transactions", d.nextID),
		zap.Int("runs", d.runs),
		zap.Int("drifts", d.reporter.NumDrifts()),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Add inserts the next transaction of the stream. The transaction is
// retained by the detector.
func (d *Detector) Add(txn []item.Item) error {
	id := d.nextID
	d.nextID++

	d.tree.SortTransaction(txn)
	d.tree.Insert(txn, 1)
	d.window.Append(dataset.Transaction{ID: id, Items: txn})

	interval := uint32(d.opts.interval())
	if id == 0 || (id+1)%interval != 0 {
		return nil
	}

	d.tree.Sort()
	d.checkPoints = append(d.checkPoints, CheckPoint{
		Start:     id + 1 - interval,
		End:       id,
		Frequency: d.tree.FrequencyTable().Clone(),
	})
	if d.opts.AdaptiveWindows {
		d.arrangeCheckPoints(2)
	}
	d.logger.Info("check point",
		zap.Uint32("start", id+1-interval),
		zap.Uint32("end", id),
		zap.Int("checkPoints", len(d.checkPoints)),
		zap.Int("window", d.window.Len()))
	d.printBlocks("check points")

	idx := d.FindLastUnstableCheckPoint()
	rec := report.Record{
		Detector: d.opts.detector(),
		Input:    d.opts.Input,
		Block:    len(d.checkPoints),
		Position: int(id) + 1,
		Drift:    idx >= 0,
	}
	if err := d.reporter.Report(rec); err != nil {
		d.logger.Warn("write drift report failed", zap.Error(err))
	}
	if idx < 0 {
		d.logger.Debug("tree is stable")
		return nil
	}

	d.logger.Info("tree is unstable, mining",
		zap.Int("checkPoint", idx),
		zap.Uint32("purgeUpTo", d.checkPoints[idx].End))
	d.runs++
	if d.mine != nil {
		if err := d.mine(d.runs, d.tree, d.window); err != nil {
			return err
		}
	}
	if err := d.PurgeUpTo(idx); err != nil {
		return err
	}
	d.printBlocks("check points after purge")
	return nil
}

// PurgeUpTo drops every transaction up to the end of check point idx, and
// the check points themselves.
func (d *Detector) PurgeUpTo(idx int) error {
	if idx < 0 || idx >= len(d.checkPoints) {
		return errno.NewError(errno.CheckPointOutOfRange, idx, len(d.checkPoints))
	}
	end := d.checkPoints[idx].End
	later := d.checkPoints[idx+1:]
	for d.window.Len() > 0 && d.window.Front().ID <= end {
		txn := d.window.Front()
		d.tree.SortTransaction(txn.Items)
		d.tree.Remove(txn.Items, 1)
		d.window.Pop()
		for _, cp := range later {
			for _, it := range txn.Items {
				if cp.Frequency.Get(it) > 0 {
					cp.Frequency.Decrement(it, 1)
				}
			}
		}
	}
	d.checkPoints = append(d.checkPoints[:0], later...)
	return nil
}

// FindLastUnstableCheckPoint returns the index of the newest check point
// the stream drifted after, or -1 when the window is stable.
func (d *Detector) FindLastUnstableCheckPoint() int {
	switch d.opts.Method {
	case Distribution:
		return d.findByDistribution()
	case Partition:
		return d.findByPartition()
	default:
		return d.findProgressive()
	}
}

func isSet(v float64) bool {
	return !math.IsNaN(v)
}

func (d *Detector) findProgressive() int {
	prevTree, prevTable := math.Inf(1), math.Inf(1)
	for i := len(d.checkPoints) - 2; i >= 0; i-- {
		cp := d.checkPoints[i]
		merge := false
		if isSet(d.opts.TreeDriftThreshold) {
			inst := d.TreeInstability(cp.Frequency)
			d.logBlock("structural instability", cp, inst)
			if inst > d.opts.TreeDriftThreshold {
				return i
			}
			if isSet(d.opts.TreeMergeThreshold) {
				merge = math.Abs(inst-prevTree) < d.opts.TreeMergeThreshold
				prevTree = inst
			}
		}
		if isSet(d.opts.ItemFreqDriftThreshold) {
			inst := d.TableInstability(cp.Frequency, cp.Size())
			d.logBlock("item frequency instability", cp, inst)
			if inst > d.opts.ItemFreqDriftThreshold {
				return i
			}
			if isSet(d.opts.ItemFreqMergeThreshold) {
				merge = merge || math.Abs(inst-prevTable) < d.opts.ItemFreqMergeThreshold
				prevTable = inst
			}
		}
		if merge {
			d.mergeWithNext(i)
		}
	}
	return -1
}

func (d *Detector) findByPartition() int {
	if len(d.checkPoints) < 2 {
		return -1
	}
	last := len(d.checkPoints) - 1
	lhs := d.checkPoints[0].Frequency
	rhs := d.checkPoints[last].Frequency
	for i := 0; i < last && len(d.checkPoints) > 1; {
		inst := d.TreeInstabilityBetween(lhs, rhs)
		d.logger.Debug("partition instability", zap.Int("partition", i), zap.Float64("instability", inst))
		if isSet(d.opts.TreeDriftThreshold) && inst > d.opts.TreeDriftThreshold {
			return i
		}
		lhs = d.checkPoints[i+1].Frequency
		if !d.opts.AdaptiveWindows && isSet(d.opts.TreeMergeThreshold) && inst < d.opts.TreeMergeThreshold {
			// the merged check point is compared again
			d.mergeWithNext(i)
		} else {
			i++
		}
		last = len(d.checkPoints) - 1
	}
	return -1
}

// minWindow is the smallest side of a cut the distribution test considers.
const minWindow = 5

func (d *Detector) findByDistribution() int {
	n := len(d.checkPoints)
	if n < 2 {
		return -1
	}
	start := d.checkPoints[0].Start
	if d.window.Len() > 0 {
		start = d.window.Front().ID
	}
	total := d.checkPoints[n-1]
	nTotal := int(total.End-start) + 1
	dd := math.Log(2 * math.Log(float64(nTotal)) / d.opts.DBDDDelta)

	for i := n - 2; i >= 0; i-- {
		cut := d.checkPoints[i]
		nLhs := int(cut.End-start) + 1
		nRhs := nTotal - nLhs
		if nLhs < minWindow || nRhs < minWindow {
			continue
		}
		m := 1/float64(nRhs-minWindow+1) + 1/float64(nLhs-minWindow+1)

		unstable := false
		total.Frequency.Range(func(it item.Item, count uint32) bool {
			uLhs := int(cut.Frequency.Get(it))
			uRhs := int(count) - uLhs
			v := util.BernoulliVariance(int(count), nTotal)
			eps := math.Sqrt(2*m*v*dd) + 2.0/3.0*dd*m
			diff := float64(uLhs)/float64(nLhs) - float64(uRhs)/float64(nRhs)
			unstable = math.Abs(diff) > eps
			return !unstable
		})
		if unstable {
			d.logger.Info("distribution changed", zap.Int("checkPoint", i), zap.Uint32("end", cut.End))
			return i
		}
	}
	return -1
}

// mergeWithNext extends check point i to the end of the next one.
func (d *Detector) mergeWithNext(i int) {
	cp, next := &d.checkPoints[i], d.checkPoints[i+1]
	d.logger.Debug("merging check points",
		zap.Uint32("start", cp.Start), zap.Uint32("end", cp.End),
		zap.Uint32("nextStart", next.Start), zap.Uint32("nextEnd", next.End))
	cp.End = next.End
	cp.Frequency = next.Frequency
	d.checkPoints = append(d.checkPoints[:i+1], d.checkPoints[i+2:]...)
}

func (d *Detector) capacity(cp CheckPoint) int {
	if cp.End == 0 {
		return 0
	}
	return cp.Size() / AdaptiveCheckInterval
}

// arrangeCheckPoints merges check points so that their sizes grow
// exponentially from the newest to the oldest, m of each size.
func (d *Detector) arrangeCheckPoints(m int) {
	exp := 1
	for i := len(d.checkPoints) - m - 1; i >= 0 && d.capacity(d.checkPoints[i]) == exp; i -= m {
		d.mergeWithNext(i)
		exp *= 2
	}
}

func (d *Detector) logBlock(msg string, cp CheckPoint, v float64) {
	if !d.opts.PrintBlocks {
		return
	}
	d.logger.Info(msg, zap.Uint32("start", cp.Start), zap.Uint32("end", cp.End), zap.Float64("value", v))
}

func (d *Detector) printBlocks(msg string) {
	if !d.opts.PrintBlocks {
		return
	}
	for i, cp := range d.checkPoints {
		d.logger.Info(msg, zap.Int("block", i), zap.Uint32("start", cp.Start), zap.Uint32("end", cp.End))
	}
}
