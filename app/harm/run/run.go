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

package run

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/openGemini/harm/engine/apriori"
	"github.com/openGemini/harm/engine/fpgrowth"
	"github.com/openGemini/harm/engine/policy"
	"github.com/openGemini/harm/engine/stream"
	"github.com/openGemini/harm/lib/config"
	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/logger"
	"github.com/openGemini/harm/lib/metrics"
	"github.com/openGemini/harm/lib/pattern"
	"github.com/openGemini/harm/lib/report"
	"github.com/openGemini/harm/lib/util"
	"go.uber.org/zap"
)

// batchRun is the run number of a mining run over the whole data set; its
// output files carry no run suffix.
const batchRun = -1

const maxThreads = 256

type Options struct {
	// PrintTree renders the final pattern tree to Out.
	PrintTree bool
	// Out receives the rendered tree; nil discards it.
	Out io.Writer
}

// Runner executes one mining configuration: it loads the input, builds the
// pattern tree or candidate levels of the mode, and writes itemsets and
// rules for every mining run.
type Runner struct {
	conf    config.Mining
	opts    Options
	dict    *item.Dictionary
	id      string
	summary Summary
	logger  *logger.Logger
}

func New(conf config.Mining, opts Options) *Runner {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	dict := item.NewDictionary()
	if conf.CompareMode == config.CompareLexicographic {
		dict.SetCompareMode(item.Lexicographic)
	}
	id := uuid.New().String()
	return &Runner{
		conf:    conf,
		opts:    opts,
		dict:    dict,
		id:      id,
		summary: Summary{RunID: id, Mode: conf.Mode},
		logger:  logger.NewLogger(errno.ModuleCli),
	}
}

func (r *Runner) ID() string {
	return r.id
}

func (r *Runner) Dictionary() *item.Dictionary {
	return r.dict
}

// Run mines the configured input. The summary is returned even when the
// run fails part way.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	if err := os.MkdirAll(filepath.Dir(r.conf.Output), 0750); err != nil {
		return &r.summary, errors.Wrapf(err, "create output dir for %s", r.conf.Output)
	}
	detach, err := logger.AttachRunLog(r.conf.LogFileName(), zap.String("run", r.id))
	if err != nil {
		return &r.summary, err
	}
	defer func() {
		if err := detach(); err != nil {
			r.logger.Warn("close run log failed", zap.Error(err))
		}
	}()

	f, err := os.Open(filepath.Clean(r.conf.Input))
	if err != nil {
		return &r.summary, errors.Wrapf(err, "open input %s", r.conf.Input)
	}
	defer util.MustClose(f)

	r.logger.Info("mining started", zap.Any("config", r.conf.ShowConfigs()))
	err = r.dispatch(ctx, dataset.NewReader(f, r.dict))

	r.summary.Duration = time.Since(start)
	metrics.Transactions.Add(float64(r.summary.Transactions))
	if err != nil {
		r.logger.Error("mining failed", zap.Error(err))
		return &r.summary, err
	}
	r.logger.Info("mining finished",
		zap.Int("transactions", r.summary.Transactions),
		zap.Int("runs", r.summary.Runs),
		zap.Int64("itemsets", r.summary.ItemSets),
		zap.Int64("rules", r.summary.Rules),
		zap.Duration("duration", r.summary.Duration))
	return &r.summary, nil
}

// dispatch runs the mode of the configuration. Contract violations inside
// the tree and miners panic; they are returned as errors of the run.
func (r *Runner) dispatch(ctx context.Context, reader *dataset.Reader) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = errno.FromPanic(v, errno.ModuleCli)
		}
	}()

	switch {
	case r.conf.Mode.IsApriori():
		return r.runApriori(ctx, reader)
	case r.conf.Mode.IsDriftDetector():
		return r.runDetector(ctx, reader)
	default:
		return r.runTree(ctx, reader)
	}
}

func (r *Runner) runApriori(ctx context.Context, reader *dataset.Reader) error {
	index := dataset.NewInvertedIndex(reader)
	done := util.TimeCost("load data set")
	if err := index.Load(ctx); err != nil {
		return err
	}
	done()
	r.summary.Transactions = index.NumTransactions()

	var filter apriori.Filter
	if r.conf.Mode == config.ModeMinAbsSup {
		filter = apriori.MinAbsSup{Index: index}
	} else {
		filter = apriori.MinSupport{MinSup: r.conf.MinSup, Index: index}
	}
	a, err := apriori.New(filter, util.IntLimit(1, maxThreads, r.conf.Threads))
	if err != nil {
		return err
	}
	defer a.Release()

	start := time.Now()
	sets, err := a.Run(ctx, index)
	if err != nil {
		return err
	}

	out, closeOut, err := r.openItemSets(batchRun, index)
	if err != nil {
		return err
	}
	for _, s := range sets {
		out.WriteItemSet(s)
	}
	if err := closeOut(); err != nil {
		return err
	}
	return r.finishRun(ctx, batchRun, index, out.NumPatterns(), time.Since(start), pattern.NewSliceSource(sets))
}

func (r *Runner) runTree(ctx context.Context, reader *dataset.Reader) error {
	var drift *report.DriftReporter
	if r.conf.Mode == config.ModeDDTreeStream {
		f, err := r.create(r.conf.DriftResultsFile)
		if err != nil {
			return err
		}
		defer util.MustClose(f)
		drift = report.NewDriftReporter(f)
	}

	tree := fptree.New(r.dict)
	var p policy.Policy
	if !r.conf.Mode.IsStreaming() {
		index := dataset.NewInvertedIndex(reader)
		var err error
		if p, err = policy.New(r.conf, tree, index, nil, drift); err != nil {
			return err
		}
		index.SetLoadListener(p)
		if err := index.Load(ctx); err != nil {
			return err
		}
		r.summary.Transactions = index.NumTransactions()
		if err := r.mineTree(ctx, batchRun, p.Tree(), index, p.ItemFilter()); err != nil {
			return err
		}
	} else {
		index, err := dataset.NewWindowIndex(reader, int(r.conf.BlockSize))
		if err != nil {
			return err
		}
		mine := func(run int, t *fptree.Tree, filter fpgrowth.ItemFilter) error {
			return r.mineTree(ctx, run, t, index, filter)
		}
		if p, err = policy.New(r.conf, tree, index, mine, drift); err != nil {
			return err
		}
		index.SetLoadListener(p)
		if err := index.Load(ctx); err != nil {
			return err
		}
		if err := p.Err(); err != nil {
			return err
		}
		r.summary.Transactions = p.TxnNum()
	}

	r.summary.Sorts = p.Tree().NumSorts()
	if drift != nil {
		r.summary.Drifts = drift.NumDrifts()
	}
	r.printTree(p.Tree())
	return nil
}

func (r *Runner) runDetector(ctx context.Context, reader *dataset.Reader) error {
	reporter := report.NewDriftReporter(nil)
	if r.conf.DriftResultsFile != "" {
		f, err := r.create(r.conf.DriftResultsFile)
		if err != nil {
			return err
		}
		defer util.MustClose(f)
		reporter = report.NewDriftReporter(f)
	}

	opts := stream.OptionsFromConfig(r.conf)
	det, err := stream.NewDetector(r.dict, opts, func(run int, tree *fptree.Tree, window dataset.DataSet) error {
		return r.mineTree(ctx, run, tree, window, nil)
	}, reporter)
	if err != nil {
		return err
	}
	name := string(r.conf.Mode)
	metrics.Trees.Register(name, det.Tree())
	defer metrics.Trees.Unregister(name)

	err = det.Run(ctx, reader)
	r.summary.Transactions = det.Transactions()
	r.summary.Sorts = det.Tree().NumSorts()
	r.summary.Drifts = reporter.NumDrifts()
	if err != nil {
		return err
	}
	r.printTree(det.Tree())
	return nil
}

// mineTree runs FP-growth over tree, whose transactions are those of ds.
func (r *Runner) mineTree(ctx context.Context, run int, tree *fptree.Tree, ds dataset.DataSet, filter fpgrowth.ItemFilter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	miner := fpgrowth.NewMiner(ds, r.conf.MinCount(ds.NumTransactions()))
	miner.Filter = filter
	if r.conf.TreePruneDepth > 0 {
		miner.PruneDepth = uint32(r.conf.TreePruneDepth)
	}

	out, closeOut, err := r.openItemSets(run, ds)
	if err != nil {
		return err
	}
	res := miner.Mine(tree, out)
	if err := closeOut(); err != nil {
		return err
	}

	var src pattern.ItemSetSource
	if !r.conf.CountItemSetsOnly {
		f, err := os.Open(r.conf.ItemSetsFileName(run))
		if err != nil {
			return errors.Wrapf(err, "reopen itemsets %s", r.conf.ItemSetsFileName(run))
		}
		defer util.MustClose(f)
		src = pattern.NewInputStream(f, r.dict)
	}
	return r.finishRun(ctx, run, ds, res.Patterns, res.Duration, src)
}

// finishRun records a mining run and generates its rules from src. A nil
// src skips rule generation.
func (r *Runner) finishRun(ctx context.Context, run int, ds dataset.DataSet, patterns int64, d time.Duration, src pattern.ItemSetSource) error {
	mode := string(r.conf.Mode)
	r.summary.Runs++
	r.summary.ItemSets += patterns
	metrics.MiningRuns.WithLabelValues(mode).Inc()
	metrics.PatternsEmitted.WithLabelValues(mode).Add(float64(patterns))
	metrics.MiningDuration.WithLabelValues(mode).Observe(d.Seconds())

	r.logger.Info("mining run finished",
		zap.Int("run", run),
		zap.Int("transactions", ds.NumTransactions()),
		zap.Int64("itemsets", patterns),
		zap.Bool("saved", !r.conf.CountItemSetsOnly),
		zap.Duration("duration", d))

	if src == nil {
		r.logger.Info("skipping rule generation because itemsets were not saved")
		return nil
	}

	var w io.Writer
	if !r.conf.CountRulesOnly {
		f, err := r.create(r.conf.RulesFileName(run))
		if err != nil {
			return err
		}
		defer util.MustClose(f)
		w = f
	}
	n, err := pattern.GenerateRules(ctx, src, ds, r.dict, pattern.RuleOptions{
		MinConf:   r.conf.MinConf,
		MinLift:   r.conf.MinLift,
		CountOnly: r.conf.CountRulesOnly,
	}, w)
	r.summary.Rules += n
	return err
}

// openItemSets returns the itemset stream of run and a function that
// flushes and closes it.
func (r *Runner) openItemSets(run int, ds dataset.DataSet) (*pattern.OutputStream, func() error, error) {
	if r.conf.CountItemSetsOnly {
		out := pattern.NewCountingStream()
		return out, out.Close, nil
	}
	f, err := r.create(r.conf.ItemSetsFileName(run))
	if err != nil {
		return nil, nil, err
	}
	out := pattern.NewOutputStream(f, ds, r.dict)
	return out, func() error {
		if err := out.Close(); err != nil {
			_ = f.Close()
			return errors.Wrap(err, "write itemsets")
		}
		return f.Close()
	}, nil
}

func (r *Runner) create(name string) (*os.File, error) {
	f, err := os.Create(filepath.Clean(name))
	if err != nil {
		r.logger.Error("create output file failed", zap.String("file", name), zap.Error(err))
		return nil, errno.NewError(errno.CreateOutputFailed, name)
	}
	return f, nil
}

func (r *Runner) printTree(tree *fptree.Tree) {
	if !r.opts.PrintTree {
		return
	}
	fmt.Fprintln(r.opts.Out, tree.Render())
}
