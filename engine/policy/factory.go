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
	"github.com/openGemini/harm/lib/config"
	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/fptree"
	"github.com/openGemini/harm/lib/report"
)

// New creates the policy of a tree mining mode. index is the data set the
// tree is loaded from.
func New(conf config.Mining, tree *fptree.Tree, index dataset.DataSet, mine MineFunc, drift *report.DriftReporter) (Policy, error) {
	opts := Options{
		Streaming: conf.Mode.IsStreaming(),
		TxnNums:   conf.LogTreeMetrics,
		Mine:      mine,
		Index:     index,
	}
	if opts.Streaming {
		opts.BlockSize = int(conf.BlockSize)
	}

	var (
		p   Policy
		err error
	)
	switch conf.Mode {
	case config.ModeFPTree:
		p = NewFPTree(tree, opts)
	case config.ModeCanTree, config.ModeStream:
		p = NewCanTree(tree, opts)
	case config.ModeCpTree, config.ModeCpTreeStream:
		var cp *CpTree
		if cp, err = NewCpTree(tree, conf.CpSortInterval, opts); err == nil {
			p = cp
		}
	case config.ModeSpoTree, config.ModeSpoTreeStream:
		p = NewSpoTree(tree, conf.SpoEntropyThreshold, opts)
	case config.ModeExtrapStream:
		var ex *ExtrapTree
		if ex, err = NewExtrapTree(tree, int(conf.ExtrapThreshold), conf.KernelDataPoints, conf.UseKernelRegression, opts); err == nil {
			p = ex
		}
	case config.ModeDiscTree:
		var disc *DiscTree
		if disc, err = NewDiscTree(tree, conf.DiscSortInterval, conf.MinDisc, opts); err == nil {
			p = disc
		}
	case config.ModeDDTreeStream:
		var dd *DDTree
		dd, err = NewDDTree(tree, DDTreeOptions{
			Interval:          conf.CpSortInterval,
			DataPoints:        conf.KernelDataPoints,
			UseKernel:         conf.UseKernelRegression,
			StopDepth:         conf.StopDepth,
			CmpDepthThreshold: conf.CmpDepthThreshold,
			DriftThreshold:    conf.DriftThreshold,
			Input:             conf.Input,
			Reporter:          drift,
		}, opts)
		if err == nil {
			p = dd
		}
	default:
		err = errno.NewError(errno.InvalidMiningMode, conf.Mode)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}
