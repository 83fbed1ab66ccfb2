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

package config

import (
	"fmt"
	"math"
	"runtime"
	"strconv"

	"github.com/docker/go-units"
	"github.com/openGemini/harm/lib/errno"
)

type Mode string

const (
	ModeApriori       Mode = "apriori"
	ModeMinAbsSup     Mode = "minabssup"
	ModeFPTree        Mode = "fptree"
	ModeCanTree       Mode = "cantree"
	ModeCpTree        Mode = "cptree"
	ModeCpTreeStream  Mode = "cptreeStream"
	ModeSpoTree       Mode = "spotree"
	ModeSpoTreeStream Mode = "spotreeStream"
	ModeStream        Mode = "stream"
	ModeExtrapStream  Mode = "ExtrapStream"
	ModeDiscTree      Mode = "disctree"
	ModeDDTreeStream  Mode = "DDTreeStream"
	ModeSSDD          Mode = "SSDD"
	ModeDBDD          Mode = "DBDD"
)

var modes = []Mode{
	ModeApriori, ModeMinAbsSup, ModeFPTree, ModeCanTree, ModeCpTree, ModeCpTreeStream,
	ModeSpoTree, ModeSpoTreeStream, ModeStream, ModeExtrapStream, ModeDiscTree,
	ModeDDTreeStream, ModeSSDD, ModeDBDD,
}

func Modes() []Mode {
	return append([]Mode(nil), modes...)
}

func ParseMode(s string) (Mode, error) {
	for _, m := range modes {
		if string(m) == s {
			return m, nil
		}
	}
	return "", errno.NewError(errno.InvalidMiningMode, s)
}

func (m Mode) Valid() bool {
	_, err := ParseMode(string(m))
	return err == nil
}

// IsStreaming reports whether the mode mines once per block while loading.
func (m Mode) IsStreaming() bool {
	switch m {
	case ModeCpTreeStream, ModeSpoTreeStream, ModeExtrapStream, ModeDDTreeStream,
		ModeStream, ModeDiscTree, ModeSSDD, ModeDBDD:
		return true
	}
	return false
}

func (m Mode) IsApriori() bool {
	return m == ModeApriori || m == ModeMinAbsSup
}

func (m Mode) IsDriftDetector() bool {
	return m == ModeSSDD || m == ModeDBDD
}

func (m Mode) RequiresBlockSize() bool {
	return !m.IsApriori()
}

func (m Mode) RequiresCpSortInterval() bool {
	return m == ModeCpTree || m == ModeCpTreeStream || m == ModeDDTreeStream
}

func (m Mode) UsesExtrapolation() bool {
	return m == ModeExtrapStream || m == ModeDDTreeStream
}

// BlockSize is a transaction count that also accepts human sizes such as "10k".
type BlockSize int

func (b *BlockSize) UnmarshalText(text []byte) error {
	s := string(text)
	if v, err := strconv.Atoi(s); err == nil {
		*b = BlockSize(v)
		return nil
	}
	v, err := units.FromHumanSize(s)
	if err != nil || v > math.MaxInt32 {
		return errno.NewError(errno.InvalidBlockSizeFmt, s)
	}
	*b = BlockSize(v)
	return nil
}

func (b BlockSize) MarshalText() ([]byte, error) {
	return []byte(strconv.Itoa(int(b))), nil
}

func (b BlockSize) String() string {
	return units.HumanSize(float64(b))
}

// Set and Type let a BlockSize be bound to a command line flag.
func (b *BlockSize) Set(s string) error {
	return b.UnmarshalText([]byte(s))
}

func (b *BlockSize) Type() string {
	return "size"
}

const (
	DefaultMinConf           = 0.9
	DefaultMinLift           = 1.0
	DefaultBlockSize         = 10000
	DefaultDriftThreshold    = 20.0
	DefaultDataPoints        = 5
	DefaultCmpDepthThreshold = 1
	DefaultTreePruneDepth    = math.MaxInt32
)

const (
	CompareInsertion     = "insertion"
	CompareLexicographic = "lexicographic"
)

// Mining holds the parameters of a run. Floats defaulting to NaN are unset.
type Mining struct {
	Input             string    `toml:"input"`
	Output            string    `toml:"output"`
	Mode              Mode      `toml:"mode"`
	MinSup            float64   `toml:"min-sup"`
	MinConf           float64   `toml:"min-conf"`
	MinLift           float64   `toml:"min-lift"`
	BlockSize         BlockSize `toml:"block-size"`
	Threads           int       `toml:"threads"`
	CountRulesOnly    bool      `toml:"count-rules-only"`
	CountItemSetsOnly bool      `toml:"count-itemsets-only"`
	CompareMode       string    `toml:"compare-mode"`
	LogTreeMetrics    []int     `toml:"log-tree-metrics"`

	CpSortInterval      int     `toml:"cp-sort-interval"`
	SpoEntropyThreshold float64 `toml:"spo-entropy-threshold"`
	ExtrapThreshold     float64 `toml:"extrap-entropy-threshold"`
	DiscSortInterval    int     `toml:"disc-sort-interval"`
	TreePruneDepth      int     `toml:"tree-prune-depth"`
	MinDisc             float64 `toml:"min-disc"`

	UseKernelRegression bool `toml:"use-kernel-regression"`
	KernelDataPoints    int  `toml:"kernel-datapoints"`

	StopDepth         int     `toml:"stop-depth"`
	CmpDepthThreshold int     `toml:"cmp-depth-threshold"`
	DriftThreshold    float64 `toml:"drift-threshold"`
	DriftResultsFile  string  `toml:"drift-results-file"`

	TreeDriftThreshold     float64 `toml:"ssdd-tree-drift-threshold"`
	TreeMergeThreshold     float64 `toml:"ssdd-tree-merge-threshold"`
	ItemFreqDriftThreshold float64 `toml:"ssdd-item-freq-drift-threshold"`
	ItemFreqMergeThreshold float64 `toml:"ssdd-item-freq-merge-threshold"`
	WindowCmp              bool    `toml:"ssdd-window-cmp"`
	AdaptiveWindows        bool    `toml:"adaptive-windows"`
	PrintBlocks            bool    `toml:"print-blocks"`
	DBDDDelta              float64 `toml:"dbdd-delta"`
}

func NewMining() Mining {
	nan := math.NaN()
	return Mining{
		MinSup:                 nan,
		MinConf:                DefaultMinConf,
		MinLift:                DefaultMinLift,
		BlockSize:              DefaultBlockSize,
		Threads:                runtime.NumCPU(),
		CompareMode:            CompareInsertion,
		SpoEntropyThreshold:    nan,
		ExtrapThreshold:        nan,
		TreePruneDepth:         DefaultTreePruneDepth,
		MinDisc:                nan,
		KernelDataPoints:       DefaultDataPoints,
		CmpDepthThreshold:      DefaultCmpDepthThreshold,
		DriftThreshold:         DefaultDriftThreshold,
		TreeDriftThreshold:     nan,
		TreeMergeThreshold:     nan,
		ItemFreqDriftThreshold: nan,
		ItemFreqMergeThreshold: nan,
		DBDDDelta:              nan,
	}
}

func isSet(v float64) bool {
	return !math.IsNaN(v)
}

func (c Mining) HasTreeDriftThreshold() bool     { return isSet(c.TreeDriftThreshold) }
func (c Mining) HasTreeMergeThreshold() bool     { return isSet(c.TreeMergeThreshold) }
func (c Mining) HasItemFreqDriftThreshold() bool { return isSet(c.ItemFreqDriftThreshold) }
func (c Mining) HasItemFreqMergeThreshold() bool { return isSet(c.ItemFreqMergeThreshold) }

func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

func (c Mining) missing(name string) error {
	return errno.NewError(errno.MissingParameter, c.Mode, name)
}

func invalid(name string, v interface{}) error {
	return errno.NewError(errno.InvalidParameter, name, v)
}

// Validate checks that every parameter the mode depends on is present and in range.
func (c Mining) Validate() error {
	if c.Input == "" {
		return c.missing("input")
	}
	if c.Output == "" {
		return c.missing("output")
	}
	if !c.Mode.Valid() {
		return errno.NewError(errno.InvalidMiningMode, c.Mode)
	}

	if c.Mode == ModeMinAbsSup {
		if isSet(c.MinSup) {
			return invalid("min-sup", fmt.Sprintf("%v (not used in %s mode)", c.MinSup, c.Mode))
		}
	} else {
		if !isSet(c.MinSup) {
			return c.missing("min-sup")
		}
		if !inUnitRange(c.MinSup) {
			return invalid("min-sup", c.MinSup)
		}
	}
	if !inUnitRange(c.MinConf) {
		return invalid("min-conf", c.MinConf)
	}
	if c.MinLift < 0 {
		return invalid("min-lift", c.MinLift)
	}
	if c.Threads <= 0 {
		return invalid("threads", c.Threads)
	}
	if c.CompareMode != CompareInsertion && c.CompareMode != CompareLexicographic {
		return invalid("compare-mode", c.CompareMode)
	}
	if c.Mode.RequiresBlockSize() && c.BlockSize <= 0 {
		return invalid("block-size", int(c.BlockSize))
	}
	if c.Mode.RequiresCpSortInterval() && c.CpSortInterval <= 0 {
		return c.missing("cp-sort-interval")
	}

	switch c.Mode {
	case ModeSpoTree, ModeSpoTreeStream:
		if !isSet(c.SpoEntropyThreshold) {
			return c.missing("spo-entropy-threshold")
		}
	case ModeDiscTree:
		if c.DiscSortInterval <= 0 {
			return c.missing("disc-sort-interval")
		}
		if c.TreePruneDepth <= 0 {
			return invalid("tree-prune-depth", c.TreePruneDepth)
		}
	case ModeExtrapStream:
		if !isSet(c.ExtrapThreshold) {
			return c.missing("extrap-entropy-threshold")
		}
	case ModeDDTreeStream:
		if c.StopDepth < 0 {
			return invalid("stop-depth", c.StopDepth)
		}
		if c.CmpDepthThreshold < 0 {
			return invalid("cmp-depth-threshold", c.CmpDepthThreshold)
		}
		if c.DriftResultsFile == "" {
			return c.missing("drift-results-file")
		}
	case ModeSSDD:
		if !c.HasTreeDriftThreshold() && !c.HasItemFreqDriftThreshold() {
			return c.missing("ssdd-tree-drift-threshold or ssdd-item-freq-drift-threshold")
		}
		thresholds := map[string]float64{
			"ssdd-tree-drift-threshold":      c.TreeDriftThreshold,
			"ssdd-tree-merge-threshold":      c.TreeMergeThreshold,
			"ssdd-item-freq-drift-threshold": c.ItemFreqDriftThreshold,
			"ssdd-item-freq-merge-threshold": c.ItemFreqMergeThreshold,
		}
		for name, v := range thresholds {
			if isSet(v) && !inUnitRange(v) {
				return invalid(name, v)
			}
		}
	case ModeDBDD:
		if !isSet(c.DBDDDelta) || !inUnitRange(c.DBDDDelta) {
			return c.missing("dbdd-delta in range [0,1]")
		}
	}

	if c.Mode.UsesExtrapolation() {
		if c.KernelDataPoints <= 0 || c.KernelDataPoints > int(c.BlockSize) {
			return errno.NewError(errno.InvalidDataPoints, c.KernelDataPoints)
		}
	}
	return nil
}

// MinCount converts the minimum support into an absolute count.
func (c Mining) MinCount(numTransactions int) float64 {
	if !isSet(c.MinSup) {
		return 0
	}
	return c.MinSup * float64(numTransactions)
}

func (c Mining) LogFileName() string {
	return c.Output + ".log.txt"
}

// ItemSetsFileName returns the itemset output path; run >= 0 selects a streaming block.
func (c Mining) ItemSetsFileName(run int) string {
	if run < 0 {
		return c.Output + ".itemsets.support.csv"
	}
	return fmt.Sprintf("%s.itemsets.support-%d.csv", c.Output, run)
}

func (c Mining) RulesFileName(run int) string {
	if run < 0 {
		return c.Output + ".rules.conf.lift.support.csv"
	}
	return fmt.Sprintf("%s.rules.conf.lift.support-%d.csv", c.Output, run)
}

func (c Mining) ShowConfigs() map[string]interface{} {
	return map[string]interface{}{
		"mining.input":      c.Input,
		"mining.output":     c.Output,
		"mining.mode":       c.Mode,
		"mining.min-sup":    c.MinSup,
		"mining.min-conf":   c.MinConf,
		"mining.min-lift":   c.MinLift,
		"mining.block-size": int(c.BlockSize),
		"mining.threads":    c.Threads,
	}
}
