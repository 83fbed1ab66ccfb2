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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/openGemini/harm/app"
	"github.com/openGemini/harm/app/harm/run"
	"github.com/openGemini/harm/lib/config"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/logger"
	"github.com/openGemini/harm/lib/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type mineOptions struct {
	configPath  string
	printTree   bool
	logLevel    string
	metricsFile string
	mining      config.Mining
}

// miningFlags copies the value of each changed flag into the configuration.
var miningFlags = []struct {
	name  string
	apply func(dst, src *config.Mining)
}{
	{"input", func(d, s *config.Mining) { d.Input = s.Input }},
	{"output", func(d, s *config.Mining) { d.Output = s.Output }},
	{"mode", func(d, s *config.Mining) { d.Mode = s.Mode }},
	{"minsup", func(d, s *config.Mining) { d.MinSup = s.MinSup }},
	{"minconf", func(d, s *config.Mining) { d.MinConf = s.MinConf }},
	{"minlift", func(d, s *config.Mining) { d.MinLift = s.MinLift }},
	{"blocksize", func(d, s *config.Mining) { d.BlockSize = s.BlockSize }},
	{"threads", func(d, s *config.Mining) { d.Threads = s.Threads }},
	{"count-rules-only", func(d, s *config.Mining) { d.CountRulesOnly = s.CountRulesOnly }},
	{"count-itemsets-only", func(d, s *config.Mining) { d.CountItemSetsOnly = s.CountItemSetsOnly }},
	{"compare-mode", func(d, s *config.Mining) { d.CompareMode = s.CompareMode }},
	{"log-tree-metrics", func(d, s *config.Mining) { d.LogTreeMetrics = s.LogTreeMetrics }},
	{"cp-sort-interval", func(d, s *config.Mining) { d.CpSortInterval = s.CpSortInterval }},
	{"spo-entropy-threshold", func(d, s *config.Mining) { d.SpoEntropyThreshold = s.SpoEntropyThreshold }},
	{"extrap-entropy-threshold", func(d, s *config.Mining) { d.ExtrapThreshold = s.ExtrapThreshold }},
	{"disc-sort-interval", func(d, s *config.Mining) { d.DiscSortInterval = s.DiscSortInterval }},
	{"tree-prune-depth", func(d, s *config.Mining) { d.TreePruneDepth = s.TreePruneDepth }},
	{"min-disc", func(d, s *config.Mining) { d.MinDisc = s.MinDisc }},
	{"use-kernel-regression", func(d, s *config.Mining) { d.UseKernelRegression = s.UseKernelRegression }},
	{"kernel-datapoints", func(d, s *config.Mining) { d.KernelDataPoints = s.KernelDataPoints }},
	{"stop-depth", func(d, s *config.Mining) { d.StopDepth = s.StopDepth }},
	{"cmp-depth-threshold", func(d, s *config.Mining) { d.CmpDepthThreshold = s.CmpDepthThreshold }},
	{"drift-threshold", func(d, s *config.Mining) { d.DriftThreshold = s.DriftThreshold }},
	{"drift-results-file", func(d, s *config.Mining) { d.DriftResultsFile = s.DriftResultsFile }},
	{"ssdd-tree-drift-threshold", func(d, s *config.Mining) { d.TreeDriftThreshold = s.TreeDriftThreshold }},
	{"ssdd-tree-merge-threshold", func(d, s *config.Mining) { d.TreeMergeThreshold = s.TreeMergeThreshold }},
	{"ssdd-item-freq-drift-threshold", func(d, s *config.Mining) { d.ItemFreqDriftThreshold = s.ItemFreqDriftThreshold }},
	{"ssdd-item-freq-merge-threshold", func(d, s *config.Mining) { d.ItemFreqMergeThreshold = s.ItemFreqMergeThreshold }},
	{"ssdd-window-cmp", func(d, s *config.Mining) { d.WindowCmp = s.WindowCmp }},
	{"adaptive-windows", func(d, s *config.Mining) { d.AdaptiveWindows = s.AdaptiveWindows }},
	{"print-blocks", func(d, s *config.Mining) { d.PrintBlocks = s.PrintBlocks }},
	{"dbdd-delta", func(d, s *config.Mining) { d.DBDDDelta = s.DBDDDelta }},
}

func init() {
	rootCmd.AddCommand(newMineCmd())
}

func newMineCmd() *cobra.Command {
	o := &mineOptions{mining: config.NewMining()}
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine frequent itemsets and association rules",
		Long: `Mine frequent itemsets and association rules from a transaction file.
Flags override the values of the configuration file.`,
		Example: `  harm mine -i data.csv -o out/data -m cptree --minsup 0.05 --cp-sort-interval 1000
  harm mine --config harm.conf -m SSDD --ssdd-tree-drift-threshold 0.2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runMine(ctx, cmd, o)
		},
	}
	initMineFlags(cmd, o)
	return cmd
}

func initMineFlags(cmd *cobra.Command, o *mineOptions) {
	m := &o.mining
	fs := cmd.Flags()
	fs.StringVar(&o.configPath, "config", "", "Path to the TOML configuration file.")
	fs.BoolVar(&o.printTree, "print-tree", false, "Print the final pattern tree.")
	fs.StringVar(&o.logLevel, "log-level", "", "Log level: debug, info, warn or error.")
	fs.StringVar(&o.metricsFile, "metrics-file", "", "Write the run metrics in the prometheus text format to this file.")

	fs.StringVarP(&m.Input, "input", "i", "", "Input data set, one comma separated transaction per line.")
	fs.StringVarP(&m.Output, "output", "o", "", "Output file prefix.")
	fs.StringVarP((*string)(&m.Mode), "mode", "m", "", "Mining mode.")
	fs.Float64Var(&m.MinSup, "minsup", m.MinSup, "Minimum itemset support.")
	fs.Float64Var(&m.MinConf, "minconf", m.MinConf, "Minimum rule confidence.")
	fs.Float64Var(&m.MinLift, "minlift", m.MinLift, "Minimum rule lift.")
	fs.Var(&m.BlockSize, "blocksize", "Transactions per block in streaming modes, e.g. 10000 or 10k.")
	fs.IntVar(&m.Threads, "threads", m.Threads, "Apriori worker threads.")
	fs.BoolVar(&m.CountRulesOnly, "count-rules-only", false, "Count rules without writing them.")
	fs.BoolVar(&m.CountItemSetsOnly, "count-itemsets-only", false, "Count itemsets without writing them.")
	fs.StringVar(&m.CompareMode, "compare-mode", m.CompareMode, "Item comparison: insertion or lexicographic.")
	fs.IntSliceVar(&m.LogTreeMetrics, "log-tree-metrics", nil, "Transaction numbers at which the tree size is logged.")

	fs.IntVar(&m.CpSortInterval, "cp-sort-interval", 0, "Transactions between CP-tree sorts.")
	fs.Float64Var(&m.SpoEntropyThreshold, "spo-entropy-threshold", m.SpoEntropyThreshold, "SPO-tree entropy threshold.")
	fs.Float64Var(&m.ExtrapThreshold, "extrap-entropy-threshold", m.ExtrapThreshold, "Transactions between extrapolated sorts.")
	fs.IntVar(&m.DiscSortInterval, "disc-sort-interval", 0, "Transactions between Disc-tree sorts.")
	fs.IntVar(&m.TreePruneDepth, "tree-prune-depth", m.TreePruneDepth, "Ignore tree nodes at this depth or deeper when mining.")
	fs.Float64Var(&m.MinDisc, "min-disc", m.MinDisc, "Minimum item discriminativeness.")
	fs.BoolVar(&m.UseKernelRegression, "use-kernel-regression", false, "Extrapolate with kernel regression.")
	fs.IntVar(&m.KernelDataPoints, "kernel-datapoints", m.KernelDataPoints, "Samples per block for kernel regression.")
	fs.IntVar(&m.StopDepth, "stop-depth", 0, "Depth at which tree similarity stops comparing.")
	fs.IntVar(&m.CmpDepthThreshold, "cmp-depth-threshold", m.CmpDepthThreshold, "Depth difference tolerated by tree similarity.")
	fs.Float64Var(&m.DriftThreshold, "drift-threshold", m.DriftThreshold, "Similarity below which DDTree reports a drift.")
	fs.StringVar(&m.DriftResultsFile, "drift-results-file", "", "File receiving one JSON drift record per block.")

	fs.Float64Var(&m.TreeDriftThreshold, "ssdd-tree-drift-threshold", m.TreeDriftThreshold, "SSDD structural drift threshold.")
	fs.Float64Var(&m.TreeMergeThreshold, "ssdd-tree-merge-threshold", m.TreeMergeThreshold, "SSDD structural merge threshold.")
	fs.Float64Var(&m.ItemFreqDriftThreshold, "ssdd-item-freq-drift-threshold", m.ItemFreqDriftThreshold, "SSDD item frequency drift threshold.")
	fs.Float64Var(&m.ItemFreqMergeThreshold, "ssdd-item-freq-merge-threshold", m.ItemFreqMergeThreshold, "SSDD item frequency merge threshold.")
	fs.BoolVar(&m.WindowCmp, "ssdd-window-cmp", false, "Compare partitions of the window instead of check points.")
	fs.BoolVar(&m.AdaptiveWindows, "adaptive-windows", false, "Merge check points into exponentially growing windows.")
	fs.BoolVar(&m.PrintBlocks, "print-blocks", false, "Log the check points after every check.")
	fs.Float64Var(&m.DBDDDelta, "dbdd-delta", m.DBDDDelta, "DBDD confidence delta.")
}

// applyFlags copies the changed flags of cmd into conf.
func applyFlags(cmd *cobra.Command, o *mineOptions, conf *config.Mining) {
	for _, f := range miningFlags {
		if cmd.Flags().Changed(f.name) {
			f.apply(conf, &o.mining)
		}
	}
}

func runMine(ctx context.Context, cmd *cobra.Command, o *mineOptions) error {
	info := app.DefaultInfo()
	command := app.NewCommand(info)
	command.BeforeValidate = func(c config.Config) error {
		applyFlags(cmd, o, &c.(*config.Harm).Mining)
		return nil
	}

	conf := config.NewHarm()
	if err := command.InitConfig(conf, o.configPath); err != nil {
		return err
	}
	defer logger.CloseLogger()
	if o.logLevel != "" {
		if err := logger.SetLevel(o.logLevel); err != nil {
			return err
		}
	}
	fmt.Fprint(cmd.ErrOrStderr(), command.Logo)
	app.LogStarting("harm", &info)

	runner := run.New(conf.Mining, run.Options{PrintTree: o.printTree, Out: cmd.OutOrStdout()})
	summary, err := runner.Run(ctx)
	summary.Print(cmd.OutOrStdout())
	if err != nil {
		command.Logger.Error("mine failed", zap.String("run", runner.ID()),
			zap.Error(errno.NewBuiltIn(err, errno.ModuleCli)))
	}

	if o.metricsFile != "" {
		if merr := metrics.WriteTextFile(o.metricsFile); merr != nil {
			command.Logger.Warn("write metrics failed", zap.String("file", o.metricsFile), zap.Error(merr))
		}
	}
	return err
}
