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

package pattern

import (
	"bufio"
	"context"
	"io"
	"time"

	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/itemset"
	"github.com/openGemini/harm/lib/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Rule struct {
	Antecedent itemset.ItemSet
	Consequent itemset.ItemSet
}

func (r Rule) Format(dict *item.Dictionary) string {
	return r.Antecedent.Format(dict) + " -> " + r.Consequent.Format(dict)
}

type RuleOptions struct {
	MinConf   float64
	MinLift   float64
	CountOnly bool
}

type ruleGenerator struct {
	ds   dataset.DataSet
	dict *item.Dictionary
	opts RuleOptions
	w    *bufio.Writer
	err  error

	numRules int64
	ante     []item.Item
	cons     []item.Item
}

// GenerateRules writes every rule "a -> c,conf,lift,count" derivable from the
// itemsets of src whose confidence and lift exceed the thresholds.
func GenerateRules(ctx context.Context, src ItemSetSource, ds dataset.DataSet, dict *item.Dictionary,
	opts RuleOptions, w io.Writer) (int64, error) {
	start := time.Now()
	g := &ruleGenerator{ds: ds, dict: dict, opts: opts}
	if !opts.CountOnly && w != nil {
		g.w = bufio.NewWriter(w)
	}

	for {
		if err := ctx.Err(); err != nil {
			return g.numRules, err
		}
		set, ok, err := src.Read()
		if err != nil {
			return g.numRules, err
		}
		if !ok {
			break
		}
		g.ante, g.cons = g.ante[:0], g.cons[:0]
		g.split(set.Items())
		if g.err != nil {
			return g.numRules, errors.Wrap(g.err, "write rules")
		}
	}

	if g.w != nil {
		if err := g.w.Flush(); err != nil {
			return g.numRules, errors.Wrap(err, "flush rules")
		}
	}
	logger.NewLogger(errno.ModulePattern).Info("generated rules",
		zap.Int64("rules", g.numRules),
		zap.Bool("saved", g.w != nil),
		zap.Duration("duration", time.Since(start)))
	return g.numRules, nil
}

// split assigns each remaining item to the antecedent first, then to the
// consequent.
func (g *ruleGenerator) split(rest []item.Item) {
	if len(rest) == 0 {
		g.emit()
		return
	}
	it := rest[0]
	g.ante = append(g.ante, it)
	g.split(rest[1:])
	g.ante = g.ante[:len(g.ante)-1]

	g.cons = append(g.cons, it)
	g.split(rest[1:])
	g.cons = g.cons[:len(g.cons)-1]
}

func (g *ruleGenerator) emit() {
	if len(g.ante) == 0 || len(g.cons) == 0 {
		return
	}
	r := Rule{Antecedent: itemset.New(g.ante...), Consequent: itemset.New(g.cons...)}
	support := dataset.Support(g.ds, itemset.Union(r.Antecedent, r.Consequent))
	supA := dataset.Support(g.ds, r.Antecedent)
	supC := dataset.Support(g.ds, r.Consequent)
	if supA == 0 || supC == 0 {
		return
	}
	confidence := support / supA
	lift := confidence / supC
	if !(confidence > g.opts.MinConf && lift > g.opts.MinLift) {
		return
	}
	g.numRules++
	if g.w == nil || g.err != nil {
		return
	}
	count := support * float64(g.ds.NumTransactions())
	_, g.err = g.w.WriteString(r.Format(g.dict) + "," + FormatFloat(confidence) + "," +
		FormatFloat(lift) + "," + FormatFloat(count) + "\n")
}
