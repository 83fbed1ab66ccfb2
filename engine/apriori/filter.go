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

package apriori

import (
	"math"

	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/itemset"
)

// DefaultMinAbsSupE is the cumulative p-value an itemset count must exceed.
const DefaultMinAbsSupE = 0.999

// Filter decides which candidates are passed on to the next level.
// Implementations must be safe for concurrent use.
type Filter interface {
	Keep(s itemset.ItemSet) bool
}

// FilterFunc adapts a function to a Filter.
type FilterFunc func(s itemset.ItemSet) bool

func (f FilterFunc) Keep(s itemset.ItemSet) bool {
	return f(s)
}

type AlwaysAccept struct{}

func (AlwaysAccept) Keep(itemset.ItemSet) bool {
	return true
}

type MinSupport struct {
	MinSup float64
	Index  dataset.DataSet
}

func (f MinSupport) Keep(s itemset.ItemSet) bool {
	return dataset.Support(f.Index, s) >= f.MinSup
}

type MinCount struct {
	MinCount int
	Index    dataset.DataSet
}

func (f MinCount) Keep(s itemset.ItemSet) bool {
	return f.Index.Count(s) >= f.MinCount
}

// MinAbsSup keeps an itemset when its count exceeds the count expected by
// chance of its least frequent item co-occurring with the rest.
type MinAbsSup struct {
	Index dataset.DataSet
}

func (f MinAbsSup) Keep(s itemset.ItemSet) bool {
	items := s.Items()
	if len(items) == 0 {
		return false
	}
	a, lowest := items[0], f.Index.CountItem(items[0])
	for _, it := range items[1:] {
		if c := f.Index.CountItem(it); c < lowest {
			a, lowest = it, c
		}
	}
	b := s.Without(a)
	limit := MinAbsSupValue(lowest, f.Index.Count(b), f.Index.NumTransactions(), DefaultMinAbsSupE)
	return f.Index.Count(s) > limit
}

// MinAbsSupValue returns the smallest co-occurrence count AB of two item
// sets with counts a and b in n transactions whose cumulative
// hypergeometric probability exceeds e, or min(a, b) when none does.
func MinAbsSupValue(a, b, n int, e float64) int {
	limit := min(a, b)
	ab := max(0, a+b-n)
	if ab >= limit {
		return limit
	}

	lf := logFactorials(n)
	var sum float64
	for ; ab < limit; ab++ {
		sum += math.Exp(lf[b] + lf[n-b] + lf[a] + lf[n-a] -
			lf[ab] - lf[b-ab] - lf[a-ab] - lf[n-a-b+ab] - lf[n])
		if sum > e {
			return ab
		}
	}
	return limit
}

// logFactorials returns ln(i!) for i in [0, n].
func logFactorials(n int) []float64 {
	lf := make([]float64, n+1)
	for i := 2; i <= n; i++ {
		lf[i] = lf[i-1] + math.Log(float64(i))
	}
	return lf
}
