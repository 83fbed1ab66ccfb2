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

package dataset

import (
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/itemset"
)

// LoadListener observes transactions entering and leaving a data set.
type LoadListener interface {
	// OnStartLoad is called before the first transaction. Implementations
	// may consume the reader as long as they rewind it before returning.
	OnStartLoad(r *Reader) error
	OnLoad(txn []item.Item)
	// OnUnload is only called by data sets that evict transactions.
	OnUnload(txn []item.Item)
	OnEndLoad()
}

// DataSet is the support counting oracle.
type DataSet interface {
	Count(s itemset.ItemSet) int
	CountItem(it item.Item) int
	NumTransactions() int
}

func Support(ds DataSet, s itemset.ItemSet) float64 {
	n := ds.NumTransactions()
	if n == 0 {
		return 0
	}
	return float64(ds.Count(s)) / float64(n)
}

func ItemSupport(ds DataSet, it item.Item) float64 {
	n := ds.NumTransactions()
	if n == 0 {
		return 0
	}
	return float64(ds.CountItem(it)) / float64(n)
}

// Confidence returns support(a ∪ c) / support(a), 0 when a never occurs.
func Confidence(ds DataSet, antecedent, consequent itemset.ItemSet) float64 {
	a := ds.Count(antecedent)
	if a == 0 {
		return 0
	}
	return float64(ds.Count(itemset.Union(antecedent, consequent))) / float64(a)
}

// Lift returns confidence(a -> c) / support(c), 0 when c never occurs.
func Lift(ds DataSet, antecedent, consequent itemset.ItemSet) float64 {
	sc := Support(ds, consequent)
	if sc == 0 {
		return 0
	}
	return Confidence(ds, antecedent, consequent) / sc
}
