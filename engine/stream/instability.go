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
	"math"

	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/util"
)

// TableInstabilityDelta is the confidence of the Hoeffding bound used by
// TableInstability.
const TableInstabilityDelta = 0.001

// TreeInstability is the mean, over the paths of the tree, of the edit
// distance between a path and the same path sorted by table, normalized by
// the path length.
func (d *Detector) TreeInstability(table *item.Map[uint32]) float64 {
	cmp := item.MapCmp(table)
	var sum float64
	paths := 0
	var sorted []item.Item

	it := d.tree.Paths()
	defer it.Close()
	for {
		path, _, ok := it.Next()
		if !ok {
			break
		}
		paths++
		sorted = append(sorted[:0], path...)
		item.Sort(sorted, cmp)
		if dist := util.EditDistance(path, sorted); dist > 0 {
			sum += float64(dist) / float64(len(path))
		}
	}
	if paths == 0 {
		return 0
	}
	return sum / float64(paths)
}

// TreeInstabilityBetween sorts every path of the tree by lhs and by rhs and
// returns the mean squared normalized edit distance between the two orders.
func (d *Detector) TreeInstabilityBetween(lhs, rhs *item.Map[uint32]) float64 {
	lcmp, rcmp := item.MapCmp(lhs), item.MapCmp(rhs)
	var sum float64
	paths := 0
	var lpath, rpath []item.Item

	it := d.tree.Paths()
	defer it.Close()
	for {
		path, _, ok := it.Next()
		if !ok {
			break
		}
		paths++
		lpath = append(lpath[:0], path...)
		item.Sort(lpath, lcmp)
		rpath = append(rpath[:0], path...)
		item.Sort(rpath, rcmp)
		if dist := util.EditDistance(lpath, rpath); dist > 0 {
			r := float64(dist) / float64(len(path))
			sum += r * r
		}
	}
	if paths == 0 {
		return 0
	}
	return sum / float64(paths)
}

// TableInstability is the fraction of items whose count in the tree differs
// from their count in table by more than a two sample Hoeffding bound.
func (d *Detector) TableInstability(table *item.Map[uint32], blockSize int) float64 {
	eps := util.TwoSampleHoeffdingBound(d.window.NumTransactions(), blockSize, TableInstabilityDelta)
	unstable, total := 0, 0
	d.tree.FrequencyTable().Range(func(it item.Item, count uint32) bool {
		total++
		if math.Abs(float64(count)-float64(table.Get(it))) > eps {
			unstable++
		}
		return true
	})
	if total == 0 {
		return 0
	}
	return float64(unstable) / float64(total)
}
