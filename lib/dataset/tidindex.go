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
	"sort"

	"github.com/RoaringBitmap/roaring"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/itemset"
)

// TidIndex maps every item to the bitmap of transaction ids containing it.
type TidIndex struct {
	lists []*roaring.Bitmap
}

func NewTidIndex() *TidIndex {
	return &TidIndex{}
}

func (x *TidIndex) list(it item.Item) *roaring.Bitmap {
	if int(it) >= len(x.lists) {
		return nil
	}
	return x.lists[it]
}

func (x *TidIndex) Set(tid uint32, txn []item.Item) {
	for _, it := range txn {
		if int(it) >= len(x.lists) {
			grown := make([]*roaring.Bitmap, int(it)+1, 2*(int(it)+1))
			copy(grown, x.lists)
			x.lists = grown
		}
		if x.lists[it] == nil {
			x.lists[it] = roaring.NewBitmap()
		}
		x.lists[it].Add(tid)
	}
}

func (x *TidIndex) Clear(tid uint32, txn []item.Item) {
	for _, it := range txn {
		if b := x.list(it); b != nil {
			b.Remove(tid)
		}
	}
}

// Reset drops every tid list.
func (x *TidIndex) Reset() {
	x.lists = x.lists[:0]
}

func (x *TidIndex) CountItem(it item.Item) int {
	b := x.list(it)
	if b == nil {
		return 0
	}
	return int(b.GetCardinality())
}

// Count returns the number of transactions containing every item of s.
func (x *TidIndex) Count(s itemset.ItemSet) int {
	if s.IsEmpty() {
		return 0
	}
	lists := make([]*roaring.Bitmap, 0, s.Len())
	for _, it := range s.Items() {
		b := x.list(it)
		if b == nil || b.IsEmpty() {
			return 0
		}
		lists = append(lists, b)
	}
	switch len(lists) {
	case 1:
		return int(lists[0].GetCardinality())
	case 2:
		return int(lists[0].AndCardinality(lists[1]))
	}
	sort.Slice(lists, func(i, j int) bool {
		return lists[i].GetCardinality() < lists[j].GetCardinality()
	})
	return int(roaring.FastAnd(lists...).GetCardinality())
}

// Items returns the items with a non-empty tid list in ascending handle order.
func (x *TidIndex) Items() []item.Item {
	var items []item.Item
	for i, b := range x.lists {
		if b != nil && !b.IsEmpty() {
			items = append(items, item.Item(i))
		}
	}
	return items
}
