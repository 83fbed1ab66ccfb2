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

package item

import "sort"

// Comparator orders items for path canonicalization.
type Comparator interface {
	Less(a, b Item) bool
}

type ComparatorFunc func(a, b Item) bool

func (f ComparatorFunc) Less(a, b Item) bool {
	return f(a, b)
}

// ByID orders items by handle, which is their order of first appearance.
var ByID Comparator = ComparatorFunc(func(a, b Item) bool {
	return a < b
})

type mapCmp[T Number] struct {
	m *Map[T]
}

// MapCmp orders items by descending value in m. Items missing from m sort
// after every present item; equal values and missing pairs fall back to
// ascending handle.
func MapCmp[T Number](m *Map[T]) Comparator {
	return mapCmp[T]{m: m}
}

func (c mapCmp[T]) Less(a, b Item) bool {
	va, okA := c.m.Lookup(a)
	vb, okB := c.m.Lookup(b)
	if okA != okB {
		return okA
	}
	if !okA || va == vb {
		return a < b
	}
	return va > vb
}

// Sort sorts items in place with cmp. The sort is stable.
func Sort(items []Item, cmp Comparator) {
	sort.SliceStable(items, func(i, j int) bool {
		return cmp.Less(items[i], items[j])
	})
}

// IsSorted reports whether items are ordered under cmp.
func IsSorted(items []Item, cmp Comparator) bool {
	for i := 1; i < len(items); i++ {
		if cmp.Less(items[i], items[i-1]) {
			return false
		}
	}
	return true
}

// Equal reports whether a and b hold the same items in the same order.
func Equal(a, b []Item) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
