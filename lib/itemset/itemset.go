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

package itemset

import (
	"encoding/binary"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/openGemini/harm/lib/item"
)

// ItemSet is an immutable set of items kept in ascending handle order.
type ItemSet struct {
	items []item.Item
}

func New(items ...item.Item) ItemSet {
	s := append([]item.Item(nil), items...)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	n := 0
	for i, it := range s {
		if i > 0 && it == s[n-1] {
			continue
		}
		s[n] = it
		n++
	}
	return ItemSet{items: s[:n]}
}

// FromNames interns names through dict.
func FromNames(dict *item.Dictionary, names ...string) ItemSet {
	return New(dict.Items(names...)...)
}

func (s ItemSet) Len() int {
	return len(s.items)
}

func (s ItemSet) IsEmpty() bool {
	return len(s.items) == 0
}

// Items returns the items in ascending handle order. The slice must not be modified.
func (s ItemSet) Items() []item.Item {
	return s.items
}

func (s ItemSet) Contains(it item.Item) bool {
	i := sort.Search(len(s.items), func(i int) bool { return s.items[i] >= it })
	return i < len(s.items) && s.items[i] == it
}

func (s ItemSet) With(it item.Item) ItemSet {
	if s.Contains(it) {
		return s
	}
	return New(append(append([]item.Item(nil), s.items...), it)...)
}

func (s ItemSet) Without(it item.Item) ItemSet {
	out := make([]item.Item, 0, len(s.items))
	for _, x := range s.items {
		if x != it {
			out = append(out, x)
		}
	}
	return ItemSet{items: out}
}

func Union(a, b ItemSet) ItemSet {
	out := make([]item.Item, 0, len(a.items)+len(b.items))
	i, j := 0, 0
	for i < len(a.items) && j < len(b.items) {
		switch {
		case a.items[i] < b.items[j]:
			out = append(out, a.items[i])
			i++
		case a.items[i] > b.items[j]:
			out = append(out, b.items[j])
			j++
		default:
			out = append(out, a.items[i])
			i++
			j++
		}
	}
	out = append(out, a.items[i:]...)
	out = append(out, b.items[j:]...)
	return ItemSet{items: out}
}

func IntersectionSize(a, b ItemSet) int {
	n, i, j := 0, 0, 0
	for i < len(a.items) && j < len(b.items) {
		switch {
		case a.items[i] < b.items[j]:
			i++
		case a.items[i] > b.items[j]:
			j++
		default:
			n++
			i++
			j++
		}
	}
	return n
}

func (s ItemSet) Equal(o ItemSet) bool {
	return item.Equal(s.items, o.items)
}

// Less orders by size, then element-wise by handle.
func (s ItemSet) Less(o ItemSet) bool {
	if len(s.items) != len(o.items) {
		return len(s.items) < len(o.items)
	}
	for i := range s.items {
		if s.items[i] != o.items[i] {
			return s.items[i] < o.items[i]
		}
	}
	return false
}

func (s ItemSet) bytes() []byte {
	buf := make([]byte, 4*len(s.items))
	for i, it := range s.items {
		binary.LittleEndian.PutUint32(buf[4*i:], uint32(it))
	}
	return buf
}

// Hash returns the xxhash of the handle sequence.
func (s ItemSet) Hash() uint64 {
	return xxhash.Sum64(s.bytes())
}

// Key returns a string usable as a map key.
func (s ItemSet) Key() string {
	return string(s.bytes())
}

// Format renders the item names sorted lexicographically, space separated.
func (s ItemSet) Format(dict *item.Dictionary) string {
	names := dict.Names(s.items)
	sort.Strings(names)
	return strings.Join(names, " ")
}

// Sort orders sets by Less.
func Sort(sets []ItemSet) {
	sort.Slice(sets, func(i, j int) bool { return sets[i].Less(sets[j]) })
}
