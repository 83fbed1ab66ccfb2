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

import (
	"strings"
	"sync"
)

// Item is a dense handle for an interned item name. Handles start at 1;
// Null (0) is reserved for the tree root.
type Item uint32

const Null Item = 0

type CompareMode uint8

const (
	// InsertionOrder orders items by handle, i.e. by first appearance.
	InsertionOrder CompareMode = iota
	// Lexicographic orders items by name.
	Lexicographic
)

func (m CompareMode) String() string {
	if m == Lexicographic {
		return "lexicographic"
	}
	return "insertion"
}

const trimSet = " \t\r\n"

// Dictionary interns item names. Each mining run owns one dictionary;
// creating a new one resets the handle space.
type Dictionary struct {
	mu    sync.RWMutex
	names []string
	ids   map[string]Item
	mode  CompareMode
}

func NewDictionary() *Dictionary {
	return &Dictionary{
		names: []string{"null"},
		ids:   make(map[string]Item),
	}
}

// Intern returns the handle of name, allocating the next one on first use.
// Surrounding white space is not part of the name.
func (d *Dictionary) Intern(name string) Item {
	name = strings.Trim(name, trimSet)

	d.mu.RLock()
	id, ok := d.ids[name]
	d.mu.RUnlock()
	if ok {
		return id
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if id, ok = d.ids[name]; ok {
		return id
	}
	id = Item(len(d.names))
	d.names = append(d.names, name)
	d.ids[name] = id
	return id
}

func (d *Dictionary) Lookup(name string) (Item, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.ids[strings.Trim(name, trimSet)]
	return id, ok
}

func (d *Dictionary) Name(it Item) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if int(it) >= len(d.names) {
		return ""
	}
	return d.names[it]
}

// Len returns the number of interned items, excluding Null.
func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names) - 1
}

func (d *Dictionary) SetCompareMode(mode CompareMode) {
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
}

func (d *Dictionary) CompareMode() CompareMode {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.mode
}

// Less orders two items under the current compare mode.
func (d *Dictionary) Less(a, b Item) bool {
	if d.CompareMode() == InsertionOrder {
		return a < b
	}
	return d.Name(a) < d.Name(b)
}

// Items interns every name, in order.
func (d *Dictionary) Items(names ...string) []Item {
	items := make([]Item, len(names))
	for i, n := range names {
		items[i] = d.Intern(n)
	}
	return items
}

func (d *Dictionary) Names(items []Item) []string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = d.Name(it)
	}
	return names
}
