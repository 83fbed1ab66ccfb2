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
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/itemset"
)

const DefaultCountCacheSize = 1 << 16

type cachedCount struct {
	key   string
	count int
}

// Counter counts the transactions containing an itemset or an item.
type Counter interface {
	Count(s itemset.ItemSet) int
	CountItem(it item.Item) int
}

// CountCache memoizes itemset counts of a Counter. It must be purged
// whenever the underlying counter changes. Count is safe for concurrent
// use when the data set is not mutated.
type CountCache struct {
	ds    Counter
	cache *lru.Cache[uint64, cachedCount]

	hits   atomic.Uint64
	misses atomic.Uint64
}

func NewCountCache(ds Counter, size int) *CountCache {
	if size <= 0 {
		size = DefaultCountCacheSize
	}
	cache, err := lru.New[uint64, cachedCount](size)
	if err != nil {
		panic(err)
	}
	return &CountCache{ds: ds, cache: cache}
}

func (c *CountCache) Count(s itemset.ItemSet) int {
	h := s.Hash()
	key := s.Key()
	if v, ok := c.cache.Get(h); ok && v.key == key {
		c.hits.Add(1)
		return v.count
	}
	c.misses.Add(1)
	n := c.ds.Count(s)
	c.cache.Add(h, cachedCount{key: key, count: n})
	return n
}

func (c *CountCache) CountItem(it item.Item) int {
	return c.ds.CountItem(it)
}

func (c *CountCache) Purge() {
	c.cache.Purge()
}

func (c *CountCache) Len() int {
	return c.cache.Len()
}

// Stats returns the number of cache hits and misses.
func (c *CountCache) Stats() (uint64, uint64) {
	return c.hits.Load(), c.misses.Load()
}
