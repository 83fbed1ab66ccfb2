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
	"context"
	"time"

	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/itemset"
	"github.com/openGemini/harm/lib/logger"
	"go.uber.org/zap"
)

// InvertedIndex is a static data set holding every transaction of the reader.
type InvertedIndex struct {
	reader   *Reader
	listener LoadListener
	index    *TidIndex
	cache    *CountCache
	numTxns  int
	loaded   bool
	logger   *logger.Logger
}

func NewInvertedIndex(r *Reader) *InvertedIndex {
	x := &InvertedIndex{
		reader: r,
		index:  NewTidIndex(),
		logger: logger.NewLogger(errno.ModuleDataSet),
	}
	x.cache = NewCountCache(x.index, DefaultCountCacheSize)
	return x
}

func (x *InvertedIndex) SetLoadListener(l LoadListener) {
	x.listener = l
}

// Load reads every transaction, notifying the listener of each one.
func (x *InvertedIndex) Load(ctx context.Context) error {
	start := time.Now()
	x.index.Reset()
	x.cache.Purge()
	x.numTxns = 0
	x.loaded = false

	if x.listener != nil {
		if err := x.listener.OnStartLoad(x.reader); err != nil {
			return err
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		txn, ok, err := x.reader.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		x.numTxns++
		x.index.Set(uint32(x.numTxns), txn)
		if x.listener != nil {
			x.listener.OnLoad(txn)
		}
	}

	x.loaded = true
	x.cache.Purge()
	if x.listener != nil {
		x.listener.OnEndLoad()
	}

	x.logger.Info("data set loaded",
		zap.Int("transactions", x.numTxns),
		zap.Int("items", len(x.index.Items())),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Count serves from the cache only once the data set is fully loaded.
func (x *InvertedIndex) Count(s itemset.ItemSet) int {
	if !x.loaded {
		return x.index.Count(s)
	}
	return x.cache.Count(s)
}

func (x *InvertedIndex) CountItem(it item.Item) int {
	return x.index.CountItem(it)
}

func (x *InvertedIndex) NumTransactions() int {
	return x.numTxns
}

func (x *InvertedIndex) Items() []item.Item {
	return x.index.Items()
}

func (x *InvertedIndex) IsLoaded() bool {
	return x.loaded
}

func (x *InvertedIndex) Dictionary() *item.Dictionary {
	return x.reader.Dictionary()
}
