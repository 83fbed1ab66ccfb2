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

// WindowIndex is a data set over a sliding window of the most recent
// transactions. When the window is full the oldest transaction is unloaded
// before the next one is appended.
type WindowIndex struct {
	reader   *Reader
	listener LoadListener
	size     int
	window   [][]item.Item
	front    uint32
	next     uint32
	index    *TidIndex
	cache    *CountCache
	loaded   bool
	logger   *logger.Logger
}

func NewWindowIndex(r *Reader, size int) (*WindowIndex, error) {
	if size <= 0 {
		return nil, errno.NewError(errno.InvalidBlockSize, size)
	}
	x := &WindowIndex{
		reader: r,
		size:   size,
		window: make([][]item.Item, 0, size),
		index:  NewTidIndex(),
		logger: logger.NewLogger(errno.ModuleDataSet),
	}
	x.cache = NewCountCache(x.index, DefaultCountCacheSize)
	return x, nil
}

func (x *WindowIndex) SetLoadListener(l LoadListener) {
	x.listener = l
}

func (x *WindowIndex) Load(ctx context.Context) error {
	start := time.Now()
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
		x.push(txn)
	}

	x.loaded = true
	if x.listener != nil {
		x.listener.OnEndLoad()
	}
	x.logger.Info("data stream loaded",
		zap.Uint32("transactions", x.next),
		zap.Int("window", x.size),
		zap.Duration("duration", time.Since(start)))
	return nil
}

func (x *WindowIndex) push(txn []item.Item) {
	if len(x.window) == x.size {
		old := x.window[0]
		if x.listener != nil {
			x.listener.OnUnload(old)
		}
		x.index.Clear(x.front, old)
		x.window[0] = nil
		x.window = x.window[1:]
		x.front++
	}
	x.window = append(x.window, txn)
	x.index.Set(x.next, txn)
	x.next++
	x.cache.Purge()
	if x.listener != nil {
		x.listener.OnLoad(txn)
	}
}

func (x *WindowIndex) Count(s itemset.ItemSet) int {
	return x.cache.Count(s)
}

func (x *WindowIndex) CountItem(it item.Item) int {
	return x.index.CountItem(it)
}

// NumTransactions returns the number of transactions currently in the window.
func (x *WindowIndex) NumTransactions() int {
	return len(x.window)
}

func (x *WindowIndex) Items() []item.Item {
	return x.index.Items()
}

func (x *WindowIndex) IsLoaded() bool {
	return x.loaded
}

func (x *WindowIndex) Dictionary() *item.Dictionary {
	return x.reader.Dictionary()
}
