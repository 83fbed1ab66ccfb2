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
	"context"
	"errors"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/itemset"
	"github.com/openGemini/harm/lib/logger"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const bloomFalsePositive = 0.01

// Index is the data set Apriori runs over.
type Index interface {
	dataset.DataSet
	Items() []item.Item
}

// Apriori enumerates itemsets level by level, joining the itemsets of the
// previous level and keeping the joins accepted by the filter.
type Apriori struct {
	filter  Filter
	workers int
	pool    *ants.Pool

	logger *logger.Logger
}

// New creates an Apriori miner whose candidate generation is split over
// workers goroutines. Release must be called once it is no longer used.
func New(filter Filter, workers int) (*Apriori, error) {
	workers = max(workers, 1)
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, errno.NewThirdParty(err, errno.ModuleApriori)
	}
	return &Apriori{
		filter:  filter,
		workers: workers,
		pool:    pool,
		logger:  logger.NewLogger(errno.ModuleApriori),
	}, nil
}

func (a *Apriori) Release() {
	a.pool.Release()
}

// InitialCandidates returns the single item sets accepted by filter.
func InitialCandidates(items []item.Item, filter Filter) []itemset.ItemSet {
	var out []itemset.ItemSet
	for _, it := range items {
		s := itemset.New(it)
		if filter.Keep(s) {
			out = append(out, s)
		}
	}
	itemset.Sort(out)
	return out
}

// Run returns every itemset accepted by the filter, smallest first.
func (a *Apriori) Run(ctx context.Context, index Index) ([]itemset.ItemSet, error) {
	start := time.Now()
	candidates := InitialCandidates(index.Items(), a.filter)
	result := append([]itemset.ItemSet(nil), candidates...)
	a.logger.Info("initial candidates generated", zap.Int("candidates", len(candidates)))

	for k := 2; len(candidates) > 0; k++ {
		levelStart := time.Now()
		next, err := a.GenerateCandidates(ctx, candidates, k)
		if err != nil {
			return nil, err
		}
		result = append(result, next...)
		candidates = next
		a.logger.Info("itemsets generated",
			zap.Int("size", k),
			zap.Int("itemsets", len(next)),
			zap.Duration("duration", time.Since(levelStart)))
	}

	a.logger.Info("apriori finished",
		zap.Int("itemsets", len(result)),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// GenerateCandidates joins the itemsets of size k-1 in prev into itemsets of
// size k. A join is kept when every subset of size k-1 is in prev and the
// filter accepts it.
func (a *Apriori) GenerateCandidates(ctx context.Context, prev []itemset.ItemSet, k int) ([]itemset.ItemSet, error) {
	lvl := newLevel(prev)
	parts := make([][]itemset.ItemSet, a.workers)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < a.workers; w++ {
		w := w
		g.Go(func() error {
			done := make(chan error, 1)
			err := a.pool.Submit(func() {
				var err error
				parts[w], err = a.join(gctx, lvl, k, w)
				done <- err
			})
			if errors.Is(err, ants.ErrPoolClosed) {
				return errno.NewError(errno.AprioriPoolClosed)
			} else if err != nil {
				return errno.NewThirdParty(err, errno.ModuleApriori)
			}
			return <-done
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []itemset.ItemSet
	for _, part := range parts {
		for _, s := range part {
			key := s.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s)
		}
	}
	itemset.Sort(out)
	return out, nil
}

// join handles every worker-th itemset of the level as the left side.
func (a *Apriori) join(ctx context.Context, lvl *level, k, worker int) ([]itemset.ItemSet, error) {
	var out []itemset.ItemSet
	seen := make(map[string]struct{})
	for i := worker; i < len(lvl.sets); i += a.workers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		x := lvl.sets[i]
		for _, y := range lvl.sets[i+1:] {
			if itemset.IntersectionSize(x, y) != k-2 {
				continue
			}
			s := itemset.Union(x, y)
			key := s.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if lvl.containsAllSubsets(s) && a.filter.Keep(s) {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

// level is the set of itemsets of one size. Membership is pre-checked with
// a bloom filter.
type level struct {
	sets  []itemset.ItemSet
	keys  map[string]struct{}
	bloom *bloom.BloomFilter
}

func newLevel(sets []itemset.ItemSet) *level {
	l := &level{
		sets:  sets,
		keys:  make(map[string]struct{}, len(sets)),
		bloom: bloom.NewWithEstimates(uint(max(len(sets), 1)), bloomFalsePositive),
	}
	for _, s := range sets {
		key := s.Key()
		l.keys[key] = struct{}{}
		l.bloom.AddString(key)
	}
	return l
}

func (l *level) contains(s itemset.ItemSet) bool {
	key := s.Key()
	if !l.bloom.TestString(key) {
		return false
	}
	_, ok := l.keys[key]
	return ok
}

// ContainsAllSubsets reports whether every subset of s one item smaller
// is in sets.
func ContainsAllSubsets(sets []itemset.ItemSet, s itemset.ItemSet) bool {
	return newLevel(sets).containsAllSubsets(s)
}

func (l *level) containsAllSubsets(s itemset.ItemSet) bool {
	for _, it := range s.Items() {
		if !l.contains(s.Without(it)) {
			return false
		}
	}
	return true
}
