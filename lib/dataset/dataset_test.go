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

package dataset_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/itemset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const test1 = `a,b,c,d,e,f
g,h,i,j,k,l
z,x
z,x
z,x,y
z,x,y,i
`

const test2 = "aa, bb, cc , dd\naa, gg,\naa, bb"

type recorder struct {
	started  bool
	ended    bool
	loaded   [][]string
	unloaded [][]string
	dict     *item.Dictionary
}

func (r *recorder) OnStartLoad(*dataset.Reader) error {
	r.started = true
	return nil
}

func (r *recorder) OnLoad(txn []item.Item) {
	r.loaded = append(r.loaded, r.dict.Names(txn))
}

func (r *recorder) OnUnload(txn []item.Item) {
	r.unloaded = append(r.unloaded, r.dict.Names(txn))
}

func (r *recorder) OnEndLoad() {
	r.ended = true
}

func loadInverted(t *testing.T, data string) (*dataset.InvertedIndex, *item.Dictionary) {
	dict := item.NewDictionary()
	x := dataset.NewInvertedIndex(dataset.NewReader(strings.NewReader(data), dict))
	require.NoError(t, x.Load(context.Background()))
	return x, dict
}

func TestReader(t *testing.T) {
	dict := item.NewDictionary()
	r := dataset.NewReader(strings.NewReader("\xef\xbb\xbfa, b,a ,c\n\tb\r\n"), dict)

	txn, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, dict.Names(txn))

	txn, ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, dict.Names(txn))

	_, ok, err = r.Next()
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, r.Line())

	require.NoError(t, r.Rewind())
	txn, ok, err = r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "c"}, dict.Names(txn))
	assert.Equal(t, 1, r.Line())
}

func TestReaderErrors(t *testing.T) {
	cases := []struct {
		data  string
		errno errno.Errno
	}{
		{"a\n\nb\n", errno.EmptyTransaction},
		{"a\n,,\n", errno.EmptyTransaction},
		{"a, ,b\n", errno.EmptyItem},
		{"a,b c\n", errno.ItemContainsSpace},
	}
	for _, tt := range cases {
		r := dataset.NewReader(strings.NewReader(tt.data), item.NewDictionary())
		var err error
		for {
			var ok bool
			_, ok, err = r.Next()
			if err != nil || !ok {
				break
			}
		}
		assert.True(t, errno.Equal(err, tt.errno), "%q: %v", tt.data, err)
	}
}

func TestOpen(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test2.data")
	require.NoError(t, os.WriteFile(file, []byte(test2), 0600))

	f, err := dataset.Open(file, item.NewDictionary())
	require.NoError(t, err)
	defer f.Close()
	x := dataset.NewInvertedIndex(f.Reader)
	require.NoError(t, x.Load(context.Background()))
	assert.Equal(t, 3, x.NumTransactions())

	_, err = dataset.Open(filepath.Join(t.TempDir(), "missing"), item.NewDictionary())
	assert.Error(t, err)
}

func TestInvertedIndex(t *testing.T) {
	x, dict := loadInverted(t, test1)
	assert.True(t, x.IsLoaded())
	assert.Equal(t, 6, x.NumTransactions())

	counts := map[string]int{
		"a": 1, "b": 1, "c": 1, "d": 1, "e": 1, "f": 1, "g": 1, "h": 1,
		"i": 2, "j": 1, "k": 1, "l": 1, "z": 4, "x": 4, "y": 2,
	}
	for name, n := range counts {
		it, ok := dict.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, n, x.CountItem(it), name)
	}
	assert.Equal(t, 4, x.Count(itemset.FromNames(dict, "z", "x")))
	assert.Equal(t, 2, x.Count(itemset.FromNames(dict, "z", "x", "y")))
	assert.Equal(t, 1, x.Count(itemset.FromNames(dict, "z", "x", "y", "i")))
	assert.Equal(t, 0, x.Count(itemset.New()))
	assert.Len(t, x.Items(), 15)

	// cached
	assert.Equal(t, 4, x.Count(itemset.FromNames(dict, "x", "z")))

	assert.InDelta(t, 4.0/6.0, dataset.Support(x, itemset.FromNames(dict, "x", "z")), 1e-9)
	assert.InDelta(t, 0.5, dataset.Confidence(x, itemset.FromNames(dict, "x"), itemset.FromNames(dict, "y")), 1e-9)
	assert.InDelta(t, 1.5, dataset.Lift(x, itemset.FromNames(dict, "x"), itemset.FromNames(dict, "y")), 1e-9)
}

func TestDirtyData(t *testing.T) {
	x, dict := loadInverted(t, test2)
	assert.Equal(t, 3, x.NumTransactions())
	assert.Equal(t, 3, x.Count(itemset.FromNames(dict, "aa")))
	assert.Equal(t, 2, x.Count(itemset.FromNames(dict, "aa", "bb")))
	assert.Equal(t, 1, x.Count(itemset.FromNames(dict, "gg")))
	assert.Equal(t, 0, x.Count(itemset.FromNames(dict, "bollocks", "nothing")))
	assert.Equal(t, 0, x.Count(itemset.FromNames(dict, "aa", "nothing")))
}

func TestInvertedIndexListener(t *testing.T) {
	dict := item.NewDictionary()
	x := dataset.NewInvertedIndex(dataset.NewReader(strings.NewReader("a,b\nc\n"), dict))
	rec := &recorder{dict: dict}
	x.SetLoadListener(rec)
	require.NoError(t, x.Load(context.Background()))
	assert.True(t, rec.started)
	assert.True(t, rec.ended)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, rec.loaded)
	assert.Empty(t, rec.unloaded)
}

func TestInvertedIndexCancel(t *testing.T) {
	dict := item.NewDictionary()
	x := dataset.NewInvertedIndex(dataset.NewReader(strings.NewReader(test1), dict))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, x.Load(ctx), context.Canceled)
}

func TestWindowIndex(t *testing.T) {
	dict := item.NewDictionary()
	x, err := dataset.NewWindowIndex(dataset.NewReader(strings.NewReader(test1), dict), 3)
	require.NoError(t, err)
	rec := &recorder{dict: dict}
	x.SetLoadListener(rec)
	require.NoError(t, x.Load(context.Background()))

	assert.Equal(t, 3, x.NumTransactions())
	assert.Equal(t, [][]string{{"a", "b", "c", "d", "e", "f"}, {"g", "h", "i", "j", "k", "l"}, {"z", "x"}}, rec.unloaded)
	assert.Len(t, rec.loaded, 6)

	a, _ := dict.Lookup("a")
	assert.Equal(t, 0, x.CountItem(a))
	assert.Equal(t, 3, x.Count(itemset.FromNames(dict, "z", "x")))
	assert.Equal(t, 1, x.Count(itemset.FromNames(dict, "i")))
	assert.Equal(t, 2, x.Count(itemset.FromNames(dict, "y", "x")))

	_, err = dataset.NewWindowIndex(dataset.NewReader(strings.NewReader(test1), dict), 0)
	assert.True(t, errno.Equal(err, errno.InvalidBlockSize))
}

type countingWindow struct {
	*dataset.WindowIndex
	dict    *item.Dictionary
	observe []int
}

func (c *countingWindow) OnStartLoad(*dataset.Reader) error { return nil }
func (c *countingWindow) OnUnload([]item.Item)              {}
func (c *countingWindow) OnEndLoad()                        {}
func (c *countingWindow) OnLoad([]item.Item) {
	c.observe = append(c.observe, c.Count(itemset.FromNames(c.dict, "z")))
}

func TestWindowIndexCountsInsideListener(t *testing.T) {
	dict := item.NewDictionary()
	x, err := dataset.NewWindowIndex(dataset.NewReader(strings.NewReader(test1), dict), 2)
	require.NoError(t, err)
	c := &countingWindow{WindowIndex: x, dict: dict}
	x.SetLoadListener(c)
	require.NoError(t, x.Load(context.Background()))
	assert.Equal(t, []int{0, 0, 1, 2, 2, 2}, c.observe)
}

func TestVariableWindow(t *testing.T) {
	dict := item.NewDictionary()
	w := dataset.NewVariableWindow()
	rows := [][]string{{"a", "b"}, {"a"}, {"b", "c"}, {"a", "b", "c"}}
	for i, row := range rows {
		w.Append(dataset.Transaction{ID: uint32(i), Items: dict.Items(row...)})
	}
	ab := itemset.FromNames(dict, "a", "b")
	assert.Equal(t, 4, w.NumTransactions())
	assert.Equal(t, 2, w.Count(ab))
	assert.Equal(t, uint32(3), w.Back().ID)

	w.Pop()
	assert.Equal(t, uint32(1), w.Front().ID)
	assert.Equal(t, 1, w.Count(ab))
	a, _ := dict.Lookup("a")
	assert.Equal(t, 2, w.CountItem(a))
	assert.Equal(t, 3, w.Len())
}

func TestCountCache(t *testing.T) {
	dict := item.NewDictionary()
	w := dataset.NewVariableWindow()
	w.Append(dataset.Transaction{ID: 0, Items: dict.Items("a", "b")})
	c := dataset.NewCountCache(w, 4)

	ab := itemset.FromNames(dict, "a", "b")
	assert.Equal(t, 1, c.Count(ab))
	assert.Equal(t, 1, c.Count(ab))
	hits, misses := c.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)

	w.Append(dataset.Transaction{ID: 1, Items: dict.Items("a", "b")})
	assert.Equal(t, 1, c.Count(ab))
	c.Purge()
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 2, c.Count(ab))
}

func TestCountCacheOverTidIndex(t *testing.T) {
	dict := item.NewDictionary()
	x := dataset.NewTidIndex()
	x.Set(0, dict.Items("a", "b"))
	x.Set(1, dict.Items("a"))
	c := dataset.NewCountCache(x, 0)

	a, _ := dict.Lookup("a")
	assert.Equal(t, 2, c.CountItem(a))
	assert.Equal(t, 1, c.Count(itemset.FromNames(dict, "a", "b")))
	assert.Equal(t, 2, c.Count(itemset.FromNames(dict, "a")))
	assert.Equal(t, 2, c.Len())
}
