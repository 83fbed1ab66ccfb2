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

package pattern

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/openGemini/harm/lib/dataset"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/itemset"
	"github.com/pkg/errors"
)

// Sink receives every itemset discovered by a miner.
type Sink interface {
	Write(pattern []item.Item)
}

// FormatFloat renders v with six significant digits.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

// OutputStream writes "<items>,<support>" lines. A stream without a writer
// only counts the patterns it receives.
type OutputStream struct {
	w           *bufio.Writer
	ds          dataset.DataSet
	dict        *item.Dictionary
	numPatterns int64
	err         error
}

func NewOutputStream(w io.Writer, ds dataset.DataSet, dict *item.Dictionary) *OutputStream {
	return &OutputStream{w: bufio.NewWriter(w), ds: ds, dict: dict}
}

// NewCountingStream returns a stream that discards patterns.
func NewCountingStream() *OutputStream {
	return &OutputStream{}
}

func (s *OutputStream) Write(pattern []item.Item) {
	if len(pattern) == 0 {
		return
	}
	s.WriteItemSet(itemset.New(pattern...))
}

func (s *OutputStream) WriteItemSet(set itemset.ItemSet) {
	if set.IsEmpty() {
		return
	}
	s.numPatterns++
	if s.w == nil || s.err != nil {
		return
	}
	sup := 0.0
	if s.ds != nil {
		sup = dataset.Support(s.ds, set)
	}
	_, s.err = s.w.WriteString(set.Format(s.dict) + "," + FormatFloat(sup) + "\n")
}

func (s *OutputStream) NumPatterns() int64 {
	return s.numPatterns
}

// Close flushes buffered output and returns the first write error.
func (s *OutputStream) Close() error {
	if s.w == nil {
		return nil
	}
	if s.err != nil {
		return s.err
	}
	return s.w.Flush()
}

// Collector keeps every pattern in memory in arrival order.
type Collector struct {
	Sets []itemset.ItemSet
}

func (c *Collector) Write(pattern []item.Item) {
	if len(pattern) == 0 {
		return
	}
	c.Sets = append(c.Sets, itemset.New(pattern...))
}

// Tee forwards every pattern to all sinks.
type Tee []Sink

func (t Tee) Write(pattern []item.Item) {
	for _, s := range t {
		s.Write(pattern)
	}
}

// ItemSetSource yields itemsets until ok is false.
type ItemSetSource interface {
	Read() (set itemset.ItemSet, ok bool, err error)
}

// InputStream parses the output of an OutputStream.
type InputStream struct {
	r    *bufio.Reader
	dict *item.Dictionary
	line int
}

func NewInputStream(r io.Reader, dict *item.Dictionary) *InputStream {
	return &InputStream{r: bufio.NewReader(r), dict: dict}
}

func (s *InputStream) Read() (itemset.ItemSet, bool, error) {
	text, err := s.r.ReadString('\n')
	if err != nil && err != io.EOF {
		return itemset.ItemSet{}, false, errors.Wrapf(err, "read pattern line %d", s.line+1)
	}
	if err == io.EOF && text == "" {
		return itemset.ItemSet{}, false, nil
	}
	s.line++
	text = strings.TrimRight(text, "\r\n")
	end := strings.LastIndexByte(text, ',')
	if end < 0 {
		return itemset.ItemSet{}, false, errors.WithStack(errno.NewError(errno.MalformedPattern, s.line, text))
	}
	names := strings.Fields(text[:end])
	if len(names) == 0 {
		return itemset.ItemSet{}, false, errors.WithStack(errno.NewError(errno.MalformedPattern, s.line, text))
	}
	return itemset.New(s.dict.Items(names...)...), true, nil
}

// ReadAll drains a source.
func ReadAll(src ItemSetSource) ([]itemset.ItemSet, error) {
	var sets []itemset.ItemSet
	for {
		set, ok, err := src.Read()
		if err != nil {
			return sets, err
		}
		if !ok {
			return sets, nil
		}
		sets = append(sets, set)
	}
}

// SliceSource yields itemsets from memory.
type SliceSource struct {
	sets []itemset.ItemSet
	pos  int
}

func NewSliceSource(sets []itemset.ItemSet) *SliceSource {
	return &SliceSource{sets: sets}
}

func (s *SliceSource) Read() (itemset.ItemSet, bool, error) {
	if s.pos >= len(s.sets) {
		return itemset.ItemSet{}, false, nil
	}
	s.pos++
	return s.sets[s.pos-1], true, nil
}
