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
	"bufio"
	"io"
	"os"
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/item"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const cutSet = " \t\r\n"

// Reader parses a CSV file as transactions, one per line. Duplicate items
// in a line are dropped, keeping the first occurrence.
type Reader struct {
	rs   io.ReadSeeker
	br   *bufio.Reader
	dict *item.Dictionary
	line int
	seen map[item.Item]struct{}
}

func NewReader(rs io.ReadSeeker, dict *item.Dictionary) *Reader {
	r := &Reader{rs: rs, dict: dict, seen: make(map[item.Item]struct{})}
	r.reset()
	return r
}

func (r *Reader) reset() {
	dec := unicode.BOMOverride(transform.Nop)
	r.br = bufio.NewReader(transform.NewReader(r.rs, dec))
	r.line = 0
}

// Dictionary returns the interner items are resolved through.
func (r *Reader) Dictionary() *item.Dictionary {
	return r.dict
}

// Line returns the number of lines consumed since the last rewind.
func (r *Reader) Line() int {
	return r.line
}

// Next returns the next transaction. ok is false at the end of input.
func (r *Reader) Next() ([]item.Item, bool, error) {
	text, err := r.br.ReadString('\n')
	if err != nil && err != io.EOF {
		return nil, false, errors.Wrapf(err, "read data set at line %d", r.line+1)
	}
	if err == io.EOF && text == "" {
		return nil, false, nil
	}
	r.line++

	var txn []item.Item
	clear(r.seen)
	tokens := 0
	for _, tok := range strings.Split(strings.TrimSuffix(text, "\n"), ",") {
		if tok == "" {
			continue
		}
		tokens++
		name := strings.Trim(tok, cutSet)
		if name == "" {
			return nil, false, errno.NewError(errno.EmptyItem, r.line)
		}
		if strings.Contains(name, " ") {
			return nil, false, errno.NewError(errno.ItemContainsSpace, name, r.line)
		}
		it := r.dict.Intern(name)
		if _, ok := r.seen[it]; ok {
			continue
		}
		r.seen[it] = struct{}{}
		txn = append(txn, it)
	}
	if tokens == 0 {
		return nil, false, errno.NewError(errno.EmptyTransaction, r.line)
	}
	return txn, true, nil
}

// Rewind restarts reading from the first line.
func (r *Reader) Rewind() error {
	if _, err := r.rs.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "rewind data set")
	}
	r.reset()
	return nil
}

// File is a Reader over a file on disk.
type File struct {
	*Reader
	f *os.File
}

func Open(name string, dict *item.Dictionary) (*File, error) {
	f, err := os.Open(path.Clean(name))
	if err != nil {
		return nil, errors.Wrapf(err, "open data set %s", name)
	}
	return &File{Reader: NewReader(f, dict), f: f}, nil
}

func (f *File) Name() string {
	return f.f.Name()
}

func (f *File) Close() error {
	return f.f.Close()
}
