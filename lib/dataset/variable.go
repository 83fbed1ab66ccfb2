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
	"github.com/openGemini/harm/lib/item"
	"github.com/openGemini/harm/lib/itemset"
)

// Transaction is a transaction tagged with its position in the stream.
type Transaction struct {
	ID    uint32
	Items []item.Item
}

// VariableWindow is a data set whose contents are driven by the caller:
// transactions are appended at the back and popped from the front.
type VariableWindow struct {
	txns  []Transaction
	index *TidIndex
}

func NewVariableWindow() *VariableWindow {
	return &VariableWindow{index: NewTidIndex()}
}

func (w *VariableWindow) Append(txn Transaction) {
	w.txns = append(w.txns, txn)
	w.index.Set(txn.ID, txn.Items)
}

func (w *VariableWindow) Front() Transaction {
	return w.txns[0]
}

func (w *VariableWindow) Back() Transaction {
	return w.txns[len(w.txns)-1]
}

func (w *VariableWindow) Pop() {
	txn := w.txns[0]
	w.index.Clear(txn.ID, txn.Items)
	w.txns[0] = Transaction{}
	w.txns = w.txns[1:]
}

func (w *VariableWindow) Len() int {
	return len(w.txns)
}

func (w *VariableWindow) Count(s itemset.ItemSet) int {
	return w.index.Count(s)
}

func (w *VariableWindow) CountItem(it item.Item) int {
	return w.index.CountItem(it)
}

func (w *VariableWindow) NumTransactions() int {
	return len(w.txns)
}
