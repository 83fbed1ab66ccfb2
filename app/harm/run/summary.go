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

package run

import (
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/openGemini/harm/lib/config"
)

// Summary aggregates the mining runs of one invocation.
type Summary struct {
	RunID        string
	Mode         config.Mode
	Transactions int
	Runs         int
	ItemSets     int64
	Rules        int64
	Sorts        int
	Drifts       int
	Duration     time.Duration
}

// Print renders the summary as a two column table.
func (s *Summary) Print(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	rows := [][]string{
		{"run id", s.RunID},
		{"mode", string(s.Mode)},
		{"transactions", strconv.Itoa(s.Transactions)},
		{"mining runs", strconv.Itoa(s.Runs)},
		{"itemsets", strconv.FormatInt(s.ItemSets, 10)},
		{"rules", strconv.FormatInt(s.Rules, 10)},
		{"tree sorts", strconv.Itoa(s.Sorts)},
		{"drifts", strconv.Itoa(s.Drifts)},
		{"duration", s.Duration.Round(time.Millisecond).String()},
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}
