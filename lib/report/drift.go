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

package report

import (
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"github.com/openGemini/harm/lib/metrics"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Record is one line of a drift report.
type Record struct {
	Detector string `json:"detector"`
	Input    string `json:"input,omitempty"`
	Block    int    `json:"block"`
	// Position is the transaction number the record refers to.
	Position          int     `json:"position"`
	Similarity        float64 `json:"similarity"`
	ElapsedSeconds    float64 `json:"elapsed_seconds"`
	Drift             bool    `json:"drift"`
	Threshold         float64 `json:"threshold,omitempty"`
	StopDepth         int     `json:"stop_depth,omitempty"`
	CmpDepthThreshold int     `json:"cmp_depth_threshold,omitempty"`
}

// DriftReporter writes drift records as JSON lines.
type DriftReporter struct {
	mu     sync.Mutex
	enc    *jsoniter.Encoder
	drifts int
	lines  int
}

// NewDriftReporter writes to w; a nil w discards the records.
func NewDriftReporter(w io.Writer) *DriftReporter {
	if w == nil {
		w = io.Discard
	}
	return &DriftReporter{enc: json.NewEncoder(w)}
}

func (r *DriftReporter) Report(rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.Drift {
		r.drifts++
		metrics.Drifts.WithLabelValues(rec.Detector).Inc()
	}
	r.lines++
	return r.enc.Encode(rec)
}

func (r *DriftReporter) NumDrifts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.drifts
}

func (r *DriftReporter) NumRecords() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lines
}
