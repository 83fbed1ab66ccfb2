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

package util_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/influxdata/influxdb/toml"
	"github.com/openGemini/harm/lib/errno"
	"github.com/openGemini/harm/lib/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type closeObject struct {
	err error
}

func (o *closeObject) Close() error {
	return o.err
}

func TestMustClose(t *testing.T) {
	var o *closeObject
	util.MustClose(o)

	o = &closeObject{err: fmt.Errorf("some error")}
	util.MustClose(o)
	util.MustClose(nil)
}

func TestCorrector(t *testing.T) {
	c := util.NewCorrector(0, 0)
	threads, size, name, ratio := 0, toml.Size(0), "", -1.0
	c.Int(&threads, 4)
	c.TomlSize(&size, 1024)
	c.String(&name, "harm")
	c.Float64(&ratio, 0.5)
	assert.Equal(t, 4, threads)
	assert.Equal(t, toml.Size(1024), size)
	assert.Equal(t, "harm", name)
	assert.Equal(t, 0.5, ratio)

	threads = 2
	c.Int(&threads, 4)
	assert.Equal(t, 2, threads)
}

func TestIntLimit(t *testing.T) {
	assert.Equal(t, 8, util.IntLimit(8, 64, 0))
	assert.Equal(t, 64, util.IntLimit(8, 64, 66))
	assert.Equal(t, 32, util.IntLimit(8, 64, 32))
}

func TestEditDistance(t *testing.T) {
	split := func(s string) []string { return strings.Split(s, ",") }
	assert.Equal(t, 0, util.EditDistance(split("a,b,c"), split("a,b,c")))
	assert.Equal(t, 2, util.EditDistance(split("a,b,c,d"), split("a,b,d,e")))
	assert.Equal(t, 1, util.EditDistance(split("a,b,c,d"), split("a,b,d")))
	assert.Equal(t, 3, util.EditDistance([]int{}, []int{1, 2, 3}))
	assert.Equal(t, 2, util.EditDistance([]int{1, 2}, []int{2, 1}))
}

func TestHoeffding(t *testing.T) {
	assert.InDelta(t, 0.185846, util.HoeffdingBound(100, 0.001), 1e-6)
	assert.InDelta(t, 18.433914, util.TwoSampleHoeffdingBound(100, 100, 0.001), 1e-6)
	assert.InDelta(t, 23.145340, util.TwoSampleHoeffdingBound(100, 300, 0.001), 1e-6)
}

func TestBernoulliVariance(t *testing.T) {
	assert.InDelta(t, 0.25, util.BernoulliVariance(2, 4), 1e-12)
	assert.InDelta(t, 0.0, util.BernoulliVariance(4, 4), 1e-12)
	assert.InDelta(t, 0.1875, util.BernoulliVariance(1, 4), 1e-12)
	assert.Equal(t, 0.0, util.BernoulliVariance(0, 0))
}

func TestPolynomialKernel(t *testing.T) {
	k := util.PolynomialKernel{Gamma: 0.5, Coef: 1, Degree: 2}
	assert.InDelta(t, 49.0, k.Eval(3, 4), 1e-9)

	r := util.NewKernelRegression(k)
	r.Ridge = 1e-9
	xs := []float64{-2, -1, 0, 1, 2, 3}
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 1 + 2*x + 3*x*x
	}
	require.NoError(t, r.Fit(xs, ys))
	assert.InDelta(t, 1+2*5+3*25.0, r.Predict(5), 1e-3)
}

func TestKernelRegressionExtrapolates(t *testing.T) {
	r := util.NewKernelRegression(util.PolynomialKernel{Gamma: 0.01, Coef: 0, Degree: 2})
	var xs, ys []float64
	for x := 1000.0; x <= 5000; x += 1000 {
		xs = append(xs, x)
		ys = append(ys, 2*(0.01*x*x))
	}
	require.NoError(t, r.Fit(xs, ys))
	assert.InEpsilon(t, 2*0.01*20000*20000.0, r.Predict(20000), 1e-6)
}

func TestKernelRegressionSingular(t *testing.T) {
	r := util.NewKernelRegression(util.PolynomialKernel{Gamma: 0.01, Coef: 0, Degree: 2})
	r.Ridge = 0
	err := r.Fit([]float64{1, 2}, []float64{1, 1})
	assert.True(t, errno.Equal(err, errno.KernelSingular))
}
