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

package util

import (
	"math"

	"github.com/openGemini/harm/lib/errno"
)

const DefaultRidge = 1e-3

// PolynomialKernel is k(a, b) = (Gamma*a*b + Coef)^Degree over scalars.
type PolynomialKernel struct {
	Gamma  float64
	Coef   float64
	Degree int
}

// features maps x into the explicit feature space of the kernel, so that
// k(a, b) equals the dot product of features(a) and features(b).
func (k PolynomialKernel) features(x float64, dst []float64) []float64 {
	dst = dst[:0]
	gx := math.Sqrt(k.Gamma) * x
	for i := 0; i <= k.Degree; i++ {
		c := binomial(k.Degree, i) * math.Pow(k.Coef, float64(k.Degree-i))
		dst = append(dst, math.Sqrt(c)*math.Pow(gx, float64(i)))
	}
	return dst
}

func (k PolynomialKernel) Eval(a, b float64) float64 {
	return math.Pow(k.Gamma*a*b+k.Coef, float64(k.Degree))
}

func binomial(n, k int) float64 {
	r := 1.0
	for i := 1; i <= k; i++ {
		r = r * float64(n-k+i) / float64(i)
	}
	return r
}

// KernelRegression is ridge regression in the feature space of a
// polynomial kernel.
type KernelRegression struct {
	Kernel PolynomialKernel
	Ridge  float64

	weights []float64
}

func NewKernelRegression(k PolynomialKernel) *KernelRegression {
	return &KernelRegression{Kernel: k, Ridge: DefaultRidge}
}

// Fit solves (XᵀX + ridge·I) w = Xᵀy.
func (r *KernelRegression) Fit(xs, ys []float64) error {
	d := r.Kernel.Degree + 1
	a := make([][]float64, d)
	for i := range a {
		a[i] = make([]float64, d+1)
		a[i][i] = r.Ridge
	}
	var phi []float64
	for n, x := range xs {
		phi = r.Kernel.features(x, phi)
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				a[i][j] += phi[i] * phi[j]
			}
			a[i][d] += phi[i] * ys[n]
		}
	}
	w, ok := solve(a)
	if !ok {
		return errno.NewError(errno.KernelSingular, len(xs))
	}
	r.weights = w
	return nil
}

func (r *KernelRegression) Predict(x float64) float64 {
	var y float64
	phi := r.Kernel.features(x, nil)
	for i, w := range r.weights {
		y += w * phi[i]
	}
	return y
}

// solve runs Gaussian elimination with partial pivoting on an augmented matrix.
func solve(a [][]float64) ([]float64, bool) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if a[pivot][col] == 0 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		for row := col + 1; row < n; row++ {
			f := a[row][col] / a[col][col]
			for k := col; k <= n; k++ {
				a[row][k] -= f * a[col][k]
			}
		}
	}
	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		s := a[row][n]
		for k := row + 1; k < n; k++ {
			s -= a[row][k] * x[k]
		}
		x[row] = s / a[row][row]
	}
	return x, true
}
