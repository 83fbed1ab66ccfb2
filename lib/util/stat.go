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

import "math"

// EditDistance returns the Levenshtein distance between two sequences.
func EditDistance[T comparable](a, b []T) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1]
				continue
			}
			cur[j] = 1 + min(prev[j], cur[j-1], prev[j-1])
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// HoeffdingBound is the deviation bound sqrt(ln(1/delta) / 2n) of the mean
// of n observations.
func HoeffdingBound(n int, delta float64) float64 {
	return math.Sqrt(math.Log(1/delta) / (2 * float64(n)))
}

// TwoSampleHoeffdingBound bounds the difference between the means of two
// samples of sizes n0 and n1.
func TwoSampleHoeffdingBound(n0, n1 int, delta float64) float64 {
	m := 1 / (1/float64(n0) + 1/float64(n1))
	return math.Sqrt(m / 2 * math.Log(4*float64(n0+n1)/delta))
}

// BernoulliVariance is the variance of n observations of which count are 1.
func BernoulliVariance(count, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(count) / float64(n)
	return (float64(count)*(1-p)*(1-p) + float64(n-count)*p*p) / float64(n)
}
