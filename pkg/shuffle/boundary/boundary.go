// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package boundary implements C3, the weighted sweep that turns an
// unordered, weighted candidate pool into an ordered array of bucket
// boundaries. The shape of the sweep — sort once, then walk the sorted
// list accumulating weight against a moving target fraction of the total
// — is the same one the teacher's approximate-quantiles transform uses to
// extract quantile elements from a sorted, weighted compactor
// (transforms/stats/quantiles.go, approximateQuantilesOutputFn.ExtractOutput):
// a running rank compared against currentQuantile/NumQuantiles. Here the
// "quantiles" are evenly spaced partition boundaries and the weights come
// from reservoir-sampling inclusion probabilities rather than compactor
// levels, but the accumulate-and-compare loop is identical in shape.
package boundary

import (
	"sort"

	"github.com/flowshuffle/rangepartition/pkg/shuffle/order"
)

// Candidate is a sampled key paired with the number of source items it
// represents (the reciprocal of its inclusion probability).
type Candidate[K any] struct {
	Key    K
	Weight float64
}

// Choose runs the weighted left-to-right sweep of spec §4.3 over
// candidates and returns at most partitions-1 strictly increasing
// boundaries. candidates need not be sorted; Choose sorts a private copy
// using cmp and never mutates the caller's slice.
//
// If partitions <= 1, or candidates is empty, Choose returns an empty
// boundary array. If the sorted candidates contain too few distinct keys
// to produce partitions-1 boundaries, Choose returns however many it
// found rather than fabricating more — the caller (the range partitioner)
// is expected to report a correspondingly smaller bucket count.
func Choose[K any](candidates []Candidate[K], partitions int, cmp order.Comparator[K]) []K {
	if partitions <= 1 || len(candidates) == 0 {
		return nil
	}

	sorted := make([]Candidate[K], len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(a, b int) bool {
		return cmp.Compare(sorted[a].Key, sorted[b].Key) < 0
	})

	var total float64
	for _, c := range sorted {
		total += c.Weight
	}
	if total <= 0 {
		return nil
	}

	want := partitions - 1
	step := total / float64(partitions)
	target := step

	bounds := make([]K, 0, want)
	var (
		haveBound bool
		prevBound K
	)

	var cumulative float64
	for _, c := range sorted {
		cumulative += c.Weight
		if cumulative >= target && (!haveBound || cmp.Compare(c.Key, prevBound) > 0) {
			bounds = append(bounds, c.Key)
			prevBound = c.Key
			haveBound = true
			target += step
		}
		if len(bounds) >= want {
			break
		}
	}
	return bounds
}
