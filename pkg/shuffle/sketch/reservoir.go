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

// Package sketch implements the two bottommost components of the range
// partitioner build: uniform reservoir sampling over a single partition
// (Sample), and running that sampler across every partition of a
// distributed collection to produce per-partition item counts and samples
// (Compute), from which the range partitioner builds the weighted
// candidate pool C3 needs.
package sketch

import (
	"math/rand"

	shuffleerrors "github.com/flowshuffle/rangepartition/pkg/shuffle/internal/errors"
)

// Result is the outcome of sampling a single-pass sequence: the exact
// count of items seen, and a uniform sample of size min(cap, n) drawn
// without replacement.
type Result[T any] struct {
	Sample []T
	N      uint64
}

// Sample draws a uniform sample of up to cap items from src using
// Algorithm R: the first cap items fill the reservoir outright; every
// later item at position i (0-indexed) replaces a uniformly chosen slot
// with probability cap/(i+1). rng is advanced exactly once per item after
// the reservoir fills, so the sequence of draws is entirely determined by
// the caller's choice of seed.
//
// Fails with InvalidArgument if cap is negative. A cap of 0 still counts
// every item but returns an empty sample.
func Sample[T any](src func() (v T, ok bool, err error), cap int, seed uint32) (Result[T], error) {
	if cap < 0 {
		return Result[T]{}, shuffleerrors.Errorf(shuffleerrors.InvalidArgument, "sketch: sample cap must be >= 0, got %d", cap)
	}

	rng := rand.New(rand.NewSource(int64(seed)))
	reservoir := make([]T, 0, cap)
	var n uint64

	for {
		v, ok, err := src()
		if err != nil {
			return Result[T]{}, shuffleerrors.Wrap(shuffleerrors.UpstreamFailure, err, "sketch: reservoir sample")
		}
		if !ok {
			break
		}
		if len(reservoir) < cap {
			reservoir = append(reservoir, v)
		} else if cap > 0 {
			j := rng.Intn(int(n) + 1)
			if j < cap {
				reservoir[j] = v
			}
		}
		n++
	}

	return Result[T]{Sample: reservoir, N: n}, nil
}
