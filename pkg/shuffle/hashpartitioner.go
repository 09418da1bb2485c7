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

package shuffle

// HashPartitioner assigns keys to buckets by modulo-reducing a caller
// supplied hash, the trivial partitioner spec.md §1 excludes from the
// range partitioner's own scope but which SelectDefault (C5) must be able
// to fall back to. Grounded on the hash-then-modulo shape used throughout
// the retrieval pack's own partitioners (e.g. bigslice's frame
// partitioner, which reduces a hash sum mod its partition width).
type HashPartitioner[K any] struct {
	n       int
	hashKey func(K) uint64
}

// NewHashPartitioner returns a HashPartitioner with n buckets, using
// hashKey to derive each key's hash. n must be >= 0; a HashPartitioner
// with n == 0 reports NumPartitions() == 0 and BucketOf always returns 0,
// mirroring RangePartitioner's degenerate-partition convention.
func NewHashPartitioner[K any](n int, hashKey func(K) uint64) *HashPartitioner[K] {
	if n < 0 {
		n = 0
	}
	return &HashPartitioner[K]{n: n, hashKey: hashKey}
}

// NumPartitions reports the configured bucket count.
func (h *HashPartitioner[K]) NumPartitions() int { return h.n }

// BucketOf returns hashKey(key) mod NumPartitions(), or 0 if this
// partitioner has no buckets.
func (h *HashPartitioner[K]) BucketOf(key K) int {
	if h.n <= 0 {
		return 0
	}
	return int(h.hashKey(key) % uint64(h.n))
}
