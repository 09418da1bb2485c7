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

package sketch

import (
	"context"
	"math/bits"
	"sort"

	"github.com/flowshuffle/rangepartition/pkg/shuffle/exec"
)

// PartitionSketch is the per-partition outcome of a distributed sketch
// pass: how many items the partition actually holds, and a uniform sample
// of up to the per-partition cap drawn from it.
type PartitionSketch[K any] struct {
	Index       int
	ItemsInPart uint64
	Sample      []K
}

// DistResult is the outcome of Compute: the exact total item count across
// every source partition, and one PartitionSketch per partition, returned
// in partition-index order.
type DistResult[K any] struct {
	TotalItems uint64
	Partitions []PartitionSketch[K]
}

// PartitionSeed derives the deterministic per-partition seed C2 requires:
// byteswap32(i XOR (rddID << 16)). Reusing the same rddID and partition
// index always reproduces the same seed, which is what makes sketch
// construction (and therefore the resulting boundary array) deterministic
// given identical input, layout, and configuration.
func PartitionSeed(partitionIndex int, rddID int32) uint32 {
	mixed := uint32(partitionIndex) ^ (uint32(rddID) << 16)
	return bits.ReverseBytes32(mixed)
}

// Compute runs the reservoir sampler (Sample) against every partition of
// input, in parallel, using at most workers goroutines, and assembles the
// results in partition-index order. cap is the per-partition sample cap;
// rddID identifies input for seed derivation.
//
// If reading or sampling any partition fails, Compute returns that error
// and no partial DistResult: construction of the owning range partitioner
// must fail atomically rather than build boundaries from an incomplete
// sketch.
func Compute[K any](ctx context.Context, input exec.PartitionedInput[K], cap int, rddID int32, workers int) (DistResult[K], error) {
	results, err := exec.MapPartitionsCollect(ctx, input, workers, func(ctx context.Context, i int, src exec.Source[K]) (PartitionSketch[K], error) {
		seed := PartitionSeed(i, rddID)
		r, err := Sample(src.Next, cap, seed)
		if err != nil {
			return PartitionSketch[K]{}, err
		}
		return PartitionSketch[K]{Index: i, ItemsInPart: r.N, Sample: r.Sample}, nil
	})
	if err != nil {
		return DistResult[K]{}, err
	}

	sort.Slice(results, func(a, b int) bool { return results[a].Index < results[b].Index })

	out := DistResult[K]{Partitions: make([]PartitionSketch[K], len(results))}
	for i, r := range results {
		out.Partitions[i] = r.Value
		out.TotalItems += r.Value.ItemsInPart
	}
	return out, nil
}
