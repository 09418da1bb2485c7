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

import "sort"

// PartitionedCollection is the minimal shape SelectDefault needs from a
// join-like operation's input: how many partitions it has, and whether it
// already carries a partitioner of its own (nil if not).
type PartitionedCollection[K any] interface {
	NumPartitions() int
	Partitioner() Partitioner
}

// SelectDefault implements C5: given one or more partitioned inputs to a
// join-like operation, choose the partitioner the operation's output
// should use. The two-parameter surface (first, rest...) statically
// requires at least one input, the same "non-empty slice" idiom the
// teacher's own variadic pipeline constructors use. hashKey is only used
// if the fallback HashPartitioner is actually constructed.
//
// The selection rule, in order: sort every input by descending partition
// count; if the input with the most partitions already carries a
// partitioner with at least one bucket, reuse it; otherwise fall back to
// a HashPartitioner sized by cfg.DefaultParallelism if configured, or the
// largest input's own partition count otherwise.
func SelectDefault[K any](cfg Config, hashKey func(K) uint64, first PartitionedCollection[K], rest ...PartitionedCollection[K]) Partitioner {
	inputs := make([]PartitionedCollection[K], 0, len(rest)+1)
	inputs = append(inputs, first)
	inputs = append(inputs, rest...)

	sort.SliceStable(inputs, func(a, b int) bool {
		return inputs[a].NumPartitions() > inputs[b].NumPartitions()
	})

	if p := inputs[0].Partitioner(); p != nil && p.NumPartitions() > 0 {
		return p
	}

	n := cfg.DefaultParallelism
	if n <= 0 {
		n = inputs[0].NumPartitions()
	}
	return NewHashPartitioner[K](n, hashKey)
}
