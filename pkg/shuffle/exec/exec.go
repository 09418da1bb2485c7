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

// Package exec provides the small set of concurrency primitives the
// sketch and boundary stages share: a bounded worker pool that maps a
// function over every partition of a distributed collection and collects
// the results (or the first failure), a view that restricts a collection
// to a subset of its partitions, and independent Bernoulli sampling over
// a single partition's stream.
//
// None of this is a distributed execution engine: there is no shuffle, no
// scheduler, no network. It is the in-process stand-in a caller wires up
// to its own cluster's read path, the same way the teacher's artifact
// package assumes someone else supplies the transport and only owns the
// bounded-concurrency retrieval loop (see MultiRetrieve in
// artifact/materialize.go).
package exec

import (
	"context"
	"math/rand"
	"sync"

	shuffleerrors "github.com/flowshuffle/rangepartition/pkg/shuffle/internal/errors"
)

// Source reads one partition's elements as a single-pass stream. Next
// returns ok == false once the partition is exhausted. Implementations
// need not support more than one pass or concurrent use from multiple
// goroutines.
type Source[T any] interface {
	Next() (v T, ok bool, err error)
}

// PartitionedInput is a distributed collection as seen from this process:
// a fixed number of partitions, each readable as a Source.
type PartitionedInput[T any] interface {
	NumPartitions() int
	Partition(i int) Source[T]
}

// SliceSource adapts an in-memory slice to Source, for tests and for
// callers whose partitions already fit in memory.
type SliceSource[T any] struct {
	elems []T
	pos   int
}

// NewSliceSource returns a Source over elems.
func NewSliceSource[T any](elems []T) *SliceSource[T] {
	return &SliceSource[T]{elems: elems}
}

func (s *SliceSource[T]) Next() (T, bool, error) {
	if s.pos >= len(s.elems) {
		var zero T
		return zero, false, nil
	}
	v := s.elems[s.pos]
	s.pos++
	return v, true, nil
}

// SliceInput adapts a slice of in-memory partitions to PartitionedInput.
type SliceInput[T any] struct {
	partitions [][]T
}

// NewSliceInput returns a PartitionedInput over the given partitions.
func NewSliceInput[T any](partitions [][]T) *SliceInput[T] {
	return &SliceInput[T]{partitions: partitions}
}

func (s *SliceInput[T]) NumPartitions() int { return len(s.partitions) }

func (s *SliceInput[T]) Partition(i int) Source[T] {
	return NewSliceSource(s.partitions[i])
}

// IndexedResult pairs a per-partition result with the index of the
// partition it was computed from, since MapPartitionsCollect does not
// guarantee partitions finish in order.
type IndexedResult[R any] struct {
	Index int
	Value R
}

// MapPartitionsCollect runs fn once per partition of input, using at most
// workers goroutines, and collects every result. If any call to fn
// returns an error, or ctx is canceled before every partition has been
// dispatched, MapPartitionsCollect stops handing out new partitions,
// waits for in-flight calls to finish, and returns the first error
// observed (ctx.Err(), wrapped, if cancellation won the race); the
// partial results are discarded in that case, matching the "construction
// fails atomically" contract the comparator/boundary build relies on.
// Cancellation does not interrupt an fn call already in flight, only the
// dispatch of partitions not yet started.
//
// The pool shape mirrors the teacher's MultiRetrieve (artifact package):
// a channel of work items drained by a fixed goroutine pool, with a
// GuardedError as the first-error latch instead of a mutex-guarded slice.
func MapPartitionsCollect[T, R any](
	ctx context.Context,
	input PartitionedInput[T],
	workers int,
	fn func(ctx context.Context, partitionIndex int, src Source[T]) (R, error),
) ([]IndexedResult[R], error) {
	n := input.NumPartitions()
	if n == 0 {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	indices := make(chan int, n)
	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)

	var (
		mu      sync.Mutex
		results = make([]IndexedResult[R], 0, n)
		failed  shuffleerrors.GuardedError
		wg      sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				if failed.Error() != nil {
					continue
				}
				select {
				case <-ctx.Done():
					failed.TrySetError(shuffleerrors.Wrap(shuffleerrors.UpstreamFailure, ctx.Err(), "partition scan canceled"))
					continue
				default:
				}
				v, err := fn(ctx, i, input.Partition(i))
				if err != nil {
					failed.TrySetError(shuffleerrors.Wrapf(shuffleerrors.UpstreamFailure, err, "partition %d", i))
					continue
				}
				mu.Lock()
				results = append(results, IndexedResult[R]{Index: i, Value: v})
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if err := failed.Error(); err != nil {
		return nil, err
	}
	return results, nil
}

// prunedView restricts a PartitionedInput to a subset of its partition
// indices, renumbering them densely. It is how the boundary stage
// re-samples only the partitions the first sketching pass flagged as
// skewed, without re-reading the rest of the collection.
type prunedView[T any] struct {
	base PartitionedInput[T]
	keep []int
}

// PrunedView returns a view of input containing only the partitions named
// in keep, in the given order. Partition i of the returned view is
// base.Partition(keep[i]).
func PrunedView[T any](base PartitionedInput[T], keep []int) PartitionedInput[T] {
	cp := make([]int, len(keep))
	copy(cp, keep)
	return &prunedView[T]{base: base, keep: cp}
}

func (p *prunedView[T]) NumPartitions() int { return len(p.keep) }

func (p *prunedView[T]) Partition(i int) Source[T] {
	return p.base.Partition(p.keep[i])
}

// BernoulliSample reads every element of src and keeps each one
// independently with probability p, using rng for the coin flips. It is
// the re-sampling primitive the range partitioner (C4) falls back to for a
// partition whose proportional share of the total sample exceeds the
// per-partition reservoir cap: rather than re-running full reservoir
// sampling, the partition is thinned down with independent draws.
//
// p must be in [0, 1]; a p of 0 drains src and returns no elements, a p
// of 1 returns every element.
func BernoulliSample[T any](src Source[T], p float64, rng *rand.Rand) ([]T, error) {
	var kept []T
	for {
		v, ok, err := src.Next()
		if err != nil {
			return nil, shuffleerrors.Wrap(shuffleerrors.UpstreamFailure, err, "bernoulli sample")
		}
		if !ok {
			return kept, nil
		}
		if rng.Float64() < p {
			kept = append(kept, v)
		}
	}
}
