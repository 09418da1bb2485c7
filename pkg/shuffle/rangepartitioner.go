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

// Package shuffle implements the range partitioner described by this
// repository's design document: boundary selection by distributed
// reservoir sampling with re-sampling of skewed source partitions,
// weighted boundary determination, and a constant- to logarithmic-time
// key-to-bucket lookup whose state can be shipped to worker processes.
package shuffle

import (
	"context"
	"math"
	"math/bits"
	"math/rand"
	"runtime"
	"sort"

	"github.com/flowshuffle/rangepartition/pkg/shuffle/boundary"
	"github.com/flowshuffle/rangepartition/pkg/shuffle/exec"
	shuffleerrors "github.com/flowshuffle/rangepartition/pkg/shuffle/internal/errors"
	"github.com/flowshuffle/rangepartition/pkg/shuffle/log"
	"github.com/flowshuffle/rangepartition/pkg/shuffle/order"
	"github.com/flowshuffle/rangepartition/pkg/shuffle/sketch"
)

// Partitioner is satisfied by every partitioner this package produces,
// range or hash; SelectDefault (C5) only needs the bucket count.
type Partitioner interface {
	NumPartitions() int
}

// linearScanThreshold is the boundary-array length at or below which BucketOf
// scans linearly instead of binary-searching. Spec §9 notes this is a
// micro-optimization with no effect on behavior; any threshold (or always
// binary-searching) would be equally correct.
const linearScanThreshold = 128

// RangePartitioner assigns keys to buckets by comparing against an
// ordered boundary array computed at construction time from a weighted,
// distributed sample of the input. It implements C4.
//
// The zero value is not usable; construct with New. Once constructed, a
// RangePartitioner is immutable and BucketOf is safe to call concurrently
// from any number of goroutines without synchronization (spec §5).
type RangePartitioner[K any] struct {
	ascending  bool
	boundaries []K
	numParts   int
	desc       order.Descriptor
	cmp        order.Comparator[K]
}

// New constructs a RangePartitioner over input, targeting requested
// output buckets. rddID identifies input for deterministic per-partition
// seed derivation (spec §4.2); desc names the ordering over K so the
// comparator can be resolved here and later rebuilt after deserialization
// (spec §9). ascending selects whether bucket 0 holds the smallest keys
// (true) or the largest (false).
//
// New fails with InvalidArgument if requested < 0, or SerializationFailure
// if desc cannot be resolved against K, or wraps whatever error the
// sampling/pruning primitives report as UpstreamFailure — construction
// never returns a partially built partitioner.
func New[K any](ctx context.Context, cfg Config, requested int, input exec.PartitionedInput[K], rddID int32, desc order.Descriptor, ascending bool) (*RangePartitioner[K], error) {
	if requested < 0 {
		return nil, shuffleerrors.Errorf(shuffleerrors.InvalidArgument, "shuffle: requested partition count must be >= 0, got %d", requested)
	}

	cmp, err := order.Resolve[K](desc)
	if err != nil {
		return nil, shuffleerrors.Wrap(shuffleerrors.SerializationFailure, err, "shuffle: resolving ordering descriptor")
	}

	rp := &RangePartitioner[K]{ascending: ascending, desc: desc, cmp: cmp}

	if requested <= 1 {
		rp.numParts = requested
		return rp, nil
	}

	boundaries, stats, err := computeBoundaries(ctx, cfg, requested, input, rddID, cmp)
	if err != nil {
		return nil, err
	}
	rp.boundaries = boundaries
	rp.numParts = len(boundaries) + 1
	log.InfoKV(ctx, "range partitioner constructed",
		log.F("requestedPartitions", requested),
		log.F("achievedPartitions", rp.numParts),
		log.F("boundaries", len(boundaries)),
		log.F("sourcePartitions", stats.SourcePartitions),
		log.F("skewedPartitions", stats.SkewedPartitions),
		log.F("sampleSize", stats.SampleSize),
		log.F("totalItems", stats.TotalItems),
	)
	return rp, nil
}

// sketchStats carries the construction-time counters worth logging
// structurally: how big the sample was, how many source items it was
// drawn from, and how many source partitions were flagged skewed and
// re-sampled.
type sketchStats struct {
	SourcePartitions int
	SampleSize       int
	TotalItems       uint64
	SkewedPartitions int
}

// computeBoundaries runs spec §4.4's construction algorithm: sketch every
// source partition, flag the ones a proportional sample would overweight,
// re-sample those uniformly via the pruning primitive, and hand the
// combined weighted candidate pool to the boundary chooser.
func computeBoundaries[K any](ctx context.Context, cfg Config, requested int, input exec.PartitionedInput[K], rddID int32, cmp order.Comparator[K]) ([]K, sketchStats, error) {
	sourceParts := input.NumPartitions()
	if sourceParts == 0 {
		return nil, sketchStats{}, nil
	}

	sampleSizeCap := cfg.SampleSizeCap
	if sampleSizeCap <= 0 {
		sampleSizeCap = 1_000_000
	}
	multiplier := cfg.SampleSizeMultiplier
	if multiplier <= 0 {
		multiplier = 20
	}
	overSample := cfg.OverSampleFactor
	if overSample <= 0 {
		overSample = 3.0
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	sampleSize := multiplier * requested
	if sampleSize > sampleSizeCap {
		sampleSize = sampleSizeCap
	}
	sampleSizePerPartition := int(math.Ceil(overSample * float64(sampleSize) / float64(sourceParts)))
	if sampleSizePerPartition < 0 {
		sampleSizePerPartition = 0
	}

	dist, err := sketch.Compute[K](ctx, input, sampleSizePerPartition, rddID, workers)
	if err != nil {
		return nil, sketchStats{}, err
	}
	if dist.TotalItems == 0 {
		return nil, sketchStats{SourcePartitions: sourceParts}, nil
	}

	fraction := float64(sampleSize) / math.Max(float64(dist.TotalItems), 1)
	if fraction > 1.0 {
		fraction = 1.0
	}

	var (
		candidates []boundary.Candidate[K]
		skewed     []int
	)
	for _, p := range dist.Partitions {
		if fraction*float64(p.ItemsInPart) > float64(sampleSizePerPartition) {
			skewed = append(skewed, p.Index)
			continue
		}
		if len(p.Sample) == 0 {
			continue
		}
		w := float64(p.ItemsInPart) / float64(len(p.Sample))
		for _, k := range p.Sample {
			candidates = append(candidates, boundary.Candidate[K]{Key: k, Weight: w})
		}
	}

	if len(skewed) > 0 {
		resampled, err := resampleSkewed(ctx, input, skewed, fraction, rddID, workers)
		if err != nil {
			return nil, sketchStats{}, err
		}
		weight := 1.0
		if fraction > 0 {
			weight = 1.0 / fraction
		}
		for _, k := range resampled {
			candidates = append(candidates, boundary.Candidate[K]{Key: k, Weight: weight})
		}
	}

	stats := sketchStats{
		SourcePartitions: sourceParts,
		SampleSize:       sampleSize,
		TotalItems:       dist.TotalItems,
		SkewedPartitions: len(skewed),
	}
	log.DebugKV(ctx, "candidate pool assembled",
		log.F("candidates", len(candidates)),
		log.F("sourcePartitions", sourceParts),
		log.F("skewedPartitions", len(skewed)),
	)

	return boundary.Choose(candidates, requested, cmp), stats, nil
}

// resampleSkewed re-reads exactly the partitions named in skewed through a
// pruned view and draws a uniform Bernoulli sample at the given fraction
// from each, using the re-sample seed derivation of spec §4.4 step 7.
func resampleSkewed[K any](ctx context.Context, input exec.PartitionedInput[K], skewed []int, fraction float64, rddID int32, workers int) ([]K, error) {
	view := exec.PrunedView[K](input, skewed)
	seed := resampleSeed(rddID)

	results, err := exec.MapPartitionsCollect(ctx, view, workers, func(_ context.Context, i int, src exec.Source[K]) ([]K, error) {
		rng := rand.New(rand.NewSource(int64(seed ^ uint32(i))))
		return exec.BernoulliSample[K](src, fraction, rng)
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(a, b int) bool { return results[a].Index < results[b].Index })

	var out []K
	for _, r := range results {
		out = append(out, r.Value...)
	}
	return out, nil
}

// resampleSeed derives the re-sample PRNG seed from rddID per spec §4.4
// step 7: byteswap32(-rddID - 1). The negation and offset decorrelate it
// from the per-partition sketch seeds sketch.PartitionSeed derives for the
// same rddID.
func resampleSeed(rddID int32) uint32 {
	return bits.ReverseBytes32(uint32(-rddID - 1))
}

// NumPartitions reports the number of buckets this partitioner yields:
// len(boundaries) + 1, except when 0 partitions were requested, in which
// case it is 0 (spec §9's recommended resolution of the degenerate case).
func (p *RangePartitioner[K]) NumPartitions() int { return p.numParts }

// BucketOf maps key to a bucket index in [0, NumPartitions()). It never
// fails: an out-of-range or degenerate partitioner returns 0 defensively,
// matching spec §9's note that lookups against a zero-partition
// partitioner are documented as undefined behavior rather than panics.
func (p *RangePartitioner[K]) BucketOf(key K) int {
	l := len(p.boundaries)
	if l == 0 {
		return 0
	}

	var a int
	if l <= linearScanThreshold {
		for _, b := range p.boundaries {
			if p.cmp.Compare(key, b) > 0 {
				a++
			}
		}
	} else {
		a = sort.Search(l, func(i int) bool { return p.cmp.Compare(p.boundaries[i], key) >= 0 })
	}

	if p.ascending {
		return a
	}
	return l - a
}

// Ascending reports the direction this partitioner was constructed with.
func (p *RangePartitioner[K]) Ascending() bool { return p.ascending }

// Boundaries returns the boundary array this partitioner looks keys up
// against, in ascending order regardless of the direction flag. Callers
// must not mutate the returned slice.
func (p *RangePartitioner[K]) Boundaries() []K { return p.boundaries }

// Equal reports whether p and other have the same direction and
// element-wise equal boundary arrays under p's comparator, per spec §4.4.
func (p *RangePartitioner[K]) Equal(other *RangePartitioner[K]) bool {
	if other == nil {
		return false
	}
	if p.ascending != other.ascending || len(p.boundaries) != len(other.boundaries) {
		return false
	}
	for i := range p.boundaries {
		if p.cmp.Compare(p.boundaries[i], other.boundaries[i]) != 0 {
			return false
		}
	}
	return true
}

// hashMixPrime is the fixed prime HashCode mixes every boundary's hash
// with, so that permutations of the same boundary set (which cannot
// actually occur, since boundaries are sorted, but would otherwise hash
// equal under a commutative combiner) and the direction flag both affect
// the result.
const hashMixPrime uint64 = 1099511628211

// HashCode combines the direction flag and every boundary's hash (as
// reported by hashKey) into a single value suitable for using this
// partitioner as a cache key, per spec §4.4. hashKey must be consistent
// with the comparator: equal keys must hash equally.
func (p *RangePartitioner[K]) HashCode(hashKey func(K) uint64) uint64 {
	h := uint64(1)
	if p.ascending {
		h = 2
	}
	for _, b := range p.boundaries {
		h = h*hashMixPrime ^ hashKey(b)
	}
	return h
}
