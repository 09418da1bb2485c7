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

import (
	"context"
	"math"
	"testing"

	"github.com/flowshuffle/rangepartition/pkg/shuffle/exec"
	shuffleerrors "github.com/flowshuffle/rangepartition/pkg/shuffle/internal/errors"
	"github.com/flowshuffle/rangepartition/pkg/shuffle/order"
)

func uniformPartitions(n, parts int) [][]int {
	out := make([][]int, parts)
	per := n / parts
	for p := 0; p < parts; p++ {
		for i := 0; i < per; i++ {
			out[p] = append(out[p], p*per+i+1)
		}
	}
	return out
}

// S1: 1..1000 over 10 source partitions, requestedPartitions = 4.
func TestS1UniformBalancedSplit(t *testing.T) {
	input := exec.NewSliceInput(uniformPartitions(1000, 10))
	rp, err := New[int](context.Background(), DefaultConfig(), 4, input, 1, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(rp.Boundaries()) != 3 {
		t.Fatalf("len(B) = %d, want 3", len(rp.Boundaries()))
	}
	want := []int{250, 500, 750}
	for i, w := range want {
		if diff := rp.Boundaries()[i] - w; diff < -20 || diff > 20 {
			t.Errorf("B[%d] = %d, want within 20 of %d", i, rp.Boundaries()[i], w)
		}
	}
	for k := 1; k <= 1000; k++ {
		got := rp.BucketOf(k)
		want := (k - 1) * 4 / 1000
		if got < want-1 || got > want+1 {
			t.Errorf("BucketOf(%d) = %d, want within 1 of %d", k, got, want)
		}
	}
}

// S2: empty input, requestedPartitions = 8.
func TestS2EmptyInput(t *testing.T) {
	input := exec.NewSliceInput([][]int{{}, {}, {}})
	rp, err := New[int](context.Background(), DefaultConfig(), 8, input, 1, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(rp.Boundaries()) != 0 {
		t.Fatalf("len(B) = %d, want 0", len(rp.Boundaries()))
	}
	if rp.NumPartitions() != 1 {
		t.Fatalf("NumPartitions() = %d, want 1", rp.NumPartitions())
	}
	if rp.BucketOf(12345) != 0 {
		t.Errorf("BucketOf(anyKey) = %d, want 0", rp.BucketOf(12345))
	}
}

// S3: heavy skew, one partition dominated by a single repeated key.
func TestS3HeavySkew(t *testing.T) {
	var part0 []string
	for i := 0; i < 1_000_000; i++ {
		part0 = append(part0, "a")
	}
	partitions := [][]string{part0}
	letters := []string{"b", "c", "d", "e", "f", "g", "h", "i", "j", "z"}
	for _, l := range letters {
		var p []string
		for i := 0; i < 100; i++ {
			p = append(p, l)
		}
		partitions = append(partitions, p)
	}

	input := exec.NewSliceInput(partitions)
	rp, err := New[string](context.Background(), DefaultConfig(), 3, input, 7, order.BuiltinDescriptor("string"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l := len(rp.Boundaries()); l != 1 && l != 2 {
		t.Fatalf("len(B) = %d, want 1 or 2", l)
	}
	if rp.BucketOf("a") != 0 {
		t.Errorf(`BucketOf("a") = %d, want 0`, rp.BucketOf("a"))
	}
	if rp.BucketOf("z") != rp.NumPartitions()-1 {
		t.Errorf(`BucketOf("z") = %d, want %d`, rp.BucketOf("z"), rp.NumPartitions()-1)
	}
}

// S4: descending mode over the S1 input.
func TestS4Descending(t *testing.T) {
	input := exec.NewSliceInput(uniformPartitions(1000, 10))
	rp, err := New[int](context.Background(), DefaultConfig(), 4, input, 1, order.BuiltinDescriptor("int"), false)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rp.BucketOf(1) != rp.NumPartitions()-1 {
		t.Errorf("BucketOf(1) = %d, want %d", rp.BucketOf(1), rp.NumPartitions()-1)
	}
	if rp.BucketOf(1000) != 0 {
		t.Errorf("BucketOf(1000) = %d, want 0", rp.BucketOf(1000))
	}
	prev := rp.BucketOf(1)
	for k := 2; k <= 1000; k++ {
		got := rp.BucketOf(k)
		if got > prev {
			t.Fatalf("descending assignment not monotone-decreasing at key %d: bucket %d > previous %d", k, got, prev)
		}
		prev = got
	}
}

// S5: serialize/deserialize round trip.
func TestS5SerializationRoundTrip(t *testing.T) {
	input := exec.NewSliceInput(uniformPartitions(1000, 10))
	rp, err := New[int](context.Background(), DefaultConfig(), 4, input, 1, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := rp.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}

	var restored RangePartitioner[int]
	if err := restored.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}

	if !rp.Equal(&restored) {
		t.Fatalf("restored partitioner not Equal to original")
	}
	for _, k := range []int{1, 250, 251, 500, 750, 1000} {
		if got, want := restored.BucketOf(k), rp.BucketOf(k); got != want {
			t.Errorf("BucketOf(%d) after round-trip = %d, want %d", k, got, want)
		}
	}
}

// S6: requestedPartitions = 1.
func TestS6SinglePartition(t *testing.T) {
	input := exec.NewSliceInput(uniformPartitions(1000, 10))
	rp, err := New[int](context.Background(), DefaultConfig(), 1, input, 1, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(rp.Boundaries()) != 0 {
		t.Fatalf("len(B) = %d, want 0", len(rp.Boundaries()))
	}
	if rp.BucketOf(42) != 0 {
		t.Errorf("BucketOf(42) = %d, want 0", rp.BucketOf(42))
	}
}

func TestZeroRequestedPartitions(t *testing.T) {
	input := exec.NewSliceInput(uniformPartitions(1000, 10))
	rp, err := New[int](context.Background(), DefaultConfig(), 0, input, 1, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rp.NumPartitions() != 0 {
		t.Fatalf("NumPartitions() = %d, want 0", rp.NumPartitions())
	}
}

func TestNewRejectsNegativeRequestedPartitions(t *testing.T) {
	input := exec.NewSliceInput(uniformPartitions(10, 2))
	_, err := New[int](context.Background(), DefaultConfig(), -1, input, 1, order.BuiltinDescriptor("int"), true)
	if err == nil {
		t.Fatal("expected error for negative requested partition count")
	}
	if shuffleerrors.KindOf(err) != shuffleerrors.InvalidArgument {
		t.Errorf("KindOf = %v, want InvalidArgument", shuffleerrors.KindOf(err))
	}
}

func TestBucketOfLookupRangeInvariant(t *testing.T) {
	input := exec.NewSliceInput(uniformPartitions(2000, 16))
	rp, err := New[int](context.Background(), DefaultConfig(), 10, input, 3, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for k := 1; k <= 2000; k++ {
		b := rp.BucketOf(k)
		if b < 0 || b >= rp.NumPartitions() {
			t.Fatalf("BucketOf(%d) = %d out of range [0, %d)", k, b, rp.NumPartitions())
		}
	}
}

func TestBucketOfOrderPreserving(t *testing.T) {
	input := exec.NewSliceInput(uniformPartitions(2000, 16))
	rp, err := New[int](context.Background(), DefaultConfig(), 10, input, 3, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for k := 1; k < 2000; k++ {
		if rp.BucketOf(k) > rp.BucketOf(k+1) {
			t.Fatalf("order not preserved: BucketOf(%d)=%d > BucketOf(%d)=%d", k, rp.BucketOf(k), k+1, rp.BucketOf(k+1))
		}
	}
}

func TestEqualKeysCoLocate(t *testing.T) {
	var partitions [][]int
	for p := 0; p < 5; p++ {
		var part []int
		for i := 0; i < 200; i++ {
			part = append(part, i%50)
		}
		partitions = append(partitions, part)
	}
	input := exec.NewSliceInput(partitions)
	rp, err := New[int](context.Background(), DefaultConfig(), 4, input, 9, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for k := 0; k < 50; k++ {
		want := rp.BucketOf(k)
		for trial := 0; trial < 5; trial++ {
			if got := rp.BucketOf(k); got != want {
				t.Fatalf("BucketOf(%d) not stable across repeated calls: %d vs %d", k, got, want)
			}
		}
	}
}

func TestDeterministicConstruction(t *testing.T) {
	partitions := uniformPartitions(5000, 20)
	rp1, err := New[int](context.Background(), DefaultConfig(), 6, exec.NewSliceInput(partitions), 11, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rp2, err := New[int](context.Background(), DefaultConfig(), 6, exec.NewSliceInput(partitions), 11, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(rp1.Boundaries()) != len(rp2.Boundaries()) {
		t.Fatalf("boundary length differs across identical construction: %d vs %d", len(rp1.Boundaries()), len(rp2.Boundaries()))
	}
	for i := range rp1.Boundaries() {
		if rp1.Boundaries()[i] != rp2.Boundaries()[i] {
			t.Fatalf("boundary %d differs across identical construction: %d vs %d", i, rp1.Boundaries()[i], rp2.Boundaries()[i])
		}
	}
}

func TestHashCodeStableAcrossEqualPartitioners(t *testing.T) {
	input := exec.NewSliceInput(uniformPartitions(1000, 10))
	rp, err := New[int](context.Background(), DefaultConfig(), 4, input, 1, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	hashKey := func(k int) uint64 { return uint64(k) }
	h1 := rp.HashCode(hashKey)
	h2 := rp.HashCode(hashKey)
	if h1 != h2 {
		t.Errorf("HashCode not stable: %d vs %d", h1, h2)
	}

	data, _ := rp.MarshalBinary()
	var restored RangePartitioner[int]
	_ = restored.UnmarshalBinary(data)
	if restored.HashCode(hashKey) != h1 {
		t.Errorf("HashCode changed after round-trip: %d vs %d", restored.HashCode(hashKey), h1)
	}
}

// coefficientOfVariation reports the population standard deviation of
// counts divided by its mean, the dispersion measure property 10 bounds.
func coefficientOfVariation(counts []int) float64 {
	n := float64(len(counts))
	var sum float64
	for _, c := range counts {
		sum += float64(c)
	}
	mean := sum / n

	var variance float64
	for _, c := range counts {
		d := float64(c) - mean
		variance += d * d
	}
	variance /= n

	return math.Sqrt(variance) / mean
}

// Property 10: on a uniformly distributed key stream, bucket occupancy
// converges to N/P with a coefficient of variation under 0.1 once
// sampleSize reaches DefaultConfig's 20*requestedPartitions.
func TestProperty10BoundaryBalanceCoefficientOfVariation(t *testing.T) {
	const (
		requested        = 8
		sourcePartitions = 32
		totalKeys        = 200_000
	)
	input := exec.NewSliceInput(uniformPartitions(totalKeys, sourcePartitions))
	rp, err := New[int](context.Background(), DefaultConfig(), requested, input, 1, order.BuiltinDescriptor("int"), true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if rp.NumPartitions() != requested {
		t.Fatalf("NumPartitions() = %d, want %d", rp.NumPartitions(), requested)
	}

	counts := make([]int, rp.NumPartitions())
	for k := 1; k <= totalKeys; k++ {
		counts[rp.BucketOf(k)]++
	}

	cv := coefficientOfVariation(counts)
	if cv >= 0.1 {
		t.Errorf("coefficient of variation = %f, want < 0.1 (bucket counts: %v)", cv, counts)
	}
}
