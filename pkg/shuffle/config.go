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

// Config holds the tunables spec §6 enumerates. The zero value is not
// usable directly; call DefaultConfig and override individual fields, the
// way the teacher's pipeline options are built from a defaults struct and
// selectively overridden by the caller.
type Config struct {
	// DefaultParallelism is used by SelectDefault when none of its inputs
	// carries a partitioner of its own. Must be >= 1 when set; 0 means
	// "not configured", in which case SelectDefault falls back to the
	// largest input's partition count.
	DefaultParallelism int
	// SampleSizeCap bounds the total sample size pulled to the
	// coordinator across every source partition (spec §4.4 step 1).
	SampleSizeCap int
	// SampleSizeMultiplier is multiplied by the requested partition count
	// to get the uncapped sample size (spec §4.4 step 1).
	SampleSizeMultiplier int
	// OverSampleFactor hedges the per-partition cap against imbalance
	// across source partitions (spec §4.4 step 2).
	OverSampleFactor float64
	// Workers bounds the goroutine pool used for the sketch and re-sample
	// stages. 0 means "use GOMAXPROCS"; the range partitioner substitutes
	// that value before calling exec.MapPartitionsCollect, which itself
	// treats a non-positive worker count as 1.
	Workers int
}

// DefaultConfig returns the configuration spec §6 names as defaults:
// sampleSizeCap = 1,000,000, sampleSizeMultiplier = 20, overSampleFactor =
// 3.0, no default parallelism configured, and an auto-sized worker pool.
func DefaultConfig() Config {
	return Config{
		SampleSizeCap:        1_000_000,
		SampleSizeMultiplier: 20,
		OverSampleFactor:     3.0,
	}
}
