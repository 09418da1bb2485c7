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

// Package order implements the transferable-comparator machinery described
// in spec §9: a range partitioner must cross a wire so that workers can
// classify keys without recomputing, but an arbitrary comparator closure
// generally cannot be serialized. A Descriptor names either a built-in
// ordering (resolved statically against K) or a process-wide registered
// ordering id, and Resolve rebuilds a live Comparator[K] from either,
// mirroring the way the teacher resolves a custom coder from a
// reflect.Type-keyed registry in its own coder.go (RegisterCoder /
// LookupCustomCoder), except keyed by a short string id instead of a
// reflect.Type so two orderings over the same K (e.g. ascending vs.
// case-insensitive string order) can coexist.
package order

import (
	"fmt"
	"math"
	"reflect"
	"sync"
)

// Comparator orders values of K. Compare(a, b) returns a negative number if
// a < b, zero if a == b, and a positive number if a > b.
type Comparator[K any] interface {
	Compare(a, b K) int
}

// ComparatorFunc adapts a plain function to a Comparator.
type ComparatorFunc[K any] func(a, b K) int

func (f ComparatorFunc[K]) Compare(a, b K) int { return f(a, b) }

// Kind distinguishes a built-in ordering from a registered one.
type Kind int

const (
	Unspecified Kind = iota
	Builtin
	Registered
)

// Descriptor is the serializable stand-in for a Comparator[K]. It crosses
// the wire with the boundary array; Resolve turns it back into a live
// Comparator on the receiving node.
type Descriptor struct {
	Kind Kind
	// Name identifies a built-in ordering: "int", "int64", "uint64",
	// "float64" (IEEE-754 total order), "string", or "bytesLex".
	Name string
	// ID identifies a registered ordering (see Register).
	ID string
}

// BuiltinDescriptor returns a Descriptor naming one of the built-in
// orderings.
func BuiltinDescriptor(name string) Descriptor {
	return Descriptor{Kind: Builtin, Name: name}
}

// RegisteredDescriptor returns a Descriptor naming a registered ordering.
func RegisteredDescriptor(id string) Descriptor {
	return Descriptor{Kind: Registered, ID: id}
}

// Built-in orderings. Each is bound to a concrete Go type; Resolve type
// checks the requested K against that type before handing one back.
var (
	Int     = ComparatorFunc[int](compareOrdered[int])
	Int64   = ComparatorFunc[int64](compareOrdered[int64])
	Uint64  = ComparatorFunc[uint64](compareOrdered[uint64])
	Float64 = ComparatorFunc[float64](compareFloat64)
	String  = ComparatorFunc[string](compareOrdered[string])
	Bytes   = ComparatorFunc[[]byte](compareBytes)
)

// ordered is satisfied by every built-in key type except []byte, which is
// compared lexicographically by compareBytes instead.
type ordered interface {
	int | int64 | uint64 | string
}

func compareOrdered[K ordered](a, b K) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareBytes(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	default:
		return 0
	}
}

// floatOrderKey maps a float64 to a uint64 whose natural order matches
// IEEE-754's total order: negatives first (most negative last-to-first by
// flipping every bit), then -0, then +0, then positives, then NaN last.
// A NaN with its sign bit set is the exception: it sorts before every
// negative number. This is
// the same family of bit-level float technique the teacher uses for its
// varint float coder (core/runtime/coderx/float.go), applied here to
// comparison instead of encoding.
func floatOrderKey(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&(1<<63) != 0 {
		return ^bits
	}
	return bits | (1 << 63)
}

func compareFloat64(a, b float64) int {
	ka, kb := floatOrderKey(a), floatOrderKey(b)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	default:
		return 0
	}
}

type registryEntry struct {
	keyType reflect.Type
	build   func() any
}

var (
	registryMu sync.RWMutex
	registry   = map[string]registryEntry{}
)

// Register records a factory for a user-defined ordering under id, so that
// a fresh process image can rebuild the comparator after deserializing a
// Descriptor that names it. Intended to be called from an init function on
// every node that needs to resolve it, the same way the teacher requires
// custom coders to be registered on every worker before a pipeline runs.
func Register[K any](id string, build func() Comparator[K]) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[id] = registryEntry{
		keyType: reflect.TypeOf((*K)(nil)).Elem(),
		build:   func() any { return build() },
	}
}

// Resolve rebuilds a live Comparator[K] from a Descriptor.
func Resolve[K any](d Descriptor) (Comparator[K], error) {
	switch d.Kind {
	case Builtin:
		return resolveBuiltin[K](d.Name)
	case Registered:
		return resolveRegistered[K](d.ID)
	default:
		return nil, fmt.Errorf("order: empty ordering descriptor cannot be resolved")
	}
}

func resolveBuiltin[K any](name string) (Comparator[K], error) {
	var zero K
	switch v := any(zero).(type) {
	case int:
		_ = v
		if name != "int" {
			break
		}
		if c, ok := any(Int).(Comparator[K]); ok {
			return c, nil
		}
	case int64:
		_ = v
		if name != "int64" {
			break
		}
		if c, ok := any(Int64).(Comparator[K]); ok {
			return c, nil
		}
	case uint64:
		_ = v
		if name != "uint64" {
			break
		}
		if c, ok := any(Uint64).(Comparator[K]); ok {
			return c, nil
		}
	case float64:
		_ = v
		if name != "float64" {
			break
		}
		if c, ok := any(Float64).(Comparator[K]); ok {
			return c, nil
		}
	case string:
		_ = v
		if name != "string" {
			break
		}
		if c, ok := any(String).(Comparator[K]); ok {
			return c, nil
		}
	case []byte:
		_ = v
		if name != "bytesLex" {
			break
		}
		if c, ok := any(Bytes).(Comparator[K]); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("order: built-in ordering %q does not match key type %T", name, zero)
}

func resolveRegistered[K any](id string) (Comparator[K], error) {
	registryMu.RLock()
	entry, ok := registry[id]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("order: ordering %q is not registered on this node", id)
	}
	want := reflect.TypeOf((*K)(nil)).Elem()
	if entry.keyType != want {
		return nil, fmt.Errorf("order: ordering %q was registered for key type %v, not %v", id, entry.keyType, want)
	}
	cmp, ok := entry.build().(Comparator[K])
	if !ok {
		return nil, fmt.Errorf("order: ordering %q could not be rebuilt for key type %v", id, want)
	}
	return cmp, nil
}
