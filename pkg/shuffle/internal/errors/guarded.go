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

package errors

import "sync"

// GuardedError holds the first error reported to it. It is used by the
// worker pool in package exec to implement "construction fails atomically":
// once any partition's read or sketch fails, every other worker sees the
// latch set and stops contributing new work, and the caller discards the
// partial results.
type GuardedError struct {
	mu  sync.Mutex
	err error
}

// TrySetError stores err if no error has been stored yet. It reports
// whether the store happened.
func (g *GuardedError) TrySetError(err error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false
	}
	g.err = err
	return true
}

// Error returns the stored error, or nil if none has been set.
func (g *GuardedError) Error() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}
