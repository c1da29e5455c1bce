// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hashset

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// zeroHash sends every key to bucket 0, making every key collide.
type zeroHash struct{}

func (zeroHash) Hash(key uint32, max int) int {
	return 0
}

// lastHash sends every key to the last bucket.
type lastHash struct{}

func (lastHash) Hash(key uint32, max int) int {
	return max - 1
}

// toSet returns the keys of a table as a set. Useful for testing.
func toSet[K comparable](t HashTable[K]) mapset.Set[K] {
	s := mapset.NewThreadUnsafeSet[K]()
	t.All(func(key K) bool {
		s.Add(key)
		return true
	})
	return s
}

// degenerateBuilders returns builders of every variant whose hasher maps
// all keys to the same bucket.
func degenerateBuilders(capacity int) map[string]Builder[uint32] {
	return map[string]Builder[uint32]{
		"open/linear/zero":     NewOpenAddressingBuilder[uint32, zeroHash, LinearProber](WithCapacity(capacity)),
		"open/triangular/last": NewOpenAddressingBuilder[uint32, lastHash, TriangularProber](WithCapacity(capacity)),
		"direct/zero":          NewDirectChainingBuilder[uint32, zeroHash](WithCapacity(capacity)),
		"separate/last":        NewSeparateChainingBuilder[uint32, lastHash](WithCapacity(capacity)),
		"coalesced/zero":       NewCoalescedBuilder[uint32, zeroHash](WithCapacity(capacity)),
		"coalesced/last":       NewCoalescedBuilder[uint32, lastHash](WithCapacity(capacity)),
	}
}
