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

// Package hashset implements an in-memory set with pluggable collision
// resolution, hash functions and probe sequences. Every table counts the
// collisions it encounters during lookups so that the different strategies
// can be compared against each other.
//
// # Variants
//
// Four collision resolution strategies are provided:
//
//   - OpenAddressingTable stores keys directly in a fixed array of slots and
//     resolves collisions by walking a probe sequence (linear, quadratic or
//     triangular). Its size never changes after construction.
//   - DirectChainingTable keeps a singly linked list per bucket.
//   - SeparateChainingTable keeps one key inline in each bucket and spills
//     further keys into a per-bucket overflow list.
//   - CoalescedTable threads collision chains through unused slots of a single
//     flat array. A monotonic cursor hands out the free slots.
//
// The linked lists of the chaining tables are arena allocated: nodes live in
// one growable slice and refer to each other by index rather than by pointer.
//
// # Specialisation
//
// Hashers and probers are zero-size types passed as type parameters, e.g.
//
//	t := NewOpenAddressingTable[uint32, MulHash, TriangularProber]()
//
// so a table is specialised for its strategy at compile time. The HashTable
// and Builder interfaces are only used at the boundary where heterogeneous
// configurations have to be treated uniformly (see NewBuilder and
// StandardConfigs).
//
// # Byte budgets
//
// The variants have differently shaped storage. ResizeToBytes translates a
// memory budget and an expected element count into a bucket count so that
// the variants can be compared at an equal footprint. It discards any stored
// keys and must be called before the first insert.
//
// # Deletion
//
// There is none. Tables only grow in occupancy until they are dropped, and
// they never grow in capacity on their own.
package hashset

import "fmt"

const (
	debug = false

	// DefaultCapacity is the number of slots or buckets a table is created
	// with when WithCapacity is not given.
	DefaultCapacity = 1 << 15
)

// HashTable is a set of keys that counts the collisions encountered while
// looking keys up.
//
// A HashTable is NOT goroutine-safe.
type HashTable[K comparable] interface {
	// Has reports whether key is in the set. Every occupied but
	// non-matching slot or node examined is counted as a collision.
	Has(key K) bool
	// Insert adds key to the set. It returns true if the key is present
	// afterwards (including when it already was) and false only if the table
	// could not find room for it.
	Insert(key K) bool
	// ResetCollisions sets the collision counter to zero.
	ResetCollisions()
	// Collisions returns the number of collisions counted since the last
	// reset.
	Collisions() int
	// ResizeToBytes reshapes the table so that holding elements keys takes
	// approximately bytes of memory. Any stored keys are discarded. An
	// infeasible budget returns an error wrapping ErrInvalidConfiguration
	// and leaves the table untouched.
	ResizeToBytes(bytes, elements int) error
	// Len returns the number of keys in the set.
	Len() int
	// Capacity returns the number of slots or buckets of the table.
	Capacity() int
	// Bytes returns the modelled memory footprint of the table's storage.
	Bytes() int
	// All calls yield for each key in the set in an unspecified order. If
	// yield returns false, iteration stops.
	All(yield func(key K) bool)
}

// checkBudget rejects budgets that no variant can satisfy.
func checkBudget(bytes, elements int) error {
	if bytes < 0 || elements < 0 {
		return fmt.Errorf("%w: negative budget (bytes=%d elements=%d)",
			ErrInvalidConfiguration, bytes, elements)
	}
	return nil
}
