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
	"fmt"
	"math"
	"strings"
	"unsafe"
)

// chainNode is a node of a singly linked list stored in a nodeArena.
type chainNode[K comparable] struct {
	key K
	// next is the arena index of the following node. Index 0 is the arena's
	// sentinel and terminates the list.
	next int32
}

// nilNode terminates a chain and marks an empty bucket.
const nilNode int32 = 0

// nodeArena stores the linked list nodes of all buckets of a chaining table
// in a single slice. Nodes refer to each other by index, so a table holds no
// pointers into its own storage and is freed wholesale with the slice.
type nodeArena[K comparable] struct {
	// nodes[0] is a sentinel that is never part of a chain.
	nodes []chainNode[K]
}

func makeNodeArena[K comparable](sizeHint int) nodeArena[K] {
	return nodeArena[K]{nodes: make([]chainNode[K], 1, sizeHint+1)}
}

// push allocates a node holding key whose successor is next and returns its
// index.
func (a *nodeArena[K]) push(key K, next int32) int32 {
	if len(a.nodes) > math.MaxInt32 {
		panic("hashset: node arena exhausted")
	}
	a.nodes = append(a.nodes, chainNode[K]{key: key, next: next})
	return int32(len(a.nodes) - 1)
}

// scan walks the chain starting at head and reports whether key is in it,
// together with the number of non-matching nodes passed.
func (a *nodeArena[K]) scan(head int32, key K) (found bool, collisions int) {
	for i := head; i != nilNode; i = a.nodes[i].next {
		if a.nodes[i].key == key {
			return true, collisions
		}
		collisions++
	}
	return false, collisions
}

// chain calls yield for each key in the chain starting at head.
func (a *nodeArena[K]) chain(head int32, yield func(key K) bool) bool {
	for i := head; i != nilNode; i = a.nodes[i].next {
		if !yield(a.nodes[i].key) {
			return false
		}
	}
	return true
}

// len returns the number of allocated nodes.
func (a *nodeArena[K]) len() int {
	return len(a.nodes) - 1
}

func chainNodeSize[K comparable]() int {
	return int(unsafe.Sizeof(chainNode[K]{}))
}

// headSize is the cost of an empty bucket of a DirectChainingTable.
const headSize = int(unsafe.Sizeof(nilNode))

// DirectChainingTable is a set that keeps an independent linked list of keys
// per bucket. Inserting never fails; chains grow without bound.
type DirectChainingTable[K comparable, H Hasher[K]] struct {
	logger tableLogger
	// heads[i] is the arena index of the first node of bucket i.
	heads      []int32
	arena      nodeArena[K]
	collisions int
}

// NewDirectChainingTable constructs an empty table. The number of buckets is
// DefaultCapacity unless specified with WithCapacity.
func NewDirectChainingTable[K comparable, H Hasher[K]](options ...option) *DirectChainingTable[K, H] {
	c := makeConfig(options)
	t := &DirectChainingTable[K, H]{logger: tableLogger{c.logger}}
	t.reset(c.capacity, 0)
	return t
}

func (t *DirectChainingTable[K, H]) reset(buckets, sizeHint int) {
	t.heads = make([]int32, buckets)
	t.arena = makeNodeArena[K](sizeHint)
	t.collisions = 0
	t.checkInvariants()
}

// Has implements HashTable.
func (t *DirectChainingTable[K, H]) Has(key K) bool {
	var h H
	found, collisions := t.arena.scan(t.heads[h.Hash(key, len(t.heads))], key)
	t.collisions += collisions
	return found
}

// Insert implements HashTable. It always returns true.
func (t *DirectChainingTable[K, H]) Insert(key K) bool {
	var h H
	i := h.Hash(key, len(t.heads))
	if found, _ := t.arena.scan(t.heads[i], key); !found {
		t.heads[i] = t.arena.push(key, t.heads[i])
		t.checkInvariants()
	}
	return true
}

// ResetCollisions implements HashTable.
func (t *DirectChainingTable[K, H]) ResetCollisions() {
	t.collisions = 0
}

// Collisions implements HashTable.
func (t *DirectChainingTable[K, H]) Collisions() int {
	return t.collisions
}

// ResizeToBytes implements HashTable. The footprint of the table is modelled
// as buckets*headSize + elements*nodeSize, which is solved for the number of
// buckets.
func (t *DirectChainingTable[K, H]) ResizeToBytes(bytes, elements int) error {
	buckets, err := directBucketCount(bytes, elements, headSize, chainNodeSize[K]())
	if err != nil {
		t.logger.rejected("direct chaining", bytes, elements, err)
		return err
	}
	t.reset(buckets, elements)
	t.logger.resized("direct chaining", bytes, elements, buckets)
	return nil
}

// Len implements HashTable.
func (t *DirectChainingTable[K, H]) Len() int {
	return t.arena.len()
}

// Capacity implements HashTable.
func (t *DirectChainingTable[K, H]) Capacity() int {
	return len(t.heads)
}

// Bytes implements HashTable.
func (t *DirectChainingTable[K, H]) Bytes() int {
	return len(t.heads)*headSize + t.arena.len()*chainNodeSize[K]()
}

// All implements HashTable.
func (t *DirectChainingTable[K, H]) All(yield func(key K) bool) {
	for _, head := range t.heads {
		if !t.arena.chain(head, yield) {
			return
		}
	}
}

func (t *DirectChainingTable[K, H]) checkInvariants() {
	if invariants {
		var h H
		var nodes int
		for b, head := range t.heads {
			seen := make(map[K]struct{})
			for i := head; i != nilNode; i = t.arena.nodes[i].next {
				if nodes++; nodes > t.arena.len() {
					panic(fmt.Sprintf("invariant failed: bucket(%d): chain does not terminate\n%s",
						b, t.debugString()))
				}
				key := t.arena.nodes[i].key
				if home := h.Hash(key, len(t.heads)); home != b {
					panic(fmt.Sprintf("invariant failed: node(%d): %v in bucket %d, expected %d\n%s",
						i, key, b, home, t.debugString()))
				}
				if _, ok := seen[key]; ok {
					panic(fmt.Sprintf("invariant failed: node(%d): %v stored twice\n%s",
						i, key, t.debugString()))
				}
				seen[key] = struct{}{}
			}
		}
		if nodes != t.arena.len() {
			panic(fmt.Sprintf("invariant failed: found %d reachable nodes, but %d are allocated\n%s",
				nodes, t.arena.len(), t.debugString()))
		}
	}
}

func (t *DirectChainingTable[K, H]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "buckets=%d  nodes=%d\n", len(t.heads), t.arena.len())
	for b, head := range t.heads {
		if head == nilNode {
			continue
		}
		fmt.Fprintf(&buf, "  %4d:", b)
		t.arena.chain(head, func(key K) bool {
			fmt.Fprintf(&buf, " %v", key)
			return true
		})
		buf.WriteString("\n")
	}
	return buf.String()
}

// separateBucket holds one optional key inline and the head of the bucket's
// overflow list. Keeping the first key inline saves a node allocation for
// buckets without collisions.
type separateBucket[K comparable] struct {
	key  K
	used bool
	head int32
}

func separateBucketSize[K comparable]() int {
	return int(unsafe.Sizeof(separateBucket[K]{}))
}

// SeparateChainingTable is a set whose buckets hold one key inline and spill
// further keys into a per-bucket overflow list. Inserting never fails.
type SeparateChainingTable[K comparable, H Hasher[K]] struct {
	logger     tableLogger
	buckets    []separateBucket[K]
	arena      nodeArena[K]
	used       int
	collisions int
}

// NewSeparateChainingTable constructs an empty table. The number of buckets
// is DefaultCapacity unless specified with WithCapacity.
func NewSeparateChainingTable[K comparable, H Hasher[K]](options ...option) *SeparateChainingTable[K, H] {
	c := makeConfig(options)
	t := &SeparateChainingTable[K, H]{logger: tableLogger{c.logger}}
	t.reset(c.capacity, 0)
	return t
}

func (t *SeparateChainingTable[K, H]) reset(buckets, sizeHint int) {
	t.buckets = make([]separateBucket[K], buckets)
	t.arena = makeNodeArena[K](sizeHint)
	t.used = 0
	t.collisions = 0
	t.checkInvariants()
}

// Has implements HashTable. The inline key counts as a collision only if it
// is present and does not match.
func (t *SeparateChainingTable[K, H]) Has(key K) bool {
	var h H
	b := &t.buckets[h.Hash(key, len(t.buckets))]
	if b.used {
		if b.key == key {
			return true
		}
		t.collisions++
	}
	found, collisions := t.arena.scan(b.head, key)
	t.collisions += collisions
	return found
}

// Insert implements HashTable. It always returns true.
func (t *SeparateChainingTable[K, H]) Insert(key K) bool {
	var h H
	b := &t.buckets[h.Hash(key, len(t.buckets))]
	switch {
	case !b.used:
		b.key = key
		b.used = true
	case b.key == key:
		return true
	default:
		if found, _ := t.arena.scan(b.head, key); found {
			return true
		}
		b.head = t.arena.push(key, b.head)
	}
	t.used++
	t.checkInvariants()
	return true
}

// ResetCollisions implements HashTable.
func (t *SeparateChainingTable[K, H]) ResetCollisions() {
	t.collisions = 0
}

// Collisions implements HashTable.
func (t *SeparateChainingTable[K, H]) Collisions() int {
	return t.collisions
}

// ResizeToBytes implements HashTable. Only keys that collide cost a node, so
// the footprint depends on how many buckets stay empty. The bucket count is
// the largest one whose expected footprint fits into bytes (see
// separateBucketCount).
func (t *SeparateChainingTable[K, H]) ResizeToBytes(bytes, elements int) error {
	buckets, err := separateBucketCount(bytes, elements, separateBucketSize[K](), chainNodeSize[K]())
	if err != nil {
		t.logger.rejected("separate chaining", bytes, elements, err)
		return err
	}
	t.reset(buckets, elements)
	t.logger.resized("separate chaining", bytes, elements, buckets)
	return nil
}

// Len implements HashTable.
func (t *SeparateChainingTable[K, H]) Len() int {
	return t.used
}

// Capacity implements HashTable.
func (t *SeparateChainingTable[K, H]) Capacity() int {
	return len(t.buckets)
}

// Bytes implements HashTable.
func (t *SeparateChainingTable[K, H]) Bytes() int {
	return len(t.buckets)*separateBucketSize[K]() + t.arena.len()*chainNodeSize[K]()
}

// All implements HashTable.
func (t *SeparateChainingTable[K, H]) All(yield func(key K) bool) {
	for i := range t.buckets {
		b := &t.buckets[i]
		if !b.used {
			continue
		}
		if !yield(b.key) || !t.arena.chain(b.head, yield) {
			return
		}
	}
}

func (t *SeparateChainingTable[K, H]) checkInvariants() {
	if invariants {
		var h H
		var used int
		for i := range t.buckets {
			b := &t.buckets[i]
			if !b.used {
				if b.head != nilNode {
					panic(fmt.Sprintf("invariant failed: bucket(%d): overflow without inline key\n%s",
						i, t.debugString()))
				}
				continue
			}
			ok := h.Hash(b.key, len(t.buckets)) == i
			chainOK := t.arena.chain(b.head, func(key K) bool {
				if key == b.key || h.Hash(key, len(t.buckets)) != i {
					ok = false
				}
				used++
				return ok && used <= t.used
			})
			if !ok || !chainOK {
				panic(fmt.Sprintf("invariant failed: bucket(%d): malformed overflow chain\n%s",
					i, t.debugString()))
			}
			used++
		}
		if used != t.used {
			panic(fmt.Sprintf("invariant failed: found %d keys, but used count is %d\n%s",
				used, t.used, t.debugString()))
		}
	}
}

func (t *SeparateChainingTable[K, H]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "buckets=%d  used=%d  nodes=%d\n", len(t.buckets), t.used, t.arena.len())
	for i := range t.buckets {
		b := &t.buckets[i]
		if !b.used {
			continue
		}
		fmt.Fprintf(&buf, "  %4d: [%v]", i, b.key)
		t.arena.chain(b.head, func(key K) bool {
			fmt.Fprintf(&buf, " %v", key)
			return true
		})
		buf.WriteString("\n")
	}
	return buf.String()
}
