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

// noNext terminates a coalesced chain.
const noNext int32 = -1

// maxCoalescedEntries is the largest entry count whose indexes fit in next.
const maxCoalescedEntries = math.MaxInt32

// coalescedEntry holds an optional key and the index of the next entry of
// its chain.
type coalescedEntry[K comparable] struct {
	key  K
	next int32
	used bool
}

func coalescedEntrySize[K comparable]() int {
	return int(unsafe.Sizeof(coalescedEntry[K]{}))
}

// CoalescedTable is a set that stores its keys in a single flat array and
// threads collision chains through it by index. A key whose home entry is
// occupied is written to the next free entry found by a cursor that only
// moves forward, and is linked to the end of the chain passing through its
// home entry. Chains of different home entries can therefore merge
// ("coalesce").
//
// Once the cursor has passed the end of the array no further keys that
// collide can be stored, but Insert still reports success.
type CoalescedTable[K comparable, H Hasher[K]] struct {
	logger  tableLogger
	entries []coalescedEntry[K]
	// cursor is the lowest index that may still be free for chain
	// extension. It never moves backwards.
	cursor     int
	used       int
	collisions int
}

// NewCoalescedTable constructs an empty table. The number of entries is
// DefaultCapacity unless specified with WithCapacity.
func NewCoalescedTable[K comparable, H Hasher[K]](options ...option) *CoalescedTable[K, H] {
	c := makeConfig(options)
	t := &CoalescedTable[K, H]{logger: tableLogger{c.logger}}
	t.reset(c.capacity)
	return t
}

func (t *CoalescedTable[K, H]) reset(entries int) {
	if entries > maxCoalescedEntries {
		panic(fmt.Sprintf("hashset: %d coalesced entries exceed %d", entries, maxCoalescedEntries))
	}
	t.entries = make([]coalescedEntry[K], entries)
	t.cursor = 0
	t.used = 0
	t.collisions = 0
	t.checkInvariants()
}

func (t *CoalescedTable[K, H]) claim(i int, key K) {
	t.entries[i] = coalescedEntry[K]{key: key, next: noNext, used: true}
	t.used++
}

// entry returns the entry at index i of a chain, which must be occupied.
func (t *CoalescedTable[K, H]) entry(i int) *coalescedEntry[K] {
	e := &t.entries[i]
	if !e.used {
		panic(fmt.Sprintf("invariant failed: chain reaches empty entry %d\n%s", i, t.debugString()))
	}
	return e
}

// Has implements HashTable. A key whose home entry is empty is absent, but
// Has claims the home entry for the key and reports true, exactly as if the
// key had been inserted. The collision statistics of the measurement
// workload depend on this combined probe and claim.
//
// Otherwise the chain starting at the home entry is walked and every
// non-matching entry counts as a collision.
func (t *CoalescedTable[K, H]) Has(key K) bool {
	var h H
	i := h.Hash(key, len(t.entries))
	if !t.entries[i].used {
		t.claim(i, key)
		t.checkInvariants()
		return true
	}
	for {
		e := t.entry(i)
		if e.key == key {
			return true
		}
		t.collisions++
		if e.next == noNext {
			return false
		}
		i = int(e.next)
	}
}

// Insert implements HashTable. It always returns true, including when the
// array is exhausted and the key could not be stored.
func (t *CoalescedTable[K, H]) Insert(key K) bool {
	var h H
	i := h.Hash(key, len(t.entries))
	if !t.entries[i].used {
		t.claim(i, key)
		t.checkInvariants()
		return true
	}
	for {
		e := t.entry(i)
		if e.key == key {
			return true
		}
		if e.next == noNext {
			break
		}
		i = int(e.next)
	}
	for ; t.cursor < len(t.entries); t.cursor++ {
		if !t.entries[t.cursor].used {
			t.claim(t.cursor, key)
			t.entries[i].next = int32(t.cursor)
			if debug {
				t.logger.Trace().Msgf("insert(%v): linked %d -> %d", key, i, t.cursor)
			}
			t.checkInvariants()
			return true
		}
	}
	if debug {
		t.logger.Trace().Msgf("insert(%v): table saturated, key dropped", key)
	}
	return true
}

// ResetCollisions implements HashTable.
func (t *CoalescedTable[K, H]) ResetCollisions() {
	t.collisions = 0
}

// Collisions implements HashTable.
func (t *CoalescedTable[K, H]) Collisions() int {
	return t.collisions
}

// ResizeToBytes implements HashTable. The table gets as many entries as fit
// into bytes, which must be at least elements.
func (t *CoalescedTable[K, H]) ResizeToBytes(bytes, elements int) error {
	entries, err := coalescedEntryCount(bytes, elements, coalescedEntrySize[K]())
	if err != nil {
		t.logger.rejected("coalesced", bytes, elements, err)
		return err
	}
	t.reset(entries)
	t.logger.resized("coalesced", bytes, elements, entries)
	return nil
}

// Len implements HashTable.
func (t *CoalescedTable[K, H]) Len() int {
	return t.used
}

// Capacity implements HashTable.
func (t *CoalescedTable[K, H]) Capacity() int {
	return len(t.entries)
}

// Bytes implements HashTable.
func (t *CoalescedTable[K, H]) Bytes() int {
	return len(t.entries) * coalescedEntrySize[K]()
}

// All implements HashTable.
func (t *CoalescedTable[K, H]) All(yield func(key K) bool) {
	for i := range t.entries {
		if e := &t.entries[i]; e.used {
			if !yield(e.key) {
				return
			}
		}
	}
}

func (t *CoalescedTable[K, H]) checkInvariants() {
	if invariants {
		var h H
		var used int
		for i := range t.entries {
			e := &t.entries[i]
			if !e.used {
				continue
			}
			used++
			// Every key must be reachable from its home entry within
			// len(entries) steps, which also rules out cycles.
			j := h.Hash(e.key, len(t.entries))
			for steps := 0; ; steps++ {
				if steps > len(t.entries) {
					panic(fmt.Sprintf("invariant failed: entry(%d): chain from %d does not terminate\n%s",
						i, h.Hash(e.key, len(t.entries)), t.debugString()))
				}
				c := t.entry(j)
				if c.key == e.key {
					break
				}
				if c.next == noNext {
					panic(fmt.Sprintf("invariant failed: entry(%d): %v not reachable from its home entry\n%s",
						i, e.key, t.debugString()))
				}
				j = int(c.next)
			}
		}
		if used != t.used {
			panic(fmt.Sprintf("invariant failed: found %d used entries, but used count is %d\n%s",
				used, t.used, t.debugString()))
		}
	}
}

func (t *CoalescedTable[K, H]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "entries=%d  used=%d  cursor=%d\n", len(t.entries), t.used, t.cursor)
	for i := range t.entries {
		switch e := &t.entries[i]; {
		case !e.used:
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
		case e.next == noNext:
			fmt.Fprintf(&buf, "  %4d: %v\n", i, e.key)
		default:
			fmt.Fprintf(&buf, "  %4d: %v -> %d\n", i, e.key, e.next)
		}
	}
	return buf.String()
}
