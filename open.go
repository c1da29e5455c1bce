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
	"strings"
	"unsafe"
)

// openSlot holds an optional key.
type openSlot[K comparable] struct {
	key  K
	used bool
}

// OpenAddressingTable is a set that stores its keys in a fixed array of
// slots. A key that collides with an occupied slot is placed in the first
// free slot along the probe sequence defined by P. The table never grows:
// once the probe sequence of a key runs out of free slots Insert fails.
type OpenAddressingTable[K comparable, H Hasher[K], P Prober] struct {
	logger tableLogger
	slots  []openSlot[K]
	// The number of occupied slots.
	used       int
	collisions int
}

// NewOpenAddressingTable constructs an empty table. The number of slots is
// DefaultCapacity unless specified with WithCapacity.
func NewOpenAddressingTable[K comparable, H Hasher[K], P Prober](
	options ...option,
) *OpenAddressingTable[K, H, P] {
	c := makeConfig(options)
	t := &OpenAddressingTable[K, H, P]{
		logger: tableLogger{c.logger},
		slots:  make([]openSlot[K], c.capacity),
	}
	t.checkInvariants()
	return t
}

// lookup walks the probe sequence of key until it finds the key, reaches an
// empty slot or runs out of attempts. It returns the number of occupied
// non-matching slots it passed.
func (t *OpenAddressingTable[K, H, P]) lookup(key K) (found bool, collisions int) {
	var h H
	seq := makeProbeSeq[P](h.Hash(key, len(t.slots)), len(t.slots))
	if debug {
		t.logger.Trace().Msgf("lookup(%v): %s", key, seq)
	}
	for ; !seq.done(); seq = seq.next() {
		s := &t.slots[seq.offset]
		if !s.used {
			// A gap ends the probe sequence: Insert would have filled it.
			return false, collisions
		}
		if s.key == key {
			return true, collisions
		}
		collisions++
	}
	return false, collisions
}

// Has implements HashTable.
func (t *OpenAddressingTable[K, H, P]) Has(key K) bool {
	found, collisions := t.lookup(key)
	t.collisions += collisions
	return found
}

// Insert implements HashTable. It returns false if the probe sequence of key
// visits capacity slots without finding a free one. That happens when the
// table is full, and with QuadraticProber it can also happen before.
func (t *OpenAddressingTable[K, H, P]) Insert(key K) bool {
	if found, _ := t.lookup(key); found {
		return true
	}
	var h H
	seq := makeProbeSeq[P](h.Hash(key, len(t.slots)), len(t.slots))
	for ; !seq.done(); seq = seq.next() {
		s := &t.slots[seq.offset]
		if !s.used {
			s.key = key
			s.used = true
			t.used++
			if debug {
				t.logger.Trace().Msgf("insert(%v): %s used=%d", key, seq, t.used)
			}
			t.checkInvariants()
			return true
		}
	}
	if debug {
		t.logger.Trace().Msgf("insert(%v): probe sequence exhausted", key)
	}
	return false
}

// ResetCollisions implements HashTable.
func (t *OpenAddressingTable[K, H, P]) ResetCollisions() {
	t.collisions = 0
}

// Collisions implements HashTable.
func (t *OpenAddressingTable[K, H, P]) Collisions() int {
	return t.collisions
}

// ResizeToBytes implements HashTable. The slots of an open addressing table
// are fixed at construction, so this only validates that the budget
// describes the table as it is: elements must fit and bytes must equal the
// size of the slot array exactly. It never reallocates and keeps stored keys.
func (t *OpenAddressingTable[K, H, P]) ResizeToBytes(bytes, elements int) error {
	if err := checkBudget(bytes, elements); err != nil {
		return err
	}
	var err error
	switch expected := t.Bytes(); {
	case elements > len(t.slots):
		err = fmt.Errorf("%w: %d elements exceed the fixed capacity of %d slots",
			ErrInvalidConfiguration, elements, len(t.slots))
	case bytes != expected:
		err = fmt.Errorf("%w: open addressing table is fixed at %d bytes, not %d",
			ErrInvalidConfiguration, expected, bytes)
	}
	if err != nil {
		t.logger.rejected("open addressing", bytes, elements, err)
		return err
	}
	t.logger.resized("open addressing", bytes, elements, len(t.slots))
	return nil
}

// Len implements HashTable.
func (t *OpenAddressingTable[K, H, P]) Len() int {
	return t.used
}

// Capacity implements HashTable.
func (t *OpenAddressingTable[K, H, P]) Capacity() int {
	return len(t.slots)
}

// Bytes implements HashTable.
func (t *OpenAddressingTable[K, H, P]) Bytes() int {
	return len(t.slots) * openSlotSize[K]()
}

// All implements HashTable.
func (t *OpenAddressingTable[K, H, P]) All(yield func(key K) bool) {
	for i := range t.slots {
		if s := &t.slots[i]; s.used {
			if !yield(s.key) {
				return
			}
		}
	}
}

func openSlotSize[K comparable]() int {
	return int(unsafe.Sizeof(openSlot[K]{}))
}

func (t *OpenAddressingTable[K, H, P]) checkInvariants() {
	if invariants {
		var used int
		for i := range t.slots {
			s := &t.slots[i]
			if !s.used {
				continue
			}
			if found, _ := t.lookup(s.key); !found {
				panic(fmt.Sprintf("invariant failed: slot(%d): %v not found\n%s",
					i, s.key, t.debugString()))
			}
			used++
		}
		if used != t.used {
			panic(fmt.Sprintf("invariant failed: found %d used slots, but used count is %d\n%s",
				used, t.used, t.debugString()))
		}
	}
}

func (t *OpenAddressingTable[K, H, P]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  used=%d\n", len(t.slots), t.used)
	for i := range t.slots {
		if s := &t.slots[i]; s.used {
			var h H
			fmt.Fprintf(&buf, "  %4d: %v [home=%d]\n", i, s.key, h.Hash(s.key, len(t.slots)))
		} else {
			fmt.Fprintf(&buf, "  %4d: empty\n", i)
		}
	}
	return buf.String()
}
