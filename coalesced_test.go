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
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoalescedHasClaimsEmptyHome(t *testing.T) {
	table := NewCoalescedTable[uint32, ModHash](WithCapacity(8))
	require.True(t, table.Has(3))
	require.EqualValues(t, 1, table.Len())
	require.EqualValues(t, 0, table.Collisions())
	require.Equal(t, []uint32{3}, toSet[uint32](table).ToSlice())

	require.True(t, table.Insert(3))
	require.True(t, table.Has(3))
	require.EqualValues(t, 1, table.Len())
}

func TestCoalescedCollisions(t *testing.T) {
	table := NewCoalescedTable[uint32, zeroHash](WithCapacity(8))
	for k := uint32(1); k <= 3; k++ {
		require.True(t, table.Insert(k))
	}
	require.EqualValues(t, 0, table.Collisions())
	// The cursor hands out slots 1 and 2 for the colliding keys.
	require.EqualValues(t, 1, table.entries[0].next)
	require.EqualValues(t, 2, table.entries[1].next)
	require.EqualValues(t, noNext, table.entries[2].next)

	testCases := []struct {
		key        uint32
		found      bool
		collisions int
	}{
		{1, true, 0},
		{2, true, 1},
		{3, true, 2},
		{9, false, 3},
	}
	for _, c := range testCases {
		t.Run(fmt.Sprint(c.key), func(t *testing.T) {
			table.ResetCollisions()
			require.Equal(t, c.found, table.Has(c.key))
			require.EqualValues(t, c.collisions, table.Collisions())
		})
	}
}

func TestCoalescedChainsMerge(t *testing.T) {
	table := NewCoalescedTable[uint32, ModHash](WithCapacity(4))
	// 0 lands on its home 0, 4 collides and is placed in 1, which is the
	// home of 1. 1 is then appended to the chain running through 1.
	for _, k := range []uint32{0, 4, 1} {
		require.True(t, table.Insert(k))
	}
	require.Equal(t, []int32{1, 2, noNext}, []int32{
		table.entries[0].next, table.entries[1].next, table.entries[2].next,
	})

	testCases := []struct {
		key        uint32
		found      bool
		collisions int
	}{
		{0, true, 0},
		{4, true, 1},
		{1, true, 1},
		{8, false, 3},
	}
	for _, c := range testCases {
		t.Run(fmt.Sprint(c.key), func(t *testing.T) {
			table.ResetCollisions()
			require.Equal(t, c.found, table.Has(c.key))
			require.EqualValues(t, c.collisions, table.Collisions())
		})
	}
}

func TestCoalescedSaturation(t *testing.T) {
	table := NewCoalescedTable[uint32, zeroHash](WithCapacity(4))
	for k := uint32(1); k <= 4; k++ {
		require.True(t, table.Insert(k))
	}
	require.EqualValues(t, 4, table.Len())

	// The array is exhausted. Insert still reports success but stores
	// nothing.
	for k := uint32(5); k <= 8; k++ {
		require.True(t, table.Insert(k))
	}
	require.EqualValues(t, 4, table.Len())
	require.EqualValues(t, 4, table.cursor)

	for k := uint32(1); k <= 4; k++ {
		require.True(t, table.Has(k))
	}
	table.ResetCollisions()
	require.False(t, table.Has(5))
	require.EqualValues(t, 4, table.Collisions())
}

func TestCoalescedSaturationRandom(t *testing.T) {
	table := NewCoalescedTable[uint32, XorShiftHash](WithCapacity(64))
	var inserted []uint32
	for i := 0; i < 256; i++ {
		k := rand.Uint32()
		require.True(t, table.Insert(k))
		inserted = append(inserted, k)
	}
	require.EqualValues(t, 64, table.Len())

	// Every key that made it in is still found.
	stored := toSet[uint32](table)
	require.EqualValues(t, 64, stored.Cardinality())
	for _, k := range inserted {
		if stored.Contains(k) {
			require.True(t, table.Has(k))
		}
	}
	require.EqualValues(t, 64, table.Len())
}

func TestCoalescedDataInconsistency(t *testing.T) {
	table := NewCoalescedTable[uint32, zeroHash](WithCapacity(4))
	require.True(t, table.Insert(1))
	require.True(t, table.Insert(2))

	// Point the chain at an empty entry.
	table.entries[1].next = 3
	require.Panics(t, func() { table.Has(99) })
	require.Panics(t, func() { table.Insert(99) })
}

func TestCoalescedEntryLimit(t *testing.T) {
	// Entry indexes are stored as int32.
	capacity := maxCoalescedEntries
	capacity++
	require.Panics(t, func() {
		NewCoalescedTable[uint32, ModHash](WithCapacity(capacity))
	})

	if strconv.IntSize < 64 {
		t.Skip("budget does not fit in int")
	}
	table := NewCoalescedTable[uint32, ModHash](WithCapacity(8))
	require.True(t, table.Insert(7))
	err := table.ResizeToBytes(capacity*coalescedEntrySize[uint32](), 0)
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	require.EqualValues(t, 8, table.Capacity())
	require.True(t, table.Has(7))
}

func TestCoalescedResizeToBytes(t *testing.T) {
	require.Equal(t, 12, coalescedEntrySize[uint32]())

	testCases := []struct {
		bytes    int
		elements int
		entries  int
	}{
		{120, 10, 10},
		{131, 10, 10},
		{119, 10, 0},
		{12, 0, 1},
		{11, 0, 0},
		{120, -1, 0},
	}
	for _, c := range testCases {
		t.Run(fmt.Sprintf("bytes=%d,elements=%d", c.bytes, c.elements), func(t *testing.T) {
			table := NewCoalescedTable[uint32, MulHash](WithCapacity(8))
			require.True(t, table.Insert(7))

			err := table.ResizeToBytes(c.bytes, c.elements)
			if c.entries == 0 {
				require.ErrorIs(t, err, ErrInvalidConfiguration)
				require.EqualValues(t, 8, table.Capacity())
				require.True(t, table.Has(7))
				return
			}
			require.NoError(t, err)
			require.EqualValues(t, c.entries, table.Capacity())
			require.EqualValues(t, 0, table.Len())
			require.EqualValues(t, 0, table.cursor)
		})
	}
}
