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
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProbers(t *testing.T) {
	var linear, quadratic, triangular []int
	for i := 1; i <= 6; i++ {
		linear = append(linear, LinearProber{}.Probe(i))
		quadratic = append(quadratic, QuadraticProber{}.Probe(i))
		triangular = append(triangular, TriangularProber{}.Probe(i))
	}
	require.Equal(t, []int{1, 2, 3, 4, 5, 6}, linear)
	require.Equal(t, []int{1, 4, 9, 16, 25, 36}, quadratic)
	require.Equal(t, []int{1, 3, 6, 10, 15, 21}, triangular)
}

func genSeq[P Prober](n, home, capacity int) []int {
	seq := makeProbeSeq[P](home, capacity)
	var vals []int
	for ; !seq.done() && len(vals) < n; seq = seq.next() {
		vals = append(vals, seq.offset)
	}
	return vals
}

func genSlots(n int) []int {
	var vals []int
	for i := 0; i < n; i++ {
		vals = append(vals, i)
	}
	return vals
}

func TestProbeSeq(t *testing.T) {
	require.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, genSeq[LinearProber](8, 0, 8))
	require.Equal(t, []int{6, 7, 0, 1, 2, 3, 4, 5}, genSeq[LinearProber](8, 6, 8))
	require.Equal(t, []int{0, 1, 4, 1, 0, 1, 4, 1}, genSeq[QuadraticProber](8, 0, 8))
	require.Equal(t, []int{0, 1, 3, 6, 2, 7, 5, 4}, genSeq[TriangularProber](8, 0, 8))

	// A walk is bounded by the capacity.
	require.Len(t, genSeq[QuadraticProber](100, 3, 16), 16)
}

func TestTriangularProbeCoverage(t *testing.T) {
	// Triangular probing visits every slot of a power of two sized table
	// exactly once, no matter where it starts.
	for _, capacity := range []int{1, 2, 4, 16, 64, 1024} {
		for home := 0; home < capacity; home += 1 + capacity/8 {
			vals := genSeq[TriangularProber](capacity, home, capacity)
			sort.Ints(vals)
			require.Equal(t, genSlots(capacity), vals, "capacity=%d home=%d", capacity, home)
		}
	}
}

func TestQuadraticProbeCoverage(t *testing.T) {
	// Quadratic probing does not reach every slot: the squares modulo 16
	// are {0, 1, 4, 9}.
	seen := make(map[int]struct{})
	for _, v := range genSeq[QuadraticProber](16, 0, 16) {
		seen[v] = struct{}{}
	}
	require.Len(t, seen, 4)
}
