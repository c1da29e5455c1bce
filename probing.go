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

import "fmt"

// Prober provides the offset from a key's home slot at the i'th attempt of
// an open addressing probe sequence. Probe is only called with i >= 1 and
// must return a non-negative offset.
type Prober interface {
	Probe(i int) int
}

// LinearProber tries every slot after the home slot in order.
type LinearProber struct{}

// Probe implements Prober.
func (LinearProber) Probe(i int) int {
	return i
}

// QuadraticProber uses i^2 as the offset. It clusters less than linear
// probing, but the sequence does not cycle through every slot: with a table
// of 16 slots only 4 distinct offsets are ever produced. An insert can
// therefore fail while free slots remain elsewhere in the table.
type QuadraticProber struct{}

// Probe implements Prober.
func (QuadraticProber) Probe(i int) int {
	return i * i
}

// TriangularProber uses the triangular numbers i(i+1)/2 as the offset, which
// is the probing scheme used by the Swiss table implementations. When the
// table size is a power of two the sequence visits every slot exactly once.
type TriangularProber struct{}

// Probe implements Prober.
func (TriangularProber) Probe(i int) int {
	return (i * (i + 1)) >> 1
}

// probeSeq maintains the state for a probe sequence over a table of capacity
// slots. The slot examined at attempt i is
//
//	p(0) := home
//	p(i) := (home + P.Probe(i)) mod capacity
//
// A walk is bounded by capacity attempts.
type probeSeq[P Prober] struct {
	home     int
	capacity int
	attempt  int
	offset   int
}

func makeProbeSeq[P Prober](home, capacity int) probeSeq[P] {
	return probeSeq[P]{
		home:     home,
		capacity: capacity,
		offset:   home,
	}
}

// done reports whether the walk has used up its attempts.
func (s probeSeq[P]) done() bool {
	return s.attempt >= s.capacity
}

func (s probeSeq[P]) next() probeSeq[P] {
	var p P
	s.attempt++
	s.offset = int((uint64(s.home) + uint64(p.Probe(s.attempt))) % uint64(s.capacity))
	return s
}

func (s probeSeq[P]) String() string {
	return fmt.Sprintf("capacity=%d home=%d attempt=%d offset=%d",
		s.capacity, s.home, s.attempt, s.offset)
}
