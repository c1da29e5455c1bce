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
)

// directBucketCount solves bytes = buckets*headSize + elements*nodeSize for
// the number of buckets. It fails if the nodes for elements keys leave no
// room for a single bucket.
func directBucketCount(bytes, elements, headSize, nodeSize int) (int, error) {
	if err := checkBudget(bytes, elements); err != nil {
		return 0, err
	}
	available := bytes - elements*nodeSize
	if available < headSize {
		return 0, fmt.Errorf("%w: %d bytes cannot hold %d nodes of %d bytes and a bucket",
			ErrInvalidConfiguration, bytes, elements, nodeSize)
	}
	return available / headSize, nil
}

// expectedEmptyBuckets returns the expected number of empty buckets after
// distributing elements keys uniformly at random over buckets buckets:
//
//	buckets * ((buckets-1)/buckets)^elements
func expectedEmptyBuckets(buckets, elements int) float64 {
	if buckets <= 0 {
		return 0
	}
	b := float64(buckets)
	return b * math.Pow((b-1)/b, float64(elements))
}

// separateFootprint returns the expected footprint of a separate chaining
// table with the given number of buckets holding elements keys. Every bucket
// costs bucketSize. A key only needs an overflow node if its bucket is
// already occupied, and the number of occupied buckets is the number of
// buckets minus the expected empty ones.
func separateFootprint(buckets, elements, bucketSize, nodeSize int) float64 {
	overflow := float64(elements) - float64(buckets) + expectedEmptyBuckets(buckets, elements)
	if overflow < 0 {
		overflow = 0
	}
	return float64(buckets)*float64(bucketSize) + overflow*float64(nodeSize)
}

// separateBucketCount returns the largest number of buckets b >= 1 whose
// expected footprint (see separateFootprint) does not exceed bytes. When all
// sizes are one unit the condition reads elements + expectedEmpty(b) <= bytes.
//
// The footprint has no closed-form inverse. It grows monotonically with b as
// long as a bucket is not smaller than a node, so b is found by bisection:
// starting from the largest power of two not above bytes/bucketSize, the
// step is halved each round and taken whenever the result still fits. This
// ends with a tolerance of one bucket.
func separateBucketCount(bytes, elements, bucketSize, nodeSize int) (int, error) {
	if err := checkBudget(bytes, elements); err != nil {
		return 0, err
	}
	fits := func(b int) bool {
		return separateFootprint(b, elements, bucketSize, nodeSize) <= float64(bytes)
	}
	if !fits(1) {
		return 0, fmt.Errorf("%w: %d bytes cannot hold %d keys in a single bucket",
			ErrInvalidConfiguration, bytes, elements)
	}
	// Every bucket costs at least bucketSize, so bytes/bucketSize bounds b.
	limit := bytes / bucketSize
	step := 1
	for step*2 <= limit {
		step *= 2
	}
	b := 1
	for ; step > 0; step /= 2 {
		if b+step <= limit && fits(b+step) {
			b += step
		}
	}
	return b, nil
}

// coalescedEntryCount returns the number of entries of entrySize that fit
// into bytes. It fails if they cannot hold elements keys.
func coalescedEntryCount(bytes, elements, entrySize int) (int, error) {
	if err := checkBudget(bytes, elements); err != nil {
		return 0, err
	}
	entries := bytes / entrySize
	if entries > maxCoalescedEntries {
		return 0, fmt.Errorf("%w: %d entries exceed the addressable %d",
			ErrInvalidConfiguration, entries, maxCoalescedEntries)
	}
	if entries < elements || entries < 1 {
		return 0, fmt.Errorf("%w: %d bytes hold %d entries, fewer than %d elements",
			ErrInvalidConfiguration, bytes, entries, elements)
	}
	return entries, nil
}
