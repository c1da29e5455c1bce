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

// Package stats measures how many collisions and how much time lookups in
// a hashset.HashTable cost at a given load factor.
package stats

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog"

	"github.com/cockroachdb/hashset"
)

// maxAttempts bounds how often a measurement is restarted with fresh keys
// after an insert failed.
const maxAttempts = 100

// Result holds the averages measured at one load factor. A field is NaN if
// no measurement could be taken.
type Result struct {
	// SuccessCollisions is the mean number of collisions of a lookup that
	// found its key.
	SuccessCollisions float64
	// SuccessTime is the mean duration in nanoseconds of a lookup of an
	// inserted key.
	SuccessTime float64
	// FailureCollisions is the mean number of collisions of a lookup that
	// did not find its key.
	FailureCollisions float64
	// FailureTime is the mean duration in nanoseconds of a lookup of a
	// random key.
	FailureTime float64
}

func nanResult() Result {
	nan := math.NaN()
	return Result{nan, nan, nan, nan}
}

// Runner measures the tables produced by a builder.
type Runner struct {
	Builder hashset.Builder[uint32]
	// Capacity is the element count a load factor of 1 corresponds to.
	Capacity int
	// Resize shapes every table to BudgetBytes before it is filled, so that
	// all variants occupy about the same memory.
	Resize      bool
	BudgetBytes int
	// Samples is the number of random lookups per measurement.
	Samples int
	// Iterations is the number of measurements averaged per load factor.
	Iterations int
	Rand       *rand.Rand
	Logger     zerolog.Logger
}

func (r *Runner) validate() error {
	switch {
	case r.Builder == nil:
		return fmt.Errorf("stats: no builder")
	case r.Capacity < 1:
		return fmt.Errorf("stats: capacity %d < 1", r.Capacity)
	case r.Samples < 1:
		return fmt.Errorf("stats: samples %d < 1", r.Samples)
	case r.Iterations < 1:
		return fmt.Errorf("stats: iterations %d < 1", r.Iterations)
	case r.Rand == nil:
		return fmt.Errorf("stats: no random source")
	}
	return nil
}

// Sweep measures every load factor in turn. It stops early if ctx is
// cancelled.
func (r *Runner) Sweep(ctx context.Context, loadFactors []float64) ([]Result, error) {
	results := make([]Result, 0, len(loadFactors))
	for _, lf := range loadFactors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := r.Measure(lf)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Measure averages Iterations measurements of tables filled to the load
// factor lf. If any measurement gives up, the result is NaN.
func (r *Runner) Measure(lf float64) (Result, error) {
	if err := r.validate(); err != nil {
		return Result{}, err
	}
	if lf < 0 || math.IsNaN(lf) {
		return Result{}, fmt.Errorf("stats: invalid load factor %v", lf)
	}
	fill := int(min(lf*float64(r.Capacity), float64(r.Capacity)))

	var sum Result
	for i := 0; i < r.Iterations; i++ {
		res, ok := r.measure(fill)
		if !ok {
			r.Logger.Warn().Float64("load_factor", lf).Int("fill", fill).
				Msg("giving up after repeated insert failures")
			return nanResult(), nil
		}
		sum.SuccessCollisions += res.SuccessCollisions
		sum.SuccessTime += res.SuccessTime
		sum.FailureCollisions += res.FailureCollisions
		sum.FailureTime += res.FailureTime
	}
	n := float64(r.Iterations)
	return Result{
		SuccessCollisions: sum.SuccessCollisions / n,
		SuccessTime:       sum.SuccessTime / n,
		FailureCollisions: sum.FailureCollisions / n,
		FailureTime:       sum.FailureTime / n,
	}, nil
}

// measure fills a fresh table with fill random keys and measures it,
// restarting with fresh keys whenever an insert fails. It reports false
// once maxAttempts restarts have failed.
func (r *Runner) measure(fill int) (Result, bool) {
	for attempt := 0; attempt <= maxAttempts; attempt++ {
		table := r.Builder.Build()
		if r.Resize {
			// A table that cannot take the budget is measured as built.
			if err := table.ResizeToBytes(r.BudgetBytes, fill); err != nil {
				r.Logger.Debug().Err(err).Int("fill", fill).Msg("measuring table without resize")
			}
		}
		keys, ok := r.fill(table, fill)
		if !ok {
			r.Logger.Debug().Int("attempt", attempt).Int("fill", fill).Msg("insert failed, retrying")
			continue
		}
		return r.lookups(table, keys), true
	}
	return Result{}, false
}

// fill inserts n distinct random keys into table.
func (r *Runner) fill(table hashset.HashTable[uint32], n int) ([]uint32, bool) {
	seen := mapset.NewThreadUnsafeSetWithSize[uint32](n)
	keys := make([]uint32, 0, n)
	for len(keys) < n {
		k := r.Rand.Uint32()
		if !seen.Add(k) {
			continue
		}
		if !table.Insert(k) {
			return nil, false
		}
		keys = append(keys, k)
	}
	return keys, true
}

func (r *Runner) lookups(table hashset.HashTable[uint32], keys []uint32) Result {
	start := time.Now()
	for _, k := range keys {
		table.Has(k)
	}
	successTime := time.Since(start)

	// Random keys are assumed to miss.
	start = time.Now()
	for i := 0; i < r.Samples; i++ {
		table.Has(r.Rand.Uint32())
	}
	failureTime := time.Since(start)

	var hits, misses, hitCollisions, missCollisions int
	count := func(k uint32) bool {
		table.ResetCollisions()
		found := table.Has(k)
		if found {
			hits++
			hitCollisions += table.Collisions()
		} else {
			misses++
			missCollisions += table.Collisions()
		}
		return found
	}
	for _, k := range keys {
		if !count(k) {
			r.Logger.Warn().Uint32("key", k).Msg("inserted key not found")
		}
	}
	for i := 0; i < r.Samples; i++ {
		count(r.Rand.Uint32())
	}

	return Result{
		SuccessCollisions: ratio(hitCollisions, hits),
		SuccessTime:       perOp(successTime, len(keys)),
		FailureCollisions: ratio(missCollisions, misses),
		FailureTime:       perOp(failureTime, r.Samples),
	}
}

func perOp(d time.Duration, ops int) float64 {
	return ratio(int(d.Nanoseconds()), ops)
}

func ratio(a, b int) float64 {
	if b == 0 {
		return math.NaN()
	}
	return float64(a) / float64(b)
}
