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

package stats

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/cockroachdb/hashset"
)

func newRunner(t *testing.T, c hashset.Config, capacity int) *Runner {
	b, err := hashset.NewBuilder(c, hashset.WithCapacity(capacity))
	require.NoError(t, err)
	return &Runner{
		Builder:     b,
		Capacity:    capacity,
		Resize:      true,
		BudgetBytes: capacity << 3,
		Samples:     1 << 10,
		Iterations:  2,
		Rand:        rand.New(rand.NewPCG(1, 2)),
		Logger:      zerolog.Nop(),
	}
}

func TestMeasure(t *testing.T) {
	for _, c := range hashset.StandardConfigs() {
		t.Run(c.String(), func(t *testing.T) {
			r := newRunner(t, c, 1<<10)
			res, err := r.Measure(0.25)
			require.NoError(t, err)
			require.False(t, math.IsNaN(res.SuccessCollisions))
			require.False(t, math.IsNaN(res.FailureCollisions))
			require.GreaterOrEqual(t, res.SuccessCollisions, 0.0)
			require.GreaterOrEqual(t, res.FailureCollisions, 0.0)
			require.GreaterOrEqual(t, res.SuccessTime, 0.0)
			require.GreaterOrEqual(t, res.FailureTime, 0.0)
		})
	}
}

func TestMeasureSingleKey(t *testing.T) {
	c := hashset.Config{Variant: hashset.DirectChaining, Hash: hashset.XorShift}
	r := newRunner(t, c, 1<<10)
	r.Resize = false
	// One key in 1024 buckets: a hit never collides, a miss collides at
	// most once.
	res, err := r.Measure(1.0 / 1024)
	require.NoError(t, err)
	require.EqualValues(t, 0, res.SuccessCollisions)
	require.LessOrEqual(t, res.FailureCollisions, 1.0)
}

func TestMeasureGivesUp(t *testing.T) {
	var builds int
	r := newRunner(t, hashset.Config{Variant: hashset.OpenAddressing, Hash: hashset.Mod, Probe: hashset.Linear}, 8)
	// The tables are smaller than the fill, so every attempt fails.
	r.Builder = hashset.BuilderFunc[uint32](func() hashset.HashTable[uint32] {
		builds++
		return hashset.NewOpenAddressingTable[uint32, hashset.ModHash, hashset.LinearProber](hashset.WithCapacity(4))
	})
	r.Resize = false
	res, err := r.Measure(1)
	require.NoError(t, err)
	require.True(t, math.IsNaN(res.SuccessCollisions))
	require.True(t, math.IsNaN(res.SuccessTime))
	require.True(t, math.IsNaN(res.FailureCollisions))
	require.True(t, math.IsNaN(res.FailureTime))
	require.Equal(t, maxAttempts+1, builds)
}

func TestMeasureInvalid(t *testing.T) {
	c := hashset.Config{Variant: hashset.Coalesced, Hash: hashset.Mul}
	for name, mutate := range map[string]func(r *Runner){
		"builder":    func(r *Runner) { r.Builder = nil },
		"capacity":   func(r *Runner) { r.Capacity = 0 },
		"samples":    func(r *Runner) { r.Samples = 0 },
		"iterations": func(r *Runner) { r.Iterations = 0 },
		"rand":       func(r *Runner) { r.Rand = nil },
	} {
		t.Run(name, func(t *testing.T) {
			r := newRunner(t, c, 64)
			mutate(r)
			_, err := r.Measure(0.5)
			require.Error(t, err)
		})
	}

	r := newRunner(t, c, 64)
	_, err := r.Measure(-0.1)
	require.Error(t, err)
	_, err = r.Measure(math.NaN())
	require.Error(t, err)
}

func TestSweep(t *testing.T) {
	c := hashset.Config{Variant: hashset.SeparateChaining, Hash: hashset.Mul}
	r := newRunner(t, c, 1<<9)
	loadFactors := []float64{0.1, 0.5, 0.9, 2}
	results, err := r.Sweep(context.Background(), loadFactors)
	require.NoError(t, err)
	require.Len(t, results, len(loadFactors))
	for _, res := range results {
		require.False(t, math.IsNaN(res.SuccessCollisions))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Sweep(ctx, loadFactors)
	require.ErrorIs(t, err, context.Canceled)
}
