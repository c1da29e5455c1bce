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
	"encoding/binary"
	"hash/maphash"
	"math"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
)

// Hasher maps a key to a bucket index in the interval [0, max). Hash must be
// deterministic and must not panic for any key when max > 0.
//
// Implementations are stateless zero-size types. Tables name their hasher as
// a type parameter and call the method on its zero value.
type Hasher[K comparable] interface {
	Hash(key K, max int) int
}

// ModHash reduces the key modulo the table size. It only looks at the low
// order bits of the key and serves as a deliberately weak baseline.
type ModHash struct{}

// Hash implements Hasher.
func (ModHash) Hash(key uint32, max int) int {
	return int(uint64(key) % uint64(max))
}

// phi is the fractional part of the golden ratio.
const phi = 0.6180339887498949

// MulHash is a multiplicative hasher. The key is multiplied by the fractional
// part of the golden ratio, whose multiples are spread as evenly as possible
// over [0, 1), and the fractional part of the product is scaled to the table
// size.
type MulHash struct{}

// Hash implements Hasher.
func (MulHash) Hash(key uint32, max int) int {
	v := float64(key) * phi
	i := int(float64(max) * (v - math.Floor(v)))
	// Rounding of max*frac can land exactly on max for fractions just
	// below 1.
	if i >= max {
		i = max - 1
	}
	return i
}

// XorShiftHash runs the key through two xorshift-multiply rounds and a
// final xorshift before reducing it modulo the table size.
type XorShiftHash struct{}

// Hash implements Hasher.
func (XorShiftHash) Hash(key uint32, max int) int {
	x := key
	x = ((x >> 16) ^ x) * 0x45d9f3b
	x = ((x >> 16) ^ x) * 0x45d9f3b
	x = (x >> 16) ^ x
	return int(uint64(x) % uint64(max))
}

func keyBytes(key uint32) [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], key)
	return b
}

// XXHash hashes the little-endian encoding of the key with XXH64.
type XXHash struct{}

// Hash implements Hasher.
func (XXHash) Hash(key uint32, max int) int {
	b := keyBytes(key)
	return int(xxhash.Sum64(b[:]) % uint64(max))
}

// XXH3Hash hashes the little-endian encoding of the key with XXH3.
type XXH3Hash struct{}

// Hash implements Hasher.
func (XXH3Hash) Hash(key uint32, max int) int {
	b := keyBytes(key)
	return int(xxh3.Hash(b[:]) % uint64(max))
}

// Murmur3Hash hashes the little-endian encoding of the key with the 32-bit
// MurmurHash3.
type Murmur3Hash struct{}

// Hash implements Hasher.
func (Murmur3Hash) Hash(key uint32, max int) int {
	b := keyBytes(key)
	return int(uint64(murmur3.Sum32(b[:])) % uint64(max))
}

// mapHashSeed is chosen once per process so that MapHash stays deterministic
// for the lifetime of any table.
var mapHashSeed = maphash.MakeSeed()

// MapHash hashes any comparable key with the hash function of Go's builtin
// map.
type MapHash[K comparable] struct{}

// Hash implements Hasher.
func (MapHash[K]) Hash(key K, max int) int {
	return int(maphash.Comparable(mapHashSeed, key) % uint64(max))
}
