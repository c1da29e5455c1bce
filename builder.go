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
)

// Builder creates fresh, empty tables of one configuration. It lets code
// that measures tables stay unaware of the concrete table type.
type Builder[K comparable] interface {
	Build() HashTable[K]
}

// BuilderFunc adapts a function to the Builder interface.
type BuilderFunc[K comparable] func() HashTable[K]

// Build implements Builder.
func (f BuilderFunc[K]) Build() HashTable[K] {
	return f()
}

// NewOpenAddressingBuilder returns a Builder of OpenAddressingTables. The
// options are applied to every table built.
func NewOpenAddressingBuilder[K comparable, H Hasher[K], P Prober](options ...option) Builder[K] {
	return BuilderFunc[K](func() HashTable[K] {
		return NewOpenAddressingTable[K, H, P](options...)
	})
}

// NewDirectChainingBuilder returns a Builder of DirectChainingTables.
func NewDirectChainingBuilder[K comparable, H Hasher[K]](options ...option) Builder[K] {
	return BuilderFunc[K](func() HashTable[K] {
		return NewDirectChainingTable[K, H](options...)
	})
}

// NewSeparateChainingBuilder returns a Builder of SeparateChainingTables.
func NewSeparateChainingBuilder[K comparable, H Hasher[K]](options ...option) Builder[K] {
	return BuilderFunc[K](func() HashTable[K] {
		return NewSeparateChainingTable[K, H](options...)
	})
}

// NewCoalescedBuilder returns a Builder of CoalescedTables.
func NewCoalescedBuilder[K comparable, H Hasher[K]](options ...option) Builder[K] {
	return BuilderFunc[K](func() HashTable[K] {
		return NewCoalescedTable[K, H](options...)
	})
}

// Variant identifies a collision resolution strategy.
type Variant int

const (
	OpenAddressing Variant = iota
	DirectChaining
	SeparateChaining
	Coalesced
)

var variantNames = [...]string{
	OpenAddressing:   "Open",
	DirectChaining:   "Direct",
	SeparateChaining: "Separate",
	Coalesced:        "Coalesced",
}

func (v Variant) String() string {
	if v < 0 || int(v) >= len(variantNames) {
		return fmt.Sprintf("Variant(%d)", int(v))
	}
	return variantNames[v]
}

// HashKind identifies one of the uint32 hashers.
type HashKind int

const (
	Mod HashKind = iota
	Mul
	XorShift
	XX
	XXH3
	Murmur3
)

var hashNames = [...]string{
	Mod:      "Mod",
	Mul:      "Mul",
	XorShift: "XOR",
	XX:       "XXH64",
	XXH3:     "XXH3",
	Murmur3:  "Murmur3",
}

func (h HashKind) String() string {
	if h < 0 || int(h) >= len(hashNames) {
		return fmt.Sprintf("HashKind(%d)", int(h))
	}
	return hashNames[h]
}

// ProbeKind identifies a prober. Only open addressing uses one.
type ProbeKind int

const (
	NoProbe ProbeKind = iota
	Linear
	Quadratic
	Triangular
)

var probeNames = [...]string{
	NoProbe:    "None",
	Linear:     "Linear",
	Quadratic:  "Quadratic",
	Triangular: "Triangular",
}

func (p ProbeKind) String() string {
	if p < 0 || int(p) >= len(probeNames) {
		return fmt.Sprintf("ProbeKind(%d)", int(p))
	}
	return probeNames[p]
}

// Config names a combination of variant, hasher and prober over uint32
// keys. Probe must be NoProbe for every variant but OpenAddressing.
type Config struct {
	Variant Variant
	Hash    HashKind
	Probe   ProbeKind
}

// String returns the display name of the configuration: the prober and
// hasher for open addressing ("Quadratic Mul"), the variant and hasher
// otherwise ("Direct XOR"). ParseConfig accepts these names.
func (c Config) String() string {
	if c.Variant == OpenAddressing {
		return c.Probe.String() + " " + c.Hash.String()
	}
	return c.Variant.String() + " " + c.Hash.String()
}

func (c Config) validate() error {
	if c.Hash < 0 || int(c.Hash) >= len(hashNames) {
		return fmt.Errorf("%w: %s", ErrUnknownConfig, c.Hash)
	}
	switch c.Variant {
	case OpenAddressing:
		if c.Probe <= NoProbe || int(c.Probe) >= len(probeNames) {
			return fmt.Errorf("%w: open addressing requires a prober, got %s", ErrUnknownConfig, c.Probe)
		}
	case DirectChaining, SeparateChaining, Coalesced:
		if c.Probe != NoProbe {
			return fmt.Errorf("%w: %s does not probe, got %s", ErrUnknownConfig, c.Variant, c.Probe)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownConfig, c.Variant)
	}
	return nil
}

func lookupName[T ~int](names []string, s string) (T, bool) {
	for i, name := range names {
		if strings.EqualFold(name, s) {
			return T(i), true
		}
	}
	return 0, false
}

// ParseConfig parses a configuration name as returned by Config.String.
// Names are matched case-insensitively.
func ParseConfig(s string) (Config, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownConfig, s)
	}
	hash, ok := lookupName[HashKind](hashNames[:], fields[1])
	if !ok {
		return Config{}, fmt.Errorf("%w: unknown hasher %q", ErrUnknownConfig, fields[1])
	}
	c := Config{Hash: hash}
	if probe, ok := lookupName[ProbeKind](probeNames[:], fields[0]); ok && probe != NoProbe {
		c.Variant = OpenAddressing
		c.Probe = probe
	} else if variant, ok := lookupName[Variant](variantNames[:], fields[0]); ok && variant != OpenAddressing {
		c.Variant = variant
	} else {
		return Config{}, fmt.Errorf("%w: unknown variant or prober %q", ErrUnknownConfig, fields[0])
	}
	return c, nil
}

// StandardConfigs returns the combinations of the four variants with the
// modulo, multiplicative and xorshift hashers, and for open addressing with
// each of the three probers.
func StandardConfigs() []Config {
	hashes := []HashKind{Mul, Mod, XorShift}
	var configs []Config
	for _, p := range []ProbeKind{Quadratic, Linear, Triangular} {
		for _, h := range hashes {
			configs = append(configs, Config{Variant: OpenAddressing, Hash: h, Probe: p})
		}
	}
	for _, v := range []Variant{DirectChaining, SeparateChaining, Coalesced} {
		for _, h := range hashes {
			configs = append(configs, Config{Variant: v, Hash: h})
		}
	}
	return configs
}

// NewBuilder returns a Builder for the configuration c. The hasher and
// prober are fixed at compile time for each combination; only the choice
// of combination happens at runtime.
func NewBuilder(c Config, options ...option) (Builder[uint32], error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	switch c.Hash {
	case Mod:
		return newBuilder[ModHash](c, options), nil
	case Mul:
		return newBuilder[MulHash](c, options), nil
	case XorShift:
		return newBuilder[XorShiftHash](c, options), nil
	case XX:
		return newBuilder[XXHash](c, options), nil
	case XXH3:
		return newBuilder[XXH3Hash](c, options), nil
	default:
		return newBuilder[Murmur3Hash](c, options), nil
	}
}

// newBuilder expects a validated configuration.
func newBuilder[H Hasher[uint32]](c Config, options []option) Builder[uint32] {
	switch c.Variant {
	case OpenAddressing:
		switch c.Probe {
		case Linear:
			return NewOpenAddressingBuilder[uint32, H, LinearProber](options...)
		case Quadratic:
			return NewOpenAddressingBuilder[uint32, H, QuadraticProber](options...)
		default:
			return NewOpenAddressingBuilder[uint32, H, TriangularProber](options...)
		}
	case DirectChaining:
		return NewDirectChainingBuilder[uint32, H](options...)
	case SeparateChaining:
		return NewSeparateChainingBuilder[uint32, H](options...)
	default:
		return NewCoalescedBuilder[uint32, H](options...)
	}
}
