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

	"github.com/rs/zerolog"
)

// option provide an interface to do work on a table's configuration while
// the table is being created.
type option interface {
	apply(c *config)
}

type config struct {
	capacity int
	logger   zerolog.Logger
}

func makeConfig(options []option) config {
	c := config{
		capacity: DefaultCapacity,
		logger:   zerolog.Nop(),
	}
	for _, op := range options {
		op.apply(&c)
	}
	if c.capacity < 1 {
		panic(fmt.Sprintf("hashset: capacity must be positive, got %d", c.capacity))
	}
	return c
}

type capacityOption struct {
	capacity int
}

func (op capacityOption) apply(c *config) {
	c.capacity = op.capacity
}

// WithCapacity is an option to specify the number of slots (open addressing,
// coalesced) or buckets (chaining) a table is created with. The capacity of
// an open addressing table is fixed for its lifetime.
func WithCapacity(capacity int) option {
	return capacityOption{capacity}
}

type loggerOption struct {
	logger zerolog.Logger
}

func (op loggerOption) apply(c *config) {
	c.logger = op.logger
}

// WithLogger is an option to specify the logger a table reports
// configuration changes to. Tables are silent by default.
func WithLogger(logger zerolog.Logger) option {
	return loggerOption{logger}
}

// tableLogger reports reshaping of a table.
type tableLogger struct {
	zerolog.Logger
}

func (l tableLogger) resized(variant string, bytes, elements, capacity int) {
	l.Debug().Str("variant", variant).Int("bytes", bytes).Int("elements", elements).
		Int("capacity", capacity).Msg("table resized to byte budget")
}

func (l tableLogger) rejected(variant string, bytes, elements int, err error) {
	l.Warn().Err(err).Str("variant", variant).Int("bytes", bytes).Int("elements", elements).
		Msg("byte budget rejected")
}
