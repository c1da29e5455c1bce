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

import "errors"

var (
	// ErrInvalidConfiguration is returned when a byte budget cannot host the
	// requested number of elements, or does not match a fixed-size table.
	ErrInvalidConfiguration = errors.New("hashset: invalid table configuration")
	// ErrUnknownConfig is returned when a configuration names a variant,
	// hasher or prober that does not exist or does not combine.
	ErrUnknownConfig = errors.New("hashset: unknown configuration")
)
