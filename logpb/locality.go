// Copyright 2015 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License. See the AUTHORS file
// for names of contributors.

package logpb

import (
	"sort"
	"strings"
)

// LocalityData is an opaque attribute bag (zone/machine/dc/...) describing
// where a replica lives, consumed by the replication-policy evaluator. It
// is deliberately a flat map rather than a fixed struct: the policy
// evaluator only ever asks for named tiers.
type LocalityData map[string]string

// Get returns the value of a named tier and whether it was present.
func (l LocalityData) Get(tier string) (string, bool) {
	v, ok := l[tier]
	return v, ok
}

// Clone returns an independent copy; LocalityData is shared across
// replicas and must never be mutated in place by a reader.
func (l LocalityData) Clone() LocalityData {
	out := make(LocalityData, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// String renders tiers in sorted key order for stable log output.
func (l LocalityData) String() string {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + l[k]
	}
	return strings.Join(parts, ",")
}
