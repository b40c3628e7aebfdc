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

package policy

import (
	"fmt"

	"github.com/tagpartitioned/tpls/logpb"
)

// acrossDistinctValues validates when group spans at least Count distinct
// values of Tier (e.g. "zone" or "dc"), mirroring the replication-factor
// clause of a cockroach zone-config constraint conjunction.
type acrossDistinctValues struct {
	Tier  string
	Count int
}

// Across builds a Policy requiring at least count distinct values of tier
// among the group (e.g. "replicas must span 3 distinct zones").
func Across(tier string, count int) Policy {
	return acrossDistinctValues{Tier: tier, Count: count}
}

func (p acrossDistinctValues) Validate(group []logpb.LocalityData) bool {
	seen := make(map[string]struct{})
	for _, l := range group {
		if v, ok := l.Get(p.Tier); ok {
			seen[v] = struct{}{}
		}
	}
	return len(seen) >= p.Count
}

func (p acrossDistinctValues) String() string {
	return fmt.Sprintf("across(%s,%d)", p.Tier, p.Count)
}

// requiredTier validates when every member of group carries tier=value.
type requiredTier struct {
	Tier, Value string
}

// Required builds a Policy requiring every replica in the group to carry
// tier=value (e.g. pinning a satellite set to one region).
func Required(tier, value string) Policy {
	return requiredTier{Tier: tier, Value: value}
}

func (p requiredTier) Validate(group []logpb.LocalityData) bool {
	if len(group) == 0 {
		return false
	}
	for _, l := range group {
		if v, ok := l.Get(p.Tier); !ok || v != p.Value {
			return false
		}
	}
	return true
}

func (p requiredTier) String() string {
	return fmt.Sprintf("required(%s=%s)", p.Tier, p.Value)
}

// AtLeast validates when the group has at least n members, regardless of
// their localities. Used for policy-less replication factors (R==N, W==0
// with no fault-domain requirement).
func AtLeast(n int) Policy {
	return atLeast(n)
}

type atLeast int

func (n atLeast) Validate(group []logpb.LocalityData) bool {
	return len(group) >= int(n)
}

func (n atLeast) String() string {
	return fmt.Sprintf("atLeast(%d)", int(n))
}

// All combines multiple policies with logical AND, matching a zone
// config's constraint conjunction (several simultaneous requirements).
func All(policies ...Policy) Policy {
	return allOf(policies)
}

type allOf []Policy

func (a allOf) Validate(group []logpb.LocalityData) bool {
	for _, p := range a {
		if !p.Validate(group) {
			return false
		}
	}
	return true
}

func (a allOf) String() string {
	s := "all("
	for i, p := range a {
		if i > 0 {
			s += ","
		}
		s += p.String()
	}
	return s + ")"
}
