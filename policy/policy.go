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

// Package policy implements the replication-policy evaluator: a pure
// predicate over multisets of LocalityData. The log system is
// parameterized by a Policy value rather than baking any one evaluator in.
package policy

import "github.com/tagpartitioned/tpls/logpb"

// Policy decides whether a group of localities satisfies a declarative
// replication requirement.
type Policy interface {
	// Validate reports whether group collectively satisfies the policy.
	Validate(group []logpb.LocalityData) bool

	// String names the policy for config snapshots ("tLogPolicy").
	String() string
}

// Validate is the free-function form used throughout logsystem; it
// forwards to p.Validate, and a nil p validates every group.
func Validate(group []logpb.LocalityData, p Policy) bool {
	if p == nil {
		return true
	}
	return p.Validate(group)
}

// AllCombinationsInvalid reports whether no k-subset of available, combined
// with failed, can ever validate p. It is used during epoch-end locking to
// decide which tLogs must be locked: any set that could still form a
// quorum must not remain unlocked.
func AllCombinationsInvalid(failed []logpb.LocalityData, p Policy, available []logpb.LocalityData, k int) bool {
	if k <= 0 {
		return !Validate(failed, p)
	}
	if k > len(available) {
		return true
	}
	combo := make([]int, k)
	for i := range combo {
		combo[i] = i
	}
	for {
		group := make([]logpb.LocalityData, 0, len(failed)+k)
		group = append(group, failed...)
		for _, idx := range combo {
			group = append(group, available[idx])
		}
		if Validate(group, p) {
			return false
		}
		if !nextCombination(combo, len(available)) {
			return true
		}
	}
}

// nextCombination advances combo (a sorted set of indices into a
// universe of size n) to the next combination in lexicographic order;
// returns false once combo is the last one.
func nextCombination(combo []int, n int) bool {
	k := len(combo)
	i := k - 1
	for i >= 0 && combo[i] == n-k+i {
		i--
	}
	if i < 0 {
		return false
	}
	combo[i]++
	for j := i + 1; j < k; j++ {
		combo[j] = combo[j-1] + 1
	}
	return true
}
