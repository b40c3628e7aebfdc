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

package logset

import "github.com/tagpartitioned/tpls/logpb"

// OldLogData is a historical generation: the LogSets that carried it, how
// many router tags it minted, and the exclusive upper bound of versions
// it carries. History entries are append-only for the life of a TPLS
// instance and read concurrently by peek and by router recruitment; they
// must never be mutated in place once appended.
type OldLogData struct {
	Sets          []*LogSet
	LogRouterTags int32
	EpochEnd      logpb.Version
}

// LocalMaxStartVersion returns the maximum StartVersion among this
// generation's local sets, the "lastBegin"/"thisBegin" quantity used when
// stitching cursors across generations. It returns ok=false if the
// generation has no local sets.
func (o *OldLogData) LocalMaxStartVersion() (logpb.Version, bool) {
	max := logpb.InvalidVersion
	found := false
	for _, s := range o.Sets {
		if !s.IsLocal {
			continue
		}
		if !found || s.StartVersion > max {
			max = s.StartVersion
			found = true
		}
	}
	return max, found
}

// SetWithLocality returns the first set in this generation, local or not,
// whose Locality equals loc, or nil.
func (o *OldLogData) SetWithLocality(loc logpb.Locality) *LogSet {
	for _, s := range o.Sets {
		if s.Locality == loc {
			return s
		}
	}
	return nil
}
