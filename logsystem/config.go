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

package logsystem

import (
	"math/rand"

	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
)

// ToCoreState writes the persistable descriptor of the current
// generation. History is included only while local or remote recovery
// commitment remains outstanding; once historyDiscarded has latched, the
// coordinator has already been told it may forget prior generations and
// every subsequent snapshot carries an empty history, so a transiently
// stale snapshot can never resurrect data that was already discarded.
func (s *LogSystem) ToCoreState() logpb.DBCoreState {
	state := logpb.DBCoreState{
		TLogs:         setsToConfig(s.current),
		LogRouterTags: s.logRouterTags,
		RecruitmentID: s.recruitmentID,
	}
	if !s.historyDiscarded {
		state.OldTLogs = historyToConfig(s.history)
	}
	return state
}

// LatchHistoryDiscarded records that the external coordinator has
// acknowledged both local and remote recovery commitment; every
// subsequent ToCoreState call omits history.
func (s *LogSystem) LatchHistoryDiscarded() { s.historyDiscarded = true }

// GetLogSystemConfig produces the full public descriptor, including
// historical generations regardless of the discard latch — config
// snapshots taken for recruitment (rather than for persistence) always
// need the complete lineage.
func (s *LogSystem) GetLogSystemConfig() logpb.LogSystemConfig {
	return logpb.LogSystemConfig{
		TLogs:                 setsToConfig(s.current),
		OldTLogs:              historyToConfig(s.history),
		LogRouterTags:         s.logRouterTags,
		RecruitmentID:         s.recruitmentID,
		Stopped:               s.stopped,
		EpochEndVersion:       s.epochEndVersion,
		KnownCommittedVersion: s.knownCommittedVersion,
	}
}

func setsToConfig(sets []*logset.LogSet) []logpb.TLogSetConfig {
	out := make([]logpb.TLogSetConfig, len(sets))
	for i, set := range sets {
		ids := make([]logpb.ReplicaID, set.N())
		for j, h := range set.Replicas {
			if ep := h.Get(); ep != nil {
				ids[j] = ep.ID()
			}
		}
		routerIDs := make([]logpb.ReplicaID, len(set.LogRouters))
		for j, h := range set.LogRouters {
			if ep := h.Get(); ep != nil {
				routerIDs[j] = ep.ID()
			}
		}
		policyName := ""
		if set.Policy != nil {
			policyName = set.Policy.String()
		}
		out[i] = logpb.TLogSetConfig{
			TLogs:                 ids,
			TLogLocalities:        set.Localities,
			TLogWriteAntiQuorum:   set.WriteAntiQuorum,
			TLogReplicationFactor: set.ReplicationFactor,
			TLogPolicyName:        policyName,
			IsLocal:               set.IsLocal,
			HasBestPolicy:         set.HasBestPolicy,
			Locality:              set.Locality,
			StartVersion:          set.StartVersion,
			LogRouters:            routerIDs,
		}
	}
	return out
}

func historyToConfig(history []*logset.OldLogData) []logpb.OldTLogConfig {
	out := make([]logpb.OldTLogConfig, len(history))
	for i, gen := range history {
		out[i] = logpb.OldTLogConfig{
			TLogs:         setsToConfig(gen.Sets),
			LogRouterTags: gen.LogRouterTags,
			EpochEnd:      gen.EpochEnd,
		}
	}
	return out
}

// GetPushLocations appends, for each tag in tags, the flat replica-array
// indices push should address for it, offsetting by a running base so
// the result indexes the concatenation of every local set's replicas in
// iteration order (the same order Push walks).
func (s *LogSystem) GetPushLocations(tags []logpb.Tag, out []int) []int {
	base := 0
	for _, set := range s.current {
		if !set.IsLocal {
			continue
		}
		for _, tag := range tags {
			if !set.MatchesTagLocality(tag) {
				continue
			}
			if idx, ok := set.BestLocationFor(tag); ok {
				out = append(out, base+idx)
				continue
			}
			for j := range set.Replicas {
				out = append(out, base+j)
			}
		}
		base += len(set.Replicas)
	}
	return out
}

// GetRandomRouterTag returns a uniformly random log-router tag in
// [0, logRouterTags).
func (s *LogSystem) GetRandomRouterTag() logpb.Tag {
	if s.logRouterTags <= 0 {
		return logpb.Tag{Locality: logpb.TagLocalityLogRouter, ID: 0}
	}
	return logpb.Tag{Locality: logpb.TagLocalityLogRouter, ID: rand.Int31n(s.logRouterTags)}
}
