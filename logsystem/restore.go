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
	"github.com/tagpartitioned/tpls/logpb"
	"github.com/tagpartitioned/tpls/logset"
	"github.com/tagpartitioned/tpls/policy"
	"github.com/tagpartitioned/tpls/tlogconn"
)

// PolicyResolver maps a TLogPolicyName recorded in a config snapshot back
// to the live Policy value it names. Reconstruction never has enough
// information on its own to rebuild a policy from its string name; the
// caller (typically the config package, which owns the declarative
// policy definitions) supplies the mapping.
type PolicyResolver func(name string) policy.Policy

// FromLogSystemConfig reconstructs a running view of cfg. Replica and
// router handles are created with no live endpoint; this function does
// not dial, and no code in this module later calls Set on them.
func FromLogSystemConfig(cfg logpb.LogSystemConfig, resolve PolicyResolver) *LogSystem {
	s := New(
		setsFromConfig(cfg.TLogs, resolve),
		historyFromConfig(cfg.OldTLogs, resolve),
		cfg.LogRouterTags,
		cfg.RecruitmentID,
	)
	s.stopped = cfg.Stopped
	s.epochEndVersion = cfg.EpochEndVersion
	s.knownCommittedVersion = cfg.KnownCommittedVersion
	return s
}

// FromOldLogSystemConfig reconstructs a frozen predecessor generation:
// old's TLogs become the returned LogSystem's current (but stopped) sets,
// and remainingHistory becomes its history, shifting old out of the
// history list and into the tLogs position the way a generation looks
// immediately after its own recovery completed.
func FromOldLogSystemConfig(
	old logpb.OldTLogConfig, remainingHistory []logpb.OldTLogConfig, logRouterTags int32,
	recruitmentID logpb.RecruitmentID, resolve PolicyResolver,
) *LogSystem {
	s := New(
		setsFromConfig(old.TLogs, resolve),
		historyFromConfig(remainingHistory, resolve),
		logRouterTags,
		recruitmentID,
	)
	s.stopped = true
	s.epochEndVersion = old.EpochEnd
	return s
}

func setsFromConfig(cfgs []logpb.TLogSetConfig, resolve PolicyResolver) []*logset.LogSet {
	out := make([]*logset.LogSet, len(cfgs))
	for i, cfg := range cfgs {
		replicas := make([]*tlogconn.Handle, len(cfg.TLogs))
		for j := range cfg.TLogs {
			var loc logpb.LocalityData
			if j < len(cfg.TLogLocalities) {
				loc = cfg.TLogLocalities[j]
			}
			replicas[j] = tlogconn.NewHandle(nil, loc)
		}
		routers := make([]*tlogconn.Handle, len(cfg.LogRouters))
		for j := range cfg.LogRouters {
			routers[j] = tlogconn.NewHandle(nil, logpb.LocalityData{})
		}

		var best logset.BestPolicyFunc
		if cfg.HasBestPolicy {
			best = logset.IdentityBestPolicy
		}
		out[i] = &logset.LogSet{
			Replicas:          replicas,
			LogRouters:        routers,
			WriteAntiQuorum:   cfg.TLogWriteAntiQuorum,
			ReplicationFactor: cfg.TLogReplicationFactor,
			Policy:            resolve(cfg.TLogPolicyName),
			Localities:        cfg.TLogLocalities,
			Locality:          cfg.Locality,
			IsLocal:           cfg.IsLocal,
			HasBestPolicy:     cfg.HasBestPolicy,
			BestPolicy:        best,
			StartVersion:      cfg.StartVersion,
		}
	}
	return out
}

func historyFromConfig(cfgs []logpb.OldTLogConfig, resolve PolicyResolver) []*logset.OldLogData {
	out := make([]*logset.OldLogData, len(cfgs))
	for i, cfg := range cfgs {
		out[i] = &logset.OldLogData{
			Sets:          setsFromConfig(cfg.TLogs, resolve),
			LogRouterTags: cfg.LogRouterTags,
			EpochEnd:      cfg.EpochEnd,
		}
	}
	return out
}
